package car

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultSeed is the seed the training corpus is generated with.
	DefaultSeed uint64 = 42
	// DefaultSamples is the size of the training corpus.
	DefaultSamples = 2000

	minYear       = 2005
	maxYear       = 2025 // exclusive
	meanMileage   = 45000.0
	minEngineSize = 1.0
	maxEngineSize = 6.0 // exclusive
	minHorsepower = 80
	maxHorsepower = 500 // exclusive
	maxOwners     = 5   // exclusive
)

// Generate returns n labeled samples drawn from a single PCG source seeded
// with seed. Columns are drawn one after another (all brands, then all years,
// ...) and the label noise last, so the corpus is identical for identical
// (n, seed) pairs.
func Generate(n int, seed uint64) []Sample {
	if n <= 0 {
		return nil
	}
	src := rand.NewPCG(seed, seed)
	rng := rand.New(src)

	brands := pick(rng, Brands, n)
	years := intRange(rng, minYear, maxYear, n)
	mileage := draw(distuv.Exponential{Rate: 1 / meanMileage, Src: src}, n)
	fuels := pick(rng, FuelTypes, n)
	transmissions := pick(rng, Transmissions, n)
	engines := draw(distuv.Uniform{Min: minEngineSize, Max: maxEngineSize, Src: src}, n)
	horsepower := intRange(rng, minHorsepower, maxHorsepower, n)
	bodies := pick(rng, BodyTypes, n)
	doors := pick(rng, DoorCounts, n)
	owners := intRange(rng, 0, maxOwners, n)
	noise := draw(distuv.Normal{Mu: 0, Sigma: NoiseStdDev, Src: src}, n)

	out := make([]Sample, n)
	for i := range out {
		r := Record{
			Brand:          brands[i],
			Year:           years[i],
			Mileage:        mileage[i],
			FuelType:       fuels[i],
			Transmission:   transmissions[i],
			EngineSize:     engines[i],
			Horsepower:     horsepower[i],
			BodyType:       bodies[i],
			Doors:          doors[i],
			PreviousOwners: owners[i],
		}
		out[i] = Sample{Record: r, Price: Price(r, noise[i])}
	}
	return out
}

// Price is the ground-truth pricing formula the corpus is labeled with.
func Price(r Record, noise float64) float64 {
	automatic := 0.0
	if r.Transmission == Automatic {
		automatic = AutomaticPremium
	}
	p := BasePrice +
		float64(r.Year-BaseYear)*PerYearPremium +
		float64(r.Horsepower)*PerHorsepower +
		r.EngineSize*PerEngineLiter +
		BrandPremium[r.Brand] +
		BodyPremium[r.BodyType] +
		FuelPremium[r.FuelType] +
		automatic -
		r.Mileage*PerMileDiscount -
		float64(r.PreviousOwners)*PerOwnerDiscount +
		noise
	return math.Max(p, MinPrice)
}

type sampler interface {
	Rand() float64
}

func draw(d sampler, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

func pick[T any](rng *rand.Rand, from []T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = from[rng.IntN(len(from))]
	}
	return out
}

func intRange(rng *rand.Rand, lo, hi, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = lo + rng.IntN(hi-lo)
	}
	return out
}
