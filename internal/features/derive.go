package features

import "carprice/internal/car"

// Column names of the model input, in the order the ensemble sees them.
const (
	ColBrand          = "brand"
	ColYear           = "year"
	ColMileage        = "mileage"
	ColFuelType       = "fuel_type"
	ColTransmission   = "transmission"
	ColEngineSize     = "engine_size"
	ColHorsepower     = "horsepower"
	ColBodyType       = "body_type"
	ColDoors          = "doors"
	ColPreviousOwners = "previous_owners"
	ColCarAge         = "car_age"
	ColMileagePerYear = "mileage_per_year"
	ColPowerToWeight  = "power_to_weight"
)

// Columns returns a fresh copy of the model input column order.
func Columns() []string {
	return []string{
		ColBrand, ColYear, ColMileage, ColFuelType, ColTransmission,
		ColEngineSize, ColHorsepower, ColBodyType, ColDoors, ColPreviousOwners,
		ColCarAge, ColMileagePerYear, ColPowerToWeight,
	}
}

// Categorical lists the columns that go through label encoding.
func Categorical() []string {
	return []string{ColBrand, ColFuelType, ColTransmission, ColBodyType}
}

// Derived holds the engineered features reported with every prediction.
type Derived struct {
	CarAge         int     `json:"car_age"`
	MileagePerYear float64 `json:"mileage_per_year"`
	PowerToWeight  float64 `json:"power_to_weight"`
}

// Derive computes the engineered features of r relative to refYear. The
// caller is expected to have validated EngineSize > 0. A car_age of -1 would
// zero the mileage denominator; it is clamped to 1 in that case only.
func Derive(r car.Record, refYear int) Derived {
	age := refYear - r.Year
	denom := float64(age + 1)
	if denom == 0 {
		denom = 1
	}
	return Derived{
		CarAge:         age,
		MileagePerYear: r.Mileage / denom,
		PowerToWeight:  float64(r.Horsepower) / r.EngineSize,
	}
}

// Codes holds the encoded values of the categorical columns.
type Codes struct {
	Brand        int
	FuelType     int
	Transmission int
	BodyType     int
}

// Row builds the unscaled model input for r. Training and inference both go
// through here so the column order cannot drift.
func Row(r car.Record, c Codes, refYear int) []float64 {
	d := Derive(r, refYear)
	return []float64{
		float64(c.Brand),
		float64(r.Year),
		r.Mileage,
		float64(c.FuelType),
		float64(c.Transmission),
		r.EngineSize,
		float64(r.Horsepower),
		float64(c.BodyType),
		float64(r.Doors),
		float64(r.PreviousOwners),
		float64(d.CarAge),
		d.MileagePerYear,
		d.PowerToWeight,
	}
}
