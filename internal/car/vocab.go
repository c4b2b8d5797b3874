package car

// Vocabularies the synthetic corpus draws from, in draw order.
var (
	Brands = []string{
		"Toyota", "Honda", "BMW", "Mercedes", "Audi", "Ford",
		"Chevrolet", "Nissan", "Volkswagen", "Hyundai",
	}
	FuelTypes     = []string{"Petrol", "Diesel", "Electric", "Hybrid"}
	Transmissions = []string{"Manual", "Automatic"}
	BodyTypes     = []string{"Sedan", "SUV", "Hatchback", "Coupe", "Wagon", "Convertible"}
	DoorCounts    = []int{2, 4, 5}
)

// Price offsets applied on top of the base price. Missing keys contribute 0.
var (
	BrandPremium = map[string]float64{
		"BMW": 15000, "Mercedes": 18000, "Audi": 14000,
		"Toyota": 2000, "Honda": 1500, "Ford": 0,
		"Chevrolet": -1000, "Nissan": 500, "Volkswagen": 1200,
		"Hyundai": 800,
	}
	BodyPremium = map[string]float64{
		"SUV": 5000, "Sedan": 2000, "Coupe": 3000,
		"Hatchback": 0, "Wagon": 1000, "Convertible": 4000,
	}
	FuelPremium = map[string]float64{
		"Electric": 8000, "Hybrid": 4000,
		"Diesel": 2000, "Petrol": 0,
	}
)

const (
	// Automatic is the transmission value that carries AutomaticPremium.
	Automatic = "Automatic"

	BasePrice        = 15000.0
	BaseYear         = 2010
	PerYearPremium   = 2000.0
	PerHorsepower    = 50.0
	PerEngineLiter   = 3000.0
	AutomaticPremium = 2000.0
	PerMileDiscount  = 0.1
	PerOwnerDiscount = 1500.0
	NoiseStdDev      = 3000.0
	MinPrice         = 5000.0
)
