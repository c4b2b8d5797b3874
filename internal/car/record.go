// Package car defines the vehicle record used throughout the pricing pipeline
// and the synthetic corpus generator the model is trained on.
package car

import "math"

// Record is the raw description of a used vehicle. It is a plain value and is
// never modified after construction.
type Record struct {
	Brand          string  `json:"brand"`
	Year           int     `json:"year"`
	Mileage        float64 `json:"mileage"`
	FuelType       string  `json:"fuel_type"`
	Transmission   string  `json:"transmission"`
	EngineSize     float64 `json:"engine_size"`
	Horsepower     int     `json:"horsepower"`
	BodyType       string  `json:"body_type"`
	Doors          int     `json:"doors"`
	PreviousOwners int     `json:"previous_owners"`
}

// Sample is a labeled Record.
type Sample struct {
	Record
	Price float64 `json:"price"`
}

// Problem describes a single semantically invalid field.
type Problem struct {
	Field  string
	Reason string
}

// Validate reports every field whose value cannot be fed through the feature
// pipeline. A nil slice means the record is usable.
func (r Record) Validate() []Problem {
	var out []Problem
	if r.Brand == "" {
		out = append(out, Problem{"brand", "must not be empty"})
	}
	switch {
	case !finite(r.Mileage):
		out = append(out, Problem{"mileage", "must be a finite number"})
	case r.Mileage < 0:
		out = append(out, Problem{"mileage", "must be >= 0"})
	}
	if r.FuelType == "" {
		out = append(out, Problem{"fuelType", "must not be empty"})
	}
	if r.Transmission == "" {
		out = append(out, Problem{"transmission", "must not be empty"})
	}
	// power_to_weight divides by engine size
	switch {
	case !finite(r.EngineSize):
		out = append(out, Problem{"engineSize", "must be a finite number"})
	case r.EngineSize <= 0:
		out = append(out, Problem{"engineSize", "must be > 0"})
	}
	if r.Horsepower <= 0 {
		out = append(out, Problem{"horsepower", "must be > 0"})
	}
	if r.BodyType == "" {
		out = append(out, Problem{"bodyType", "must not be empty"})
	}
	if r.PreviousOwners < 0 {
		out = append(out, Problem{"previousOwners", "must be >= 0"})
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
