package ml

import "math"

// ConfidenceZ is the two-sided 95% normal quantile used to widen the band.
const ConfidenceZ = 1.96

// Confidence is a heuristic price band around a point estimate.
type Confidence struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Interval returns price ± ConfidenceZ·mae with the lower bound clamped at
// zero. mae is the hold-out mean absolute error, used as an error scale.
func Interval(price, mae float64) Confidence {
	half := ConfidenceZ * mae
	return Confidence{
		Lower: math.Max(price-half, 0),
		Upper: price + half,
	}
}
