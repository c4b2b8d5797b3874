// Package ml is the car price pipeline: it generates the training corpus,
// fits the encoders, scaler and boosted ensemble, evaluates them on a hold-out
// split and serves predictions with a confidence band.
//
// A Model starts untrained. Train or Load publish an immutable TrainedState
// that Predict reads without locking, so predictions may run concurrently
// with each other and with a retrain.
package ml

import "carprice/internal/car"

// Predictor is the surface consumed by the HTTP layer.
type Predictor interface {
	// Predict prices a single vehicle using the current calendar year.
	Predict(r car.Record) (*PredictionResult, error)

	// Info reports the state of the currently published model.
	Info() ModelInfo
}

var _ Predictor = (*Model)(nil)
