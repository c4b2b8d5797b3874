package ml

import (
	"carprice/internal/car"
	"carprice/internal/features"
	"carprice/internal/gbm"
	"carprice/internal/preprocess"
)

const (
	// DefaultVersion is reported by snapshots that carry no version.
	DefaultVersion = "1.0.0"
	// UnknownTimestamp is reported by snapshots that carry no training time.
	UnknownTimestamp = "Unknown"
)

// Metrics are the hold-out evaluation scores of a trained model.
type Metrics struct {
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
	Accuracy float64 `json:"accuracy"`
}

// TrainedState is everything needed to serve predictions. A published state
// is never modified; training and loading replace it wholesale.
type TrainedState struct {
	Ensemble     *gbm.Ensemble
	Scaler       *preprocess.Scaler
	Encoders     map[string]*preprocess.Encoder
	FeatureNames []string
	Metrics      Metrics
	Version      string
	TrainedAt    string
	Trained      bool
}

// encode maps the categorical fields of r to codes and reports the fields
// whose value was not in the training vocabulary.
func (s *TrainedState) encode(r car.Record) (features.Codes, []string) {
	var unseen []string
	code := func(field, v string) int {
		c, known := s.Encoders[field].Encode(v)
		if !known {
			unseen = append(unseen, field)
		}
		return c
	}
	codes := features.Codes{
		Brand:        code(features.ColBrand, r.Brand),
		FuelType:     code(features.ColFuelType, r.FuelType),
		Transmission: code(features.ColTransmission, r.Transmission),
		BodyType:     code(features.ColBodyType, r.BodyType),
	}
	return codes, unseen
}

// ModelInfo is the read-only status view of the current state.
type ModelInfo struct {
	IsTrained    bool     `json:"is_trained"`
	Metrics      Metrics  `json:"metrics"`
	FeatureNames []string `json:"feature_names"`
	Version      string   `json:"model_version"`
	LastTrained  string   `json:"last_trained"`
}
