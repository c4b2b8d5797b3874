package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"carprice/internal/features"
	"carprice/internal/gbm"
	"carprice/internal/preprocess"
)

// snapshot is the on-disk layout of a TrainedState.
type snapshot struct {
	Model        *gbm.Ensemble                  `json:"model"`
	Scaler       *preprocess.Scaler             `json:"scaler"`
	Encoders     map[string]*preprocess.Encoder `json:"label_encoders"`
	FeatureNames []string                       `json:"feature_names"`
	Metrics      Metrics                        `json:"metrics"`
	IsTrained    *bool                          `json:"is_trained"`
	Version      string                         `json:"model_version,omitempty"`
	LastTrained  string                         `json:"last_trained,omitempty"`
}

// Marshal encodes st as a JSON snapshot.
func Marshal(st *TrainedState) ([]byte, error) {
	if st == nil || st.Ensemble == nil || st.Scaler == nil {
		return nil, ErrUntrained
	}
	trained := st.Trained
	return json.MarshalIndent(snapshot{
		Model:        st.Ensemble,
		Scaler:       st.Scaler,
		Encoders:     st.Encoders,
		FeatureNames: st.FeatureNames,
		Metrics:      st.Metrics,
		IsTrained:    &trained,
		Version:      st.Version,
		LastTrained:  st.TrainedAt,
	}, "", "  ")
}

// Unmarshal decodes and checks a snapshot produced by Marshal.
func Unmarshal(data []byte) (*TrainedState, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &DeserializationError{Reason: "malformed json", Err: err}
	}

	switch {
	case snap.Model == nil:
		return nil, &DeserializationError{Reason: "missing model"}
	case snap.Scaler == nil:
		return nil, &DeserializationError{Reason: "missing scaler"}
	case snap.Encoders == nil:
		return nil, &DeserializationError{Reason: "missing label_encoders"}
	case len(snap.FeatureNames) == 0:
		return nil, &DeserializationError{Reason: "missing feature_names"}
	case snap.IsTrained != nil && !*snap.IsTrained:
		return nil, &DeserializationError{Reason: "snapshot is marked untrained"}
	}
	for _, field := range features.Categorical() {
		if snap.Encoders[field] == nil {
			return nil, &DeserializationError{Reason: "missing label encoder for " + field}
		}
	}

	if err := snap.Model.Validate(); err != nil {
		return nil, &DeserializationError{Reason: "invalid model", Err: err}
	}
	if err := snap.Scaler.Validate(); err != nil {
		return nil, &DeserializationError{Reason: "invalid scaler", Err: err}
	}
	width := len(snap.FeatureNames)
	if width != len(features.Columns()) {
		return nil, &DeserializationError{Reason: fmt.Sprintf("expected %d feature names, got %d", len(features.Columns()), width)}
	}
	if snap.Model.NFeatures != width || len(snap.Scaler.Mean) != width {
		return nil, &DeserializationError{Reason: "model, scaler and feature_names disagree on width"}
	}

	st := &TrainedState{
		Ensemble:     snap.Model,
		Scaler:       snap.Scaler,
		Encoders:     snap.Encoders,
		FeatureNames: snap.FeatureNames,
		Metrics:      snap.Metrics,
		Version:      snap.Version,
		TrainedAt:    snap.LastTrained,
		// An absent is_trained key is accepted; every component was checked above.
		Trained: true,
	}
	if st.Version == "" {
		st.Version = DefaultVersion
	}
	if st.TrainedAt == "" {
		st.TrainedAt = UnknownTimestamp
	}
	return st, nil
}

// SaveFile writes st to path atomically.
func SaveFile(path string, st *TrainedState) error {
	data, err := Marshal(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadFile reads and decodes the snapshot at path.
func LoadFile(path string) (*TrainedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("model snapshot %s: %w", path, err)
		}
		return nil, fmt.Errorf("read model snapshot: %w", err)
	}
	return Unmarshal(data)
}
