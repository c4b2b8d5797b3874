package storage

import (
	"fmt"
	"time"

	"carprice/internal/car"

	"github.com/google/uuid"
)

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	Input        car.Record `json:"input"`
	Price        float64    `json:"price"`
	Lower        float64    `json:"lower"`
	Upper        float64    `json:"upper"`
	ModelVersion string     `json:"model_version"`
}

// TrainingRun summarises one completed training.
type TrainingRun struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Samples   int           `json:"samples"`
	Seed      uint64        `json:"seed"`
	MAE       float64       `json:"mae"`
	R2        float64       `json:"r2"`
	Duration  time.Duration `json:"duration_ns"`
	Version   string        `json:"model_version"`
}

// StorePrediction appends rec to the prediction log, assigning an ID and a
// timestamp when they are unset. The stored record is returned.
func (s *Store) StorePrediction(rec PredictionRecord) (PredictionRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := put(s.db, predictionsBucket, recordKey(rec.Timestamp, rec.ID), rec); err != nil {
		return PredictionRecord{}, fmt.Errorf("store prediction: %w", err)
	}
	return rec, nil
}

// StoreTrainingRun appends run to the training log.
func (s *Store) StoreTrainingRun(run TrainingRun) (TrainingRun, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if err := put(s.db, trainingRunsBucket, recordKey(run.Timestamp, run.ID), run); err != nil {
		return TrainingRun{}, fmt.Errorf("store training run: %w", err)
	}
	return run, nil
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionRecord, error) {
	return recent[PredictionRecord](s.db, predictionsBucket, limit)
}

// RecentTrainingRuns returns up to limit training runs, newest first.
func (s *Store) RecentTrainingRuns(limit int) ([]TrainingRun, error) {
	return recent[TrainingRun](s.db, trainingRunsBucket, limit)
}

// GetPredictionsInRange returns predictions stamped within [start, end],
// oldest first.
func (s *Store) GetPredictionsInRange(start, end time.Time) ([]PredictionRecord, error) {
	return inRange[PredictionRecord](s.db, predictionsBucket, start, end)
}

// PredictionCount returns the number of stored predictions.
func (s *Store) PredictionCount() (int, error) {
	return count(s.db, predictionsBucket)
}
