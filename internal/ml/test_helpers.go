package ml

import (
	"sync"
	"time"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         int
	validationFails  int
	unseen           map[string]int
	latencySum       float64
	prices           []float64
	trainingRuns     int
	trainingDuration float64
	mae, r2          float64
	trainedAt        time.Time
	loadFailures     int
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLValidationFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationFails++
}

func (m *MockMetrics) MLUnseenCategoryInc(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unseen == nil {
		m.unseen = map[string]int{}
	}
	m.unseen[field]++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLPredictedPriceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = append(m.prices, v)
}

func (m *MockMetrics) MLTrainingRunsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingRuns++
}

func (m *MockMetrics) MLTrainingDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingDuration += v
}

func (m *MockMetrics) MLModelQualitySet(mae, r2 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mae, m.r2 = mae, r2
}

func (m *MockMetrics) MLModelTrainedAtSet(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainedAt = t
}

func (m *MockMetrics) MLLoadFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFailures++
}

// Getters for testing
func (m *MockMetrics) GetPredictions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions
}

func (m *MockMetrics) GetFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

func (m *MockMetrics) GetValidationFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validationFails
}

func (m *MockMetrics) GetUnseen(field string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unseen[field]
}

func (m *MockMetrics) GetTrainingRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainingRuns
}

func (m *MockMetrics) GetLoadFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadFailures
}

func (m *MockMetrics) GetQuality() (mae, r2 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mae, m.r2
}

func (m *MockMetrics) GetTrainedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainedAt
}
