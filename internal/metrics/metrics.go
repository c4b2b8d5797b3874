// Package metrics provides Prometheus metrics collection for the car price
// service. It defines the prediction, training and HTTP metrics exposed on the
// /metrics endpoint.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter // Total number of successful predictions
	PredictionFailures prometheus.Counter // Predictions that failed after validation
	ValidationFailures prometheus.Counter // Requests rejected as invalid
	UnseenCategories   *prometheus.CounterVec
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency
	PredictedPrice     prometheus.Histogram // Distribution of predicted prices

	// Model metrics
	TrainingRuns     prometheus.Counter
	TrainingDuration prometheus.Histogram
	ModelMAE         prometheus.Gauge     // Hold-out mean absolute error
	ModelR2          prometheus.Gauge     // Hold-out coefficient of determination
	ModelAge         prometheus.GaugeFunc // Seconds since the published model was trained, read at scrape time
	ModelLoadFails   prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	WSSessions   prometheus.Gauge

	trainedAt atomic.Int64 // unix nanoseconds, 0 when unknown
	now       func() time.Time
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		now: time.Now,
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "carprice_predictions_total",
			Help: "Total number of successful price predictions",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "carprice_prediction_failures_total",
			Help: "Total number of failed price predictions",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "carprice_validation_failures_total",
			Help: "Total number of prediction requests rejected as invalid",
		}),
		UnseenCategories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carprice_unseen_categories_total",
			Help: "Categorical values not seen in training, substituted by the first known value",
		}, []string{"field"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carprice_prediction_latency_seconds",
			Help:    "Prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carprice_predicted_price",
			Help:    "Distribution of predicted prices",
			Buckets: prometheus.ExponentialBuckets(5000, 1.5, 10),
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "carprice_training_runs_total",
			Help: "Total number of completed training runs",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carprice_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ModelMAE: factory.NewGauge(prometheus.GaugeOpts{
			Name: "carprice_model_mae",
			Help: "Mean absolute error of the published model on the hold-out split",
		}),
		ModelR2: factory.NewGauge(prometheus.GaugeOpts{
			Name: "carprice_model_r2",
			Help: "R squared of the published model on the hold-out split",
		}),
		ModelLoadFails: factory.NewCounter(prometheus.CounterOpts{
			Name: "carprice_model_load_failures_total",
			Help: "Total number of snapshots that failed to load",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carprice_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		WSSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "carprice_ws_sessions",
			Help: "Open websocket prediction sessions",
		}),
	}
	m.ModelAge = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "carprice_model_age_seconds",
		Help: "Age of the published model in seconds, 0 when its training time is unknown",
	}, m.modelAge)
	return m
}

// SetModelTrainedAt records when the published model was trained. A zero
// time marks it unknown.
func (m *Metrics) SetModelTrainedAt(t time.Time) {
	if t.IsZero() {
		m.trainedAt.Store(0)
		return
	}
	m.trainedAt.Store(t.UnixNano())
}

func (m *Metrics) modelAge() float64 {
	ts := m.trainedAt.Load()
	if ts == 0 {
		return 0
	}
	return m.now().Sub(time.Unix(0, ts)).Seconds()
}
