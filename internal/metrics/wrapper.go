package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the method set the model and the HTTP
// layer record through.
type MetricsWrapper struct {
	m *Metrics
}

// NewWrapper returns a MetricsWrapper recording into m.
func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) MLValidationFailuresInc() {
	w.m.ValidationFailures.Inc()
}

func (w *MetricsWrapper) MLUnseenCategoryInc(field string) {
	w.m.UnseenCategories.WithLabelValues(field).Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *MetricsWrapper) MLPredictedPriceObserve(v float64) {
	w.m.PredictedPrice.Observe(v)
}

func (w *MetricsWrapper) MLTrainingRunsInc() {
	w.m.TrainingRuns.Inc()
}

func (w *MetricsWrapper) MLTrainingDurationObserve(v float64) {
	w.m.TrainingDuration.Observe(v)
}

func (w *MetricsWrapper) MLModelQualitySet(mae, r2 float64) {
	w.m.ModelMAE.Set(mae)
	w.m.ModelR2.Set(r2)
}

func (w *MetricsWrapper) MLModelTrainedAtSet(t time.Time) {
	w.m.SetModelTrainedAt(t)
}

func (w *MetricsWrapper) MLLoadFailuresInc() {
	w.m.ModelLoadFails.Inc()
}

// HTTPRequestInc counts one served request.
func (w *MetricsWrapper) HTTPRequestInc(route string, code int) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (w *MetricsWrapper) WSSessionsAdd(delta float64) {
	w.m.WSSessions.Add(delta)
}
