package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"carprice/internal/car"
	"carprice/internal/features"
	"carprice/internal/gbm"
	"carprice/internal/preprocess"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MetricsInterface defines metrics methods needed by the model
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLValidationFailuresInc()
	MLUnseenCategoryInc(field string)
	MLLatencyObserve(float64)
	MLPredictedPriceObserve(float64)
	MLTrainingRunsInc()
	MLTrainingDurationObserve(float64)
	MLModelQualitySet(mae, r2 float64)
	MLModelTrainedAtSet(time.Time)
	MLLoadFailuresInc()
}

// Config controls corpus generation, the hold-out split and the ensemble.
type Config struct {
	Samples      int
	Seed         uint64
	TestFraction float64
	Boosting     gbm.Config
	Version      string
}

// DefaultConfig trains on 2000 seeded samples with a 20% hold-out.
func DefaultConfig() Config {
	return Config{
		Samples:      car.DefaultSamples,
		Seed:         car.DefaultSeed,
		TestFraction: 0.2,
		Boosting:     gbm.DefaultConfig(),
		Version:      DefaultVersion,
	}
}

// Model owns the trained state and implements the train/predict lifecycle.
type Model struct {
	cfg     Config
	state   atomic.Pointer[TrainedState]
	trainMu sync.Mutex // serialises Train and Load
	metrics MetricsInterface
	now     func() time.Time
}

// Option customises a Model.
type Option func(*Model)

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsInterface) Option {
	return func(model *Model) { model.metrics = m }
}

// WithClock overrides the wall clock used for the reference year and the
// training timestamp.
func WithClock(now func() time.Time) Option {
	return func(model *Model) { model.now = now }
}

// New returns an untrained model.
func New(cfg Config, opts ...Option) *Model {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	m := &Model{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// IsTrained reports whether a usable state has been published.
func (m *Model) IsTrained() bool {
	st := m.state.Load()
	return st != nil && st.Trained
}

// Train regenerates the corpus, refits every component and publishes the new
// state. On error the previously published state, if any, stays in place.
// Cancelling ctx aborts training between stages.
func (m *Model) Train(ctx context.Context) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	start := time.Now()
	log.Info().Int("samples", m.cfg.Samples).Uint64("seed", m.cfg.Seed).Msg("starting model training")

	st, err := m.fit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("model training failed")
		return err
	}
	m.state.Store(st)

	elapsed := time.Since(start)
	if m.metrics != nil {
		m.metrics.MLTrainingRunsInc()
		m.metrics.MLTrainingDurationObserve(elapsed.Seconds())
		m.metrics.MLModelQualitySet(st.Metrics.MAE, st.Metrics.R2)
		m.reportTrainedAt(st)
	}
	log.Info().
		Float64("mae", st.Metrics.MAE).
		Float64("r2", st.Metrics.R2).
		Dur("duration", elapsed).
		Msg("model trained")
	return nil
}

func (m *Model) fit(ctx context.Context) (*TrainedState, error) {
	if m.cfg.TestFraction <= 0 || m.cfg.TestFraction >= 1 {
		return nil, &TrainingError{Stage: "split", Err: fmt.Errorf("test fraction must be in (0,1), got %v", m.cfg.TestFraction)}
	}
	samples := car.Generate(m.cfg.Samples, m.cfg.Seed)
	if len(samples) < 2 {
		return nil, &TrainingError{Stage: "generate", Err: fmt.Errorf("need at least 2 samples, got %d", len(samples))}
	}
	log.Debug().Int("samples", len(samples)).Msg("generated training corpus")

	now := m.now()
	refYear := now.Year()

	columns := map[string][]string{}
	for _, s := range samples {
		columns[features.ColBrand] = append(columns[features.ColBrand], s.Brand)
		columns[features.ColFuelType] = append(columns[features.ColFuelType], s.FuelType)
		columns[features.ColTransmission] = append(columns[features.ColTransmission], s.Transmission)
		columns[features.ColBodyType] = append(columns[features.ColBodyType], s.BodyType)
	}
	encoders := make(map[string]*preprocess.Encoder, len(columns))
	for _, name := range features.Categorical() {
		encoders[name] = preprocess.FitEncoder(columns[name])
	}

	st := &TrainedState{Encoders: encoders, FeatureNames: features.Columns()}

	width := len(st.FeatureNames)
	all := mat.NewDense(len(samples), width, nil)
	prices := make([]float64, len(samples))
	for i, s := range samples {
		codes, _ := st.encode(s.Record)
		all.SetRow(i, features.Row(s.Record, codes, refYear))
		prices[i] = s.Price
	}

	if err := ctx.Err(); err != nil {
		return nil, &TrainingError{Stage: "encode", Err: err}
	}

	trainIdx, testIdx := splitIndices(len(samples), m.cfg.TestFraction, m.cfg.Seed)
	xTrain, yTrain := gather(all, prices, trainIdx)
	xTest, yTest := gather(all, prices, testIdx)

	scaler, err := preprocess.FitScaler(xTrain)
	if err != nil {
		return nil, &TrainingError{Stage: "scale", Err: err}
	}
	xTrainScaled, err := scaler.Transform(xTrain)
	if err != nil {
		return nil, &TrainingError{Stage: "scale", Err: err}
	}
	xTestScaled, err := scaler.Transform(xTest)
	if err != nil {
		return nil, &TrainingError{Stage: "scale", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &TrainingError{Stage: "fit", Err: err}
	}
	ensemble, err := gbm.Fit(xTrainScaled, yTrain, m.cfg.Boosting)
	if err != nil {
		return nil, &TrainingError{Stage: "fit", Err: err}
	}

	pred, err := ensemble.PredictBatch(xTestScaled)
	if err != nil {
		return nil, &TrainingError{Stage: "evaluate", Err: err}
	}
	mae := floats.Distance(pred, yTest, 1) / float64(len(yTest))
	r2 := stat.RSquaredFrom(pred, yTest, nil)
	if math.IsNaN(mae) || math.IsNaN(r2) {
		return nil, &TrainingError{Stage: "evaluate", Err: errors.New("hold-out metrics are not finite")}
	}

	st.Ensemble = ensemble
	st.Scaler = scaler
	st.Metrics = Metrics{MAE: mae, R2: r2, Accuracy: r2 * 100}
	st.Version = m.cfg.Version
	st.TrainedAt = now.Format(time.RFC3339)
	st.Trained = true
	return st, nil
}

// splitIndices shuffles 0..n-1 with a seeded permutation and returns the
// train and test partitions; the test partition has ceil(frac*n) rows.
func splitIndices(n int, frac float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	nTest := int(math.Ceil(frac * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func gather(x *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, cols := x.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	targets := make([]float64, len(idx))
	for i, j := range idx {
		out.SetRow(i, x.RawRowView(j))
		targets[i] = y[j]
	}
	return out, targets
}

// PredictionResult is the priced vehicle returned to callers.
type PredictionResult struct {
	Price      float64          `json:"price"`
	Confidence Confidence       `json:"confidence"`
	Features   features.Derived `json:"features"`
	Accuracy   float64          `json:"accuracy"`
	MAE        float64          `json:"mae"`
}

// Predict prices r using the current calendar year as reference.
func (m *Model) Predict(r car.Record) (*PredictionResult, error) {
	return m.PredictAt(r, m.now().Year())
}

// PredictAt prices r relative to refYear.
func (m *Model) PredictAt(r car.Record, refYear int) (*PredictionResult, error) {
	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	st := m.state.Load()
	if st == nil || !st.Trained {
		m.failed()
		return nil, ErrUntrained
	}
	if problems := r.Validate(); len(problems) > 0 {
		if m.metrics != nil {
			m.metrics.MLValidationFailuresInc()
		}
		return nil, &ValidationError{Invalid: problems}
	}

	codes, unseen := st.encode(r)
	for _, field := range unseen {
		log.Debug().Str("field", field).Msg("unseen category, using first registered value")
		if m.metrics != nil {
			m.metrics.MLUnseenCategoryInc(field)
		}
	}

	scaled, err := st.Scaler.TransformRow(features.Row(r, codes, refYear))
	if err != nil {
		m.failed()
		return nil, fmt.Errorf("scale features: %w", err)
	}
	price, err := st.Ensemble.Predict(scaled)
	if err != nil {
		m.failed()
		return nil, fmt.Errorf("ensemble predict: %w", err)
	}

	res := &PredictionResult{
		Price:      price,
		Confidence: Interval(price, st.Metrics.MAE),
		Features:   features.Derive(r, refYear),
		Accuracy:   st.Metrics.Accuracy,
		MAE:        st.Metrics.MAE,
	}
	if m.metrics != nil {
		m.metrics.MLPredictionsInc()
		m.metrics.MLPredictedPriceObserve(price)
	}
	log.Debug().Str("brand", r.Brand).Int("year", r.Year).Float64("price", price).Msg("prediction successful")
	return res, nil
}

func (m *Model) failed() {
	if m.metrics != nil {
		m.metrics.MLFailuresInc()
	}
}

// Info reports the currently published state.
func (m *Model) Info() ModelInfo {
	st := m.state.Load()
	if st == nil {
		return ModelInfo{Version: m.cfg.Version}
	}
	names := make([]string, len(st.FeatureNames))
	copy(names, st.FeatureNames)
	return ModelInfo{
		IsTrained:    st.Trained,
		Metrics:      st.Metrics,
		FeatureNames: names,
		Version:      st.Version,
		LastTrained:  st.TrainedAt,
	}
}

// Save writes the current state to path.
func (m *Model) Save(path string) error {
	st := m.state.Load()
	if st == nil || !st.Trained {
		return ErrUntrained
	}
	if err := SaveFile(path, st); err != nil {
		log.Error().Err(err).Str("model_path", path).Msg("failed to save model")
		return err
	}
	log.Info().Str("model_path", path).Msg("model saved")
	return nil
}

// Load replaces the current state with the snapshot at path.
func (m *Model) Load(path string) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	st, err := LoadFile(path)
	if err != nil {
		if m.metrics != nil {
			m.metrics.MLLoadFailuresInc()
		}
		return err
	}
	m.state.Store(st)
	if m.metrics != nil {
		m.metrics.MLModelQualitySet(st.Metrics.MAE, st.Metrics.R2)
		m.reportTrainedAt(st)
	}
	log.Info().Str("model_path", path).Str("version", st.Version).Msg("model loaded")
	return nil
}

// reportTrainedAt passes the training time of st to the metrics sink; an
// unparseable timestamp such as "Unknown" is reported as the zero time.
func (m *Model) reportTrainedAt(st *TrainedState) {
	ts, err := time.Parse(time.RFC3339, st.TrainedAt)
	if err != nil {
		ts = time.Time{}
	}
	m.metrics.MLModelTrainedAtSet(ts)
}

// LoadOrTrain restores the snapshot at path if there is one. When the file is
// missing or cannot be loaded the model is retrained and saved back to path.
// It reports whether the state came from disk.
func (m *Model) LoadOrTrain(ctx context.Context, path string) (loaded bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		loadErr := m.Load(path)
		if loadErr == nil {
			return true, nil
		}
		log.Warn().Err(loadErr).Str("model_path", path).Msg("failed to load model, training new model")
	} else {
		log.Info().Str("model_path", path).Msg("no saved model, training new model")
	}

	if err := m.Train(ctx); err != nil {
		return false, err
	}
	if err := m.Save(path); err != nil {
		return false, fmt.Errorf("save trained model: %w", err)
	}
	return false, nil
}
