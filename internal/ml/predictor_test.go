package ml

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"carprice/internal/car"
	"carprice/internal/features"
	"carprice/internal/gbm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func toyota() car.Record {
	return car.Record{
		Brand:          "Toyota",
		Year:           2020,
		Mileage:        30000,
		FuelType:       "Petrol",
		Transmission:   "Automatic",
		EngineSize:     2.0,
		Horsepower:     150,
		BodyType:       "Sedan",
		Doors:          4,
		PreviousOwners: 1,
	}
}

// smallConfig trains quickly; tests that need the full corpus use trainedModel.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Samples = 300
	cfg.Boosting = gbm.Config{NEstimators: 20, LearningRate: 0.1, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	return cfg
}

var (
	sharedOnce  sync.Once
	sharedModel *Model
	sharedErr   error
)

func trainedModel(t *testing.T) *Model {
	t.Helper()
	sharedOnce.Do(func() {
		sharedModel = New(DefaultConfig(), WithClock(fixedClock))
		sharedErr = sharedModel.Train(context.Background())
	})
	require.NoError(t, sharedErr)
	return sharedModel
}

func TestModel_EndToEnd(t *testing.T) {
	m := trainedModel(t)

	res, err := m.Predict(toyota())
	require.NoError(t, err)

	assert.Greater(t, res.Price, 0.0)
	assert.LessOrEqual(t, res.Confidence.Lower, res.Price)
	assert.GreaterOrEqual(t, res.Confidence.Upper, res.Price)
	assert.Equal(t, fixedNow.Year()-2020, res.Features.CarAge)
	assert.InDelta(t, 75.0, res.Features.PowerToWeight, 1e-12)
	assert.InDelta(t, 30000.0/float64(res.Features.CarAge+1), res.Features.MileagePerYear, 1e-9)

	info := m.Info()
	assert.True(t, info.IsTrained)
	assert.Equal(t, features.Columns(), info.FeatureNames)
	assert.Equal(t, DefaultVersion, info.Version)
	assert.Equal(t, fixedNow.Format(time.RFC3339), info.LastTrained)
	assert.Greater(t, info.Metrics.R2, 0.7)
	assert.InDelta(t, info.Metrics.R2*100, info.Metrics.Accuracy, 1e-9)
	assert.Equal(t, info.Metrics.MAE, res.MAE)
	assert.Equal(t, info.Metrics.Accuracy, res.Accuracy)
}

func TestModel_TrainingIsDeterministic(t *testing.T) {
	a := New(smallConfig(), WithClock(fixedClock))
	b := New(smallConfig(), WithClock(fixedClock))
	require.NoError(t, a.Train(context.Background()))
	require.NoError(t, b.Train(context.Background()))

	ra, err := a.PredictAt(toyota(), 2025)
	require.NoError(t, err)
	rb, err := b.PredictAt(toyota(), 2025)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
	assert.Equal(t, a.Info().Metrics, b.Info().Metrics)
}

func TestModel_PredictBeforeTraining(t *testing.T) {
	metrics := &MockMetrics{}
	m := New(DefaultConfig(), WithMetrics(metrics))

	_, err := m.Predict(toyota())
	assert.ErrorIs(t, err, ErrUntrained)
	assert.Equal(t, 1, metrics.GetFailures())

	assert.False(t, m.IsTrained())
	info := m.Info()
	assert.False(t, info.IsTrained)
	assert.Equal(t, DefaultVersion, info.Version)

	assert.ErrorIs(t, m.Save(filepath.Join(t.TempDir(), "model.json")), ErrUntrained)
}

func TestModel_InvalidRecord(t *testing.T) {
	metrics := &MockMetrics{}
	m := New(smallConfig(), WithMetrics(metrics), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))

	r := toyota()
	r.EngineSize = 0
	r.Horsepower = -5

	_, err := m.Predict(r)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"engineSize", "horsepower"}, vErr.Fields())
	assert.Equal(t, 1, metrics.GetValidationFailures())
	assert.Zero(t, metrics.GetPredictions())
}

func TestModel_NonFiniteRecord(t *testing.T) {
	m := New(smallConfig(), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))

	r := toyota()
	r.Mileage = math.NaN()
	r.EngineSize = math.Inf(1)

	res, err := m.PredictAt(r, 2025)
	assert.Nil(t, res)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"mileage", "engineSize"}, vErr.Fields())
}

func TestModel_UnseenCategoryFallback(t *testing.T) {
	metrics := &MockMetrics{}
	m := New(smallConfig(), WithMetrics(metrics), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))

	first, err := m.state.Load().Encoders[features.ColBrand].Decode(0)
	require.NoError(t, err)

	unseen := toyota()
	unseen.Brand = "Tesla"
	fallback := toyota()
	fallback.Brand = first

	got, err := m.PredictAt(unseen, 2025)
	require.NoError(t, err)
	want, err := m.PredictAt(fallback, 2025)
	require.NoError(t, err)

	assert.Equal(t, want.Price, got.Price)
	assert.Equal(t, 1, metrics.GetUnseen(features.ColBrand))

	again, err := m.PredictAt(unseen, 2025)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestModel_SaveLoadRoundTrip(t *testing.T) {
	m := trainedModel(t)
	path := filepath.Join(t.TempDir(), "nested", "model.json")
	require.NoError(t, m.Save(path))

	metrics := &MockMetrics{}
	loaded := New(DefaultConfig(), WithMetrics(metrics), WithClock(fixedClock))
	require.NoError(t, loaded.Load(path))

	for _, r := range []car.Record{toyota(), func() car.Record {
		r := toyota()
		r.Brand, r.BodyType, r.Year = "BMW", "SUV", 2012
		return r
	}()} {
		want, err := m.PredictAt(r, 2025)
		require.NoError(t, err)
		got, err := loaded.PredictAt(r, 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, m.Info(), loaded.Info())

	mae, r2 := metrics.GetQuality()
	assert.Equal(t, m.Info().Metrics.MAE, mae)
	assert.Equal(t, m.Info().Metrics.R2, r2)
	assert.True(t, fixedNow.Equal(metrics.GetTrainedAt()), "trained at %v", metrics.GetTrainedAt())
}

func TestModel_LoadFailureKeepsState(t *testing.T) {
	metrics := &MockMetrics{}
	m := New(smallConfig(), WithMetrics(metrics), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))
	before := m.Info()

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	err := m.Load(path)
	var dErr *DeserializationError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, 1, metrics.GetLoadFailures())
	assert.Equal(t, before, m.Info())
}

func TestModel_LoadOrTrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	m := New(smallConfig(), WithClock(fixedClock))
	loaded, err := m.LoadOrTrain(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.FileExists(t, path)

	second := New(smallConfig(), WithClock(fixedClock))
	loaded, err = second.LoadOrTrain(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, m.Info(), second.Info())
}

func TestModel_LoadOrTrainRecoversFromCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": null}`), 0o644))

	m := New(smallConfig(), WithClock(fixedClock))
	loaded, err := m.LoadOrTrain(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.True(t, m.IsTrained())

	_, err = LoadFile(path)
	assert.NoError(t, err)
}

func TestModel_TrainingErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(*Config)
		stage string
	}{
		{"too few samples", func(c *Config) { c.Samples = 1 }, "generate"},
		{"bad test fraction", func(c *Config) { c.TestFraction = 1 }, "split"},
		{"bad boosting config", func(c *Config) { c.Boosting.NEstimators = 0 }, "fit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.cfg(&cfg)
			m := New(cfg)

			err := m.Train(context.Background())
			var tErr *TrainingError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, tt.stage, tErr.Stage)
			assert.False(t, m.IsTrained())
		})
	}
}

func TestModel_TrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(smallConfig())
	err := m.Train(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, m.IsTrained())
}

func TestModel_MetricsRecorded(t *testing.T) {
	metrics := &MockMetrics{}
	m := New(smallConfig(), WithMetrics(metrics), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))
	assert.Equal(t, 1, metrics.GetTrainingRuns())

	_, err := m.Predict(toyota())
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.GetPredictions())
	assert.Zero(t, metrics.GetFailures())

	mae, r2 := metrics.GetQuality()
	assert.Equal(t, m.Info().Metrics.MAE, mae)
	assert.Equal(t, m.Info().Metrics.R2, r2)
	assert.True(t, fixedNow.Equal(metrics.GetTrainedAt()))
}

func TestModel_ConcurrentPredictAndRetrain(t *testing.T) {
	m := New(smallConfig(), WithClock(fixedClock))
	require.NoError(t, m.Train(context.Background()))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := m.Predict(toyota()); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Train(context.Background()); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSplitIndices(t *testing.T) {
	train, test := splitIndices(2000, 0.2, 42)
	assert.Len(t, test, 400)
	assert.Len(t, train, 1600)

	train, test = splitIndices(11, 0.2, 42)
	assert.Len(t, test, 3)
	assert.Len(t, train, 8)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 11)

	again, _ := splitIndices(11, 0.2, 42)
	assert.Equal(t, train, again)
}
