package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"carprice/internal/car"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(filepath.Join(tempDir, "data"))
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.db)
	_, err = os.Stat(filepath.Join(tempDir, "data", DBFile))
	assert.NoError(t, err, "database file was not created")
}

func TestNew_InvalidPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(filepath.Join(file, "sub"))
	assert.Error(t, err)
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "closing an already closed store")
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	assert.NoError(t, store.Close())
}

func TestStorePrediction_AssignsIDAndTimestamp(t *testing.T) {
	store := newStore(t)

	rec, err := store.StorePrediction(PredictionRecord{
		Input: car.Record{Brand: "Toyota", Year: 2020},
		Price: 24500,
	})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
	assert.False(t, rec.Timestamp.IsZero())

	n, err := store.PredictionCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecentPredictions(t *testing.T) {
	store := newStore(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := store.StorePrediction(PredictionRecord{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Price:     float64(1000 * (i + 1)),
		})
		require.NoError(t, err)
	}

	got, err := store.RecentPredictions(3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 5000.0, got[0].Price)
	assert.Equal(t, 4000.0, got[1].Price)
	assert.Equal(t, 3000.0, got[2].Price)

	all, err := store.RecentPredictions(100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := store.RecentPredictions(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetPredictionsInRange(t *testing.T) {
	store := newStore(t)
	now := time.Now().UTC()

	offsets := []time.Duration{0, time.Second, 2 * time.Second, 10 * time.Second}
	for i, off := range offsets {
		_, err := store.StorePrediction(PredictionRecord{
			Timestamp: now.Add(off),
			Input:     car.Record{Brand: "BMW"},
			Price:     float64(i),
		})
		require.NoError(t, err)
	}

	got, err := store.GetPredictionsInRange(now.Add(-time.Second), now.Add(5*time.Second))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0].Price)
	assert.Equal(t, "BMW", got[0].Input.Brand)

	empty, err := store.GetPredictionsInRange(now.Add(-time.Hour), now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTrainingRuns(t *testing.T) {
	store := newStore(t)

	first, err := store.StoreTrainingRun(TrainingRun{Samples: 2000, Seed: 42, MAE: 2400, R2: 0.93, Duration: time.Second})
	require.NoError(t, err)
	_, err = store.StoreTrainingRun(TrainingRun{Timestamp: first.Timestamp.Add(time.Minute), Samples: 500})
	require.NoError(t, err)

	runs, err := store.RecentTrainingRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 500, runs[0].Samples)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, time.Second, runs[1].Duration)
	assert.Equal(t, uint64(42), runs[1].Seed)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	_, err = store.StorePrediction(PredictionRecord{Price: 9999})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.RecentPredictions(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9999.0, got[0].Price)
}
