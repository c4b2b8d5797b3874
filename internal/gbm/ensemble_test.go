package gbm

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func linearData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(7, 7))
	x := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b, c := rng.Float64()*10, rng.Float64()*10, rng.Float64()
		x.SetRow(i, []float64{a, b, c})
		y[i] = 3*a - 2*b + 5
	}
	return x, y
}

func TestFit_StepFunction(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{0, 0, 0, 10, 10, 10}

	cfg := DefaultConfig()
	cfg.NEstimators = 1
	cfg.LearningRate = 1
	e, err := Fit(x, y, cfg)
	require.NoError(t, err)

	assert.Equal(t, 5.0, e.Init)
	require.Len(t, e.Trees, 1)
	root := e.Trees[0].Nodes[0]
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 3.5, root.Threshold)

	for i, want := range y {
		got, err := e.Predict([]float64{float64(i + 1)})
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestFit_LearnsLinearSignal(t *testing.T) {
	x, y := linearData(400)
	e, err := Fit(x, y, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, e.Trees, 200)

	pred, err := e.PredictBatch(x)
	require.NoError(t, err)
	var mae float64
	for i := range y {
		mae += math.Abs(pred[i] - y[i])
	}
	mae /= float64(len(y))
	assert.Less(t, mae, 1.5, "training MAE should be small on a noiseless target")
}

func TestFit_RespectsMaxDepth(t *testing.T) {
	x, y := linearData(300)
	cfg := DefaultConfig()
	cfg.NEstimators = 10
	cfg.MaxDepth = 3
	e, err := Fit(x, y, cfg)
	require.NoError(t, err)
	for _, tree := range e.Trees {
		assert.LessOrEqual(t, tree.Depth(), 3)
	}
}

func TestFit_Deterministic(t *testing.T) {
	x, y := linearData(200)
	cfg := DefaultConfig()
	cfg.NEstimators = 25
	a, err := Fit(x, y, cfg)
	require.NoError(t, err)
	b, err := Fit(x, y, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFit_ConstantTargetIsSingleLeaf(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := []float64{7, 7, 7, 7}
	e, err := Fit(x, y, DefaultConfig())
	require.NoError(t, err)
	for _, tree := range e.Trees {
		assert.Len(t, tree.Nodes, 1)
	}
	got, err := e.Predict([]float64{100, -3})
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestFit_Errors(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})

	_, err := Fit(x, []float64{1}, DefaultConfig())
	assert.Error(t, err)

	_, err = Fit(x, []float64{1, math.NaN()}, DefaultConfig())
	assert.Error(t, err)

	_, err = Fit(&mat.Dense{}, nil, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.LearningRate = 0
	_, err = Fit(x, []float64{1, 2}, bad)
	assert.Error(t, err)

	bad = DefaultConfig()
	bad.MaxDepth = 0
	_, err = Fit(x, []float64{1, 2}, bad)
	assert.Error(t, err)
}

func TestFit_DivergenceIsReported(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	_, err := Fit(x, []float64{math.MaxFloat64, -math.MaxFloat64}, DefaultConfig())
	assert.ErrorIs(t, err, ErrDiverged)
}

func TestEnsemble_PredictWrongWidth(t *testing.T) {
	x, y := linearData(50)
	cfg := DefaultConfig()
	cfg.NEstimators = 2
	e, err := Fit(x, y, cfg)
	require.NoError(t, err)
	_, err = e.Predict([]float64{1})
	assert.Error(t, err)
	_, err = e.PredictBatch(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

func TestEnsemble_JSONRoundTrip(t *testing.T) {
	x, y := linearData(120)
	cfg := DefaultConfig()
	cfg.NEstimators = 15
	e, err := Fit(x, y, cfg)
	require.NoError(t, err)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	var back Ensemble
	require.NoError(t, json.Unmarshal(data, &back))
	require.NoError(t, back.Validate())

	for i := 0; i < 120; i++ {
		want, _ := e.Predict(x.RawRowView(i))
		got, err := back.Predict(x.RawRowView(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEnsemble_Validate(t *testing.T) {
	assert.Error(t, (&Ensemble{}).Validate())
	assert.Error(t, (&Ensemble{NFeatures: 1}).Validate())
	assert.Error(t, (&Ensemble{NFeatures: 1, Trees: []Tree{{}}}).Validate())

	cyclic := &Ensemble{NFeatures: 1, Trees: []Tree{{Nodes: []Node{
		{Feature: 0, Threshold: 1, Left: 0, Right: 0},
	}}}}
	assert.Error(t, cyclic.Validate())

	wideSplit := &Ensemble{NFeatures: 1, Trees: []Tree{{Nodes: []Node{
		{Feature: 4, Threshold: 1, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1},
		{Feature: -1, Left: -1, Right: -1},
	}}}}
	assert.Error(t, wideSplit.Validate())

	wideSplit.Trees[0].Nodes[0].Feature = 0
	assert.NoError(t, wideSplit.Validate())
}
