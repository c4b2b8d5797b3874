// Package gbm implements least-squares gradient boosting of regression trees.
//
// Each stage fits a depth-limited tree to the residuals of the ensemble built
// so far; the prediction is the initial mean plus the learning-rate-scaled sum
// of all tree outputs. Construction uses no randomness: split search is
// exhaustive and ties are broken by feature index, so identical inputs always
// produce identical ensembles.
package gbm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrDiverged is returned when boosting produces a non-finite training loss.
var ErrDiverged = errors.New("gbm: training loss is not finite")

// Config controls ensemble construction.
type Config struct {
	NEstimators     int     `json:"n_estimators" yaml:"nEstimators"`
	LearningRate    float64 `json:"learning_rate" yaml:"learningRate"`
	MaxDepth        int     `json:"max_depth" yaml:"maxDepth"`
	MinSamplesSplit int     `json:"min_samples_split" yaml:"minSamplesSplit"`
	MinSamplesLeaf  int     `json:"min_samples_leaf" yaml:"minSamplesLeaf"`
}

// DefaultConfig returns 200 stages of depth-5 trees at learning rate 0.1.
func DefaultConfig() Config {
	return Config{
		NEstimators:     200,
		LearningRate:    0.1,
		MaxDepth:        5,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

func (c Config) validate() error {
	switch {
	case c.NEstimators <= 0:
		return fmt.Errorf("n_estimators must be > 0, got %d", c.NEstimators)
	case c.LearningRate <= 0 || math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0):
		return fmt.Errorf("learning_rate must be a positive number, got %v", c.LearningRate)
	case c.MaxDepth <= 0:
		return fmt.Errorf("max_depth must be > 0, got %d", c.MaxDepth)
	case c.MinSamplesSplit < 2:
		return fmt.Errorf("min_samples_split must be >= 2, got %d", c.MinSamplesSplit)
	case c.MinSamplesLeaf < 1:
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", c.MinSamplesLeaf)
	}
	return nil
}

// Ensemble is a fitted boosted model. It is immutable after Fit and safe for
// concurrent Predict calls.
type Ensemble struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	NFeatures    int     `json:"n_features"`
	Trees        []Tree  `json:"trees"`
}

// Fit boosts cfg.NEstimators trees on x (rows are samples) against y.
func Fit(x *mat.Dense, y []float64, cfg Config) (*Ensemble, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if x == nil || x.IsEmpty() {
		return nil, errors.New("gbm: empty design matrix")
	}
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("gbm: %d rows but %d targets", rows, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("gbm: target %d is not finite", i)
		}
	}

	design := make([][]float64, cols)
	for j := range design {
		design[j] = mat.Col(nil, j, x)
	}

	e := &Ensemble{
		Init:         stat.Mean(y, nil),
		LearningRate: cfg.LearningRate,
		NFeatures:    cols,
		Trees:        make([]Tree, 0, cfg.NEstimators),
	}

	current := make([]float64, rows)
	for i := range current {
		current[i] = e.Init
	}
	resid := make([]float64, rows)
	b := &builder{cols: design, target: resid, cfg: cfg, left: make([]bool, rows)}
	orders := presort(design, rows)
	row := make([]float64, cols)

	for m := 0; m < cfg.NEstimators; m++ {
		for i := range resid {
			resid[i] = y[i] - current[i]
		}
		tree := b.grow(orders)
		for i := range current {
			for j := range row {
				row[j] = design[j][i]
			}
			current[i] += cfg.LearningRate * tree.Predict(row)
		}
		e.Trees = append(e.Trees, tree)
	}

	var sse float64
	for i := range y {
		d := y[i] - current[i]
		sse += d * d
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return nil, ErrDiverged
	}
	return e, nil
}

// Predict returns the ensemble estimate for a single row.
func (e *Ensemble) Predict(row []float64) (float64, error) {
	if len(row) != e.NFeatures {
		return 0, fmt.Errorf("gbm: expected %d features, got %d", e.NFeatures, len(row))
	}
	out := e.Init
	for i := range e.Trees {
		out += e.LearningRate * e.Trees[i].Predict(row)
	}
	return out, nil
}

// PredictBatch returns one estimate per row of x.
func (e *Ensemble) PredictBatch(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != e.NFeatures {
		return nil, fmt.Errorf("gbm: expected %d features, got %d", e.NFeatures, cols)
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := range out {
		mat.Row(row, i, x)
		v, err := e.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks the structural integrity of a deserialized ensemble so that
// Predict cannot index out of range.
func (e *Ensemble) Validate() error {
	if e.NFeatures <= 0 {
		return errors.New("gbm: n_features must be > 0")
	}
	if len(e.Trees) == 0 {
		return errors.New("gbm: ensemble has no trees")
	}
	for t, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("gbm: tree %d is empty", t)
		}
		for i, n := range tree.Nodes {
			if n.leaf() {
				continue
			}
			if n.Feature >= e.NFeatures {
				return fmt.Errorf("gbm: tree %d node %d splits on feature %d", t, i, n.Feature)
			}
			// children always follow their parent, which also rules out cycles
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("gbm: tree %d node %d has invalid children", t, i)
			}
		}
	}
	return nil
}
