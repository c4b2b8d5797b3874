package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes each column to zero mean and unit variance using the
// population statistics of the matrix it was fitted on. Columns whose fitted
// standard deviation is zero are centered but not divided.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and population standard deviation of x.
func FitScaler(x mat.Matrix) (*Scaler, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.New("cannot fit scaler on empty matrix")
	}
	s := &Scaler{Mean: make([]float64, cols), Std: make([]float64, cols)}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
	}
	return s, nil
}

// Validate checks that the parameters describe at least one column.
func (s *Scaler) Validate() error {
	if len(s.Mean) == 0 {
		return errors.New("scaler has no columns")
	}
	if len(s.Mean) != len(s.Std) {
		return fmt.Errorf("scaler mean/std length mismatch: %d vs %d", len(s.Mean), len(s.Std))
	}
	return nil
}

// Transform returns a standardized copy of x.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Mean), cols)
	}
	out := mat.DenseCopyOf(x)
	for i := 0; i < rows; i++ {
		s.apply(out.RawRowView(i))
	}
	return out, nil
}

// TransformRow returns a standardized copy of a single row.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	copy(out, row)
	s.apply(out)
	return out, nil
}

func (s *Scaler) apply(row []float64) {
	for j, v := range row {
		v -= s.Mean[j]
		if s.Std[j] != 0 {
			v /= s.Std[j]
		}
		row[j] = v
	}
}
