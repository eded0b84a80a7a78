package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns. Its parameters are fit on the
// training split only and applied unchanged to any other split.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation over train.
func FitScaler(train Dataset) *Scaler {
	width := train.Width()
	s := &Scaler{
		Mean: make([]float64, width),
		Std:  make([]float64, width),
	}
	col := make([]float64, train.Len())
	for j := 0; j < width; j++ {
		for i := range train.X {
			col[i] = train.X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		// Constant columns yield 0; a single-row split yields NaN. Both leave
		// the centered values at zero rather than poisoning every transform.
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s
}

// Transform returns the standardized copy of one vector.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes a whole design matrix.
func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.Transform(x[i])
	}
	return out
}
