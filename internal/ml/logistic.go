package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticConfig fixes the linear baseline's fitting schedule. Batch gradient
// descent has no stochastic component, so fitting is deterministic.
type LogisticConfig struct {
	Epochs       int
	LearningRate float64
}

// LogisticVariant fits a logistic regression baseline on standardized
// features.
type LogisticVariant struct {
	Config LogisticConfig
}

// NewLogisticVariant creates the linear baseline variant.
func NewLogisticVariant(cfg LogisticConfig) *LogisticVariant {
	return &LogisticVariant{Config: cfg}
}

// Name implements Variant.
func (v *LogisticVariant) Name() string { return "logistic-regression" }

// Fit implements Variant.
func (v *LogisticVariant) Fit(train Dataset) (Model, error) {
	if train.Len() == 0 {
		return nil, &EmptySplitError{Side: "train"}
	}
	if v.Config.Epochs <= 0 || v.Config.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid logistic config: epochs=%d lr=%v",
			v.Config.Epochs, v.Config.LearningRate)
	}

	scaler := FitScaler(train)
	n := train.Len()
	d := train.Width()

	// Design matrix with a trailing bias column.
	x := mat.NewDense(n, d+1, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range scaler.TransformAll(train.X) {
		for j, val := range row {
			x.Set(i, j, val)
		}
		x.Set(i, d, 1)
		if train.Y[i] {
			y.SetVec(i, 1)
		}
	}

	w := mat.NewVecDense(d+1, nil)
	z := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d+1, nil)

	for epoch := 0; epoch < v.Config.Epochs; epoch++ {
		z.MulVec(x, w)
		for i := 0; i < n; i++ {
			z.SetVec(i, sigmoid(z.AtVec(i))-y.AtVec(i))
		}
		grad.MulVec(x.T(), z)
		w.AddScaledVec(w, -v.Config.LearningRate/float64(n), grad)
	}

	weights := make([]float64, d+1)
	copy(weights, w.RawVector().Data)
	return &Logistic{Weights: weights, Scaler: scaler}, nil
}

// Logistic is a fitted linear model. Weights hold one coefficient per
// standardized feature plus a trailing bias term.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Scaler  *Scaler   `json:"scaler"`
}

// Name implements Model.
func (m *Logistic) Name() string { return "logistic-regression" }

// Score implements Model.
func (m *Logistic) Score(x []float64) float64 {
	xs := m.Scaler.Transform(x)
	z := m.Weights[len(m.Weights)-1]
	for j, v := range xs {
		z += m.Weights[j] * v
	}
	return sigmoid(z)
}

// Predict implements Model.
func (m *Logistic) Predict(x []float64) bool { return m.Score(x) > 0.5 }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
