package ml

import (
	"fmt"
	"math"
	"sort"
)

// KNNConfig fixes the distance baseline's neighbor count.
type KNNConfig struct {
	Neighbors int
}

// KNNVariant fits a k-nearest-neighbors baseline over standardized features.
// "Fitting" only memorizes the training split; prediction is a majority vote
// with deterministic index-order tie-breaks.
type KNNVariant struct {
	Config KNNConfig
}

// NewKNNVariant creates the distance baseline variant.
func NewKNNVariant(cfg KNNConfig) *KNNVariant {
	return &KNNVariant{Config: cfg}
}

// Name implements Variant.
func (v *KNNVariant) Name() string { return "knn" }

// Fit implements Variant.
func (v *KNNVariant) Fit(train Dataset) (Model, error) {
	if train.Len() == 0 {
		return nil, &EmptySplitError{Side: "train"}
	}
	if v.Config.Neighbors <= 0 {
		return nil, fmt.Errorf("invalid knn config: neighbors=%d", v.Config.Neighbors)
	}

	scaler := FitScaler(train)
	return &KNN{
		K:      v.Config.Neighbors,
		X:      scaler.TransformAll(train.X),
		Y:      train.Y,
		Scaler: scaler,
	}, nil
}

// KNN is the memorized training split plus its scaler.
type KNN struct {
	K      int         `json:"k"`
	X      [][]float64 `json:"x"`
	Y      []bool      `json:"y"`
	Scaler *Scaler     `json:"scaler"`
}

// Name implements Model.
func (m *KNN) Name() string { return "knn" }

// Score implements Model: the churned fraction among the k nearest training
// records by Euclidean distance.
func (m *KNN) Score(x []float64) float64 {
	xs := m.Scaler.Transform(x)

	type neighbor struct {
		dist float64
		idx  int
	}
	neighbors := make([]neighbor, len(m.X))
	for i, row := range m.X {
		var sum float64
		for j := range row {
			d := row[j] - xs[j]
			sum += d * d
		}
		neighbors[i] = neighbor{dist: math.Sqrt(sum), idx: i}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].dist != neighbors[j].dist {
			return neighbors[i].dist < neighbors[j].dist
		}
		return neighbors[i].idx < neighbors[j].idx
	})

	k := m.K
	if k > len(neighbors) {
		k = len(neighbors)
	}
	churned := 0
	for _, nb := range neighbors[:k] {
		if m.Y[nb.idx] {
			churned++
		}
	}
	return float64(churned) / float64(k)
}

// Predict implements Model.
func (m *KNN) Predict(x []float64) bool { return m.Score(x) > 0.5 }
