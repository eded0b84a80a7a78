// Package ml holds the churn classifier variants, the train/held-out split,
// the evaluator that picks the winning variant, and the feature importance
// ranker. All fitting is deterministic for a fixed seed: the same dataset
// and configuration always reproduce the same model and report.
package ml

// Dataset is an encoded design matrix with churn labels. Vectors are derived
// once by the encoder and never mutated.
type Dataset struct {
	X [][]float64
	Y []bool
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.X) }

// Width returns the feature vector length, 0 for an empty dataset.
func (d Dataset) Width() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Subset returns the rows at the given indices. Row slices are shared, not
// copied; datasets are read-only after encoding.
func (d Dataset) Subset(indices []int) Dataset {
	sub := Dataset{
		X: make([][]float64, len(indices)),
		Y: make([]bool, len(indices)),
	}
	for i, idx := range indices {
		sub.X[i] = d.X[idx]
		sub.Y[i] = d.Y[idx]
	}
	return sub
}

// Model is an immutable fitted classifier.
type Model interface {
	// Name identifies the variant that produced the model.
	Name() string
	// Predict returns the churn decision for one encoded record.
	Predict(x []float64) bool
	// Score returns the churn probability in [0,1].
	Score(x []float64) float64
}

// Variant is one trainable classifier family. Fit uses only the training
// split; adding or removing variants never touches the evaluator.
type Variant interface {
	Name() string
	Fit(train Dataset) (Model, error)
}

// ImpurityRanker is implemented by tree-ensemble models that expose
// per-feature impurity-reduction importances.
type ImpurityRanker interface {
	FeatureImportances() []float64
}
