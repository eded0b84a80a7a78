package ml

import (
	"math"
	"reflect"
	"testing"
)

func trainTestSplit(t *testing.T, n int) Split {
	t.Helper()
	d := syntheticDataset(n, 3)
	split, err := StratifiedSplit(d, 0.2, 42)
	if err != nil {
		t.Fatalf("Failed to split synthetic data: %v", err)
	}
	return split
}

func TestForestLearnsSignal(t *testing.T) {
	split := trainTestSplit(t, 600)

	v := NewForestVariant(ForestConfig{Trees: 30, MaxDepth: 6, MinLeafSize: 2, Seed: 42})
	model, err := v.Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	report, err := Evaluate(model, split.Test)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Accuracy < 0.85 {
		t.Errorf("Expected forest accuracy above 0.85 on separable data, got %v", report.Accuracy)
	}
}

func TestForestReproducible(t *testing.T) {
	split := trainTestSplit(t, 300)

	cfg := ForestConfig{Trees: 10, MaxDepth: 5, MinLeafSize: 2, Seed: 7}
	a, err := NewForestVariant(cfg).Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	b, err := NewForestVariant(cfg).Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	forestA := a.(*Forest)
	forestB := b.(*Forest)
	if !reflect.DeepEqual(forestA.Trees, forestB.Trees) {
		t.Error("Expected identical forests for identical seeds")
	}
	if !reflect.DeepEqual(forestA.Importances, forestB.Importances) {
		t.Error("Expected identical importances for identical seeds")
	}
}

func TestForestImportancesFavorSignal(t *testing.T) {
	split := trainTestSplit(t, 600)

	model, err := NewForestVariant(ForestConfig{Trees: 30, MaxDepth: 6, MinLeafSize: 2, Seed: 42}).Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	imp := model.(*Forest).FeatureImportances()
	if len(imp) != split.Train.Width() {
		t.Fatalf("Expected %d importances, got %d", split.Train.Width(), len(imp))
	}
	sum := 0.0
	for i, v := range imp {
		if v < 0 {
			t.Errorf("Importance %d is negative: %v", i, v)
		}
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("Expected importances to sum to 1, got %v", sum)
	}
	if imp[0] <= imp[1] || imp[0] <= imp[2] {
		t.Errorf("Expected the signal feature to dominate, got %v", imp)
	}
}

func TestLogisticLearnsSignal(t *testing.T) {
	split := trainTestSplit(t, 600)

	v := NewLogisticVariant(LogisticConfig{Epochs: 500, LearningRate: 0.5})
	model, err := v.Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	report, err := Evaluate(model, split.Test)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Accuracy < 0.85 {
		t.Errorf("Expected logistic accuracy above 0.85 on separable data, got %v", report.Accuracy)
	}

	score := model.Score(split.Test.X[0])
	if score < 0 || score > 1 {
		t.Errorf("Expected probability in [0,1], got %v", score)
	}
}

func TestKNNLearnsSignal(t *testing.T) {
	split := trainTestSplit(t, 600)

	v := NewKNNVariant(KNNConfig{Neighbors: 7})
	model, err := v.Fit(split.Train)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	report, err := Evaluate(model, split.Test)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Accuracy < 0.80 {
		t.Errorf("Expected KNN accuracy above 0.80 on separable data, got %v", report.Accuracy)
	}
}

func TestScalerStandardizes(t *testing.T) {
	d := Dataset{
		X: [][]float64{{1, 10}, {2, 10}, {3, 10}},
		Y: []bool{false, true, false},
	}

	s := FitScaler(d)
	if s.Mean[0] != 2 {
		t.Errorf("Expected mean 2, got %v", s.Mean[0])
	}
	// A constant column gets unit deviation so Transform is a no-op shift.
	if s.Std[1] != 1 {
		t.Errorf("Expected constant column std to default to 1, got %v", s.Std[1])
	}

	out := s.Transform([]float64{2, 10})
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("Expected centered values [0 0], got %v", out)
	}
}

func TestScalerSingleRow(t *testing.T) {
	d := Dataset{
		X: [][]float64{{3, 7}},
		Y: []bool{true},
	}

	s := FitScaler(d)
	for j, std := range s.Std {
		if math.IsNaN(std) {
			t.Fatalf("Std[%d] is NaN for a single-row split", j)
		}
		if std != 1 {
			t.Errorf("Expected Std[%d] to default to 1, got %v", j, std)
		}
	}

	out := s.Transform([]float64{3, 7})
	for j, v := range out {
		if math.IsNaN(v) || v != 0 {
			t.Errorf("Expected centered value 0 at %d, got %v", j, v)
		}
	}
}
