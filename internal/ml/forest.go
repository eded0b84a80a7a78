package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig fixes the tree-ensemble hyperparameters. They are plain
// configuration values, never tuned online, so a seed fully determines the
// fitted forest.
type ForestConfig struct {
	Trees       int
	MaxDepth    int
	MinLeafSize int
	Seed        int64
}

// ForestVariant fits a random forest of CART trees with Gini impurity,
// bootstrap sampling, and sqrt-feature subsampling per split.
type ForestVariant struct {
	Config ForestConfig
}

// NewForestVariant creates the tree-ensemble variant.
func NewForestVariant(cfg ForestConfig) *ForestVariant {
	return &ForestVariant{Config: cfg}
}

// Name implements Variant.
func (v *ForestVariant) Name() string { return "random-forest" }

// Fit implements Variant. Trees are grown sequentially from a single seeded
// source so the resulting model is reproducible.
func (v *ForestVariant) Fit(train Dataset) (Model, error) {
	if train.Len() == 0 {
		return nil, &EmptySplitError{Side: "train"}
	}
	cfg := v.Config
	if cfg.Trees <= 0 || cfg.MaxDepth <= 0 || cfg.MinLeafSize <= 0 {
		return nil, fmt.Errorf("invalid forest config: trees=%d maxDepth=%d minLeaf=%d",
			cfg.Trees, cfg.MaxDepth, cfg.MinLeafSize)
	}

	width := train.Width()
	rng := rand.New(rand.NewSource(cfg.Seed))
	mtry := int(math.Ceil(math.Sqrt(float64(width))))

	forest := &Forest{
		NumFeatures: width,
		Trees:       make([]*TreeNode, 0, cfg.Trees),
		Importances: make([]float64, width),
	}

	n := train.Len()
	for t := 0; t < cfg.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		b := &treeBuilder{
			data:        train,
			rng:         rng,
			mtry:        mtry,
			maxDepth:    cfg.MaxDepth,
			minLeaf:     cfg.MinLeafSize,
			total:       float64(n),
			importances: forest.Importances,
		}
		forest.Trees = append(forest.Trees, b.build(sample, 0))
	}

	normalize(forest.Importances)
	return forest, nil
}

// Forest is a fitted tree ensemble. It serializes to JSON for the model
// bundle and exposes impurity-based importances.
type Forest struct {
	NumFeatures int         `json:"numFeatures"`
	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"`
}

// TreeNode is one CART node. Leaves carry the churn probability of their
// bootstrap sample.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Prob      float64   `json:"prob,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Name implements Model.
func (f *Forest) Name() string { return "random-forest" }

// Score implements Model: the mean leaf probability across the ensemble.
func (f *Forest) Score(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, root := range f.Trees {
		node := root
		for !node.Leaf {
			if x[node.Feature] <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		sum += node.Prob
	}
	return sum / float64(len(f.Trees))
}

// Predict implements Model.
func (f *Forest) Predict(x []float64) bool { return f.Score(x) > 0.5 }

// FeatureImportances implements ImpurityRanker: normalized aggregated
// impurity reduction per encoded feature.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

type treeBuilder struct {
	data        Dataset
	rng         *rand.Rand
	mtry        int
	maxDepth    int
	minLeaf     int
	total       float64
	importances []float64
}

func (b *treeBuilder) build(sample []int, depth int) *TreeNode {
	pos := 0
	for _, idx := range sample {
		if b.data.Y[idx] {
			pos++
		}
	}
	n := len(sample)
	prob := float64(pos) / float64(n)

	if depth >= b.maxDepth || n < 2*b.minLeaf || pos == 0 || pos == n {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, decrease, ok := b.bestSplit(sample, gini(pos, n))
	if !ok {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, idx := range sample {
		if b.data.X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	b.importances[feature] += float64(n) / b.total * decrease

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans a random mtry-sized feature subset for the threshold with
// the largest Gini decrease.
func (b *treeBuilder) bestSplit(sample []int, parentGini float64) (feature int, threshold, decrease float64, ok bool) {
	n := len(sample)
	candidates := b.rng.Perm(b.data.Width())[:b.mtry]
	sort.Ints(candidates)

	type point struct {
		value float64
		churn bool
	}
	points := make([]point, n)

	for _, f := range candidates {
		for i, idx := range sample {
			points[i] = point{value: b.data.X[idx][f], churn: b.data.Y[idx]}
		}
		sort.Slice(points, func(i, j int) bool { return points[i].value < points[j].value })

		leftPos := 0
		totalPos := 0
		for _, p := range points {
			if p.churn {
				totalPos++
			}
		}
		for i := 1; i < n; i++ {
			if points[i-1].churn {
				leftPos++
			}
			if points[i].value == points[i-1].value {
				continue
			}
			nl, nr := i, n-i
			weighted := float64(nl)/float64(n)*gini(leftPos, nl) +
				float64(nr)/float64(n)*gini(totalPos-leftPos, nr)
			if d := parentGini - weighted; d > decrease {
				feature = f
				threshold = (points[i-1].value + points[i].value) / 2
				decrease = d
				ok = true
			}
		}
	}
	return feature, threshold, decrease, ok
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// normalize scales v in place so it sums to 1; a zero vector stays zero.
func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
