package ml

import (
	"fmt"
	"math/rand"
)

// EmptySplitError indicates a degenerate train/held-out split. It is fatal:
// evaluation on an empty split would be meaningless.
type EmptySplitError struct {
	Side string // "train" or "held-out"
}

func (e *EmptySplitError) Error() string {
	return fmt.Sprintf("degenerate split: %s partition is empty", e.Side)
}

// Split is a stratified partition of one dataset.
type Split struct {
	Train Dataset
	Test  Dataset
}

// StratifiedSplit partitions d so both sides preserve the churn/non-churn
// ratio. The seed fixes the shuffle, making the split reproducible.
func StratifiedSplit(d Dataset, testRatio float64, seed int64) (Split, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("test ratio must be in (0,1), got %v", testRatio)
	}

	var pos, neg []int
	for i, churned := range d.Y {
		if churned {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	var trainIdx, testIdx []int
	for _, class := range [][]int{pos, neg} {
		cut := int(float64(len(class)) * testRatio)
		testIdx = append(testIdx, class[:cut]...)
		trainIdx = append(trainIdx, class[cut:]...)
	}

	if len(trainIdx) == 0 {
		return Split{}, &EmptySplitError{Side: "train"}
	}
	if len(testIdx) == 0 {
		return Split{}, &EmptySplitError{Side: "held-out"}
	}

	return Split{
		Train: d.Subset(trainIdx),
		Test:  d.Subset(testIdx),
	}, nil
}
