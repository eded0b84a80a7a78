package ml

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Report is the held-out evaluation of one fitted model: accuracy and the
// full confusion breakdown.
type Report struct {
	Variant  string  `json:"variant"`
	Accuracy float64 `json:"accuracy"`

	TruePositives  int `json:"truePositives"`
	FalsePositives int `json:"falsePositives"`
	TrueNegatives  int `json:"trueNegatives"`
	FalseNegatives int `json:"falseNegatives"`
}

// Evaluate scores m against the held-out split.
func Evaluate(m Model, test Dataset) (Report, error) {
	if test.Len() == 0 {
		return Report{}, &EmptySplitError{Side: "held-out"}
	}

	r := Report{Variant: m.Name()}
	for i, x := range test.X {
		predicted := m.Predict(x)
		actual := test.Y[i]
		switch {
		case predicted && actual:
			r.TruePositives++
		case predicted && !actual:
			r.FalsePositives++
		case !predicted && !actual:
			r.TrueNegatives++
		default:
			r.FalseNegatives++
		}
	}
	r.Accuracy = float64(r.TruePositives+r.TrueNegatives) / float64(test.Len())

	log.Info().
		Str("variant", r.Variant).
		Float64("accuracy", r.Accuracy).
		Int("false_negatives", r.FalseNegatives).
		Msg("Variant evaluated")

	return r, nil
}

// SelectBest picks the winning report: highest held-out accuracy, ties broken
// by lowest false-negative count since missing an actual churner costs more
// than a false alarm.
func SelectBest(reports []Report) (Report, error) {
	if len(reports) == 0 {
		return Report{}, fmt.Errorf("no evaluation reports to select from")
	}

	best := reports[0]
	for _, r := range reports[1:] {
		if r.Accuracy > best.Accuracy ||
			(r.Accuracy == best.Accuracy && r.FalseNegatives < best.FalseNegatives) {
			best = r
		}
	}
	return best, nil
}
