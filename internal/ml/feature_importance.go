package ml

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// FieldImportance is one entry in the ranked importance list, keyed by the
// source field name rather than encoding artifacts.
type FieldImportance struct {
	Field string  `json:"field"`
	Score float64 `json:"score"`
}

// RankImportances derives per-field contribution scores from the selected
// model. Tree ensembles contribute their aggregated impurity reductions;
// other models fall back to permutation importance on the held-out split.
// Indicator features expanded from one source field are re-aggregated under
// that field's name, so the report speaks in domain terms ("Contract", not
// "Contract=Two year"). Scores are non-negative, sum to 1.0, and are sorted
// descending with ties broken by field name.
func RankImportances(m Model, test Dataset, groups map[string][]int) ([]FieldImportance, error) {
	var raw []float64
	if ranker, ok := m.(ImpurityRanker); ok {
		raw = ranker.FeatureImportances()
	} else {
		var err error
		raw, err = permutationImportance(m, test)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("variant", m.Name()).Msg("Using permutation importance")
	}

	// Summation order must not follow map iteration: floating-point addition
	// is not associative, and the normalized scores have to be bit-identical
	// across runs of the same seed.
	fields := make([]string, 0, len(groups))
	for field := range groups {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldImportance, 0, len(groups))
	var total float64
	for _, field := range fields {
		var score float64
		for _, idx := range groups[field] {
			if idx >= len(raw) {
				return nil, fmt.Errorf("feature group %q references index %d beyond %d importances",
					field, idx, len(raw))
			}
			score += raw[idx]
		}
		total += score
		out = append(out, FieldImportance{Field: field, Score: score})
	}

	// A model that never splits (or a fully insensitive one) yields all-zero
	// scores; degrade to a uniform distribution so the sum-to-one invariant
	// holds either way.
	if total == 0 {
		for i := range out {
			out[i].Score = 1 / float64(len(out))
		}
	} else {
		for i := range out {
			out[i].Score /= total
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Field < out[j].Field
	})
	return out, nil
}

// permutationImportance measures each feature's accuracy drop when its
// column is displaced across the held-out rows. The displacement is a
// deterministic rotation, keeping the whole ranking reproducible.
func permutationImportance(m Model, test Dataset) ([]float64, error) {
	if test.Len() == 0 {
		return nil, &EmptySplitError{Side: "held-out"}
	}

	baseline, err := Evaluate(m, test)
	if err != nil {
		return nil, err
	}

	n := test.Len()
	scores := make([]float64, test.Width())
	perturbed := make([]float64, test.Width())
	for j := range scores {
		correct := 0
		for i, row := range test.X {
			copy(perturbed, row)
			perturbed[j] = test.X[(i+1)%n][j]
			if m.Predict(perturbed) == test.Y[i] {
				correct++
			}
		}
		drop := baseline.Accuracy - float64(correct)/float64(n)
		if drop > 0 {
			scores[j] = drop
		}
	}
	return scores, nil
}
