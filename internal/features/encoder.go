package features

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"telco-churn/internal/dataset"
)

// UnknownBucket is the indicator appended to every multi-valued group so a
// categorical value never seen in the vocabulary encodes without failing.
const UnknownBucket = "Unknown"

// UnknownCategory is one aggregated scoring-time warning: a categorical
// value that fell into the unknown bucket, with its occurrence count.
type UnknownCategory struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Mapping is the persistable half of an Encoder: field specs and the derived
// feature layout. It travels inside the model bundle so scoring-time encoding
// is identical to training-time encoding.
type Mapping struct {
	Fields       []FieldSpec `json:"fields"`
	FeatureNames []string    `json:"featureNames"`
}

// Encoder turns CustomerRecords into fixed-width feature vectors. Encoding is
// deterministic: the same record always yields a bit-identical vector.
type Encoder struct {
	specs   []FieldSpec
	names   []string
	groups  map[string][]int
	offsets []int
	width   int

	mu      sync.Mutex
	unknown map[string]map[string]int
}

// NewEncoder builds an encoder from the canonical telco schema.
func NewEncoder() *Encoder {
	return newEncoder(telcoSchema)
}

// EncoderFromMapping reconstructs an encoder from a persisted mapping,
// re-attaching field accessors from the canonical schema. It fails if the
// mapping names a field the schema does not know.
func EncoderFromMapping(m Mapping) (*Encoder, error) {
	byName := make(map[string]FieldSpec, len(telcoSchema))
	for _, s := range telcoSchema {
		byName[s.Name] = s
	}

	specs := make([]FieldSpec, 0, len(m.Fields))
	for _, f := range m.Fields {
		known, ok := byName[f.Name]
		if !ok {
			return nil, fmt.Errorf("encoder mapping references unknown field %q", f.Name)
		}
		if known.Kind != f.Kind {
			return nil, fmt.Errorf("encoder mapping field %q: kind %q does not match schema kind %q", f.Name, f.Kind, known.Kind)
		}
		// The persisted vocabulary wins so an older bundle keeps its layout.
		known.Values = f.Values
		specs = append(specs, known)
	}

	enc := newEncoder(specs)
	if len(m.FeatureNames) != 0 && len(m.FeatureNames) != enc.width {
		return nil, fmt.Errorf("encoder mapping declares %d features, schema yields %d", len(m.FeatureNames), enc.width)
	}
	return enc, nil
}

func newEncoder(specs []FieldSpec) *Encoder {
	e := &Encoder{
		specs:   specs,
		groups:  make(map[string][]int),
		unknown: make(map[string]map[string]int),
	}
	for _, spec := range specs {
		e.offsets = append(e.offsets, e.width)
		start := e.width
		switch spec.Kind {
		case KindBinary, KindNumeric:
			e.names = append(e.names, spec.Name)
			e.width++
		case KindTriState:
			for _, v := range spec.Values {
				e.names = append(e.names, spec.Name+"="+v)
				e.width++
			}
		case KindMulti:
			for _, v := range spec.Values {
				e.names = append(e.names, spec.Name+"="+v)
				e.width++
			}
			e.names = append(e.names, spec.Name+"="+UnknownBucket)
			e.width++
		}
		indices := make([]int, 0, e.width-start)
		for i := start; i < e.width; i++ {
			indices = append(indices, i)
		}
		e.groups[spec.Name] = indices
	}
	return e
}

// Width returns the fixed feature vector length.
func (e *Encoder) Width() int { return e.width }

// FeatureNames returns the encoded feature names in vector order.
func (e *Encoder) FeatureNames() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Groups maps each source field name to the vector indices it occupies, so
// indicator importances can be re-aggregated back to domain terms.
func (e *Encoder) Groups() map[string][]int {
	out := make(map[string][]int, len(e.groups))
	for k, v := range e.groups {
		indices := make([]int, len(v))
		copy(indices, v)
		out[k] = indices
	}
	return out
}

// Mapping returns the persistable encoding table.
func (e *Encoder) Mapping() Mapping {
	fields := make([]FieldSpec, len(e.specs))
	copy(fields, e.specs)
	return Mapping{Fields: fields, FeatureNames: e.FeatureNames()}
}

// Encode derives the feature vector for one record.
func (e *Encoder) Encode(r *dataset.CustomerRecord) []float64 {
	vec := make([]float64, e.width)
	for i, spec := range e.specs {
		offset := e.offsets[i]
		switch spec.Kind {
		case KindBinary, KindNumeric:
			vec[offset] = spec.numberOf(r)
		case KindTriState:
			v := spec.stringOf(r)
			matched := false
			for j, known := range spec.Values {
				if v == known {
					vec[offset+j] = 1
					matched = true
					break
				}
			}
			if !matched {
				e.recordUnknown(spec.Name, v)
			}
		case KindMulti:
			v := spec.stringOf(r)
			matched := false
			for j, known := range spec.Values {
				if v == known {
					vec[offset+j] = 1
					matched = true
					break
				}
			}
			if !matched {
				vec[offset+len(spec.Values)] = 1
				e.recordUnknown(spec.Name, v)
			}
		}
	}
	return vec
}

// EncodeAll encodes a record set into a design matrix plus label vector.
func (e *Encoder) EncodeAll(records []dataset.CustomerRecord) ([][]float64, []bool) {
	vectors := make([][]float64, len(records))
	labels := make([]bool, len(records))
	for i := range records {
		vectors[i] = e.Encode(&records[i])
		labels[i] = records[i].Churn
	}
	return vectors, labels
}

func (e *Encoder) recordUnknown(field, value string) {
	e.mu.Lock()
	if e.unknown[field] == nil {
		e.unknown[field] = make(map[string]int)
	}
	first := e.unknown[field][value] == 0
	e.unknown[field][value]++
	e.mu.Unlock()

	if first {
		log.Warn().
			Str("field", field).
			Str("value", value).
			Msg("Unseen categorical value mapped to unknown bucket")
	}
}

// UnknownCategories returns all aggregated unknown-bucket warnings, sorted by
// field then value for stable reporting.
func (e *Encoder) UnknownCategories() []UnknownCategory {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []UnknownCategory
	for field, values := range e.unknown {
		for value, count := range values {
			out = append(out, UnknownCategory{Field: field, Value: value, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Value < out[j].Value
	})
	return out
}
