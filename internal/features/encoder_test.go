package features

import (
	"encoding/json"
	"reflect"
	"testing"

	"telco-churn/internal/dataset"
)

func sampleRecord() dataset.CustomerRecord {
	return dataset.CustomerRecord{
		CustomerID:       "7590-VHVEG",
		Gender:           dataset.GenderFemale,
		SeniorCitizen:    false,
		Partner:          true,
		Dependents:       false,
		Tenure:           5,
		PhoneService:     false,
		MultipleLines:    dataset.NoPhone,
		InternetService:  dataset.InternetDSL,
		OnlineSecurity:   dataset.No,
		OnlineBackup:     dataset.Yes,
		DeviceProtection: dataset.No,
		TechSupport:      dataset.No,
		StreamingTV:      dataset.No,
		StreamingMovies:  dataset.No,
		Contract:         dataset.ContractMonthly,
		PaperlessBilling: true,
		PaymentMethod:    dataset.PayElectronic,
		MonthlyCharges:   29.85,
		TotalCharges:     151.65,
		Churn:            false,
	}
}

func TestEncoderWidthMatchesNames(t *testing.T) {
	e := NewEncoder()
	if e.Width() != len(e.FeatureNames()) {
		t.Fatalf("Width %d does not match %d feature names", e.Width(), len(e.FeatureNames()))
	}
	if e.Width() != 43 {
		t.Errorf("Expected 43 features from the fixed schema, got %d", e.Width())
	}
}

func TestEncodeDeterministic(t *testing.T) {
	e := NewEncoder()
	rec := sampleRecord()

	first := e.Encode(&rec)
	second := e.Encode(&rec)
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical vectors for repeated encoding of the same record")
	}

	other := NewEncoder().Encode(&rec)
	if !reflect.DeepEqual(first, other) {
		t.Error("Expected identical vectors across encoder instances")
	}
}

func TestEncodeKnownValues(t *testing.T) {
	e := NewEncoder()
	rec := sampleRecord()
	vec := e.Encode(&rec)

	idx := make(map[string]int)
	for i, name := range e.FeatureNames() {
		idx[name] = i
	}

	checks := map[string]float64{
		"gender":                        0, // Female
		"Partner":                       1,
		"PhoneService":                  0,
		"tenure":                        5,
		"MonthlyCharges":                29.85,
		"MultipleLines=No phone service": 1,
		"MultipleLines=Yes":             0,
		"InternetService=DSL":           1,
		"InternetService=Fiber optic":   0,
		"InternetService=Unknown":       0,
		"Contract=Month-to-month":       1,
		"PaymentMethod=Electronic check": 1,
		"OnlineBackup=Yes":              1,
		"OnlineSecurity=No":             1,
	}
	for name, want := range checks {
		i, ok := idx[name]
		if !ok {
			t.Fatalf("Feature %q not found in names", name)
		}
		if vec[i] != want {
			t.Errorf("Feature %q = %v, want %v", name, vec[i], want)
		}
	}
}

func TestEncodeTriStateExclusive(t *testing.T) {
	e := NewEncoder()
	rec := sampleRecord()
	vec := e.Encode(&rec)

	groups := e.Groups()
	for _, field := range []string{"MultipleLines", "OnlineSecurity", "StreamingTV"} {
		sum := 0.0
		for _, i := range groups[field] {
			sum += vec[i]
		}
		if sum != 1 {
			t.Errorf("Expected exactly one active indicator for %s, got sum %v", field, sum)
		}
	}
}

func TestEncodeUnknownCategoryBucket(t *testing.T) {
	e := NewEncoder()
	rec := sampleRecord()
	rec.PaymentMethod = "Cryptocurrency"

	vec := e.Encode(&rec)

	idx := make(map[string]int)
	for i, name := range e.FeatureNames() {
		idx[name] = i
	}
	if vec[idx["PaymentMethod=Unknown"]] != 1 {
		t.Error("Expected unknown payment method to activate the Unknown bucket")
	}
	for _, known := range []string{"PaymentMethod=Electronic check", "PaymentMethod=Mailed check"} {
		if vec[idx[known]] != 0 {
			t.Errorf("Expected %s to stay zero for unknown value", known)
		}
	}

	unknown := e.UnknownCategories()
	if len(unknown) != 1 {
		t.Fatalf("Expected 1 unknown category warning, got %d", len(unknown))
	}
	if unknown[0].Field != "PaymentMethod" || unknown[0].Value != "Cryptocurrency" || unknown[0].Count != 1 {
		t.Errorf("Unexpected warning %+v", unknown[0])
	}

	// Encoding again only bumps the count.
	e.Encode(&rec)
	unknown = e.UnknownCategories()
	if len(unknown) != 1 || unknown[0].Count != 2 {
		t.Errorf("Expected aggregated count 2, got %+v", unknown)
	}
}

func TestGroupsCoverVector(t *testing.T) {
	e := NewEncoder()
	groups := e.Groups()

	seen := make(map[int]bool)
	for field, indices := range groups {
		if len(indices) == 0 {
			t.Errorf("Field %s has no indices", field)
		}
		for _, i := range indices {
			if seen[i] {
				t.Errorf("Index %d assigned to multiple fields", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != e.Width() {
		t.Errorf("Groups cover %d indices, want %d", len(seen), e.Width())
	}
}

func TestMappingRoundTrip(t *testing.T) {
	e := NewEncoder()
	mapping := e.Mapping()

	// Bundles persist the mapping as JSON; the rebuilt encoder must produce
	// the exact same vectors.
	data, err := json.Marshal(mapping)
	if err != nil {
		t.Fatalf("Failed to marshal mapping: %v", err)
	}
	var decoded Mapping
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal mapping: %v", err)
	}

	rebuilt, err := EncoderFromMapping(decoded)
	if err != nil {
		t.Fatalf("Failed to rebuild encoder: %v", err)
	}

	rec := sampleRecord()
	want := e.Encode(&rec)
	got := rebuilt.Encode(&rec)
	if !reflect.DeepEqual(want, got) {
		t.Error("Rebuilt encoder produced a different vector")
	}
	if !reflect.DeepEqual(e.FeatureNames(), rebuilt.FeatureNames()) {
		t.Error("Rebuilt encoder produced different feature names")
	}
}

func TestEncoderFromMappingRejectsWidthMismatch(t *testing.T) {
	mapping := NewEncoder().Mapping()
	mapping.FeatureNames = mapping.FeatureNames[:len(mapping.FeatureNames)-1]

	if _, err := EncoderFromMapping(mapping); err == nil {
		t.Error("Expected error for truncated feature name list")
	}
}

func TestEncodeAll(t *testing.T) {
	e := NewEncoder()
	a := sampleRecord()
	b := sampleRecord()
	b.CustomerID = "0002-BBBBB"
	b.Churn = true

	X, y := e.EncodeAll([]dataset.CustomerRecord{a, b})
	if len(X) != 2 || len(y) != 2 {
		t.Fatalf("Expected 2 rows, got %d/%d", len(X), len(y))
	}
	if y[0] || !y[1] {
		t.Errorf("Labels wrong: got %v", y)
	}
	if len(X[0]) != e.Width() {
		t.Errorf("Row width %d, want %d", len(X[0]), e.Width())
	}
}
