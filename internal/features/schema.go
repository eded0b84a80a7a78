// Package features maps cleaned customer records to fixed-width numeric
// feature vectors. The whole encoding lives in one declarative table so the
// field-to-index mapping is stable, reproducible, and testable on its own.
package features

import "telco-churn/internal/dataset"

// Kind classifies how a source field is encoded.
type Kind string

const (
	// KindBinary maps a two-valued field to a single {0,1} feature.
	// Polarity is fixed once for the whole pipeline: the positive value
	// ("Yes", "Male") encodes as 1.
	KindBinary Kind = "binary"
	// KindMulti expands a multi-valued field into one-hot indicators plus a
	// trailing "Unknown" bucket for values never seen in the vocabulary.
	KindMulti Kind = "multi"
	// KindTriState expands a Yes/No/Not-Applicable field into three mutually
	// exclusive indicators, so "declined" never conflates with "not offered".
	KindTriState Kind = "tristate"
	// KindNumeric passes the value through unscaled. Variants that need
	// normalization fit their scaler on the training split only.
	KindNumeric Kind = "numeric"
)

// FieldSpec declares how one source field becomes features. Exactly one of
// stringOf/numberOf is set depending on Kind.
type FieldSpec struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Values []string `json:"values,omitempty"` // categorical vocabulary, order fixed

	stringOf func(*dataset.CustomerRecord) string
	numberOf func(*dataset.CustomerRecord) float64
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// telcoSchema is the single source of truth for the encoding. Field order
// fixes the feature vector layout for every record in a run.
var telcoSchema = []FieldSpec{
	{
		Name: "gender", Kind: KindBinary, Values: []string{dataset.GenderFemale, dataset.GenderMale},
		numberOf: func(r *dataset.CustomerRecord) float64 {
			return boolFeature(r.Gender == dataset.GenderMale)
		},
	},
	{
		Name: "SeniorCitizen", Kind: KindBinary,
		numberOf: func(r *dataset.CustomerRecord) float64 { return boolFeature(r.SeniorCitizen) },
	},
	{
		Name: "Partner", Kind: KindBinary,
		numberOf: func(r *dataset.CustomerRecord) float64 { return boolFeature(r.Partner) },
	},
	{
		Name: "Dependents", Kind: KindBinary,
		numberOf: func(r *dataset.CustomerRecord) float64 { return boolFeature(r.Dependents) },
	},
	{
		Name: "tenure", Kind: KindNumeric,
		numberOf: func(r *dataset.CustomerRecord) float64 { return float64(r.Tenure) },
	},
	{
		Name: "PhoneService", Kind: KindBinary,
		numberOf: func(r *dataset.CustomerRecord) float64 { return boolFeature(r.PhoneService) },
	},
	{
		Name: "MultipleLines", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoPhone},
		stringOf: func(r *dataset.CustomerRecord) string { return r.MultipleLines },
	},
	{
		Name: "InternetService", Kind: KindMulti,
		Values:   []string{dataset.InternetDSL, dataset.InternetFiber, dataset.InternetNone},
		stringOf: func(r *dataset.CustomerRecord) string { return r.InternetService },
	},
	{
		Name: "OnlineSecurity", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.OnlineSecurity },
	},
	{
		Name: "OnlineBackup", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.OnlineBackup },
	},
	{
		Name: "DeviceProtection", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.DeviceProtection },
	},
	{
		Name: "TechSupport", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.TechSupport },
	},
	{
		Name: "StreamingTV", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.StreamingTV },
	},
	{
		Name: "StreamingMovies", Kind: KindTriState,
		Values:   []string{dataset.Yes, dataset.No, dataset.NoInternet},
		stringOf: func(r *dataset.CustomerRecord) string { return r.StreamingMovies },
	},
	{
		Name: "Contract", Kind: KindMulti,
		Values:   []string{dataset.ContractMonthly, dataset.ContractOneYear, dataset.ContractTwoYear},
		stringOf: func(r *dataset.CustomerRecord) string { return r.Contract },
	},
	{
		Name: "PaperlessBilling", Kind: KindBinary,
		numberOf: func(r *dataset.CustomerRecord) float64 { return boolFeature(r.PaperlessBilling) },
	},
	{
		Name: "PaymentMethod", Kind: KindMulti,
		Values: []string{
			dataset.PayElectronic,
			dataset.PayMailed,
			dataset.PayBankTransfer,
			dataset.PayCreditCard,
		},
		stringOf: func(r *dataset.CustomerRecord) string { return r.PaymentMethod },
	},
	{
		Name: "MonthlyCharges", Kind: KindNumeric,
		numberOf: func(r *dataset.CustomerRecord) float64 { return r.MonthlyCharges },
	},
	{
		Name: "TotalCharges", Kind: KindNumeric,
		numberOf: func(r *dataset.CustomerRecord) float64 { return r.TotalCharges },
	},
}
