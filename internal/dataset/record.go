// Package dataset loads and cleans the Telco customer churn CSV.
// It repairs malformed numeric fields, enforces the service dependency
// invariants, and reports every dropped row instead of discarding it
// silently.
package dataset

// Canonical spellings of the categorical values carried by the source CSV.
// Column names and value spellings are part of the input contract.
const (
	Yes              = "Yes"
	No               = "No"
	NoInternet       = "No internet service"
	NoPhone          = "No phone service"
	InternetDSL      = "DSL"
	InternetFiber    = "Fiber optic"
	InternetNone     = "No"
	ContractMonthly  = "Month-to-month"
	ContractOneYear  = "One year"
	ContractTwoYear  = "Two year"
	PayElectronic    = "Electronic check"
	PayMailed        = "Mailed check"
	PayBankTransfer  = "Bank transfer (automatic)"
	PayCreditCard    = "Credit card (automatic)"
	GenderFemale     = "Female"
	GenderMale       = "Male"
)

// CustomerRecord is one cleaned subscriber row. The ID is opaque and never
// used as a feature. Records are immutable after loading.
type CustomerRecord struct {
	CustomerID string `json:"customerID"`

	// Demographics
	Gender        string `json:"gender"`
	SeniorCitizen bool   `json:"seniorCitizen"`
	Partner       bool   `json:"partner"`
	Dependents    bool   `json:"dependents"`

	// Account
	Tenure           int     `json:"tenure"`
	Contract         string  `json:"contract"`
	PaperlessBilling bool    `json:"paperlessBilling"`
	PaymentMethod    string  `json:"paymentMethod"`
	MonthlyCharges   float64 `json:"monthlyCharges"`
	TotalCharges     float64 `json:"totalCharges"`

	// Services. MultipleLines reads "No phone service" exactly when
	// PhoneService is false; the six internet sub-services read
	// "No internet service" exactly when InternetService is "No".
	PhoneService     bool   `json:"phoneService"`
	MultipleLines    string `json:"multipleLines"`
	InternetService  string `json:"internetService"`
	OnlineSecurity   string `json:"onlineSecurity"`
	OnlineBackup     string `json:"onlineBackup"`
	DeviceProtection string `json:"deviceProtection"`
	TechSupport      string `json:"techSupport"`
	StreamingTV      string `json:"streamingTV"`
	StreamingMovies  string `json:"streamingMovies"`

	// Label
	Churn bool `json:"churn"`
}

// InternetSubServices returns the six internet-dependent service values in
// a fixed order matching SubServiceColumns.
func (r *CustomerRecord) InternetSubServices() []string {
	return []string{
		r.OnlineSecurity,
		r.OnlineBackup,
		r.DeviceProtection,
		r.TechSupport,
		r.StreamingTV,
		r.StreamingMovies,
	}
}

// SubServiceColumns lists the internet-dependent sub-service column names in
// the same order as InternetSubServices.
var SubServiceColumns = []string{
	"OnlineSecurity",
	"OnlineBackup",
	"DeviceProtection",
	"TechSupport",
	"StreamingTV",
	"StreamingMovies",
}
