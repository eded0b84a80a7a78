package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// requiredColumns are the source columns the loader refuses to run without.
// The Churn column is additionally required unless the loader is in scoring
// mode.
var requiredColumns = []string{
	"customerID",
	"gender",
	"SeniorCitizen",
	"Partner",
	"Dependents",
	"tenure",
	"PhoneService",
	"MultipleLines",
	"InternetService",
	"OnlineSecurity",
	"OnlineBackup",
	"DeviceProtection",
	"TechSupport",
	"StreamingTV",
	"StreamingMovies",
	"Contract",
	"PaperlessBilling",
	"PaymentMethod",
	"MonthlyCharges",
	"TotalCharges",
}

const maxErrorSamples = 20

// CleanResult is the outcome of one load: the cleaned records plus an
// accounting of every row that was repaired or dropped.
type CleanResult struct {
	Records []CustomerRecord

	Loaded            int            // data rows read from the source
	Dropped           int            // rows discarded as unparseable
	DropReasons       map[string]int // column -> dropped row count
	BlankTotalCharges int            // zero-tenure rows coerced to 0.0

	// ErrorSamples holds the first few row errors for diagnostics; the full
	// count lives in Dropped/DropReasons.
	ErrorSamples []RowParseError
}

// Loader reads the churn CSV from a local file or an HTTP(S) URL and cleans
// it into CustomerRecords.
type Loader struct {
	client       *resty.Client
	requireLabel bool
}

// NewLoader creates a loader for training data (label column required).
func NewLoader() *Loader {
	return &Loader{
		client:       resty.New().SetTimeout(30 * time.Second),
		requireLabel: true,
	}
}

// NewScoringLoader creates a loader for scoring-time data, where the Churn
// column may be absent.
func NewScoringLoader() *Loader {
	l := NewLoader()
	l.requireLabel = false
	return l
}

// Load reads records from a file path or, when the source starts with
// http:// or https://, from a remote CSV.
func (l *Loader) Load(source string) (*CleanResult, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := l.client.R().Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch dataset %s: %w", source, err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("fetch dataset %s: unexpected status %d", source, resp.StatusCode())
		}
		return l.LoadReader(bytes.NewReader(resp.Body()))
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", source, err)
	}
	defer file.Close()

	return l.LoadReader(file)
}

// LoadReader parses and cleans CSV data from r.
func (l *Loader) LoadReader(r io.Reader) (*CleanResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	// A ragged row is a malformed row, not a malformed file: it gets dropped
	// and counted like any other row-level defect instead of aborting the
	// whole load.
	reader.FieldsPerRecord = -1

	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[strings.TrimSpace(col)] = i
	}

	required := requiredColumns
	if l.requireLabel {
		required = append(append([]string{}, requiredColumns...), "Churn")
	}
	var missing []string
	for _, col := range required {
		if _, ok := indices[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	result := &CleanResult{DropReasons: make(map[string]int)}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		line++
		result.Loaded++

		if len(row) != len(header) {
			rowErr := &RowParseError{
				Line:   line,
				Column: "row",
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			}
			result.Dropped++
			result.DropReasons[rowErr.Column]++
			if len(result.ErrorSamples) < maxErrorSamples {
				result.ErrorSamples = append(result.ErrorSamples, *rowErr)
			}
			continue
		}

		rec, rowErr := l.parseRow(row, indices, line, result)
		if rowErr != nil {
			result.Dropped++
			result.DropReasons[rowErr.Column]++
			if len(result.ErrorSamples) < maxErrorSamples {
				result.ErrorSamples = append(result.ErrorSamples, *rowErr)
			}
			continue
		}
		result.Records = append(result.Records, rec)
	}

	log.Info().
		Int("loaded", result.Loaded).
		Int("kept", len(result.Records)).
		Int("dropped", result.Dropped).
		Int("blank_total_charges", result.BlankTotalCharges).
		Msg("Dataset cleaned")

	return result, nil
}

func (l *Loader) parseRow(row []string, indices map[string]int, line int, result *CleanResult) (CustomerRecord, *RowParseError) {
	get := func(col string) string {
		return strings.TrimSpace(row[indices[col]])
	}

	var rec CustomerRecord
	rec.CustomerID = get("customerID")
	rec.Gender = get("gender")

	senior, err := parseFlag(get("SeniorCitizen"))
	if err != nil {
		return rec, &RowParseError{Line: line, Column: "SeniorCitizen", Reason: err.Error()}
	}
	rec.SeniorCitizen = senior

	boolCols := []struct {
		col string
		dst *bool
	}{
		{"Partner", &rec.Partner},
		{"Dependents", &rec.Dependents},
		{"PhoneService", &rec.PhoneService},
		{"PaperlessBilling", &rec.PaperlessBilling},
	}
	for _, bc := range boolCols {
		v, err := parseYesNo(get(bc.col))
		if err != nil {
			return rec, &RowParseError{Line: line, Column: bc.col, Reason: err.Error()}
		}
		*bc.dst = v
	}

	tenure, err := strconv.Atoi(get("tenure"))
	if err != nil || tenure < 0 {
		return rec, &RowParseError{Line: line, Column: "tenure", Reason: fmt.Sprintf("invalid tenure %q", get("tenure"))}
	}
	rec.Tenure = tenure

	monthly, err := strconv.ParseFloat(get("MonthlyCharges"), 64)
	if err != nil {
		return rec, &RowParseError{Line: line, Column: "MonthlyCharges", Reason: fmt.Sprintf("invalid monthly charge %q", get("MonthlyCharges"))}
	}
	rec.MonthlyCharges = monthly

	// Blank totals are only legitimate for brand-new customers: the billing
	// system has not produced an invoice yet. Coercing to 0.0 instead of
	// dropping keeps zero-tenure customers in the sample.
	totalRaw := get("TotalCharges")
	switch {
	case totalRaw == "":
		if rec.Tenure != 0 {
			return rec, &RowParseError{Line: line, Column: "TotalCharges", Reason: "blank total charge with nonzero tenure"}
		}
		rec.TotalCharges = 0.0
		result.BlankTotalCharges++
	default:
		total, err := strconv.ParseFloat(totalRaw, 64)
		if err != nil {
			return rec, &RowParseError{Line: line, Column: "TotalCharges", Reason: fmt.Sprintf("invalid total charge %q", totalRaw)}
		}
		rec.TotalCharges = total
	}

	rec.MultipleLines = get("MultipleLines")
	rec.InternetService = get("InternetService")
	rec.OnlineSecurity = get("OnlineSecurity")
	rec.OnlineBackup = get("OnlineBackup")
	rec.DeviceProtection = get("DeviceProtection")
	rec.TechSupport = get("TechSupport")
	rec.StreamingTV = get("StreamingTV")
	rec.StreamingMovies = get("StreamingMovies")
	rec.Contract = get("Contract")
	rec.PaymentMethod = get("PaymentMethod")

	if rowErr := checkServiceDependencies(&rec, line); rowErr != nil {
		return rec, rowErr
	}

	if idx, ok := indices["Churn"]; ok {
		churn, err := parseYesNo(strings.TrimSpace(row[idx]))
		if err != nil {
			if l.requireLabel {
				return rec, &RowParseError{Line: line, Column: "Churn", Reason: err.Error()}
			}
		} else {
			rec.Churn = churn
		}
	}

	return rec, nil
}

// checkServiceDependencies enforces the tri-state invariants: sub-services
// read their not-applicable value exactly when the parent service is absent.
func checkServiceDependencies(rec *CustomerRecord, line int) *RowParseError {
	hasPhone := rec.PhoneService
	if (rec.MultipleLines == NoPhone) == hasPhone {
		return &RowParseError{
			Line:   line,
			Column: "MultipleLines",
			Reason: fmt.Sprintf("value %q inconsistent with PhoneService=%v", rec.MultipleLines, hasPhone),
		}
	}

	hasInternet := rec.InternetService != InternetNone
	for i, v := range rec.InternetSubServices() {
		if (v == NoInternet) == hasInternet {
			return &RowParseError{
				Line:   line,
				Column: SubServiceColumns[i],
				Reason: fmt.Sprintf("value %q inconsistent with InternetService=%q", v, rec.InternetService),
			}
		}
	}
	return nil
}

func parseYesNo(v string) (bool, error) {
	switch v {
	case Yes:
		return true, nil
	case No:
		return false, nil
	default:
		return false, fmt.Errorf("expected Yes or No, got %q", v)
	}
}

// parseFlag accepts the SeniorCitizen column's 0/1 encoding as well as
// Yes/No, which some exports of the dataset use.
func parseFlag(v string) (bool, error) {
	switch v {
	case "0", No:
		return false, nil
	case "1", Yes:
		return true, nil
	default:
		return false, fmt.Errorf("expected 0/1 or Yes/No, got %q", v)
	}
}
