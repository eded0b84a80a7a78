package dataset

import (
	"errors"
	"strings"
	"testing"
)

const testHeader = "customerID,gender,SeniorCitizen,Partner,Dependents,tenure,PhoneService," +
	"MultipleLines,InternetService,OnlineSecurity,OnlineBackup,DeviceProtection,TechSupport," +
	"StreamingTV,StreamingMovies,Contract,PaperlessBilling,PaymentMethod,MonthlyCharges,TotalCharges,Churn"

func csvData(rows ...string) string {
	return testHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

const validRow = "7590-VHVEG,Female,0,Yes,No,5,No,No phone service,DSL,No,Yes,No,No,No,No," +
	"Month-to-month,Yes,Electronic check,29.85,151.65,No"

func TestLoadReaderValidRow(t *testing.T) {
	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(validRow)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Loaded != 1 || result.Dropped != 0 {
		t.Fatalf("Expected 1 loaded, 0 dropped, got %d/%d", result.Loaded, result.Dropped)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}

	rec := result.Records[0]
	if rec.CustomerID != "7590-VHVEG" {
		t.Errorf("Expected customer ID 7590-VHVEG, got %s", rec.CustomerID)
	}
	if rec.Gender != GenderFemale {
		t.Errorf("Expected gender Female, got %s", rec.Gender)
	}
	if rec.SeniorCitizen {
		t.Error("Expected SeniorCitizen false")
	}
	if !rec.Partner || rec.Dependents {
		t.Errorf("Expected Partner=true Dependents=false, got %v/%v", rec.Partner, rec.Dependents)
	}
	if rec.Tenure != 5 {
		t.Errorf("Expected tenure 5, got %d", rec.Tenure)
	}
	if rec.MonthlyCharges != 29.85 || rec.TotalCharges != 151.65 {
		t.Errorf("Expected charges 29.85/151.65, got %v/%v", rec.MonthlyCharges, rec.TotalCharges)
	}
	if rec.Churn {
		t.Error("Expected Churn false")
	}
}

func TestLoadReaderMissingColumn(t *testing.T) {
	header := strings.Replace(testHeader, "TotalCharges,", "", 1)
	row := strings.Replace(validRow, ",151.65", "", 1)

	loader := NewLoader()
	_, err := loader.LoadReader(strings.NewReader(header + "\n" + row + "\n"))
	if err == nil {
		t.Fatal("Expected schema error for missing column")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %T: %v", err, err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "TotalCharges" {
		t.Errorf("Expected missing [TotalCharges], got %v", schemaErr.Missing)
	}
}

func TestLoadReaderBlankTotalChargesZeroTenure(t *testing.T) {
	// Brand-new customers have no invoice yet; the blank total is coerced
	// to 0.0 and the row is kept.
	row := "0001-AAAAA,Male,0,No,No,0,Yes,No,Fiber optic,No,No,No,No,Yes,Yes," +
		"Month-to-month,Yes,Electronic check,70.70, ,No"

	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(row)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected row to be kept, got %d records (%d dropped)", len(result.Records), result.Dropped)
	}
	if result.Records[0].TotalCharges != 0.0 {
		t.Errorf("Expected TotalCharges 0.0, got %v", result.Records[0].TotalCharges)
	}
	if result.BlankTotalCharges != 1 {
		t.Errorf("Expected 1 blank total repaired, got %d", result.BlankTotalCharges)
	}
}

func TestLoadReaderBlankTotalChargesNonzeroTenure(t *testing.T) {
	row := "0002-BBBBB,Male,0,No,No,12,Yes,No,Fiber optic,No,No,No,No,Yes,Yes," +
		"Month-to-month,Yes,Electronic check,70.70,,No"

	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(row)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Dropped != 1 {
		t.Fatalf("Expected row to be dropped, got %d dropped", result.Dropped)
	}
	if result.DropReasons["TotalCharges"] != 1 {
		t.Errorf("Expected drop attributed to TotalCharges, got %v", result.DropReasons)
	}
	if len(result.ErrorSamples) != 1 || result.ErrorSamples[0].Column != "TotalCharges" {
		t.Errorf("Expected one TotalCharges error sample, got %v", result.ErrorSamples)
	}
}

func TestLoadReaderSeniorCitizenSpellings(t *testing.T) {
	rows := []string{
		strings.Replace(validRow, "Female,0", "Female,1", 1),
		strings.Replace(validRow, "Female,0", "Female,Yes", 1),
		strings.Replace(validRow, "Female,0", "Female,No", 1),
	}

	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(rows...)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d (%d dropped)", len(result.Records), result.Dropped)
	}
	if !result.Records[0].SeniorCitizen || !result.Records[1].SeniorCitizen {
		t.Error("Expected 1 and Yes to parse as senior")
	}
	if result.Records[2].SeniorCitizen {
		t.Error("Expected No to parse as non-senior")
	}
}

func TestLoadReaderServiceDependencyViolations(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		column string
	}{
		{
			name: "multiple lines without phone service",
			row: "0003-CCCCC,Male,0,No,No,3,No,Yes,DSL,No,No,No,No,No,No," +
				"Month-to-month,No,Mailed check,25.00,75.00,No",
			column: "MultipleLines",
		},
		{
			name: "sub-service marked no-internet with internet present",
			row: "0004-DDDDD,Male,0,No,No,3,Yes,No,DSL,No internet service,No,No,No,No,No," +
				"Month-to-month,No,Mailed check,25.00,75.00,No",
			column: "OnlineSecurity",
		},
		{
			name: "sub-service value with no internet",
			row: "0005-EEEEE,Male,0,No,No,3,Yes,No,No,No internet service,No internet service," +
				"No internet service,No internet service,Yes,No internet service," +
				"Month-to-month,No,Mailed check,20.00,60.00,No",
			column: "StreamingTV",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewLoader()
			result, err := loader.LoadReader(strings.NewReader(csvData(tc.row)))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.Dropped != 1 {
				t.Fatalf("Expected row to be dropped, got %d dropped", result.Dropped)
			}
			if result.DropReasons[tc.column] != 1 {
				t.Errorf("Expected drop attributed to %s, got %v", tc.column, result.DropReasons)
			}
		})
	}
}

func TestLoadReaderInvalidNumericFields(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		column string
	}{
		{
			name:   "non-numeric tenure",
			row:    strings.Replace(validRow, ",5,", ",abc,", 1),
			column: "tenure",
		},
		{
			name:   "negative tenure",
			row:    strings.Replace(validRow, ",5,", ",-1,", 1),
			column: "tenure",
		},
		{
			name:   "bad monthly charge",
			row:    strings.Replace(validRow, "29.85", "n/a", 1),
			column: "MonthlyCharges",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewLoader()
			result, err := loader.LoadReader(strings.NewReader(csvData(tc.row)))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.DropReasons[tc.column] != 1 {
				t.Errorf("Expected drop attributed to %s, got %v", tc.column, result.DropReasons)
			}
		})
	}
}

func TestLoadReaderScoringModeWithoutChurn(t *testing.T) {
	header := strings.Replace(testHeader, ",Churn", "", 1)
	row := strings.TrimSuffix(validRow, ",No")

	loader := NewScoringLoader()
	result, err := loader.LoadReader(strings.NewReader(header + "\n" + row + "\n"))
	if err != nil {
		t.Fatalf("Expected no error without label column, got %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}

	// The training loader must refuse the same input.
	trainLoader := NewLoader()
	if _, err := trainLoader.LoadReader(strings.NewReader(header + "\n" + row + "\n")); err == nil {
		t.Error("Expected training loader to reject data without Churn column")
	}
}

func TestLoadReaderRaggedRowDropped(t *testing.T) {
	short := "0006-FFFFF,Male,0,No,No"
	long := validRow + ",extra,fields"

	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(validRow, short, long)))
	if err != nil {
		t.Fatalf("Expected ragged rows to be dropped, not fatal, got %v", err)
	}
	if result.Loaded != 3 {
		t.Errorf("Expected 3 rows loaded, got %d", result.Loaded)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record kept, got %d", len(result.Records))
	}
	if result.Dropped != 2 || result.DropReasons["row"] != 2 {
		t.Errorf("Expected 2 drops attributed to row shape, got %d (%v)", result.Dropped, result.DropReasons)
	}
	if len(result.ErrorSamples) != 2 || result.ErrorSamples[0].Column != "row" {
		t.Errorf("Expected row-shape error samples, got %v", result.ErrorSamples)
	}
}

func TestLoadReaderBadLabelDropped(t *testing.T) {
	row := strings.TrimSuffix(validRow, ",No") + ",Maybe"

	loader := NewLoader()
	result, err := loader.LoadReader(strings.NewReader(csvData(row)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.DropReasons["Churn"] != 1 {
		t.Errorf("Expected drop attributed to Churn, got %v", result.DropReasons)
	}
}
