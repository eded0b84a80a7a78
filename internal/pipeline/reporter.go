package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"

	"telco-churn/internal/dataset"
)

// Reporter writes the run artifacts to the output directory.
type Reporter struct {
	result     *RunResult
	outputPath string
}

// NewReporter creates a reporter for a finished run.
func NewReporter(result *RunResult, outputPath string) *Reporter {
	return &Reporter{
		result:     result,
		outputPath: outputPath,
	}
}

// GenerateReport writes all report formats.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}

	if err := r.generateJSONReport(); err != nil {
		return err
	}

	if err := r.generateImportancesCSV(); err != nil {
		return err
	}

	return r.generateCleanedCSV()
}

// generateSummary writes a human-readable summary of the run.
func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	res := r.result

	fmt.Fprintf(file, "CHURN PIPELINE RUN SUMMARY\n")
	fmt.Fprintf(file, "==========================\n\n")
	fmt.Fprintf(file, "Run ID: %s\n", res.RunID)
	fmt.Fprintf(file, "Duration: %s\n\n", res.Duration)

	fmt.Fprintf(file, "DATA CLEANING\n")
	fmt.Fprintf(file, "-------------\n")
	fmt.Fprintf(file, "Rows Loaded: %d\n", res.Cleaning.Loaded)
	fmt.Fprintf(file, "Rows Dropped: %d\n", res.Cleaning.Dropped)
	fmt.Fprintf(file, "Blank TotalCharges Repaired: %d\n", res.Cleaning.BlankTotalCharges)
	for reason, count := range res.Cleaning.DropReasons {
		fmt.Fprintf(file, "  dropped (%s): %d\n", reason, count)
	}

	profile := r.calculateProfile()
	fmt.Fprintf(file, "\nDATASET PROFILE\n")
	fmt.Fprintf(file, "---------------\n")
	fmt.Fprintf(file, "Customers: %d\n", len(res.Cleaning.Records))
	fmt.Fprintf(file, "Churn Rate: %.2f%%\n", profile.ChurnRate*100)
	fmt.Fprintf(file, "Tenure (months): mean %.1f, median %.1f\n", profile.TenureMean, profile.TenureMedian)
	fmt.Fprintf(file, "Monthly Charges: mean $%.2f, median $%.2f\n", profile.MonthlyMean, profile.MonthlyMedian)

	fmt.Fprintf(file, "\nMODEL EVALUATION\n")
	fmt.Fprintf(file, "----------------\n")
	for _, rep := range res.Reports {
		fmt.Fprintf(file, "%s: accuracy %.4f (TP=%d FP=%d TN=%d FN=%d)\n",
			rep.Variant, rep.Accuracy,
			rep.TruePositives, rep.FalsePositives, rep.TrueNegatives, rep.FalseNegatives)
	}
	fmt.Fprintf(file, "\nSelected Model: %s (accuracy %.4f)\n", res.Best.Variant, res.Best.Accuracy)

	fmt.Fprintf(file, "\nTOP CHURN DRIVERS\n")
	fmt.Fprintf(file, "-----------------\n")
	top := res.Importances
	if len(top) > 10 {
		top = top[:10]
	}
	for i, imp := range top {
		fmt.Fprintf(file, "%2d. %-20s %.4f\n", i+1, imp.Field, imp.Score)
	}

	if len(res.Unknown) > 0 {
		fmt.Fprintf(file, "\nWARNINGS\n")
		fmt.Fprintf(file, "--------\n")
		for _, u := range res.Unknown {
			fmt.Fprintf(file, "Unknown category %q in field %s (%d rows)\n", u.Value, u.Field, u.Count)
		}
	}

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

// generateJSONReport writes the per-variant evaluation reports as JSON.
func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "evaluation.json")

	report := struct {
		RunID       string      `json:"run_id"`
		DurationSec float64     `json:"duration_seconds"`
		Loaded      int         `json:"rows_loaded"`
		Dropped     int         `json:"rows_dropped"`
		Reports     interface{} `json:"reports"`
		Best        interface{} `json:"best"`
		Importances interface{} `json:"importances"`
	}{
		RunID:       r.result.RunID,
		DurationSec: r.result.Duration.Seconds(),
		Loaded:      r.result.Cleaning.Loaded,
		Dropped:     r.result.Cleaning.Dropped,
		Reports:     r.result.Reports,
		Best:        r.result.Best,
		Importances: r.result.Importances,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write evaluation report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// generateImportancesCSV writes the ranked feature importances.
func (r *Reporter) generateImportancesCSV() error {
	csvPath := filepath.Join(r.outputPath, "importances.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create importances file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"rank", "field", "score"}); err != nil {
		return err
	}
	for i, imp := range r.result.Importances {
		record := []string{
			strconv.Itoa(i + 1),
			imp.Field,
			strconv.FormatFloat(imp.Score, 'f', 6, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Importances CSV generated")
	return nil
}

// generateCleanedCSV writes the cleaned record set back out in the source
// column order so downstream tools can consume it.
func (r *Reporter) generateCleanedCSV() error {
	csvPath := filepath.Join(r.outputPath, "cleaned.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create cleaned dataset file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"customerID", "gender", "SeniorCitizen", "Partner", "Dependents",
		"tenure", "PhoneService", "MultipleLines", "InternetService",
		"OnlineSecurity", "OnlineBackup", "DeviceProtection", "TechSupport",
		"StreamingTV", "StreamingMovies", "Contract", "PaperlessBilling",
		"PaymentMethod", "MonthlyCharges", "TotalCharges", "Churn",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	yesNo := func(v bool) string {
		if v {
			return dataset.Yes
		}
		return dataset.No
	}
	flag := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}

	for i := range r.result.Cleaning.Records {
		rec := &r.result.Cleaning.Records[i]
		row := []string{
			rec.CustomerID,
			rec.Gender,
			flag(rec.SeniorCitizen),
			yesNo(rec.Partner),
			yesNo(rec.Dependents),
			strconv.Itoa(rec.Tenure),
			yesNo(rec.PhoneService),
			rec.MultipleLines,
			rec.InternetService,
			rec.OnlineSecurity,
			rec.OnlineBackup,
			rec.DeviceProtection,
			rec.TechSupport,
			rec.StreamingTV,
			rec.StreamingMovies,
			rec.Contract,
			yesNo(rec.PaperlessBilling),
			rec.PaymentMethod,
			strconv.FormatFloat(rec.MonthlyCharges, 'f', 2, 64),
			strconv.FormatFloat(rec.TotalCharges, 'f', 2, 64),
			yesNo(rec.Churn),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Int("rows", len(r.result.Cleaning.Records)).Msg("Cleaned dataset CSV generated")
	return nil
}

// Profile holds summary statistics of the cleaned dataset.
type Profile struct {
	ChurnRate     float64
	TenureMean    float64
	TenureMedian  float64
	MonthlyMean   float64
	MonthlyMedian float64
}

// calculateProfile computes summary statistics over the cleaned records.
func (r *Reporter) calculateProfile() Profile {
	records := r.result.Cleaning.Records
	if len(records) == 0 {
		return Profile{}
	}

	tenure := make([]float64, len(records))
	monthly := make([]float64, len(records))
	churned := 0
	for i := range records {
		tenure[i] = float64(records[i].Tenure)
		monthly[i] = records[i].MonthlyCharges
		if records[i].Churn {
			churned++
		}
	}

	p := Profile{ChurnRate: float64(churned) / float64(len(records))}
	p.TenureMean, _ = stats.Mean(tenure)
	p.TenureMedian, _ = stats.Median(tenure)
	p.MonthlyMean, _ = stats.Mean(monthly)
	p.MonthlyMedian, _ = stats.Median(monthly)
	return p
}

// PrintSummary prints a short run summary to the console.
func (r *Reporter) PrintSummary() {
	res := r.result

	fmt.Println("\n=== CHURN PIPELINE RESULTS ===")
	fmt.Printf("Run ID: %s\n", res.RunID)
	fmt.Printf("Rows: %d loaded, %d dropped\n", res.Cleaning.Loaded, res.Cleaning.Dropped)
	fmt.Println("\nVariant accuracy:")
	for _, rep := range res.Reports {
		marker := " "
		if rep.Variant == res.Best.Variant {
			marker = "*"
		}
		fmt.Printf(" %s %-20s %.4f\n", marker, rep.Variant, rep.Accuracy)
	}
	fmt.Println("\nTop churn drivers:")
	top := res.Importances
	if len(top) > 5 {
		top = top[:5]
	}
	for i, imp := range top {
		fmt.Printf("  %d. %-20s %.4f\n", i+1, imp.Field, imp.Score)
	}
	fmt.Println("==============================")
}
