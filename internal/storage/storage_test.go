package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telco-churn/internal/dataset"
	"telco-churn/internal/ml"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err, "failed to open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreCustomersRoundTrip(t *testing.T) {
	s := testStore(t)

	records := []dataset.CustomerRecord{
		{
			CustomerID:      "0001-AAAAA",
			Gender:          dataset.GenderFemale,
			Tenure:          12,
			Contract:        dataset.ContractMonthly,
			InternetService: dataset.InternetDSL,
			MonthlyCharges:  29.85,
			TotalCharges:    358.20,
			Churn:           true,
		},
		{
			CustomerID:      "0002-BBBBB",
			Gender:          dataset.GenderMale,
			Tenure:          60,
			Contract:        dataset.ContractTwoYear,
			InternetService: dataset.InternetNone,
			MonthlyCharges:  20.05,
			TotalCharges:    1203.00,
		},
	}

	require.NoError(t, s.StoreCustomers(records))

	got, err := s.GetCustomers()
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := make(map[string]dataset.CustomerRecord)
	for _, r := range got {
		byID[r.CustomerID] = r
	}
	first := byID["0001-AAAAA"]
	assert.Equal(t, 12, first.Tenure)
	assert.True(t, first.Churn)
	assert.Equal(t, 29.85, first.MonthlyCharges)
}

func TestStoreCustomersOverwrite(t *testing.T) {
	s := testStore(t)

	rec := dataset.CustomerRecord{CustomerID: "0001-AAAAA", Tenure: 1}
	require.NoError(t, s.StoreCustomers([]dataset.CustomerRecord{rec}))

	rec.Tenure = 2
	require.NoError(t, s.StoreCustomers([]dataset.CustomerRecord{rec}))

	got, err := s.GetCustomers()
	require.NoError(t, err)
	require.Len(t, got, 1, "re-storing a customer must replace, not duplicate")
	assert.Equal(t, 2, got[0].Tenure)
}

func TestArtifactRoundTrip(t *testing.T) {
	s := testStore(t)

	report := []ml.Report{
		{Variant: "random-forest", Accuracy: 0.81, FalseNegatives: 12},
		{Variant: "knn", Accuracy: 0.77, FalseNegatives: 20},
	}
	require.NoError(t, s.StoreArtifact("run-1", ArtifactReport, report))

	var got []ml.Report
	require.NoError(t, s.GetArtifact("run-1", ArtifactReport, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "random-forest", got[0].Variant)
	assert.Equal(t, 0.81, got[0].Accuracy)
}

func TestGetArtifactMissing(t *testing.T) {
	s := testStore(t)

	var out []ml.Report
	err := s.GetArtifact("nope", ArtifactReport, &out)
	assert.Error(t, err, "missing artifacts must not read as empty")
}

func TestArtifactsIsolatedByRun(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.StoreArtifact("run-1", ArtifactImportances,
		[]ml.FieldImportance{{Field: "Contract", Score: 1}}))
	require.NoError(t, s.StoreArtifact("run-2", ArtifactImportances,
		[]ml.FieldImportance{{Field: "tenure", Score: 1}}))

	var got []ml.FieldImportance
	require.NoError(t, s.GetArtifact("run-2", ArtifactImportances, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "tenure", got[0].Field)
}
