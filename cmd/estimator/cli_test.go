package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/submission"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	in := model.EstimateInput{
		Brand:             "Fiat",
		Model:             "Panda",
		ZipCode:           "10139",
		RegistrationYear:  2021,
		OwnershipYears:    3,
		LoanYears:         3,
		TransmissionTypes: []model.TransmissionType{model.TransmissionManual},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pricingServer(t *testing.T, estimateStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/brands":
			json.NewEncoder(w).Encode(model.BrandsResponse{Brands: []string{"Fiat", "Škoda"}})
		case "/api/models":
			json.NewEncoder(w).Encode(model.ModelsResponse{Brand: r.URL.Query().Get("brand"), Models: []string{"A", "B"}})
		case "/api/estimate":
			var in model.EstimateInput
			json.NewDecoder(r.Body).Decode(&in)
			if in.ManualPurchasePrice == nil && estimateStatus != http.StatusOK {
				w.WriteHeader(estimateStatus)
				json.NewEncoder(w).Encode(map[string]string{"error": "unavailable"})
				return
			}
			json.NewEncoder(w).Encode(model.EstimateResult{PurchasePrice: 12000, YearValues: []float64{12000, 10000}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "estimator version "+Version)
}

func TestBrands_WithModels(t *testing.T) {
	srv := pricingServer(t, http.StatusOK)

	out, err := execute(t, "--api-url", srv.URL, "brands", "-q", "skoda", "--models")
	require.NoError(t, err)

	var catalog []model.ModelsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	require.Len(t, catalog, 1)
	assert.Equal(t, "Škoda", catalog[0].Brand)
	assert.Equal(t, []string{"A", "B"}, catalog[0].Models)
}

func TestEstimate_ManualPriceFallback(t *testing.T) {
	srv := pricingServer(t, http.StatusServiceUnavailable)
	input := writeInput(t, t.TempDir())

	out, err := execute(t, "--api-url", srv.URL, "estimate", "-i", input, "--manual-price", "15000")
	require.NoError(t, err)

	var state submission.State
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, submission.Succeeded, state.Kind)
	assert.True(t, state.ManualPriceAvailable)
}

func TestEstimate_UnavailableWithoutManualPrice(t *testing.T) {
	srv := pricingServer(t, http.StatusServiceUnavailable)
	input := writeInput(t, t.TempDir())

	_, err := execute(t, "--api-url", srv.URL, "estimate", "-i", input)
	assert.ErrorContains(t, err, "Service Temporarily Unavailable")
}

func TestStudies_SaveExportImport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARCHIVE_PATH", filepath.Join(dir, "studies.json"))
	input := writeInput(t, dir)

	_, err := execute(t, "--archive", "file", "studies", "save", "-n", "Panda", "-i", input)
	require.NoError(t, err)

	exportPath := filepath.Join(dir, "export.json")
	_, err = execute(t, "--archive", "file", "studies", "export", "-o", exportPath)
	require.NoError(t, err)

	out, err := execute(t, "--archive", "file", "studies", "list")
	require.NoError(t, err)
	var list model.StudiesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Studies, 1)
	id := list.Studies[0].ID

	_, err = execute(t, "--archive", "file", "studies", "delete", id)
	require.NoError(t, err)

	out, err = execute(t, "--archive", "file", "studies", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 studies")

	out, err = execute(t, "--archive", "file", "studies", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Panda"`)
}

func TestStudies_InvalidName(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	_, err := execute(t, "--archive", "memory", "studies", "save", "-n", "   ", "-i", input)
	assert.Error(t, err)
}

func TestUnknownArchiveBackend(t *testing.T) {
	_, err := execute(t, "--archive", "tape", "studies", "list")
	assert.ErrorContains(t, err, "unknown archive backend")
}
