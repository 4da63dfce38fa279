package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-cost-estimator/internal/archive"
	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/submission"
)

// pricingStub fakes the remote pricing service.
type pricingStub struct {
	estimateStatus int
	estimateBody   interface{}
}

func (p *pricingStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/brands":
		json.NewEncoder(w).Encode(model.BrandsResponse{Brands: []string{"Alfa Romeo", "Citroën", "Fiat"}})
	case "/api/models":
		json.NewEncoder(w).Encode(model.ModelsResponse{
			Brand:  r.URL.Query().Get("brand"),
			Models: []string{"500", "Panda", "Tipo"},
		})
	case "/api/estimate":
		w.WriteHeader(p.estimateStatus)
		json.NewEncoder(w).Encode(p.estimateBody)
	case "/api/break_even":
		month := 4
		json.NewEncoder(w).Encode(model.BreakEvenResponse{
			MonthsToBreakEven: &month,
			BuyMonthlySeries:  []float64{3000, 100, 100, 100},
			RentMonthlySeries: []float64{900, 900, 900, 900},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testAPI struct {
	stub    *pricingStub
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	stub := &pricingStub{
		estimateStatus: http.StatusOK,
		estimateBody: model.EstimateResult{
			PurchasePrice:    15000,
			TotalMonthlyCost: 420,
			YearValues:       []float64{15000, 12000, 10000},
			PerYearStdDev:    []float64{500, 400, 300},
		},
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	pricing := client.NewPricingClient(srv.URL,
		client.WithLookupRetry(client.NoRetry()),
	)
	t.Cleanup(pricing.Close)

	studies := archive.New(archive.NewMemoryStore())
	machine := submission.NewMachine(pricing)
	comparison := submission.NewComparison(pricing, nil, nil)

	studiesHandler := NewStudiesHandler(studies, machine)
	studiesHandler.now = func() time.Time { return time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC) }

	return &testAPI{
		stub: stub,
		handler: NewRouter(Handlers{
			Health:   NewHealthHandler(studies),
			Catalog:  NewCatalogHandler(pricing),
			Estimate: NewEstimateHandler(machine, comparison),
			Studies:  studiesHandler,
		}),
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func validInput() model.EstimateInput {
	return model.EstimateInput{
		Brand:              "Fiat",
		Model:              "Panda",
		ZipCode:            "10139-torino",
		RegistrationYear:   2021,
		OwnershipYears:     3,
		PurchaseYearIndex:  1,
		MonthlyMaintenance: 80,
		LoanYears:          3,
		TransmissionTypes:  []model.TransmissionType{model.TransmissionManual},
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "available", resp.Archive)
}

func TestBrands_Filtered(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/brands?q=citro", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Citroën"}, decode[model.BrandsResponse](t, rec).Brands)
}

func TestModels(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/models?brand=Fiat&q=pa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ModelsResponse](t, rec)
	assert.Equal(t, "Fiat", resp.Brand)
	assert.Equal(t, []string{"Panda"}, resp.Models)

	rec = api.do(t, http.MethodGet, "/api/v1/models", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimate_SuccessThenCharts(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/estimate", validInput())
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[submission.State](t, rec)
	assert.Equal(t, submission.Succeeded, state.Kind)
	assert.Equal(t, 15000.0, state.Result.PurchasePrice)

	rec = api.do(t, http.MethodGet, "/api/v1/estimate/value-chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	chart := decode[ValueChartResponse](t, rec)
	require.Len(t, chart.Points, 3)
	assert.Equal(t, 2021, chart.Points[0].Year)
	assert.True(t, chart.Points[1].IsPurchaseYear)
	assert.Equal(t, 9700.0, chart.Points[2].Lower)
	assert.True(t, chart.HasBand)

	rec = api.do(t, http.MethodPost, "/api/v1/break-even", BreakEvenParams{RentMonthlyCost: 900, Years: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decode[submission.ComparisonState](t, rec)
	assert.Equal(t, submission.Succeeded, cmp.Kind)
	require.NotNil(t, cmp.BreakEvenMonth)
	assert.Equal(t, 4, *cmp.BreakEvenMonth)
}

func TestEstimate_UnavailableThenReset(t *testing.T) {
	api := newTestAPI(t)
	api.stub.estimateStatus = http.StatusServiceUnavailable
	api.stub.estimateBody = map[string]string{"error": "Pricing data unavailable"}

	rec := api.do(t, http.MethodPost, "/api/v1/estimate", validInput())
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[submission.State](t, rec)
	assert.Equal(t, submission.ServiceUnavailable, state.Kind)
	assert.True(t, state.ManualPriceAvailable)

	rec = api.do(t, http.MethodPost, "/api/v1/estimate/edit", nil)
	assert.True(t, decode[submission.State](t, rec).ManualPriceAvailable)

	rec = api.do(t, http.MethodPost, "/api/v1/estimate/reset", nil)
	state = decode[submission.State](t, rec)
	assert.Equal(t, submission.Idle, state.Kind)
	assert.False(t, state.ManualPriceAvailable)
}

func TestEstimate_ServerValidation(t *testing.T) {
	api := newTestAPI(t)
	api.stub.estimateStatus = http.StatusUnprocessableEntity
	api.stub.estimateBody = map[string]interface{}{
		"error":   "Validation failed",
		"details": map[string][]string{"brand": {"Brand is required"}},
	}

	rec := api.do(t, http.MethodPost, "/api/v1/estimate", validInput())

	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[submission.State](t, rec)
	assert.Equal(t, submission.ValidationFailed, state.Kind)
	assert.Equal(t, model.FieldErrors{"brand": {"Brand is required"}}, state.FieldErrors)
}

func TestEstimate_BadBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/estimate", []byte("{"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[model.ErrorResponse](t, rec).Error)
}

func TestValueChart_RequiresEstimate(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/estimate/value-chart", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/break-even", BreakEvenParams{RentMonthlyCost: 500, Years: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStudies_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/studies", model.SaveStudyRequest{Name: "Panda", Data: validInput()})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[model.SavedStudy](t, rec)

	rec = api.do(t, http.MethodGet, "/api/v1/studies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.StudiesResponse](t, rec)
	require.Len(t, list.Studies, 1)
	assert.Equal(t, saved.ID, list.Studies[0].ID)

	rec = api.do(t, http.MethodPost, "/api/v1/studies/"+saved.ID+"/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode[LoadedStudyResponse](t, rec)
	assert.Equal(t, "Panda", loaded.Study.Snapshot.Model)
	assert.Equal(t, submission.Idle, loaded.State.Kind)

	rec = api.do(t, http.MethodGet, "/api/v1/studies/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="car-studies-2025-05-04.json"`, rec.Header().Get("Content-Disposition"))
	exported := rec.Body.Bytes()

	rec = api.do(t, http.MethodDelete, "/api/v1/studies/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/studies/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/studies/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.ImportResponse](t, rec).Imported)

	rec = api.do(t, http.MethodGet, "/api/v1/studies/"+saved.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStudies_Errors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/studies", model.SaveStudyRequest{Name: "  ", Data: validInput()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_name", decode[model.ErrorResponse](t, rec).Error)

	rec = api.do(t, http.MethodPost, "/api/v1/studies/import", []byte(`{"not":"an array"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_archive", decode[model.ErrorResponse](t, rec).Error)
}

func TestExportFileName(t *testing.T) {
	day := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, fmt.Sprintf("car-studies-%s.json", "2024-12-31"), ExportFileName(day))
}
