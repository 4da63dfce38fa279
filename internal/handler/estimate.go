package handler

import (
	"errors"
	"net/http"
	"strconv"

	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/series"
	"car-cost-estimator/internal/submission"
)

type EstimateHandler struct {
	machine    *submission.Machine
	comparison *submission.Comparison
}

func NewEstimateHandler(machine *submission.Machine, comparison *submission.Comparison) *EstimateHandler {
	return &EstimateHandler{machine: machine, comparison: comparison}
}

// ValueChartResponse representa o grafico de valor do veiculo
type ValueChartResponse struct {
	Points  []series.ValuePoint `json:"points"`
	HasBand bool                `json:"has_band"`
}

// BreakEvenParams is the local break-even request; the estimate is the last successful one.
type BreakEvenParams struct {
	RentMonthlyCost float64 `json:"rent_monthly_cost"`
	Years           int     `json:"years"`
}

func (h *EstimateHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.machine.State())
}

// Submit runs one estimate and answers with the terminal state. Failures of
// the pricing service are states, not HTTP errors.
func (h *EstimateHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in model.EstimateInput
	if !decodeBody(w, r, &in) {
		return
	}

	state, err := h.machine.Submit(r.Context(), in)
	if errors.Is(err, submission.ErrInFlight) {
		writeError(w, http.StatusConflict, "in_flight", "An estimate is already being computed")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *EstimateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.machine.Reset())
}

func (h *EstimateHandler) Edit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.machine.Edit())
}

// ValueChart builds the value chart of the last successful estimate.
// registration_year overrides the year of the submitted input.
func (h *EstimateHandler) ValueChart(w http.ResponseWriter, r *http.Request) {
	state := h.machine.State()
	in, ok := h.machine.LastInput()
	if state.Kind != submission.Succeeded || state.Result == nil || !ok {
		writeError(w, http.StatusConflict, "no_estimate", "Submit an estimate first")
		return
	}

	year := in.RegistrationYear
	if raw := r.URL.Query().Get("registration_year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "registration_year must be a positive integer")
			return
		}
		year = v
	}

	writeJSON(w, http.StatusOK, ValueChartResponse{
		Points:  series.ValuePoints(state.Result.YearValues, state.Result.PerYearStdDev, year, in.PurchaseYearIndex),
		HasBand: series.HasBand(state.Result.PerYearStdDev),
	})
}

// BreakEven compares buying the last estimated car with renting.
func (h *EstimateHandler) BreakEven(w http.ResponseWriter, r *http.Request) {
	var params BreakEvenParams
	if !decodeBody(w, r, &params) {
		return
	}

	in, ok := h.machine.LastInput()
	if !ok {
		writeError(w, http.StatusConflict, "no_estimate", "Submit an estimate first")
		return
	}

	state, err := h.comparison.Compare(r.Context(), model.BreakEvenRequest{
		Estimate:        in,
		RentMonthlyCost: params.RentMonthlyCost,
		Years:           params.Years,
	})
	if errors.Is(err, submission.ErrInFlight) {
		writeError(w, http.StatusConflict, "in_flight", "A comparison is already being computed")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
