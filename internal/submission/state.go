// Package submission drives one estimate request from the form to a terminal,
// fully described UI state.
package submission

import (
	"errors"

	"car-cost-estimator/internal/model"
)

// ErrInFlight is returned when a submission is attempted while another one is pending.
var ErrInFlight = errors.New("submission already in flight")

type Kind string

const (
	Idle               Kind = "idle"
	Submitting         Kind = "submitting"
	Succeeded          Kind = "succeeded"
	ValidationFailed   Kind = "validation_failed"
	ServiceUnavailable Kind = "service_unavailable"
	Failed             Kind = "failed"
)

// Terminal reports whether the kind ends a submission.
func (k Kind) Terminal() bool {
	switch k {
	case Succeeded, ValidationFailed, ServiceUnavailable, Failed:
		return true
	}
	return false
}

// State is everything the form needs to render after a transition.
type State struct {
	Kind        Kind                  `json:"state"`
	Result      *model.EstimateResult `json:"result,omitempty"`
	FieldErrors model.FieldErrors     `json:"field_errors,omitempty"`
	Message     string                `json:"message,omitempty"`
	Description string                `json:"description,omitempty"`
	// Warning is the server note sent with a successful result, e.g. adjusted years.
	Warning string            `json:"warning,omitempty"`
	Failure model.FailureKind `json:"failure,omitempty"`
	// ManualPriceAvailable tells the form to show the manual purchase price input.
	ManualPriceAvailable bool `json:"manual_price_available"`
}

func (s State) Clone() State {
	out := s
	out.FieldErrors = s.FieldErrors.Clone()
	if s.Result != nil {
		r := *s.Result
		r.YearValues = append([]float64(nil), s.Result.YearValues...)
		if s.Result.PerYearStdDev != nil {
			r.PerYearStdDev = append([]float64(nil), s.Result.PerYearStdDev...)
		}
		out.Result = &r
	}
	return out
}
