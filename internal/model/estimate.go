package model

import (
	"fmt"
	"strings"
)

const (
	MinOwnershipYears = 1
	MaxOwnershipYears = 30
	MaxBankRate       = 30.0
	MinLoanYears      = 1
	MaxLoanYears      = 10
	MinManualPrice    = 1000.0
	MaxManualPrice    = 500000.0
)

// TransmissionType is the gear code understood by the pricing service.
type TransmissionType string

const (
	TransmissionManual        TransmissionType = "M"
	TransmissionAutomatic     TransmissionType = "A"
	TransmissionSemiAutomatic TransmissionType = "S"
)

func (t TransmissionType) Valid() bool {
	switch t {
	case TransmissionManual, TransmissionAutomatic, TransmissionSemiAutomatic:
		return true
	}
	return false
}

func (t TransmissionType) Label() string {
	switch t {
	case TransmissionManual:
		return "Manual"
	case TransmissionAutomatic:
		return "Automatic"
	case TransmissionSemiAutomatic:
		return "Semi-automatic"
	}
	return string(t)
}

// ParseTransmissionType accepts either the wire code or the label.
func ParseTransmissionType(s string) (TransmissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "manual":
		return TransmissionManual, nil
	case "a", "automatic":
		return TransmissionAutomatic, nil
	case "s", "semi-automatic", "semiautomatic":
		return TransmissionSemiAutomatic, nil
	}
	return "", fmt.Errorf("unknown transmission type %q", s)
}

// EstimateInput representa o formulario enviado para /api/estimate
type EstimateInput struct {
	Brand               string             `json:"brand"`
	Model               string             `json:"model"`
	Details             string             `json:"details"`
	ZipCode             string             `json:"zip_code"`
	RegistrationYear    int                `json:"registration_year"`
	OwnershipYears      int                `json:"number_of_years"`
	PurchaseYearIndex   int                `json:"purchase_year_index"`
	MonthlyMaintenance  float64            `json:"monthly_maintenance"`
	LoanValue           float64            `json:"loan_value"`
	BankRatePercent     float64            `json:"bank_rate_percent"`
	LoanYears           int                `json:"loan_years"`
	TransmissionTypes   []TransmissionType `json:"shift_types"`
	ManualPurchasePrice *float64           `json:"manual_purchase_price,omitempty"`
}

// EstimateResult representa a resposta de /api/estimate
type EstimateResult struct {
	PurchasePrice          float64   `json:"purchase_price"`
	EstimatedFinalValue    float64   `json:"estimated_final_value"`
	MonthlyDepreciation    float64   `json:"monthly_depreciation"`
	MonthlyMaintenance     float64   `json:"monthly_maintenance"`
	LoanMonthlyPayment     float64   `json:"loan_monthly_payment"`
	LoanTotalInterest      float64   `json:"loan_total_interest"`
	TotalMonthlyCost       float64   `json:"total_monthly_cost"`
	YearValues             []float64 `json:"year_values"`
	Warning                *string   `json:"warning,omitempty"`
	PerYearStdDev          []float64 `json:"price_stddev,omitempty"`
	AdjustedOwnershipYears *int      `json:"adjusted_number_of_years,omitempty"`
}

// Clone returns a deep copy; stored snapshots never share slices with callers.
func (in EstimateInput) Clone() EstimateInput {
	out := in
	if in.TransmissionTypes != nil {
		out.TransmissionTypes = append([]TransmissionType(nil), in.TransmissionTypes...)
	}
	if in.ManualPurchasePrice != nil {
		price := *in.ManualPurchasePrice
		out.ManualPurchasePrice = &price
	}
	return out
}

// WithoutManualPrice drops the manual override so the service looks the price up.
func (in EstimateInput) WithoutManualPrice() EstimateInput {
	out := in.Clone()
	out.ManualPurchasePrice = nil
	return out
}

// Validate runs the form rules locally. An empty result means the input can be sent.
func (in EstimateInput) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(in.Brand) == "" {
		errs.Add("brand", "Please select a brand")
	}
	if strings.TrimSpace(in.Model) == "" {
		errs.Add("model", "Please select a model")
	}
	if strings.TrimSpace(in.ZipCode) == "" {
		errs.Add("zip_code", "Please enter your location")
	}
	if in.RegistrationYear <= 0 {
		errs.Add("registration_year", "Please select registration year")
	}
	if in.OwnershipYears < MinOwnershipYears || in.OwnershipYears > MaxOwnershipYears {
		errs.Add("number_of_years", "Must be between 1 and 30 years")
	}
	if in.PurchaseYearIndex < 0 {
		errs.Add("purchase_year_index", "Must be at least 0")
	}
	if in.MonthlyMaintenance < 0 {
		errs.Add("monthly_maintenance", "Maintenance cost must be positive")
	}
	if in.LoanValue < 0 {
		errs.Add("loan_value", "Loan amount must be positive")
	}
	if in.BankRatePercent < 0 || in.BankRatePercent > MaxBankRate {
		errs.Add("bank_rate_percent", "Rate must be between 0% and 30%")
	}
	if in.LoanYears < MinLoanYears || in.LoanYears > MaxLoanYears {
		errs.Add("loan_years", "Term must be between 1 and 10 years")
	}
	if len(in.TransmissionTypes) == 0 {
		errs.Add("shift_types", "Please select at least one transmission type")
	}
	for _, t := range in.TransmissionTypes {
		if !t.Valid() {
			errs.Add("shift_types", fmt.Sprintf("Unknown transmission type %q", string(t)))
		}
	}

	return errs
}

// ValidateManualPrice checks the override entered after the price lookup was unavailable.
func (in EstimateInput) ValidateManualPrice() FieldErrors {
	errs := FieldErrors{}
	switch {
	case in.ManualPurchasePrice == nil:
		errs.Add("manual_purchase_price", "Please enter purchase price")
	case *in.ManualPurchasePrice < MinManualPrice:
		errs.Add("manual_purchase_price", "Price must be at least €1,000")
	case *in.ManualPurchasePrice > MaxManualPrice:
		errs.Add("manual_purchase_price", "Price must be at most €500,000")
	}
	return errs
}

// FieldErrors maps a form field to its messages, in the shape of the 422 details payload.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

func (f FieldErrors) Clone() FieldErrors {
	if f == nil {
		return nil
	}
	out := make(FieldErrors, len(f))
	for k, v := range f {
		out[k] = append([]string(nil), v...)
	}
	return out
}
