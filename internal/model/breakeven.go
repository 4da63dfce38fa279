package model

// BreakEvenRequest representa a requisicao de /api/break_even
type BreakEvenRequest struct {
	Estimate        EstimateInput `json:"estimate"`
	RentMonthlyCost float64       `json:"rent_monthly_cost"`
	Years           int           `json:"years"`
}

// BreakEvenResponse representa a resposta de /api/break_even
type BreakEvenResponse struct {
	MonthsToBreakEven *int      `json:"months_to_break_even"`
	BuyMonthlySeries  []float64 `json:"buy_monthly_series"`
	RentMonthlySeries []float64 `json:"rent_monthly_series"`
	Message           *string   `json:"message"`
}

// Validate checks the comparison parameters; the embedded estimate is validated separately.
func (r BreakEvenRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if r.RentMonthlyCost < 0 {
		errs.Add("rent_monthly_cost", "Rent must be positive")
	}
	if r.Years < MinOwnershipYears || r.Years > MaxOwnershipYears {
		errs.Add("years", "Must be between 1 and 30 years")
	}
	return errs
}
