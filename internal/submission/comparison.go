package submission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"car-cost-estimator/internal/metrics"
	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/series"
)

const msgNoBreakEven = "Renting remains more cost-effective throughout the entire period."

// BreakEvenRequester is the part of the pricing client the comparison needs.
type BreakEvenRequester interface {
	RequestBreakEven(ctx context.Context, req model.BreakEvenRequest) (*model.BreakEvenResponse, error)
}

// ComparisonState is the outcome of a buy-versus-rent comparison.
type ComparisonState struct {
	Kind        Kind              `json:"state"`
	Chart       *series.Chart     `json:"chart,omitempty"`
	FieldErrors model.FieldErrors `json:"field_errors,omitempty"`
	// BreakEvenMonth is the month reported by the service. Nil means no
	// break-even; Chart.Crossover only drives the chart, since the series
	// leave out the depreciation the service accounts for.
	BreakEvenMonth *int              `json:"break_even_month,omitempty"`
	Message        string            `json:"message,omitempty"`
	Description    string            `json:"description,omitempty"`
	Failure        model.FailureKind `json:"failure,omitempty"`
}

// Comparison runs break-even requests with the same guarantees as Machine:
// local validation first, one call in flight, no automatic retry.
type Comparison struct {
	mu        sync.Mutex
	requester BreakEvenRequester
	state     ComparisonState
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewComparison(requester BreakEvenRequester, m *metrics.Metrics, logger *slog.Logger) *Comparison {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparison{
		requester: requester,
		state:     ComparisonState{Kind: Idle},
		metrics:   m,
		logger:    logger,
	}
}

// State returns a copy of the current state.
func (c *Comparison) State() ComparisonState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (s ComparisonState) Clone() ComparisonState {
	out := s
	out.FieldErrors = s.FieldErrors.Clone()
	if s.BreakEvenMonth != nil {
		m := *s.BreakEvenMonth
		out.BreakEvenMonth = &m
	}
	if s.Chart != nil {
		chart := *s.Chart
		chart.Buy = append([]series.Point(nil), s.Chart.Buy...)
		chart.Rent = append([]series.Point(nil), s.Chart.Rent...)
		if s.Chart.Crossover != nil {
			p := *s.Chart.Crossover
			chart.Crossover = &p
		}
		out.Chart = &chart
	}
	return out
}

// Compare validates req, asks the service for both monthly series and
// reshapes them for the chart.
func (c *Comparison) Compare(ctx context.Context, req model.BreakEvenRequest) (ComparisonState, error) {
	c.mu.Lock()
	if c.state.Kind == Submitting {
		current := c.state.Clone()
		c.mu.Unlock()
		return current, ErrInFlight
	}

	req.Estimate = req.Estimate.WithoutManualPrice()
	errs := req.Validate()
	for field, msgs := range req.Estimate.Validate() {
		errs[field] = append(errs[field], msgs...)
	}
	if !errs.Empty() {
		c.state = ComparisonState{Kind: ValidationFailed, FieldErrors: errs, Message: msgValidation}
		defer c.mu.Unlock()
		return c.state.Clone(), nil
	}
	c.state = ComparisonState{Kind: Submitting}
	c.mu.Unlock()

	resp, err := c.request(ctx, req)

	var next ComparisonState
	if err != nil {
		s := classify(err)
		next = ComparisonState{
			Kind:        s.Kind,
			FieldErrors: s.FieldErrors,
			Message:     s.Message,
			Description: s.Description,
			Failure:     s.Failure,
		}
		if next.Kind == ServiceUnavailable {
			next.Description = descUnavailableNoFix
		}
		c.logger.Warn("break-even failed", "state", next.Kind, "error", err)
	} else {
		next = comparisonResult(resp)
		month := 0
		if next.BreakEvenMonth != nil {
			month = *next.BreakEvenMonth
		}
		c.logger.Info("break-even computed",
			"horizon", next.Chart.Horizon,
			"break_even", next.BreakEvenMonth != nil,
			"break_even_month", month,
		)
	}

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	c.metrics.ObserveSubmission("break_even", string(next.Kind))
	return next.Clone(), nil
}

func (c *Comparison) request(ctx context.Context, req model.BreakEvenRequest) (resp *model.BreakEvenResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("break-even requester panicked", "panic", r)
			resp, err = nil, fmt.Errorf("break-even requester panicked: %v", r)
		}
	}()
	return c.requester.RequestBreakEven(ctx, req)
}

// Reset returns a finished comparison to Idle.
func (c *Comparison) Reset() ComparisonState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != Submitting {
		c.state = ComparisonState{Kind: Idle}
	}
	return c.state.Clone()
}

func comparisonResult(resp *model.BreakEvenResponse) ComparisonState {
	chart := series.BreakEven(resp.BuyMonthlySeries, resp.RentMonthlySeries)
	next := ComparisonState{Kind: Succeeded, Chart: &chart}

	if resp.MonthsToBreakEven != nil {
		month := *resp.MonthsToBreakEven
		next.BreakEvenMonth = &month
	}

	if next.BreakEvenMonth != nil {
		m := *next.BreakEvenMonth
		next.Message = fmt.Sprintf("Break-even occurs at month %d (Year %d).", m, series.Year(m))
		next.Description = "After this point, buying becomes more cost-effective than renting."
		return next
	}

	next.Message = msgNoBreakEven
	if resp.Message != nil && *resp.Message != "" {
		next.Description = *resp.Message
	}
	return next
}
