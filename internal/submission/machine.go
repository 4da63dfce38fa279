package submission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"car-cost-estimator/internal/metrics"
	"car-cost-estimator/internal/model"
)

// Estimator is the part of the pricing client the machine needs.
type Estimator interface {
	RequestEstimate(ctx context.Context, in model.EstimateInput) (*model.EstimateResult, error)
}

// Machine holds the submission state of one form.
type Machine struct {
	mu         sync.Mutex
	estimator  Estimator
	state      State
	manualMode bool
	lastInput  *model.EstimateInput

	observers []func(State)
	// pending holds entered states not yet delivered; dispatching is set
	// while one caller is delivering them.
	pending     []State
	dispatching bool

	metrics *metrics.Metrics
	logger  *slog.Logger
}

type MachineOption func(*Machine)

func WithMetrics(m *metrics.Metrics) MachineOption {
	return func(s *Machine) { s.metrics = m }
}

func WithLogger(l *slog.Logger) MachineOption {
	return func(s *Machine) { s.logger = l }
}

// NewMachine creates a machine in the Idle state.
func NewMachine(estimator Estimator, opts ...MachineOption) *Machine {
	m := &Machine{
		estimator: estimator,
		state:     State{Kind: Idle},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe registers fn to receive every state the machine enters, in order.
// Observers run outside the machine lock and may call any method, including
// Reset or Submit; states entered from an observer are delivered after the
// current one.
func (m *Machine) Observe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// ManualPriceAvailable reports whether the manual purchase price path is engaged.
func (m *Machine) ManualPriceAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manualMode
}

// LastInput returns the input of the last successful estimate.
func (m *Machine) LastInput() (model.EstimateInput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastInput == nil {
		return model.EstimateInput{}, false
	}
	return m.lastInput.Clone(), true
}

// Submit validates the input locally and, if it passes, requests an estimate.
// It blocks until the call resolves and returns the terminal state. While a
// call is pending any other Submit returns ErrInFlight and changes nothing.
func (m *Machine) Submit(ctx context.Context, in model.EstimateInput) (State, error) {
	m.mu.Lock()
	if m.state.Kind == Submitting {
		current := m.state.Clone()
		m.mu.Unlock()
		return current, ErrInFlight
	}

	payload := in.Clone()
	if !m.manualMode {
		payload.ManualPurchasePrice = nil
	}

	errs := payload.Validate()
	if m.manualMode {
		for field, msgs := range payload.ValidateManualPrice() {
			errs[field] = append(errs[field], msgs...)
		}
	}
	if !errs.Empty() {
		next := State{
			Kind:                 ValidationFailed,
			FieldErrors:          errs,
			Message:              msgValidation,
			ManualPriceAvailable: m.manualMode,
		}
		m.enter(next)
		return m.unlockAndNotify(next), nil
	}

	submitting := State{Kind: Submitting, ManualPriceAvailable: m.manualMode}
	m.enter(submitting)
	m.unlockAndNotify(submitting)

	m.logger.Info("submitting estimate",
		"brand", payload.Brand,
		"model", payload.Model,
		"years", payload.OwnershipYears,
		"manual_price", payload.ManualPurchasePrice != nil,
	)
	result, err := m.request(ctx, payload)

	m.mu.Lock()
	var next State
	if err != nil {
		next = classify(err)
		switch {
		case next.Kind == ServiceUnavailable:
			m.manualMode = true
		case next.Failure == model.FailureInsufficientData:
			m.manualMode = false
		}
		m.logger.Warn("estimate failed",
			"state", next.Kind,
			"failure", next.Failure,
			"error", err,
		)
	} else {
		next = State{Kind: Succeeded, Result: result}
		if result.Warning != nil {
			next.Warning = *result.Warning
		}
		m.lastInput = &payload
		m.logger.Info("estimate succeeded",
			"purchase_price", result.PurchasePrice,
			"total_monthly_cost", result.TotalMonthlyCost,
		)
	}
	next.ManualPriceAvailable = m.manualMode
	m.enter(next)
	m.metrics.ObserveSubmission("estimate", string(next.Kind))
	return m.unlockAndNotify(next), nil
}

// Edit returns a finished submission to Idle after the user changes the form.
// The manual price input stays available. It is a no-op while Submitting.
func (m *Machine) Edit() State {
	return m.toIdle(false)
}

// Reset returns to Idle and disengages the manual price path. No-op while Submitting.
func (m *Machine) Reset() State {
	return m.toIdle(true)
}

// Load is used when a saved study replaces the form contents.
func (m *Machine) Load() State {
	return m.toIdle(true)
}

func (m *Machine) toIdle(clearManual bool) State {
	m.mu.Lock()
	if m.state.Kind == Submitting {
		current := m.state.Clone()
		m.mu.Unlock()
		return current
	}
	if clearManual {
		m.manualMode = false
	}
	next := State{Kind: Idle, ManualPriceAvailable: m.manualMode}
	m.enter(next)
	return m.unlockAndNotify(next)
}

// enter must be called with mu held.
func (m *Machine) enter(s State) {
	m.state = s
	m.pending = append(m.pending, s)
}

// request calls the estimator, turning a panic into an error so the
// machine never stays in Submitting.
func (m *Machine) request(ctx context.Context, payload model.EstimateInput) (result *model.EstimateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("estimator panicked", "panic", r)
			result, err = nil, fmt.Errorf("estimator panicked: %v", r)
		}
	}()
	return m.estimator.RequestEstimate(ctx, payload)
}

// unlockAndNotify releases mu and delivers the queued states to the observers
// in the order they were entered. Only one caller delivers at a time; a caller
// arriving while another is delivering leaves its states to that one.
func (m *Machine) unlockAndNotify(s State) State {
	out := s.Clone()
	if m.dispatching {
		m.mu.Unlock()
		return out
	}
	m.dispatching = true

	for len(m.pending) > 0 {
		st := m.pending[0]
		m.pending = m.pending[1:]
		observers := append(([]func(State))(nil), m.observers...)
		m.mu.Unlock()

		for _, fn := range observers {
			fn(st.Clone())
		}

		m.mu.Lock()
	}
	m.pending = nil
	m.dispatching = false
	m.mu.Unlock()
	return out
}
