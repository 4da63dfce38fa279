package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"car-cost-estimator/internal/metrics"
	"car-cost-estimator/internal/model"
)

const (
	endpointBrands    = "brands"
	endpointModels    = "models"
	endpointEstimate  = "estimate"
	endpointBreakEven = "break_even"

	maxErrorBody = 1 << 20

	defaultLookupTimeout = 2 * time.Minute
)

// PricingClient handles communication with the remote pricing service
type PricingClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	lookupRetry RetryPolicy
	// lookupTimeout bounds a shared lookup, which outlives the caller that started it.
	lookupTimeout time.Duration
	group         singleflight.Group
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type Option func(*PricingClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *PricingClient) { c.httpClient = hc }
}

// WithLookupRetry replaces the retry policy of brand and model lookups.
func WithLookupRetry(p RetryPolicy) Option {
	return func(c *PricingClient) { c.lookupRetry = p }
}

// WithLookupTimeout bounds how long a shared brand or model lookup may run.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *PricingClient) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// WithRateLimit throttles lookups to the given rate; a rate <= 0 disables throttling.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *PricingClient) {
		if requestsPerSecond > 0 {
			c.rateLimiter = NewRateLimiter(requestsPerSecond)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *PricingClient) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *PricingClient) { c.logger = l }
}

// NewPricingClient creates a new pricing service client
func NewPricingClient(baseURL string, opts ...Option) *PricingClient {
	c := &PricingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		lookupRetry:   DefaultLookupPolicy(),
		lookupTimeout: defaultLookupTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBrands lists the brands known to the service. Retried per the lookup policy.
func (c *PricingClient) FetchBrands(ctx context.Context) ([]string, error) {
	v, err := c.shared(ctx, endpointBrands, func(ctx context.Context) (interface{}, error) {
		var resp model.BrandsResponse
		err := c.lookup(ctx, endpointBrands, "/api/brands", nil, &resp)
		return resp.Brands, err
	})
	if err != nil {
		return nil, err
	}
	return cloneStrings(v.([]string)), nil
}

// FetchModels lists the models of a brand. Retried per the lookup policy.
func (c *PricingClient) FetchModels(ctx context.Context, brand string) ([]string, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, &Error{
			Kind:    KindInvalid,
			Message: "brand parameter is required",
			Fields:  model.FieldErrors{"brand": {"Brand is required"}},
		}
	}

	v, err := c.shared(ctx, endpointModels+":"+brand, func(ctx context.Context) (interface{}, error) {
		var resp model.ModelsResponse
		err := c.lookup(ctx, endpointModels, "/api/models", url.Values{"brand": {brand}}, &resp)
		return resp.Models, err
	})
	if err != nil {
		return nil, err
	}
	return cloneStrings(v.([]string)), nil
}

// RequestEstimate asks for the cost projection. Never retried: a failure is
// returned at once so the caller can decide what the user sees.
func (c *PricingClient) RequestEstimate(ctx context.Context, in model.EstimateInput) (*model.EstimateResult, error) {
	var resp model.EstimateResult
	if err := c.do(ctx, endpointEstimate, http.MethodPost, "/api/estimate", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestBreakEven asks for the buy and rent monthly series. Never retried.
func (c *PricingClient) RequestBreakEven(ctx context.Context, req model.BreakEvenRequest) (*model.BreakEvenResponse, error) {
	var resp model.BreakEvenResponse
	if err := c.do(ctx, endpointBreakEven, http.MethodPost, "/api/break_even", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close stops the lookup rate limiter, if any.
func (c *PricingClient) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

// shared runs fn once for all concurrent callers of key. The work is detached
// from any single caller's cancellation; each caller stops waiting when its
// own ctx is done.
func (c *PricingClient) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()
		return fn(flightCtx)
	})
	select {
	case <-ctx.Done():
		return nil, &Error{Kind: KindNetwork, Message: "lookup abandoned", Err: ctx.Err()}
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *PricingClient) lookup(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	return c.lookupRetry.Do(ctx, func(ctx context.Context) error {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return &Error{Kind: KindNetwork, Message: "rate limit wait failed", Err: err}
			}
		}
		return c.do(ctx, endpoint, http.MethodGet, path, query, nil, out)
	}, func(attempt int, err error) {
		c.metrics.IncRetry(endpoint)
		c.logger.Warn("pricing lookup failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"error", err,
		)
	})
}

// do performs one HTTP exchange and maps the outcome onto the error taxonomy.
func (c *PricingClient) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out interface{}) error {
	start := time.Now()
	err := c.exchange(ctx, method, path, query, body, out)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		c.logger.Warn("pricing request failed",
			"endpoint", endpoint,
			"kind", outcome,
			"duration", time.Since(start),
			"error", err,
		)
	} else {
		c.logger.Debug("pricing request completed",
			"endpoint", endpoint,
			"duration", time.Since(start),
		)
	}
	c.metrics.ObservePricing(endpoint, outcome, time.Since(start))
	return err
}

func (c *PricingClient) exchange(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{
				Kind:    KindServerError,
				Status:  resp.StatusCode,
				Message: "malformed response from pricing service",
				Err:     err,
			}
		}
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}
	return decodeError(resp.StatusCode, raw)
}

// errorBody accepts both {"error","details"} and the {"detail"} shape of the service.
type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details map[string][]string `json:"details"`
	Detail  json.RawMessage     `json:"detail"`
}

// validationItem is one entry of a list-shaped "detail" (request model validation).
type validationItem struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

func decodeError(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	detail, items := parseDetail(body.Detail)
	if detail == "" && body.Error == "" && len(body.Details) == 0 && len(items) == 0 {
		// not JSON, keep the raw text for pattern matching
		detail = strings.TrimSpace(string(raw))
	}

	e := &Error{
		Status:  status,
		Message: firstNonEmpty(body.Error, body.Message),
		Detail:  detail,
		Code:    body.Code,
	}

	switch {
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindInvalid
		e.Fields = model.FieldErrors{}
		for field, msgs := range body.Details {
			e.Fields[field] = append([]string(nil), msgs...)
		}
		for _, it := range items {
			e.Fields.Add(fieldName(it.Loc), it.Msg)
		}
		if e.Message == "" {
			e.Message = "validation failed"
		}
	case status == http.StatusServiceUnavailable:
		e.Kind = KindUnavailable
		if e.Message == "" {
			e.Message = "service temporarily unavailable"
		}
	case status >= 400 && status < 500:
		e.Kind = KindClientError
		if e.Message == "" {
			e.Message = firstNonEmpty(detail, http.StatusText(status))
		}
	default:
		e.Kind = KindServerError
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	}
	return e
}

func parseDetail(raw json.RawMessage) (string, []validationItem) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var items []validationItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return "", items
	}
	return string(raw), nil
}

// fieldName takes the last string element of a location path like ["body","brand"].
func fieldName(loc []interface{}) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if s, ok := loc[i].(string); ok && s != "body" {
			return s
		}
	}
	return "__all__"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
