package client

import (
	"errors"
	"fmt"

	"car-cost-estimator/internal/model"
)

// Kind classifies a failed pricing service call.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindInvalid     Kind = "invalid"
	KindServerError Kind = "server_error"
	KindClientError Kind = "client_error"
	KindNetwork     Kind = "network"
)

// Error is returned by every PricingClient call that does not succeed.
type Error struct {
	Kind   Kind
	Status int
	// Message is the short text from the service ("error" field) or a local description.
	Message string
	// Detail is the free-text "detail" of a server error.
	Detail string
	// Code is a structured error code, when the service sends one.
	Code   string
	Fields model.FieldErrors
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	if e.Status > 0 {
		return fmt.Sprintf("pricing service %s (status %d): %s", e.Kind, e.Status, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("pricing service %s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("pricing service %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a client error, or "" when err is not one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err is a client error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
