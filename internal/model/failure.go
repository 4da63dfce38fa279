package model

import "strings"

// FailureKind refines a server error into something the user can act on.
type FailureKind string

const (
	FailureInsufficientData FailureKind = "insufficient_data"
	FailureGeneric          FailureKind = "generic"
)

// insufficientDataPatterns are matched against the free-text detail of a 500.
// The service raises "not enough historical values to compute requested depreciation window".
var insufficientDataPatterns = []string{
	"not enough historical values",
	"not enough historical data",
}

// ClassifyFailure categorizes a server error. A structured code wins over the
// detail text; the text match only exists because the service has no code yet.
func ClassifyFailure(code, detail string) FailureKind {
	if strings.EqualFold(strings.TrimSpace(code), string(FailureInsufficientData)) {
		return FailureInsufficientData
	}
	if contains(detail, insufficientDataPatterns...) {
		return FailureInsufficientData
	}
	return FailureGeneric
}

// contains checks if s contains any of the substrings (case-insensitive)
func contains(s string, substrs ...string) bool {
	sLower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(sLower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
