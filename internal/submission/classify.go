package submission

import (
	"errors"

	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/model"
)

const (
	msgValidation        = "Please check the highlighted fields and try again."
	msgUnavailable       = "Service Temporarily Unavailable"
	descUnavailable      = "Price data is currently unavailable. You can enter a manual purchase price below."
	descUnavailableNoFix = "Price data is temporarily unavailable. Try again later."
	msgInsufficient      = "Insufficient historical data for selected window"
	descInsufficient     = "The server reports there are not enough historical price values to compute the requested depreciation window. " +
		"Try reducing the \"Number of years\" or moving the registration / purchase year closer to the present."
	msgServerError  = "Server Error"
	descServerError = "An unexpected error occurred while computing the estimate."
	msgClientError  = "Request Error"
	msgRequestFail  = "Request Failed"
	descRequestFail = "An unexpected error occurred."
)

// classify maps a failed call onto the terminal state shown to the user.
// It is the single place where server errors are interpreted.
func classify(err error) State {
	var ce *client.Error
	if !errors.As(err, &ce) {
		return State{Kind: Failed, Failure: model.FailureGeneric, Message: msgRequestFail, Description: descRequestFail}
	}

	switch ce.Kind {
	case client.KindInvalid:
		fields := ce.Fields.Clone()
		if fields == nil {
			fields = model.FieldErrors{}
		}
		return State{Kind: ValidationFailed, FieldErrors: fields, Message: msgValidation}

	case client.KindUnavailable:
		return State{Kind: ServiceUnavailable, Message: msgUnavailable, Description: descUnavailable}

	case client.KindServerError:
		if model.ClassifyFailure(ce.Code, ce.Detail) == model.FailureInsufficientData {
			return State{
				Kind:        Failed,
				Failure:     model.FailureInsufficientData,
				Message:     msgInsufficient,
				Description: descInsufficient,
			}
		}
		desc := ce.Detail
		if desc == "" {
			desc = descServerError
		}
		return State{Kind: Failed, Failure: model.FailureGeneric, Message: msgServerError, Description: desc}

	case client.KindClientError:
		return State{Kind: Failed, Failure: model.FailureGeneric, Message: msgClientError, Description: ce.Message}
	}

	return State{Kind: Failed, Failure: model.FailureGeneric, Message: msgRequestFail, Description: descRequestFail}
}
