package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/model"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

// writeClientError maps a pricing service failure onto the local API.
func writeClientError(w http.ResponseWriter, err error) {
	var ce *client.Error
	if !errors.As(err, &ce) {
		writeError(w, http.StatusBadGateway, "pricing_error", "Pricing service request failed")
		return
	}

	switch ce.Kind {
	case client.KindInvalid:
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: ce.Message,
			Details: ce.Fields,
		})
	case client.KindUnavailable:
		writeError(w, http.StatusServiceUnavailable, "pricing_unavailable", "Price data is temporarily unavailable")
	default:
		writeError(w, http.StatusBadGateway, "pricing_error", ce.Error())
	}
}
