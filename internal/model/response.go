package model

import "time"

// BrandsResponse representa a resposta de /api/brands
type BrandsResponse struct {
	Brands []string `json:"brands"`
}

// ModelsResponse representa a resposta de /api/models
type ModelsResponse struct {
	Brand  string   `json:"brand"`
	Models []string `json:"models"`
}

// HealthResponse representa a resposta do health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Archive   string    `json:"archive"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse representa uma resposta de erro.
// Details carries field-keyed messages for validation failures (422).
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details FieldErrors `json:"details,omitempty"`
}
