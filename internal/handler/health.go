package handler

import (
	"context"
	"net/http"
	"time"

	"car-cost-estimator/internal/model"
)

// StudyLister is the archive read used to check its store.
type StudyLister interface {
	List(ctx context.Context) ([]model.SavedStudy, error)
}

type HealthHandler struct {
	archive StudyLister
}

func NewHealthHandler(archive StudyLister) *HealthHandler {
	return &HealthHandler{archive: archive}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	archiveStatus := "available"
	if _, err := h.archive.List(ctx); err != nil {
		archiveStatus = "unavailable"
	}

	response := model.HealthResponse{
		Status:    "ok",
		Archive:   archiveStatus,
		Timestamp: time.Now(),
	}

	if archiveStatus == "unavailable" {
		response.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, response)
}
