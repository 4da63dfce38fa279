package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"car-cost-estimator/internal/archive"
	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/submission"
)

// Studies is the study archive as seen by the HTTP layer.
type Studies interface {
	List(ctx context.Context) ([]model.SavedStudy, error)
	Get(ctx context.Context, id string) (model.SavedStudy, error)
	Save(ctx context.Context, name string, snapshot model.EstimateInput) (model.SavedStudy, error)
	Delete(ctx context.Context, id string) error
	ExportAll(ctx context.Context) ([]byte, error)
	ImportAll(ctx context.Context, document []byte) (int, error)
}

type StudiesHandler struct {
	studies Studies
	machine *submission.Machine
	now     func() time.Time
}

func NewStudiesHandler(studies Studies, machine *submission.Machine) *StudiesHandler {
	return &StudiesHandler{studies: studies, machine: machine, now: time.Now}
}

// LoadedStudyResponse is returned when a study replaces the form contents.
type LoadedStudyResponse struct {
	Study model.SavedStudy `json:"study"`
	State submission.State `json:"state"`
}

// ExportFileName is the download name of an export made on day.
func ExportFileName(day time.Time) string {
	return fmt.Sprintf("car-studies-%s.json", day.Format("2006-01-02"))
}

func (h *StudiesHandler) List(w http.ResponseWriter, r *http.Request) {
	studies, err := h.studies.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive_error", "Failed to load studies")
		return
	}
	writeJSON(w, http.StatusOK, model.StudiesResponse{Studies: studies})
}

func (h *StudiesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveStudyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	study, err := h.studies.Save(r.Context(), req.Name, req.Data)
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, study)
}

func (h *StudiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	study, err := h.studies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, study)
}

func (h *StudiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.studies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeArchiveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Load puts a saved study back into the form: the machine returns to Idle
// and the snapshot is handed to the caller to fill the inputs.
func (h *StudiesHandler) Load(w http.ResponseWriter, r *http.Request) {
	study, err := h.studies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoadedStudyResponse{
		Study: study,
		State: h.machine.Load(),
	})
}

func (h *StudiesHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.studies.ExportAll(r.Context())
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFileName(h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *StudiesHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "Import file is too large")
		return
	}

	n, err := h.studies.ImportAll(r.Context(), data)
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ImportResponse{Imported: n})
}

func (h *StudiesHandler) writeArchiveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, archive.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_name",
			Message: "Please enter a study name",
			Details: model.FieldErrors{"name": {"Name must be between 1 and 50 characters"}},
		})
	case errors.Is(err, archive.ErrMalformedArchive):
		writeError(w, http.StatusBadRequest, "malformed_archive", "Invalid file format")
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Study not found")
	default:
		writeError(w, http.StatusInternalServerError, "archive_error", "Failed to update studies")
	}
}
