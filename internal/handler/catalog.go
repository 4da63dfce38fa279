package handler

import (
	"context"
	"net/http"
	"strings"

	"car-cost-estimator/internal/matching"
	"car-cost-estimator/internal/model"
)

// Catalog is the lookup side of the pricing client.
type Catalog interface {
	FetchBrands(ctx context.Context) ([]string, error)
	FetchModels(ctx context.Context, brand string) ([]string, error)
}

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Brands lists the brands, filtered by the optional q search text.
func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.FetchBrands(r.Context())
	if err != nil {
		writeClientError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BrandsResponse{
		Brands: matching.Filter(brands, r.URL.Query().Get("q")),
	})
}

func (h *CatalogHandler) Models(w http.ResponseWriter, r *http.Request) {
	brand := strings.TrimSpace(r.URL.Query().Get("brand"))
	if brand == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "brand parameter is required")
		return
	}

	models, err := h.catalog.FetchModels(r.Context(), brand)
	if err != nil {
		writeClientError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ModelsResponse{
		Brand:  brand,
		Models: matching.Filter(models, r.URL.Query().Get("q")),
	})
}
