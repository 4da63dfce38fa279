package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Health   *HealthHandler
	Catalog  *CatalogHandler
	Estimate *EstimateHandler
	Studies  *StudiesHandler
	Metrics  http.Handler
}

// NewRouter builds the local API with the standard middleware stack.
func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors)

	// Routes
	r.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/brands", h.Catalog.Brands)
		r.Get("/models", h.Catalog.Models)

		r.Route("/estimate", func(r chi.Router) {
			r.Get("/", h.Estimate.State)
			r.Post("/", h.Estimate.Submit)
			r.Post("/reset", h.Estimate.Reset)
			r.Post("/edit", h.Estimate.Edit)
			r.Get("/value-chart", h.Estimate.ValueChart)
		})
		r.Post("/break-even", h.Estimate.BreakEven)

		r.Route("/studies", func(r chi.Router) {
			r.Get("/", h.Studies.List)
			r.Post("/", h.Studies.Save)
			r.Get("/export", h.Studies.Export)
			r.Post("/import", h.Studies.Import)
			r.Get("/{id}", h.Studies.Get)
			r.Delete("/{id}", h.Studies.Delete)
			r.Post("/{id}/load", h.Studies.Load)
		})
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
