package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Meridian-SCM/Segment/internal/evaluator"
	"github.com/Meridian-SCM/Segment/internal/events"
	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/segment"
	"github.com/Meridian-SCM/Segment/internal/store"
)

func NewRouter(s store.Store, ev events.Client, reg *registry.Registry, e *evaluator.Evaluator,
	targets segment.Targets, adminToken string, logger *slog.Logger) http.Handler {

	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	suppliers := NewSuppliersHandler(s)
	evaluations := NewEvaluationsHandler(s, e)
	explain := NewExplainHandler(s, reg)
	reports := NewReportsHandler(s, targets)
	profiles := NewProfilesHandler(reg, ev)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Post("/suppliers", suppliers.Upsert)
		r.Get("/suppliers", suppliers.List)
		r.Get("/suppliers/{bu}/{id}", suppliers.Get)

		r.Post("/evaluations", evaluations.Create)
		r.Get("/evaluations", evaluations.List)
		r.Get("/evaluations/{id}", evaluations.Get)

		r.Get("/scores", evaluations.Scores)
		r.Get("/scores/top", evaluations.Top)
		r.Get("/scoring/explain/{bu}/{id}", explain.Explain)

		r.Get("/reports/distribution", reports.Distribution)
		r.Get("/reports/concentration", reports.Concentration)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/profiles", profiles.List)
			r.Get("/profiles/{bu}", profiles.Get)
			r.Put("/profiles/{bu}", profiles.Put)
			r.Post("/profiles/validate", profiles.Validate)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
