package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the gateway's HTTP surface.
func NewRouter(messages *MessageHandler, dlrs *DLRHandler, health *HealthHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(chi_middleware.Timeout(60 * time.Second))

	health.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		messages.RegisterRoutes(api)
		dlrs.RegisterRoutes(api)
	})
	return r
}
