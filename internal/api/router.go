package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/api/handler"
	apimw "github.com/petflix/notifier/internal/api/middleware"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.EventService,
	intake *queue.Intake,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	eh := handler.NewEventHandler(svc, logger)
	sh := handler.NewSubscriptionHandler(svc, logger)
	st := handler.NewStatsHandler(svc, intake)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/internal/v1", func(r chi.Router) {
		r.Post("/events", eh.Create)
		r.Get("/events", eh.List)
		r.Get("/events/{id}", eh.GetByID)

		r.Post("/subscriptions", sh.Create)
		r.Delete("/subscriptions/{id}", sh.Delete)

		r.Get("/stats", st.GetStats)
	})

	return r
}
