package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/adapter/http/handler"
	"github.com/iho/valuations/internal/adapter/http/middleware"
	"github.com/iho/valuations/internal/infrastructure/metrics"
	"github.com/iho/valuations/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ValuationHandler *handler.ValuationHandler
	EntryHandler     *handler.EntryHandler
	NetWorthHandler  *handler.NetWorthHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Writes replay on Idempotency-Key. Dry runs and reads change nothing, so
	// they skip the store.
	idempotent := func(h http.Handler) http.Handler { return h }
	if cfg.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).WithTTL(cfg.IdempotencyTTL).Wrap
	}

	r.Route("/api/v1/families/{familyID}", func(r chi.Router) {
		r.Route("/valuations", func(r chi.Router) {
			r.With(idempotent).Post("/", cfg.ValuationHandler.Create)
			r.Post("/confirm", cfg.ValuationHandler.Confirm)
			r.Get("/{id}", cfg.ValuationHandler.Get)
			r.With(idempotent).Patch("/{id}", cfg.ValuationHandler.Update)
			r.Post("/{id}/confirm", cfg.ValuationHandler.ConfirmUpdate)
		})

		r.Get("/accounts/{id}/entries", cfg.EntryHandler.ListByAccount)
		r.With(idempotent).Delete("/entries/{id}", cfg.EntryHandler.Delete)

		r.Get("/net_worth", cfg.NetWorthHandler.Series)
		r.Get("/net_worth/current", cfg.NetWorthHandler.Current)
		r.Get("/account_totals", cfg.NetWorthHandler.AccountTotals)
	})

	return r
}
