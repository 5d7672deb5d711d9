package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/valuations/internal/adapter/http/handler"
	apimiddleware "github.com/iho/valuations/internal/adapter/http/middleware"
	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/metrics"
	"github.com/iho/valuations/internal/usecase"
)

func serve(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Health(t *testing.T) {
	rec := serve(NewRouter(newRouterConfig()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_MetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegisterer(reg)
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	serve(router, http.MethodGet, "/api/v1/families/fam-1/net_worth/current", "")
	rec := serve(router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "valuations_http_requests_total")
	assert.Contains(t, rec.Body.String(), `/api/v1/families/{familyID}/net_worth/current`, "requests are labelled by route pattern")
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	first := serve(router, http.MethodGet, "/health", "", "X-Forwarded-For", "1.2.3.4")
	second := serve(router, http.MethodGet, "/health", "", "X-Forwarded-For", "1.2.3.4")
	other := serve(router, http.MethodGet, "/health", "", "X-Forwarded-For", "5.6.7.8")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, other.Code, "limits are per client")
}

func TestNewRouter_IdempotencyCoversWritesOnly(t *testing.T) {
	body := `{"account_id":"acc-1","amount":"100","date":"2024-03-15"}`
	key := apimiddleware.IdempotencyKeyHeader

	tests := []struct {
		name      string
		method    string
		path      string
		wantCheck bool
	}{
		{"create", http.MethodPost, "/api/v1/families/fam-1/valuations/", true},
		{"update", http.MethodPatch, "/api/v1/families/fam-1/valuations/ent-1", true},
		{"delete entry", http.MethodDelete, "/api/v1/families/fam-1/entries/ent-1", true},
		{"dry run create", http.MethodPost, "/api/v1/families/fam-1/valuations/confirm", false},
		{"dry run update", http.MethodPost, "/api/v1/families/fam-1/valuations/ent-1/confirm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubIdempotencyStore{}
			router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
				cfg.IdempotencyStore = store
			}))

			rec := serve(router, tt.method, tt.path, body, key, "key-123")

			assert.Less(t, rec.Code, 300, rec.Body.String())
			assert.Equal(t, tt.wantCheck, store.checkCalled)
		})
	}
}

func TestNewRouter_PassesFamilyIDToHandlers(t *testing.T) {
	svc := &stubNetWorthService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.NetWorthHandler = handler.NewNetWorthHandler(svc, svc)
	}))

	rec := serve(router, http.MethodGet, "/api/v1/families/fam-9/net_worth/current", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fam-9", svc.familyID)
}

func TestNewRouter_RegistersRoutes(t *testing.T) {
	router, ok := NewRouter(newRouterConfig()).(chi.Router)
	require.True(t, ok, "router should be a chi.Router")

	var seen []string
	require.NoError(t, chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen = append(seen, method+" "+route)
		return nil
	}))

	assert.Subset(t, seen, []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/families/{familyID}/valuations/",
		"POST /api/v1/families/{familyID}/valuations/confirm",
		"GET /api/v1/families/{familyID}/valuations/{id}",
		"PATCH /api/v1/families/{familyID}/valuations/{id}",
		"POST /api/v1/families/{familyID}/valuations/{id}/confirm",
		"GET /api/v1/families/{familyID}/accounts/{id}/entries",
		"DELETE /api/v1/families/{familyID}/entries/{id}",
		"GET /api/v1/families/{familyID}/net_worth",
		"GET /api/v1/families/{familyID}/net_worth/current",
		"GET /api/v1/families/{familyID}/account_totals",
	})
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	netWorth := &stubNetWorthService{}

	cfg := RouterConfig{
		HealthHandler:    handler.NewHealthHandler(nil, nil),
		ValuationHandler: handler.NewValuationHandler(stubValuationService{}),
		EntryHandler:     handler.NewEntryHandler(stubEntryService{}),
		NetWorthHandler:  handler.NewNetWorthHandler(netWorth, netWorth),
		Logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type stubValuationService struct{}

func (stubValuationService) Create(context.Context, string, usecase.CreateValuationInput) (*domain.ReconciliationResult, error) {
	return &domain.ReconciliationResult{Success: true}, nil
}

func (stubValuationService) ConfirmCreate(context.Context, string, usecase.CreateValuationInput) (*domain.ReconciliationResult, error) {
	return &domain.ReconciliationResult{Success: true, DryRun: true}, nil
}

func (stubValuationService) Get(_ context.Context, _, entryID string) (*domain.Entry, error) {
	return &domain.Entry{ID: entryID}, nil
}

func (stubValuationService) Update(context.Context, string, string, usecase.UpdateValuationInput) (*domain.ReconciliationResult, error) {
	return &domain.ReconciliationResult{Success: true}, nil
}

func (stubValuationService) ConfirmUpdate(context.Context, string, string, usecase.UpdateValuationInput) (*domain.ReconciliationResult, error) {
	return &domain.ReconciliationResult{Success: true, DryRun: true}, nil
}

type stubEntryService struct{}

func (stubEntryService) ListByAccount(context.Context, string, string, int, int) ([]*domain.Entry, error) {
	return []*domain.Entry{}, nil
}

func (stubEntryService) Delete(context.Context, string, string) error {
	return nil
}

type stubNetWorthService struct {
	familyID string
}

func (s *stubNetWorthService) NetWorthSeries(_ context.Context, familyID string, period domain.Period) (*domain.Series, error) {
	s.familyID = familyID
	return domain.NewSeries(period, "USD", nil, domain.FavorableUp), nil
}

func (s *stubNetWorthService) NetWorth(_ context.Context, familyID string) (domain.Money, error) {
	s.familyID = familyID
	return domain.Zero("USD"), nil
}

func (s *stubNetWorthService) AccountTotals(_ context.Context, familyID string) (*domain.AccountTotals, error) {
	s.familyID = familyID
	return domain.GroupAccountRows("USD", nil), nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(context.Context, string) error {
	return nil
}
