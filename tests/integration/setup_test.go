package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	adaptershttp "github.com/iho/valuations/internal/adapter/http"
	"github.com/iho/valuations/internal/adapter/http/handler"
	"github.com/iho/valuations/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/valuations/internal/adapter/repository/redis"
	infraredis "github.com/iho/valuations/internal/infrastructure/redis"
	"github.com/iho/valuations/internal/usecase"
	"github.com/iho/valuations/tests/testutil"
)

// stack is the application wired against real Postgres and Redis.
type stack struct {
	db             *testutil.TestDB
	redis          *goredis.Client
	accountRepo    *postgres.AccountRepository
	entryRepo      *postgres.EntryRepository
	outboxRepo     *postgres.OutboxRepository
	reconciliation *usecase.ReconciliationUseCase
	netWorth       *usecase.NetWorthUseCase
	totals         *usecase.AccountTotalsUseCase
	sync           *usecase.SyncUseCase
	router         http.Handler
}

func newStack(t *testing.T) *stack {
	t.Helper()

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)
	testDB.TruncateAll(ctx)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })
	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	logger := zerolog.Nop()
	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	familyRepo := postgres.NewFamilyRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	rateRepo := postgres.NewExchangeRateRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	retrier := postgres.NewRetrier(logger)
	idGen := postgres.NewULIDGenerator()
	cache := redisrepo.NewCache(redisClient)

	resolver := usecase.NewExchangeRateResolver(entryRepo, rateRepo, nil, logger)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, accountRepo, entryRepo, outboxRepo, resolver, idGen, retrier, nil, logger)
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, retrier, logger)
	valuationUC := usecase.NewValuationUseCase(accountRepo, entryRepo, reconciliationUC, entryUC)
	netWorthUC := usecase.NewNetWorthUseCase(familyRepo, accountRepo, entryRepo, resolver, cache, nil, usecase.AggregateConfig{})
	totalsUC := usecase.NewAccountTotalsUseCase(familyRepo, accountRepo, entryRepo, resolver, outboxRepo, cache, nil, usecase.AggregateConfig{}, logger)
	syncUC := usecase.NewSyncUseCase(txManager, accountRepo, entryRepo, resolver, retrier, nil, logger)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		ValuationHandler: handler.NewValuationHandler(valuationUC),
		EntryHandler:     handler.NewEntryHandler(entryUC),
		NetWorthHandler:  handler.NewNetWorthHandler(netWorthUC, totalsUC),
		HealthHandler:    handler.NewHealthHandler(pool, nil),
		IdempotencyStore: redisrepo.NewIdempotencyStore(redisClient),
		Logger:           logger,
	})

	return &stack{
		db:             testDB,
		redis:          redisClient,
		accountRepo:    accountRepo,
		entryRepo:      entryRepo,
		outboxRepo:     outboxRepo,
		reconciliation: reconciliationUC,
		netWorth:       netWorthUC,
		totals:         totalsUC,
		sync:           syncUC,
		router:         router,
	}
}

func (s *stack) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}
