package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
)

// FamilyRepository defines data access for families.
type FamilyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Family, error)
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	ListByFamily(ctx context.Context, familyID string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	Touch(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	UpdateNotes(ctx context.Context, id, notes string, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// ListByAccountUpTo returns every entry of the account dated on or before upTo.
	// tx may be nil.
	ListByAccountUpTo(ctx context.Context, tx Transaction, accountID string, upTo time.Time) ([]*domain.Entry, error)
	// ListByFamilyUpTo returns entries of the family's visible accounts dated on or before upTo.
	ListByFamilyUpTo(ctx context.Context, familyID string, upTo time.Time) ([]*domain.Entry, error)
	ValuationExists(ctx context.Context, tx Transaction, accountID string, date time.Time, excludeID string) (bool, error)
	// LatestManualRate returns the manual rate of the account's newest entry
	// not already in currency `to`, whatever its date.
	LatestManualRate(ctx context.Context, accountID, to string) (decimal.Decimal, error)
	Freshness(ctx context.Context, familyID string) (Freshness, error)
}

// ExchangeRateRepository is the automatic rate source.
type ExchangeRateRepository interface {
	// Find returns the latest rate for the pair dated on or before date.
	Find(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
	Upsert(ctx context.Context, rate *domain.ExchangeRate) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	// MarkPublished flags ids as published and returns how many changed.
	MarkPublished(ctx context.Context, publishedAt time.Time, ids ...string) (int64, error)
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// SyncStatusMonitor reports accounts with a resync still pending.
type SyncStatusMonitor interface {
	Syncing(ctx context.Context, accountIDs []string) (map[string]bool, error)
}

// Freshness holds the timestamps aggregate cache keys are derived from.
type Freshness struct {
	ManualRatesUpdatedAt *time.Time
	DataUpdatedAt        *time.Time
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so it can be retried.
	Release(ctx context.Context, key string) error
}

// MetricsRecorder receives business metrics from use cases.
type MetricsRecorder interface {
	RecordReconciliation(mode, outcome string, duration time.Duration)
	RecordFXFallback(from, to string)
	RecordCacheLookup(view string, hit bool)
	RecordSync(outcome string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordReconciliation(string, string, time.Duration) {}
func (NoopMetrics) RecordFXFallback(string, string) {}
func (NoopMetrics) RecordCacheLookup(string, bool) {}
func (NoopMetrics) RecordSync(string) {}
