package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultCacheTTL bounds how long an aggregate stays in the cache store.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultCacheStaleness is the width of the time bucket in aggregate cache keys.
	DefaultCacheStaleness = 5 * time.Minute
)

// Reconciliation modes and outcomes reported to metrics.
const (
	ModeCreate = "create"
	ModeUpdate = "update"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)
