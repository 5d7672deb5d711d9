package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
)

// enqueueSync writes an account.sync_requested event inside tx so the signal
// is emitted exactly when the surrounding change commits.
func enqueueSync(
	ctx context.Context,
	tx Transaction,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	accountID string,
	windowStart *time.Time,
	reason string,
	now time.Time,
) error {
	ev := domain.NewSyncRequestedEvent(accountID, windowStart, reason)

	return outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeSyncRequested,
		Payload:       ev.Payload(),
		CreatedAt:     now,
		Published:     false,
	})
}

// SyncUseCase recomputes an account's cached balance from its ledger.
type SyncUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	resolver    *ExchangeRateResolver
	retrier     Retrier
	metrics     MetricsRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSyncUseCase creates a new SyncUseCase.
func NewSyncUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	resolver *ExchangeRateResolver,
	retrier Retrier,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *SyncUseCase {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &SyncUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		resolver:    resolver,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (uc *SyncUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// SyncAccount recomputes the account balance as of today in the account
// currency. windowStart is the earliest date that changed; nil means the
// whole history.
func (uc *SyncUseCase) SyncAccount(ctx context.Context, accountID string, windowStart *time.Time) error {
	err := uc.syncAccount(ctx, accountID, windowStart)
	if err != nil {
		uc.metrics.RecordSync(OutcomeError)
		return err
	}

	uc.metrics.RecordSync(OutcomeSuccess)
	return nil
}

func (uc *SyncUseCase) syncAccount(ctx context.Context, accountID string, windowStart *time.Time) error {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	today := domain.Day(uc.now())

	var synced decimal.Decimal
	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		// Entries are read under the row lock so overlapping syncs commit in
		// lock order and the last one sees every earlier write.
		if _, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID); err != nil {
			return err
		}

		entries, err := uc.entryRepo.ListByAccountUpTo(txCtx, tx, accountID, today)
		if err != nil {
			return err
		}

		memo := rateMemo{}
		balance, err := domain.BalanceOn(entries, today, func(e *domain.Entry) (decimal.Decimal, error) {
			return uc.resolver.convertEntry(txCtx, e, account.Currency, memo)
		})
		if err != nil {
			return err
		}
		balance = domain.NewMoney(balance, account.Currency).Round().Amount

		if err := uc.accountRepo.UpdateBalance(txCtx, tx, accountID, balance, uc.now()); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}
		synced = balance
		return nil
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		return err
	}

	window := "all"
	if windowStart != nil {
		window = windowStart.Format(domain.DateLayout)
	}
	uc.logger.Info().
		Str("account_id", accountID).
		Str("window_start", window).
		Str("balance", synced.String()).
		Msg("account synced")

	return nil
}
