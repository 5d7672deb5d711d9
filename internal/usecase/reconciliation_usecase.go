package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
)

// User-facing reconciliation failure messages.
const (
	msgInvalidBalance       = "Balance must be a valid number"
	msgBalanceTooLarge      = "Balance is too large"
	msgInvalidDate          = "Date is invalid"
	msgDateTooOld           = "Date cannot be more than 10 years ago"
	msgUnsupportedCurrency  = "Currency is not supported"
	msgInvalidExchangeRate  = "Exchange rate must be a positive number"
	msgExchangeRateTooLarge = "Exchange rate is too large"
	msgExchangeRateRequired = "Exchange rate is required when the currency differs from the account currency"
	msgDuplicateValuation   = "Only one valuation is allowed per account per day"
)

// ReconciliationParams is raw user input for a reconciliation. Parsing
// happens here so malformed values come back as failure results.
type ReconciliationParams struct {
	Balance      string
	Date         string
	Currency     string
	ExchangeRate string
	DryRun       bool
}

// ReconciliationUseCase creates and updates valuation entries so an account's
// balance on a date matches what the user reports.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	resolver    *ExchangeRateResolver
	idGen       IDGenerator
	retrier     Retrier
	metrics     MetricsRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	resolver *ExchangeRateResolver,
	idGen IDGenerator,
	retrier Retrier,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &ReconciliationUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		resolver:    resolver,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (uc *ReconciliationUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

type reconciliationInput struct {
	balance  decimal.Decimal
	date     time.Time
	currency string
	rate     *decimal.Decimal
}

// CreateReconciliation records a new valuation for the account.
func (uc *ReconciliationUseCase) CreateReconciliation(ctx context.Context, accountID string, params ReconciliationParams) (*domain.ReconciliationResult, error) {
	start := time.Now()

	result, err := uc.create(ctx, accountID, params)
	uc.metrics.RecordReconciliation(ModeCreate, outcome(result, err), time.Since(start))

	return result, err
}

func (uc *ReconciliationUseCase) create(ctx context.Context, accountID string, params ReconciliationParams) (*domain.ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	in, verr := uc.parse(account, nil, params)
	if verr != nil {
		return domain.Failed(verr, params.DryRun), nil
	}

	entry := domain.NewValuationEntry("", account.ID, in.date, in.balance, in.currency)
	entry.SetExchangeRate(in.rate)

	verr, err = uc.check(account, entry)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		return domain.Failed(verr, params.DryRun), nil
	}
	entry.ID = uc.idGen.Generate()

	if params.DryRun {
		return uc.preview(ctx, account, entry, nil)
	}

	err = uc.retry(ctx, func() error {
		return uc.persistCreate(ctx, entry)
	})
	if verr, ok := domain.AsValidationError(err); ok {
		return domain.Failed(verr, false), nil
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("entry_id", entry.ID).
		Str("date", entry.Date.Format(domain.DateLayout)).
		Msg("reconciliation created")

	return &domain.ReconciliationResult{
		Success:    true,
		Entry:      entry,
		OldBalance: account.BalanceMoney(),
		NewBalance: entry.AmountMoney(),
	}, nil
}

// UpdateReconciliation changes the date, amount or currency of an existing
// valuation. A manual exchange rate already on the entry is never replaced.
func (uc *ReconciliationUseCase) UpdateReconciliation(ctx context.Context, entryID string, params ReconciliationParams) (*domain.ReconciliationResult, error) {
	start := time.Now()

	result, err := uc.update(ctx, entryID, params)
	uc.metrics.RecordReconciliation(ModeUpdate, outcome(result, err), time.Since(start))

	return result, err
}

func (uc *ReconciliationUseCase) update(ctx context.Context, entryID string, params ReconciliationParams) (*domain.ReconciliationResult, error) {
	existing, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !existing.IsValuation() {
		return nil, domain.ErrNotValuation
	}

	account, err := uc.accountRepo.GetByID(ctx, existing.AccountID)
	if err != nil {
		return nil, err
	}

	in, verr := uc.parse(account, existing, params)
	if verr != nil {
		return domain.Failed(verr, params.DryRun), nil
	}

	updated := *existing
	updated.Date = in.date
	updated.Amount = in.balance
	updated.Currency = in.currency
	updated.SetExchangeRate(in.rate)

	verr, err = uc.check(account, &updated)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		return domain.Failed(verr, params.DryRun), nil
	}

	if params.DryRun {
		return uc.preview(ctx, account, &updated, existing)
	}

	if sameValuation(existing, &updated) {
		return &domain.ReconciliationResult{
			Success:    true,
			Entry:      existing,
			OldBalance: account.BalanceMoney(),
			NewBalance: existing.AmountMoney(),
		}, nil
	}

	err = uc.retry(ctx, func() error {
		return uc.persistUpdate(ctx, &updated)
	})
	if verr, ok := domain.AsValidationError(err); ok {
		return domain.Failed(verr, false), nil
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("entry_id", updated.ID).
		Str("date", updated.Date.Format(domain.DateLayout)).
		Msg("reconciliation updated")

	return &domain.ReconciliationResult{
		Success:    true,
		Entry:      &updated,
		OldBalance: account.BalanceMoney(),
		NewBalance: updated.AmountMoney(),
	}, nil
}

func (uc *ReconciliationUseCase) parse(account *domain.Account, existing *domain.Entry, p ReconciliationParams) (reconciliationInput, *domain.ValidationError) {
	var in reconciliationInput
	today := domain.Day(uc.now())

	raw, err := domain.ParseAmount(p.Balance)
	if err != nil {
		return in, domain.NewValidationError(err, msgInvalidBalance)
	}
	balance, err := domain.NormalizeAmount(raw)
	if err != nil {
		return in, domain.NewValidationError(err, msgBalanceTooLarge)
	}
	in.balance = balance

	switch {
	case strings.TrimSpace(p.Date) != "":
		date, err := domain.ParseDate(p.Date)
		if err != nil {
			return in, domain.NewValidationError(domain.ErrInvalidDate, msgInvalidDate)
		}
		in.date = date
	case existing != nil:
		in.date = existing.Date
	default:
		in.date = today
	}

	switch {
	case strings.TrimSpace(p.Currency) != "":
		in.currency = domain.NormalizeCurrency(p.Currency)
	case existing != nil:
		in.currency = existing.Currency
	default:
		in.currency = account.Currency
	}

	// A rate already stored on the entry is authoritative.
	if existing != nil && existing.ExchangeRate != nil {
		in.rate = existing.ExchangeRate
	} else if strings.TrimSpace(p.ExchangeRate) != "" {
		raw, err := domain.ParseAmount(p.ExchangeRate)
		if err != nil {
			return in, domain.NewValidationError(domain.ErrInvalidExchangeRate, msgInvalidExchangeRate)
		}
		rate, err := domain.NormalizeExchangeRate(raw)
		if errors.Is(err, domain.ErrExchangeRateOutOfRange) {
			return in, domain.NewValidationError(err, msgExchangeRateTooLarge)
		}
		if err != nil {
			return in, domain.NewValidationError(err, msgInvalidExchangeRate)
		}
		in.rate = &rate
	}

	return in, nil
}

// check applies the entry invariants to a built valuation. Broken invariants
// come back as a ValidationError; a malformed payload is a hard error.
func (uc *ReconciliationUseCase) check(account *domain.Account, entry *domain.Entry) (*domain.ValidationError, error) {
	err := entry.Validate(domain.Day(uc.now()))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEntryDateTooOld):
		return domain.NewValidationError(err, msgDateTooOld), nil
	case errors.Is(err, domain.ErrInvalidCurrency):
		return domain.NewValidationError(err, msgUnsupportedCurrency), nil
	case errors.Is(err, domain.ErrAmountOutOfRange):
		return domain.NewValidationError(err, msgBalanceTooLarge), nil
	case errors.Is(err, domain.ErrExchangeRateOutOfRange):
		return domain.NewValidationError(err, msgExchangeRateTooLarge), nil
	case errors.Is(err, domain.ErrInvalidExchangeRate):
		return domain.NewValidationError(err, msgInvalidExchangeRate), nil
	default:
		return nil, err
	}

	if entry.NeedsManualExchangeRate(account.Currency) && !entry.HasManualExchangeRate() {
		return domain.NewValidationError(domain.ErrInvalidExchangeRate, msgExchangeRateRequired), nil
	}

	return nil, nil
}

func (uc *ReconciliationUseCase) persistCreate(ctx context.Context, entry *domain.Entry) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Serialises reconciliations on the account
	if _, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, entry.AccountID); err != nil {
		return err
	}

	exists, err := uc.entryRepo.ValuationExists(txCtx, tx, entry.AccountID, entry.Date, "")
	if err != nil {
		return err
	}
	if exists {
		return duplicateValuation(domain.ErrDuplicateValuationDate)
	}

	now := uc.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateValuationDate) {
			return duplicateValuation(err)
		}
		return err
	}

	window := entry.Date
	if err := enqueueSync(txCtx, tx, uc.outboxRepo, uc.idGen, entry.AccountID, &window, domain.SyncReasonReconciliationCreated, now); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *ReconciliationUseCase) persistUpdate(ctx context.Context, updated *domain.Entry) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if _, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, updated.AccountID); err != nil {
		return err
	}

	current, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, updated.ID)
	if err != nil {
		return err
	}
	if current.AccountID != updated.AccountID {
		return domain.ErrEntryAccountMismatch
	}
	if current.ExchangeRate != nil {
		rate := *current.ExchangeRate
		updated.ExchangeRate = &rate
	}

	if !current.Date.Equal(updated.Date) {
		exists, err := uc.entryRepo.ValuationExists(txCtx, tx, updated.AccountID, updated.Date, updated.ID)
		if err != nil {
			return err
		}
		if exists {
			return duplicateValuation(domain.ErrDuplicateValuationDate)
		}
	}

	now := uc.now()
	updated.UpdatedAt = now

	if err := uc.entryRepo.Update(txCtx, tx, updated); err != nil {
		if errors.Is(err, domain.ErrDuplicateValuationDate) {
			return duplicateValuation(err)
		}
		return err
	}

	// Resync from whichever of the two dates comes first
	window := current.Date
	if updated.Date.Before(window) {
		window = updated.Date
	}
	if err := enqueueSync(txCtx, tx, uc.outboxRepo, uc.idGen, updated.AccountID, &window, domain.SyncReasonReconciliationUpdated, now); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// preview validates like a real write and reports the balance before and
// after without persisting anything.
func (uc *ReconciliationUseCase) preview(ctx context.Context, account *domain.Account, entry, existing *domain.Entry) (*domain.ReconciliationResult, error) {
	if existing == nil || !existing.Date.Equal(entry.Date) {
		exists, err := uc.entryRepo.ValuationExists(ctx, nil, account.ID, entry.Date, entry.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return domain.Failed(duplicateValuation(domain.ErrDuplicateValuationDate), true), nil
		}
	}

	entries, err := uc.entryRepo.ListByAccountUpTo(ctx, nil, account.ID, entry.Date)
	if err != nil {
		return nil, err
	}

	memo := rateMemo{}
	old, err := domain.BalanceOn(entries, entry.Date, func(e *domain.Entry) (decimal.Decimal, error) {
		return uc.resolver.convertEntry(ctx, e, account.Currency, memo)
	})
	if err != nil {
		return nil, err
	}

	return &domain.ReconciliationResult{
		Success:    true,
		Entry:      entry,
		OldBalance: domain.NewMoney(old, account.Currency).Round(),
		NewBalance: entry.AmountMoney(),
		DryRun:     true,
	}, nil
}

func (uc *ReconciliationUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func sameValuation(a, b *domain.Entry) bool {
	if !a.Date.Equal(b.Date) || !a.Amount.Equal(b.Amount) || a.Currency != b.Currency {
		return false
	}
	if a.ExchangeRate == nil || b.ExchangeRate == nil {
		return a.ExchangeRate == nil && b.ExchangeRate == nil
	}
	return a.ExchangeRate.Equal(*b.ExchangeRate)
}

func duplicateValuation(err error) *domain.ValidationError {
	return domain.NewValidationError(err, msgDuplicateValuation)
}

func outcome(result *domain.ReconciliationResult, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case !result.Success:
		return OutcomeFailure
	default:
		return OutcomeSuccess
	}
}
