package usecase

import (
	"context"

	"github.com/iho/valuations/internal/domain"
)

// ValuationUseCase is the family-scoped entry point for valuation screens.
type ValuationUseCase struct {
	accountRepo    AccountRepository
	entryRepo      EntryRepository
	reconciliation *ReconciliationUseCase
	entries        *EntryUseCase
}

// NewValuationUseCase creates a new ValuationUseCase.
func NewValuationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	reconciliation *ReconciliationUseCase,
	entries *EntryUseCase,
) *ValuationUseCase {
	return &ValuationUseCase{
		accountRepo:    accountRepo,
		entryRepo:      entryRepo,
		reconciliation: reconciliation,
		entries:        entries,
	}
}

// CreateValuationInput represents input for recording a valuation.
type CreateValuationInput struct {
	AccountID    string
	Amount       string
	Date         string
	Currency     string
	ExchangeRate string
}

// UpdateValuationInput represents a partial update. Nil fields are absent.
type UpdateValuationInput struct {
	Amount       *string
	Date         *string
	Currency     *string
	ExchangeRate *string
	Notes        *string
}

// Create records a valuation on an account of the family.
func (uc *ValuationUseCase) Create(ctx context.Context, familyID string, input CreateValuationInput) (*domain.ReconciliationResult, error) {
	return uc.create(ctx, familyID, input, false)
}

// ConfirmCreate previews Create without persisting.
func (uc *ValuationUseCase) ConfirmCreate(ctx context.Context, familyID string, input CreateValuationInput) (*domain.ReconciliationResult, error) {
	return uc.create(ctx, familyID, input, true)
}

func (uc *ValuationUseCase) create(ctx context.Context, familyID string, input CreateValuationInput, dryRun bool) (*domain.ReconciliationResult, error) {
	if _, err := familyAccount(ctx, uc.accountRepo, familyID, input.AccountID); err != nil {
		return nil, err
	}

	return uc.reconciliation.CreateReconciliation(ctx, input.AccountID, ReconciliationParams{
		Balance:      input.Amount,
		Date:         input.Date,
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		DryRun:       dryRun,
	})
}

// Get returns a valuation entry of the family.
func (uc *ValuationUseCase) Get(ctx context.Context, familyID, entryID string) (*domain.Entry, error) {
	entry, err := familyEntry(ctx, uc.accountRepo, uc.entryRepo, familyID, entryID)
	if err != nil {
		return nil, err
	}

	if !entry.IsValuation() {
		return nil, domain.ErrEntryNotFound
	}

	return entry, nil
}

// Update applies notes and, when both date and amount are given, reconciles
// the new balance. The two parts are independent: notes are saved even when
// the reconciliation fails validation.
func (uc *ValuationUseCase) Update(ctx context.Context, familyID, entryID string, input UpdateValuationInput) (*domain.ReconciliationResult, error) {
	entry, err := uc.Get(ctx, familyID, entryID)
	if err != nil {
		return nil, err
	}

	if input.Notes != nil {
		entry, err = uc.entries.UpdateNotes(ctx, familyID, entryID, *input.Notes)
		if err != nil {
			return nil, err
		}
	}

	if input.Date == nil || input.Amount == nil {
		return &domain.ReconciliationResult{Success: true, Entry: entry, NewBalance: entry.AmountMoney()}, nil
	}

	return uc.reconciliation.UpdateReconciliation(ctx, entryID, updateParams(entry, input, false))
}

// ConfirmUpdate previews the balance part of Update without persisting.
func (uc *ValuationUseCase) ConfirmUpdate(ctx context.Context, familyID, entryID string, input UpdateValuationInput) (*domain.ReconciliationResult, error) {
	entry, err := uc.Get(ctx, familyID, entryID)
	if err != nil {
		return nil, err
	}

	return uc.reconciliation.UpdateReconciliation(ctx, entryID, updateParams(entry, input, true))
}

func updateParams(entry *domain.Entry, input UpdateValuationInput, dryRun bool) ReconciliationParams {
	p := ReconciliationParams{
		Balance:  deref(input.Amount),
		Date:     deref(input.Date),
		Currency: deref(input.Currency),
		DryRun:   dryRun,
	}
	if input.Amount == nil {
		p.Balance = entry.Amount.String()
	}

	// A stored rate is immutable, so a submitted one is dropped
	if entry.ExchangeRate == nil {
		p.ExchangeRate = deref(input.ExchangeRate)
	}

	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
