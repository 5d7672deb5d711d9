package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/domain"
)

// EntryUseCase handles entry business logic.
type EntryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	logger      zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	logger zerolog.Logger,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		logger:      logger,
	}
}

// ListByAccount lists entries for an account of the family, newest first.
func (uc *EntryUseCase) ListByAccount(ctx context.Context, familyID, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if _, err := familyAccount(ctx, uc.accountRepo, familyID, accountID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}

// Get returns an entry of the family.
func (uc *EntryUseCase) Get(ctx context.Context, familyID, entryID string) (*domain.Entry, error) {
	return familyEntry(ctx, uc.accountRepo, uc.entryRepo, familyID, entryID)
}

// UpdateNotes replaces the entry notes. Notes never affect balances, so no
// resync is requested.
func (uc *EntryUseCase) UpdateNotes(ctx context.Context, familyID, entryID, notes string) (*domain.Entry, error) {
	entry, err := familyEntry(ctx, uc.accountRepo, uc.entryRepo, familyID, entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.entryRepo.UpdateNotes(ctx, entryID, notes, now); err != nil {
		return nil, err
	}

	entry.Notes = notes
	entry.UpdatedAt = now

	return entry, nil
}

// Delete removes an entry and requests a full resync of its account.
func (uc *EntryUseCase) Delete(ctx context.Context, familyID, entryID string) error {
	entry, err := familyEntry(ctx, uc.accountRepo, uc.entryRepo, familyID, entryID)
	if err != nil {
		return err
	}

	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if _, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, entry.AccountID); err != nil {
			return err
		}

		if err := uc.entryRepo.Delete(txCtx, tx, entry.ID); err != nil {
			return err
		}

		// Deletions leave no row behind, so bump the account for cache keys
		now := time.Now().UTC()
		if err := uc.accountRepo.Touch(txCtx, tx, entry.AccountID, now); err != nil {
			return err
		}

		if err := enqueueSync(txCtx, tx, uc.outboxRepo, uc.idGen, entry.AccountID, nil, domain.SyncReasonEntryDeleted, now); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		return err
	}

	uc.logger.Info().
		Str("account_id", entry.AccountID).
		Str("entry_id", entry.ID).
		Msg("entry deleted")

	return nil
}

// familyAccount loads an account and hides accounts of other families.
func familyAccount(ctx context.Context, accountRepo AccountRepository, familyID, accountID string) (*domain.Account, error) {
	account, err := accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.FamilyID != familyID {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// familyEntry loads an entry and hides entries of other families.
func familyEntry(ctx context.Context, accountRepo AccountRepository, entryRepo EntryRepository, familyID, entryID string) (*domain.Entry, error) {
	entry, err := entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	account, err := accountRepo.GetByID(ctx, entry.AccountID)
	if err != nil {
		return nil, err
	}

	if account.FamilyID != familyID {
		return nil, domain.ErrEntryNotFound
	}

	return entry, nil
}
