package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/postgres/generated"
	"github.com/iho/valuations/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate locks the account row for the rest of tx. Reconciliation
// and sync take this lock first, which serializes writers per account.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	row, err := queriesFor(r.db, tx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// ListByFamily lists every account of a family, visible or not.
func (r *AccountRepository) ListByFamily(ctx context.Context, familyID string) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, len(rows))
	for i, row := range rows {
		accounts[i] = rowToAccount(row)
	}
	return accounts, nil
}

// UpdateBalance stores the balance sync recomputed from entries.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	n, err := queriesFor(r.db, tx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	return affected(n, err, domain.ErrAccountNotFound)
}

// Touch bumps updated_at so derived views keyed on it are invalidated.
func (r *AccountRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	n, err := queriesFor(r.db, tx).TouchAccount(ctx, generated.TouchAccountParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	return affected(n, err, domain.ErrAccountNotFound)
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		FamilyID:  row.FamilyID,
		Name:      row.Name,
		Type:      domain.AccountType(row.AccountType),
		Currency:  row.Currency,
		Balance:   numericToDecimal(row.Balance),
		Status:    domain.AccountStatus(row.Status),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
