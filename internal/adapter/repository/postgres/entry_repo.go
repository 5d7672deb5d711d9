package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/postgres/generated"
	"github.com/iho/valuations/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a new entry. A second valuation on the same account and day
// fails with domain.ErrDuplicateValuationDate.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	err := queriesFor(r.db, tx).CreateEntry(ctx, generated.CreateEntryParams{
		ID:            entry.ID,
		AccountID:     entry.AccountID,
		Kind:          string(entry.Kind),
		ValuationKind: valuationKind(entry),
		Name:          entry.Name,
		Notes:         entry.Notes,
		Date:          timeToPgDate(entry.Date),
		Amount:        decimalToNumeric(entry.Amount),
		Currency:      entry.Currency,
		ExchangeRate:  decimalPtrToNumeric(entry.ExchangeRate),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})
	if isUniqueViolation(err, valuationDayIndex) {
		return domain.ErrDuplicateValuationDate
	}

	return err
}

// Update rewrites the date, amount, currency and rate of an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	n, err := queriesFor(r.db, tx).UpdateEntry(ctx, generated.UpdateEntryParams{
		ID:           entry.ID,
		Date:         timeToPgDate(entry.Date),
		Amount:       decimalToNumeric(entry.Amount),
		Currency:     entry.Currency,
		ExchangeRate: decimalPtrToNumeric(entry.ExchangeRate),
		UpdatedAt:    timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		if isUniqueViolation(err, valuationDayIndex) {
			return domain.ErrDuplicateValuationDate
		}
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// UpdateNotes sets the free-form notes of an entry.
func (r *EntryRepository) UpdateNotes(ctx context.Context, id, notes string, updatedAt time.Time) error {
	n, err := r.queries.UpdateEntryNotes(ctx, generated.UpdateEntryNotesParams{
		ID:        id,
		Notes:     notes,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	return affected(n, err, domain.ErrEntryNotFound)
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queriesFor(r.db, tx).DeleteEntry(ctx, id)
	return affected(n, err, domain.ErrEntryNotFound)
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}

	return rowToEntry(row), nil
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetEntryByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}

	return rowToEntry(row), nil
}

// ListByAccount lists entries of an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByAccountUpTo lists entries of an account dated on or before upTo. A
// nil tx reads from the pool.
func (r *EntryRepository) ListByAccountUpTo(ctx context.Context, tx usecase.Transaction, accountID string, upTo time.Time) ([]*domain.Entry, error) {
	rows, err := queriesFor(r.db, tx).ListEntriesByAccountUpTo(ctx, generated.ListEntriesByAccountUpToParams{
		AccountID: accountID,
		Date:      timeToPgDate(upTo),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByFamilyUpTo lists entries of a family's active accounts dated on or
// before upTo.
func (r *EntryRepository) ListByFamilyUpTo(ctx context.Context, familyID string, upTo time.Time) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByFamilyUpTo(ctx, generated.ListEntriesByFamilyUpToParams{
		FamilyID: familyID,
		Date:     timeToPgDate(upTo),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ValuationExists reports whether the account already has a valuation on date
// other than excludeID.
func (r *EntryRepository) ValuationExists(ctx context.Context, tx usecase.Transaction, accountID string, date time.Time, excludeID string) (bool, error) {
	return queriesFor(r.db, tx).ValuationExists(ctx, generated.ValuationExistsParams{
		AccountID: accountID,
		Date:      timeToPgDate(date),
		ID:        excludeID,
	})
}

// LatestManualRate returns the rate of the newest entry on the account that
// carries one and is not already in currency to. Future-dated entries count.
func (r *EntryRepository) LatestManualRate(ctx context.Context, accountID, to string) (decimal.Decimal, error) {
	n, err := r.queries.LatestManualRate(ctx, generated.LatestManualRateParams{
		AccountID: accountID,
		Currency:  to,
	})
	if err != nil {
		return decimal.Zero, notFound(err, domain.ErrExchangeRateNotFound)
	}

	return numericToDecimal(n), nil
}

// Freshness returns the timestamps cache keys of the family's views depend on.
func (r *EntryRepository) Freshness(ctx context.Context, familyID string) (usecase.Freshness, error) {
	row, err := r.queries.GetFamilyFreshness(ctx, familyID)
	if err != nil {
		return usecase.Freshness{}, err
	}

	return usecase.Freshness{
		ManualRatesUpdatedAt: timestamptzToPtr(row.ManualRatesUpdatedAt),
		DataUpdatedAt:        timestamptzToPtr(row.DataUpdatedAt),
	}, nil
}

func valuationKind(e *domain.Entry) pgtype.Text {
	if e.Valuation == nil {
		return textOrNull("")
	}
	return textOrNull(string(e.Valuation.Kind))
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}

func rowToEntry(row generated.Entry) *domain.Entry {
	e := &domain.Entry{
		ID:           row.ID,
		AccountID:    row.AccountID,
		Date:         pgDateToTime(row.Date),
		Amount:       numericToDecimal(row.Amount),
		Currency:     row.Currency,
		ExchangeRate: numericToDecimalPtr(row.ExchangeRate),
		Name:         row.Name,
		Notes:        row.Notes,
		Kind:         domain.EntryKind(row.Kind),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}

	if e.IsValuation() {
		e.Valuation = &domain.Valuation{Kind: domain.ValuationKind(row.ValuationKind.String)}
	} else {
		e.Transaction = &domain.Transaction{}
	}

	return e
}
