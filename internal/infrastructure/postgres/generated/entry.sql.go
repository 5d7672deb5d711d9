package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (id, account_id, kind, valuation_kind, name, notes, date, amount, currency, exchange_rate, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

type CreateEntryParams struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	Kind          string             `json:"kind"`
	ValuationKind pgtype.Text        `json:"valuation_kind"`
	Name          string             `json:"name"`
	Notes         string             `json:"notes"`
	Date          pgtype.Date        `json:"date"`
	Amount        pgtype.Numeric     `json:"amount"`
	Currency      string             `json:"currency"`
	ExchangeRate  pgtype.Numeric     `json:"exchange_rate"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.Exec(ctx, createEntry,
		arg.ID,
		arg.AccountID,
		arg.Kind,
		arg.ValuationKind,
		arg.Name,
		arg.Notes,
		arg.Date,
		arg.Amount,
		arg.Currency,
		arg.ExchangeRate,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE FROM entries WHERE id = $1
`

func (q *Queries) DeleteEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getEntryByID = `-- name: GetEntryByID :one
SELECT id, account_id, kind, valuation_kind, name, notes, date, amount, currency, created_at, updated_at, exchange_rate FROM entries WHERE id = $1
`

func (q *Queries) GetEntryByID(ctx context.Context, id string) (Entry, error) {
	row := q.db.QueryRow(ctx, getEntryByID, id)
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Kind,
		&i.ValuationKind,
		&i.Name,
		&i.Notes,
		&i.Date,
		&i.Amount,
		&i.Currency,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ExchangeRate,
	)
	return i, err
}

const getEntryByIDForUpdate = `-- name: GetEntryByIDForUpdate :one
SELECT id, account_id, kind, valuation_kind, name, notes, date, amount, currency, created_at, updated_at, exchange_rate FROM entries WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetEntryByIDForUpdate(ctx context.Context, id string) (Entry, error) {
	row := q.db.QueryRow(ctx, getEntryByIDForUpdate, id)
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Kind,
		&i.ValuationKind,
		&i.Name,
		&i.Notes,
		&i.Date,
		&i.Amount,
		&i.Currency,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ExchangeRate,
	)
	return i, err
}

const getFamilyFreshness = `-- name: GetFamilyFreshness :one
SELECT
    (SELECT MAX(e.updated_at) FROM entries e JOIN accounts a ON a.id = e.account_id
     WHERE a.family_id = $1 AND e.exchange_rate IS NOT NULL)::timestamptz AS manual_rates_updated_at,
    GREATEST(
        (SELECT MAX(e.updated_at) FROM entries e JOIN accounts a ON a.id = e.account_id WHERE a.family_id = $1),
        (SELECT MAX(updated_at) FROM accounts WHERE family_id = $1)
    )::timestamptz AS data_updated_at
`

type GetFamilyFreshnessRow struct {
	ManualRatesUpdatedAt pgtype.Timestamptz `json:"manual_rates_updated_at"`
	DataUpdatedAt        pgtype.Timestamptz `json:"data_updated_at"`
}

func (q *Queries) GetFamilyFreshness(ctx context.Context, familyID string) (GetFamilyFreshnessRow, error) {
	row := q.db.QueryRow(ctx, getFamilyFreshness, familyID)
	var i GetFamilyFreshnessRow
	err := row.Scan(&i.ManualRatesUpdatedAt, &i.DataUpdatedAt)
	return i, err
}

const latestManualRate = `-- name: LatestManualRate :one
SELECT exchange_rate FROM entries
WHERE account_id = $1 AND exchange_rate IS NOT NULL AND currency <> $2
ORDER BY date DESC, updated_at DESC
LIMIT 1
`

type LatestManualRateParams struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
}

func (q *Queries) LatestManualRate(ctx context.Context, arg LatestManualRateParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, latestManualRate, arg.AccountID, arg.Currency)
	var exchange_rate pgtype.Numeric
	err := row.Scan(&exchange_rate)
	return exchange_rate, err
}

type ListEntriesByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

const listEntriesByAccount = `-- name: ListEntriesByAccount :many
SELECT id, account_id, kind, valuation_kind, name, notes, date, amount, currency, created_at, updated_at, exchange_rate FROM entries
WHERE account_id = $1
ORDER BY date DESC, created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListEntriesByAccount(ctx context.Context, arg ListEntriesByAccountParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Kind,
			&i.ValuationKind,
			&i.Name,
			&i.Notes,
			&i.Date,
			&i.Amount,
			&i.Currency,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ExchangeRate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListEntriesByAccountUpToParams struct {
	AccountID string      `json:"account_id"`
	Date      pgtype.Date `json:"date"`
}

const listEntriesByAccountUpTo = `-- name: ListEntriesByAccountUpTo :many
SELECT id, account_id, kind, valuation_kind, name, notes, date, amount, currency, created_at, updated_at, exchange_rate FROM entries
WHERE account_id = $1 AND date <= $2
ORDER BY date, created_at, id
`

func (q *Queries) ListEntriesByAccountUpTo(ctx context.Context, arg ListEntriesByAccountUpToParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccountUpTo, arg.AccountID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Kind,
			&i.ValuationKind,
			&i.Name,
			&i.Notes,
			&i.Date,
			&i.Amount,
			&i.Currency,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ExchangeRate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListEntriesByFamilyUpToParams struct {
	FamilyID string      `json:"family_id"`
	Date     pgtype.Date `json:"date"`
}

const listEntriesByFamilyUpTo = `-- name: ListEntriesByFamilyUpTo :many
SELECT e.id, e.account_id, e.kind, e.valuation_kind, e.name, e.notes, e.date, e.amount, e.currency, e.created_at, e.updated_at, e.exchange_rate FROM entries e
JOIN accounts a ON a.id = e.account_id
WHERE a.family_id = $1 AND a.status = 'active' AND e.date <= $2
ORDER BY e.account_id, e.date, e.created_at, e.id
`

func (q *Queries) ListEntriesByFamilyUpTo(ctx context.Context, arg ListEntriesByFamilyUpToParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByFamilyUpTo, arg.FamilyID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Kind,
			&i.ValuationKind,
			&i.Name,
			&i.Notes,
			&i.Date,
			&i.Amount,
			&i.Currency,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ExchangeRate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateEntry = `-- name: UpdateEntry :execrows
UPDATE entries
SET date = $2, amount = $3, currency = $4, exchange_rate = $5, updated_at = $6
WHERE id = $1
`

type UpdateEntryParams struct {
	ID           string             `json:"id"`
	Date         pgtype.Date        `json:"date"`
	Amount       pgtype.Numeric     `json:"amount"`
	Currency     string             `json:"currency"`
	ExchangeRate pgtype.Numeric     `json:"exchange_rate"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateEntry,
		arg.ID,
		arg.Date,
		arg.Amount,
		arg.Currency,
		arg.ExchangeRate,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateEntryNotes = `-- name: UpdateEntryNotes :execrows
UPDATE entries SET notes = $2, updated_at = $3 WHERE id = $1
`

type UpdateEntryNotesParams struct {
	ID        string             `json:"id"`
	Notes     string             `json:"notes"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateEntryNotes(ctx context.Context, arg UpdateEntryNotesParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateEntryNotes, arg.ID, arg.Notes, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const valuationExists = `-- name: ValuationExists :one
SELECT EXISTS (
    SELECT 1 FROM entries
    WHERE account_id = $1 AND date = $2 AND kind = 'valuation' AND id <> $3
)
`

type ValuationExistsParams struct {
	AccountID string      `json:"account_id"`
	Date      pgtype.Date `json:"date"`
	ID        string      `json:"id"`
}

func (q *Queries) ValuationExists(ctx context.Context, arg ValuationExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, valuationExists, arg.AccountID, arg.Date, arg.ID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
