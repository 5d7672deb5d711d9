package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const findExchangeRate = `-- name: FindExchangeRate :one
SELECT rate FROM exchange_rates
WHERE from_currency = $1 AND to_currency = $2 AND date <= $3
ORDER BY date DESC
LIMIT 1
`

type FindExchangeRateParams struct {
	FromCurrency string      `json:"from_currency"`
	ToCurrency   string      `json:"to_currency"`
	Date         pgtype.Date `json:"date"`
}

func (q *Queries) FindExchangeRate(ctx context.Context, arg FindExchangeRateParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, findExchangeRate, arg.FromCurrency, arg.ToCurrency, arg.Date)
	var rate pgtype.Numeric
	err := row.Scan(&rate)
	return rate, err
}

const upsertExchangeRate = `-- name: UpsertExchangeRate :exec
INSERT INTO exchange_rates (from_currency, to_currency, date, rate)
VALUES ($1, $2, $3, $4)
ON CONFLICT (from_currency, to_currency, date) DO UPDATE SET rate = EXCLUDED.rate
`

type UpsertExchangeRateParams struct {
	FromCurrency string         `json:"from_currency"`
	ToCurrency   string         `json:"to_currency"`
	Date         pgtype.Date    `json:"date"`
	Rate         pgtype.Numeric `json:"rate"`
}

func (q *Queries) UpsertExchangeRate(ctx context.Context, arg UpsertExchangeRateParams) error {
	_, err := q.db.Exec(ctx, upsertExchangeRate,
		arg.FromCurrency,
		arg.ToCurrency,
		arg.Date,
		arg.Rate,
	)
	return err
}
