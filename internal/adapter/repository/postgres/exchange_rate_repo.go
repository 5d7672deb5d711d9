package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/postgres/generated"
)

// ExchangeRateRepository implements usecase.ExchangeRateRepository on the
// exchange_rates table.
type ExchangeRateRepository struct {
	queries *generated.Queries
}

// NewExchangeRateRepository creates a new ExchangeRateRepository.
func NewExchangeRateRepository(pool *pgxpool.Pool) *ExchangeRateRepository {
	return newExchangeRateRepository(pool)
}

func newExchangeRateRepository(db generated.DBTX) *ExchangeRateRepository {
	return &ExchangeRateRepository{queries: generated.New(db)}
}

// Find returns the newest rate for the pair dated on or before date.
func (r *ExchangeRateRepository) Find(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	n, err := r.queries.FindExchangeRate(ctx, generated.FindExchangeRateParams{
		FromCurrency: from,
		ToCurrency:   to,
		Date:         timeToPgDate(date),
	})
	if err != nil {
		return decimal.Zero, notFound(err, domain.ErrExchangeRateNotFound)
	}

	return numericToDecimal(n), nil
}

// Upsert stores a rate, replacing any rate for the same pair and day.
func (r *ExchangeRateRepository) Upsert(ctx context.Context, rate *domain.ExchangeRate) error {
	return r.queries.UpsertExchangeRate(ctx, generated.UpsertExchangeRateParams{
		FromCurrency: rate.From,
		ToCurrency:   rate.To,
		Date:         timeToPgDate(rate.Date),
		Rate:         decimalToNumeric(rate.Rate),
	})
}
