package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
)

// ExchangeRateResolver picks the rate used to convert an account's amounts
// into a reporting currency.
//
// Resolution order is identity, then the manual rate of the account's newest
// entry carrying one (regardless of asOf), then the automatic rate source,
// then 1. The last step keeps read
// paths working when no rate is known and is logged as degraded.
type ExchangeRateResolver struct {
	entryRepo EntryRepository
	rateRepo  ExchangeRateRepository
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewExchangeRateResolver creates a new ExchangeRateResolver. rateRepo may be
// nil when no automatic source is configured.
func NewExchangeRateResolver(
	entryRepo EntryRepository,
	rateRepo ExchangeRateRepository,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ExchangeRateResolver {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &ExchangeRateResolver{
		entryRepo: entryRepo,
		rateRepo:  rateRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

type rateKey struct {
	accountID string
	from      string
	to        string
	date      time.Time
}

type resolvedRate struct {
	rate   decimal.Decimal
	source domain.RateSource
}

// rateMemo holds resolutions for the duration of one aggregate build.
type rateMemo map[rateKey]resolvedRate

// Resolve returns the rate converting from into to for the account as of asOf.
func (r *ExchangeRateResolver) Resolve(ctx context.Context, accountID, from, to string, asOf time.Time) (decimal.Decimal, domain.RateSource, error) {
	return r.resolve(ctx, accountID, from, to, asOf, nil)
}

func (r *ExchangeRateResolver) resolve(ctx context.Context, accountID, from, to string, asOf time.Time, memo rateMemo) (decimal.Decimal, domain.RateSource, error) {
	if from == to {
		return domain.IdentityRate, domain.RateSourceIdentity, nil
	}

	rate, ok, err := r.manualRate(ctx, accountID, from, to, memo)
	if err != nil {
		return decimal.Zero, "", err
	}
	if ok {
		return rate, domain.RateSourceManual, nil
	}

	key := rateKey{accountID: accountID, from: from, to: to, date: domain.Day(asOf)}
	if hit, ok := memo[key]; ok {
		return hit.rate, hit.source, nil
	}

	rate, source := r.automaticRate(ctx, key)
	if memo != nil {
		memo[key] = resolvedRate{rate: rate, source: source}
	}

	return rate, source, nil
}

// manualRate looks up the account's newest manual rate. It does not depend
// on the date, so the memo holds it under a zero date and remembers misses.
func (r *ExchangeRateResolver) manualRate(ctx context.Context, accountID, from, to string, memo rateMemo) (decimal.Decimal, bool, error) {
	key := rateKey{accountID: accountID, from: from, to: to}
	if hit, ok := memo[key]; ok {
		return hit.rate, hit.source == domain.RateSourceManual, nil
	}

	rate, err := r.entryRepo.LatestManualRate(ctx, accountID, to)
	switch {
	case err == nil:
		if memo != nil {
			memo[key] = resolvedRate{rate: rate, source: domain.RateSourceManual}
		}
		return rate, true, nil
	case errors.Is(err, domain.ErrExchangeRateNotFound):
		if memo != nil {
			memo[key] = resolvedRate{}
		}
		return decimal.Zero, false, nil
	default:
		return decimal.Zero, false, err
	}
}

func (r *ExchangeRateResolver) automaticRate(ctx context.Context, key rateKey) (decimal.Decimal, domain.RateSource) {
	if r.rateRepo != nil {
		rate, err := r.rateRepo.Find(ctx, key.from, key.to, key.date)
		switch {
		case err == nil:
			return rate, domain.RateSourceAutomatic
		case !errors.Is(err, domain.ErrExchangeRateNotFound):
			r.logger.Warn().
				Err(err).
				Str("from", key.from).
				Str("to", key.to).
				Msg("automatic exchange rate lookup failed")
		}
	}

	r.logger.Warn().
		Str("account_id", key.accountID).
		Str("from", key.from).
		Str("to", key.to).
		Str("date", key.date.Format(domain.DateLayout)).
		Msg("no exchange rate available, reporting amount unconverted")
	r.metrics.RecordFXFallback(key.from, key.to)

	return domain.IdentityRate, domain.RateSourceFallback
}

// ConvertEntry returns the entry amount in currency to. A manual rate on the
// entry itself always wins.
func (r *ExchangeRateResolver) ConvertEntry(ctx context.Context, e *domain.Entry, to string) (decimal.Decimal, error) {
	return r.convertEntry(ctx, e, to, nil)
}

func (r *ExchangeRateResolver) convertEntry(ctx context.Context, e *domain.Entry, to string, memo rateMemo) (decimal.Decimal, error) {
	if e.Currency == to {
		return e.Amount, nil
	}

	fallback := domain.IdentityRate
	if !e.HasManualExchangeRate() {
		rate, _, err := r.resolve(ctx, e.AccountID, e.Currency, to, e.Date, memo)
		if err != nil {
			return decimal.Zero, err
		}
		fallback = rate
	}

	return e.AmountMoney().ExchangeWithFallback(to, e.ExchangeRate, fallback).Amount, nil
}

// ConvertBalance converts the account's cached balance into currency to.
// A zero balance is a zero amount in to, not an absent value.
func (r *ExchangeRateResolver) ConvertBalance(ctx context.Context, account *domain.Account, to string, asOf time.Time) (domain.Money, error) {
	return r.convertBalance(ctx, account, to, asOf, nil)
}

func (r *ExchangeRateResolver) convertBalance(ctx context.Context, account *domain.Account, to string, asOf time.Time, memo rateMemo) (domain.Money, error) {
	if account.Balance.IsZero() {
		return domain.Zero(to), nil
	}

	rate, _, err := r.resolve(ctx, account.ID, account.Currency, to, asOf, memo)
	if err != nil {
		return domain.Money{}, err
	}

	return account.BalanceMoney().Exchange(to, rate), nil
}
