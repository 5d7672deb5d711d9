package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidAmount   = errors.New("amount is not a valid number")
	ErrInvalidDate     = errors.New("date is invalid")
)

// Stored exchange rates are numeric(19,6).
const (
	ExchangeRateScale     = 6
	ExchangeRatePrecision = 19
)

// Entry amounts and account balances are numeric(19,4).
const (
	AmountScale     = 4
	AmountPrecision = 19
)

var (
	maxExchangeRate = decimal.New(1, ExchangeRatePrecision-ExchangeRateScale)
	maxAmount       = decimal.New(1, AmountPrecision-AmountScale)
)

// ValidateCurrency checks the code against the ISO 4217 table.
func ValidateCurrency(currency string) error {
	code := strings.ToUpper(strings.TrimSpace(currency))

	if code == "" || money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ParseAmount parses a user supplied decimal. Anything that is not a finite
// decimal number is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d, nil
}

// NormalizeAmount rounds an amount to the stored scale and rejects values the
// column cannot hold, so a re-sent amount compares equal to the stored one.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(AmountScale)
	if rounded.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}

	return rounded, nil
}

// NormalizeExchangeRate rounds a rate to the stored scale and rejects values
// the column cannot hold, so the value in memory equals the value persisted.
func NormalizeExchangeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidExchangeRate
	}

	rounded := rate.Round(ExchangeRateScale)
	if rounded.IsZero() {
		return decimal.Zero, ErrInvalidExchangeRate
	}
	if rounded.GreaterThanOrEqual(maxExchangeRate) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrExchangeRateOutOfRange, rate)
	}

	return rounded, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
