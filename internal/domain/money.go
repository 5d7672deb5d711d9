package domain

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const defaultFraction = 2

// Money is an immutable amount in a single currency.
//
// Amounts keep full decimal precision; rounding to the currency's minor
// unit only happens through Round, Exchange and Cents.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney creates a Money value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// CurrencyFraction returns the number of minor-unit digits for a currency code.
func CurrencyFraction(code string) int32 {
	if c := money.GetCurrency(code); c != nil {
		return int32(c.Fraction)
	}
	return defaultFraction
}

// Add returns m + n. Adding different currencies is a programming error.
func (m Money) Add(n Money) Money {
	return Money{Amount: m.Amount.Add(n.Amount), Currency: sameCurrency(m, n)}
}

// Sub returns m - n. Subtracting different currencies is a programming error.
func (m Money) Sub(n Money) Money {
	return Money{Amount: m.Amount.Sub(n.Amount), Currency: sameCurrency(m, n)}
}

func sameCurrency(a, b Money) string {
	if a.Currency != b.Currency {
		panic(fmt.Sprintf("%v: %s != %s", ErrCurrencyMismatch, a.Currency, b.Currency))
	}
	return a.Currency
}

func (m Money) Abs() Money { return Money{Amount: m.Amount.Abs(), Currency: m.Currency} }
func (m Money) Neg() Money { return Money{Amount: m.Amount.Neg(), Currency: m.Currency} }
func (m Money) IsZero() bool { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) Equal(n Money) bool { return m.Currency == n.Currency && m.Amount.Equal(n.Amount) }

// Round rounds the amount to the currency's minor unit.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(CurrencyFraction(m.Currency)), Currency: m.Currency}
}

// Ceil rounds the amount up to the next minor unit.
func (m Money) Ceil() Money {
	exp := CurrencyFraction(m.Currency)
	return Money{Amount: m.Amount.Shift(exp).Ceil().Shift(-exp), Currency: m.Currency}
}

// Cents returns the amount in minor units, rounded.
func (m Money) Cents() int64 {
	return m.Amount.Shift(CurrencyFraction(m.Currency)).Round(0).IntPart()
}

// Exchange converts m into currency to using rate.
// The product keeps full precision and is rounded once in the target currency.
func (m Money) Exchange(to string, rate decimal.Decimal) Money {
	if m.Currency == to {
		return m
	}
	return Money{Amount: m.Amount.Mul(rate), Currency: to}.Round()
}

// ExchangeWithFallback converts using rate, or fallback when rate is nil.
func (m Money) ExchangeWithFallback(to string, rate *decimal.Decimal, fallback decimal.Decimal) Money {
	if rate == nil {
		return m.Exchange(to, fallback)
	}
	return m.Exchange(to, *rate)
}

// String formats the amount with the currency's symbol and grouping.
func (m Money) String() string {
	c := money.GetCurrency(m.Currency)
	if c == nil {
		return m.Amount.StringFixed(defaultFraction) + " " + m.Currency
	}
	return c.Formatter().Format(m.Cents())
}
