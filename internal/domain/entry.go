package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind discriminates the entry payload.
type EntryKind string

const (
	EntryKindTransaction EntryKind = "transaction"
	EntryKindValuation   EntryKind = "valuation"
)

// ValuationKind tells how a valuation came to exist.
type ValuationKind string

const (
	ValuationKindReconciliation ValuationKind = "reconciliation"
	ValuationKindOpeningAnchor  ValuationKind = "opening_anchor"
	ValuationKindCurrentAnchor  ValuationKind = "current_anchor"
)

// Entry names used for system-created valuations.
const (
	ReconciliationEntryName = "Manual value update"
	OpeningAnchorEntryName  = "Opening balance"
)

// Valuation is a point-in-time balance assertion.
type Valuation struct {
	Kind ValuationKind
}

// Transaction is a balance movement. Categorisation lives elsewhere.
type Transaction struct{}

// Entry is a ledger row under an account. Exactly one of Valuation and
// Transaction is set, matching Kind.
type Entry struct {
	ID           string
	AccountID    string
	Date         time.Time
	Amount       decimal.Decimal
	Currency     string
	ExchangeRate *decimal.Decimal
	Name         string
	Notes        string
	Kind         EntryKind
	Valuation    *Valuation
	Transaction  *Transaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewValuationEntry builds an unsaved reconciliation valuation.
func NewValuationEntry(id, accountID string, date time.Time, amount decimal.Decimal, currency string) *Entry {
	return &Entry{
		ID:        id,
		AccountID: accountID,
		Date:      Day(date),
		Amount:    amount,
		Currency:  currency,
		Name:      ReconciliationEntryName,
		Kind:      EntryKindValuation,
		Valuation: &Valuation{Kind: ValuationKindReconciliation},
	}
}

// IsValuation reports whether the entry is a valuation.
func (e *Entry) IsValuation() bool {
	return e.Kind == EntryKindValuation
}

// AmountMoney returns the amount in the entry currency.
func (e *Entry) AmountMoney() Money {
	return NewMoney(e.Amount, e.Currency)
}

// SetExchangeRate records a manual rate. A rate that is already set never changes.
func (e *Entry) SetExchangeRate(rate *decimal.Decimal) {
	if e.ExchangeRate != nil || rate == nil {
		return
	}
	r := *rate
	e.ExchangeRate = &r
}

// HasManualExchangeRate reports whether a manual rate is attached.
func (e *Entry) HasManualExchangeRate() bool {
	return e.ExchangeRate != nil
}

// NeedsManualExchangeRate reports whether the entry's currency differs from
// the reporting currency it is aggregated into.
func (e *Entry) NeedsManualExchangeRate(reportingCurrency string) bool {
	return e.Currency != reportingCurrency
}

// Validate checks the entry invariants relative to today.
func (e *Entry) Validate(today time.Time) error {
	if e.Date.Before(EarliestEntryDate(today)) {
		return ErrEntryDateTooOld
	}

	if err := ValidateCurrency(e.Currency); err != nil {
		return err
	}

	if _, err := NormalizeAmount(e.Amount); err != nil {
		return err
	}

	switch e.Kind {
	case EntryKindValuation:
		if e.Valuation == nil || e.Transaction != nil {
			return ErrInvalidEntryPayload
		}
	case EntryKindTransaction:
		if e.Transaction == nil || e.Valuation != nil {
			return ErrInvalidEntryPayload
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntryPayload, e.Kind)
	}

	if e.ExchangeRate != nil {
		if _, err := NormalizeExchangeRate(*e.ExchangeRate); err != nil {
			return err
		}
	}

	return nil
}
