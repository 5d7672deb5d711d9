package domain

import "errors"

var (
	// Lookup errors
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrFamilyNotFound  = errors.New("family not found")

	// Contract violations raised by trusted callers
	ErrEntryAccountMismatch = errors.New("entry does not belong to account")
	ErrNotValuation         = errors.New("entry is not a valuation")
	ErrInvalidEntryPayload  = errors.New("entry payload does not match its kind")

	// Entry validation
	ErrEntryDateTooOld        = errors.New("entry date cannot be more than 10 years ago")
	ErrDuplicateValuationDate = errors.New("only one valuation is allowed per account per day")
	ErrExchangeRateOutOfRange = errors.New("exchange rate exceeds supported precision")
	ErrAmountOutOfRange       = errors.New("amount exceeds supported precision")
	ErrInvalidExchangeRate    = errors.New("exchange rate must be positive")

	// Exchange rates
	ErrExchangeRateNotFound = errors.New("exchange rate not found")

	// Money
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// Periods
	ErrInvalidPeriod = errors.New("invalid period")
)
