package domain

import "errors"

// ValidationError is a user-facing reconciliation failure. It is reported in
// a ReconciliationResult, never returned as a call error.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err with a message shown to the user.
func NewValidationError(err error, message string) *ValidationError {
	return &ValidationError{Message: message, Err: err}
}

// AsValidationError extracts a ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ReconciliationResult is the outcome of one reconciliation call.
//
// On previews OldBalance is the ledger balance on the entry date before the
// change, in the account currency. After a write it is the account's cached
// balance. NewBalance is the asserted balance in the entry currency.
type ReconciliationResult struct {
	Success      bool
	Entry        *Entry
	OldBalance   Money
	NewBalance   Money
	ErrorMessage string
	DryRun       bool
}

// Failed builds a failure result from a validation error.
func Failed(err *ValidationError, dryRun bool) *ReconciliationResult {
	return &ReconciliationResult{Success: false, ErrorMessage: err.Message, DryRun: dryRun}
}
