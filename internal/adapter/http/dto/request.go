package dto

import (
	"github.com/iho/valuations/internal/usecase"
)

// CreateValuationRequest represents a request to record a valuation.
// Amounts and rates are strings so malformed input reaches the
// reconciliation validator instead of failing JSON decoding.
type CreateValuationRequest struct {
	AccountID    string `json:"account_id"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Currency     string `json:"currency,omitempty"`
	ExchangeRate string `json:"exchange_rate,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateValuationRequest) ToUseCaseInput() usecase.CreateValuationInput {
	return usecase.CreateValuationInput{
		AccountID:    r.AccountID,
		Amount:       r.Amount,
		Date:         r.Date,
		Currency:     r.Currency,
		ExchangeRate: r.ExchangeRate,
	}
}

// UpdateValuationRequest represents a partial valuation update.
type UpdateValuationRequest struct {
	Amount       *string `json:"amount,omitempty"`
	Date         *string `json:"date,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	ExchangeRate *string `json:"exchange_rate,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateValuationRequest) ToUseCaseInput() usecase.UpdateValuationInput {
	return usecase.UpdateValuationInput{
		Amount:       r.Amount,
		Date:         r.Date,
		Currency:     r.Currency,
		ExchangeRate: r.ExchangeRate,
		Notes:        r.Notes,
	}
}
