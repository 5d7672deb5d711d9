package dto

import (
	"time"

	"github.com/iho/valuations/internal/domain"
)

// MoneyResponse represents an amount in API responses.
type MoneyResponse struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// MoneyFromDomain converts a domain amount to response.
func MoneyFromDomain(m domain.Money) MoneyResponse {
	return MoneyResponse{
		Amount:    m.Amount.String(),
		Currency:  m.Currency,
		Formatted: m.String(),
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	Kind          string    `json:"kind"`
	ValuationKind string    `json:"valuation_kind,omitempty"`
	Name          string    `json:"name"`
	Notes         string    `json:"notes"`
	Date          string    `json:"date"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	ExchangeRate  *string   `json:"exchange_rate"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:        e.ID,
		AccountID: e.AccountID,
		Kind:      string(e.Kind),
		Name:      e.Name,
		Notes:     e.Notes,
		Date:      e.Date.Format(domain.DateLayout),
		Amount:    e.Amount.String(),
		Currency:  e.Currency,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Valuation != nil {
		resp.ValuationKind = string(e.Valuation.Kind)
	}
	if e.ExchangeRate != nil {
		rate := e.ExchangeRate.String()
		resp.ExchangeRate = &rate
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ReconciliationResponse represents a successful valuation write or preview.
type ReconciliationResponse struct {
	Success    bool           `json:"success"`
	DryRun     bool           `json:"dry_run"`
	Entry      *EntryResponse `json:"entry,omitempty"`
	OldBalance *MoneyResponse `json:"old_balance,omitempty"`
	NewBalance *MoneyResponse `json:"new_balance,omitempty"`
}

// ReconciliationFromDomain converts a reconciliation result to response.
func ReconciliationFromDomain(r *domain.ReconciliationResult) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		Success: r.Success,
		DryRun:  r.DryRun,
	}
	if r.Entry != nil {
		resp.Entry = EntryFromDomain(r.Entry)
	}
	if r.OldBalance.Currency != "" {
		old := MoneyFromDomain(r.OldBalance)
		resp.OldBalance = &old
	}
	if r.NewBalance.Currency != "" {
		nb := MoneyFromDomain(r.NewBalance)
		resp.NewBalance = &nb
	}
	return resp
}

// PeriodResponse represents an inclusive date range.
type PeriodResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SeriesValueResponse is one point of a series.
type SeriesValueResponse struct {
	Date  string        `json:"date"`
	Value MoneyResponse `json:"value"`
}

// TrendResponse compares the last point of a series with the first.
type TrendResponse struct {
	Current  MoneyResponse `json:"current"`
	Previous MoneyResponse `json:"previous"`
	Value    MoneyResponse `json:"value"`
	Percent  *string       `json:"percent"`
}

// SeriesResponse represents a net worth series.
type SeriesResponse struct {
	Period             PeriodResponse        `json:"period"`
	Currency           string                `json:"currency"`
	Values             []SeriesValueResponse `json:"values"`
	FavorableDirection string                `json:"favorable_direction"`
	Trend              TrendResponse         `json:"trend"`
}

// SeriesFromDomain converts a domain series to response.
func SeriesFromDomain(s *domain.Series) *SeriesResponse {
	values := make([]SeriesValueResponse, len(s.Values))
	for i, v := range s.Values {
		values[i] = SeriesValueResponse{
			Date:  v.Date.Format(domain.DateLayout),
			Value: MoneyFromDomain(v.Value),
		}
	}

	trend := TrendResponse{
		Current:  MoneyFromDomain(s.Trend.Current),
		Previous: MoneyFromDomain(s.Trend.Previous),
		Value:    MoneyFromDomain(s.Trend.Value),
	}
	if s.Trend.Percent != nil {
		pct := s.Trend.Percent.String()
		trend.Percent = &pct
	}

	return &SeriesResponse{
		Period: PeriodResponse{
			StartDate: s.Period.Start.Format(domain.DateLayout),
			EndDate:   s.Period.End.Format(domain.DateLayout),
		},
		Currency:           s.Currency,
		Values:             values,
		FavorableDirection: string(s.FavorableDirection),
		Trend:              trend,
	}
}

// NetWorthResponse represents the current net worth of a family.
type NetWorthResponse struct {
	NetWorth MoneyResponse `json:"net_worth"`
}

// AccountRowResponse is one account on the balance sheet.
type AccountRowResponse struct {
	AccountID        string        `json:"account_id"`
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	Classification   string        `json:"classification"`
	Balance          MoneyResponse `json:"balance"`
	ConvertedBalance MoneyResponse `json:"converted_balance"`
	Syncing          bool          `json:"syncing"`
}

// AccountTotalsResponse represents the family balance sheet.
type AccountTotalsResponse struct {
	Currency          string               `json:"currency"`
	AssetAccounts     []AccountRowResponse `json:"asset_accounts"`
	LiabilityAccounts []AccountRowResponse `json:"liability_accounts"`
}

// AccountTotalsFromDomain converts domain totals to response.
func AccountTotalsFromDomain(t *domain.AccountTotals) *AccountTotalsResponse {
	return &AccountTotalsResponse{
		Currency:          t.Currency,
		AssetAccounts:     accountRowsFromDomain(t.AssetAccounts),
		LiabilityAccounts: accountRowsFromDomain(t.LiabilityAccounts),
	}
}

func accountRowsFromDomain(rows []domain.AccountRow) []AccountRowResponse {
	result := make([]AccountRowResponse, len(rows))
	for i, r := range rows {
		result[i] = AccountRowResponse{
			AccountID:        r.AccountID,
			Name:             r.Name,
			Type:             string(r.Type),
			Classification:   string(r.Classification),
			Balance:          MoneyFromDomain(r.Balance),
			ConvertedBalance: MoneyFromDomain(r.ConvertedBalance),
			Syncing:          r.Syncing,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
