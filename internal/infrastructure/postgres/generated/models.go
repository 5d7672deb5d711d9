package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID          string             `json:"id"`
	FamilyID    string             `json:"family_id"`
	Name        string             `json:"name"`
	AccountType string             `json:"account_type"`
	Currency    string             `json:"currency"`
	Balance     pgtype.Numeric     `json:"balance"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type Entry struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	Kind          string             `json:"kind"`
	ValuationKind pgtype.Text        `json:"valuation_kind"`
	Name          string             `json:"name"`
	Notes         string             `json:"notes"`
	Date          pgtype.Date        `json:"date"`
	Amount        pgtype.Numeric     `json:"amount"`
	Currency      string             `json:"currency"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
	ExchangeRate  pgtype.Numeric     `json:"exchange_rate"`
}

type ExchangeRate struct {
	FromCurrency string             `json:"from_currency"`
	ToCurrency   string             `json:"to_currency"`
	Date         pgtype.Date        `json:"date"`
	Rate         pgtype.Numeric     `json:"rate"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Family struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Currency  string             `json:"currency"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}
