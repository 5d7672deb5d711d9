package domain

import "time"

// Event types
const (
	EventTypeSyncRequested = "account.sync_requested"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// SyncRequestedEvent payload. A nil WindowStartDate means resync from the
// account's first entry.
type SyncRequestedEvent struct {
	AccountID       string  `json:"account_id"`
	WindowStartDate *string `json:"window_start_date"`
	Reason          string  `json:"reason"`
}

// Sync reasons
const (
	SyncReasonReconciliationCreated = "reconciliation_created"
	SyncReasonReconciliationUpdated = "reconciliation_updated"
	SyncReasonEntryDeleted          = "entry_deleted"
)

// NewSyncRequestedEvent builds the payload for an account resync.
func NewSyncRequestedEvent(accountID string, windowStart *time.Time, reason string) SyncRequestedEvent {
	ev := SyncRequestedEvent{AccountID: accountID, Reason: reason}
	if windowStart != nil {
		s := Day(*windowStart).Format(DateLayout)
		ev.WindowStartDate = &s
	}
	return ev
}

// Payload flattens the event into the outbox representation.
func (e SyncRequestedEvent) Payload() map[string]any {
	var window any
	if e.WindowStartDate != nil {
		window = *e.WindowStartDate
	}
	return map[string]any{
		"account_id":        e.AccountID,
		"window_start_date": window,
		"reason":            e.Reason,
	}
}

// ParseSyncRequestedEvent reads a payload written by Payload.
func ParseSyncRequestedEvent(payload map[string]any) (SyncRequestedEvent, *time.Time, error) {
	var ev SyncRequestedEvent

	id, _ := payload["account_id"].(string)
	if id == "" {
		return ev, nil, ErrAccountNotFound
	}
	ev.AccountID = id
	ev.Reason, _ = payload["reason"].(string)

	raw, ok := payload["window_start_date"].(string)
	if !ok || raw == "" {
		return ev, nil, nil
	}

	start, err := ParseDate(raw)
	if err != nil {
		return ev, nil, err
	}
	ev.WindowStartDate = &raw

	return ev, &start, nil
}
