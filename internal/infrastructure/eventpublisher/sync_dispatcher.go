package eventpublisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/domain"
)

// AccountSyncer recomputes an account balance. *usecase.SyncUseCase
// satisfies it.
type AccountSyncer interface {
	SyncAccount(ctx context.Context, accountID string, windowStart *time.Time) error
}

// SyncDispatcher is a Publisher that runs sync requests in process.
type SyncDispatcher struct {
	syncer AccountSyncer
	logger zerolog.Logger
}

// NewSyncDispatcher creates a new SyncDispatcher.
func NewSyncDispatcher(syncer AccountSyncer, logger zerolog.Logger) *SyncDispatcher {
	return &SyncDispatcher{syncer: syncer, logger: logger}
}

// Publish handles account.sync_requested events and ignores everything else.
func (d *SyncDispatcher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if event.EventType != domain.EventTypeSyncRequested {
		d.logger.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}

	ev, window, err := domain.ParseSyncRequestedEvent(event.Payload)
	if err != nil {
		return fmt.Errorf("decode sync request %s: %w", event.ID, err)
	}

	err = d.syncer.SyncAccount(ctx, ev.AccountID, window)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Account deleted since the request was queued.
		d.logger.Warn().Str("account_id", ev.AccountID).Msg("dropping sync request for missing account")
		return nil
	}

	return err
}
