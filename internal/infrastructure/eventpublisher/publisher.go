package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 5 * time.Second
)

// Publisher delivers one outbox event. It must be safe to call again with
// the same event; delivery is at least once.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Recorder receives publish outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordEventPublished(eventType string, ok bool)
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Recorder   Recorder
	Logger     zerolog.Logger
	BatchSize  int
	Interval   time.Duration
	// Retention is how long published events are kept. Zero keeps them.
	Retention time.Duration
}

// EventPublisher polls the outbox and hands pending sync requests to a
// Publisher. Requests for the same account within one batch are merged, so
// a burst of reconciliations costs a single recomputation.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	recorder   Recorder
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
	now        func() time.Time
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        time.Now,
	}
}

// Start drains the outbox every interval until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	for {
		if _, err := ep.Drain(ctx); err != nil && ctx.Err() == nil {
			ep.logger.Error().Err(err).Msg("error processing outbox")
		}
		ep.purge(ctx)

		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain processes batches until the outbox holds nothing publishable or a
// batch makes no progress. It returns how many events were marked published.
func (ep *EventPublisher) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, fetched, err := ep.processBatch(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 || fetched < ep.batchSize {
			return total, nil
		}
	}
}

// processBatch publishes one batch and returns how many events were marked
// and how many were fetched.
func (ep *EventPublisher) processBatch(ctx context.Context) (int, int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, 0, err
	}
	if len(events) == 0 {
		return 0, 0, nil
	}

	groups := coalesce(events)
	ep.logger.Debug().
		Int("events", len(events)).
		Int("deliveries", len(groups)).
		Msg("processing outbox batch")

	marked := 0
	for _, g := range groups {
		err := ep.publisher.Publish(ctx, g.lead)
		if ep.recorder != nil {
			for _, ev := range g.events {
				ep.recorder.RecordEventPublished(ev.EventType, err == nil)
			}
		}
		if err != nil {
			// Left unpublished; the next tick retries the whole group.
			ep.logger.Error().
				Err(err).
				Str("event_id", g.lead.ID).
				Str("event_type", g.lead.EventType).
				Str("account_id", g.lead.AggregateID).
				Int("merged", len(g.events)).
				Msg("failed to publish event")
			continue
		}

		ids := make([]string, len(g.events))
		for i, ev := range g.events {
			ids[i] = ev.ID
		}
		n, err := ep.outboxRepo.MarkPublished(ctx, ep.now(), ids...)
		if err != nil {
			ep.logger.Error().Err(err).Strs("event_ids", ids).Msg("failed to mark events as published")
			continue
		}
		marked += int(n)
	}

	return marked, len(events), nil
}

func (ep *EventPublisher) purge(ctx context.Context) {
	if ep.retention <= 0 {
		return
	}

	if err := ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention)); err != nil {
		ep.logger.Warn().Err(err).Msg("failed to purge published events")
	}
}

// delivery is a set of outbox events satisfied by publishing lead.
type delivery struct {
	lead   *domain.OutboxEvent
	events []*domain.OutboxEvent
}

// coalesce merges sync requests for the same account, keeping the one with
// the earliest window as lead. A missing window means a full resync and
// covers every other request. Other event types and payloads that fail to
// decode are delivered on their own. Order of first appearance is kept.
func coalesce(events []*domain.OutboxEvent) []*delivery {
	var out []*delivery
	byAccount := make(map[string]*delivery)
	windows := make(map[*domain.OutboxEvent]*time.Time)

	for _, ev := range events {
		if ev.EventType != domain.EventTypeSyncRequested {
			out = append(out, &delivery{lead: ev, events: []*domain.OutboxEvent{ev}})
			continue
		}
		_, window, err := domain.ParseSyncRequestedEvent(ev.Payload)
		if err != nil {
			out = append(out, &delivery{lead: ev, events: []*domain.OutboxEvent{ev}})
			continue
		}
		windows[ev] = window

		d, ok := byAccount[ev.AggregateID]
		if !ok {
			d = &delivery{lead: ev}
			byAccount[ev.AggregateID] = d
			out = append(out, d)
		} else if wider(window, windows[d.lead]) {
			d.lead = ev
		}
		d.events = append(d.events, ev)
	}

	return out
}

// wider reports whether window a reaches further back than b.
func wider(a, b *time.Time) bool {
	if b == nil {
		return false
	}
	return a == nil || a.Before(*b)
}

// LogPublisher writes sync requests to the log instead of acting on them.
// It backs SYNC_DISPATCH=log for read-only replicas and debugging.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event with its payload.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("account_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("sync request logged")

	return nil
}
