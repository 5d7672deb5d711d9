package eventpublisher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase"
)

func syncEvent(id, accountID, window string) *domain.OutboxEvent {
	var start *time.Time
	if window != "" {
		d, _ := domain.ParseDate(window)
		start = &d
	}
	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeSyncRequested,
		Payload:       domain.NewSyncRequestedEvent(accountID, start, domain.SyncReasonReconciliationCreated).Payload(),
	}
}

func TestDrainPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{syncEvent("evt-1", "acc-1", "2024-03-01")}}
	pub := &stubPublisher{}
	rec := &stubRecorder{}
	ep := newTestPublisher(repo, pub)
	ep.recorder = rec

	n, err := ep.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"evt-1"}, pub.ids())
	assert.Equal(t, []string{"evt-1"}, repo.marked)
	assert.Equal(t, 1, rec.ok)
	assert.Zero(t, rec.failed)
}

func TestDrainMergesRequestsPerAccount(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		syncEvent("evt-1", "acc-1", "2024-03-10"),
		syncEvent("evt-2", "acc-2", "2024-03-05"),
		syncEvent("evt-3", "acc-1", "2024-03-01"),
		syncEvent("evt-4", "acc-1", "2024-03-07"),
	}}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	n, err := ep.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, n, "every merged event is marked")
	assert.Equal(t, []string{"evt-3", "evt-2"}, pub.ids(), "earliest window leads, first-seen order kept")
	assert.ElementsMatch(t, []string{"evt-1", "evt-2", "evt-3", "evt-4"}, repo.marked)
}

func TestDrainFullResyncCoversWindows(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		syncEvent("evt-1", "acc-1", "2024-03-01"),
		syncEvent("evt-2", "acc-1", ""),
		syncEvent("evt-3", "acc-1", "2023-01-01"),
	}}
	pub := &stubPublisher{}

	_, err := newTestPublisher(repo, pub).Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"evt-2"}, pub.ids())
}

func TestDrainKeepsFailedGroupUnpublished(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		syncEvent("evt-1", "acc-1", "2024-03-01"),
		syncEvent("evt-2", "acc-2", "2024-03-01"),
		syncEvent("evt-3", "acc-1", "2024-03-02"),
	}}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("sync failed")}}
	rec := &stubRecorder{}
	ep := newTestPublisher(repo, pub)
	ep.recorder = rec

	n, err := ep.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"evt-2"}, repo.marked)
	assert.Equal(t, 2, rec.failed, "each merged event counts as failed")
	assert.Equal(t, 1, rec.ok)
}

func TestDrainDeliversOtherEventsAlone(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{
		{ID: "evt-1", AggregateID: "acc-1", EventType: "account.renamed"},
		{ID: "evt-2", AggregateID: "acc-1", EventType: "account.renamed"},
		{ID: "evt-3", AggregateID: "acc-1", EventType: domain.EventTypeSyncRequested, Payload: map[string]any{}},
	}}
	pub := &stubPublisher{}

	n, err := newTestPublisher(repo, pub).Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"evt-1", "evt-2", "evt-3"}, pub.ids())
}

func TestDrainRunsBatchesUntilEmpty(t *testing.T) {
	var events []*domain.OutboxEvent
	for i, acc := range []string{"a", "b", "c", "d", "e"} {
		events = append(events, syncEvent("evt-"+acc, "acc-"+acc, fmt.Sprintf("2024-03-%02d", i+1)))
	}
	repo := &stubOutboxRepo{events: events, consume: true}
	ep := newTestPublisher(repo, &stubPublisher{})
	ep.batchSize = 2

	n, err := ep.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Empty(t, repo.events)
}

func TestDrainFetchError(t *testing.T) {
	repo := &stubOutboxRepo{fetchErr: errors.New("connection refused")}

	_, err := newTestPublisher(repo, &stubPublisher{}).Drain(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestPurgeDeletesOldPublishedEvents(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})
	ep.retention = time.Hour
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	ep.now = func() time.Time { return now }

	ep.purge(context.Background())

	require.NotNil(t, repo.purgedBefore)
	assert.True(t, repo.purgedBefore.Equal(now.Add(-time.Hour)))
}

func TestPurgeDisabledWithoutRetention(t *testing.T) {
	repo := &stubOutboxRepo{}

	newTestPublisher(repo, &stubPublisher{}).purge(context.Background())

	assert.Nil(t, repo.purgedBefore)
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	ep := newTestPublisher(&stubOutboxRepo{}, &stubPublisher{})
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ep.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisherAcceptsPayload(t *testing.T) {
	p := NewLogPublisher(zerolog.Nop())

	assert.NoError(t, p.Publish(context.Background(), syncEvent("evt-1", "acc-1", "2024-03-01")))
}

func newTestPublisher(repo *stubOutboxRepo, pub Publisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events       []*domain.OutboxEvent
	consume      bool
	fetchErr     error
	marked       []string
	purgedBefore *time.Time
}

func (s *stubOutboxRepo) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	n := min(limit, len(s.events))
	batch := append([]*domain.OutboxEvent(nil), s.events[:n]...)
	if s.consume {
		s.events = s.events[n:]
	}
	return batch, nil
}

func (s *stubOutboxRepo) MarkPublished(_ context.Context, _ time.Time, ids ...string) (int64, error) {
	s.marked = append(s.marked, ids...)
	return int64(len(ids)), nil
}

func (s *stubOutboxRepo) GetByAggregate(context.Context, string, string, int, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (s *stubOutboxRepo) DeletePublished(_ context.Context, before time.Time) error {
	s.purgedBefore = &before
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubPublisher) ids() []string {
	ids := make([]string, 0, len(s.published))
	for _, ev := range s.published {
		ids = append(ids, ev.ID)
	}
	return ids
}

type stubRecorder struct {
	ok, failed int
}

func (s *stubRecorder) RecordEventPublished(_ string, ok bool) {
	if ok {
		s.ok++
		return
	}
	s.failed++
}
