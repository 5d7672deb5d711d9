package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/infrastructure/config"
	"github.com/iho/valuations/internal/infrastructure/eventpublisher"
	"github.com/iho/valuations/internal/infrastructure/kafka"
)

type noopSyncer struct{}

func (noopSyncer) SyncAccount(ctx context.Context, accountID string, windowStart *time.Time) error {
	return nil
}

func TestNewSyncPublisher(t *testing.T) {
	base := config.Config{
		KafkaBrokers:   []string{"localhost:9092"},
		KafkaSyncTopic: "account-sync-requests",
	}

	t.Run("local dispatches in process", func(t *testing.T) {
		cfg := base
		cfg.SyncDispatch = config.SyncDispatchLocal

		pub, workers, closeFn, err := newSyncPublisher(&cfg, noopSyncer{}, zerolog.Nop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := pub.(*eventpublisher.SyncDispatcher); !ok {
			t.Fatalf("expected *SyncDispatcher, got %T", pub)
		}
		if len(workers) != 0 {
			t.Fatalf("expected no workers, got %d", len(workers))
		}
		if err := closeFn(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	})

	t.Run("log only logs", func(t *testing.T) {
		cfg := base
		cfg.SyncDispatch = config.SyncDispatchLog

		pub, _, _, err := newSyncPublisher(&cfg, noopSyncer{}, zerolog.Nop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := pub.(*eventpublisher.LogPublisher); !ok {
			t.Fatalf("expected *LogPublisher, got %T", pub)
		}
	})

	t.Run("kafka adds a consumer", func(t *testing.T) {
		cfg := base
		cfg.SyncDispatch = config.SyncDispatchKafka

		pub, workers, closeFn, err := newSyncPublisher(&cfg, noopSyncer{}, zerolog.Nop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeFn()

		if _, ok := pub.(*kafka.Publisher); !ok {
			t.Fatalf("expected *kafka.Publisher, got %T", pub)
		}
		if len(workers) != 1 || workers[0].name != "sync consumer" {
			t.Fatalf("expected the sync consumer worker, got %+v", workers)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := base
		cfg.SyncDispatch = "carrier-pigeon"

		if _, _, _, err := newSyncPublisher(&cfg, noopSyncer{}, zerolog.Nop()); err == nil {
			t.Fatalf("expected an error for an unknown mode")
		}
	})
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- every(ctx, time.Millisecond, func() {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("every did not stop after cancellation")
	}

	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 calls, got %d", calls.Load())
	}
}

func TestServerAddr(t *testing.T) {
	if got := serverAddr(&config.Config{HTTPPort: "8080"}); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}
}
