package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/valuations/internal/domain"
)

// Handler processes one decoded event. eventpublisher.SyncDispatcher
// satisfies it.
type Handler interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Retry bounds for a message whose handler fails.
const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 30 * time.Second
)

// Consumer feeds messages from a topic to a Handler. Commits are cumulative
// per partition, so a failing message is retried in place until it succeeds
// or ctx ends; nothing after it is committed first.
type Consumer struct {
	reader     messageReader
	handler    Handler
	logger     zerolog.Logger
	newBackOff func() backoff.BackOff
}

// NewConsumer creates a consumer in the given group.
func NewConsumer(brokers []string, topic, groupID string, handler Handler, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		handler:    handler,
		logger:     logger,
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return b
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Msg("sync consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := c.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// process retries the handler on msg until it succeeds or ctx ends.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	attempt := 0

	return backoff.RetryNotify(func() error {
		attempt++
		return c.handle(ctx, msg)
	}, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
		c.logger.Error().
			Err(err).
			Str("key", string(msg.Key)).
			Int64("offset", msg.Offset).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("failed to handle message, retrying")
	})
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var m Message
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		// Undecodable messages can never succeed; skip them.
		c.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed message")
		return nil
	}

	return c.handler.Publish(ctx, m.event())
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
