package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Reader is the part of *kafka.Reader the consumer drives.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Config struct {
	MaxAttempts int
	Backoff     time.Duration
}

type Consumer struct {
	reader  Reader
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
	cfg     Config
}

func New(logger *slog.Logger, reader Reader, inbox Inbox, cfg Config, handler Handler) *Consumer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
		cfg:     cfg,
	}
}

// Run consumes until ctx is cancelled. Offsets are committed after a message
// is handled or given up on.
func (c *Consumer) Run(ctx context.Context) {
	defer func() { _ = c.reader.Close() }()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			if !sleep(ctx, c.cfg.Backoff) {
				return
			}
			continue
		}

		c.Process(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "err", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// Process handles one message at most once per event id, retrying handler
// failures up to MaxAttempts.
func (c *Consumer) Process(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctx, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	ok, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return
	}

	for attempt := 1; ; attempt++ {
		err = c.handler(ctx, msg)
		if err == nil {
			return
		}
		c.logger.Warn("handler error", "err", err, "event_id", meta.EventID, "attempt", attempt)
		if attempt >= c.cfg.MaxAttempts || !sleep(ctx, c.cfg.Backoff*time.Duration(attempt)) {
			break
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Error("event dropped after retries", "err", err, "event_id", meta.EventID, "event_type", meta.EventType)
	if relErr := c.inbox.Release(context.WithoutCancel(ctx), meta.EventID); relErr != nil {
		c.logger.Error("inbox release failed", "err", relErr, "event_id", meta.EventID)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
