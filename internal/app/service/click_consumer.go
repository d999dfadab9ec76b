package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shrinker-io/shrinker/internal/app/model"
	infraprometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	"go.uber.org/zap"
)

// errMalformedClick marks payloads redelivery can never fix; the consumer
// terminates those instead of Nak'ing them into a redelivery loop.
var errMalformedClick = errors.New("malformed click event")

// clickRecorder is the slice of the click repository the consumer needs.
type clickRecorder interface {
	Record(ctx context.Context, event *model.ClickEvent) error
}

// ClickConsumer pulls click events from JetStream and records them.
// Delivery is at-least-once (durable consumer, explicit acks): a job whose
// store write fails is Nak'd and redelivered, and a redelivered job
// double-counts the visit. The event id would support dedup if that ever
// matters. Payloads that cannot parse are terminated, not redelivered.
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   clickRecorder
}

// NewClickConsumer creates a new click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, repo clickRecorder) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{js: js, logger: logger, repo: repo}
}

// Start bootstraps the stream and durable consumer, then consumes until
// ctx is cancelled.
func (c *ClickConsumer) Start(ctx context.Context, batchSize int, fetchWait time.Duration) error {
	if err := EnsureClickStream(c.js); err != nil {
		return err
	}

	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("create click consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("subscribe to click stream: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 10
	}

	go c.consume(ctx, sub, batchSize, fetchWait)
	return nil
}

func (c *ClickConsumer) consume(ctx context.Context, sub *nats.Subscription, batchSize int, fetchWait time.Duration) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(batchSize, nats.MaxWait(fetchWait))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch click events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.process(ctx, msg.Data); err != nil {
				if errors.Is(err, errMalformedClick) {
					c.logger.Error("dropping malformed click event", zap.Error(err))
					_ = msg.Term()
					continue
				}
				// Leave the job to the queue's redelivery policy; the
				// worker itself must keep running.
				c.logger.Error("failed to process click event", zap.Error(err))
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}
}

// process decodes one job and records it transactionally.
func (c *ClickConsumer) process(ctx context.Context, data []byte) error {
	var event model.ClickEvent
	if err := json.Unmarshal(data, &event); err != nil {
		infraprometheus.ClicksRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", errMalformedClick, err)
	}
	if event.ID == "" || event.LinkID == 0 {
		infraprometheus.ClicksRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: missing id or link_id", errMalformedClick)
	}

	if err := c.repo.Record(ctx, &event); err != nil {
		infraprometheus.ClicksRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record click event: %w", err)
	}

	infraprometheus.ClicksRecordedTotal.WithLabelValues("ok").Inc()
	c.logger.Debug("click event recorded",
		zap.String("id", event.ID),
		zap.Int64("link_id", event.LinkID),
		zap.String("ip", event.IP),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
