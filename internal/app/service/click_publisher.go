package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shrinker-io/shrinker/internal/app/model"
	infraprometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ClickPublisher publishes click events to NATS JetStream. Dispatch is
// fire-and-forget: a failed enqueue loses one click record, which is
// preferable to delaying or failing a redirect.
type ClickPublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext, logger *zap.Logger) *ClickPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickPublisher{js: js, logger: logger}
}

// Dispatch hands the event to the stream on a separate goroutine so the
// caller never waits on the queue.
func (p *ClickPublisher) Dispatch(linkID int64, ip, userAgent string) {
	event := model.ClickEvent{
		ID:        uuid.New().String(),
		LinkID:    linkID,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now().UTC(),
	}

	go func() {
		if err := p.publish(event); err != nil {
			infraprometheus.ClicksPublishedTotal.WithLabelValues("error").Inc()
			p.logger.Error("failed to publish click event",
				zap.Int64("link_id", event.LinkID), zap.Error(err))
			return
		}
		infraprometheus.ClicksPublishedTotal.WithLabelValues("ok").Inc()
	}()
}

func (p *ClickPublisher) publish(event model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}

// EnsureClickStream creates the click stream if it does not exist yet. Both
// the server (publish side) and the worker (consume side) call this so
// either can start first.
func EnsureClickStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(model.ClickStreamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     model.ClickStreamName,
		Subjects: []string{model.ClickStreamSubject},
		MaxBytes: model.ClickStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("create click stream: %w", err)
	}
	return nil
}
