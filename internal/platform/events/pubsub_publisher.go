package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/avast/retry-go/v4"

	domain "github.com/quantum-portal/api/internal/domain"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
)

// ContentChangedMessage is the JSON payload published for every content mutation.
type ContentChangedMessage struct {
	TenantID   string    `json:"tenantId"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId"`
	Slug       string    `json:"slug,omitempty"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

type publishFunc func(ctx context.Context, msg *pubsub.Message) (string, error)

// PubSubPublisher publishes content change events to a Pub/Sub topic, retrying transient failures.
type PubSubPublisher struct {
	publish  publishFunc
	marshal  func(any) ([]byte, error)
	attempts uint
	delay    time.Duration
}

// Option customises the publisher.
type Option func(*PubSubPublisher)

// WithRetry overrides the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(p *PubSubPublisher) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if delay >= 0 {
			p.delay = delay
		}
	}
}

// NewPubSubPublisher constructs a publisher bound to topic.
func NewPubSubPublisher(topic *pubsub.Topic, opts ...Option) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("content event publisher: topic is required")
	}
	return newPublisher(func(ctx context.Context, msg *pubsub.Message) (string, error) {
		return topic.Publish(ctx, msg).Get(ctx)
	}, opts...), nil
}

func newPublisher(publish publishFunc, opts ...Option) *PubSubPublisher {
	p := &PubSubPublisher{
		publish:  publish,
		marshal:  json.Marshal,
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// PublishContentChanged sends the event and returns the last error once every attempt failed.
func (p *PubSubPublisher) PublishContentChanged(ctx context.Context, event domain.ContentChanged) error {
	if p == nil || p.publish == nil {
		return errors.New("content event publisher: not initialised")
	}

	data, err := p.marshal(ContentChangedMessage{
		TenantID:   event.TenantID,
		Resource:   event.Resource,
		ResourceID: event.ResourceID,
		Slug:       event.Slug,
		Action:     string(event.Action),
		OccurredAt: event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal content event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "tenantId", event.TenantID)
	setAttr(attrs, "resource", event.Resource)
	setAttr(attrs, "resourceId", event.ResourceID)
	setAttr(attrs, "action", string(event.Action))

	err = retry.Do(
		func() error {
			_, err := p.publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("publish content event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
