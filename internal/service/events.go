package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonredis "lookup-values/common/redis"
	"lookup-values/internal/domain"

	"go.uber.org/zap"
)

// Event types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// LookupValueEvent is emitted after a lookup value write has been committed.
type LookupValueEvent struct {
	Type       string    `json:"type"`
	UUID       string    `json:"uuid"`
	LookupUUID string    `json:"lookup_uuid"`
	LookupCode string    `json:"lookup_code"`
	At         time.Time `json:"at"`
}

// NewLookupValueEvent builds an event for v.
func NewLookupValueEvent(eventType string, v *domain.LookupValue) LookupValueEvent {
	return LookupValueEvent{
		Type:       eventType,
		UUID:       v.UUID,
		LookupUUID: v.LookupUUID,
		LookupCode: v.LookupCode,
		At:         time.Now().UTC(),
	}
}

// EventPublisher delivers committed change events.
type EventPublisher interface {
	Publish(ctx context.Context, event LookupValueEvent) error
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LookupValueEvent) error { return nil }

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *commonredis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher writing to stream.
func NewRedisStreamPublisher(client *commonredis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends the event as a JSON "data" field.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event LookupValueEvent) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, event); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// MessagePublisher is the part of the MQTT client the publisher needs.
type MessagePublisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTPublisher publishes events as JSON to one topic.
type MQTTPublisher struct {
	client MessagePublisher
	topic  string
}

// NewMQTTPublisher creates a publisher for topic.
func NewMQTTPublisher(client MessagePublisher, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

func (p *MQTTPublisher) Publish(_ context.Context, event LookupValueEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(p.topic, false, payload)
}

// MultiPublisher fans out to every publisher and reports the first error.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event LookupValueEvent) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoggingPublisher logs publish failures instead of returning them; the
// write the event describes is already committed.
type LoggingPublisher struct {
	next   EventPublisher
	logger *zap.Logger
}

// NewLoggingPublisher wraps next.
func NewLoggingPublisher(next EventPublisher, logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{next: next, logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event LookupValueEvent) error {
	if err := p.next.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish lookup value event",
			zap.String("type", event.Type),
			zap.String("uuid", event.UUID),
			zap.Error(err),
		)
	}
	return nil
}
