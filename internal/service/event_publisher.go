package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/pkg/kafka"
	"github.com/prohmpiriya/webinar-service/pkg/telemetry"
)

// EventPublisher defines the interface for publishing webinar events
type EventPublisher interface {
	// PublishSeatsChanged publishes a seats changed event
	PublishSeatsChanged(ctx context.Context, event *domain.SeatsChangedEvent) error

	// Close closes the event publisher
	Close() error
}

// DefaultPublishTimeout bounds one event publish, including broker retries
const DefaultPublishTimeout = 3 * time.Second

// MessageProducer is the part of kafka.Producer the publisher needs
type MessageProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string, at time.Time) error
	HealthCheck(ctx context.Context) error
	Close()
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer       MessageProducer
	topic          string
	serviceName    string
	publishTimeout time.Duration
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
	// PublishTimeout caps each publish; the write it reports on is already committed
	PublishTimeout time.Duration
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "webinar-service-producer"
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:         cfg.Brokers,
		ClientID:        clientID,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		BatchSize:       100,
		LingerMs:        10,
		RecordRetries:   5,
		DeliveryTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := NewKafkaEventPublisherWithProducer(producer, cfg.Topic, cfg.ServiceName)
	p.publishTimeout = timeout
	return p, nil
}

// NewKafkaEventPublisherWithProducer builds a publisher on an existing producer
func NewKafkaEventPublisherWithProducer(producer MessageProducer, topic, serviceName string) *KafkaEventPublisher {
	if topic == "" {
		topic = "webinar.seats-changed"
	}
	if serviceName == "" {
		serviceName = "webinar-service"
	}
	return &KafkaEventPublisher{
		producer:       producer,
		topic:          topic,
		serviceName:    serviceName,
		publishTimeout: DefaultPublishTimeout,
	}
}

// PublishSeatsChanged publishes a seats changed event keyed by webinar id.
// The publish outlives a cancelled request but never runs past publishTimeout.
func (p *KafkaEventPublisher) PublishSeatsChanged(ctx context.Context, event *domain.SeatsChangedEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "kafka.publish.seats_changed")
	defer span.End()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.publishTimeout)
	defer cancel()

	headers := telemetry.InjectMap(ctx)
	headers["event_type"] = event.EventType
	headers["event_id"] = event.EventID
	headers["source"] = p.serviceName
	headers["content_type"] = "application/json"

	if err := p.producer.ProduceJSON(ctx, p.topic, event.WebinarID, event, headers, event.OccurredAt); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}
	return nil
}

// HealthCheck reports whether the broker is reachable
func (p *KafkaEventPublisher) HealthCheck(ctx context.Context) error {
	return p.producer.HealthCheck(ctx)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpEventPublisher is used when Kafka is disabled
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishSeatsChanged(ctx context.Context, event *domain.SeatsChangedEvent) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
