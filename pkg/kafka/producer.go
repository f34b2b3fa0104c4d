package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/prohmpiriya/webinar-service/pkg/retry"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers  []string
	ClientID string

	// Connection retry
	MaxRetries    int
	RetryInterval time.Duration

	// Batching
	BatchSize int
	LingerMs  int

	// RecordRetries and DeliveryTimeout bound how long a record is retried
	// before its produce call fails. Zero keeps the franz-go default (unbounded).
	RecordRetries   int
	DeliveryTimeout time.Duration
}

// Message is a record to be produced
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Producer wraps a franz-go client for synchronous produce
type Producer struct {
	client *kgo.Client
	config *ProducerConfig
}

// NewProducer creates a producer and waits until a broker answers
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.LingerMs > 0 {
		opts = append(opts, kgo.ProducerLinger(time.Duration(cfg.LingerMs)*time.Millisecond))
	}
	if cfg.BatchSize > 0 {
		opts = append(opts, kgo.MaxBufferedRecords(cfg.BatchSize))
	}
	if cfg.RecordRetries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.RecordRetries))
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	result := retry.Do(ctx, &retry.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: interval,
		MaxInterval:     4 * interval,
		Multiplier:      2.0,
	}, client.Ping)
	if result.Err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to kafka after %d attempts: %w", result.Attempts, result.Err)
	}

	return &Producer{client: client, config: cfg}, nil
}

// Produce writes msg and waits for the broker acknowledgement
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	record := &kgo.Record{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// ProduceJSON marshals value and produces it under key. A zero at is
// replaced with the current time.
func (p *Producer) ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string, at time.Time) error {
	msg, err := NewJSONMessage(topic, key, value, headers, at)
	if err != nil {
		return err
	}
	return p.Produce(ctx, msg)
}

// NewJSONMessage builds the record ProduceJSON sends
func NewJSONMessage(topic, key string, value interface{}, headers map[string]string, at time.Time) (*Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if at.IsZero() {
		at = time.Now()
	}
	return &Message{
		Topic:     topic,
		Key:       []byte(key),
		Value:     data,
		Headers:   headers,
		Timestamp: at,
	}, nil
}

// HealthCheck pings the cluster
func (p *Producer) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return nil
}

// Close flushes pending records and closes the client
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
