package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"docverify/internal/platform/config"
)

// Message represents a message to be published to Kafka.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer wraps the franz-go client with a simpler interface.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// New creates a new Kafka producer.
func New(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	var acks kgo.Acks
	switch cfg.Acks {
	case "0":
		acks = kgo.NoAck()
	case "1":
		acks = kgo.LeaderAck()
	default:
		acks = kgo.AllISRAcks()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.RequiredAcks(acks),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	// Idempotent writes require acks=all.
	if cfg.Acks == "0" || cfg.Acks == "1" {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger,
	}, nil
}

// Produce sends a message to Kafka synchronously.
// It waits for the delivery report before returning.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("producer is closed")
	}

	results := p.client.ProduceSync(ctx, toRecord(msg))
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}
	return nil
}

func toRecord(msg *Message) *kgo.Record {
	headers := make([]kgo.RecordHeader, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return &kgo.Record{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// Close flushes buffered records and shuts down the producer.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.client.Flush(ctx); err != nil && p.logger != nil {
		p.logger.Warn("kafka producer closed with unflushed messages",
			"error", err,
		)
	}

	p.client.Close()
	return nil
}

// Health pings the brokers.
func (p *Producer) Health(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("producer is closed")
	}
	return p.client.Ping(ctx)
}

// NewNoopProducer creates a producer that discards all messages.
// Used when Kafka is not configured.
func NewNoopProducer() *NoopProducer {
	return &NoopProducer{}
}

// NoopProducer is a producer that discards all messages.
type NoopProducer struct{}

// Produce discards the message.
func (p *NoopProducer) Produce(ctx context.Context, msg *Message) error {
	return nil
}

// Close is a no-op.
func (p *NoopProducer) Close() error {
	return nil
}

// Health always succeeds.
func (p *NoopProducer) Health(ctx context.Context) error {
	return nil
}
