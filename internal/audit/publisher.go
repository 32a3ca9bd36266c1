// Package audit publishes one event per verification verdict to Kafka.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"docverify/internal/platform/kafka/producer"
	"docverify/internal/verification"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/requestcontext"
)

var (
	ErrBufferFull = errors.New("audit buffer is full")
	ErrClosed     = errors.New("audit publisher is closed")
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Publisher turns verdicts into audit events. In async mode events are queued
// and written by a background worker; otherwise PublishVerdict blocks on Kafka.
type Publisher struct {
	producer Producer
	topic    string
	hasher   *privacy.Hasher
	logger   *slog.Logger
	metrics  *Metrics

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithHasher sets the digest used for government IDs. Without one the ID is omitted.
func WithHasher(h *privacy.Hasher) Option {
	return func(p *Publisher) {
		p.hasher = h
	}
}

// WithMetrics exports dropped and failed event counts.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAsyncBuffer queues up to size events and writes them from a worker.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

// NewPublisher creates a Publisher writing to topic.
func NewPublisher(prod Producer, topic string, opts ...Option) (*Publisher, error) {
	if prod == nil {
		return nil, errors.New("producer is required")
	}
	if topic == "" {
		return nil, errors.New("audit topic is required")
	}
	p := &Publisher{
		producer: prod,
		topic:    topic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p, nil
}

// PublishVerdict records a decided verification.
func (p *Publisher) PublishVerdict(ctx context.Context, ev verification.VerdictEvent) error {
	event := p.toEvent(ctx, ev)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if p.queue == nil {
		return p.write(ctx, event)
	}
	select {
	case p.queue <- event:
		return nil
	default:
		p.dropped.Add(1)
		p.metrics.dropped()
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"verification_id", event.VerificationID,
			"dropped_total", p.dropped.Load(),
		)
		return ErrBufferFull
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting events and drains the queue.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.queue != nil {
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Publisher) toEvent(ctx context.Context, ev verification.VerdictEvent) Event {
	return Event{
		Type:               EventVerdictDecided,
		VerificationID:     ev.VerificationID.String(),
		RequestID:          requestcontext.RequestID(ctx),
		UserType:           string(ev.Category),
		Status:             ev.Status,
		Reason:             string(ev.Reason),
		Rule:               string(ev.Rule),
		GovernmentIDDigest: p.hasher.Digest(ev.GovernmentID),
		FaceDistance:       ev.FaceDistance,
		ClientIP:           anonymizedClientIP(ctx),
		Device:             DeviceLabel(requestcontext.UserAgent(ctx)),
		DecidedAt:          ev.DecidedAt,
		DurationMS:         ev.Duration.Milliseconds(),
	}
}

func (p *Publisher) write(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.VerificationID),
		Value: value,
		Headers: map[string]string{
			"event_type": event.Type,
		},
	}
	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func anonymizedClientIP(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		return ""
	}
	return privacy.AnonymizeIP(ip)
}
