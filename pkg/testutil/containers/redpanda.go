//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a Kafka-compatible Redpanda broker.
type RedpandaContainer struct {
	Container *redpanda.Container
	Brokers   string
}

// NewRedpandaContainer starts a single Redpanda broker.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4",
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	brokers, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda seed broker: %v", err)
	}

	return &RedpandaContainer{Container: container, Brokers: brokers}
}

// CreateTopic creates topic with one partition.
func (r *RedpandaContainer) CreateTopic(ctx context.Context, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(r.Brokers))
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = kadm.NewClient(client).CreateTopic(ctx, 1, 1, nil, topic)
	return err
}

// Consume reads up to n records from topic starting at the earliest offset.
func (r *RedpandaContainer) Consume(ctx context.Context, topic string, n int) ([]*kgo.Record, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(r.Brokers),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var out []*kgo.Record
	for len(out) < n {
		fetches := client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fetches.EachRecord(func(rec *kgo.Record) {
			out = append(out, rec)
		})
	}
	return out, nil
}
