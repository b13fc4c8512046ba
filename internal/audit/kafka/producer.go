// Package kafka relays committed audit events to a Kafka topic for
// external indexers. Records are keyed by product id so per-product
// ordering survives partitioning; cross-product global order is carried
// by the Seq field inside the payload.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	id "custos/pkg/domain"
)

// Producer publishes audit event payloads to one topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists. Partitions
// and replication follow the broker defaults (-1).
func New(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	// TOPIC_ALREADY_EXISTS is the steady state on restart.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, resp.Err)
	}

	return &Producer{client: client, topic: topic}, nil
}

// Publish produces one event payload synchronously. The caller marks
// the outbox row published only after this returns nil.
func (p *Producer) Publish(ctx context.Context, productID id.ProductID, payload []byte) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(productID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
