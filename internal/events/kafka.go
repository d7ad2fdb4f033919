package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher delivers events to a Kafka topic. Publishes are synchronous:
// the triggering operation does not return until the broker acknowledges, so
// an accepted operation and its notification commit together or not at all.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}

	admin := kadm.NewClient(client)
	topicDetails, err := admin.ListTopics(ctx, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if !topicDetails.Has(topic) {
		if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", topic, err)
		}
		logger.InfoContext(ctx, "created kafka topic", "topic", topic)
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish produces one record. Keyed by artifact id (falling back to property
// id) so all events for one artifact stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := event.ArtifactID.String()
	if event.ArtifactID.IsNil() {
		key = event.PropertyID.String()
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
