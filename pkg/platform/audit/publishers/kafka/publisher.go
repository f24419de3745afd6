// Package kafka publishes audit events to a Kafka topic using franz-go.
//
// Records are keyed by content ID when present so all events for one artifact
// land on the same partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "owndrob/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the publisher uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher emits audit events synchronously to a topic.
type Publisher struct {
	producer Producer
	topic    string
}

// New dials the brokers and returns a publisher for topic.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(5 * time.Millisecond),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{producer: client, topic: topic}, nil
}

// NewWithProducer wraps an existing producer.
func NewWithProducer(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := event.ContentID
	if key == "" {
		key = event.Subject
	}
	record := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(key),
		Value:     value,
		Timestamp: event.Timestamp,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.producer.Close()
	return nil
}
