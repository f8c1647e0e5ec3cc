package repository

import (
	"context"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/domain/repository"
)

// eventProducer is satisfied by *pkg/kafka.Producer.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAuditPublisher writes fetch events to a Kafka topic keyed by category,
// so events of one category stay ordered on one partition.
type KafkaAuditPublisher struct {
	producer eventProducer
	topic    string
}

// NewKafkaAuditPublisher creates a publisher on topic.
func NewKafkaAuditPublisher(producer eventProducer, topic string) repository.AuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) Publish(ctx context.Context, ev *models.FetchEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Category), ev)
}

func (p *KafkaAuditPublisher) Close() error {
	return p.producer.Close()
}

// NoopAuditPublisher drops events. Used when no brokers are configured.
type NoopAuditPublisher struct{}

func (NoopAuditPublisher) Publish(context.Context, *models.FetchEvent) error { return nil }

func (NoopAuditPublisher) Close() error { return nil }
