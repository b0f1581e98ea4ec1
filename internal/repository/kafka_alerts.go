package repository

import (
	"context"
	"fmt"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/kafka"
)

// DefaultAlertsTopic is the event bus topic alerts are published to.
const DefaultAlertsTopic = "copenny.alerts"

// KafkaAlertPublisher emits alert events onto the Kafka bus, keyed by
// user id so per-user ordering is preserved.
type KafkaAlertPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates the publisher.
func NewKafkaAlertPublisher(producer *kafka.Producer, topic string) *KafkaAlertPublisher {
	if topic == "" {
		topic = DefaultAlertsTopic
	}
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

// Publish sends one alert event.
func (p *KafkaAlertPublisher) Publish(ctx context.Context, a *models.Alert) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(a.UserID), a); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying producer.
func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}
