package repository

import (
	"context"

	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
	pkgkafka "StratCore/pkg/kafka"
)

// KafkaSignalPublisher implements SignalPublisher for Kafka. Signals
// and adjustment orders go to separate topics, keyed by pair so a
// pair's stream stays ordered within a partition.
type KafkaSignalPublisher struct {
	producer    *pkgkafka.Producer
	signalTopic string
	adjustTopic string
}

// NewKafkaSignalPublisher creates the Kafka-backed publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, signalTopic, adjustTopic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, signalTopic: signalTopic, adjustTopic: adjustTopic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.signalTopic, []byte(s.Pair), s)
}

func (p *KafkaSignalPublisher) PublishAdjustment(ctx context.Context, o *models.AdjustmentOrder) error {
	return p.producer.Publish(ctx, p.adjustTopic, []byte(o.Pair), o)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
