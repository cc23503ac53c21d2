package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
)

// AlertProducer publishes screening alerts for analyst review
type AlertProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewAlertProducer(cfg config.KafkaConfig) (*AlertProducer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 5
	if cfg.EnableIdempotent {
		config.Producer.Idempotent = true
		config.Net.MaxOpenRequests = 1
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert producer: %w", err)
	}
	return NewAlertProducerWith(producer, cfg.AlertTopic), nil
}

// NewAlertProducerWith wraps an existing producer
func NewAlertProducerWith(producer sarama.SyncProducer, topic string) *AlertProducer {
	return &AlertProducer{producer: producer, topic: topic}
}

// PublishAlert sends alert keyed by the client's external ID, or the record
// ID when there is none, so alerts of one client stay ordered
func (p *AlertProducer) PublishAlert(_ context.Context, alert *domain.ScreeningAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	key := alert.ExternalID
	if key == "" {
		key = alert.RecordID.String()
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("recommendation"), Value: []byte(alert.Recommendation)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert %s: %w", alert.AlertID, err)
	}
	return nil
}

func (p *AlertProducer) Close() error {
	return p.producer.Close()
}
