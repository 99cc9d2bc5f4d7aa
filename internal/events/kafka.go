package events

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/UkralStul/trip-comments-service/internal/config"
	"github.com/goccy/go-json"
)

// Kafka публикует события в топик, ключ сообщения - id поездки,
// поэтому события одной поездки попадают в одну партицию по порядку.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

// NewSaramaConfig настраивает синхронного продюсера.
func NewSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	if cfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = cfg.Sasl.Username
		c.Net.SASL.Password = cfg.Sasl.Password
	}
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	return c
}

// DialKafka подключается к брокерам из конфигурации.
func DialKafka(cfg config.KafkaConfig) (*Kafka, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafka(producer, cfg.Topic), nil
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.TripID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
