package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"inventory-tracker/internal/config"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Topics maps event families to Kafka topics.
type Topics struct {
	Items string
	Sales string
}

// KafkaPublisher implements Publisher on a sarama SyncProducer.
type KafkaPublisher struct {
	producer   sarama.SyncProducer
	topics     Topics
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewKafkaPublisher connects a sync producer to cfg.KafkaBrokers.
func NewKafkaPublisher(cfg *config.Config, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, producerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaPublisherWithProducer(producer, Topics{
		Items: cfg.KafkaTopicItems,
		Sales: cfg.KafkaTopicSales,
	}, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topics Topics, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer:   producer,
		topics:     topics,
		logger:     logger,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}
}

func producerConfig(cfg *config.Config) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = cfg.KafkaClientID
	config.Version = sarama.V2_1_0_0
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = cfg.KafkaRetries

	switch cfg.KafkaAcks {
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		// Idempotence requires acks=all and a single in-flight request.
		config.Producer.RequiredAcks = sarama.WaitForAll
		config.Producer.Idempotent = true
		config.Net.MaxOpenRequests = 1
	}
	return config
}

// Publish sends the event, retrying with exponential backoff.
func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	topic, err := p.topicFor(event)
	if err != nil {
		return fmt.Errorf("failed to determine topic: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	eventType := EventType(event)
	message := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(eventType)},
			{Key: []byte("event-id"), Value: []byte(uuid.New().String())},
			{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}
	// Keep every event of one item on the same partition
	if id, ok := itemIDOf(event); ok {
		message.Key = sarama.StringEncoder(strconv.FormatInt(id, 10))
	}

	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		partition, offset, err := p.producer.SendMessage(message)
		if err == nil {
			p.logger.Info("Event published to Kafka",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Int64("offset", offset),
				zap.String("event_type", eventType),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}

		p.logger.Warn("Failed to publish event to Kafka, retrying",
			zap.String("topic", topic),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", p.maxRetries),
		)

		if attempt < p.maxRetries-1 {
			delay := p.backoff * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("failed to publish %s event to Kafka after %d attempts", eventType, p.maxRetries)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func (p *KafkaPublisher) topicFor(event interface{}) (string, error) {
	switch event.(type) {
	case ItemAddedEvent, ItemDeletedEvent, QuantityAdjustedEvent:
		return p.topics.Items, nil
	case SaleRecordedEvent:
		return p.topics.Sales, nil
	default:
		return "", fmt.Errorf("unknown event type: %T", event)
	}
}
