package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-tracker/internal/config"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTopics = Topics{Items: "inventory.items", Sales: "inventory.sales"}

func TestKafkaPublisher_TopicAndEventType(t *testing.T) {
	publisher := &KafkaPublisher{topics: testTopics, logger: zap.NewNop()}

	cases := []struct {
		event     interface{}
		topic     string
		eventType string
	}{
		{ItemAddedEvent{ItemID: 1}, "inventory.items", "ItemAdded"},
		{ItemDeletedEvent{ItemID: 1}, "inventory.items", "ItemDeleted"},
		{QuantityAdjustedEvent{ItemID: 1}, "inventory.items", "QuantityAdjusted"},
		{SaleRecordedEvent{ItemID: 1}, "inventory.sales", "SaleRecorded"},
	}

	for _, tc := range cases {
		topic, err := publisher.topicFor(tc.event)
		require.NoError(t, err)
		assert.Equal(t, tc.topic, topic)
		assert.Equal(t, tc.eventType, EventType(tc.event))
	}

	_, err := publisher.topicFor("not an event")
	assert.Error(t, err)
	assert.Equal(t, "Unknown", EventType(42))
}

func TestKafkaPublisher_Publish_SaleRecorded(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got SaleRecordedEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.SaleID != 7 || got.RemainingQuantity != 6 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	publisher := NewKafkaPublisherWithProducer(producer, testTopics, zap.NewNop())
	defer publisher.Close()

	err := publisher.Publish(context.Background(), SaleRecordedEvent{
		SaleID:            7,
		ItemID:            1,
		QuantitySold:      4,
		RemainingQuantity: 6,
		OccurredAt:        time.Now(),
	})
	assert.NoError(t, err)
}

func TestKafkaPublisher_Publish_RetriesThenSucceeds(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndSucceed()

	publisher := NewKafkaPublisherWithProducer(producer, testTopics, zap.NewNop())
	publisher.backoff = time.Millisecond
	defer publisher.Close()

	err := publisher.Publish(context.Background(), ItemAddedEvent{ItemID: 1, Name: "Widget"})
	assert.NoError(t, err)
}

func TestKafkaPublisher_Publish_GivesUp(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	publisher := NewKafkaPublisherWithProducer(producer, testTopics, zap.NewNop())
	publisher.backoff = time.Millisecond
	defer publisher.Close()

	err := publisher.Publish(context.Background(), ItemDeletedEvent{ItemID: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestKafkaPublisher_Publish_UnknownEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewKafkaPublisherWithProducer(producer, testTopics, zap.NewNop())
	defer publisher.Close()

	err := publisher.Publish(context.Background(), struct{}{})
	assert.Error(t, err)
}

func TestProducerConfig_Acks(t *testing.T) {
	cfg := &config.Config{KafkaClientID: "inventory-tracker", KafkaRetries: 5, KafkaAcks: "all"}

	all := producerConfig(cfg)
	assert.Equal(t, sarama.WaitForAll, all.Producer.RequiredAcks)
	assert.True(t, all.Producer.Idempotent)
	assert.Equal(t, 5, all.Producer.Retry.Max)
	assert.Equal(t, "inventory-tracker", all.ClientID)
	assert.NoError(t, all.Validate())

	cfg.KafkaAcks = "1"
	local := producerConfig(cfg)
	assert.Equal(t, sarama.WaitForLocal, local.Producer.RequiredAcks)
	assert.False(t, local.Producer.Idempotent)
}

func TestInMemoryPublisher(t *testing.T) {
	publisher := NewInMemoryPublisher(zap.NewNop())

	require.NoError(t, publisher.Publish(context.Background(), ItemAddedEvent{ItemID: 1}))
	require.NoError(t, publisher.Publish(context.Background(), ItemDeletedEvent{ItemID: 1}))

	events := publisher.Events()
	require.Len(t, events, 2)
	assert.IsType(t, ItemAddedEvent{}, events[0])
	assert.IsType(t, ItemDeletedEvent{}, events[1])
	assert.NoError(t, publisher.Close())
}
