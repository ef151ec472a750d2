package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Publisher publishes inventory domain events. Publishing happens after the
// change is committed; callers log failures instead of undoing the change.
type Publisher interface {
	Publish(ctx context.Context, event interface{}) error
	Close() error
}

type ItemAddedEvent struct {
	ItemID     int64     `json:"item_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Cost       string    `json:"cost"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ItemDeletedEvent struct {
	ItemID     int64     `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// QuantityAdjustedEvent is a manual stock correction; no sale is involved.
type QuantityAdjustedEvent struct {
	ItemID     int64     `json:"item_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SaleRecordedEvent struct {
	SaleID            int64     `json:"sale_id"`
	ItemID            int64     `json:"item_id"`
	QuantitySold      int       `json:"quantity_sold"`
	RemainingQuantity int       `json:"remaining_quantity"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// EventType returns the name carried in the event-type header.
func EventType(event interface{}) string {
	switch event.(type) {
	case ItemAddedEvent:
		return "ItemAdded"
	case ItemDeletedEvent:
		return "ItemDeleted"
	case QuantityAdjustedEvent:
		return "QuantityAdjusted"
	case SaleRecordedEvent:
		return "SaleRecorded"
	default:
		return "Unknown"
	}
}

func itemIDOf(event interface{}) (int64, bool) {
	switch e := event.(type) {
	case ItemAddedEvent:
		return e.ItemID, true
	case ItemDeletedEvent:
		return e.ItemID, true
	case QuantityAdjustedEvent:
		return e.ItemID, true
	case SaleRecordedEvent:
		return e.ItemID, true
	}
	return 0, false
}

// InMemoryPublisher keeps events in memory. Used when Kafka is disabled and in tests.
type InMemoryPublisher struct {
	mu     sync.Mutex
	logger *zap.Logger
	events []interface{}
}

func NewInMemoryPublisher(logger *zap.Logger) *InMemoryPublisher {
	return &InMemoryPublisher{
		logger: logger,
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	p.logger.Debug("Event published (in-memory)",
		zap.String("event_type", EventType(event)),
		zap.Any("event", event),
	)
	return nil
}

// Events returns a copy of everything published so far.
func (p *InMemoryPublisher) Events() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]interface{}, len(p.events))
	copy(out, p.events)
	return out
}

func (p *InMemoryPublisher) Close() error {
	return nil
}
