package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inventory-tracker/internal/domain"
	"inventory-tracker/internal/events"
	"inventory-tracker/internal/metrics"
	"inventory-tracker/internal/repository"
	"inventory-tracker/pkg/middleware"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService enforces the inventory rules on top of a Store. It is the
// only place where input is validated, so it is safe to call directly.
//
// Every returned error is a *domain.DomainError; store and driver errors are
// translated before they leave the service.
type InventoryService struct {
	store     repository.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*InventoryService)

func WithPublisher(p events.Publisher) Option {
	return func(s *InventoryService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *InventoryService) { s.metrics = m }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) { s.now = now }
}

func NewInventoryService(store repository.Store, logger *zap.Logger, opts ...Option) *InventoryService {
	s := &InventoryService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem creates a new item. The name is trimmed before it is stored.
func (s *InventoryService) AddItem(ctx context.Context, name string, quantity int, cost decimal.Decimal) (item *domain.Item, err error) {
	defer s.observe("add_item", &err)

	name = strings.TrimSpace(name)
	if err := domain.ValidateNewItem(name, quantity, cost); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	id, err := s.store.InsertItem(ctx, name, quantity, cost, at)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, domain.NewDuplicateItemError(name)
		}
		return nil, s.storeError(ctx, "add item", err)
	}

	item = &domain.Item{
		ID:         id,
		Name:       name,
		Quantity:   quantity,
		Cost:       cost,
		LastUpdate: at,
	}

	s.log(ctx).Info("Item added",
		zap.Int64("item_id", id),
		zap.String("name", name),
		zap.Int("quantity", quantity),
		zap.String("cost", cost.String()),
	)
	s.publish(ctx, events.ItemAddedEvent{
		ItemID:     id,
		Name:       name,
		Quantity:   quantity,
		Cost:       cost.String(),
		OccurredAt: at,
	})
	return item, nil
}

// RecordSale removes quantitySold units from an item and appends a sale. The
// stock check, the sale insert and the quantity update share one transaction.
func (s *InventoryService) RecordSale(ctx context.Context, itemID int64, quantitySold int) (receipt *domain.SaleReceipt, err error) {
	defer s.observe("record_sale", &err)

	if err := domain.ValidateSaleQuantity(quantitySold); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		item, err := tx.FetchItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				return domain.NewNotFoundError(itemID)
			}
			return err
		}

		if !item.CanSell(quantitySold) {
			return domain.NewInsufficientStockError(item.Quantity, quantitySold)
		}

		saleID, err := tx.InsertSale(ctx, itemID, quantitySold, at)
		if err != nil {
			return err
		}

		remaining := item.Quantity - quantitySold
		if err := tx.UpdateItemQuantity(ctx, itemID, remaining, at); err != nil {
			return err
		}

		receipt = &domain.SaleReceipt{
			Sale: domain.Sale{
				ID:           saleID,
				ItemID:       itemID,
				QuantitySold: quantitySold,
				SaleDate:     at,
			},
			RemainingQuantity: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "record sale", err)
	}

	s.metrics.AddUnitsSold(quantitySold)
	s.log(ctx).Info("Sale recorded",
		zap.Int64("sale_id", receipt.ID),
		zap.Int64("item_id", itemID),
		zap.Int("quantity_sold", quantitySold),
		zap.Int("remaining", receipt.RemainingQuantity),
	)
	s.publish(ctx, events.SaleRecordedEvent{
		SaleID:            receipt.ID,
		ItemID:            itemID,
		QuantitySold:      quantitySold,
		RemainingQuantity: receipt.RemainingQuantity,
		OccurredAt:        at,
	})
	return receipt, nil
}

// ListItems returns all items ordered by name.
func (s *InventoryService) ListItems(ctx context.Context) (items []domain.Item, err error) {
	defer s.observe("list_items", &err)

	items, err = s.store.ListItems(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list items", err)
	}
	return items, nil
}

// ListSalesHistory returns sales newest first. Sales of deleted items are omitted.
func (s *InventoryService) ListSalesHistory(ctx context.Context) (records []domain.SaleRecord, err error) {
	defer s.observe("list_sales", &err)

	records, err = s.store.ListSales(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list sales", err)
	}
	return records, nil
}

func (s *InventoryService) GetItem(ctx context.Context, itemID int64) (item *domain.Item, err error) {
	defer s.observe("get_item", &err)

	item, err = s.store.FetchItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, domain.NewNotFoundError(itemID)
		}
		return nil, s.storeError(ctx, "get item", err)
	}
	return item, nil
}

// DeleteItem removes an item. Its sales stay in the ledger.
func (s *InventoryService) DeleteItem(ctx context.Context, itemID int64) (err error) {
	defer s.observe("delete_item", &err)

	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return domain.NewNotFoundError(itemID)
		}
		return s.storeError(ctx, "delete item", err)
	}

	s.log(ctx).Info("Item deleted", zap.Int64("item_id", itemID))
	s.publish(ctx, events.ItemDeletedEvent{ItemID: itemID, OccurredAt: s.now().UTC()})
	return nil
}

// UpdateItemQuantity overwrites the stock level without recording a sale.
func (s *InventoryService) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (item *domain.Item, err error) {
	defer s.observe("update_quantity", &err)

	if err := domain.ValidateStockQuantity(quantity); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.UpdateItemQuantity(ctx, itemID, quantity, at); err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				return domain.NewNotFoundError(itemID)
			}
			return err
		}
		updated, err := tx.FetchItem(ctx, itemID)
		if err != nil {
			return err
		}
		item = updated
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "update quantity", err)
	}

	s.log(ctx).Info("Item quantity updated", zap.Int64("item_id", itemID), zap.Int("quantity", quantity))
	s.publish(ctx, events.QuantityAdjustedEvent{ItemID: itemID, Quantity: quantity, OccurredAt: at})
	return item, nil
}

// Summary aggregates the current inventory.
func (s *InventoryService) Summary(ctx context.Context) (*domain.Summary, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(items)
	return &summary, nil
}

// Ping checks that the store is reachable.
func (s *InventoryService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return s.storeError(ctx, "ping", err)
	}
	return nil
}

// translate keeps domain errors raised inside a transaction and wraps anything else.
func (s *InventoryService) translate(ctx context.Context, operation string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return s.storeError(ctx, operation, err)
}

func (s *InventoryService) storeError(ctx context.Context, operation string, err error) error {
	s.log(ctx).Error("Store operation failed", zap.String("operation", operation), zap.Error(err))
	return domain.NewStoreError(operation, err)
}

func (s *InventoryService) publish(ctx context.Context, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("Failed to publish event",
			zap.String("event_type", events.EventType(event)),
			zap.Error(err),
		)
	}
}

// log tags lines with the request id when the call came through the HTTP layer.
func (s *InventoryService) log(ctx context.Context) *zap.Logger {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func (s *InventoryService) observe(operation string, err *error) {
	result := "success"
	var de *domain.DomainError
	if *err != nil {
		result = string(domain.KindStore)
		if errors.As(*err, &de) {
			result = string(de.Kind)
		}
	}
	s.metrics.ObserveOperation(operation, result)
}
