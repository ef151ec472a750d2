package handlers

import (
	"context"
	"errors"
	"time"

	"inventory-tracker/internal/cache"
	"inventory-tracker/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService is the operation surface the HTTP layer needs.
type InventoryService interface {
	AddItem(ctx context.Context, name string, quantity int, cost decimal.Decimal) (*domain.Item, error)
	RecordSale(ctx context.Context, itemID int64, quantitySold int) (*domain.SaleReceipt, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
	ListSalesHistory(ctx context.Context) ([]domain.SaleRecord, error)
	GetItem(ctx context.Context, itemID int64) (*domain.Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*domain.Item, error)
	Summary(ctx context.Context) (*domain.Summary, error)
	Ping(ctx context.Context) error
}

// readModel serves list reads through the cache when one is configured.
// Cache errors never fail a request; they fall through to the service.
type readModel struct {
	service InventoryService
	cache   *cache.Versioned
	ttl     time.Duration
	logger  *zap.Logger
}

func newReadModel(service InventoryService, c cache.Cache, ttl time.Duration, logger *zap.Logger) *readModel {
	return &readModel{service: service, cache: versioned(c), ttl: ttl, logger: logger}
}

// versioned reuses c when the caller already shares a *cache.Versioned
// between handlers, so their invalidations guard each other's reads.
func versioned(c cache.Cache) *cache.Versioned {
	switch v := c.(type) {
	case nil:
		return nil
	case *cache.Versioned:
		return v
	default:
		return cache.NewVersioned(c)
	}
}

func (r *readModel) items(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if r.get(ctx, cache.KeyItems, &items) {
		return items, nil
	}
	generation := r.generation()
	items, err := r.service.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, generation, cache.KeyItems, items)
	return items, nil
}

func (r *readModel) sales(ctx context.Context) ([]domain.SaleRecord, error) {
	var sales []domain.SaleRecord
	if r.get(ctx, cache.KeySales, &sales) {
		return sales, nil
	}
	generation := r.generation()
	sales, err := r.service.ListSalesHistory(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, generation, cache.KeySales, sales)
	return sales, nil
}

func (r *readModel) summary(ctx context.Context) (*domain.Summary, error) {
	var summary domain.Summary
	if r.get(ctx, cache.KeySummary, &summary) {
		return &summary, nil
	}
	generation := r.generation()
	s, err := r.service.Summary(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, generation, cache.KeySummary, s)
	return s, nil
}

// invalidate drops every cached read model. Called after each successful mutation.
func (r *readModel) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, cache.KeyPrefix+"*"); err != nil {
		r.logger.Warn("Failed to invalidate cache", zap.Error(err))
	}
}

func (r *readModel) generation() uint64 {
	if r.cache == nil {
		return 0
	}
	return r.cache.Generation()
}

func (r *readModel) get(ctx context.Context, key string, dest interface{}) bool {
	if r.cache == nil {
		return false
	}
	err := cache.GetJSON(ctx, r.cache, key, dest)
	if err == nil {
		r.logger.Debug("Cache hit", zap.String("key", key))
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

// set skips the write when a mutation invalidated the cache during the read.
func (r *readModel) set(ctx context.Context, generation uint64, key string, value interface{}) {
	if r.cache == nil {
		return
	}
	stored, err := r.cache.SetIfCurrent(ctx, generation, key, value, r.ttl)
	if err != nil {
		r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !stored {
		r.logger.Debug("Skipped stale cache write", zap.String("key", key))
	}
}
