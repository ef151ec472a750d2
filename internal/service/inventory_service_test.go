package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inventory-tracker/internal/domain"
	"inventory-tracker/internal/events"
	"inventory-tracker/internal/metrics"
	"inventory-tracker/internal/repository"
	"inventory-tracker/pkg/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	service   *InventoryService
	store     *repository.SQLiteStore
	publisher *events.InMemoryPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Initialize(context.Background()))

	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	publisher := events.NewInMemoryPublisher(logger)
	svc := NewInventoryService(store, logger,
		WithPublisher(publisher),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
		WithClock(clock.Now),
	)
	return &fixture{service: svc, store: store, publisher: publisher}
}

func (f *fixture) quantityOf(t *testing.T, id int64) int {
	t.Helper()
	item, err := f.service.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddItem_ListedWithExactValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "  Widget  ", 10, dec("2.50"))
	require.NoError(t, err)
	assert.Equal(t, "Widget", item.Name)

	items, err := f.service.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, "Widget", items[0].Name)
	assert.Equal(t, 10, items[0].Quantity)
	assert.True(t, dec("2.50").Equal(items[0].Cost))
	assert.True(t, item.LastUpdate.Equal(items[0].LastUpdate))

	require.Len(t, f.publisher.Events(), 1)
	assert.IsType(t, events.ItemAddedEvent{}, f.publisher.Events()[0])
}

func TestAddItem_ZeroQuantityAndCost(t *testing.T) {
	f := newFixture(t)

	item, err := f.service.AddItem(context.Background(), "Freebie", 0, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestAddItem_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, "Widget", 10, dec("2.50"))
	require.NoError(t, err)

	_, err = f.service.AddItem(ctx, "Widget", 3, dec("1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateItem)
	assert.Equal(t, "Item already exists!", err.Error())

	items, err := f.service.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, "   ", 1, dec("1"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.service.AddItem(ctx, "Widget", -1, dec("1"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.service.AddItem(ctx, "Widget", 1, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	items, err := f.service.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecordSale_WidgetScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	widget, err := f.service.AddItem(ctx, "Widget", 10, dec("2.50"))
	require.NoError(t, err)

	receipt, err := f.service.RecordSale(ctx, widget.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, receipt.RemainingQuantity)
	assert.Contains(t, receipt.Message(), "6")
	assert.Equal(t, 6, f.quantityOf(t, widget.ID))

	_, err = f.service.RecordSale(ctx, widget.ID, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock! Available: 6", err.Error())
	assert.Equal(t, 6, f.quantityOf(t, widget.ID))

	require.NoError(t, f.service.DeleteItem(ctx, widget.ID))

	items, err := f.service.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecordSale_ExactStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 5, dec("1"))
	require.NoError(t, err)

	receipt, err := f.service.RecordSale(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, receipt.RemainingQuantity)
	assert.Equal(t, 0, f.quantityOf(t, item.ID))
}

func TestRecordSale_InsufficientStockLeavesNoSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 2, dec("1"))
	require.NoError(t, err)

	_, err = f.service.RecordSale(ctx, item.ID, 3)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Available)

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSale_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.RecordSale(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Equal(t, "Item not found!", err.Error())

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSale_NonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 5, dec("1"))
	require.NoError(t, err)

	for _, q := range []int{0, -2} {
		_, err := f.service.RecordSale(ctx, item.ID, q)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Equal(t, 5, f.quantityOf(t, item.ID))
}

func TestListSalesHistory_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)

	first, err := f.service.RecordSale(ctx, item.ID, 1)
	require.NoError(t, err)
	second, err := f.service.RecordSale(ctx, item.ID, 2)
	require.NoError(t, err)
	require.True(t, first.SaleDate.Before(second.SaleDate))

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, second.ID, sales[0].SaleID)
	assert.Equal(t, first.ID, sales[1].SaleID)
	assert.Equal(t, "Widget", sales[0].ItemName)
}

func TestListSalesHistory_DeletedItemDropsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	widget, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)
	bolt, err := f.service.AddItem(ctx, "Bolt", 10, dec("1"))
	require.NoError(t, err)

	_, err = f.service.RecordSale(ctx, widget.ID, 1)
	require.NoError(t, err)
	_, err = f.service.RecordSale(ctx, bolt.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteItem(ctx, bolt.ID))

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Widget", sales[0].ItemName)
}

func TestUpdateItemQuantity_SetsExactValueWithoutSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)

	updated, err := f.service.UpdateItemQuantity(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.True(t, updated.LastUpdate.After(item.LastUpdate))
	assert.Equal(t, 0, f.quantityOf(t, item.ID))

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = f.service.UpdateItemQuantity(ctx, item.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, f.quantityOf(t, item.ID))
}

func TestUpdateItemQuantity_RejectsNegativeAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)

	_, err = f.service.UpdateItemQuantity(ctx, item.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 10, f.quantityOf(t, item.ID))

	_, err = f.service.UpdateItemQuantity(ctx, item.ID+100, 3)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDeleteItem_Missing(t *testing.T) {
	f := newFixture(t)

	err := f.service.DeleteItem(context.Background(), 12)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, "Widget", 10, dec("2.50"))
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, "Bolt", 4, dec("0.25"))
	require.NoError(t, err)

	summary, err := f.service.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 14, summary.TotalQuantity)
	assert.True(t, dec("26").Equal(summary.TotalValue))
}

func TestRecordSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)

	const buyers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.RecordSale(ctx, item.ID, 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, f.quantityOf(t, item.ID))

	sales, err := f.service.ListSalesHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 10)
}

func TestInitializeTwiceKeepsData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, "Widget", 10, dec("1"))
	require.NoError(t, err)

	require.NoError(t, f.store.Initialize(ctx))
	require.NoError(t, f.store.Initialize(ctx))

	items, err := f.service.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestLogsCarryRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Initialize(context.Background()))

	svc := NewInventoryService(store, zap.New(core))
	ctx := middleware.ContextWithRequestID(context.Background(), "req-42")

	_, err = svc.AddItem(ctx, "Widget", 10, dec("2.50"))
	require.NoError(t, err)

	entries := logs.FilterMessage("Item added").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])

	_, err = svc.AddItem(context.Background(), "Bolt", 1, dec("1"))
	require.NoError(t, err)
	entries = logs.FilterMessage("Item added").All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}
