package repository

import (
	"context"
	"errors"
	"time"

	"inventory-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// Store is the persistent store for items and sales. It applies single-statement
// mutations and performs no business validation.
type Store interface {
	// Initialize creates the tables if they are absent. Safe on every start.
	Initialize(ctx context.Context) error

	InsertItem(ctx context.Context, name string, quantity int, cost decimal.Decimal, at time.Time) (int64, error)
	FetchItem(ctx context.Context, id int64) (*domain.Item, error)
	// ListItems returns items ordered by name ascending.
	ListItems(ctx context.Context) ([]domain.Item, error)
	UpdateItemQuantity(ctx context.Context, id int64, quantity int, at time.Time) error
	// DeleteItem removes the row without checking for referencing sales.
	DeleteItem(ctx context.Context, id int64) error
	InsertSale(ctx context.Context, itemID int64, quantitySold int, at time.Time) (int64, error)
	// ListSales joins sales to their item's current name, newest first.
	// Sales whose item was deleted are not returned.
	ListSales(ctx context.Context) ([]domain.SaleRecord, error)

	// WithinTx runs fn inside one transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx is the subset of store operations available inside a transaction.
type Tx interface {
	FetchItem(ctx context.Context, id int64) (*domain.Item, error)
	UpdateItemQuantity(ctx context.Context, id int64, quantity int, at time.Time) error
	InsertSale(ctx context.Context, itemID int64, quantitySold int, at time.Time) (int64, error)
}

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrDuplicateName = errors.New("item name already exists")
)
