package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stock-keeping unit with its quantity on hand and unit cost.
type Item struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Cost       decimal.Decimal `json:"cost"`
	LastUpdate time.Time       `json:"last_update"`
}

// TotalValue returns quantity × unit cost.
func (i Item) TotalValue() decimal.Decimal {
	return i.Cost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CanSell reports whether quantity units can leave stock without going negative.
func (i Item) CanSell(quantity int) bool {
	return quantity <= i.Quantity
}

// Sale is an immutable record of stock removed from an item.
type Sale struct {
	ID           int64     `json:"sale_id"`
	ItemID       int64     `json:"item_id"`
	QuantitySold int       `json:"quantity_sold"`
	SaleDate     time.Time `json:"sale_date"`
}

// SaleRecord is a sales history row joined to the item's current name.
type SaleRecord struct {
	SaleID       int64     `json:"sale_id"`
	ItemName     string    `json:"item_name"`
	QuantitySold int       `json:"quantity_sold"`
	SaleDate     time.Time `json:"sale_date"`
}

// SaleReceipt is returned after a sale was committed.
type SaleReceipt struct {
	Sale
	RemainingQuantity int `json:"remaining_quantity"`
}

func (r SaleReceipt) Message() string {
	return fmt.Sprintf("Sale recorded! New quantity: %d", r.RemainingQuantity)
}

// Summary aggregates the whole inventory.
type Summary struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// Summarize computes item count, total quantity and total value.
func Summarize(items []Item) Summary {
	s := Summary{TotalItems: len(items), TotalValue: decimal.Zero}
	for _, item := range items {
		s.TotalQuantity += item.Quantity
		s.TotalValue = s.TotalValue.Add(item.TotalValue())
	}
	return s
}

// User-facing outcome messages.
const (
	MsgItemAdded       = "Item added successfully!"
	MsgItemExists      = "Item already exists!"
	MsgItemNotFound    = "Item not found!"
	MsgItemDeleted     = "Item deleted successfully!"
	MsgQuantityUpdated = "Quantity updated successfully!"
	MsgInvalidItemID   = "Invalid item ID!"
)
