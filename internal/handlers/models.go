package handlers

import (
	"inventory-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrorResponse is the body of every failed API call
// @Description Error response
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"InsufficientStock"`
	Message string `json:"message" example:"Insufficient stock! Available: 6"`
	Details string `json:"details,omitempty" example:"Available: 6"`
}

// ResultResponse is the (success, message) pair returned by mutations
// @Description Outcome of a mutation
type ResultResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Item deleted successfully!"`
}

// AddItemRequest is the body of POST /items
// @Description Request to add a new item. Quantity and cost default to 0.
type AddItemRequest struct {
	Name     string          `json:"name" example:"Widget"`
	Quantity int             `json:"quantity" example:"10"`
	Cost     decimal.Decimal `json:"cost" swaggertype:"string" example:"2.50"`
}

// ItemResponse wraps an item with the outcome message
type ItemResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Item added successfully!"`
	Item    domain.Item `json:"item"`
}

// RecordSaleRequest is the body of POST /sales
type RecordSaleRequest struct {
	ItemID       int64 `json:"item_id" example:"1"`
	QuantitySold int   `json:"quantity_sold" example:"4"`
}

// SaleResponse wraps a committed sale
type SaleResponse struct {
	Success bool               `json:"success" example:"true"`
	Message string             `json:"message" example:"Sale recorded! New quantity: 6"`
	Sale    domain.SaleReceipt `json:"sale"`
}

// UpdateQuantityRequest is the body of the quantity correction endpoints.
// Quantity may be a JSON number or a numeric string.
type UpdateQuantityRequest struct {
	Quantity interface{} `json:"quantity" swaggertype:"integer" example:"0"`
}

type ItemListResponse struct {
	Items []domain.Item `json:"items"`
	Count int           `json:"count" example:"1"`
}

type SalesListResponse struct {
	Sales []domain.SaleRecord `json:"sales"`
	Count int                 `json:"count" example:"1"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"inventory-tracker"`
	Store   string `json:"store" example:"ok"`
}
