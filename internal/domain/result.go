package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Result is the (success, message) pair shown to the operator.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ResultFromError turns an operation outcome into a Result. Errors that are
// not DomainErrors get a generic message so driver text never leaks out.
func ResultFromError(err error, successMessage string) Result {
	if err == nil {
		return Result{Success: true, Message: successMessage}
	}
	var de *DomainError
	if errors.As(err, &de) {
		return Result{Success: false, Message: de.Message}
	}
	return Result{Success: false, Message: "Error: unexpected failure"}
}

// Boundary parsing. Forms and JSON bodies hand us strings; malformed input is a
// ValidationError like any other.

func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NewValidationError("Invalid quantity!")
	}
	return q, nil
}

func ParseCost(raw string) (decimal.Decimal, error) {
	c, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, NewValidationError("Invalid quantity or cost format!")
	}
	return c, nil
}

// ParseItemID parses the item field of the sale form.
func ParseItemID(raw string) (int64, error) {
	return parseID(raw, "Invalid item or quantity!")
}

// ParsePathItemID parses an :id route parameter.
func ParsePathItemID(raw string) (int64, error) {
	return parseID(raw, MsgInvalidItemID)
}

func parseID(raw, message string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError(message)
	}
	return id, nil
}

// Validation rules. The service applies these on every path.

func ValidateNewItem(name string, quantity int, cost decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("Item name is required!")
	}
	if quantity < 0 {
		return NewValidationError("Quantity cannot be negative!")
	}
	if cost.IsNegative() {
		return NewValidationError("Cost cannot be negative!")
	}
	return nil
}

func ValidateSaleQuantity(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("Quantity must be greater than 0!")
	}
	return nil
}

func ValidateStockQuantity(quantity int) error {
	if quantity < 0 {
		return NewValidationError("Quantity cannot be negative!")
	}
	return nil
}
