package domain

import "fmt"

// ErrorKind classifies a DomainError.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindDuplicateItem     ErrorKind = "DuplicateItem"
	KindNotFound          ErrorKind = "ItemNotFound"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindStore             ErrorKind = "StoreError"
)

// Sentinels for errors.Is; they match any DomainError of the same kind.
var (
	ErrValidation        = &DomainError{Kind: KindValidation, Message: "invalid input"}
	ErrDuplicateItem     = &DomainError{Kind: KindDuplicateItem, Message: MsgItemExists}
	ErrItemNotFound      = &DomainError{Kind: KindNotFound, Message: MsgItemNotFound}
	ErrInsufficientStock = &DomainError{Kind: KindInsufficientStock, Message: "Insufficient stock!"}
	ErrStore             = &DomainError{Kind: KindStore, Message: "store failure"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind
	Message string
	// Available is set for InsufficientStock.
	Available int
	Err       error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

func NewDuplicateItemError(name string) *DomainError {
	return &DomainError{Kind: KindDuplicateItem, Message: MsgItemExists, Err: fmt.Errorf("item name %q already exists", name)}
}

func NewNotFoundError(itemID int64) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: MsgItemNotFound, Err: fmt.Errorf("item %d", itemID)}
}

func NewInsufficientStockError(available, requested int) *DomainError {
	return &DomainError{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("Insufficient stock! Available: %d", available),
		Available: available,
		Err:       fmt.Errorf("requested %d", requested),
	}
}

func NewStoreError(operation string, err error) *DomainError {
	return &DomainError{Kind: KindStore, Message: fmt.Sprintf("Error: %s failed", operation), Err: err}
}
