package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"inventory-tracker/internal/domain"
)

// StandardError is the JSON body of every failed API call.
type StandardError struct {
	Success bool   `json:"success"`
	Code    string `json:"error"`   // e.g. "ValidationError", "ItemNotFound"
	Message string `json:"message"` // shown to the operator
	Details string `json:"details,omitempty"`
}

func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError", "InsufficientStock":
		return http.StatusBadRequest
	case "ItemNotFound", "ResourceNotFound":
		return http.StatusNotFound
	case "DuplicateItem", "RequestInProgress":
		return http.StatusConflict
	case "ServiceUnavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewStandardError(code, message, details string) *StandardError {
	return &StandardError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewServiceUnavailable(message string) *StandardError {
	return NewStandardError("ServiceUnavailable", message, "")
}

func NewRequestInProgress(requestID string) *StandardError {
	return NewStandardError("RequestInProgress", "A request with this X-Request-ID is still being processed", requestID)
}

func NewInternalError(message string) *StandardError {
	return NewStandardError("InternalError", message, "")
}

// FromDomain converts a service error. Store failures keep only their message
// so driver text does not reach the client.
func FromDomain(err error) *StandardError {
	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	var de *domain.DomainError
	if !stderrors.As(err, &de) {
		return NewInternalError("Error: unexpected failure")
	}

	switch de.Kind {
	case domain.KindInsufficientStock:
		return NewStandardError(string(de.Kind), de.Message, fmt.Sprintf("Available: %d", de.Available))
	case domain.KindStore:
		return NewStandardError(string(de.Kind), de.Message, "")
	default:
		details := ""
		if de.Err != nil {
			details = de.Err.Error()
		}
		return NewStandardError(string(de.Kind), de.Message, details)
	}
}
