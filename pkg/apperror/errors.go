package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so callers can react without
// string-matching messages.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindInvalidState       Kind = "invalid_state"
	KindQuantityExceeded   Kind = "quantity_exceeded"
	KindTransactionFailure Kind = "transaction_failure"
	KindValidation         Kind = "validation"
	KindBadRequest         Kind = "bad_request"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindTransactionFailure, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Kind: KindInvalidState, Message: "Resource already exists"}
	ErrUnprocessable  = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Unprocessable entity"}
)

// NewAppError creates a new application error
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInvalidStateError signals an operation attempted against an entity in
// the wrong lifecycle state (voiding a voided sale, approving a completed
// return, applying an exhausted credit note).
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInvalidState,
		Message: message,
	}
}

// NewTransactionFailureError wraps a store-level commit failure. The caller
// may retry the whole operation; no partial state was persisted.
func NewTransactionFailureError(err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindTransactionFailure,
		Message: fmt.Sprintf("transaction failed: %v", err),
	}
}

// InsufficientStockError reports a FEFO allocation that could not satisfy
// the requested quantity. Requested and Available are in stock units.
type InsufficientStockError struct {
	AppError
	ItemName  string `json:"item_name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// NewInsufficientStockError creates an insufficient stock error
func NewInsufficientStockError(itemName string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		AppError: AppError{
			Code:    http.StatusConflict,
			Kind:    KindInsufficientStock,
			Message: fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", itemName, requested, available),
		},
		ItemName:  itemName,
		Requested: requested,
		Available: available,
	}
}

// QuantityExceededError reports a return requesting more units than remain
// returnable on the original sale item.
type QuantityExceededError struct {
	AppError
	Requested  int `json:"requested"`
	Returnable int `json:"returnable"`
}

// NewQuantityExceededError creates a quantity exceeded error
func NewQuantityExceededError(requested, returnable int) *QuantityExceededError {
	return &QuantityExceededError{
		AppError: AppError{
			Code:    http.StatusUnprocessableEntity,
			Kind:    KindQuantityExceeded,
			Message: fmt.Sprintf("Return quantity %d exceeds returnable quantity %d", requested, returnable),
		},
		Requested:  requested,
		Returnable: returnable,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err carries the given error kind.
func IsKind(err error, kind Kind) bool {
	return GetAppError(err).Kind == kind
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var insufficientErr *InsufficientStockError
	if errors.As(err, &insufficientErr) {
		return &insufficientErr.AppError
	}
	var exceededErr *QuantityExceededError
	if errors.As(err, &exceededErr) {
		return &exceededErr.AppError
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindTransactionFailure,
		Message: err.Error(),
	}
}
