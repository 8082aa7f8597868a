package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so the transport layer can map them
// without knowing every individual code.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindAuthorization ErrorKind = "authorization"
	KindInternal      ErrorKind = "internal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that sentinel errors
// match instances built with different messages or details.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with an extra detail attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Kind: e.Kind, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error. The kind is derived from the code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    "VALIDATION_ERROR",
		Kind:    KindValidation,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// NewConflictError creates a conflict error with the given code
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Code: code, Kind: KindConflict, Message: message}
}

// NewNotFoundError creates a not-found error naming the missing resource
func NewNotFoundError(code, resource string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource},
	}
}

// NewForbiddenError creates an authorization error
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: "FORBIDDEN", Kind: KindAuthorization, Message: message}
}

// KindOf returns the kind of err, or KindInternal when err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Kind == "" {
			return kindForCode(de.Code)
		}
		return de.Kind
	}
	return KindInternal
}

var codeKinds = map[string]ErrorKind{
	"NOT_FOUND":                 KindNotFound,
	"INVENTORY_NOT_FOUND":       KindNotFound,
	"PRODUCT_NOT_FOUND":         KindNotFound,
	"BRANCH_NOT_FOUND":          KindNotFound,
	"SALE_NOT_FOUND":            KindNotFound,
	"SALE_ITEM_NOT_FOUND":       KindNotFound,
	"RETURN_NOT_FOUND":          KindNotFound,
	"ALREADY_EXISTS":            KindConflict,
	"CONCURRENCY_CONFLICT":      KindConflict,
	"OPTIMISTIC_LOCK_FAILED":    KindConflict,
	"INVALID_STATE":             KindConflict,
	"INSUFFICIENT_STOCK":        KindConflict,
	"NEGATIVE_STOCK_REJECTED":   KindConflict,
	"CENTRAL_STOCK_EXCEEDED":    KindConflict,
	"NO_CENTRAL_STOCK":          KindConflict,
	"INVENTORY_INACTIVE":        KindConflict,
	"RETURN_CANNOT_REVERT":      KindConflict,
	"INVALID_STATUS_TRANSITION": KindConflict,
	"UNAUTHORIZED":              KindAuthorization,
	"FORBIDDEN":                 KindAuthorization,
	"INTERNAL_ERROR":            KindInternal,
}

func kindForCode(code string) ErrorKind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}
	return KindValidation
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)
