package dto

import (
	"errors"
	"net/http"

	"github.com/retail/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes whose status differs from the
// default for their kind.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Business rule violations -> 422 Unprocessable Entity
	"INSUFFICIENT_STOCK":       http.StatusUnprocessableEntity,
	"NEGATIVE_STOCK_REJECTED":  http.StatusUnprocessableEntity,
	"CENTRAL_STOCK_EXCEEDED":   http.StatusUnprocessableEntity,
	"NO_CENTRAL_STOCK":         http.StatusUnprocessableEntity,
	"RETURN_QUANTITY_EXCEEDED": http.StatusUnprocessableEntity,

	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:    http.StatusBadRequest,
	shared.KindNotFound:      http.StatusNotFound,
	shared.KindConflict:      http.StatusConflict,
	shared.KindAuthorization: http.StatusForbidden,
	shared.KindInternal:      http.StatusInternalServerError,
}

// GetHTTPStatus returns the status for a code of the given kind
func GetHTTPStatus(code string, kind shared.ErrorKind) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForError resolves the response status and domain error for err.
// The returned DomainError is nil for errors that are not domain errors.
func StatusForError(err error) (int, *shared.DomainError) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, nil
	}
	return GetHTTPStatus(domainErr.Code, shared.KindOf(domainErr)), domainErr
}
