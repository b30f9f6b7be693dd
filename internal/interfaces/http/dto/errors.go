package dto

import (
	"net/http"
	"strings"
)

// General error codes used by the HTTP layer itself. Domain errors carry
// their own codes and are mapped through ErrorCodeHTTPStatus below.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeUnauthorized is used when authentication is required but missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "CONFLICT"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeFeedUnavailable is used when the realtime feed backend is down
	ErrCodeFeedUnavailable = "FEED_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Resources
	ErrCodeNotFound:        http.StatusNotFound,
	"PRODUCT_NOT_FOUND":    http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"EMAIL_TAKEN":          http.StatusConflict,
	"TENANT_CODE_TAKEN":    http.StatusConflict,
	"DUPLICATE_PRODUCT":    http.StatusConflict,

	// Authentication and accounts -> 401/403
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	"TENANT_SUSPENDED":    http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"ACCOUNT_INACTIVE":    http.StatusForbidden,

	// Business rules -> 422 Unprocessable Entity
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"INVALID_TRANSITION":   http.StatusUnprocessableEntity,
	"ALREADY_PAID":         http.StatusUnprocessableEntity,
	"ORDER_CLOSED":         http.StatusUnprocessableEntity,
	"PAYMENT_REQUIRED":     http.StatusUnprocessableEntity,
	"PRODUCT_INACTIVE":     http.StatusUnprocessableEntity,
	"CUSTOMER_INACTIVE":    http.StatusUnprocessableEntity,
	"CATEGORY_NOT_EMPTY":   http.StatusUnprocessableEntity,
	"CURRENCY_MISMATCH":    http.StatusUnprocessableEntity,
	"LAST_OWNER":           http.StatusUnprocessableEntity,
	"ALREADY_ACTIVE":       http.StatusUnprocessableEntity,
	"ALREADY_INACTIVE":     http.StatusUnprocessableEntity,
	"ALREADY_DEACTIVATED":  http.StatusUnprocessableEntity,
	"ALREADY_SUSPENDED":    http.StatusUnprocessableEntity,
	"IMAGE_NOT_UPLOADED":   http.StatusUnprocessableEntity,
	"STORAGE_UNAVAILABLE":  http.StatusServiceUnavailable,
	ErrCodeFeedUnavailable: http.StatusServiceUnavailable,
	"INVALID_GATEWAY":      http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code. Codes not in
// the map fall back by prefix: INVALID_* are treated as input validation
// failures, everything else is an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
