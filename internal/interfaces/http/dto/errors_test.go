package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", "NOT_FOUND", http.StatusNotFound},
		{"product not found", "PRODUCT_NOT_FOUND", http.StatusNotFound},
		{"conflict", "ALREADY_EXISTS", http.StatusConflict},
		{"unauthorized", "INVALID_CREDENTIALS", http.StatusUnauthorized},
		{"forbidden", "TENANT_SUSPENDED", http.StatusForbidden},
		{"business rule", "INVALID_TRANSITION", http.StatusUnprocessableEntity},
		{"last owner", "LAST_OWNER", http.StatusUnprocessableEntity},
		{"storage down", "STORAGE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"feed down", ErrCodeFeedUnavailable, http.StatusServiceUnavailable},
		{"rate limited", ErrCodeRateLimited, http.StatusTooManyRequests},
		{"unmapped invalid prefix", "INVALID_SOMETHING", http.StatusBadRequest},
		{"unmapped code", "MYSTERY_CODE", http.StatusInternalServerError},
		{"empty code", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}
