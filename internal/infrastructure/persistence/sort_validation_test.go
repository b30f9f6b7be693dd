package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"asc", "ASC"},
		{"ASC", "ASC"},
		{" asc ", "ASC"},
		{"desc", "DESC"},
		{"DESC", "DESC"},
		{"", "DESC"},
		{"sideways", "DESC"},
		{"asc; DROP TABLE orders", "DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		fields map[string]bool
		want   string
	}{
		{"allowed field", "status", TransactionSortFields, "status"},
		{"allowed with whitespace", " amount ", TransactionSortFields, "amount"},
		{"empty falls back", "", TransactionSortFields, "created_at"},
		{"unknown falls back", "secret_column", TransactionSortFields, "created_at"},
		{"injection falls back", "created_at; DELETE FROM payment_transactions", TransactionSortFields, "created_at"},
		{"subquery falls back", "(SELECT password_hash FROM users)", UserSortFields, "created_at"},
		{"field from another entity falls back", "gateway", OrderSortFields, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, tt.fields, "created_at"))
		})
	}
}
