package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnitConversion(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		minor    int64
	}{
		{"usd cents", "49.99", "USD", 4999},
		{"usd whole", "100", "usd", 10000},
		{"eur cents", "0.01", "EUR", 1},
		{"jpy whole units", "4999", "JPY", 4999},
		{"jpy lowercase", "500", "jpy", 500},
		{"krw whole units", "12000", "KRW", 12000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.minor, toMinorUnits(amount, tt.currency))
			assert.True(t, fromMinorUnits(tt.minor, tt.currency).Equal(amount),
				"round trip %s %s", tt.amount, tt.currency)
		})
	}
}

func TestMinorUnitExponent(t *testing.T) {
	assert.Equal(t, int32(2), minorUnitExponent("USD"))
	assert.Equal(t, int32(2), minorUnitExponent("EUR"))
	assert.Equal(t, int32(0), minorUnitExponent("JPY"))
	assert.Equal(t, int32(0), minorUnitExponent("xof"))
	assert.Equal(t, int32(2), minorUnitExponent(""))
}
