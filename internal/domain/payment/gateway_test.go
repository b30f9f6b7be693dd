package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyGatewayStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want ExternalStatus
	}{
		// success-like
		{"SUCCESS", ExternalStatusCompleted},
		{"SUCCEEDED", ExternalStatusCompleted},
		{"COMPLETED", ExternalStatusCompleted},
		{"APPROVED", ExternalStatusCompleted},
		{"PAID", ExternalStatusCompleted},
		{"SETTLED", ExternalStatusCompleted},
		{"SUCCESSFUL", ExternalStatusCompleted},
		// pending-like
		{"PENDING", ExternalStatusPending},
		{"PROCESSING", ExternalStatusPending},
		{"AWAITING", ExternalStatusPending},
		{"QUEUED", ExternalStatusPending},
		// cancel-like
		{"CANCELLED", ExternalStatusCancelled},
		{"CANCELED", ExternalStatusCancelled},
		// fail-like
		{"FAILED", ExternalStatusFailed},
		{"DECLINED", ExternalStatusFailed},
		{"ERROR", ExternalStatusFailed},
		{"REJECTED", ExternalStatusFailed},
		{"TIMEOUT", ExternalStatusFailed},
		// case and whitespace insensitive
		{"paid", ExternalStatusCompleted},
		{"Declined", ExternalStatusFailed},
		{"  settled  ", ExternalStatusCompleted},
		{"canceled", ExternalStatusCancelled},
		// unknown strings never classify terminal
		{"ON_HOLD", ExternalStatusPending},
		{"REVIEW", ExternalStatusPending},
		{"", ExternalStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGatewayStatus(tt.raw))
		})
	}
}

func TestGatewayType_IsValid(t *testing.T) {
	assert.True(t, GatewayTypePayGate.IsValid())
	assert.True(t, GatewayTypeStripe.IsValid())
	assert.False(t, GatewayType("ADYEN").IsValid())
	assert.False(t, GatewayType("").IsValid())
}

func TestInitiateRequest_Validate(t *testing.T) {
	valid := func() *InitiateRequest {
		return &InitiateRequest{
			TenantID:      uuid.New(),
			TransactionID: uuid.New(),
			OrderNumber:   "ORD-1",
			Amount:        decimal.NewFromInt(10),
			CallbackURL:   "https://shop.example.com/api/v1/store/payments/callback/paygate",
		}
	}

	assert.NoError(t, valid().Validate())

	r := valid()
	r.OrderNumber = ""
	assert.ErrorIs(t, r.Validate(), ErrInvalidInitiateRequest)

	r = valid()
	r.CallbackURL = ""
	assert.ErrorIs(t, r.Validate(), ErrInvalidInitiateRequest)
}

func TestQueryRequest_Validate(t *testing.T) {
	r := &QueryRequest{TenantID: uuid.New()}
	assert.ErrorIs(t, r.Validate(), ErrInvalidQueryRequest)

	r.OrderNumber = "ORD-1"
	assert.NoError(t, r.Validate())
}
