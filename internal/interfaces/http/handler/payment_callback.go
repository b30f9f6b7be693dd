package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/payment"
	"go.uber.org/zap"
)

// Signature headers by gateway. Each gateway pushes its callback signature
// in its own header.
const (
	paygateSignatureHeader = "X-Paygate-Signature"
	stripeSignatureHeader  = "Stripe-Signature"
)

// PaymentCallbackHandler handles pushed gateway notifications. These routes
// are unauthenticated; authenticity comes from signature verification.
type PaymentCallbackHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
	logger         *zap.Logger
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(paymentService *paymentapp.Service, logger *zap.Logger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{paymentService: paymentService, logger: logger}
}

// Handle processes a gateway callback. The response body is whatever the
// gateway expects as an acknowledgement, not the standard API envelope.
func (h *PaymentCallbackHandler) Handle(c *gin.Context) {
	gatewayType := payment.GatewayType(strings.ToUpper(c.Param("gateway")))
	if !gatewayType.IsValid() {
		h.BadRequest(c, "Unknown payment gateway")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read callback body")
		return
	}

	result, err := h.paymentService.HandleCallback(c.Request.Context(), gatewayType, payload, h.signature(c, gatewayType))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, paymentapp.ErrCallbackVerification) {
			status = http.StatusBadRequest
		}
		if result != nil && len(result.Ack) > 0 {
			c.Data(status, "application/json", result.Ack)
			return
		}
		h.HandleError(c, err)
		return
	}

	if result.AlreadyProcessed {
		h.logger.Info("Duplicate payment callback acknowledged",
			zap.String("gateway", gatewayType.String()),
			zap.String("order_number", result.OrderNumber))
	}

	c.Data(http.StatusOK, "application/json", result.Ack)
}

func (h *PaymentCallbackHandler) signature(c *gin.Context, gatewayType payment.GatewayType) string {
	switch gatewayType {
	case payment.GatewayTypeStripe:
		return c.GetHeader(stripeSignatureHeader)
	default:
		return c.GetHeader(paygateSignatureHeader)
	}
}
