package handler

import (
	"github.com/gin-gonic/gin"
	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// PaymentHandler handles admin payment transaction endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List returns a paginated transaction list with optional status and
// gateway filters
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var filter paymentapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns a payment transaction
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	transactionID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	resp, err := h.paymentService.Get(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Repoll queries the gateway for the transaction's current state and
// reconciles the local record
func (h *PaymentHandler) Repoll(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	transactionID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	resp, err := h.paymentService.Repoll(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
