package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// StorefrontHandler handles the public storefront endpoints. Callers are
// anonymous shoppers; the tenant comes from the X-Tenant-Code header and
// order access is guarded by the order number plus customer email pair.
type StorefrontHandler struct {
	BaseHandler
	productService  *catalogapp.ProductService
	categoryService *catalogapp.CategoryService
	orderService    *orderapp.Service
	paymentService  *paymentapp.Service
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(
	productService *catalogapp.ProductService,
	categoryService *catalogapp.CategoryService,
	orderService *orderapp.Service,
	paymentService *paymentapp.Service,
) *StorefrontHandler {
	return &StorefrontHandler{
		productService:  productService,
		categoryService: categoryService,
		orderService:    orderService,
		paymentService:  paymentService,
	}
}

// orderLookupQuery identifies an order for anonymous access
type orderLookupQuery struct {
	Email string `form:"email" binding:"required,email"`
}

// ListProducts returns the tenant's active products
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.productService.ListActive(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetProduct returns an active product. Inactive and deleted products are
// indistinguishable from missing ones.
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	productID, err := bindID(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	resp, err := h.productService.GetActiveByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListCategories returns the tenant's active categories
func (h *StorefrontHandler) ListCategories(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	categories, err := h.categoryService.ListActive(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, categories)
}

// GetCategory returns an active category by its slug
func (h *StorefrontHandler) GetCategory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	resp, err := h.categoryService.GetBySlug(c.Request.Context(), tenantID, c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Checkout creates an order from the shopper's cart
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req orderapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// LookupOrder returns an order identified by order number and email
func (h *StorefrontHandler) LookupOrder(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query orderLookupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Lookup(c.Request.Context(), tenantID, c.Param("number"), query.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// InitiatePayment starts a payment for an order and returns the gateway
// checkout URL
func (h *StorefrontHandler) InitiatePayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req paymentapp.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// PaymentStatus reports the payment state of an order for storefront polling
func (h *StorefrontHandler) PaymentStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query orderLookupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.paymentService.GetStatus(c.Request.Context(), tenantID, c.Param("number"), query.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
