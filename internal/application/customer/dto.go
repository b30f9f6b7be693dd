package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/customer"
)

// UpdateRequest updates a customer's profile from the back office
type UpdateRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=50"`
	Notes string `json:"notes" binding:"omitempty,max=2000"`
}

// AddressResponse is the customer's default shipping address
type AddressResponse struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Response describes a customer in list and detail views
type Response struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone,omitempty"`
	DefaultShipping AddressResponse `json:"default_shipping"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToResponse converts a domain customer to its response form
func ToResponse(c *customer.Customer) *Response {
	return &Response{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
		Phone: c.Phone,
		DefaultShipping: AddressResponse{
			Line1:      c.DefaultShipping.Line1,
			Line2:      c.DefaultShipping.Line2,
			City:       c.DefaultShipping.City,
			State:      c.DefaultShipping.State,
			PostalCode: c.DefaultShipping.PostalCode,
			Country:    c.DefaultShipping.Country,
		},
		Status:    string(c.Status),
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
