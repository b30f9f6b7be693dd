package valueobject

import (
	"errors"
	"strings"
)

// Address is a value object representing a shipping or billing address
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// NewAddress creates a validated address
func NewAddress(line1, line2, city, state, postalCode, country string) (Address, error) {
	a := Address{
		Line1:      strings.TrimSpace(line1),
		Line2:      strings.TrimSpace(line2),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	if a.Line1 == "" {
		return Address{}, errors.New("address line1 is required")
	}
	if a.City == "" {
		return Address{}, errors.New("address city is required")
	}
	if len(a.Country) != 2 {
		return Address{}, errors.New("address country must be a 2-letter ISO code")
	}
	return a, nil
}

// IsZero returns true if the address is empty
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.Country == ""
}

// String returns a single-line representation
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City)
	if a.State != "" {
		parts = append(parts, a.State)
	}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	parts = append(parts, a.Country)
	return strings.Join(parts, ", ")
}
