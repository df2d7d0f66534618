package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// Request validation errors. They describe malformed input before it ever
// reaches the domain, so they all classify as domain.ErrValidation.
var (
	ErrNameRequired     = requestError("name is required")
	ErrPriceRequired    = requestError("price is required")
	ErrPriceNegative    = requestError("price must be greater than or equal to 0")
	ErrStockRequired    = requestError("stock is required")
	ErrStockNegative    = requestError("stock must be greater than or equal to 0")
	ErrQuantityRequired = requestError("quantity is required")
)

type validationError string

func requestError(msg string) error { return validationError(msg) }

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == domain.ErrValidation }

// CreateProductRequest represents the request to create a product.
// Pointer fields distinguish a missing field from a zero value.
type CreateProductRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

// Validate checks the request shape
func (r *CreateProductRequest) Validate() error {
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return ErrNameRequired
	}
	if err := validatePrice(r.Price); err != nil {
		return err
	}
	if r.Stock == nil {
		return ErrStockRequired
	}
	if *r.Stock < 0 {
		return ErrStockNegative
	}
	return nil
}

// UpdateStockRequest carries a signed stock delta
type UpdateStockRequest struct {
	Quantity *int `json:"quantity"`
}

// Validate checks the request shape
func (r *UpdateStockRequest) Validate() error {
	if r.Quantity == nil {
		return ErrQuantityRequired
	}
	return nil
}

// UpdatePriceRequest carries the replacement price
type UpdatePriceRequest struct {
	Price *float64 `json:"price"`
}

// Validate checks the request shape
func (r *UpdatePriceRequest) Validate() error {
	return validatePrice(r.Price)
}

func validatePrice(price *float64) error {
	if price == nil {
		return ErrPriceRequired
	}
	if *price < 0 {
		return ErrPriceNegative
	}
	return nil
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// IsValidationError reports whether err came from request or domain validation.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}
