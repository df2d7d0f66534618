package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents the product entity
type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a new product with validation
func NewProduct(name string, price float64, stock int) (*Product, error) {
	now := time.Now().UTC()
	product := &Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProductName
	}
	if !validPrice(p.Price) {
		return ErrInvalidProductPrice
	}
	if p.Stock < 0 {
		return ErrInvalidProductStock
	}
	return nil
}

// UpdateStock adds quantity (which may be negative) to the current stock.
// The product is left untouched when the result would drop below zero or
// exceed the largest representable stock level.
func (p *Product) UpdateStock(quantity int) error {
	if quantity > 0 && p.Stock > math.MaxInt-quantity {
		return ErrStockOverflow
	}
	if p.Stock+quantity < 0 {
		return ErrInsufficientStock
	}
	p.Stock += quantity
	p.touch()
	return nil
}

// UpdatePrice replaces the price. Negative or non-finite prices are rejected.
func (p *Product) UpdatePrice(newPrice float64) error {
	if !validPrice(newPrice) {
		return ErrInvalidProductPrice
	}
	p.Price = newPrice
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func validPrice(price float64) bool {
	return price >= 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}
