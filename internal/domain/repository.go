package domain

import (
	"context"
)

// ProductRepository defines the contract for product storage.
//
// Lookups report absence through the boolean result rather than an error;
// a non-nil error always means the backend itself failed.
type ProductRepository interface {
	// Save inserts or replaces the product keyed by its ID.
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, bool, error)
	FindAll(ctx context.Context) ([]*Product, error)
	// Update loads the product, applies mutate and stores the result as one
	// atomic step. If mutate fails nothing is stored and its error is returned.
	Update(ctx context.Context, id string, mutate func(*Product) error) (*Product, bool, error)
}
