package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// It stores copies of the products it is given and hands out copies, so a
// caller only changes stored state through Save or Update.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Save inserts or replaces a product
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", product.ID),
		attribute.String("product.name", product.Name),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(*product)

	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	span.SetAttributes(attribute.Bool("product.found", exists))
	if !exists {
		r.logger.DebugContext(ctx, "Product not in repository",
			slog.String("product_id", id),
		)
		return nil, false, nil
	}

	return &product, true, nil
}

// FindAll retrieves all products in insertion order
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		product := r.products[id]
		products = append(products, &product)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	return products, nil
}

// Update applies mutate to a copy of the stored product while holding the
// write lock and stores the copy only if mutate succeeds.
func (r *ProductRepository) Update(
	ctx context.Context,
	id string,
	mutate func(*domain.Product) error,
) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	span.SetAttributes(attribute.Bool("product.found", exists))
	if !exists {
		return nil, false, nil
	}

	if err := mutate(&product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Mutation rejected")
		return nil, true, err
	}

	r.put(product)

	r.logger.DebugContext(ctx, "Product updated in repository",
		slog.String("product_id", id),
		slog.Int("stock", product.Stock),
		slog.Float64("price", product.Price),
	)

	span.SetStatus(codes.Ok, "Product updated")
	return &product, true, nil
}

// put stores p; callers hold the write lock.
func (r *ProductRepository) put(p domain.Product) {
	if _, exists := r.products[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = p
}
