package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
	stockAdjustments      metric.Int64Histogram
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	stockAdjustments, _ := meter.Int64Histogram(
		"products.stock.adjustment",
		metric.WithDescription("Signed stock quantity applied per successful adjustment"),
		metric.WithUnit("{item}"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
		stockAdjustments:      stockAdjustments,
	}
}

// CreateProduct creates a new product and stores it
func (s *ProductService) CreateProduct(ctx context.Context, name string, price float64, stock int) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", name),
		attribute.Float64("product.price", price),
		attribute.Int("product.stock", stock),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", name),
		slog.Float64("price", price),
		slog.Int("stock", stock),
	)

	product, err := domain.NewProduct(name, price, stock)
	if err != nil {
		s.fail(ctx, span, "create", "Validation failed", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", product.ID))

	if err := s.repo.Save(ctx, product); err != nil {
		s.fail(ctx, span, "create", "Failed to store product", err)
		return nil, err
	}

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product, nil
}

// GetProduct retrieves a product by ID. The boolean is false when no product
// has that ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.DebugContext(ctx, "Getting product by ID",
		slog.String("product_id", id),
	)

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "read", "Failed to load product", err)
		return nil, false, err
	}
	if !found {
		s.notFound(ctx, span, "read", id)
		return nil, false, nil
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return product, true, nil
}

// ListProducts retrieves all products
func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.fail(ctx, span, "list", "Failed to retrieve products", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", "success")

	s.logger.DebugContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// UpdateProductStock adds quantity (positive or negative) to the stock of a
// product. The boolean is false when no product has that ID.
func (s *ProductService) UpdateProductStock(ctx context.Context, id string, quantity int) (*domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProductStock")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", id),
		attribute.Int("stock.quantity", quantity),
	)

	s.logger.InfoContext(ctx, "Updating product stock",
		slog.String("product_id", id),
		slog.Int("quantity", quantity),
	)

	product, found, err := s.repo.Update(ctx, id, func(p *domain.Product) error {
		return p.UpdateStock(quantity)
	})
	if err != nil {
		s.fail(ctx, span, "update_stock", "Stock update rejected", err)
		return nil, found, err
	}
	if !found {
		s.notFound(ctx, span, "update_stock", id)
		return nil, false, nil
	}

	s.stockAdjustments.Record(ctx, int64(quantity))
	s.record(ctx, "update_stock", "success")

	s.logger.InfoContext(ctx, "Product stock updated",
		slog.String("product_id", id),
		slog.Int("stock", product.Stock),
	)

	span.SetAttributes(attribute.Int("product.stock", product.Stock))
	span.SetStatus(codes.Ok, "Stock updated successfully")
	return product, true, nil
}

// UpdateProductPrice replaces the price of a product. The boolean is false
// when no product has that ID.
func (s *ProductService) UpdateProductPrice(ctx context.Context, id string, price float64) (*domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProductPrice")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", id),
		attribute.Float64("product.price", price),
	)

	s.logger.InfoContext(ctx, "Updating product price",
		slog.String("product_id", id),
		slog.Float64("price", price),
	)

	product, found, err := s.repo.Update(ctx, id, func(p *domain.Product) error {
		return p.UpdatePrice(price)
	})
	if err != nil {
		s.fail(ctx, span, "update_price", "Price update rejected", err)
		return nil, found, err
	}
	if !found {
		s.notFound(ctx, span, "update_price", id)
		return nil, false, nil
	}

	s.record(ctx, "update_price", "success")
	span.SetStatus(codes.Ok, "Price updated successfully")
	return product, true, nil
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.WarnContext(ctx, msg,
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	s.record(ctx, operation, "failure")
}

func (s *ProductService) notFound(ctx context.Context, span trace.Span, operation, id string) {
	span.SetAttributes(attribute.Bool("product.found", false))
	s.logger.InfoContext(ctx, "Product not found",
		slog.String("operation", operation),
		slog.String("product_id", id),
	)
	s.record(ctx, operation, "not_found")
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
