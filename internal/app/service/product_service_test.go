package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
)

type fixture struct {
	service *service.ProductService
	repo    *memory.ProductRepository
	spans   *tracetest.SpanRecorder
	reader  *sdkmetric.ManualReader
}

func setup(t *testing.T) *fixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := tp.Tracer("test")
	repo := memory.NewProductRepository(tracer, logger)

	return &fixture{
		service: service.NewProductService(repo, tracer, mp.Meter("test"), logger),
		repo:    repo,
		spans:   spans,
		reader:  reader,
	}
}

// operationCount sums products.operations data points matching operation and result.
func (f *fixture) operationCount(t *testing.T, operation, result string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "products.operations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				res, _ := dp.Attributes.Value(attribute.Key("result"))
				if op.AsString() == operation && res.AsString() == result {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestCreateProduct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, "Test Product", 10.99, 5)

	require.NoError(t, err)
	_, err = uuid.Parse(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Product", product.Name)
	assert.Equal(t, 10.99, product.Price)
	assert.Equal(t, 5, product.Stock)

	saved, found, err := f.repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, *product, *saved)

	assert.Equal(t, int64(1), f.operationCount(t, "create", "success"))
}

func TestCreateProductValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.CreateProduct(ctx, "", 1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidProductName)

	_, err = f.service.CreateProduct(ctx, "Widget", -1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidProductPrice)

	_, err = f.service.CreateProduct(ctx, "Widget", 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidProductStock)

	all, err := f.service.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, int64(3), f.operationCount(t, "create", "failure"))
}

func TestGetProduct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, "Test Product", 10.99, 5)
	require.NoError(t, err)

	t.Run("Found", func(t *testing.T) {
		product, found, err := f.service.GetProduct(ctx, created.ID)

		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.ID, product.ID)
	})

	t.Run("Not found", func(t *testing.T) {
		product, found, err := f.service.GetProduct(ctx, uuid.NewString())

		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, product)
		assert.Equal(t, int64(1), f.operationCount(t, "read", "not_found"))
	})
}

func TestListProducts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first, err := f.service.CreateProduct(ctx, "Product 1", 10.99, 5)
	require.NoError(t, err)
	second, err := f.service.CreateProduct(ctx, "Product 2", 20.99, 10)
	require.NoError(t, err)

	products, err := f.service.ListProducts(ctx)

	require.NoError(t, err)
	require.Len(t, products, 2)
	ids := []string{products[0].ID, products[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestUpdateProductStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, "Widget", 10.99, 5)
	require.NoError(t, err)

	t.Run("Increase", func(t *testing.T) {
		product, found, err := f.service.UpdateProductStock(ctx, created.ID, 3)

		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 8, product.Stock)
	})

	t.Run("Fail below zero", func(t *testing.T) {
		product, found, err := f.service.UpdateProductStock(ctx, created.ID, -20)

		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.True(t, found)
		assert.Nil(t, product)

		stored, _, _ := f.service.GetProduct(ctx, created.ID)
		assert.Equal(t, 8, stored.Stock)
	})

	t.Run("Not found", func(t *testing.T) {
		product, found, err := f.service.UpdateProductStock(ctx, uuid.NewString(), 1)

		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, product)
	})
}

func TestUpdateProductStockConcurrently(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, "Widget", 1, 100)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.service.UpdateProductStock(ctx, created.ID, 2)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := f.service.UpdateProductStock(ctx, created.ID, -1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	product, _, err := f.service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, product.Stock)
}

func TestUpdateProductPrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, "Widget", 10.99, 5)
	require.NoError(t, err)

	product, found, err := f.service.UpdateProductPrice(ctx, created.ID, 7.5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 7.5, product.Price)

	_, found, err = f.service.UpdateProductPrice(ctx, created.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, found)

	stored, _, _ := f.service.GetProduct(ctx, created.ID)
	assert.Equal(t, 7.5, stored.Price)

	_, found, err = f.service.UpdateProductPrice(ctx, uuid.NewString(), 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestServiceRecordsSpans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.service.CreateProduct(ctx, "Widget", 10.99, 5)
	require.NoError(t, err)
	_, _, err = f.service.UpdateProductStock(ctx, created.ID, -10)
	require.Error(t, err)

	names := map[string]sdktrace.ReadOnlySpan{}
	for _, span := range f.spans.Ended() {
		names[span.Name()] = span
	}

	assert.Contains(t, names, "ProductService.CreateProduct")
	assert.Contains(t, names, "ProductRepository.Save")
	require.Contains(t, names, "ProductService.UpdateProductStock")
	assert.Equal(t, "Stock update rejected", names["ProductService.UpdateProductStock"].Status().Description)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Bool(1), args.Error(2)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]*domain.Product)
	return products, args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id string, mutate func(*domain.Product) error) (*domain.Product, bool, error) {
	args := m.Called(ctx, id, mutate)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Bool(1), args.Error(2)
}

func TestStorageErrorsPropagate(t *testing.T) {
	repo := &mockRepository{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	svc := service.NewProductService(repo, tracer, meter, logger)
	ctx := context.Background()
	storageErr := domain.NewStorageError("write", errors.New("connection reset"))

	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(storageErr)
	repo.On("FindByID", mock.Anything, "broken").Return(nil, false, storageErr)
	repo.On("FindAll", mock.Anything).Return(nil, storageErr)
	repo.On("Update", mock.Anything, "broken", mock.Anything).Return(nil, false, storageErr)

	_, err := svc.CreateProduct(ctx, "Widget", 1, 1)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = svc.GetProduct(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.ListProducts(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = svc.UpdateProductStock(ctx, "broken", 1)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = svc.UpdateProductPrice(ctx, "broken", 1)
	assert.ErrorIs(t, err, domain.ErrStorage)

	repo.AssertExpectations(t)
}
