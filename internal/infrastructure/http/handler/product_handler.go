package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/response"
)

const (
	msgInvalidID       = "Invalid product ID format"
	msgNotFound        = "Product not found"
	msgInvalidBody     = "Invalid request body"
	msgBodyTooLarge    = "Request body too large"
	msgInternalFailure = "Internal server error"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON body")

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints on r
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Get("/{id}", h.GetProduct)
	r.Patch("/{id}/stock", h.UpdateStock)
	r.Patch("/{id}/price", h.UpdatePrice)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), *req.Name, *req.Price, *req.Stock)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, found, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		response.Message(w, http.StatusNotFound, msgNotFound)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// UpdateStock handles PATCH /products/{id}/stock
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateStockRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, found, err := h.service.UpdateProductStock(r.Context(), id, *req.Quantity)
	h.writeUpdate(w, r, product, found, err)
}

// UpdatePrice handles PATCH /products/{id}/price
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePriceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, found, err := h.service.UpdateProductPrice(r.Context(), id, *req.Price)
	h.writeUpdate(w, r, product, found, err)
}

func (h *ProductHandler) writeUpdate(w http.ResponseWriter, r *http.Request, product *domain.Product, found bool, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		response.Message(w, http.StatusNotFound, msgNotFound)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// decode reads exactly one JSON value from the body. Oversized bodies get a
// 413; malformed JSON or trailing data after the value gets a 400.
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(v)
	if err == nil && !errors.Is(dec.Decode(&struct{}{}), io.EOF) {
		err = errTrailingData
	}
	if err == nil {
		return true
	}

	h.logger.WarnContext(r.Context(), "Failed to decode request body",
		slog.String("error", err.Error()),
	)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Message(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return false
	}
	response.Message(w, http.StatusBadRequest, msgInvalidBody)
	return false
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("error", err.Error()),
		)
		response.Message(w, status, msgInternalFailure)
		return
	}
	response.Error(w, status, err)
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// productID reads and validates the {id} URL parameter, writing a 400 when
// it is not a UUID.
func productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	parsed, err := uuid.Parse(id)
	if err != nil {
		response.Message(w, http.StatusBadRequest, msgInvalidID)
		return "", false
	}
	return parsed.String(), true
}
