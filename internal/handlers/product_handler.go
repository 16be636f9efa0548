package handlers

import (
	"context"
	"net/http"

	"github.com/coursework/storefront/internal/middleware"
	"github.com/coursework/storefront/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductService is the interface that wraps methods for product business logic.
type ProductService interface {
	// Method GetProducts returns a page of products, newest first.
	//
	// "filter" parameter carries page, count and an optional name search.
	GetProducts(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error)
	// Method GetProduct returns a product by ID or models.ErrProductNotFound.
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	// Method CreateProduct validates and stores a product.
	CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	// Method UpdateProduct validates and replaces a product.
	UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, error)
	// Method DeleteProduct deletes a product.
	DeleteProduct(ctx context.Context, id int) error
}

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	BaseHandler
	productService ProductService
	tokens         middleware.TokenValidator
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService ProductService, tokens middleware.TokenValidator, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler:    BaseHandler{logger: logger},
		productService: productService,
		tokens:         tokens,
	}
}

// RegisterRoutes registers all product handler routes.
// The router is expected to be scoped to /api/products.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetProducts)
	r.Get("/{id}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.tokens))
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Post("/", h.CreateProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// GetProducts handles GET /api/products
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Param search query string false "Search in product name"
// @Success 200 {array} models.Product
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Router /products [get]
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	page, count, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	products, err := h.productService.GetProducts(r.Context(), models.ProductListFilter{
		Page:   page,
		Count:  count,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "get products")
		return
	}

	h.respondJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "get product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products
// @Summary Create product
// @Description Admin only.
// @Tags products
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ProductRequest true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Router /products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err, "create product")
		return
	}

	h.respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}
// @Summary Replace product
// @Description Admin only.
// @Tags products
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Product ID"
// @Param request body models.ProductRequest true "Product"
// @Success 200 {object} models.Product
// @Failure 400 {object} ErrorResponse "Invalid id or payload"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, r, err, "update product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
// @Summary Delete product
// @Description Admin only.
// @Tags products
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Product ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "delete product")
		return
	}

	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}
