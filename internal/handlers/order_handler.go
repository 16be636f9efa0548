package handlers

import (
	"context"
	"net/http"

	"github.com/coursework/storefront/internal/middleware"
	"github.com/coursework/storefront/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderService is the interface that wraps methods for order business logic.
type OrderService interface {
	// Method CreateOrder places an order for userID.
	//
	// Returns models.ErrInsufficientStock or models.ErrProductNotFound when an item can not be fulfilled.
	CreateOrder(ctx context.Context, userID int, req *models.CreateOrderRequest) (*models.Order, error)
	// Method GetMyOrders returns a page of the orders placed by userID.
	GetMyOrders(ctx context.Context, userID, page, count int) ([]models.Order, error)
	// Method GetOrders returns a page of all orders, optionally filtered by status.
	GetOrders(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error)
	// Method GetOrder returns an order if userID owns it or role is admin.
	//
	// Returns models.ErrForbidden when the caller may not see the order.
	GetOrder(ctx context.Context, userID int, role models.Role, orderID int) (*models.Order, error)
	// Method UpdateOrderStatus moves an order to a new status.
	//
	// Returns models.ErrInvalidStatusTransition when the move is not allowed from the current status.
	UpdateOrderStatus(ctx context.Context, orderID int, status models.OrderStatus) (*models.Order, error)
	// Method DeleteOrder deletes an order.
	DeleteOrder(ctx context.Context, orderID int) error
}

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	BaseHandler
	orderService OrderService
	tokens       middleware.TokenValidator
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService OrderService, tokens middleware.TokenValidator, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		BaseHandler:  BaseHandler{logger: logger},
		orderService: orderService,
		tokens:       tokens,
	}
}

// RegisterRoutes registers all order handler routes.
// The router is expected to be scoped to /api/orders. Every route requires authentication.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticate(h.tokens))

	r.Post("/", h.CreateOrder)
	r.Get("/mine", h.GetMyOrders)
	r.Get("/{id}", h.GetOrder)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/", h.GetOrders)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
	})
}

// CreateOrder handles POST /api/orders
// @Summary Place order
// @Description Prices are taken from the current products, stock is reserved atomically.
// @Tags orders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Failure 409 {object} ErrorResponse "Insufficient stock"
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	order, err := h.orderService.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		h.respondServiceError(w, r, err, "create order")
		return
	}

	h.respondJSON(w, http.StatusCreated, order)
}

// GetMyOrders handles GET /api/orders/mine
// @Summary List own orders
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Success 200 {array} models.Order
// @Router /orders/mine [get]
func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	page, count, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	orders, err := h.orderService.GetMyOrders(r.Context(), userID, page, count)
	if err != nil {
		h.respondServiceError(w, r, err, "get orders")
		return
	}

	h.respondJSON(w, http.StatusOK, orders)
}

// GetOrders handles GET /api/orders
// @Summary List all orders
// @Description Admin only.
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by status"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Success 200 {array} models.Order
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Router /orders [get]
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	page, count, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	filter := models.OrderListFilter{Page: page, Count: count}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.OrderStatus(raw)
		filter.Status = &status
	}

	orders, err := h.orderService.GetOrders(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err, "get orders")
		return
	}

	h.respondJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{id}
// @Summary Get order
// @Description Visible to the order owner and to admins.
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 403 {object} ErrorResponse "Not your order"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	role, _ := middleware.GetUserRole(r.Context())
	order, err := h.orderService.GetOrder(r.Context(), userID, role, id)
	if err != nil {
		h.respondServiceError(w, r, err, "get order")
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/{id}/status
// @Summary Update order status
// @Description Admin only. pending -> paid|cancelled, paid -> shipped|cancelled, shipped -> delivered.
// @Tags orders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Order ID"
// @Param request body models.UpdateOrderStatusRequest true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse "Invalid status or transition"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondServiceError(w, r, err, "update order status")
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/{id}
// @Summary Delete order
// @Description Admin only.
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Order ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse "Order not found"
// @Router /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "delete order")
		return
	}

	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "order deleted"})
}
