package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
)

// orderService implements OrderService
type orderService struct {
	orderRepo OrderRepository
	userRepo  UserRepository
	tasks     TaskEnqueuer
	events    EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo OrderRepository,
	userRepo UserRepository,
	tasks TaskEnqueuer,
	events EventPublisher,
	logger *zap.Logger,
) *orderService {
	return &orderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		tasks:     tasks,
		events:    events,
		logger:    logger,
	}
}

// CreateOrder places an order for the given user
func (s *orderService) CreateOrder(ctx context.Context, userID int, req *models.CreateOrderRequest) (*models.Order, error) {
	items, err := mergeOrderItems(req.Items)
	if err != nil {
		return nil, err
	}
	address, err := normalizeAddress(req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		Status:          models.OrderStatusPending,
		ShippingAddress: address,
	}
	if err := s.orderRepo.Place(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order placed", zap.Int("orderId", order.ID), zap.Int("userId", userID), zap.Float64("total", order.Total))

	if user, err := s.userRepo.GetByID(ctx, userID); err != nil {
		s.logger.Warn("failed to load user for order confirmation", zap.Int("orderId", order.ID), zap.Error(err))
	} else if err := s.tasks.EnqueueOrderConfirmation(ctx, user.Email, order); err != nil {
		s.logger.Warn("failed to enqueue order confirmation", zap.Int("orderId", order.ID), zap.Error(err))
	}
	s.publish(ctx, models.OrderEventCreated, order)

	return order, nil
}

// GetMyOrders returns a page of the user's own orders
func (s *orderService) GetMyOrders(ctx context.Context, userID, page, count int) ([]models.Order, error) {
	page, count = normalizePage(page, count)
	return s.orderRepo.GetAll(ctx, models.OrderListFilter{Page: page, Count: count, UserID: &userID})
}

// GetOrders returns a page of all orders
func (s *orderService) GetOrders(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error) {
	filter.Page, filter.Count = normalizePage(filter.Page, filter.Count)
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("unknown status %q", *filter.Status))
	}
	return s.orderRepo.GetAll(ctx, filter)
}

// GetOrder returns an order visible to the caller: its owner or an admin
func (s *orderService) GetOrder(ctx context.Context, userID int, role models.Role, orderID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && role < models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new status following the allowed transitions
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidStatusTransition, order.Status, status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, order, status); err != nil {
		return nil, err
	}

	s.logger.Info("order status updated", zap.Int("orderId", order.ID), zap.String("status", string(status)))
	s.publish(ctx, models.OrderEventStatusChanged, order)

	return order, nil
}

// DeleteOrder deletes an order
func (s *orderService) DeleteOrder(ctx context.Context, orderID int) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}

	s.publish(ctx, models.OrderEventDeleted, order)
	return nil
}

// publish sends an order event, failures are only logged
func (s *orderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.events.PublishOrderEvent(ctx, models.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", eventType), zap.Int("orderId", order.ID), zap.Error(err))
	}
}

// mergeOrderItems validates requested lines and folds duplicates of the same product
func mergeOrderItems(requested []models.CreateOrderItem) ([]models.OrderItem, error) {
	if len(requested) == 0 {
		return nil, models.NewValidationError("items", "order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(requested))
	index := make(map[int]int, len(requested))
	for _, line := range requested {
		if line.ProductID < 1 {
			return nil, models.NewValidationError("items", "productId must be a positive integer")
		}
		if line.Quantity < 1 {
			return nil, models.NewValidationError("items", "quantity must be at least 1")
		}
		if i, ok := index[line.ProductID]; ok {
			items[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(items)
		items = append(items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	return items, nil
}

func normalizeAddress(address models.ShippingAddress) (models.ShippingAddress, error) {
	address.FullName = strings.TrimSpace(address.FullName)
	address.Street = strings.TrimSpace(address.Street)
	address.City = strings.TrimSpace(address.City)
	address.PostalCode = strings.TrimSpace(address.PostalCode)
	address.Country = strings.TrimSpace(address.Country)

	switch {
	case address.FullName == "":
		return address, models.NewValidationError("shippingAddress.fullName", "full name is required")
	case address.Street == "":
		return address, models.NewValidationError("shippingAddress.street", "street is required")
	case address.City == "":
		return address, models.NewValidationError("shippingAddress.city", "city is required")
	case address.Country == "":
		return address, models.NewValidationError("shippingAddress.country", "country is required")
	}

	return address, nil
}
