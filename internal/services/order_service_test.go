package services

import (
	"context"
	"errors"
	"testing"

	"github.com/coursework/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testAddress = models.ShippingAddress{FullName: "Alice", Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

type orderServiceDeps struct {
	orders *mockOrderRepository
	users  *mockUserRepository
	tasks  *mockTaskEnqueuer
	events *mockEventPublisher
}

func newTestOrderService(deps orderServiceDeps) *orderService {
	if deps.orders == nil {
		deps.orders = &mockOrderRepository{}
	}
	if deps.users == nil {
		deps.users = &mockUserRepository{user: &models.User{ID: 5, Email: "alice@example.com"}}
	}
	if deps.tasks == nil {
		deps.tasks = &mockTaskEnqueuer{}
	}
	if deps.events == nil {
		deps.events = &mockEventPublisher{}
	}
	return NewOrderService(deps.orders, deps.users, deps.tasks, deps.events, zap.NewNop())
}

func TestOrderService_CreateOrder(t *testing.T) {
	tests := []struct {
		name          string
		req           models.CreateOrderRequest
		orders        *mockOrderRepository
		validation    bool
		expectedError error
		expectedTotal float64
		expectedItems int
	}{
		{
			name: "success",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
				ShippingAddress: testAddress,
			},
			orders:        &mockOrderRepository{},
			expectedTotal: 30,
			expectedItems: 2,
		},
		{
			name: "duplicate lines merged",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 3}},
				ShippingAddress: testAddress,
			},
			orders:        &mockOrderRepository{},
			expectedTotal: 50,
			expectedItems: 1,
		},
		{
			name:       "empty items",
			req:        models.CreateOrderRequest{ShippingAddress: testAddress},
			orders:     &mockOrderRepository{},
			validation: true,
		},
		{
			name: "zero quantity",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 0}},
				ShippingAddress: testAddress,
			},
			orders:     &mockOrderRepository{},
			validation: true,
		},
		{
			name: "invalid product id",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 0, Quantity: 1}},
				ShippingAddress: testAddress,
			},
			orders:     &mockOrderRepository{},
			validation: true,
		},
		{
			name: "missing city",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 1}},
				ShippingAddress: models.ShippingAddress{FullName: "Alice", Street: "1 Main St", Country: "US"},
			},
			orders:     &mockOrderRepository{},
			validation: true,
		},
		{
			name: "insufficient stock",
			req: models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 100}},
				ShippingAddress: testAddress,
			},
			orders:        &mockOrderRepository{placeErr: models.ErrInsufficientStock},
			expectedError: models.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mockTaskEnqueuer{}
			events := &mockEventPublisher{}
			svc := newTestOrderService(orderServiceDeps{orders: tt.orders, tasks: tasks, events: events})

			order, err := svc.CreateOrder(context.Background(), 5, &tt.req)

			switch {
			case tt.validation:
				var validationErr *models.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Nil(t, tt.orders.placed)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, tasks.confirmations)
				assert.Empty(t, events.events)
			default:
				require.NoError(t, err)
				assert.Equal(t, 42, order.ID)
				assert.Equal(t, 5, order.UserID)
				assert.Equal(t, models.OrderStatusPending, order.Status)
				assert.Equal(t, tt.expectedTotal, order.Total)
				assert.Len(t, order.Items, tt.expectedItems)
				assert.Equal(t, []int{42}, tasks.confirmations)
				require.Len(t, events.events, 1)
				assert.Equal(t, models.OrderEventCreated, events.events[0].Type)
			}
		})
	}
}

func TestOrderService_CreateOrder_SideEffectFailuresIgnored(t *testing.T) {
	svc := newTestOrderService(orderServiceDeps{
		users:  &mockUserRepository{getByIDErr: errors.New("database error")},
		events: &mockEventPublisher{err: errors.New("broker down")},
	})

	order, err := svc.CreateOrder(context.Background(), 5, &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{ProductID: 1, Quantity: 1}},
		ShippingAddress: testAddress,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, order.ID)
}

func TestOrderService_GetMyOrders(t *testing.T) {
	orders := &mockOrderRepository{orders: []models.Order{{ID: 1, UserID: 5}}}
	svc := newTestOrderService(orderServiceDeps{orders: orders})

	result, err := svc.GetMyOrders(context.Background(), 5, 0, 0)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	require.NotNil(t, orders.lastFilter.UserID)
	assert.Equal(t, 5, *orders.lastFilter.UserID)
	assert.Equal(t, defaultPageSize, orders.lastFilter.Count)
}

func TestOrderService_GetOrders(t *testing.T) {
	orders := &mockOrderRepository{orders: []models.Order{}}
	svc := newTestOrderService(orderServiceDeps{orders: orders})

	paid := models.OrderStatusPaid
	_, err := svc.GetOrders(context.Background(), models.OrderListFilter{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, &paid, orders.lastFilter.Status)

	lost := models.OrderStatus("lost")
	_, err = svc.GetOrders(context.Background(), models.OrderListFilter{Status: &lost})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestOrderService_GetOrder(t *testing.T) {
	order := &models.Order{ID: 42, UserID: 5}

	tests := []struct {
		name          string
		userID        int
		role          models.Role
		orders        *mockOrderRepository
		expectedError error
	}{
		{name: "owner", userID: 5, role: models.RoleUser, orders: &mockOrderRepository{order: order}},
		{name: "admin", userID: 1, role: models.RoleAdmin, orders: &mockOrderRepository{order: order}},
		{name: "other user", userID: 6, role: models.RoleUser, orders: &mockOrderRepository{order: order}, expectedError: models.ErrForbidden},
		{name: "not found", userID: 5, role: models.RoleUser, orders: &mockOrderRepository{}, expectedError: models.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestOrderService(orderServiceDeps{orders: tt.orders})

			got, err := svc.GetOrder(context.Background(), tt.userID, tt.role, 42)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order, got)
		})
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name          string
		current       models.OrderStatus
		next          models.OrderStatus
		updateErr     error
		validation    bool
		expectedError error
	}{
		{name: "pending to paid", current: models.OrderStatusPending, next: models.OrderStatusPaid},
		{name: "paid to cancelled", current: models.OrderStatusPaid, next: models.OrderStatusCancelled},
		{name: "shipped to delivered", current: models.OrderStatusShipped, next: models.OrderStatusDelivered},
		{name: "pending to delivered", current: models.OrderStatusPending, next: models.OrderStatusDelivered, expectedError: models.ErrInvalidStatusTransition},
		{name: "cancelled is final", current: models.OrderStatusCancelled, next: models.OrderStatusPaid, expectedError: models.ErrInvalidStatusTransition},
		{name: "unknown status", current: models.OrderStatusPending, next: "lost", validation: true},
		{
			name: "lost race", current: models.OrderStatusPending, next: models.OrderStatusPaid,
			updateErr: models.ErrInvalidStatusTransition, expectedError: models.ErrInvalidStatusTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockEventPublisher{}
			orders := &mockOrderRepository{order: &models.Order{ID: 42, UserID: 5, Status: tt.current}, updateErr: tt.updateErr}
			svc := newTestOrderService(orderServiceDeps{orders: orders, events: events})

			order, err := svc.UpdateOrderStatus(context.Background(), 42, tt.next)

			switch {
			case tt.validation:
				var validationErr *models.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, events.events)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.next, order.Status)
				require.Len(t, events.events, 1)
				assert.Equal(t, models.OrderEventStatusChanged, events.events[0].Type)
				assert.Equal(t, tt.next, events.events[0].Status)
			}
		})
	}
}

func TestOrderService_DeleteOrder(t *testing.T) {
	events := &mockEventPublisher{}
	orders := &mockOrderRepository{order: &models.Order{ID: 42, UserID: 5}}
	svc := newTestOrderService(orderServiceDeps{orders: orders, events: events})

	require.NoError(t, svc.DeleteOrder(context.Background(), 42))
	assert.Equal(t, 42, orders.deletedID)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.OrderEventDeleted, events.events[0].Type)

	svc = newTestOrderService(orderServiceDeps{orders: &mockOrderRepository{}})
	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), 42), models.ErrOrderNotFound)
}
