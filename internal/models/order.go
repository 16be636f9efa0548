package models

import (
	"slices"
	"time"
)

type OrderStatus string

// Order status values
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists the statuses each status may move to
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

// Valid reports whether the status is a known one
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// OrderItem is a product snapshot inside an order
type OrderItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// ShippingAddress is stored as a JSON document
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order represents a placed order
type Order struct {
	ID              int             `json:"id"`
	UserID          int             `json:"userId"`
	Items           []OrderItem     `json:"items"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateOrderItem is a requested line of an order
type CreateOrderItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// CreateOrderRequest is the payload for placing an order
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
}

// UpdateOrderStatusRequest is the payload for changing an order status
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderListFilter narrows the order list
type OrderListFilter struct {
	Page   int
	Count  int
	UserID *int
	Status *OrderStatus
}

// Order event types published to the message broker
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
	OrderEventDeleted       = "order.deleted"
)

// OrderEvent describes a change in an order's lifecycle
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    int         `json:"orderId"`
	UserID     int         `json:"userId"`
	Status     OrderStatus `json:"status"`
	Total      float64     `json:"total"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewOrderEvent builds an event from the current state of an order
func NewOrderEvent(eventType string, order *Order) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: time.Now().UTC(),
	}
}
