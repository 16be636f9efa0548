// Package tasks declares the background jobs shared by the API and the worker
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/coursework/storefront/internal/models"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeWelcomeEmail      = "email:welcome"
	TypeOrderConfirmation = "email:order_confirmation"
)

// QueueEmails is the asynq queue e-mail jobs are enqueued to
const QueueEmails = "emails"

// maxRetry bounds redelivery of a failing e-mail job
const maxRetry = 5

// WelcomeEmailPayload is the payload of TypeWelcomeEmail
type WelcomeEmailPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// OrderConfirmationPayload is the payload of TypeOrderConfirmation
type OrderConfirmationPayload struct {
	Email   string             `json:"email"`
	OrderID int                `json:"orderId"`
	Total   float64            `json:"total"`
	Items   []models.OrderItem `json:"items"`
}

// NewWelcomeEmailTask builds a welcome e-mail job
func NewWelcomeEmailTask(email, username string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{Email: email, Username: username})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal welcome email payload: %w", err)
	}
	return asynq.NewTask(TypeWelcomeEmail, payload, asynq.Queue(QueueEmails), asynq.MaxRetry(maxRetry)), nil
}

// NewOrderConfirmationTask builds an order confirmation e-mail job
func NewOrderConfirmationTask(email string, order *models.Order) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderConfirmationPayload{
		Email:   email,
		OrderID: order.ID,
		Total:   order.Total,
		Items:   order.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, payload, asynq.Queue(QueueEmails), asynq.MaxRetry(maxRetry)), nil
}

// ParseWelcomeEmailPayload decodes the payload of a welcome e-mail job
func ParseWelcomeEmailPayload(t *asynq.Task) (*WelcomeEmailPayload, error) {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", TypeWelcomeEmail, err)
	}
	if p.Email == "" {
		return nil, fmt.Errorf("%s payload has no recipient", TypeWelcomeEmail)
	}
	return &p, nil
}

// ParseOrderConfirmationPayload decodes the payload of an order confirmation job
func ParseOrderConfirmationPayload(t *asynq.Task) (*OrderConfirmationPayload, error) {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", TypeOrderConfirmation, err)
	}
	if p.Email == "" {
		return nil, fmt.Errorf("%s payload has no recipient", TypeOrderConfirmation)
	}
	return &p, nil
}
