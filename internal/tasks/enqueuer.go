package tasks

import (
	"context"
	"fmt"

	"github.com/coursework/storefront/internal/models"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Client is the part of *asynq.Client the enqueuer needs
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules e-mail jobs on asynq
type Enqueuer struct {
	client Client
	logger *zap.Logger
}

// NewEnqueuer creates a new enqueuer
func NewEnqueuer(client Client, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

// EnqueueWelcomeEmail schedules the welcome e-mail for a newly registered user
func (e *Enqueuer) EnqueueWelcomeEmail(ctx context.Context, email, username string) error {
	task, err := NewWelcomeEmailTask(email, username)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

// EnqueueOrderConfirmation schedules the confirmation e-mail for a placed order
func (e *Enqueuer) EnqueueOrderConfirmation(ctx context.Context, email string, order *models.Order) error {
	task, err := NewOrderConfirmationTask(email, order)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	e.logger.Debug("Task enqueued",
		zap.String("type", task.Type()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}
