package main

import (
	"context"
	"errors"
	"testing"

	"github.com/coursework/storefront/internal/models"
	"github.com/coursework/storefront/internal/tasks"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sentEmail is a message captured by mockMailer
type sentEmail struct {
	to      string
	subject string
	body    string
}

// mockMailer is a mock implementation of Mailer
type mockMailer struct {
	sent []sentEmail
	err  error
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func TestWorker_HandleWelcomeEmail(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mailer := &mockMailer{}
		worker := NewWorker(zap.NewNop(), mailer)

		task, err := tasks.NewWelcomeEmailTask("alice@example.com", "<alice>")
		require.NoError(t, err)

		require.NoError(t, worker.HandleWelcomeEmail(context.Background(), task))
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "alice@example.com", mailer.sent[0].to)
		assert.Equal(t, "Welcome to Storefront", mailer.sent[0].subject)
		assert.Contains(t, mailer.sent[0].body, "&lt;alice&gt;")
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		mailer := &mockMailer{}
		worker := NewWorker(zap.NewNop(), mailer)

		err := worker.HandleWelcomeEmail(context.Background(), asynq.NewTask(tasks.TypeWelcomeEmail, []byte("{")))
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Empty(t, mailer.sent)
	})

	t.Run("smtp failure is retried", func(t *testing.T) {
		mailer := &mockMailer{err: errors.New("connection refused")}
		worker := NewWorker(zap.NewNop(), mailer)

		task, err := tasks.NewWelcomeEmailTask("alice@example.com", "alice")
		require.NoError(t, err)

		err = worker.HandleWelcomeEmail(context.Background(), task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestWorker_HandleOrderConfirmation(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mailer := &mockMailer{}
		worker := NewWorker(zap.NewNop(), mailer)

		task, err := tasks.NewOrderConfirmationTask("bob@example.com", &models.Order{
			ID:    42,
			Total: 25.5,
			Items: []models.OrderItem{
				{ProductID: 1, Name: "Mug", Quantity: 2, UnitPrice: 10},
				{ProductID: 2, Name: "Spoon", Quantity: 1, UnitPrice: 5.5},
			},
		})
		require.NoError(t, err)

		require.NoError(t, worker.HandleOrderConfirmation(context.Background(), task))
		require.Len(t, mailer.sent, 1)
		email := mailer.sent[0]
		assert.Equal(t, "bob@example.com", email.to)
		assert.Equal(t, "Order #42 confirmed", email.subject)
		assert.Contains(t, email.body, "Mug")
		assert.Contains(t, email.body, "2 x 10.00")
		assert.Contains(t, email.body, "Total: 25.50")
	})

	t.Run("missing recipient is not retried", func(t *testing.T) {
		worker := NewWorker(zap.NewNop(), &mockMailer{})

		err := worker.HandleOrderConfirmation(context.Background(), asynq.NewTask(tasks.TypeOrderConfirmation, []byte(`{"orderId":1}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestWorker_RegisterHandlers(t *testing.T) {
	mailer := &mockMailer{}
	worker := NewWorker(zap.NewNop(), mailer)

	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux)

	task, err := tasks.NewWelcomeEmailTask("alice@example.com", "alice")
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Len(t, mailer.sent, 1)
}
