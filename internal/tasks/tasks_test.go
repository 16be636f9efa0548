package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/coursework/storefront/internal/models"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockClient records enqueued tasks
type mockClient struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueEmails, Type: task.Type()}, nil
}

func TestNewWelcomeEmailTask(t *testing.T) {
	task, err := NewWelcomeEmailTask("alice@example.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, TypeWelcomeEmail, task.Type())

	payload, err := ParseWelcomeEmailPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", payload.Email)
	assert.Equal(t, "alice", payload.Username)
}

func TestNewOrderConfirmationTask(t *testing.T) {
	order := &models.Order{
		ID:    12,
		Total: 21,
		Items: []models.OrderItem{{ProductID: 1, Name: "Mug", Quantity: 2, UnitPrice: 10.5}},
	}

	task, err := NewOrderConfirmationTask("bob@example.com", order)
	require.NoError(t, err)
	assert.Equal(t, TypeOrderConfirmation, task.Type())

	payload, err := ParseOrderConfirmationPayload(task)
	require.NoError(t, err)
	assert.Equal(t, 12, payload.OrderID)
	assert.Equal(t, 21.0, payload.Total)
	assert.Equal(t, order.Items, payload.Items)
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name  string
		parse func(*asynq.Task) error
		task  *asynq.Task
	}{
		{
			name:  "welcome malformed json",
			parse: func(t *asynq.Task) error { _, err := ParseWelcomeEmailPayload(t); return err },
			task:  asynq.NewTask(TypeWelcomeEmail, []byte("{")),
		},
		{
			name:  "welcome without recipient",
			parse: func(t *asynq.Task) error { _, err := ParseWelcomeEmailPayload(t); return err },
			task:  asynq.NewTask(TypeWelcomeEmail, []byte(`{"username":"alice"}`)),
		},
		{
			name:  "order malformed json",
			parse: func(t *asynq.Task) error { _, err := ParseOrderConfirmationPayload(t); return err },
			task:  asynq.NewTask(TypeOrderConfirmation, []byte("[]")),
		},
		{
			name:  "order without recipient",
			parse: func(t *asynq.Task) error { _, err := ParseOrderConfirmationPayload(t); return err },
			task:  asynq.NewTask(TypeOrderConfirmation, []byte(`{"orderId":1}`)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.parse(tt.task))
		})
	}
}

func TestEnqueuer(t *testing.T) {
	t.Run("welcome email", func(t *testing.T) {
		client := &mockClient{}
		enqueuer := NewEnqueuer(client, zap.NewNop())

		require.NoError(t, enqueuer.EnqueueWelcomeEmail(context.Background(), "alice@example.com", "alice"))
		require.Len(t, client.tasks, 1)
		assert.Equal(t, TypeWelcomeEmail, client.tasks[0].Type())

		var payload WelcomeEmailPayload
		require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
		assert.Equal(t, "alice", payload.Username)
	})

	t.Run("order confirmation", func(t *testing.T) {
		client := &mockClient{}
		enqueuer := NewEnqueuer(client, zap.NewNop())

		require.NoError(t, enqueuer.EnqueueOrderConfirmation(context.Background(), "bob@example.com", &models.Order{ID: 3}))
		require.Len(t, client.tasks, 1)
		assert.Equal(t, TypeOrderConfirmation, client.tasks[0].Type())
	})

	t.Run("client failure", func(t *testing.T) {
		client := &mockClient{err: errors.New("redis unavailable")}
		enqueuer := NewEnqueuer(client, zap.NewNop())

		err := enqueuer.EnqueueWelcomeEmail(context.Background(), "alice@example.com", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue email:welcome")
	})
}
