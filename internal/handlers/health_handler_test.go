package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthHandler_Health(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		checks         map[string]HealthCheck
		expectedStatus int
		expectedBody   HealthResponse
	}{
		{
			name:           "no checks",
			checks:         nil,
			expectedStatus: http.StatusOK,
			expectedBody:   HealthResponse{Status: "ok"},
		},
		{
			name:           "all healthy",
			checks:         map[string]HealthCheck{"database": ok, "redis": ok},
			expectedStatus: http.StatusOK,
			expectedBody:   HealthResponse{Status: "ok", Checks: map[string]string{"database": "ok", "redis": "ok"}},
		},
		{
			name:           "redis down",
			checks:         map[string]HealthCheck{"database": ok, "redis": down},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   HealthResponse{Status: "degraded", Checks: map[string]string{"database": "ok", "redis": "unavailable"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks, zap.NewNop())

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}
