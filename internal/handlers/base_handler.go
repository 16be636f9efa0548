package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coursework/storefront/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BaseHandler carries the helpers shared by every resource handler
type BaseHandler struct {
	logger *zap.Logger
}

// MessageResponse is returned by operations that have no resource to return
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a service error to a status code.
// Unexpected errors are logged and hidden behind a generic message.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidStatusTransition):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrInvalidToken):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUserAlreadyExists),
		errors.Is(err, models.ErrInsufficientStock):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("failed to "+action,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON decodes the request body into dst, answering 400 or 413 on failure
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID parses a positive integer path parameter, answering 400 when it is malformed
func (h *BaseHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		h.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional non-negative integer query parameter
func (h *BaseHandler) queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.respondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}

// pageParams reads the page and count query parameters
func (h *BaseHandler) pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, ok := h.queryInt(w, r, "page")
	if !ok {
		return 0, 0, false
	}
	count, ok := h.queryInt(w, r, "count")
	if !ok {
		return 0, 0, false
	}
	return page, count, true
}

// decodeOptionalJSON decodes a body the caller may leave empty
func decodeOptionalJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
