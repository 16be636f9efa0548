package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coursework/storefront/internal/middleware"
	"github.com/coursework/storefront/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// refreshTokenCookie holds the refresh token for browser clients
const refreshTokenCookie = "refresh_token"

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the payload, creates a user and signs them in.
	//
	// "req" parameter contains username, email and password.
	//
	// Returns a *models.ValidationError for malformed input and models.ErrUserAlreadyExists
	// when the email or username is taken.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	// Method Login verifies credentials and issues a token pair.
	//
	// "req" parameter contains login (email or username) and password.
	//
	// Returns models.ErrInvalidCredentials when the user does not exist or the password does not match.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	// Method Refresh rotates a refresh token.
	//
	// Returns models.ErrInvalidToken when the token is malformed, expired or unknown.
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	// Method Logout forgets a refresh token.
	Logout(ctx context.Context, refreshToken string) error
	// Method Me returns the authenticated user.
	Me(ctx context.Context, userID int) (*models.User, error)
}

// UserService is the interface that wraps methods for user administration.
type UserService interface {
	// Method GetUsers returns a page of users filtered by role and search term.
	GetUsers(ctx context.Context, filter models.UserListFilter) ([]models.User, error)
	// Method UpdateUserRole changes the role of userID on behalf of actorID.
	//
	// "role" parameter is a role name or its numeric value.
	//
	// Returns models.ErrInvalidRole for unknown roles and models.ErrForbidden when actorID equals userID.
	UpdateUserRole(ctx context.Context, actorID, userID int, role string) error
	// Method DeleteUser deletes userID on behalf of actorID.
	//
	// Returns models.ErrForbidden when actorID equals userID.
	DeleteUser(ctx context.Context, actorID, userID int) error
}

// CookieConfig controls the token cookies set on sign-in
type CookieConfig struct {
	Secure             bool
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	BaseHandler
	authService AuthService
	userService UserService
	tokens      middleware.TokenValidator
	cookies     CookieConfig
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	authService AuthService,
	userService UserService,
	tokens middleware.TokenValidator,
	cookies CookieConfig,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{logger: logger},
		authService: authService,
		userService: userService,
		tokens:      tokens,
		cookies:     cookies,
	}
}

// RegisterRoutes registers all user handler routes.
// The router is expected to be scoped to /api/users.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.RegisterUser)
	r.Post("/login", h.LoginUser)
	r.Post("/refresh", h.RefreshToken)
	r.Post("/logout", h.LogoutUser)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.tokens))
		r.Get("/me", h.GetCurrentUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/", h.GetUsers)
			r.Put("/{id}/role", h.UpdateUserRole)
			r.Delete("/{id}", h.DeleteUser)
		})
	})
}

// RegisterUser handles POST /api/users/register
// @Summary Register a new user
// @Description Create an account and sign in. Tokens are returned in the body and as HTTP-only cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration payload"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 409 {object} ErrorResponse "Email or username already taken"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err, "register user")
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	h.respondJSON(w, http.StatusCreated, resp)
}

// LoginUser handles POST /api/users/login
// @Summary Login user
// @Description Authenticate with email or username and password.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /users/login [post]
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err, "login user")
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	h.respondJSON(w, http.StatusOK, resp)
}

// RefreshRequest represents a token refresh or logout request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken handles POST /api/users/refresh
// @Summary Refresh tokens
// @Description Rotate the refresh token. The token is read from the body or the refresh_token cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse "Refresh token required"
// @Failure 401 {object} ErrorResponse "Invalid or expired token"
// @Router /users/refresh [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken == "" {
		h.respondError(w, http.StatusBadRequest, "refresh token required")
		return
	}

	resp, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.clearTokenCookies(w)
		h.respondServiceError(w, r, err, "refresh tokens")
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	h.respondJSON(w, http.StatusOK, resp)
}

// LogoutUser handles POST /api/users/logout
// @Summary Logout user
// @Description Forget the refresh token and clear the token cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 200 {object} MessageResponse
// @Router /users/logout [post]
func (h *UserHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), h.refreshTokenFromRequest(r)); err != nil {
		h.respondServiceError(w, r, err, "logout user")
		return
	}

	h.clearTokenCookies(w)
	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// GetCurrentUser handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Router /users/me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "get current user")
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

// GetUsers handles GET /api/users
// @Summary List users
// @Description Paginated list of users with optional role and search filters. Admin only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Param role query string false "Filter by role (user, admin, 1, 2)"
// @Param search query string false "Search in email or username"
// @Success 200 {array} models.User
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Router /users [get]
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, count, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	filter := models.UserListFilter{
		Page:   page,
		Count:  count,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := models.ParseRole(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid role parameter")
			return
		}
		filter.Role = &role
	}

	users, err := h.userService.GetUsers(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err, "get users")
		return
	}

	h.respondJSON(w, http.StatusOK, users)
}

// UpdateUserRole handles PUT /api/users/{id}/role
// @Summary Update user role
// @Description Change the role of a user. Admin only, admins can not change their own role.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateRoleRequest true "New role, as a name or a number"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid id or role"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())
	if err := h.userService.UpdateUserRole(r.Context(), actorID, userID, string(req.Role)); err != nil {
		h.respondServiceError(w, r, err, "update user role")
		return
	}

	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "user role updated"})
}

// DeleteUser handles DELETE /api/users/{id}
// @Summary Delete user
// @Description Delete a user together with their tokens and orders. Admin only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 403 {object} ErrorResponse "Insufficient permissions"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())
	if err := h.userService.DeleteUser(r.Context(), actorID, userID); err != nil {
		h.respondServiceError(w, r, err, "delete user")
		return
	}

	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "user deleted"})
}

// refreshTokenFromRequest reads the refresh token from the JSON body, then the cookie
func (h *UserHandler) refreshTokenFromRequest(r *http.Request) string {
	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeOptionalJSON(r, &req); err == nil && strings.TrimSpace(req.RefreshToken) != "" {
			return strings.TrimSpace(req.RefreshToken)
		}
	}

	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *UserHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.cookies.AccessTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/api/users",
		MaxAge:   int(h.cookies.RefreshTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearTokenCookies expires both token cookies
func (h *UserHandler) clearTokenCookies(w http.ResponseWriter) {
	for name, path := range map[string]string{middleware.AccessTokenCookie: "/", refreshTokenCookie: "/api/users"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
