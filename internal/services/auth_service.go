package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/coursework/storefront/internal/auth"
	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// authService implements AuthService
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *auth.TokenGenerator
	tasks          TaskEnqueuer
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *auth.TokenGenerator,
	tasks TaskEnqueuer,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		tasks:          tasks,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// passwordRegex validates password: at least 8 chars, uppercase, lowercase, number, special: !_?^&+-=|
var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
	regexp.MustCompile(`[!_?^&+\-=|]`),
}

const maxUsernameLength = 50

// Register creates a new user account and signs the user in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	email, username, err := checkRegisterCredentials(ctx, s.userRepo, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Welcome mail is best effort
	if err := s.tasks.EnqueueWelcomeEmail(ctx, user.Email, user.Username); err != nil {
		s.logger.Warn("failed to enqueue welcome email", zap.Int("userId", user.ID), zap.Error(err))
	}

	return s.signIn(ctx, user)
}

// Login authenticates a user by email or username
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" {
		return nil, models.NewValidationError("login", "login cannot be empty")
	}
	if req.Password == "" {
		return nil, models.NewValidationError("password", "password cannot be empty")
	}

	user, err := s.userRepo.GetByEmailOrUsername(ctx, login)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

// Refresh rotates a refresh token and issues a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, models.ErrInvalidToken
	}

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Drop a stale record if one is still stored
		if delErr := s.userTokenRepo.DeleteByToken(ctx, refreshToken); delErr != nil {
			s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
		}
		return nil, models.ErrInvalidToken
	}

	userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
	if errors.Is(err, models.ErrTokenNotFound) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user token by refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, int(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, user.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return nil, models.ErrInvalidToken
		}
		return nil, err
	}

	return &models.AuthResponse{User: user, AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout forgets a refresh token. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.userTokenRepo.DeleteByToken(ctx, refreshToken)
}

// Me returns the profile of the authenticated user
func (s *authService) Me(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// signIn generates a token pair and stores the refresh token
func (s *authService) signIn(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, int(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	userToken := &models.UserToken{
		UserID: user.ID,
		Token:  refreshToken,
	}
	if err := s.userTokenRepo.Create(ctx, userToken); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &models.AuthResponse{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// checkRegisterCredentials validates the registration payload and returns the normalized email and username.
//
// The three checks do not depend on each other, so they run in parallel.
func checkRegisterCredentials(ctx context.Context, userRepo UserRepository, email, username, password string) (string, string, error) {
	validationErrors := make(chan error, 3)
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	normalizedUsername := strings.TrimSpace(username)

	go func() {
		for _, regex := range passwordRegex {
			if !regex.MatchString(password) {
				validationErrors <- models.NewValidationError("password",
					"password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character (!_?^&+-=|)")
				return
			}
		}
		validationErrors <- nil
	}()

	go func() {
		if !emailRegex.MatchString(normalizedEmail) {
			validationErrors <- models.NewValidationError("email", "invalid email format")
			return
		}
		emailExists, err := userRepo.ExistsByEmail(ctx, normalizedEmail)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if emailExists {
			validationErrors <- fmt.Errorf("%w: email already taken", models.ErrUserAlreadyExists)
			return
		}
		validationErrors <- nil
	}()

	go func() {
		if normalizedUsername == "" {
			validationErrors <- models.NewValidationError("username", "username cannot be empty")
			return
		}
		if len(normalizedUsername) > maxUsernameLength {
			validationErrors <- models.NewValidationError("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
			return
		}
		usernameExists, err := userRepo.ExistsByUsername(ctx, normalizedUsername)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check username: %w", err)
			return
		}
		if usernameExists {
			validationErrors <- fmt.Errorf("%w: username already taken", models.ErrUserAlreadyExists)
			return
		}
		validationErrors <- nil
	}()

	var firstErr error
	for range 3 {
		if err := <-validationErrors; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", "", firstErr
	}

	return normalizedEmail, normalizedUsername, nil
}
