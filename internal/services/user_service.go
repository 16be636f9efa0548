package services

import (
	"context"
	"fmt"

	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// userService implements UserService
type userService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user administration service
func NewUserService(userRepo UserRepository, logger *zap.Logger) *userService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUsers returns a page of users
func (s *userService) GetUsers(ctx context.Context, filter models.UserListFilter) ([]models.User, error) {
	filter.Page, filter.Count = normalizePage(filter.Page, filter.Count)
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, models.ErrInvalidRole
	}
	return s.userRepo.GetAll(ctx, filter)
}

// UpdateUserRole changes the role of a user. Admins can not change their own role.
func (s *userService) UpdateUserRole(ctx context.Context, actorID, userID int, role string) error {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return err
	}
	if actorID == userID {
		return fmt.Errorf("%w: can not change your own role", models.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, parsed); err != nil {
		return err
	}

	s.logger.Info("user role updated", zap.Int("actorId", actorID), zap.Int("userId", userID), zap.Stringer("role", parsed))
	return nil
}

// DeleteUser deletes a user. Admins can not delete themselves.
func (s *userService) DeleteUser(ctx context.Context, actorID, userID int) error {
	if actorID == userID {
		return fmt.Errorf("%w: can not delete yourself", models.ErrForbidden)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.Int("actorId", actorID), zap.Int("userId", userID))
	return nil
}

// normalizePage applies the default page size and clamps it
func normalizePage(page, count int) (int, int) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = defaultPageSize
	}
	if count > maxPageSize {
		count = maxPageSize
	}
	return page, count
}
