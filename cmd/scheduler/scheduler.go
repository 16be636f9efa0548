package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	tokenCleanupLockKey = "storefront:scheduler:token_cleanup"
	tokenCleanupTimeout = time.Minute
)

// ExpiredTokenRepository defines methods for purging refresh tokens
type ExpiredTokenRepository interface {
	// DeleteExpiredTokens deletes every token issued at or before expiryTime
	//
	// Returns the number of deleted tokens.
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// Locker guards a job so only one scheduler instance runs a given tick
type Locker interface {
	// Acquire takes the lock for ttl. It reports false when another instance holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron          *cron.Cron
	tokenRepo     ExpiredTokenRepository
	locker        Locker
	refreshExpiry time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewScheduler creates a scheduler running the token cleanup on the given cron spec
func NewScheduler(
	spec string,
	tokenRepo ExpiredTokenRepository,
	locker Locker,
	refreshExpiry time.Duration,
	logger *zap.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:          cron.New(),
		tokenRepo:     tokenRepo,
		locker:        locker,
		refreshExpiry: refreshExpiry,
		logger:        logger,
		now:           time.Now,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.CleanupExpiredTokens(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid token cleanup schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// CleanupExpiredTokens deletes refresh tokens older than the refresh token lifetime
func (s *Scheduler) CleanupExpiredTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, tokenCleanupTimeout)
	defer cancel()

	acquired, err := s.locker.Acquire(ctx, tokenCleanupLockKey, tokenCleanupTimeout)
	if err != nil {
		s.logger.Error("Failed to acquire token cleanup lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("Token cleanup is running elsewhere, skipping")
		return
	}

	expiryTime := s.now().Add(-s.refreshExpiry)
	deleted, err := s.tokenRepo.DeleteExpiredTokens(ctx, expiryTime)
	if err != nil {
		s.logger.Error("Failed to delete expired tokens", zap.Error(err))
		return
	}

	s.logger.Info("Expired tokens deleted",
		zap.Int("count", deleted),
		zap.Time("expiry_time", expiryTime),
	)
}
