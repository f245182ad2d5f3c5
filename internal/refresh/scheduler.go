package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"verge-groups/internal/interfaces"
)

// Refresher reloads the group model from the controller and the verge
// settings from disk.
type Refresher interface {
	Refresh(ctx context.Context) error
	RefreshVerge(ctx context.Context) error
}

const maxFailures = 3

type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	target   Refresher
	logger   *zap.Logger

	mu       sync.RWMutex
	stopping bool
	failures int
	lastErr  error
}

func NewScheduler(interval, timeout time.Duration, target Refresher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		timeout:  timeout,
		target:   target,
		logger:   logger.With(zap.String("component", "scheduler")),
	}
}

// Start refreshes on every tick until ctx is done or Stop is called. A zero
// interval disables periodic refresh.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Debug("periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Warn("refresh failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Debug("scheduler stopped", zap.Error(ctx.Err()))
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	s.mu.RLock()
	stopping := s.stopping
	s.mu.RUnlock()
	if stopping {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var errs []error
	if err := s.target.Refresh(ctx); err != nil {
		errs = append(errs, NewSyncError("refresh", "reloading proxy groups", err))
	}
	if err := s.target.RefreshVerge(ctx); err != nil {
		errs = append(errs, NewSyncError("verge", "reloading verge settings", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := errors.Join(errs...); err != nil {
		s.failures++
		s.lastErr = err
		return err
	}
	s.failures = 0
	s.lastErr = nil
	return nil
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	return nil
}

// IsHealthy is false once stopped or after three refreshes in a row failed.
func (s *Scheduler) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.stopping && s.failures < maxFailures
}

// LastError returns the error of the most recent refresh, if it failed.
func (s *Scheduler) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

var _ interfaces.Scheduler = (*Scheduler)(nil)
