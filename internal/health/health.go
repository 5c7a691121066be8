package health

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Checker defines the interface for health checking components
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // Critical services block startup if unhealthy
	Name() string
}

// Manager runs a set of health checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (h *Manager) AddChecker(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// StartupHealthCheck performs critical health checks that must pass for startup
func (h *Manager) StartupHealthCheck(ctx context.Context) error {
	_, err := h.RuntimeHealthCheck(ctx)
	return err
}

// RuntimeHealthCheck runs every checker once and returns the results keyed by
// name. The error is non-nil only when a critical checker failed.
func (h *Manager) RuntimeHealthCheck(ctx context.Context) (map[string]error, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make(map[string]error, len(h.checkers))
	var criticalFailures []error

	for _, checker := range h.checkers {
		err := checker.HealthCheck(ctx)
		results[checker.Name()] = err

		switch {
		case err == nil:
			h.logger.Debug("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			h.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			h.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return results, fmt.Errorf("critical services failed health check: %w", errors.Join(criticalFailures...))
	}

	return results, nil
}

// Pinger is implemented by anything that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker checks a store connection
type StoreChecker struct {
	name  string
	store Pinger
}

// NewStoreChecker creates a critical checker around a store ping
func NewStoreChecker(name string, store Pinger) *StoreChecker {
	return &StoreChecker{name: name, store: store}
}

func (s *StoreChecker) HealthCheck(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("store is nil")
	}
	return s.store.Ping(ctx)
}

func (s *StoreChecker) IsCritical() bool {
	return true // nothing can be served without the store
}

func (s *StoreChecker) Name() string {
	return s.name
}
