// Package resilience wraps store adapters with circuit breakers so that a
// failing backend is shed quickly instead of being hit once per category.
package resilience

import (
	"context"
	"errors"
	"time"

	"catmenu/application/ports"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds configuration for a store circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that opens the circuit
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// newBreaker builds a gobreaker whose failure count only includes backend
// faults. Domain rejections such as a missing category or parent item pass
// through without tripping the circuit.
func newBreaker(config CircuitBreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				pkgerrors.IsNotFound(err) ||
				pkgerrors.IsValidation(err) ||
				pkgerrors.IsStoreWrite(err) ||
				pkgerrors.IsConflict(err) ||
				pkgerrors.IsType(err, pkgerrors.ErrorTypeCancelled)
		},
	})
}

func shedError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError(name).WithCause(err)
	}
	return err
}

// MenuStore decorates a ports.MenuStore with a circuit breaker
type MenuStore struct {
	next ports.MenuStore
	cb   *gobreaker.CircuitBreaker
	name string
}

// NewMenuStore wraps next
func NewMenuStore(next ports.MenuStore, config CircuitBreakerConfig, logger *zap.Logger) *MenuStore {
	return &MenuStore{next: next, cb: newBreaker(config, logger), name: config.Name}
}

// CreateMenuItem implements ports.MenuStore
func (s *MenuStore) CreateMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.CreateMenuItem(ctx, item)
	})
	if err != nil {
		return 0, shedError(s.name, err)
	}
	return out.(valueobjects.MenuItemID), nil
}

// State reports the breaker state
func (s *MenuStore) State() gobreaker.State {
	return s.cb.State()
}

// TaxonomyStore decorates a ports.TaxonomyStore with a circuit breaker
type TaxonomyStore struct {
	next ports.TaxonomyStore
	cb   *gobreaker.CircuitBreaker
	name string
}

// NewTaxonomyStore wraps next
func NewTaxonomyStore(next ports.TaxonomyStore, config CircuitBreakerConfig, logger *zap.Logger) *TaxonomyStore {
	return &TaxonomyStore{next: next, cb: newBreaker(config, logger), name: config.Name}
}

// GetRootCategories implements ports.TaxonomyStore
func (s *TaxonomyStore) GetRootCategories(ctx context.Context) ([]*entities.Category, error) {
	return s.list(func() ([]*entities.Category, error) {
		return s.next.GetRootCategories(ctx)
	})
}

// GetChildren implements ports.TaxonomyStore
func (s *TaxonomyStore) GetChildren(ctx context.Context, id valueobjects.CategoryID) ([]*entities.Category, error) {
	return s.list(func() ([]*entities.Category, error) {
		return s.next.GetChildren(ctx, id)
	})
}

// GetCategory implements ports.TaxonomyStore
func (s *TaxonomyStore) GetCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.GetCategory(ctx, id)
	})
	if err != nil {
		return nil, shedError(s.name, err)
	}
	return out.(*entities.Category), nil
}

// State reports the breaker state
func (s *TaxonomyStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *TaxonomyStore) list(fn func() ([]*entities.Category, error)) ([]*entities.Category, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, shedError(s.name, err)
	}
	return out.([]*entities.Category), nil
}
