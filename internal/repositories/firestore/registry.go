package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/lumina-studio/api/internal/platform/firestore"
	"github.com/lumina-studio/api/internal/repositories"
)

// Registry wires every Firestore-backed repository behind a shared provider.
type Registry struct {
	provider *pfirestore.Provider

	plans      *PlanRepository
	founders   *FounderRepository
	siteConfig *SiteConfigRepository
	orders     *OrderRepository
	health     *HealthRepository
}

// RegistryOption customises registry construction.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	clock func() time.Time
}

// WithRegistryClock overrides the clock shared by every repository. One clock
// across the registry keeps injected timestamps consistent between writes.
func WithRegistryClock(clock func() time.Time) RegistryOption {
	return func(c *registryConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewRegistry constructs the Firestore repository registry.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	cfg := registryConfig{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	plans, err := NewPlanRepository(provider, WithPlanClock(cfg.clock))
	if err != nil {
		return nil, fmt.Errorf("build plan repository: %w", err)
	}
	founders, err := NewFounderRepository(provider, WithFounderClock(cfg.clock))
	if err != nil {
		return nil, fmt.Errorf("build founder repository: %w", err)
	}
	siteConfig, err := NewSiteConfigRepository(provider, WithSiteConfigClock(cfg.clock))
	if err != nil {
		return nil, fmt.Errorf("build site config repository: %w", err)
	}
	orders, err := NewOrderRepository(provider, WithOrderClock(cfg.clock))
	if err != nil {
		return nil, fmt.Errorf("build order repository: %w", err)
	}

	return &Registry{
		provider:   provider,
		plans:      plans,
		founders:   founders,
		siteConfig: siteConfig,
		orders:     orders,
		health:     &HealthRepository{provider: provider},
	}, nil
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Plans returns the plan repository.
func (r *Registry) Plans() repositories.PlanRepository { return r.plans }

// Founders returns the founder repository.
func (r *Registry) Founders() repositories.FounderRepository { return r.founders }

// SiteConfig returns the site configuration repository.
func (r *Registry) SiteConfig() repositories.SiteConfigRepository { return r.siteConfig }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Health returns the health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

// HealthRepository answers readiness probes with a lightweight read.
type HealthRepository struct {
	provider *pfirestore.Provider
}

// Ping verifies the store is reachable by resolving the shared client.
func (h *HealthRepository) Ping(ctx context.Context) error {
	if h == nil || h.provider == nil {
		return errors.New("health repository not initialised")
	}
	_, err := h.provider.Client(ctx)
	return err
}

var _ repositories.Registry = (*Registry)(nil)
