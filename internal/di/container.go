package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/lumina-studio/api/internal/binding"
	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/config"
	"github.com/lumina-studio/api/internal/platform/events"
	"github.com/lumina-studio/api/internal/platform/secrets"
	"github.com/lumina-studio/api/internal/repositories"
	"github.com/lumina-studio/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
// Concrete implementations are assembled via dependency injection in
// NewContainer.
type Services struct {
	Catalog      services.CatalogService
	Availability services.AvailabilityService
	SiteConfig   services.SiteConfigService
	Orders       services.OrderService
	Receipts     services.ReceiptService
	Automation   services.AutomationService
}

// Container wires repositories, services, and background infrastructure for
// runtime use. PlanView holds the bound plan collection snapshot that read
// endpoints serve from and catalog writes confirm through.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
	PlanView     *binding.View[domain.Plan]

	pubsubClient *pubsub.Client
	secretsCache *secrets.Fetcher
}

// ContainerOption customises container construction.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	logger    *zap.Logger
	publisher events.Publisher
	secrets   *secrets.Fetcher
}

// WithLogger sets the logger used during wiring.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(c *containerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPublisher injects a pre-built change publisher, mainly for tests.
func WithPublisher(publisher events.Publisher) ContainerOption {
	return func(c *containerConfig) {
		c.publisher = publisher
	}
}

// WithSecretsFetcher injects a pre-built secrets fetcher, mainly for tests.
func WithSecretsFetcher(fetcher *secrets.Fetcher) ContainerOption {
	return func(c *containerConfig) {
		c.secrets = fetcher
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// real implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	cc := containerConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cc)
		}
	}

	container := &Container{
		Config:       cfg,
		Repositories: reg,
	}

	publisher := cc.publisher
	if publisher == nil && cfg.Events.ProjectID != "" && cfg.Events.TopicID != "" {
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("build pubsub client: %w", err)
		}
		container.pubsubClient = client
		publisher, err = events.NewPubSubPublisher(client.Topic(cfg.Events.TopicID))
		if err != nil {
			return nil, fmt.Errorf("build change publisher: %w", err)
		}
	}

	svc, err := buildServices(ctx, reg, cfg, publisher, &cc, container)
	if err != nil {
		return nil, err
	}
	container.Services = svc

	if svc.Catalog != nil {
		view, err := binding.NewView(svc.Catalog.ListPlans, svc.Catalog.WatchPlans, binding.Options{
			RefetchAfterWrite: cfg.Catalog.RefetchAfterWrite,
		})
		if err != nil {
			return nil, fmt.Errorf("build plan view: %w", err)
		}
		view.Start(ctx)
		container.PlanView = view
	}

	return container, nil
}

// Close releases resources such as repository clients and messaging connections.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.PlanView != nil {
		c.PlanView.Stop()
	}
	var firstErr error
	if c.secretsCache != nil {
		if err := c.secretsCache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildServices(ctx context.Context, reg repositories.Registry, cfg config.Config, publisher events.Publisher, cc *containerConfig, container *Container) (Services, error) {
	var svc Services

	plansRepo := reg.Plans()
	if plansRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Plans:          plansRepo,
			Events:         publisher,
			Clock:          time.Now,
			MaxActivePlans: cfg.Catalog.MaxActivePlans,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if foundersRepo := reg.Founders(); foundersRepo != nil {
		availabilitySvc, err := services.NewAvailabilityService(services.AvailabilityServiceDeps{
			Founders: foundersRepo,
			Clock:    time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build availability service: %w", err)
		}
		svc.Availability = availabilitySvc
	}

	if siteConfigRepo := reg.SiteConfig(); siteConfigRepo != nil {
		siteConfigSvc, err := services.NewSiteConfigService(services.SiteConfigServiceDeps{
			Repository: siteConfigRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build site config service: %w", err)
		}
		svc.SiteConfig = siteConfigSvc
	}

	ordersRepo := reg.Orders()
	if ordersRepo != nil {
		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders: ordersRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc
	}

	if ordersRepo != nil && plansRepo != nil {
		receiptSvc, err := services.NewReceiptService(services.ReceiptServiceDeps{
			Orders: ordersRepo,
			Plans:  plansRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build receipt service: %w", err)
		}
		svc.Receipts = receiptSvc
	}

	providers, err := resolveAutomationProviders(ctx, cfg, cc, container)
	if err != nil {
		return Services{}, err
	}
	if len(providers) > 0 {
		automationSvc, err := services.NewAutomationService(services.AutomationServiceDeps{
			Providers: providers,
			Timeout:   cfg.Automation.Timeout,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build automation service: %w", err)
		}
		svc.Automation = automationSvc
	}

	return svc, nil
}

// resolveAutomationProviders materialises the configured providers, resolving
// secret:// API key references through Secret Manager.
func resolveAutomationProviders(ctx context.Context, cfg config.Config, cc *containerConfig, container *Container) ([]services.AutomationProvider, error) {
	configured := []config.AutomationProvider{cfg.Automation.Primary, cfg.Automation.Secondary}

	var fetcher *secrets.Fetcher
	needsFetcher := false
	for _, p := range configured {
		if p.Endpoint != "" && p.APIKeyRef != "" {
			needsFetcher = true
		}
	}
	if needsFetcher {
		fetcher = cc.secrets
		if fetcher == nil {
			built, err := secrets.NewFetcher(ctx, cfg.Firestore.ProjectID, secrets.WithLogger(cc.logger))
			if err != nil {
				return nil, fmt.Errorf("build secrets fetcher: %w", err)
			}
			container.secretsCache = built
			fetcher = built
		}
	}

	providers := make([]services.AutomationProvider, 0, len(configured))
	for _, p := range configured {
		if p.Endpoint == "" {
			continue
		}
		key := ""
		if p.APIKeyRef != "" {
			resolved, err := fetcher.Resolve(ctx, p.APIKeyRef)
			if err != nil {
				return nil, fmt.Errorf("resolve api key for %s: %w", p.Name, err)
			}
			key = resolved
		}
		providers = append(providers, services.AutomationProvider{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			APIKey:   key,
		})
	}
	return providers, nil
}
