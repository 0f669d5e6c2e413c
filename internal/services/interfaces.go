package services

import (
	"context"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

// CatalogService enforces the plan business rules ahead of every repository write.
type CatalogService interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	GetPlan(ctx context.Context, planID string) (domain.Plan, error)
	CreatePlan(ctx context.Context, cmd CreatePlanCommand) (domain.Plan, error)
	UpdatePlan(ctx context.Context, planID string, patch repositories.PlanPatch) error
	DeletePlan(ctx context.Context, planID string) error
	WatchPlans(ctx context.Context, onChange func([]domain.Plan), onError func(error)) (repositories.StopWatch, error)
}

// CreatePlanCommand carries the caller-supplied fields of a new plan.
// Order is optional; zero means "append after the existing plans".
type CreatePlanCommand struct {
	Name           string
	Description    string
	Price          domain.Price
	Features       []string
	Limitations    []string
	Tier           domain.PlanTier
	Category       string
	Popular        bool
	Active         bool
	Order          int
	TrialDays      int
	ContactHandles map[string]string
	Promotion      domain.Promotion
}

// AvailabilityService reads founder profiles and derives live presence.
type AvailabilityService interface {
	ListFounders(ctx context.Context) ([]domain.FounderPresence, error)
	CreateFounder(ctx context.Context, founder domain.Founder) (domain.Founder, error)
	UpdateFounder(ctx context.Context, founderID string, patch repositories.FounderPatch) error
	DeleteFounder(ctx context.Context, founderID string) error
	WatchFounders(ctx context.Context, onChange func([]domain.FounderPresence), onError func(error)) (repositories.StopWatch, error)
}

// SiteConfigService owns the singleton configuration record.
type SiteConfigService interface {
	Get(ctx context.Context) (domain.SiteConfig, error)
	Merge(ctx context.Context, patch repositories.SiteConfigPatch) error
	Watch(ctx context.Context, onChange func(domain.SiteConfig), onError func(error)) (repositories.StopWatch, error)
}

// OrderService validates and persists customer leads and admin updates.
type OrderService interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error)
	UpdateOrderAdmin(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error
	DeleteOrder(ctx context.Context, orderID string) error
	WatchOrders(ctx context.Context, onChange func([]domain.Order), onError func(error)) (repositories.StopWatch, error)
}

// SubmitOrderCommand carries a public form submission.
type SubmitOrderCommand struct {
	CustomerName string `validate:"required,max=120"`
	Email        string `validate:"required,email"`
	WhatsApp     string `validate:"omitempty,max=32"`
	ProjectType  string `validate:"required,max=80"`
	Category     string `validate:"required,max=80"`
	Description  string `validate:"required,max=4000"`
	Budget       string `validate:"omitempty,max=80"`
	Timeline     string `validate:"omitempty,max=80"`
}

// ReceiptService assembles the flat record handed to the external PDF renderer.
type ReceiptService interface {
	BuildReceipt(ctx context.Context, orderID, planID string) (domain.ReceiptRecord, error)
}

// AutomationService forwards prompt requests to an LLM provider.
type AutomationService interface {
	Run(ctx context.Context, cmd AutomationCommand) (string, error)
}

// AutomationCommand is the payload forwarded to an automation provider.
type AutomationCommand struct {
	Type        string         `json:"type" validate:"required,max=64"`
	Prompt      string         `json:"prompt" validate:"required,max=8000"`
	Context     map[string]any `json:"context,omitempty"`
	MaxTokens   int            `json:"maxTokens,omitempty" validate:"omitempty,min=1,max=32768"`
	Temperature float64        `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	Provider    string         `json:"provider,omitempty"`
}
