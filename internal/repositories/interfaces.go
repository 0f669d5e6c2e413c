package repositories

import (
	"context"
	"errors"

	domain "github.com/lumina-studio/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Plans() PlanRepository
	Founders() FounderRepository
	SiteConfig() SiteConfigRepository
	Orders() OrderRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StopWatch cancels an active collection subscription. Safe to call repeatedly.
type StopWatch func()

// ErrActivePlanCapReached is returned by ActivateTx when the transactional
// active-plan count check fails.
var ErrActivePlanCapReached = errors.New("active plan cap reached")

// PlanRepository persists subscription plan documents.
type PlanRepository interface {
	// List returns every plan in store-native order, no implicit sort.
	List(ctx context.Context) ([]domain.Plan, error)
	FindByID(ctx context.Context, planID string) (domain.Plan, error)
	// Create injects the identifier and timestamps and returns the plan
	// exactly as stored, so callers never fabricate their own copy.
	Create(ctx context.Context, plan domain.Plan) (domain.Plan, error)
	// Update merges the patch and refreshes the update timestamp. A vanished
	// target surfaces as the store's own not-found error, never pre-checked.
	Update(ctx context.Context, planID string, patch PlanPatch) error
	// Delete removes the plan; deleting a missing plan is a no-op.
	Delete(ctx context.Context, planID string) error
	// ActivateTx flips active=true inside a store transaction, failing with
	// ErrActivePlanCapReached when maxActive other plans are already active.
	ActivateTx(ctx context.Context, planID string, maxActive int) error
	// Watch subscribes to the plan collection push feed.
	Watch(ctx context.Context, onChange func([]domain.Plan), onError func(error)) (StopWatch, error)
}

// PlanPatch carries the optional fields of a partial plan update. Nil fields
// are left untouched in the stored document.
type PlanPatch struct {
	Name           *string
	Description    *string
	Price          *domain.Price
	Features       *[]string
	Limitations    *[]string
	Tier           *domain.PlanTier
	Category       *string
	Popular        *bool
	Active         *bool
	Order          *int
	TrialDays      *int
	ContactHandles *map[string]string
	Promotion      *PromotionPatch
}

// PromotionPatch merges individual promotion fields without replacing the
// whole sub-record.
type PromotionPatch struct {
	Active      *bool
	Kind        *domain.PromotionKind
	Value       *float64
	Description *string
}

// IsZero reports whether the patch carries no changes.
func (p PlanPatch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Features == nil && p.Limitations == nil && p.Tier == nil &&
		p.Category == nil && p.Popular == nil && p.Active == nil &&
		p.Order == nil && p.TrialDays == nil && p.ContactHandles == nil &&
		p.Promotion == nil
}

// FounderRepository persists founder profiles and their availability windows.
type FounderRepository interface {
	List(ctx context.Context) ([]domain.Founder, error)
	FindByID(ctx context.Context, founderID string) (domain.Founder, error)
	Create(ctx context.Context, founder domain.Founder) (domain.Founder, error)
	Update(ctx context.Context, founderID string, patch FounderPatch) error
	Delete(ctx context.Context, founderID string) error
	Watch(ctx context.Context, onChange func([]domain.Founder), onError func(error)) (StopWatch, error)
}

// FounderPatch carries the optional fields of a partial founder update.
type FounderPatch struct {
	Name         *string
	Role         *string
	Location     *string
	Specialties  *[]string
	Availability *domain.AvailabilityWindow
}

// SiteConfigRepository owns the single site configuration document.
type SiteConfigRepository interface {
	Get(ctx context.Context) (domain.SiteConfig, error)
	// Merge applies the patch onto the singleton document, creating it when
	// absent, and always refreshes the update timestamp.
	Merge(ctx context.Context, patch SiteConfigPatch) error
	Watch(ctx context.Context, onChange func(domain.SiteConfig), onError func(error)) (StopWatch, error)
}

// SiteConfigPatch carries the optional fields of a partial configuration merge.
type SiteConfigPatch struct {
	Phone      *string
	WhatsApp   *string
	Discord    *string
	Email      *string
	Instagram  *string
	Categories *[]domain.CategoryDefinition
	Types      *[]domain.TypeDefinition
}

// OrderRepository persists customer-submitted leads.
type OrderRepository interface {
	List(ctx context.Context) ([]domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	// UpdateAdmin mutates administrative fields only; customer identity is
	// immutable after submission.
	UpdateAdmin(ctx context.Context, orderID string, patch OrderAdminPatch) error
	Delete(ctx context.Context, orderID string) error
	Watch(ctx context.Context, onChange func([]domain.Order), onError func(error)) (StopWatch, error)
}

// OrderAdminPatch carries the administrative fields mutable after submission.
type OrderAdminPatch struct {
	Status     *domain.OrderStatus
	AssignedTo *string
	Priority   *string
	Notes      *string
}

// HealthRepository answers readiness probes against the backing store.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
