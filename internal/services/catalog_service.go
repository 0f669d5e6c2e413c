package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/events"
	"github.com/lumina-studio/api/internal/platform/observability"
	"github.com/lumina-studio/api/internal/platform/textutil"
	"github.com/lumina-studio/api/internal/repositories"
)

const defaultMaxActivePlans = 3

// CatalogServiceDeps bundles dependencies required to construct a CatalogService.
type CatalogServiceDeps struct {
	Plans          repositories.PlanRepository
	Events         events.Publisher
	Clock          func() time.Time
	MaxActivePlans int
}

type catalogService struct {
	plans     repositories.PlanRepository
	events    events.Publisher
	clock     func() time.Time
	maxActive int
}

// NewCatalogService wires a CatalogService backed by the provided repositories.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Plans == nil {
		return nil, ErrPlanRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	maxActive := deps.MaxActivePlans
	if maxActive <= 0 {
		maxActive = defaultMaxActivePlans
	}
	return &catalogService{
		plans:     deps.Plans,
		events:    deps.Events,
		clock:     func() time.Time { return clock().UTC() },
		maxActive: maxActive,
	}, nil
}

func (s *catalogService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("plans", "", err)
	}
	return plans, nil
}

func (s *catalogService) GetPlan(ctx context.Context, planID string) (domain.Plan, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return domain.Plan{}, domain.NewValidationError("id", "plan id is required")
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return domain.Plan{}, translateRepositoryError("plans", planID, err)
	}
	return plan, nil
}

// CreatePlan validates the command, enforces the active-plan cap against the
// current list, assigns the display order, and persists the plan. The cap
// check here is check-then-act against a fresh read; the transactional
// guarantee applies on activation via UpdatePlan.
func (s *catalogService) CreatePlan(ctx context.Context, cmd CreatePlanCommand) (domain.Plan, error) {
	if err := validateCreatePlan(cmd); err != nil {
		return domain.Plan{}, err
	}

	existing, err := s.plans.List(ctx)
	if err != nil {
		return domain.Plan{}, translateRepositoryError("plans", "", err)
	}

	if cmd.Active {
		active := 0
		for _, plan := range existing {
			if plan.Active {
				active++
			}
		}
		if active >= s.maxActive {
			return domain.Plan{}, domain.NewRuleViolation(RuleMaxActivePlans,
				fmt.Sprintf("%d plans are already active", active))
		}
	}

	order := cmd.Order
	if order <= 0 {
		order = len(existing) + 1
	}

	plan := domain.Plan{
		Name:           strings.TrimSpace(cmd.Name),
		Description:    strings.TrimSpace(cmd.Description),
		Price:          cmd.Price,
		Features:       textutil.NormalizeStringSlice(cmd.Features),
		Limitations:    textutil.NormalizeStringSlice(cmd.Limitations),
		Tier:           cmd.Tier,
		Category:       strings.TrimSpace(cmd.Category),
		Popular:        cmd.Popular,
		Active:         cmd.Active,
		Order:          order,
		TrialDays:      cmd.TrialDays,
		ContactHandles: textutil.NormalizeStringMap(cmd.ContactHandles),
		Promotion:      cmd.Promotion,
	}

	created, err := s.plans.Create(ctx, plan)
	if err != nil {
		return domain.Plan{}, translateRepositoryError("plans", "", err)
	}

	s.publish(ctx, "plans", created.ID, events.ActionCreated)
	return created, nil
}

// UpdatePlan merges the patch. Flipping active to true goes through the
// transactional activation path so the cap holds against concurrent sessions;
// every other field rides a plain partial update.
func (s *catalogService) UpdatePlan(ctx context.Context, planID string, patch repositories.PlanPatch) error {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return domain.NewValidationError("id", "plan id is required")
	}
	if patch.IsZero() {
		return domain.NewValidationError("patch", "no fields to update")
	}
	if patch.Tier != nil && !validTier(*patch.Tier) {
		return domain.NewValidationError("tier", fmt.Sprintf("unknown tier %q", *patch.Tier))
	}
	if patch.Promotion != nil && patch.Promotion.Kind != nil && !validPromotionKind(*patch.Promotion.Kind) {
		return domain.NewValidationError("promotion.kind", fmt.Sprintf("unknown promotion kind %q", *patch.Promotion.Kind))
	}

	if patch.Active != nil && *patch.Active {
		if err := s.plans.ActivateTx(ctx, planID, s.maxActive); err != nil {
			if errors.Is(err, repositories.ErrActivePlanCapReached) {
				return domain.NewRuleViolation(RuleMaxActivePlans,
					fmt.Sprintf("at most %d plans may be active", s.maxActive))
			}
			return translateRepositoryError("plans", planID, err)
		}
		patch.Active = nil
		if patch.IsZero() {
			s.publish(ctx, "plans", planID, events.ActionUpdated)
			return nil
		}
	}

	if err := s.plans.Update(ctx, planID, patch); err != nil {
		return translateRepositoryError("plans", planID, err)
	}
	s.publish(ctx, "plans", planID, events.ActionUpdated)
	return nil
}

func (s *catalogService) DeletePlan(ctx context.Context, planID string) error {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return domain.NewValidationError("id", "plan id is required")
	}
	if err := s.plans.Delete(ctx, planID); err != nil {
		return translateRepositoryError("plans", planID, err)
	}
	s.publish(ctx, "plans", planID, events.ActionDeleted)
	return nil
}

func (s *catalogService) WatchPlans(ctx context.Context, onChange func([]domain.Plan), onError func(error)) (repositories.StopWatch, error) {
	return s.plans.Watch(ctx, onChange, onError)
}

// publish announces a committed mutation. Delivery is best-effort; failures
// are logged and never bubble up to the caller.
func (s *catalogService) publish(ctx context.Context, collection, id string, action events.ChangeAction) {
	if s.events == nil {
		return
	}
	event := events.ChangeEvent{
		Collection: collection,
		EntityID:   id,
		Action:     action,
		OccurredAt: s.clock(),
	}
	if _, err := s.events.PublishChange(ctx, event); err != nil {
		observability.FromContext(ctx).Warn("publish change event failed",
			zap.String("collection", collection),
			zap.String("entity_id", id),
			zap.Error(err),
		)
	}
}

func validateCreatePlan(cmd CreatePlanCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return domain.NewValidationError("name", "plan name is required")
	}
	if cmd.Price.Amount < 0 {
		return domain.NewValidationError("price", "price cannot be negative")
	}
	if strings.TrimSpace(cmd.Price.Currency) == "" {
		return domain.NewValidationError("price.currency", "currency is required")
	}
	if !validTier(cmd.Tier) {
		return domain.NewValidationError("tier", fmt.Sprintf("unknown tier %q", cmd.Tier))
	}
	if cmd.TrialDays < 0 {
		return domain.NewValidationError("trialDays", "trial days cannot be negative")
	}
	if cmd.Promotion.Active && !validPromotionKind(cmd.Promotion.Kind) {
		return domain.NewValidationError("promotion.kind", fmt.Sprintf("unknown promotion kind %q", cmd.Promotion.Kind))
	}
	return nil
}

func validTier(tier domain.PlanTier) bool {
	switch tier {
	case domain.PlanTierBasic, domain.PlanTierPro, domain.PlanTierEnterprise:
		return true
	}
	return false
}

func validPromotionKind(kind domain.PromotionKind) bool {
	switch kind {
	case domain.PromotionPercentage, domain.PromotionFixed:
		return true
	}
	return false
}
