package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	domain "github.com/lumina-studio/api/internal/domain"
	pfirestore "github.com/lumina-studio/api/internal/platform/firestore"
	"github.com/lumina-studio/api/internal/repositories"
)

const planCollection = "plans"

// PlanRepository persists subscription plans in Firestore.
type PlanRepository struct {
	provider *pfirestore.Provider
	coll     *pfirestore.Collection[planDocument]
	clock    func() time.Time
	idGen    func() string
}

// PlanRepositoryOption customises repository construction.
type PlanRepositoryOption func(*PlanRepository)

// WithPlanClock overrides the clock used for injected timestamps.
func WithPlanClock(clock func() time.Time) PlanRepositoryOption {
	return func(r *PlanRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithPlanIDGenerator overrides the identifier generator.
func WithPlanIDGenerator(idGen func() string) PlanRepositoryOption {
	return func(r *PlanRepository) {
		if idGen != nil {
			r.idGen = idGen
		}
	}
}

// NewPlanRepository constructs a Firestore-backed plan repository.
func NewPlanRepository(provider *pfirestore.Provider, opts ...PlanRepositoryOption) (*PlanRepository, error) {
	if provider == nil {
		return nil, errors.New("plan repository requires firestore provider")
	}
	repo := &PlanRepository{
		provider: provider,
		coll:     pfirestore.NewCollection[planDocument](provider, planCollection, nil, nil),
		clock:    time.Now,
		idGen:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// List returns every plan in store-native order.
func (r *PlanRepository) List(ctx context.Context) ([]domain.Plan, error) {
	docs, err := r.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(docs))
	for _, doc := range docs {
		plans = append(plans, doc.Data.toDomain(doc.ID))
	}
	return plans, nil
}

// FindByID fetches a single plan.
func (r *PlanRepository) FindByID(ctx context.Context, planID string) (domain.Plan, error) {
	doc, err := r.coll.Get(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Create persists a new plan, injecting the identifier and both timestamps,
// and returns the plan exactly as stored.
func (r *PlanRepository) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	if plan.ID == "" {
		plan.ID = r.idGen()
	}
	now := r.clock().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if _, err := r.coll.Set(ctx, plan.ID, planDocumentFrom(plan)); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}

// Update merges the patch fields and refreshes the update timestamp. Firestore
// itself reports the not-found case at write time.
func (r *PlanRepository) Update(ctx context.Context, planID string, patch repositories.PlanPatch) error {
	updates := planPatchUpdates(patch)
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: r.clock().UTC()})
	_, err := r.coll.Update(ctx, planID, updates)
	return err
}

// Delete removes the plan document. Missing documents are a no-op.
func (r *PlanRepository) Delete(ctx context.Context, planID string) error {
	return r.coll.Delete(ctx, planID)
}

// ActivateTx marks the plan active inside a transaction, enforcing the cap
// against the authoritative store state rather than a cached list.
func (r *PlanRepository) ActivateTx(ctx context.Context, planID string, maxActive int) error {
	docRef, err := r.coll.DocumentRef(ctx, planID)
	if err != nil {
		return err
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	now := r.clock().UTC()
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			return err
		}

		query := client.Collection(planCollection).Where("active", "==", true)
		snaps, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		active := 0
		for _, snap := range snaps {
			if snap.Ref.ID != planID {
				active++
			}
		}
		if maxActive > 0 && active >= maxActive {
			return repositories.ErrActivePlanCapReached
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "active", Value: true},
			{Path: "updatedAt", Value: now},
		})
	})
}

// Watch subscribes to the plan collection push feed.
func (r *PlanRepository) Watch(ctx context.Context, onChange func([]domain.Plan), onError func(error)) (repositories.StopWatch, error) {
	if onChange == nil {
		return nil, errors.New("plan repository: change handler is required")
	}
	stop, err := r.coll.Watch(ctx, nil, func(docs []pfirestore.Document[planDocument]) {
		plans := make([]domain.Plan, 0, len(docs))
		for _, doc := range docs {
			plans = append(plans, doc.Data.toDomain(doc.ID))
		}
		onChange(plans)
	}, onError)
	if err != nil {
		return nil, err
	}
	return repositories.StopWatch(stop), nil
}

type planDocument struct {
	Name           string            `firestore:"name"`
	Description    string            `firestore:"description"`
	PriceAmount    int64             `firestore:"priceAmount"`
	PriceCurrency  string            `firestore:"priceCurrency"`
	Features       []string          `firestore:"features"`
	Limitations    []string          `firestore:"limitations"`
	Tier           string            `firestore:"tier"`
	Category       string            `firestore:"category"`
	Popular        bool              `firestore:"popular"`
	Active         bool              `firestore:"active"`
	Order          int               `firestore:"order"`
	TrialDays      int               `firestore:"trialDays"`
	ContactHandles map[string]string `firestore:"contactHandles"`
	Promotion      promotionDocument `firestore:"promotion"`
	CreatedAt      time.Time         `firestore:"createdAt"`
	UpdatedAt      time.Time         `firestore:"updatedAt"`
}

type promotionDocument struct {
	Active      bool    `firestore:"active"`
	Kind        string  `firestore:"kind"`
	Value       float64 `firestore:"value"`
	Description string  `firestore:"description"`
}

func planDocumentFrom(plan domain.Plan) planDocument {
	return planDocument{
		Name:           plan.Name,
		Description:    plan.Description,
		PriceAmount:    plan.Price.Amount,
		PriceCurrency:  plan.Price.Currency,
		Features:       plan.Features,
		Limitations:    plan.Limitations,
		Tier:           string(plan.Tier),
		Category:       plan.Category,
		Popular:        plan.Popular,
		Active:         plan.Active,
		Order:          plan.Order,
		TrialDays:      plan.TrialDays,
		ContactHandles: plan.ContactHandles,
		Promotion: promotionDocument{
			Active:      plan.Promotion.Active,
			Kind:        string(plan.Promotion.Kind),
			Value:       plan.Promotion.Value,
			Description: plan.Promotion.Description,
		},
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}

func (d planDocument) toDomain(id string) domain.Plan {
	return domain.Plan{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price: domain.Price{
			Amount:   d.PriceAmount,
			Currency: d.PriceCurrency,
		},
		Features:       d.Features,
		Limitations:    d.Limitations,
		Tier:           domain.PlanTier(d.Tier),
		Category:       d.Category,
		Popular:        d.Popular,
		Active:         d.Active,
		Order:          d.Order,
		TrialDays:      d.TrialDays,
		ContactHandles: d.ContactHandles,
		Promotion: domain.Promotion{
			Active:      d.Promotion.Active,
			Kind:        domain.PromotionKind(d.Promotion.Kind),
			Value:       d.Promotion.Value,
			Description: d.Promotion.Description,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// planPatchUpdates converts a patch into field-path updates so untouched
// fields, including sibling promotion fields, stay as stored.
func planPatchUpdates(patch repositories.PlanPatch) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, value any) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("priceAmount", patch.Price.Amount)
		add("priceCurrency", patch.Price.Currency)
	}
	if patch.Features != nil {
		add("features", *patch.Features)
	}
	if patch.Limitations != nil {
		add("limitations", *patch.Limitations)
	}
	if patch.Tier != nil {
		add("tier", string(*patch.Tier))
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Popular != nil {
		add("popular", *patch.Popular)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	if patch.Order != nil {
		add("order", *patch.Order)
	}
	if patch.TrialDays != nil {
		add("trialDays", *patch.TrialDays)
	}
	if patch.ContactHandles != nil {
		add("contactHandles", *patch.ContactHandles)
	}
	if promo := patch.Promotion; promo != nil {
		if promo.Active != nil {
			add("promotion.active", *promo.Active)
		}
		if promo.Kind != nil {
			add("promotion.kind", string(*promo.Kind))
		}
		if promo.Value != nil {
			add("promotion.value", *promo.Value)
		}
		if promo.Description != nil {
			add("promotion.description", *promo.Description)
		}
	}
	return updates
}

var _ repositories.PlanRepository = (*PlanRepository)(nil)
