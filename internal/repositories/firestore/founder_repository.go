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

const founderCollection = "founders"

// FounderRepository persists founder profiles in Firestore.
type FounderRepository struct {
	coll  *pfirestore.Collection[founderDocument]
	clock func() time.Time
	idGen func() string
}

// FounderRepositoryOption customises repository construction.
type FounderRepositoryOption func(*FounderRepository)

// WithFounderClock overrides the clock used for injected timestamps.
func WithFounderClock(clock func() time.Time) FounderRepositoryOption {
	return func(r *FounderRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewFounderRepository constructs a Firestore-backed founder repository.
func NewFounderRepository(provider *pfirestore.Provider, opts ...FounderRepositoryOption) (*FounderRepository, error) {
	if provider == nil {
		return nil, errors.New("founder repository requires firestore provider")
	}
	repo := &FounderRepository{
		coll:  pfirestore.NewCollection[founderDocument](provider, founderCollection, nil, nil),
		clock: time.Now,
		idGen: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// List returns every founder in store-native order.
func (r *FounderRepository) List(ctx context.Context) ([]domain.Founder, error) {
	docs, err := r.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	founders := make([]domain.Founder, 0, len(docs))
	for _, doc := range docs {
		founders = append(founders, doc.Data.toDomain(doc.ID))
	}
	return founders, nil
}

// FindByID fetches a single founder profile.
func (r *FounderRepository) FindByID(ctx context.Context, founderID string) (domain.Founder, error) {
	doc, err := r.coll.Get(ctx, founderID)
	if err != nil {
		return domain.Founder{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Create persists a new founder profile and returns it exactly as stored.
func (r *FounderRepository) Create(ctx context.Context, founder domain.Founder) (domain.Founder, error) {
	if founder.ID == "" {
		founder.ID = r.idGen()
	}
	now := r.clock().UTC()
	founder.CreatedAt = now
	founder.UpdatedAt = now
	if _, err := r.coll.Set(ctx, founder.ID, founderDocumentFrom(founder)); err != nil {
		return domain.Founder{}, err
	}
	return founder, nil
}

// Update merges the patch fields and refreshes the update timestamp.
func (r *FounderRepository) Update(ctx context.Context, founderID string, patch repositories.FounderPatch) error {
	var updates []firestore.Update
	add := func(path string, value any) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Specialties != nil {
		add("specialties", *patch.Specialties)
	}
	if patch.Availability != nil {
		add("availabilityStart", formatClock(patch.Availability.Start))
		add("availabilityEnd", formatClock(patch.Availability.End))
	}
	add("updatedAt", r.clock().UTC())
	_, err := r.coll.Update(ctx, founderID, updates)
	return err
}

// Delete removes the founder document. Missing documents are a no-op.
func (r *FounderRepository) Delete(ctx context.Context, founderID string) error {
	return r.coll.Delete(ctx, founderID)
}

// Watch subscribes to the founder collection push feed.
func (r *FounderRepository) Watch(ctx context.Context, onChange func([]domain.Founder), onError func(error)) (repositories.StopWatch, error) {
	if onChange == nil {
		return nil, errors.New("founder repository: change handler is required")
	}
	stop, err := r.coll.Watch(ctx, nil, func(docs []pfirestore.Document[founderDocument]) {
		founders := make([]domain.Founder, 0, len(docs))
		for _, doc := range docs {
			founders = append(founders, doc.Data.toDomain(doc.ID))
		}
		onChange(founders)
	}, onError)
	if err != nil {
		return nil, err
	}
	return repositories.StopWatch(stop), nil
}

type founderDocument struct {
	Name              string    `firestore:"name"`
	Role              string    `firestore:"role"`
	Location          string    `firestore:"location"`
	Specialties       []string  `firestore:"specialties"`
	AvailabilityStart string    `firestore:"availabilityStart"`
	AvailabilityEnd   string    `firestore:"availabilityEnd"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

func founderDocumentFrom(founder domain.Founder) founderDocument {
	return founderDocument{
		Name:              founder.Name,
		Role:              founder.Role,
		Location:          founder.Location,
		Specialties:       founder.Specialties,
		AvailabilityStart: formatClock(founder.Availability.Start),
		AvailabilityEnd:   formatClock(founder.Availability.End),
		CreatedAt:         founder.CreatedAt,
		UpdatedAt:         founder.UpdatedAt,
	}
}

func (d founderDocument) toDomain(id string) domain.Founder {
	return domain.Founder{
		ID:          id,
		Name:        d.Name,
		Role:        d.Role,
		Location:    d.Location,
		Specialties: d.Specialties,
		Availability: domain.AvailabilityWindow{
			Start: parseClock(d.AvailabilityStart),
			End:   parseClock(d.AvailabilityEnd),
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.FounderRepository = (*FounderRepository)(nil)
