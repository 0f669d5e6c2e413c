package services

import (
	"context"
	"strings"
	"time"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/textutil"
	"github.com/lumina-studio/api/internal/repositories"
)

// AvailabilityServiceDeps bundles dependencies for the availability service.
type AvailabilityServiceDeps struct {
	Founders repositories.FounderRepository
	Clock    func() time.Time
}

type availabilityService struct {
	founders repositories.FounderRepository
	clock    func() time.Time
}

// NewAvailabilityService wires an AvailabilityService. The clock is injectable
// so presence derivation is testable against fixed instants.
func NewAvailabilityService(deps AvailabilityServiceDeps) (AvailabilityService, error) {
	if deps.Founders == nil {
		return nil, ErrFounderRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &availabilityService{
		founders: deps.Founders,
		clock:    clock,
	}, nil
}

// ListFounders returns every founder with the online flag derived against the
// current clock. The flag is computed per read and never persisted.
func (s *availabilityService) ListFounders(ctx context.Context) ([]domain.FounderPresence, error) {
	founders, err := s.founders.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("founders", "", err)
	}
	return s.derivePresence(founders), nil
}

func (s *availabilityService) CreateFounder(ctx context.Context, founder domain.Founder) (domain.Founder, error) {
	founder.Name = strings.TrimSpace(founder.Name)
	if founder.Name == "" {
		return domain.Founder{}, domain.NewValidationError("name", "founder name is required")
	}
	if err := validateWindow(founder.Availability); err != nil {
		return domain.Founder{}, err
	}
	founder.Specialties = textutil.NormalizeStringSlice(founder.Specialties)

	created, err := s.founders.Create(ctx, founder)
	if err != nil {
		return domain.Founder{}, translateRepositoryError("founders", "", err)
	}
	return created, nil
}

func (s *availabilityService) UpdateFounder(ctx context.Context, founderID string, patch repositories.FounderPatch) error {
	founderID = strings.TrimSpace(founderID)
	if founderID == "" {
		return domain.NewValidationError("id", "founder id is required")
	}
	if patch.Availability != nil {
		if err := validateWindow(*patch.Availability); err != nil {
			return err
		}
	}
	if err := s.founders.Update(ctx, founderID, patch); err != nil {
		return translateRepositoryError("founders", founderID, err)
	}
	return nil
}

func (s *availabilityService) DeleteFounder(ctx context.Context, founderID string) error {
	founderID = strings.TrimSpace(founderID)
	if founderID == "" {
		return domain.NewValidationError("id", "founder id is required")
	}
	if err := s.founders.Delete(ctx, founderID); err != nil {
		return translateRepositoryError("founders", founderID, err)
	}
	return nil
}

// WatchFounders subscribes to the founder push feed, deriving presence for
// every pushed snapshot against the clock at delivery time.
func (s *availabilityService) WatchFounders(ctx context.Context, onChange func([]domain.FounderPresence), onError func(error)) (repositories.StopWatch, error) {
	return s.founders.Watch(ctx, func(founders []domain.Founder) {
		onChange(s.derivePresence(founders))
	}, onError)
}

func (s *availabilityService) derivePresence(founders []domain.Founder) []domain.FounderPresence {
	now := s.clock()
	at := domain.ClockTime{Hour: now.Hour(), Minute: now.Minute()}
	presence := make([]domain.FounderPresence, 0, len(founders))
	for _, founder := range founders {
		presence = append(presence, domain.FounderPresence{
			Founder:  founder,
			IsOnline: founder.Availability.Contains(at),
		})
	}
	return presence
}

func validateWindow(window domain.AvailabilityWindow) error {
	if !validClock(window.Start) {
		return domain.NewValidationError("availability.start", "hour must be 0-23 and minute 0-59")
	}
	if !validClock(window.End) {
		return domain.NewValidationError("availability.end", "hour must be 0-23 and minute 0-59")
	}
	return nil
}

func validClock(c domain.ClockTime) bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}
