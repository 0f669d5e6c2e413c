package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

type stubFounderRepo struct {
	listFn   func(ctx context.Context) ([]domain.Founder, error)
	createFn func(ctx context.Context, founder domain.Founder) (domain.Founder, error)
	updateFn func(ctx context.Context, founderID string, patch repositories.FounderPatch) error
	deleteFn func(ctx context.Context, founderID string) error
	watchFn  func(ctx context.Context, onChange func([]domain.Founder), onError func(error)) (repositories.StopWatch, error)
}

func (s *stubFounderRepo) List(ctx context.Context) ([]domain.Founder, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubFounderRepo) FindByID(context.Context, string) (domain.Founder, error) {
	return domain.Founder{}, errors.New("not implemented")
}

func (s *stubFounderRepo) Create(ctx context.Context, founder domain.Founder) (domain.Founder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, founder)
	}
	return domain.Founder{}, errors.New("not implemented")
}

func (s *stubFounderRepo) Update(ctx context.Context, founderID string, patch repositories.FounderPatch) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, founderID, patch)
	}
	return errors.New("not implemented")
}

func (s *stubFounderRepo) Delete(ctx context.Context, founderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, founderID)
	}
	return nil
}

func (s *stubFounderRepo) Watch(ctx context.Context, onChange func([]domain.Founder), onError func(error)) (repositories.StopWatch, error) {
	if s.watchFn != nil {
		return s.watchFn(ctx, onChange, onError)
	}
	return func() {}, nil
}

func nightOwl() domain.Founder {
	return domain.Founder{
		ID:   "f1",
		Name: "Night Owl",
		Availability: domain.AvailabilityWindow{
			Start: domain.ClockTime{Hour: 22},
			End:   domain.ClockTime{Hour: 6},
		},
	}
}

func availabilityAt(t *testing.T, founder domain.Founder, at time.Time) bool {
	t.Helper()
	repo := &stubFounderRepo{
		listFn: func(context.Context) ([]domain.Founder, error) {
			return []domain.Founder{founder}, nil
		},
	}
	svc, err := NewAvailabilityService(AvailabilityServiceDeps{
		Founders: repo,
		Clock:    func() time.Time { return at },
	})
	if err != nil {
		t.Fatalf("new availability service: %v", err)
	}
	presence, err := svc.ListFounders(context.Background())
	if err != nil {
		t.Fatalf("list founders: %v", err)
	}
	if len(presence) != 1 {
		t.Fatalf("expected one founder, got %d", len(presence))
	}
	return presence[0].IsOnline
}

func TestPresenceWithinMidnightWrappingWindow(t *testing.T) {
	cases := []struct {
		name   string
		at     time.Time
		online bool
	}{
		{"before midnight", time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC), true},
		{"after midnight", time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), true},
		{"at window start", time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC), true},
		{"at window end", time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC), false},
		{"midday", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := availabilityAt(t, nightOwl(), tc.at); got != tc.online {
				t.Fatalf("at %s expected online=%v, got %v", tc.at, tc.online, got)
			}
		})
	}
}

func TestPresenceZeroWidthWindowIsAlwaysOffline(t *testing.T) {
	founder := nightOwl()
	founder.Availability = domain.AvailabilityWindow{
		Start: domain.ClockTime{Hour: 9},
		End:   domain.ClockTime{Hour: 9},
	}
	if availabilityAt(t, founder, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatal("zero-width window must never report online")
	}
}

func TestWatchFoundersDerivesPresencePerPush(t *testing.T) {
	var push func([]domain.Founder)
	repo := &stubFounderRepo{
		watchFn: func(_ context.Context, onChange func([]domain.Founder), _ func(error)) (repositories.StopWatch, error) {
			push = onChange
			return func() {}, nil
		},
	}
	svc, err := NewAvailabilityService(AvailabilityServiceDeps{
		Founders: repo,
		Clock: func() time.Time {
			return time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("new availability service: %v", err)
	}

	var got []domain.FounderPresence
	stop, err := svc.WatchFounders(context.Background(), func(presence []domain.FounderPresence) {
		got = presence
	}, func(error) {})
	if err != nil {
		t.Fatalf("watch founders: %v", err)
	}
	defer stop()

	push([]domain.Founder{nightOwl()})
	if len(got) != 1 || !got[0].IsOnline {
		t.Fatalf("expected pushed founder online at 23:00, got %+v", got)
	}
}

func TestCreateFounderRejectsInvalidWindow(t *testing.T) {
	svc, err := NewAvailabilityService(AvailabilityServiceDeps{Founders: &stubFounderRepo{}})
	if err != nil {
		t.Fatalf("new availability service: %v", err)
	}

	_, err = svc.CreateFounder(context.Background(), domain.Founder{
		Name: "Broken",
		Availability: domain.AvailabilityWindow{
			Start: domain.ClockTime{Hour: 25},
		},
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
