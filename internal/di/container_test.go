package di

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/config"
	"github.com/lumina-studio/api/internal/repositories"
)

type stubPlanRepo struct {
	listCalls atomic.Int32
}

func (s *stubPlanRepo) List(context.Context) ([]domain.Plan, error) {
	s.listCalls.Add(1)
	return []domain.Plan{{ID: "p1", Name: "Basic", Active: true, Order: 1}}, nil
}

func (s *stubPlanRepo) FindByID(context.Context, string) (domain.Plan, error) {
	return domain.Plan{}, errors.New("not implemented")
}

func (s *stubPlanRepo) Create(_ context.Context, plan domain.Plan) (domain.Plan, error) {
	return plan, nil
}

func (s *stubPlanRepo) Update(context.Context, string, repositories.PlanPatch) error { return nil }

func (s *stubPlanRepo) Delete(context.Context, string) error { return nil }

func (s *stubPlanRepo) ActivateTx(context.Context, string, int) error { return nil }

func (s *stubPlanRepo) Watch(context.Context, func([]domain.Plan), func(error)) (repositories.StopWatch, error) {
	return nil, errors.New("push feed unavailable")
}

type stubRegistry struct {
	plans *stubPlanRepo
}

func (r *stubRegistry) Close(context.Context) error { return nil }

func (r *stubRegistry) Plans() repositories.PlanRepository { return r.plans }

func (r *stubRegistry) Founders() repositories.FounderRepository { return nil }

func (r *stubRegistry) SiteConfig() repositories.SiteConfigRepository { return nil }

func (r *stubRegistry) Orders() repositories.OrderRepository { return nil }

func (r *stubRegistry) Health() repositories.HealthRepository { return nil }

func (r *stubRegistry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestContainer(t *testing.T, refetch bool) (*Container, *stubPlanRepo) {
	t.Helper()
	repo := &stubPlanRepo{}
	cfg := config.Config{
		Catalog: config.CatalogConfig{MaxActivePlans: 3, RefetchAfterWrite: refetch},
	}
	container, err := NewContainer(context.Background(), cfg, &stubRegistry{plans: repo})
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close(context.Background()) })
	return container, repo
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestContainerStartsPlanView(t *testing.T) {
	container, repo := newTestContainer(t, true)

	if container.PlanView == nil {
		t.Fatal("expected plan view to be wired")
	}
	waitFor(t, func() bool { return len(container.PlanView.Snapshot().Items) == 1 })
	if repo.listCalls.Load() != 1 {
		t.Fatalf("expected one initial list, got %d", repo.listCalls.Load())
	}
}

func TestContainerPlanViewConfirmsWritesWhenConfigured(t *testing.T) {
	container, repo := newTestContainer(t, true)
	waitFor(t, func() bool { return len(container.PlanView.Snapshot().Items) == 1 })

	if err := container.PlanView.Mutate(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if repo.listCalls.Load() != 2 {
		t.Fatalf("expected confirming re-list after write, got %d lists", repo.listCalls.Load())
	}
}

func TestContainerPlanViewSkipsRefetchWhenDisabled(t *testing.T) {
	container, repo := newTestContainer(t, false)
	waitFor(t, func() bool { return len(container.PlanView.Snapshot().Items) == 1 })

	if err := container.PlanView.Mutate(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if repo.listCalls.Load() != 1 {
		t.Fatalf("expected no confirming re-list, got %d lists", repo.listCalls.Load())
	}
}
