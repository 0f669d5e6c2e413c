package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

type stubSiteConfigRepo struct {
	getFn   func(ctx context.Context) (domain.SiteConfig, error)
	mergeFn func(ctx context.Context, patch repositories.SiteConfigPatch) error
}

func (s *stubSiteConfigRepo) Get(ctx context.Context) (domain.SiteConfig, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.SiteConfig{}, nil
}

func (s *stubSiteConfigRepo) Merge(ctx context.Context, patch repositories.SiteConfigPatch) error {
	if s.mergeFn != nil {
		return s.mergeFn(ctx, patch)
	}
	return nil
}

func (s *stubSiteConfigRepo) Watch(context.Context, func(domain.SiteConfig), func(error)) (repositories.StopWatch, error) {
	return func() {}, nil
}

func TestMergeLeavesUntouchedFieldsNil(t *testing.T) {
	var applied repositories.SiteConfigPatch
	repo := &stubSiteConfigRepo{
		mergeFn: func(_ context.Context, patch repositories.SiteConfigPatch) error {
			applied = patch
			return nil
		},
	}
	svc, err := NewSiteConfigService(SiteConfigServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new site config service: %v", err)
	}

	phone := "+1 555 0100"
	if err := svc.Merge(context.Background(), repositories.SiteConfigPatch{Phone: &phone}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if applied.Phone == nil || *applied.Phone != phone {
		t.Fatalf("expected phone patch, got %+v", applied)
	}
	if applied.Email != nil || applied.Categories != nil || applied.Types != nil {
		t.Fatal("untouched fields must stay nil so the store merge preserves them")
	}
}

func TestMergeRejectsMalformedEmail(t *testing.T) {
	svc, err := NewSiteConfigService(SiteConfigServiceDeps{Repository: &stubSiteConfigRepo{}})
	if err != nil {
		t.Fatalf("new site config service: %v", err)
	}

	email := "not-an-address"
	mergeErr := svc.Merge(context.Background(), repositories.SiteConfigPatch{Email: &email})
	var validation *domain.ValidationError
	if !errors.As(mergeErr, &validation) {
		t.Fatalf("expected validation error, got %v", mergeErr)
	}
}

func TestMergeRejectsCategoryWithoutLabel(t *testing.T) {
	svc, err := NewSiteConfigService(SiteConfigServiceDeps{Repository: &stubSiteConfigRepo{}})
	if err != nil {
		t.Fatalf("new site config service: %v", err)
	}

	categories := []domain.CategoryDefinition{{ID: "web"}}
	mergeErr := svc.Merge(context.Background(), repositories.SiteConfigPatch{Categories: &categories})
	var validation *domain.ValidationError
	if !errors.As(mergeErr, &validation) {
		t.Fatalf("expected validation error, got %v", mergeErr)
	}
}
