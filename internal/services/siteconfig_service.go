package services

import (
	"context"
	"strings"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

// SiteConfigServiceDeps bundles dependencies for the site configuration service.
type SiteConfigServiceDeps struct {
	Repository repositories.SiteConfigRepository
}

type siteConfigService struct {
	repo repositories.SiteConfigRepository
}

// NewSiteConfigService wires a SiteConfigService.
func NewSiteConfigService(deps SiteConfigServiceDeps) (SiteConfigService, error) {
	if deps.Repository == nil {
		return nil, ErrSiteConfigRepositoryMissing
	}
	return &siteConfigService{repo: deps.Repository}, nil
}

func (s *siteConfigService) Get(ctx context.Context) (domain.SiteConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return domain.SiteConfig{}, translateRepositoryError("siteConfig", "main", err)
	}
	return cfg, nil
}

// Merge validates and applies a partial update. The repository refreshes the
// update timestamp on every merge.
func (s *siteConfigService) Merge(ctx context.Context, patch repositories.SiteConfigPatch) error {
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email != "" && !strings.Contains(email, "@") {
			return domain.NewValidationError("email", "malformed address")
		}
		patch.Email = &email
	}
	if patch.Categories != nil {
		for _, def := range *patch.Categories {
			if strings.TrimSpace(def.ID) == "" || strings.TrimSpace(def.Label) == "" {
				return domain.NewValidationError("categories", "id and label are required")
			}
		}
	}
	if patch.Types != nil {
		for _, def := range *patch.Types {
			if strings.TrimSpace(def.ID) == "" || strings.TrimSpace(def.Label) == "" {
				return domain.NewValidationError("types", "id and label are required")
			}
		}
	}

	if err := s.repo.Merge(ctx, patch); err != nil {
		return translateRepositoryError("siteConfig", "main", err)
	}
	return nil
}

func (s *siteConfigService) Watch(ctx context.Context, onChange func(domain.SiteConfig), onError func(error)) (repositories.StopWatch, error) {
	return s.repo.Watch(ctx, onChange, onError)
}
