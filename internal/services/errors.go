package services

import (
	"errors"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

// Sentinel construction errors reported when a service is wired without its
// required dependencies.
var (
	ErrPlanRepositoryMissing       = errors.New("plan repository is required")
	ErrFounderRepositoryMissing    = errors.New("founder repository is required")
	ErrSiteConfigRepositoryMissing = errors.New("site config repository is required")
	ErrOrderRepositoryMissing      = errors.New("order repository is required")
	ErrAutomationNotConfigured     = errors.New("automation provider is not configured")
)

// RuleMaxActivePlans names the active-plan cap invariant in RuleViolation errors.
const RuleMaxActivePlans = "max active plans reached"

// translateRepositoryError maps repository failures onto the domain error
// taxonomy so callers above the service layer never see store internals.
func translateRepositoryError(collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return domain.NewNotFoundError(collection, id)
	}
	return domain.NewPersistenceError(collection, err)
}
