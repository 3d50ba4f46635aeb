package registry

import (
	"context"

	"github.com/openapparel/facility-registry/internal/domain"
)

// ListContributors returns every contributor with at least one active, public
// list.
func (s *Service) ListContributors(ctx context.Context) ([]domain.Contributor, error) {
	return s.contributors.ListPublic(ctx)
}

// ContributorTypes returns the closed set of contributor types.
func (s *Service) ContributorTypes() []domain.ContributorType {
	return domain.ContributorTypes
}

// Countries returns all known countries sorted by code.
func (s *Service) Countries() []domain.CountryChoice {
	return domain.CountryChoices()
}
