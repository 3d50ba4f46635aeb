package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
)

// RegisterContributorInput carries a new contributor profile.
type RegisterContributorInput struct {
	Name             string
	Description      string
	Website          string
	ContribType      domain.ContributorType
	OtherContribType *string
}

// RegisterContributor creates a contributor profile and mints its admin
// identifier. The admin identifier is the caller's credential for list
// operations and is only ever returned here.
func (s *Service) RegisterContributor(ctx context.Context, input RegisterContributorInput) (*domain.Contributor, error) {
	c := &domain.Contributor{
		AdminID:          uuid.New(),
		Name:             input.Name,
		Description:      input.Description,
		Website:          input.Website,
		ContribType:      input.ContribType,
		OtherContribType: input.OtherContribType,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	created, err := s.contributors.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	s.log.Info("contributor registered", "contributor_id", created.ID, "contrib_type", created.ContribType)
	return created, nil
}
