package registry

import (
	"context"
	"fmt"

	"github.com/openapparel/facility-registry/internal/domain"
)

// GetFacility returns a facility with its derived other-names, other-addresses,
// and contributors views. The views only reflect active matches on active,
// public lists.
func (s *Service) GetFacility(ctx context.Context, id string) (*domain.FacilityDetails, error) {
	if !domain.IsValidFacilityID(id) {
		return nil, domain.NewValidationError("id", "not a valid facility id")
	}

	facility, err := s.facilities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	names, err := s.facilities.OtherNames(ctx, facility.ID, facility.Name)
	if err != nil {
		return nil, fmt.Errorf("other names: %w", err)
	}
	addresses, err := s.facilities.OtherAddresses(ctx, facility.ID, facility.Address)
	if err != nil {
		return nil, fmt.Errorf("other addresses: %w", err)
	}
	contributors, err := s.facilities.Contributors(ctx, facility.ID)
	if err != nil {
		return nil, fmt.Errorf("contributors: %w", err)
	}

	return &domain.FacilityDetails{
		Facility:       *facility,
		OtherNames:     names,
		OtherAddresses: addresses,
		Contributors:   contributors,
	}, nil
}
