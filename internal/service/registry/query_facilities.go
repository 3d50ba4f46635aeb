package registry

import (
	"context"
	"time"

	"github.com/openapparel/facility-registry/internal/domain"
)

// QueryFacilities searches facilities by name, country, contributor, and
// contributor type, returning one page plus the unpaged total.
func (s *Service) QueryFacilities(ctx context.Context, q domain.FacilityQuery) (*FacilityPage, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	q.Limit = clampLimit(q.Limit, s.cfg.MaxPageSize, s.cfg.DefaultPageSize)
	if q.Offset < 0 {
		q.Offset = 0
	}

	started := time.Now()
	facilities, total, err := s.facilities.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveFacilityQueryLatency(time.Since(started))

	return &FacilityPage{
		Facilities: facilities,
		Total:      total,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}

// CountFacilities returns the total number of facilities in the registry.
func (s *Service) CountFacilities(ctx context.Context) (int, error) {
	return s.facilities.Count(ctx)
}

func validateQuery(q domain.FacilityQuery) error {
	var fields []domain.FieldError
	for _, code := range q.Countries {
		if !domain.IsValidCountryCode(code) {
			fields = append(fields, domain.FieldError{Field: "countries", Message: "unknown country code " + code})
		}
	}
	for _, ct := range q.ContributorTypes {
		if !ct.IsValid() {
			fields = append(fields, domain.FieldError{Field: "contributor_types", Message: "unknown contributor type " + ct.String()})
		}
	}
	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

func clampLimit(limit, max, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
