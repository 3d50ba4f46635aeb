// Package registry exposes the public read side of the facility registry:
// facility search, facility detail with derived views, and reference data.
package registry

import (
	"context"
	"log/slog"

	"github.com/openapparel/facility-registry/internal/config"
	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/metrics"
)

type facilityRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Facility, error)
	Count(ctx context.Context) (int, error)
	Query(ctx context.Context, q domain.FacilityQuery) ([]domain.Facility, int, error)
	OtherNames(ctx context.Context, facilityID, canonicalName string) ([]string, error)
	OtherAddresses(ctx context.Context, facilityID, canonicalAddress string) ([]string, error)
	Contributors(ctx context.Context, facilityID string) ([]domain.FacilityContributor, error)
}

type contributorRepo interface {
	Create(ctx context.Context, c *domain.Contributor) (*domain.Contributor, error)
	ListPublic(ctx context.Context) ([]domain.Contributor, error)
}

// Service serves registry reads.
type Service struct {
	log          *slog.Logger
	facilities   facilityRepo
	contributors contributorRepo
	metrics      *metrics.Metrics
	cfg          config.RegistryConfig
}

// NewService creates a new registry service.
func NewService(
	logger *slog.Logger,
	facilities facilityRepo,
	contributors contributorRepo,
	mm *metrics.Metrics,
	cfg config.RegistryConfig,
) *Service {
	return &Service{
		log:          logger.With("service", "registry"),
		facilities:   facilities,
		contributors: contributors,
		metrics:      mm,
		cfg:          cfg,
	}
}

// FacilityPage is one page of facility search results.
type FacilityPage struct {
	Facilities []domain.Facility
	Total      int
	Limit      int
	Offset     int
}
