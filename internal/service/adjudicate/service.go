// Package adjudicate implements confirm/reject decisions on potential
// facility matches.
package adjudicate

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/config"
	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/metrics"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type listRepo interface {
	GetOwned(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error)
}

type itemRepo interface {
	GetInListForUpdate(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error)
	Update(ctx context.Context, it *domain.FacilityListItem) error
	DistinctStatuses(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error)
}

type matchRepo interface {
	GetForItem(ctx context.Context, itemID, matchID uuid.UUID) (*domain.FacilityMatch, error)
	Create(ctx context.Context, m *domain.FacilityMatch) (*domain.FacilityMatch, error)
	UpdateStatus(ctx context.Context, matchID uuid.UUID, status domain.MatchStatus) error
	RejectOthers(ctx context.Context, itemID, exceptMatchID uuid.UUID) (int, error)
	CountPending(ctx context.Context, itemID uuid.UUID) (int, error)
}

type facilityRepo interface {
	Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements match adjudication. Each decision runs in a single
// transaction holding a row lock on the item, so concurrent decisions on the
// same item serialize and the losing caller sees the item's new status.
type Service struct {
	log        *slog.Logger
	lists      listRepo
	items      itemRepo
	matches    matchRepo
	facilities facilityRepo
	tx         txManager
	metrics    *metrics.Metrics
	cfg        config.RegistryConfig
}

// NewService creates a new adjudication service.
func NewService(
	logger *slog.Logger,
	lists listRepo,
	items itemRepo,
	matches matchRepo,
	facilities facilityRepo,
	tx txManager,
	m *metrics.Metrics,
	cfg config.RegistryConfig,
) *Service {
	return &Service{
		log:        logger.With("service", "adjudicate"),
		lists:      lists,
		items:      items,
		matches:    matches,
		facilities: facilities,
		tx:         tx,
		metrics:    m,
		cfg:        cfg,
	}
}

// Result is the outcome of an adjudication decision: the updated item, the
// adjudicated match, and the distinct statuses across the list's items.
type Result struct {
	Item         domain.FacilityListItem
	Match        domain.FacilityMatch
	ListStatuses []domain.ItemStatus
}
