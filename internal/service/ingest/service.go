// Package ingest implements facility list upload and retrieval.
package ingest

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
	Create(ctx context.Context, l *domain.FacilityList) (*domain.FacilityList, error)
	GetOwned(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error)
	ListByContributor(ctx context.Context, contributorID uuid.UUID) ([]domain.FacilityList, error)
	HasReplacer(ctx context.Context, id uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type itemRepo interface {
	BulkCreate(ctx context.Context, items []domain.FacilityListItem) error
	GetInList(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error)
	Page(ctx context.Context, listID uuid.UUID, limit, offset int) ([]domain.FacilityListItem, int, error)
	DistinctStatuses(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// processor kicks off asynchronous pipeline processing for a freshly
// uploaded list. Submit must not block the upload request.
type processor interface {
	Submit(listID uuid.UUID)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements list ingestion.
type Service struct {
	log       *slog.Logger
	lists     listRepo
	items     itemRepo
	tx        txManager
	processor processor
	metrics   *metrics.Metrics
	uploadCfg config.UploadConfig
	regCfg    config.RegistryConfig
}

// NewService creates a new ingest service.
func NewService(
	logger *slog.Logger,
	lists listRepo,
	items itemRepo,
	tx txManager,
	proc processor,
	m *metrics.Metrics,
	uploadCfg config.UploadConfig,
	regCfg config.RegistryConfig,
) *Service {
	return &Service{
		log:       logger.With("service", "ingest"),
		lists:     lists,
		items:     items,
		tx:        tx,
		processor: proc,
		metrics:   m,
		uploadCfg: uploadCfg,
		regCfg:    regCfg,
	}
}

// clampLimit ensures a limit is within [1, max], defaulting from 0 to defaultVal.
func clampLimit(limit, max, defaultVal int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}
