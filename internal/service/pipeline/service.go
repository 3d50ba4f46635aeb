// Package pipeline applies the parse, geocode, and match stages that move
// uploaded list items toward a resolved facility.
package pipeline

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
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FacilityList, error)
}

type itemRepo interface {
	ListByStatus(ctx context.Context, listID uuid.UUID, status domain.ItemStatus) ([]domain.FacilityListItem, error)
	Update(ctx context.Context, it *domain.FacilityListItem) error
}

type matchRepo interface {
	Create(ctx context.Context, m *domain.FacilityMatch) (*domain.FacilityMatch, error)
}

type facilityRepo interface {
	Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// lineParser extracts the required fields from one raw list row given the
// list's header.
type lineParser interface {
	ParseLine(header, raw string) (domain.ParsedFields, error)
}

// geocoder resolves an address to a point. A result with a nil point means
// the provider found nothing; an error means the lookup itself failed.
type geocoder interface {
	Geocode(ctx context.Context, address, countryCode string) (*domain.GeocodeResult, error)
}

// matcher scores an item against existing facilities.
type matcher interface {
	ScoreCandidates(ctx context.Context, item *domain.FacilityListItem) ([]domain.MatchCandidate, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service runs pipeline stages over a list's items. Items are processed
// independently; one item's stage failure is recorded on that item and never
// aborts the rest of the list.
type Service struct {
	log        *slog.Logger
	lists      listRepo
	items      itemRepo
	matches    matchRepo
	facilities facilityRepo
	tx         txManager
	parser     lineParser
	geocoder   geocoder
	matcher    matcher
	metrics    *metrics.Metrics
	cfg        config.RegistryConfig
}

// NewService creates a new pipeline service.
func NewService(
	logger *slog.Logger,
	lists listRepo,
	items itemRepo,
	matches matchRepo,
	facilities facilityRepo,
	tx txManager,
	parser lineParser,
	geo geocoder,
	m matcher,
	mm *metrics.Metrics,
	cfg config.RegistryConfig,
) *Service {
	return &Service{
		log:        logger.With("service", "pipeline"),
		lists:      lists,
		items:      items,
		matches:    matches,
		facilities: facilities,
		tx:         tx,
		parser:     parser,
		geocoder:   geo,
		matcher:    m,
		metrics:    mm,
		cfg:        cfg,
	}
}

// ProcessList runs the parse, geocode, and match stages over every item of
// the list that is ready for each stage.
func (s *Service) ProcessList(ctx context.Context, listID uuid.UUID) error {
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return err
	}

	if err := s.runStage(ctx, list, domain.ItemStatusUploaded, s.parseItem); err != nil {
		return err
	}
	if err := s.runStage(ctx, list, domain.ItemStatusParsed, s.geocodeItem); err != nil {
		return err
	}
	if err := s.runStage(ctx, list, domain.ItemStatusGeocoded, s.matchItem); err != nil {
		return err
	}
	if err := s.runStage(ctx, list, domain.ItemStatusGeocodedNoResults, s.matchItem); err != nil {
		return err
	}

	return nil
}

// runStage applies one stage function to every item of the list currently in
// the stage's input status. Returning an error here means the stage could not
// run at all; per-item failures are recorded on the items.
func (s *Service) runStage(
	ctx context.Context,
	list *domain.FacilityList,
	input domain.ItemStatus,
	stage func(ctx context.Context, list *domain.FacilityList, item *domain.FacilityListItem) error,
) error {
	items, err := s.items.ListByStatus(ctx, list.ID, input)
	if err != nil {
		return err
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage(ctx, list, &items[i]); err != nil {
			// The stage could not even record its outcome; log and
			// move on so the rest of the list still processes.
			s.log.Error("stage failed",
				"list_id", list.ID,
				"item_id", items[i].ID,
				"input_status", input,
				"error", err,
			)
		}
	}

	return nil
}
