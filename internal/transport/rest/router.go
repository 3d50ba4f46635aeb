// Package rest is the HTTP layer. Handlers delegate to the services and keep
// transport concerns (decoding, status mapping, response shaping) out of them.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/service/adjudicate"
	"github.com/openapparel/facility-registry/internal/service/ingest"
	"github.com/openapparel/facility-registry/internal/service/registry"
)

type ingestService interface {
	UploadList(ctx context.Context, input ingest.UploadInput) (*domain.FacilityList, error)
	ListLists(ctx context.Context) ([]domain.FacilityList, error)
	GetList(ctx context.Context, listID uuid.UUID) (*ingest.ListDetail, error)
	GetItem(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error)
	ListItems(ctx context.Context, listID uuid.UUID, limit, offset int) (*ingest.ItemPage, error)
}

type adjudicateService interface {
	ConfirmMatch(ctx context.Context, input adjudicate.ConfirmInput) (*adjudicate.Result, error)
	RejectMatch(ctx context.Context, input adjudicate.RejectInput) (*adjudicate.Result, error)
}

type registryService interface {
	GetFacility(ctx context.Context, id string) (*domain.FacilityDetails, error)
	QueryFacilities(ctx context.Context, q domain.FacilityQuery) (*registry.FacilityPage, error)
	CountFacilities(ctx context.Context) (int, error)
	RegisterContributor(ctx context.Context, input registry.RegisterContributorInput) (*domain.Contributor, error)
	ListContributors(ctx context.Context) ([]domain.Contributor, error)
	ContributorTypes() []domain.ContributorType
	Countries() []domain.CountryChoice
}

// contributorResolver turns an admin credential into a contributor.
type contributorResolver interface {
	GetByAdminID(ctx context.Context, adminID uuid.UUID) (*domain.Contributor, error)
}

// Handler wires the HTTP endpoints to the services.
type Handler struct {
	log         *slog.Logger
	ingest      ingestService
	adjudicate  adjudicateService
	registry    registryService
	contributor contributorResolver
	ready       func(ctx context.Context) error
}

// NewHandler constructs the HTTP handler. ready reports backend readiness for
// the /readyz endpoint (typically a database ping).
func NewHandler(
	logger *slog.Logger,
	ingestSvc ingestService,
	adjudicateSvc adjudicateService,
	registrySvc registryService,
	resolver contributorResolver,
	ready func(ctx context.Context) error,
) *Handler {
	return &Handler{
		log:         logger.With("component", "rest"),
		ingest:      ingestSvc,
		adjudicate:  adjudicateSvc,
		registry:    registrySvc,
		contributor: resolver,
		ready:       ready,
	}
}

// Routes mounts all endpoints and returns the root handler.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.resolveContributor)

		r.Post("/contributors", h.registerContributor)
		r.Get("/contributors", h.listContributors)
		r.Get("/contributor-types", h.contributorTypes)
		r.Get("/countries", h.countries)

		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", h.queryFacilities)
			r.Get("/count", h.countFacilities)
			r.Get("/{facilityID}", h.getFacility)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Post("/", h.uploadList)
			r.Get("/", h.listLists)

			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", h.getList)
				r.Get("/items", h.listItems)

				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Get("/", h.getItem)
					r.Post("/matches/{matchID}/confirm", h.confirmMatch)
					r.Post("/matches/{matchID}/reject", h.rejectMatch)
				})
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathUUID parses a UUID path parameter, returning false after writing a
// validation response on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, domain.NewValidationError(name, "must be a uuid"))
		return uuid.Nil, false
	}
	return id, true
}
