package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
)

// queryFacilities handles GET /api/facilities. Filters come from query
// parameters: name, countries, contributors, contributor_types (the list
// parameters are comma-separated), limit, offset.
func (h *Handler) queryFacilities(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := domain.FacilityQuery{
		Name:      params.Get("name"),
		Countries: splitParam(params.Get("countries")),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}
	for _, ct := range splitParam(params.Get("contributor_types")) {
		query.ContributorTypes = append(query.ContributorTypes, domain.ContributorType(ct))
	}
	for _, raw := range splitParam(params.Get("contributors")) {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, domain.NewValidationError("contributors", "must be uuids"))
			return
		}
		query.Contributors = append(query.Contributors, id)
	}

	page, err := h.registry.QueryFacilities(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFeatureCollection(page))
}

// countFacilities handles GET /api/facilities/count.
func (h *Handler) countFacilities(w http.ResponseWriter, r *http.Request) {
	n, err := h.registry.CountFacilities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// getFacility handles GET /api/facilities/{facilityID}.
func (h *Handler) getFacility(w http.ResponseWriter, r *http.Request) {
	details, err := h.registry.GetFacility(r.Context(), chi.URLParam(r, "facilityID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFacilityDetailFeature(details))
}

// splitParam splits a comma-separated query parameter, dropping empty parts.
func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
