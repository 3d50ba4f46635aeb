package rest

import (
	"net/http"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/service/registry"
)

type registerContributorRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Website          string  `json:"website"`
	ContribType      string  `json:"contrib_type"`
	OtherContribType *string `json:"other_contrib_type"`
}

// registerContributor handles POST /api/contributors. The response carries
// the minted admin token; it is not retrievable afterwards.
func (h *Handler) registerContributor(w http.ResponseWriter, r *http.Request) {
	var req registerContributorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.registry.RegisterContributor(r.Context(), registry.RegisterContributorInput{
		Name:             req.Name,
		Description:      req.Description,
		Website:          req.Website,
		ContribType:      domain.ContributorType(req.ContribType),
		OtherContribType: req.OtherContribType,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toContributorResponse(*created)
	adminID := created.AdminID
	resp.AdminID = &adminID
	writeJSON(w, http.StatusCreated, resp)
}

// listContributors handles GET /api/contributors.
func (h *Handler) listContributors(w http.ResponseWriter, r *http.Request) {
	contributors, err := h.registry.ListContributors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]contributorResponse, len(contributors))
	for i, c := range contributors {
		out[i] = toContributorResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// contributorTypes handles GET /api/contributor-types.
func (h *Handler) contributorTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.ContributorTypes())
}

// countries handles GET /api/countries.
func (h *Handler) countries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Countries())
}
