package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/service/adjudicate"
	"github.com/openapparel/facility-registry/internal/service/ingest"
	"github.com/openapparel/facility-registry/internal/service/registry"
)

// Facilities are rendered as GeoJSON-style feature documents so results drop
// straight onto a map client.

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type facilityProperties struct {
	Name           string               `json:"name"`
	Address        string               `json:"address"`
	CountryCode    string               `json:"country_code"`
	CountryName    string               `json:"country_name"`
	OtherNames     []string             `json:"other_names,omitempty"`
	OtherAddresses []string             `json:"other_addresses,omitempty"`
	Contributors   []contributorFeature `json:"contributors,omitempty"`
}

type contributorFeature struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

type facilityFeature struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Geometry   geometry           `json:"geometry"`
	Properties facilityProperties `json:"properties"`
}

type featureCollection struct {
	Type     string            `json:"type"`
	Count    int               `json:"count"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Features []facilityFeature `json:"features"`
}

func toFacilityFeature(f domain.Facility) facilityFeature {
	return facilityFeature{
		ID:   f.ID,
		Type: "Feature",
		Geometry: geometry{
			Type:        "Point",
			Coordinates: [2]float64{f.Location.Lng, f.Location.Lat},
		},
		Properties: facilityProperties{
			Name:        f.Name,
			Address:     f.Address,
			CountryCode: f.CountryCode,
			CountryName: domain.CountryName(f.CountryCode),
		},
	}
}

func toFacilityDetailFeature(d *domain.FacilityDetails) facilityFeature {
	feature := toFacilityFeature(d.Facility)
	feature.Properties.OtherNames = d.OtherNames
	feature.Properties.OtherAddresses = d.OtherAddresses
	feature.Properties.Contributors = make([]contributorFeature, len(d.Contributors))
	for i, c := range d.Contributors {
		feature.Properties.Contributors[i] = contributorFeature{ID: c.ContributorID, Label: c.Label}
	}
	return feature
}

func toFeatureCollection(page *registry.FacilityPage) featureCollection {
	features := make([]facilityFeature, len(page.Facilities))
	for i, f := range page.Facilities {
		features[i] = toFacilityFeature(f)
	}
	return featureCollection{
		Type:     "FeatureCollection",
		Count:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Features: features,
	}
}

type listResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	FileName     string              `json:"file_name"`
	IsActive     bool                `json:"is_active"`
	IsPublic     bool                `json:"is_public"`
	ReplacesID   *uuid.UUID          `json:"replaces_id,omitempty"`
	ItemStatuses []domain.ItemStatus `json:"item_statuses,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func toListResponse(l domain.FacilityList) listResponse {
	return listResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		FileName:    l.FileName,
		IsActive:    l.IsActive,
		IsPublic:    l.IsPublic,
		ReplacesID:  l.ReplacesID,
		CreatedAt:   l.CreatedAt,
	}
}

func toListDetailResponse(d *ingest.ListDetail) listResponse {
	resp := toListResponse(d.List)
	resp.ItemStatuses = d.ItemStatuses
	return resp
}

type itemResponse struct {
	ID                uuid.UUID                 `json:"id"`
	RowIndex          int                       `json:"row_index"`
	RawData           string                    `json:"raw_data"`
	Status            domain.ItemStatus         `json:"status"`
	Name              string                    `json:"name,omitempty"`
	Address           string                    `json:"address,omitempty"`
	CountryCode       string                    `json:"country_code,omitempty"`
	GeocodedPoint     *domain.Point             `json:"geocoded_point,omitempty"`
	GeocodedAddress   *string                   `json:"geocoded_address,omitempty"`
	FacilityID        *string                   `json:"facility_id,omitempty"`
	ProcessingResults []domain.ProcessingResult `json:"processing_results"`
}

func toItemResponse(it domain.FacilityListItem) itemResponse {
	results := it.ProcessingResults
	if results == nil {
		results = []domain.ProcessingResult{}
	}
	return itemResponse{
		ID:                it.ID,
		RowIndex:          it.RowIndex,
		RawData:           it.RawData,
		Status:            it.Status,
		Name:              it.Name,
		Address:           it.Address,
		CountryCode:       it.CountryCode,
		GeocodedPoint:     it.GeocodedPoint,
		GeocodedAddress:   it.GeocodedAddress,
		FacilityID:        it.FacilityID,
		ProcessingResults: results,
	}
}

type itemPageResponse struct {
	Items  []itemResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func toItemPageResponse(page *ingest.ItemPage) itemPageResponse {
	items := make([]itemResponse, len(page.Items))
	for i, it := range page.Items {
		items[i] = toItemResponse(it)
	}
	return itemPageResponse{Items: items, Total: page.Total, Limit: page.Limit, Offset: page.Offset}
}

type matchResponse struct {
	ID         uuid.UUID          `json:"id"`
	FacilityID string             `json:"facility_id"`
	Confidence float64            `json:"confidence"`
	Status     domain.MatchStatus `json:"status"`
	Results    map[string]any     `json:"results,omitempty"`
}

func toMatchResponse(m domain.FacilityMatch) matchResponse {
	return matchResponse{
		ID:         m.ID,
		FacilityID: m.FacilityID,
		Confidence: m.Confidence,
		Status:     m.Status,
		Results:    m.Results,
	}
}

type adjudicationResponse struct {
	Item         itemResponse        `json:"item"`
	Match        matchResponse       `json:"match"`
	ListStatuses []domain.ItemStatus `json:"list_statuses"`
}

func toAdjudicationResponse(res *adjudicate.Result) adjudicationResponse {
	return adjudicationResponse{
		Item:         toItemResponse(res.Item),
		Match:        toMatchResponse(res.Match),
		ListStatuses: res.ListStatuses,
	}
}

type contributorResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Website     string                 `json:"website,omitempty"`
	ContribType domain.ContributorType `json:"contrib_type"`
	// AdminID is only set on registration responses.
	AdminID *uuid.UUID `json:"admin_id,omitempty"`
}

func toContributorResponse(c domain.Contributor) contributorResponse {
	return contributorResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Website:     c.Website,
		ContribType: c.ContribType,
	}
}
