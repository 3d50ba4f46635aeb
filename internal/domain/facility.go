package domain

import (
	"time"

	"github.com/google/uuid"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Facility is a canonical registry entry. Its ID is minted by the identifier
// allocator and is immutable once assigned. CreatedFromItemID references the
// exact list item whose data seeded the facility.
type Facility struct {
	ID                string
	Name              string
	Address           string
	CountryCode       string
	Location          Point
	CreatedFromItemID uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FacilityDetails is a facility together with its derived read views:
// distinct alternate names, addresses, and contributing organizations
// aggregated from other items matched to the facility.
type FacilityDetails struct {
	Facility
	OtherNames     []string
	OtherAddresses []string
	Contributors   []FacilityContributor
}

// FacilityContributor identifies an organization whose list contributed a
// match to a facility, labeled with the list the match came from.
type FacilityContributor struct {
	ContributorID uuid.UUID
	Label         string
}

// FacilityQuery carries the filters for a registry search. Zero-value fields
// are ignored. Matches-based filters (Contributors, ContributorTypes) only
// consider AUTOMATIC and CONFIRMED matches whose source list is active.
type FacilityQuery struct {
	Name             string
	Countries        []string
	Contributors     []uuid.UUID
	ContributorTypes []ContributorType
	Limit            int
	Offset           int
}

// FacilityMatch links a list item to a candidate facility with a scorer
// confidence and adjudication status. For a given item at most one match may
// hold AUTOMATIC or CONFIRMED status at any time.
type FacilityMatch struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	FacilityID string
	Confidence float64
	Status     MatchStatus
	// Results is the opaque diagnostic payload produced by the scorer
	// (or by the adjudication fallback when all candidates are rejected).
	Results   map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
