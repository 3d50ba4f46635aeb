package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FacilityList is a versioned batch of uploaded facility rows. Lists are
// immutable after upload except for the IsActive and IsPublic flags. A list
// that replaces another records the replaced list's ID; at most one list may
// replace a given list (unique constraint on ReplacesID).
type FacilityList struct {
	ID            uuid.UUID
	ContributorID uuid.UUID
	Name          string
	Description   *string
	FileName      string
	Header        string
	IsActive      bool
	IsPublic      bool
	ReplacesID    *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProcessingResult is one entry of an item's append-only processing log.
// Payload carries stage-specific diagnostics (geocoder output, matcher
// diagnostics, and so on) and is stored as JSON.
type ProcessingResult struct {
	Action     ProcessingAction `json:"action"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	IsError    bool             `json:"error"`
	Message    string           `json:"message,omitempty"`
	Payload    map[string]any   `json:"payload,omitempty"`
}

// FacilityListItem is one row of an uploaded list, tracked through the
// resolution pipeline. RowIndex is 0-based and unique within the list.
// FacilityID is set only when the item reaches a matched terminal state.
type FacilityListItem struct {
	ID                uuid.UUID
	FacilityListID    uuid.UUID
	RowIndex          int
	RawData           string
	Status            ItemStatus
	Name              string
	Address           string
	CountryCode       string
	GeocodedPoint     *Point
	GeocodedAddress   *string
	FacilityID        *string
	ProcessingResults []ProcessingResult
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TransitionTo moves the item to next, rejecting moves the transition table
// forbids. The facility link must already reflect the target status: matched
// states require it set, every other state requires it absent, so callers
// link the facility before transitioning into MATCHED or CONFIRMED_MATCH.
func (i *FacilityListItem) TransitionTo(next ItemStatus) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("item %s: illegal status transition %s to %s: %w", i.ID, i.Status, next, ErrConflict)
	}

	prev := i.Status
	i.Status = next
	if err := i.ValidateFacilityLink(); err != nil {
		i.Status = prev
		return err
	}

	return nil
}

// ValidateFacilityLink checks the status/facility-link invariant: matched
// statuses carry a facility, all other statuses must not.
func (i *FacilityListItem) ValidateFacilityLink() error {
	switch {
	case i.Status.HasFacility() == (i.FacilityID != nil):
		return nil
	case i.Status.HasFacility():
		return fmt.Errorf("item %s: status %s requires a facility link: %w", i.ID, i.Status, ErrValidation)
	default:
		return fmt.Errorf("item %s: status %s must not carry a facility link: %w", i.ID, i.Status, ErrValidation)
	}
}

// HasGeocodedLocation reports whether the item carries a usable location for
// facility creation. An item in GEOCODED_NO_RESULTS is treated as having no
// location even if a point is present; the status check takes precedence.
func (i *FacilityListItem) HasGeocodedLocation() bool {
	if i.Status == ItemStatusGeocodedNoResults {
		return false
	}
	return i.GeocodedPoint != nil
}

// AppendResult adds a processing-result entry to the item's log.
func (i *FacilityListItem) AppendResult(r ProcessingResult) {
	i.ProcessingResults = append(i.ProcessingResults, r)
}
