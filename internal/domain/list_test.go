package domain

import (
	"errors"
	"testing"
	"time"
)

func TestFacilityListItem_HasGeocodedLocation(t *testing.T) {
	t.Parallel()

	point := &Point{Lat: 23.8103, Lng: 90.4125}

	tests := []struct {
		name   string
		status ItemStatus
		point  *Point
		want   bool
	}{
		{"geocoded with point", ItemStatusPotentialMatch, point, true},
		{"no point", ItemStatusPotentialMatch, nil, false},
		// Status takes precedence over a stray point.
		{"no results with stray point", ItemStatusGeocodedNoResults, point, false},
		{"no results without point", ItemStatusGeocodedNoResults, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			item := &FacilityListItem{Status: tt.status, GeocodedPoint: tt.point}
			if got := item.HasGeocodedLocation(); got != tt.want {
				t.Errorf("HasGeocodedLocation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFacilityListItem_TransitionTo(t *testing.T) {
	t.Parallel()

	fid := "CN2020148AV2K1F"

	tests := []struct {
		name       string
		item       FacilityListItem
		next       ItemStatus
		wantErr    error
		wantStatus ItemStatus
	}{
		{
			name:       "uploaded to parsed",
			item:       FacilityListItem{Status: ItemStatusUploaded},
			next:       ItemStatusParsed,
			wantStatus: ItemStatusParsed,
		},
		{
			name:       "geocoded to matched with link",
			item:       FacilityListItem{Status: ItemStatusGeocoded, FacilityID: &fid},
			next:       ItemStatusMatched,
			wantStatus: ItemStatusMatched,
		},
		{
			name:       "potential match to error matching",
			item:       FacilityListItem{Status: ItemStatusPotentialMatch},
			next:       ItemStatusErrorMatching,
			wantStatus: ItemStatusErrorMatching,
		},
		{
			name:       "matched cannot regress to uploaded",
			item:       FacilityListItem{Status: ItemStatusMatched, FacilityID: &fid},
			next:       ItemStatusUploaded,
			wantErr:    ErrConflict,
			wantStatus: ItemStatusMatched,
		},
		{
			name:       "confirmed match is terminal",
			item:       FacilityListItem{Status: ItemStatusConfirmedMatch, FacilityID: &fid},
			next:       ItemStatusPotentialMatch,
			wantErr:    ErrConflict,
			wantStatus: ItemStatusConfirmedMatch,
		},
		{
			name:       "matched requires a link",
			item:       FacilityListItem{Status: ItemStatusGeocoded},
			next:       ItemStatusMatched,
			wantErr:    ErrValidation,
			wantStatus: ItemStatusGeocoded,
		},
		{
			name:       "confirmed match requires a link",
			item:       FacilityListItem{Status: ItemStatusPotentialMatch},
			next:       ItemStatusConfirmedMatch,
			wantErr:    ErrValidation,
			wantStatus: ItemStatusPotentialMatch,
		},
		{
			name:       "error matching must drop the link",
			item:       FacilityListItem{Status: ItemStatusPotentialMatch, FacilityID: &fid},
			next:       ItemStatusErrorMatching,
			wantErr:    ErrValidation,
			wantStatus: ItemStatusPotentialMatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			item := tt.item
			err := item.TransitionTo(tt.next)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("TransitionTo(%s) error = %v, want %v", tt.next, err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("TransitionTo(%s): %v", tt.next, err)
			}
			if item.Status != tt.wantStatus {
				t.Errorf("status after TransitionTo = %s, want %s", item.Status, tt.wantStatus)
			}
		})
	}
}

func TestFacilityListItem_ValidateFacilityLink(t *testing.T) {
	t.Parallel()

	fid := "BD2020148AV2K1F"

	tests := []struct {
		name    string
		item    FacilityListItem
		wantErr bool
	}{
		{"matched with link", FacilityListItem{Status: ItemStatusMatched, FacilityID: &fid}, false},
		{"confirmed with link", FacilityListItem{Status: ItemStatusConfirmedMatch, FacilityID: &fid}, false},
		{"uploaded without link", FacilityListItem{Status: ItemStatusUploaded}, false},
		{"matched without link", FacilityListItem{Status: ItemStatusMatched}, true},
		{"error matching with link", FacilityListItem{Status: ItemStatusErrorMatching, FacilityID: &fid}, true},
		{"potential match with link", FacilityListItem{Status: ItemStatusPotentialMatch, FacilityID: &fid}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.item.ValidateFacilityLink()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFacilityLink() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v should wrap ErrValidation", err)
			}
		})
	}
}

func TestFacilityListItem_AppendResult(t *testing.T) {
	t.Parallel()

	item := &FacilityListItem{}
	now := time.Now().UTC()

	item.AppendResult(ProcessingResult{Action: ActionParse, StartedAt: now, FinishedAt: now})
	item.AppendResult(ProcessingResult{Action: ActionGeocode, StartedAt: now, FinishedAt: now, IsError: true, Message: "geocoder unavailable"})

	if len(item.ProcessingResults) != 2 {
		t.Fatalf("expected 2 results, got %d", len(item.ProcessingResults))
	}
	if item.ProcessingResults[0].Action != ActionParse {
		t.Errorf("first entry action = %s, want parse", item.ProcessingResults[0].Action)
	}
	if !item.ProcessingResults[1].IsError {
		t.Error("second entry should be an error")
	}
}

func TestContributor_Validate(t *testing.T) {
	t.Parallel()

	other := "Sourcing platform"

	tests := []struct {
		name    string
		contrib Contributor
		wantErr bool
	}{
		{"valid", Contributor{Name: "Example Brand", ContribType: ContributorTypeBrandRetailer}, false},
		{"valid other", Contributor{Name: "Example", ContribType: ContributorTypeOther, OtherContribType: &other}, false},
		{"missing name", Contributor{ContribType: ContributorTypeUnion}, true},
		{"unknown type", Contributor{Name: "X", ContribType: ContributorType("Wholesaler")}, true},
		{"other without description", Contributor{Name: "X", ContribType: ContributorTypeOther}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.contrib.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
