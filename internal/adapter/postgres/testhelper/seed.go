package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openapparel/facility-registry/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedContributor creates a contributor with default values.
// Returns a filled domain.Contributor.
func SeedContributor(t *testing.T, pool *pgxpool.Pool) domain.Contributor {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.Contributor{
		ID:          uuid.New(),
		AdminID:     uuid.New(),
		Name:        "Test Contributor " + suffix,
		Description: "Seeded contributor",
		Website:     "https://example.com/" + suffix,
		ContribType: domain.ContributorTypeBrandRetailer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO contributors (id, admin_id, name, description, website, contrib_type, other_contrib_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.AdminID, c.Name, c.Description, c.Website, string(c.ContribType), c.OtherContribType, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedContributor insert contributor: %v", err)
	}

	return c
}

// SeedList creates an active, public facility list owned by the contributor.
// Returns a filled domain.FacilityList.
func SeedList(t *testing.T, pool *pgxpool.Pool, contributorID uuid.UUID) domain.FacilityList {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	l := domain.FacilityList{
		ID:            uuid.New(),
		ContributorID: contributorID,
		Name:          "Test List " + suffix,
		FileName:      "list-" + suffix + ".csv",
		Header:        "country,name,address",
		IsActive:      true,
		IsPublic:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO facility_lists (id, contributor_id, name, description, file_name, header, is_active, is_public, replaces_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.ContributorID, l.Name, l.Description, l.FileName, l.Header, l.IsActive, l.IsPublic, l.ReplacesID, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedList insert facility_list: %v", err)
	}

	return l
}

// SeedItem creates a list item in the given status. Parsed fields are filled
// for statuses past parsing; a geocoded point is filled for statuses past
// geocoding. Returns a filled domain.FacilityListItem.
func SeedItem(t *testing.T, pool *pgxpool.Pool, listID uuid.UUID, rowIndex int, status domain.ItemStatus) domain.FacilityListItem {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	it := domain.FacilityListItem{
		ID:             uuid.New(),
		FacilityListID: listID,
		RowIndex:       rowIndex,
		RawData:        "CN,Factory " + suffix + ",123 Road " + suffix,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if status != domain.ItemStatusUploaded {
		it.Name = "Factory " + suffix
		it.Address = "123 Road " + suffix
		it.CountryCode = "CN"
	}
	switch status {
	case domain.ItemStatusGeocoded, domain.ItemStatusMatched,
		domain.ItemStatusPotentialMatch, domain.ItemStatusConfirmedMatch:
		addr := "123 Road " + suffix + ", Shenzhen"
		it.GeocodedPoint = &domain.Point{Lat: 22.54, Lng: 114.06}
		it.GeocodedAddress = &addr
	}

	results, err := json.Marshal([]domain.ProcessingResult{})
	if err != nil {
		t.Fatalf("testhelper: SeedItem marshal results: %v", err)
	}

	var lat, lng *float64
	if it.GeocodedPoint != nil {
		lat, lng = &it.GeocodedPoint.Lat, &it.GeocodedPoint.Lng
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO facility_list_items (id, facility_list_id, row_index, raw_data, status, name, address, country_code,
		        geocoded_lat, geocoded_lng, geocoded_address, processing_results, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		it.ID, it.FacilityListID, it.RowIndex, it.RawData, string(it.Status), it.Name, it.Address, it.CountryCode,
		lat, lng, it.GeocodedAddress, results, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedItem insert facility_list_item: %v", err)
	}

	return it
}

// SeedFacility creates a facility seeded from the given item, copying the
// item's parsed fields. Returns a filled domain.Facility.
func SeedFacility(t *testing.T, pool *pgxpool.Pool, item domain.FacilityListItem) domain.Facility {
	t.Helper()
	ctx := context.Background()

	id, err := domain.NewFacilityID("CN", time.Now())
	if err != nil {
		t.Fatalf("testhelper: SeedFacility mint id: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	f := domain.Facility{
		ID:                id,
		Name:              item.Name,
		Address:           item.Address,
		CountryCode:       "CN",
		Location:          domain.Point{Lat: 22.54, Lng: 114.06},
		CreatedFromItemID: item.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if item.GeocodedPoint != nil {
		f.Location = *item.GeocodedPoint
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO facilities (id, name, address, country_code, location_lat, location_lng, created_from_item_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.Name, f.Address, f.CountryCode, f.Location.Lat, f.Location.Lng, f.CreatedFromItemID, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFacility insert facility: %v", err)
	}

	return f
}

// SeedMatch creates a match between the item and facility in the given status.
// Returns a filled domain.FacilityMatch.
func SeedMatch(t *testing.T, pool *pgxpool.Pool, itemID uuid.UUID, facilityID string, status domain.MatchStatus, confidence float64) domain.FacilityMatch {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	m := domain.FacilityMatch{
		ID:         uuid.New(),
		ItemID:     itemID,
		FacilityID: facilityID,
		Confidence: confidence,
		Status:     status,
		Results:    map[string]any{"match_type": "seeded"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	results, err := json.Marshal(m.Results)
	if err != nil {
		t.Fatalf("testhelper: SeedMatch marshal results: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO facility_matches (id, facility_list_item_id, facility_id, results, confidence, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ItemID, m.FacilityID, results, m.Confidence, string(m.Status), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMatch insert facility_match: %v", err)
	}

	return m
}

// LinkItemToFacility moves the item to MATCHED linked to the facility, as the
// pipeline does when a match is applied. The status moves together with the
// link so the facility-link constraint holds.
func LinkItemToFacility(t *testing.T, pool *pgxpool.Pool, itemID uuid.UUID, facilityID string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`UPDATE facility_list_items SET status = 'MATCHED', facility_id = $2 WHERE id = $1`,
		itemID, facilityID,
	)
	if err != nil {
		t.Fatalf("testhelper: LinkItemToFacility: %v", err)
	}
}
