// Package item implements the FacilityListItem repository using PostgreSQL.
package item

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openapparel/facility-registry/internal/adapter/postgres"
	"github.com/openapparel/facility-registry/internal/domain"
)

// Repo provides facility-list-item persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new list-item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `id, facility_list_id, row_index, raw_data, status, name, address, country_code,
       geocoded_lat, geocoded_lng, geocoded_address, facility_id, processing_results, created_at, updated_at`

const insertItemSQL = `
INSERT INTO facility_list_items (id, facility_list_id, row_index, raw_data, status, name, address, country_code,
       geocoded_lat, geocoded_lng, geocoded_address, facility_id, processing_results, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const getItemSQL = `
SELECT ` + itemColumns + `
FROM facility_list_items
WHERE id = $1`

const getItemInListSQL = `
SELECT ` + itemColumns + `
FROM facility_list_items
WHERE id = $1 AND facility_list_id = $2`

const getItemInListForUpdateSQL = getItemInListSQL + `
FOR UPDATE`

const pageItemsSQL = `
SELECT ` + itemColumns + `
FROM facility_list_items
WHERE facility_list_id = $1
ORDER BY row_index
LIMIT $2 OFFSET $3`

const countItemsSQL = `
SELECT count(*) FROM facility_list_items WHERE facility_list_id = $1`

const listItemsByStatusSQL = `
SELECT ` + itemColumns + `
FROM facility_list_items
WHERE facility_list_id = $1 AND status = $2
ORDER BY row_index`

const distinctStatusesSQL = `
SELECT DISTINCT status FROM facility_list_items WHERE facility_list_id = $1 ORDER BY status`

const updateItemSQL = `
UPDATE facility_list_items
SET status = $2, name = $3, address = $4, country_code = $5,
    geocoded_lat = $6, geocoded_lng = $7, geocoded_address = $8,
    facility_id = $9, processing_results = $10, updated_at = $11
WHERE id = $1`

// BulkCreate inserts items in one batched round trip. Callers are expected to
// run it inside the same transaction that creates the owning list.
func (r *Repo) BulkCreate(ctx context.Context, items []domain.FacilityListItem) error {
	if len(items) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	batch := &pgx.Batch{}
	for i := range items {
		it := &items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.CreatedAt = now
		it.UpdatedAt = now

		results, err := marshalResults(it.ProcessingResults)
		if err != nil {
			return fmt.Errorf("marshal processing results: %w", err)
		}

		lat, lng := pointColumns(it.GeocodedPoint)
		batch.Queue(insertItemSQL,
			it.ID, it.FacilityListID, it.RowIndex, it.RawData, string(it.Status),
			it.Name, it.Address, it.CountryCode, lat, lng, it.GeocodedAddress,
			it.FacilityID, results, it.CreatedAt, it.UpdatedAt,
		)
	}

	br := querier.SendBatch(ctx, batch)
	defer br.Close()

	for i := range items {
		if _, err := br.Exec(); err != nil {
			return postgres.MapError(err, "list item", items[i].ID)
		}
	}

	return nil
}

// GetByID returns an item by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FacilityListItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	it, err := scanItem(querier.QueryRow(ctx, getItemSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "list item", id)
	}

	return it, nil
}

// GetInList returns an item by primary key, restricted to the given list.
func (r *Repo) GetInList(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	it, err := scanItem(querier.QueryRow(ctx, getItemInListSQL, itemID, listID))
	if err != nil {
		return nil, postgres.MapError(err, "list item", itemID)
	}

	return it, nil
}

// GetInListForUpdate behaves like GetInList but takes a row-level lock, so
// concurrent adjudications of the same item serialize. Must run inside a
// transaction.
func (r *Repo) GetInListForUpdate(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	it, err := scanItem(querier.QueryRow(ctx, getItemInListForUpdateSQL, itemID, listID))
	if err != nil {
		return nil, postgres.MapError(err, "list item", itemID)
	}

	return it, nil
}

// Page returns one page of a list's items ordered by row index, plus the
// total item count for the list.
func (r *Repo) Page(ctx context.Context, listID uuid.UUID, limit, offset int) ([]domain.FacilityListItem, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countItemsSQL, listID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count list items: %w", err)
	}

	rows, err := querier.Query(ctx, pageItemsSQL, listID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("page list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("page list items: %w", err)
	}

	return items, total, nil
}

// ListByStatus returns all of a list's items currently in the given status,
// ordered by row index.
func (r *Repo) ListByStatus(ctx context.Context, listID uuid.UUID, status domain.ItemStatus) ([]domain.FacilityListItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listItemsByStatusSQL, listID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list items by status: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("list items by status: %w", err)
	}

	return items, nil
}

// DistinctStatuses returns the distinct set of statuses present across a
// list's items, for list-level progress reporting.
func (r *Repo) DistinctStatuses(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, distinctStatusesSQL, listID)
	if err != nil {
		return nil, fmt.Errorf("distinct item statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.ItemStatus
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan item status: %w", err)
		}
		statuses = append(statuses, domain.ItemStatus(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item statuses: %w", err)
	}

	if statuses == nil {
		statuses = []domain.ItemStatus{}
	}

	return statuses, nil
}

// Update writes the item's mutable fields: status, parsed fields, geocoding
// output, facility link, and the processing-result log. The status/facility-
// link invariant is checked before anything is written.
// Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) Update(ctx context.Context, it *domain.FacilityListItem) error {
	if err := it.ValidateFacilityLink(); err != nil {
		return err
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	results, err := marshalResults(it.ProcessingResults)
	if err != nil {
		return fmt.Errorf("marshal processing results: %w", err)
	}

	lat, lng := pointColumns(it.GeocodedPoint)
	now := time.Now().UTC().Truncate(time.Microsecond)

	tag, err := querier.Exec(ctx, updateItemSQL,
		it.ID, string(it.Status), it.Name, it.Address, it.CountryCode,
		lat, lng, it.GeocodedAddress, it.FacilityID, results, now,
	)
	if err != nil {
		return postgres.MapError(err, "list item", it.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("list item %s: %w", it.ID, domain.ErrNotFound)
	}

	it.UpdatedAt = now
	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanItems(rows pgx.Rows) ([]domain.FacilityListItem, error) {
	var items []domain.FacilityListItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []domain.FacilityListItem{}
	}

	return items, nil
}

func scanItem(row pgx.Row) (*domain.FacilityListItem, error) {
	var (
		it      domain.FacilityListItem
		status  string
		lat     *float64
		lng     *float64
		results []byte
	)

	if err := row.Scan(&it.ID, &it.FacilityListID, &it.RowIndex, &it.RawData, &status,
		&it.Name, &it.Address, &it.CountryCode, &lat, &lng, &it.GeocodedAddress,
		&it.FacilityID, &results, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}

	it.Status = domain.ItemStatus(status)
	if lat != nil && lng != nil {
		it.GeocodedPoint = &domain.Point{Lat: *lat, Lng: *lng}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &it.ProcessingResults); err != nil {
			return nil, fmt.Errorf("unmarshal processing results: %w", err)
		}
	}

	return &it, nil
}

func marshalResults(results []domain.ProcessingResult) ([]byte, error) {
	if results == nil {
		results = []domain.ProcessingResult{}
	}
	return json.Marshal(results)
}

func pointColumns(p *domain.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lng
}
