// Package facility implements the Facility repository using PostgreSQL.
package facility

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openapparel/facility-registry/internal/adapter/postgres"
	"github.com/openapparel/facility-registry/internal/domain"
)

// Repo provides facility persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new facility repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const facilityColumns = `id, name, address, country_code, location_lat, location_lng, created_from_item_id, created_at, updated_at`

const createFacilitySQL = `
INSERT INTO facilities (id, name, address, country_code, location_lat, location_lng, created_from_item_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getFacilitySQL = `
SELECT ` + facilityColumns + `
FROM facilities
WHERE id = $1`

const countFacilitiesSQL = `
SELECT count(*) FROM facilities`

// Derived views aggregate over active matches (AUTOMATIC or CONFIRMED) whose
// source list is active and public, excluding the facility's canonical value.
const otherNamesSQL = `
SELECT DISTINCT i.name
FROM facility_matches m
JOIN facility_list_items i ON i.id = m.facility_list_item_id
JOIN facility_lists l ON l.id = i.facility_list_id
WHERE m.facility_id = $1
  AND m.status IN ('AUTOMATIC', 'CONFIRMED')
  AND l.is_active AND l.is_public
  AND i.name <> '' AND i.name <> $2
ORDER BY i.name`

const otherAddressesSQL = `
SELECT DISTINCT i.address
FROM facility_matches m
JOIN facility_list_items i ON i.id = m.facility_list_item_id
JOIN facility_lists l ON l.id = i.facility_list_id
WHERE m.facility_id = $1
  AND m.status IN ('AUTOMATIC', 'CONFIRMED')
  AND l.is_active AND l.is_public
  AND i.address <> '' AND i.address <> $2
ORDER BY i.address`

const facilityContributorsSQL = `
SELECT DISTINCT l.contributor_id, c.name
FROM facility_matches m
JOIN facility_list_items i ON i.id = m.facility_list_item_id
JOIN facility_lists l ON l.id = i.facility_list_id
JOIN contributors c ON c.id = l.contributor_id
WHERE m.facility_id = $1
  AND m.status IN ('AUTOMATIC', 'CONFIRMED')
  AND l.is_active AND l.is_public
ORDER BY c.name`

// Create inserts a new facility under its pre-minted identifier.
// Returns domain.ErrIDCollision when the identifier is already taken, so the
// allocator can mint a new one and retry. A duplicate created_from_item_id
// maps to domain.ErrAlreadyExists as usual.
func (r *Repo) Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	created := *f
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := querier.Exec(ctx, createFacilitySQL,
		created.ID, created.Name, created.Address, created.CountryCode,
		created.Location.Lat, created.Location.Lng, created.CreatedFromItemID,
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "facilities_pkey" {
			return nil, fmt.Errorf("facility %s: %w", created.ID, domain.ErrIDCollision)
		}
		return nil, postgres.MapError(err, "facility", created.ID)
	}

	return &created, nil
}

// GetByID returns a facility by identifier.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Facility, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	f, err := scanFacility(querier.QueryRow(ctx, getFacilitySQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "facility", id)
	}

	return f, nil
}

// Count returns the total number of facilities in the registry.
func (r *Repo) Count(ctx context.Context) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countFacilitiesSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("count facilities: %w", err)
	}

	return total, nil
}

// Query searches facilities with the given filters and returns one page of
// results plus the total match count.
func (r *Repo) Query(ctx context.Context, q domain.FacilityQuery) ([]domain.Facility, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	where, err := queryConditions(q)
	if err != nil {
		return nil, 0, fmt.Errorf("build facility query: %w", err)
	}

	countSQL, countArgs, err := sq.Select("count(*)").From("facilities f").Where(where).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build facility count: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count facility query: %w", err)
	}

	builder := sq.Select(
		"f.id", "f.name", "f.address", "f.country_code",
		"f.location_lat", "f.location_lng", "f.created_from_item_id",
		"f.created_at", "f.updated_at",
	).
		From("facilities f").
		Where(where).
		OrderBy("f.name", "f.id")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit)).Offset(uint64(q.Offset))
	}

	querySQL, queryArgs, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build facility query: %w", err)
	}

	rows, err := querier.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query facilities: %w", err)
	}
	defer rows.Close()

	var facilities []domain.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan facility: %w", err)
		}
		facilities = append(facilities, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate facilities: %w", err)
	}

	if facilities == nil {
		facilities = []domain.Facility{}
	}

	return facilities, total, nil
}

// queryConditions translates query filters to a WHERE conjunction.
// Contributor filters go through an EXISTS over the facility's active
// matches, so rejected and pending matches never widen search results.
func queryConditions(q domain.FacilityQuery) (sq.And, error) {
	where := sq.And{}

	if q.Name != "" {
		where = append(where, sq.ILike{"f.name": "%" + q.Name + "%"})
	}
	if len(q.Countries) > 0 {
		where = append(where, sq.Eq{"f.country_code": q.Countries})
	}

	if len(q.Contributors) > 0 || len(q.ContributorTypes) > 0 {
		sub := sq.Select("1").
			From("facility_matches m").
			Join("facility_list_items i ON i.id = m.facility_list_item_id").
			Join("facility_lists l ON l.id = i.facility_list_id").
			Where("m.facility_id = f.id").
			Where(sq.Eq{"m.status": []string{
				string(domain.MatchStatusAutomatic),
				string(domain.MatchStatusConfirmed),
			}}).
			Where("l.is_active")

		if len(q.Contributors) > 0 {
			sub = sub.Where(sq.Eq{"l.contributor_id": q.Contributors})
		}
		if len(q.ContributorTypes) > 0 {
			types := make([]string, len(q.ContributorTypes))
			for i, t := range q.ContributorTypes {
				types[i] = string(t)
			}
			sub = sub.Join("contributors c ON c.id = l.contributor_id").
				Where(sq.Eq{"c.contrib_type": types})
		}

		// Built with ? placeholders; the outer builder renumbers them
		// when it renders with the dollar format.
		subSQL, subArgs, err := sub.ToSql()
		if err != nil {
			return nil, err
		}
		where = append(where, sq.Expr("EXISTS ("+subSQL+")", subArgs...))
	}

	if len(where) == 0 {
		where = append(where, sq.Expr("TRUE"))
	}

	return where, nil
}

// OtherNames returns distinct alternate names contributed by items matched to
// the facility, excluding the canonical name.
func (r *Repo) OtherNames(ctx context.Context, facilityID, canonicalName string) ([]string, error) {
	return r.stringView(ctx, otherNamesSQL, facilityID, canonicalName)
}

// OtherAddresses returns distinct alternate addresses contributed by items
// matched to the facility, excluding the canonical address.
func (r *Repo) OtherAddresses(ctx context.Context, facilityID, canonicalAddress string) ([]string, error) {
	return r.stringView(ctx, otherAddressesSQL, facilityID, canonicalAddress)
}

// Contributors returns the distinct organizations whose active public lists
// contributed a match to the facility.
func (r *Repo) Contributors(ctx context.Context, facilityID string) ([]domain.FacilityContributor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, facilityContributorsSQL, facilityID)
	if err != nil {
		return nil, fmt.Errorf("facility contributors: %w", err)
	}
	defer rows.Close()

	var contributors []domain.FacilityContributor
	for rows.Next() {
		var fc domain.FacilityContributor
		if err := rows.Scan(&fc.ContributorID, &fc.Label); err != nil {
			return nil, fmt.Errorf("scan facility contributor: %w", err)
		}
		contributors = append(contributors, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facility contributors: %w", err)
	}

	if contributors == nil {
		contributors = []domain.FacilityContributor{}
	}

	return contributors, nil
}

func (r *Repo) stringView(ctx context.Context, query, facilityID, canonical string) ([]string, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, facilityID, canonical)
	if err != nil {
		return nil, fmt.Errorf("facility view: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan facility view: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facility view: %w", err)
	}

	if values == nil {
		values = []string{}
	}

	return values, nil
}

// scanFacility scans one facility row.
func scanFacility(row pgx.Row) (*domain.Facility, error) {
	var f domain.Facility
	if err := row.Scan(&f.ID, &f.Name, &f.Address, &f.CountryCode,
		&f.Location.Lat, &f.Location.Lng, &f.CreatedFromItemID,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
