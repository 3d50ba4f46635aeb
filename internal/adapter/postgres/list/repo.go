// Package list implements the FacilityList repository using PostgreSQL.
package list

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openapparel/facility-registry/internal/adapter/postgres"
	"github.com/openapparel/facility-registry/internal/domain"
)

// Repo provides facility-list persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new facility-list repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const listColumns = `id, contributor_id, name, description, file_name, header, is_active, is_public, replaces_id, created_at, updated_at`

const createListSQL = `
INSERT INTO facility_lists (id, contributor_id, name, description, file_name, header, is_active, is_public, replaces_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const getListSQL = `
SELECT ` + listColumns + `
FROM facility_lists
WHERE id = $1`

const getOwnedListSQL = `
SELECT ` + listColumns + `
FROM facility_lists
WHERE id = $1 AND contributor_id = $2`

const listByContributorSQL = `
SELECT ` + listColumns + `
FROM facility_lists
WHERE contributor_id = $1
ORDER BY created_at DESC`

const hasReplacerSQL = `
SELECT EXISTS (SELECT 1 FROM facility_lists WHERE replaces_id = $1)`

const deactivateListSQL = `
UPDATE facility_lists SET is_active = FALSE, updated_at = $2 WHERE id = $1`

// Create inserts a new facility list.
func (r *Repo) Create(ctx context.Context, l *domain.FacilityList) (*domain.FacilityList, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	created := *l
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := querier.Exec(ctx, createListSQL,
		created.ID, created.ContributorID, created.Name, created.Description, created.FileName,
		created.Header, created.IsActive, created.IsPublic, created.ReplacesID,
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "facility list", created.ID)
	}

	return &created, nil
}

// GetByID returns a list by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FacilityList, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	l, err := scanList(querier.QueryRow(ctx, getListSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "facility list", id)
	}

	return l, nil
}

// GetOwned returns a list by primary key, restricted to the owning
// contributor. A list owned by someone else reads as not found.
func (r *Repo) GetOwned(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	l, err := scanList(querier.QueryRow(ctx, getOwnedListSQL, id, contributorID))
	if err != nil {
		return nil, postgres.MapError(err, "facility list", id)
	}

	return l, nil
}

// ListByContributor returns all lists owned by a contributor, newest first.
func (r *Repo) ListByContributor(ctx context.Context, contributorID uuid.UUID) ([]domain.FacilityList, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByContributorSQL, contributorID)
	if err != nil {
		return nil, fmt.Errorf("list facility lists: %w", err)
	}
	defer rows.Close()

	var lists []domain.FacilityList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan facility list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facility lists: %w", err)
	}

	if lists == nil {
		lists = []domain.FacilityList{}
	}

	return lists, nil
}

// HasReplacer reports whether some list already replaces the given list.
func (r *Repo) HasReplacer(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, hasReplacerSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check list replacer: %w", err)
	}

	return exists, nil
}

// Deactivate clears the is_active flag on a list.
// Returns domain.ErrNotFound if the list does not exist.
func (r *Repo) Deactivate(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deactivateListSQL, id, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return postgres.MapError(err, "facility list", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("facility list %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// scanList scans one facility-list row.
func scanList(row pgx.Row) (*domain.FacilityList, error) {
	var l domain.FacilityList
	if err := row.Scan(&l.ID, &l.ContributorID, &l.Name, &l.Description, &l.FileName,
		&l.Header, &l.IsActive, &l.IsPublic, &l.ReplacesID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
