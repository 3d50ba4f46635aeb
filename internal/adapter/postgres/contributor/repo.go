// Package contributor implements the Contributor repository using PostgreSQL.
package contributor

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

// Repo provides contributor persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contributor repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const contributorColumns = `id, admin_id, name, description, website, contrib_type, other_contrib_type, created_at, updated_at`

const getContributorSQL = `
SELECT ` + contributorColumns + `
FROM contributors
WHERE id = $1`

const getContributorByAdminSQL = `
SELECT ` + contributorColumns + `
FROM contributors
WHERE admin_id = $1`

const createContributorSQL = `
INSERT INTO contributors (id, admin_id, name, description, website, contrib_type, other_contrib_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Contributors with at least one active, public list, for the public
// contributor index.
const listPublicContributorsSQL = `
SELECT DISTINCT c.id, c.admin_id, c.name, c.description, c.website, c.contrib_type, c.other_contrib_type, c.created_at, c.updated_at
FROM contributors c
JOIN facility_lists l ON l.contributor_id = c.id
WHERE l.is_active AND l.is_public
ORDER BY c.name`

// GetByID returns a contributor by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contributor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanContributor(querier.QueryRow(ctx, getContributorSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "contributor", id)
	}

	return c, nil
}

// GetByAdminID returns the contributor administered by the given account.
func (r *Repo) GetByAdminID(ctx context.Context, adminID uuid.UUID) (*domain.Contributor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanContributor(querier.QueryRow(ctx, getContributorByAdminSQL, adminID))
	if err != nil {
		return nil, postgres.MapError(err, "contributor admin", adminID)
	}

	return c, nil
}

// Create inserts a new contributor.
func (r *Repo) Create(ctx context.Context, c *domain.Contributor) (*domain.Contributor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	created := *c
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := querier.Exec(ctx, createContributorSQL,
		created.ID, created.AdminID, created.Name, created.Description, created.Website,
		string(created.ContribType), created.OtherContribType, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "contributor", created.ID)
	}

	return &created, nil
}

// ListPublic returns distinct contributors that own at least one active,
// public list, ordered by name.
func (r *Repo) ListPublic(ctx context.Context) ([]domain.Contributor, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPublicContributorsSQL)
	if err != nil {
		return nil, fmt.Errorf("list public contributors: %w", err)
	}
	defer rows.Close()

	var contributors []domain.Contributor
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contributor: %w", err)
		}
		contributors = append(contributors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributors: %w", err)
	}

	if contributors == nil {
		contributors = []domain.Contributor{}
	}

	return contributors, nil
}

// scanContributor scans one contributor row.
func scanContributor(row pgx.Row) (*domain.Contributor, error) {
	var (
		c           domain.Contributor
		contribType string
	)
	if err := row.Scan(&c.ID, &c.AdminID, &c.Name, &c.Description, &c.Website,
		&contribType, &c.OtherContribType, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ContribType = domain.ContributorType(contribType)
	return &c, nil
}
