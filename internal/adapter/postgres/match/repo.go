// Package match implements the FacilityMatch repository using PostgreSQL.
package match

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

// Repo provides facility-match persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new facility-match repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const matchColumns = `id, facility_list_item_id, facility_id, results, confidence, status, created_at, updated_at`

const createMatchSQL = `
INSERT INTO facility_matches (id, facility_list_item_id, facility_id, results, confidence, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getMatchForItemSQL = `
SELECT ` + matchColumns + `
FROM facility_matches
WHERE id = $1 AND facility_list_item_id = $2`

const listMatchesForItemSQL = `
SELECT ` + matchColumns + `
FROM facility_matches
WHERE facility_list_item_id = $1
ORDER BY confidence DESC, created_at`

const updateMatchStatusSQL = `
UPDATE facility_matches SET status = $2, updated_at = $3 WHERE id = $1`

const rejectOthersSQL = `
UPDATE facility_matches
SET status = 'REJECTED', updated_at = $3
WHERE facility_list_item_id = $1 AND id <> $2 AND status = 'PENDING'`

const countPendingSQL = `
SELECT count(*) FROM facility_matches WHERE facility_list_item_id = $1 AND status = 'PENDING'`

// Create inserts a new match. A unique-index violation on the one-active-match
// index maps to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, m *domain.FacilityMatch) (*domain.FacilityMatch, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	created := *m
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	results, err := marshalResults(created.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal match results: %w", err)
	}

	_, err = querier.Exec(ctx, createMatchSQL,
		created.ID, created.ItemID, created.FacilityID, results,
		created.Confidence, string(created.Status), created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "facility match", created.ID)
	}

	return &created, nil
}

// GetForItem returns a match by primary key, restricted to the given item.
func (r *Repo) GetForItem(ctx context.Context, itemID, matchID uuid.UUID) (*domain.FacilityMatch, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	m, err := scanMatch(querier.QueryRow(ctx, getMatchForItemSQL, matchID, itemID))
	if err != nil {
		return nil, postgres.MapError(err, "facility match", matchID)
	}

	return m, nil
}

// ListForItem returns all matches recorded for an item, highest confidence
// first.
func (r *Repo) ListForItem(ctx context.Context, itemID uuid.UUID) ([]domain.FacilityMatch, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listMatchesForItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.FacilityMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	if matches == nil {
		matches = []domain.FacilityMatch{}
	}

	return matches, nil
}

// UpdateStatus moves a match to the given status. Promoting a second match of
// the same item to AUTOMATIC or CONFIRMED violates the one-active-match index
// and maps to domain.ErrAlreadyExists.
func (r *Repo) UpdateStatus(ctx context.Context, matchID uuid.UUID, status domain.MatchStatus) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, updateMatchStatusSQL, matchID, string(status), time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return postgres.MapError(err, "facility match", matchID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("facility match %s: %w", matchID, domain.ErrNotFound)
	}

	return nil
}

// RejectOthers rejects every remaining pending match of the item except the
// given one, and returns how many were rejected.
func (r *Repo) RejectOthers(ctx context.Context, itemID, exceptMatchID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, rejectOthersSQL, itemID, exceptMatchID, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return 0, fmt.Errorf("reject other matches: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// CountPending returns the number of matches of the item still pending
// adjudication.
func (r *Repo) CountPending(ctx context.Context, itemID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	if err := querier.QueryRow(ctx, countPendingSQL, itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending matches: %w", err)
	}

	return n, nil
}

// scanMatch scans one facility-match row.
func scanMatch(row pgx.Row) (*domain.FacilityMatch, error) {
	var (
		m       domain.FacilityMatch
		status  string
		results []byte
	)
	if err := row.Scan(&m.ID, &m.ItemID, &m.FacilityID, &results,
		&m.Confidence, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}

	m.Status = domain.MatchStatus(status)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &m.Results); err != nil {
			return nil, fmt.Errorf("unmarshal match results: %w", err)
		}
	}

	return &m, nil
}

func marshalResults(results map[string]any) ([]byte, error) {
	if results == nil {
		results = map[string]any{}
	}
	return json.Marshal(results)
}
