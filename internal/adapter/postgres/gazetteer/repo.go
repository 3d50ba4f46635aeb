// Package gazetteer scores list items against existing facilities using
// name and country comparisons in PostgreSQL.
package gazetteer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openapparel/facility-registry/internal/adapter/postgres"
	"github.com/openapparel/facility-registry/internal/domain"
)

// Repo scores match candidates against the facilities table.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new gazetteer repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const maxCandidates = 5

// Confidence tiers. Exact name and address in the same country is a sure
// match; exact name alone clears the automatic threshold; a partial name
// overlap only ever surfaces for adjudication.
const (
	confidenceExact   = 1.0
	confidenceName    = 0.9
	confidencePartial = 0.6
)

const scoreCandidatesSQL = `
SELECT f.id, f.name, f.address,
       CASE
           WHEN lower(f.name) = lower($2) AND lower(f.address) = lower($3) THEN $4::float8
           WHEN lower(f.name) = lower($2) THEN $5::float8
           ELSE $6::float8
       END AS confidence
FROM facilities f
WHERE f.country_code = $1
  AND (lower(f.name) = lower($2)
       OR f.name ILIKE '%' || $2 || '%'
       OR $2 ILIKE '%' || f.name || '%')
ORDER BY confidence DESC, f.id
LIMIT $7`

// ScoreCandidates returns existing facilities in the item's country whose
// name matches the item's, exactly or partially, highest confidence first.
func (r *Repo) ScoreCandidates(ctx context.Context, item *domain.FacilityListItem) ([]domain.MatchCandidate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, scoreCandidatesSQL,
		item.CountryCode, item.Name, item.Address,
		confidenceExact, confidenceName, confidencePartial,
		maxCandidates,
	)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.MatchCandidate
	for rows.Next() {
		var (
			id, name, address string
			confidence        float64
		)
		if err := rows.Scan(&id, &name, &address, &confidence); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, domain.MatchCandidate{
			FacilityID: id,
			Confidence: confidence,
			Results: map[string]any{
				"match_type":       matchType(confidence),
				"facility_name":    name,
				"facility_address": address,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	if candidates == nil {
		candidates = []domain.MatchCandidate{}
	}

	return candidates, nil
}

func matchType(confidence float64) string {
	switch confidence {
	case confidenceExact:
		return "exact_name_and_address"
	case confidenceName:
		return "exact_name"
	default:
		return "partial_name"
	}
}
