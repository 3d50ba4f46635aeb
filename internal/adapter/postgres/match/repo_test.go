package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openapparel/facility-registry/internal/adapter/postgres/match"
	"github.com/openapparel/facility-registry/internal/adapter/postgres/testhelper"
	"github.com/openapparel/facility-registry/internal/domain"
)

func newRepo(t *testing.T) (*match.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return match.New(pool), pool
}

// seedScenario creates a list with one potential-match item and one facility.
func seedScenario(t *testing.T, pool *pgxpool.Pool) (domain.FacilityListItem, domain.Facility) {
	t.Helper()
	owner := testhelper.SeedContributor(t, pool)
	l := testhelper.SeedList(t, pool, owner.ID)
	it := testhelper.SeedItem(t, pool, l.ID, 0, domain.ItemStatusPotentialMatch)
	seed := testhelper.SeedItem(t, pool, l.ID, 1, domain.ItemStatusGeocoded)
	fac := testhelper.SeedFacility(t, pool, seed)
	return it, fac
}

func TestRepo_Create_AndGetForItem(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)

	created, err := repo.Create(ctx, &domain.FacilityMatch{
		ItemID:     it.ID,
		FacilityID: fac.ID,
		Confidence: 0.72,
		Status:     domain.MatchStatusPending,
		Results:    map[string]any{"match_type": "single_gazetteer_match"},
	})
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	got, err := repo.GetForItem(ctx, it.ID, created.ID)
	if err != nil {
		t.Fatalf("GetForItem: unexpected error: %v", err)
	}
	if got.FacilityID != fac.ID {
		t.Errorf("FacilityID mismatch: got %s, want %s", got.FacilityID, fac.ID)
	}
	if got.Confidence != 0.72 {
		t.Errorf("Confidence mismatch: got %f", got.Confidence)
	}
	if got.Results["match_type"] != "single_gazetteer_match" {
		t.Errorf("Results mismatch: got %v", got.Results)
	}

	// A match looked up under a different item reads as not found.
	_, err = repo.GetForItem(ctx, uuid.New(), created.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong item, got: %v", err)
	}
}

func TestRepo_Create_SecondActiveMatch(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)
	testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusConfirmed, 1.0)

	// The one-active-match index refuses a second AUTOMATIC or CONFIRMED
	// match for the same item.
	_, err := repo.Create(ctx, &domain.FacilityMatch{
		ItemID:     it.ID,
		FacilityID: fac.ID,
		Confidence: 0.9,
		Status:     domain.MatchStatusAutomatic,
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}

	// A pending match is still allowed.
	_, err = repo.Create(ctx, &domain.FacilityMatch{
		ItemID:     it.ID,
		FacilityID: fac.ID,
		Confidence: 0.5,
		Status:     domain.MatchStatusPending,
	})
	if err != nil {
		t.Fatalf("Create pending: unexpected error: %v", err)
	}
}

func TestRepo_ListForItem_OrderedByConfidence(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)
	testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.55)
	high := testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.91)

	got, err := repo.ListForItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("ListForItem: unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != high.ID {
		t.Errorf("expected highest-confidence match first, got %s", got[0].ID)
	}
}

func TestRepo_UpdateStatus(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)
	m := testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.7)

	if err := repo.UpdateStatus(ctx, m.ID, domain.MatchStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: unexpected error: %v", err)
	}

	got, err := repo.GetForItem(ctx, it.ID, m.ID)
	if err != nil {
		t.Fatalf("GetForItem: unexpected error: %v", err)
	}
	if got.Status != domain.MatchStatusConfirmed {
		t.Errorf("Status mismatch: got %s", got.Status)
	}

	err = repo.UpdateStatus(ctx, uuid.New(), domain.MatchStatusRejected)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_UpdateStatus_SecondActiveMatch(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)
	testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusConfirmed, 1.0)
	pending := testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.6)

	err := repo.UpdateStatus(ctx, pending.ID, domain.MatchStatusConfirmed)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists promoting second match, got: %v", err)
	}
}

func TestRepo_RejectOthers_AndCountPending(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it, fac := seedScenario(t, pool)
	keep := testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.8)
	testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.6)
	testhelper.SeedMatch(t, pool, it.ID, fac.ID, domain.MatchStatusPending, 0.5)

	n, err := repo.CountPending(ctx, it.ID)
	if err != nil {
		t.Fatalf("CountPending: unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pending matches, got %d", n)
	}

	rejected, err := repo.RejectOthers(ctx, it.ID, keep.ID)
	if err != nil {
		t.Fatalf("RejectOthers: unexpected error: %v", err)
	}
	if rejected != 2 {
		t.Errorf("expected 2 rejected, got %d", rejected)
	}

	n, err = repo.CountPending(ctx, it.ID)
	if err != nil {
		t.Fatalf("CountPending[2]: unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pending match left, got %d", n)
	}

	got, err := repo.GetForItem(ctx, it.ID, keep.ID)
	if err != nil {
		t.Fatalf("GetForItem: unexpected error: %v", err)
	}
	if got.Status != domain.MatchStatusPending {
		t.Errorf("kept match status mismatch: got %s", got.Status)
	}
}
