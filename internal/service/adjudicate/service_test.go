package adjudicate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openapparel/facility-registry/internal/config"
	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockListRepo struct {
	GetOwnedFunc func(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error)
}

func (m *mockListRepo) GetOwned(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
	if m.GetOwnedFunc != nil {
		return m.GetOwnedFunc(ctx, contributorID, id)
	}
	return &domain.FacilityList{ID: id, ContributorID: contributorID, IsActive: true}, nil
}

type mockItemRepo struct {
	GetInListForUpdateFunc func(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error)
	UpdateFunc             func(ctx context.Context, it *domain.FacilityListItem) error
	DistinctStatusesFunc   func(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error)

	updated *domain.FacilityListItem
}

func (m *mockItemRepo) GetInListForUpdate(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
	if m.GetInListForUpdateFunc != nil {
		return m.GetInListForUpdateFunc(ctx, listID, itemID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockItemRepo) Update(ctx context.Context, it *domain.FacilityListItem) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, it)
	}
	clone := *it
	m.updated = &clone
	return nil
}

func (m *mockItemRepo) DistinctStatuses(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error) {
	if m.DistinctStatusesFunc != nil {
		return m.DistinctStatusesFunc(ctx, listID)
	}
	return []domain.ItemStatus{domain.ItemStatusConfirmedMatch}, nil
}

type mockMatchRepo struct {
	GetForItemFunc   func(ctx context.Context, itemID, matchID uuid.UUID) (*domain.FacilityMatch, error)
	CreateFunc       func(ctx context.Context, mm *domain.FacilityMatch) (*domain.FacilityMatch, error)
	UpdateStatusFunc func(ctx context.Context, matchID uuid.UUID, status domain.MatchStatus) error
	RejectOthersFunc func(ctx context.Context, itemID, exceptMatchID uuid.UUID) (int, error)
	CountPendingFunc func(ctx context.Context, itemID uuid.UUID) (int, error)

	statusUpdates map[uuid.UUID]domain.MatchStatus
	created       *domain.FacilityMatch
}

func (m *mockMatchRepo) GetForItem(ctx context.Context, itemID, matchID uuid.UUID) (*domain.FacilityMatch, error) {
	if m.GetForItemFunc != nil {
		return m.GetForItemFunc(ctx, itemID, matchID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMatchRepo) Create(ctx context.Context, mm *domain.FacilityMatch) (*domain.FacilityMatch, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mm)
	}
	clone := *mm
	clone.ID = uuid.New()
	m.created = &clone
	return &clone, nil
}

func (m *mockMatchRepo) UpdateStatus(ctx context.Context, matchID uuid.UUID, status domain.MatchStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, matchID, status)
	}
	if m.statusUpdates == nil {
		m.statusUpdates = map[uuid.UUID]domain.MatchStatus{}
	}
	m.statusUpdates[matchID] = status
	return nil
}

func (m *mockMatchRepo) RejectOthers(ctx context.Context, itemID, exceptMatchID uuid.UUID) (int, error) {
	if m.RejectOthersFunc != nil {
		return m.RejectOthersFunc(ctx, itemID, exceptMatchID)
	}
	return 0, nil
}

func (m *mockMatchRepo) CountPending(ctx context.Context, itemID uuid.UUID) (int, error) {
	if m.CountPendingFunc != nil {
		return m.CountPendingFunc(ctx, itemID)
	}
	return 0, nil
}

type mockFacilityRepo struct {
	CreateFunc func(ctx context.Context, f *domain.Facility) (*domain.Facility, error)

	created *domain.Facility
}

func (m *mockFacilityRepo) Create(ctx context.Context, f *domain.Facility) (*domain.Facility, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, f)
	}
	clone := *f
	m.created = &clone
	return &clone, nil
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ===========================================================================
// Fixtures
// ===========================================================================

type fixture struct {
	svc        *Service
	lists      *mockListRepo
	items      *mockItemRepo
	matches    *mockMatchRepo
	facilities *mockFacilityRepo

	ctx           context.Context
	contributorID uuid.UUID
	listID        uuid.UUID
	item          *domain.FacilityListItem
	match         *domain.FacilityMatch
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		lists:         &mockListRepo{},
		items:         &mockItemRepo{},
		matches:       &mockMatchRepo{},
		facilities:    &mockFacilityRepo{},
		contributorID: uuid.New(),
		listID:        uuid.New(),
	}

	point := domain.Point{Lat: 23.78, Lng: 90.41}
	f.item = &domain.FacilityListItem{
		ID:             uuid.New(),
		FacilityListID: f.listID,
		RowIndex:       0,
		Status:         domain.ItemStatusPotentialMatch,
		Name:           "Dhaka Garments Ltd",
		Address:        "12 Export Zone Rd",
		CountryCode:    "BD",
		GeocodedPoint:  &point,
	}
	f.match = &domain.FacilityMatch{
		ID:         uuid.New(),
		ItemID:     f.item.ID,
		FacilityID: "BD2026120ABC123",
		Confidence: 0.74,
		Status:     domain.MatchStatusPending,
	}

	f.items.GetInListForUpdateFunc = func(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
		if listID == f.listID && itemID == f.item.ID {
			clone := *f.item
			return &clone, nil
		}
		return nil, domain.ErrNotFound
	}
	f.matches.GetForItemFunc = func(ctx context.Context, itemID, matchID uuid.UUID) (*domain.FacilityMatch, error) {
		if itemID == f.item.ID && matchID == f.match.ID {
			clone := *f.match
			return &clone, nil
		}
		return nil, domain.ErrNotFound
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(logger, f.lists, f.items, f.matches, f.facilities, &mockTxManager{},
		nil, config.RegistryConfig{IDAllocationRetries: 5})

	f.ctx = ctxutil.WithContributorID(context.Background(), f.contributorID)
	return f
}

func (f *fixture) confirmInput() ConfirmInput {
	return ConfirmInput{ListID: f.listID, ItemID: f.item.ID, MatchID: f.match.ID}
}

func (f *fixture) rejectInput() RejectInput {
	return RejectInput{ListID: f.listID, ItemID: f.item.ID, MatchID: f.match.ID}
}

// ===========================================================================
// ConfirmMatch
// ===========================================================================

func TestConfirmMatch_Success(t *testing.T) {
	f := newFixture(t)

	var rejectedOthersFor uuid.UUID
	f.matches.RejectOthersFunc = func(ctx context.Context, itemID, exceptMatchID uuid.UUID) (int, error) {
		rejectedOthersFor = itemID
		assert.Equal(t, f.match.ID, exceptMatchID)
		return 2, nil
	}

	result, err := f.svc.ConfirmMatch(f.ctx, f.confirmInput())
	require.NoError(t, err)

	assert.Equal(t, domain.ItemStatusConfirmedMatch, result.Item.Status)
	require.NotNil(t, result.Item.FacilityID)
	assert.Equal(t, f.match.FacilityID, *result.Item.FacilityID)
	assert.Equal(t, domain.MatchStatusConfirmed, result.Match.Status)
	assert.Equal(t, f.item.ID, rejectedOthersFor)
	assert.Equal(t, domain.MatchStatusConfirmed, f.matches.statusUpdates[f.match.ID])

	require.NotNil(t, f.items.updated)
	assert.Equal(t, domain.ItemStatusConfirmedMatch, f.items.updated.Status)
}

func TestConfirmMatch_NoContributor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmMatch(context.Background(), f.confirmInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirmMatch_ItemNotPotentialMatch(t *testing.T) {
	f := newFixture(t)
	f.item.Status = domain.ItemStatusMatched

	_, err := f.svc.ConfirmMatch(f.ctx, f.confirmInput())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, f.items.updated, "item must not be written on precondition failure")
}

func TestConfirmMatch_MatchNotPending(t *testing.T) {
	f := newFixture(t)
	f.match.Status = domain.MatchStatusRejected

	_, err := f.svc.ConfirmMatch(f.ctx, f.confirmInput())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConfirmMatch_ForeignList(t *testing.T) {
	f := newFixture(t)
	f.lists.GetOwnedFunc = func(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
		return nil, domain.ErrNotFound
	}

	_, err := f.svc.ConfirmMatch(f.ctx, f.confirmInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmMatch_UnknownMatch(t *testing.T) {
	f := newFixture(t)

	input := f.confirmInput()
	input.MatchID = uuid.New()

	_, err := f.svc.ConfirmMatch(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ===========================================================================
// RejectMatch
// ===========================================================================

func TestRejectMatch_OtherPendingRemain(t *testing.T) {
	f := newFixture(t)
	f.matches.CountPendingFunc = func(ctx context.Context, itemID uuid.UUID) (int, error) {
		return 1, nil
	}
	f.items.DistinctStatusesFunc = func(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error) {
		return []domain.ItemStatus{domain.ItemStatusPotentialMatch}, nil
	}

	result, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	require.NoError(t, err)

	assert.Equal(t, domain.ItemStatusPotentialMatch, result.Item.Status)
	assert.Equal(t, domain.MatchStatusRejected, result.Match.Status)
	assert.Nil(t, result.Item.FacilityID)
	assert.Nil(t, f.facilities.created, "no facility while pending matches remain")
	assert.Nil(t, f.items.updated, "item untouched while pending matches remain")
}

func TestRejectMatch_LastPending_CreatesFacility(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	require.NoError(t, err)

	require.NotNil(t, f.facilities.created)
	created := f.facilities.created
	assert.Equal(t, f.item.Name, created.Name)
	assert.Equal(t, f.item.Address, created.Address)
	assert.Equal(t, f.item.CountryCode, created.CountryCode)
	assert.Equal(t, *f.item.GeocodedPoint, created.Location)
	assert.Equal(t, f.item.ID, created.CreatedFromItemID)
	assert.True(t, domain.IsValidFacilityID(created.ID), "minted id %q", created.ID)

	require.NotNil(t, f.matches.created)
	assert.Equal(t, domain.MatchStatusConfirmed, f.matches.created.Status)
	assert.Equal(t, 1.0, f.matches.created.Confidence)
	assert.Equal(t, "all_potential_matches_rejected", f.matches.created.Results["match_type"])
	assert.Equal(t, created.ID, f.matches.created.FacilityID)

	assert.Equal(t, domain.ItemStatusConfirmedMatch, result.Item.Status)
	require.NotNil(t, result.Item.FacilityID)
	assert.Equal(t, created.ID, *result.Item.FacilityID)
}

func TestRejectMatch_LastPending_NoLocation(t *testing.T) {
	f := newFixture(t)
	f.item.GeocodedPoint = nil

	result, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	require.NoError(t, err)

	assert.Equal(t, domain.ItemStatusErrorMatching, result.Item.Status)
	assert.Nil(t, result.Item.FacilityID)
	assert.Nil(t, f.facilities.created)

	require.Len(t, result.Item.ProcessingResults, 1)
	pr := result.Item.ProcessingResults[0]
	assert.Equal(t, domain.ActionConfirm, pr.Action)
	assert.True(t, pr.IsError)
	assert.Equal(t, noLocationMessage, pr.Message)
}

func TestRejectMatch_IDCollisionRetries(t *testing.T) {
	f := newFixture(t)

	var attempts int
	var ids []string
	f.facilities.CreateFunc = func(ctx context.Context, fac *domain.Facility) (*domain.Facility, error) {
		attempts++
		ids = append(ids, fac.ID)
		if attempts < 3 {
			return nil, domain.ErrIDCollision
		}
		clone := *fac
		return &clone, nil
	}

	result, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.NotEqual(t, ids[0], ids[1], "each attempt mints a fresh id")
	assert.Equal(t, domain.ItemStatusConfirmedMatch, result.Item.Status)
}

func TestRejectMatch_IDCollisionExhausted(t *testing.T) {
	f := newFixture(t)
	f.facilities.CreateFunc = func(ctx context.Context, fac *domain.Facility) (*domain.Facility, error) {
		return nil, domain.ErrIDCollision
	}

	_, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIDCollision)
}

func TestRejectMatch_MatchNotPending(t *testing.T) {
	f := newFixture(t)
	f.match.Status = domain.MatchStatusConfirmed

	_, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.matches.statusUpdates, 0)
}

func TestRejectMatch_ItemNotPotentialMatch(t *testing.T) {
	f := newFixture(t)
	f.item.Status = domain.ItemStatusConfirmedMatch

	_, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRejectMatch_PropagatesCountError(t *testing.T) {
	f := newFixture(t)
	countErr := errors.New("boom")
	f.matches.CountPendingFunc = func(ctx context.Context, itemID uuid.UUID) (int, error) {
		return 0, countErr
	}

	_, err := f.svc.RejectMatch(f.ctx, f.rejectInput())
	assert.ErrorIs(t, err, countErr)
}
