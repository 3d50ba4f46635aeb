package ingest

import (
	"context"
	"io"
	"log/slog"
	"strings"
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
	CreateFunc            func(ctx context.Context, l *domain.FacilityList) (*domain.FacilityList, error)
	GetOwnedFunc          func(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error)
	ListByContributorFunc func(ctx context.Context, contributorID uuid.UUID) ([]domain.FacilityList, error)
	HasReplacerFunc       func(ctx context.Context, id uuid.UUID) (bool, error)
	DeactivateFunc        func(ctx context.Context, id uuid.UUID) error

	created     *domain.FacilityList
	deactivated []uuid.UUID
}

func (m *mockListRepo) Create(ctx context.Context, l *domain.FacilityList) (*domain.FacilityList, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, l)
	}
	clone := *l
	clone.ID = uuid.New()
	m.created = &clone
	return &clone, nil
}

func (m *mockListRepo) GetOwned(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
	if m.GetOwnedFunc != nil {
		return m.GetOwnedFunc(ctx, contributorID, id)
	}
	return &domain.FacilityList{ID: id, ContributorID: contributorID, IsActive: true}, nil
}

func (m *mockListRepo) ListByContributor(ctx context.Context, contributorID uuid.UUID) ([]domain.FacilityList, error) {
	if m.ListByContributorFunc != nil {
		return m.ListByContributorFunc(ctx, contributorID)
	}
	return []domain.FacilityList{}, nil
}

func (m *mockListRepo) HasReplacer(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.HasReplacerFunc != nil {
		return m.HasReplacerFunc(ctx, id)
	}
	return false, nil
}

func (m *mockListRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockItemRepo struct {
	BulkCreateFunc       func(ctx context.Context, items []domain.FacilityListItem) error
	GetInListFunc        func(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error)
	PageFunc             func(ctx context.Context, listID uuid.UUID, limit, offset int) ([]domain.FacilityListItem, int, error)
	DistinctStatusesFunc func(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error)

	bulkCreated []domain.FacilityListItem
}

func (m *mockItemRepo) BulkCreate(ctx context.Context, items []domain.FacilityListItem) error {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, items)
	}
	m.bulkCreated = items
	return nil
}

func (m *mockItemRepo) GetInList(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
	if m.GetInListFunc != nil {
		return m.GetInListFunc(ctx, listID, itemID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockItemRepo) Page(ctx context.Context, listID uuid.UUID, limit, offset int) ([]domain.FacilityListItem, int, error) {
	if m.PageFunc != nil {
		return m.PageFunc(ctx, listID, limit, offset)
	}
	return []domain.FacilityListItem{}, 0, nil
}

func (m *mockItemRepo) DistinctStatuses(ctx context.Context, listID uuid.UUID) ([]domain.ItemStatus, error) {
	if m.DistinctStatusesFunc != nil {
		return m.DistinctStatusesFunc(ctx, listID)
	}
	return []domain.ItemStatus{domain.ItemStatusUploaded}, nil
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockProcessor struct {
	submitted []uuid.UUID
}

func (m *mockProcessor) Submit(listID uuid.UUID) {
	m.submitted = append(m.submitted, listID)
}

// ===========================================================================
// Fixtures
// ===========================================================================

type fixture struct {
	svc       *Service
	lists     *mockListRepo
	items     *mockItemRepo
	processor *mockProcessor

	ctx           context.Context
	contributorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		lists:         &mockListRepo{},
		items:         &mockItemRepo{},
		processor:     &mockProcessor{},
		contributorID: uuid.New(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(logger, f.lists, f.items, &mockTxManager{}, f.processor, nil,
		config.UploadConfig{MaxFileSizeBytes: 1024, MaxRowsPerList: 10},
		config.RegistryConfig{DefaultPageSize: 20, MaxPageSize: 100},
	)
	f.ctx = ctxutil.WithContributorID(context.Background(), f.contributorID)
	return f
}

func validUpload() UploadInput {
	return UploadInput{
		Name:     "Spring Suppliers",
		FileName: "spring.csv",
		File: []byte("country,name,address\n" +
			"BD,Dhaka Garments Ltd,12 Export Zone Rd\n" +
			"CN,Shenzhen Textiles,88 Harbor St\n"),
	}
}

// ===========================================================================
// UploadList
// ===========================================================================

func TestUploadList_Success(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.UploadList(f.ctx, validUpload())
	require.NoError(t, err)

	assert.Equal(t, f.contributorID, list.ContributorID)
	assert.Equal(t, "country,name,address", list.Header)
	assert.True(t, list.IsActive)
	assert.True(t, list.IsPublic)

	require.Len(t, f.items.bulkCreated, 2)
	first := f.items.bulkCreated[0]
	assert.Equal(t, 0, first.RowIndex)
	assert.Equal(t, domain.ItemStatusUploaded, first.Status)
	assert.Equal(t, "BD,Dhaka Garments Ltd,12 Export Zone Rd", first.RawData)
	assert.Equal(t, 1, f.items.bulkCreated[1].RowIndex)

	require.Len(t, f.processor.submitted, 1)
	assert.Equal(t, list.ID, f.processor.submitted[0])
}

func TestUploadList_NoContributor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UploadList(context.Background(), validUpload())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.processor.submitted)
}

func TestUploadList_HeaderValidation(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"missing address", "country,name\nBD,Dhaka Garments\n"},
		{"missing all", "foo,bar\n1,2\n"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			input := validUpload()
			input.File = []byte(tt.file)

			_, err := f.svc.UploadList(f.ctx, input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, f.processor.submitted)
		})
	}
}

func TestUploadList_HeaderCaseAndSpacing(t *testing.T) {
	f := newFixture(t)
	input := validUpload()
	input.File = []byte("Country, Name ,ADDRESS,sector\nBD,Dhaka Garments,12 Export Zone Rd,apparel\n")

	list, err := f.svc.UploadList(f.ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "country,name,address,sector", list.Header)
}

func TestUploadList_InputValidation(t *testing.T) {
	f := newFixture(t)

	input := validUpload()
	input.Name = "  "
	input.FileName = "suppliers.xlsx"

	_, err := f.svc.UploadList(f.ctx, input)
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestUploadList_FileTooLarge(t *testing.T) {
	f := newFixture(t)

	input := validUpload()
	input.File = []byte("country,name,address\n" + strings.Repeat("BD,a,b\n", 200))

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadList_TooManyRows(t *testing.T) {
	f := newFixture(t)
	f.svc.uploadCfg.MaxFileSizeBytes = 1 << 20
	f.svc.uploadCfg.MaxRowsPerList = 3

	input := validUpload()
	input.File = []byte("country,name,address\n" + strings.Repeat("BD,a,b\n", 4))

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadList_NoDataRows(t *testing.T) {
	f := newFixture(t)

	input := validUpload()
	input.File = []byte("country,name,address\n\n  , , \n")

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadList_InvalidUTF8Row(t *testing.T) {
	f := newFixture(t)

	input := validUpload()
	input.File = []byte("country,name,address\nBD,Dhaka \xff\xfe Garments,12 Export Zone Rd\n")

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, f.lists.created, "rejected upload must not create a list")
}

func TestUploadList_Replaces(t *testing.T) {
	f := newFixture(t)
	replacedID := uuid.New()

	input := validUpload()
	input.ReplacesID = &replacedID

	list, err := f.svc.UploadList(f.ctx, input)
	require.NoError(t, err)

	require.NotNil(t, list.ReplacesID)
	assert.Equal(t, replacedID, *list.ReplacesID)
	require.Len(t, f.lists.deactivated, 1)
	assert.Equal(t, replacedID, f.lists.deactivated[0])
}

func TestUploadList_ReplacesAlreadyReplaced(t *testing.T) {
	f := newFixture(t)
	replacedID := uuid.New()
	f.lists.HasReplacerFunc = func(ctx context.Context, id uuid.UUID) (bool, error) {
		return true, nil
	}

	input := validUpload()
	input.ReplacesID = &replacedID

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.lists.deactivated)
	assert.Empty(t, f.processor.submitted)
}

func TestUploadList_ReplacesForeignList(t *testing.T) {
	f := newFixture(t)
	replacedID := uuid.New()
	f.lists.GetOwnedFunc = func(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
		return nil, domain.ErrNotFound
	}

	input := validUpload()
	input.ReplacesID = &replacedID

	_, err := f.svc.UploadList(f.ctx, input)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ===========================================================================
// Retrieval
// ===========================================================================

func TestGetList(t *testing.T) {
	f := newFixture(t)
	listID := uuid.New()
	f.items.DistinctStatusesFunc = func(ctx context.Context, id uuid.UUID) ([]domain.ItemStatus, error) {
		assert.Equal(t, listID, id)
		return []domain.ItemStatus{domain.ItemStatusMatched, domain.ItemStatusPotentialMatch}, nil
	}

	detail, err := f.svc.GetList(f.ctx, listID)
	require.NoError(t, err)

	assert.Equal(t, listID, detail.List.ID)
	assert.Equal(t, []domain.ItemStatus{domain.ItemStatusMatched, domain.ItemStatusPotentialMatch}, detail.ItemStatuses)
}

func TestListItems_ClampsPaging(t *testing.T) {
	f := newFixture(t)

	var gotLimit, gotOffset int
	f.items.PageFunc = func(ctx context.Context, listID uuid.UUID, limit, offset int) ([]domain.FacilityListItem, int, error) {
		gotLimit, gotOffset = limit, offset
		return []domain.FacilityListItem{}, 0, nil
	}

	_, err := f.svc.ListItems(f.ctx, uuid.New(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 0, gotOffset)

	_, err = f.svc.ListItems(f.ctx, uuid.New(), 500, 40)
	require.NoError(t, err)
	assert.Equal(t, 100, gotLimit)
	assert.Equal(t, 40, gotOffset)
}

func TestListItems_ForeignList(t *testing.T) {
	f := newFixture(t)
	f.lists.GetOwnedFunc = func(ctx context.Context, contributorID, id uuid.UUID) (*domain.FacilityList, error) {
		return nil, domain.ErrNotFound
	}

	_, err := f.svc.ListItems(f.ctx, uuid.New(), 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
