package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

// ListDetail is a facility list together with the distinct statuses across
// its items, for upload progress reporting.
type ListDetail struct {
	List         domain.FacilityList
	ItemStatuses []domain.ItemStatus
}

// ItemPage is one page of a list's items.
type ItemPage struct {
	Items  []domain.FacilityListItem
	Total  int
	Limit  int
	Offset int
}

// ListLists returns the calling contributor's lists, newest first.
func (s *Service) ListLists(ctx context.Context) ([]domain.FacilityList, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	lists, err := s.lists.ListByContributor(ctx, contributorID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	return lists, nil
}

// GetList returns one of the calling contributor's lists with its item
// status summary.
func (s *Service) GetList(ctx context.Context, listID uuid.UUID) (*ListDetail, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	list, err := s.lists.GetOwned(ctx, contributorID, listID)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	statuses, err := s.items.DistinctStatuses(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	return &ListDetail{List: *list, ItemStatuses: statuses}, nil
}

// GetItem returns one item of the calling contributor's list.
func (s *Service) GetItem(ctx context.Context, listID, itemID uuid.UUID) (*domain.FacilityListItem, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	list, err := s.lists.GetOwned(ctx, contributorID, listID)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	item, err := s.items.GetInList(ctx, list.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// ListItems returns one page of a list's items ordered by row index.
func (s *Service) ListItems(ctx context.Context, listID uuid.UUID, limit, offset int) (*ItemPage, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	list, err := s.lists.GetOwned(ctx, contributorID, listID)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	limit = clampLimit(limit, s.regCfg.MaxPageSize, s.regCfg.DefaultPageSize)
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.items.Page(ctx, list.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page items: %w", err)
	}

	return &ItemPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
