package adjudicate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

const noLocationMessage = "Unable to create a new facility from an item with no geocoded location"

// RejectInput identifies the match being rejected.
type RejectInput struct {
	ListID  uuid.UUID
	ItemID  uuid.UUID
	MatchID uuid.UUID
}

// RejectMatch rejects a pending match on a potential-match item. While other
// pending matches remain the item stays POTENTIAL_MATCH. Rejecting the last
// pending match either creates a new facility from the item's own data (with
// a confirmed full-confidence match) or, when the item has no geocoded
// location, moves the item to ERROR_MATCHING.
func (s *Service) RejectMatch(ctx context.Context, input RejectInput) (*Result, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	var result Result
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		list, err := s.lists.GetOwned(txCtx, contributorID, input.ListID)
		if err != nil {
			return fmt.Errorf("get list: %w", err)
		}

		item, err := s.items.GetInListForUpdate(txCtx, list.ID, input.ItemID)
		if err != nil {
			return fmt.Errorf("lock item: %w", err)
		}
		if item.Status != domain.ItemStatusPotentialMatch {
			return domain.NewValidationError("item", "only items with potential matches can have a match rejected")
		}

		m, err := s.matches.GetForItem(txCtx, item.ID, input.MatchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if m.Status != domain.MatchStatusPending {
			return domain.NewValidationError("match", "only pending matches can be rejected")
		}

		if err := s.matches.UpdateStatus(txCtx, m.ID, domain.MatchStatusRejected); err != nil {
			return fmt.Errorf("reject match: %w", err)
		}
		m.Status = domain.MatchStatusRejected

		pending, err := s.matches.CountPending(txCtx, item.ID)
		if err != nil {
			return fmt.Errorf("count pending matches: %w", err)
		}

		if pending == 0 {
			if err := s.resolveExhaustedItem(txCtx, item); err != nil {
				return err
			}
		}

		statuses, err := s.items.DistinctStatuses(txCtx, list.ID)
		if err != nil {
			return fmt.Errorf("list statuses: %w", err)
		}

		result = Result{Item: *item, Match: *m, ListStatuses: statuses}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncrementAdjudication("reject", result.Item.Status.String())
	s.log.Info("match rejected",
		"item_id", result.Item.ID,
		"match_id", result.Match.ID,
		"item_status", result.Item.Status,
	)

	return &result, nil
}

// resolveExhaustedItem handles an item whose last pending match was just
// rejected: the contributor has asserted the item is none of the candidates,
// so it becomes a new facility, unless it has no usable location.
func (s *Service) resolveExhaustedItem(ctx context.Context, item *domain.FacilityListItem) error {
	if !item.HasGeocodedLocation() {
		if err := item.TransitionTo(domain.ItemStatusErrorMatching); err != nil {
			return err
		}
		now := time.Now().UTC()
		item.AppendResult(domain.ProcessingResult{
			Action:     domain.ActionConfirm,
			StartedAt:  now,
			FinishedAt: now,
			IsError:    true,
			Message:    noLocationMessage,
		})
		if err := s.items.Update(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	}

	facility, err := s.createFacilityFromItem(ctx, item)
	if err != nil {
		return err
	}

	_, err = s.matches.Create(ctx, &domain.FacilityMatch{
		ItemID:     item.ID,
		FacilityID: facility.ID,
		Confidence: 1.0,
		Status:     domain.MatchStatusConfirmed,
		Results:    map[string]any{"match_type": "all_potential_matches_rejected"},
	})
	if err != nil {
		return fmt.Errorf("create confirmed match: %w", err)
	}

	item.FacilityID = &facility.ID
	if err := item.TransitionTo(domain.ItemStatusConfirmedMatch); err != nil {
		return err
	}
	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return nil
}

// createFacilityFromItem inserts a facility seeded from the item, minting a
// fresh identifier on each collision up to the configured retry bound.
func (s *Service) createFacilityFromItem(ctx context.Context, item *domain.FacilityListItem) (*domain.Facility, error) {
	attempts := s.cfg.IDAllocationRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		id, err := domain.NewFacilityID(item.CountryCode, time.Now())
		if err != nil {
			return nil, fmt.Errorf("mint facility id: %w", err)
		}

		facility, err := s.facilities.Create(ctx, &domain.Facility{
			ID:                id,
			Name:              item.Name,
			Address:           item.Address,
			CountryCode:       item.CountryCode,
			Location:          *item.GeocodedPoint,
			CreatedFromItemID: item.ID,
		})
		if err == nil {
			s.metrics.ObserveIDAllocationAttempts(attempt)
			return facility, nil
		}
		if !errors.Is(err, domain.ErrIDCollision) {
			return nil, fmt.Errorf("create facility: %w", err)
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("create facility after %d attempts: %w", attempt, err)
		}
		s.log.Warn("facility id collision, retrying", "item_id", item.ID, "attempt", attempt)
	}
}
