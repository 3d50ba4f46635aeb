package adjudicate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

// ConfirmInput identifies the match being confirmed.
type ConfirmInput struct {
	ListID  uuid.UUID
	ItemID  uuid.UUID
	MatchID uuid.UUID
}

// ConfirmMatch confirms a pending match on a potential-match item. The chosen
// match becomes CONFIRMED, every other pending match of the item is rejected,
// and the item moves to CONFIRMED_MATCH linked to the match's facility.
func (s *Service) ConfirmMatch(ctx context.Context, input ConfirmInput) (*Result, error) {
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
			return domain.NewValidationError("item", "only items with potential matches can have a match confirmed")
		}

		m, err := s.matches.GetForItem(txCtx, item.ID, input.MatchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if m.Status != domain.MatchStatusPending {
			return domain.NewValidationError("match", "only pending matches can be confirmed")
		}

		if err := s.matches.UpdateStatus(txCtx, m.ID, domain.MatchStatusConfirmed); err != nil {
			return fmt.Errorf("confirm match: %w", err)
		}
		if _, err := s.matches.RejectOthers(txCtx, item.ID, m.ID); err != nil {
			return fmt.Errorf("reject other matches: %w", err)
		}

		item.FacilityID = &m.FacilityID
		if err := item.TransitionTo(domain.ItemStatusConfirmedMatch); err != nil {
			return err
		}
		if err := s.items.Update(txCtx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		statuses, err := s.items.DistinctStatuses(txCtx, list.ID)
		if err != nil {
			return fmt.Errorf("list statuses: %w", err)
		}

		m.Status = domain.MatchStatusConfirmed
		result = Result{Item: *item, Match: *m, ListStatuses: statuses}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncrementAdjudication("confirm", result.Item.Status.String())
	s.log.Info("match confirmed",
		"item_id", result.Item.ID,
		"match_id", result.Match.ID,
		"facility_id", result.Match.FacilityID,
	)

	return &result, nil
}
