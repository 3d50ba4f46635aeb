package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openapparel/facility-registry/internal/domain"
)

const noLocationMessage = "Unable to create a new facility from an item with no geocoded location"

// parseItem extracts country/name/address from the item's raw row.
// UPLOADED → PARSED or ERROR_PARSING.
func (s *Service) parseItem(ctx context.Context, list *domain.FacilityList, item *domain.FacilityListItem) error {
	started := time.Now().UTC()

	fields, err := s.parser.ParseLine(list.Header, item.RawData)
	if err == nil {
		err = fields.Validate()
	}
	if err != nil {
		return s.failItem(ctx, item, domain.ActionParse, started, domain.ItemStatusErrorParsing, err.Error())
	}

	item.Name = fields.Name
	item.Address = fields.Address
	item.CountryCode = fields.CountryCode
	if err := item.TransitionTo(domain.ItemStatusParsed); err != nil {
		return err
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     domain.ActionParse,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Payload: map[string]any{
			"country_code": fields.CountryCode,
			"name":         fields.Name,
			"address":      fields.Address,
		},
	})

	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	s.metrics.IncrementPipelineStage(domain.ActionParse.String(), "ok")
	return nil
}

// geocodeItem resolves the item's address to a point.
// PARSED → GEOCODED, GEOCODED_NO_RESULTS, or ERROR_GEOCODING.
func (s *Service) geocodeItem(ctx context.Context, _ *domain.FacilityList, item *domain.FacilityListItem) error {
	started := time.Now().UTC()

	result, err := s.geocoder.Geocode(ctx, item.Address, item.CountryCode)
	if err != nil {
		return s.failItem(ctx, item, domain.ActionGeocode, started, domain.ItemStatusErrorGeocoding, err.Error())
	}

	if result.Point == nil {
		if err := item.TransitionTo(domain.ItemStatusGeocodedNoResults); err != nil {
			return err
		}
	} else {
		if err := item.TransitionTo(domain.ItemStatusGeocoded); err != nil {
			return err
		}
		item.GeocodedPoint = result.Point
		if result.Address != "" {
			addr := result.Address
			item.GeocodedAddress = &addr
		}
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     domain.ActionGeocode,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Payload:    result.Payload,
	})

	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	s.metrics.IncrementPipelineStage(domain.ActionGeocode.String(), "ok")
	return nil
}

// matchItem scores the item against existing facilities and applies the
// outcome. GEOCODED or GEOCODED_NO_RESULTS → MATCHED, POTENTIAL_MATCH, or
// ERROR_MATCHING. The whole outcome is applied in one transaction.
func (s *Service) matchItem(ctx context.Context, _ *domain.FacilityList, item *domain.FacilityListItem) error {
	started := time.Now().UTC()

	candidates, err := s.matcher.ScoreCandidates(ctx, item)
	if err != nil {
		return s.failItem(ctx, item, domain.ActionMatch, started, domain.ItemStatusErrorMatching, err.Error())
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		switch {
		case len(candidates) == 0:
			return s.applyNoCandidates(txCtx, item, started)
		case len(candidates) == 1 && candidates[0].Confidence >= s.cfg.AutomaticMatchThreshold:
			return s.applyAutomaticMatch(txCtx, item, candidates[0], started)
		default:
			return s.applyPotentialMatches(txCtx, item, candidates, started)
		}
	})
	if txErr != nil {
		return txErr
	}

	s.metrics.IncrementPipelineStage(domain.ActionMatch.String(), "ok")
	return nil
}

// applyNoCandidates handles an item no existing facility resembles: the item
// becomes a brand-new facility, unless it has no usable location.
func (s *Service) applyNoCandidates(ctx context.Context, item *domain.FacilityListItem, started time.Time) error {
	if !item.HasGeocodedLocation() {
		if err := item.TransitionTo(domain.ItemStatusErrorMatching); err != nil {
			return err
		}
		item.AppendResult(domain.ProcessingResult{
			Action:     domain.ActionMatch,
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
			IsError:    true,
			Message:    noLocationMessage,
		})
		return s.items.Update(ctx, item)
	}

	facility, err := s.createFacilityFromItem(ctx, item)
	if err != nil {
		return err
	}

	_, err = s.matches.Create(ctx, &domain.FacilityMatch{
		ItemID:     item.ID,
		FacilityID: facility.ID,
		Confidence: 1.0,
		Status:     domain.MatchStatusAutomatic,
		Results:    map[string]any{"match_type": "no_gazetteer_match"},
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	item.FacilityID = &facility.ID
	if err := item.TransitionTo(domain.ItemStatusMatched); err != nil {
		return err
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     domain.ActionMatch,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Payload:    map[string]any{"match_type": "no_gazetteer_match", "facility_id": facility.ID},
	})
	return s.items.Update(ctx, item)
}

// applyAutomaticMatch links the item to its single high-confidence candidate.
func (s *Service) applyAutomaticMatch(ctx context.Context, item *domain.FacilityListItem, c domain.MatchCandidate, started time.Time) error {
	_, err := s.matches.Create(ctx, &domain.FacilityMatch{
		ItemID:     item.ID,
		FacilityID: c.FacilityID,
		Confidence: c.Confidence,
		Status:     domain.MatchStatusAutomatic,
		Results:    c.Results,
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	item.FacilityID = &c.FacilityID
	if err := item.TransitionTo(domain.ItemStatusMatched); err != nil {
		return err
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     domain.ActionMatch,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Payload:    map[string]any{"facility_id": c.FacilityID, "confidence": c.Confidence},
	})
	return s.items.Update(ctx, item)
}

// applyPotentialMatches records all candidates as pending for adjudication.
func (s *Service) applyPotentialMatches(ctx context.Context, item *domain.FacilityListItem, candidates []domain.MatchCandidate, started time.Time) error {
	for _, c := range candidates {
		_, err := s.matches.Create(ctx, &domain.FacilityMatch{
			ItemID:     item.ID,
			FacilityID: c.FacilityID,
			Confidence: c.Confidence,
			Status:     domain.MatchStatusPending,
			Results:    c.Results,
		})
		if err != nil {
			return fmt.Errorf("create match: %w", err)
		}
	}

	if err := item.TransitionTo(domain.ItemStatusPotentialMatch); err != nil {
		return err
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     domain.ActionMatch,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Payload:    map[string]any{"candidates": len(candidates)},
	})
	return s.items.Update(ctx, item)
}

// failItem records a stage failure on the item and moves it to the stage's
// error status.
func (s *Service) failItem(
	ctx context.Context,
	item *domain.FacilityListItem,
	action domain.ProcessingAction,
	started time.Time,
	status domain.ItemStatus,
	message string,
) error {
	if err := item.TransitionTo(status); err != nil {
		return err
	}
	item.AppendResult(domain.ProcessingResult{
		Action:     action,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		IsError:    true,
		Message:    message,
	})

	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("record stage failure: %w", err)
	}

	s.metrics.IncrementPipelineStage(action.String(), "error")
	s.log.Warn("pipeline stage error",
		"item_id", item.ID,
		"action", action,
		"status", status,
		"message", message,
	)
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
