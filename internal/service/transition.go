package service

import (
	"context"
	"errors"
	"time"

	"story-server/shared/interfaces"
	"story-server/shared/messaging"
	"story-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// maxTransitionRetries bounds how often a transition is retried after a
// serialization failure before ErrConflict is surfaced to the caller.
const maxTransitionRetries = 3

// MakeChoice applies a single state transition:
//
//  1. load the save under a row lock (all transitions for one save serialize
//     on it),
//  2. load the choice and validate that it originates at the save's current
//     node and stays inside the save's story,
//  3. append the history entry and move the cursor, all in one transaction.
//
// A failed attempt leaves the save exactly as it was before the call.
func (s *progressionServiceImpl) MakeChoice(ctx context.Context, playerID, storyID, choiceID uuid.UUID) error {
	log := s.logger.With(
		zap.Stringer("playerID", playerID),
		zap.Stringer("storyID", storyID),
		zap.Stringer("choiceID", choiceID),
	)

	var applied struct {
		saveID     uuid.UUID
		nextNodeID uuid.UUID
		order      int
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.tx.WithTx(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
			save, txErr := s.saves.GetByPlayerAndStoryForUpdate(ctx, tx, playerID, storyID)
			if txErr != nil {
				if errors.Is(txErr, models.ErrNotFound) {
					return models.ErrNoActiveGame
				}
				return txErr
			}

			choice, txErr := s.stories.GetChoice(ctx, tx, choiceID)
			if txErr != nil {
				return txErr // ErrNotFound: "choice not found"
			}

			// A choice may only be applied from the node it belongs to, even
			// when the caller knows a valid choice ID elsewhere in the graph.
			if choice.NodeID != save.CurrentNodeID {
				return models.ErrInvalidChoice
			}

			// Authoring may leave cross-story targets behind; following one
			// silently would teleport the player into another story.
			targetStoryID, txErr := s.stories.GetNodeStoryID(ctx, tx, choice.NextNodeID)
			if txErr != nil {
				return txErr // ErrNotFound: dangling target node
			}
			if targetStoryID != save.StoryID {
				return models.ErrInvalidChoice
			}

			order, txErr := s.saves.AppendChoice(ctx, tx, save.ID, choiceID)
			if txErr != nil {
				return txErr
			}
			if txErr := s.saves.UpdateCurrentNode(ctx, tx, save.ID, choice.NextNodeID); txErr != nil {
				return txErr
			}

			applied.saveID = save.ID
			applied.nextNodeID = choice.NextNodeID
			applied.order = order
			return nil
		})

		if err == nil {
			break
		}
		if !isSerializationFailure(err) {
			choicesAppliedTotal.WithLabelValues(outcomeLabel(err)).Inc()
			log.Warn("Transition rejected", zap.Error(err))
			return classifyStorage(err)
		}
		transitionConflictsTotal.Inc()
		if attempt >= maxTransitionRetries {
			log.Error("Transition retry budget exhausted", zap.Int("attempts", attempt+1), zap.Error(err))
			choicesAppliedTotal.WithLabelValues("conflict").Inc()
			return models.ErrConflict
		}
		log.Debug("Retrying transition after serialization failure", zap.Int("attempt", attempt+1))
	}

	s.storeCursorCache(ctx, playerID, storyID, applied.nextNodeID)
	s.publishEvent(ctx, messaging.ProgressEventPayload{
		EventType:     messaging.EventTypeChoiceMade,
		PlayerID:      playerID,
		StoryID:       storyID,
		SaveID:        applied.saveID,
		ChoiceID:      &choiceID,
		CurrentNodeID: applied.nextNodeID,
		OccurredAt:    time.Now().UTC(),
	})
	choicesAppliedTotal.WithLabelValues("applied").Inc()

	log.Info("Choice applied",
		zap.Stringer("saveID", applied.saveID),
		zap.Stringer("nextNodeID", applied.nextNodeID),
		zap.Int("order", applied.order))
	return nil
}

// isSerializationFailure reports whether the error is a Postgres
// serialization failure or deadlock, both safe to retry whole.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// outcomeLabel maps a rejection to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrNoActiveGame):
		return "no_active_game"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidChoice):
		return "invalid_choice"
	default:
		return "storage_failure"
	}
}
