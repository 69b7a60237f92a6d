package service

import (
	"context"

	"story-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetPlayerHistory returns every save of the player with its full ordered
// choice log.
func (s *progressionServiceImpl) GetPlayerHistory(ctx context.Context, playerID uuid.UUID) ([]models.PlayerHistoryEntry, error) {
	log := s.logger.With(zap.Stringer("playerID", playerID))

	saves, err := s.saves.ListByPlayer(ctx, s.db, playerID)
	if err != nil {
		log.Error("Failed to list saves for history", zap.Error(err))
		return nil, classifyStorage(err)
	}

	entries := make([]models.PlayerHistoryEntry, 0, len(saves))
	for _, save := range saves {
		choices, err := s.saves.ListChoices(ctx, s.db, save.Save.ID)
		if err != nil {
			log.Error("Failed to list save history", zap.Stringer("saveID", save.Save.ID), zap.Error(err))
			return nil, classifyStorage(err)
		}
		entries = append(entries, models.PlayerHistoryEntry{
			Story:   save.Story,
			Choices: choices,
		})
	}
	return entries, nil
}

// GetUserProgress returns one lightweight summary per save.
func (s *progressionServiceImpl) GetUserProgress(ctx context.Context, playerID uuid.UUID) ([]models.ProgressSummary, error) {
	summaries, err := s.saves.ListProgressByPlayer(ctx, s.db, playerID)
	if err != nil {
		s.logger.Error("Failed to list player progress", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, classifyStorage(err)
	}
	return summaries, nil
}

// GetActiveGames returns the player's saves with story summaries.
func (s *progressionServiceImpl) GetActiveGames(ctx context.Context, playerID uuid.UUID) ([]models.SaveWithStory, error) {
	saves, err := s.saves.ListByPlayer(ctx, s.db, playerID)
	if err != nil {
		s.logger.Error("Failed to list active games", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, classifyStorage(err)
	}
	return saves, nil
}
