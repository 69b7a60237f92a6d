package service

import (
	"context"

	"story-server/shared/interfaces"
	"story-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsService exposes read-only aggregate counts over the graph and saves.
type StatsService interface {
	// GetStoryStatistics returns three independent counts for a story. The
	// counts are not read in one snapshot; each is individually accurate at
	// read time and callers must not assume cross-count consistency under
	// concurrent writes.
	GetStoryStatistics(ctx context.Context, storyID uuid.UUID) (*models.StoryStatistics, error)
}

type statsServiceImpl struct {
	db      interfaces.DBTX
	stories interfaces.StoryRepository
	saves   interfaces.SaveRepository
	logger  *zap.Logger
}

// NewStatsService creates the statistics aggregator.
func NewStatsService(
	db interfaces.DBTX,
	stories interfaces.StoryRepository,
	saves interfaces.SaveRepository,
	logger *zap.Logger,
) StatsService {
	return &statsServiceImpl{
		db:      db,
		stories: stories,
		saves:   saves,
		logger:  logger.Named("StatsService"),
	}
}

func (s *statsServiceImpl) GetStoryStatistics(ctx context.Context, storyID uuid.UUID) (*models.StoryStatistics, error) {
	log := s.logger.With(zap.Stringer("storyID", storyID))

	nodeCount, err := s.stories.CountNodes(ctx, s.db, storyID)
	if err != nil {
		log.Error("Failed to count nodes", zap.Error(err))
		return nil, classifyStorage(err)
	}

	choiceCount, err := s.stories.CountChoices(ctx, s.db, storyID)
	if err != nil {
		log.Error("Failed to count choices", zap.Error(err))
		return nil, classifyStorage(err)
	}

	saveCount, err := s.saves.CountByStory(ctx, s.db, storyID)
	if err != nil {
		log.Error("Failed to count saves", zap.Error(err))
		return nil, classifyStorage(err)
	}

	return &models.StoryStatistics{
		NodeCount:   nodeCount,
		ChoiceCount: choiceCount,
		SaveCount:   saveCount,
	}, nil
}
