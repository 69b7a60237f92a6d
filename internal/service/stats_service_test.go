package service_test

import (
	"context"
	"errors"
	"testing"

	"story-server/internal/service"
	sharedMocks "story-server/shared/interfaces/mocks"
	sharedModels "story-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestGetStoryStatistics(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	t.Run("Counts nodes, choices and saves independently", func(t *testing.T) {
		mockStories := new(sharedMocks.StoryRepository)
		mockSaves := new(sharedMocks.SaveRepository)
		statsService := service.NewStatsService(nil, mockStories, mockSaves, zap.NewNop())

		mockStories.On("CountNodes", ctx, mock.Anything, storyID).Return(3, nil).Once()
		mockStories.On("CountChoices", ctx, mock.Anything, storyID).Return(5, nil).Once()
		mockSaves.On("CountByStory", ctx, mock.Anything, storyID).Return(2, nil).Once()

		stats, err := statsService.GetStoryStatistics(ctx, storyID)

		assert.NoError(t, err)
		assert.Equal(t, 3, stats.NodeCount)
		assert.Equal(t, 5, stats.ChoiceCount)
		assert.Equal(t, 2, stats.SaveCount)
		mockStories.AssertExpectations(t)
		mockSaves.AssertExpectations(t)
	})

	t.Run("Unknown story yields zero counts, not an error", func(t *testing.T) {
		mockStories := new(sharedMocks.StoryRepository)
		mockSaves := new(sharedMocks.SaveRepository)
		statsService := service.NewStatsService(nil, mockStories, mockSaves, zap.NewNop())

		mockStories.On("CountNodes", ctx, mock.Anything, storyID).Return(0, nil).Once()
		mockStories.On("CountChoices", ctx, mock.Anything, storyID).Return(0, nil).Once()
		mockSaves.On("CountByStory", ctx, mock.Anything, storyID).Return(0, nil).Once()

		stats, err := statsService.GetStoryStatistics(ctx, storyID)

		assert.NoError(t, err)
		assert.Equal(t, &sharedModels.StoryStatistics{}, stats)
	})

	t.Run("Count failure becomes a storage failure", func(t *testing.T) {
		mockStories := new(sharedMocks.StoryRepository)
		mockSaves := new(sharedMocks.SaveRepository)
		statsService := service.NewStatsService(nil, mockStories, mockSaves, zap.NewNop())

		mockStories.On("CountNodes", ctx, mock.Anything, storyID).Return(0, errors.New("connection reset")).Once()

		stats, err := statsService.GetStoryStatistics(ctx, storyID)

		assert.Nil(t, stats)
		assert.True(t, errors.Is(err, sharedModels.ErrStorageFailure))
	})
}
