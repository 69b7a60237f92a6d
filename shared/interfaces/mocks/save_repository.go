package mocks

import (
	"context"
	"story-server/shared/interfaces"
	"story-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SaveRepository
type SaveRepository struct {
	mock.Mock
}

func (m *SaveRepository) GetByPlayerAndStory(ctx context.Context, querier interfaces.DBTX, playerID, storyID uuid.UUID) (*models.Save, error) {
	args := m.Called(ctx, querier, playerID, storyID)
	save, _ := args.Get(0).(*models.Save)
	return save, args.Error(1)
}
func (m *SaveRepository) GetByPlayerAndStoryForUpdate(ctx context.Context, querier interfaces.DBTX, playerID, storyID uuid.UUID) (*models.Save, error) {
	args := m.Called(ctx, querier, playerID, storyID)
	save, _ := args.Get(0).(*models.Save)
	return save, args.Error(1)
}
func (m *SaveRepository) Upsert(ctx context.Context, querier interfaces.DBTX, playerID, storyID, nodeID uuid.UUID) (*models.Save, error) {
	args := m.Called(ctx, querier, playerID, storyID, nodeID)
	save, _ := args.Get(0).(*models.Save)
	return save, args.Error(1)
}
func (m *SaveRepository) UpdateCurrentNode(ctx context.Context, querier interfaces.DBTX, saveID, nodeID uuid.UUID) error {
	args := m.Called(ctx, querier, saveID, nodeID)
	return args.Error(0)
}
func (m *SaveRepository) AppendChoice(ctx context.Context, querier interfaces.DBTX, saveID, choiceID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, saveID, choiceID)
	return args.Int(0), args.Error(1)
}
func (m *SaveRepository) CountChoices(ctx context.Context, querier interfaces.DBTX, saveID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, saveID)
	return args.Int(0), args.Error(1)
}
func (m *SaveRepository) ListChoices(ctx context.Context, querier interfaces.DBTX, saveID uuid.UUID) ([]models.SaveChoiceDetail, error) {
	args := m.Called(ctx, querier, saveID)
	choices, _ := args.Get(0).([]models.SaveChoiceDetail)
	return choices, args.Error(1)
}
func (m *SaveRepository) ListByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.SaveWithStory, error) {
	args := m.Called(ctx, querier, playerID)
	saves, _ := args.Get(0).([]models.SaveWithStory)
	return saves, args.Error(1)
}
func (m *SaveRepository) ListProgressByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.ProgressSummary, error) {
	args := m.Called(ctx, querier, playerID)
	progress, _ := args.Get(0).([]models.ProgressSummary)
	return progress, args.Error(1)
}
func (m *SaveRepository) CountByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, storyID)
	return args.Int(0), args.Error(1)
}
