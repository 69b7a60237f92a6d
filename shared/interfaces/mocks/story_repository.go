package mocks

import (
	"context"
	"story-server/shared/interfaces"
	"story-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) GetSummary(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.StorySummary, error) {
	args := m.Called(ctx, querier, storyID)
	summary, _ := args.Get(0).(*models.StorySummary)
	return summary, args.Error(1)
}
func (m *StoryRepository) GetFirstNodeID(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, querier, storyID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *StoryRepository) GetNodeWithChoices(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) (*models.NodeWithChoices, error) {
	args := m.Called(ctx, querier, nodeID)
	node, _ := args.Get(0).(*models.NodeWithChoices)
	return node, args.Error(1)
}
func (m *StoryRepository) GetNodeStoryID(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, querier, nodeID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *StoryRepository) GetChoice(ctx context.Context, querier interfaces.DBTX, choiceID uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, querier, choiceID)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *StoryRepository) ListChoicesByNode(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, querier, nodeID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}
func (m *StoryRepository) CountNodes(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, storyID)
	return args.Int(0), args.Error(1)
}
func (m *StoryRepository) CountChoices(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, storyID)
	return args.Int(0), args.Error(1)
}
