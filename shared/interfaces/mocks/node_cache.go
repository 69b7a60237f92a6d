package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock CurrentNodeCache
type CurrentNodeCache struct {
	mock.Mock
}

func (m *CurrentNodeCache) Get(ctx context.Context, playerID, storyID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, playerID, storyID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *CurrentNodeCache) Set(ctx context.Context, playerID, storyID, nodeID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, playerID, storyID, nodeID, ttl)
	return args.Error(0)
}
func (m *CurrentNodeCache) Invalidate(ctx context.Context, playerID, storyID uuid.UUID) error {
	args := m.Called(ctx, playerID, storyID)
	return args.Error(0)
}
