package mocks

import (
	"context"
	"story-server/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock ProgressEventPublisher
type ProgressEventPublisher struct {
	mock.Mock
}

func (m *ProgressEventPublisher) PublishProgressEvent(ctx context.Context, payload messaging.ProgressEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
