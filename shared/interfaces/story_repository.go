package interfaces

import (
	"context"
	"story-server/shared/models"

	"github.com/google/uuid"
)

// StoryRepository is the read-only accessor over the authoring-owned story
// graph. The engine never mutates graph topology through it.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// GetSummary retrieves the short story view (title, description).
	// Returns models.ErrNotFound if the story does not exist.
	GetSummary(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.StorySummary, error)

	// GetFirstNodeID resolves the story's entry node.
	// Returns models.ErrNotFound if the story does not exist or has no first
	// node assigned (the story is not playable yet).
	GetFirstNodeID(ctx context.Context, querier DBTX, storyID uuid.UUID) (uuid.UUID, error)

	// GetNodeWithChoices retrieves a node and its outgoing choices.
	// Returns models.ErrNotFound if the node does not exist.
	GetNodeWithChoices(ctx context.Context, querier DBTX, nodeID uuid.UUID) (*models.NodeWithChoices, error)

	// GetNodeStoryID returns the story a node belongs to.
	// Returns models.ErrNotFound if the node does not exist.
	GetNodeStoryID(ctx context.Context, querier DBTX, nodeID uuid.UUID) (uuid.UUID, error)

	// GetChoice retrieves a single choice by ID.
	// Returns models.ErrNotFound if the choice does not exist.
	GetChoice(ctx context.Context, querier DBTX, choiceID uuid.UUID) (*models.Choice, error)

	// ListChoicesByNode lists the outgoing choices of a node.
	// Returns an empty slice for a terminal (or unknown) node.
	ListChoicesByNode(ctx context.Context, querier DBTX, nodeID uuid.UUID) ([]models.Choice, error)

	// CountNodes counts the nodes belonging to a story.
	CountNodes(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)

	// CountChoices counts the choices whose origin node belongs to a story.
	CountChoices(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)
}
