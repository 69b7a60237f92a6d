package interfaces

import (
	"context"
	"story-server/shared/models"

	"github.com/google/uuid"
)

// SaveRepository is the durable store of session cursors and their ordered
// choice history. The progression engine is its only writer.
//
//go:generate mockery --name SaveRepository --output ./mocks --outpkg mocks --case=underscore
type SaveRepository interface {
	// GetByPlayerAndStory retrieves the save for a (player, story) pair.
	// Returns models.ErrNotFound if none exists.
	GetByPlayerAndStory(ctx context.Context, querier DBTX, playerID, storyID uuid.UUID) (*models.Save, error)

	// GetByPlayerAndStoryForUpdate is GetByPlayerAndStory with a row lock
	// (SELECT ... FOR UPDATE). Must be called inside a transaction; the lock
	// serializes concurrent transitions for the same save.
	GetByPlayerAndStoryForUpdate(ctx context.Context, querier DBTX, playerID, storyID uuid.UUID) (*models.Save, error)

	// Upsert creates the save for (player, story) or, if it already exists,
	// overwrites current_node_id and updated_at. This is the only path that
	// may create a save; the schema's unique constraint keeps the pair unique.
	Upsert(ctx context.Context, querier DBTX, playerID, storyID, nodeID uuid.UUID) (*models.Save, error)

	// UpdateCurrentNode moves the cursor of an existing save.
	// Returns models.ErrNotFound if the save does not exist.
	UpdateCurrentNode(ctx context.Context, querier DBTX, saveID, nodeID uuid.UUID) error

	// AppendChoice appends one history entry with order = MAX(order)+1 and
	// returns the assigned order. Callers must hold the save's row lock so
	// concurrent appends cannot observe the same maximum.
	AppendChoice(ctx context.Context, querier DBTX, saveID, choiceID uuid.UUID) (int, error)

	// CountChoices returns the history length of a save.
	CountChoices(ctx context.Context, querier DBTX, saveID uuid.UUID) (int, error)

	// ListChoices returns the history of a save joined with choice text,
	// ascending by order.
	ListChoices(ctx context.Context, querier DBTX, saveID uuid.UUID) ([]models.SaveChoiceDetail, error)

	// ListByPlayer returns all saves of a player joined with story summaries,
	// most recently updated first.
	ListByPlayer(ctx context.Context, querier DBTX, playerID uuid.UUID) ([]models.SaveWithStory, error)

	// ListProgressByPlayer returns the lightweight progress view (story, cursor,
	// history length) per save, most recently updated first.
	ListProgressByPlayer(ctx context.Context, querier DBTX, playerID uuid.UUID) ([]models.ProgressSummary, error)

	// CountByStory counts the saves referencing a story.
	CountByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)
}
