package database

import (
	"context"
	"errors"
	"fmt"
	"story-server/shared/interfaces"
	"story-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	saveFields = `id, player_id, story_id, current_node_id, created_at, updated_at`

	getSaveByPlayerAndStoryQuery = `
        SELECT ` + saveFields + `
        FROM saves
        WHERE player_id = $1 AND story_id = $2
    `
	// FOR UPDATE locks the save row for the duration of the enclosing
	// transaction; all transitions for one save serialize on this lock.
	getSaveByPlayerAndStoryForUpdateQuery = getSaveByPlayerAndStoryQuery + ` FOR UPDATE`

	upsertSaveQuery = `
        INSERT INTO saves (id, player_id, story_id, current_node_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (player_id, story_id) DO UPDATE
            SET current_node_id = EXCLUDED.current_node_id,
                updated_at      = now()
        RETURNING ` + saveFields + `
    `
	updateSaveCurrentNodeQuery = `
        UPDATE saves
        SET current_node_id = $2,
            updated_at      = now()
        WHERE id = $1
    `
	// The aggregate subselect and the insert run as one statement; together
	// with the save row lock this makes order assignment race-free.
	appendSaveChoiceQuery = `
        INSERT INTO save_choices (id, save_id, choice_id, "order")
        SELECT $1, $2, $3, COALESCE(MAX("order"), 0) + 1
        FROM save_choices
        WHERE save_id = $2
        RETURNING "order"
    `
	countSaveChoicesQuery = `
        SELECT COUNT(*)
        FROM save_choices
        WHERE save_id = $1
    `
	listSaveChoicesQuery = `
        SELECT sc.id, sc.choice_id, sc."order", c.text, sc.created_at
        FROM save_choices sc
        JOIN choices c ON c.id = sc.choice_id
        WHERE sc.save_id = $1
        ORDER BY sc."order" ASC
    `
	listSavesByPlayerQuery = `
        SELECT s.id, s.player_id, s.story_id, s.current_node_id, s.created_at, s.updated_at,
               st.id, st.title, st.description
        FROM saves s
        JOIN stories st ON st.id = s.story_id
        WHERE s.player_id = $1
        ORDER BY s.updated_at DESC
    `
	listProgressByPlayerQuery = `
        SELECT s.story_id,
               st.title AS story_title,
               s.current_node_id,
               COUNT(sc.id)::int AS choices_count,
               s.updated_at
        FROM saves s
        JOIN stories st ON st.id = s.story_id
        LEFT JOIN save_choices sc ON sc.save_id = s.id
        WHERE s.player_id = $1
        GROUP BY s.id, st.title
        ORDER BY s.updated_at DESC
    `
	countSavesByStoryQuery = `
        SELECT COUNT(*)
        FROM saves
        WHERE story_id = $1
    `
)

// Compile-time check to ensure pgSaveRepository implements the interface.
var _ interfaces.SaveRepository = (*pgSaveRepository)(nil)

// pgSaveRepository is the PostgreSQL implementation of SaveRepository.
type pgSaveRepository struct {
	logger *zap.Logger
}

// NewPgSaveRepository creates a new repository instance.
func NewPgSaveRepository(logger *zap.Logger) interfaces.SaveRepository {
	return &pgSaveRepository{
		logger: logger.Named("PgSaveRepo"),
	}
}

// GetByPlayerAndStory retrieves the save for a (player, story) pair.
func (r *pgSaveRepository) GetByPlayerAndStory(ctx context.Context, querier interfaces.DBTX, playerID, storyID uuid.UUID) (*models.Save, error) {
	return r.getSave(ctx, querier, getSaveByPlayerAndStoryQuery, playerID, storyID)
}

// GetByPlayerAndStoryForUpdate retrieves the save with a row lock. Must run
// inside a transaction.
func (r *pgSaveRepository) GetByPlayerAndStoryForUpdate(ctx context.Context, querier interfaces.DBTX, playerID, storyID uuid.UUID) (*models.Save, error) {
	return r.getSave(ctx, querier, getSaveByPlayerAndStoryForUpdateQuery, playerID, storyID)
}

func (r *pgSaveRepository) getSave(ctx context.Context, querier interfaces.DBTX, query string, playerID, storyID uuid.UUID) (*models.Save, error) {
	logFields := []zap.Field{
		zap.Stringer("playerID", playerID),
		zap.Stringer("storyID", storyID),
	}

	var save models.Save
	err := pgxscan.Get(ctx, querier, &save, query, playerID, storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Save not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get save", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get save for player %s story %s: %w", playerID, storyID, err)
	}
	return &save, nil
}

// Upsert creates the save or resets its cursor. The unique constraint on
// (player_id, story_id) guarantees at most one row per pair.
func (r *pgSaveRepository) Upsert(ctx context.Context, querier interfaces.DBTX, playerID, storyID, nodeID uuid.UUID) (*models.Save, error) {
	logFields := []zap.Field{
		zap.Stringer("playerID", playerID),
		zap.Stringer("storyID", storyID),
		zap.Stringer("nodeID", nodeID),
	}

	var save models.Save
	err := pgxscan.Get(ctx, querier, &save, upsertSaveQuery, uuid.New(), playerID, storyID, nodeID)
	if err != nil {
		r.logger.Error("Failed to upsert save", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to upsert save for player %s story %s: %w", playerID, storyID, err)
	}

	r.logger.Info("Save cursor upserted", append(logFields, zap.Stringer("saveID", save.ID))...)
	return &save, nil
}

// UpdateCurrentNode moves the cursor of an existing save.
func (r *pgSaveRepository) UpdateCurrentNode(ctx context.Context, querier interfaces.DBTX, saveID, nodeID uuid.UUID) error {
	cmdTag, err := querier.Exec(ctx, updateSaveCurrentNodeQuery, saveID, nodeID)
	if err != nil {
		r.logger.Error("Failed to update save cursor",
			zap.Stringer("saveID", saveID), zap.Stringer("nodeID", nodeID), zap.Error(err))
		return fmt.Errorf("failed to update cursor of save %s: %w", saveID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Save not found for cursor update", zap.Stringer("saveID", saveID))
		return models.ErrNotFound
	}
	return nil
}

// AppendChoice appends one history entry with the next order value and
// returns it. Callers must hold the save's row lock.
func (r *pgSaveRepository) AppendChoice(ctx context.Context, querier interfaces.DBTX, saveID, choiceID uuid.UUID) (int, error) {
	var order int
	err := querier.QueryRow(ctx, appendSaveChoiceQuery, uuid.New(), saveID, choiceID).Scan(&order)
	if err != nil {
		r.logger.Error("Failed to append save choice",
			zap.Stringer("saveID", saveID), zap.Stringer("choiceID", choiceID), zap.Error(err))
		return 0, fmt.Errorf("failed to append choice to save %s: %w", saveID, err)
	}

	r.logger.Debug("Save choice appended",
		zap.Stringer("saveID", saveID), zap.Stringer("choiceID", choiceID), zap.Int("order", order))
	return order, nil
}

// CountChoices returns the history length of a save.
func (r *pgSaveRepository) CountChoices(ctx context.Context, querier interfaces.DBTX, saveID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countSaveChoicesQuery, saveID).Scan(&count); err != nil {
		r.logger.Error("Failed to count save choices", zap.Stringer("saveID", saveID), zap.Error(err))
		return 0, fmt.Errorf("failed to count choices of save %s: %w", saveID, err)
	}
	return count, nil
}

// ListChoices returns the history of a save, ascending by order.
func (r *pgSaveRepository) ListChoices(ctx context.Context, querier interfaces.DBTX, saveID uuid.UUID) ([]models.SaveChoiceDetail, error) {
	choices := make([]models.SaveChoiceDetail, 0)
	err := pgxscan.Select(ctx, querier, &choices, listSaveChoicesQuery, saveID)
	if err != nil {
		r.logger.Error("Failed to list save choices", zap.Stringer("saveID", saveID), zap.Error(err))
		return nil, fmt.Errorf("failed to list choices of save %s: %w", saveID, err)
	}
	return choices, nil
}

// ListByPlayer returns all saves of a player with story summaries, most
// recently updated first.
func (r *pgSaveRepository) ListByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.SaveWithStory, error) {
	rows, err := querier.Query(ctx, listSavesByPlayerQuery, playerID)
	if err != nil {
		r.logger.Error("Failed to query saves by player", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list saves of player %s: %w", playerID, err)
	}
	defer rows.Close()

	result := make([]models.SaveWithStory, 0)
	for rows.Next() {
		var item models.SaveWithStory
		err := rows.Scan(
			&item.Save.ID,
			&item.Save.PlayerID,
			&item.Save.StoryID,
			&item.Save.CurrentNodeID,
			&item.Save.CreatedAt,
			&item.Save.UpdatedAt,
			&item.Story.ID,
			&item.Story.Title,
			&item.Story.Description,
		)
		if err != nil {
			r.logger.Error("Failed to scan save row", zap.Stringer("playerID", playerID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan save row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating save rows", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("error iterating saves of player %s: %w", playerID, err)
	}
	return result, nil
}

// ListProgressByPlayer returns the per-save progress view, most recently
// updated first.
func (r *pgSaveRepository) ListProgressByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.ProgressSummary, error) {
	summaries := make([]models.ProgressSummary, 0)
	err := pgxscan.Select(ctx, querier, &summaries, listProgressByPlayerQuery, playerID)
	if err != nil {
		r.logger.Error("Failed to list player progress", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list progress of player %s: %w", playerID, err)
	}
	return summaries, nil
}

// CountByStory counts the saves referencing a story.
func (r *pgSaveRepository) CountByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countSavesByStoryQuery, storyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count saves", zap.Stringer("storyID", storyID), zap.Error(err))
		return 0, fmt.Errorf("failed to count saves of story %s: %w", storyID, err)
	}
	return count, nil
}
