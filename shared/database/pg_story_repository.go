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
	getStorySummaryQuery = `
        SELECT id, title, description
        FROM stories
        WHERE id = $1
    `
	getFirstNodeIDQuery = `
        SELECT first_node_id
        FROM stories
        WHERE id = $1
    `
	getNodeQuery = `
        SELECT id, story_id, content, image_url, audio_url
        FROM story_nodes
        WHERE id = $1
    `
	getNodeStoryIDQuery = `
        SELECT story_id
        FROM story_nodes
        WHERE id = $1
    `
	getChoiceQuery = `
        SELECT id, node_id, text, next_node_id
        FROM choices
        WHERE id = $1
    `
	listChoicesByNodeQuery = `
        SELECT id, node_id, text, next_node_id
        FROM choices
        WHERE node_id = $1
        ORDER BY id
    `
	countNodesQuery = `
        SELECT COUNT(*)
        FROM story_nodes
        WHERE story_id = $1
    `
	countChoicesQuery = `
        SELECT COUNT(*)
        FROM choices c
        JOIN story_nodes n ON n.id = c.node_id
        WHERE n.story_id = $1
    `
)

// Compile-time check to ensure pgStoryRepository implements the interface.
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// pgStoryRepository is the PostgreSQL implementation of StoryRepository.
// All methods are pure reads; the engine never mutates graph topology.
type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a new repository instance.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		logger: logger.Named("PgStoryRepo"),
	}
}

// GetSummary retrieves the short story view.
func (r *pgStoryRepository) GetSummary(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.StorySummary, error) {
	log := r.logger.With(zap.Stringer("storyID", storyID))

	var summary models.StorySummary
	err := pgxscan.Get(ctx, querier, &summary, getStorySummaryQuery, storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Story not found")
			return nil, models.ErrNotFound
		}
		log.Error("Failed to get story summary", zap.Error(err))
		return nil, fmt.Errorf("failed to get story summary %s: %w", storyID, err)
	}
	return &summary, nil
}

// GetFirstNodeID resolves the story's entry node. A story without a first
// node is not playable and reported as not found.
func (r *pgStoryRepository) GetFirstNodeID(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (uuid.UUID, error) {
	log := r.logger.With(zap.Stringer("storyID", storyID))

	var firstNodeID *uuid.UUID
	err := querier.QueryRow(ctx, getFirstNodeIDQuery, storyID).Scan(&firstNodeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Story not found")
			return uuid.Nil, models.ErrNotFound
		}
		log.Error("Failed to get first node ID", zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to get first node of story %s: %w", storyID, err)
	}
	if firstNodeID == nil {
		log.Warn("Story has no first node assigned")
		return uuid.Nil, models.ErrNotFound
	}
	return *firstNodeID, nil
}

// GetNodeWithChoices retrieves a node and its outgoing choices.
func (r *pgStoryRepository) GetNodeWithChoices(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) (*models.NodeWithChoices, error) {
	log := r.logger.With(zap.Stringer("nodeID", nodeID))

	var node models.StoryNode
	err := pgxscan.Get(ctx, querier, &node, getNodeQuery, nodeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Story node not found")
			return nil, models.ErrNotFound
		}
		log.Error("Failed to get story node", zap.Error(err))
		return nil, fmt.Errorf("failed to get story node %s: %w", nodeID, err)
	}

	choices, err := r.ListChoicesByNode(ctx, querier, nodeID)
	if err != nil {
		return nil, err
	}

	return &models.NodeWithChoices{StoryNode: node, Choices: choices}, nil
}

// GetNodeStoryID returns the story a node belongs to.
func (r *pgStoryRepository) GetNodeStoryID(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) (uuid.UUID, error) {
	var storyID uuid.UUID
	err := querier.QueryRow(ctx, getNodeStoryIDQuery, nodeID).Scan(&storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story node not found", zap.Stringer("nodeID", nodeID))
			return uuid.Nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get node story ID", zap.Stringer("nodeID", nodeID), zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to get story of node %s: %w", nodeID, err)
	}
	return storyID, nil
}

// GetChoice retrieves a single choice by ID.
func (r *pgStoryRepository) GetChoice(ctx context.Context, querier interfaces.DBTX, choiceID uuid.UUID) (*models.Choice, error) {
	log := r.logger.With(zap.Stringer("choiceID", choiceID))

	var choice models.Choice
	err := pgxscan.Get(ctx, querier, &choice, getChoiceQuery, choiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Choice not found")
			return nil, models.ErrNotFound
		}
		log.Error("Failed to get choice", zap.Error(err))
		return nil, fmt.Errorf("failed to get choice %s: %w", choiceID, err)
	}
	return &choice, nil
}

// ListChoicesByNode lists the outgoing choices of a node.
func (r *pgStoryRepository) ListChoicesByNode(ctx context.Context, querier interfaces.DBTX, nodeID uuid.UUID) ([]models.Choice, error) {
	choices := make([]models.Choice, 0)
	err := pgxscan.Select(ctx, querier, &choices, listChoicesByNodeQuery, nodeID)
	if err != nil {
		r.logger.Error("Failed to list choices for node", zap.Stringer("nodeID", nodeID), zap.Error(err))
		return nil, fmt.Errorf("failed to list choices of node %s: %w", nodeID, err)
	}
	return choices, nil
}

// CountNodes counts the nodes belonging to a story.
func (r *pgStoryRepository) CountNodes(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countNodesQuery, storyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count nodes", zap.Stringer("storyID", storyID), zap.Error(err))
		return 0, fmt.Errorf("failed to count nodes of story %s: %w", storyID, err)
	}
	return count, nil
}

// CountChoices counts the choices whose origin node belongs to a story.
func (r *pgStoryRepository) CountChoices(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countChoicesQuery, storyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count choices", zap.Stringer("storyID", storyID), zap.Error(err))
		return 0, fmt.Errorf("failed to count choices of story %s: %w", storyID, err)
	}
	return count, nil
}
