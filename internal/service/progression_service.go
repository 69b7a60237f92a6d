package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-server/shared/interfaces"
	"story-server/shared/messaging"
	"story-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressionService is the business logic of story traversal. It is the only
// component with write authority over saves and their history.
type ProgressionService interface {
	// StartStory creates the save for (player, story) or resets its cursor to
	// the story's first node. History is never cleared on restart.
	StartStory(ctx context.Context, playerID, storyID uuid.UUID) (*models.SaveWithStory, error)

	// GetCurrentNode returns the node the player currently stands on, with
	// its outgoing choices. Returns models.ErrNoActiveGame if no save exists.
	GetCurrentNode(ctx context.Context, playerID, storyID uuid.UUID) (*models.NodeWithChoices, error)

	// GetAvailableChoices lists the outgoing choices of a node. No session
	// state is involved.
	GetAvailableChoices(ctx context.Context, nodeID uuid.UUID) ([]models.Choice, error)

	// MakeChoice applies one transition: append the choice to the history and
	// move the cursor to the choice's target, atomically.
	MakeChoice(ctx context.Context, playerID, storyID, choiceID uuid.UUID) error

	// GetPlayerHistory returns every save of the player with its full ordered
	// choice log, most recently updated story first.
	GetPlayerHistory(ctx context.Context, playerID uuid.UUID) ([]models.PlayerHistoryEntry, error)

	// GetUserProgress returns the lightweight per-save progress view.
	GetUserProgress(ctx context.Context, playerID uuid.UUID) ([]models.ProgressSummary, error)

	// GetActiveGames returns the player's saves joined with story summaries,
	// most recently updated first.
	GetActiveGames(ctx context.Context, playerID uuid.UUID) ([]models.SaveWithStory, error)
}

type progressionServiceImpl struct {
	db        interfaces.DBTX // pool, used for plain reads outside transactions
	tx        interfaces.TxManager
	stories   interfaces.StoryRepository
	saves     interfaces.SaveRepository
	cache     interfaces.CurrentNodeCache      // optional, nil disables caching
	publisher messaging.ProgressEventPublisher // optional, nil disables events
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewProgressionService creates the progression engine. cache and publisher
// may be nil; the engine then skips the read-through cache and event emission.
func NewProgressionService(
	db interfaces.DBTX,
	tx interfaces.TxManager,
	stories interfaces.StoryRepository,
	saves interfaces.SaveRepository,
	cache interfaces.CurrentNodeCache,
	publisher messaging.ProgressEventPublisher,
	cacheTTL time.Duration,
	logger *zap.Logger,
) ProgressionService {
	return &progressionServiceImpl{
		db:        db,
		tx:        tx,
		stories:   stories,
		saves:     saves,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		logger:    logger.Named("ProgressionService"),
	}
}

// StartStory resolves the story's first node and upserts the cursor. Both
// reads and the write run in one transaction so a concurrent authoring change
// of first_node_id cannot produce a cursor pointing at a node the summary
// never knew about.
func (s *progressionServiceImpl) StartStory(ctx context.Context, playerID, storyID uuid.UUID) (*models.SaveWithStory, error) {
	log := s.logger.With(zap.Stringer("playerID", playerID), zap.Stringer("storyID", storyID))

	var result *models.SaveWithStory
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		firstNodeID, err := s.stories.GetFirstNodeID(ctx, tx, storyID)
		if err != nil {
			return err
		}

		summary, err := s.stories.GetSummary(ctx, tx, storyID)
		if err != nil {
			return err
		}

		save, err := s.saves.Upsert(ctx, tx, playerID, storyID, firstNodeID)
		if err != nil {
			return err
		}

		result = &models.SaveWithStory{Save: *save, Story: *summary}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Story not playable")
			return nil, models.ErrNotFound
		}
		log.Error("Failed to start story", zap.Error(err))
		return nil, classifyStorage(err)
	}

	s.storeCursorCache(ctx, playerID, storyID, result.Save.CurrentNodeID)
	s.publishEvent(ctx, messaging.ProgressEventPayload{
		EventType:     messaging.EventTypeStoryStarted,
		PlayerID:      playerID,
		StoryID:       storyID,
		SaveID:        result.Save.ID,
		CurrentNodeID: result.Save.CurrentNodeID,
		OccurredAt:    time.Now().UTC(),
	})
	storyStartsTotal.Inc()

	log.Info("Story started", zap.Stringer("saveID", result.Save.ID))
	return result, nil
}

// GetCurrentNode resolves the player's cursor to a node with choices. The
// cache is written only by accepted transitions; this read path never writes
// it, so a read racing a transition cannot re-populate the pair's entry with
// the pre-transition node. On a miss the save record decides.
func (s *progressionServiceImpl) GetCurrentNode(ctx context.Context, playerID, storyID uuid.UUID) (*models.NodeWithChoices, error) {
	log := s.logger.With(zap.Stringer("playerID", playerID), zap.Stringer("storyID", storyID))

	if s.cache != nil {
		if nodeID, err := s.cache.Get(ctx, playerID, storyID); err == nil {
			node, err := s.stories.GetNodeWithChoices(ctx, s.db, nodeID)
			if err == nil {
				log.Debug("Current node served from cache", zap.Stringer("nodeID", nodeID))
				return node, nil
			}
			// Stale or broken entry, fall through to the save record.
			s.invalidateCursorCache(ctx, playerID, storyID)
		}
	}

	save, err := s.saves.GetByPlayerAndStory(ctx, s.db, playerID, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Debug("No active game")
			return nil, models.ErrNoActiveGame
		}
		log.Error("Failed to load save", zap.Error(err))
		return nil, classifyStorage(err)
	}

	node, err := s.stories.GetNodeWithChoices(ctx, s.db, save.CurrentNodeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Cursor points at a node authoring has deleted.
			log.Warn("Save cursor references a missing node", zap.Stringer("nodeID", save.CurrentNodeID))
			return nil, models.ErrNotFound
		}
		log.Error("Failed to load current node", zap.Error(err))
		return nil, classifyStorage(err)
	}

	return node, nil
}

// GetAvailableChoices lists the outgoing choices of a node.
func (s *progressionServiceImpl) GetAvailableChoices(ctx context.Context, nodeID uuid.UUID) ([]models.Choice, error) {
	choices, err := s.stories.ListChoicesByNode(ctx, s.db, nodeID)
	if err != nil {
		s.logger.Error("Failed to list choices", zap.Stringer("nodeID", nodeID), zap.Error(err))
		return nil, classifyStorage(err)
	}
	return choices, nil
}

// storeCursorCache writes the pair's cursor after an accepted transition.
// Transitions are the only cache writers; when the write fails the entry is
// dropped instead, so the next read falls back to the save row rather than
// serve the pre-transition node.
func (s *progressionServiceImpl) storeCursorCache(ctx context.Context, playerID, storyID, nodeID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, playerID, storyID, nodeID, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to store cursor in node cache",
			zap.Stringer("playerID", playerID), zap.Stringer("storyID", storyID), zap.Error(err))
		s.invalidateCursorCache(ctx, playerID, storyID)
	}
}

// invalidateCursorCache drops the cached cursor for the pair. Invalidation
// failures are logged and swallowed: the cache carries a TTL and Postgres
// stays authoritative.
func (s *progressionServiceImpl) invalidateCursorCache(ctx context.Context, playerID, storyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, playerID, storyID); err != nil {
		s.logger.Warn("Failed to invalidate node cache",
			zap.Stringer("playerID", playerID), zap.Stringer("storyID", storyID), zap.Error(err))
	}
}

// publishEvent emits a progress event on a best-effort basis.
func (s *progressionServiceImpl) publishEvent(ctx context.Context, payload messaging.ProgressEventPayload) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProgressEvent(ctx, payload); err != nil {
		s.logger.Warn("Failed to publish progress event",
			zap.String("eventType", payload.EventType), zap.Error(err))
	}
}

// classifyStorage maps unexpected repository failures to ErrStorageFailure
// while letting the typed sentinels pass through unchanged.
func classifyStorage(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrNoActiveGame),
		errors.Is(err, models.ErrInvalidChoice),
		errors.Is(err, models.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
	}
}
