package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types carried in ProgressEventPayload.EventType.
const (
	EventTypeStoryStarted = "story_started"
	EventTypeChoiceMade   = "choice_made"
)

// ProgressEventPayload is the message emitted to downstream consumers
// (notifications, websocket fan-out) whenever a player's cursor moves.
type ProgressEventPayload struct {
	EventType     string     `json:"event_type"`
	PlayerID      uuid.UUID  `json:"player_id"`
	StoryID       uuid.UUID  `json:"story_id"`
	SaveID        uuid.UUID  `json:"save_id"`
	ChoiceID      *uuid.UUID `json:"choice_id,omitempty"` // set for choice_made
	CurrentNodeID uuid.UUID  `json:"current_node_id"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// ProgressEventPublisher publishes progress events. Publishing is best-effort
// from the engine's point of view: a failed publish is logged and never fails
// the player's request.
//
//go:generate mockery --name ProgressEventPublisher --output ./mocks --outpkg mocks --case=underscore
type ProgressEventPublisher interface {
	PublishProgressEvent(ctx context.Context, payload ProgressEventPayload) error
}
