package models

import (
	"time"

	"github.com/google/uuid"
)

// Save is the durable cursor of one player inside one story. Exactly one Save
// may exist per (PlayerID, StoryID) pair; it is created lazily on the first
// StartStory, mutated in place afterwards and never deleted by the engine.
type Save struct {
	ID            uuid.UUID `json:"id" db:"id"`
	PlayerID      uuid.UUID `json:"player_id" db:"player_id"`
	StoryID       uuid.UUID `json:"story_id" db:"story_id"`
	CurrentNodeID uuid.UUID `json:"current_node_id" db:"current_node_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SaveChoice is one entry of the append-only choice log of a Save.
// Order is a gapless 1-based sequence unique within the save; it is never
// reused or renumbered.
type SaveChoice struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SaveID    uuid.UUID `json:"save_id" db:"save_id"`
	ChoiceID  uuid.UUID `json:"choice_id" db:"choice_id"`
	Order     int       `json:"order" db:"order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SaveChoiceDetail is a history entry joined with the choice it refers to.
type SaveChoiceDetail struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ChoiceID  uuid.UUID `json:"choice_id" db:"choice_id"`
	Order     int       `json:"order" db:"order"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SaveWithStory is a save joined with the summary of its story.
type SaveWithStory struct {
	Save  Save         `json:"save"`
	Story StorySummary `json:"story"`
}

// PlayerHistoryEntry is one save of a player with its full ordered choice log.
type PlayerHistoryEntry struct {
	Story   StorySummary       `json:"story"`
	Choices []SaveChoiceDetail `json:"choices"`
}

// ProgressSummary is the lightweight per-save progress view.
type ProgressSummary struct {
	StoryID       uuid.UUID `json:"story_id" db:"story_id"`
	StoryTitle    string    `json:"story_title" db:"story_title"`
	CurrentNodeID uuid.UUID `json:"current_node_id" db:"current_node_id"`
	ChoicesCount  int       `json:"choices_count" db:"choices_count"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
