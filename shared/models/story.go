package models

import (
	"github.com/google/uuid"
)

// Story is the authoring-owned root of a narrative graph. The progression
// engine reads it but never mutates it; only FirstNodeID is consulted at
// session start.
type Story struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	ImageURL    *string    `json:"image_url,omitempty" db:"image_url"`
	AudioURL    *string    `json:"audio_url,omitempty" db:"audio_url"`
	FirstNodeID *uuid.UUID `json:"first_node_id,omitempty" db:"first_node_id"` // Unset only before any node exists
}

// StorySummary is the short story view returned alongside saves.
type StorySummary struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
}

// StoryNode is a single point in the narrative. A node with zero outgoing
// choices is terminal.
type StoryNode struct {
	ID       uuid.UUID `json:"id" db:"id"`
	StoryID  uuid.UUID `json:"story_id" db:"story_id"`
	Content  string    `json:"content" db:"content"`
	ImageURL *string   `json:"image_url,omitempty" db:"image_url"`
	AudioURL *string   `json:"audio_url,omitempty" db:"audio_url"`
}

// Choice is a labeled directed edge from its origin node (NodeID) to a target
// node (NextNodeID). Authoring does not guarantee the target stays inside the
// origin's story; the engine checks that at traversal time.
type Choice struct {
	ID         uuid.UUID `json:"id" db:"id"`
	NodeID     uuid.UUID `json:"node_id" db:"node_id"`
	Text       string    `json:"text" db:"text"`
	NextNodeID uuid.UUID `json:"next_node_id" db:"next_node_id"`
}

// NodeWithChoices is a node together with its outgoing choices, the shape the
// engine hands to callers for rendering.
type NodeWithChoices struct {
	StoryNode
	Choices []Choice `json:"choices"`
}

// StoryStatistics holds three independent counts for one story. The counts are
// not read inside one snapshot transaction; each is individually accurate at
// read time.
type StoryStatistics struct {
	NodeCount   int `json:"node_count"`
	ChoiceCount int `json:"choice_count"`
	SaveCount   int `json:"save_count"`
}
