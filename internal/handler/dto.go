package handler

import (
	"time"

	"story-server/shared/models"

	"github.com/google/uuid"
)

// makeChoiceRequest is the body of POST /api/stories/:story_id/choice.
type makeChoiceRequest struct {
	ChoiceID uuid.UUID `json:"choice_id"`
}

// makeChoiceResponse acknowledges an applied transition. The new current node
// is recoverable via GET /api/stories/:story_id/current.
type makeChoiceResponse struct {
	Success bool `json:"success"`
}

// startStoryResponse is the body returned by POST /api/stories/:story_id/start.
type startStoryResponse struct {
	SaveID        uuid.UUID `json:"save_id"`
	StoryID       uuid.UUID `json:"story_id"`
	StoryTitle    string    `json:"story_title"`
	StoryDesc     string    `json:"story_description"`
	CurrentNodeID uuid.UUID `json:"current_node_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toStartStoryResponse(s *models.SaveWithStory) startStoryResponse {
	return startStoryResponse{
		SaveID:        s.Save.ID,
		StoryID:       s.Save.StoryID,
		StoryTitle:    s.Story.Title,
		StoryDesc:     s.Story.Description,
		CurrentNodeID: s.Save.CurrentNodeID,
		UpdatedAt:     s.Save.UpdatedAt,
	}
}

// activeGameDTO is one entry of GET /api/player/games.
type activeGameDTO struct {
	SaveID        uuid.UUID           `json:"save_id"`
	Story         models.StorySummary `json:"story"`
	CurrentNodeID uuid.UUID           `json:"current_node_id"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toActiveGameDTOs(saves []models.SaveWithStory) []activeGameDTO {
	result := make([]activeGameDTO, 0, len(saves))
	for _, s := range saves {
		result = append(result, activeGameDTO{
			SaveID:        s.Save.ID,
			Story:         s.Story,
			CurrentNodeID: s.Save.CurrentNodeID,
			UpdatedAt:     s.Save.UpdatedAt,
		})
	}
	return result
}
