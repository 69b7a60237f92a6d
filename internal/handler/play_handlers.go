package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// startStory handles POST /api/stories/:story_id/start.
// Starting an already-started story resets the cursor to the first node and
// keeps the history.
func (h *ProgressionHandler) startStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	result, err := h.service.StartStory(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toStartStoryResponse(result))
}

// getCurrentNode handles GET /api/stories/:story_id/current.
func (h *ProgressionHandler) getCurrentNode(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	node, err := h.service.GetCurrentNode(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, node)
}

// getAvailableChoices handles GET /api/nodes/:node_id/choices.
func (h *ProgressionHandler) getAvailableChoices(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	nodeID, err := parseUUIDParam(c, "node_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	choices, err := h.service.GetAvailableChoices(c.Request().Context(), nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, choices)
}

// makeChoice handles POST /api/stories/:story_id/choice.
func (h *ProgressionHandler) makeChoice(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	var req makeChoiceRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind makeChoice request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	if req.ChoiceID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "choice_id is required"})
	}

	if err := h.service.MakeChoice(c.Request().Context(), userID, storyID, req.ChoiceID); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, makeChoiceResponse{Success: true})
}

// getPlayerHistory handles GET /api/player/history.
func (h *ProgressionHandler) getPlayerHistory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}

	history, err := h.service.GetPlayerHistory(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

// getUserProgress handles GET /api/player/progress.
func (h *ProgressionHandler) getUserProgress(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}

	progress, err := h.service.GetUserProgress(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// getActiveGames handles GET /api/player/games.
func (h *ProgressionHandler) getActiveGames(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}

	games, err := h.service.GetActiveGames(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toActiveGameDTOs(games))
}

// getStoryStatistics handles GET /api/stories/:story_id/statistics.
func (h *ProgressionHandler) getStoryStatistics(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	stats, err := h.stats.GetStoryStatistics(c.Request().Context(), storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
