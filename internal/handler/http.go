package handler

import (
	"errors"
	"fmt"
	"net/http"

	"story-server/internal/service"
	"story-server/shared/authutils"
	sharedMiddleware "story-server/shared/middleware"
	sharedModels "story-server/shared/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// ProgressionHandler serves the HTTP surface of the progression engine.
type ProgressionHandler struct {
	service           service.ProgressionService
	stats             service.StatsService
	logger            *zap.Logger
	userTokenVerifier *authutils.JWTVerifier
}

// NewProgressionHandler creates the handler with a JWT verifier for player
// tokens.
func NewProgressionHandler(s service.ProgressionService, stats service.StatsService, logger *zap.Logger, jwtSecret string) *ProgressionHandler {
	userVerifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create User JWT Verifier", zap.Error(err))
	}

	return &ProgressionHandler{
		service:           s,
		stats:             stats,
		logger:            logger.Named("ProgressionHandler"),
		userTokenVerifier: userVerifier,
	}
}

// RegisterRoutes registers the progression routes.
func (h *ProgressionHandler) RegisterRoutes(e *echo.Echo) {
	authMiddleware := echo.WrapMiddleware(sharedMiddleware.AuthMiddleware(h.userTokenVerifier.VerifyToken, h.logger))

	api := e.Group("/api", authMiddleware)
	{
		api.POST("/stories/:story_id/start", h.startStory)
		api.GET("/stories/:story_id/current", h.getCurrentNode)
		api.POST("/stories/:story_id/choice", h.makeChoice)
		api.GET("/stories/:story_id/statistics", h.getStoryStatistics)
		api.GET("/nodes/:node_id/choices", h.getAvailableChoices)
		api.GET("/player/history", h.getPlayerHistory)
		api.GET("/player/progress", h.getUserProgress)
		api.GET("/player/games", h.getActiveGames)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// getUserIDFromContext extracts the verified player ID placed by the auth
// middleware.
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := sharedModels.GetUserIDFromContext(c.Request().Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("user_id not found in request context")
	}
	return userID, nil
}

// parseUUIDParam parses a path parameter as a UUID.
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// handleServiceError maps engine errors to HTTP responses. Every failure of
// the engine falls into exactly one branch here.
func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, sharedModels.ErrNoActiveGame):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "No active game found"}
	case errors.Is(err, sharedModels.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, sharedModels.ErrInvalidChoice):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, sharedModels.ErrConflict):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, sharedModels.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, sharedModels.ErrStorageFailure):
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Storage temporarily unavailable"}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}
