package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"story-server/internal/handler"
	sharedModels "story-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jwtTestSecret = "test-secret-for-handlers"

// --- Local service mocks --- //

type mockProgressionService struct {
	mock.Mock
}

func (m *mockProgressionService) StartStory(ctx context.Context, playerID, storyID uuid.UUID) (*sharedModels.SaveWithStory, error) {
	args := m.Called(ctx, playerID, storyID)
	result, _ := args.Get(0).(*sharedModels.SaveWithStory)
	return result, args.Error(1)
}
func (m *mockProgressionService) GetCurrentNode(ctx context.Context, playerID, storyID uuid.UUID) (*sharedModels.NodeWithChoices, error) {
	args := m.Called(ctx, playerID, storyID)
	node, _ := args.Get(0).(*sharedModels.NodeWithChoices)
	return node, args.Error(1)
}
func (m *mockProgressionService) GetAvailableChoices(ctx context.Context, nodeID uuid.UUID) ([]sharedModels.Choice, error) {
	args := m.Called(ctx, nodeID)
	choices, _ := args.Get(0).([]sharedModels.Choice)
	return choices, args.Error(1)
}
func (m *mockProgressionService) MakeChoice(ctx context.Context, playerID, storyID, choiceID uuid.UUID) error {
	args := m.Called(ctx, playerID, storyID, choiceID)
	return args.Error(0)
}
func (m *mockProgressionService) GetPlayerHistory(ctx context.Context, playerID uuid.UUID) ([]sharedModels.PlayerHistoryEntry, error) {
	args := m.Called(ctx, playerID)
	history, _ := args.Get(0).([]sharedModels.PlayerHistoryEntry)
	return history, args.Error(1)
}
func (m *mockProgressionService) GetUserProgress(ctx context.Context, playerID uuid.UUID) ([]sharedModels.ProgressSummary, error) {
	args := m.Called(ctx, playerID)
	progress, _ := args.Get(0).([]sharedModels.ProgressSummary)
	return progress, args.Error(1)
}
func (m *mockProgressionService) GetActiveGames(ctx context.Context, playerID uuid.UUID) ([]sharedModels.SaveWithStory, error) {
	args := m.Called(ctx, playerID)
	games, _ := args.Get(0).([]sharedModels.SaveWithStory)
	return games, args.Error(1)
}

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) GetStoryStatistics(ctx context.Context, storyID uuid.UUID) (*sharedModels.StoryStatistics, error) {
	args := m.Called(ctx, storyID)
	stats, _ := args.Get(0).(*sharedModels.StoryStatistics)
	return stats, args.Error(1)
}

// --- Test helpers --- //

func newTestServer(svc *mockProgressionService, stats *mockStatsService) *echo.Echo {
	e := echo.New()
	h := handler.NewProgressionHandler(svc, stats, zap.NewNop(), jwtTestSecret)
	h.RegisterRoutes(e)
	return e
}

func signTestToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := &sharedModels.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return token
}

func doRequest(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// --- Tests --- //

func TestAuthRequired(t *testing.T) {
	e := newTestServer(new(mockProgressionService), new(mockStatsService))
	storyID := uuid.New()

	t.Run("Missing token", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/current", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/current", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Token signed with another secret", func(t *testing.T) {
		claims := &sharedModels.Claims{
			UserID:           uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
		require.NoError(t, err)

		rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/current", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Health endpoint needs no token", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMakeChoiceEndpoint(t *testing.T) {
	playerID := uuid.New()
	storyID := uuid.New()
	choiceID := uuid.New()

	t.Run("Applied choice", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))
		svc.On("MakeChoice", mock.Anything, playerID, storyID, choiceID).Return(nil).Once()

		rec := doRequest(e, http.MethodPost, "/api/stories/"+storyID.String()+"/choice", signTestToken(t, playerID),
			map[string]string{"choice_id": choiceID.String()})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("Missing choice_id", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))

		rec := doRequest(e, http.MethodPost, "/api/stories/"+storyID.String()+"/choice", signTestToken(t, playerID),
			map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "MakeChoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Malformed story ID in path", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))

		rec := doRequest(e, http.MethodPost, "/api/stories/not-a-uuid/choice", signTestToken(t, playerID),
			map[string]string{"choice_id": choiceID.String()})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Service error mapping", func(t *testing.T) {
		cases := []struct {
			name       string
			serviceErr error
			wantStatus int
		}{
			{"no active game", sharedModels.ErrNoActiveGame, http.StatusNotFound},
			{"unknown choice", sharedModels.ErrNotFound, http.StatusNotFound},
			{"invalid choice", sharedModels.ErrInvalidChoice, http.StatusBadRequest},
			{"conflict", sharedModels.ErrConflict, http.StatusConflict},
			{"storage failure", fmt.Errorf("%w: boom", sharedModels.ErrStorageFailure), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := new(mockProgressionService)
				e := newTestServer(svc, new(mockStatsService))
				svc.On("MakeChoice", mock.Anything, playerID, storyID, choiceID).Return(tc.serviceErr).Once()

				rec := doRequest(e, http.MethodPost, "/api/stories/"+storyID.String()+"/choice", signTestToken(t, playerID),
					map[string]string{"choice_id": choiceID.String()})

				assert.Equal(t, tc.wantStatus, rec.Code)
			})
		}
	})
}

func TestStartStoryEndpoint(t *testing.T) {
	playerID := uuid.New()
	storyID := uuid.New()
	nodeID := uuid.New()

	t.Run("Started story returns the save and summary", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))
		result := &sharedModels.SaveWithStory{
			Save:  sharedModels.Save{ID: uuid.New(), PlayerID: playerID, StoryID: storyID, CurrentNodeID: nodeID},
			Story: sharedModels.StorySummary{ID: storyID, Title: "The Cave"},
		}
		svc.On("StartStory", mock.Anything, playerID, storyID).Return(result, nil).Once()

		rec := doRequest(e, http.MethodPost, "/api/stories/"+storyID.String()+"/start", signTestToken(t, playerID), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, nodeID.String(), got["current_node_id"])
		svc.AssertExpectations(t)
	})

	t.Run("Unknown story", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))
		svc.On("StartStory", mock.Anything, playerID, storyID).Return(nil, sharedModels.ErrNotFound).Once()

		rec := doRequest(e, http.MethodPost, "/api/stories/"+storyID.String()+"/start", signTestToken(t, playerID), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetCurrentNodeEndpoint(t *testing.T) {
	playerID := uuid.New()
	storyID := uuid.New()

	t.Run("No active game", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))
		svc.On("GetCurrentNode", mock.Anything, playerID, storyID).Return(nil, sharedModels.ErrNoActiveGame).Once()

		rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/current", signTestToken(t, playerID), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No active game found")
	})

	t.Run("Node with choices", func(t *testing.T) {
		svc := new(mockProgressionService)
		e := newTestServer(svc, new(mockStatsService))
		nodeID := uuid.New()
		node := &sharedModels.NodeWithChoices{
			StoryNode: sharedModels.StoryNode{ID: nodeID, StoryID: storyID, Content: "You stand at a fork."},
			Choices:   []sharedModels.Choice{{ID: uuid.New(), NodeID: nodeID, Text: "Go left", NextNodeID: uuid.New()}},
		}
		svc.On("GetCurrentNode", mock.Anything, playerID, storyID).Return(node, nil).Once()

		rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/current", signTestToken(t, playerID), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got sharedModels.NodeWithChoices
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, nodeID, got.ID)
		assert.Len(t, got.Choices, 1)
	})
}

func TestStoryStatisticsEndpoint(t *testing.T) {
	playerID := uuid.New()
	storyID := uuid.New()

	stats := new(mockStatsService)
	e := newTestServer(new(mockProgressionService), stats)
	stats.On("GetStoryStatistics", mock.Anything, storyID).
		Return(&sharedModels.StoryStatistics{NodeCount: 3, ChoiceCount: 5, SaveCount: 2}, nil).Once()

	rec := doRequest(e, http.MethodGet, "/api/stories/"+storyID.String()+"/statistics", signTestToken(t, playerID), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"node_count":3,"choice_count":5,"save_count":2}`, rec.Body.String())
	stats.AssertExpectations(t)
}
