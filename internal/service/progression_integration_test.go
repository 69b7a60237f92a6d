package service_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"story-server/internal/service"
	"story-server/pkg/migration"
	sharedDatabase "story-server/shared/database"
	"story-server/shared/interfaces"
	sharedModels "story-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// migrationsDir is relative to internal/service.
const migrationsDir = "../../cmd/server/migrations"

// ProgressionIntegrationSuite drives the engine against real Postgres, so the
// row lock, the single-statement order assignment and the save upsert are
// exercised for real instead of being mocked away.
type ProgressionIntegrationSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	stories     interfaces.StoryRepository
	saves       interfaces.SaveRepository
	svc         service.ProgressionService
}

func (s *ProgressionIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	dbPool, err := pgxpool.New(ctx, connStr)
	require.NoError(s.T(), err)
	s.dbPool = dbPool

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   os.DirFS(migrationsDir),
	}, dbPool)
	require.NoError(s.T(), migrator.Up(ctx), "Failed to apply migrations")

	logger := zap.NewNop()
	s.stories = sharedDatabase.NewPgStoryRepository(logger)
	s.saves = sharedDatabase.NewPgSaveRepository(logger)
	txManager := sharedDatabase.NewTransactionHelper(dbPool, logger)
	s.svc = service.NewProgressionService(dbPool, txManager, s.stories, s.saves, nil, nil, time.Minute, logger)
}

func (s *ProgressionIntegrationSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}

// --- Seeding helpers --- //

func (s *ProgressionIntegrationSuite) createStory(ctx context.Context, title string) uuid.UUID {
	id := uuid.New()
	_, err := s.dbPool.Exec(ctx,
		`INSERT INTO stories (id, title, description) VALUES ($1, $2, '')`, id, title)
	require.NoError(s.T(), err)
	return id
}

func (s *ProgressionIntegrationSuite) createNode(ctx context.Context, storyID uuid.UUID, content string) uuid.UUID {
	id := uuid.New()
	_, err := s.dbPool.Exec(ctx,
		`INSERT INTO story_nodes (id, story_id, content) VALUES ($1, $2, $3)`, id, storyID, content)
	require.NoError(s.T(), err)
	return id
}

func (s *ProgressionIntegrationSuite) createChoice(ctx context.Context, nodeID uuid.UUID, text string, nextNodeID uuid.UUID) uuid.UUID {
	id := uuid.New()
	_, err := s.dbPool.Exec(ctx,
		`INSERT INTO choices (id, node_id, text, next_node_id) VALUES ($1, $2, $3, $4)`, id, nodeID, text, nextNodeID)
	require.NoError(s.T(), err)
	return id
}

func (s *ProgressionIntegrationSuite) setFirstNode(ctx context.Context, storyID, nodeID uuid.UUID) {
	_, err := s.dbPool.Exec(ctx,
		`UPDATE stories SET first_node_id = $2 WHERE id = $1`, storyID, nodeID)
	require.NoError(s.T(), err)
}

func (s *ProgressionIntegrationSuite) countSaves(ctx context.Context, playerID, storyID uuid.UUID) int {
	var count int
	err := s.dbPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM saves WHERE player_id = $1 AND story_id = $2`, playerID, storyID).Scan(&count)
	require.NoError(s.T(), err)
	return count
}

// --- Tests --- //

// Concurrent starts for the same pair end with exactly one save row; the
// unique constraint plus the upsert make the pair race-free.
func (s *ProgressionIntegrationSuite) TestConcurrentStartsKeepOneSavePerPair() {
	ctx := context.Background()
	playerID := uuid.New()
	storyID := s.createStory(ctx, "One save per pair")
	firstNode := s.createNode(ctx, storyID, "Entry")
	s.setFirstNode(ctx, storyID, firstNode)

	const starters = 8
	var wg sync.WaitGroup
	errs := make([]error, starters)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.StartStory(ctx, playerID, storyID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < starters; i++ {
		require.NoError(s.T(), errs[i])
	}
	require.Equal(s.T(), 1, s.countSaves(ctx, playerID, storyID))

	save, err := s.saves.GetByPlayerAndStory(ctx, s.dbPool, playerID, storyID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), firstNode, save.CurrentNodeID)
}

// Concurrent transitions serialize on the save's row lock; orders come out
// as a gapless 1..n sequence with no duplicates.
func (s *ProgressionIntegrationSuite) TestConcurrentChoicesKeepOrdersGapless() {
	ctx := context.Background()
	playerID := uuid.New()
	storyID := s.createStory(ctx, "Gapless orders")
	node := s.createNode(ctx, storyID, "Hub")
	// The choice loops back to its own node, so it stays valid no matter how
	// many times it has been applied.
	loopChoice := s.createChoice(ctx, node, "Stay", node)
	s.setFirstNode(ctx, storyID, node)

	_, err := s.svc.StartStory(ctx, playerID, storyID)
	require.NoError(s.T(), err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.svc.MakeChoice(ctx, playerID, storyID, loopChoice)
		}(i)
	}
	wg.Wait()

	applied := 0
	for i := 0; i < workers; i++ {
		if errs[i] == nil {
			applied++
			continue
		}
		// Retry-budget exhaustion is the only acceptable failure here.
		require.ErrorIs(s.T(), errs[i], sharedModels.ErrConflict)
	}
	require.GreaterOrEqual(s.T(), applied, 1)

	save, err := s.saves.GetByPlayerAndStory(ctx, s.dbPool, playerID, storyID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), node, save.CurrentNodeID)

	history, err := s.saves.ListChoices(ctx, s.dbPool, save.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), history, applied)
	for i, entry := range history {
		require.Equal(s.T(), i+1, entry.Order, "orders must form 1..n without gaps or duplicates")
	}

	count, err := s.saves.CountChoices(ctx, s.dbPool, save.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), applied, count)
}

// A rejected transition leaves both the cursor and the history exactly as
// they were.
func (s *ProgressionIntegrationSuite) TestRejectedChoiceLeavesSaveUntouched() {
	ctx := context.Background()
	playerID := uuid.New()
	storyID := s.createStory(ctx, "Atomic rejections")
	n1 := s.createNode(ctx, storyID, "Fork")
	n2 := s.createNode(ctx, storyID, "Left path")
	n3 := s.createNode(ctx, storyID, "Unreachable")
	forward := s.createChoice(ctx, n1, "Go left", n2)
	elsewhere := s.createChoice(ctx, n3, "Shortcut", n2)
	s.setFirstNode(ctx, storyID, n1)

	_, err := s.svc.StartStory(ctx, playerID, storyID)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.svc.MakeChoice(ctx, playerID, storyID, forward))

	// A real choice of the same story, but originating at a node the player
	// does not stand on.
	err = s.svc.MakeChoice(ctx, playerID, storyID, elsewhere)
	require.ErrorIs(s.T(), err, sharedModels.ErrInvalidChoice)

	// A choice that does not exist at all.
	err = s.svc.MakeChoice(ctx, playerID, storyID, uuid.New())
	require.ErrorIs(s.T(), err, sharedModels.ErrNotFound)

	save, err := s.saves.GetByPlayerAndStory(ctx, s.dbPool, playerID, storyID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), n2, save.CurrentNodeID)

	count, err := s.saves.CountChoices(ctx, s.dbPool, save.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, count)
}

// Restarting moves the cursor back to the first node and keeps the history.
func (s *ProgressionIntegrationSuite) TestRestartResetsCursorAndKeepsHistory() {
	ctx := context.Background()
	playerID := uuid.New()
	storyID := s.createStory(ctx, "Restart keeps history")
	n1 := s.createNode(ctx, storyID, "Start")
	n2 := s.createNode(ctx, storyID, "Second")
	forward := s.createChoice(ctx, n1, "Onward", n2)
	s.setFirstNode(ctx, storyID, n1)

	_, err := s.svc.StartStory(ctx, playerID, storyID)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.svc.MakeChoice(ctx, playerID, storyID, forward))

	restarted, err := s.svc.StartStory(ctx, playerID, storyID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), n1, restarted.Save.CurrentNodeID)
	require.Equal(s.T(), 1, s.countSaves(ctx, playerID, storyID))

	history, err := s.saves.ListChoices(ctx, s.dbPool, restarted.Save.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), history, 1)
	require.Equal(s.T(), 1, history[0].Order)

	// The kept history entry stays valid for the next run as well: the same
	// choice appends order 2, it does not reuse order 1.
	require.NoError(s.T(), s.svc.MakeChoice(ctx, playerID, storyID, forward))
	count, err := s.saves.CountChoices(ctx, s.dbPool, restarted.Save.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, count)
}

func TestProgressionIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(ProgressionIntegrationSuite))
}
