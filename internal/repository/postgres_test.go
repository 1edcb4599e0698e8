package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/streamhub-systems/streamhub/internal/models"
)

// setupTestDatabase starts a PostgreSQL testcontainer and applies the schema.
// Set STREAMHUB_SKIP_DOCKER_TESTS=1 to skip when no docker daemon is around.
func setupTestDatabase(t *testing.T) (*PostgresRepository, func()) {
	t.Helper()
	if os.Getenv("STREAMHUB_SKIP_DOCKER_TESTS") != "" {
		t.Skip("skipping docker-backed repository tests")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("streamhub_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to create repository: %v", err)
	}

	cleanup := func() {
		repo.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return repo, cleanup
}

func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

func TestPostgresRepository_SubmitLifecycle(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	streamID := models.StreamIDFromGenesis("G")
	stream := &models.Stream{
		StreamID: streamID,
		DappID:   uuid.New(),
		Tip:      "G",
		Content:  json.RawMessage(`{"title":"hello"}`),
	}
	folder := &models.IndexFolder{
		StreamID: streamID,
		Tip:      "G",
		Signal:   json.RawMessage(`{"streamId":"` + streamID + `","tip":"G"}`),
	}

	t.Run("create stream", func(t *testing.T) {
		require.NoError(t, repo.CreateStream(ctx, stream, genesisEvent("G"), folder))

		err := repo.CreateStream(ctx, stream, genesisEvent("G"), folder)
		assert.ErrorIs(t, err, ErrStreamExists)

		got, err := repo.GetStream(ctx, streamID)
		require.NoError(t, err)
		assert.Equal(t, "G", got.Tip)
		assert.JSONEq(t, `{"title":"hello"}`, string(got.Content))
	})

	t.Run("event round trip with blocks array", func(t *testing.T) {
		ev := &models.Event{
			CID:     "A",
			Prev:    strPtr("G"),
			Genesis: "G",
			Blocks:  [][]byte{[]byte(`{"content":{"title":"v2"}}`), []byte{0x01, 0x02}},
		}
		require.NoError(t, repo.InsertEvent(ctx, ev))
		require.NoError(t, repo.InsertEvent(ctx, ev)) // duplicate is a no-op

		got, err := repo.GetEvent(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, ev.Blocks, got.Blocks)
		assert.Equal(t, "G", got.PrevCID())
	})

	t.Run("advance tip", func(t *testing.T) {
		swap, err := repo.AdvanceTip(ctx, childEvent("B", "G", "G"), streamID, "G",
			json.RawMessage(`{"title":"v2"}`), json.RawMessage(`{"streamId":"`+streamID+`","tip":"B"}`))
		require.NoError(t, err)
		assert.True(t, swap.Swapped)

		s, err := repo.GetStream(ctx, streamID)
		require.NoError(t, err)
		f, err := repo.GetIndexFolder(ctx, streamID)
		require.NoError(t, err)
		assert.Equal(t, "B", s.Tip)
		assert.Equal(t, s.Tip, f.Tip)
	})

	t.Run("stale advance stores event, tip unchanged", func(t *testing.T) {
		swap, err := repo.AdvanceTip(ctx, childEvent("C", "G", "G"), streamID, "G",
			json.RawMessage(`{}`), json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.False(t, swap.Swapped)
		assert.Equal(t, "B", swap.Tip)

		_, err = repo.GetEvent(ctx, "C")
		require.NoError(t, err)

		f, err := repo.GetIndexFolder(ctx, streamID)
		require.NoError(t, err)
		assert.Equal(t, "B", f.Tip)
	})

	t.Run("query by signal", func(t *testing.T) {
		ids, err := repo.QueryBySignal(ctx, json.RawMessage(`{"streamId":"`+streamID+`"}`), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{streamID}, ids)

		ids, err = repo.QueryBySignal(ctx, json.RawMessage(`{"streamId":"nope"}`), 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("events with empty blocks rejected by schema", func(t *testing.T) {
		err := repo.InsertEvent(ctx, &models.Event{CID: "Z", Genesis: "Z", Blocks: [][]byte{}})
		require.Error(t, err)
	})
}
