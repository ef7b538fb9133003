package repo_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/gsqlai/internal/config"
	"github.com/xxxsen/gsqlai/internal/db"
	"github.com/xxxsen/gsqlai/internal/model"
	appErr "github.com/xxxsen/gsqlai/internal/pkg/errors"
	"github.com/xxxsen/gsqlai/internal/repo"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "gsqlai",
		Password: "gsqlai_pass",
		DBName:   "gsqlai_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func TestGenerationRepoCreateListDelete(t *testing.T) {
	conn := openTestDB(t)
	generations := repo.NewGenerationRepo(conn)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	for i, ctime := range []int64{1000, 2000, 3000} {
		require.NoError(t, generations.Create(ctx, &model.GenerationRecord{
			ID:              uuid.NewString(),
			UserID:          userID,
			Kind:            model.GenerationKindGenerate,
			PromptHash:      "hash",
			ChunksRetrieved: i,
			Confidence:      50,
			Outcome:         model.OutcomeOK,
			LatencyMs:       12,
			Ctime:           ctime,
		}))
	}

	items, err := generations.ListByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, int64(3000), items[0].Ctime)
	require.Equal(t, int64(2000), items[1].Ctime)

	other, err := generations.ListByUser(ctx, "user-"+uuid.NewString(), 10)
	require.NoError(t, err)
	require.Empty(t, other)

	dup := items[0]
	require.ErrorIs(t, generations.Create(ctx, &dup), appErr.ErrConflict)

	deleted, err := generations.DeleteBefore(ctx, 2500)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(2))

	items, err = generations.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
