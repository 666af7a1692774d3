package integrationtests

import (
	"context"
	"testing"
	"time"

	"voiceagent-backend/internal/database"
	"voiceagent-backend/internal/history"
	"voiceagent-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func TestChatHistoryOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	connStr := setupPostgresContainer(t, ctx)

	db, err := database.NewDatabase(connStr)
	require.NoError(t, err)

	audio, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	store := history.NewStore(db, audio, "agent-audio", history.Options{RelaxAudioFilter: true})

	seed := []database.ChatHistory{
		{AgentID: "a1", SessionID: "s1", MacAddress: "AA:BB:CC:DD:EE:FF", ChatType: database.ChatTypeUser, Content: "hello", CreatedAt: time.Now().Add(-time.Hour)},
		{AgentID: "a1", SessionID: "s1", MacAddress: "AA:BB:CC:DD:EE:FF", ChatType: database.ChatTypeAgent, Content: "hi there", CreatedAt: time.Now().Add(-59 * time.Minute)},
		{AgentID: "a1", SessionID: "s2", MacAddress: "AA:BB:CC:DD:EE:FF", ChatType: database.ChatTypeUser, Content: "again", CreatedAt: time.Now()},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	page, err := store.ListSessions(ctx, "a1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.List, 2)
	assert.Equal(t, "s2", page.List[0].SessionID)

	ok, err := store.ReplaceMacAddress(ctx, "AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66")
	require.NoError(t, err)
	assert.True(t, ok)

	var remaining int64
	require.NoError(t, db.Model(&database.ChatHistory{}).
		Where("mac_address = ?", "AA:BB:CC:DD:EE:FF").
		Count(&remaining).Error)
	assert.Zero(t, remaining)

	messages, err := store.RecentConversationByDevice(ctx, "11:22:33:44:55:66")
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}
