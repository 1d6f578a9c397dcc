package storage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func testUser(email, widgetKey string) *User {
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		CompanyName:  "Calzature Rossi",
		WidgetKey:    widgetKey,
	}
}

func TestUserCreateDuplicateEmailIsConflict(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("negozio@example.it", "abcd1234")))

	err := repo.Create(ctx, testUser("negozio@example.it", "efgh5678"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMessageListRecentBySession(t *testing.T) {
	repo := NewMessageRepository(newTestDB(t))
	ctx := context.Background()

	convID := uuid.New()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Create(ctx, &Message{
			ConversationID: convID,
			SessionID:      "sess-1",
			Role:           MessageRoleUser,
			Content:        fmt.Sprintf("messaggio %d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// Only the newest messages come back, still oldest first.
	messages, err := repo.ListRecentBySession(ctx, "sess-1", 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "messaggio 4", messages[0].Content)
	assert.Equal(t, "messaggio 5", messages[1].Content)
	assert.Equal(t, "messaggio 6", messages[2].Content)

	// A limit beyond the session size returns everything.
	messages, err = repo.ListRecentBySession(ctx, "sess-1", 50)
	require.NoError(t, err)
	assert.Len(t, messages, 7)
}

func TestUserCreateDuplicateWidgetKeyIsConflict(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("primo@example.it", "abcd1234")))

	err := repo.Create(ctx, testUser("secondo@example.it", "abcd1234"))
	assert.ErrorIs(t, err, ErrConflict)
}
