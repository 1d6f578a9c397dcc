package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Repositories) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(context.Background(), db))

	repos := storage.NewRepositories(db)
	return NewService(repos, observability.DefaultLogger()), repos
}

func seedConversation(t *testing.T, repos *storage.Repositories, tenantID uuid.UUID, sessionID string, startedAt time.Time, messages int) {
	t.Helper()
	ctx := context.Background()

	conv := &storage.Conversation{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SessionID:     sessionID,
		VisitorID:     "v-" + sessionID,
		StartedAt:     startedAt,
		LastMessageAt: startedAt,
	}
	require.NoError(t, repos.Conversations.Create(ctx, conv))

	for i := 0; i < messages; i++ {
		role := storage.MessageRoleUser
		if i%2 == 1 {
			role = storage.MessageRoleAssistant
		}
		require.NoError(t, repos.Messages.Create(ctx, &storage.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SessionID:      sessionID,
			Role:           role,
			Content:        "messaggio",
			Timestamp:      startedAt,
		}))
	}
}

func TestOverview(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	otherTenant := uuid.New()

	now := time.Now().UTC().Truncate(24 * time.Hour).Add(6 * time.Hour)
	seedConversation(t, repos, tenantID, "s1", now, 4)
	seedConversation(t, repos, tenantID, "s2", now.AddDate(0, 0, -30), 2)
	seedConversation(t, repos, otherTenant, "s3", now, 2)

	email := "cliente@example.it"
	require.NoError(t, repos.Leads.Create(ctx, &storage.Lead{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SessionID: "s1",
		Email:     &email,
		CreatedAt: now,
	}))

	require.NoError(t, repos.Products.Create(ctx, &storage.Product{
		ID:        uuid.New(),
		SourceID:  storage.ManualSourceID,
		TenantID:  tenantID,
		Name:      "Maglione verde",
		InStock:   true,
		CreatedAt: now,
	}))

	overview, err := svc.Overview(ctx, tenantID)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.TotalConversations)
	assert.Equal(t, 1, overview.ConversationsToday)
	assert.Equal(t, 6, overview.TotalMessages)
	assert.Equal(t, 3.0, overview.AvgMessages)
	assert.Equal(t, 1, overview.TotalLeads)
	assert.Equal(t, 1, overview.TotalProducts)
	assert.Equal(t, 0, overview.TotalSources)
}

func TestOverviewEmptyTenant(t *testing.T) {
	svc, _ := newTestService(t)

	overview, err := svc.Overview(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, overview.TotalConversations)
	assert.Equal(t, 0, overview.TotalMessages)
	assert.Equal(t, 0.0, overview.AvgMessages)
}

func TestDaily(t *testing.T) {
	svc, repos := newTestService(t)
	tenantID := uuid.New()

	today := time.Now().UTC().Truncate(24 * time.Hour).Add(6 * time.Hour)
	seedConversation(t, repos, tenantID, "s1", today, 0)
	seedConversation(t, repos, tenantID, "s2", today, 0)
	seedConversation(t, repos, tenantID, "s3", today.AddDate(0, 0, -2), 0)
	seedConversation(t, repos, tenantID, "s4", today.AddDate(0, 0, -30), 0)

	points, err := svc.Daily(context.Background(), tenantID, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assert.Equal(t, 2, points[6].Conversations)
	assert.Equal(t, 1, points[4].Conversations)
	assert.Equal(t, 0, points[5].Conversations)

	// Oldest first, ISO dates.
	assert.Less(t, points[0].Date, points[6].Date)
}
