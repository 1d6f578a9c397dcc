package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// Minimum bcrypt cost keeps hashing fast in tests.
const testBcryptCost = 4

func newTestService(t *testing.T, ttl time.Duration) (*Service, *storage.Repositories) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(context.Background(), db))

	repos := storage.NewRepositories(db)
	svc := NewService(repos, config.AuthConfig{
		SessionTTL: ttl,
		BcryptCost: testBcryptCost,
	}, observability.DefaultLogger())

	return svc, repos
}

func TestRegister(t *testing.T) {
	svc, repos := newTestService(t, time.Hour)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Negozio@Example.IT", "segreto1", "Calzature Rossi")
	require.NoError(t, err)

	assert.Equal(t, "negozio@example.it", user.Email)
	assert.Equal(t, "Calzature Rossi", user.CompanyName)
	assert.Len(t, user.WidgetKey, 8)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "segreto1", user.PasswordHash)

	// Registration seeds the widget configuration with Italian defaults.
	widget, err := repos.WidgetConfigs.GetByTenant(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Assistente", widget.BotName)
	assert.Equal(t, "bottom-right", widget.Position)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "not-an-email", "segreto1", "")
	assert.Error(t, err)

	_, _, err = svc.Register(ctx, "a@b.it", "corta", "")
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "negozio@example.it", "segreto1", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "negozio@example.it", "segreto2", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "negozio@example.it", "segreto1", "")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "negozio@example.it", "segreto1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, authed.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "negozio@example.it", "segreto1", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "negozio@example.it", "sbagliata")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "sconosciuto@example.it", "segreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, _ := newTestService(t, -time.Minute)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "negozio@example.it", "segreto1", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "negozio@example.it", "segreto1", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Logging out an unknown token is a no-op.
	assert.NoError(t, svc.Logout(ctx, "inesistente"))
}
