package knowledge

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

const storefrontHTML = `<html><head>
<title>Calzature Rossi</title>
<script type="application/ld+json">{
	"@type": "ItemList",
	"itemListElement": [
		{"@type": "ListItem", "item": {"@type": "Product", "name": "Stivaletto rosa da bambina", "url": "/p/stivaletto"}},
		{"@type": "ListItem", "item": {"@type": "Product", "name": "Sandalo blu da donna", "url": "/p/sandalo"}}
	]
}</script>
</head><body><p>Spedizione gratuita sopra i 50 euro. Reso entro 30 giorni.</p></body></html>`

func newTestService(t *testing.T) (*Service, *storage.Repositories) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(context.Background(), db))

	logger := observability.DefaultLogger()
	repos := storage.NewRepositories(db)

	scraperCfg := config.ScraperConfig{
		FetchTimeout:    5 * time.Second,
		UserAgent:       "SalesGeniusBot/1.0",
		MaxContentChars: 10000,
		PreviewChars:    200,
	}
	extractor := catalog.NewExtractor(scraperCfg, config.DefaultConfig().Catalog, logger)
	resolver := catalog.NewResolver(repos.Products, cache.NewMemoryClient(100), config.CatalogConfig{MaxSearchLimit: 50}, logger)

	return NewService(repos, extractor, resolver, scraperCfg, logger), repos
}

func serveStorefront(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(storefrontHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAddURLSource(t *testing.T) {
	svc, repos := newTestService(t)
	srv := serveStorefront(t)
	ctx := context.Background()
	tenantID := uuid.New()

	source, err := svc.AddURLSource(ctx, tenantID, srv.URL, "Sito principale")
	require.NoError(t, err)

	assert.Equal(t, storage.SourceTypeURL, source.Type)
	assert.Equal(t, storage.SourceStatusActive, source.Status)
	assert.Equal(t, 2, source.ProductsCount)
	assert.Contains(t, source.Content, "Spedizione gratuita")
	require.NotNil(t, source.ContentPreview)

	products, err := repos.Products.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.Equal(t, source.ID.String(), p.SourceID)
	}

	stored, err := repos.Sources.GetByID(ctx, tenantID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ProductsCount)
}

func TestAddURLSourceUnreachable(t *testing.T) {
	svc, _ := newTestService(t)
	srv := serveStorefront(t)
	url := srv.URL
	srv.Close()

	source, err := svc.AddURLSource(context.Background(), uuid.New(), url, "")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceStatusError, source.Status)
	assert.Equal(t, 0, source.ProductsCount)
}

func TestAddURLSourcePrependsScheme(t *testing.T) {
	svc, _ := newTestService(t)

	// The host does not resolve; the source is still recorded with the
	// normalized https URL and error status.
	source, err := svc.AddURLSource(context.Background(), uuid.New(), "negozio-inesistente.invalid", "")
	require.NoError(t, err)
	require.NotNil(t, source.URL)
	assert.Equal(t, "https://negozio-inesistente.invalid", *source.URL)
	assert.Equal(t, storage.SourceStatusError, source.Status)
}

func TestAddDocumentSource(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	source, err := svc.AddDocumentSource(ctx, tenantID, "Listino 2026.pdf", "Prezzi validi fino a dicembre.")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceTypePDF, source.Type)
	assert.Equal(t, storage.SourceStatusActive, source.Status)
	assert.Equal(t, 0, source.ProductsCount)

	_, err = svc.AddDocumentSource(ctx, tenantID, "", "")
	assert.Error(t, err)
}

func TestDeleteSourceCascades(t *testing.T) {
	svc, repos := newTestService(t)
	srv := serveStorefront(t)
	ctx := context.Background()
	tenantID := uuid.New()

	source, err := svc.AddURLSource(ctx, tenantID, srv.URL, "")
	require.NoError(t, err)

	// A manual product must survive the cascade.
	manual := &storage.Product{
		ID:        uuid.New(),
		SourceID:  storage.ManualSourceID,
		TenantID:  tenantID,
		Name:      "Prodotto manuale",
		InStock:   true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Products.Create(ctx, manual))

	require.NoError(t, svc.Delete(ctx, tenantID, source.ID))

	products, err := repos.Products.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Prodotto manuale", products[0].Name)

	_, err = repos.Sources.GetByID(ctx, tenantID, source.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteSourceNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRescanReplacesProducts(t *testing.T) {
	svc, repos := newTestService(t)
	srv := serveStorefront(t)
	ctx := context.Background()
	tenantID := uuid.New()

	source, err := svc.AddURLSource(ctx, tenantID, srv.URL, "")
	require.NoError(t, err)

	before, err := repos.Products.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, before, 2)

	count, err := svc.Rescan(ctx, tenantID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	after, err := repos.Products.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, after, 2)

	// Identifiers are not stable across rescans: the old rows are gone.
	for _, p := range after {
		assert.NotEqual(t, before[0].ID, p.ID)
		assert.NotEqual(t, before[1].ID, p.ID)
	}
}

func TestRescanRejectsDocumentSources(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	source, err := svc.AddDocumentSource(ctx, tenantID, "Listino.pdf", "contenuto")
	require.NoError(t, err)

	_, err = svc.Rescan(ctx, tenantID, source.ID)
	assert.ErrorIs(t, err, ErrNotURLSource)
}

func TestGroundingText(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.AddDocumentSource(ctx, tenantID, "Resi", "Reso gratuito entro 30 giorni.")
	require.NoError(t, err)
	_, err = svc.AddDocumentSource(ctx, tenantID, "Spedizioni", "Spedizione in 48 ore.")
	require.NoError(t, err)

	text, err := svc.GroundingText(ctx, tenantID, 3000)
	require.NoError(t, err)
	assert.Contains(t, text, "## Resi")
	assert.Contains(t, text, "Reso gratuito")
	assert.Contains(t, text, "## Spedizioni")

	// The bound is honored.
	short, err := svc.GroundingText(ctx, tenantID, 40)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(short), 40)
}
