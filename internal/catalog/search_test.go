package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

func newTestResolver(t *testing.T) (*Resolver, *storage.ProductRepository) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(context.Background(), db))

	products := storage.NewProductRepository(db)
	resolver := NewResolver(products, cache.NewMemoryClient(100), config.CatalogConfig{
		MaxProductsPerGroup: 50,
		ChatSearchLimit:     6,
		MaxSearchLimit:      50,
	}, observability.DefaultLogger())

	return resolver, products
}

func seedProduct(t *testing.T, repo *storage.ProductRepository, tenantID uuid.UUID, name string, productType, color, gender string) *storage.Product {
	t.Helper()

	p := &storage.Product{
		ID:        uuid.New(),
		SourceID:  storage.ManualSourceID,
		TenantID:  tenantID,
		Name:      name,
		InStock:   true,
		CreatedAt: time.Now().UTC(),
	}
	if productType != "" {
		p.ProductType = &productType
	}
	if color != "" {
		p.Color = &color
	}
	if gender != "" {
		p.Gender = &gender
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestSearchTierOneRequiresAllDetectedAttributes(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	match := seedProduct(t, repo, tenantID, "Sneaker rosa glitter", "scarpa_sportiva", "rosa", "bambina")
	seedProduct(t, repo, tenantID, "Stivaletto rosa", "stivale", "rosa", "")

	results, err := resolver.Search(context.Background(), tenantID, "scarpa rosa da bambina", 6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].ID)
}

func TestSearchDetectedButUnmatchedReturnsEmpty(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	// A near-miss exists (boot instead of sneaker) but must never be
	// returned once a type+color query detects attributes.
	seedProduct(t, repo, tenantID, "Stivaletto rosa", "stivale", "rosa", "bambina")

	results, err := resolver.Search(context.Background(), tenantID, "scarpa rosa da bambina", 6)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTierTwoTypeOnly(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	seedProduct(t, repo, tenantID, "Maglione verde", "maglione", "verde", "")
	seedProduct(t, repo, tenantID, "Maglione blu", "maglione", "blu", "")
	seedProduct(t, repo, tenantID, "Sandalo estivo", "sandalo", "", "")

	results, err := resolver.Search(context.Background(), tenantID, "maglione", 6)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, p := range results {
		require.NotNil(t, p.ProductType)
		assert.Equal(t, "maglione", *p.ProductType)
	}
}

func TestSearchTierThreeColorOnly(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	seedProduct(t, repo, tenantID, "Articolo misterioso", "", "rosso", "")
	seedProduct(t, repo, tenantID, "Altro articolo", "", "blu", "")

	results, err := resolver.Search(context.Background(), tenantID, "qualcosa di rosso", 6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Articolo misterioso", results[0].Name)
}

func TestSearchTextFallbackAndThenOr(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	seedProduct(t, repo, tenantID, "Portachiavi artigianale toscano", "", "", "")
	seedProduct(t, repo, tenantID, "Portachiavi comune", "", "", "")

	// Both words present: the AND pass matches exactly one product.
	results, err := resolver.Search(context.Background(), tenantID, "portachiavi artigianale", 6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Portachiavi artigianale toscano", results[0].Name)

	// Only one word matches anything: the AND pass is empty, the OR pass
	// brings back every product naming either word.
	results, err = resolver.Search(context.Background(), tenantID, "portachiavi inesistente", 6)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchIgnoresStopwordsAndShortWords(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	seedProduct(t, repo, tenantID, "Portafoglio in pelle", "", "", "")

	results, err := resolver.Search(context.Background(), tenantID, "avete un portafoglio per me", 6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Portafoglio in pelle", results[0].Name)
}

func TestSearchScopedToTenant(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	seedProduct(t, repo, tenantA, "Maglione verde", "maglione", "verde", "")
	seedProduct(t, repo, tenantB, "Maglione rosso", "maglione", "rosso", "")

	results, err := resolver.Search(context.Background(), tenantA, "maglione", 6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Maglione verde", results[0].Name)
}

func TestSearchHonorsLimit(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	for i := 0; i < 10; i++ {
		seedProduct(t, repo, tenantID, "Maglione di lana", "maglione", "", "")
	}

	results, err := resolver.Search(context.Background(), tenantID, "maglione", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchEmptyQuery(t *testing.T) {
	resolver, _ := newTestResolver(t)

	results, err := resolver.Search(context.Background(), uuid.New(), "   ", 6)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCachesResults(t *testing.T) {
	resolver, repo := newTestResolver(t)
	tenantID := uuid.New()

	seedProduct(t, repo, tenantID, "Maglione verde", "maglione", "verde", "")

	first, err := resolver.Search(context.Background(), tenantID, "maglione", 6)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A product added after the first query is invisible until the tenant's
	// cache entries are invalidated.
	seedProduct(t, repo, tenantID, "Maglione blu", "maglione", "blu", "")

	cached, err := resolver.Search(context.Background(), tenantID, "maglione", 6)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	resolver.InvalidateTenant(context.Background(), tenantID)

	fresh, err := resolver.Search(context.Background(), tenantID, "maglione", 6)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "drops stopwords", query: "avete qualcosa per la pioggia", want: []string{"pioggia"}},
		{name: "drops short words", query: "un bel cappotto", want: []string{"bel", "cappotto"}},
		{name: "strips punctuation", query: "cappotto, invernale!", want: []string{"cappotto", "invernale"}},
		{name: "all filtered", query: "che un il", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.query))
		})
	}
}
