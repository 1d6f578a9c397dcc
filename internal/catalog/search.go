package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// searchCacheTTL bounds how long a resolved query stays cached. Rescans and
// product edits invalidate the tenant's entries eagerly, so the TTL only
// covers cache backends shared across processes.
const searchCacheTTL = 5 * time.Minute

// Italian filler words excluded from text-search tokenization.
var stopwords = map[string]struct{}{
	"che": {}, "con": {}, "come": {}, "cosa": {}, "dei": {}, "del": {},
	"della": {}, "delle": {}, "dove": {}, "gli": {}, "hai": {}, "per": {},
	"più": {}, "qualcosa": {}, "quale": {}, "quali": {}, "sono": {},
	"una": {}, "uno": {}, "voglio": {}, "vorrei": {}, "cerco": {},
	"avete": {}, "vendete": {}, "mostrami": {}, "the": {}, "and": {},
	"for": {}, "have": {}, "you": {}, "want": {}, "looking": {},
}

// Resolver answers shopper queries against a tenant's catalog with a strict
// attribute-first cascade: exact attribute filters when the classifier
// detects anything, lexical search only when it detects nothing. Detected
// attributes that match zero products yield an empty result on purpose, so
// the assistant reports no availability instead of substituting near-misses.
type Resolver struct {
	products *storage.ProductRepository
	cache    cache.Client
	logger   *observability.Logger
	maxLimit int
}

func NewResolver(products *storage.ProductRepository, cacheClient cache.Client, cfg config.CatalogConfig, logger *observability.Logger) *Resolver {
	return &Resolver{
		products: products,
		cache:    cacheClient,
		logger:   logger,
		maxLimit: cfg.MaxSearchLimit,
	}
}

// Search resolves a free-text query to catalog products, capped at limit.
func (r *Resolver) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*storage.Product, error) {
	if limit <= 0 || limit > r.maxLimit {
		limit = r.maxLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	log := r.logger.WithTenant(tenantID.String()).WithOperation("catalog_search")

	cacheKey := searchKey(tenantID, query, limit)
	if cached, err := r.cache.Get(ctx, cacheKey); err == nil {
		var products []*storage.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
	}

	attrs := Classify(query)
	products, tier, err := r.resolve(ctx, tenantID, query, attrs, limit)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("query", query).
		Str("tier", tier).
		Int("results", len(products)).
		Msg("Catalog query resolved")

	if encoded, err := json.Marshal(products); err == nil {
		_ = r.cache.Set(ctx, cacheKey, encoded, searchCacheTTL)
	}

	return products, nil
}

func (r *Resolver) resolve(ctx context.Context, tenantID uuid.UUID, query string, attrs Attributes, limit int) ([]*storage.Product, string, error) {
	switch {
	case attrs.ProductType != nil && attrs.Color != nil:
		products, err := r.products.FindByAttributes(ctx, tenantID, storage.AttributeFilter{
			ProductType: attrs.ProductType,
			Color:       attrs.Color,
			Gender:      attrs.Gender,
		}, limit)
		return products, "type_color", err

	case attrs.ProductType != nil:
		products, err := r.products.FindByAttributes(ctx, tenantID, storage.AttributeFilter{
			ProductType: attrs.ProductType,
			Gender:      attrs.Gender,
		}, limit)
		return products, "type", err

	case attrs.Color != nil:
		products, err := r.products.FindByAttributes(ctx, tenantID, storage.AttributeFilter{
			Color:  attrs.Color,
			Gender: attrs.Gender,
		}, limit)
		return products, "color", err
	}

	return r.textSearch(ctx, tenantID, query, limit)
}

// textSearch is the last tier: substring conditions per token over
// name/description/category, requiring all tokens first and relaxing to any
// token when the conjunction matches nothing.
func (r *Resolver) textSearch(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*storage.Product, string, error) {
	words := tokenize(query)
	if len(words) == 0 {
		return nil, "text", nil
	}

	products, err := r.products.SearchText(ctx, tenantID, words, true, limit)
	if err != nil {
		return nil, "text_all", err
	}
	if len(products) > 0 {
		return products, "text_all", nil
	}

	products, err = r.products.SearchText(ctx, tenantID, words, false, limit)
	return products, "text_any", err
}

// InvalidateTenant drops every cached query result for a tenant. Called
// after rescans and manual catalog edits.
func (r *Resolver) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	if err := r.cache.DeleteByPrefix(ctx, cache.TenantKey(tenantID.String(), "search")); err != nil {
		r.logger.WithTenant(tenantID.String()).Warn().Err(err).Msg("Failed to invalidate search cache")
	}
}

func searchKey(tenantID uuid.UUID, query string, limit int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return cache.TenantKey(tenantID.String(), "search", normalized, strconv.Itoa(limit))
}

// tokenize splits query text into lowercase words longer than 2 characters,
// excluding stopwords.
func tokenize(query string) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		word := strings.Trim(field, ".,;:!?\"'()")
		if len([]rune(word)) <= 2 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		words = append(words, word)
	}
	return words
}
