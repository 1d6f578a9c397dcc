package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

const (
	maxNameChars        = 200
	maxDescriptionChars = 500
)

// strategy is one extraction attempt over a parsed page. Strategies share a
// uniform signature and are tried in order, short-circuiting on the first
// non-empty result.
type strategy struct {
	name string
	run  func(doc *goquery.Document, page pageContext) []*storage.Product
}

// Extractor fetches storefront pages and turns them into product records.
// It is stateless apart from its HTTP client and safe for concurrent use
// across tenants.
type Extractor struct {
	logger     *observability.Logger
	client     *http.Client
	userAgent  string
	strategies []strategy
}

// NewExtractor builds an extractor with the configured fetch timeout and
// user agent. Redirects are followed with the client's default policy.
func NewExtractor(cfg config.ScraperConfig, catalogCfg config.CatalogConfig, logger *observability.Logger) *Extractor {
	maxPerGroup := catalogCfg.MaxProductsPerGroup
	templates := func(doc *goquery.Document, page pageContext) []*storage.Product {
		return extractTemplates(doc, page, maxPerGroup)
	}
	return &Extractor{
		logger:    logger,
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		userAgent: cfg.UserAgent,
		strategies: []strategy{
			{name: "structured_data", run: extractStructuredData},
			{name: "templates", run: templates},
			{name: "single_product", run: extractSingleProduct},
		},
	}
}

// pageContext carries the per-page identifiers every strategy needs.
type pageContext struct {
	URL      string
	Origin   string
	SourceID string
	TenantID uuid.UUID
}

// Extract fetches pageURL and runs the extraction strategies in order,
// returning whatever the first successful one produced. Every failure mode
// (network error, timeout, non-success status, unparsable HTML) degrades to
// an empty list; extraction never returns an error to the caller.
func (e *Extractor) Extract(ctx context.Context, pageURL, sourceID string, tenantID uuid.UUID) []*storage.Product {
	log := e.logger.WithTenant(tenantID.String()).WithOperation("extract")

	doc, err := e.fetch(ctx, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Page fetch failed, no products extracted")
		return nil
	}

	page := pageContext{
		URL:      pageURL,
		Origin:   Origin(pageURL),
		SourceID: sourceID,
		TenantID: tenantID,
	}

	for _, s := range e.strategies {
		products := s.run(doc, page)
		if len(products) == 0 {
			continue
		}
		log.Info().
			Str("url", pageURL).
			Str("strategy", s.name).
			Int("products", len(products)).
			Msg("Extraction completed")
		return products
	}

	log.Info().Str("url", pageURL).Msg("No products found on page")
	return nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

// newProduct builds a record with the shared bookkeeping every strategy
// needs: identifiers, truncation, attribute classification over the combined
// name and description, and the default in-stock flag.
func (page pageContext) newProduct(name, description string) *storage.Product {
	name = truncate(strings.TrimSpace(name), maxNameChars)
	description = truncate(strings.TrimSpace(description), maxDescriptionChars)

	attrs := Classify(name + " " + description)

	return &storage.Product{
		ID:          uuid.New(),
		SourceID:    page.SourceID,
		TenantID:    page.TenantID,
		Name:        name,
		Description: optional(description),
		ProductType: attrs.ProductType,
		Color:       attrs.Color,
		Gender:      attrs.Gender,
		InStock:     true,
		CreatedAt:   time.Now().UTC(),
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
