// Package knowledge manages a tenant's knowledge sources: scanned URLs and
// uploaded documents. URL sources feed the catalog through the extraction
// pipeline and every source contributes a text excerpt to the chat grounding
// prompt.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// maxFetchBytes caps how much of a page is read for the knowledge excerpt.
const maxFetchBytes = 5 * 1024 * 1024

// maxDocumentChars caps the stored text of an uploaded document.
const maxDocumentChars = 15000

var ErrNotURLSource = errors.New("source is not a URL source")

// Service owns the knowledge source lifecycle. Deleting or rescanning a
// source replaces its product set wholesale; product identifiers are not
// stable across rescans.
type Service struct {
	sources   *storage.SourceRepository
	products  *storage.ProductRepository
	extractor *catalog.Extractor
	resolver  *catalog.Resolver
	client    *http.Client
	cfg       config.ScraperConfig
	logger    *observability.Logger
}

func NewService(repos *storage.Repositories, extractor *catalog.Extractor, resolver *catalog.Resolver, cfg config.ScraperConfig, logger *observability.Logger) *Service {
	return &Service{
		sources:   repos.Sources,
		products:  repos.Products,
		extractor: extractor,
		resolver:  resolver,
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		cfg:       cfg,
		logger:    logger,
	}
}

// AddURLSource registers a site URL, captures its text excerpt, and scans it
// for products. A fetch failure still records the source, marked with error
// status, so the dashboard can show what went wrong.
func (s *Service) AddURLSource(ctx context.Context, tenantID uuid.UUID, rawURL, name string) (*storage.KnowledgeSource, error) {
	pageURL := normalizeURL(rawURL)
	if pageURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if name == "" {
		name = pageURL
	}

	log := s.logger.WithTenant(tenantID.String()).WithOperation("add_source")

	source := &storage.KnowledgeSource{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Type:      storage.SourceTypeURL,
		Name:      truncate(name, 200),
		URL:       &pageURL,
		Status:    storage.SourceStatusActive,
		CreatedAt: time.Now().UTC(),
	}

	excerpt, err := s.fetchExcerpt(ctx, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Knowledge excerpt fetch failed")
		source.Status = storage.SourceStatusError
	} else {
		source.Content = truncate(excerpt, s.cfg.MaxContentChars)
		source.ContentPreview = preview(excerpt, s.cfg.PreviewChars)
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	count := s.scanProducts(ctx, source)
	source.ProductsCount = count
	log.Info().Str("url", pageURL).Int("products", count).Msg("Knowledge source added")

	return source, nil
}

// AddDocumentSource registers an uploaded document's extracted text. Document
// sources only contribute grounding text, never catalog products.
func (s *Service) AddDocumentSource(ctx context.Context, tenantID uuid.UUID, name, content string) (*storage.KnowledgeSource, error) {
	content = strings.TrimSpace(content)
	if name == "" || content == "" {
		return nil, fmt.Errorf("name and content are required")
	}

	source := &storage.KnowledgeSource{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Type:           storage.SourceTypePDF,
		Name:           truncate(name, 200),
		Content:        truncate(content, maxDocumentChars),
		ContentPreview: preview(content, s.cfg.PreviewChars),
		Status:         storage.SourceStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	s.logger.WithTenant(tenantID.String()).Info().Str("name", source.Name).Msg("Document source added")
	return source, nil
}

// List returns the tenant's sources, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]*storage.KnowledgeSource, error) {
	return s.sources.ListByTenant(ctx, tenantID, limit)
}

// Delete removes a source and every product it produced.
func (s *Service) Delete(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	if _, err := s.sources.GetByID(ctx, tenantID, sourceID); err != nil {
		return err
	}

	removed, err := s.products.DeleteBySource(ctx, tenantID, sourceID.String())
	if err != nil {
		return fmt.Errorf("deleting source products: %w", err)
	}
	if err := s.sources.Delete(ctx, tenantID, sourceID); err != nil {
		return err
	}

	s.resolver.InvalidateTenant(ctx, tenantID)
	s.logger.WithTenant(tenantID.String()).Info().
		Str("source_id", sourceID.String()).
		Int64("products_removed", removed).
		Msg("Knowledge source deleted")
	return nil
}

// Rescan re-extracts products for a URL source, replacing the previous set.
// Returns the new product count.
func (s *Service) Rescan(ctx context.Context, tenantID, sourceID uuid.UUID) (int, error) {
	source, err := s.sources.GetByID(ctx, tenantID, sourceID)
	if err != nil {
		return 0, err
	}
	if source.Type != storage.SourceTypeURL || source.URL == nil {
		return 0, ErrNotURLSource
	}

	if _, err := s.products.DeleteBySource(ctx, tenantID, sourceID.String()); err != nil {
		return 0, fmt.Errorf("clearing source products: %w", err)
	}

	count := s.scanProducts(ctx, source)
	s.logger.WithTenant(tenantID.String()).Info().
		Str("source_id", sourceID.String()).
		Int("products", count).
		Msg("Knowledge source rescanned")
	return count, nil
}

// GroundingText concatenates the tenant's active source excerpts for the
// chat prompt, bounded by maxChars.
func (s *Service) GroundingText(ctx context.Context, tenantID uuid.UUID, maxChars int) (string, error) {
	sources, err := s.sources.ListActiveByTenant(ctx, tenantID, 20)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, source := range sources {
		if source.Content == "" {
			continue
		}
		section := "## " + source.Name + "\n" + source.Content + "\n\n"
		if b.Len()+len(section) > maxChars {
			remaining := maxChars - b.Len()
			if remaining > 0 {
				b.WriteString(section[:remaining])
			}
			break
		}
		b.WriteString(section)
	}
	return strings.TrimSpace(b.String()), nil
}

// scanProducts runs extraction for a URL source and stores the results.
// Extraction never fails; an unreachable page simply yields zero products.
func (s *Service) scanProducts(ctx context.Context, source *storage.KnowledgeSource) int {
	if source.Type != storage.SourceTypeURL || source.URL == nil {
		return 0
	}

	products := s.extractor.Extract(ctx, *source.URL, source.ID.String(), source.TenantID)
	if len(products) > 0 {
		if err := s.products.CreateBatch(ctx, products); err != nil {
			s.logger.WithTenant(source.TenantID.String()).Error().Err(err).Msg("Failed to store extracted products")
			return 0
		}
	}

	if err := s.sources.UpdateProductsCount(ctx, source.TenantID, source.ID, len(products)); err != nil {
		s.logger.WithTenant(source.TenantID.String()).Warn().Err(err).Msg("Failed to update products count")
	}
	s.resolver.InvalidateTenant(ctx, source.TenantID)
	return len(products)
}

// fetchExcerpt downloads a page and converts it to a markdown excerpt.
func (s *Service) fetchExcerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting page: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func preview(s string, limit int) *string {
	p := truncate(s, limit)
	if p == "" {
		return nil
	}
	return &p
}
