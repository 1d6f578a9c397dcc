package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// appContext bundles the wired services a command works with.
type appContext struct {
	cfg       *config.Config
	db        *sql.DB
	repos     *storage.Repositories
	resolver  *catalog.Resolver
	knowledge *knowledge.Service
}

func (a *appContext) Close() {
	_ = a.db.Close()
}

// openApp loads configuration, opens the database and wires the services
// the CLI commands use. Callers must Close the returned context.
func openApp(ctx context.Context) (*appContext, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       logLevel,
		Format:      "console",
		ServiceName: "salesgenius-cli",
	})

	db, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repos := storage.NewRepositories(db)
	cacheClient := cache.NewMemoryClient(cfg.Cache.MaxEntries)
	extractor := catalog.NewExtractor(cfg.Scraper, cfg.Catalog, logger)
	resolver := catalog.NewResolver(repos.Products, cacheClient, cfg.Catalog, logger)
	knowledgeSvc := knowledge.NewService(repos, extractor, resolver, cfg.Scraper, logger)

	return &appContext{
		cfg:       cfg,
		db:        db,
		repos:     repos,
		resolver:  resolver,
		knowledge: knowledgeSvc,
	}, nil
}

// resolveTenant accepts either a tenant UUID or an account email.
func resolveTenant(ctx context.Context, repos *storage.Repositories, idOrEmail string) (uuid.UUID, error) {
	if idOrEmail == "" {
		return uuid.Nil, fmt.Errorf("tenant is required, pass --tenant with a tenant ID or account email")
	}

	if id, err := uuid.Parse(idOrEmail); err == nil {
		return id, nil
	}

	user, err := repos.Users.GetByEmail(ctx, idOrEmail)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup account %q: %w", idOrEmail, err)
	}
	return user.ID, nil
}

// formatPrice renders a product price for terminal display.
func formatPrice(p *storage.Product) string {
	if p.PriceValue != nil {
		return catalog.FormatPrice(*p.PriceValue)
	}
	if p.Price != nil {
		return *p.Price
	}
	return "n/d"
}
