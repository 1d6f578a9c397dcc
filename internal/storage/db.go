package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MarcoRipari/SalesGenius/internal/config"
)

// Open opens a database connection for the configured driver.
func Open(cfg *config.Config) (*sql.DB, error) {
	var driver, dsn string

	switch cfg.Database.Driver {
	case "sqlite":
		driver = "sqlite3"
		dsn = cfg.Database.SQLite.Path
		if cfg.Database.SQLite.JournalMode != "" {
			dsn += "?_journal_mode=" + cfg.Database.SQLite.JournalMode
		}
	case "postgres":
		driver = "postgres"
		dsn = cfg.Database.Postgres.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
	}

	return db, nil
}

// schema holds the table definitions. Kept portable between SQLite and
// Postgres: uuid and timestamp values are bound as text-compatible types
// by both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		company_name TEXT NOT NULL,
		widget_key TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS knowledge_sources (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT,
		content TEXT NOT NULL DEFAULT '',
		content_preview TEXT,
		status TEXT NOT NULL,
		products_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_tenant ON knowledge_sources(tenant_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		price TEXT,
		price_value REAL,
		image_url TEXT,
		product_url TEXT,
		category TEXT,
		brand TEXT,
		sku TEXT,
		product_type TEXT,
		color TEXT,
		gender TEXT,
		in_stock BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_tenant ON products(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_source ON products(tenant_id, source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_attrs ON products(tenant_id, product_type, color, gender)`,
	`CREATE TABLE IF NOT EXISTS widget_configs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL UNIQUE,
		bot_name TEXT NOT NULL,
		welcome_message TEXT NOT NULL,
		primary_color TEXT NOT NULL,
		position TEXT NOT NULL,
		avatar_url TEXT,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		visitor_id TEXT NOT NULL,
		messages_count INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		last_message_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_tenant ON conversations(tenant_id, last_message_at)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_tenant ON leads(tenant_id, created_at)`,
}

// Migrate applies the schema to the database. Statements are idempotent so
// Migrate is safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
