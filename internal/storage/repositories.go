package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
	ErrExpired  = errors.New("session expired")
)

// uniqueViolation reports whether err is a unique-constraint violation from
// either supported driver.
func uniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// UserRepository handles user account CRUD operations.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user account.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, company_name, widget_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.CompanyName,
		user.WidgetKey, user.CreatedAt,
	)
	if uniqueViolation(err) {
		return ErrConflict
	}
	return err
}

const userColumns = `id, email, password_hash, company_name, widget_key, created_at`

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CompanyName,
		&user.WidgetKey, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByWidgetKey retrieves a user by widget key.
func (r *UserRepository) GetByWidgetKey(ctx context.Context, widgetKey string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE widget_key = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, widgetKey))
}

// SessionRepository handles bearer session persistence.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	session.CreatedAt = time.Now()

	query := `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	return err
}

// Get retrieves a session by token. Expired sessions return ErrExpired.
func (r *SessionRepository) Get(ctx context.Context, token string) (*Session, error) {
	query := `SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`
	session := &Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrExpired
	}
	return session, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// SourceRepository handles knowledge source CRUD operations.
type SourceRepository struct {
	db DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create creates a new knowledge source.
func (r *SourceRepository) Create(ctx context.Context, source *KnowledgeSource) error {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	source.CreatedAt = time.Now()

	query := `
		INSERT INTO knowledge_sources (id, tenant_id, type, name, url, content,
			content_preview, status, products_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		source.ID, source.TenantID, source.Type, source.Name, source.URL,
		source.Content, source.ContentPreview, source.Status,
		source.ProductsCount, source.CreatedAt,
	)
	return err
}

const sourceColumns = `id, tenant_id, type, name, url, content, content_preview,
	status, products_count, created_at`

func scanSource(scan func(dest ...interface{}) error) (*KnowledgeSource, error) {
	source := &KnowledgeSource{}
	err := scan(
		&source.ID, &source.TenantID, &source.Type, &source.Name, &source.URL,
		&source.Content, &source.ContentPreview, &source.Status,
		&source.ProductsCount, &source.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return source, err
}

// GetByID retrieves a source by ID with tenant scoping.
func (r *SourceRepository) GetByID(ctx context.Context, tenantID, sourceID uuid.UUID) (*KnowledgeSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM knowledge_sources WHERE id = $1 AND tenant_id = $2`
	return scanSource(r.db.QueryRowContext(ctx, query, sourceID, tenantID).Scan)
}

// ListByTenant lists all sources for a tenant, newest first.
func (r *SourceRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*KnowledgeSource, error) {
	query := `
		SELECT ` + sourceColumns + `
		FROM knowledge_sources
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*KnowledgeSource
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// ListActiveByTenant lists active sources for a tenant for chat grounding.
func (r *SourceRepository) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*KnowledgeSource, error) {
	query := `
		SELECT ` + sourceColumns + `
		FROM knowledge_sources
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, SourceStatusActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*KnowledgeSource
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// CountByTenant counts a tenant's knowledge sources.
func (r *SourceRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_sources WHERE tenant_id = $1`,
		tenantID,
	).Scan(&count)
	return count, err
}

// UpdateProductsCountsets the cached products_count summary of a source.
func (r *SourceRepository) UpdateProductsCount(ctx context.Context, tenantID, sourceID uuid.UUID, count int) error {
	query := `UPDATE knowledge_sources SET products_count = $1 WHERE id = $2 AND tenant_id = $3`
	result, err := r.db.ExecContext(ctx, query, count, sourceID, tenantID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a source. The caller is responsible for cascading the
// delete to the source's products.
func (r *SourceRepository) Delete(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM knowledge_sources WHERE id = $1 AND tenant_id = $2`,
		sourceID, tenantID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AttributeFilter holds the detected semantic attributes used by the
// catalog resolver's exact-match tiers. Nil fields are unconstrained.
type AttributeFilter struct {
	ProductType *string
	Color       *string
	Gender      *string
}

// ProductRepository handles product CRUD and filtered reads.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, source_id, tenant_id, name, description, price,
	price_value, image_url, product_url, category, brand, sku,
	product_type, color, gender, in_stock, created_at`

func scanProduct(scan func(dest ...interface{}) error) (*Product, error) {
	p := &Product{}
	err := scan(
		&p.ID, &p.SourceID, &p.TenantID, &p.Name, &p.Description, &p.Price,
		&p.PriceValue, &p.ImageURL, &p.ProductURL, &p.Category, &p.Brand,
		&p.SKU, &p.ProductType, &p.Color, &p.Gender, &p.InStock, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create creates a new product.
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.SourceID == "" {
		product.SourceID = ManualSourceID
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO products (id, source_id, tenant_id, name, description, price,
			price_value, image_url, product_url, category, brand, sku,
			product_type, color, gender, in_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.SourceID, product.TenantID, product.Name,
		product.Description, product.Price, product.PriceValue, product.ImageURL,
		product.ProductURL, product.Category, product.Brand, product.SKU,
		product.ProductType, product.Color, product.Gender, product.InStock,
		product.CreatedAt,
	)
	return err
}

// CreateBatch inserts a set of products, typically a scan result.
func (r *ProductRepository) CreateBatch(ctx context.Context, products []*Product) error {
	for _, p := range products {
		if err := r.Create(ctx, p); err != nil {
			return fmt.Errorf("insert product %q: %w", p.Name, err)
		}
	}
	return nil
}

// Update updates a product with tenant scoping.
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products SET
			name = $1, description = $2, price = $3, price_value = $4,
			image_url = $5, product_url = $6, category = $7, brand = $8,
			sku = $9, product_type = $10, color = $11, gender = $12, in_stock = $13
		WHERE id = $14 AND tenant_id = $15
	`
	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.PriceValue,
		product.ImageURL, product.ProductURL, product.Category, product.Brand,
		product.SKU, product.ProductType, product.Color, product.Gender,
		product.InStock, product.ID, product.TenantID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a product by ID with tenant scoping.
func (r *ProductRepository) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND tenant_id = $2`
	return scanProduct(r.db.QueryRowContext(ctx, query, productID, tenantID).Scan)
}

// ListByTenant lists products for a tenant, newest first.
func (r *ProductRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryProducts(ctx, query, tenantID, limit)
}

// CountByTenant counts a tenant's products.
func (r *ProductRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE tenant_id = $1`,
		tenantID,
	).Scan(&count)
	return count, err
}

// Delete removes a product with tenant scoping.
func (r *ProductRepository) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND tenant_id = $2`,
		productID, tenantID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySource removes every product produced by a source. Used both when
// a source is deleted and as the first half of a rescan's delete-then-reinsert.
func (r *ProductRepository) DeleteBySource(ctx context.Context, tenantID uuid.UUID, sourceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE source_id = $1 AND tenant_id = $2`,
		sourceID, tenantID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// FindByAttributes retrieves products matching the given semantic attributes
// exactly. Nil filter fields are unconstrained. This is the store-side read
// behind the resolver's attribute tiers.
func (r *ProductRepository) FindByAttributes(ctx context.Context, tenantID uuid.UUID, filter AttributeFilter, limit int) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.ProductType != nil {
		args = append(args, *filter.ProductType)
		query += fmt.Sprintf(" AND product_type = $%d", len(args))
	}
	if filter.Color != nil {
		args = append(args, *filter.Color)
		query += fmt.Sprintf(" AND color = $%d", len(args))
	}
	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		query += fmt.Sprintf(" AND gender = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return r.queryProducts(ctx, query, args...)
}

// SearchText retrieves products whose name, description or category contains
// the given words, case-insensitively. With matchAll true every word must
// match (AND); otherwise any word suffices (OR).
func (r *ProductRepository) SearchText(ctx context.Context, tenantID uuid.UUID, words []string, matchAll bool, limit int) ([]*Product, error) {
	if len(words) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND (`
	args := []interface{}{tenantID}

	conditions := make([]string, 0, len(words))
	for _, word := range words {
		args = append(args, "%"+strings.ToLower(word)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(name) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d OR LOWER(COALESCE(category, '')) LIKE $%d)",
			n, n, n,
		))
	}

	joiner := " OR "
	if matchAll {
		joiner = " AND "
	}
	query += strings.Join(conditions, joiner) + ")"

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return r.queryProducts(ctx, query, args...)
}

// WidgetConfigRepository handles widget configuration persistence.
type WidgetConfigRepository struct {
	db DB
}

// NewWidgetConfigRepository creates a new widget config repository.
func NewWidgetConfigRepository(db DB) *WidgetConfigRepository {
	return &WidgetConfigRepository{db: db}
}

// Create stores the initial widget config for a tenant.
func (r *WidgetConfigRepository) Create(ctx context.Context, cfg *WidgetConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.UpdatedAt = time.Now()

	query := `
		INSERT INTO widget_configs (id, tenant_id, bot_name, welcome_message,
			primary_color, position, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		cfg.ID, cfg.TenantID, cfg.BotName, cfg.WelcomeMessage,
		cfg.PrimaryColor, cfg.Position, cfg.AvatarURL, cfg.UpdatedAt,
	)
	return err
}

// GetByTenant retrieves a tenant's widget config.
func (r *WidgetConfigRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*WidgetConfig, error) {
	query := `
		SELECT id, tenant_id, bot_name, welcome_message, primary_color,
			position, avatar_url, updated_at
		FROM widget_configs WHERE tenant_id = $1
	`
	cfg := &WidgetConfig{}
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&cfg.ID, &cfg.TenantID, &cfg.BotName, &cfg.WelcomeMessage,
		&cfg.PrimaryColor, &cfg.Position, &cfg.AvatarURL, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return cfg, err
}

// Update replaces a tenant's widget config settings.
func (r *WidgetConfigRepository) Update(ctx context.Context, cfg *WidgetConfig) error {
	cfg.UpdatedAt = time.Now()

	query := `
		UPDATE widget_configs SET
			bot_name = $1, welcome_message = $2, primary_color = $3,
			position = $4, avatar_url = $5, updated_at = $6
		WHERE tenant_id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		cfg.BotName, cfg.WelcomeMessage, cfg.PrimaryColor,
		cfg.Position, cfg.AvatarURL, cfg.UpdatedAt, cfg.TenantID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ConversationRepository handles conversation persistence.
type ConversationRepository struct {
	db DB
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `id, tenant_id, session_id, visitor_id,
	messages_count, started_at, last_message_at`

func scanConversation(scan func(dest ...interface{}) error) (*Conversation, error) {
	c := &Conversation{}
	err := scan(
		&c.ID, &c.TenantID, &c.SessionID, &c.VisitorID,
		&c.MessagesCount, &c.StartedAt, &c.LastMessageAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create creates a new conversation.
func (r *ConversationRepository) Create(ctx context.Context, conv *Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	now := time.Now()
	conv.StartedAt = now
	conv.LastMessageAt = now

	query := `
		INSERT INTO conversations (id, tenant_id, session_id, visitor_id,
			messages_count, started_at, last_message_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.TenantID, conv.SessionID, conv.VisitorID,
		conv.MessagesCount, conv.StartedAt, conv.LastMessageAt,
	)
	return err
}

// GetBySession retrieves a conversation by widget session.
func (r *ConversationRepository) GetBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE session_id = $1`
	return scanConversation(r.db.QueryRowContext(ctx, query, sessionID).Scan)
}

// GetByID retrieves a conversation by ID with tenant scoping.
func (r *ConversationRepository) GetByID(ctx context.Context, tenantID, convID uuid.UUID) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND tenant_id = $2`
	return scanConversation(r.db.QueryRowContext(ctx, query, convID, tenantID).Scan)
}

// ListByTenant lists conversations for a tenant, most recent activity first.
func (r *ConversationRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE tenant_id = $1
		ORDER BY last_message_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// Touch records new message activity on a conversation.
func (r *ConversationRepository) Touch(ctx context.Context, sessionID string, newMessages int) error {
	query := `
		UPDATE conversations
		SET last_message_at = $1, messages_count = messages_count + $2
		WHERE session_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), newMessages, sessionID)
	return err
}

// CountByTenant counts a tenant's conversations, optionally since a cutoff.
func (r *ConversationRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID, since *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM conversations WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// CountByTenantBetween counts conversations started within [from, to).
func (r *ConversationRepository) CountByTenantBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM conversations
		WHERE tenant_id = $1 AND started_at >= $2 AND started_at < $3
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, tenantID, from, to).Scan(&count)
	return count, err
}

// MessageRepository handles chat message persistence.
type MessageRepository struct {
	db DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a chat message.
func (r *MessageRepository) Create(ctx context.Context, msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	query := `
		INSERT INTO messages (id, conversation_id, session_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp,
	)
	return err
}

const messageColumns = `id, conversation_id, session_id, role, content, timestamp`

func (r *MessageRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SessionID, &m.Role, &m.Content, &m.Timestamp,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListBySession lists a session's messages in chronological order.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE session_id = $1
		ORDER BY timestamp ASC
		LIMIT $2
	`
	return r.queryMessages(ctx, query, sessionID, limit)
}

// ListRecentBySession returns the session's most recent messages, still in
// chronological order. Used for replaying context to the model so the window
// tracks the live end of a long conversation.
func (r *MessageRepository) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE session_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	messages, err := r.queryMessages(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListByConversation lists a conversation's messages in chronological order.
func (r *MessageRepository) ListByConversation(ctx context.Context, convID uuid.UUID, limit int) ([]*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
		LIMIT $2
	`
	return r.queryMessages(ctx, query, convID, limit)
}

// CountByTenant counts all messages in a tenant's conversations.
func (r *MessageRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.tenant_id = $1
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&count)
	return count, err
}

// LeadRepository handles lead persistence.
type LeadRepository struct {
	db DB
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create stores a lead.
func (r *LeadRepository) Create(ctx context.Context, lead *Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.CreatedAt = time.Now()

	query := `
		INSERT INTO leads (id, tenant_id, session_id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.TenantID, lead.SessionID, lead.Name, lead.Email,
		lead.Phone, lead.CreatedAt,
	)
	return err
}

// ListByTenant lists leads for a tenant, newest first.
func (r *LeadRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Lead, error) {
	query := `
		SELECT id, tenant_id, session_id, name, email, phone, created_at
		FROM leads
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		lead := &Lead{}
		if err := rows.Scan(
			&lead.ID, &lead.TenantID, &lead.SessionID, &lead.Name,
			&lead.Email, &lead.Phone, &lead.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// CountByTenant counts a tenant's leads.
func (r *LeadRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE tenant_id = $1`, tenantID,
	).Scan(&count)
	return count, err
}

// Repositories bundles all repositories together.
type Repositories struct {
	Users         *UserRepository
	Sessions      *SessionRepository
	Sources       *SourceRepository
	Products      *ProductRepository
	WidgetConfigs *WidgetConfigRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Leads         *LeadRepository
}

// NewRepositories creates all repositories with the given database connection.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Sessions:      NewSessionRepository(db),
		Sources:       NewSourceRepository(db),
		Products:      NewProductRepository(db),
		WidgetConfigs: NewWidgetConfigRepository(db),
		Conversations: NewConversationRepository(db),
		Messages:      NewMessageRepository(db),
		Leads:         NewLeadRepository(db),
	}
}
