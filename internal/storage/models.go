// Package storage provides database models and repositories for SalesGenius.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// SourceType represents the kind of knowledge source.
type SourceType string

const (
	SourceTypeURL SourceType = "url"
	SourceTypePDF SourceType = "pdf"
)

// SourceStatus represents the ingestion status of a knowledge source.
type SourceStatus string

const (
	SourceStatusActive SourceStatus = "active"
	SourceStatusError  SourceStatus = "error"
)

// ManualSourceID is the sentinel source identifier for products entered by
// hand rather than produced by a scan.
const ManualSourceID = "manual"

// MessageRole represents the author of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// User represents a tenant account. The user ID doubles as the tenant
// identifier for every owned record.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	WidgetKey    string    `json:"widget_key" db:"widget_key"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session represents a server-side bearer session.
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KnowledgeSource represents a scanned URL or an uploaded document. Its
// cached content excerpt feeds the chat grounding prompt; URL sources may
// additionally populate catalog products via a scan.
type KnowledgeSource struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	TenantID       uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Type           SourceType   `json:"type" db:"type"`
	Name           string       `json:"name" db:"name"`
	URL            *string      `json:"url,omitempty" db:"url"`
	Content        string       `json:"-" db:"content"`
	ContentPreview *string      `json:"content_preview,omitempty" db:"content_preview"`
	Status         SourceStatus `json:"status" db:"status"`
	ProductsCount  int          `json:"products_count" db:"products_count"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// Product represents one catalog entry owned by a tenant. Scraped products
// reference the knowledge source that produced them; manual entries carry
// the ManualSourceID sentinel. Product identifiers are not stable across
// rescans, since a rescan replaces the source's product set wholesale.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SourceID    string    `json:"source_id" db:"source_id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Price       *string   `json:"price,omitempty" db:"price"`
	PriceValue  *float64  `json:"price_value,omitempty" db:"price_value"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	ProductURL  *string   `json:"product_url,omitempty" db:"product_url"`
	Category    *string   `json:"category,omitempty" db:"category"`
	Brand       *string   `json:"brand,omitempty" db:"brand"`
	SKU         *string   `json:"sku,omitempty" db:"sku"`
	ProductType *string   `json:"product_type,omitempty" db:"product_type"`
	Color       *string   `json:"color,omitempty" db:"color"`
	Gender      *string   `json:"gender,omitempty" db:"gender"`
	InStock     bool      `json:"in_stock" db:"in_stock"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// WidgetConfig holds the per-tenant chat widget appearance settings.
type WidgetConfig struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	BotName        string    `json:"bot_name" db:"bot_name"`
	WelcomeMessage string    `json:"welcome_message" db:"welcome_message"`
	PrimaryColor   string    `json:"primary_color" db:"primary_color"`
	Position       string    `json:"position" db:"position"`
	AvatarURL      *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Conversation represents one widget chat session.
type Conversation struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TenantID      uuid.UUID `json:"tenant_id" db:"tenant_id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	VisitorID     string    `json:"visitor_id" db:"visitor_id"`
	MessagesCount int       `json:"messages_count" db:"messages_count"`
	StartedAt     time.Time `json:"started_at" db:"started_at"`
	LastMessageAt time.Time `json:"last_message_at" db:"last_message_at"`
}

// Message represents a single chat turn.
type Message struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	ConversationID uuid.UUID   `json:"conversation_id" db:"conversation_id"`
	SessionID      string      `json:"session_id" db:"session_id"`
	Role           MessageRole `json:"role" db:"role"`
	Content        string      `json:"content" db:"content"`
	Timestamp      time.Time   `json:"timestamp" db:"timestamp"`
}

// Lead represents a contact captured by the widget.
type Lead struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
