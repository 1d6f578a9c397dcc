// Package chat implements the widget conversation flow: messages come in
// keyed by widget key and session, replies are generated by the language
// model grounded in the tenant's knowledge excerpts and catalog matches.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/internal/cache"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/llm"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// historyTurns bounds how many prior messages are replayed to the model.
const historyTurns = 10

// widgetConfigTTL bounds how long the public widget config may be served
// from cache after a dashboard edit.
const widgetConfigTTL = 5 * time.Minute

var ErrUnknownWidget = errors.New("unknown widget key")

// Reply is the widget-facing result of one chat turn.
type Reply struct {
	ConversationID uuid.UUID          `json:"conversation_id"`
	Message        string             `json:"message"`
	Products       []*storage.Product `json:"products,omitempty"`
}

// Service orchestrates one chat turn end to end. A model failure degrades to
// the configured fallback message; the visitor never sees an error.
type Service struct {
	users         *storage.UserRepository
	conversations *storage.ConversationRepository
	messages      *storage.MessageRepository
	widgets       *storage.WidgetConfigRepository
	leads         *storage.LeadRepository
	knowledge     *knowledge.Service
	resolver      *catalog.Resolver
	generator     llm.Generator
	cache         cache.Client
	cfg           config.ChatConfig
	searchLimit   int
	logger        *observability.Logger
}

func NewService(
	repos *storage.Repositories,
	knowledgeSvc *knowledge.Service,
	resolver *catalog.Resolver,
	generator llm.Generator,
	cacheClient cache.Client,
	cfg config.ChatConfig,
	catalogCfg config.CatalogConfig,
	logger *observability.Logger,
) *Service {
	return &Service{
		users:         repos.Users,
		conversations: repos.Conversations,
		messages:      repos.Messages,
		widgets:       repos.WidgetConfigs,
		leads:         repos.Leads,
		knowledge:     knowledgeSvc,
		resolver:      resolver,
		generator:     generator,
		cache:         cacheClient,
		cfg:           cfg,
		searchLimit:   catalogCfg.ChatSearchLimit,
		logger:        logger,
	}
}

// HandleMessage processes one visitor message and returns the assistant's
// reply along with the catalog products used to ground it.
func (s *Service) HandleMessage(ctx context.Context, widgetKey, sessionID, visitorID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	user, err := s.users.GetByWidgetKey(ctx, widgetKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownWidget
		}
		return nil, fmt.Errorf("loading widget owner: %w", err)
	}

	log := s.logger.WithTenant(user.ID.String()).WithOperation("chat")

	conv, err := s.getOrCreateConversation(ctx, user.ID, sessionID, visitorID)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, conv, sessionID, storage.MessageRoleUser, text); err != nil {
		return nil, err
	}

	knowledgeText, err := s.knowledge.GroundingText(ctx, user.ID, s.cfg.KnowledgeChars)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load grounding text")
	}

	products, err := s.resolver.Search(ctx, user.ID, text, s.searchLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Catalog search failed")
	}

	reply := s.generateReply(ctx, user, sessionID, knowledgeText, products, text, log)

	if err := s.appendMessage(ctx, conv, sessionID, storage.MessageRoleAssistant, reply); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, sessionID, 2); err != nil {
		log.Warn().Err(err).Msg("Failed to update conversation counters")
	}

	return &Reply{
		ConversationID: conv.ID,
		Message:        reply,
		Products:       products,
	}, nil
}

// History returns the session's messages for widget reload, oldest first.
func (s *Service) History(ctx context.Context, widgetKey, sessionID string) ([]*storage.Message, error) {
	if _, err := s.users.GetByWidgetKey(ctx, widgetKey); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownWidget
		}
		return nil, err
	}
	return s.messages.ListBySession(ctx, sessionID, s.cfg.HistoryPageLimit)
}

// WidgetConfig returns the widget's public configuration by widget key. The
// config is served from cache when possible; dashboard edits invalidate it.
func (s *Service) WidgetConfig(ctx context.Context, widgetKey string) (*storage.WidgetConfig, error) {
	key := cache.WidgetKey(widgetKey)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached storage.WidgetConfig
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.GetByWidgetKey(ctx, widgetKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownWidget
		}
		return nil, err
	}

	widget, err := s.widgets.GetByTenant(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(widget); err == nil {
		if err := s.cache.Set(ctx, key, data, widgetConfigTTL); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache widget config")
		}
	}
	return widget, nil
}

// InvalidateWidgetConfig drops the cached public config after a dashboard
// edit.
func (s *Service) InvalidateWidgetConfig(ctx context.Context, widgetKey string) {
	if err := s.cache.Delete(ctx, cache.WidgetKey(widgetKey)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate widget config cache")
	}
}

// CaptureLead stores a contact submitted through the widget.
func (s *Service) CaptureLead(ctx context.Context, widgetKey, sessionID string, name, email, phone *string) (*storage.Lead, error) {
	user, err := s.users.GetByWidgetKey(ctx, widgetKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownWidget
		}
		return nil, err
	}
	if (email == nil || *email == "") && (phone == nil || *phone == "") {
		return nil, fmt.Errorf("email or phone is required")
	}

	lead := &storage.Lead{
		ID:        uuid.New(),
		TenantID:  user.ID,
		SessionID: sessionID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("creating lead: %w", err)
	}

	s.logger.WithTenant(user.ID.String()).Info().Str("session_id", sessionID).Msg("Lead captured")
	return lead, nil
}

func (s *Service) getOrCreateConversation(ctx context.Context, tenantID uuid.UUID, sessionID, visitorID string) (*storage.Conversation, error) {
	conv, err := s.conversations.GetBySession(ctx, sessionID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	now := time.Now().UTC()
	conv = &storage.Conversation{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SessionID:     sessionID,
		VisitorID:     visitorID,
		StartedAt:     now,
		LastMessageAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) appendMessage(ctx context.Context, conv *storage.Conversation, sessionID string, role storage.MessageRole, content string) error {
	msg := &storage.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SessionID:      sessionID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("storing message: %w", err)
	}
	return nil
}

// generateReply builds the prompt, replays recent history, and calls the
// model. Any failure falls back to the configured apology message.
func (s *Service) generateReply(ctx context.Context, user *storage.User, sessionID, knowledgeText string, products []*storage.Product, text string, log *observability.Logger) string {
	botName := "Assistente"
	if widget, err := s.widgets.GetByTenant(ctx, user.ID); err == nil {
		botName = widget.BotName
	}

	prompt := []llm.Message{
		{Role: "system", Content: buildSystemPrompt(user.CompanyName, botName, knowledgeText, products)},
	}

	history, err := s.messages.ListRecentBySession(ctx, sessionID, historyTurns)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load conversation history")
	}
	for _, msg := range history {
		prompt = append(prompt, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}

	// The current message is already persisted; make sure it closes the
	// prompt even when the history read failed.
	if len(history) == 0 || history[len(history)-1].Content != text {
		prompt = append(prompt, llm.Message{Role: "user", Content: text})
	}

	reply, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("Reply generation failed, using fallback message")
		return s.cfg.FallbackMessage
	}
	return strings.TrimSpace(reply)
}
