package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// ConversationsHandler serves the dashboard's conversation and lead views.
type ConversationsHandler struct {
	logger        *observability.Logger
	conversations *storage.ConversationRepository
	messages      *storage.MessageRepository
	leads         *storage.LeadRepository
}

func NewConversationsHandler(logger *observability.Logger, repos *storage.Repositories) *ConversationsHandler {
	return &ConversationsHandler{
		logger:        logger,
		conversations: repos.Conversations,
		messages:      repos.Messages,
		leads:         repos.Leads,
	}
}

// List handles GET /api/conversations.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	conversations, err := h.conversations.ListByTenant(r.Context(), user.ID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error().Err(err).Msg("Listing conversations failed")
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": conversations})
}

// Messages handles GET /api/conversations/{conversationID}/messages.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	// Tenant scoping: the conversation must belong to the caller.
	if _, err := h.conversations.GetByID(r.Context(), user.ID, convID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	messages, err := h.messages.ListByConversation(r.Context(), convID, queryInt(r, "limit", 200))
	if err != nil {
		h.logger.Error().Err(err).Msg("Listing messages failed")
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// Leads handles GET /api/leads.
func (h *ConversationsHandler) Leads(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	leads, err := h.leads.ListByTenant(r.Context(), user.ID, queryInt(r, "limit", 100))
	if err != nil {
		h.logger.Error().Err(err).Msg("Listing leads failed")
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}
