package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/chat"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// WidgetHandler serves the public widget endpoints (keyed by widget key, no
// session auth) and the dashboard's widget configuration endpoints.
type WidgetHandler struct {
	logger  *observability.Logger
	chat    *chat.Service
	widgets *storage.WidgetConfigRepository
}

func NewWidgetHandler(logger *observability.Logger, chatSvc *chat.Service, widgets *storage.WidgetConfigRepository) *WidgetHandler {
	return &WidgetHandler{logger: logger, chat: chatSvc, widgets: widgets}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	VisitorID string `json:"visitor_id"`
	Message   string `json:"message"`
}

type leadRequest struct {
	SessionID string  `json:"session_id"`
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Config handles GET /api/widget/{widgetKey}/config.
func (h *WidgetHandler) Config(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.chat.WidgetConfig(r.Context(), chi.URLParam(r, "widgetKey"))
	if err != nil {
		if errors.Is(err, chat.ErrUnknownWidget) || errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "widget not found")
			return
		}
		h.logger.Error().Err(err).Msg("Loading widget config failed")
		writeError(w, http.StatusInternalServerError, "failed to load widget config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Chat handles POST /api/widget/{widgetKey}/chat.
func (h *WidgetHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.chat.HandleMessage(r.Context(), chi.URLParam(r, "widgetKey"), req.SessionID, req.VisitorID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownWidget) {
			writeError(w, http.StatusNotFound, "widget not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// History handles GET /api/widget/{widgetKey}/history?session_id=...
func (h *WidgetHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	messages, err := h.chat.History(r.Context(), chi.URLParam(r, "widgetKey"), sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownWidget) {
			writeError(w, http.StatusNotFound, "widget not found")
			return
		}
		h.logger.Error().Err(err).Msg("Loading history failed")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// Lead handles POST /api/widget/{widgetKey}/lead.
func (h *WidgetHandler) Lead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lead, err := h.chat.CaptureLead(r.Context(), chi.URLParam(r, "widgetKey"), req.SessionID, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownWidget) {
			writeError(w, http.StatusNotFound, "widget not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

type widgetConfigRequest struct {
	BotName        string  `json:"bot_name"`
	WelcomeMessage string  `json:"welcome_message"`
	PrimaryColor   string  `json:"primary_color"`
	Position       string  `json:"position"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
}

// GetConfig handles GET /api/widget-config (dashboard, authenticated).
func (h *WidgetHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	cfg, err := h.widgets.GetByTenant(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "widget config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load widget config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfig handles PUT /api/widget-config (dashboard, authenticated).
func (h *WidgetHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req widgetConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg, err := h.widgets.GetByTenant(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "widget config not found")
		return
	}

	if req.BotName != "" {
		cfg.BotName = req.BotName
	}
	if req.WelcomeMessage != "" {
		cfg.WelcomeMessage = req.WelcomeMessage
	}
	if req.PrimaryColor != "" {
		cfg.PrimaryColor = req.PrimaryColor
	}
	if req.Position != "" {
		cfg.Position = req.Position
	}
	if req.AvatarURL != nil {
		cfg.AvatarURL = req.AvatarURL
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := h.widgets.Update(r.Context(), cfg); err != nil {
		h.logger.Error().Err(err).Msg("Updating widget config failed")
		writeError(w, http.StatusInternalServerError, "failed to update widget config")
		return
	}

	h.chat.InvalidateWidgetConfig(r.Context(), user.WidgetKey)
	writeJSON(w, http.StatusOK, cfg)
}
