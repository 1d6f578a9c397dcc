package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// KnowledgeHandler handles knowledge source endpoints.
type KnowledgeHandler struct {
	logger    *observability.Logger
	knowledge *knowledge.Service
}

func NewKnowledgeHandler(logger *observability.Logger, svc *knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{logger: logger, knowledge: svc}
}

type addSourceRequest struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// List handles GET /api/knowledge.
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	sources, err := h.knowledge.List(r.Context(), user.ID, 100)
	if err != nil {
		h.logger.Error().Err(err).Msg("Listing sources failed")
		writeError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

// Add handles POST /api/knowledge. URL sources are scanned for products
// synchronously; the response carries the resulting product count.
func (h *KnowledgeHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req addSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		source *storage.KnowledgeSource
		err    error
	)
	switch req.Type {
	case "url", "":
		source, err = h.knowledge.AddURLSource(r.Context(), user.ID, req.URL, req.Name)
	case "pdf", "document":
		source, err = h.knowledge.AddDocumentSource(r.Context(), user.ID, req.Name, req.Content)
	default:
		writeError(w, http.StatusBadRequest, "unknown source type")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

// Delete handles DELETE /api/knowledge/{sourceID}. Products produced by the
// source are removed with it.
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	sourceID, err := uuid.Parse(chi.URLParam(r, "sourceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	if err := h.knowledge.Delete(r.Context(), user.ID, sourceID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		h.logger.Error().Err(err).Msg("Deleting source failed")
		writeError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
