package handlers

import (
	"net/http"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/analytics"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
)

// AnalyticsHandler serves the dashboard metrics endpoints.
type AnalyticsHandler struct {
	logger    *observability.Logger
	analytics *analytics.Service
}

func NewAnalyticsHandler(logger *observability.Logger, svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{logger: logger, analytics: svc}
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	overview, err := h.analytics.Overview(r.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Computing analytics overview failed")
		writeError(w, http.StatusInternalServerError, "failed to compute overview")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Daily handles GET /api/analytics/daily?days=7.
func (h *AnalyticsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	points, err := h.analytics.Daily(r.Context(), user.ID, queryInt(r, "days", 7))
	if err != nil {
		h.logger.Error().Err(err).Msg("Computing daily analytics failed")
		writeError(w, http.StatusInternalServerError, "failed to compute daily analytics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"daily": points})
}
