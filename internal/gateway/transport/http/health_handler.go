package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/smsdispatch/gateway/internal/gateway/app"
)

// HealthHandler aggregates channel health for load balancers and operators.
type HealthHandler struct {
	dispatch *app.DispatchService
	logger   *slog.Logger
}

func NewHealthHandler(dispatch *app.DispatchService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{dispatch: dispatch, logger: logger.With("handler", "health")}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
}

type healthResponse struct {
	Status   string          `json:"status"` // "ok" or "degraded"
	Channels map[string]bool `json:"channels"`
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	channels := h.dispatch.ChannelHealth(r.Context())

	status := "ok"
	code := http.StatusOK
	for name, healthy := range channels {
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
			h.logger.WarnContext(r.Context(), "Channel unhealthy", "channel", name)
		}
	}
	writeJSON(w, code, healthResponse{Status: status, Channels: channels})
}
