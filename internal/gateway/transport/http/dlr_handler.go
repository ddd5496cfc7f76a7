package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/smsdispatch/gateway/internal/gateway/app"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// webhookSecretHeader carries the shared secret a provider was given when the
// webhook was registered.
const webhookSecretHeader = "X-Webhook-Secret"

// maxDLRBodyBytes bounds webhook payloads; DLRs are tiny, anything bigger is
// not a DLR.
const maxDLRBodyBytes = 64 * 1024

// DLRHandler receives provider delivery-receipt callbacks, normalises them
// into domain.DeliveryReport and hands them to the processor.
type DLRHandler struct {
	processor *app.DLRProcessor
	// secrets maps provider name to its shared webhook secret; providers
	// without an entry are accepted without a secret check.
	secrets map[string]string
	logger  *slog.Logger
}

func NewDLRHandler(processor *app.DLRProcessor, secrets map[string]string, logger *slog.Logger) *DLRHandler {
	return &DLRHandler{
		processor: processor,
		secrets:   secrets,
		logger:    logger.With("handler", "dlr"),
	}
}

func (h *DLRHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/dlr/{provider}", h.handleDeliveryReceipt)
}

// dlrPayload covers the common field spellings across providers; whichever is
// present wins. No fixed schema is assumed beyond these.
type dlrPayload struct {
	MessageID   string `json:"message_id"`
	MessageId   string `json:"messageId"`
	ID          string `json:"id"`
	SID         string `json:"sid"`
	Status      string `json:"status"`
	ErrorCode   string `json:"error_code"`
	DeliveredAt string `json:"delivered_at"`
}

func (p *dlrPayload) providerMessageID() string {
	for _, candidate := range []string{p.MessageID, p.MessageId, p.ID, p.SID} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// deliveredStatuses are the provider wordings accepted as a positive receipt.
var deliveredStatuses = map[string]bool{
	"delivered": true,
	"delivrd":   true,
	"success":   true,
}

func (h *DLRHandler) handleDeliveryReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx), "provider", provider)

	if secret, ok := h.secrets[provider]; ok && secret != "" {
		presented := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			logger.WarnContext(ctx, "DLR webhook rejected: bad shared secret")
			writeJSONError(w, "Invalid webhook secret", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDLRBodyBytes))
	if err != nil {
		logger.WarnContext(ctx, "Failed to read DLR body", "error", err)
		writeJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var payload dlrPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.WarnContext(ctx, "Failed to decode DLR payload", "error", err)
		writeJSONError(w, "Invalid DLR payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	report := domain.DeliveryReport{
		ProviderMessageID: payload.providerMessageID(),
		Provider:          provider,
		Delivered:         deliveredStatuses[strings.ToLower(payload.Status)],
		ErrorCode:         payload.ErrorCode,
		StatusText:        payload.Status,
		RawPayload:        string(body),
		ReceivedAt:        time.Now().UTC(),
	}
	if payload.DeliveredAt != "" {
		if ts, parseErr := time.Parse(time.RFC3339, payload.DeliveredAt); parseErr == nil {
			report.DeliveredAt = &ts
		}
	}

	if err := h.processor.ProcessReport(ctx, report); err != nil {
		switch {
		case errors.Is(err, domain.ErrReceiptNotMatched):
			writeJSONError(w, "No message matches this receipt", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidTransition):
			// Duplicate or late receipt for an already-final message. Tell
			// the provider we are done so it stops retrying.
			w.WriteHeader(http.StatusNoContent)
		default:
			logger.ErrorContext(ctx, "Failed to process DLR", "error", err)
			writeJSONError(w, "Failed to process delivery receipt", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
