package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/smsdispatch/gateway/internal/gateway/app"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

type MessageHandler struct {
	dispatch *app.DispatchService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewMessageHandler(dispatch *app.DispatchService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		dispatch: dispatch,
		validate: validator.New(),
		logger:   logger.With("handler", "message"),
	}
}

// RegisterRoutes registers message routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleSendMessage)
	r.Get("/messages", h.handleListMessages)
	r.Get("/messages/{messageID}", h.handleGetMessage)
	r.Post("/messages/{messageID}/retry", h.handleRetryMessage)
}

func (h *MessageHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode send message request", "error", err)
		writeJSONError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.WarnContext(ctx, "Send message request failed validation", "error", err)
		writeJSONError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.dispatch.SendMessage(ctx, req.Recipient, req.Content, req.ChannelType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyRecipient),
			errors.Is(err, domain.ErrEmptyContent),
			errors.Is(err, domain.ErrContentTooLong):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.ErrorContext(ctx, "Failed to dispatch message", "error", err)
			writeJSONError(w, "Failed to process message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, toMessageResponse(msg))
}

func (h *MessageHandler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	msg, err := h.dispatch.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			writeJSONError(w, "Message not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to get message", "error", err, "message_id", messageID)
		writeJSONError(w, "Failed to retrieve message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

func (h *MessageHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.dispatch.ListMessages(ctx, limit, offset)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list messages", "error", err)
		writeJSONError(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}

	responses := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, toMessageResponse(msg))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *MessageHandler) handleRetryMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	msg, err := h.dispatch.RetryMessage(ctx, messageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			writeJSONError(w, "Message not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidTransition):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			logger.ErrorContext(ctx, "Failed to retry message", "error", err, "message_id", messageID)
			writeJSONError(w, "Failed to retry message", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, toMessageResponse(msg))
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, GenericErrorResponse{Error: message})
}
