package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/smsdispatch/gateway/internal/platform/messagebroker"
)

// SubjectStatusChanged is the NATS subject carrying message lifecycle events.
const SubjectStatusChanged = "sms.status.changed"

// StatusChangedEvent is published whenever a message moves to a new lifecycle
// state. Purely observational; consumers must not treat it as the source of
// truth (the store is).
type StatusChangedEvent struct {
	MessageID         string               `json:"message_id"`
	OldStatus         domain.MessageStatus `json:"old_status"`
	NewStatus         domain.MessageStatus `json:"new_status"`
	Provider          string               `json:"provider,omitempty"`
	ProviderMessageID string               `json:"provider_message_id,omitempty"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

// publishStatusChange emits the event, logging but never propagating publish
// failures: events are diagnostic and must not affect control flow.
func publishStatusChange(ctx context.Context, pub messagebroker.Publisher, logger *slog.Logger, event StatusChangedEvent) {
	if pub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal status change event", "error", err, "message_id", event.MessageID)
		return
	}
	if err := pub.Publish(ctx, SubjectStatusChanged, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish status change event", "error", err, "message_id", event.MessageID)
	}
}
