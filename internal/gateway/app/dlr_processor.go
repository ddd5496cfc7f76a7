package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/smsdispatch/gateway/internal/gateway/repository"
	"github.com/smsdispatch/gateway/internal/platform/messagebroker"
)

// DLRProcessor applies out-of-band delivery receipts to stored messages.
type DLRProcessor struct {
	repo      repository.MessageRepository
	publisher messagebroker.Publisher
	logger    *slog.Logger
}

func NewDLRProcessor(repo repository.MessageRepository, publisher messagebroker.Publisher, logger *slog.Logger) *DLRProcessor {
	return &DLRProcessor{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("service", "dlr_processor"),
	}
}

// ProcessReport matches a receipt to its message by provider message id and
// applies it. An unmatched receipt or an illegal transition is reported as an
// error for counting, but callers treat both as non-fatal.
func (p *DLRProcessor) ProcessReport(ctx context.Context, report domain.DeliveryReport) error {
	if report.ProviderMessageID == "" {
		dlrProcessedCounter.WithLabelValues("unmatched").Inc()
		return fmt.Errorf("%w: receipt carries no provider message id", domain.ErrReceiptNotMatched)
	}

	msg, err := p.repo.GetByProviderMessageID(ctx, report.ProviderMessageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			dlrProcessedCounter.WithLabelValues("unmatched").Inc()
			p.logger.WarnContext(ctx, "Delivery receipt matches no message",
				"provider_message_id", report.ProviderMessageID, "provider", report.Provider)
			return domain.ErrReceiptNotMatched
		}
		dlrProcessedCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to look up message for receipt: %w", err)
	}

	statusText := report.StatusText
	errorCode := nilIfEmpty(report.ErrorCode)
	receiptText := nilIfEmpty(report.RawPayload)

	if !report.Delivered {
		// A negative or intermediate receipt records its details but leaves
		// the lifecycle state alone; only a positive receipt delivers.
		if err := p.repo.UpdateDeliveryInfo(ctx, msg.ID, msg.Status, nil, &statusText, errorCode, receiptText); err != nil {
			dlrProcessedCounter.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to record receipt details: %w", err)
		}
		dlrProcessedCounter.WithLabelValues("recorded").Inc()
		p.logger.InfoContext(ctx, "Non-delivery receipt recorded",
			"message_id", msg.ID, "provider_status", report.StatusText)
		return nil
	}

	if !msg.Status.CanTransitionTo(domain.MessageStatusDelivered) {
		dlrProcessedCounter.WithLabelValues("error").Inc()
		p.logger.WarnContext(ctx, "Receipt arrived for message in non-deliverable state",
			"message_id", msg.ID, "status", msg.Status)
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, msg.Status, domain.MessageStatusDelivered)
	}

	deliveredAt := report.DeliveredAt
	if deliveredAt == nil {
		now := report.ReceivedAt
		if now.IsZero() {
			now = time.Now().UTC()
		}
		deliveredAt = &now
	}

	oldStatus := msg.Status
	if err := p.repo.UpdateDeliveryInfo(ctx, msg.ID, domain.MessageStatusDelivered, deliveredAt, &statusText, errorCode, receiptText); err != nil {
		dlrProcessedCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to apply delivery receipt: %w", err)
	}
	dlrProcessedCounter.WithLabelValues("delivered").Inc()

	p.logger.InfoContext(ctx, "Delivery confirmed by receipt",
		"message_id", msg.ID,
		"provider_message_id", report.ProviderMessageID,
		"provider", report.Provider)

	publishStatusChange(ctx, p.publisher, p.logger, StatusChangedEvent{
		MessageID:         msg.ID,
		OldStatus:         oldStatus,
		NewStatus:         domain.MessageStatusDelivered,
		Provider:          report.Provider,
		ProviderMessageID: report.ProviderMessageID,
		OccurredAt:        *deliveredAt,
	})
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
