package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smsdispatch/gateway/internal/gateway/channel"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/smsdispatch/gateway/internal/gateway/repository"
	"github.com/smsdispatch/gateway/internal/platform/messagebroker"
)

// DispatchService orchestrates a message's dispatch: persist, hand to the
// selected channel, apply the uniform SendResult back onto the stored entity.
// It is the only writer of message lifecycle state on the send path.
type DispatchService struct {
	repo           repository.MessageRepository
	channels       map[string]channel.Channel // keyed by channel-type tag
	defaultChannel string
	publisher      messagebroker.Publisher
	logger         *slog.Logger
}

func NewDispatchService(
	repo repository.MessageRepository,
	channels map[string]channel.Channel,
	defaultChannel string,
	publisher messagebroker.Publisher,
	logger *slog.Logger,
) *DispatchService {
	return &DispatchService{
		repo:           repo,
		channels:       channels,
		defaultChannel: defaultChannel,
		publisher:      publisher,
		logger:         logger.With("service", "dispatch"),
	}
}

// SendMessage validates, persists and dispatches one message, returning the
// entity in its post-dispatch state. Validation errors come back as errors
// (they never reach a channel); dispatch failures come back as a persisted
// "failed" message, not as an error.
func (s *DispatchService) SendMessage(ctx context.Context, recipient, content, channelType string) (*domain.Message, error) {
	msg := &domain.Message{
		Recipient:   recipient,
		Content:     content,
		Status:      domain.MessageStatusCreated,
		ChannelType: channelType,
	}
	if err := msg.ValidateForSend(); err != nil {
		return nil, err
	}

	ch, err := s.selectChannel(channelType)
	if err != nil {
		return nil, err
	}
	msg.ChannelType = s.channelTag(channelType)

	created, err := s.repo.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	s.logger.InfoContext(ctx, "Message accepted for dispatch",
		"message_id", created.ID, "channel", ch.Name(), "recipient", recipient)

	return s.dispatch(ctx, created, ch)
}

// RetryMessage re-dispatches a previously failed message.
func (s *DispatchService) RetryMessage(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.Status.CanTransitionTo(domain.MessageStatusSent) {
		return nil, fmt.Errorf("%w: cannot retry message in status %q", domain.ErrInvalidTransition, msg.Status)
	}
	ch, err := s.selectChannel(msg.ChannelType)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, msg, ch)
}

// dispatch runs the channel call and applies the result to the store.
func (s *DispatchService) dispatch(ctx context.Context, msg *domain.Message, ch channel.Channel) (*domain.Message, error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(ch.Name()))
	result := ch.Send(ctx, msg)
	timer.ObserveDuration()

	oldStatus := msg.Status
	now := time.Now().UTC()

	if result.Success {
		msg.Status = domain.MessageStatusSent
		msg.ProviderMessageID = &result.ProviderMessageID
		msg.SentAt = &now
		msg.ErrorMessage = nil
		if err := s.repo.UpdateSendOutcome(ctx, msg.ID, msg.Status, &result.ProviderMessageID, nil, &now); err != nil {
			// The provider accepted the message; losing the record would
			// orphan the DLR later, so surface this loudly.
			s.logger.ErrorContext(ctx, "Failed to persist successful send outcome",
				"error", err, "message_id", msg.ID, "provider_message_id", result.ProviderMessageID)
			return nil, fmt.Errorf("message sent but outcome not persisted: %w", err)
		}
		dispatchProcessedCounter.WithLabelValues(ch.Name(), "sent").Inc()
	} else {
		errMsg := result.ErrorMessage
		msg.Status = domain.MessageStatusFailed
		msg.ErrorMessage = &errMsg
		if err := s.repo.UpdateSendOutcome(ctx, msg.ID, msg.Status, nil, &errMsg, nil); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist failed send outcome", "error", err, "message_id", msg.ID)
			return nil, fmt.Errorf("failed to persist send outcome: %w", err)
		}
		dispatchProcessedCounter.WithLabelValues(ch.Name(), "failed").Inc()
		s.logger.WarnContext(ctx, "Dispatch failed",
			"message_id", msg.ID,
			"error", result.ErrorMessage,
			"error_code", result.ErrorCode,
			"network_error_code", result.NetworkErrorCode)
	}
	msg.UpdatedAt = now

	publishStatusChange(ctx, s.publisher, s.logger, StatusChangedEvent{
		MessageID:         msg.ID,
		OldStatus:         oldStatus,
		NewStatus:         msg.Status,
		Provider:          ch.Name(),
		ProviderMessageID: result.ProviderMessageID,
		OccurredAt:        now,
	})
	return msg, nil
}

// GetMessage returns one message by id.
func (s *DispatchService) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	return s.repo.GetByID(ctx, id)
}

// ListMessages returns a page of messages, newest first.
func (s *DispatchService) ListMessages(ctx context.Context, limit, offset int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// ChannelHealth reports IsHealthy per configured channel.
func (s *DispatchService) ChannelHealth(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(s.channels))
	for tag, ch := range s.channels {
		health[tag] = ch.IsHealthy(ctx)
	}
	return health
}

func (s *DispatchService) channelTag(requested string) string {
	if requested == "" {
		return s.defaultChannel
	}
	return requested
}

func (s *DispatchService) selectChannel(channelType string) (channel.Channel, error) {
	tag := s.channelTag(channelType)
	ch, ok := s.channels[tag]
	if !ok {
		return nil, fmt.Errorf("no channel configured for type %q", tag)
	}
	return ch, nil
}
