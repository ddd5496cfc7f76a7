package repository

import (
	"context"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// MessageRepository is the persistence boundary for messages. The dispatch
// service owns all writes; channels never touch the store.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Message, error)

	// UpdateSendOutcome applies the result of a dispatch attempt: the new
	// status plus provider message id / sent timestamp on success, or the
	// error message on failure.
	UpdateSendOutcome(ctx context.Context, id string, status domain.MessageStatus,
		providerMessageID *string, errorMessage *string, sentAt *time.Time) error

	// UpdateDeliveryInfo applies an out-of-band delivery receipt.
	UpdateDeliveryInfo(ctx context.Context, id string, status domain.MessageStatus,
		deliveredAt *time.Time, deliveryStatus, errorCode, receiptText *string) error

	// UpdateStatus moves a message to a new lifecycle state without touching
	// any other column (used by the receipt-wait sweep).
	UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error

	// ListAwaitingReceipt returns sent messages whose dispatch happened
	// before the cutoff and that still have no delivery verdict.
	ListAwaitingReceipt(ctx context.Context, sentBefore time.Time, limit int) ([]*domain.Message, error)
}
