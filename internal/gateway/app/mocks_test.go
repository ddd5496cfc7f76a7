package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error) {
	args := m.Called(ctx, providerMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) List(ctx context.Context, limit, offset int) ([]*domain.Message, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateSendOutcome(ctx context.Context, id string, status domain.MessageStatus,
	providerMessageID *string, errorMessage *string, sentAt *time.Time) error {
	args := m.Called(ctx, id, status, providerMessageID, errorMessage, sentAt)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateDeliveryInfo(ctx context.Context, id string, status domain.MessageStatus,
	deliveredAt *time.Time, deliveryStatus, errorCode, receiptText *string) error {
	args := m.Called(ctx, id, status, deliveredAt, deliveryStatus, errorCode, receiptText)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockMessageRepository) ListAwaitingReceipt(ctx context.Context, sentBefore time.Time, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, sentBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// stubChannel is a canned-result channel; it also counts calls so tests can
// assert that validation failures never reach a channel.
type stubChannel struct {
	name    string
	result  domain.SendResult
	healthy bool
	calls   int
}

func (c *stubChannel) Send(ctx context.Context, msg *domain.Message) domain.SendResult {
	c.calls++
	return c.result
}

func (c *stubChannel) IsHealthy(ctx context.Context) bool { return c.healthy }
func (c *stubChannel) Name() string                       { return c.name }
