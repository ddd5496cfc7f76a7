package app

import (
	"context"
	"testing"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sentMessage() *domain.Message {
	providerID := "SM123"
	sentAt := time.Now().UTC().Add(-time.Minute)
	return &domain.Message{
		ID:                "msg-1",
		Recipient:         "+15551234567",
		Content:           "Hello",
		Status:            domain.MessageStatusSent,
		ChannelType:       "http",
		ProviderMessageID: &providerID,
		SentAt:            &sentAt,
	}
}

func TestDLRProcessor_ProcessReport_Delivered(t *testing.T) {
	repo := new(MockMessageRepository)
	pub := new(MockPublisher)
	processor := NewDLRProcessor(repo, pub, discardLogger())

	deliveredAt := time.Now().UTC()
	repo.On("GetByProviderMessageID", mock.Anything, "SM123").Return(sentMessage(), nil)
	repo.On("UpdateDeliveryInfo", mock.Anything, "msg-1", domain.MessageStatusDelivered,
		&deliveredAt, mock.AnythingOfType("*string"), (*string)(nil), mock.AnythingOfType("*string")).
		Return(nil)
	pub.On("Publish", mock.Anything, SubjectStatusChanged, mock.Anything).Return(nil)

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{
		ProviderMessageID: "SM123",
		Provider:          "test-provider",
		Delivered:         true,
		StatusText:        "DELIVRD",
		RawPayload:        `{"status":"delivered"}`,
		DeliveredAt:       &deliveredAt,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestDLRProcessor_ProcessReport_LateReceiptUpgradesHeuristicState(t *testing.T) {
	repo := new(MockMessageRepository)
	processor := NewDLRProcessor(repo, nil, discardLogger())

	msg := sentMessage()
	msg.Status = domain.MessageStatusAssumedDelivered
	repo.On("GetByProviderMessageID", mock.Anything, "SM123").Return(msg, nil)
	repo.On("UpdateDeliveryInfo", mock.Anything, "msg-1", domain.MessageStatusDelivered,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{
		ProviderMessageID: "SM123",
		Delivered:         true,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDLRProcessor_ProcessReport_NegativeReceiptKeepsStatus(t *testing.T) {
	repo := new(MockMessageRepository)
	processor := NewDLRProcessor(repo, nil, discardLogger())

	repo.On("GetByProviderMessageID", mock.Anything, "SM123").Return(sentMessage(), nil)
	// Status stays "sent"; only the receipt details are recorded.
	repo.On("UpdateDeliveryInfo", mock.Anything, "msg-1", domain.MessageStatusSent,
		(*time.Time)(nil), mock.AnythingOfType("*string"), mock.AnythingOfType("*string"), mock.AnythingOfType("*string")).
		Return(nil)

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{
		ProviderMessageID: "SM123",
		Delivered:         false,
		StatusText:        "UNDELIV",
		ErrorCode:         "1",
		RawPayload:        "id:SM123 stat:UNDELIV err:1",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDLRProcessor_ProcessReport_Unmatched(t *testing.T) {
	repo := new(MockMessageRepository)
	processor := NewDLRProcessor(repo, nil, discardLogger())

	repo.On("GetByProviderMessageID", mock.Anything, "nope").Return(nil, domain.ErrMessageNotFound)

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{
		ProviderMessageID: "nope",
		Delivered:         true,
	})
	assert.ErrorIs(t, err, domain.ErrReceiptNotMatched)
}

func TestDLRProcessor_ProcessReport_EmptyProviderID(t *testing.T) {
	repo := new(MockMessageRepository)
	processor := NewDLRProcessor(repo, nil, discardLogger())

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{Delivered: true})
	assert.ErrorIs(t, err, domain.ErrReceiptNotMatched)
	repo.AssertNotCalled(t, "GetByProviderMessageID", mock.Anything, mock.Anything)
}

func TestDLRProcessor_ProcessReport_DeliveredTwiceIsRejected(t *testing.T) {
	repo := new(MockMessageRepository)
	processor := NewDLRProcessor(repo, nil, discardLogger())

	msg := sentMessage()
	msg.Status = domain.MessageStatusDelivered
	repo.On("GetByProviderMessageID", mock.Anything, "SM123").Return(msg, nil)

	err := processor.ProcessReport(context.Background(), domain.DeliveryReport{
		ProviderMessageID: "SM123",
		Delivered:         true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateDeliveryInfo",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
