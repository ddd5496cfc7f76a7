package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func staleSentMessage(id, channelType string) *domain.Message {
	sentAt := time.Now().UTC().Add(-2 * time.Hour)
	return &domain.Message{
		ID:          id,
		Status:      domain.MessageStatusSent,
		ChannelType: channelType,
		SentAt:      &sentAt,
	}
}

func TestReceiptSweeper_Sweep_AppliesHeuristicStates(t *testing.T) {
	repo := new(MockMessageRepository)
	sweeper := NewReceiptSweeper(repo,
		map[string]bool{"with-dlr": true, "without-dlr": false},
		time.Hour, time.Minute, discardLogger())

	repo.On("ListAwaitingReceipt", mock.Anything, mock.AnythingOfType("time.Time"), sweepBatchSize).
		Return([]*domain.Message{
			staleSentMessage("msg-1", "with-dlr"),
			staleSentMessage("msg-2", "without-dlr"),
		}, nil)
	// DLR was expected but never came -> delivery unknown.
	repo.On("UpdateStatus", mock.Anything, "msg-1", domain.MessageStatusDeliveryUnknown).Return(nil)
	// No receipt mechanism at all -> assumed delivered.
	repo.On("UpdateStatus", mock.Anything, "msg-2", domain.MessageStatusAssumedDelivered).Return(nil)

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
}

func TestReceiptSweeper_Sweep_EmptyBatch(t *testing.T) {
	repo := new(MockMessageRepository)
	sweeper := NewReceiptSweeper(repo, nil, time.Hour, time.Minute, discardLogger())

	repo.On("ListAwaitingReceipt", mock.Anything, mock.Anything, sweepBatchSize).
		Return([]*domain.Message{}, nil)

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReceiptSweeper_Sweep_ContinuesPastUpdateFailure(t *testing.T) {
	repo := new(MockMessageRepository)
	sweeper := NewReceiptSweeper(repo, map[string]bool{"http": false}, time.Hour, time.Minute, discardLogger())

	repo.On("ListAwaitingReceipt", mock.Anything, mock.Anything, sweepBatchSize).
		Return([]*domain.Message{
			staleSentMessage("msg-1", "http"),
			staleSentMessage("msg-2", "http"),
		}, nil)
	repo.On("UpdateStatus", mock.Anything, "msg-1", domain.MessageStatusAssumedDelivered).
		Return(errors.New("db down"))
	repo.On("UpdateStatus", mock.Anything, "msg-2", domain.MessageStatusAssumedDelivered).
		Return(nil)

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
}

func TestReceiptSweeper_Sweep_ListFailure(t *testing.T) {
	repo := new(MockMessageRepository)
	sweeper := NewReceiptSweeper(repo, nil, time.Hour, time.Minute, discardLogger())

	repo.On("ListAwaitingReceipt", mock.Anything, mock.Anything, sweepBatchSize).
		Return(nil, errors.New("db down"))

	_, err := sweeper.Sweep(context.Background())
	assert.Error(t, err)
}
