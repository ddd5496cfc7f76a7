package http

import (
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// SendMessageRequest is the inbound DTO for POST /messages.
type SendMessageRequest struct {
	Recipient   string `json:"recipient" validate:"required"`
	Content     string `json:"content" validate:"required,max=10000"`
	ChannelType string `json:"channel_type,omitempty"`
}

// MessageResponse exposes the message entity with a human-readable status
// label alongside the raw state.
type MessageResponse struct {
	ID                  string     `json:"id"`
	Recipient           string     `json:"recipient"`
	Content             string     `json:"content"`
	Status              string     `json:"status"`
	StatusLabel         string     `json:"status_label"`
	ChannelType         string     `json:"channel_type,omitempty"`
	ProviderMessageID   *string    `json:"provider_message_id,omitempty"`
	ErrorMessage        *string    `json:"error_message,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeliveredAt         *time.Time `json:"delivered_at,omitempty"`
	DeliveryStatus      *string    `json:"delivery_status,omitempty"`
	ErrorCode           *string    `json:"error_code,omitempty"`
	DeliveryReceiptText *string    `json:"delivery_receipt_text,omitempty"`
}

func toMessageResponse(msg *domain.Message) MessageResponse {
	return MessageResponse{
		ID:                  msg.ID,
		Recipient:           msg.Recipient,
		Content:             msg.Content,
		Status:              string(msg.Status),
		StatusLabel:         msg.Status.Label(),
		ChannelType:         msg.ChannelType,
		ProviderMessageID:   msg.ProviderMessageID,
		ErrorMessage:        msg.ErrorMessage,
		CreatedAt:           msg.CreatedAt,
		SentAt:              msg.SentAt,
		UpdatedAt:           msg.UpdatedAt,
		DeliveredAt:         msg.DeliveredAt,
		DeliveryStatus:      msg.DeliveryStatus,
		ErrorCode:           msg.ErrorCode,
		DeliveryReceiptText: msg.DeliveryReceiptText,
	}
}

// GenericErrorResponse is the uniform error body.
type GenericErrorResponse struct {
	Error string `json:"error"`
}
