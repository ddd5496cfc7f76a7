package domain

import (
	"errors"
	"time"
)

// MessageStatus defines the lifecycle states of an SMS message.
type MessageStatus string

const (
	MessageStatusCreated          MessageStatus = "created"           // Persisted, not yet dispatched
	MessageStatusSent             MessageStatus = "sent"              // Accepted by a channel, awaiting DLR
	MessageStatusFailed           MessageStatus = "failed"            // Dispatch attempt failed
	MessageStatusDelivered        MessageStatus = "delivered"         // Confirmed by delivery receipt (terminal)
	MessageStatusAssumedDelivered MessageStatus = "assumed_delivered" // No receipt mechanism, assumed after wait
	MessageStatusDeliveryUnknown  MessageStatus = "delivery_unknown"  // Receipt expected but never arrived
)

// statusLabels maps lifecycle states to the human-readable text returned
// by the status query surface.
var statusLabels = map[MessageStatus]string{
	MessageStatusCreated:          "Created (not yet sent)",
	MessageStatusSent:             "Sent (DLR pending)",
	MessageStatusFailed:           "Failed",
	MessageStatusDelivered:        "Delivered (confirmed by DLR)",
	MessageStatusAssumedDelivered: "Assumed delivered (no DLR support)",
	MessageStatusDeliveryUnknown:  "Delivery unknown (DLR never arrived)",
}

// Label returns the descriptive text for the status, or the raw value for
// states this build does not know about (e.g. rows written by a newer build).
func (s MessageStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusDelivered
}

// validTransitions encodes the status state machine. A message enters "sent"
// only after a channel reports a successful send; it leaves "sent" either via
// a delivery receipt or via the receipt-wait sweep. A late DLR may still
// upgrade a heuristic state to "delivered".
var validTransitions = map[MessageStatus][]MessageStatus{
	MessageStatusCreated:          {MessageStatusSent, MessageStatusFailed},
	MessageStatusSent:             {MessageStatusDelivered, MessageStatusAssumedDelivered, MessageStatusDeliveryUnknown},
	MessageStatusFailed:           {MessageStatusSent}, // retry path
	MessageStatusAssumedDelivered: {MessageStatusDelivered},
	MessageStatusDeliveryUnknown:  {MessageStatusDelivered},
	MessageStatusDelivered:        {},
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	ErrMessageNotFound   = errors.New("message not found")
	ErrInvalidTransition = errors.New("invalid message status transition")
	ErrEmptyRecipient    = errors.New("recipient must not be empty")
	ErrEmptyContent      = errors.New("content must not be empty")
	ErrContentTooLong    = errors.New("content exceeds maximum length")
	ErrReceiptNotMatched = errors.New("delivery receipt matches no known provider message id")
)

// MaxContentLength bounds message content so that multi-part segmentation
// upstream stays practical.
const MaxContentLength = 10000

// Message is the persisted SMS entity. Channels never mutate it directly;
// they return SendResults that the dispatch service applies.
type Message struct {
	ID                string
	Recipient         string
	Content           string
	Status            MessageStatus
	ChannelType       string // which channel variant dispatched (or will dispatch) it
	ProviderMessageID *string
	ErrorMessage      *string
	CreatedAt         time.Time
	SentAt            *time.Time
	UpdatedAt         time.Time

	// Populated asynchronously when/if a delivery receipt arrives.
	DeliveredAt         *time.Time
	DeliveryStatus      *string
	ErrorCode           *string
	DeliveryReceiptText *string
}

// ValidateForSend checks the local invariants on a message before any
// transport call is attempted.
func (m *Message) ValidateForSend() error {
	if m.Recipient == "" {
		return ErrEmptyRecipient
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if len(m.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}
