package domain

import "time"

// DeliveryReport is the normalised form of an out-of-band delivery receipt
// (DLR) pushed by a provider. Providers disagree wildly on wire format; the
// webhook handler maps whatever arrives into this shape before processing.
type DeliveryReport struct {
	ProviderMessageID string
	Provider          string
	Delivered         bool
	ErrorCode         string
	StatusText        string // provider's own status wording, kept verbatim
	RawPayload        string
	ReceivedAt        time.Time
	DeliveredAt       *time.Time
}
