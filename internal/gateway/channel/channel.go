// Package channel defines the delivery channel abstraction and its concrete
// variants. A channel knows how to push one message to one provider and to
// answer health-check queries; everything else (persistence, lifecycle,
// receipts) lives with the caller.
package channel

import (
	"context"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// Channel is a pluggable delivery mechanism (HTTP REST, binary SMPP, ...)
// capable of sending a message and reporting health. Implementations must be
// safe for concurrent use: the transport handle they hold is shared across
// calls and configuration is read-only after construction.
type Channel interface {
	// Send dispatches the message and resolves every outcome, including
	// transport faults and timeouts, into a SendResult. It never panics and
	// never returns an error; failure is a value.
	Send(ctx context.Context, msg *domain.Message) domain.SendResult

	// IsHealthy reports whether the channel is structurally able to send.
	// Faults during a live health probe count as unhealthy, never propagate.
	IsHealthy(ctx context.Context) bool

	// Name returns the provider name the channel is configured for.
	Name() string
}
