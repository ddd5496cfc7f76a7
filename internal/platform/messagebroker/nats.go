package messagebroker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the slice of the NATS client the gateway needs. The app layer
// publishes status-change events; nothing here consumes.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NatsClient wraps a NATS connection.
type NatsClient struct {
	Conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsClient connects to NATS with reconnect handling.
// natsURL example: "nats://localhost:4222"
func NewNatsClient(natsURL, appName string, logger *slog.Logger) (*NatsClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Error("NATS connection closed", "error", nc.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsClient{Conn: nc, logger: logger}, nil
}

// Publish sends data on the subject. The context is accepted for interface
// symmetry; core NATS publishes are fire-and-forget buffered writes.
func (c *NatsClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.Conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection. Drain ensures buffered publishes
// are flushed before the connection drops.
func (c *NatsClient) Close() {
	if c.Conn != nil && !c.Conn.IsClosed() {
		if err := c.Conn.Drain(); err != nil {
			c.logger.Warn("NATS drain failed", "error", err)
		}
	}
}
