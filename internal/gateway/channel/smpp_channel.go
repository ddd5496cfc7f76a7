package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fiorix/go-smpp/smpp"
	"github.com/fiorix/go-smpp/smpp/pdu/pdufield"
	"github.com/fiorix/go-smpp/smpp/pdu/pdutext"
	"github.com/google/uuid"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// SMPPConfig holds the connection parameters for a binary SMPP channel.
type SMPPConfig struct {
	ProviderName string
	Addr         string // host:port of the SMSC
	SystemID     string
	Password     string
	SourceAddr   string // optional default sender
	TimeoutMs    int
}

func (c *SMPPConfig) Validate() error {
	if c.ProviderName == "" {
		return fmt.Errorf("smpp config: providerName must not be empty")
	}
	if c.Addr == "" {
		return fmt.Errorf("smpp config [%s]: addr must not be empty", c.ProviderName)
	}
	if c.SystemID == "" {
		return fmt.Errorf("smpp config [%s]: systemId must not be empty", c.ProviderName)
	}
	if c.Password == "" {
		return fmt.Errorf("smpp config [%s]: password must not be empty", c.ProviderName)
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("smpp config [%s]: timeoutMs must be positive, got %d", c.ProviderName, c.TimeoutMs)
	}
	return nil
}

// smppSubmitter is the slice of *smpp.Transmitter the channel needs; tests
// substitute a fake.
type smppSubmitter interface {
	Submit(sm *smpp.ShortMessage) (*smpp.ShortMessage, error)
}

// SMPPChannel is the binary-protocol channel variant. It satisfies the same
// Channel contract as HTTPChannel: every outcome resolves to a SendResult.
type SMPPChannel struct {
	cfg     SMPPConfig
	tx      smppSubmitter
	bound   atomic.Bool
	logger  *slog.Logger
	closeFn func()
}

// NewSMPPChannel validates the configuration, binds a transmitter to the SMSC
// and starts watching the connection status. The bind itself is asynchronous;
// until the first Connected status arrives the channel reports unhealthy.
func NewSMPPChannel(cfg SMPPConfig, logger *slog.Logger) (*SMPPChannel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tx := &smpp.Transmitter{
		Addr:        cfg.Addr,
		User:        cfg.SystemID,
		Passwd:      cfg.Password,
		RespTimeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	statusCh := tx.Bind()

	c := &SMPPChannel{
		cfg:     cfg,
		tx:      tx,
		logger:  logger.With("channel", "smpp", "provider", cfg.ProviderName),
		closeFn: func() { tx.Close() },
	}
	go c.watchStatus(statusCh)
	return c, nil
}

// watchStatus tracks bind state for health checks and reconnect logging.
func (c *SMPPChannel) watchStatus(statusCh <-chan smpp.ConnStatus) {
	for status := range statusCh {
		connected := status.Status() == smpp.Connected
		c.bound.Store(connected)
		if connected {
			c.logger.Info("SMPP transmitter bound", "addr", c.cfg.Addr)
		} else {
			c.logger.Warn("SMPP transmitter connection state changed",
				"status", status.Status().String(), "error", status.Error())
		}
	}
}

func (c *SMPPChannel) Name() string { return c.cfg.ProviderName }

// Send submits the message over the bound transmitter. SMPP has its own
// framing, but the result shape and the fault taxonomy match the HTTP
// channel: timeouts map to 408, unreachable SMSC to 503.
func (c *SMPPChannel) Send(ctx context.Context, msg *domain.Message) domain.SendResult {
	start := time.Now()

	if err := msg.ValidateForSend(); err != nil {
		c.logger.WarnContext(ctx, "Rejecting send before SMSC submit", "error", err, "message_id", msg.ID)
		return c.enrich(domain.FailureResult("validation failed: "+err.Error(), 0, 0), start)
	}

	sm, err := c.tx.Submit(&smpp.ShortMessage{
		Src:      c.cfg.SourceAddr,
		Dst:      msg.Recipient,
		Text:     pdutext.Raw([]byte(msg.Content)),
		Register: pdufield.FinalDeliveryReceipt,
	})
	if err != nil {
		var result domain.SendResult
		if errors.Is(err, smpp.ErrTimeout) {
			result = domain.FailureResult(
				fmt.Sprintf("SMSC %s did not respond within %dms", c.cfg.Addr, c.cfg.TimeoutMs),
				0, networkErrorTimeout,
			)
		} else {
			result = domain.FailureResult(
				fmt.Sprintf("SMPP submit to %s failed: %v", c.cfg.Addr, err),
				0, networkErrorUnreachable,
			)
		}
		c.logger.WarnContext(ctx, "SMPP submit failed", "message_id", msg.ID, "error", err)
		return c.enrich(result, start)
	}

	providerMsgID := sm.RespID()
	if providerMsgID == "" {
		// Same fallback policy as the HTTP parser: success never carries an
		// empty provider id.
		providerMsgID = uuid.NewString()
	}

	c.logger.InfoContext(ctx, "Message submitted to SMSC",
		"message_id", msg.ID,
		"provider_message_id", providerMsgID,
		"duration_ms", time.Since(start).Milliseconds())
	return c.enrich(domain.SuccessResult(providerMsgID), start)
}

func (c *SMPPChannel) enrich(result domain.SendResult, start time.Time) domain.SendResult {
	result.ChannelData[domain.ChannelDataLatencyMs] = domain.NumberValue(float64(time.Since(start).Milliseconds()))
	result.ChannelData[domain.ChannelDataProvider] = domain.StringValue(c.cfg.ProviderName)
	return result
}

// IsHealthy reports whether the transmitter currently holds a bound session.
func (c *SMPPChannel) IsHealthy(ctx context.Context) bool {
	if err := c.cfg.Validate(); err != nil {
		return false
	}
	return c.bound.Load()
}

// Close tears down the SMSC session.
func (c *SMPPChannel) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}
