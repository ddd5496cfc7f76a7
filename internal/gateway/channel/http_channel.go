package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// Transport codes for faults that never produced an HTTP status.
const (
	networkErrorTimeout     = http.StatusRequestTimeout     // 408
	networkErrorUnreachable = http.StatusServiceUnavailable // 503; DNS failure, refused connection, etc.
)

// HTTPChannel speaks to one HTTP/REST SMS provider. The http.Client is the
// single shared mutable resource and is safe for concurrent use; per-call
// working data stays local to the call.
type HTTPChannel struct {
	cfg        ChannelConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPChannel validates the configuration eagerly: invalid config fails
// construction, not first use. The client is injected so the whole process
// shares one transport handle.
func NewHTTPChannel(cfg ChannelConfig, httpClient *http.Client, logger *slog.Logger) (*HTTPChannel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPChannel{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With("channel", "http", "provider", cfg.ProviderName),
	}, nil
}

func (c *HTTPChannel) Name() string { return c.cfg.ProviderName }

// Config exposes the immutable channel configuration (read-only by contract).
func (c *HTTPChannel) Config() ChannelConfig { return c.cfg }

// Send dispatches the message. Every path, including panic-free handling of
// transport faults and malformed responses, ends in a SendResult; the
// wall-clock duration is recorded on all of them.
func (c *HTTPChannel) Send(ctx context.Context, msg *domain.Message) domain.SendResult {
	start := time.Now()

	if err := msg.ValidateForSend(); err != nil {
		c.logger.WarnContext(ctx, "Rejecting send before transport call", "error", err, "message_id", msg.ID)
		result := domain.FailureResult("validation failed: "+err.Error(), 0, 0)
		return c.enrich(result, start)
	}

	result := c.attemptWithRetries(ctx, msg)
	result = c.enrich(result, start)

	if result.Success {
		c.logger.InfoContext(ctx, "Message submitted to provider",
			"message_id", msg.ID,
			"provider_message_id", result.ProviderMessageID,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.WarnContext(ctx, "Message submission failed",
			"message_id", msg.ID,
			"error", result.ErrorMessage,
			"error_code", result.ErrorCode,
			"network_error_code", result.NetworkErrorCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return result
}

// attemptWithRetries performs up to 1+MaxRetryAttempts transport attempts.
// Only transport-level faults are retried; a provider that answered, even
// with an error status, already made its decision.
func (c *HTTPChannel) attemptWithRetries(ctx context.Context, msg *domain.Message) domain.SendResult {
	var result domain.SendResult
	attempts := c.cfg.MaxRetryAttempts + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		var transportFault bool
		result, transportFault = c.attempt(ctx, msg)
		if !transportFault || attempt == attempts {
			return result
		}
		c.logger.WarnContext(ctx, "Transport fault, retrying send",
			"message_id", msg.ID, "attempt", attempt, "error", result.ErrorMessage)
	}
	return result
}

// attempt performs one transport exchange. The bool return marks transport
// faults (candidate for retry) as opposed to provider answers.
func (c *HTTPChannel) attempt(ctx context.Context, msg *domain.Message) (domain.SendResult, bool) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := buildSendRequest(callCtx, &c.cfg, msg)
	if err != nil {
		return domain.FailureResult("failed to build provider request: "+err.Error(), 0, 0), false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return domain.FailureResult(
				fmt.Sprintf("provider %s did not respond within %dms", c.cfg.ProviderName, c.cfg.TimeoutMs),
				0, networkErrorTimeout,
			), true
		}
		return domain.FailureResult(
			fmt.Sprintf("transport error calling provider %s: %v", c.cfg.ProviderName, err),
			0, networkErrorUnreachable,
		), true
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return domain.FailureResult(
			fmt.Sprintf("failed to read provider %s response: %v", c.cfg.ProviderName, readErr),
			resp.StatusCode, networkErrorUnreachable,
		), true
	}

	return parseSendResponse(resp.StatusCode, body, c.cfg.ProviderName), false
}

// enrich attaches latency and provider name; the parser already attached raw
// body and status where a response existed.
func (c *HTTPChannel) enrich(result domain.SendResult, start time.Time) domain.SendResult {
	if result.ChannelData == nil {
		result.ChannelData = domain.ChannelData{}
	}
	result.ChannelData[domain.ChannelDataLatencyMs] = domain.NumberValue(float64(time.Since(start).Milliseconds()))
	result.ChannelData[domain.ChannelDataProvider] = domain.StringValue(c.cfg.ProviderName)
	return result
}

// IsHealthy returns false when required configuration is absent, probes the
// health-check URL when one is configured, and otherwise assumes a
// structurally valid channel is healthy. That last branch is a static
// assumption, not a guarantee of live provider availability.
func (c *HTTPChannel) IsHealthy(ctx context.Context) bool {
	if err := c.cfg.Validate(); err != nil {
		c.logger.WarnContext(ctx, "Channel config invalid during health check", "error", err)
		return false
	}
	if c.cfg.HealthCheckURL == "" {
		return true
	}

	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.cfg.HealthCheckURL, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to build health check request", "error", err)
		return false
	}
	if err := applyAuth(req, &c.cfg); err != nil {
		c.logger.WarnContext(ctx, "Failed to authorize health check request", "error", err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Health check probe failed", "error", err, "url", c.cfg.HealthCheckURL)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !healthy {
		c.logger.WarnContext(ctx, "Health check returned non-success status", "status_code", resp.StatusCode)
	}
	return healthy
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
