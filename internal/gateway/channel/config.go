package channel

import (
	"fmt"
	"net/http"
	"net/url"
)

// AuthorizationType selects how a channel authenticates against its provider.
type AuthorizationType string

const (
	AuthBearer AuthorizationType = "Bearer" // Authorization: Bearer <key>
	AuthAPIKey AuthorizationType = "ApiKey" // <APIKeyHeaderName>: <key>
	AuthBasic  AuthorizationType = "Basic"  // Authorization: Basic base64(<key>)
	AuthAWS    AuthorizationType = "AWS"    // request signed by cfg.Signer
)

// RequestSigner applies provider-specific signing to an outbound request.
// Schemes like AWS SigV4 need the whole request; the configuration supplies
// the logic, the builder only invokes it.
type RequestSigner func(req *http.Request, apiKey string) error

// ChannelConfig holds one provider's connection parameters. It is validated
// eagerly at construction and treated as immutable afterwards, so no locking
// is required around it.
type ChannelConfig struct {
	ProviderName        string
	APIURL              string
	APIKey              string
	AuthorizationType   AuthorizationType
	APIKeyHeaderName    string // required when AuthorizationType is ApiKey
	FromNumber          string // optional sender id
	RequestBodyTemplate string // optional; literal placeholder substitution
	ContentType         string // optional; defaults to application/json
	HealthCheckURL      string // optional
	TimeoutMs           int
	MaxRetryAttempts    int
	WebhookURL          string // optional; where the provider posts DLRs
	WebhookSecret       string // optional shared secret for DLR authenticity
	Signer              RequestSigner
}

// Validate checks every required field and names the offending field in the
// error. The first violation wins, so the outcome is deterministic.
func (c *ChannelConfig) Validate() error {
	if c.ProviderName == "" {
		return fmt.Errorf("channel config: providerName must not be empty")
	}
	if c.APIURL == "" {
		return fmt.Errorf("channel config [%s]: apiUrl must not be empty", c.ProviderName)
	}
	if err := requireAbsoluteURL(c.APIURL); err != nil {
		return fmt.Errorf("channel config [%s]: apiUrl is not a well-formed absolute URL: %w", c.ProviderName, err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("channel config [%s]: apiKey must not be empty", c.ProviderName)
	}
	switch c.AuthorizationType {
	case AuthBearer, AuthBasic:
	case AuthAPIKey:
		if c.APIKeyHeaderName == "" {
			return fmt.Errorf("channel config [%s]: apiKeyHeaderName must be set for ApiKey authorization", c.ProviderName)
		}
	case AuthAWS:
		// Signing cannot be silently dropped; an AWS channel without a signer
		// is a configuration error, not a send-time failure.
		if c.Signer == nil {
			return fmt.Errorf("channel config [%s]: authorizationType AWS requires a request signer", c.ProviderName)
		}
	default:
		return fmt.Errorf("channel config [%s]: unsupported authorizationType %q", c.ProviderName, c.AuthorizationType)
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("channel config [%s]: timeoutMs must be positive, got %d", c.ProviderName, c.TimeoutMs)
	}
	if c.MaxRetryAttempts < 0 {
		return fmt.Errorf("channel config [%s]: maxRetryAttempts must not be negative, got %d", c.ProviderName, c.MaxRetryAttempts)
	}
	if c.HealthCheckURL != "" {
		if err := requireAbsoluteURL(c.HealthCheckURL); err != nil {
			return fmt.Errorf("channel config [%s]: healthCheckUrl is not a well-formed absolute URL: %w", c.ProviderName, err)
		}
	}
	if c.WebhookURL != "" {
		if err := requireAbsoluteURL(c.WebhookURL); err != nil {
			return fmt.Errorf("channel config [%s]: webhookUrl is not a well-formed absolute URL: %w", c.ProviderName, err)
		}
	}
	return nil
}

// SupportsReceipts reports whether the provider can push delivery receipts
// back to us. Channels without a webhook have no receipt mechanism at all.
func (c *ChannelConfig) SupportsReceipts() bool {
	return c.WebhookURL != ""
}

func requireAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not absolute", raw)
	}
	return nil
}
