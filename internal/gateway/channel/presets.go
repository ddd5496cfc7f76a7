package channel

import (
	"encoding/base64"
	"net/http"
)

// Factory presets for known providers. They only pre-populate a
// ChannelConfig; the usual Validate contract still applies at construction.

// TwilioConfig returns a configuration for Twilio's Messages API. Twilio uses
// HTTP Basic auth with the account SID as user and the auth token as password,
// and a form-encoded body.
func TwilioConfig(accountSID, authToken, fromNumber string) ChannelConfig {
	return ChannelConfig{
		ProviderName:        "twilio",
		APIURL:              "https://api.twilio.com/2010-04-01/Accounts/" + accountSID + "/Messages.json",
		APIKey:              accountSID + ":" + authToken,
		AuthorizationType:   AuthBasic,
		FromNumber:          fromNumber,
		RequestBodyTemplate: "To={PhoneNumber}&Body={Content}&From={From}",
		ContentType:         "application/x-www-form-urlencoded",
		TimeoutMs:           15000,
		MaxRetryAttempts:    2,
	}
}

// AWSSNSConfig returns a configuration for AWS SNS publish. SNS requires
// SigV4 signing; the caller supplies the signer (typically wrapping the AWS
// SDK's signer), this preset only wires the placeholder that marks the
// request as needing it.
func AWSSNSConfig(region, accessKey string, signer RequestSigner) ChannelConfig {
	return ChannelConfig{
		ProviderName:      "aws-sns",
		APIURL:            "https://sns." + region + ".amazonaws.com/",
		APIKey:            accessKey,
		AuthorizationType: AuthAWS,
		Signer:            signer,
		TimeoutMs:         15000,
		MaxRetryAttempts:  2,
	}
}

// GenericJSONConfig returns a Bearer-auth configuration with no body
// template, so the builder falls back to the generic JSON body.
func GenericJSONConfig(providerName, apiURL, apiKey, fromNumber string) ChannelConfig {
	return ChannelConfig{
		ProviderName:      providerName,
		APIURL:            apiURL,
		APIKey:            apiKey,
		AuthorizationType: AuthBearer,
		FromNumber:        fromNumber,
		TimeoutMs:         10000,
		MaxRetryAttempts:  1,
	}
}

// basicAuthValue encodes the Basic credential material. The configured APIKey
// already carries the provider-authored "user:password" pair.
func basicAuthValue(apiKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}

// applyAuth sets the authorization header (or invokes the signer) on req.
// Unsupported schemes never reach here; Validate rejects them at construction.
func applyAuth(req *http.Request, cfg *ChannelConfig) error {
	switch cfg.AuthorizationType {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	case AuthAPIKey:
		req.Header.Set(cfg.APIKeyHeaderName, cfg.APIKey)
	case AuthBasic:
		req.Header.Set("Authorization", basicAuthValue(cfg.APIKey))
	case AuthAWS:
		return cfg.Signer(req, cfg.APIKey)
	}
	return nil
}
