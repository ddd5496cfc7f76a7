package channel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildForTest(t *testing.T, cfg ChannelConfig, msg *domain.Message) *http.Request {
	t.Helper()
	req, err := buildSendRequest(context.Background(), &cfg, msg)
	require.NoError(t, err)
	return req
}

func requestBody(t *testing.T, req *http.Request) string {
	t.Helper()
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return string(body)
}

func TestBuildSendRequest_TemplateSubstitution(t *testing.T) {
	cfg := validTestConfig()
	cfg.RequestBodyTemplate = `{"to":"{PhoneNumber}","body":"{Content}"}`
	msg := &domain.Message{Recipient: "+15551234567", Content: "Hello"}

	req := buildForTest(t, cfg, msg)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, cfg.APIURL, req.URL.String())
	// Literal substitution, byte for byte.
	assert.Equal(t, `{"to":"+15551234567","body":"Hello"}`, requestBody(t, req))
}

func TestBuildSendRequest_TemplateWithFromPlaceholder(t *testing.T) {
	cfg := validTestConfig()
	cfg.FromNumber = "+15550009999"
	cfg.RequestBodyTemplate = "To={PhoneNumber}&Body={Content}&From={From}"
	cfg.ContentType = "application/x-www-form-urlencoded"
	msg := &domain.Message{Recipient: "+15551234567", Content: "Hi there"}

	req := buildForTest(t, cfg, msg)

	assert.Equal(t, "To=+15551234567&Body=Hi there&From=+15550009999", requestBody(t, req))
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
}

// The template substitution is literal text replacement: values are not
// escaped against the target format. Provider templates are authored around
// that behaviour, so the builder must not quote or merge structurally.
func TestBuildSendRequest_TemplateDoesNotEscape(t *testing.T) {
	cfg := validTestConfig()
	cfg.RequestBodyTemplate = `{"body":"{Content}"}`
	msg := &domain.Message{Recipient: "+15551234567", Content: `say "hi"`}

	req := buildForTest(t, cfg, msg)
	assert.Equal(t, `{"body":"say "hi""}`, requestBody(t, req))
}

func TestBuildSendRequest_GenericJSONFallback(t *testing.T) {
	cfg := validTestConfig()
	msg := &domain.Message{Recipient: "+15551234567", Content: "Hello"}

	req := buildForTest(t, cfg, msg)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(requestBody(t, req)), &body))
	assert.Equal(t, "+15551234567", body["to"])
	assert.Equal(t, "Hello", body["message"])
	_, hasFrom := body["from"]
	assert.False(t, hasFrom, "from must be omitted when no sender id is configured")
}

func TestBuildSendRequest_GenericJSONIncludesFrom(t *testing.T) {
	cfg := validTestConfig()
	cfg.FromNumber = "+15550009999"
	msg := &domain.Message{Recipient: "+15551234567", Content: "Hello"}

	req := buildForTest(t, cfg, msg)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(requestBody(t, req)), &body))
	assert.Equal(t, "+15550009999", body["from"])
}

func TestBuildSendRequest_Authorization(t *testing.T) {
	msg := &domain.Message{Recipient: "+15551234567", Content: "Hello"}

	t.Run("bearer", func(t *testing.T) {
		cfg := validTestConfig()
		req := buildForTest(t, cfg, msg)
		assert.Equal(t, "Bearer secret-key", req.Header.Get("Authorization"))
	})

	t.Run("api key header", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.AuthorizationType = AuthAPIKey
		cfg.APIKeyHeaderName = "X-Api-Key"
		req := buildForTest(t, cfg, msg)
		assert.Equal(t, "secret-key", req.Header.Get("X-Api-Key"))
		assert.Empty(t, req.Header.Get("Authorization"))
	})

	t.Run("basic", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.AuthorizationType = AuthBasic
		cfg.APIKey = "AC123:token456"
		req := buildForTest(t, cfg, msg)
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("AC123:token456"))
		assert.Equal(t, want, req.Header.Get("Authorization"))
	})

	t.Run("aws signer invoked", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.AuthorizationType = AuthAWS
		signed := false
		cfg.Signer = func(req *http.Request, apiKey string) error {
			signed = true
			assert.Equal(t, cfg.APIKey, apiKey)
			req.Header.Set("Authorization", "AWS4-HMAC-SHA256 test")
			return nil
		}
		req := buildForTest(t, cfg, msg)
		assert.True(t, signed)
		assert.Equal(t, "AWS4-HMAC-SHA256 test", req.Header.Get("Authorization"))
	})
}
