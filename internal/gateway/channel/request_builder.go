package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// Placeholders recognised in a provider-authored request body template.
const (
	placeholderRecipient = "{PhoneNumber}"
	placeholderContent   = "{Content}"
	placeholderFrom      = "{From}"
)

// genericSendBody is the JSON body emitted when no template is configured.
type genericSendBody struct {
	To      string `json:"to"`
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
}

// buildSendRequest turns a message into a provider-specific HTTP request. It
// never performs the transport call itself.
func buildSendRequest(ctx context.Context, cfg *ChannelConfig, msg *domain.Message) (*http.Request, error) {
	body, err := renderBody(cfg, msg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	if err := applyAuth(req, cfg); err != nil {
		return nil, fmt.Errorf("failed to sign provider request: %w", err)
	}
	return req, nil
}

// renderBody produces the request body. With a template configured the
// substitution is literal text replacement, not structural JSON merging:
// provider templates rely on those semantics and may pre-escape their values.
// Substituted values are NOT escaped against injection into the template's
// format; that is a known correctness gap carried over intentionally, since
// escaping here would break templates authored around the raw behaviour.
func renderBody(cfg *ChannelConfig, msg *domain.Message) ([]byte, error) {
	if cfg.RequestBodyTemplate != "" {
		replacer := strings.NewReplacer(
			placeholderRecipient, msg.Recipient,
			placeholderContent, msg.Content,
			placeholderFrom, cfg.FromNumber,
		)
		return []byte(replacer.Replace(cfg.RequestBodyTemplate)), nil
	}

	body := genericSendBody{
		To:      msg.Recipient,
		Message: msg.Content,
		From:    cfg.FromNumber,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generic send body: %w", err)
	}
	return encoded, nil
}
