package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
)

// providerIDFields are the conventional provider message id field names,
// probed in priority order; first match wins. Covers at least Twilio ("sid"),
// Vonage/Plivo ("message_uuid"/"messageUuid") and the generic shapes.
var providerIDFields = []string{"messageId", "message_id", "id", "sid", "messageUuid", "uuid"}

// rawBodyIDLimit bounds the best-effort identifier taken from a non-JSON
// body, so we never store unbounded blobs as ids.
const rawBodyIDLimit = 100

// parseSendResponse classifies a completed transport exchange into a
// SendResult. It always returns a result and never raises: a malformed body
// on a successful status degrades to a synthesized id, it does not fail the
// send.
func parseSendResponse(statusCode int, body []byte, providerName string) domain.SendResult {
	var result domain.SendResult
	if statusCode >= 200 && statusCode < 300 {
		result = domain.SuccessResult(extractProviderMessageID(body))
	} else {
		result = domain.FailureResult(
			fmt.Sprintf("provider %s returned HTTP %d", providerName, statusCode),
			statusCode,
			statusCode,
		)
	}

	// Raw body and numeric status ride along for diagnosis regardless of
	// outcome.
	result.ChannelData[domain.ChannelDataRawResponse] = domain.StringValue(string(body))
	result.ChannelData[domain.ChannelDataHTTPStatus] = domain.NumberValue(float64(statusCode))
	return result
}

// extractProviderMessageID pulls a provider message id out of a successful
// response body, falling back through progressively weaker strategies. The
// synthesized id is an explicit policy, not an error path: downstream
// consumers never observe a null id on success.
func extractProviderMessageID(body []byte) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, field := range providerIDFields {
			raw, ok := parsed[field]
			if !ok {
				continue
			}
			if id := decodeIDValue(raw); id != "" {
				return id
			}
		}
		return uuid.NewString()
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		if len(trimmed) > rawBodyIDLimit {
			trimmed = trimmed[:rawBodyIDLimit]
		}
		return trimmed
	}
	return uuid.NewString()
}

// decodeIDValue accepts both string and numeric id fields; providers use both.
func decodeIDValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
