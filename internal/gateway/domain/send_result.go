package domain

import "time"

// ChannelValueKind enumerates the value kinds a ChannelData entry may hold.
// Keeping the set closed preserves type safety while the key space stays open.
type ChannelValueKind int

const (
	ChannelValueString ChannelValueKind = iota
	ChannelValueNumber
	ChannelValueTime
)

// ChannelValue is one diagnostic datum attached to a send outcome.
type ChannelValue struct {
	Kind ChannelValueKind
	Str  string
	Num  float64
	Time time.Time
}

func StringValue(s string) ChannelValue  { return ChannelValue{Kind: ChannelValueString, Str: s} }
func NumberValue(n float64) ChannelValue { return ChannelValue{Kind: ChannelValueNumber, Num: n} }
func TimeValue(t time.Time) ChannelValue { return ChannelValue{Kind: ChannelValueTime, Time: t} }

// ChannelData carries auxiliary diagnostic fields (raw response body, HTTP
// status, latency, provider name) attached to a result for observability.
type ChannelData map[string]ChannelValue

// Conventional ChannelData keys attached by channels.
const (
	ChannelDataRawResponse = "raw_response"
	ChannelDataHTTPStatus  = "http_status"
	ChannelDataLatencyMs   = "latency_ms"
	ChannelDataProvider    = "provider"
)

// SendResult is the uniform outcome value returned by every channel's send
// operation. All transport, provider and parsing faults are resolved into
// this shape at the channel boundary; callers never need to catch anything.
type SendResult struct {
	Success           bool
	ProviderMessageID string // present iff Success

	ErrorMessage     string
	ErrorCode        int // provider/HTTP status code
	NetworkErrorCode int // transport-layer code, e.g. timeout=408

	ChannelData ChannelData
}

// FailureResult builds a failure SendResult with an empty ChannelData map
// ready for enrichment.
func FailureResult(errMsg string, errorCode, networkErrorCode int) SendResult {
	return SendResult{
		Success:          false,
		ErrorMessage:     errMsg,
		ErrorCode:        errorCode,
		NetworkErrorCode: networkErrorCode,
		ChannelData:      ChannelData{},
	}
}

// SuccessResult builds a success SendResult carrying the provider message id.
func SuccessResult(providerMessageID string) SendResult {
	return SendResult{
		Success:           true,
		ProviderMessageID: providerMessageID,
		ChannelData:       ChannelData{},
	}
}
