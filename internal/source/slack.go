package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/spritewire/internal/rules"
)

const (
	slackTimestampHeader = "X-Slack-Request-Timestamp"
	slackSignatureHeader = "X-Slack-Signature"
	slackSignaturePrefix = "v0="

	// slackReplayWindow is the maximum clock skew accepted between the
	// request timestamp and local time. Anything older is treated as a
	// possible replay and rejected.
	slackReplayWindow = 5 * time.Minute

	// slackTypeEventCallback wraps a real event; the event type nests
	// under event.type.
	slackTypeEventCallback = "event_callback"

	// slackTypeURLVerification is the endpoint-ownership handshake.
	// It carries a challenge token to echo back and never reaches
	// automation matching.
	slackTypeURLVerification = "url_verification"
)

// slackAdapter validates Slack Events API deliveries.
//
// Slack signs the string "v0:{timestamp}:{body}" with HMAC-SHA256 and
// carries the digest in X-Slack-Signature as "v0=<hex>". The timestamp
// header is checked against a replay window before the signature is
// verified. Event classification happens after parsing, from the
// payload body rather than a header.
type slackAdapter struct {
	now func() time.Time
}

func newSlackAdapter() *slackAdapter {
	return &slackAdapter{now: time.Now}
}

func (a *slackAdapter) Name() string {
	return "slack"
}

// Validate checks the replay window, then recomputes the versioned
// signature base and compares digests in constant time.
func (a *slackAdapter) Validate(req Request, secret string) bool {
	timestamp := req.Header.Get(slackTimestampHeader)
	signature := req.Header.Get(slackSignatureHeader)
	if timestamp == "" || !strings.HasPrefix(signature, slackSignaturePrefix) {
		return false
	}

	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := a.now().Sub(time.Unix(seconds, 0))
	if age > slackReplayWindow || age < -slackReplayWindow {
		return false
	}

	base := fmt.Sprintf("v0:%s:%s", timestamp, req.Body)
	expected := slackSignaturePrefix + signHex(secret, []byte(base))
	return equalConstantTime(signature, expected)
}

// EventType classifies from the decoded payload: an event_callback
// envelope nests the real type under event.type.
func (a *slackAdapter) EventType(_ Request, payload map[string]any) string {
	outer, _ := rules.Resolve(payload, "type")
	if outer == slackTypeEventCallback {
		if inner, ok := rules.Resolve(payload, "event.type"); ok {
			if name, isString := inner.(string); isString && name != "" {
				return name
			}
		}
	}
	if name, isString := outer.(string); isString && name != "" {
		return name
	}
	return EventTypeUnknown
}

// Parse decodes the JSON event body.
func (a *slackAdapter) Parse(req Request) (map[string]any, error) {
	return parseJSONBody(req.Body)
}

// Handshake recognises the url_verification payload and returns the
// challenge token to echo back.
func (a *slackAdapter) Handshake(payload map[string]any) (string, bool) {
	if outer, _ := rules.Resolve(payload, "type"); outer != slackTypeURLVerification {
		return "", false
	}
	challenge, ok := rules.Resolve(payload, "challenge")
	if !ok {
		return "", false
	}
	token, isString := challenge.(string)
	if !isString {
		return "", false
	}
	return token, true
}
