package source

import "github.com/nerrad567/spritewire/internal/rules"

const linearSignatureHeader = "Linear-Signature"

// linearAdapter validates Linear webhook deliveries.
//
// Linear carries the hex HMAC-SHA256 of the raw body directly in the
// Linear-Signature header, with no scheme prefix and no freshness
// check. The event type lives in the payload's "type" field, with
// "action" as a secondary classifier.
type linearAdapter struct{}

func newLinearAdapter() *linearAdapter {
	return &linearAdapter{}
}

func (a *linearAdapter) Name() string {
	return "linear"
}

// Validate recomputes the body HMAC and compares it against the header
// value in constant time.
func (a *linearAdapter) Validate(req Request, secret string) bool {
	signature := req.Header.Get(linearSignatureHeader)
	if signature == "" {
		return false
	}
	return equalConstantTime(signature, signHex(secret, req.Body))
}

// EventType reads the payload's type field, falling back to action.
func (a *linearAdapter) EventType(_ Request, payload map[string]any) string {
	for _, field := range []string{"type", "action"} {
		if value, ok := rules.Resolve(payload, field); ok {
			if name, isString := value.(string); isString && name != "" {
				return name
			}
		}
	}
	return EventTypeUnknown
}

// Parse decodes the JSON delivery body.
func (a *linearAdapter) Parse(req Request) (map[string]any, error) {
	return parseJSONBody(req.Body)
}
