package source

const (
	genericTokenHeader = "X-Webhook-Token"
	genericEventHeader = "X-Webhook-Event"

	// genericDefaultEvent is the event label assigned when the sender
	// does not classify its events. Automations subscribing to the
	// generic source with this label receive everything it sends.
	genericDefaultEvent = "event"
)

// genericAdapter accepts webhooks from senders that cannot sign their
// payloads. Authenticity is a direct shared-secret comparison between
// the X-Webhook-Token header and the configured secret; no hashing is
// involved, so the secret itself travels on the wire and the endpoint
// should be TLS-only.
type genericAdapter struct{}

func newGenericAdapter() *genericAdapter {
	return &genericAdapter{}
}

func (a *genericAdapter) Name() string {
	return "generic"
}

// Validate compares the token header against the secret in constant time.
func (a *genericAdapter) Validate(req Request, secret string) bool {
	token := req.Header.Get(genericTokenHeader)
	if token == "" {
		return false
	}
	return equalConstantTime(token, secret)
}

// EventType reads the optional event header, defaulting to "event".
func (a *genericAdapter) EventType(req Request, _ map[string]any) string {
	if event := req.Header.Get(genericEventHeader); event != "" {
		return event
	}
	return genericDefaultEvent
}

// Parse decodes the JSON body.
func (a *genericAdapter) Parse(req Request) (map[string]any, error) {
	return parseJSONBody(req.Body)
}
