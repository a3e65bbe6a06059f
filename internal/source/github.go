package source

import "strings"

const (
	githubSignatureHeader = "X-Hub-Signature-256"
	githubEventHeader     = "X-GitHub-Event"
	githubSignaturePrefix = "sha256="
)

// githubAdapter validates GitHub webhook deliveries.
//
// GitHub signs the raw request body with HMAC-SHA256 and carries the
// hex digest in X-Hub-Signature-256 prefixed with "sha256=". The event
// type travels in the X-GitHub-Event header.
type githubAdapter struct{}

func newGitHubAdapter() *githubAdapter {
	return &githubAdapter{}
}

func (a *githubAdapter) Name() string {
	return "github"
}

// Validate recomputes the body HMAC and compares it against the header
// digest in constant time.
func (a *githubAdapter) Validate(req Request, secret string) bool {
	signature := req.Header.Get(githubSignatureHeader)
	if !strings.HasPrefix(signature, githubSignaturePrefix) {
		return false
	}
	provided := strings.TrimPrefix(signature, githubSignaturePrefix)
	return equalConstantTime(provided, signHex(secret, req.Body))
}

// EventType reads the transport-level event header.
func (a *githubAdapter) EventType(req Request, _ map[string]any) string {
	if event := req.Header.Get(githubEventHeader); event != "" {
		return event
	}
	return EventTypeUnknown
}

// Parse decodes the JSON delivery body.
func (a *githubAdapter) Parse(req Request) (map[string]any, error) {
	return parseJSONBody(req.Body)
}
