package source

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// EventTypeUnknown is the classification used when an adapter cannot
// determine the event type from the transport layer.
const EventTypeUnknown = "unknown"

// Request is one inbound webhook, captured for validation and parsing.
// The body is read once by the HTTP layer before any adapter sees it,
// so every adapter signs and parses the exact bytes that arrived.
type Request struct {
	Header http.Header
	Body   []byte
}

// Adapter is the capability set every source variant implements.
type Adapter interface {
	// Name returns the adapter's registry key, matching the source.type
	// value automations declare.
	Name() string

	// Validate checks the authenticity of the request against the
	// configured secret. It is total: any malformed input returns false.
	Validate(req Request, secret string) bool

	// EventType classifies the event. Adapters that classify from the
	// payload receive the parsed tree; header-classified adapters
	// ignore it. Returns EventTypeUnknown (or the adapter's documented
	// default) when indeterminate.
	EventType(req Request, payload map[string]any) string

	// Parse decodes the request body into an untyped payload tree.
	Parse(req Request) (map[string]any, error)
}

// Handshaker is implemented by adapters whose protocol includes a
// transport-level handshake that bypasses automation matching entirely.
// Handshake returns the response to echo and true when the payload is a
// handshake rather than an event.
type Handshaker interface {
	Handshake(payload map[string]any) (string, bool)
}

// Registry holds the closed set of source adapters, keyed by name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry with all built-in adapters registered.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range []Adapter{
		newGitHubAdapter(),
		newSlackAdapter(),
		newLinearAdapter(),
		newGenericAdapter(),
	} {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the sorted adapter names, for diagnostics and admin
// validation.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseJSONBody decodes a JSON request body into a payload tree.
func parseJSONBody(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return payload, nil
}

// signHex computes the hex-encoded HMAC-SHA256 of data with secret.
func signHex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data) //nolint:errcheck // hash.Hash.Write never errors
	return hex.EncodeToString(mac.Sum(nil))
}

// equalConstantTime compares two strings without leaking timing
// information. A length mismatch is rejected before the comparison.
func equalConstantTime(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b))
}
