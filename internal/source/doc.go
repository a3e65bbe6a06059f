// Package source implements the inbound event-source adapters.
//
// An adapter validates the authenticity of one category of webhook,
// classifies its event type, and decodes its payload. The set of
// adapters is closed and registered by name in a Registry; the
// dispatcher looks adapters up by the {source} path segment of the
// inbound URL, which is also the source.type value automations declare.
//
// # Variants
//
//   - github: HMAC-SHA256 of the raw body in X-Hub-Signature-256
//     (sha256=<hex>), event type from the X-GitHub-Event header
//   - slack: timestamped HMAC over "v0:{ts}:{body}" with a ±5 minute
//     replay window; event type extracted from the decoded payload;
//     url_verification handshake support
//   - linear: HMAC-SHA256 of the raw body in Linear-Signature, no
//     freshness check; event type from the payload
//   - generic: shared-secret comparison against X-Webhook-Token
//
// # Safety
//
// Validation is total: missing headers, undecodable signatures, or
// malformed timestamps return false, never panic. All signature and
// secret comparisons are constant time. Validation always runs before
// any catalog access or execution; a failed validation short-circuits
// the dispatch entirely.
package source
