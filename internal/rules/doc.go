// Package rules implements the payload-inspection primitives used by the
// dispatch pipeline: dot-notation path resolution over untyped payload
// trees, match predicate evaluation, and instruction template rendering.
//
// All three are total functions. Resolving through a missing or scalar
// segment yields absence, a malformed predicate evaluates false, and a
// template with unresolvable tokens renders them as empty strings. None
// of them panic or return errors for any input.
//
// Payloads are the generic value trees produced by encoding/json
// (map[string]any, []any, scalars). The package never mutates them.
//
// # Usage
//
//	payload := map[string]any{"action": "opened"}
//	ok := rules.Matches([]string{`payload.action == "opened"`}, payload, log)
//
//	ctx := rules.Context{Payload: payload, Sprite: sprite}
//	cmd := rules.Render("review {{payload.pull_request.url}}", ctx)
package rules
