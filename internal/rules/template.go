package rules

import (
	"encoding/json"
	"regexp"
	"strings"
)

// tokenRegex matches {{dotted.path}} substitution tokens.
var tokenRegex = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Context is the two-part value tree available to Render. Payload is the
// event payload for the dispatch (nil for time-triggered automations);
// Sprite is the static metadata of the target sprite. Authors address them
// as {{payload.x.y}} and {{sprite.name}} respectively.
type Context struct {
	Payload any
	Sprite  map[string]any
}

// root builds the resolution tree for one render call.
func (c Context) root() map[string]any {
	return map[string]any{
		"payload": c.Payload,
		"sprite":  c.Sprite,
	}
}

// Render substitutes every {{dotted.path}} token in template with the
// stringified value resolved from ctx. Absent or null values substitute
// the empty string. No conditionals, loops, or escaping are applied; the
// output is consumed as a shell command or free-text prompt, not markup.
//
// Render is total. A template with no tokens is returned unchanged and
// malformed tokens degrade to empty or literal text, never an error.
func Render(template string, ctx Context) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	root := ctx.root()
	return tokenRegex.ReplaceAllStringFunc(template, func(token string) string {
		path := strings.TrimSpace(tokenRegex.FindStringSubmatch(token)[1])
		value, ok := Resolve(root, path)
		if !ok {
			return ""
		}
		return stringify(value)
	})
}

// stringify renders a resolved value for template substitution.
// Scalars follow the same canonical forms as predicate comparison;
// composites render as compact JSON so structured payload fragments
// can be passed through to the instruction.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	default:
		return canonical(v)
	}
}
