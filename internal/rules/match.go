package rules

import (
	"strconv"
	"strings"
)

// Logger is the minimal logging interface the rules package needs.
// It matches the structured logging style used across the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Matches evaluates an ordered list of predicates against an event payload.
//
// An empty list always matches. Otherwise every predicate must hold
// (conjunction, evaluated left to right). Each predicate has the grammar
//
//	<path> <op> <literal>
//
// where <op> is == or !=, and <path> is resolved against a context with
// the single root field "payload", so author-facing paths are always
// written as payload.x.y. A predicate without a recognised operator is
// logged and evaluates false, so it can never cause a spurious dispatch.
func Matches(predicates []string, payload any, logger Logger) bool {
	if logger == nil {
		logger = noopLogger{}
	}
	if len(predicates) == 0 {
		return true
	}

	root := map[string]any{"payload": payload}
	for _, predicate := range predicates {
		if !evalPredicate(predicate, root, logger) {
			return false
		}
	}
	return true
}

// evalPredicate evaluates a single predicate against the context root.
func evalPredicate(predicate string, root map[string]any, logger Logger) bool {
	// Test != before ==, since "!=" contains no "=" prefix collision but
	// "a != b" split on "==" would silently misparse.
	var path, literal string
	var negate bool

	switch {
	case strings.Contains(predicate, "!="):
		parts := strings.SplitN(predicate, "!=", 2)
		path, literal = parts[0], parts[1]
		negate = true
	case strings.Contains(predicate, "=="):
		parts := strings.SplitN(predicate, "==", 2)
		path, literal = parts[0], parts[1]
	default:
		logger.Warn("match predicate has no operator, evaluating false",
			"predicate", predicate,
		)
		return false
	}

	value, _ := Resolve(root, strings.TrimSpace(path))

	// Composites never equal a flat literal: short-circuit before the
	// canonical comparison, where a map would otherwise normalise to ""
	// and spuriously equal an absent value or an empty-string literal.
	equal := false
	if !isComposite(value) {
		equal = canonical(value) == canonical(parseLiteral(literal))
	}
	if negate {
		return !equal
	}
	return equal
}

// isComposite reports whether a resolved value is a map or sequence.
func isComposite(value any) bool {
	switch value.(type) {
	case map[string]any, map[any]any, []any:
		return true
	default:
		return false
	}
}

// parseLiteral converts the right-hand side of a predicate into a typed
// value. Recognised forms, in priority order: the tokens true/false,
// a value wrapped in matching single or double quotes (quotes stripped,
// no escape processing), a numeric token, and finally the raw trimmed
// token as a string.
func parseLiteral(raw string) any {
	token := strings.TrimSpace(raw)

	switch token {
	case "true":
		return true
	case "false":
		return false
	}

	const minQuotedLen = 2
	if len(token) >= minQuotedLen {
		first, last := token[0], token[len(token)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return token[1 : len(token)-1]
		}
	}

	if number, err := strconv.ParseFloat(token, 64); err == nil {
		return number
	}

	return token
}

// canonical normalises a value to a comparison string.
//
// The source behaviour here was loosely coercive; this implementation
// pins one rule: both sides of a predicate are compared as canonical
// strings. JSON numbers are rendered without a trailing ".0", so
// payload value 42 equals the literals 42 and "42". Absent or null
// values normalise to the empty string, consistent with the renderer.
func canonical(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		// Composites are rejected in evalPredicate before reaching
		// here; anything else unexpected normalises to empty.
		return ""
	}
}
