package rules

import "strings"

// Resolve walks root along a dot-separated path and returns the value at
// the end, with ok reporting whether every segment resolved.
//
// Traversal only descends into map-like nodes (map[string]any and
// map[any]any, the two shapes JSON and YAML decoding produce). Indexing
// into a scalar or a sequence, or a missing key, yields absence for the
// whole remaining suffix. Array-index syntax is not supported.
//
// Resolve is total: it never panics for any root or path string.
func Resolve(root any, path string) (any, bool) {
	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case map[any]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		default:
			// Scalar or sequence mid-path: the path cannot continue.
			return nil, false
		}
	}
	return current, true
}
