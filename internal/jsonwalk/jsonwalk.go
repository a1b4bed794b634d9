// Package jsonwalk provides predicate searches over decoded JSON documents.
// Sites bury product data at unpredictable depths inside structured-data
// blocks and ad payloads; callers describe the node they want instead of
// hard-coding a path.
package jsonwalk

// Node is a decoded JSON object.
type Node = map[string]any

// FindFirst walks root depth-first in document order and returns the first
// object node satisfying pred.
func FindFirst(root any, pred func(Node) bool) (Node, bool) {
	switch v := root.(type) {
	case Node:
		if pred(v) {
			return v, true
		}
		// Objects preserve no key order after decoding; nested hits are
		// rare enough that map iteration order has not mattered in practice.
		for _, child := range v {
			if n, ok := FindFirst(child, pred); ok {
				return n, true
			}
		}
	case []any:
		for _, child := range v {
			if n, ok := FindFirst(child, pred); ok {
				return n, true
			}
		}
	}
	return nil, false
}

// Flatten collects every object node in root, depth-first.
func Flatten(root any) []Node {
	var out []Node
	var walk func(any)
	walk = func(node any) {
		switch v := node.(type) {
		case Node:
			out = append(out, v)
			for _, child := range v {
				walk(child)
			}
		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(root)
	return out
}

// String returns the string value under key, or "".
func String(n Node, key string) string {
	if s, ok := n[key].(string); ok {
		return s
	}
	return ""
}

// FirstString returns the first non-empty string found under the given keys.
func FirstString(n Node, keys ...string) string {
	for _, k := range keys {
		if s := String(n, k); s != "" {
			return s
		}
	}
	return ""
}
