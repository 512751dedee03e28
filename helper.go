package paramkit

import "strings"

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
		} else {
			if nextMap, isMap := next.(map[string]any); isMap {
				current = nextMap
			} else {
				newMap := make(map[string]any)
				current[segment] = newMap
				current = newMap
			}
		}
	}

	lastSegment := segments[len(segments)-1]
	current[lastSegment] = value
}

// isValidKeySegment checks if a single name segment is a valid bare key part.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	if strings.ContainsRune(s, '.') {
		return false // Segments themselves cannot contain dots
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'
		isDash := r == '-'

		if !(isLetter || isDigit || isUnderscore || isDash) {
			return false
		}
	}
	return true
}

// normalizeDocument rewrites map[any]any nodes (seen in some YAML inputs)
// into map[string]any so every document shares one mapping representation.
func normalizeDocument(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			t[key] = normalizeDocument(value)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for key, value := range t {
			if s, ok := key.(string); ok {
				m[s] = normalizeDocument(value)
			}
		}
		return m
	case []any:
		for i, value := range t {
			t[i] = normalizeDocument(value)
		}
		return t
	default:
		return v
	}
}
