package paramkit

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOverrides turns "key.path=value" assignments into a nested document.
// A bare key with no "=" is treated as a boolean true. Values are parsed as
// bool, int64 or float64 when they look like one, with double quotes
// forcing a string.
func ParseOverrides(pairs []string) (map[string]any, error) {
	doc := make(map[string]any)
	for _, pair := range pairs {
		keyPath := pair
		value := any(true)
		if idx := strings.Index(pair, "="); idx >= 0 {
			keyPath = pair[:idx]
			value = parseOverrideValue(pair[idx+1:])
		}
		if keyPath == "" {
			return nil, fmt.Errorf("malformed override %q, want key.path=value", pair)
		}
		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid override key %q", keyPath)
			}
		}
		setNestedValue(doc, keyPath, value)
	}
	return doc, nil
}

// ApplyOverrides merges the parsed overrides onto doc with a nested merge,
// override values winning. The document root must be a mapping.
func ApplyOverrides(doc any, pairs []string) (any, error) {
	if len(pairs) == 0 {
		return doc, nil
	}
	overlay, err := ParseOverrides(pairs)
	if err != nil {
		return nil, err
	}
	mapping, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("overrides require a mapping document root, got %T", doc)
	}
	return Combine([]any{mapping, overlay}, CombineOptions{Nested: true})
}

// parseOverrideValue attempts to parse a string into appropriate types
func parseOverrideValue(s string) any {
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
