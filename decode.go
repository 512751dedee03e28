package paramkit

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DecodeInto decodes a document block into a target struct. Field names
// come from `param` tags. Input is weakly typed, so strings cast to
// numbers, durations, times and comma-separated slices.
func DecodeInto(block map[string]any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "param",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(block); err != nil {
		return fmt.Errorf("failed to decode block: %w", err)
	}
	return nil
}

// Scan decodes the current values of the set into a target struct. Dotted
// parameter names become nested maps before decoding, so a struct with
// nested sub-structs tagged `param` receives "db.host" style names. prefix
// restricts the scan to one subtree; empty means the whole set.
func (p *Params) Scan(prefix string, target any) error {
	nested := make(map[string]any)
	for name, value := range p.Values() {
		setNestedValue(nested, name, value)
	}

	section := any(nested)
	if prefix != "" {
		for _, segment := range strings.Split(strings.TrimSuffix(prefix, "."), ".") {
			currentMap, ok := section.(map[string]any)
			if !ok {
				return fmt.Errorf("prefix %q refers to a non-table value", prefix)
			}
			section = currentMap[segment]
		}
	}

	sectionMap, ok := section.(map[string]any)
	if !ok {
		if section == nil {
			sectionMap = make(map[string]any)
		} else {
			return fmt.Errorf("prefix %q refers to a non-table value (type %T)", prefix, section)
		}
	}
	return DecodeInto(sectionMap, target)
}
