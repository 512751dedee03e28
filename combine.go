package paramkit

import (
	"fmt"
	"reflect"
	"strings"
)

// CombineOptions configures document merging.
type CombineOptions struct {
	// Nested resolves mapping collisions by descending into children
	// instead of clobbering the old value.
	Nested bool

	// Warn receives merge diagnostics (clobbered values of differing
	// types, sequence concatenation). Nil silences them.
	Warn WarnFunc
}

// Combine folds an ordered list of parsed documents into one.
//
// A single document is returned unchanged. If every root is a sequence the
// result is their order-preserving concatenation. If every root is a
// mapping the documents are folded left to right: without Nested, or when
// the colliding values are not both mappings, the incoming value replaces
// the existing one; with Nested, colliding mappings merge recursively,
// incoming values winning on scalar conflicts while keys present only in
// the old value persist. Mixed root kinds across documents, or more than
// one document with a non-container root, is an error.
func Combine(docs []any, opts CombineOptions) (any, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no source documents to combine")
	}
	if len(docs) == 1 {
		return docs[0], nil
	}

	sequences := make([][]any, 0, len(docs))
	mappings := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		switch t := doc.(type) {
		case []any:
			sequences = append(sequences, t)
		case map[string]any:
			mappings = append(mappings, t)
		}
	}

	switch {
	case len(sequences) == len(docs):
		warnf(opts.Warn, "source documents are all sequences and will merely be appended together")
		var merged []any
		for _, seq := range sequences {
			merged = append(merged, seq...)
		}
		return merged, nil
	case len(mappings) == len(docs):
		if opts.Nested {
			return combineNested(mappings, opts.Warn, nil), nil
		}
		return combineClobber(mappings, opts.Warn), nil
	case len(sequences)+len(mappings) > 0:
		return nil, ErrMixedRoots
	default:
		return nil, ErrMultipleScalarRoots
	}
}

// combineClobber folds mappings left to right, later values replacing
// earlier ones on key collision.
func combineClobber(mappings []map[string]any, warn WarnFunc) map[string]any {
	merged := make(map[string]any)
	for _, mapping := range mappings {
		for key, value := range mapping {
			if old, collision := merged[key]; collision && typesDiffer(old, value) {
				warnf(warn, "clobbered value at key=%s not the same type", key)
			}
			merged[key] = value
		}
	}
	return merged
}

// combineNested folds mappings left to right, descending into colliding
// mapping values. path tracks the current multi-key for diagnostics.
func combineNested(mappings []map[string]any, warn WarnFunc, path []string) map[string]any {
	merged := make(map[string]any)
	for _, mapping := range mappings {
		for key, value := range mapping {
			if old, collision := merged[key]; collision {
				oldMap, oldIsMap := old.(map[string]any)
				newMap, newIsMap := value.(map[string]any)
				if oldIsMap && newIsMap {
					value = combineNested([]map[string]any{oldMap, newMap}, warn, append(path, key))
				} else if typesDiffer(old, value) {
					warnf(warn, "clobbered value at multiindex=%s not the same type", strings.Join(append(path, key), "."))
				}
			}
			merged[key] = value
		}
	}
	return merged
}

// typesDiffer reports whether two colliding values have different dynamic
// types. A nil on either side (but not both) counts as differing.
func typesDiffer(a, b any) bool {
	if a == nil && b == nil {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	return reflect.TypeOf(a) != reflect.TypeOf(b)
}

func warnf(warn WarnFunc, format string, args ...any) {
	if warn != nil {
		warn(format, args...)
	}
}

// CombineFilesOptions configures the file-level combiners.
type CombineFilesOptions struct {
	// Nested selects the recursive mapping merge.
	Nested bool

	// Compact disables indentation (JSON only).
	Compact bool

	// Overrides are "key.path=value" assignments applied to the merged
	// document before writing.
	Overrides []string

	// Warn receives merge diagnostics. Nil silences them.
	Warn WarnFunc
}

// CombineJSONFiles merges the source JSON files and writes the result to dest.
func CombineJSONFiles(sources []string, dest string, opts CombineFilesOptions) error {
	merged, err := combineFiles(sources, ReadJSONDocument, opts)
	if err != nil {
		return err
	}
	return WriteJSONDocument(dest, merged, opts.Compact)
}

// CombineYAMLFiles merges the source YAML files and writes the result to dest.
func CombineYAMLFiles(sources []string, dest string, opts CombineFilesOptions) error {
	merged, err := combineFiles(sources, ReadYAMLDocument, opts)
	if err != nil {
		return err
	}
	return WriteYAMLDocument(dest, merged)
}

// CombineTOMLFiles merges the source TOML files and writes the result to dest.
func CombineTOMLFiles(sources []string, dest string, opts CombineFilesOptions) error {
	merged, err := combineFiles(sources, ReadTOMLDocument, opts)
	if err != nil {
		return err
	}
	return WriteTOMLDocument(dest, merged)
}

func combineFiles(sources []string, read func(string) (any, error), opts CombineFilesOptions) (any, error) {
	docs := make([]any, 0, len(sources))
	for _, source := range sources {
		doc, err := read(source)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	merged, err := Combine(docs, CombineOptions{Nested: opts.Nested, Warn: opts.Warn})
	if err != nil {
		return nil, err
	}
	if len(opts.Overrides) > 0 {
		merged, err = ApplyOverrides(merged, opts.Overrides)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}
