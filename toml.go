package paramkit

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ReadTOMLDocument parses a TOML file into a document tree.
func ReadTOMLDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file '%s': %w", path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML file '%s': %w", path, err)
	}
	return doc, nil
}

// WriteTOMLDocument writes a document tree to a TOML file, atomically.
// The root must be a mapping.
func WriteTOMLDocument(path string, doc any) error {
	mapping, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("TOML documents must have a mapping root, got %T", doc)
	}
	data, err := marshalBuffer(func(buf *bytes.Buffer) error {
		return toml.NewEncoder(buf).Encode(mapping)
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document to TOML: %w", err)
	}
	return atomicWriteFile(path, data)
}

// TOMLOptions configures parameter-set TOML serialization.
type TOMLOptions struct {
	SerializeOptions
}

// SerializeToTOML serializes a *Params or Group into a TOML file. TOML has
// no null, so parameters whose current value is nil are omitted.
func SerializeToTOML(path string, v any, opts TOMLOptions) error {
	doc, _, err := serializeAny(v, opts.SerializeOptions)
	if err != nil {
		return err
	}
	pruneNils(doc)
	return WriteTOMLDocument(path, doc)
}

func pruneNils(doc map[string]any) {
	for key, value := range doc {
		switch t := value.(type) {
		case nil:
			delete(doc, key)
		case map[string]any:
			pruneNils(t)
		}
	}
}

// DeserializeFromTOML reads a TOML file and applies it to a *Params or Group.
func DeserializeFromTOML(path string, v any, opts DeserializeOptions) error {
	doc, err := ReadTOMLDocument(path)
	if err != nil {
		return err
	}
	return deserializeAny(doc.(map[string]any), v, opts)
}
