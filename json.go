package paramkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ReadJSONDocument parses a JSON file into a document tree. Numbers are
// kept as json.Number to preserve precision.
func ReadJSONDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file '%s': %w", path, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Preserve number precision
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON file '%s': %w", path, err)
	}
	return doc, nil
}

// WriteJSONDocument writes a document tree to a JSON file, atomically.
// By default output uses two-space indentation; compact disables it.
func WriteJSONDocument(path string, doc any, compact bool) error {
	data, err := marshalJSON(doc, compact)
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}

func marshalJSON(doc any, compact bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document to JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// JSONOptions configures parameter-set JSON serialization.
type JSONOptions struct {
	SerializeOptions

	// Compact disables indentation.
	Compact bool
}

// SerializeToJSON serializes a *Params or Group into a JSON file.
func SerializeToJSON(path string, v any, opts JSONOptions) error {
	doc, _, err := serializeAny(v, opts.SerializeOptions)
	if err != nil {
		return err
	}
	return WriteJSONDocument(path, doc, opts.Compact)
}

// DeserializeFromJSON reads a JSON file and applies it to a *Params or Group.
func DeserializeFromJSON(path string, v any, opts DeserializeOptions) error {
	doc, err := ReadJSONDocument(path)
	if err != nil {
		return err
	}
	block, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("JSON file '%s' does not hold a mapping at its root", path)
	}
	return deserializeAny(block, v, opts)
}
