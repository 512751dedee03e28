package paramkit

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadYAMLDocument parses a YAML file into a document tree. Mapping nodes
// are normalized to map[string]any.
func ReadYAMLDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file '%s': %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file '%s': %w", path, err)
	}
	return normalizeDocument(doc), nil
}

// WriteYAMLDocument writes a document tree to a YAML file, atomically.
func WriteYAMLDocument(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document to YAML: %w", err)
	}
	return atomicWriteFile(path, data)
}

// YAMLOptions configures parameter-set YAML serialization.
type YAMLOptions struct {
	SerializeOptions

	// IncludeHelp renders parameter help as a comment block above the
	// document.
	IncludeHelp bool
}

// SerializeToYAML serializes a *Params or Group into a YAML file. With
// IncludeHelp, collected help strings are rendered first as a comment
// block:
//
//	# == Help ==
//	# lr: Learning rate
//	...
func SerializeToYAML(path string, v any, opts YAMLOptions) error {
	doc, help, err := serializeAny(v, opts.SerializeOptions)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if opts.IncludeHelp && len(help) > 0 {
		helpData, err := yaml.Marshal(help)
		if err != nil {
			return fmt.Errorf("failed to marshal help text to YAML: %w", err)
		}
		buf.WriteString("# == Help ==\n")
		for _, line := range strings.Split(strings.TrimRight(string(helpData), "\n"), "\n") {
			buf.WriteString("# ")
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document to YAML: %w", err)
	}
	buf.Write(data)
	return atomicWriteFile(path, buf.Bytes())
}

// DeserializeFromYAML reads a YAML file and applies it to a *Params or Group.
func DeserializeFromYAML(path string, v any, opts DeserializeOptions) error {
	doc, err := ReadYAMLDocument(path)
	if err != nil {
		return err
	}
	block, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("YAML file '%s' does not hold a mapping at its root", path)
	}
	return deserializeAny(block, v, opts)
}
