package paramkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a supported text format.
type Format string

const (
	// FormatAuto detects the format from the file extension, falling back
	// to content sniffing.
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatINI  Format = "ini"
	FormatTOML Format = "toml"
)

// ReadDocument reads a file in the given format (detected when FormatAuto)
// and returns the parsed document and the format actually used.
func ReadDocument(path string, format Format) (any, Format, error) {
	if format == FormatAuto {
		format = detectFileFormat(path)
		if format == FormatAuto {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, FormatAuto, fmt.Errorf("failed to read source file '%s': %w", path, err)
			}
			format = detectFormatFromContent(data)
			if format == FormatAuto {
				return nil, FormatAuto, fmt.Errorf("unable to determine format for file '%s'", path)
			}
		}
	}

	var (
		doc any
		err error
	)
	switch format {
	case FormatJSON:
		doc, err = ReadJSONDocument(path)
	case FormatYAML:
		doc, err = ReadYAMLDocument(path)
	case FormatINI:
		doc, err = ReadINIDocument(path)
	case FormatTOML:
		doc, err = ReadTOMLDocument(path)
	default:
		return nil, format, fmt.Errorf("unsupported format %q", format)
	}
	return doc, format, err
}

// WriteDocument writes a document in the given format. FormatAuto detects
// the format from the destination extension.
func WriteDocument(path string, doc any, format Format) error {
	if format == FormatAuto {
		format = detectFileFormat(path)
		if format == FormatAuto {
			return fmt.Errorf("unable to determine format for file '%s'", path)
		}
	}
	switch format {
	case FormatJSON:
		return WriteJSONDocument(path, doc, false)
	case FormatYAML:
		return WriteYAMLDocument(path, doc)
	case FormatINI:
		mapping, ok := doc.(map[string]any)
		if !ok {
			return fmt.Errorf("INI documents must have a mapping root, got %T", doc)
		}
		return WriteINIDocument(path, mapping)
	case FormatTOML:
		return WriteTOMLDocument(path, doc)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".ini", ".cfg":
		return FormatINI
	case ".toml", ".tml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// detectFormatFromContent attempts to detect format by parsing.
func detectFormatFromContent(data []byte) Format {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// Try TOML before YAML, which accepts almost anything
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return FormatAuto
}

// atomicWriteFile performs atomic file write.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// marshalBuffer is a small convenience for encoders that want an io.Writer.
func marshalBuffer(encode func(buf *bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
