package paramkit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// jsonStringKinds lists the kinds whose values cannot live in an INI value
// natively and are therefore carried as JSON strings.
var jsonStringKinds = []Kind{KindList, KindMap, KindTuple, KindMultiSelector}

func iniLoadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		AllowBooleanKeys: true,
	}
}

// ReadINIDocument parses an INI file into a two-level document tree:
// section name to key to string value.
func ReadINIDocument(path string) (any, error) {
	f, err := ini.LoadSources(iniLoadOptions(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI file '%s': %w", path, err)
	}

	doc := make(map[string]any)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}
		keys := make(map[string]any, len(section.Keys()))
		for name, value := range section.KeysHash() {
			keys[name] = value
		}
		doc[section.Name()] = keys
	}
	return doc, nil
}

// WriteINIDocument writes a two-level mapping (section to key to scalar) to
// an INI file, atomically.
func WriteINIDocument(path string, doc map[string]any) error {
	f := ini.Empty()

	for _, sectionName := range sortedKeys(doc) {
		keys, ok := doc[sectionName].(map[string]any)
		if !ok {
			return fmt.Errorf("section %q is %T, want a mapping of keys", sectionName, doc[sectionName])
		}
		section, err := f.NewSection(sectionName)
		if err != nil {
			return fmt.Errorf("failed to create INI section %q: %w", sectionName, err)
		}
		for _, keyName := range sortedKeys(keys) {
			if _, err := section.NewKey(keyName, stringifyINI(keys[keyName])); err != nil {
				return fmt.Errorf("failed to set INI key %q in %q: %w", keyName, sectionName, err)
			}
		}
	}

	return writeINIFile(path, f)
}

// INIOptions configures parameter-set INI serialization.
type INIOptions struct {
	SerializeOptions

	// Section names the section a single *Params serializes into.
	// Defaults to the set's name.
	Section string

	// IncludeHelp attaches parameter help as comments on keys.
	IncludeHelp bool
}

// SerializeToINI serializes a *Params, or a depth-1 Group of them, into an
// INI file. Each group key becomes a section; a lone *Params goes into the
// section named by opts.Section. Container values are encoded as JSON
// strings, as the INI syntax has no native representation for them.
func SerializeToINI(path string, v any, opts INIOptions) error {
	serOpts := opts.SerializeOptions
	serOpts.ByKind = overlayJSONStringSerializers(serOpts.ByKind)

	sections := make(map[string]*Params)
	switch t := v.(type) {
	case *Params:
		name := opts.Section
		if name == "" {
			name = t.Name()
		}
		sections[name] = t
	case Group:
		for key, member := range t {
			set, ok := member.(*Params)
			if !ok {
				return fmt.Errorf("INI format cannot serialize hierarchical groups deeper than one level (member %q is %T)", key, member)
			}
			sections[key] = set
		}
	default:
		return fmt.Errorf("cannot serialize %T, want *Params or Group", v)
	}

	f := ini.Empty()
	for _, sectionName := range sortedParamKeys(sections) {
		doc, help, err := serializeParams(sections[sectionName], serOpts)
		if err != nil {
			return err
		}
		section, err := f.NewSection(sectionName)
		if err != nil {
			return fmt.Errorf("failed to create INI section %q: %w", sectionName, err)
		}
		for _, keyName := range sortedKeys(doc) {
			key, err := section.NewKey(keyName, stringifyINI(doc[keyName]))
			if err != nil {
				return fmt.Errorf("failed to set INI key %q in %q: %w", keyName, sectionName, err)
			}
			if opts.IncludeHelp {
				key.Comment = help[keyName]
			}
		}
	}

	return writeINIFile(path, f)
}

// DeserializeFromINI reads an INI file and applies it to a *Params, or a
// depth-1 Group of them, section by section.
func DeserializeFromINI(path string, v any, opts INIOptions) error {
	f, err := ini.LoadSources(iniLoadOptions(), path)
	if err != nil {
		return fmt.Errorf("failed to parse INI file '%s': %w", path, err)
	}

	deOpts := DeserializeOptions{
		Only:      opts.Only,
		OnMissing: opts.OnMissing,
		Warn:      opts.Warn,
	}
	deOpts.ByKind = overlayJSONStringDeserializers(nil)

	switch t := v.(type) {
	case *Params:
		name := opts.Section
		if name == "" {
			name = t.Name()
		}
		return deserializeINISection(f, name, t, deOpts)
	case Group:
		for key, member := range t {
			set, ok := member.(*Params)
			if !ok {
				return fmt.Errorf("INI format cannot deserialize hierarchical groups deeper than one level (member %q is %T)", key, member)
			}
			if err := deserializeINISection(f, key, set, deOpts); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("cannot deserialize into %T, want *Params or Group", v)
	}
}

func deserializeINISection(f *ini.File, name string, p *Params, opts DeserializeOptions) error {
	section, err := f.GetSection(name)
	if err != nil {
		return fmt.Errorf("INI source has no section %q: %w", name, err)
	}

	block := make(map[string]any)
	for keyName, raw := range section.KeysHash() {
		decl, declared := p.Declaration(keyName)
		// An empty value stands for nil on parameters that allow it;
		// everything else is cast by the kind deserializer.
		if declared && raw == "" && decl.AllowNil {
			block[keyName] = nil
			continue
		}
		block[keyName] = raw
	}
	return DeserializeFromMap(block, p, opts)
}

// CombineINIFiles merges the source INI files at the (section, key) level,
// later values clobbering earlier ones, and writes the result to dest.
// Overrides take the form "section.key=value".
func CombineINIFiles(sources []string, dest string, overrides []string) error {
	if len(sources) == 0 {
		return fmt.Errorf("no source files to combine")
	}
	rest := make([]any, len(sources)-1)
	for i, source := range sources[1:] {
		rest[i] = source
	}
	f, err := ini.LoadSources(iniLoadOptions(), sources[0], rest...)
	if err != nil {
		return fmt.Errorf("failed to load INI sources: %w", err)
	}

	for _, override := range overrides {
		assignment := strings.SplitN(override, "=", 2)
		target := strings.SplitN(assignment[0], ".", 2)
		if len(assignment) != 2 || len(target) != 2 {
			return fmt.Errorf("malformed override %q, want section.key=value", override)
		}
		f.Section(target[0]).Key(target[1]).SetValue(assignment[1])
	}

	return writeINIFile(dest, f)
}

func writeINIFile(path string, f *ini.File) error {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to marshal INI document: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// overlayJSONStringSerializers layers the JSON-string wrappers under any
// caller-supplied kind overrides, which win.
func overlayJSONStringSerializers(byKind map[Kind]Serializer) map[Kind]Serializer {
	merged := make(map[Kind]Serializer, len(byKind)+len(jsonStringKinds))
	for _, kind := range jsonStringKinds {
		merged[kind] = JSONStringSerializer{Inner: defaultSerializers[kind]}
	}
	for kind, serializer := range byKind {
		merged[kind] = serializer
	}
	return merged
}

func overlayJSONStringDeserializers(byKind map[Kind]Deserializer) map[Kind]Deserializer {
	merged := make(map[Kind]Deserializer, len(byKind)+len(jsonStringKinds))
	for _, kind := range jsonStringKinds {
		merged[kind] = JSONStringDeserializer{Inner: defaultDeserializers[kind]}
	}
	for kind, deserializer := range byKind {
		merged[kind] = deserializer
	}
	return merged
}

func stringifyINI(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedParamKeys(m map[string]*Params) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
