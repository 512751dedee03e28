package paramkit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// WarnFunc receives non-fatal diagnostics. A nil WarnFunc silences them.
type WarnFunc func(format string, args ...any)

// Policy governs how missing parameters and ambiguous names are handled.
type Policy int

const (
	// PolicyDefault applies the operation's own default (raise for
	// serialization, warn for deserialization and tunable collection).
	PolicyDefault Policy = iota
	PolicyIgnore
	PolicyWarn
	PolicyRaise
)

// Serializer converts a parameter's current value into a plain document
// value (scalar, []any, or map[string]any).
type Serializer interface {
	Serialize(name string, p *Params) (any, error)

	// Help returns an optional hint appended to the parameter's doc in
	// generated help output. Empty means no hint.
	Help(name string, p *Params) string
}

// SerializeOptions selects and customizes serialization.
//
// Handler resolution for each parameter follows, in order: ByName, ByKind,
// the built-in default for the declared kind. If all three miss, the
// serialization fails with ErrNoSerializer.
type SerializeOptions struct {
	// Only restricts serialization to these parameter names. Nil means all.
	Only []string

	// ByName overrides the handler for specific parameter names.
	ByName map[string]Serializer

	// ByKind overrides the handler for all parameters of a kind.
	ByKind map[Kind]Serializer

	// OnMissing governs names in Only that are not declared.
	// Defaults to PolicyRaise.
	OnMissing Policy

	// Warn receives diagnostics when OnMissing is PolicyWarn.
	Warn WarnFunc
}

// builtin serializers, keyed by kind.
var defaultSerializers = map[Kind]Serializer{
	KindString:        plainSerializer{},
	KindInt:           plainSerializer{},
	KindFloat:         plainSerializer{},
	KindBool:          plainSerializer{},
	KindList:          plainSerializer{},
	KindMap:           plainSerializer{},
	KindTuple:         plainSerializer{},
	KindTime:          timeSerializer{},
	KindDuration:      durationSerializer{},
	KindSelector:      selectorSerializer{},
	KindMultiSelector: selectorSerializer{},
}

// resolveSerializer walks the name -> kind -> default chain.
func resolveSerializer(name string, kind Kind, opts SerializeOptions) (Serializer, error) {
	if s, ok := opts.ByName[name]; ok {
		return s, nil
	}
	if s, ok := opts.ByKind[kind]; ok {
		return s, nil
	}
	if s, ok := defaultSerializers[kind]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q has kind %s", ErrNoSerializer, name, kind)
}

// SerializeToMap serializes a parameter set into a plain mapping suitable
// for any of the supported text formats.
func SerializeToMap(p *Params, opts SerializeOptions) (map[string]any, error) {
	doc, _, err := serializeParams(p, opts)
	return doc, err
}

// SerializeToMapHelp is SerializeToMap, additionally returning per-parameter
// help text (declaration doc joined with any serializer hint).
func SerializeToMapHelp(p *Params, opts SerializeOptions) (map[string]any, map[string]string, error) {
	return serializeParams(p, opts)
}

func serializeParams(p *Params, opts SerializeOptions) (map[string]any, map[string]string, error) {
	names := opts.Only
	if names == nil {
		names = p.Declared()
	}

	doc := make(map[string]any, len(names))
	help := make(map[string]string)
	for _, name := range names {
		decl, declared := p.Declaration(name)
		if !declared {
			if err := handleMissing(opts.OnMissing, PolicyRaise, opts.Warn, "no parameter %q in %q", name, p.Name()); err != nil {
				return nil, nil, err
			}
			continue
		}

		serializer, err := resolveSerializer(name, decl.Kind, opts)
		if err != nil {
			return nil, nil, err
		}
		value, err := serializer.Serialize(name, p)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing %q in %q: %w", name, p.Name(), err)
		}
		doc[name] = value

		if text := joinHelp(decl.Doc, serializer.Help(name, p)); text != "" {
			help[name] = text
		}
	}
	return doc, help, nil
}

// SerializeGroupToMap serializes a nested group of parameter sets into a
// nested mapping mirroring the group structure.
func SerializeGroupToMap(g Group, opts SerializeOptions) (map[string]any, error) {
	doc, _, err := serializeGroup(g, opts)
	return doc, err
}

func serializeGroup(g Group, opts SerializeOptions) (map[string]any, map[string]any, error) {
	doc := make(map[string]any, len(g))
	help := make(map[string]any)
	for key, member := range g {
		switch m := member.(type) {
		case *Params:
			subDoc, subHelp, err := serializeParams(m, opts)
			if err != nil {
				return nil, nil, err
			}
			doc[key] = subDoc
			if len(subHelp) > 0 {
				help[key] = subHelp
			}
		case Group:
			subDoc, subHelp, err := serializeGroup(m, opts)
			if err != nil {
				return nil, nil, err
			}
			doc[key] = subDoc
			if len(subHelp) > 0 {
				help[key] = subHelp
			}
		default:
			return nil, nil, fmt.Errorf("group member %q is %T, want *Params or Group", key, member)
		}
	}
	return doc, help, nil
}

// serializeAny dispatches on *Params vs Group.
func serializeAny(v any, opts SerializeOptions) (map[string]any, map[string]any, error) {
	switch t := v.(type) {
	case *Params:
		doc, help, err := serializeParams(t, opts)
		if err != nil {
			return nil, nil, err
		}
		anyHelp := make(map[string]any, len(help))
		for k, h := range help {
			anyHelp[k] = h
		}
		return doc, anyHelp, nil
	case Group:
		return serializeGroup(t, opts)
	default:
		return nil, nil, fmt.Errorf("cannot serialize %T, want *Params or Group", v)
	}
}

func handleMissing(p, fallback Policy, warn WarnFunc, format string, args ...any) error {
	if p == PolicyDefault {
		p = fallback
	}
	switch p {
	case PolicyRaise:
		return fmt.Errorf("%s", fmt.Sprintf(format, args...))
	case PolicyWarn:
		if warn != nil {
			warn(format, args...)
		}
	}
	return nil
}

func joinHelp(doc, hint string) string {
	doc = strings.TrimRight(strings.TrimSpace(doc), ".")
	if doc == "" {
		return hint
	}
	if hint == "" {
		return doc
	}
	return doc + ". " + hint
}

// plainSerializer emits the current value unchanged.
type plainSerializer struct{}

func (plainSerializer) Serialize(name string, p *Params) (any, error) {
	value, _ := p.Get(name)
	return value, nil
}

func (plainSerializer) Help(string, *Params) string { return "" }

// timeSerializer formats time values with the first declared layout.
type timeSerializer struct{}

func (timeSerializer) Serialize(name string, p *Params) (any, error) {
	value, _ := p.Get(name)
	if value == nil {
		return nil, nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("value is %T, want time.Time", value)
	}
	decl, _ := p.Declaration(name)
	return t.Format(decl.TimeFormats[0]), nil
}

func (timeSerializer) Help(name string, p *Params) string {
	decl, _ := p.Declaration(name)
	return "Time layout: " + decl.TimeFormats[0]
}

// durationSerializer emits durations in Go's duration string notation.
type durationSerializer struct{}

func (durationSerializer) Serialize(name string, p *Params) (any, error) {
	value, _ := p.Get(name)
	if value == nil {
		return nil, nil
	}
	d, ok := value.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("value is %T, want time.Duration", value)
	}
	return d.String(), nil
}

func (durationSerializer) Help(string, *Params) string {
	return `A duration such as "1m30s"`
}

// selectorSerializer emits the chosen value and documents the choices.
type selectorSerializer struct{}

func (selectorSerializer) Serialize(name string, p *Params) (any, error) {
	value, _ := p.Get(name)
	return value, nil
}

func (selectorSerializer) Help(name string, p *Params) string {
	decl, _ := p.Declaration(name)
	parts := make([]string, len(decl.Choices))
	for i, choice := range decl.Choices {
		parts[i] = fmt.Sprintf("%v", choice)
	}
	sort.Strings(parts)
	return "Choices: " + strings.Join(parts, ", ")
}

// JSONStringSerializer wraps another serializer, re-encoding its output as a
// JSON string. INI output uses this for container values, which the INI
// syntax cannot hold natively.
type JSONStringSerializer struct {
	Inner Serializer
}

func (s JSONStringSerializer) Serialize(name string, p *Params) (any, error) {
	inner := s.Inner
	if inner == nil {
		inner = plainSerializer{}
	}
	value, err := inner.Serialize(name, p)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding %q as JSON string: %w", name, err)
	}
	return string(data), nil
}

func (s JSONStringSerializer) Help(name string, p *Params) string {
	inner := s.Inner
	if inner == nil {
		inner = plainSerializer{}
	}
	return joinHelp(inner.Help(name, p), "Encoded as a JSON string")
}
