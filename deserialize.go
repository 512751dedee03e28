package paramkit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Deserializer applies a document value to a named parameter, casting as
// needed before calling Set.
type Deserializer interface {
	Deserialize(name string, block any, p *Params) error
}

// DeserializeOptions customizes deserialization.
//
// Handler resolution mirrors serialization: ByName, then ByKind, then the
// built-in default for the declared kind, then ErrNoDeserializer.
type DeserializeOptions struct {
	// Only restricts deserialization to these parameter names. Nil means
	// every key present in the block.
	Only []string

	// ByName overrides the handler for specific parameter names.
	ByName map[string]Deserializer

	// ByKind overrides the handler for all parameters of a kind.
	ByKind map[Kind]Deserializer

	// OnMissing governs block keys (or Only entries) with no matching
	// declaration. Defaults to PolicyWarn.
	OnMissing Policy

	// Warn receives diagnostics when OnMissing is PolicyWarn.
	Warn WarnFunc
}

var defaultDeserializers = map[Kind]Deserializer{
	KindString:        stringDeserializer{},
	KindInt:           intDeserializer{},
	KindFloat:         floatDeserializer{},
	KindBool:          boolDeserializer{},
	KindTime:          timeDeserializer{},
	KindDuration:      durationDeserializer{},
	KindList:          listDeserializer{},
	KindMap:           mapDeserializer{},
	KindTuple:         listDeserializer{},
	KindSelector:      selectorDeserializer{},
	KindMultiSelector: multiSelectorDeserializer{},
}

func resolveDeserializer(name string, kind Kind, opts DeserializeOptions) (Deserializer, error) {
	if d, ok := opts.ByName[name]; ok {
		return d, nil
	}
	if d, ok := opts.ByKind[kind]; ok {
		return d, nil
	}
	if d, ok := defaultDeserializers[kind]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q has kind %s", ErrNoDeserializer, name, kind)
}

// DeserializeFromMap applies the values in block to the matching declared
// parameters of p.
func DeserializeFromMap(block map[string]any, p *Params, opts DeserializeOptions) error {
	names := opts.Only
	if names == nil {
		names = make([]string, 0, len(block))
		for name := range block {
			names = append(names, name)
		}
	}

	for _, name := range names {
		value, present := block[name]
		if !present {
			continue
		}
		decl, declared := p.Declaration(name)
		if !declared {
			if err := handleMissing(opts.OnMissing, PolicyWarn, opts.Warn, "no parameter %q in %q to deserialize into", name, p.Name()); err != nil {
				return err
			}
			continue
		}

		deserializer, err := resolveDeserializer(name, decl.Kind, opts)
		if err != nil {
			return err
		}
		if err := deserializer.Deserialize(name, value, p); err != nil {
			return fmt.Errorf("deserializing %q in %q: %w", name, p.Name(), err)
		}
	}
	return nil
}

// FlattenDocument rewrites a nested mapping into dotted-name form, so a
// hierarchical file can be applied to a set declared with dotted names.
func FlattenDocument(doc map[string]any) map[string]any {
	return flattenMap(doc, "")
}

// DeserializeGroupFromMap applies a nested mapping to a nested group,
// descending one level per group key.
func DeserializeGroupFromMap(block map[string]any, g Group, opts DeserializeOptions) error {
	for key, member := range g {
		sub, present := block[key]
		if !present {
			if err := handleMissing(opts.OnMissing, PolicyWarn, opts.Warn, "no block %q in source document", key); err != nil {
				return err
			}
			continue
		}
		subMap, ok := sub.(map[string]any)
		if !ok {
			return fmt.Errorf("block %q is %T, want a mapping", key, sub)
		}
		switch m := member.(type) {
		case *Params:
			if err := DeserializeFromMap(subMap, m, opts); err != nil {
				return err
			}
		case Group:
			if err := DeserializeGroupFromMap(subMap, m, opts); err != nil {
				return err
			}
		default:
			return fmt.Errorf("group member %q is %T, want *Params or Group", key, member)
		}
	}
	return nil
}

// deserializeAny dispatches on *Params vs Group.
func deserializeAny(block map[string]any, v any, opts DeserializeOptions) error {
	switch t := v.(type) {
	case *Params:
		return DeserializeFromMap(block, t, opts)
	case Group:
		return DeserializeGroupFromMap(block, t, opts)
	default:
		return fmt.Errorf("cannot deserialize into %T, want *Params or Group", v)
	}
}

// setMaybeNil assigns nil when the declaration permits it, reporting whether
// the nil case was handled.
func setMaybeNil(name string, block any, p *Params) (bool, error) {
	if block != nil {
		return false, nil
	}
	decl, _ := p.Declaration(name)
	if !decl.AllowNil {
		return false, fmt.Errorf("nil not allowed")
	}
	return true, p.Set(name, nil)
}

type stringDeserializer struct{}

func (stringDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	switch v := block.(type) {
	case string:
		return p.Set(name, v)
	case []byte:
		return p.Set(name, string(v))
	case json.Number:
		return p.Set(name, v.String())
	case bool, int, int64, float64:
		return p.Set(name, fmt.Sprintf("%v", v))
	}
	return fmt.Errorf("cannot cast %T to string", block)
}

type intDeserializer struct{}

func (intDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	i, err := castInt(block)
	if err != nil {
		return err
	}
	return p.Set(name, i)
}

func castInt(block any) (int64, error) {
	switch v := block.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to int", v)
		}
		return floatToInt(f)
	}

	rv := reflect.ValueOf(block)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	}
	return 0, fmt.Errorf("cannot cast %T to int", block)
}

// floatToInt refuses fractional values rather than truncating them.
func floatToInt(f float64) (int64, error) {
	i := int64(f)
	if f != float64(i) {
		return 0, fmt.Errorf("%v has a fractional part", f)
	}
	return i, nil
}

type floatDeserializer struct{}

func (floatDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	f, err := castFloat(block)
	if err != nil {
		return err
	}
	return p.Set(name, f)
}

func castFloat(block any) (float64, error) {
	switch v := block.(type) {
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to float", v)
		}
		return f, nil
	}

	rv := reflect.ValueOf(block)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("cannot cast %T to float", block)
}

// boolNames mirrors the spellings accepted by common INI dialects.
var (
	trueNames  = map[string]bool{"true": true, "yes": true, "on": true, "t": true, "1": true}
	falseNames = map[string]bool{"false": true, "no": true, "off": true, "f": true, "0": true}
)

type boolDeserializer struct{}

func (boolDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	switch v := block.(type) {
	case bool:
		return p.Set(name, v)
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		if trueNames[lower] {
			return p.Set(name, true)
		}
		if falseNames[lower] {
			return p.Set(name, false)
		}
		return fmt.Errorf("cannot cast %q to bool", v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return fmt.Errorf("cannot cast %v to bool", v)
		}
		return boolFromInt(name, i, p)
	case int:
		return boolFromInt(name, int64(v), p)
	case int64:
		return boolFromInt(name, v, p)
	case float64:
		i, err := floatToInt(v)
		if err != nil {
			return fmt.Errorf("cannot cast %v to bool", v)
		}
		return boolFromInt(name, i, p)
	}
	return fmt.Errorf("cannot cast %T to bool", block)
}

func boolFromInt(name string, i int64, p *Params) error {
	switch i {
	case 0:
		return p.Set(name, false)
	case 1:
		return p.Set(name, true)
	}
	return fmt.Errorf("cannot cast %d to bool", i)
}

type timeDeserializer struct{}

func (timeDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	decl, _ := p.Declaration(name)

	if s, ok := block.(string); ok {
		for _, layout := range decl.TimeFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return p.Set(name, t)
			}
		}
		return fmt.Errorf("%q matches none of the declared time layouts", s)
	}
	if t, ok := block.(time.Time); ok {
		return p.Set(name, t)
	}
	// Fall back to a unix timestamp in seconds.
	if f, err := castFloat(block); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * float64(time.Second))
		return p.Set(name, time.Unix(sec, nsec).UTC())
	}
	return fmt.Errorf("cannot cast %T to time", block)
}

type durationDeserializer struct{}

func (durationDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	switch v := block.(type) {
	case time.Duration:
		return p.Set(name, v)
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("cannot cast %q to duration: %w", v, err)
		}
		return p.Set(name, d)
	}
	// Numbers are seconds.
	if f, err := castFloat(block); err == nil {
		return p.Set(name, time.Duration(f*float64(time.Second)))
	}
	return fmt.Errorf("cannot cast %T to duration", block)
}

type listDeserializer struct{}

func (listDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	list, err := castList(block)
	if err != nil {
		return err
	}
	return p.Set(name, list)
}

func castList(block any) ([]any, error) {
	if list, ok := block.([]any); ok {
		return list, nil
	}
	rv := reflect.ValueOf(block)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot cast %T to list", block)
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, nil
}

type mapDeserializer struct{}

func (mapDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	normalized := normalizeDocument(block)
	m, ok := normalized.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot cast %T to map", block)
	}
	return p.Set(name, m)
}

type selectorDeserializer struct{}

func (selectorDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	decl, _ := p.Declaration(name)
	choice, err := matchChoice(decl.Choices, block)
	if err != nil {
		return err
	}
	return p.Set(name, choice)
}

type multiSelectorDeserializer struct{}

func (multiSelectorDeserializer) Deserialize(name string, block any, p *Params) error {
	if done, err := setMaybeNil(name, block, p); done || err != nil {
		return err
	}
	list, err := castList(block)
	if err != nil {
		return err
	}
	decl, _ := p.Declaration(name)
	chosen := make([]any, len(list))
	for i, element := range list {
		choice, err := matchChoice(decl.Choices, element)
		if err != nil {
			return err
		}
		chosen[i] = choice
	}
	return p.Set(name, chosen)
}

// matchChoice finds the declared choice a block value corresponds to,
// comparing loosely and falling back to string forms so that values read
// from string-only formats still match.
func matchChoice(choices []any, block any) (any, error) {
	if n, ok := block.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			block = i
		} else if f, err := n.Float64(); err == nil {
			block = f
		}
	}
	for _, choice := range choices {
		if looseEqual(choice, block) {
			return choice, nil
		}
	}
	if s, ok := block.(string); ok {
		for _, choice := range choices {
			if fmt.Sprintf("%v", choice) == s {
				return choice, nil
			}
		}
	}
	return nil, fmt.Errorf("%v is not one of the declared choices", block)
}

// JSONStringDeserializer wraps another deserializer, first decoding string
// blocks as JSON. The INI reader uses this for container values.
type JSONStringDeserializer struct {
	Inner Deserializer
}

func (d JSONStringDeserializer) Deserialize(name string, block any, p *Params) error {
	if s, ok := block.(string); ok {
		var decoded any
		decoder := json.NewDecoder(strings.NewReader(s))
		decoder.UseNumber()
		if err := decoder.Decode(&decoded); err != nil {
			return fmt.Errorf("decoding %q as JSON string: %w", name, err)
		}
		block = normalizeDocument(decoded)
	}
	inner := d.Inner
	if inner == nil {
		decl, _ := p.Declaration(name)
		resolved, ok := defaultDeserializers[decl.Kind]
		if !ok {
			return fmt.Errorf("%w: %q has kind %s", ErrNoDeserializer, name, decl.Kind)
		}
		inner = resolved
	}
	return inner.Deserialize(name, block, p)
}
