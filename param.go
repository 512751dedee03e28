package paramkit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Kind identifies the declared type of a parameter. The built-in kinds all
// have default serializers and deserializers; user code may define further
// Kind values, which must then be covered by per-name or per-kind handler
// registrations.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindDuration
	KindList
	KindMap
	KindTuple
	KindSelector
	KindMultiSelector
)

var kindNames = map[Kind]string{
	KindInvalid:       "invalid",
	KindString:        "string",
	KindInt:           "int",
	KindFloat:         "float",
	KindBool:          "bool",
	KindTime:          "time",
	KindDuration:      "duration",
	KindList:          "list",
	KindMap:           "map",
	KindTuple:         "tuple",
	KindSelector:      "selector",
	KindMultiSelector: "multiselector",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Param declares a single named parameter.
type Param struct {
	Name    string
	Kind    Kind
	Default any
	Doc     string

	// Choices constrains KindSelector values (the value must equal one of
	// them) and KindMultiSelector values (every element must).
	Choices []any

	// TimeFormats lists accepted layouts for KindTime. The first entry is
	// used when serializing. Defaults to time.RFC3339.
	TimeFormats []string

	// AllowNil permits nil as a value regardless of Kind.
	AllowNil bool
}

// paramItem holds a declaration together with its current value.
type paramItem struct {
	decl         Param
	currentValue any
}

// Params is a named set of declared parameters with current values.
// The registry maps names to declarations and values, protected for
// concurrent use.
type Params struct {
	name  string
	items map[string]paramItem
	mutex sync.RWMutex
}

// New creates an empty parameter set with the given name. The name is used
// as the default section title in INI output.
func New(name string) *Params {
	return &Params{
		name:  name,
		items: make(map[string]paramItem),
	}
}

// Name returns the set's name.
func (p *Params) Name() string {
	return p.name
}

// Register declares a parameter. The name may be dot-separated
// (e.g. "server.port"); each segment must be a valid bare key.
// The default value becomes the current value and must itself pass the
// declaration checks.
func (p *Params) Register(decl Param) error {
	if decl.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	segments := strings.Split(decl.Name, ".")
	for _, segment := range segments {
		if !isValidKeySegment(segment) {
			return fmt.Errorf("invalid name segment %q in parameter %q", segment, decl.Name)
		}
	}
	if decl.Kind == KindInvalid {
		return fmt.Errorf("parameter %q declared with invalid kind", decl.Name)
	}
	if decl.Kind == KindSelector || decl.Kind == KindMultiSelector {
		if len(decl.Choices) == 0 {
			return fmt.Errorf("parameter %q: %s requires at least one choice", decl.Name, decl.Kind)
		}
	}
	if decl.Kind == KindTime && len(decl.TimeFormats) == 0 {
		decl.TimeFormats = []string{time.RFC3339}
	}
	if err := checkValue(decl, decl.Default); err != nil {
		return fmt.Errorf("parameter %q: default %w", decl.Name, err)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.items[decl.Name] = paramItem{
		decl:         decl,
		currentValue: decl.Default,
	}
	return nil
}

// Unregister removes a parameter declaration.
func (p *Params) Unregister(name string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, exists := p.items[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	delete(p.items, name)
	return nil
}

// Declared returns all declared parameter names in sorted order.
func (p *Params) Declared() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	names := make([]string, 0, len(p.items))
	for name := range p.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a parameter is declared.
func (p *Params) Has(name string) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	_, exists := p.items[name]
	return exists
}

// Declaration returns the declaration of a parameter.
func (p *Params) Declaration(name string) (Param, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	item, exists := p.items[name]
	return item.decl, exists
}

// KindOf returns the declared kind of a parameter.
func (p *Params) KindOf(name string) (Kind, bool) {
	decl, exists := p.Declaration(name)
	return decl.Kind, exists
}

// Doc returns the documentation string of a parameter.
func (p *Params) Doc(name string) string {
	decl, _ := p.Declaration(name)
	return decl.Doc
}

// Get retrieves the current value of a parameter.
// The second return value indicates whether the parameter is declared.
func (p *Params) Get(name string) (any, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	item, exists := p.items[name]
	if !exists {
		return nil, false
	}
	return item.currentValue, true
}

// Default returns the declared default of a parameter.
func (p *Params) Default(name string) (any, bool) {
	decl, exists := p.Declaration(name)
	return decl.Default, exists
}

// Set updates the current value of a parameter after validating it against
// the declaration.
func (p *Params) Set(name string, value any) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	item, exists := p.items[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	if err := checkValue(item.decl, value); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	item.currentValue = value
	p.items[name] = item
	return nil
}

// Reset restores every parameter to its declared default.
func (p *Params) Reset() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for name, item := range p.items {
		item.currentValue = item.decl.Default
		p.items[name] = item
	}
}

// Values returns a copy of the current name-to-value mapping.
func (p *Params) Values() map[string]any {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	values := make(map[string]any, len(p.items))
	for name, item := range p.items {
		values[name] = item.currentValue
	}
	return values
}

// checkValue validates a value against a declaration.
func checkValue(decl Param, value any) error {
	if value == nil {
		if decl.AllowNil {
			return nil
		}
		return fmt.Errorf("%w: nil not allowed", ErrInvalidValue)
	}

	switch decl.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return kindMismatch(decl.Kind, value)
		}
	case KindInt:
		if !isIntegral(value) {
			return kindMismatch(decl.Kind, value)
		}
	case KindFloat:
		if !isNumeric(value) {
			return kindMismatch(decl.Kind, value)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return kindMismatch(decl.Kind, value)
		}
	case KindTime:
		if _, ok := value.(time.Time); !ok {
			return kindMismatch(decl.Kind, value)
		}
	case KindDuration:
		if _, ok := value.(time.Duration); !ok {
			return kindMismatch(decl.Kind, value)
		}
	case KindList, KindTuple:
		if reflect.ValueOf(value).Kind() != reflect.Slice {
			return kindMismatch(decl.Kind, value)
		}
	case KindMap:
		if reflect.ValueOf(value).Kind() != reflect.Map {
			return kindMismatch(decl.Kind, value)
		}
	case KindSelector:
		if !isChoice(decl.Choices, value) {
			return fmt.Errorf("%w: %v is not one of the declared choices", ErrInvalidValue, value)
		}
	case KindMultiSelector:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			return kindMismatch(decl.Kind, value)
		}
		for i := 0; i < rv.Len(); i++ {
			element := rv.Index(i).Interface()
			if !isChoice(decl.Choices, element) {
				return fmt.Errorf("%w: element %v is not one of the declared choices", ErrInvalidValue, element)
			}
		}
	default:
		// User-defined kinds carry no built-in value checks.
	}
	return nil
}

func kindMismatch(kind Kind, value any) error {
	return fmt.Errorf("%w: %T does not satisfy kind %s", ErrInvalidValue, value, kind)
}

// isIntegral reports whether the value is an integer, or a float with no
// fractional part.
func isIntegral(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f == float64(int64(f))
	}
	return false
}

func isNumeric(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isChoice reports whether value matches one of the declared choices,
// tolerating numeric representation differences (int vs int64 vs float64).
func isChoice(choices []any, value any) bool {
	for _, choice := range choices {
		if looseEqual(choice, value) {
			return true
		}
	}
	return false
}

// looseEqual compares scalars across numeric representations.
func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if isNumeric(a) && isNumeric(b) {
		return toFloat(a) == toFloat(b)
	}
	return false
}

func toFloat(value any) float64 {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

// Group is a nested collection of parameter sets ("hierarchical mode").
// Values must be *Params or Group.
type Group map[string]any
