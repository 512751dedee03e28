package paramkit

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// RegisterStruct declares parameters derived from a struct's fields.
// Field names are taken from `param` tags (falling back to the field name),
// documentation from `doc` tags, and kinds are inferred from the Go type.
// Nested structs recurse, contributing dot-separated names. The prefix is
// prepended to all names (e.g. "server."); an empty prefix is allowed.
func (p *Params) RegisterStruct(prefix string, structWithDefaults any) error {
	v := reflect.ValueOf(structWithDefaults)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("RegisterStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("RegisterStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	var errs []string
	p.registerFields(v, prefix, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("failed to register %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// registerFields handles the recursive field registration.
func (p *Params) registerFields(v reflect.Value, prefix string, errs *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("param")
		if tag == "-" {
			continue // Skip this field
		}

		key := field.Name
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				key = parts[0]
			}
		}

		name := key
		if prefix != "" {
			if !strings.HasSuffix(prefix, ".") {
				prefix += "."
			}
			name = prefix + key
		}

		// time.Time is a struct but declares a leaf parameter.
		fieldType := fieldValue.Type()
		isTime := fieldType == reflect.TypeOf(time.Time{})
		isStruct := fieldValue.Kind() == reflect.Struct && !isTime
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldType.Elem().Kind() == reflect.Struct &&
			fieldType.Elem() != reflect.TypeOf(time.Time{})

		if isStruct || isPtrToStruct {
			nestedValue := fieldValue
			if isPtrToStruct {
				if fieldValue.IsNil() {
					// Nil pointers carry no defaults worth declaring.
					continue
				}
				nestedValue = fieldValue.Elem()
			}
			p.registerFields(nestedValue, name+".", errs)
			continue
		}

		kind, def := inferKind(fieldValue)
		if kind == KindInvalid {
			*errs = append(*errs, fmt.Sprintf("field %s (parameter %s): unsupported type %s", field.Name, name, fieldType))
			continue
		}

		decl := Param{
			Name:    name,
			Kind:    kind,
			Default: def,
			Doc:     field.Tag.Get("doc"),
		}
		if err := p.Register(decl); err != nil {
			*errs = append(*errs, fmt.Sprintf("field %s (parameter %s): %v", field.Name, name, err))
		}
	}
}

// inferKind maps a struct field to a parameter kind and default value.
func inferKind(v reflect.Value) (Kind, any) {
	switch v.Interface().(type) {
	case time.Duration:
		return KindDuration, v.Interface()
	case time.Time:
		return KindTime, v.Interface()
	}

	switch v.Kind() {
	case reflect.String:
		return KindString, v.Interface()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt, v.Interface()
	case reflect.Float32, reflect.Float64:
		return KindFloat, v.Interface()
	case reflect.Bool:
		return KindBool, v.Interface()
	case reflect.Slice:
		return KindList, v.Interface()
	case reflect.Map:
		return KindMap, v.Interface()
	}
	return KindInvalid, nil
}
