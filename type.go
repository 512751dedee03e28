package paramkit

import (
	"fmt"
	"reflect"
	"strconv"
)

// String retrieves a string parameter value.
// Attempts conversion from common types if the stored value isn't already a string.
func (p *Params) String(name string) (string, error) {
	val, found := p.Get(name)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	if strVal, ok := val.(string); ok {
		return strVal, nil
	}

	switch v := val.(type) {
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for parameter %s", val, name)
	}
}

// Int64 retrieves an int64 parameter value.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (p *Params) Int64(name string) (int64, error) {
	val, found := p.Get(name)
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	if val == nil {
		return 0, fmt.Errorf("value for parameter %s is nil, cannot convert to int64", name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d to int64 for parameter %s: overflow", u, name)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		} else {
			if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				return int64(f), nil
			}
			return 0, fmt.Errorf("cannot convert string %q to int64 for parameter %s: %w", s, name, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for parameter %s", val, name)
}

// Bool retrieves a boolean parameter value.
// Attempts conversion from numeric types (0=false, non-zero=true) and parsable strings.
func (p *Params) Bool(name string) (bool, error) {
	val, found := p.Get(name)
	if !found {
		return false, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	if val == nil {
		return false, fmt.Errorf("value for parameter %s is nil, cannot convert to bool", name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := v.String()
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		} else {
			return false, fmt.Errorf("cannot convert string %q to bool for parameter %s: %w", s, name, err)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool for parameter %s", val, name)
}

// Float64 retrieves a float64 parameter value.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (p *Params) Float64(name string) (float64, error) {
	val, found := p.Get(name)
	if !found {
		return 0.0, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	if val == nil {
		return 0.0, fmt.Errorf("value for parameter %s is nil, cannot convert to float64", name)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := v.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		} else {
			return 0.0, fmt.Errorf("cannot convert string %q to float64 for parameter %s: %w", s, name, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	}

	return 0.0, fmt.Errorf("cannot convert type %T to float64 for parameter %s", val, name)
}
