package model

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the canonical string form of date-typed values, used in
// serialized files, partition paths and request templates.
const DateLayout = "2006-01-02"

// FieldType is the semantic type of a record field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldFloat
	FieldInt
	FieldBool
	FieldDate
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldFloat:
		return "float"
	case FieldInt:
		return "int"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	default:
		return "unknown"
	}
}

// Field is one named column of a record type.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
}

// Parse converts the serialized string form of a value into its typed form.
// An empty string means "no value" and returns nil.
func (f Field) Parse(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch f.Type {
	case FieldString:
		return s, nil
	case FieldFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: parse float %q: %w", f.Name, s, err)
		}
		return v, nil
	case FieldInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: parse int %q: %w", f.Name, s, err)
		}
		return v, nil
	case FieldBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("field %q: parse bool %q: %w", f.Name, s, err)
		}
		return v, nil
	case FieldDate:
		v, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("field %q: parse date %q: %w", f.Name, s, err)
		}
		return v.UTC(), nil
	default:
		return nil, fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
	}
}

// Format renders a typed value into its serialized string form. A nil value
// renders as the empty string.
func (f Field) Format(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	switch f.Type {
	case FieldString:
		s, ok := v.(string)
		if !ok {
			return "", typeError(f, v)
		}
		return s, nil
	case FieldFloat:
		x, ok := v.(float64)
		if !ok {
			return "", typeError(f, v)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case FieldInt:
		x, ok := v.(int64)
		if !ok {
			return "", typeError(f, v)
		}
		return strconv.FormatInt(x, 10), nil
	case FieldBool:
		x, ok := v.(bool)
		if !ok {
			return "", typeError(f, v)
		}
		return strconv.FormatBool(x), nil
	case FieldDate:
		x, ok := v.(time.Time)
		if !ok {
			return "", typeError(f, v)
		}
		return x.Format(DateLayout), nil
	default:
		return "", fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
	}
}

func typeError(f Field, v any) error {
	return fmt.Errorf("field %q: expected %s value, got %T", f.Name, f.Type, v)
}

// RecordType declares the fixed, ordered field list shared by every record
// in a store. It is passed explicitly wherever a schema is needed; nothing
// in the pipeline inspects Go types at runtime.
type RecordType struct {
	Name   string
	Fields []Field
}

// Field returns the declared field with the given name.
func (rt *RecordType) Field(name string) (Field, bool) {
	for _, f := range rt.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (rt *RecordType) Names() []string {
	names := make([]string, len(rt.Fields))
	for i, f := range rt.Fields {
		names[i] = f.Name
	}
	return names
}

// HasFields reports whether every name is a declared field.
func (rt *RecordType) HasFields(names ...string) bool {
	for _, n := range names {
		if _, ok := rt.Field(n); !ok {
			return false
		}
	}
	return true
}

// Validate checks a record against the declared shape: every required field
// present with the declared value type, and no undeclared fields.
func (rt *RecordType) Validate(rec Record) error {
	for _, f := range rt.Fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			if f.Optional {
				continue
			}
			return fmt.Errorf("missing required field %q", f.Name)
		}
		if err := checkValueType(f, v); err != nil {
			return err
		}
	}
	for name := range rec {
		if _, ok := rt.Field(name); !ok {
			return fmt.Errorf("undeclared field %q", name)
		}
	}
	return nil
}

func checkValueType(f Field, v any) error {
	var ok bool
	switch f.Type {
	case FieldString:
		_, ok = v.(string)
	case FieldFloat:
		_, ok = v.(float64)
	case FieldInt:
		_, ok = v.(int64)
	case FieldBool:
		_, ok = v.(bool)
	case FieldDate:
		_, ok = v.(time.Time)
	}
	if !ok {
		return typeError(f, v)
	}
	return nil
}

// Record is a flat named-field row. Values are string, float64, int64, bool
// or time.Time according to the declared field type; absent optional fields
// are simply missing keys.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// StringAt returns the string value of a field, or "" when absent.
func (r Record) StringAt(name string) string {
	if v, ok := r[name].(string); ok {
		return v
	}
	return ""
}

// TimeAt returns the time value of a field and whether it was present.
func (r Record) TimeAt(name string) (time.Time, bool) {
	v, ok := r[name].(time.Time)
	return v, ok
}
