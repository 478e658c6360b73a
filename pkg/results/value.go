package results

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
)

// Kind is the shape of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindFile
	KindList
	KindDict
	KindBool
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindString:  "str",
	KindFile:    "file",
	KindList:    "list",
	KindDict:    "dict",
	KindBool:    "bool",
}

// String returns the type tag written into reports.
func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// Value is the payload of an artifact or evidence item. It is one of a
// string, a file path, a list of values, a mapping of names to values or a
// boolean. The zero Value is invalid.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []Value
	dict map[string]Value
}

// String returns a plain string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// File returns a string value tagged as a path on disk.
func File(path string) Value { return Value{kind: KindFile, str: path} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns an ordered list of values.
func List(items ...Value) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

// Dict returns a mapping of names to values.
func Dict(m map[string]Value) Value {
	d := make(map[string]Value, len(m))
	maps.Copy(d, m)
	return Value{kind: KindDict, dict: d}
}

// Strings is a shorthand for a list of plain strings.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return Value{kind: KindList, list: list}
}

func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool { return v.kind > KindInvalid && v.kind <= KindBool }

// Str returns the string of a String or File value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString && v.kind != KindFile {
		return "", false
	}
	return v.str, true
}

// Bool returns the boolean of a Bool value.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Items returns a copy of a List value's elements.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Entries returns a copy of a Dict value's mapping.
func (v Value) Entries() (map[string]Value, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	d := make(map[string]Value, len(v.dict))
	maps.Copy(d, v.dict)
	return d, true
}

func (v Value) isEmptyString() bool {
	return (v.kind == KindString || v.kind == KindFile) && v.str == ""
}

// Equal reports whether v and o have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInvalid:
		return true
	case KindString, KindFile:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindList:
		return slices.EqualFunc(v.list, o.list, Value.Equal)
	case KindDict:
		return maps.EqualFunc(v.dict, o.dict, Value.Equal)
	}
	return false
}

// Interface converts v to plain Go data: string, bool, []any or
// map[string]any. Invalid values convert to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindString, KindFile:
		return v.str
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindDict:
		out := make(map[string]any, len(v.dict))
		for k, item := range v.dict {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// GoString renders v for debugging output and test failures.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindFile:
		return "file:" + strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		s := "["
		for i, item := range v.list {
			if i > 0 {
				s += ", "
			}
			s += item.GoString()
		}
		return s + "]"
	case KindDict:
		keys := slices.Collect(maps.Keys(v.dict))
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += ", "
			}
			s += k + ": " + v.dict[k].GoString()
		}
		return s + "}"
	}
	return "<invalid>"
}

// FromAny converts decoded YAML or JSON data into a Value. Numbers become
// strings; nil and unsupported types are rejected.
func FromAny(data any) (Value, error) {
	switch d := data.(type) {
	case Value:
		return d, nil
	case string:
		return String(d), nil
	case bool:
		return Bool(d), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return String(fmt.Sprint(d)), nil
	case float32:
		return String(strconv.FormatFloat(float64(d), 'f', -1, 32)), nil
	case float64:
		return String(strconv.FormatFloat(d, 'f', -1, 64)), nil
	case []string:
		return Strings(d...), nil
	case []any:
		list := make([]Value, 0, len(d))
		for i, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			list = append(list, v)
		}
		return Value{kind: KindList, list: list}, nil
	case map[string]any:
		dict := make(map[string]Value, len(d))
		for k, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			dict[k] = v
		}
		return Value{kind: KindDict, dict: dict}, nil
	case nil:
		return Value{}, fmt.Errorf("%w: nil value", ErrValidation)
	default:
		return Value{}, fmt.Errorf("%w: unsupported value type %T", ErrTypeMismatch, data)
	}
}
