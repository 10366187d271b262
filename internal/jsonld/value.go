package jsonld

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is one node of a semi-structured document tree.
type Value interface {
	Kind() Kind
	json.Marshaler
}

type (
	Object map[string]Value
	Array  []Value
	String string
	Number float64
	Bool   bool
	Null   struct{}
)

func (Object) Kind() Kind { return KindObject }
func (Array) Kind() Kind  { return KindArray }
func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }

func (o Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(o))
}

func (a Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(a))
}

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }
func (n Number) MarshalJSON() ([]byte, error) { return json.Marshal(float64(n)) }
func (b Bool) MarshalJSON() ([]byte, error)   { return json.Marshal(bool(b)) }
func (Null) MarshalJSON() ([]byte, error)     { return []byte("null"), nil }

// Parse decodes raw JSON into a Value tree.
func Parse(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("jsonld: parse: %w", err)
	}
	return FromAny(raw)
}

// ParseObject decodes raw JSON that must be an object at the top level.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("jsonld: expected object, got %s", v.Kind())
	}
	return obj, nil
}

// FromAny converts the output of encoding/json (or a JSON-LD processor)
// into a Value tree.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("jsonld: number %q: %w", t, err)
		}
		return Number(f), nil
	case []any:
		out := make(Array, 0, len(t))
		for i, item := range t {
			conv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, conv)
		}
		return out, nil
	case []map[string]any:
		out := make(Array, 0, len(t))
		for _, item := range t {
			conv, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(t))
		for k, item := range t {
			conv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = conv
		}
		return out, nil
	case map[string]string:
		out := make(Object, len(t))
		for k, item := range t {
			out[k] = String(item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("jsonld: unsupported value type %T", v)
	}
}

// ToAny converts a Value tree back into plain maps and slices.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Number:
		return float64(t)
	case String:
		return string(t)
	case Array:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// First returns the value under the first key present.
func (o Object) First(keys ...string) (Value, bool) {
	for _, k := range keys {
		if v, ok := o.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// Property looks up an EDC term by its bare name, its "edc:" compact form
// or its fully expanded IRI.
func (o Object) Property(term string) (Value, bool) {
	return o.First(term, EDCPrefix+":"+term, EDCNamespace+term)
}

// PropertyText is Property followed by Text.
func (o Object) PropertyText(term string) (string, bool) {
	v, ok := o.Property(term)
	if !ok {
		return "", false
	}
	return Text(v)
}

// ID returns the node identifier, if any.
func (o Object) ID() string {
	v, ok := o.Get(KeywordID)
	if !ok {
		return ""
	}
	s, _ := Text(v)
	return s
}

// Text unwraps a scalar string from the plain, compacted or expanded shape:
// "x", {"@value": "x"} or [{"@value": "x"}].
func Text(v Value) (string, bool) {
	switch t := v.(type) {
	case String:
		return string(t), true
	case Number:
		return strconv.FormatFloat(float64(t), 'f', -1, 64), true
	case Bool:
		return strconv.FormatBool(bool(t)), true
	case Object:
		if inner, ok := t.Get(KeywordValue); ok {
			return Text(inner)
		}
		if inner, ok := t.Get(KeywordID); ok {
			return Text(inner)
		}
		return "", false
	case Array:
		if len(t) == 0 {
			return "", false
		}
		return Text(t[0])
	default:
		return "", false
	}
}

// Objects returns the object members of v; a lone object is a one-element list.
func Objects(v Value) []Object {
	switch t := v.(type) {
	case Object:
		return []Object{t}
	case Array:
		out := make([]Object, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(Object); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}
