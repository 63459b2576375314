package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValueKind discriminates the closed set of scalar kinds a property may hold.
type ValueKind uint8

// Supported property value kinds. The zero kind marks an unset value, which
// serializes as JSON null.
const (
	KindUndefined ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a scalar property value: string, number, or boolean. Property bags
// stay open (any key is allowed) while the values themselves are typed.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// String builds a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number builds a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int builds a numeric value from an integer.
func Int(i int) Value { return Value{kind: KindNumber, num: float64(i)} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports which scalar kind the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// Defined reports whether the value holds anything at all.
func (v Value) Defined() bool { return v.kind != KindUndefined }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsInt returns the numeric payload truncated to int when the value is a
// number holding an integral quantity.
func (v Value) AsInt() (int, bool) {
	if v.kind != KindNumber || math.Trunc(v.num) != v.num {
		return 0, false
	}
	return int(v.num), true
}

// AsBool returns the boolean payload when the value is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Equal reports structural equality of two values.
func (v Value) Equal(o Value) bool { return v == o }

// MarshalJSON renders the scalar in its native JSON form; undefined values
// render as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts JSON strings, numbers, booleans, and null. Arrays and
// objects are rejected: property bags are scalar-only.
func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '[', '{':
		return fmt.Errorf("property values must be scalar, got %c", data[0])
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
		return nil
	}
}

// Properties is an open bag of scalar values keyed by property name.
type Properties map[string]Value

// Clone returns an independent copy of the bag. Nil stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Merge overlays the named keys of other onto p, leaving unnamed keys alone.
func (p Properties) Merge(other Properties) {
	for k, v := range other {
		p[k] = v
	}
}

// Equal reports whether both bags hold exactly the same keys and values.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
