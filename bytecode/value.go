package bytecode

import (
	"fmt"
	"strconv"
)

// ValueKind identifies which literal kind a Value holds.
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueBool
	ValueString
)

// String returns a human-readable name for ValueKind.
func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged variant over the four literal kinds that flow through
// tokens, instruction parameters, and operation callbacks. The zero Value is
// the int 0.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	b    bool
	s    string
}

// IntValue creates an int Value.
func IntValue(v int64) Value {
	return Value{kind: ValueInt, i: v}
}

// FloatValue creates a float Value.
func FloatValue(v float64) Value {
	return Value{kind: ValueFloat, f: v}
}

// BoolValue creates a bool Value.
func BoolValue(v bool) Value {
	return Value{kind: ValueBool, b: v}
}

// StringValue creates a string Value.
func StringValue(v string) Value {
	return Value{kind: ValueString, s: v}
}

// Kind returns the kind tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// AsInt returns the int payload, or 0 for other kinds.
func (v Value) AsInt() int64 {
	return v.i
}

// AsFloat returns the float payload, or 0 for other kinds.
func (v Value) AsFloat() float64 {
	return v.f
}

// AsBool returns the bool payload, or false for other kinds.
func (v Value) AsBool() bool {
	return v.b
}

// AsString returns the string payload, or "" for other kinds.
func (v Value) AsString() string {
	return v.s
}

// String renders the value for diagnostics and disassembly listings.
func (v Value) String() string {
	switch v.kind {
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueString:
		return strconv.Quote(v.s)
	default:
		return fmt.Sprintf("Value(%d)", int(v.kind))
	}
}
