package vm

import (
	"fmt"

	"github.com/chazu/tinyvm/bytecode"
)

// ParamType identifies the declared kind of one operation parameter slot.
type ParamType int

const (
	ParamNone ParamType = iota
	ParamAddress
	ParamIdentifier
	ParamInt
	ParamBool
	ParamFloat
	ParamString
)

// String returns a human-readable name for ParamType.
func (p ParamType) String() string {
	switch p {
	case ParamNone:
		return "none"
	case ParamAddress:
		return "address"
	case ParamIdentifier:
		return "identifier"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	case ParamFloat:
		return "float"
	case ParamString:
		return "string"
	default:
		return fmt.Sprintf("ParamType(%d)", int(p))
	}
}

// Signature is an operation's positional parameter-type list. Declared
// parameters form a prefix; trailing slots are ParamNone.
type Signature [4]ParamType

// NoParams is the signature of an operation taking no parameters.
var NoParams = Signature{}

// OpFunc is a registered operation's native callback. It receives the
// machine (to call Pause, Stop or SetInstructionPointer, or to reach
// embedder state) and the four decoded parameters; undeclared slots hold
// the zero Value. Returning false stops the run loop.
type OpFunc func(m *VM, args []bytecode.Value) bool

// Operation is one registered instruction definition.
type Operation struct {
	Opcode   int64
	Mnemonic string
	Fn       OpFunc
	Params   Signature
}
