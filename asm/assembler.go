package asm

import (
	"fmt"

	"github.com/chazu/tinyvm/bytecode"
	"github.com/chazu/tinyvm/vm"
)

// Error is an assembly diagnostic carrying the 1-based source line it was
// detected on. Assembly is fail-fast: the first error aborts the compile.
type Error struct {
	Line int64
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func errorf(line int64, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Assembler turns assembly source into a bytecode program in two passes
// over the token stream: the first binds labels and counts instructions,
// the second resolves operations against the target machine's operation
// table and emits them. Operations are resolved at assemble time, so the
// assembler needs the table of the machine the program will run on.
type Assembler struct {
	ops []vm.Operation

	tz               *Tokenizer
	program          *bytecode.Program
	labels           map[string]int64
	instructionCount int64
	debug            *bytecode.DebugInfo
}

// New creates an assembler targeting the given operation table, as returned
// by a machine's Operations method.
func New(ops []vm.Operation) *Assembler {
	return &Assembler{ops: ops}
}

// Assemble compiles the given source into a program. On success the debug
// sidecar for this assembly is available through Debug.
func (a *Assembler) Assemble(src []byte) (*bytecode.Program, error) {
	a.tz = NewTokenizer(src)
	a.program = bytecode.NewProgram()
	a.labels = make(map[string]int64)
	a.instructionCount = 0
	a.debug = nil

	if err := a.firstPass(); err != nil {
		return nil, err
	}

	a.tz.Reset()
	dbg := &bytecode.DebugInfo{Labels: make(map[string]int64, len(a.labels))}
	if err := a.secondPass(dbg); err != nil {
		return nil, err
	}

	for name, addr := range a.labels {
		dbg.Labels[name] = addr
	}
	a.debug = dbg

	return a.program, nil
}

// Debug returns the debug sidecar of the last successful assembly, or nil.
func (a *Assembler) Debug() *bytecode.DebugInfo {
	return a.debug
}

// firstPass binds labels and counts instructions. Every line must start
// with an operation identifier, a label declaration, or a new line.
func (a *Assembler) firstPass() error {
	for {
		tok := a.tz.Next()

		switch tok.Kind {
		case None:
			return nil

		case Identifier:
			a.instructionCount++
			a.skipLine()

		case Label:
			if err := a.bindLabel(tok); err != nil {
				return err
			}

		case NewLine:

		default:
			return errorf(tok.Line, "operation identifier or label expected, but \"%s\" was found", tok)
		}
	}
}

// bindLabel records a label declaration as the address of the next
// instruction to be emitted.
func (a *Assembler) bindLabel(tok Token) error {
	name := tok.Value.AsString()
	if _, exists := a.labels[name]; exists {
		return errorf(tok.Line, "label !%s redeclared", name)
	}
	a.labels[name] = a.instructionCount + 1

	// A label declaration must be alone on its line; end of input after it
	// is fine.
	next := a.tz.Next()
	if next.Kind != NewLine && next.Kind != None {
		return errorf(next.Line, "a label declaration must be followed by a new line")
	}
	return nil
}

// secondPass emits one instruction per identifier-led line. Labels and any
// other non-instruction leading tokens are inert here; their lines are
// skipped.
func (a *Assembler) secondPass(dbg *bytecode.DebugInfo) error {
	for {
		tok := a.tz.Next()

		switch tok.Kind {
		case None:
			return nil

		case Identifier:
			if err := a.assembleInstruction(tok, dbg); err != nil {
				return err
			}

		case NewLine:

		default:
			a.skipLine()
		}
	}
}

// assembleInstruction collects the mnemonic's parameters, resolves the
// operation by mnemonic and positional parameter types, and emits it.
func (a *Assembler) assembleInstruction(tok Token, dbg *bytecode.DebugInfo) error {
	line := tok.Line
	mnemonic := tok.Value.AsString()

	var types vm.Signature
	var values []bytecode.Value

	for {
		ptok := a.tz.Next()
		if ptok.Kind == None || ptok.Kind == NewLine {
			break
		}

		if len(values) == 3 {
			return errorf(line, "too many parameters")
		}

		switch ptok.Kind {
		case Identifier:
			types[len(values)] = vm.ParamIdentifier
			values = append(values, ptok.Value)

		case Label:
			name := ptok.Value.AsString()
			addr, found := a.labels[name]
			if !found {
				return errorf(line, "label !%s not found", name)
			}
			types[len(values)] = vm.ParamAddress
			values = append(values, bytecode.IntValue(addr))

		case Address:
			addr := ptok.Value.AsInt()
			if addr >= a.instructionCount {
				return errorf(line, "address @%d out of range", addr)
			}
			types[len(values)] = vm.ParamAddress
			values = append(values, ptok.Value)

		case IntLiteral:
			types[len(values)] = vm.ParamInt
			values = append(values, ptok.Value)

		case BoolLiteral:
			types[len(values)] = vm.ParamBool
			values = append(values, ptok.Value)

		case FloatLiteral:
			types[len(values)] = vm.ParamFloat
			values = append(values, ptok.Value)

		case StringLiteral:
			types[len(values)] = vm.ParamString
			values = append(values, ptok.Value)

		case ArgumentSeparator:
			return errorf(line, "parameter expected, but parameter separator found")
		}

		// After a parameter: a separator continues the list, a new line or
		// the end of input ends the instruction.
		sep := a.tz.Next()
		if sep.Kind == None || sep.Kind == NewLine {
			break
		}
		if sep.Kind != ArgumentSeparator {
			return errorf(line, "parameter separator or new line expected, but \"%s\" was found", sep)
		}
	}

	// Scan the operation table in ascending opcode order; the first entry
	// whose mnemonic and full signature match wins.
	for i := range a.ops {
		op := &a.ops[i]
		if op.Mnemonic != mnemonic || op.Params != types {
			continue
		}

		if err := a.program.Emit(op.Opcode, values); err != nil {
			return errorf(line, "%s", err)
		}
		dbg.Lines = append(dbg.Lines, line)
		return nil
	}

	return errorf(line, "unknown operation (%s) or no registered signature matches its parameters", mnemonic)
}

// skipLine discards tokens up to and including the next new line.
func (a *Assembler) skipLine() {
	for {
		tok := a.tz.Next()
		if tok.Kind == NewLine || tok.Kind == None {
			return
		}
	}
}
