// Package vm implements the bytecode execution engine: a registry of
// host-extensible operations compiled into a dense dispatch table, and a
// cooperative fetch-decode-dispatch loop with Pause, Resume and Stop
// control at instruction granularity.
package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/tinyvm/bytecode"
)

// Built-in opcodes, always registered.
const (
	OpcodeNop   int64 = 0
	OpcodeExit  int64 = 1
	OpcodePause int64 = 2
	OpcodeStop  int64 = 3
)

var (
	ErrAlreadyRunning = errors.New("cannot start a program while another one is running")
	ErrNoProgram      = errors.New("no program loaded")
	ErrNotRunning     = errors.New("the machine is not running")
	ErrOpcodeInUse    = errors.New("opcode already in use")
	ErrNegativeOpcode = errors.New("opcode must not be negative")
	ErrBadOpcode      = errors.New("opcode beyond the operation table")
	ErrBadStringIndex = errors.New("instruction references an invalid string index")
	ErrBadAddress     = errors.New("instruction address out of range")
)

// TraceFunc observes each instruction before dispatch: the 1-based address
// it was fetched from, the resolved operation, and the decoded arguments.
type TraceFunc func(addr int64, op Operation, args []bytecode.Value)

// VM is the execution engine. Embedders register their operations, build
// the dispatch table once, and start a loaded program; the four built-ins
// (NOP, EXIT, PAUSE, STOP) are always present.
//
// A VM borrows the running program and must not outlive it. One goroutine
// drives a machine; Pause and Stop from another goroutine take effect at
// the next instruction boundary, but the engine is not otherwise
// synchronized.
type VM struct {
	registry map[int64]Operation
	table    []Operation

	running bool
	paused  bool
	program *bytecode.Program
	ip      int64 // 1-based address of the next instruction to fetch

	// Trace, when non-nil, is called before every dispatch.
	Trace TraceFunc
}

// New creates a machine with the four built-in operations registered. The
// caller registers its own operations and then calls BuildOperationTable.
func New() *VM {
	m := &VM{registry: make(map[int64]Operation)}

	m.RegisterOperation(OpcodeNop, "NOP", opNop, NoParams)
	m.RegisterOperation(OpcodeExit, "EXIT", opExit, NoParams)
	m.RegisterOperation(OpcodePause, "PAUSE", opPause, NoParams)
	m.RegisterOperation(OpcodeStop, "STOP", opStop, NoParams)

	return m
}

// NewBlank creates a machine with only the built-in operations and the
// dispatch table already built.
func NewBlank() *VM {
	m := New()
	m.BuildOperationTable()
	return m
}

// RegisterOperation adds an operation to the registry. Opcodes are unique;
// registering a taken or negative opcode fails without registering.
// Mnemonics need not be unique: overloading one mnemonic across signatures
// is how embedders model polymorphic instructions.
func (m *VM) RegisterOperation(opcode int64, mnemonic string, fn OpFunc, params Signature) error {
	if opcode < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOpcode, opcode)
	}
	if taken, ok := m.registry[opcode]; ok {
		return fmt.Errorf("%w: %d is %s", ErrOpcodeInUse, opcode, taken.Mnemonic)
	}

	m.registry[opcode] = Operation{
		Opcode:   opcode,
		Mnemonic: mnemonic,
		Fn:       fn,
		Params:   params,
	}
	return nil
}

// BuildOperationTable materializes the dense dispatch table covering
// opcodes 0 through the maximum registered opcode. Gaps alias NOP, so an
// unregistered-but-in-range opcode degrades to a no-op rather than an
// error. Call it once after all registrations; operations registered later
// are invisible until the table is rebuilt.
func (m *VM) BuildOperationTable() {
	var maxOpcode int64
	for opcode := range m.registry {
		if opcode > maxOpcode {
			maxOpcode = opcode
		}
	}

	m.table = make([]Operation, maxOpcode+1)
	for i := range m.table {
		if op, ok := m.registry[int64(i)]; ok {
			m.table[i] = op
		} else {
			m.table[i] = m.registry[OpcodeNop]
		}
	}
}

// Operations returns the dense dispatch table in ascending opcode order.
// The assembler resolves mnemonics and signatures against it.
func (m *VM) Operations() []Operation {
	return m.table
}

// IsRunning reports whether a program is running (possibly paused).
func (m *VM) IsRunning() bool {
	return m.running
}

// IsPaused reports whether execution is paused.
func (m *VM) IsPaused() bool {
	return m.paused
}

// InstructionPointer returns the 1-based address of the next instruction to
// execute.
func (m *VM) InstructionPointer() int64 {
	return m.ip
}

// SetInstructionPointer moves execution to the given 1-based instruction
// address. This is the jump primitive for operation callbacks.
func (m *VM) SetInstructionPointer(addr int64) error {
	if m.program == nil {
		return ErrNoProgram
	}
	if addr < 1 || addr > m.program.InstructionCount() {
		return fmt.Errorf("%w: @%d (program has %d instructions)", ErrBadAddress, addr, m.program.InstructionCount())
	}
	m.ip = addr
	return nil
}

// Start begins executing the given program from its first instruction and
// runs until the program pauses or stops. It fails when a program is
// already running or p is nil.
func (m *VM) Start(p *bytecode.Program) error {
	if m.running {
		return ErrAlreadyRunning
	}
	if p == nil {
		return ErrNoProgram
	}

	m.program = p
	m.ip = 1
	m.running = true
	m.paused = false

	return m.Resume()
}

// Pause requests a pause. It only sets a flag: execution halts after the
// in-flight instruction completes, before the next fetch.
func (m *VM) Pause() {
	m.paused = true
}

// Resume clears the paused flag and executes instructions until the
// program pauses or stops. When the loop ends for any reason other than a
// pause the machine transitions to stopped, so Start may be called again.
func (m *VM) Resume() error {
	if m.program == nil {
		return ErrNoProgram
	}
	if !m.running {
		return ErrNotRunning
	}

	m.paused = false

	for m.running && !m.paused {
		keepGoing, err := m.Step()
		if err != nil {
			m.running = false
			return err
		}
		if !keepGoing {
			break
		}
	}

	if !m.paused {
		m.running = false
	}
	return nil
}

// Stop halts execution. Callable at any time, including from inside an
// operation callback; the run loop observes the cleared flag at the next
// instruction boundary.
func (m *VM) Stop() {
	m.running = false
}

// Step executes exactly one instruction: fetch at the instruction pointer,
// advance the pointer, decode the parameters per the operation's declared
// signature, and dispatch. A pointer past the end of the code is a clean
// stop. An opcode beyond the dispatch table or a bad string reference is a
// fatal engine error: the machine stops and the error is returned. The
// bool result is the callback's continue signal.
func (m *VM) Step() (bool, error) {
	if m.program == nil {
		return false, ErrNoProgram
	}

	if m.ip > m.program.InstructionCount() {
		m.running = false
		return false, nil
	}

	addr := m.ip
	inst, err := m.program.InstructionAt(addr - 1)
	if err != nil {
		m.running = false
		return false, err
	}

	// Advance before dispatch so callbacks that jump see the exact
	// fall-through address.
	m.ip++

	if inst.Opcode < 0 || inst.Opcode >= int64(len(m.table)) {
		m.running = false
		return false, fmt.Errorf("%w: %d at @%d (table has %d entries)", ErrBadOpcode, inst.Opcode, addr, len(m.table))
	}
	op := m.table[inst.Opcode]

	args := make([]bytecode.Value, 4)
	for i := 0; i < 4; i++ {
		slot := inst.Params[i]
		switch op.Params[i] {
		case ParamNone:
			// Zero value.
		case ParamAddress, ParamInt:
			args[i] = bytecode.IntValue(slot)
		case ParamBool:
			args[i] = bytecode.BoolValue(slot != 0)
		case ParamFloat:
			args[i] = bytecode.FloatValue(math.Float64frombits(uint64(slot)))
		case ParamIdentifier, ParamString:
			s, err := m.program.StringAt(slot)
			if err != nil {
				m.running = false
				return false, fmt.Errorf("%w: %s at @%d: %v", ErrBadStringIndex, op.Mnemonic, addr, err)
			}
			args[i] = bytecode.StringValue(s)
		}
	}

	if m.Trace != nil {
		m.Trace(addr, op, args)
	}

	return op.Fn(m, args), nil
}

// Built-in operations.

func opNop(m *VM, args []bytecode.Value) bool {
	return true
}

// opExit signals normal program completion through the continue/stop
// result, as opposed to STOP's explicit halt request.
func opExit(m *VM, args []bytecode.Value) bool {
	return false
}

func opPause(m *VM, args []bytecode.Value) bool {
	m.Pause()
	return true
}

func opStop(m *VM, args []bytecode.Value) bool {
	m.Stop()
	return true
}
