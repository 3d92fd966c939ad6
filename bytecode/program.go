package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// FormatVersion is the current program image format version.
const FormatVersion int32 = 1

// Magic bytes for program images: "TVMP" (TinyVM Program).
var ProgramMagic = []byte{'T', 'V', 'M', 'P'}

const (
	// InstructionSize is the fixed width of one encoded instruction:
	// opcode plus four parameter slots, 8 bytes each.
	InstructionSize = 40

	// stringIndexRecordSize is the width of one string index record:
	// (start, length), 8 bytes each.
	stringIndexRecordSize = 16

	headerSize = 32

	// maxSectionLen bounds each section length declared in an image
	// header. Lengths past it are treated as corruption rather than
	// handed to the allocator.
	maxSectionLen = 1 << 30
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number: expected TVMP")
	ErrVersionMismatch    = errors.New("program version mismatch")
	ErrCorruptHeader      = errors.New("corrupt program header")
	ErrCorruptSection     = errors.New("corrupt program section")
	ErrUnexpectedEOF      = errors.New("unexpected end of program data")
	ErrInvalidStringIndex = errors.New("invalid string index")
	ErrNotEmittable       = errors.New("cannot emit into a loaded program")
)

// Instruction is one decoded fixed-width instruction. The meaning of each
// parameter slot depends on the matched operation's declared parameter type
// at that position.
type Instruction struct {
	Opcode int64
	Params [4]int64
}

// Program is the assembled artifact: a code section of fixed-width
// instructions, a string data section of concatenated raw string bytes, and
// a string index section of (start, length) records, one per unique string
// in first-use order.
//
// Programs created with NewProgram accept Emit; programs that came from
// Load execute but refuse Emit. A Program is not safe for concurrent use.
type Program struct {
	code    *Buffer
	data    *Buffer
	strings *Buffer

	// interned maps string content to its 1-based string table index.
	// It exists only on emit-capable programs; the string index section is
	// its serialized form.
	interned map[string]int64
}

// NewProgram creates an empty, emit-capable program.
func NewProgram() *Program {
	return &Program{
		code:     NewBuffer(DefaultBlockSize),
		data:     NewBuffer(DefaultBlockSize),
		strings:  NewBuffer(DefaultBlockSize),
		interned: make(map[string]int64),
	}
}

// Emit appends one instruction to the code section. Up to four parameter
// values are reduced to raw 8-byte slots: ints pass through, floats store
// their IEEE-754 bit pattern, bools store 0 or 1, and strings are interned
// and store their 1-based string table index. Missing slots are zero.
func (p *Program) Emit(opcode int64, params []Value) error {
	if p.interned == nil {
		return ErrNotEmittable
	}
	if len(params) > 4 {
		return fmt.Errorf("too many parameters: %d", len(params))
	}

	p.code.Grow(InstructionSize)
	p.code.AppendInt64(opcode)

	for i := 0; i < 4; i++ {
		var slot int64
		if i < len(params) {
			switch params[i].Kind() {
			case ValueInt:
				slot = params[i].AsInt()
			case ValueFloat:
				slot = int64(math.Float64bits(params[i].AsFloat()))
			case ValueBool:
				if params[i].AsBool() {
					slot = 1
				}
			case ValueString:
				slot = p.internString(params[i].AsString())
			}
		}
		p.code.AppendInt64(slot)
	}

	return nil
}

// internString returns the 1-based string table index for s, adding it to
// the string data and index sections on first use. Repeated content reuses
// the existing index.
func (p *Program) internString(s string) int64 {
	if index, ok := p.interned[s]; ok {
		return index
	}

	start := int64(p.data.Len())
	p.data.Append([]byte(s))

	p.strings.AppendInt64(start)
	p.strings.AppendInt64(int64(len(s)))

	index := int64(p.strings.Len() / stringIndexRecordSize)
	p.interned[s] = index
	return index
}

// InstructionCount returns the number of instructions in the code section.
func (p *Program) InstructionCount() int64 {
	return int64(p.code.Len() / InstructionSize)
}

// InstructionAt decodes the instruction at zero-based index i.
func (p *Program) InstructionAt(i int64) (Instruction, error) {
	if i < 0 || i >= p.InstructionCount() {
		return Instruction{}, fmt.Errorf("instruction %d out of range (have %d)", i, p.InstructionCount())
	}

	off := int(i) * InstructionSize
	inst := Instruction{Opcode: p.code.Int64At(off)}
	for k := 0; k < 4; k++ {
		inst.Params[k] = p.code.Int64At(off + 8 + k*8)
	}
	return inst, nil
}

// StringCount returns the number of entries in the string table.
func (p *Program) StringCount() int64 {
	return int64(p.strings.Len() / stringIndexRecordSize)
}

// StringAt returns the string table entry at the given 1-based index.
func (p *Program) StringAt(index int64) (string, error) {
	if index < 1 || index > p.StringCount() {
		return "", fmt.Errorf("%w: %d (have %d)", ErrInvalidStringIndex, index, p.StringCount())
	}

	off := int(index-1) * stringIndexRecordSize
	start := p.strings.Int64At(off)
	length := p.strings.Int64At(off + 8)

	// Bounds are checked without computing start+length, which a hostile
	// index record can overflow.
	if start < 0 || length < 0 || start > int64(p.data.Len()) || length > int64(p.data.Len())-start {
		return "", fmt.Errorf("%w: entry %d spans %d bytes at %d beyond %d data bytes",
			ErrInvalidStringIndex, index, length, start, p.data.Len())
	}

	return string(p.data.Bytes()[start : start+length]), nil
}

// SaveTo writes the program image to w: the 32-byte header followed by the
// code, string data, and string index sections.
func (p *Program) SaveTo(w io.Writer) error {
	header := make([]byte, headerSize)
	copy(header, ProgramMagic)
	binary.LittleEndian.PutUint32(header[4:], uint32(FormatVersion))
	binary.LittleEndian.PutUint64(header[8:], uint64(p.code.Len()))
	binary.LittleEndian.PutUint64(header[16:], uint64(p.data.Len()))
	binary.LittleEndian.PutUint64(header[24:], uint64(p.strings.Len()))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing program header: %w", err)
	}
	if _, err := w.Write(p.code.Bytes()); err != nil {
		return fmt.Errorf("writing code section: %w", err)
	}
	if _, err := w.Write(p.data.Bytes()); err != nil {
		return fmt.Errorf("writing string data section: %w", err)
	}
	if _, err := w.Write(p.strings.Bytes()); err != nil {
		return fmt.Errorf("writing string index section: %w", err)
	}
	return nil
}

// Save writes the program image to the given file path.
func (p *Program) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}

	if err := p.SaveTo(file); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", path, err)
	}
	return nil
}

// loadSections allocates block-rounded zero-filled buffers for the stored
// section lengths and reads the exact byte count of each section.
func (p *Program) loadSections(r io.Reader, codeLen, dataLen, stringsLen int64) error {
	p.code = newLoadBuffer(DefaultBlockSize, codeLen)
	p.data = newLoadBuffer(DefaultBlockSize, dataLen)
	p.strings = newLoadBuffer(DefaultBlockSize, stringsLen)

	if _, err := io.ReadFull(r, p.code.Bytes()); err != nil {
		return fmt.Errorf("%w: reading code section: %v", ErrUnexpectedEOF, err)
	}
	if _, err := io.ReadFull(r, p.data.Bytes()); err != nil {
		return fmt.Errorf("%w: reading string data section: %v", ErrUnexpectedEOF, err)
	}
	if _, err := io.ReadFull(r, p.strings.Bytes()); err != nil {
		return fmt.Errorf("%w: reading string index section: %v", ErrUnexpectedEOF, err)
	}
	return nil
}

// LoadFrom reads a program image from r. The magic is validated first, then
// the version, then section sanity, and only then are the section bytes
// read. Any failure returns a nil program; no partially loaded program is
// ever left usable. Loaded programs execute but do not Emit.
func LoadFrom(r io.Reader) (*Program, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptHeader, err)
	}

	if string(header[:4]) != string(ProgramMagic) {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMagic, header[:4])
	}

	version := int32(binary.LittleEndian.Uint32(header[4:]))
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, FormatVersion)
	}

	codeLen := int64(binary.LittleEndian.Uint64(header[8:]))
	dataLen := int64(binary.LittleEndian.Uint64(header[16:]))
	stringsLen := int64(binary.LittleEndian.Uint64(header[24:]))

	if codeLen < 0 || dataLen < 0 || stringsLen < 0 {
		return nil, fmt.Errorf("%w: negative section length", ErrCorruptHeader)
	}
	if codeLen > maxSectionLen || dataLen > maxSectionLen || stringsLen > maxSectionLen {
		return nil, fmt.Errorf("%w: section length exceeds %d bytes", ErrCorruptHeader, maxSectionLen)
	}
	if codeLen%InstructionSize != 0 {
		return nil, fmt.Errorf("%w: code length %d is not a multiple of %d", ErrCorruptSection, codeLen, InstructionSize)
	}
	if stringsLen%stringIndexRecordSize != 0 {
		return nil, fmt.Errorf("%w: string index length %d is not a multiple of %d", ErrCorruptSection, stringsLen, stringIndexRecordSize)
	}

	p := &Program{}
	if err := p.loadSections(r, codeLen, dataLen, stringsLen); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a program image from the given file path.
func Load(path string) (*Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	p, err := LoadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
