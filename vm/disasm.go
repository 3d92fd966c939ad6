package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/tinyvm/bytecode"
)

// Disassemble returns a human-readable listing of the program, one line per
// instruction, resolved against this machine's operation table. When a
// debug sidecar is given, label declarations are interleaved at their
// addresses and address operands are annotated with the label they point
// at. Opcodes beyond the table render raw.
func (m *VM) Disassemble(p *bytecode.Program, dbg *bytecode.DebugInfo) (string, error) {
	var sb strings.Builder

	count := p.InstructionCount()
	for addr := int64(1); addr <= count; addr++ {
		if dbg != nil {
			if name, ok := dbg.LabelAt(addr); ok {
				sb.WriteString(fmt.Sprintf("!%s\n", name))
			}
		}

		inst, err := p.InstructionAt(addr - 1)
		if err != nil {
			return "", err
		}

		line, err := m.disassembleInstruction(p, dbg, inst)
		if err != nil {
			return "", fmt.Errorf("at @%d: %w", addr, err)
		}
		sb.WriteString(fmt.Sprintf("%4d  %s\n", addr, line))
	}

	return sb.String(), nil
}

// disassembleInstruction renders one instruction.
func (m *VM) disassembleInstruction(p *bytecode.Program, dbg *bytecode.DebugInfo, inst bytecode.Instruction) (string, error) {
	if inst.Opcode < 0 || inst.Opcode >= int64(len(m.table)) {
		return fmt.Sprintf("op(%d) %d, %d, %d, %d",
			inst.Opcode, inst.Params[0], inst.Params[1], inst.Params[2], inst.Params[3]), nil
	}

	op := m.table[inst.Opcode]

	var operands []string
	var comments []string
	for i := 0; i < 4 && op.Params[i] != ParamNone; i++ {
		slot := inst.Params[i]
		switch op.Params[i] {
		case ParamInt:
			operands = append(operands, fmt.Sprintf("%d", slot))
		case ParamAddress:
			operands = append(operands, fmt.Sprintf("@%d", slot))
			if dbg != nil {
				if name, ok := dbg.LabelAt(slot); ok {
					comments = append(comments, fmt.Sprintf("@%d = !%s", slot, name))
				}
			}
		case ParamBool:
			operands = append(operands, bytecode.BoolValue(slot != 0).String())
		case ParamFloat:
			operands = append(operands, bytecode.FloatValue(math.Float64frombits(uint64(slot))).String())
		case ParamIdentifier:
			s, err := p.StringAt(slot)
			if err != nil {
				return "", err
			}
			operands = append(operands, s)
		case ParamString:
			s, err := p.StringAt(slot)
			if err != nil {
				return "", err
			}
			operands = append(operands, fmt.Sprintf("%q", s))
		}
	}

	line := op.Mnemonic
	if len(operands) > 0 {
		line += " " + strings.Join(operands, ", ")
	}
	if len(comments) > 0 {
		line += " ; " + strings.Join(comments, ", ")
	}
	return line, nil
}
