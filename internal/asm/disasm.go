package asm

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// Instruction is one decoded entry of a disassembled method body: its
// opcode, its byte offset, and its operands. For a branch instruction
// Target holds the reconstructed shared Label instead of a raw offset.
type Instruction struct {
	Offset   int
	Def      *opcode.Definition
	Operands []uint32
	Target   *Label   // non-nil iff Def is a branch opcode or lookupswitch's default
	Cases    []*Label // non-nil iff Def is lookupswitch
}

// Disassemble decodes code into a linear instruction stream, converting raw
// s24 branch offsets into shared Label objects: for each branch the target
// byte offset is computed as byte_offset+4+offset (the same relation
// Assembler.Branch encodes in reverse); if that offset has been seen
// before the existing Label is reused, otherwise a new one is allocated
// (§4.5). The returned map lets a caller insert each Label as a pseudo-
// instruction at its target offset during further processing.
func Disassemble(code []byte) ([]Instruction, map[int]*Label, error) {
	r := stream.NewReader(code)
	labels := make(map[int]*Label)
	var out []Instruction

	labelAt := func(target int) *Label {
		if lbl, ok := labels[target]; ok {
			return lbl
		}
		lbl := &Label{target: target}
		labels[target] = lbl
		return lbl
	}

	for r.Len() > 0 {
		offset := r.Pos()
		opByte, err := r.ReadU8()
		if err != nil {
			return nil, nil, err
		}
		def, err := opcode.Lookup(opByte)
		if err != nil {
			return nil, nil, fmt.Errorf("asm: at offset %d: %w", offset, err)
		}

		inst := Instruction{Offset: offset, Def: def}

		if def.IsBranch() {
			raw, err := r.ReadS24()
			if err != nil {
				return nil, nil, fmt.Errorf("asm: reading branch operand at %d: %w", offset, err)
			}
			operandPos := offset + 1
			target := operandPos + 3 + int(raw)
			inst.Target = labelAt(target)
		} else if def.Code == opcode.OpLookupSwitch {
			operandPos := offset + 1
			rawDefault, err := r.ReadS24()
			if err != nil {
				return nil, nil, fmt.Errorf("asm: reading lookupswitch default at %d: %w", offset, err)
			}
			inst.Target = labelAt(operandPos + 3 + int(rawDefault))

			caseCount, err := r.ReadU30()
			if err != nil {
				return nil, nil, fmt.Errorf("asm: reading lookupswitch case_count at %d: %w", offset, err)
			}
			cases := make([]*Label, 0, caseCount)
			for i := uint32(0); i < caseCount; i++ {
				pos := r.Pos()
				raw, err := r.ReadS24()
				if err != nil {
					return nil, nil, fmt.Errorf("asm: reading lookupswitch case %d at %d: %w", i, offset, err)
				}
				cases = append(cases, labelAt(pos+3+int(raw)))
			}
			inst.Cases = cases
		} else {
			inst.Operands = make([]uint32, len(def.Operands))
			for i, kind := range def.Operands {
				switch kind {
				case opcode.KindU8, opcode.KindS8:
					v, err := r.ReadU8()
					if err != nil {
						return nil, nil, fmt.Errorf("asm: reading operand %d of %s at %d: %w", i, def.Name, offset, err)
					}
					inst.Operands[i] = uint32(v)
				default:
					v, err := r.ReadU30()
					if err != nil {
						return nil, nil, fmt.Errorf("asm: reading operand %d of %s at %d: %w", i, def.Name, offset, err)
					}
					inst.Operands[i] = v
				}
			}
		}

		out = append(out, inst)
	}

	return out, labels, nil
}
