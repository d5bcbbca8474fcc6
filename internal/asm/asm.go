// Package asm assembles and disassembles AVM2-style method bodies: a
// two-pass-interleaved assembler that lets the code generator reference
// branch targets before their byte offset is known, and a disassembler
// that reconstructs those targets as shared Label objects (§4.5).
package asm

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// Label is a pseudo-instruction: it occupies no byte space but serves as a
// branch target. Mark fixes a Label to the assembler's current position and
// backpatches every branch emitted against it before that point.
type Label struct {
	resolved bool
	target   int
	pending  []int // byte offsets of s24 operands awaiting this label
}

// NewLabel returns an unresolved label.
func NewLabel() *Label { return &Label{} }

// Assembler accumulates a method body's bytecode. Instructions are emitted
// in program order; forward branches record a patch to apply once their
// target Label is Mark-ed, backward branches (target already known) are
// written directly — exactly the two cases §4.5 distinguishes.
type Assembler struct {
	w *stream.Writer
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler { return &Assembler{w: stream.NewWriter()} }

// Pos returns the current byte offset, i.e. where the next emitted
// instruction will begin.
func (a *Assembler) Pos() int { return a.w.Len() }

// Mark resolves lbl to the assembler's current position.
func (a *Assembler) Mark(lbl *Label) {
	lbl.target = a.Pos()
	lbl.resolved = true
	for _, operandPos := range lbl.pending {
		a.w.PatchS24(operandPos, branchOffset(lbl.target, operandPos))
	}
	lbl.pending = nil
}

// branchOffset computes the s24 value for a branch whose operand begins at
// operandPos and whose target is the given byte offset: relative to the
// byte immediately after the 3-byte operand (§4.5: target - (branch_pc+4),
// where branch_pc+1 is the operand's own offset, so branch_pc+4 ==
// operandPos+3).
func branchOffset(target, operandPos int) int32 {
	return int32(target - (operandPos + 3))
}

// Emit writes a non-branch, non-switch instruction. operands must be
// already-resolved wire values (register numbers, pool indices, argument
// counts, ...) in the opcode's declared order; Emit writes each per its
// declared OperandKind width.
func (a *Assembler) Emit(op opcode.Op, operands ...uint32) (int, error) {
	def, err := opcode.Lookup(byte(op))
	if err != nil {
		return 0, err
	}
	if def.IsBranch() {
		return 0, fmt.Errorf("asm: %s is a branch opcode, use Branch", def.Name)
	}
	if op == opcode.OpLookupSwitch {
		return 0, fmt.Errorf("asm: lookupswitch must be emitted via Switch")
	}
	if len(operands) != len(def.Operands) {
		return 0, fmt.Errorf("asm: %s expects %d operands, got %d", def.Name, len(def.Operands), len(operands))
	}

	pos := a.Pos()
	a.w.WriteU8(byte(op))
	for i, kind := range def.Operands {
		v := operands[i]
		switch kind {
		case opcode.KindU8, opcode.KindS8:
			a.w.WriteU8(byte(v))
		default:
			if err := a.w.WriteU30(v); err != nil {
				return 0, fmt.Errorf("asm: %s operand %d: %w", def.Name, i, err)
			}
		}
	}
	return pos, nil
}

// Branch emits a branch opcode targeting lbl. If lbl is already resolved
// (a backward branch) the offset is computed and written immediately;
// otherwise a zero placeholder is written and patched when lbl is Mark-ed.
func (a *Assembler) Branch(op opcode.Op, lbl *Label) (int, error) {
	def, err := opcode.Lookup(byte(op))
	if err != nil {
		return 0, err
	}
	if !def.IsBranch() {
		return 0, fmt.Errorf("asm: %s is not a branch opcode", def.Name)
	}

	pos := a.Pos()
	a.w.WriteU8(byte(op))
	operandPos := a.Pos()
	if lbl.resolved {
		a.w.WriteS24(branchOffset(lbl.target, operandPos))
	} else {
		a.w.WriteS24(0)
		lbl.pending = append(lbl.pending, operandPos)
	}
	return pos, nil
}

// Switch emits a lookupswitch: a default label followed by a dense table of
// case labels, each encoded the same way Branch encodes a single target
// (§4.4's bespoke lookupswitch structure).
func (a *Assembler) Switch(defaultLbl *Label, caseLbls []*Label) {
	a.w.WriteU8(byte(opcode.OpLookupSwitch))
	a.emitSwitchTarget(defaultLbl)
	a.w.WriteU30(uint32(len(caseLbls)))
	for _, lbl := range caseLbls {
		a.emitSwitchTarget(lbl)
	}
}

func (a *Assembler) emitSwitchTarget(lbl *Label) {
	operandPos := a.Pos()
	if lbl.resolved {
		a.w.WriteS24(branchOffset(lbl.target, operandPos))
	} else {
		a.w.WriteS24(0)
		lbl.pending = append(lbl.pending, operandPos)
	}
}

// Bytes returns the assembled instruction stream.
func (a *Assembler) Bytes() []byte { return a.w.Bytes() }
