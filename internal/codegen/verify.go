package codegen

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/asm"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
)

// verifyStack walks code in emitted order, accumulating the AVM2 operand
// stack depth instruction by instruction and reporting the maximum depth
// observed (the method body's required max_stack). It is deliberately
// linear rather than a full control-flow verifier (§4.8): each straight
// run of instructions — including the body of a not-taken branch, laid
// out inline the way this generator emits if/else and loops — is checked
// as if executed in sequence, which is sufficient as long as every
// conditional arm is itself stack-balanced, which every lowering in this
// package guarantees by construction.
func verifyStack(code []byte, mnPushes map[uint32]int) (uint32, error) {
	insts, _, err := asm.Disassemble(code)
	if err != nil {
		return 0, err
	}

	var depth, max int
	for _, inst := range insts {
		pushes := multinamePushesFor(inst, mnPushes)
		operands := make([]int64, len(inst.Operands))
		for i, v := range inst.Operands {
			operands[i] = int64(v)
		}
		pop, push := inst.Def.Effect(operands, pushes)
		depth -= pop
		if depth < 0 {
			return 0, fmt.Errorf("stack underflow at offset %d (%s)", inst.Offset, inst.Def.Name)
		}
		depth += push
		if depth > max {
			max = depth
		}
	}
	return uint32(max), nil
}

// multinamePushesFor looks up the StackPushes() contribution of an
// instruction's multiname operand, if it has one. Most multinames this
// generator emits are plain compile-time QNames (0 extra pushes), but
// `obj[expr]` indexing bakes in a MultinameL, whose name comes off the
// stack at runtime (1 extra push) — mnPushes, populated by
// generator.internMultiname as each multiname is interned, is what lets
// this function tell the two apart from nothing but the bare pool index
// baked into the operand bytes.
func multinamePushesFor(inst asm.Instruction, mnPushes map[uint32]int) int {
	for i, kind := range inst.Def.Operands {
		if kind == opcode.KindMultinameIdx {
			return mnPushes[uint32(inst.Operands[i])]
		}
	}
	return 0
}
