package asm

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/opcode"
)

// TestForwardBranchBackpatch builds the shape of `if (cond) { } else { }`:
// a forward ifeq to an else label, and a forward jump past it to an end
// label, mirroring the compiler's placeholder-then-patch pattern.
func TestForwardBranchBackpatch(t *testing.T) {
	a := NewAssembler()
	elseLbl := NewLabel()
	endLbl := NewLabel()

	if _, err := a.Branch(opcode.OpIfEq, elseLbl); err != nil {
		t.Fatalf("Branch ifeq: %v", err)
	}
	if _, err := a.Emit(opcode.OpPushTrue); err != nil {
		t.Fatalf("Emit pushtrue: %v", err)
	}
	if _, err := a.Branch(opcode.OpJump, endLbl); err != nil {
		t.Fatalf("Branch jump: %v", err)
	}
	a.Mark(elseLbl)
	if _, err := a.Emit(opcode.OpPushFalse); err != nil {
		t.Fatalf("Emit pushfalse: %v", err)
	}
	a.Mark(endLbl)
	if _, err := a.Emit(opcode.OpReturnVoid); err != nil {
		t.Fatalf("Emit returnvoid: %v", err)
	}

	// Emission order: ifeq, pushtrue, jump, pushfalse, returnvoid.
	insts, _, err := Disassemble(a.Bytes())
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(insts) != 5 {
		t.Fatalf("got %d instructions, want 5", len(insts))
	}
	if insts[0].Def.Name != "ifeq" || insts[0].Target == nil {
		t.Fatalf("instruction 0 = %+v, want resolved ifeq target", insts[0])
	}
	if got, want := insts[0].Target.target, insts[3].Offset; got != want {
		t.Errorf("ifeq target offset = %d, want %d (pushfalse)", got, want)
	}
	if got, want := insts[1].Def.Name, "pushtrue"; got != want {
		t.Errorf("instruction 1 = %s, want %s", got, want)
	}
	if insts[2].Def.Name != "jump" || insts[2].Target == nil {
		t.Fatalf("instruction 2 = %+v, want resolved jump target", insts[2])
	}
	if got, want := insts[2].Target.target, insts[4].Offset; got != want {
		t.Errorf("jump target offset = %d, want %d (returnvoid)", got, want)
	}
}

// TestBackwardBranchDirectEncoding exercises a `while` loop shape: the loop
// condition check at the top is a backward jump target, so its offset is
// known immediately and must be written without any pending patch.
func TestBackwardBranchDirectEncoding(t *testing.T) {
	a := NewAssembler()
	top := NewLabel()
	a.Mark(top)
	if _, err := a.Emit(opcode.OpPushTrue); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Branch(opcode.OpIfTrue, top); err != nil {
		t.Fatalf("Branch iftrue: %v", err)
	}

	if len(top.pending) != 0 {
		t.Fatalf("backward branch left a pending patch: %v", top.pending)
	}

	insts, _, err := Disassemble(a.Bytes())
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if insts[1].Target == nil || insts[1].Target.target != 0 {
		t.Errorf("backward branch target = %+v, want offset 0", insts[1].Target)
	}
}

func TestLookupSwitchRoundTrip(t *testing.T) {
	a := NewAssembler()
	case0 := NewLabel()
	case1 := NewLabel()
	defLbl := NewLabel()
	end := NewLabel()

	a.Switch(defLbl, []*Label{case0, case1})
	a.Mark(case0)
	a.Emit(opcode.OpPushByte, 0)
	a.Branch(opcode.OpJump, end)
	a.Mark(case1)
	a.Emit(opcode.OpPushByte, 1)
	a.Branch(opcode.OpJump, end)
	a.Mark(defLbl)
	a.Emit(opcode.OpPushNull)
	a.Mark(end)
	a.Emit(opcode.OpReturnVoid)

	insts, _, err := Disassemble(a.Bytes())
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	sw := insts[0]
	if sw.Def.Name != "lookupswitch" {
		t.Fatalf("instruction 0 = %s, want lookupswitch", sw.Def.Name)
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("got %d case targets, want 2", len(sw.Cases))
	}
	if sw.Target.target != defLbl.target {
		t.Errorf("default target = %d, want %d", sw.Target.target, defLbl.target)
	}
	if sw.Cases[0].target != case0.target || sw.Cases[1].target != case1.target {
		t.Errorf("case targets = %d,%d want %d,%d", sw.Cases[0].target, sw.Cases[1].target, case0.target, case1.target)
	}
}

func TestEmitRejectsWrongOperandCount(t *testing.T) {
	a := NewAssembler()
	if _, err := a.Emit(opcode.OpCall, 1, 2); err == nil {
		t.Fatal("expected error: call takes one operand")
	}
}

func TestEmitRejectsBranchOpcode(t *testing.T) {
	a := NewAssembler()
	if _, err := a.Emit(opcode.OpJump, 0); err == nil {
		t.Fatal("expected error: jump must be emitted via Branch")
	}
}
