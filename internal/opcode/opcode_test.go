package opcode

import "testing"

func TestLookupKnownOpcode(t *testing.T) {
	def, err := Lookup(byte(OpAdd))
	if err != nil {
		t.Fatalf("Lookup(add): %v", err)
	}
	if def.Name != "add" {
		t.Errorf("got name %q, want add", def.Name)
	}
	pop, push := def.Effect(nil, 0)
	if pop != 2 || push != 1 {
		t.Errorf("add effect = (%d,%d), want (2,1)", pop, push)
	}
}

func TestLookupUnknownOpcode(t *testing.T) {
	if _, err := Lookup(0xfe); err == nil {
		t.Fatal("expected error for undefined opcode")
	}
}

func TestCallPropertyVariesByOperand(t *testing.T) {
	def, _ := Lookup(byte(OpCallProperty))
	pop, push := def.Effect([]int64{0, 3}, 0)
	if pop != 4 || push != 1 {
		t.Errorf("callproperty(argc=3, QName) effect = (%d,%d), want (4,1)", pop, push)
	}
	// An RTQName multiname (StackPushes()==1) adds one extra stack-before slot.
	pop, push = def.Effect([]int64{0, 3}, 1)
	if pop != 5 || push != 1 {
		t.Errorf("callproperty(argc=3, RTQName) effect = (%d,%d), want (5,1)", pop, push)
	}
}

func TestCallPropertyVsCallPropVoidAreDistinctOpcodes(t *testing.T) {
	prop, _ := Lookup(byte(OpCallProperty))
	void, _ := Lookup(byte(OpCallPropVoid))
	if prop.Code == void.Code {
		t.Fatal("callproperty and callpropvoid must not share an opcode byte")
	}
	if prop.Code != 0x46 || void.Code != 0x4f {
		t.Errorf("callproperty=0x%02x callpropvoid=0x%02x, want 0x46/0x4f", prop.Code, void.Code)
	}
	_, push := void.Effect([]int64{0, 1}, 0)
	if push != 0 {
		t.Errorf("callpropvoid must push nothing, got push=%d", push)
	}
}

func TestNewObjectPopsTwicePerPair(t *testing.T) {
	def, _ := Lookup(byte(OpNewObject))
	pop, push := def.Effect([]int64{3}, 0)
	if pop != 6 || push != 1 {
		t.Errorf("newobject(3) effect = (%d,%d), want (6,1)", pop, push)
	}
}

func TestHasNext2PushesSingleBoolean(t *testing.T) {
	def, _ := Lookup(byte(OpHasNext2))
	_, push := def.Effect(nil, 0)
	if push != 1 {
		t.Errorf("hasnext2 push = %d, want 1", push)
	}
}

func TestBranchOpcodesCarrySingleS24Operand(t *testing.T) {
	for _, op := range []Op{OpJump, OpIfTrue, OpIfEq, OpIfNLT} {
		def, err := Lookup(byte(op))
		if err != nil {
			t.Fatalf("Lookup(%v): %v", op, err)
		}
		if !def.IsBranch() {
			t.Errorf("%s: expected IsBranch() true", def.Name)
		}
	}
}
