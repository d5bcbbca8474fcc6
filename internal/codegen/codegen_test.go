package codegen

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/asm"
	"github.com/halcyon-tools/pyas3c/internal/lexer"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/parser"
	"github.com/halcyon-tools/pyas3c/internal/scope"
)

// generate is the test-only front door: lex, parse, scope-analyze, and
// compile source, failing the test immediately on any parse or codegen
// error so every other test can assume a clean *Result.
func generate(t *testing.T, source string) *Result {
	t.Helper()
	p := parser.New(lexer.New(source))
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	analysis := scope.Analyze(mod)
	res, err := Generate(mod, analysis, Options{Filename: "test.py", MainClass: "Main"})
	if err != nil {
		t.Fatalf("Generate: %v (%s)", err, res.Errors.RenderAll(source))
	}
	if res.Errors.HasErrors() {
		t.Fatalf("Generate reported errors: %s", res.Errors.RenderAll(source))
	}
	return res
}

// scriptInitOps disassembles the script initializer's method body (the one
// f.Scripts[0].Init points at) and returns its decoded instructions.
func scriptInitOps(t *testing.T, res *Result) []asm.Instruction {
	t.Helper()
	initIdx := res.File.Scripts[0].Init
	body := res.File.MethodBodies[initIdx]
	ops, _, err := asm.Disassemble(body.Code)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	return ops
}

func opNames(ops []asm.Instruction) []opcode.Op {
	names := make([]opcode.Op, len(ops))
	for i, op := range ops {
		names[i] = op.Def.Code
	}
	return names
}

func containsOp(ops []asm.Instruction, op opcode.Op) bool {
	for _, i := range ops {
		if i.Def.Code == op {
			return true
		}
	}
	return false
}

func TestPrintCallLowersToCallPropVoid(t *testing.T) {
	res := generate(t, "print(2*3+4)\n")
	ops := scriptInitOps(t, res)

	if !containsOp(ops, opcode.OpFindPropStrict) {
		t.Errorf("expected findpropstrict print, got %v", opNames(ops))
	}
	if !containsOp(ops, opcode.OpMultiply) {
		t.Errorf("expected a multiply for 2*3, got %v", opNames(ops))
	}
	if !containsOp(ops, opcode.OpAdd) {
		t.Errorf("expected an add for (...)+4, got %v", opNames(ops))
	}
	if !containsOp(ops, opcode.OpCallPropVoid) {
		t.Errorf("expected callpropvoid for a statement-position call, got %v", opNames(ops))
	}
	if containsOp(ops, opcode.OpPop) {
		t.Errorf("callpropvoid already discards its result, should not also see a pop: %v", opNames(ops))
	}
}

func TestNonCallExprStatementStillPops(t *testing.T) {
	res := generate(t, "1 + 2\n")
	ops := scriptInitOps(t, res)

	if !containsOp(ops, opcode.OpPop) {
		t.Errorf("expected a trailing pop for a bare expression statement, got %v", opNames(ops))
	}
}

func TestAssignmentBindsScriptTrait(t *testing.T) {
	res := generate(t, "x = 1\n")
	if len(res.File.Scripts[0].Traits) == 0 {
		t.Fatalf("expected a top-level assignment to register at least one script trait")
	}
}

func TestFunctionDefCompilesOwnMethod(t *testing.T) {
	res := generate(t, "def add(a, b):\n    return a + b\n")

	var found bool
	for _, m := range res.File.Methods {
		if m.Name == "add" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a method_info named %q among %d methods", "add", len(res.File.Methods))
	}
	if len(res.File.MethodBodies) < 2 {
		t.Fatalf("expected at least 2 method bodies (script init + add), got %d", len(res.File.MethodBodies))
	}
}

func TestClassDefEmitsInstanceAndClass(t *testing.T) {
	src := "class Animal:\n" +
		"    def __init__(self, name):\n" +
		"        self.name = name\n" +
		"\n" +
		"    def speak(self):\n" +
		"        return self.name\n"
	res := generate(t, src)

	if len(res.File.Instances) != 1 {
		t.Fatalf("expected exactly one instance_info, got %d", len(res.File.Instances))
	}
	if len(res.File.Classes) != 1 {
		t.Fatalf("expected exactly one class_info, got %d", len(res.File.Classes))
	}
	inst := res.File.Instances[0]
	if inst.Name.Name != "Animal" {
		t.Errorf("expected instance name Animal, got %q", inst.Name.Name)
	}
	if inst.SuperName.Name != "Object" {
		t.Errorf("expected implicit base Object, got %q", inst.SuperName.Name)
	}

	var sawSpeak bool
	for _, tr := range inst.Traits {
		if tr.Name.Name == "speak" && tr.Kind == abc.TraitMethod {
			sawSpeak = true
		}
	}
	if !sawSpeak {
		t.Errorf("expected a method trait named speak, got %+v", inst.Traits)
	}
}

func TestClassConstructorCallsConstructSuper(t *testing.T) {
	src := "class Point:\n" +
		"    def __init__(self, x):\n" +
		"        self.x = x\n"
	res := generate(t, src)

	ctorIdx := res.File.Instances[0].Init
	body := res.File.MethodBodies[ctorIdx]
	ops, _, err := asm.Disassemble(body.Code)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !containsOp(ops, opcode.OpConstructSuper) {
		t.Errorf("expected every constructor to call constructsuper, got %v", opNames(ops))
	}
}

func TestForRangeLoopCompilesWithoutErrors(t *testing.T) {
	res := generate(t, "for i in range(3):\n    print(i)\n")
	ops := scriptInitOps(t, res)
	if len(ops) == 0 {
		t.Fatal("expected a non-empty instruction stream for a for-range loop")
	}
}

func TestTryExceptCompilesExceptionHandler(t *testing.T) {
	src := "try:\n" +
		"    x = 1\n" +
		"except ValueError as e:\n" +
		"    x = 2\n"
	res := generate(t, src)
	initIdx := res.File.Scripts[0].Init
	body := res.File.MethodBodies[initIdx]
	if len(body.Exceptions) == 0 {
		t.Fatalf("expected at least one exception_info entry for a try/except")
	}
}

func TestClassInstantiationUsesConstructProp(t *testing.T) {
	src := "class Point:\n" +
		"    def __init__(self, x):\n" +
		"        self.x = x\n" +
		"\n" +
		"p = Point(1)\n"
	res := generate(t, src)
	ops := scriptInitOps(t, res)

	if !containsOp(ops, opcode.OpConstructProp) {
		t.Errorf("expected constructprop to instantiate Point, got %v", opNames(ops))
	}
	if containsOp(ops, opcode.OpCallProperty) {
		t.Errorf("calling a class by name should never use plain callproperty, got %v", opNames(ops))
	}
}

func TestClosureCapturesOuterLocal(t *testing.T) {
	src := "def outer():\n" +
		"    count = 0\n" +
		"    def inner():\n" +
		"        return count\n" +
		"    return inner\n"
	res := generate(t, src)
	if len(res.File.Methods) < 3 {
		t.Fatalf("expected outer, inner, and the script initializer as distinct methods, got %d", len(res.File.Methods))
	}
}
