package scope

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/lexer"
	"github.com/halcyon-tools/pyas3c/internal/parser"
)

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := parser.New(lexer.New(src))
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	return mod
}

func TestClosureExportPropagation(t *testing.T) {
	src := "def outer(x):\n    def inner():\n        return x\n    return inner\n"
	mod := parseModule(t, src)
	a := Analyze(mod)

	outer := mod.Statements[0].(*ast.FunctionDef)
	outerInfo := a.Funcs[outer]
	if !outerInfo.Export["x"] {
		t.Errorf("outer's func_export should contain x, got %v", outerInfo.Export)
	}

	inner := outer.Body[0].(*ast.FunctionDef)
	innerInfo := a.Funcs[inner]
	if !innerInfo.Globals["x"] {
		t.Errorf("inner's func_globals should contain x, got %v", innerInfo.Globals)
	}
	if innerInfo.Locals["x"] {
		t.Errorf("inner should not bind x locally")
	}
}

func TestLocalsIncludeParamsAndAssignments(t *testing.T) {
	src := "def f(a):\n    b = a + 1\n    return b\n"
	mod := parseModule(t, src)
	a := Analyze(mod)
	fn := mod.Statements[0].(*ast.FunctionDef)
	info := a.Funcs[fn]
	if !info.Locals["a"] || !info.Locals["b"] {
		t.Errorf("locals = %v, want a and b", info.Locals)
	}
	if len(info.Globals) != 0 {
		t.Errorf("globals = %v, want none", info.Globals)
	}
}

func TestGlobalStatementForcesGlobalScope(t *testing.T) {
	src := "count = 0\ndef bump():\n    global count\n    count = count + 1\n"
	mod := parseModule(t, src)
	a := Analyze(mod)
	fn := mod.Statements[1].(*ast.FunctionDef)
	info := a.Funcs[fn]
	if info.Locals["count"] {
		t.Errorf("count should not be local after `global count`")
	}
	if !info.Globals["count"] {
		t.Errorf("count should be global")
	}
}

func TestClassSlotsCaptured(t *testing.T) {
	src := "class Point:\n    __slots__ = [\"x\", \"y\"]\n    def __init__(self, x, y):\n        self.x = x\n        self.y = y\n"
	mod := parseModule(t, src)
	a := Analyze(mod)
	cls := mod.Statements[0].(*ast.ClassDef)
	info := a.Classes[cls]
	if len(info.Slots) != 2 || info.Slots[0] != "x" || info.Slots[1] != "y" {
		t.Errorf("slots = %v, want [x y]", info.Slots)
	}
}

func TestMethodClosesOverEnclosingFunctionNotClassBody(t *testing.T) {
	src := "def make():\n    n = 1\n    class C:\n        def get(self):\n            return n\n    return C\n"
	mod := parseModule(t, src)
	a := Analyze(mod)
	makeFn := mod.Statements[0].(*ast.FunctionDef)
	makeInfo := a.Funcs[makeFn]
	if !makeInfo.Export["n"] {
		t.Errorf("make's func_export should contain n (captured through the class body), got %v", makeInfo.Export)
	}
}
