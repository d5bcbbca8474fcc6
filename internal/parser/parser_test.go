package parser

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/lexer"
)

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := New(lexer.New(src))
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	return mod
}

func TestParseFunctionDefWithDefaultParam(t *testing.T) {
	src := "def add(x, y=1):\n    return x + y\n"
	mod := parseModule(t, src)
	if len(mod.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(mod.Statements))
	}
	fn, ok := mod.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("statement is %T, want *ast.FunctionDef", mod.Statements[0])
	}
	if fn.Name.Value != "add" {
		t.Errorf("name = %q, want add", fn.Name.Value)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
	if fn.Params[1].Default == nil {
		t.Errorf("second param should have a default value")
	}
	if len(fn.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fn.Body))
	}
	if _, ok := fn.Body[0].(*ast.ReturnStmt); !ok {
		t.Errorf("body[0] is %T, want *ast.ReturnStmt", fn.Body[0])
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	mod := parseModule(t, src)
	ifStmt, ok := mod.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.IfStmt", mod.Statements[0])
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("elif should nest as a single IfStmt in Else, got %d stmts", len(ifStmt.Else))
	}
	elif, ok := ifStmt.Else[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("Else[0] is %T, want *ast.IfStmt", ifStmt.Else[0])
	}
	if len(elif.Else) != 1 {
		t.Fatalf("final else should produce one body statement, got %d", len(elif.Else))
	}
}

func TestParseClassDefWithBase(t *testing.T) {
	src := "class Dog(Animal):\n    def bark(self):\n        return 1\n"
	mod := parseModule(t, src)
	cls, ok := mod.Statements[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ClassDef", mod.Statements[0])
	}
	if cls.Name.Value != "Dog" {
		t.Errorf("name = %q, want Dog", cls.Name.Value)
	}
	if len(cls.Bases) != 1 {
		t.Fatalf("got %d bases, want 1", len(cls.Bases))
	}
	if len(cls.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(cls.Body))
	}
}

func TestParseDecoratedFunction(t *testing.T) {
	src := "@staticmethod\ndef f():\n    pass\n"
	mod := parseModule(t, src)
	fn, ok := mod.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("statement is %T, want *ast.FunctionDef", mod.Statements[0])
	}
	if len(fn.Decorators) != 1 {
		t.Fatalf("got %d decorators, want 1", len(fn.Decorators))
	}
}

func TestParseForLoop(t *testing.T) {
	src := "for x in y:\n    print(x)\n"
	mod := parseModule(t, src)
	forStmt, ok := mod.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ForStmt", mod.Statements[0])
	}
	if forStmt.Target.Value != "x" {
		t.Errorf("target = %q, want x", forStmt.Target.Value)
	}
}

func TestParseAssignAndAugAssign(t *testing.T) {
	mod := parseModule(t, "x = 1\nx += 2\n")
	if _, ok := mod.Statements[0].(*ast.AssignStmt); !ok {
		t.Errorf("statement 0 is %T, want *ast.AssignStmt", mod.Statements[0])
	}
	aug, ok := mod.Statements[1].(*ast.AugAssignStmt)
	if !ok {
		t.Fatalf("statement 1 is %T, want *ast.AugAssignStmt", mod.Statements[1])
	}
	if aug.Operator != "+" {
		t.Errorf("operator = %q, want +", aug.Operator)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	mod := parseModule(t, "x = 1 + 2 * 3\n")
	assign := mod.Statements[0].(*ast.AssignStmt)
	bin, ok := assign.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("value is %T, want *ast.BinaryExpr", assign.Value)
	}
	if bin.Operator != "+" {
		t.Fatalf("top operator = %q, want +", bin.Operator)
	}
	right, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || right.Operator != "*" {
		t.Errorf("right side should be the 2 * 3 multiplication, got %#v", bin.Right)
	}
}

func TestCallAttributeIndexChain(t *testing.T) {
	mod := parseModule(t, "x = a.b(1)[0]\n")
	assign := mod.Statements[0].(*ast.AssignStmt)
	idx, ok := assign.Value.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("value is %T, want *ast.IndexExpr", assign.Value)
	}
	call, ok := idx.Object.(*ast.CallExpr)
	if !ok {
		t.Fatalf("index object is %T, want *ast.CallExpr", idx.Object)
	}
	attr, ok := call.Function.(*ast.AttributeExpr)
	if !ok {
		t.Fatalf("call function is %T, want *ast.AttributeExpr", call.Function)
	}
	if attr.Name != "b" {
		t.Errorf("attribute = %q, want b", attr.Name)
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	src := "try:\n    risky()\nexcept ValueError as e:\n    handle(e)\nfinally:\n    cleanup()\n"
	mod := parseModule(t, src)
	try, ok := mod.Statements[0].(*ast.TryStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.TryStmt", mod.Statements[0])
	}
	if len(try.Handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(try.Handlers))
	}
	if try.Handlers[0].Name.Value != "e" {
		t.Errorf("handler name = %q, want e", try.Handlers[0].Name.Value)
	}
	if len(try.Finally) != 1 {
		t.Fatalf("got %d finally statements, want 1", len(try.Finally))
	}
}

func TestParseLambda(t *testing.T) {
	mod := parseModule(t, "f = lambda x, y: x + y\n")
	assign := mod.Statements[0].(*ast.AssignStmt)
	lam, ok := assign.Value.(*ast.LambdaExpr)
	if !ok {
		t.Fatalf("value is %T, want *ast.LambdaExpr", assign.Value)
	}
	if len(lam.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(lam.Params))
	}
}

func TestParseListAndDictLiterals(t *testing.T) {
	mod := parseModule(t, "x = [1, 2, 3]\ny = {\"a\": 1}\n")
	list, ok := mod.Statements[0].(*ast.AssignStmt).Value.(*ast.ListLiteral)
	if !ok {
		t.Fatalf("x value is %T, want *ast.ListLiteral", mod.Statements[0].(*ast.AssignStmt).Value)
	}
	if len(list.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(list.Elements))
	}
	dict, ok := mod.Statements[1].(*ast.AssignStmt).Value.(*ast.DictLiteral)
	if !ok {
		t.Fatalf("y value is %T, want *ast.DictLiteral", mod.Statements[1].(*ast.AssignStmt).Value)
	}
	if len(dict.Keys) != 1 {
		t.Errorf("got %d keys, want 1", len(dict.Keys))
	}
}
