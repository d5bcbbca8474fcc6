// Package ast defines the typed syntax tree produced by internal/parser:
// a Node per language construct, each carrying the token.Token it started
// from so later stages can report accurate source positions (§4.6, §4.7,
// §4.8).
package ast

import (
	"strings"

	"github.com/halcyon-tools/pyas3c/internal/token"
)

// Node is the base interface every tree node implements.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Token
}

// Statement is a node that performs an action without producing a value.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Module is the root node: a parsed source file's top-level statement list.
type Module struct {
	Statements []Statement
}

func (m *Module) TokenLiteral() string {
	if len(m.Statements) > 0 {
		return m.Statements[0].TokenLiteral()
	}
	return ""
}
func (m *Module) Pos() token.Token {
	if len(m.Statements) > 0 {
		return m.Statements[0].Pos()
	}
	return token.Token{}
}
func (m *Module) String() string {
	var out strings.Builder
	for _, s := range m.Statements {
		out.WriteString(s.String())
		out.WriteByte('\n')
	}
	return out.String()
}

// Identifier names a variable, parameter, function, or class.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

// IntLiteral is an integer constant.
type IntLiteral struct {
	Token token.Token
	Value int64
}

func (l *IntLiteral) expressionNode()      {}
func (l *IntLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *IntLiteral) Pos() token.Token     { return l.Token }
func (l *IntLiteral) String() string       { return l.Token.Literal }

// FloatLiteral is a double-precision constant.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (l *FloatLiteral) expressionNode()      {}
func (l *FloatLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *FloatLiteral) Pos() token.Token     { return l.Token }
func (l *FloatLiteral) String() string       { return l.Token.Literal }

// StringLiteral is a string constant, already unescaped by the lexer.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (l *StringLiteral) expressionNode()      {}
func (l *StringLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *StringLiteral) Pos() token.Token     { return l.Token }
func (l *StringLiteral) String() string       { return "\"" + l.Value + "\"" }

// BoolLiteral is `True` or `False`.
type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (l *BoolLiteral) expressionNode()      {}
func (l *BoolLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *BoolLiteral) Pos() token.Token     { return l.Token }
func (l *BoolLiteral) String() string       { return l.Token.Literal }

// NoneLiteral is `None`.
type NoneLiteral struct {
	Token token.Token
}

func (l *NoneLiteral) expressionNode()      {}
func (l *NoneLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *NoneLiteral) Pos() token.Token     { return l.Token }
func (l *NoneLiteral) String() string       { return "None" }

// ListLiteral is a `[...]` expression.
type ListLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (l *ListLiteral) expressionNode()      {}
func (l *ListLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *ListLiteral) Pos() token.Token     { return l.Token }
func (l *ListLiteral) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictLiteral is a `{k: v, ...}` expression.
type DictLiteral struct {
	Token token.Token
	Keys  []Expression
	Vals  []Expression
}

func (l *DictLiteral) expressionNode()      {}
func (l *DictLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *DictLiteral) Pos() token.Token     { return l.Token }
func (l *DictLiteral) String() string {
	parts := make([]string, len(l.Keys))
	for i := range l.Keys {
		parts[i] = l.Keys[i].String() + ": " + l.Vals[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnaryExpr is a prefix operator: `-x`, `not x`, `~x`.
type UnaryExpr struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

func (e *UnaryExpr) expressionNode()      {}
func (e *UnaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *UnaryExpr) Pos() token.Token     { return e.Token }
func (e *UnaryExpr) String() string       { return "(" + e.Operator + e.Operand.String() + ")" }

// BinaryExpr is an infix operator, covering arithmetic, comparison,
// bitwise, and `and`/`or` (short-circuiting is a codegen concern, not a
// parse-time distinction).
type BinaryExpr struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpr) expressionNode()      {}
func (e *BinaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpr) Pos() token.Token     { return e.Token }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

// CallExpr applies Function to Args.
type CallExpr struct {
	Token    token.Token
	Function Expression
	Args     []Expression
}

func (e *CallExpr) expressionNode()      {}
func (e *CallExpr) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpr) Pos() token.Token     { return e.Token }
func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Function.String() + "(" + strings.Join(parts, ", ") + ")"
}

// AttributeExpr is `Object.Name`.
type AttributeExpr struct {
	Token  token.Token
	Object Expression
	Name   string
}

func (e *AttributeExpr) expressionNode()      {}
func (e *AttributeExpr) TokenLiteral() string { return e.Token.Literal }
func (e *AttributeExpr) Pos() token.Token     { return e.Token }
func (e *AttributeExpr) String() string       { return e.Object.String() + "." + e.Name }

// IndexExpr is `Object[Index]`.
type IndexExpr struct {
	Token  token.Token
	Object Expression
	Index  Expression
}

func (e *IndexExpr) expressionNode()      {}
func (e *IndexExpr) TokenLiteral() string { return e.Token.Literal }
func (e *IndexExpr) Pos() token.Token     { return e.Token }
func (e *IndexExpr) String() string       { return e.Object.String() + "[" + e.Index.String() + "]" }

// LambdaExpr is `lambda params: body`.
type LambdaExpr struct {
	Token  token.Token
	Params []*Identifier
	Body   Expression
}

func (e *LambdaExpr) expressionNode()      {}
func (e *LambdaExpr) TokenLiteral() string { return e.Token.Literal }
func (e *LambdaExpr) Pos() token.Token     { return e.Token }
func (e *LambdaExpr) String() string {
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = p.Value
	}
	return "lambda " + strings.Join(parts, ", ") + ": " + e.Body.String()
}

// Param is one function parameter, optionally with a default value.
type Param struct {
	Name    *Identifier
	Default Expression // nil if required
}

// FunctionDef is `def name(params):` followed by an indented body.
type FunctionDef struct {
	Token      token.Token
	Name       *Identifier
	Params     []Param
	Decorators []Expression
	Body       []Statement
}

func (s *FunctionDef) statementNode()       {}
func (s *FunctionDef) TokenLiteral() string { return s.Token.Literal }
func (s *FunctionDef) Pos() token.Token     { return s.Token }
func (s *FunctionDef) String() string       { return "def " + s.Name.Value + "(...):" }

// ClassDef is `class Name(Bases):` followed by an indented body of
// FunctionDef and Assign statements (methods and slots/constants).
type ClassDef struct {
	Token      token.Token
	Name       *Identifier
	Bases      []Expression
	Decorators []Expression
	Body       []Statement
}

func (s *ClassDef) statementNode()       {}
func (s *ClassDef) TokenLiteral() string { return s.Token.Literal }
func (s *ClassDef) Pos() token.Token     { return s.Token }
func (s *ClassDef) String() string       { return "class " + s.Name.Value + ":" }

// ReturnStmt is `return [value]`.
type ReturnStmt struct {
	Token token.Token
	Value Expression // nil for a bare `return`
}

func (s *ReturnStmt) statementNode()       {}
func (s *ReturnStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStmt) Pos() token.Token     { return s.Token }
func (s *ReturnStmt) String() string       { return "return " + exprString(s.Value) }

// PassStmt is a no-op placeholder statement.
type PassStmt struct{ Token token.Token }

func (s *PassStmt) statementNode()       {}
func (s *PassStmt) TokenLiteral() string { return s.Token.Literal }
func (s *PassStmt) Pos() token.Token     { return s.Token }
func (s *PassStmt) String() string       { return "pass" }

// BreakStmt exits the nearest enclosing loop.
type BreakStmt struct{ Token token.Token }

func (s *BreakStmt) statementNode()       {}
func (s *BreakStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BreakStmt) Pos() token.Token     { return s.Token }
func (s *BreakStmt) String() string       { return "break" }

// ContinueStmt jumps to the nearest enclosing loop's next iteration.
type ContinueStmt struct{ Token token.Token }

func (s *ContinueStmt) statementNode()       {}
func (s *ContinueStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ContinueStmt) Pos() token.Token     { return s.Token }
func (s *ContinueStmt) String() string       { return "continue" }

// ExprStmt is an expression evaluated for its side effect, its result
// discarded (§4.8's assignment protocol distinguishes this from an
// assignment target).
type ExprStmt struct {
	Token      token.Token
	Expression Expression
}

func (s *ExprStmt) statementNode()       {}
func (s *ExprStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ExprStmt) Pos() token.Token     { return s.Token }
func (s *ExprStmt) String() string       { return exprString(s.Expression) }

// AssignStmt is `target = value`. Target is one of Identifier,
// AttributeExpr, or IndexExpr — the three assignable expression shapes.
type AssignStmt struct {
	Token  token.Token
	Target Expression
	Value  Expression
}

func (s *AssignStmt) statementNode()       {}
func (s *AssignStmt) TokenLiteral() string { return s.Token.Literal }
func (s *AssignStmt) Pos() token.Token     { return s.Token }
func (s *AssignStmt) String() string       { return s.Target.String() + " = " + s.Value.String() }

// AugAssignStmt is `target op= value` (`+=`, `-=`, `*=`, `/=`, `%=`).
type AugAssignStmt struct {
	Token    token.Token
	Target   Expression
	Operator string
	Value    Expression
}

func (s *AugAssignStmt) statementNode()       {}
func (s *AugAssignStmt) TokenLiteral() string { return s.Token.Literal }
func (s *AugAssignStmt) Pos() token.Token     { return s.Token }
func (s *AugAssignStmt) String() string {
	return s.Target.String() + " " + s.Operator + "= " + s.Value.String()
}

// IfStmt is `if cond: ... elif cond: ... else: ...`. Elifs are modeled as
// a chain of nested IfStmt in Else to keep the tree shape uniform.
type IfStmt struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
	Else      []Statement // may itself be a single nested IfStmt, for elif
}

func (s *IfStmt) statementNode()       {}
func (s *IfStmt) TokenLiteral() string { return s.Token.Literal }
func (s *IfStmt) Pos() token.Token     { return s.Token }
func (s *IfStmt) String() string       { return "if " + s.Condition.String() + ":" }

// WhileStmt is `while cond: ...`.
type WhileStmt struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (s *WhileStmt) statementNode()       {}
func (s *WhileStmt) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStmt) Pos() token.Token     { return s.Token }
func (s *WhileStmt) String() string       { return "while " + s.Condition.String() + ":" }

// ForStmt is `for Target in Iter: ...`. Target is always a plain
// Identifier; destructuring targets are out of scope.
type ForStmt struct {
	Token  token.Token
	Target *Identifier
	Iter   Expression
	Body   []Statement
}

func (s *ForStmt) statementNode()       {}
func (s *ForStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ForStmt) Pos() token.Token     { return s.Token }
func (s *ForStmt) String() string {
	return "for " + s.Target.Value + " in " + s.Iter.String() + ":"
}

// ImportStmt is `import module [as alias]`.
type ImportStmt struct {
	Token  token.Token
	Module string
	Alias  string // equals Module's last component when no `as` clause
}

func (s *ImportStmt) statementNode()       {}
func (s *ImportStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ImportStmt) Pos() token.Token     { return s.Token }
func (s *ImportStmt) String() string       { return "import " + s.Module }

// ImportFromStmt is `from module import name [as alias], ...`.
type ImportFromStmt struct {
	Token   token.Token
	Module  string
	Names   []string
	Aliases []string // parallel to Names; empty string means no alias
}

func (s *ImportFromStmt) statementNode()       {}
func (s *ImportFromStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ImportFromStmt) Pos() token.Token     { return s.Token }
func (s *ImportFromStmt) String() string       { return "from " + s.Module + " import ..." }

// GlobalStmt is `global name, ...`, forcing the named bindings to resolve
// against the enclosing module scope (§4.7).
type GlobalStmt struct {
	Token token.Token
	Names []string
}

func (s *GlobalStmt) statementNode()       {}
func (s *GlobalStmt) TokenLiteral() string { return s.Token.Literal }
func (s *GlobalStmt) Pos() token.Token     { return s.Token }
func (s *GlobalStmt) String() string       { return "global " + strings.Join(s.Names, ", ") }

// RaiseStmt is `raise [exc]`.
type RaiseStmt struct {
	Token     token.Token
	Exception Expression // nil for a bare re-raise
}

func (s *RaiseStmt) statementNode()       {}
func (s *RaiseStmt) TokenLiteral() string { return s.Token.Literal }
func (s *RaiseStmt) Pos() token.Token     { return s.Token }
func (s *RaiseStmt) String() string       { return "raise " + exprString(s.Exception) }

// ExceptClause is one `except [Type [as name]]:` handler.
type ExceptClause struct {
	Token    token.Token
	Type     Expression // nil for a bare `except:`
	Name     *Identifier
	Body     []Statement
}

// TryStmt is `try: ... except ...: ... else: ... finally: ...`.
type TryStmt struct {
	Token    token.Token
	Body     []Statement
	Handlers []ExceptClause
	Else     []Statement
	Finally  []Statement
}

func (s *TryStmt) statementNode()       {}
func (s *TryStmt) TokenLiteral() string { return s.Token.Literal }
func (s *TryStmt) Pos() token.Token     { return s.Token }
func (s *TryStmt) String() string       { return "try:" }

func exprString(e Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}
