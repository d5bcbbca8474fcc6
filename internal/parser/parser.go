// Package parser implements the syntactic analyzer for the compiled
// Python-syntax subset (§4.6). It follows the teacher's recursive-descent
// plus Pratt-parsing design for expressions, but statements are delimited
// by INDENT/DEDENT/NEWLINE pseudo-tokens from internal/lexer rather than
// braces, so block parsing walks a token stream shaped like Python's own
// tokenizer output instead of the teacher's `{ ... }` pairs.
package parser

import (
	"fmt"
	"strconv"

	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/lexer"
	"github.com/halcyon-tools/pyas3c/internal/token"
)

const (
	_ int = iota

	Lowest
	LogicOr    // or
	LogicAnd   // and
	Compare    // == != < > <= >= is
	BitOr      // |
	BitXor     // ^
	BitAnd     // &
	Shift      // << >>
	Sum        // + -
	Product    // * / // %
	Unary      // -x ~x not x
	Call       // f(...)
	Postfix    // x.y  x[y]
)

var precedences = map[token.Type]int{
	token.OR:       LogicOr,
	token.AND:      LogicAnd,
	token.EQ:       Compare,
	token.NOT_EQ:   Compare,
	token.LT:       Compare,
	token.LE:       Compare,
	token.GT:       Compare,
	token.GE:       Compare,
	token.IS:       Compare,
	token.IN:       Compare,
	token.PIPE:     BitOr,
	token.CARET:    BitXor,
	token.AMP:      BitAnd,
	token.LSHIFT:   Shift,
	token.RSHIFT:   Shift,
	token.PLUS:     Sum,
	token.MINUS:    Sum,
	token.STAR:     Product,
	token.SLASH:    Product,
	token.SLASH2:   Product,
	token.PERCENT:  Product,
	token.LPAREN:   Call,
	token.LBRACKET: Postfix,
	token.DOT:      Postfix,
}

var augAssignOps = map[token.Type]string{
	token.PLUS_EQ:    "+",
	token.MINUS_EQ:   "-",
	token.STAR_EQ:    "*",
	token.SLASH_EQ:   "/",
	token.PERCENT_EQ: "%",
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns a internal/lexer token stream into an internal/ast tree.
type Parser struct {
	l      *lexer.Lexer
	errors []string

	currentToken token.Token
	peekToken    token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.MINUS, p.parseUnaryExpr)
	p.registerPrefix(token.TILDE, p.parseUnaryExpr)
	p.registerPrefix(token.NOT, p.parseUnaryExpr)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseDictLiteral)
	p.registerPrefix(token.LAMBDA, p.parseLambdaExpr)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASH2, token.PERCENT,
		token.AMP, token.PIPE, token.CARET, token.LSHIFT, token.RSHIFT,
		token.LT, token.GT, token.LE, token.GE, token.EQ, token.NOT_EQ,
		token.AND, token.OR, token.IS, token.IN,
	} {
		p.registerInfix(t, p.parseBinaryExpr)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpr)
	p.registerInfix(token.LBRACKET, p.parseIndexExpr)
	p.registerInfix(token.DOT, p.parseAttributeExpr)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixParseFns[t] = fn }

// Errors returns every syntax error collected while parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) currentTokenIs(t token.Type) bool { return p.currentToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool    { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: expected next token to be %s, got %s instead",
		p.peekToken.Line, p.peekToken.Column, t, p.peekToken.Type))
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", p.currentToken.Line, p.currentToken.Column,
		fmt.Sprintf(format, args...)))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return Lowest
}

func (p *Parser) currentPrecedence() int {
	if prec, ok := precedences[p.currentToken.Type]; ok {
		return prec
	}
	return Lowest
}

// ParseModule parses an entire source file. Check Errors afterward.
func (p *Parser) ParseModule() *ast.Module {
	mod := &ast.Module{}
	for !p.currentTokenIs(token.EOF) {
		if p.currentTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			mod.Statements = append(mod.Statements, stmt)
		}
		p.nextToken()
	}
	return mod
}

// parseBlock consumes `: NEWLINE INDENT stmt* DEDENT`, leaving currentToken
// on the DEDENT so the caller's own loop can advance past it uniformly.
func (p *Parser) parseBlock() ([]ast.Statement, bool) {
	if !p.expectPeek(token.COLON) {
		return nil, false
	}
	if !p.expectPeek(token.NEWLINE) {
		return nil, false
	}
	if !p.expectPeek(token.INDENT) {
		return nil, false
	}
	p.nextToken()

	var stmts []ast.Statement
	for !p.currentTokenIs(token.DEDENT) && !p.currentTokenIs(token.EOF) {
		if p.currentTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}
	return stmts, true
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.currentToken.Type {
	case token.AT:
		return p.parseDecorated()
	case token.DEF:
		return p.parseFunctionDef(nil)
	case token.CLASS:
		return p.parseClassDef(nil)
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		return &ast.BreakStmt{Token: p.currentToken}
	case token.CONTINUE:
		return &ast.ContinueStmt{Token: p.currentToken}
	case token.PASS:
		return &ast.PassStmt{Token: p.currentToken}
	case token.IMPORT:
		return p.parseImportStmt()
	case token.FROM:
		return p.parseImportFromStmt()
	case token.GLOBAL:
		return p.parseGlobalStmt()
	case token.RAISE:
		return p.parseRaiseStmt()
	case token.TRY:
		return p.parseTryStmt()
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseDecorated() ast.Statement {
	var decorators []ast.Expression
	for p.currentTokenIs(token.AT) {
		p.nextToken()
		decorators = append(decorators, p.parseExpression(Lowest))
		if !p.expectPeek(token.NEWLINE) {
			return nil
		}
		p.nextToken()
	}
	switch p.currentToken.Type {
	case token.DEF:
		return p.parseFunctionDef(decorators)
	case token.CLASS:
		return p.parseClassDef(decorators)
	default:
		p.errorf("decorator must precede a function or class definition")
		return nil
	}
}

func (p *Parser) parseFunctionDef(decorators []ast.Expression) ast.Statement {
	stmt := &ast.FunctionDef{Token: p.currentToken, Decorators: decorators}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Params = p.parseParams()
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		p.parseExpression(Lowest) // return-type annotation, not retained
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseOneParam())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		params = append(params, p.parseOneParam())
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseOneParam() ast.Param {
	name := &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		p.parseExpression(Sum) // type annotation, not retained
	}
	param := ast.Param{Name: name}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		param.Default = p.parseExpression(Lowest)
	}
	return param
}

func (p *Parser) parseClassDef(decorators []ast.Expression) ast.Statement {
	stmt := &ast.ClassDef{Token: p.currentToken, Decorators: decorators}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		stmt.Bases = p.parseExpressionList(token.RPAREN)
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseReturnStmt() ast.Statement {
	stmt := &ast.ReturnStmt{Token: p.currentToken}
	if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.EOF) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(Lowest)
	return stmt
}

func (p *Parser) parseIfStmt() ast.Statement {
	stmt := &ast.IfStmt{Token: p.currentToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(Lowest)
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body

	switch {
	case p.peekTokenIs(token.ELIF):
		p.nextToken()
		elif := p.parseIfStmt()
		if elif == nil {
			return nil
		}
		stmt.Else = []ast.Statement{elif}
	case p.peekTokenIs(token.ELSE):
		p.nextToken()
		elseBody, ok := p.parseBlock()
		if !ok {
			return nil
		}
		stmt.Else = elseBody
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Statement {
	stmt := &ast.WhileStmt{Token: p.currentToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(Lowest)
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseForStmt() ast.Statement {
	stmt := &ast.ForStmt{Token: p.currentToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Target = &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iter = p.parseExpression(Lowest)
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body
	return stmt
}

func (p *Parser) parseDottedName() string {
	name := p.currentToken.Literal
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		p.nextToken()
		name += "." + p.currentToken.Literal
	}
	return name
}

func (p *Parser) parseImportStmt() ast.Statement {
	stmt := &ast.ImportStmt{Token: p.currentToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Module = p.parseDottedName()
	stmt.Alias = stmt.Module
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.currentToken.Literal
	}
	return stmt
}

func (p *Parser) parseImportFromStmt() ast.Statement {
	stmt := &ast.ImportFromStmt{Token: p.currentToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Module = p.parseDottedName()
	if !p.expectPeek(token.IMPORT) {
		return nil
	}
	p.nextToken()
	for {
		name := p.currentToken.Literal
		alias := ""
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			alias = p.currentToken.Literal
		}
		stmt.Names = append(stmt.Names, name)
		stmt.Aliases = append(stmt.Aliases, alias)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseGlobalStmt() ast.Statement {
	stmt := &ast.GlobalStmt{Token: p.currentToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Names = append(stmt.Names, p.currentToken.Literal)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Names = append(stmt.Names, p.currentToken.Literal)
	}
	return stmt
}

func (p *Parser) parseRaiseStmt() ast.Statement {
	stmt := &ast.RaiseStmt{Token: p.currentToken}
	if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.EOF) {
		return stmt
	}
	p.nextToken()
	stmt.Exception = p.parseExpression(Lowest)
	return stmt
}

func (p *Parser) parseTryStmt() ast.Statement {
	stmt := &ast.TryStmt{Token: p.currentToken}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}
	stmt.Body = body

	for p.peekTokenIs(token.EXCEPT) {
		p.nextToken()
		clause := ast.ExceptClause{Token: p.currentToken}
		if !p.peekTokenIs(token.COLON) {
			p.nextToken()
			clause.Type = p.parseExpression(Lowest)
			if p.peekTokenIs(token.AS) {
				p.nextToken()
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				clause.Name = &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
			}
		}
		handlerBody, ok := p.parseBlock()
		if !ok {
			return nil
		}
		clause.Body = handlerBody
		stmt.Handlers = append(stmt.Handlers, clause)
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		elseBody, ok := p.parseBlock()
		if !ok {
			return nil
		}
		stmt.Else = elseBody
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		finallyBody, ok := p.parseBlock()
		if !ok {
			return nil
		}
		stmt.Finally = finallyBody
	}
	return stmt
}

// parseSimpleStatement handles an expression, an assignment, or an
// augmented assignment — the three statement shapes that don't start with
// a dedicated keyword (§4.8's assignment protocol operates on the result).
func (p *Parser) parseSimpleStatement() ast.Statement {
	startTok := p.currentToken
	expr := p.parseExpression(Lowest)

	switch {
	case p.peekTokenIs(token.ASSIGN):
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(Lowest)
		return &ast.AssignStmt{Token: startTok, Target: expr, Value: value}
	default:
		if op, ok := augAssignOps[p.peekToken.Type]; ok {
			p.nextToken()
			p.nextToken()
			value := p.parseExpression(Lowest)
			return &ast.AugAssignStmt{Token: startTok, Target: expr, Operator: op, Value: value}
		}
		return &ast.ExprStmt{Token: startTok, Expression: expr}
	}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.currentToken.Type]
	if prefix == nil {
		p.errorf("no prefix parse function for %s found", p.currentToken.Type)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	lit := &ast.IntLiteral{Token: p.currentToken}
	v, err := strconv.ParseInt(p.currentToken.Literal, 10, 64)
	if err != nil {
		p.errorf("could not parse %q as an integer", p.currentToken.Literal)
		return nil
	}
	lit.Value = v
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.currentToken}
	v, err := strconv.ParseFloat(p.currentToken.Literal, 64)
	if err != nil {
		p.errorf("could not parse %q as a float", p.currentToken.Literal)
		return nil
	}
	lit.Value = v
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.currentToken, Value: p.currentToken.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.currentToken, Value: p.currentTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.NoneLiteral{Token: p.currentToken}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	expr := &ast.UnaryExpr{Token: p.currentToken, Operator: p.currentToken.Literal}
	p.nextToken()
	expr.Operand = p.parseExpression(Unary)
	return expr
}

func (p *Parser) parseBinaryExpr(left ast.Expression) ast.Expression {
	expr := &ast.BinaryExpr{Token: p.currentToken, Operator: p.currentToken.Literal, Left: left}
	precedence := p.currentPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parseGroupedExpr() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(Lowest)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseListLiteral() ast.Expression {
	lit := &ast.ListLiteral{Token: p.currentToken}
	lit.Elements = p.parseExpressionList(token.RBRACKET)
	return lit
}

func (p *Parser) parseDictLiteral() ast.Expression {
	lit := &ast.DictLiteral{Token: p.currentToken}
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		key := p.parseExpression(Lowest)
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(Lowest)
		lit.Keys = append(lit.Keys, key)
		lit.Vals = append(lit.Vals, value)
		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

func (p *Parser) parseLambdaExpr() ast.Expression {
	lit := &ast.LambdaExpr{Token: p.currentToken}
	p.nextToken()
	if !p.currentTokenIs(token.COLON) {
		lit.Params = append(lit.Params, &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal})
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			lit.Params = append(lit.Params, &ast.Identifier{Token: p.currentToken, Value: p.currentToken.Literal})
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
	}
	p.nextToken()
	lit.Body = p.parseExpression(Lowest)
	return lit
}

func (p *Parser) parseCallExpr(fn ast.Expression) ast.Expression {
	expr := &ast.CallExpr{Token: p.currentToken, Function: fn}
	expr.Args = p.parseExpressionList(token.RPAREN)
	return expr
}

func (p *Parser) parseIndexExpr(obj ast.Expression) ast.Expression {
	expr := &ast.IndexExpr{Token: p.currentToken, Object: obj}
	p.nextToken()
	expr.Index = p.parseExpression(Lowest)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) parseAttributeExpr(obj ast.Expression) ast.Expression {
	expr := &ast.AttributeExpr{Token: p.currentToken, Object: obj}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Name = p.currentToken.Literal
	return expr
}

func (p *Parser) parseExpressionList(end token.Type) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(Lowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(Lowest))
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}
