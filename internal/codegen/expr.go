package codegen

import (
	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/asm"
	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/diag"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/scope"
)

var arithOps = map[string]opcode.Op{
	"+":  opcode.OpAdd,
	"-":  opcode.OpSubtract,
	"*":  opcode.OpMultiply,
	"/":  opcode.OpDivide,
	"//": opcode.OpDivide, // floor division: divide then convert_i
	"%":  opcode.OpModulo,
	"&":  opcode.OpBitAnd,
	"|":  opcode.OpBitOr,
	"^":  opcode.OpBitXor,
	"<<": opcode.OpLShift,
	">>": opcode.OpRShift,
}

var compareOps = map[string]opcode.Op{
	"==": opcode.OpEquals,
	"!=": opcode.OpEquals, // negated with `not` after
	"<":  opcode.OpLessThan,
	"<=": opcode.OpLessEquals,
	">":  opcode.OpGreaterThan,
	">=": opcode.OpGreaterEquals,
}

// compileExpr lowers expr, leaving exactly one value on the stack.
func (fn *fragment) compileExpr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		fn.pushInt(e.Value)
	case *ast.FloatLiteral:
		fn.a.Emit(opcode.OpPushDouble, fn.g.idx.AddDouble(e.Value))
	case *ast.StringLiteral:
		fn.a.Emit(opcode.OpPushString, fn.g.idx.AddString(e.Value))
	case *ast.BoolLiteral:
		if e.Value {
			fn.a.Emit(opcode.OpPushTrue)
		} else {
			fn.a.Emit(opcode.OpPushFalse)
		}
	case *ast.NoneLiteral:
		fn.a.Emit(opcode.OpPushNull)
	case *ast.Identifier:
		fn.loadName(e.Value)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			fn.compileExpr(el)
		}
		fn.a.Emit(opcode.OpNewArray, uint32(len(e.Elements)))
	case *ast.DictLiteral:
		for i := range e.Keys {
			fn.compileExpr(e.Keys[i])
			fn.compileExpr(e.Vals[i])
		}
		fn.a.Emit(opcode.OpNewObject, uint32(len(e.Keys)))
	case *ast.UnaryExpr:
		fn.compileUnary(e)
	case *ast.BinaryExpr:
		fn.compileBinary(e)
	case *ast.AttributeExpr:
		fn.compileExpr(e.Object)
		fn.a.Emit(opcode.OpGetProperty, fn.g.internMultiname(publicQName(e.Name)))
	case *ast.IndexExpr:
		fn.compileExpr(e.Object)
		fn.compileExpr(e.Index)
		fn.a.Emit(opcode.OpGetProperty, fn.g.internMultiname(bracketMultiname()))
	case *ast.CallExpr:
		fn.compileCall(e)
	case *ast.LambdaExpr:
		fn.compileLambda(e)
	default:
		fn.g.errorf(diag.Syntax, expr, "codegen: unsupported expression %T", expr)
		fn.a.Emit(opcode.OpPushUndefined)
	}
}

// bracketMultiname is the MultinameL form used for `obj[expr]`: the name
// itself comes from the stack (§3.3), so only the namespace set (public)
// is known at compile time.
func bracketMultiname() abc.Multiname {
	return abc.Multiname{
		Kind:         abc.MNMultinameL,
		NamespaceSet: abc.NamespaceSet{{Kind: abc.NSPackage, Name: ""}},
	}
}

func (fn *fragment) pushInt(v int64) {
	switch {
	case v >= 0 && v <= 255:
		fn.a.Emit(opcode.OpPushByte, uint32(v))
	case v >= -32768 && v <= 32767:
		fn.a.Emit(opcode.OpPushShort, uint32(uint16(v)))
	default:
		fn.a.Emit(opcode.OpPushInt, fn.g.idx.AddInt(int32(v)))
	}
}

func (fn *fragment) compileUnary(e *ast.UnaryExpr) {
	switch e.Operator {
	case "-":
		fn.compileExpr(e.Operand)
		fn.a.Emit(opcode.OpNegate)
	case "~":
		fn.compileExpr(e.Operand)
		fn.a.Emit(opcode.OpBitNot)
	case "not":
		fn.compileExpr(e.Operand)
		fn.a.Emit(opcode.OpNot)
	default:
		fn.g.errorf(diag.Syntax, e, "codegen: unsupported unary operator %q", e.Operator)
	}
}

func (fn *fragment) compileBinary(e *ast.BinaryExpr) {
	switch e.Operator {
	case "and":
		fn.compileShortCircuit(e, false)
		return
	case "or":
		fn.compileShortCircuit(e, true)
		return
	}

	fn.compileExpr(e.Left)
	fn.compileExpr(e.Right)

	if op, ok := arithOps[e.Operator]; ok {
		fn.a.Emit(op)
		if e.Operator == "//" {
			fn.a.Emit(opcode.OpConvertI)
		}
		return
	}
	if op, ok := compareOps[e.Operator]; ok {
		fn.a.Emit(op)
		if e.Operator == "!=" {
			fn.a.Emit(opcode.OpNot)
		}
		return
	}
	fn.g.errorf(diag.Syntax, e, "codegen: unsupported binary operator %q", e.Operator)
}

// compileCall lowers a call expression. A bare-name callee resolves through
// the scope chain (`findpropstrict` doubles as both the lookup and the
// receiver callproperty dispatches against); an attribute callee uses the
// already-evaluated object as the receiver directly; anything else falls
// back to the generic `call` opcode with a null receiver, matching how
// AVM2 invokes a first-class function value that isn't a property access.
func (fn *fragment) compileCall(e *ast.CallExpr) {
	switch callee := e.Function.(type) {
	case *ast.Identifier:
		if callee.Value == "isinstance" && len(e.Args) == 2 {
			if typeName, ok := e.Args[1].(*ast.Identifier); ok {
				fn.compileExpr(e.Args[0])
				fn.a.Emit(opcode.OpIsType, fn.g.internMultiname(publicQName(typeName.Value)))
				return
			}
		}
		mn := publicQName(callee.Value)
		fn.a.Emit(opcode.OpFindPropStrict, fn.g.internMultiname(mn))
		for _, arg := range e.Args {
			fn.compileExpr(arg)
		}
		if fn.g.isKnownClass(callee.Value) {
			fn.a.Emit(opcode.OpConstructProp, fn.g.internMultiname(mn), uint32(len(e.Args)))
		} else {
			fn.a.Emit(opcode.OpCallProperty, fn.g.internMultiname(mn), uint32(len(e.Args)))
		}
	case *ast.AttributeExpr:
		fn.compileExpr(callee.Object)
		for _, arg := range e.Args {
			fn.compileExpr(arg)
		}
		fn.a.Emit(opcode.OpCallProperty, fn.g.internMultiname(publicQName(callee.Name)), uint32(len(e.Args)))
	default:
		fn.compileExpr(e.Function)
		fn.a.Emit(opcode.OpPushNull)
		for _, arg := range e.Args {
			fn.compileExpr(arg)
		}
		fn.a.Emit(opcode.OpCall, uint32(len(e.Args)))
	}
}

// compileCallVoid lowers a call in statement position with callpropvoid
// (or the generic `call`+pop fallback for a non-property callee), leaving
// nothing on the stack rather than a value that would just be popped.
func (fn *fragment) compileCallVoid(e *ast.CallExpr) {
	switch callee := e.Function.(type) {
	case *ast.Identifier:
		if callee.Value == "isinstance" {
			fn.compileCall(e)
			fn.a.Emit(opcode.OpPop)
			return
		}
		if fn.g.isKnownClass(callee.Value) {
			fn.compileCall(e)
			fn.a.Emit(opcode.OpPop)
			return
		}
		mn := publicQName(callee.Value)
		fn.a.Emit(opcode.OpFindPropStrict, fn.g.internMultiname(mn))
		for _, arg := range e.Args {
			fn.compileExpr(arg)
		}
		fn.a.Emit(opcode.OpCallPropVoid, fn.g.internMultiname(mn), uint32(len(e.Args)))
	case *ast.AttributeExpr:
		fn.compileExpr(callee.Object)
		for _, arg := range e.Args {
			fn.compileExpr(arg)
		}
		fn.a.Emit(opcode.OpCallPropVoid, fn.g.internMultiname(publicQName(callee.Name)), uint32(len(e.Args)))
	default:
		fn.compileCall(e)
		fn.a.Emit(opcode.OpPop)
	}
}

// compileLambda compiles the lambda's body as a nested method, sharing the
// enclosing fragment's generator (and thus its constant pool index), and
// leaves the resulting function object on the stack via newfunction — the
// scope chain active when newfunction runs is what lets the lambda see
// its enclosing fragment's exported locals (§4.7/§4.8).
func (fn *fragment) compileLambda(e *ast.LambdaExpr) {
	child := newFragment(fn.g, ModeFunction, fn)
	info := fn.g.analysis.Funcs[ast.Node(e)]
	if info == nil {
		info = &scope.FuncInfo{Locals: map[string]bool{}, Globals: map[string]bool{}, Export: map[string]bool{}}
	}
	child.info = info
	child.emitPrologue()
	child.compileExpr(e.Body)
	child.a.Emit(opcode.OpReturnValue)

	paramNames := make([]string, len(e.Params))
	paramTypes := make([]abc.Multiname, len(e.Params))
	for i, p := range e.Params {
		paramNames[i] = p.Value
		paramTypes[i] = abc.AnyMultiname
	}
	info2 := abc.MethodInfo{
		Name:       "<lambda>",
		ParamNames: paramNames,
		ParamTypes: paramTypes,
		Flags:      abc.MethodHasParamNames,
	}
	if child.needActivation {
		info2.Flags |= abc.MethodNeedActivation
	}
	methodIdx := fn.g.addMethod(info2, child.finish(0, 1))
	fn.a.Emit(opcode.OpNewFunction, methodIdx)
}

// compileShortCircuit lowers `and`/`or` with the standard dup/iffalse-or-
// iftrue/pop pattern: evaluate the left side once, branch past the right
// side if it already determines the result.
func (fn *fragment) compileShortCircuit(e *ast.BinaryExpr, isOr bool) {
	end := asm.NewLabel()
	fn.compileExpr(e.Left)
	fn.a.Emit(opcode.OpDup)
	if isOr {
		fn.a.Branch(opcode.OpIfTrue, end)
	} else {
		fn.a.Branch(opcode.OpIfFalse, end)
	}
	fn.a.Emit(opcode.OpPop)
	fn.compileExpr(e.Right)
	fn.a.Mark(end)
}
