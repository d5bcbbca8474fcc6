// Package scope implements the single pre-pass name/closure analyzer over
// internal/ast (§4.7). For every function, method, lambda, and the module
// root it produces three frozen sets — func_locals, func_globals,
// func_export — plus the set of publicly exported names and, for classes,
// the __slots__ list. internal/codegen consults this analysis instead of
// re-deriving binding decisions while walking the tree.
//
// The walk mirrors the teacher's compiler/symbol_table.go idea of resolving
// a name outward through enclosing tables and marking anything found in an
// outer, non-global table as free — but where the teacher resolves symbols
// lazily during code generation, this package performs the classification
// once, bottom-up, ahead of code generation, exactly as §4.7 requires.
package scope

import "github.com/halcyon-tools/pyas3c/internal/ast"

// FuncInfo is the frozen scope classification attached to one function,
// lambda, method, or the module root.
type FuncInfo struct {
	Locals  map[string]bool
	Globals map[string]bool
	Export  map[string]bool
	Public  map[string]bool
}

func newFuncInfo() *FuncInfo {
	return &FuncInfo{
		Locals:  map[string]bool{},
		Globals: map[string]bool{},
		Export:  map[string]bool{},
		Public:  map[string]bool{},
	}
}

// ClassInfo carries a class node's __slots__ capture and public-decorator
// flag (§4.7's "public names ... recorded separately").
type ClassInfo struct {
	Slots  []string
	Public bool
}

// Analysis is the result of analyzing one module: a FuncInfo per function
// scope and a ClassInfo per class, keyed by the defining ast.Node.
type Analysis struct {
	Funcs   map[ast.Node]*FuncInfo
	Classes map[*ast.ClassDef]*ClassInfo
}

// Analyze runs the pre-pass over an entire parsed module.
func Analyze(mod *ast.Module) *Analysis {
	a := &Analysis{
		Funcs:   map[ast.Node]*FuncInfo{},
		Classes: map[*ast.ClassDef]*ClassInfo{},
	}
	a.analyzeBody(mod, nil, mod.Statements)
	return a
}

// analyzeBody classifies one function-shaped scope: a Module root, a
// FunctionDef, or a LambdaExpr (wrapped by the caller into a single
// implicit return statement). It returns the scope's FuncInfo and also
// records it in a.Funcs keyed by node.
func (a *Analysis) analyzeBody(node ast.Node, params []ast.Param, body []ast.Statement) *FuncInfo {
	info := newFuncInfo()
	for _, p := range params {
		info.Locals[p.Name.Value] = true
	}

	declaredGlobal := map[string]bool{}
	referenced := map[string]bool{}
	nestedNonLocal := map[string]bool{} // names a directly-nested scope reads but doesn't bind itself

	var walkExpr func(ast.Expression)
	var walkTarget func(ast.Expression)
	var walkStmts func([]ast.Statement)

	absorbNested := func(child *FuncInfo) {
		for name := range child.Globals {
			if !child.Locals[name] {
				nestedNonLocal[name] = true
			}
		}
	}

	walkExpr = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.Identifier:
			referenced[n.Value] = true
		case *ast.IntLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NoneLiteral:
		case *ast.UnaryExpr:
			walkExpr(n.Operand)
		case *ast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.CallExpr:
			walkExpr(n.Function)
			for _, arg := range n.Args {
				walkExpr(arg)
			}
		case *ast.AttributeExpr:
			walkExpr(n.Object)
		case *ast.IndexExpr:
			walkExpr(n.Object)
			walkExpr(n.Index)
		case *ast.ListLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ast.DictLiteral:
			for i := range n.Keys {
				walkExpr(n.Keys[i])
				walkExpr(n.Vals[i])
			}
		case *ast.LambdaExpr:
			lparams := make([]ast.Param, len(n.Params))
			for i, id := range n.Params {
				lparams[i] = ast.Param{Name: id}
			}
			child := a.analyzeBody(n, lparams, []ast.Statement{&ast.ReturnStmt{Token: n.Token, Value: n.Body}})
			absorbNested(child)
		}
	}

	walkTarget = func(target ast.Expression) {
		switch t := target.(type) {
		case *ast.Identifier:
			if !declaredGlobal[t.Value] {
				info.Locals[t.Value] = true
			}
		case *ast.AttributeExpr:
			walkExpr(t.Object)
		case *ast.IndexExpr:
			walkExpr(t.Object)
			walkExpr(t.Index)
		case *ast.ListLiteral:
			for _, el := range t.Elements {
				walkTarget(el)
			}
		}
	}

	walkStmts = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ast.ExprStmt:
				walkExpr(st.Expression)
			case *ast.AssignStmt:
				walkExpr(st.Value)
				walkTarget(st.Target)
			case *ast.AugAssignStmt:
				walkExpr(st.Value)
				walkExpr(st.Target)
				walkTarget(st.Target)
			case *ast.ReturnStmt:
				walkExpr(st.Value)
			case *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
			case *ast.IfStmt:
				walkExpr(st.Condition)
				walkStmts(st.Body)
				walkStmts(st.Else)
			case *ast.WhileStmt:
				walkExpr(st.Condition)
				walkStmts(st.Body)
			case *ast.ForStmt:
				info.Locals[st.Target.Value] = true
				walkExpr(st.Iter)
				walkStmts(st.Body)
			case *ast.RaiseStmt:
				walkExpr(st.Exception)
			case *ast.GlobalStmt:
				for _, name := range st.Names {
					declaredGlobal[name] = true
					delete(info.Locals, name)
				}
			case *ast.TryStmt:
				walkStmts(st.Body)
				for _, h := range st.Handlers {
					walkExpr(h.Type)
					if h.Name != nil {
						info.Locals[h.Name.Value] = true
					}
					walkStmts(h.Body)
				}
				walkStmts(st.Else)
				walkStmts(st.Finally)
			case *ast.ImportStmt:
				info.Locals[st.Alias] = true
			case *ast.ImportFromStmt:
				for i, name := range st.Names {
					alias := name
					if st.Aliases[i] != "" {
						alias = st.Aliases[i]
					}
					info.Locals[alias] = true
				}
			case *ast.FunctionDef:
				info.Locals[st.Name.Value] = true
				if isPublic(st.Decorators) {
					info.Public[st.Name.Value] = true
				}
				for _, dec := range st.Decorators {
					walkExpr(dec)
				}
				for _, param := range st.Params {
					walkExpr(param.Default)
				}
				child := a.analyzeBody(st, st.Params, st.Body)
				absorbNested(child)
			case *ast.ClassDef:
				info.Locals[st.Name.Value] = true
				if isPublic(st.Decorators) {
					info.Public[st.Name.Value] = true
				}
				for _, dec := range st.Decorators {
					walkExpr(dec)
				}
				for _, base := range st.Bases {
					walkExpr(base)
				}
				nested := a.analyzeClass(st)
				for name := range nested {
					nestedNonLocal[name] = true
				}
			}
		}
	}

	walkStmts(body)

	for name := range referenced {
		if declaredGlobal[name] || !info.Locals[name] {
			info.Globals[name] = true
		}
	}
	for name := range declaredGlobal {
		info.Globals[name] = true
	}
	for name := range nestedNonLocal {
		if info.Locals[name] {
			info.Export[name] = true
		} else {
			info.Globals[name] = true
		}
	}

	a.Funcs[node] = info
	return info
}

// analyzeClass walks a class body: captures __slots__, recurses into every
// method (methods do not close over the class body's own namespace in
// Python — a bare name inside a method resolves through the enclosing
// function/module chain, skipping the class scope), and returns the set of
// names referenced-but-not-bound that those methods need from scopes
// further out, so the caller can fold them into its own export/global
// classification exactly as if the methods were nested directly.
func (a *Analysis) analyzeClass(cls *ast.ClassDef) map[string]bool {
	info := &ClassInfo{Public: isPublic(cls.Decorators)}
	needsFromOuter := map[string]bool{}

	for _, stmt := range cls.Body {
		switch st := stmt.(type) {
		case *ast.AssignStmt:
			if ident, ok := st.Target.(*ast.Identifier); ok && ident.Value == "__slots__" {
				if list, ok := st.Value.(*ast.ListLiteral); ok {
					for _, el := range list.Elements {
						if s, ok := el.(*ast.StringLiteral); ok {
							info.Slots = append(info.Slots, s.Value)
						}
					}
				}
			}
		case *ast.FunctionDef:
			child := a.analyzeBody(st, st.Params, st.Body)
			for name := range child.Globals {
				if !child.Locals[name] {
					needsFromOuter[name] = true
				}
			}
		}
	}

	a.Classes[cls] = info
	return needsFromOuter
}

// isPublic reports whether a decorator list contains `@package(...)`, the
// export marker named in §4.7.
func isPublic(decorators []ast.Expression) bool {
	for _, d := range decorators {
		switch dec := d.(type) {
		case *ast.Identifier:
			if dec.Value == "package" {
				return true
			}
		case *ast.CallExpr:
			if ident, ok := dec.Function.(*ast.Identifier); ok && ident.Value == "package" {
				return true
			}
		}
	}
	return false
}
