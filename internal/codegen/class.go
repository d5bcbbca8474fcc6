package codegen

import (
	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/library"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/scope"
)

// compileFunctionDef compiles a `def` in statement position (top-level or
// nested) into its own method, leaves the resulting function object on the
// stack via newfunction, and binds it to its name exactly like any other
// assignment target — a top-level def becomes a global-scope property the
// same way a module-level `x = ...` does, rather than a declared script
// trait; nested defs need the newfunction/store sequence regardless, so
// this keeps one code path for both instead of splitting top-level out.
func (fn *fragment) compileFunctionDef(s *ast.FunctionDef) {
	child := newFragment(fn.g, ModeFunction, fn)
	info := fn.g.analysis.Funcs[ast.Node(s)]
	if info == nil {
		info = &scope.FuncInfo{Locals: map[string]bool{}, Globals: map[string]bool{}, Export: map[string]bool{}}
	}
	child.info = info
	child.emitPrologue()
	child.compileStmts(s.Body)
	child.a.Emit(opcode.OpReturnVoid)

	paramNames, paramTypes := paramLists(s.Params)
	flags := abc.MethodHasParamNames
	if child.needActivation {
		flags |= abc.MethodNeedActivation
	}
	methodIdx := fn.g.addMethod(abc.MethodInfo{
		Name: s.Name.Value, ParamNames: paramNames, ParamTypes: paramTypes, Flags: flags,
	}, child.finish(0, 1))
	fn.a.Emit(opcode.OpNewFunction, methodIdx)
	fn.storeName(s.Name.Value)
}

// compileClassDef compiles `class Name(Base): ...` into an instance_info/
// class_info pair and emits the getlex/newclass sequence that instantiates
// the class object at the point the statement runs, then binds it to its
// name. Only single inheritance is supported (the first base, or Object
// when there is none); class-body assignments do not become Slot traits. A
// class that declares __slots__ gets a sealed instance_info; any other
// class is left unsealed.
func (fn *fragment) compileClassDef(s *ast.ClassDef) {
	baseName := "Object"
	if len(s.Bases) > 0 {
		if ident, ok := s.Bases[0].(*ast.Identifier); ok {
			baseName = ident.Value
		}
	}
	instQName := publicQName(s.Name.Value)
	superQName := publicQName(baseName)

	var initDef *ast.FunctionDef
	var methodDefs []*ast.FunctionDef
	for _, stmt := range s.Body {
		if f, ok := stmt.(*ast.FunctionDef); ok {
			if f.Name.Value == "__init__" {
				initDef = f
				continue
			}
			methodDefs = append(methodDefs, f)
		}
	}

	ctorMethodIdx := fn.compileConstructor(s.Name.Value, baseName, initDef)

	staticInit := newFragment(fn.g, ModeClassBody, fn)
	staticInit.emitPrologue()
	staticInit.a.Emit(opcode.OpReturnVoid)
	staticInitIdx := fn.g.addMethod(abc.MethodInfo{Name: s.Name.Value + "$cinit"}, staticInit.finish(1, 2))

	// When the base class comes from a loaded --library SWF/SWC, an
	// override needs the inherited method's disp_id so the verifier and
	// any AVM2 consuming this ABC can dispatch it without a name lookup
	// (§4.9, §9). A base class this compile defines itself has no
	// disp_id assigned anywhere yet, so overrides of it fall back to 0.
	var libBase *library.Class
	if fn.g.library != nil {
		libBase, _ = fn.g.library.Lookup(superQName.String())
	}

	var instTraits []abc.Trait
	for _, m := range methodDefs {
		mFrag := newFragment(fn.g, ModeMethod, fn)
		mFrag.className, mFrag.superName = s.Name.Value, baseName
		info := fn.g.analysis.Funcs[ast.Node(m)]
		if info == nil {
			info = &scope.FuncInfo{Locals: map[string]bool{}, Globals: map[string]bool{}, Export: map[string]bool{}}
		}
		mFrag.info = info
		mFrag.emitPrologue()
		mFrag.compileStmts(m.Body)
		mFrag.a.Emit(opcode.OpReturnVoid)

		paramNames, paramTypes := paramListsSkippingSelf(m.Params)
		flags := abc.MethodHasParamNames
		if mFrag.needActivation {
			flags |= abc.MethodNeedActivation
		}
		mMethodIdx := fn.g.addMethod(abc.MethodInfo{
			Name: m.Name.Value, ParamNames: paramNames, ParamTypes: paramTypes, Flags: flags,
		}, mFrag.finish(1, 2))
		trait := abc.Trait{Name: publicQName(m.Name.Value), Kind: abc.TraitMethod, MethodIndex: mMethodIdx}
		if libBase != nil {
			if _, baseTrait, ok := fn.g.library.ResolveMethod(libBase, m.Name.Value); ok {
				trait.DispID = baseTrait.DispID
			}
		}
		instTraits = append(instTraits, trait)
	}

	inst := abc.InstanceInfo{Name: instQName, SuperName: superQName, Init: ctorMethodIdx, Traits: instTraits}
	if ci := fn.g.analysis.Classes[s]; ci != nil && len(ci.Slots) > 0 {
		inst.Flags |= abc.InstanceSealed
	}
	cls := abc.ClassInfo{Init: staticInitIdx}
	classIdx := fn.g.addClass(inst, cls)

	fn.a.Emit(opcode.OpGetLex, fn.g.internMultiname(superQName))
	fn.a.Emit(opcode.OpNewClass, classIdx)
	fn.topLevelTraits = append(fn.topLevelTraits, abc.Trait{
		Name: instQName, Kind: abc.TraitClass, ClassIndex: classIdx,
	})
	fn.storeName(s.Name.Value)
}

// compileConstructor compiles __init__ (if the class defines one) as the
// instance's init method, always prefixed with a constructsuper call; a
// class with no __init__ gets a trivial constructor that only forwards to
// the base class with no arguments.
func (fn *fragment) compileConstructor(className, baseName string, initDef *ast.FunctionDef) uint32 {
	ctor := newFragment(fn.g, ModeMethod, fn)
	ctor.className, ctor.superName = className, baseName
	ctor.emitPrologue()
	ctor.a.Emit(opcode.OpGetLocal, 0)
	ctor.a.Emit(opcode.OpConstructSuper, uint32(0))

	if initDef == nil {
		ctor.a.Emit(opcode.OpReturnVoid)
		return fn.g.addMethod(abc.MethodInfo{Name: className}, ctor.finish(1, 2))
	}

	info := fn.g.analysis.Funcs[ast.Node(initDef)]
	if info == nil {
		info = &scope.FuncInfo{Locals: map[string]bool{}, Globals: map[string]bool{}, Export: map[string]bool{}}
	}
	ctor.info = info
	ctor.compileStmts(initDef.Body)
	ctor.a.Emit(opcode.OpReturnVoid)

	paramNames, paramTypes := paramListsSkippingSelf(initDef.Params)
	flags := abc.MethodHasParamNames
	if ctor.needActivation {
		flags |= abc.MethodNeedActivation
	}
	return fn.g.addMethod(abc.MethodInfo{
		Name: className, ParamNames: paramNames, ParamTypes: paramTypes, Flags: flags,
	}, ctor.finish(1, 2))
}

func paramLists(params []ast.Param) ([]string, []abc.Multiname) {
	names := make([]string, len(params))
	types := make([]abc.Multiname, len(params))
	for i, p := range params {
		names[i] = p.Name.Value
		types[i] = abc.AnyMultiname
	}
	return names, types
}

// paramListsSkippingSelf is paramLists minus a leading `self`, the
// implicit receiver instance methods and __init__ both declare in source
// but which AVM2 passes through register 0 rather than as a named
// parameter.
func paramListsSkippingSelf(params []ast.Param) ([]string, []abc.Multiname) {
	if len(params) > 0 && params[0].Name.Value == "self" {
		params = params[1:]
	}
	return paramLists(params)
}
