// Package codegen lowers a scope-analyzed Python module (§4.7's output)
// into an ActionScript Bytecode file (§4.8): one CodeFragment per method
// body, assembled through internal/asm and internal/opcode into an
// internal/abc.File ready for internal/swf to wrap into a movie.
//
// The generator is grounded on the teacher's compiler package: the same
// "one emission context per callable, registers allocated from a free
// pool, backpatched jump targets" shape compiler.Compiler uses for its
// bytecode VM, generalized here to AVM2's richer instruction set (property
// access through the constant pool instead of a flat global-variable
// array, scope-chain pushes for closures and classes instead of Monkey's
// single flat environment).
package codegen

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/ast"
	"github.com/halcyon-tools/pyas3c/internal/diag"
	"github.com/halcyon-tools/pyas3c/internal/library"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/scope"
)

// Options configures a single compile (§6.4's CLI surface maps directly
// onto these fields).
type Options struct {
	Filename      string // used for diagnostics and debugfile opcodes
	MainClass     string
	NoStdGlobals  bool
	DebugFilename string // "full" or "basename"

	// Library resolves base classes and overridden methods that live
	// outside the file being compiled (§4.9), loaded from --library
	// SWF/SWC files. May be nil, in which case base names are used as
	// written and no override carries an inherited disp_id.
	Library *library.Library
}

// Result is a finished compile: the assembled ABC file and any
// diagnostics accumulated along the way (a partial result may still be
// usable when only warnings were recorded — callers check Errors.HasErrors).
type Result struct {
	File   *abc.File
	Pool   *abc.ConstantPool
	Errors diag.List

	// idx is the same finalized Index every fragment baked its operand
	// indices against; emit.go replays entity serialization against it
	// directly instead of letting abc.WriteFile derive (and renumber) a
	// fresh one of its own.
	idx *abc.Index
}

// FragmentMode selects which of the six lowering strategies (§4.8) a
// CodeFragment uses for name resolution and the implicit `this`/return
// convention.
type FragmentMode int

const (
	ModeGlobal         FragmentMode = iota // module/script initializer
	ModeClassBody                          // static initializer (class body top level)
	ModeMethod                             // instance method
	ModeFunction                           // plain `def`, possibly nested
	ModeEval                               // top-level expression statement in REPL-like contexts
	ModeEvalChildFunc                      // a function nested inside an eval fragment
)

// generator holds the state shared across an entire compile: the pool
// index (used both to bake instruction operands and, later, to emit the
// final entity tables against the same frozen indices — see emit.go for
// why this bypasses abc.WriteFile), the accumulated top-level entities,
// and the scope analysis the whole AST was already run through.
type generator struct {
	opts     Options
	analysis *scope.Analysis
	errors   *diag.List
	idx      *abc.Index
	library  *library.Library

	// mnPushes maps a finalized multiname pool index to StackPushes(), the
	// extra operand-stack slots that multiname's kind expects beyond the
	// object itself (1 for a runtime/late-bound form like the MultinameL
	// `obj[expr]` uses, 0 for a plain compile-time QName). verify.go
	// consults it instead of re-deriving a multiname's kind from a bare
	// pool index, which the write-mode Index does not expose.
	mnPushes map[uint32]int

	methods      []abc.MethodInfo
	bodies       []abc.MethodBody
	instances    []abc.InstanceInfo
	classes      []abc.ClassInfo
	scriptTraits []abc.Trait
	scriptInit   uint32

	// classNames collects every class this compile itself defines, so a
	// call whose callee is one of them lowers through constructprop
	// instead of callproperty (calling a class object invokes it as a
	// function; only Construct/ConstructProp actually allocates an
	// instance). Populated by a pre-pass over the top-level statements at
	// the start of compileModule, so by the time any call site is reached it
	// reflects every class in the module regardless of declaration order.
	classNames map[string]bool
}

// isKnownClass reports whether name was declared with `class name(...):`
// anywhere in the module being compiled, or is defined by a loaded
// --library class — the two cases where a call needs constructprop
// instead of an ordinary callproperty.
func (g *generator) isKnownClass(name string) bool {
	if g.classNames[name] {
		return true
	}
	if g.library != nil {
		_, ok := g.library.Lookup(name)
		return ok
	}
	return false
}

// Generate compiles mod into a complete ABC file. It runs the fragment
// tree twice against the same *abc.Index (§4.3's two-pass contract): once
// to intern every multiname/string a getlex/callproperty/etc. instruction
// references, then once more — after idx.Finalize orders the pool by
// descending frequency — to bake the now-stable indices into the real
// instruction stream. Running the lowering twice is the AST-walking
// analog of abc.File.emit's own two calls over its already-built entity
// slices.
func Generate(mod *ast.Module, analysis *scope.Analysis, opts Options) (*Result, error) {
	res := &Result{}

	idx := abc.NewIndex()
	var dummyErrors diag.List
	g := &generator{opts: opts, analysis: analysis, errors: &dummyErrors, idx: idx, library: opts.Library}
	g.compileModule(mod) // dummy pass: populate reference counts, discard output and diagnostics
	idx.Finalize()

	g = &generator{opts: opts, analysis: analysis, errors: &res.Errors, idx: idx, library: opts.Library}
	g.compileModule(mod)
	if res.Errors.HasErrors() {
		return res, fmt.Errorf("codegen: %d error(s)", res.Errors.Len())
	}
	// idx was already finalized by the dummy pass above; Finalize re-sorts
	// an unchanged, already-finalized freqTable, which is a stable no-op,
	// so the real pass's interned indices are untouched by this call.
	res.Pool = idx.Finalize()
	res.idx = idx

	f := abc.NewFile()
	f.Methods = g.methods
	f.MethodBodies = g.bodies
	f.Instances = g.instances
	f.Classes = g.classes
	f.Scripts = []abc.ScriptInfo{{Init: g.scriptInit, Traits: g.scriptTraits}}
	res.File = f
	return res, nil
}

// compileModule lowers the top level of mod as the script's global
// initializer (ModeGlobal), registering every top-level class as a script
// trait alongside it. Top-level defs and assignments are stored with
// storeName as properties of the global scope and get no script trait.
func (g *generator) compileModule(mod *ast.Module) {
	g.classNames = make(map[string]bool)
	for _, stmt := range mod.Statements {
		if c, ok := stmt.(*ast.ClassDef); ok {
			g.classNames[c.Name.Value] = true
		}
	}

	fn := newFragment(g, ModeGlobal, nil)
	info := g.analysis.Funcs[mod]
	if info == nil {
		info = &scope.FuncInfo{Locals: map[string]bool{}, Globals: map[string]bool{}, Export: map[string]bool{}}
	}
	fn.info = info

	fn.emitPrologue()
	for _, stmt := range mod.Statements {
		fn.compileStmt(stmt)
	}
	fn.a.Emit(opcode.OpReturnVoid)

	g.scriptInit = g.addMethod(abc.MethodInfo{Name: "script_init"}, fn.finish(0, 1))
	g.scriptTraits = append(g.scriptTraits, fn.topLevelTraits...)
}

// addMethod appends a compiled method and its body, returning its
// method_info index.
func (g *generator) addMethod(info abc.MethodInfo, body abc.MethodBody) uint32 {
	idx := uint32(len(g.methods))
	body.Method = idx
	g.methods = append(g.methods, info)
	g.bodies = append(g.bodies, body)
	return idx
}

// addClass appends a compiled (instance, class) pair, returning the
// class_info index.
func (g *generator) addClass(inst abc.InstanceInfo, cls abc.ClassInfo) uint32 {
	idx := uint32(len(g.instances))
	g.instances = append(g.instances, inst)
	g.classes = append(g.classes, cls)
	return idx
}

func (g *generator) errorf(kind diag.Kind, node ast.Node, format string, args ...interface{}) {
	tok := node.Pos()
	g.errors.Add(diag.New(kind, g.opts.Filename, tok.Line, tok.Column, format, args...))
}

// internMultiname interns mn and records its StackPushes() contribution
// against the index it was (or will be) assigned, so the stack verifier
// can later recover that information from the bare pool index baked into
// an instruction's operand bytes.
func (g *generator) internMultiname(mn abc.Multiname) uint32 {
	idx := g.idx.AddMultiname(mn)
	if g.mnPushes == nil {
		g.mnPushes = make(map[uint32]int)
	}
	g.mnPushes[idx] = mn.Kind.StackPushes()
	return idx
}

// publicQName builds a QName multiname in the public namespace, the
// common case for user-level names (§3.2's unnamed-package convention).
func publicQName(name string) abc.Multiname {
	return abc.Multiname{Kind: abc.MNQName, Namespace: abc.Namespace{Kind: abc.NSPackage, Name: ""}, Name: name}
}
