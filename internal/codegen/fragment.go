package codegen

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/asm"
	"github.com/halcyon-tools/pyas3c/internal/diag"
	"github.com/halcyon-tools/pyas3c/internal/opcode"
	"github.com/halcyon-tools/pyas3c/internal/scope"
)

// loopCtx tracks the labels `break`/`continue` target inside the loop
// currently being compiled.
type loopCtx struct {
	continueLbl *asm.Label
	breakLbl    *asm.Label
}

// fragment is one CodeFragment (§4.8): the emission context for a single
// method body. Name resolution inside a fragment follows §4.7's three-set
// classification: a name in info.Locals and not in info.Export gets a
// register (the fast path); every other name — exported locals, free
// globals, and builtins — resolves through the scope chain at runtime via
// findpropstrict, exactly like AVM2 resolves closures: the VM
// auto-pushes an activation object carrying a method's exported locals
// as dynamic properties when MethodNeedActivation is set, so a nested
// function's free-variable lookups need no special-casing here at all.
type fragment struct {
	g      *generator
	mode   FragmentMode
	info   *scope.FuncInfo
	parent *fragment

	a        *asm.Assembler
	registers map[string]uint32
	nextReg   uint32

	loops []loopCtx

	// topLevelTraits accumulates script-level traits created by nested
	// top-level def/class statements; only populated when mode ==
	// ModeGlobal.
	topLevelTraits []abc.Trait

	needActivation bool

	// className/superName are set for ModeMethod fragments so `super()`
	// calls and `self` resolve against the right class.
	className, superName string

	// exceptions accumulates this fragment's try/except ranges (§4.8),
	// folded into the MethodBody's exception table on finish.
	exceptions []abc.ExceptionHandler

	// anonCounter disambiguates compiler-internal registers (loop iteration
	// state, range bounds) across sibling and nested loops within the same
	// fragment, so two nested `for` loops never alias the same register.
	anonCounter int
}

// freshReg allocates a new register under a name no source identifier can
// collide with, used for state a loop or assignment sequence needs to hold
// across several instructions.
func (fn *fragment) freshReg(prefix string) uint32 {
	fn.anonCounter++
	return fn.register(fmt.Sprintf("$%s%d", prefix, fn.anonCounter))
}

func newFragment(g *generator, mode FragmentMode, parent *fragment) *fragment {
	fn := &fragment{
		g:         g,
		mode:      mode,
		parent:    parent,
		a:         asm.NewAssembler(),
		registers: make(map[string]uint32),
		nextReg:   1, // register 0 is `this`
	}
	return fn
}

// emitPrologue writes the fragment's fixed header: a debugfile directive
// when --debug-filename is configured, matching the teacher-grounded
// corpus convention of emitting file-identifying debug opcodes ahead of
// the first real instruction.
func (fn *fragment) emitPrologue() {
	if fn.g.opts.DebugFilename == "" {
		return
	}
	name := fn.g.opts.Filename
	if fn.g.opts.DebugFilename == "basename" {
		name = basename(name)
	}
	fn.a.Emit(opcode.OpDebugFile, fn.g.idx.AddString(name))
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// register returns the register already allocated to name, allocating a
// fresh one on first use. Only called for names that are local and not
// exported (info.Export), per the fast path described on fragment.
func (fn *fragment) register(name string) uint32 {
	if r, ok := fn.registers[name]; ok {
		return r
	}
	r := fn.nextReg
	fn.nextReg++
	fn.registers[name] = r
	return r
}

// isFastLocal reports whether name should use a register instead of a
// scope-chain lookup.
func (fn *fragment) isFastLocal(name string) bool {
	if fn.info == nil {
		return false
	}
	return fn.info.Locals[name] && !fn.info.Export[name]
}

// loadName pushes the value of a bare identifier.
func (fn *fragment) loadName(name string) {
	if fn.isFastLocal(name) {
		fn.a.Emit(opcode.OpGetLocal, fn.register(name))
		return
	}
	fn.markScopeChainUse(name)
	fn.a.Emit(opcode.OpFindPropStrict, fn.g.internMultiname(publicQName(name)))
	fn.a.Emit(opcode.OpGetProperty, fn.g.internMultiname(publicQName(name)))
}

// storeName pops a value and stores it into name, assuming the value is
// already on the stack.
func (fn *fragment) storeName(name string) {
	if fn.isFastLocal(name) {
		fn.a.Emit(opcode.OpSetLocal, fn.register(name))
		return
	}
	fn.markScopeChainUse(name)
	// The value is already on the stack; findpropstrict must run first so
	// setproperty sees (owner, value) in that order, so we stash the value
	// in a scratch register, push the owner, restore the value, then set.
	scratch := fn.scratchReg()
	fn.a.Emit(opcode.OpSetLocal, scratch)
	fn.a.Emit(opcode.OpFindPropStrict, fn.g.internMultiname(publicQName(name)))
	fn.a.Emit(opcode.OpGetLocal, scratch)
	fn.a.Emit(opcode.OpSetProperty, fn.g.internMultiname(publicQName(name)))
}

// markScopeChainUse records that this fragment needs an activation
// object when it exports name to a nested scope (info.Export); any other
// name leaves needActivation unchanged.
func (fn *fragment) markScopeChainUse(name string) {
	if fn.info != nil && fn.info.Export[name] {
		fn.needActivation = true
	}
}

// scratchReg returns a register reserved for short-lived intermediate
// values during multi-step property access sequences. It is allocated
// once per fragment, as the next free register at its first use.
func (fn *fragment) scratchReg() uint32 {
	const key = "$scratch"
	return fn.register(key)
}

// pushLoop/popLoop/currentLoop manage the break/continue label stack.
func (fn *fragment) pushLoop(l loopCtx) { fn.loops = append(fn.loops, l) }
func (fn *fragment) popLoop()           { fn.loops = fn.loops[:len(fn.loops)-1] }
func (fn *fragment) currentLoop() *loopCtx {
	if len(fn.loops) == 0 {
		return nil
	}
	return &fn.loops[len(fn.loops)-1]
}

// finish assembles the fragment into a MethodBody, running the
// linear stack-balance verifier over the emitted bytecode (§4.8).
func (fn *fragment) finish(initScopeDepth, maxScopeDepth uint32) abc.MethodBody {
	code := fn.a.Bytes()
	maxStack, err := verifyStack(code, fn.g.mnPushes)
	if err != nil {
		fn.g.errors.Add(diag.New(diag.Verification, fn.g.opts.Filename, 0, 0, "stack verification failed: %v", err))
	}
	return abc.MethodBody{
		MaxStack:       maxStack,
		LocalCount:     fn.nextReg,
		InitScopeDepth: initScopeDepth,
		MaxScopeDepth:  maxScopeDepthFor(fn, maxScopeDepth),
		Code:           code,
		Exceptions:     fn.exceptions,
	}
}

func maxScopeDepthFor(fn *fragment, base uint32) uint32 {
	if fn.needActivation && base < 2 {
		return 2
	}
	if base < 1 {
		return 1
	}
	return base
}
