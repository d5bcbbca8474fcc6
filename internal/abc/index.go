package abc

import (
	"fmt"
	"sort"
)

// freqTable interns values of type T behind a string key, counting references
// during the dummy pass and freezing a descending-frequency order (ties
// broken by first-seen order) on Finalize — the write-mode half of §4.3's
// two-pass index manager. Reference counting and frequency ordering are
// exactly why §4.1 specifies a dummy stream: the first pass must perform the
// same Intern calls as the second without committing any bytes.
type freqTable[T any] struct {
	keyFn     func(T) string
	entries   map[string]*freqEntry[T]
	order     []string // insertion order, used as the first pass's walk and the tie-break
	finalized bool
}

type freqEntry[T any] struct {
	value T
	count int
	index uint32
}

func newFreqTable[T any](keyFn func(T) string) *freqTable[T] {
	return &freqTable[T]{keyFn: keyFn, entries: make(map[string]*freqEntry[T])}
}

// Intern records a reference to v and returns its pool index. Before
// Finalize is called the returned index is always 0 (a stub, per §4.3);
// after Finalize it is the real, stable 1-based index.
func (f *freqTable[T]) Intern(v T) uint32 {
	key := f.keyFn(v)
	e, ok := f.entries[key]
	if !ok {
		e = &freqEntry[T]{value: v}
		f.entries[key] = e
		if f.finalized {
			// A value introduced after Finalize (should not happen when the
			// dummy and real passes walk the same AST, but handled so a
			// caller bug surfaces as an extra trailing pool entry rather
			// than a panic).
			f.order = append(f.order, key)
			e.index = uint32(len(f.order))
		} else {
			f.order = append(f.order, key)
		}
	}
	if !f.finalized {
		e.count++
	}
	return e.index
}

// Finalize sorts the interned values by descending reference count (stable,
// so ties keep first-seen order) and assigns each its final 1-based index.
func (f *freqTable[T]) Finalize() []T {
	sort.SliceStable(f.order, func(i, j int) bool {
		return f.entries[f.order[i]].count > f.entries[f.order[j]].count
	})
	result := make([]T, len(f.order))
	for i, key := range f.order {
		e := f.entries[key]
		e.index = uint32(i + 1)
		result[i] = e.value
	}
	f.finalized = true
	return result
}

// Index is the write-mode (creator) half of §4.3: entities are interned as
// the code generator visits them, and Finalize produces a frequency-ordered
// *ConstantPool ready for WriteConstantPool.
type Index struct {
	ints       *freqTable[int32]
	uints      *freqTable[uint32]
	doubles    *freqTable[float64]
	strings    *freqTable[string]
	namespaces *freqTable[Namespace]
	nsSets     *freqTable[NamespaceSet]
	multinames *freqTable[Multiname]
}

// NewIndex returns an empty write-mode index.
func NewIndex() *Index {
	return &Index{
		ints:       newFreqTable[int32](func(v int32) string { return fmt.Sprintf("i%d", v) }),
		uints:      newFreqTable[uint32](func(v uint32) string { return fmt.Sprintf("u%d", v) }),
		doubles:    newFreqTable[float64](func(v float64) string { return fmt.Sprintf("d%x", v) }),
		strings:    newFreqTable[string](func(v string) string { return "s" + v }),
		namespaces: newFreqTable[Namespace](namespaceKey),
		nsSets:     newFreqTable[NamespaceSet](namespaceSetKey),
		multinames: newFreqTable[Multiname](multinameKey),
	}
}

func namespaceKey(ns Namespace) string {
	return fmt.Sprintf("n%d:%s", ns.Kind, ns.Name)
}

func namespaceSetKey(set NamespaceSet) string {
	s := "S"
	for _, ns := range set {
		s += namespaceKey(ns) + "|"
	}
	return s
}

func multinameKey(mn Multiname) string {
	return fmt.Sprintf("m%d:%s:%s:%s", mn.Kind, namespaceKey(mn.Namespace), mn.Name, namespaceSetKey(mn.NamespaceSet))
}

// AddInt interns a signed-integer constant.
func (x *Index) AddInt(v int32) uint32 { return x.ints.Intern(v) }

// AddUint interns an unsigned-integer constant.
func (x *Index) AddUint(v uint32) uint32 { return x.uints.Intern(v) }

// AddDouble interns a double constant.
func (x *Index) AddDouble(v float64) uint32 { return x.doubles.Intern(v) }

// AddString interns a UTF-8 string constant.
func (x *Index) AddString(v string) uint32 { return x.strings.Intern(v) }

// AddNamespace interns a namespace, cascading into its name string so
// invariant §3.7.1 holds regardless of whether the name was separately
// referenced.
func (x *Index) AddNamespace(ns Namespace) uint32 {
	x.strings.Intern(ns.Name)
	return x.namespaces.Intern(ns)
}

// AddNamespaceSet interns a namespace set, cascading into its member
// namespaces.
func (x *Index) AddNamespaceSet(set NamespaceSet) uint32 {
	for _, ns := range set {
		x.AddNamespace(ns)
	}
	return x.nsSets.Intern(set)
}

// AddMultiname interns a multiname, cascading into whichever of its
// name/namespace/namespace-set parts the variant carries. AnyMultiname is
// not interned: it is always multiname index 0.
func (x *Index) AddMultiname(mn Multiname) uint32 {
	if mn.Kind == 0 {
		return 0
	}
	switch mn.Kind {
	case MNQName, MNQNameA:
		x.AddNamespace(mn.Namespace)
		x.strings.Intern(mn.Name)
	case MNRTQName, MNRTQNameA:
		x.strings.Intern(mn.Name)
	case MNRTQNameL, MNRTQNameLA:
		// both parts come from the stack; nothing to cascade.
	case MNMultiname, MNMultinameA:
		x.strings.Intern(mn.Name)
		x.AddNamespaceSet(mn.NamespaceSet)
	case MNMultinameL, MNMultinameLA:
		x.AddNamespaceSet(mn.NamespaceSet)
	}
	return x.multinames.Intern(mn)
}

// Finalize freezes every interned kind into a frequency-ordered pool. Call
// once, after the dummy pass has interned every reference and before the
// real pass re-walks the same sequence of Add* calls to obtain final
// indices.
func (x *Index) Finalize() *ConstantPool {
	return &ConstantPool{
		Ints:          x.ints.Finalize(),
		Uints:         x.uints.Finalize(),
		Doubles:       x.doubles.Finalize(),
		Strings:       x.strings.Finalize(),
		Namespaces:    x.namespaces.Finalize(),
		NamespaceSets: x.nsSets.Finalize(),
		Multinames:    x.multinames.Finalize(),
	}
}
