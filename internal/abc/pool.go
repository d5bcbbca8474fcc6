package abc

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// ConstantPool holds the five primitive arrays plus the two derived arrays
// (namespace sets and multinames) described in §3.1. All pool-referencing
// indices elsewhere in the model are 1-based; index 0 is reserved ("any/
// default" for strings and multinames, invalid for the others).
type ConstantPool struct {
	Ints          []int32
	Uints         []uint32
	Doubles       []float64
	Strings       []string
	Namespaces    []Namespace
	NamespaceSets []NamespaceSet
	Multinames    []Multiname
}

// NewConstantPool returns an empty pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{}
}

// String returns the pool string at the given 1-based index; index 0 yields
// the empty string per §4.3.
func (p *ConstantPool) String(idx uint32) (string, error) {
	if idx == 0 {
		return "", nil
	}
	if int(idx) > len(p.Strings) {
		return "", fmt.Errorf("abc: string index %d out of range (pool has %d)", idx, len(p.Strings))
	}
	return p.Strings[idx-1], nil
}

// Int returns the pool signed integer at the given 1-based index.
func (p *ConstantPool) Int(idx uint32) (int32, error) {
	if idx == 0 || int(idx) > len(p.Ints) {
		return 0, fmt.Errorf("abc: int index %d out of range (pool has %d)", idx, len(p.Ints))
	}
	return p.Ints[idx-1], nil
}

// Uint returns the pool unsigned integer at the given 1-based index.
func (p *ConstantPool) Uint(idx uint32) (uint32, error) {
	if idx == 0 || int(idx) > len(p.Uints) {
		return 0, fmt.Errorf("abc: uint index %d out of range (pool has %d)", idx, len(p.Uints))
	}
	return p.Uints[idx-1], nil
}

// Double returns the pool double at the given 1-based index.
func (p *ConstantPool) Double(idx uint32) (float64, error) {
	if idx == 0 || int(idx) > len(p.Doubles) {
		return 0, fmt.Errorf("abc: double index %d out of range (pool has %d)", idx, len(p.Doubles))
	}
	return p.Doubles[idx-1], nil
}

// Namespace returns the pool namespace at the given 1-based index.
func (p *ConstantPool) Namespace(idx uint32) (Namespace, error) {
	if idx == 0 || int(idx) > len(p.Namespaces) {
		return Namespace{}, fmt.Errorf("abc: namespace index %d out of range (pool has %d)", idx, len(p.Namespaces))
	}
	return p.Namespaces[idx-1], nil
}

// NamespaceSet returns the pool namespace set at the given 1-based index.
func (p *ConstantPool) NamespaceSet(idx uint32) (NamespaceSet, error) {
	if idx == 0 || int(idx) > len(p.NamespaceSets) {
		return nil, fmt.Errorf("abc: namespace-set index %d out of range (pool has %d)", idx, len(p.NamespaceSets))
	}
	return p.NamespaceSets[idx-1], nil
}

// Multiname returns the pool multiname at the given 1-based index. Index 0
// yields the "any type" sentinel (§3.1, §4.3).
func (p *ConstantPool) Multiname(idx uint32) (Multiname, error) {
	if idx == 0 {
		return AnyMultiname, nil
	}
	if int(idx) > len(p.Multinames) {
		return Multiname{}, fmt.Errorf("abc: multiname index %d out of range (pool has %d)", idx, len(p.Multinames))
	}
	return p.Multinames[idx-1], nil
}

// readCountedArray reads the "u30 count, then count-1 elements" prefix shared
// by every pool array and applies fn for each element (§4.2: "a leading count
// of (n+1) when non-empty and a single zero byte when empty").
func readCountedArray(r *stream.Reader, fn func() error) (int, error) {
	n, err := r.ReadU30()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	count := int(n) - 1
	for i := 0; i < count; i++ {
		if err := fn(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func writeCountedArray(w *stream.Writer, n int, fn func(i int)) error {
	if n == 0 {
		return w.WriteU30(0)
	}
	if err := w.WriteU30(uint32(n + 1)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		fn(i)
	}
	return nil
}

// ReadConstantPool decodes a constant pool from r following the layout in §6.2.
func ReadConstantPool(r *stream.Reader) (*ConstantPool, error) {
	p := NewConstantPool()

	if _, err := readCountedArray(r, func() error {
		v, err := r.ReadS32()
		if err != nil {
			return err
		}
		p.Ints = append(p.Ints, v)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading int pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		v, err := r.ReadU32()
		if err != nil {
			return err
		}
		p.Uints = append(p.Uints, v)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading uint pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		v, err := r.ReadD64()
		if err != nil {
			return err
		}
		p.Doubles = append(p.Doubles, v)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading double pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		v, err := r.ReadUTF8()
		if err != nil {
			return err
		}
		p.Strings = append(p.Strings, v)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading string pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		kind, err := r.ReadU8()
		if err != nil {
			return err
		}
		nameIdx, err := r.ReadU30()
		if err != nil {
			return err
		}
		name, err := p.String(nameIdx)
		if err != nil {
			return err
		}
		p.Namespaces = append(p.Namespaces, Namespace{Kind: NamespaceKind(kind), Name: name})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading namespace pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		count, err := r.ReadU30()
		if err != nil {
			return err
		}
		set := make(NamespaceSet, 0, count)
		for i := uint32(0); i < count; i++ {
			idx, err := r.ReadU30()
			if err != nil {
				return err
			}
			ns, err := p.Namespace(idx)
			if err != nil {
				return err
			}
			set = append(set, ns)
		}
		p.NamespaceSets = append(p.NamespaceSets, set)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading namespace-set pool: %w", err)
	}

	if _, err := readCountedArray(r, func() error {
		mn, err := readMultiname(r, p)
		if err != nil {
			return err
		}
		p.Multinames = append(p.Multinames, mn)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("abc: reading multiname pool: %w", err)
	}

	return p, nil
}

func readMultiname(r *stream.Reader, p *ConstantPool) (Multiname, error) {
	kindByte, err := r.ReadU8()
	if err != nil {
		return Multiname{}, err
	}
	kind := MultinameKind(kindByte)
	mn := Multiname{Kind: kind}

	switch kind {
	case MNQName, MNQNameA:
		nsIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		nameIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		ns, err := p.Namespace(nsIdx)
		if err != nil {
			return Multiname{}, err
		}
		name, err := p.String(nameIdx)
		if err != nil {
			return Multiname{}, err
		}
		mn.Namespace, mn.Name = ns, name

	case MNRTQName, MNRTQNameA:
		nameIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		name, err := p.String(nameIdx)
		if err != nil {
			return Multiname{}, err
		}
		mn.Name = name

	case MNRTQNameL, MNRTQNameLA:
		// both parts supplied at runtime; no pool references.

	case MNMultiname, MNMultinameA:
		nameIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		setIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		name, err := p.String(nameIdx)
		if err != nil {
			return Multiname{}, err
		}
		set, err := p.NamespaceSet(setIdx)
		if err != nil {
			return Multiname{}, err
		}
		mn.Name, mn.NamespaceSet = name, set

	case MNMultinameL, MNMultinameLA:
		setIdx, err := r.ReadU30()
		if err != nil {
			return Multiname{}, err
		}
		set, err := p.NamespaceSet(setIdx)
		if err != nil {
			return Multiname{}, err
		}
		mn.NamespaceSet = set

	default:
		return Multiname{}, fmt.Errorf("abc: unknown multiname kind 0x%02x", kindByte)
	}

	return mn, nil
}

// WriteConstantPool encodes p to w following the layout in §6.2. Callers are
// expected to have interned every referenced entity into p already (typically
// via a write-mode Index, §4.3); this function performs no interning of its
// own.
func WriteConstantPool(w *stream.Writer, p *ConstantPool) error {
	if err := writeCountedArray(w, len(p.Ints), func(i int) { w.WriteS32(p.Ints[i]) }); err != nil {
		return err
	}
	if err := writeCountedArray(w, len(p.Uints), func(i int) { w.WriteU32(p.Uints[i]) }); err != nil {
		return err
	}
	if err := writeCountedArray(w, len(p.Doubles), func(i int) { w.WriteD64(p.Doubles[i]) }); err != nil {
		return err
	}
	if err := writeCountedArray(w, len(p.Strings), func(i int) { w.WriteUTF8(p.Strings[i]) }); err != nil {
		return err
	}

	// Namespaces reference the string pool; build a lookup since p.Strings
	// already holds every interned string (the index manager intern pass
	// guarantees this before writing begins).
	strIndex := make(map[string]uint32, len(p.Strings))
	for i, s := range p.Strings {
		if _, ok := strIndex[s]; !ok {
			strIndex[s] = uint32(i + 1)
		}
	}

	if err := writeCountedArray(w, len(p.Namespaces), func(i int) {
		ns := p.Namespaces[i]
		w.WriteU8(byte(ns.Kind))
		w.WriteU30(strIndex[ns.Name])
	}); err != nil {
		return err
	}

	nsIndex := make(map[Namespace]uint32, len(p.Namespaces))
	for i, ns := range p.Namespaces {
		if _, ok := nsIndex[ns]; !ok {
			nsIndex[ns] = uint32(i + 1)
		}
	}

	if err := writeCountedArray(w, len(p.NamespaceSets), func(i int) {
		set := p.NamespaceSets[i]
		w.WriteU30(uint32(len(set)))
		for _, ns := range set {
			w.WriteU30(nsIndex[ns])
		}
	}); err != nil {
		return err
	}

	if err := writeCountedArray(w, len(p.Multinames), func(i int) {
		writeMultiname(w, p.Multinames[i], strIndex, nsIndex, p)
	}); err != nil {
		return err
	}

	return nil
}

func writeMultiname(w *stream.Writer, mn Multiname, strIndex map[string]uint32, nsIndex map[Namespace]uint32, p *ConstantPool) {
	w.WriteU8(byte(mn.Kind))
	switch mn.Kind {
	case MNQName, MNQNameA:
		w.WriteU30(nsIndex[mn.Namespace])
		w.WriteU30(strIndex[mn.Name])
	case MNRTQName, MNRTQNameA:
		w.WriteU30(strIndex[mn.Name])
	case MNRTQNameL, MNRTQNameLA:
		// nothing to write; both parts come from the stack.
	case MNMultiname, MNMultinameA:
		w.WriteU30(strIndex[mn.Name])
		w.WriteU30(nsSetIndex(p, mn.NamespaceSet))
	case MNMultinameL, MNMultinameLA:
		w.WriteU30(nsSetIndex(p, mn.NamespaceSet))
	}
}

func nsSetIndex(p *ConstantPool, set NamespaceSet) uint32 {
	for i, s := range p.NamespaceSets {
		if s.Equal(set) {
			return uint32(i + 1)
		}
	}
	return 0
}
