package abc

import (
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// InstanceFlag bits on an InstanceInfo (§3.4).
type InstanceFlag byte

const (
	InstanceSealed      InstanceFlag = 0x01
	InstanceFinal       InstanceFlag = 0x02
	InstanceInterface   InstanceFlag = 0x04
	InstanceProtectedNs InstanceFlag = 0x08
)

// InstanceInfo describes object layout: qualified name, super name, flags,
// implemented interfaces, the instance initializer, and instance traits
// (§3.4). class_info[i] and instance_info[i] at the same index describe the
// same class (§3.7.3).
type InstanceInfo struct {
	Name        Multiname // QName
	SuperName   Multiname // AnyMultiname for a class with no explicit base
	Flags       InstanceFlag
	ProtectedNs Namespace // meaningful iff Flags&InstanceProtectedNs != 0
	Interfaces  []Multiname
	Init        uint32 // method_info index of the instance initializer
	Traits      []Trait
}

// Sealed reports whether the class opts out of a dynamic property bag
// (the `__slots__` form, §9 Open Question c; SPEC_FULL.md §D.3).
func (i InstanceInfo) Sealed() bool { return i.Flags&InstanceSealed != 0 }

// ReadInstanceInfo decodes one instance_info entry.
func ReadInstanceInfo(r *stream.Reader, p *ConstantPool) (InstanceInfo, error) {
	var inst InstanceInfo
	nameIdx, err := r.ReadU30()
	if err != nil {
		return InstanceInfo{}, err
	}
	if inst.Name, err = p.Multiname(nameIdx); err != nil {
		return InstanceInfo{}, err
	}
	superIdx, err := r.ReadU30()
	if err != nil {
		return InstanceInfo{}, err
	}
	if inst.SuperName, err = p.Multiname(superIdx); err != nil {
		return InstanceInfo{}, err
	}
	flagByte, err := r.ReadU8()
	if err != nil {
		return InstanceInfo{}, err
	}
	inst.Flags = InstanceFlag(flagByte)

	if inst.Flags&InstanceProtectedNs != 0 {
		nsIdx, err := r.ReadU30()
		if err != nil {
			return InstanceInfo{}, err
		}
		if inst.ProtectedNs, err = p.Namespace(nsIdx); err != nil {
			return InstanceInfo{}, err
		}
	}

	intrfCount, err := r.ReadU30()
	if err != nil {
		return InstanceInfo{}, err
	}
	inst.Interfaces = make([]Multiname, intrfCount)
	for i := range inst.Interfaces {
		idx, err := r.ReadU30()
		if err != nil {
			return InstanceInfo{}, err
		}
		if inst.Interfaces[i], err = p.Multiname(idx); err != nil {
			return InstanceInfo{}, err
		}
	}

	if inst.Init, err = r.ReadU30(); err != nil {
		return InstanceInfo{}, err
	}

	traitCount, err := r.ReadU30()
	if err != nil {
		return InstanceInfo{}, err
	}
	inst.Traits = make([]Trait, traitCount)
	for i := range inst.Traits {
		if inst.Traits[i], err = ReadTrait(r, p); err != nil {
			return InstanceInfo{}, err
		}
	}

	return inst, nil
}

// WriteInstanceInfo encodes one instance_info entry.
func WriteInstanceInfo(w *stream.Writer, inst InstanceInfo, idx *Index) {
	w.WriteU30(idx.AddMultiname(inst.Name))
	w.WriteU30(idx.AddMultiname(inst.SuperName))
	w.WriteU8(byte(inst.Flags))
	if inst.Flags&InstanceProtectedNs != 0 {
		w.WriteU30(idx.AddNamespace(inst.ProtectedNs))
	}
	w.WriteU30(uint32(len(inst.Interfaces)))
	for _, iface := range inst.Interfaces {
		w.WriteU30(idx.AddMultiname(iface))
	}
	w.WriteU30(inst.Init)
	w.WriteU30(uint32(len(inst.Traits)))
	for _, t := range inst.Traits {
		WriteTrait(w, t, idx)
	}
}

// ClassInfo describes the class object itself: the static constructor and
// static traits, paired by position with an InstanceInfo (§3.4, §3.7.3).
type ClassInfo struct {
	Init   uint32 // method_info index of the class (static) initializer
	Traits []Trait
}

// ReadClassInfo decodes one class_info entry.
func ReadClassInfo(r *stream.Reader, p *ConstantPool) (ClassInfo, error) {
	var c ClassInfo
	var err error
	if c.Init, err = r.ReadU30(); err != nil {
		return ClassInfo{}, err
	}
	traitCount, err := r.ReadU30()
	if err != nil {
		return ClassInfo{}, err
	}
	c.Traits = make([]Trait, traitCount)
	for i := range c.Traits {
		if c.Traits[i], err = ReadTrait(r, p); err != nil {
			return ClassInfo{}, err
		}
	}
	return c, nil
}

// WriteClassInfo encodes one class_info entry.
func WriteClassInfo(w *stream.Writer, c ClassInfo, idx *Index) {
	w.WriteU30(c.Init)
	w.WriteU30(uint32(len(c.Traits)))
	for _, t := range c.Traits {
		WriteTrait(w, t, idx)
	}
}

// ScriptInfo is a top-level compilation unit: its initializer and the
// traits it publishes, typically the user-defined top-level classes and
// functions (§3.4).
type ScriptInfo struct {
	Init   uint32 // method_info index of the script initializer
	Traits []Trait
}

// ReadScriptInfo decodes one script_info entry.
func ReadScriptInfo(r *stream.Reader, p *ConstantPool) (ScriptInfo, error) {
	var s ScriptInfo
	var err error
	if s.Init, err = r.ReadU30(); err != nil {
		return ScriptInfo{}, err
	}
	traitCount, err := r.ReadU30()
	if err != nil {
		return ScriptInfo{}, err
	}
	s.Traits = make([]Trait, traitCount)
	for i := range s.Traits {
		if s.Traits[i], err = ReadTrait(r, p); err != nil {
			return ScriptInfo{}, err
		}
	}
	return s, nil
}

// WriteScriptInfo encodes one script_info entry.
func WriteScriptInfo(w *stream.Writer, s ScriptInfo, idx *Index) {
	w.WriteU30(s.Init)
	w.WriteU30(uint32(len(s.Traits)))
	for _, t := range s.Traits {
		WriteTrait(w, t, idx)
	}
}
