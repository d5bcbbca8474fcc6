package abc

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// TraitKind is the low nibble of a trait_info's kind byte, selecting which
// of the Slot/Const/Class/Function/Method/Getter/Setter variants (§3.4)
// the trait's union holds.
type TraitKind byte

const (
	TraitSlot TraitKind = iota
	TraitMethod
	TraitGetter
	TraitSetter
	TraitClass
	TraitFunction
	TraitConst
)

// TraitAttr bits occupy the high nibble of the kind byte.
type TraitAttr byte

const (
	TraitFinal    TraitAttr = 0x1
	TraitOverride TraitAttr = 0x2
	TraitMetadata TraitAttr = 0x4
)

// Trait names a member of a scope (class, instance, script, or method body),
// per §3.4. Exactly one of the Slot/Class/Function/Method-family fields is
// meaningful, selected by Kind.
type Trait struct {
	Name  Multiname
	Kind  TraitKind
	Attrs TraitAttr

	// Slot/Const
	SlotID   uint32
	TypeName Multiname // may be AnyMultiname ("*")
	VIndex   uint32    // constant pool index of the default value, 0 if none
	VKind    byte       // constant pool kind tag for VIndex's value, only meaningful if VIndex != 0

	// Class
	ClassIndex uint32

	// Function
	FunctionIndex uint32

	// Method/Getter/Setter
	DispID      uint32
	MethodIndex uint32

	// Metadata indices, present when Attrs&TraitMetadata != 0.
	Metadata []uint32
}

// HasOverride reports the Override flag (§3.7.5: an override trait must match
// a same-named trait in a superclass, and disp_id is inherited).
func (t Trait) HasOverride() bool { return t.Attrs&TraitOverride != 0 }

// HasFinal reports the Final flag.
func (t Trait) HasFinal() bool { return t.Attrs&TraitFinal != 0 }

// ReadTrait decodes one trait_info entry.
func ReadTrait(r *stream.Reader, p *ConstantPool) (Trait, error) {
	nameIdx, err := r.ReadU30()
	if err != nil {
		return Trait{}, err
	}
	name, err := p.Multiname(nameIdx)
	if err != nil {
		return Trait{}, err
	}

	kindByte, err := r.ReadU8()
	if err != nil {
		return Trait{}, err
	}
	t := Trait{
		Name:  name,
		Kind:  TraitKind(kindByte & 0x0f),
		Attrs: TraitAttr(kindByte >> 4),
	}

	switch t.Kind {
	case TraitSlot, TraitConst:
		if t.SlotID, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
		typeIdx, err := r.ReadU30()
		if err != nil {
			return Trait{}, err
		}
		if t.TypeName, err = p.Multiname(typeIdx); err != nil {
			return Trait{}, err
		}
		if t.VIndex, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
		if t.VIndex != 0 {
			if t.VKind, err = r.ReadU8(); err != nil {
				return Trait{}, err
			}
		}
	case TraitClass:
		if t.SlotID, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
		if t.ClassIndex, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
	case TraitFunction:
		if t.SlotID, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
		if t.FunctionIndex, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
	case TraitMethod, TraitGetter, TraitSetter:
		if t.DispID, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
		if t.MethodIndex, err = r.ReadU30(); err != nil {
			return Trait{}, err
		}
	default:
		return Trait{}, fmt.Errorf("abc: unknown trait kind %d", t.Kind)
	}

	if t.Attrs&TraitMetadata != 0 {
		count, err := r.ReadU30()
		if err != nil {
			return Trait{}, err
		}
		t.Metadata = make([]uint32, count)
		for i := range t.Metadata {
			if t.Metadata[i], err = r.ReadU30(); err != nil {
				return Trait{}, err
			}
		}
	}

	return t, nil
}

// WriteTrait encodes one trait_info entry, interning any multiname it
// references via idx.
func WriteTrait(w *stream.Writer, t Trait, idx *Index) {
	w.WriteU30(idx.AddMultiname(t.Name))
	w.WriteU8(byte(t.Kind) | byte(t.Attrs)<<4)

	switch t.Kind {
	case TraitSlot, TraitConst:
		w.WriteU30(t.SlotID)
		w.WriteU30(idx.AddMultiname(t.TypeName))
		w.WriteU30(t.VIndex)
		if t.VIndex != 0 {
			w.WriteU8(t.VKind)
		}
	case TraitClass:
		w.WriteU30(t.SlotID)
		w.WriteU30(t.ClassIndex)
	case TraitFunction:
		w.WriteU30(t.SlotID)
		w.WriteU30(t.FunctionIndex)
	case TraitMethod, TraitGetter, TraitSetter:
		w.WriteU30(t.DispID)
		w.WriteU30(t.MethodIndex)
	}

	if t.Attrs&TraitMetadata != 0 {
		w.WriteU30(uint32(len(t.Metadata)))
		for _, m := range t.Metadata {
			w.WriteU30(m)
		}
	}
}

// Metadata is a [Name(key="value", ...)]-style decorator attached to a trait
// (§D.2 of SPEC_FULL.md / original_source pyzza metadata support).
type Metadata struct {
	Name   string
	Keys   []string
	Values []string
}

// ReadMetadata decodes one metadata_info entry.
func ReadMetadata(r *stream.Reader, p *ConstantPool) (Metadata, error) {
	nameIdx, err := r.ReadU30()
	if err != nil {
		return Metadata{}, err
	}
	name, err := p.String(nameIdx)
	if err != nil {
		return Metadata{}, err
	}
	count, err := r.ReadU30()
	if err != nil {
		return Metadata{}, err
	}
	m := Metadata{Name: name, Keys: make([]string, count), Values: make([]string, count)}
	keyIdx := make([]uint32, count)
	for i := range keyIdx {
		if keyIdx[i], err = r.ReadU30(); err != nil {
			return Metadata{}, err
		}
	}
	for i := uint32(0); i < count; i++ {
		valIdx, err := r.ReadU30()
		if err != nil {
			return Metadata{}, err
		}
		if m.Keys[i], err = p.String(keyIdx[i]); err != nil {
			return Metadata{}, err
		}
		if m.Values[i], err = p.String(valIdx); err != nil {
			return Metadata{}, err
		}
	}
	return m, nil
}

// WriteMetadata encodes one metadata_info entry.
func WriteMetadata(w *stream.Writer, m Metadata, idx *Index) {
	w.WriteU30(idx.AddString(m.Name))
	w.WriteU30(uint32(len(m.Keys)))
	for _, k := range m.Keys {
		w.WriteU30(idx.AddString(k))
	}
	for _, v := range m.Values {
		w.WriteU30(idx.AddString(v))
	}
}
