package abc

import (
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// MethodFlag bits describe a method_info's calling-convention requirements
// (§3.4).
type MethodFlag byte

const (
	MethodNeedArguments  MethodFlag = 0x01
	MethodNeedActivation MethodFlag = 0x02
	MethodNeedRest       MethodFlag = 0x04
	MethodHasOptional    MethodFlag = 0x08
	MethodSetDxns        MethodFlag = 0x40
	MethodHasParamNames  MethodFlag = 0x80
)

// OptionDetail is one entry of a method's default-argument list.
type OptionDetail struct {
	Index uint32 // constant pool index of the default value
	Kind  byte   // constant pool kind tag selecting which array Index refers to
}

// MethodInfo describes a callable's signature (§3.4): parameter types,
// return type, name (for diagnostics), flags, and optional defaults/param
// names.
type MethodInfo struct {
	ParamTypes []Multiname // each may be AnyMultiname ("no type restriction")
	ReturnType Multiname
	Name       string
	Flags      MethodFlag
	Options    []OptionDetail // present iff Flags&MethodHasOptional != 0
	ParamNames []string       // present iff Flags&MethodHasParamNames != 0
}

// ReadMethodInfo decodes one method_info entry (§6.2).
func ReadMethodInfo(r *stream.Reader, p *ConstantPool) (MethodInfo, error) {
	paramCount, err := r.ReadU30()
	if err != nil {
		return MethodInfo{}, err
	}
	retIdx, err := r.ReadU30()
	if err != nil {
		return MethodInfo{}, err
	}
	m := MethodInfo{}
	if m.ReturnType, err = p.Multiname(retIdx); err != nil {
		return MethodInfo{}, err
	}
	m.ParamTypes = make([]Multiname, paramCount)
	for i := range m.ParamTypes {
		idx, err := r.ReadU30()
		if err != nil {
			return MethodInfo{}, err
		}
		if m.ParamTypes[i], err = p.Multiname(idx); err != nil {
			return MethodInfo{}, err
		}
	}
	nameIdx, err := r.ReadU30()
	if err != nil {
		return MethodInfo{}, err
	}
	if m.Name, err = p.String(nameIdx); err != nil {
		return MethodInfo{}, err
	}
	flagByte, err := r.ReadU8()
	if err != nil {
		return MethodInfo{}, err
	}
	m.Flags = MethodFlag(flagByte)

	if m.Flags&MethodHasOptional != 0 {
		optCount, err := r.ReadU30()
		if err != nil {
			return MethodInfo{}, err
		}
		m.Options = make([]OptionDetail, optCount)
		for i := range m.Options {
			if m.Options[i].Index, err = r.ReadU30(); err != nil {
				return MethodInfo{}, err
			}
			if m.Options[i].Kind, err = r.ReadU8(); err != nil {
				return MethodInfo{}, err
			}
		}
	}

	if m.Flags&MethodHasParamNames != 0 {
		m.ParamNames = make([]string, paramCount)
		for i := range m.ParamNames {
			idx, err := r.ReadU30()
			if err != nil {
				return MethodInfo{}, err
			}
			if m.ParamNames[i], err = p.String(idx); err != nil {
				return MethodInfo{}, err
			}
		}
	}

	return m, nil
}

// WriteMethodInfo encodes one method_info entry.
func WriteMethodInfo(w *stream.Writer, m MethodInfo, idx *Index) {
	w.WriteU30(uint32(len(m.ParamTypes)))
	w.WriteU30(idx.AddMultiname(m.ReturnType))
	for _, pt := range m.ParamTypes {
		w.WriteU30(idx.AddMultiname(pt))
	}
	w.WriteU30(idx.AddString(m.Name))
	w.WriteU8(byte(m.Flags))

	if m.Flags&MethodHasOptional != 0 {
		w.WriteU30(uint32(len(m.Options)))
		for _, o := range m.Options {
			w.WriteU30(o.Index)
			w.WriteU8(o.Kind)
		}
	}
	if m.Flags&MethodHasParamNames != 0 {
		for _, n := range m.ParamNames {
			w.WriteU30(idx.AddString(n))
		}
	}
}

// ExceptionHandler is one entry of a method body's exception table (§4.5):
// from/to/target are instruction byte offsets that round-trip through
// assembler Labels identically to branch targets.
type ExceptionHandler struct {
	From    int
	To      int
	Target  int
	ExcType Multiname // AnyMultiname for a bare "except"
	VarName Multiname // AnyMultiname if the exception is not bound to a name
}

// ReadExceptionHandler decodes one exception_info entry.
func ReadExceptionHandler(r *stream.Reader, p *ConstantPool) (ExceptionHandler, error) {
	from, err := r.ReadU30()
	if err != nil {
		return ExceptionHandler{}, err
	}
	to, err := r.ReadU30()
	if err != nil {
		return ExceptionHandler{}, err
	}
	target, err := r.ReadU30()
	if err != nil {
		return ExceptionHandler{}, err
	}
	excIdx, err := r.ReadU30()
	if err != nil {
		return ExceptionHandler{}, err
	}
	varIdx, err := r.ReadU30()
	if err != nil {
		return ExceptionHandler{}, err
	}
	excType, err := p.Multiname(excIdx)
	if err != nil {
		return ExceptionHandler{}, err
	}
	varName, err := p.Multiname(varIdx)
	if err != nil {
		return ExceptionHandler{}, err
	}
	return ExceptionHandler{
		From: int(from), To: int(to), Target: int(target),
		ExcType: excType, VarName: varName,
	}, nil
}

// WriteExceptionHandler encodes one exception_info entry.
func WriteExceptionHandler(w *stream.Writer, e ExceptionHandler, idx *Index) {
	w.WriteU30(uint32(e.From))
	w.WriteU30(uint32(e.To))
	w.WriteU30(uint32(e.Target))
	w.WriteU30(idx.AddMultiname(e.ExcType))
	w.WriteU30(idx.AddMultiname(e.VarName))
}

// MethodBody attaches to one MethodInfo (by array position) and carries the
// raw bytecode plus stack/register sizing and the exception and trait
// tables (§3.4).
type MethodBody struct {
	Method          uint32 // index into the method_info array
	MaxStack        uint32
	LocalCount      uint32
	InitScopeDepth  uint32
	MaxScopeDepth   uint32
	Code            []byte
	Exceptions      []ExceptionHandler
	Traits          []Trait
}

// ReadMethodBody decodes one method_body_info entry.
func ReadMethodBody(r *stream.Reader, p *ConstantPool) (MethodBody, error) {
	var b MethodBody
	var err error
	if b.Method, err = r.ReadU30(); err != nil {
		return MethodBody{}, err
	}
	if b.MaxStack, err = r.ReadU30(); err != nil {
		return MethodBody{}, err
	}
	if b.LocalCount, err = r.ReadU30(); err != nil {
		return MethodBody{}, err
	}
	if b.InitScopeDepth, err = r.ReadU30(); err != nil {
		return MethodBody{}, err
	}
	if b.MaxScopeDepth, err = r.ReadU30(); err != nil {
		return MethodBody{}, err
	}
	codeLen, err := r.ReadU30()
	if err != nil {
		return MethodBody{}, err
	}
	if b.Code, err = r.ReadBytes(int(codeLen)); err != nil {
		return MethodBody{}, err
	}
	excCount, err := r.ReadU30()
	if err != nil {
		return MethodBody{}, err
	}
	b.Exceptions = make([]ExceptionHandler, excCount)
	for i := range b.Exceptions {
		if b.Exceptions[i], err = ReadExceptionHandler(r, p); err != nil {
			return MethodBody{}, err
		}
	}
	traitCount, err := r.ReadU30()
	if err != nil {
		return MethodBody{}, err
	}
	b.Traits = make([]Trait, traitCount)
	for i := range b.Traits {
		if b.Traits[i], err = ReadTrait(r, p); err != nil {
			return MethodBody{}, err
		}
	}
	return b, nil
}

// WriteMethodBody encodes one method_body_info entry.
func WriteMethodBody(w *stream.Writer, b MethodBody, idx *Index) {
	w.WriteU30(b.Method)
	w.WriteU30(b.MaxStack)
	w.WriteU30(b.LocalCount)
	w.WriteU30(b.InitScopeDepth)
	w.WriteU30(b.MaxScopeDepth)
	w.WriteU30(uint32(len(b.Code)))
	w.WriteBytes(b.Code)
	w.WriteU30(uint32(len(b.Exceptions)))
	for _, e := range b.Exceptions {
		WriteExceptionHandler(w, e, idx)
	}
	w.WriteU30(uint32(len(b.Traits)))
	for _, t := range b.Traits {
		WriteTrait(w, t, idx)
	}
}
