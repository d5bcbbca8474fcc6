package abc

import "fmt"

// MultinameKind is the one-byte kind tag distinguishing the ten multiname
// variants (§3.3).
type MultinameKind byte

const (
	MNQName       MultinameKind = 0x07
	MNQNameA      MultinameKind = 0x0D
	MNRTQName     MultinameKind = 0x0F
	MNRTQNameA    MultinameKind = 0x10
	MNRTQNameL    MultinameKind = 0x11
	MNRTQNameLA   MultinameKind = 0x12
	MNMultiname   MultinameKind = 0x09
	MNMultinameA  MultinameKind = 0x0E
	MNMultinameL  MultinameKind = 0x1B
	MNMultinameLA MultinameKind = 0x1C
)

// IsAttribute reports whether kind is one of the "A" (attribute) variants.
func (k MultinameKind) IsAttribute() bool {
	switch k {
	case MNQNameA, MNRTQNameA, MNRTQNameLA, MNMultinameA, MNMultinameLA:
		return true
	default:
		return false
	}
}

// StackPushes reports how many values a use of this multiname kind expects
// to find already on the stack, beyond the object itself, per §3.3:
//
//	QName/QNameA, Multiname/MultinameA           -> (obj)          => 0
//	RTQName/RTQNameA                             -> (obj, ns)      => 1
//	MultinameL/MultinameLA                       -> (obj, name)    => 1
//	RTQNameL/RTQNameLA                           -> (obj, ns, name)=> 2
func (k MultinameKind) StackPushes() int {
	switch k {
	case MNQName, MNQNameA, MNMultiname, MNMultinameA:
		return 0
	case MNRTQName, MNRTQNameA, MNMultinameL, MNMultinameLA:
		return 1
	case MNRTQNameL, MNRTQNameLA:
		return 2
	default:
		return 0
	}
}

// Multiname is a tagged sum over the ten multiname variants. Only the fields
// relevant to Kind are populated; the rest are zero. The pool indices of the
// parts are assigned by Index when the multiname is written, not stored here.
type Multiname struct {
	Kind MultinameKind

	// Namespace is valid for QName/QNameA.
	Namespace Namespace
	// Name is the string part, valid for QName/QNameA, RTQName/RTQNameA,
	// Multiname/MultinameA. Empty ("any name") for index 0.
	Name string
	// NamespaceSet is valid for Multiname/MultinameA/MultinameL/MultinameLA.
	NamespaceSet NamespaceSet
}

// AnyMultiname is the sentinel "any type" value returned for constant-pool
// index 0 (§4.3 "get_multiname(0) returns an any type sentinel"). It is the
// zero Multiname (Kind 0), and Index.AddMultiname writes it as index 0.
var AnyMultiname = Multiname{}

func (m Multiname) String() string {
	switch m.Kind {
	case MNQName, MNQNameA:
		if m.Namespace.Name == "" {
			return m.Name
		}
		return fmt.Sprintf("%s::%s", m.Namespace.Name, m.Name)
	case MNRTQName, MNRTQNameA:
		return fmt.Sprintf("<rtns>::%s", m.Name)
	case MNRTQNameL, MNRTQNameLA:
		return "<rtns>::<rtname>"
	case MNMultinameL, MNMultinameLA:
		return "<rtname>"
	default:
		return m.Name
	}
}
