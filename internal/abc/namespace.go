// Package abc models the ActionScript Bytecode (ABC) file format: the
// constant pool, namespaces, multinames, traits, methods, classes, scripts,
// method bodies and exception handlers described in spec §3, together with
// their binary codec (§4.2) and the two-pass index manager (§4.3).
package abc

import "fmt"

// NamespaceKind is the one-byte kind tag distinguishing the seven namespace
// variants (§3.2). Values match the wire-format constants used by the AVM2.
type NamespaceKind byte

const (
	NSPrivate          NamespaceKind = 0x05
	NSPackage          NamespaceKind = 0x16
	NSPackageInternal  NamespaceKind = 0x17
	NSProtected        NamespaceKind = 0x18
	NSExplicit         NamespaceKind = 0x19
	NSStaticProtected  NamespaceKind = 0x1A
	NSUser             NamespaceKind = 0x08 // plain ("User") namespace, §3.2
)

func (k NamespaceKind) String() string {
	switch k {
	case NSPrivate:
		return "Private"
	case NSPackage:
		return "Package"
	case NSPackageInternal:
		return "PackageInternal"
	case NSProtected:
		return "Protected"
	case NSExplicit:
		return "Explicit"
	case NSStaticProtected:
		return "StaticProtected"
	case NSUser:
		return "User"
	default:
		return fmt.Sprintf("NamespaceKind(0x%02x)", byte(k))
	}
}

// Namespace is one entry of the constant pool's namespace array. Equality is
// (Kind, Name) per §3.2; the empty string is permitted for the unnamed
// package.
type Namespace struct {
	Kind NamespaceKind
	Name string
}

// Equal reports whether two namespaces have the same kind and name.
func (n Namespace) Equal(o Namespace) bool {
	return n.Kind == o.Kind && n.Name == o.Name
}

// NamespaceSet is a constant-pool-indexed set of namespaces, used by
// Multiname and MultinameL variants (§3.1, §3.3).
type NamespaceSet []Namespace

// Equal reports whether two namespace sets contain the same namespaces in
// the same order (sets are written in their original order; reordering would
// change the encoding and is not performed by this implementation).
func (s NamespaceSet) Equal(o NamespaceSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
