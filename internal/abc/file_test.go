package abc

import (
	"reflect"
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/stream"
)

func publicNS() Namespace { return Namespace{Kind: NSPackage, Name: ""} }

func qname(ns Namespace, name string) Multiname {
	return Multiname{Kind: MNQName, Namespace: ns, Name: name}
}

// sampleFile builds a small but representative File: one script whose
// initializer constructs a single class "Greeter" with one const slot, one
// instance method, and a trivial method body.
func sampleFile() *File {
	pkg := publicNS()

	greeterName := qname(pkg, "Greeter")
	objectName := qname(pkg, "Object")
	stringType := qname(pkg, "String")

	greetMethod := MethodInfo{
		ParamTypes: nil,
		ReturnType: stringType,
		Name:       "greet",
		Flags:      0,
	}
	ctorMethod := MethodInfo{
		ParamTypes: []Multiname{stringType},
		ReturnType: AnyMultiname,
		Name:       "Greeter",
		Flags:      0,
	}
	scriptInit := MethodInfo{
		Name:  "",
		Flags: MethodNeedActivation,
	}

	inst := InstanceInfo{
		Name:      greeterName,
		SuperName: objectName,
		Flags:     InstanceSealed,
		Init:      1, // ctorMethod
		Traits: []Trait{
			{
				Name:        qname(pkg, "greet"),
				Kind:        TraitMethod,
				DispID:      1,
				MethodIndex: 0, // greetMethod
			},
			{
				Name:     qname(pkg, "NAME"),
				Kind:     TraitConst,
				SlotID:   1,
				TypeName: stringType,
			},
		},
	}
	class := ClassInfo{Init: 2, Traits: nil} // cinit = scriptInit... reuse index for test shape

	script := ScriptInfo{
		Init: 2,
		Traits: []Trait{
			{Name: greeterName, Kind: TraitClass, SlotID: 1, ClassIndex: 0},
		},
	}

	greetBody := MethodBody{
		Method:         0,
		MaxStack:       2,
		LocalCount:     1,
		InitScopeDepth: 1,
		MaxScopeDepth:  2,
		Code:           []byte{0xd0, 0x48}, // getlocal0, returnvalue-ish filler bytes
		Exceptions:     nil,
		Traits:         nil,
	}
	ctorBody := MethodBody{
		Method:         1,
		MaxStack:       3,
		LocalCount:     2,
		InitScopeDepth: 1,
		MaxScopeDepth:  3,
		Code:           []byte{0x2a, 0x47},
	}
	scriptBody := MethodBody{
		Method:         2,
		MaxStack:       2,
		LocalCount:     1,
		InitScopeDepth: 0,
		MaxScopeDepth:  1,
		Code:           []byte{0x47},
	}

	f := NewFile()
	f.Methods = []MethodInfo{greetMethod, ctorMethod, scriptInit}
	f.Instances = []InstanceInfo{inst}
	f.Classes = []ClassInfo{class}
	f.Scripts = []ScriptInfo{script}
	f.MethodBodies = []MethodBody{greetBody, ctorBody, scriptBody}
	return f
}

func TestFileRoundTrip(t *testing.T) {
	want := sampleFile()

	w := stream.NewWriter()
	if err := WriteFile(w, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := stream.NewReader(w.Bytes())
	got, err := ReadFile(r)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("%d trailing bytes after ReadFile", r.Len())
	}

	if got.MinorVersion != want.MinorVersion || got.MajorVersion != want.MajorVersion {
		t.Fatalf("version mismatch: got %d.%d, want %d.%d",
			got.MajorVersion, got.MinorVersion, want.MajorVersion, want.MinorVersion)
	}
	if !reflect.DeepEqual(got.Methods, want.Methods) {
		t.Errorf("Methods mismatch:\ngot:  %+v\nwant: %+v", got.Methods, want.Methods)
	}
	if !reflect.DeepEqual(got.Instances, want.Instances) {
		t.Errorf("Instances mismatch:\ngot:  %+v\nwant: %+v", got.Instances, want.Instances)
	}
	if !reflect.DeepEqual(got.Classes, want.Classes) {
		t.Errorf("Classes mismatch:\ngot:  %+v\nwant: %+v", got.Classes, want.Classes)
	}
	if !reflect.DeepEqual(got.Scripts, want.Scripts) {
		t.Errorf("Scripts mismatch:\ngot:  %+v\nwant: %+v", got.Scripts, want.Scripts)
	}
	if !reflect.DeepEqual(got.MethodBodies, want.MethodBodies) {
		t.Errorf("MethodBodies mismatch:\ngot:  %+v\nwant: %+v", got.MethodBodies, want.MethodBodies)
	}
}

// TestPoolFrequencyOrdering exercises §8 property 10: the constant pool is
// ordered by descending reference count, ties broken by first-seen order.
func TestPoolFrequencyOrdering(t *testing.T) {
	idx := NewIndex()
	idx.AddString("rare")
	idx.AddString("common")
	idx.AddString("common")
	idx.AddString("common")
	idx.AddString("mid")
	idx.AddString("mid")

	pool := idx.Finalize()
	want := []string{"common", "mid", "rare"}
	if !reflect.DeepEqual(pool.Strings, want) {
		t.Errorf("frequency ordering: got %v, want %v", pool.Strings, want)
	}
}

func TestNamespaceCascadesIntoStringPool(t *testing.T) {
	idx := NewIndex()
	idx.AddNamespace(Namespace{Kind: NSPackage, Name: "flash.display"})
	pool := idx.Finalize()

	found := false
	for _, s := range pool.Strings {
		if s == "flash.display" {
			found = true
		}
	}
	if !found {
		t.Error("namespace name was not cascaded into the string pool")
	}
}
