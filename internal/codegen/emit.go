package codegen

import (
	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// WriteFile encodes res into a complete abcFile, deliberately bypassing
// abc.WriteFile: that function builds its own fresh *abc.Index from a
// throwaway dummy pass over the entities it is handed, which would
// renumber the constant pool out from under every operand index this
// package's fragments already baked into their bytecode. Generate instead
// ran the dummy/real two-pass dance itself, against idx, while lowering
// the AST (§4.3) — so serialization here only has to replay abc.File's
// own entity emission order against that same already-finalized Index
// and pool, using the package's exported per-entity Write* functions.
func WriteFile(w *stream.Writer, res *Result) error {
	f := res.File
	w.WriteU16(f.MinorVersion)
	w.WriteU16(f.MajorVersion)
	if err := abc.WriteConstantPool(w, res.Pool); err != nil {
		return err
	}

	idx := res.idx

	w.WriteU30(uint32(len(f.Methods)))
	for _, m := range f.Methods {
		abc.WriteMethodInfo(w, m, idx)
	}
	w.WriteU30(uint32(len(f.Metadata)))
	for _, m := range f.Metadata {
		abc.WriteMetadata(w, m, idx)
	}
	w.WriteU30(uint32(len(f.Instances)))
	for _, inst := range f.Instances {
		abc.WriteInstanceInfo(w, inst, idx)
	}
	for _, c := range f.Classes {
		abc.WriteClassInfo(w, c, idx)
	}
	w.WriteU30(uint32(len(f.Scripts)))
	for _, s := range f.Scripts {
		abc.WriteScriptInfo(w, s, idx)
	}
	w.WriteU30(uint32(len(f.MethodBodies)))
	for _, b := range f.MethodBodies {
		abc.WriteMethodBody(w, b, idx)
	}
	return nil
}
