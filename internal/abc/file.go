package abc

import (
	"fmt"

	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// DefaultMinorVersion and DefaultMajorVersion are the ABC version pair a
// compliant AVM2 player expects (§6.2).
const (
	DefaultMinorVersion uint16 = 16
	DefaultMajorVersion uint16 = 46
)

// File is the complete abcFile structure (§6.2): a version pair, the
// constant pool, and the five top-level arrays. Classes and Instances are
// parallel arrays — Classes[i] and Instances[i] describe the same class
// (§3.7.3) — rather than one combined slice, matching the wire layout.
type File struct {
	MinorVersion uint16
	MajorVersion uint16

	Methods      []MethodInfo
	Metadata     []Metadata
	Instances    []InstanceInfo
	Classes      []ClassInfo
	Scripts      []ScriptInfo
	MethodBodies []MethodBody
}

// NewFile returns an empty File with the default version pair.
func NewFile() *File {
	return &File{MinorVersion: DefaultMinorVersion, MajorVersion: DefaultMajorVersion}
}

// ReadFile decodes a complete abcFile from r, following the emission order
// in §6.2: versions, constant_pool, method_info[], metadata_info[],
// (instance_info, class_info) pairs indexed by class_count, script_info[],
// method_body_info[].
func ReadFile(r *stream.Reader) (*File, error) {
	f := &File{}
	var err error
	if f.MinorVersion, err = r.ReadU16(); err != nil {
		return nil, fmt.Errorf("abc: reading minor_version: %w", err)
	}
	if f.MajorVersion, err = r.ReadU16(); err != nil {
		return nil, fmt.Errorf("abc: reading major_version: %w", err)
	}

	pool, err := ReadConstantPool(r)
	if err != nil {
		return nil, err
	}

	methodCount, err := r.ReadU30()
	if err != nil {
		return nil, fmt.Errorf("abc: reading method_count: %w", err)
	}
	f.Methods = make([]MethodInfo, methodCount)
	for i := range f.Methods {
		if f.Methods[i], err = ReadMethodInfo(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading method_info[%d]: %w", i, err)
		}
	}

	metadataCount, err := r.ReadU30()
	if err != nil {
		return nil, fmt.Errorf("abc: reading metadata_count: %w", err)
	}
	f.Metadata = make([]Metadata, metadataCount)
	for i := range f.Metadata {
		if f.Metadata[i], err = ReadMetadata(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading metadata_info[%d]: %w", i, err)
		}
	}

	classCount, err := r.ReadU30()
	if err != nil {
		return nil, fmt.Errorf("abc: reading class_count: %w", err)
	}
	f.Instances = make([]InstanceInfo, classCount)
	for i := range f.Instances {
		if f.Instances[i], err = ReadInstanceInfo(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading instance_info[%d]: %w", i, err)
		}
	}
	f.Classes = make([]ClassInfo, classCount)
	for i := range f.Classes {
		if f.Classes[i], err = ReadClassInfo(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading class_info[%d]: %w", i, err)
		}
	}

	scriptCount, err := r.ReadU30()
	if err != nil {
		return nil, fmt.Errorf("abc: reading script_count: %w", err)
	}
	f.Scripts = make([]ScriptInfo, scriptCount)
	for i := range f.Scripts {
		if f.Scripts[i], err = ReadScriptInfo(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading script_info[%d]: %w", i, err)
		}
	}

	bodyCount, err := r.ReadU30()
	if err != nil {
		return nil, fmt.Errorf("abc: reading method_body_count: %w", err)
	}
	f.MethodBodies = make([]MethodBody, bodyCount)
	for i := range f.MethodBodies {
		if f.MethodBodies[i], err = ReadMethodBody(r, pool); err != nil {
			return nil, fmt.Errorf("abc: reading method_body_info[%d]: %w", i, err)
		}
	}

	return f, nil
}

// emit walks every entity in f in emission order, feeding multiname/string/
// namespace references through idx. Run once against a dummy Writer to
// intern everything (§4.1, §4.3's first pass), then once more against the
// real Writer after idx.Finalize() so every WriteU30 call in the second
// pass sees the frozen, frequency-ordered index.
func (f *File) emit(w *stream.Writer, idx *Index) {
	w.WriteU30(uint32(len(f.Methods)))
	for _, m := range f.Methods {
		WriteMethodInfo(w, m, idx)
	}
	w.WriteU30(uint32(len(f.Metadata)))
	for _, m := range f.Metadata {
		WriteMetadata(w, m, idx)
	}
	w.WriteU30(uint32(len(f.Instances)))
	for _, inst := range f.Instances {
		WriteInstanceInfo(w, inst, idx)
	}
	for _, c := range f.Classes {
		WriteClassInfo(w, c, idx)
	}
	w.WriteU30(uint32(len(f.Scripts)))
	for _, s := range f.Scripts {
		WriteScriptInfo(w, s, idx)
	}
	w.WriteU30(uint32(len(f.MethodBodies)))
	for _, b := range f.MethodBodies {
		WriteMethodBody(w, b, idx)
	}
}

// WriteFile encodes f as a complete abcFile. It performs the two-pass
// emission described in §4.1/§4.3 internally: a first pass against a
// discarding Writer interns every pool reference and establishes reference
// counts, then idx.Finalize orders the pool by descending frequency, then a
// second pass against w emits the real bytes using the now-frozen indices.
func WriteFile(w *stream.Writer, f *File) error {
	idx := NewIndex()
	f.emit(stream.NewDummyWriter(), idx)
	pool := idx.Finalize()

	w.WriteU16(f.MinorVersion)
	w.WriteU16(f.MajorVersion)
	if err := WriteConstantPool(w, pool); err != nil {
		return err
	}
	f.emit(w, idx)
	return nil
}
