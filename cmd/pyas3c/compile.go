package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halcyon-tools/pyas3c/internal/codegen"
	"github.com/halcyon-tools/pyas3c/internal/lexer"
	"github.com/halcyon-tools/pyas3c/internal/library"
	"github.com/halcyon-tools/pyas3c/internal/parser"
	"github.com/halcyon-tools/pyas3c/internal/runtime"
	"github.com/halcyon-tools/pyas3c/internal/scope"
	"github.com/halcyon-tools/pyas3c/internal/stream"
	"github.com/halcyon-tools/pyas3c/internal/swf"
)

// runCompile implements the default (no-subcommand) `pyas3c` invocation:
// every file argument is parsed, scope-analyzed, and lowered as one
// combined module, then wrapped into a single output SWF.
func runCompile(files []string, out, errOut *os.File) error {
	lib := library.New()
	for _, path := range libraries {
		if err := lib.LoadFile(path); err != nil {
			return fail(errOut, "pyas3c: %v", err)
		}
	}

	var source strings.Builder
	if !noStdGlobals {
		if err := writeStdGlobals(&source); err != nil {
			return fail(errOut, "pyas3c: %v", err)
		}
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fail(errOut, "pyas3c: reading %s: %v", path, err)
		}
		source.Write(data)
		source.WriteByte('\n')
	}

	primaryFile := files[0]
	abcBytes, compileErr := compileSourceWithLibrary(primaryFile, source.String(), lib, errOut)
	if compileErr != nil {
		return compileErr
	}

	movie, err := swf.Build(mainClass, width, height, frameRate, abcBytes)
	if err != nil {
		return fail(errOut, "pyas3c: %v", err)
	}

	outPath := output
	if outPath == "" {
		outPath = replaceExt(primaryFile, ".swf")
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fail(errOut, "pyas3c: creating %s: %v", outPath, err)
	}
	defer f.Close()
	if err := swf.WriteFile(f, movie); err != nil {
		return fail(errOut, "pyas3c: writing %s: %v", outPath, err)
	}

	fmt.Fprintf(out, "pyas3c: wrote %s\n", outPath)
	return nil
}

// writeStdGlobals prepends the bundled runtime fixtures (internal/runtime)
// unless --no-std-globals was given, the source-level stand-in for §6.4's
// "auto-populated standard globals".
func writeStdGlobals(source *strings.Builder) error {
	names, err := runtime.Names()
	if err != nil {
		return err
	}
	srcs, err := runtime.Sources()
	if err != nil {
		return err
	}
	for _, name := range names {
		source.WriteString(srcs[name])
		source.WriteByte('\n')
	}
	return nil
}

// compileSource runs one already-concatenated source blob through lex,
// parse, scope-analysis, and codegen with no external library loaded,
// returning the serialized ABC bytes. filename is used only for
// diagnostics.
func compileSource(filename, source string, errOut *os.File) ([]byte, error) {
	return compileSourceWithLibrary(filename, source, nil, errOut)
}

// compileSourceWithLibrary is compileSource plus an already-loaded
// --library registry (§4.9) consulted for base classes and overridden
// methods defined outside the file being compiled.
func compileSourceWithLibrary(filename, source string, lib *library.Library, errOut *os.File) ([]byte, error) {
	p := parser.New(lexer.New(source))
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return nil, fmt.Errorf("pyas3c: %d parse error(s)", len(errs))
	}

	analysis := scope.Analyze(mod)

	opts := codegen.Options{
		Filename:      filename,
		MainClass:     mainClass,
		NoStdGlobals:  noStdGlobals,
		DebugFilename: debugFilename,
		Library:       lib,
	}
	res, err := codegen.Generate(mod, analysis, opts)
	if err != nil {
		fmt.Fprint(errOut, res.Errors.RenderAll(source))
		return nil, err
	}
	if res.Errors.HasErrors() {
		fmt.Fprint(errOut, res.Errors.RenderAll(source))
		return nil, fmt.Errorf("pyas3c: %d error(s)", res.Errors.Len())
	}

	w := stream.NewWriter()
	if err := codegen.WriteFile(w, res); err != nil {
		return nil, fmt.Errorf("pyas3c: serializing abc: %w", err)
	}
	return w.Bytes(), nil
}

func replaceExt(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
