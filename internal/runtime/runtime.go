// Package runtime bundles the small set of runtime-library source fixtures
// every compile implicitly links against unless --no-std-globals is set
// (codegen.Options.NoStdGlobals). These are not executed by anything in
// this repository — pyzza's own `lib/` tree (original_source/lib) shipped a
// much larger console/logging/collections library meant to run on an AVM2
// player, which is firmly outside what a compiler needs to validate itself
// against. What's kept here is a trimmed, source-compatible stand-in: real
// .py fixtures the parser/scope/codegen pipeline can compile end-to-end in
// tests, and the build driver can prepend to a compilation unit list the
// same way it would any other source file.
package runtime

import "embed"

//go:embed fixtures/*.py
var fixturesFS embed.FS

// Sources returns every bundled fixture's filename (relative to fixtures/)
// mapped to its source text. The map carries no order; Names gives the
// filenames in sorted order. A fixture never imports another fixture.
func Sources() (map[string]string, error) {
	entries, err := fixturesFS.ReadDir("fixtures")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := fixturesFS.ReadFile("fixtures/" + e.Name())
		if err != nil {
			return nil, err
		}
		out[e.Name()] = string(data)
	}
	return out, nil
}

// Names returns the bundled fixture filenames in a stable sorted order,
// used by the build driver to fabricate deterministic synthetic paths
// ("runtime:object.py") for cache keys and diagnostics.
func Names() ([]string, error) {
	entries, err := fixturesFS.ReadDir("fixtures")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
