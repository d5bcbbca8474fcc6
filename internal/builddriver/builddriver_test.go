package builddriver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTopoOrderRespectsImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import b\nx = 1\n")
	writeFile(t, dir, "b.py", "import c\ny = 2\n")
	writeFile(t, dir, "c.py", "z = 3\n")

	units, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	g, err := BuildGraph(units)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder: %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, u := range order {
		pos[u.Module] = i
	}
	if pos["c"] > pos["b"] {
		t.Errorf("c must precede b, got order %v", order)
	}
	if pos["b"] > pos["a"] {
		t.Errorf("b must precede a, got order %v", order)
	}
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import b\n")
	writeFile(t, dir, "b.py", "import a\n")

	units, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	g, err := BuildGraph(units)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if _, err := g.TopoOrder(); err == nil {
		t.Fatal("expected a cyclic-import error, got nil")
	}
}

func TestUnresolvedImportIsNotAnEdge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import os\nx = 1\n")

	units, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	g, err := BuildGraph(units)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder: %v", err)
	}
	if len(order) != 1 {
		t.Fatalf("expected exactly 1 unit, got %d", len(order))
	}
}

func TestCacheSkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")

	cachePath := filepath.Join(dir, ".builddriver-cache.yaml")
	cache, err := LoadCache(cachePath)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}

	first, err := ScanWithCache(dir, cache)
	if err != nil {
		t.Fatalf("ScanWithCache (first): %v", err)
	}
	if first[0].AST == nil {
		t.Fatal("first scan of a new file should have parsed an AST")
	}

	second, err := ScanWithCache(dir, cache)
	if err != nil {
		t.Fatalf("ScanWithCache (second): %v", err)
	}
	if second[0].AST != nil {
		t.Fatal("second scan of an unchanged file should have reused the cache entry, not reparsed")
	}
	if second[0].Module != "a" {
		t.Fatalf("cached unit lost its module name: got %q", second[0].Module)
	}
}
