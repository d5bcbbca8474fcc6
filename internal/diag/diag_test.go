package diag

import (
	"strings"
	"testing"
)

func TestRenderIncludesCaretAtColumn(t *testing.T) {
	src := "x = 1\ny = z + 1\n"
	err := New(Name, "input.py", 2, 5, "undefined name %q", "z")
	out := Render(err, src)
	if !strings.Contains(out, "input.py:2:5:") {
		t.Errorf("missing location header: %q", out)
	}
	if !strings.Contains(out, "undefined name \"z\"") {
		t.Errorf("missing message: %q", out)
	}
	lines := strings.Split(out, "\n")
	found := false
	for _, l := range lines {
		if strings.Contains(l, "^") {
			found = true
			if strings.Index(l, "^") < len("      | ")+4 {
				t.Errorf("caret should be padded to column 5, got line %q", l)
			}
		}
	}
	if !found {
		t.Errorf("no caret line found in %q", out)
	}
}

func TestListAccumulatesErrors(t *testing.T) {
	var l List
	if l.HasErrors() {
		t.Fatal("new list should have no errors")
	}
	l.Add(New(Syntax, "a.py", 1, 1, "unexpected token"))
	l.Add(New(Import, "a.py", 2, 1, "class not found"))
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if !l.HasErrors() {
		t.Error("HasErrors() should be true")
	}
}
