package codegen

import (
	"testing"

	"github.com/halcyon-tools/pyas3c/internal/abc"
	"github.com/halcyon-tools/pyas3c/internal/stream"
)

// TestWriteFileRoundTrips compiles a small module, serializes it through
// WriteFile, and decodes the bytes back with abc.ReadFile, checking that
// the entity counts survive the trip — the bypass emit.go takes around
// abc.WriteFile only pays off if the operand indices it replays still line
// up with the pool it serialized right alongside them.
func TestWriteFileRoundTrips(t *testing.T) {
	src := "class Greeter:\n" +
		"    def __init__(self, name):\n" +
		"        self.name = name\n" +
		"\n" +
		"    def greet(self):\n" +
		"        print(self.name)\n" +
		"\n" +
		"g = Greeter('world')\n" +
		"g.greet()\n"
	res := generate(t, src)

	w := stream.NewWriter()
	if err := WriteFile(w, res); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	decoded, err := abc.ReadFile(stream.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("abc.ReadFile: %v", err)
	}

	if len(decoded.Methods) != len(res.File.Methods) {
		t.Errorf("method count mismatch: wrote %d, read back %d", len(res.File.Methods), len(decoded.Methods))
	}
	if len(decoded.Instances) != len(res.File.Instances) {
		t.Errorf("instance count mismatch: wrote %d, read back %d", len(res.File.Instances), len(decoded.Instances))
	}
	if len(decoded.Classes) != len(res.File.Classes) {
		t.Errorf("class count mismatch: wrote %d, read back %d", len(res.File.Classes), len(decoded.Classes))
	}
	if len(decoded.Scripts) != 1 {
		t.Fatalf("expected exactly one script_info, got %d", len(decoded.Scripts))
	}
	if len(decoded.MethodBodies) != len(res.File.MethodBodies) {
		t.Errorf("method body count mismatch: wrote %d, read back %d", len(res.File.MethodBodies), len(decoded.MethodBodies))
	}
	if decoded.Instances[0].Name.Name != "Greeter" {
		t.Errorf("expected decoded instance name Greeter, got %q", decoded.Instances[0].Name.Name)
	}
}
