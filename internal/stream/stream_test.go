package stream

import "testing"

func TestU30RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 1<<30 - 1}

	for _, v := range values {
		w := NewWriter()
		if err := w.WriteU30(v); err != nil {
			t.Fatalf("WriteU30(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadU30()
		if err != nil {
			t.Fatalf("ReadU30 after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("u30 round trip: got %d, want %d", got, v)
		}
	}
}

func TestU30Overflow(t *testing.T) {
	w := NewWriter()
	if err := w.WriteU30(1 << 30); err == nil {
		t.Fatal("expected overflow error for value >= 2^30")
	}
}

func TestS32RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, 64, -64, -65, 1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)}

	for _, v := range values {
		w := NewWriter()
		w.WriteS32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadS32()
		if err != nil {
			t.Fatalf("ReadS32 after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("s32 round trip: got %d, want %d", got, v)
		}
	}
}

func TestS24RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 8388607, -8388608, 100, -100}

	for _, v := range values {
		w := NewWriter()
		w.WriteS24(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadS24()
		if err != nil {
			t.Fatalf("ReadS24 after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("s24 round trip: got %d, want %d", got, v)
		}
	}
}

func TestD64RoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -1.5, 3.14159265358979, 1e300, -1e-300}

	for _, v := range values {
		w := NewWriter()
		w.WriteD64(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadD64()
		if err != nil {
			t.Fatalf("ReadD64 after writing %v: %v", v, err)
		}
		if got != v {
			t.Errorf("d64 round trip: got %v, want %v", got, v)
		}
	}
}

func TestDummyWriterDiscardsBytes(t *testing.T) {
	w := NewDummyWriter()
	w.WriteU30(12345)
	w.WriteUTF8("hello")
	w.WriteD64(1.0)

	if w.Len() != 0 {
		t.Fatalf("dummy writer accumulated %d bytes, want 0", w.Len())
	}
	if len(w.Bytes()) != 0 {
		t.Fatalf("dummy writer Bytes() returned %d bytes, want 0", len(w.Bytes()))
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	values := []string{"", "hello", "unicode: éè", "a long string with several words in it"}

	for _, v := range values {
		w := NewWriter()
		w.WriteUTF8(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadUTF8()
		if err != nil {
			t.Fatalf("ReadUTF8 after writing %q: %v", v, err)
		}
		if got != v {
			t.Errorf("utf8 round trip: got %q, want %q", got, v)
		}
	}
}
