package swf

import (
	"bytes"
	"testing"
)

func TestRectRoundTrip(t *testing.T) {
	want := Rect{XMin: 0, XMax: 11000, YMin: 0, YMax: 8000}
	bw := &bitWriter{}
	want.write(bw)
	br := newBitReader(bw.Bytes())
	got := readRect(br)
	if got != want {
		t.Fatalf("Rect round trip: got %+v, want %+v", got, want)
	}
}

func TestTagHeaderShortAndLongForm(t *testing.T) {
	var buf bytes.Buffer
	writeTagHeader(&buf, TagShowFrame, 0)
	if buf.Len() != 2 {
		t.Fatalf("short tag header should be 2 bytes, got %d", buf.Len())
	}

	buf.Reset()
	long := make([]byte, 100)
	writeTagHeader(&buf, TagDoABC, len(long))
	if buf.Len() != 6 {
		t.Fatalf("long tag header should be 6 bytes, got %d", buf.Len())
	}
}

func TestFileRoundTrip(t *testing.T) {
	abc := []byte{0x01, 0x02, 0x03, 0x04}
	want, err := Build("Main", 550, 400, 24, abc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFile(&buf, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got.Version != want.Version {
		t.Errorf("Version = %d, want %d", got.Version, want.Version)
	}
	if got.FrameSize != want.FrameSize {
		t.Errorf("FrameSize = %+v, want %+v", got.FrameSize, want.FrameSize)
	}
	if got.FrameRate != want.FrameRate {
		t.Errorf("FrameRate = %d, want %d", got.FrameRate, want.FrameRate)
	}
	if len(got.Tags) != len(want.Tags) {
		t.Fatalf("Tags len = %d, want %d", len(got.Tags), len(want.Tags))
	}
	for i, tag := range want.Tags {
		if got.Tags[i].Code != tag.Code {
			t.Errorf("Tags[%d].Code = %d, want %d", i, got.Tags[i].Code, tag.Code)
		}
		if !bytes.Equal(got.Tags[i].Data, tag.Data) {
			t.Errorf("Tags[%d].Data = %v, want %v", i, got.Tags[i].Data, tag.Data)
		}
	}
	if got.Tags[len(got.Tags)-1].Code != TagEnd {
		t.Errorf("last tag should be TagEnd")
	}
}

func TestDoABCTagRoundTrip(t *testing.T) {
	abc := []byte{0xde, 0xad, 0xbe, 0xef}
	data := encodeDoABC("Main", abc)
	name, body, err := DecodeDoABC(data)
	if err != nil {
		t.Fatalf("DecodeDoABC: %v", err)
	}
	if name != "Main" {
		t.Errorf("name = %q, want Main", name)
	}
	if !bytes.Equal(body, abc) {
		t.Errorf("body = %v, want %v", body, abc)
	}
}

func TestSymbolClassTagRoundTrip(t *testing.T) {
	data := encodeSymbolClass(map[uint16]string{0: "Main"})
	assoc, err := decodeSymbolClass(data)
	if err != nil {
		t.Fatalf("decodeSymbolClass: %v", err)
	}
	if assoc[0] != "Main" {
		t.Errorf("assoc[0] = %q, want Main", assoc[0])
	}
}

func TestFileAttributesTagRoundTrip(t *testing.T) {
	data := encodeFileAttributes()
	if len(data) != 4 {
		t.Fatalf("FileAttributes body should be 4 bytes, got %d", len(data))
	}
	// bit 4 (counting from MSB, 0-indexed) of the first byte is ActionScript3.
	if data[0]&0x08 == 0 {
		t.Errorf("ActionScript3 bit should be set: %08b", data[0])
	}
}
