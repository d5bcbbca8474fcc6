// Package swf implements the outer SWF container (§6.1): the FWS/CWS
// header, the bit-packed Rect stage-size field, the tag stream, and the
// DoABC/SymbolClass/FileAttributes/ShowFrame/End tags needed to wrap a
// compiled ABC file into a loadable movie.
//
// No file in the teacher repo touches a container format, so this package
// is built directly from §6.1/§6.2 and from original_source/pyzza/swf.go's
// Python counterpart (swf.py's Header.read/write_swf and tags.py's tag
// framing), reimplemented idiomatically rather than translated: Go's
// compress/zlib and encoding/binary stand in for Python's zlib module and
// manual byte shuffling.
package swf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Rect is the bit-packed stage-size field (§6.1).
type Rect struct {
	XMin, XMax, YMin, YMax int32
}

func (r Rect) write(w *bitWriter) {
	nbits := 1
	for _, v := range []int32{r.XMin, r.XMax, r.YMin, r.YMax} {
		if n := bitsNeeded(v); n > nbits {
			nbits = n
		}
	}
	w.WriteBits(uint32(nbits), 5)
	w.WriteBits(uint32(r.XMin), nbits)
	w.WriteBits(uint32(r.XMax), nbits)
	w.WriteBits(uint32(r.YMin), nbits)
	w.WriteBits(uint32(r.YMax), nbits)
	w.Align()
}

func readRect(r *bitReader) Rect {
	nbits := int(r.ReadBits(5))
	rect := Rect{
		XMin: int32(r.ReadBits(nbits)),
		XMax: int32(r.ReadBits(nbits)),
		YMin: int32(r.ReadBits(nbits)),
		YMax: int32(r.ReadBits(nbits)),
	}
	r.Align()
	return rect
}

// Tag codes used by this compiler's output (§6.1, grounded on
// original_source/pyzza/tags.go's TAG_* constants).
const (
	TagEnd            = 0
	TagShowFrame      = 1
	TagFileAttributes = 69
	TagSymbolClass    = 76
	TagDoABC          = 82
)

// Tag is one raw SWF tag: a code and its body bytes.
type Tag struct {
	Code uint16
	Data []byte
}

// File is a fully parsed or fully built SWF movie.
type File struct {
	Version    uint8
	FrameSize  Rect
	FrameRate  uint16 // 8.8 fixed point
	FrameCount uint16
	Tags       []Tag
}

// DefaultVersion matches the teacher-grounded original's default player
// target (pyzza/swf.py's Header default of 10).
const DefaultVersion = 10

// ReadFile parses an FWS or CWS container.
func ReadFile(r io.Reader) (*File, error) {
	var sig [3]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("swf: read signature: %w", err)
	}
	var compressed bool
	switch string(sig[:]) {
	case "FWS":
		compressed = false
	case "CWS":
		compressed = true
	default:
		return nil, fmt.Errorf("swf: bad signature %q", sig)
	}

	var head [5]byte // version + u32 length
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("swf: read header: %w", err)
	}
	version := head[0]
	fileLength := binary.LittleEndian.Uint32(head[1:])

	var body []byte
	var err error
	if compressed {
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("swf: zlib: %w", err)
		}
		defer zr.Close()
		body, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("swf: inflate: %w", err)
		}
	} else {
		body, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("swf: read body: %w", err)
		}
	}
	if uint32(len(body))+8 != fileLength {
		return nil, fmt.Errorf("swf: declared length %d does not match payload %d+8", fileLength, len(body))
	}

	br := newBitReader(body)
	rect := readRect(br)
	pos := br.BytePos()
	if pos+4 > len(body) {
		return nil, fmt.Errorf("swf: truncated header")
	}
	frameRate := binary.LittleEndian.Uint16(body[pos:])
	frameCount := binary.LittleEndian.Uint16(body[pos+2:])
	pos += 4

	f := &File{Version: version, FrameSize: rect, FrameRate: frameRate, FrameCount: frameCount}
	for pos < len(body) {
		if pos+2 > len(body) {
			return nil, fmt.Errorf("swf: truncated tag header")
		}
		mark := binary.LittleEndian.Uint16(body[pos:])
		pos += 2
		code := mark >> 6
		length := int(mark & 0x3f)
		if length == 0x3f {
			if pos+4 > len(body) {
				return nil, fmt.Errorf("swf: truncated long tag length")
			}
			length = int(binary.LittleEndian.Uint32(body[pos:]))
			pos += 4
		}
		if pos+length > len(body) {
			return nil, fmt.Errorf("swf: tag body overruns buffer")
		}
		data := body[pos : pos+length]
		pos += length
		f.Tags = append(f.Tags, Tag{Code: code, Data: data})
		if code == TagEnd {
			break
		}
	}
	return f, nil
}

// WriteFile serializes f as a zlib-compressed (CWS) container, matching
// the teacher-grounded original's write_swf, which always compresses.
func WriteFile(w io.Writer, f *File) error {
	var body bytes.Buffer
	bw := &bitWriter{}
	f.FrameSize.write(bw)
	body.Write(bw.Bytes())

	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], f.FrameRate)
	body.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], f.FrameCount)
	body.Write(u16[:])

	for _, tag := range f.Tags {
		writeTagHeader(&body, tag.Code, len(tag.Data))
		body.Write(tag.Data)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(body.Bytes()); err != nil {
		return fmt.Errorf("swf: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("swf: deflate close: %w", err)
	}

	fileLength := uint32(body.Len()) + 8
	if _, err := w.Write([]byte("CWS")); err != nil {
		return err
	}
	header := make([]byte, 5)
	header[0] = f.Version
	binary.LittleEndian.PutUint32(header[1:], fileLength)
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(compressed.Bytes())
	return err
}

func writeTagHeader(w *bytes.Buffer, code uint16, length int) {
	if length >= 0x3f {
		mark := (code << 6) | 0x3f
		var buf [6]byte
		binary.LittleEndian.PutUint16(buf[:2], mark)
		binary.LittleEndian.PutUint32(buf[2:], uint32(length))
		w.Write(buf[:])
		return
	}
	mark := (code << 6) | uint16(length)
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], mark)
	w.Write(buf[:])
}
