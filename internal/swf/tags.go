package swf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// encodeDoABC builds a DoABC tag body: a u32 flags word (always 0, lazy
// initialization is not produced by this compiler), a NUL-terminated name,
// then the raw ABC file bytes (§6.1/§6.2).
func encodeDoABC(name string, abc []byte) []byte {
	var buf bytes.Buffer
	var flags [4]byte
	buf.Write(flags[:])
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.Write(abc)
	return buf.Bytes()
}

// DecodeDoABC splits a DoABC tag body into its embedded class name and raw
// ABC file bytes. Exported for internal/library, which extracts ABC blobs
// out of loaded SWF/SWC files.
func DecodeDoABC(data []byte) (name string, abc []byte, err error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("swf: DoABC tag too short")
	}
	rest := data[4:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("swf: DoABC tag missing name terminator")
	}
	return string(rest[:nul]), rest[nul+1:], nil
}

// encodeSymbolClass builds a SymbolClass tag body associating numeric
// export ids with class names, id 0 conventionally naming the document
// (main) class.
func encodeSymbolClass(assoc map[uint16]string) []byte {
	var buf bytes.Buffer
	var count [2]byte
	binary.LittleEndian.PutUint16(count[:], uint16(len(assoc)))
	buf.Write(count[:])
	for id, name := range assoc {
		buf.WriteByte(byte(id >> 8))
		buf.WriteByte(byte(id & 0xFF))
		buf.WriteString(name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func decodeSymbolClass(data []byte) (map[uint16]string, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("swf: SymbolClass tag too short")
	}
	count := binary.LittleEndian.Uint16(data[:2])
	pos := 2
	assoc := make(map[uint16]string, count)
	for i := uint16(0); i < count; i++ {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("swf: SymbolClass tag truncated")
		}
		id := uint16(data[pos])<<8 | uint16(data[pos+1])
		pos += 2
		nul := bytes.IndexByte(data[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("swf: SymbolClass tag missing name terminator")
		}
		assoc[id] = string(data[pos : pos+nul])
		pos += nul + 1
	}
	return assoc, nil
}

// encodeFileAttributes builds the FileAttributes tag body, setting the
// ActionScript3 bit so the player loads the movie with the AVM2, and
// leaving every other flag at its default off/reserved value.
func encodeFileAttributes() []byte {
	w := &bitWriter{}
	w.WriteBits(0, 1) // reserved
	w.WriteBits(0, 1) // UseDirectBlit
	w.WriteBits(0, 1) // UseGPU
	w.WriteBits(0, 1) // HasMetadata
	w.WriteBits(1, 1) // ActionScript3
	w.WriteBits(0, 2) // reserved
	w.WriteBits(0, 1) // UseNetwork
	w.Align()
	w.WriteBits(0, 24) // reserved
	w.Align()
	return w.Bytes()
}

// Build assembles a minimal playable movie around abc: FileAttributes,
// DoABC carrying the compiled code, SymbolClass binding slot 0 to
// mainClass, a single ShowFrame, and End. widthPx/heightPx are converted
// to twips (×20, per §6.1's stage-size convention) and frameRate (frames
// per second) is converted to the 8.8 fixed-point format the tag stream
// expects.
func Build(mainClass string, widthPx, heightPx int, frameRate float64, abc []byte) (*File, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("swf: width and height must be positive")
	}
	f := &File{
		Version: DefaultVersion,
		FrameSize: Rect{
			XMin: 0,
			XMax: int32(widthPx * 20),
			YMin: 0,
			YMax: int32(heightPx * 20),
		},
		FrameRate:  uint16(frameRate * 256),
		FrameCount: 1,
	}
	f.Tags = append(f.Tags,
		Tag{Code: TagFileAttributes, Data: encodeFileAttributes()},
		Tag{Code: TagDoABC, Data: encodeDoABC(mainClass, abc)},
		Tag{Code: TagSymbolClass, Data: encodeSymbolClass(map[uint16]string{0: mainClass})},
		Tag{Code: TagShowFrame},
		Tag{Code: TagEnd},
	)
	return f, nil
}
