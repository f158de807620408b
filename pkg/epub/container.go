// Package epub turns an uploaded EPUB binary into metadata, a cover, and an
// ordered list of segmented chapters with stable character offsets.
//
// The ZIP container is decoded by hand rather than through archive/zip:
// real-world EPUBs ship with central and local headers that disagree, with
// trailing comments, and with individually corrupt entries, and the engine
// must keep whatever it can rather than reject the whole archive. Every read
// below is bounds-checked against the buffer.
package epub

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
	"strings"
)

// Container maps archive-internal paths to decompressed bytes.
type Container map[string][]byte

const (
	eocdSignature    = 0x06054b50
	centralSignature = 0x02014b50
	localSignature   = 0x04034b50

	// eocdMinSize is the size of an EOCD record with an empty comment.
	eocdMinSize = 22
	// centralHeaderSize is the fixed portion of a central directory entry.
	centralHeaderSize = 46
	// localHeaderSize is the fixed portion of a local file header.
	localHeaderSize = 30

	methodStore   = 0
	methodDeflate = 8
)

// ReadContainer parses a ZIP byte buffer into a path -> bytes map. Entries
// using compression methods other than Store and DEFLATE are dropped, as are
// directory entries and entries whose offsets run past the buffer; a corrupt
// entry never aborts the rest of the walk. An invalid buffer yields an empty
// map.
func ReadContainer(buf []byte) Container {
	container := Container{}

	eocd, ok := findEOCD(buf)
	if !ok {
		return container
	}

	entryCount := int(readU16(buf, eocd+10))
	centralOffset := int(readU32(buf, eocd+16))

	pos := centralOffset
	for i := 0; i < entryCount; i++ {
		if pos+centralHeaderSize > len(buf) || readU32(buf, pos) != centralSignature {
			break
		}

		method := int(readU16(buf, pos+10))
		compressedSize := int(readU32(buf, pos+20))
		nameLen := int(readU16(buf, pos+28))
		extraLen := int(readU16(buf, pos+30))
		commentLen := int(readU16(buf, pos+32))
		localOffset := int(readU32(buf, pos+42))

		nameEnd := pos + centralHeaderSize + nameLen
		if nameEnd > len(buf) {
			break
		}
		name := string(buf[pos+centralHeaderSize : nameEnd])

		// Advance before any per-entry skip so one bad entry doesn't stall
		// the walk.
		pos = nameEnd + extraLen + commentLen

		// Directory entries carry no data.
		if strings.HasSuffix(name, "/") {
			continue
		}

		data, ok := readEntry(buf, localOffset, method, compressedSize)
		if !ok {
			continue
		}
		container[name] = data
	}

	return container
}

// findEOCD scans backward for the End-Of-Central-Directory signature. The
// record can be followed by a variable-length comment, so a fixed-offset
// read from the end is unsafe; each candidate offset is probed. A signature
// match only counts if its comment length reaches exactly to the end of the
// buffer, so the four signature bytes appearing inside a comment don't
// shadow the real record.
func findEOCD(buf []byte) (int, bool) {
	for pos := len(buf) - eocdMinSize; pos >= 0; pos-- {
		if readU32(buf, pos) != eocdSignature {
			continue
		}
		commentLen := int(readU16(buf, pos+20))
		if pos+eocdMinSize+commentLen == len(buf) {
			return pos, true
		}
	}
	return 0, false
}

// readEntry reads one file's data via its local header. The local header is
// authoritative for the data offset: its name/extra lengths can differ from
// the central directory's, so they are re-read here after validating the
// signature.
func readEntry(buf []byte, localOffset, method, compressedSize int) ([]byte, bool) {
	if localOffset+localHeaderSize > len(buf) || readU32(buf, localOffset) != localSignature {
		return nil, false
	}

	nameLen := int(readU16(buf, localOffset+26))
	extraLen := int(readU16(buf, localOffset+28))

	dataStart := localOffset + localHeaderSize + nameLen + extraLen
	dataEnd := dataStart + compressedSize
	if dataStart > len(buf) || dataEnd > len(buf) || dataEnd < dataStart {
		return nil, false
	}
	raw := buf[dataStart:dataEnd]

	switch method {
	case methodStore:
		data := make([]byte, len(raw))
		copy(data, raw)
		return data, true
	case methodDeflate:
		// ZIP stores headerless DEFLATE streams.
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		data, err := io.ReadAll(fr)
		if err != nil {
			return nil, false
		}
		return data, true
	default:
		// Unsupported compression method.
		return nil, false
	}
}

// Lookup returns the entry at path, falling back to a case-insensitive
// match. Some packagers disagree with their own manifest about casing.
func (c Container) Lookup(path string) ([]byte, bool) {
	if data, ok := c[path]; ok {
		return data, true
	}
	for name, data := range c {
		if strings.EqualFold(name, path) {
			return data, true
		}
	}
	return nil, false
}

func readU16(buf []byte, off int) uint16 {
	if off < 0 || off+2 > len(buf) {
		return 0
	}
	return binary.LittleEndian.Uint16(buf[off:])
}

func readU32(buf []byte, off int) uint32 {
	if off < 0 || off+4 > len(buf) {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[off:])
}
