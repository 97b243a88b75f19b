// Package testutil builds synthetic presentation files for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"
	"unicode/utf16"

	"github.com/klauspost/compress/zip"
)

// RecordHeaderSize is the size of a drawing-object record header.
const RecordHeaderSize = 8

// Record encodes one drawing-object record.
func Record(typ, instance uint16, body []byte) []byte {
	b := make([]byte, RecordHeaderSize, RecordHeaderSize+len(body))
	binary.LittleEndian.PutUint16(b[0:], instance)
	binary.LittleEndian.PutUint16(b[2:], typ)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(body)))
	return append(b, body...)
}

// Picture encodes a BLIP record with an extra-byte sub-header of 0xAA
// followed by payload.
func Picture(typ, instance uint16, extra int, payload []byte) []byte {
	body := bytes.Repeat([]byte{0xAA}, extra)
	return Record(typ, instance, append(body, payload...))
}

// Payload returns n deterministic bytes seeded by tag.
func Payload(tag byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = tag ^ byte(i*31)
	}
	return b
}

// Compound-file layout constants.
const (
	sectorSize     = 512
	miniSectorSize = 64
	freeSect       = 0xFFFFFFFF
	endOfChain     = 0xFFFFFFFE
	fatSect        = 0xFFFFFFFD
	noStream       = 0xFFFFFFFF
	dirPerSector   = sectorSize / 128

	// MiniStreamCutoff is the size below which a stream is stored in the
	// mini stream.
	MiniStreamCutoff = 4096
)

// MaxStreams is the number of streams CompoundFile can hold.
const MaxStreams = dirPerSector - 1

// MaxMiniStreamSize bounds the total size of the small streams, whose mini
// FAT must fit one sector.
const MaxMiniStreamSize = sectorSize / 4 * miniSectorSize

// Signature is the compound-file magic number.
var Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Stream is one named stream of a compound file.
type Stream struct {
	Name string
	Data []byte
}

// chain links n sectors starting at first in table and returns the next
// free index.
func chain(table []uint32, first, n uint32) uint32 {
	for j := uint32(0); j < n; j++ {
		if j == n-1 {
			table[first+j] = endOfChain
		} else {
			table[first+j] = first + j + 1
		}
	}
	return first + n
}

func sectorsFor(n, size int) uint32 {
	return uint32((n + size - 1) / size)
}

func pad(b []byte, size int) []byte {
	if rem := len(b) % size; rem != 0 {
		b = append(b, make([]byte, size-rem)...)
	}
	return b
}

// CompoundFile writes a minimal version 3 compound file. Sector 0 holds the
// FAT and sector 1 the directory. Streams smaller than MiniStreamCutoff go
// to the mini stream, which gets a mini FAT sector and a container chain
// owned by the root entry; larger streams are stored in regular sectors.
// Unused directory slots are filled with filler streams.
func CompoundFile(t testing.TB, streams ...Stream) []byte {
	t.Helper()
	le := binary.LittleEndian
	if len(streams) > MaxStreams {
		t.Fatalf("at most %d streams supported", MaxStreams)
	}
	for i := len(streams); i < MaxStreams; i++ {
		streams = append(streams, Stream{
			Name: fmt.Sprintf("Filler%d", i),
			Data: bytes.Repeat([]byte{0x55}, MiniStreamCutoff),
		})
	}

	fat := make([]uint32, sectorSize/4)
	miniFAT := make([]uint32, sectorSize/4)
	for i := range fat {
		fat[i] = freeSect
		miniFAT[i] = freeSect
	}
	fat[0] = fatSect
	fat[1] = endOfChain

	starts := make([]uint32, len(streams))
	var mini []byte
	nextMini := uint32(0)
	for i, s := range streams {
		if len(s.Data) >= MiniStreamCutoff {
			continue
		}
		n := sectorsFor(len(s.Data), miniSectorSize)
		if n == 0 {
			starts[i] = endOfChain
			continue
		}
		if int(nextMini+n) > len(miniFAT) {
			t.Fatalf("small streams exceed %d bytes", MaxMiniStreamSize)
		}
		starts[i] = nextMini
		nextMini = chain(miniFAT, nextMini, n)
		mini = append(mini, pad(append([]byte(nil), s.Data...), miniSectorSize)...)
	}

	next := uint32(2)
	miniFATStart, miniFATCount := uint32(endOfChain), uint32(0)
	rootStart := uint32(endOfChain)
	if len(mini) > 0 {
		miniFATStart, miniFATCount = next, 1
		next = chain(fat, next, 1)
		rootStart = next
		next = chain(fat, next, sectorsFor(len(mini), sectorSize))
	}

	var data bytes.Buffer
	for i, s := range streams {
		if len(s.Data) < MiniStreamCutoff {
			continue
		}
		n := sectorsFor(len(s.Data), sectorSize)
		if int(next+n) > len(fat) {
			t.Fatal("streams do not fit in one FAT sector")
		}
		starts[i] = next
		next = chain(fat, next, n)
		data.Write(pad(append([]byte(nil), s.Data...), sectorSize))
	}

	header := make([]byte, sectorSize)
	copy(header, Signature)
	le.PutUint16(header[24:], 0x003E) // minor version
	le.PutUint16(header[26:], 0x0003) // major version
	le.PutUint16(header[28:], 0xFFFE) // byte order
	le.PutUint16(header[30:], 9)      // 512-byte sectors
	le.PutUint16(header[32:], 6)      // 64-byte mini sectors
	le.PutUint32(header[44:], 1)      // FAT sectors
	le.PutUint32(header[48:], 1)      // first directory sector
	le.PutUint32(header[56:], MiniStreamCutoff)
	le.PutUint32(header[60:], miniFATStart)
	le.PutUint32(header[64:], miniFATCount)
	le.PutUint32(header[68:], endOfChain) // no DIFAT sectors
	le.PutUint32(header[76:], 0)          // FAT lives in sector 0
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+4*i:], freeSect)
	}

	table := func(entries []uint32) []byte {
		b := make([]byte, sectorSize)
		for i, v := range entries {
			le.PutUint32(b[4*i:], v)
		}
		return b
	}

	dir := make([]byte, 0, sectorSize)
	dir = append(dir, dirEntry("Root Entry", 5, noStream, noStream, 1, rootStart, uint64(len(mini)))...)
	for i, s := range streams {
		right := uint32(noStream)
		if i+1 < len(streams) {
			right = uint32(i + 2)
		}
		dir = append(dir, dirEntry(s.Name, 2, noStream, right, noStream, starts[i], uint64(len(s.Data)))...)
	}

	parts := [][]byte{header, table(fat), dir}
	if len(mini) > 0 {
		parts = append(parts, table(miniFAT), pad(mini, sectorSize))
	}
	parts = append(parts, data.Bytes())
	return bytes.Join(parts, nil)
}

func dirEntry(name string, typ byte, left, right, child, start uint32, size uint64) []byte {
	le := binary.LittleEndian
	e := make([]byte, 128)
	u := utf16.Encode([]rune(name))
	for i, c := range u {
		le.PutUint16(e[2*i:], c)
	}
	le.PutUint16(e[64:], uint16(2*(len(u)+1)))
	e[66] = typ
	e[67] = 1 // black
	le.PutUint32(e[68:], left)
	le.PutUint32(e[72:], right)
	le.PutUint32(e[76:], child)
	le.PutUint32(e[116:], start)
	le.PutUint64(e[120:], size)
	return e
}

// ZipEntry is one archive member.
type ZipEntry struct {
	Name string
	Data []byte
}

// Zip writes a deflate-compressed archive with entries in order.
func Zip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
