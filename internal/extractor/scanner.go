package extractor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the fixed record header: recVer/recInstance (2),
// recType (2) and recLen (4), little-endian.
const HeaderSize = 8

// RecordHeader is the decoded prefix of one drawing-object record.
type RecordHeader struct {
	Instance uint16
	Type     uint16
	Length   uint32
}

// Version returns the recVer nibble of the header.
func (h RecordHeader) Version() uint16 { return h.Instance & 0x000F }

func parseHeader(b []byte) RecordHeader {
	return RecordHeader{
		Instance: binary.LittleEndian.Uint16(b[0:2]),
		Type:     binary.LittleEndian.Uint16(b[2:4]),
		Length:   binary.LittleEndian.Uint32(b[4:8]),
	}
}

// Descriptor is the absolute byte range of one image payload inside the
// picture stream, sub-header excluded.
type Descriptor struct {
	Offset uint64
	Length uint64
	Key    FormatKey
}

// Ext returns the file extension for the descriptor's format.
func (d Descriptor) Ext() string {
	e, _ := Lookup(d.Key.Type, d.Key.Instance)
	return e.Ext
}

// StructuralError describes a record that cannot be framed: a partial
// header, a record running past the end of the stream, or a picture record
// shorter than its own sub-header.
type StructuralError struct {
	Offset uint64 // offset of the record header
	Header RecordHeader
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("record at offset %d (type 0x%04X instance 0x%04X length %d): %s",
		e.Offset, e.Header.Type, e.Header.Instance, e.Header.Length, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// Scan walks the records of a picture stream from its current position to
// the end and returns a descriptor for every recognized picture record, in
// stream order. Records that are not in the format table are skipped.
//
// The stream is read forward once; only record headers are read; payloads
// are seeked over.
func Scan(r io.ReadSeeker) ([]Descriptor, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	size, err := sourceSize(r)
	if err != nil {
		return nil, err
	}

	var (
		descs  []Descriptor
		hdr    [HeaderSize]byte
		offset = uint64(start)
	)
	for {
		n, err := io.ReadFull(r, hdr[:])
		if err == io.EOF {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &StructuralError{
				Offset: offset,
				Reason: fmt.Sprintf("truncated header: %d of %d bytes", n, HeaderSize),
			}
		}
		if err != nil {
			return nil, fmt.Errorf("read header at %d: %w", offset, err)
		}

		h := parseHeader(hdr[:])
		recStart := offset
		offset += HeaderSize

		if offset+uint64(h.Length) > uint64(size) {
			return nil, &StructuralError{
				Offset: recStart,
				Header: h,
				Reason: fmt.Sprintf("record runs past end of stream (%d bytes remain)", uint64(size)-offset),
			}
		}
		if _, err := r.Seek(int64(h.Length), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("skip record at %d: %w", recStart, err)
		}

		if e, ok := Lookup(h.Type, h.Instance); ok {
			if h.Length < e.ExtraHeader {
				return nil, &StructuralError{
					Offset: recStart,
					Header: h,
					Reason: fmt.Sprintf("length is smaller than the %d-byte sub-header", e.ExtraHeader),
				}
			}
			descs = append(descs, Descriptor{
				Offset: offset + uint64(e.ExtraHeader),
				Length: uint64(h.Length - e.ExtraHeader),
				Key:    FormatKey{Type: h.Type, Instance: h.Instance},
			})
		}
		offset += uint64(h.Length)
	}
	return descs, nil
}
