// Package chunker provides bounded-memory byte range reading for extraction.
// Ranges are read in fixed-size chunks so a single oversized payload never
// turns into one unbounded read call.
package chunker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ChunkSize is the number of bytes requested from the source per read.
const ChunkSize = 64 << 10

// maxEmptyReads bounds how many consecutive (0, nil) reads are tolerated.
const maxEmptyReads = 100

// ErrShortRead is returned when the source is exhausted before the requested
// number of bytes has been produced.
var ErrShortRead = errors.New("short read")

// ShortReadError reports how many bytes were expected at Offset and how many
// the source actually delivered.
type ShortReadError struct {
	Offset int64
	Want   int64
	Got    int64
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read at offset %d: got %d of %d bytes", e.Offset, e.Got, e.Want)
}

func (e *ShortReadError) Unwrap() error { return ErrShortRead }

// ReadRange seeks once to offset and reads exactly length bytes in chunks of
// at most ChunkSize.
//
// If the source ends early the bytes read so far are returned together with
// a *ShortReadError. The result is never padded.
func ReadRange(r io.ReadSeeker, offset, length int64) ([]byte, error) {
	var out bytes.Buffer
	if length < ChunkSize {
		out.Grow(int(max(length, 0)))
	} else {
		out.Grow(ChunkSize)
	}
	_, err := Copy(&out, r, offset, length)
	return out.Bytes(), err
}

// Copy writes the range [offset, offset+length) of r to dst using the same
// chunked loop as ReadRange. It returns the number of bytes written.
func Copy(dst io.Writer, r io.ReadSeeker, offset, length int64) (int64, error) {
	if offset < 0 || length < 0 {
		return 0, fmt.Errorf("invalid range: offset=%d length=%d", offset, length)
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", offset, err)
	}

	total, err := copyChunks(dst, r, length)
	if err != nil {
		return total, fmt.Errorf("read at %d: %w", offset+total, err)
	}
	if total < length {
		return total, &ShortReadError{Offset: offset, Want: length, Got: total}
	}
	return total, nil
}

// ReadAll drains r in ChunkSize reads until it signals end of data. It is
// used for streams whose length is not known up front.
func ReadAll(r io.Reader) ([]byte, error) {
	var out bytes.Buffer
	_, err := copyChunks(&out, r, -1)
	return out.Bytes(), err
}

// copyChunks moves up to limit bytes (unbounded when limit < 0) from r to dst.
// End of input is not an error; the caller compares the count.
func copyChunks(dst io.Writer, r io.Reader, limit int64) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	empty := 0
	for limit < 0 || total < limit {
		want := int64(ChunkSize)
		if limit >= 0 && limit-total < want {
			want = limit - total
		}
		n, err := r.Read(buf[:want])
		if n > 0 {
			empty = 0
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return total, io.ErrNoProgress
			}
		}
	}
	return total, nil
}
