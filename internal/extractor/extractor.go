// Package extractor pulls embedded pictures out of PowerPoint documents.
//
// Two container families are supported: the legacy compound-file format
// (.ppt, .pps), whose pictures are BLIP records concatenated in the
// "Pictures" stream, and the zip-based package format (.pptx), whose pictures
// are stored verbatim under ppt/media. Open probes a source and returns the
// matching variant behind the Extractor interface.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"pptextract/internal/chunker"
)

var (
	// ErrInvalidFormat is returned by Open when no variant recognizes the source.
	ErrInvalidFormat = errors.New("not a PowerPoint file")
	// ErrStructural marks a malformed or truncated picture record.
	ErrStructural = errors.New("malformed picture record")
	// ErrNotFound is returned for an out-of-range image index.
	ErrNotFound = errors.New("no such image")
	// ErrShortRead is returned with the partial image when the stream holds
	// fewer bytes than a descriptor promised.
	ErrShortRead = chunker.ErrShortRead
)

// Kind names the container family an Extractor was built for.
type Kind int

const (
	KindPPT Kind = iota + 1
	KindPPTX
)

func (k Kind) String() string {
	switch k {
	case KindPPT:
		return "ppt"
	case KindPPTX:
		return "pptx"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Image is one extracted picture.
type Image struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Ext   string `json:"ext"`
	Data  []byte `json:"-"`
}

// Extractor is implemented by *PPT and *PPTX only.
type Extractor interface {
	Kind() Kind
	// Len returns the number of extractable images.
	Len() int
	// Extract returns the image at index. Indexes outside [0, Len()) fail
	// with ErrNotFound.
	Extract(index int) (*Image, error)
	// All yields every image in ascending index order.
	All() iter.Seq2[*Image, error]
	String() string

	variant()
}

// Source is a seekable, random-access byte source such as *os.File or
// *bytes.Reader.
type Source interface {
	io.ReaderAt
	io.Seeker
}

// variants are probed in order; the first recognizer that matches builds
// the Extractor.
var variants = []struct {
	kind      Kind
	recognize func(Source) bool
	open      func(Source) (Extractor, error)
}{
	{KindPPT, IsCompoundFile, openPPT},
	{KindPPTX, IsZip, openPPTX},
}

// Open recognizes src and scans it. name is only used in error messages.
// Legacy files are tried before package files.
func Open(src Source, name string) (Extractor, error) {
	for _, v := range variants {
		if !v.recognize(src) {
			continue
		}
		x, err := v.open(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", name, v.kind, err)
		}
		return x, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrInvalidFormat)
}

func openPPT(src Source) (Extractor, error) {
	c, err := OpenCompoundFile(src)
	if err != nil {
		return nil, err
	}
	return NewPPT(c)
}

func openPPTX(src Source) (Extractor, error) {
	size, err := sourceSize(src)
	if err != nil {
		return nil, err
	}
	a, err := OpenZip(src, size)
	if err != nil {
		return nil, err
	}
	return NewPPTX(a), nil
}

// compoundFileSignature opens every compound file.
var compoundFileSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// IsCompoundFile reports whether src starts with the compound-file signature.
func IsCompoundFile(src Source) bool {
	buf := make([]byte, len(compoundFileSignature))
	n, _ := src.ReadAt(buf, 0)
	return n == len(buf) && bytes.Equal(buf, compoundFileSignature)
}

const (
	eocdSize       = 22
	maxCommentSize = 1<<16 - 1
)

var eocdSignature = []byte("PK\x05\x06")

// IsZip reports whether src ends with a zip end-of-central-directory record.
// The record may be followed by an archive comment of up to 64 KiB.
func IsZip(src Source) bool {
	size, err := sourceSize(src)
	if err != nil || size < eocdSize {
		return false
	}
	tail := min(size, eocdSize+maxCommentSize)
	buf := make([]byte, tail)
	n, err := src.ReadAt(buf, size-tail)
	if int64(n) != tail && err != nil {
		return false
	}
	buf = buf[:n]
	for i := len(buf) - eocdSize; i >= 0; i-- {
		if !bytes.Equal(buf[i:i+4], eocdSignature) {
			continue
		}
		commentLen := int(buf[i+20]) | int(buf[i+21])<<8
		if i+eocdSize+commentLen <= len(buf) {
			return true
		}
	}
	return false
}

// sourceSize measures src and leaves its cursor where it was.
func sourceSize(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}
	return size, nil
}

// imageList is the part of an Extractor that All needs.
type imageList interface {
	Len() int
	Extract(index int) (*Image, error)
}

func all(l imageList) iter.Seq2[*Image, error] {
	return func(yield func(*Image, error) bool) {
		for i := 0; i < l.Len(); i++ {
			img, err := l.Extract(i)
			if !yield(img, err) {
				return
			}
		}
	}
}

func notFound(index, n int) error {
	return fmt.Errorf("image %d (have %d): %w", index, n, ErrNotFound)
}

func describe(n int) string {
	return fmt.Sprintf("<PowerPoint file with %d images>", n)
}
