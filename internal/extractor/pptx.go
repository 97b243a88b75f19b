package extractor

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"slices"

	"github.com/klauspost/compress/zip"

	"pptextract/internal/chunker"
)

// MediaDir is the package directory holding slide media.
const MediaDir = "ppt/media"

// Archive is the part of a zip reader the package variant needs.
type Archive interface {
	Entries() []string
	OpenEntry(name string) (io.ReadCloser, error)
}

// PPTX extracts images from zip-based presentations (.pptx, .ppsx, .pptm).
// Media entries are stored whole, so no sub-header is stripped.
type PPTX struct {
	archive Archive
	media   []string
}

// NewPPTX lists the entries of a that sit directly in MediaDir, in archive
// order.
func NewPPTX(a Archive) *PPTX {
	x := &PPTX{archive: a}
	for _, name := range a.Entries() {
		if path.Dir(name) == MediaDir {
			x.media = append(x.media, name)
		}
	}
	return x
}

func (x *PPTX) variant() {}

func (x *PPTX) Kind() Kind { return KindPPTX }

func (x *PPTX) Len() int { return len(x.media) }

func (x *PPTX) String() string { return describe(x.Len()) }

// Entries returns the media entry paths.
func (x *PPTX) Entries() []string { return slices.Clone(x.media) }

// Extract decompresses media entry index.
func (x *PPTX) Extract(index int) (*Image, error) {
	if index < 0 || index >= len(x.media) {
		return nil, notFound(index, len(x.media))
	}
	name := x.media[index]
	rc, err := x.archive.OpenEntry(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := chunker.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &Image{
		Index: index,
		Name:  path.Base(name),
		Ext:   path.Ext(name),
		Data:  data,
	}, nil
}

func (x *PPTX) All() iter.Seq2[*Image, error] { return all(x) }

// zipArchive adapts a zip reader to Archive.
type zipArchive struct {
	names []string
	files map[string]*zip.File
}

// OpenZip reads the central directory of a zip archive of the given size.
func OpenZip(src io.ReaderAt, size int64) (Archive, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	za := &zipArchive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		za.names = append(za.names, f.Name)
		if _, dup := za.files[f.Name]; !dup {
			za.files[f.Name] = f
		}
	}
	return za, nil
}

func (za *zipArchive) Entries() []string { return za.names }

func (za *zipArchive) OpenEntry(name string) (io.ReadCloser, error) {
	f, ok := za.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return f.Open()
}
