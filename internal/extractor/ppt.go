package extractor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"slices"

	"github.com/richardlehane/mscfb"

	"pptextract/internal/chunker"
)

// PicturesStream is the compound-file stream holding all BLIP records of a
// legacy presentation.
const PicturesStream = "Pictures"

// Container is the part of a compound-file reader the legacy variant needs.
type Container interface {
	Exists(name string) bool
	OpenStream(name string) (io.ReadSeeker, error)
}

// PPT extracts images from legacy binary presentations (.ppt, .pps).
type PPT struct {
	stream io.ReadSeeker
	images []Descriptor
}

// NewPPT opens the Pictures stream of c and scans it. A container without
// a Pictures stream has no images; that is not an error.
func NewPPT(c Container) (*PPT, error) {
	if !c.Exists(PicturesStream) {
		return &PPT{}, nil
	}
	s, err := c.OpenStream(PicturesStream)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", PicturesStream, err)
	}
	return NewPPTFromStream(s)
}

// NewPPTFromStream scans an already opened picture stream from its current
// position. The PPT keeps s for later range reads.
func NewPPTFromStream(s io.ReadSeeker) (*PPT, error) {
	descs, err := Scan(s)
	if err != nil {
		return nil, err
	}
	return &PPT{stream: s, images: descs}, nil
}

func (p *PPT) variant() {}

func (p *PPT) Kind() Kind { return KindPPT }

func (p *PPT) Len() int { return len(p.images) }

func (p *PPT) String() string { return describe(p.Len()) }

// Descriptors returns a copy of the scanned image ranges.
func (p *PPT) Descriptors() []Descriptor { return slices.Clone(p.images) }

// Extract reads the raw payload of image index. On a short read the partial
// image is returned along with an error wrapping ErrShortRead.
func (p *PPT) Extract(index int) (*Image, error) {
	if index < 0 || index >= len(p.images) {
		return nil, notFound(index, len(p.images))
	}
	d := p.images[index]
	data, err := chunker.ReadRange(p.stream, int64(d.Offset), int64(d.Length))
	if err != nil && !errors.Is(err, chunker.ErrShortRead) {
		return nil, fmt.Errorf("image %d: %w", index, err)
	}
	ext := d.Ext()
	img := &Image{
		Index: index,
		Name:  fmt.Sprintf("image%d%s", index+1, ext),
		Ext:   ext,
		Data:  data,
	}
	if err != nil {
		return img, fmt.Errorf("image %d: %w", index, err)
	}
	return img, nil
}

func (p *PPT) All() iter.Seq2[*Image, error] { return all(p) }

// compoundFile adapts an mscfb reader to Container.
type compoundFile struct {
	streams map[string]*mscfb.File
	depth   map[string]int
}

// OpenCompoundFile reads the directory of a compound file.
func OpenCompoundFile(src io.ReaderAt) (Container, error) {
	doc, err := mscfb.New(src)
	if err != nil {
		return nil, fmt.Errorf("read compound file: %w", err)
	}
	cf := &compoundFile{
		streams: make(map[string]*mscfb.File),
		depth:   make(map[string]int),
	}
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read compound file directory: %w", err)
		}
		// Embedded storages may reuse stream names; the shallowest wins.
		if d, seen := cf.depth[entry.Name]; seen && d <= len(entry.Path) {
			continue
		}
		cf.streams[entry.Name] = entry
		cf.depth[entry.Name] = len(entry.Path)
	}
	return cf, nil
}

func (cf *compoundFile) Exists(name string) bool {
	_, ok := cf.streams[name]
	return ok
}

func (cf *compoundFile) OpenStream(name string) (io.ReadSeeker, error) {
	f, ok := cf.streams[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return io.NewSectionReader(f, 0, f.Size), nil
}
