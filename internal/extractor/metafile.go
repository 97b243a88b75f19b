package extractor

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"pptextract/internal/chunker"
)

// MetafileHeaderSize is the size of the OfficeArtMetafileHeader that ends
// the sub-header of EMF, WMF and PICT records.
const MetafileHeaderSize = 34

// Metafile compression methods.
const (
	CompressionDeflate byte = 0x00
	CompressionNone    byte = 0xFE
)

// MetafileHeader is the OfficeArtMetafileHeader of a metafile BLIP.
type MetafileHeader struct {
	Size        uint32   // uncompressed size of the metafile
	Bounds      [4]int32 // left, top, right, bottom
	PointSize   [2]int32 // width, height in EMUs
	SavedSize   uint32   // size of the (possibly compressed) payload
	Compression byte
	Filter      byte
}

// Compressed reports whether the payload is DEFLATE compressed.
func (h MetafileHeader) Compressed() bool { return h.Compression == CompressionDeflate }

func parseMetafileHeader(b []byte) MetafileHeader {
	var h MetafileHeader
	h.Size = binary.LittleEndian.Uint32(b[0:4])
	for i := range h.Bounds {
		h.Bounds[i] = int32(binary.LittleEndian.Uint32(b[4+4*i:]))
	}
	h.PointSize[0] = int32(binary.LittleEndian.Uint32(b[20:24]))
	h.PointSize[1] = int32(binary.LittleEndian.Uint32(b[24:28]))
	h.SavedSize = binary.LittleEndian.Uint32(b[28:32])
	h.Compression = b[32]
	h.Filter = b[33]
	return h
}

// MetafileHeader reads the metafile header that immediately precedes the
// payload of image index. It fails for non-metafile images.
func (p *PPT) MetafileHeader(index int) (MetafileHeader, error) {
	if index < 0 || index >= len(p.images) {
		return MetafileHeader{}, notFound(index, len(p.images))
	}
	d := p.images[index]
	if !IsMetafile(d.Key.Type) {
		return MetafileHeader{}, fmt.Errorf("image %d is %s, not a metafile", index, d.Ext())
	}
	b, err := chunker.ReadRange(p.stream, int64(d.Offset)-MetafileHeaderSize, MetafileHeaderSize)
	if err != nil {
		return MetafileHeader{}, fmt.Errorf("image %d: read metafile header: %w", index, err)
	}
	return parseMetafileHeader(b), nil
}

// ExtractInflated is Extract with compressed metafiles inflated, so EMF and
// WMF payloads come out as files other tools can open. Raster images are
// returned unchanged.
func (p *PPT) ExtractInflated(index int) (*Image, error) {
	img, err := p.Extract(index)
	if err != nil {
		return img, err
	}
	if !IsMetafile(p.images[index].Key.Type) {
		return img, nil
	}
	h, err := p.MetafileHeader(index)
	if err != nil {
		return nil, err
	}
	if !h.Compressed() {
		return img, nil
	}
	data, err := InflateMetafile(img.Data)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", index, err)
	}
	img.Data = data
	return img, nil
}

// InflateMetafile decompresses a zlib-wrapped DEFLATE metafile payload.
func InflateMetafile(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflate metafile: %w", err)
	}
	defer zr.Close()
	out, err := chunker.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate metafile: %w", err)
	}
	return out, nil
}
