package cli

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"pptextract/internal/extractor"
)

const (
	bmpFileHeaderLen = 14
	biBitfields      = 3
)

// Dimensions reads the pixel size from the image header without decoding
// pixel data. DIB payloads are given a bitmap file header first.
func Dimensions(img *extractor.Image) (width, height int, ok bool) {
	data := img.Data
	if img.Ext == ".dib" {
		if data = DIBToBMP(data); data == nil {
			return 0, 0, false
		}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// DIBToBMP prepends a BITMAPFILEHEADER to a device-independent bitmap so it
// can be read as a .bmp file. It returns nil if the info header is too short.
func DIBToBMP(dib []byte) []byte {
	if len(dib) < 40 {
		return nil
	}
	le := binary.LittleEndian
	infoLen := le.Uint32(dib[0:4])
	if infoLen < 40 || int(infoLen) > len(dib) {
		return nil
	}
	bitCount := le.Uint16(dib[14:16])
	compression := le.Uint32(dib[16:20])
	colors := le.Uint32(dib[32:36])
	if colors == 0 && bitCount <= 8 {
		colors = 1 << bitCount
	}
	offset := bmpFileHeaderLen + infoLen + 4*colors
	if compression == biBitfields && infoLen == 40 {
		offset += 12
	}

	out := make([]byte, bmpFileHeaderLen, bmpFileHeaderLen+len(dib))
	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(bmpFileHeaderLen+len(dib)))
	le.PutUint32(out[10:], offset)
	return append(out, dib...)
}
