package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_KnownVariants(t *testing.T) {
	tests := []struct {
		typ, instance uint16
		extra         uint32
		ext           string
	}{
		{TypeEMF, 0x3D40, 50, ".emf"},
		{TypeEMF, 0x3D50, 66, ".emf"},
		{TypeWMF, 0x2160, 50, ".wmf"},
		{TypeWMF, 0x2170, 66, ".wmf"},
		{TypePICT, 0x5420, 50, ".pict"},
		{TypePICT, 0x5430, 50, ".pict"},
		{TypeJPEG, 0x46A0, 17, ".jpeg"},
		{TypeJPEG, 0x6E20, 17, ".jpeg"},
		{TypeJPEG, 0x46B0, 33, ".jpeg"},
		{TypeJPEG, 0x6E30, 33, ".jpeg"},
		{TypePNG, 0x6E00, 17, ".png"},
		{TypePNG, 0x6E10, 33, ".png"},
		{TypeDIB, 0x7A80, 17, ".dib"},
		{TypeDIB, 0x7A90, 33, ".dib"},
		{TypeTIFF, 0x6E40, 17, ".tiff"},
		{TypeTIFF, 0x6E50, 33, ".tiff"},
	}
	for _, tt := range tests {
		e, ok := Lookup(tt.typ, tt.instance)
		if assert.True(t, ok, "0x%04X/0x%04X", tt.typ, tt.instance) {
			assert.Equal(t, FormatEntry{tt.extra, tt.ext}, e)
		}
	}
	assert.Len(t, Formats(), len(tests))
}

func TestLookup_Unknown(t *testing.T) {
	for _, k := range []FormatKey{{0, 0}, {TypePNG, 0x6E20}, {0xF00B, 0x0013}, {0xFFFF, 0xFFFF}} {
		e, ok := Lookup(k.Type, k.Instance)
		assert.False(t, ok)
		assert.Zero(t, e)
	}
}

func TestFormats_ReturnsCopy(t *testing.T) {
	m := Formats()
	delete(m, FormatKey{TypePNG, 0x6E00})
	_, ok := Lookup(TypePNG, 0x6E00)
	assert.True(t, ok)
}

func TestIsMetafile(t *testing.T) {
	for _, typ := range []uint16{TypeEMF, TypeWMF, TypePICT} {
		assert.True(t, IsMetafile(typ))
	}
	for _, typ := range []uint16{TypeJPEG, TypePNG, TypeDIB, TypeTIFF, 0} {
		assert.False(t, IsMetafile(typ))
	}
}
