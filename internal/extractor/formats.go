package extractor

import "maps"

// BLIP record types from the drawing-object (OfficeArt) format.
const (
	TypeEMF  uint16 = 0xF01A
	TypeWMF  uint16 = 0xF01B
	TypePICT uint16 = 0xF01C
	TypeJPEG uint16 = 0xF01D
	TypePNG  uint16 = 0xF01E
	TypeDIB  uint16 = 0xF01F
	TypeTIFF uint16 = 0xF029
)

// FormatKey identifies a picture record variant. Instance is the full first
// header word (recVer in the low 4 bits, recInstance above it).
type FormatKey struct {
	Type     uint16
	Instance uint16
}

// FormatEntry describes the sub-header that precedes the image bytes and the
// file extension of the payload.
type FormatEntry struct {
	ExtraHeader uint32
	Ext         string
}

// formats maps every recognized BLIP variant to its sub-header size. The
// single/dual UID variants differ by 16 bytes; metafiles add a 34-byte
// OfficeArtMetafileHeader.
var formats = map[FormatKey]FormatEntry{
	{TypeEMF, 0x3D40}: {50, ".emf"},
	{TypeEMF, 0x3D50}: {66, ".emf"},

	{TypeWMF, 0x2160}: {50, ".wmf"},
	{TypeWMF, 0x2170}: {66, ".wmf"},

	{TypePICT, 0x5420}: {50, ".pict"},
	{TypePICT, 0x5430}: {50, ".pict"},

	{TypeJPEG, 0x46A0}: {17, ".jpeg"},
	{TypeJPEG, 0x6E20}: {17, ".jpeg"},
	{TypeJPEG, 0x46B0}: {33, ".jpeg"},
	{TypeJPEG, 0x6E30}: {33, ".jpeg"},

	{TypePNG, 0x6E00}: {17, ".png"},
	{TypePNG, 0x6E10}: {33, ".png"},

	{TypeDIB, 0x7A80}: {17, ".dib"},
	{TypeDIB, 0x7A90}: {33, ".dib"},

	{TypeTIFF, 0x6E40}: {17, ".tiff"},
	{TypeTIFF, 0x6E50}: {33, ".tiff"},
}

// Lookup returns the format entry for a record, or false when the record is
// not a recognized picture record.
func Lookup(typ, instance uint16) (FormatEntry, bool) {
	e, ok := formats[FormatKey{Type: typ, Instance: instance}]
	return e, ok
}

// Formats returns a copy of the format table.
func Formats() map[FormatKey]FormatEntry {
	return maps.Clone(formats)
}

// IsMetafile reports whether records of this type carry an
// OfficeArtMetafileHeader (and so may hold a DEFLATE-compressed payload).
func IsMetafile(typ uint16) bool {
	switch typ {
	case TypeEMF, TypeWMF, TypePICT:
		return true
	}
	return false
}
