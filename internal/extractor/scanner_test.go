package extractor

import (
	"bytes"
	"errors"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_Empty(t *testing.T) {
	descs, err := Scan(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestScan_SinglePicture(t *testing.T) {
	png := payload(1, 100)
	stream := picture(t, TypePNG, 0x6E00, png)

	descs, err := Scan(bytes.NewReader(stream))
	require.NoError(t, err)

	want := []Descriptor{{Offset: HeaderSize + 17, Length: 100, Key: FormatKey{TypePNG, 0x6E00}}}
	if diff := cmp.Diff(want, descs); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_SkipsUnknownRecords(t *testing.T) {
	jpeg := payload(2, 40)
	unknown := record(0xF00B, 0x0013, payload(9, 25))
	emf := payload(3, 70)
	stream := concat(
		picture(t, TypeJPEG, 0x46A0, jpeg),
		unknown,
		picture(t, TypeEMF, 0x3D50, emf),
	)

	descs, err := Scan(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, descs, 2)

	first := HeaderSize + 17 + len(jpeg)
	second := first + len(unknown) + HeaderSize + 66
	want := []Descriptor{
		{Offset: HeaderSize + 17, Length: uint64(len(jpeg)), Key: FormatKey{TypeJPEG, 0x46A0}},
		{Offset: uint64(second), Length: uint64(len(emf)), Key: FormatKey{TypeEMF, 0x3D50}},
	}
	if diff := cmp.Diff(want, descs); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}

	for i, d := range descs {
		got := stream[d.Offset : d.Offset+d.Length]
		assert.Equal(t, [][]byte{jpeg, emf}[i], got, "descriptor %d bounds", i)
	}
}

func TestScan_OnlyUnknownRecords(t *testing.T) {
	stream := concat(record(0xF007, 0x0002, payload(1, 10)), record(0x1234, 0, nil))
	descs, err := Scan(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestScan_ZeroLengthPayload(t *testing.T) {
	stream := concat(picture(t, TypeDIB, 0x7A80, nil), picture(t, TypePNG, 0x6E10, payload(4, 5)))
	descs, err := Scan(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Zero(t, descs[0].Length)
	assert.Equal(t, uint64(5), descs[1].Length)
}

func TestScan_TruncatedRecord(t *testing.T) {
	stream := picture(t, TypePNG, 0x6E00, payload(1, 100))
	stream = stream[:len(stream)-1]

	descs, err := Scan(bytes.NewReader(stream))
	require.Error(t, err)
	assert.Nil(t, descs)
	assert.ErrorIs(t, err, ErrStructural)

	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, uint64(0), se.Offset)
	assert.Equal(t, TypePNG, se.Header.Type)
}

func TestScan_TruncatedHeader(t *testing.T) {
	stream := concat(picture(t, TypePNG, 0x6E00, payload(1, 10)), []byte{0x00, 0x6E, 0x1E})
	_, err := Scan(bytes.NewReader(stream))
	assert.ErrorIs(t, err, ErrStructural)
}

func TestScan_LengthSmallerThanSubHeader(t *testing.T) {
	stream := record(TypeJPEG, 0x46B0, payload(1, 20)) // needs 33
	_, err := Scan(bytes.NewReader(stream))
	require.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "33-byte sub-header")
}

func TestScan_UnknownRecordShorterThanAnySubHeader(t *testing.T) {
	// Sub-header validation only applies to recognized records.
	stream := concat(record(0xF01E, 0x1234, payload(1, 3)), picture(t, TypePNG, 0x6E00, payload(2, 8)))
	descs, err := Scan(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, descs, 1)
}

func TestScan_StartsAtCurrentPosition(t *testing.T) {
	prefix := []byte("junkjunk!")
	stream := concat(prefix, picture(t, TypeTIFF, 0x6E40, payload(5, 12)))
	r := bytes.NewReader(stream)
	_, err := r.Seek(int64(len(prefix)), 0)
	require.NoError(t, err)

	descs, err := Scan(r)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, uint64(len(prefix)+HeaderSize+17), descs[0].Offset)
}

func TestRecordHeader_Version(t *testing.T) {
	h := RecordHeader{Instance: 0x46AF}
	assert.Equal(t, uint16(0xF), h.Version())
}

// Property: for any sequence of pictures and unknown records, offsets are
// strictly increasing and every descriptor covers exactly its payload.
func TestProperty_ScanBoundsAndOrder(t *testing.T) {
	keys := []FormatKey{
		{TypePNG, 0x6E00}, {TypeJPEG, 0x6E30}, {TypeWMF, 0x2170}, {TypeDIB, 0x7A90},
	}
	f := func(sizes []uint8, kinds []uint8) bool {
		var (
			stream   []byte
			payloads [][]byte
		)
		for i, n := range sizes {
			k := byte(0)
			if i < len(kinds) {
				k = kinds[i]
			}
			p := payload(byte(i), int(n))
			if k%5 == 4 {
				stream = append(stream, record(0xF00D, uint16(k), p)...)
				continue
			}
			key := keys[int(k)%len(keys)]
			stream = append(stream, picture(t, key.Type, key.Instance, p)...)
			payloads = append(payloads, p)
		}

		descs, err := Scan(bytes.NewReader(stream))
		if err != nil {
			t.Logf("scan error: %v", err)
			return false
		}
		if len(descs) != len(payloads) {
			t.Logf("got %d descriptors, want %d", len(descs), len(payloads))
			return false
		}
		for i, d := range descs {
			if i > 0 && d.Offset <= descs[i-1].Offset {
				t.Logf("offset %d not increasing", i)
				return false
			}
			if !bytes.Equal(stream[d.Offset:d.Offset+d.Length], payloads[i]) {
				t.Logf("descriptor %d bounds wrong", i)
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 100}); err != nil {
		t.Error(err)
	}
}
