package extractor

import (
	"bytes"
	"io"
	"testing"

	"pptextract/internal/testutil"
)

func record(typ, instance uint16, body []byte) []byte {
	return testutil.Record(typ, instance, body)
}

// picture encodes a BLIP record with the sub-header its format expects.
func picture(t testing.TB, typ, instance uint16, payload []byte) []byte {
	t.Helper()
	e, ok := Lookup(typ, instance)
	if !ok {
		t.Fatalf("no format entry for 0x%04X/0x%04X", typ, instance)
	}
	return testutil.Picture(typ, instance, int(e.ExtraHeader), payload)
}

func payload(tag byte, n int) []byte {
	return testutil.Payload(tag, n)
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// truncatingStream reports the full size of data but, once limit is set to
// a non-negative value, stops delivering bytes past it. This simulates a
// stream that shrinks between scan and extract.
type truncatingStream struct {
	*bytes.Reader
	limit int64
}

func newTruncatingStream(data []byte) *truncatingStream {
	return &truncatingStream{Reader: bytes.NewReader(data), limit: -1}
}

func (s *truncatingStream) Read(p []byte) (int, error) {
	if s.limit < 0 {
		return s.Reader.Read(p)
	}
	pos, _ := s.Reader.Seek(0, io.SeekCurrent)
	if pos >= s.limit {
		return 0, io.EOF
	}
	if rem := s.limit - pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	return s.Reader.Read(p)
}
