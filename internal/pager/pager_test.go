package pager

import (
	"context"
	"testing"

	"github.com/libyal/go-esedb/internal/format"
)

const testPageSize = 4096

type memSource struct {
	data []byte
}

func (m *memSource) ReadAt(b []byte, off int64) (int, error) {
	n := copy(b, m.data[off:])
	return n, nil
}
func (m *memSource) Size() int64  { return int64(len(m.data)) }
func (m *memSource) Close() error { return nil }

// buildPage writes a minimal, checksum-valid current-format page (empty,
// no tags) at the given 1-based page number's offset within data.
func buildPage(data []byte, header format.Header, number uint32) {
	offset := header.PageOffset(number)
	raw := data[offset : offset+int64(header.PageSize)]
	for i := range raw {
		raw[i] = 0
	}
	putU32LE(raw[format.PageFlagsOffset:], format.PageFlagEmpty|format.PageFlagLeaf)

	zeroed := make([]byte, len(raw))
	copy(zeroed, raw)
	putU32LE(zeroed[format.PageXORChecksumOffset:], 0)
	putU32LE(zeroed[format.PageECCChecksumOffset:], 0)
	result := format.VerifyChecksum(zeroed, number, false)
	putU32LE(raw[format.PageXORChecksumOffset:], uint32(result.Got>>32))
	putU32LE(raw[format.PageECCChecksumOffset:], uint32(result.Got))
}

func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func testHeader() format.Header {
	return format.Header{
		FormatVersion:  0x620,
		FormatRevision: 3, // > LegacyMaxRevision, selects current checksum scheme
		PageSize:       testPageSize,
	}
}

func TestGetPageVerifiesChecksumAndCaches(t *testing.T) {
	header := testHeader()
	data := make([]byte, int64(header.PageSize)*4)
	buildPage(data, header, 1)

	src := &memSource{data: data}
	p := New(src, header, 4, ChecksumStrict, nil)

	page, err := p.GetPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Number != 1 {
		t.Fatalf("unexpected page number %d", page.Number)
	}
	if p.Stats().Misses != 1 || p.Stats().Hits != 0 {
		t.Fatalf("unexpected stats after first fetch: %+v", p.Stats())
	}

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("GetPage (cached): %v", err)
	}
	if p.Stats().Hits != 1 {
		t.Fatalf("expected a cache hit on second fetch, got %+v", p.Stats())
	}
}

func TestGetPageStrictFailsOnCorruption(t *testing.T) {
	header := testHeader()
	data := make([]byte, int64(header.PageSize)*4)
	buildPage(data, header, 1)
	// Corrupt a byte inside the page after the checksum was computed.
	data[header.PageOffset(1)+100] ^= 0xff

	src := &memSource{data: data}
	p := New(src, header, 4, ChecksumStrict, nil)

	if _, err := p.GetPage(context.Background(), 1); err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
	if p.Stats().ChecksumFailures != 1 {
		t.Fatalf("expected one recorded checksum failure, got %+v", p.Stats())
	}
}

func TestGetPageLenientReturnsDespiteMismatch(t *testing.T) {
	header := testHeader()
	data := make([]byte, int64(header.PageSize)*4)
	buildPage(data, header, 1)
	data[header.PageOffset(1)+100] ^= 0xff

	src := &memSource{data: data}
	p := New(src, header, 4, ChecksumLenient, nil)

	page, err := p.GetPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetPage (lenient): %v", err)
	}
	if page.Number != 1 {
		t.Fatalf("unexpected page number %d", page.Number)
	}
	if p.Stats().ChecksumFailures != 1 {
		t.Fatalf("expected recorded checksum failure even in lenient mode, got %+v", p.Stats())
	}
}

func TestGetPageLenientCallsOnWarning(t *testing.T) {
	header := testHeader()
	data := make([]byte, int64(header.PageSize)*4)
	buildPage(data, header, 1)
	data[header.PageOffset(1)+100] ^= 0xff

	src := &memSource{data: data}
	var gotNumber uint32
	var calls int
	p := New(src, header, 4, ChecksumLenient, func(number uint32, err error) {
		calls++
		gotNumber = number
		if err == nil {
			t.Fatalf("expected non-nil warning error")
		}
	})

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("GetPage (lenient): %v", err)
	}
	if calls != 1 || gotNumber != 1 {
		t.Fatalf("expected exactly one warning for page 1, got %d calls for page %d", calls, gotNumber)
	}
}

func TestInvalidateForcesReread(t *testing.T) {
	header := testHeader()
	data := make([]byte, int64(header.PageSize)*4)
	buildPage(data, header, 1)

	src := &memSource{data: data}
	p := New(src, header, 4, ChecksumStrict, nil)

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	p.Invalidate(1)
	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("GetPage after invalidate: %v", err)
	}
	if p.Stats().Misses != 2 {
		t.Fatalf("expected two misses (initial + post-invalidate), got %+v", p.Stats())
	}
}
