package format

import (
	"fmt"

	"github.com/libyal/go-esedb/internal/buf"
)

// Header is the parsed fixed portion of an EDB file header.
type Header struct {
	Checksum         uint32
	Signature        uint32
	FormatVersion    uint32
	FileType         FileType
	DatabaseTime     uint64
	DatabaseSig      [HeaderDBSignatureSize]byte
	DatabaseState    DBState
	PageSize         uint32
	InitialPageCount uint32
	FormatRevision   uint32
}

// ParseHeader validates and extracts the fields of the file header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	sig := buf.U32LE(b[HeaderSignatureOffset:])
	if sig != Signature {
		return Header{}, fmt.Errorf("header: %w", ErrSignatureMismatch)
	}
	h := Header{
		Checksum:         buf.U32LE(b[HeaderChecksumOffset:]),
		Signature:        sig,
		FormatVersion:    buf.U32LE(b[HeaderFormatVerOffset:]),
		FileType:         FileType(buf.U32LE(b[HeaderFileTypeOffset:])),
		DatabaseTime:     buf.U64LE(b[HeaderDBTimeOffset:]),
		DatabaseState:    DBState(buf.U32LE(b[HeaderDBStateOffset:])),
		PageSize:         buf.U32LE(b[HeaderPageSizeOffset:]),
		InitialPageCount: buf.U32LE(b[HeaderPageCountOffset:]),
		FormatRevision:   buf.U32LE(b[HeaderFormatRevOffset:]),
	}
	copy(h.DatabaseSig[:], b[HeaderDBSignatureOffset:HeaderDBSignatureOffset+HeaderDBSignatureSize])

	if !validPageSize(h.PageSize) {
		return Header{}, fmt.Errorf("header: %w: page size %d", ErrUnsupported, h.PageSize)
	}
	return h, nil
}

func validPageSize(size uint32) bool {
	for _, s := range ValidPageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// IsLegacyChecksum reports whether this header's format version/revision
// selects the legacy XOR-only checksum scheme.
func (h Header) IsLegacyChecksum() bool {
	return h.FormatVersion == LegacyFormatVersion && h.FormatRevision <= LegacyMaxRevision
}

// PageOffset returns the absolute file offset of 1-based page number n:
// page N starts at offset (N+1) * page_size, the first page slot being
// reserved for the file header.
func (h Header) PageOffset(n uint32) int64 {
	return int64(n+1) * int64(h.PageSize)
}
