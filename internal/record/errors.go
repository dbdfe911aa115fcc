package record

import "errors"

var (
	// ErrTruncated is returned when a data-definition is shorter than its
	// own header fields claim.
	ErrTruncated = errors.New("record: truncated data definition")
	// ErrInvalidData is returned when a data-definition's internal offsets
	// are inconsistent (out of range, decreasing where they must not).
	ErrInvalidData = errors.New("record: invalid data definition")
)

func u16le(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func u32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
