// Package compress implements the two text compression schemes ESE tags a
// COMPRESSED column with: a 7-bit ASCII packing used by
// Exchange-era stores, and a byte-oriented run-length scheme used by
// Windows Search databases. Both are ported from esedbtools' ascii7.c and
// windows_search_compression.c.
package compress

import "fmt"

// ASCII7Decompress unpacks a 7-bit-ASCII-compressed column value into its
// UTF-16LE form. compressed must be at least 2 bytes: compressed[0] is the
// bitmask prelude, mixed into the mask of every byte whose index is a
// multiple of 4, and every following byte decodes to one UTF-16 code unit,
// XORed against a repeating 4-byte bitmask sequence that itself depends on
// compressed's length — ported verbatim from
// ascii7_decompress_to_utf16_string. The output is exactly
// 2*(len(compressed)-1) bytes: no terminator is appended, so it is 2 bytes
// shorter than ASCII7SizeCorrected's figure.
func ASCII7Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) <= 1 {
		return nil, fmt.Errorf("compress: ascii7: %w: compressed data too small", ErrInvalidData)
	}
	n := len(compressed) - 1
	out := make([]byte, 0, n*2)

	for i := 1; i < len(compressed); i++ {
		var bitmask byte
		switch i % 4 {
		case 0:
			bitmask = compressed[0] ^ byte(i+1)
		case 1:
			bitmask = byte(i)
			if len(compressed) <= 256 {
				bitmask--
			}
		case 2:
			bitmask = byte(i)
		case 3:
			bitmask = byte(i) ^ 0x05
		}
		unit := compressed[i] ^ bitmask
		out = append(out, unit, 0) // UTF-16LE, high byte always zero: the format only expands to 7-bit code points
	}
	return out, nil
}

// ASCII7Size returns the literal uncompressed-size figure the source
// library computes: compressedLen itself. The source's own comment claims
// the uncompressed size is (compressedLen-1)*2+2, but the code it
// documents returns compressedLen unconditionally — see ASCII7SizeCorrected
// for the value the comment actually describes. Callers that need to
// match upstream's on-disk behavior byte-for-byte should use this one.
func ASCII7Size(compressedLen int) (int, error) {
	if compressedLen <= 1 {
		return 0, fmt.Errorf("compress: ascii7: %w: compressed data too small", ErrInvalidData)
	}
	return compressedLen, nil
}

// ASCII7SizeCorrected returns the mathematically consistent uncompressed
// byte size: (compressedLen-1)*2+2, i.e. one UTF-16 code unit per
// compressed byte after the bitmask prelude, plus a 2-byte terminator.
func ASCII7SizeCorrected(compressedLen int) (int, error) {
	if compressedLen <= 1 {
		return 0, fmt.Errorf("compress: ascii7: %w: compressed data too small", ErrInvalidData)
	}
	return (compressedLen-1)*2 + 2, nil
}
