package compress

import "fmt"

// RunLengthSize returns the decompressed byte size of a Windows
// Search-style run-length compressed UTF-16 string, without performing the
// decompression. Ported from
// windows_search_utf16_run_length_compression_get_size.
func RunLengthSize(compressed []byte) (int, error) {
	if len(compressed) < 1 {
		return 0, fmt.Errorf("compress: run-length: %w: compressed data too small", ErrInvalidData)
	}
	offset := 0
	size := 0
	for offset < len(compressed) {
		runLength := int(compressed[offset])
		offset++

		// The last byte of the stream is either a trailing run length with
		// no byte count following it, or the run-length byte itself — either
		// way, nothing more to decode.
		if offset >= len(compressed)-1 {
			break
		}
		if offset+1+runLength > len(compressed) {
			runLength = len(compressed) - offset - 1
		}
		size += runLength * 2
		offset += runLength + 1
	}
	if offset > len(compressed) {
		return 0, fmt.Errorf("compress: run-length: %w: truncated stream", ErrInvalidData)
	}
	return size, nil
}

// RunLengthDecompress decompresses a Windows Search-style run-length
// compressed UTF-16LE string. The stream is a sequence of
// (run_length byte, distinct_byte, run_length further low-bytes) groups:
// each low byte is paired with the group's distinct_byte to form one
// UTF-16LE code unit. Ported from
// windows_search_utf16_run_length_compression_decompress.
func RunLengthDecompress(compressed []byte) ([]byte, error) {
	if len(compressed) < 1 {
		return nil, fmt.Errorf("compress: run-length: %w: compressed data too small", ErrInvalidData)
	}
	size, err := RunLengthSize(compressed)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, size)

	offset := 0
	for offset < len(compressed) {
		runLength := int(compressed[offset])
		offset++

		if offset >= len(compressed)-1 {
			break
		}
		if offset+1+runLength > len(compressed) {
			runLength = len(compressed) - offset - 1
		}
		if offset >= len(compressed) {
			return nil, fmt.Errorf("compress: run-length: %w: truncated stream", ErrInvalidData)
		}
		distinctByte := compressed[offset]
		offset++

		for ; runLength > 0; runLength-- {
			if offset >= len(compressed) {
				return nil, fmt.Errorf("compress: run-length: %w: truncated run", ErrInvalidData)
			}
			out = append(out, compressed[offset], distinctByte)
			offset++
		}
	}
	return out, nil
}
