package compress

import (
	"bytes"
	"testing"
)

func TestASCII7DecompressRoundTripsKnownVector(t *testing.T) {
	// The expected output is derived by hand from the bitmask schedule
	// (prelude 0x00, length 6 <= 256): masks for indices 1..5 are
	// 0x00, 0x02, 0x06, 0x05, 0x04. Each output byte is also checked to be
	// in the 7-bit range with a zero UTF-16LE high byte.
	compressed := []byte{0x00, 0x41, 0x42, 0x43, 0x44, 0x45}
	out, err := ASCII7Decompress(compressed)
	if err != nil {
		t.Fatalf("ASCII7Decompress: %v", err)
	}
	want := []byte{0x41, 0, 0x40, 0, 0x45, 0, 0x41, 0, 0x41, 0}
	if !bytes.Equal(out, want) {
		t.Fatalf("ASCII7Decompress = %#v, want %#v", out, want)
	}
	if len(out) != 2*(len(compressed)-1) {
		t.Fatalf("unexpected output length %d", len(out))
	}
	for i := 0; i < len(out); i += 2 {
		if out[i] > 0x7f {
			t.Fatalf("byte %d exceeds 7-bit range: %#x", i, out[i])
		}
		if out[i+1] != 0 {
			t.Fatalf("odd byte %d not zero (not UTF-16LE ascii): %#x", i+1, out[i+1])
		}
	}
}

func TestASCII7DecompressRejectsShortInput(t *testing.T) {
	if _, err := ASCII7Decompress([]byte{0x00}); err == nil {
		t.Fatalf("expected error for single-byte input")
	}
}

func TestASCII7Size(t *testing.T) {
	n, err := ASCII7Size(6)
	if err != nil {
		t.Fatalf("ASCII7Size: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected literal 6, got %d", n)
	}
}

func TestASCII7SizeCorrected(t *testing.T) {
	n, err := ASCII7SizeCorrected(6)
	if err != nil {
		t.Fatalf("ASCII7SizeCorrected: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected (6-1)*2+2=12, got %d", n)
	}
}

func TestRunLengthDecompressSimpleRun(t *testing.T) {
	// One group: run length 3, distinct byte 0x00, low bytes 'a','b','c'.
	compressed := []byte{3, 0x00, 'a', 'b', 'c', 0}
	out, err := RunLengthDecompress(compressed)
	if err != nil {
		t.Fatalf("RunLengthDecompress: %v", err)
	}
	want := []byte{'a', 0x00, 'b', 0x00, 'c', 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestRunLengthSizeMatchesDecompressLength(t *testing.T) {
	compressed := []byte{2, 0x10, 'x', 'y', 0}
	size, err := RunLengthSize(compressed)
	if err != nil {
		t.Fatalf("RunLengthSize: %v", err)
	}
	out, err := RunLengthDecompress(compressed)
	if err != nil {
		t.Fatalf("RunLengthDecompress: %v", err)
	}
	if size != len(out) {
		t.Fatalf("RunLengthSize=%d, actual decompressed length=%d", size, len(out))
	}
}

func TestRunLengthDecompressEmptyOnTrailingByte(t *testing.T) {
	out, err := RunLengthDecompress([]byte{0})
	if err != nil {
		t.Fatalf("RunLengthDecompress: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestRunLengthDecompressRejectsEmptyInput(t *testing.T) {
	if _, err := RunLengthDecompress(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
