// Package filesource provides the byte-range source the pager reads pages
// from. Two implementations are offered, mirroring the tradeoff other
// binary-format readers in the corpus make between mmap (saferwall-pe) and
// plain ReadAt (hivekit's os.File-backed reader): Mapped serves each read
// from a memory mapping instead of a read system call (it still copies the
// range into the caller's buffer), at the cost of address space and
// platform mmap limits; OSFile is portable and bounds its memory use to the
// pager's cache.
package filesource

import (
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Source is a read-only, randomly-addressable byte range: a file opened for
// reading, or something that looks like one.
type Source interface {
	// ReadAt reads len(b) bytes starting at off. It returns io.EOF (possibly
	// wrapped) if fewer bytes are available, following io.ReaderAt's contract.
	ReadAt(b []byte, off int64) (int, error)
	// Size returns the total size of the source in bytes.
	Size() int64
	// Close releases any resources (file descriptor, mapping) held by the
	// source.
	Close() error
}

// osFileSource reads via os.File.ReadAt, copying each requested range.
type osFileSource struct {
	f    *os.File
	size int64
}

// OpenOSFile opens path for reading without mapping it into memory.
func OpenOSFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filesource: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filesource: %w", err)
	}
	return &osFileSource{f: f, size: info.Size()}, nil
}

func (s *osFileSource) ReadAt(b []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("filesource: read at %d: %w", off, err)
	}
	return n, err
}

func (s *osFileSource) Size() int64 { return s.size }

func (s *osFileSource) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("filesource: %w", err)
	}
	return nil
}

// mappedSource reads from a read-only memory mapping of the whole file.
type mappedSource struct {
	f    *os.File
	data mmap.MMap
}

// OpenMapped memory-maps path for reading.
func OpenMapped(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filesource: %w", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filesource: mmap: %w", err)
	}
	adviseRandomAccess(data)
	return &mappedSource{f: f, data: data}, nil
}

func (s *mappedSource) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.data)) {
		return 0, fmt.Errorf("filesource: read at %d: %w", off, io.EOF)
	}
	n := copy(b, s.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (s *mappedSource) Size() int64 { return int64(len(s.data)) }

func (s *mappedSource) Close() error {
	if err := s.data.Unmap(); err != nil {
		return fmt.Errorf("filesource: unmap: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("filesource: %w", err)
	}
	return nil
}
