// Package longvalue implements the long-value store: a second page tree,
// distinct from a table's data tree, whose leaves hold
// a large column value split into segments keyed by
// (long_value_id, segment_offset). Segment 0 holds a small header; every
// other segment holds a chunk of raw value bytes, and the chunks are
// concatenated in key order.
package longvalue

import (
	"context"
	"fmt"

	"github.com/libyal/go-esedb/internal/buf"
	"github.com/libyal/go-esedb/internal/format"
	"github.com/libyal/go-esedb/internal/lrucache"
	"github.com/libyal/go-esedb/internal/pagetree"
)

// DefaultCacheCapacity is the default number of fully-assembled long
// values kept warm by a Store's segment cache (C11).
const DefaultCacheCapacity = 32

// Header is the fixed header stored at segment offset 0 of every long
// value.
type Header struct {
	TotalSize      uint32
	ReferenceCount uint32
}

// Store reads long values out of the page tree rooted at Root, through w.
type Store struct {
	walker *pagetree.Walker
	root   uint32
	cache  *lrucache.Cache[uint32, []byte]
}

// New creates a Store over the long-value tree rooted at root, reached
// through w. capacity bounds the number of assembled values kept cached;
// 0 selects DefaultCacheCapacity.
func New(w *pagetree.Walker, root uint32, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Store{walker: w, root: root, cache: lrucache.New[uint32, []byte](capacity)}
}

// key builds the 8-byte big-endian (id, segmentOffset) long-value key.
// This is the "natural" key orientation Compare's needle side expects; the
// tree's stored leaf keys are the byte-reverse of this (see
// naturalKeyBytes), which is what makes Compare's last-byte-to-first
// needle walk land on the right ordering.
func key(id, segmentOffset uint32) []byte {
	b := make([]byte, 8)
	buf.PutU32BE(b[0:4], id)
	buf.PutU32BE(b[4:8], segmentOffset)
	return b
}

// naturalKeyBytes reverses a stored long-value leaf key back into its
// natural (id, segmentOffset) byte order.
func naturalKeyBytes(stored []byte) []byte {
	out := make([]byte, len(stored))
	for i, b := range stored {
		out[len(stored)-1-i] = b
	}
	return out
}

// Read assembles and returns the full byte stream for long value id,
// walking its segments in ascending offset order. Results are cached by
// id.
func (s *Store) Read(ctx context.Context, id uint32) ([]byte, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}

	needle := pagetree.NewKey(pagetree.KeyTypeLongValue, key(id, 0))
	page, idx, err := s.walker.Seek(ctx, s.root, needle)
	if err != nil {
		return nil, fmt.Errorf("longvalue: id %d: %w", id, err)
	}

	// Segments arrive off the leaf in ascending key order (the page tree's
	// own invariant); reassembly never needs to know whether a segment's
	// key represents the start or the cumulative end of its byte range
	// within the value, since the only thing that matters for reassembly
	// is the order the chunks are visited in.
	var chunks [][]byte
	var header Header
	haveHeader := false

	ents, err := s.walker.LeafEntries(page)
	if err != nil {
		return nil, fmt.Errorf("longvalue: id %d: %w", id, err)
	}
	cur := idx

scan:
	for {
		for cur < len(ents) {
			e := ents[cur]
			natural := naturalKeyBytes(e.Key.Data)
			if len(natural) < 8 || buf.U32BE(natural[0:4]) != id {
				break scan
			}
			segOffset := buf.U32BE(natural[4:8])
			if segOffset == 0 {
				if len(e.Data) < 8 {
					return nil, fmt.Errorf("longvalue: id %d: header segment: %w", id, format.ErrTruncated)
				}
				header = Header{
					TotalSize:      buf.U32LE(e.Data[0:4]),
					ReferenceCount: buf.U32LE(e.Data[4:8]),
				}
				haveHeader = true
			} else {
				chunks = append(chunks, e.Data)
			}
			cur++
		}
		next, ok, err := s.walker.NextLeaf(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("longvalue: id %d: %w", id, err)
		}
		if !ok {
			break
		}
		page = next
		ents, err = s.walker.LeafEntries(page)
		if err != nil {
			return nil, fmt.Errorf("longvalue: id %d: %w", id, err)
		}
		cur = 0
	}
	data, err := assemble(id, header, haveHeader, chunks)
	if err != nil {
		return nil, err
	}
	s.cache.Put(id, data)
	return data, nil
}

// assemble concatenates a long value's data segments in the order they were
// visited (ascending key order, per the page tree's own ordering) and checks
// the result against the header's declared total size. The wire format
// doesn't expose enough to say whether a segment's key is its starting or
// its cumulative ending byte offset within the value (segment_offset 0 is
// reserved for the header, so the first data chunk can't carry a literal
// start-offset of 0 either way); concatenation in key order sidesteps the
// question entirely, and a short result after exhausting every entry for id
// is reported as a missing segment regardless of which convention is true.
func assemble(id uint32, header Header, haveHeader bool, chunks [][]byte) ([]byte, error) {
	if !haveHeader {
		return nil, fmt.Errorf("longvalue: id %d: %w: missing header segment", id, format.ErrInvalidData)
	}
	out := make([]byte, 0, header.TotalSize)
	for _, c := range chunks {
		out = append(out, c...)
	}
	if uint32(len(out)) != header.TotalSize {
		return nil, fmt.Errorf("longvalue: id %d: %w: assembled %d bytes, want %d", id, format.ErrInvalidData, len(out), header.TotalSize)
	}
	return out, nil
}
