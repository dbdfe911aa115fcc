// Package pager reads and caches pages from a file source, verifying each
// page's checksum on first read. It is the only component that touches
// filesource.Source directly; every other component addresses pages by
// number through a Pager. A Pager may be shared by several independent
// pagetree.Walkers (one per concurrent scan session): GetPage serializes
// the underlying read-verify-parse path with a mutex, so sharing one Pager
// never races on the file source even though each Walker's own traversal
// state stays private.
package pager

import (
	"context"
	"fmt"
	"sync"

	"github.com/libyal/go-esedb/internal/filesource"
	"github.com/libyal/go-esedb/internal/format"
	"github.com/libyal/go-esedb/internal/lrucache"
)

// DefaultCacheCapacity is the number of pages kept warm in the bounded LRU
// cache when the caller does not override it.
const DefaultCacheCapacity = 128

// ChecksumMode selects how a checksum mismatch is handled.
type ChecksumMode int

const (
	// ChecksumStrict fails GetPage outright on a mismatch.
	ChecksumStrict ChecksumMode = iota
	// ChecksumLenient returns the page anyway, recording the mismatch in
	// Stats instead of failing (the embedder-selectable lenient mode).
	ChecksumLenient
)

// Stats reports cumulative pager activity, useful for diagnostics and the
// esedbinfo CLI.
type Stats struct {
	Hits             uint64
	Misses           uint64
	ChecksumFailures uint64
}

// Pager serves parsed pages from a file source through a bounded LRU cache.
type Pager struct {
	mu           sync.Mutex
	source       filesource.Source
	header       format.Header
	cache        *lrucache.Cache[uint32, format.Page]
	checksumMode ChecksumMode
	onWarning    func(number uint32, err error)
	stats        Stats
}

// New creates a Pager over source, whose file header has already been
// parsed into header. capacity is the number of pages the LRU cache holds;
// 0 selects DefaultCacheCapacity. onWarning, if non-nil, is called once per
// tolerated checksum mismatch when mode is ChecksumLenient; it is never
// called under ChecksumStrict, where a mismatch fails GetPage instead.
func New(source filesource.Source, header format.Header, capacity int, mode ChecksumMode, onWarning func(number uint32, err error)) *Pager {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Pager{
		source:       source,
		header:       header,
		cache:        lrucache.New[uint32, format.Page](capacity),
		checksumMode: mode,
		onWarning:    onWarning,
	}
}

// PageSize returns the file's page size in bytes.
func (p *Pager) PageSize() uint32 { return p.header.PageSize }

// PageCount returns the number of pages addressable within the source's
// current size, derived from the source's total size rather than the
// header's (possibly stale) initial page count.
func (p *Pager) PageCount() uint32 {
	// Page n lives at (n+1)*PageSize (see format.Header.PageOffset), so
	// the first two page-sized slots hold no numbered page.
	usable := p.source.Size() - 2*int64(p.header.PageSize)
	if usable <= 0 {
		return 0
	}
	return uint32(usable / int64(p.header.PageSize))
}

// Stats returns a snapshot of cumulative pager activity.
func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// GetPage returns page number (1-based), verifying its checksum and
// populating the cache on a miss. Concurrent callers sharing one Pager are
// serialized by mu, so the underlying file source only ever sees one read
// in flight at a time.
func (p *Pager) GetPage(ctx context.Context, number uint32) (format.Page, error) {
	if err := ctx.Err(); err != nil {
		return format.Page{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if page, ok := p.cache.Get(number); ok {
		p.stats.Hits++
		return page, nil
	}
	p.stats.Misses++

	raw := make([]byte, p.header.PageSize)
	offset := p.header.PageOffset(number)
	if _, err := p.source.ReadAt(raw, offset); err != nil {
		return format.Page{}, fmt.Errorf("pager: read page %d at offset %d: %w", number, offset, err)
	}

	result := format.VerifyChecksum(raw, number, p.header.IsLegacyChecksum())
	if !result.OK {
		p.stats.ChecksumFailures++
		mismatch := fmt.Errorf("pager: page %d: %w: expected %#x, got %#x",
			number, format.ErrChecksumMismatch, result.Expected, result.Got)
		if p.checksumMode == ChecksumStrict {
			return format.Page{}, mismatch
		}
		if p.onWarning != nil {
			p.onWarning(number, mismatch)
		}
	}

	page, err := format.ParsePage(raw, number, p.header.PageSize)
	if err != nil {
		return format.Page{}, fmt.Errorf("pager: %w", err)
	}

	p.cache.Put(number, page)
	return page, nil
}

// Invalidate drops number from the cache, forcing the next GetPage to
// re-read and re-verify it from the source.
func (p *Pager) Invalidate(number uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Delete(number)
}
