package esedb

import (
	"go.uber.org/zap"

	"github.com/libyal/go-esedb/internal/pager"
)

// OpenOptions controls safety/performance tradeoffs when opening a file,
// following an embedder-selectable lenient mode.
type OpenOptions struct {
	// Mapped selects a memory-mapped file source over a plain os.File-backed
	// one. Mapped serves page reads from the mapping instead of a read system
	// call (each page is still copied into the pager's buffer), at the cost of
	// address space and platform mmap limits; the default (false) is the
	// portable ReadAt-backed source.
	Mapped bool

	// Tolerant relaxes page checksum verification from a hard failure to a
	// recorded warning, handed to OnWarning if set. Catalog and record
	// decode errors are never tolerated regardless of this flag: lenient
	// mode scopes to the pager only.
	Tolerant bool

	// OnWarning, when non-nil, receives one call per tolerated checksum
	// mismatch. Ignored unless Tolerant is set.
	OnWarning func(pageNumber uint32, err error)

	// PageCacheCapacity overrides the pager's bounded LRU cache size; 0
	// selects pager.DefaultCacheCapacity.
	PageCacheCapacity int

	// LongValueCacheCapacity overrides the long-value store's assembled-
	// value cache size; 0 selects longvalue.DefaultCacheCapacity.
	LongValueCacheCapacity int

	// IgnoreTemplateTable skips template-table column inheritance when
	// building the catalog.
	IgnoreTemplateTable bool

	// Logger receives structured Debug events for catalog resolution and for
	// the pager's cache statistics at Close, plus a Warn event per tolerated
	// checksum mismatch when OnWarning is nil. A nil Logger
	// selects zap.NewNop(), so diagnostics stay cheap by default.
	Logger *zap.Logger
}

func (o OpenOptions) checksumMode() pager.ChecksumMode {
	if o.Tolerant {
		return pager.ChecksumLenient
	}
	return pager.ChecksumStrict
}

func (o OpenOptions) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
