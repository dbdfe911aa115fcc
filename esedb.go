// Package esedb is a read-only parser for the Extensible Storage Engine
// Database (EDB) file format: the paginated, B+-tree-structured storage
// engine behind Exchange, Windows Search, SRUM, WebCache, and Active
// Directory databases.
//
// A File exposes the tables the on-disk catalog declares; each Table yields
// a RecordIterator over its rows. Long values (columns too large to fit in
// a record directly) are resolved transparently through LongValueReader.
package esedb

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/libyal/go-esedb/internal/catalog"
	"github.com/libyal/go-esedb/internal/filesource"
	"github.com/libyal/go-esedb/internal/format"
	"github.com/libyal/go-esedb/internal/pager"
	"github.com/libyal/go-esedb/internal/pagetree"
)

// Info summarizes an opened file's header fields, for diagnostics and the
// esedbinfo CLI.
type Info struct {
	PageSize       uint32
	FormatVersion  uint32
	FormatRevision uint32
	FileType       format.FileType
	DatabaseState  format.DBState
}

// File is an opened, read-only EDB database.
type File struct {
	src    filesource.Source
	header format.Header
	pager  *pager.Pager
	tables []*Table
	closed bool
	log    *zap.Logger
}

// newWalker builds a fresh page-tree walker over f's pager. Each walker
// owns a private block tree for cycle detection: reusing one walker across
// independent traversals would make the second traversal trip over the
// first's visited-offset records and misreport a cycle, so every table
// scan and every long-value read gets its own.
func (f *File) newWalker() (*pagetree.Walker, error) {
	if f.closed {
		return nil, ErrClosed
	}
	w, err := pagetree.NewWalker(f.pager, f.src.Size(), f.header.PageSize)
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "build page tree walker", err)
	}
	return w, nil
}

// NewScanSession returns a fresh page-tree walker over f's shared pager,
// for a caller that wants to run a scan concurrently with another one
// already in progress on f. Each walker carries its own private block tree,
// so two sessions never trip each other's cycle detection; the pager
// itself serializes the underlying physical reads, so concurrent sessions
// never race on disk I/O.
func (f *File) NewScanSession() (*pagetree.Walker, error) {
	return f.newWalker()
}

// Open opens the EDB file at path. opts.Mapped selects a memory-mapped
// source over a plain ReadAt-backed one.
func Open(path string, opts OpenOptions) (*File, error) {
	var src filesource.Source
	var err error
	if opts.Mapped {
		src, err = filesource.OpenMapped(path)
	} else {
		src, err = filesource.OpenOSFile(path)
	}
	if err != nil {
		return nil, newError(DomainIO, KindGeneric, "open "+path, err)
	}
	f, err := OpenSource(src, opts)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return f, nil
}

// OpenSource opens an EDB file already backed by an arbitrary
// filesource.Source, for callers supplying their own byte range (an
// in-memory buffer, a network-backed reader, etc).
func OpenSource(src filesource.Source, opts OpenOptions) (*File, error) {
	headerBuf := make([]byte, format.HeaderSize)
	if _, err := src.ReadAt(headerBuf, 0); err != nil {
		return nil, newError(DomainIO, KindGeneric, "read file header", err)
	}
	header, err := format.ParseHeader(headerBuf)
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "parse file header", err)
	}

	log := opts.logger()
	onWarning := opts.OnWarning
	if onWarning == nil {
		onWarning = func(number uint32, err error) {
			log.Warn("tolerated checksum mismatch", zap.Uint32("page", number), zap.Error(err))
		}
	}
	p := pager.New(src, header, opts.PageCacheCapacity, opts.checksumMode(), onWarning)
	f := &File{src: src, header: header, pager: p, log: log}

	w, err := f.newWalker()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	entries, err := catalog.Scan(ctx, w, format.CatalogRootPage)
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "scan catalog", err)
	}
	tables, err := catalog.Build(entries, catalog.ResolveOptions{IgnoreTemplateTable: opts.IgnoreTemplateTable})
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "build catalog", err)
	}
	log.Debug("catalog resolved", zap.Int("entries", len(entries)), zap.Int("tables", len(tables)))

	f.tables = make([]*Table, len(tables))
	for i, t := range tables {
		f.tables[i] = &Table{file: f, def: t, longValueCap: opts.LongValueCacheCapacity}
	}

	return f, nil
}

// Close releases the underlying file source.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.src.Close(); err != nil {
		return newError(DomainIO, KindGeneric, "close", err)
	}
	f.log.Debug("file closed", zap.Any("stats", f.pager.Stats()))
	return nil
}

// Info reports the file's header summary.
func (f *File) Info() Info {
	return Info{
		PageSize:       f.header.PageSize,
		FormatVersion:  f.header.FormatVersion,
		FormatRevision: f.header.FormatRevision,
		FileType:       f.header.FileType,
		DatabaseState:  f.header.DatabaseState,
	}
}

// Tables returns every table the catalog declares, in catalog scan order.
func (f *File) Tables() []*Table {
	return f.tables
}

// TableByName returns the table named name, optionally matched case-
// insensitively.
func (f *File) TableByName(name string, caseInsensitive bool) (*Table, error) {
	for _, t := range f.tables {
		if t.def.Name == name || (caseInsensitive && equalFold(t.def.Name, name)) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("esedb: table %q: %w", name, ErrTableNotFound)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
