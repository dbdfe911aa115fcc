package pagetree

import (
	"context"
	"fmt"

	"github.com/libyal/go-esedb/internal/blocktree"
	"github.com/libyal/go-esedb/internal/buf"
	"github.com/libyal/go-esedb/internal/format"
)

// PageSource retrieves a parsed page by its logical page number. It is
// satisfied by the pager's bounded cache.
type PageSource interface {
	GetPage(ctx context.Context, pageNumber uint32) (format.Page, error)
}

// Entry is one page value reconstituted to its full key (common prefix +
// local key bytes), alongside its raw payload. For a branch page the
// payload is the 4-byte child page number; for a leaf page it is the
// record or catalog-entry bytes the caller decodes further.
type Entry struct {
	Key       Key
	Data      []byte
	IsDefunct bool
}

// ChildPageNumber interprets a branch entry's payload as a child page
// number.
func (e Entry) ChildPageNumber() uint32 {
	return buf.U32LE(e.Data)
}

// Walker descends a page tree from a root page to locate or scan leaf
// values, mediating every page visit through a block tree so that a cycle
// in sibling/child pointers is detected rather than looped forever.
type Walker struct {
	pages      PageSource
	visits     *blocktree.Tree
	pageSize   uint32
	FlexibleMatch bool // gates the Windows XP search-database key quirk; see Compare
}

// NewWalker creates a walker over a file spanning fileSize bytes of
// pageSize-sized pages. Each Walker owns a private block tree: concurrent
// scans over the same pager must use separate Walkers (see
// esedb.File.NewScanSession), since reusing one walker across independent
// traversals would make the second traversal trip over the first's
// visited-offset records and misreport a cycle.
func NewWalker(pages PageSource, fileSize int64, pageSize uint32) (*Walker, error) {
	tree, err := blocktree.New(fileSize, int64(pageSize))
	if err != nil {
		return nil, fmt.Errorf("pagetree: %w", err)
	}
	return &Walker{pages: pages, visits: tree, pageSize: pageSize}, nil
}

func (w *Walker) visit(offset int64, pageNumber uint32) error {
	existing, inserted := w.visits.Insert(offset, &blocktree.Descriptor{PageNumber: pageNumber})
	if !inserted {
		return fmt.Errorf("pagetree: cycle detected: page %d revisits offset %d (first seen as page %d)",
			pageNumber, offset, existing.PageNumber)
	}
	return nil
}

// entries decodes page's tag array into key-reconstituted Entry values. On
// a root page, tag 0 is the root header and is skipped: entries start at
// tag 1. Each subsequent key is the previous entry's full key, truncated to
// that entry's CommonKeySize, with the new local key appended.
func entries(page format.Page, keyType KeyType) ([]Entry, error) {
	start := 0
	if page.Header.IsRoot() {
		start = 1
	}

	out := make([]Entry, 0, len(page.Tags)-start)
	var previous []byte

	for i := start; i < len(page.Tags); i++ {
		tag := page.Tags[i]
		raw := page.Value(tag)

		pv, err := format.ParsePageValue(raw, tag.HasCommonKeySize())
		if err != nil {
			return nil, fmt.Errorf("pagetree: entry %d: %w", i, err)
		}

		full := make([]byte, 0, int(pv.CommonKeySize)+len(pv.LocalKey))
		if int(pv.CommonKeySize) > len(previous) {
			return nil, fmt.Errorf("pagetree: entry %d: common key size %d exceeds previous key length %d",
				i, pv.CommonKeySize, len(previous))
		}
		full = append(full, previous[:pv.CommonKeySize]...)
		full = append(full, pv.LocalKey...)

		out = append(out, Entry{
			Key:       Key{Type: keyType, Data: full},
			Data:      pv.Data,
			IsDefunct: tag.IsDefunct(),
		})
		previous = full
	}
	return out, nil
}

// Seek descends from root to the leaf entry matching needle. It returns the
// leaf page the entry was found on and the matching entry's index within
// that page's decoded entries, or an error (including "not found" surfaced
// as format.ErrInvalidData) when no entry matches.
func (w *Walker) Seek(ctx context.Context, root uint32, needle Key) (format.Page, int, error) {
	pageNumber := root

	for {
		page, err := w.pages.GetPage(ctx, pageNumber)
		if err != nil {
			return format.Page{}, 0, fmt.Errorf("pagetree: seek: %w", err)
		}
		if err := w.visit(int64(pageNumber)*int64(w.pageSize), pageNumber); err != nil {
			return format.Page{}, 0, err
		}

		if page.Header.IsLeaf() {
			ents, err := entries(page, KeyTypeLeaf)
			if err != nil {
				return format.Page{}, 0, err
			}
			for i, e := range ents {
				if e.IsDefunct {
					continue
				}
				result, err := CompareWithFlexibleMatch(needle, e.Key, w.FlexibleMatch)
				if err != nil {
					return format.Page{}, 0, err
				}
				if result == Equal {
					return page, i, nil
				}
			}
			return format.Page{}, 0, fmt.Errorf("pagetree: %w: key not found", format.ErrInvalidData)
		}

		ents, err := entries(page, KeyTypeBranch)
		if err != nil {
			return format.Page{}, 0, err
		}
		child, found := w.selectChild(needle, ents)
		if !found {
			return format.Page{}, 0, fmt.Errorf("pagetree: %w: no child branch for key", format.ErrInvalidData)
		}
		pageNumber = child
	}
}

// selectChild picks the first branch entry whose separator compares Equal
// or LessOrEqual to needle: the first value for which the comparison is
// Equal or LessEqual determines the child to descend into.
func (w *Walker) selectChild(needle Key, branchEntries []Entry) (uint32, bool) {
	for _, e := range branchEntries {
		if e.IsDefunct {
			continue
		}
		result, err := CompareWithFlexibleMatch(needle, e.Key, w.FlexibleMatch)
		if err != nil {
			continue
		}
		if result == Equal || result == LessOrEqual {
			return e.ChildPageNumber(), true
		}
	}
	if len(branchEntries) > 0 {
		return branchEntries[len(branchEntries)-1].ChildPageNumber(), true
	}
	return 0, false
}

// LeftmostLeaf descends from root to the leftmost (lowest-keyed) leaf page,
// the starting point for a full table scan.
func (w *Walker) LeftmostLeaf(ctx context.Context, root uint32) (format.Page, error) {
	pageNumber := root
	for {
		page, err := w.pages.GetPage(ctx, pageNumber)
		if err != nil {
			return format.Page{}, fmt.Errorf("pagetree: leftmost leaf: %w", err)
		}
		if err := w.visit(int64(pageNumber)*int64(w.pageSize), pageNumber); err != nil {
			return format.Page{}, err
		}
		if page.Header.IsLeaf() {
			return page, nil
		}
		ents, err := entries(page, KeyTypeBranch)
		if err != nil {
			return format.Page{}, err
		}
		if len(ents) == 0 {
			return format.Page{}, fmt.Errorf("pagetree: %w: empty branch page %d", format.ErrInvalidData, pageNumber)
		}
		pageNumber = ents[0].ChildPageNumber()
	}
}

// LeafEntries decodes all non-defunct leaf entries on page, in key order.
func (w *Walker) LeafEntries(page format.Page) ([]Entry, error) {
	ents, err := entries(page, KeyTypeLeaf)
	if err != nil {
		return nil, err
	}
	live := ents[:0]
	for _, e := range ents {
		if !e.IsDefunct {
			live = append(live, e)
		}
	}
	return live, nil
}

// NextLeaf follows page's sibling "next" pointer to return the next leaf
// page in key order, or (format.Page{}, false, nil) when page has no
// successor (the last leaf in the tree).
func (w *Walker) NextLeaf(ctx context.Context, page format.Page) (format.Page, bool, error) {
	if page.Header.Next == 0 {
		return format.Page{}, false, nil
	}
	next, err := w.pages.GetPage(ctx, page.Header.Next)
	if err != nil {
		return format.Page{}, false, fmt.Errorf("pagetree: next leaf: %w", err)
	}
	if err := w.visit(int64(page.Header.Next)*int64(w.pageSize), page.Header.Next); err != nil {
		return format.Page{}, false, err
	}
	return next, true, nil
}
