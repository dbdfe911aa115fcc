package catalog

import (
	"context"
	"fmt"

	"github.com/libyal/go-esedb/internal/format"
	"github.com/libyal/go-esedb/internal/pagetree"
	"github.com/libyal/go-esedb/internal/record"
)

// newRecordFormatPages reports whether the given page carries the
// NEW_RECORD_FORMAT tagged-value encoding, per its own flags: each page
// announces this independently, so the catalog must check every leaf page
// it visits rather than assuming one setting file-wide.
func newRecordFormatPages(page format.Page) bool {
	return page.Header.NewRecordFormat()
}

// Scan walks the entire catalog page tree rooted at root (format.CatalogRootPage
// in the common case) and decodes every leaf value into an Entry.
func Scan(ctx context.Context, w *pagetree.Walker, root uint32) ([]Entry, error) {
	page, err := w.LeftmostLeaf(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var out []Entry
	for {
		ents, err := w.LeafEntries(page)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		nrf := newRecordFormatPages(page)
		for _, e := range ents {
			values, err := record.Decode(e.Data, columns, nrf)
			if err != nil {
				return nil, fmt.Errorf("catalog: decoding entry: %w", err)
			}
			out = append(out, entryFromValues(values))
		}

		next, ok, err := w.NextLeaf(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if !ok {
			break
		}
		page = next
	}
	return out, nil
}

func entryFromValues(values []record.Value) Entry {
	var e Entry
	for _, v := range values {
		if v.Null {
			continue
		}
		switch v.Column.Identifier {
		case colObjidTable:
			e.ObjidTable = i32(v.Data)
		case colType:
			e.Type = int(i16(v.Data))
		case colID:
			e.ID = i32(v.Data)
		case colColtypOrPgnoFDP:
			e.ColtypOrPgnoFDP = i32(v.Data)
		case colSpaceUsage:
			e.SpaceUsage = i32(v.Data)
		case colFlags:
			e.Flags = i32(v.Data)
		case colPagesOrLocale:
			e.PagesOrLocale = i32(v.Data)
		case colRootFlag:
			e.RootFlag = len(v.Data) > 0 && v.Data[0] != 0
		case colName:
			e.Name = string(v.Data)
		case colTemplateTable:
			e.TemplateTable = string(v.Data)
		case colDefaultValue:
			e.DefaultValue = append([]byte(nil), v.Data...)
		case colKeyFldIDs:
			e.KeyFldIDs = append([]byte(nil), v.Data...)
		case colVersion:
			e.Version = i32(v.Data)
		}
	}
	return e
}

func i32(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func i16(b []byte) int16 {
	if len(b) < 2 {
		return 0
	}
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

// Build groups a flat entry list into resolved Tables, applying template
// inheritance.
func Build(entries []Entry, opts ResolveOptions) ([]Table, error) {
	tables := make(map[int32]*Table)
	var order []int32

	for _, e := range entries {
		if e.Type != EntryTypeTable {
			continue
		}
		t := &Table{
			ObjectID:          e.ID,
			Name:              e.Name,
			DataTreeRoot:      uint32(e.ColtypOrPgnoFDP),
			TemplateTableName: e.TemplateTable,
		}
		tables[e.ID] = t
		order = append(order, e.ID)
	}

	for _, e := range entries {
		t, ok := tables[e.ObjidTable]
		if !ok {
			continue
		}
		switch e.Type {
		case EntryTypeColumn:
			t.Columns = append(t.Columns, Column{
				Identifier:   uint32(e.ID),
				Name:         e.Name,
				Type:         catalogColumnType(e.ColtypOrPgnoFDP),
				Codepage:     uint32(e.PagesOrLocale) & 0xffff,
				Flags:        record.ColumnFlags(e.Flags),
				DefaultValue: e.DefaultValue,
			})
		case EntryTypeIndex:
			t.Indexes = append(t.Indexes, Index{
				Name:      e.Name,
				KeyFldIDs: e.KeyFldIDs,
				Flags:     e.Flags,
				Locale:    e.PagesOrLocale,
			})
		case EntryTypeLongValue:
			t.LongValueTreeRoot = uint32(e.ColtypOrPgnoFDP)
		}
	}

	if !opts.IgnoreTemplateTable {
		byName := make(map[string]*Table, len(tables))
		for _, t := range tables {
			byName[t.Name] = t
		}
		for _, id := range order {
			t := tables[id]
			if t.TemplateTableName == "" {
				continue
			}
			template, ok := byName[t.TemplateTableName]
			if !ok {
				continue
			}
			have := make(map[uint32]bool, len(t.Columns))
			for _, c := range t.Columns {
				have[c.Identifier] = true
			}
			for _, c := range template.Columns {
				if have[c.Identifier] {
					continue
				}
				c.Inherited = true
				t.Columns = append(t.Columns, c)
			}
		}
	}

	out := make([]Table, 0, len(order))
	for _, id := range order {
		out = append(out, *tables[id])
	}
	return out, nil
}
