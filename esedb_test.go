package esedb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libyal/go-esedb/internal/format"
)

const testPageSize = 4096

// byteSource is a filesource.Source backed by an in-memory buffer, letting
// tests build a whole synthetic database without touching disk.
type byteSource struct{ data []byte }

func (b *byteSource) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, b.data[off:])
	return n, nil
}
func (b *byteSource) Size() int64 { return int64(len(b.data)) }
func (b *byteSource) Close() error { return nil }

func put16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func put32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func appendU16(b []byte, v uint16) []byte { return append(b, byte(v), byte(v>>8)) }
func appendI16(b []byte, v int16) []byte  { return appendU16(b, uint16(v)) }
func appendI32(b []byte, v int32) []byte {
	u := uint32(v)
	return append(b, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

// buildCatalogRecord assembles one catalog data-definition, following the
// same fixed(33)+bitmap(2)+variable(null KeyFldIDs)+tagged(Name) layout the
// catalog package's own fixture uses, for either a TABLE or COLUMN entry.
func buildCatalogRecord(entryType int16, objIDTable, id, coltypOrPgnoFDP int32, name string) []byte {
	var data []byte
	data = append(data, 10, 11) // lastFixed=10, lastVariable=11
	data = appendU16(data, 39)  // variableOffset = header(4)+fixed(33)+bitmap(2)

	data = appendI32(data, objIDTable)
	data = appendI16(data, entryType)
	data = appendI32(data, id)
	data = appendI32(data, coltypOrPgnoFDP)
	data = appendI32(data, 0) // SpaceUsage
	data = appendI32(data, 0) // Flags
	data = appendI32(data, 0) // PagesOrLocale
	data = append(data, 0)    // RootFlag
	data = appendI16(data, 0) // RecordOffset
	data = appendI32(data, 0) // LCMapFlags
	data = append(data, 0, 0) // null bitmap, no nulls

	if len(data) != 39 {
		panic("setup: unexpected fixed-region length")
	}
	data = appendU16(data, 0x8000) // KeyFldIDs: null

	data = appendU16(data, 128) // tagged entry: identifier = Name
	data = appendU16(data, 4)   // offset = 1 entry * 4 bytes
	data = append(data, []byte(name)...)
	return data
}

// buildDataRecord assembles a one-fixed-Int32-column row: the table schema
// a test table built by buildCatalogRecord's COLUMN entries describes.
func buildDataRecord(value int32) []byte {
	var data []byte
	data = append(data, 1, 1)  // lastFixed=1, lastVariable=1 (no variable columns)
	data = appendU16(data, 9) // variableOffset = header(4)+fixed(4)+bitmap(1)
	data = appendI32(data, value)
	data = append(data, 0) // null bitmap, 1 byte, no nulls
	return data
}

// writePage encodes one leaf page (no common-key compression, every value
// carrying a zero-length local key prefix since these fixtures never Seek
// by key) directly into file at the page's absolute offset.
func writePage(file []byte, pageSize int, number uint32, values [][]byte, flags uint32, next uint32) {
	base := int(number+1) * pageSize
	raw := file[base : base+pageSize]
	cursor := format.PageHeaderSize

	type tagEntry struct{ offset, size uint16 }
	tags := make([]tagEntry, len(values))

	for i, v := range values {
		entry := append(appendU16(nil, 0), v...) // local key size = 0, then data
		copy(raw[cursor:], entry)
		tags[i] = tagEntry{offset: uint16(cursor), size: uint16(len(entry))}
		cursor += len(entry)
	}

	for i, te := range tags {
		entryEnd := pageSize - i*format.PageTagEntrySize
		entryStart := entryEnd - format.PageTagEntrySize
		put16(raw, entryStart, te.offset)
		put16(raw, entryStart+2, te.size)
	}

	put32(raw, format.PageNextOffset, next)
	put32(raw, format.PageFlagsOffset, flags|format.PageFlagLeaf)
	put16(raw, format.PageAvailPageTagOffset, uint16(len(values)))
}

// buildDatabase assembles a whole synthetic EDB file: a file header, a
// one-row catalog (one TABLE and one COLUMN entry) at the fixed catalog
// root page, and a one-row data page for that table.
func buildDatabase(t *testing.T) []byte {
	t.Helper()
	const catalogPage = format.CatalogRootPage
	const dataPage = 20

	totalPages := uint32(30)
	file := make([]byte, int(totalPages+1)*testPageSize)

	put32(file, format.HeaderSignatureOffset, format.Signature)
	put32(file, format.HeaderFormatVerOffset, 0x620)
	put32(file, format.HeaderFormatRevOffset, 17) // not <= LegacyMaxRevision: current checksum scheme
	put32(file, format.HeaderPageSizeOffset, testPageSize)
	put32(file, format.HeaderPageCountOffset, totalPages)

	tableRecord := buildCatalogRecord(1 /* EntryTypeTable */, 0, 5, int32(dataPage), "Widgets")
	columnRecord := buildCatalogRecord(2 /* EntryTypeColumn */, 5, 1, 4 /* Int32 */, "Value")
	writePage(file, testPageSize, catalogPage, [][]byte{tableRecord, columnRecord}, 0, 0)

	row1 := buildDataRecord(42)
	row2 := buildDataRecord(7)
	writePage(file, testPageSize, dataPage, [][]byte{row1, row2}, 0, 0)

	return file
}

func TestOpenSourceListsTableAndDecodesRecords(t *testing.T) {
	file := buildDatabase(t)
	f, err := OpenSource(&byteSource{data: file}, OpenOptions{Tolerant: true})
	require.NoError(t, err)
	defer f.Close()

	tables := f.Tables()
	require.Len(t, tables, 1)
	table := tables[0]
	require.Equal(t, "Widgets", table.Name())
	cols := table.Columns()
	require.Len(t, cols, 1)
	require.Equal(t, "Value", cols[0].Name)
	columnID := cols[0].Identifier

	it := table.Records()
	var got []int32
	for it.Next() {
		rec, err := it.Record()
		require.NoError(t, err)
		v, err := rec.Value(columnID)
		require.NoError(t, err)
		require.False(t, v.Null)
		require.Len(t, v.Data, 4)
		got = append(got, int32(uint32(v.Data[0])|uint32(v.Data[1])<<8|uint32(v.Data[2])<<16|uint32(v.Data[3])<<24))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []int32{42, 7}, got)
}

func TestRecordsAfterCloseReportsErrClosed(t *testing.T) {
	file := buildDatabase(t)
	f, err := OpenSource(&byteSource{data: file}, OpenOptions{Tolerant: true})
	require.NoError(t, err)

	table := f.Tables()[0]
	require.NoError(t, f.Close())

	it := table.Records()
	require.False(t, it.Next())
	require.True(t, errors.Is(it.Err(), ErrClosed))
}

func TestTableByNameReportsNotFound(t *testing.T) {
	file := buildDatabase(t)
	f, err := OpenSource(&byteSource{data: file}, OpenOptions{Tolerant: true})
	require.NoError(t, err)
	defer f.Close()

	_, err = f.TableByName("DoesNotExist", false)
	require.True(t, errors.Is(err, ErrTableNotFound))

	_, err = f.TableByName("widgets", true)
	require.NoError(t, err)
}
