package esedb

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/libyal/go-esedb/internal/compress"
	"github.com/libyal/go-esedb/internal/format"
	"github.com/libyal/go-esedb/internal/longvalue"
	"github.com/libyal/go-esedb/internal/pagetree"
	"github.com/libyal/go-esedb/internal/record"
)

// RecordIterator walks a Table's data page tree leaf by leaf, decoding one
// Record per leaf value. Use it as:
//
//	it := table.Records()
//	for it.Next() {
//	    rec, err := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type RecordIterator struct {
	table   *Table
	ctx     context.Context
	walker  *pagetree.Walker
	page    format.Page
	ents    []pagetree.Entry
	idx     int
	started bool
	done    bool
	err     error
	cur     []record.Value
}

func newRecordIterator(t *Table) *RecordIterator {
	return &RecordIterator{table: t, ctx: context.Background()}
}

// Next advances to the next record, returning false at end of table or on
// error (check Err to distinguish the two).
func (it *RecordIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
		if it.table.def.DataTreeRoot == 0 {
			it.done = true
			return false
		}
		w, err := it.table.file.newWalker()
		if err != nil {
			it.err = err
			return false
		}
		it.walker = w
		page, err := it.walker.LeftmostLeaf(it.ctx, it.table.def.DataTreeRoot)
		if err != nil {
			it.err = newError(DomainInput, KindCorrupt, "seek first leaf", err)
			return false
		}
		if err := it.loadPage(page); err != nil {
			it.err = err
			return false
		}
	}

	for {
		if it.idx < len(it.ents) {
			e := it.ents[it.idx]
			it.idx++
			if e.IsDefunct {
				continue
			}
			cols := it.table.recordColumns()
			nrf := it.page.Header.NewRecordFormat()
			values, err := record.Decode(e.Data, cols, nrf)
			if err != nil {
				it.err = newError(DomainInput, KindCorrupt, "decode record", err)
				return false
			}
			it.cur = values
			return true
		}

		next, ok, err := it.walker.NextLeaf(it.ctx, it.page)
		if err != nil {
			it.err = newError(DomainInput, KindCorrupt, "advance leaf", err)
			return false
		}
		if !ok {
			it.done = true
			return false
		}
		if err := it.loadPage(next); err != nil {
			it.err = err
			return false
		}
	}
}

func (it *RecordIterator) loadPage(page format.Page) error {
	ents, err := it.walker.LeafEntries(page)
	if err != nil {
		return newError(DomainInput, KindCorrupt, "read leaf entries", err)
	}
	it.page = page
	it.ents = ents
	it.idx = 0
	return nil
}

// Record returns the record most recently selected by Next.
func (it *RecordIterator) Record() (*Record, error) {
	if it.cur == nil {
		return nil, newError(DomainRuntime, KindGeneric, "Record called before a successful Next", nil)
	}
	return &Record{table: it.table, values: it.cur}, nil
}

// Err returns the first error encountered by Next, if any.
func (it *RecordIterator) Err() error { return it.err }

// Record is one decoded row: a set of column values, still carrying
// compression and long-value-reference state until materialized through
// Value or LongValueReader.
type Record struct {
	table  *Table
	values []record.Value
}

func (r *Record) find(columnID uint32) (record.Value, bool) {
	for _, v := range r.values {
		if v.Column.Identifier == columnID {
			return v, true
		}
	}
	return record.Value{}, false
}

// Value returns columnID's materialized value: decompressed if the column
// is flagged COMPRESSED or the tagged value itself carries the per-value
// compressed flag, still a LongValueReference if the column is a long
// value (use LongValueReader to read its bytes).
func (r *Record) Value(columnID uint32) (Value, error) {
	v, ok := r.find(columnID)
	if !ok {
		return Value{}, fmt.Errorf("esedb: column %d: %w", columnID, ErrColumnNotFound)
	}
	if v.Null {
		return Value{Column: v.Column, Null: true}, nil
	}

	data := v.Data
	compressed := v.Column.IsCompressed() || v.ValueFlags&record.ValueFlagCompressed != 0
	if compressed && len(data) > 0 {
		decompressed, err := decompress(data)
		if err != nil {
			return Value{}, newError(DomainCompression, KindCorrupt, "decompress column "+v.Column.Name, err)
		}
		data = decompressed
	}
	return Value{Column: v.Column, Data: data, IsLongValue: v.ValueFlags&record.ValueFlagLongValue != 0}, nil
}

// MultiValue returns columnID's MULTI_VALUE elements, each materialized the
// same way Value materializes a single value (decompressed if the column or
// the tagged value itself is flagged COMPRESSED). It is an error to call
// MultiValue on a column whose tagged value isn't flagged multi-valued.
func (r *Record) MultiValue(columnID uint32) ([]Value, error) {
	v, ok := r.find(columnID)
	if !ok {
		return nil, fmt.Errorf("esedb: column %d: %w", columnID, ErrColumnNotFound)
	}
	if !v.IsMultiple {
		return nil, newError(DomainArguments, KindTypeMismatch, "column "+v.Column.Name+" is not multi-valued", nil)
	}

	compressed := v.Column.IsCompressed() || v.ValueFlags&record.ValueFlagCompressed != 0
	out := make([]Value, len(v.Elements))
	for i, raw := range v.Elements {
		data := raw
		if compressed && len(data) > 0 {
			decompressed, err := decompress(data)
			if err != nil {
				return nil, newError(DomainCompression, KindCorrupt, "decompress column "+v.Column.Name, err)
			}
			data = decompressed
		}
		out[i] = Value{Column: v.Column, Null: data == nil, Data: data}
	}
	return out, nil
}

// decompress selects a C12 decompressor by the first byte's high nibble,
// the same scheme esedbtools' own dumpers use to tell a 7-bit-ASCII stream
// from a byte-stream run-length one.
func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	switch data[0] >> 4 {
	case 0x1: // 7-bit compressed Unicode
		return compress.ASCII7Decompress(data[1:])
	case 0x2, 0x3: // byte-stream run-length compressed
		return compress.RunLengthDecompress(data[1:])
	default:
		return data, nil
	}
}

// Value is one materialized column value.
type Value struct {
	Column      record.Column
	Null        bool
	Data        []byte
	IsLongValue bool
}

// Text decodes a TEXT or LargeText value's bytes through its column's
// codepage. It is an error to call Text on a column of any other type.
func (v Value) Text() (string, error) {
	if v.Column.Type != record.ColumnTypeText && v.Column.Type != record.ColumnTypeLargeText {
		return "", newError(DomainInput, KindTypeMismatch, "column "+v.Column.Name+" is not a text column", nil)
	}
	if v.Null {
		return "", nil
	}
	return DecodeText(v.Data, v.Column.Codepage)
}

// GUID formats a GUID column value's 16 raw bytes as a UUID, mirroring
// libesedb's guid.c string conversion. It is an error to call GUID on a
// column of any other type.
func (v Value) GUID() (uuid.UUID, error) {
	if v.Column.Type != record.ColumnTypeGUID {
		return uuid.Nil, newError(DomainInput, KindTypeMismatch, "column "+v.Column.Name+" is not a GUID column", nil)
	}
	if v.Null {
		return uuid.Nil, nil
	}
	if len(v.Data) != 16 {
		return uuid.Nil, newError(DomainInput, KindCorrupt, "GUID column "+v.Column.Name+": expected 16 bytes", nil)
	}
	// Windows stores a GUID's first three fields little-endian; RFC 4122
	// (and uuid.FromBytes) wants them big-endian, so reverse each before
	// handing the 4th field (already big-endian) through unchanged.
	var rfc [16]byte
	rfc[0], rfc[1], rfc[2], rfc[3] = v.Data[3], v.Data[2], v.Data[1], v.Data[0]
	rfc[4], rfc[5] = v.Data[5], v.Data[4]
	rfc[6], rfc[7] = v.Data[7], v.Data[6]
	copy(rfc[8:], v.Data[8:16])
	id, err := uuid.FromBytes(rfc[:])
	if err != nil {
		return uuid.Nil, newError(DomainInput, KindCorrupt, "parse GUID column "+v.Column.Name, err)
	}
	return id, nil
}

// LongValueReader resolves columnID's long-value reference and returns a
// reader over its full, reassembled byte stream.
func (r *Record) LongValueReader(columnID uint32) (io.ReadCloser, error) {
	v, ok := r.find(columnID)
	if !ok {
		return nil, fmt.Errorf("esedb: column %d: %w", columnID, ErrColumnNotFound)
	}
	if v.ValueFlags&record.ValueFlagLongValue == 0 {
		return nil, fmt.Errorf("esedb: column %d: %w", columnID, ErrNotLongValue)
	}
	if r.table.def.LongValueTreeRoot == 0 {
		return nil, newError(DomainInput, KindCorrupt, "table has no long-value tree", nil)
	}
	ref, err := v.AsLongValueReference()
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "decode long value reference", err)
	}
	w, err := r.table.file.newWalker()
	if err != nil {
		return nil, err
	}
	store := longvalue.New(w, r.table.def.LongValueTreeRoot, r.table.longValueCap)
	data, err := store.Read(context.Background(), ref.ID)
	if err != nil {
		return nil, newError(DomainInput, KindCorrupt, "read long value", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
