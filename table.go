package esedb

import (
	"github.com/libyal/go-esedb/internal/catalog"
	"github.com/libyal/go-esedb/internal/record"
)

// Column describes one column of a Table, resolved from the catalog
// (including any inherited from a template table).
type Column struct {
	Identifier   uint32
	Name         string
	Type         record.ColumnType
	Codepage     uint32
	Compressed   bool
	Inherited    bool
	DefaultValue []byte
}

// Index describes a secondary index declared over a Table.
type Index struct {
	Name   string
	Locale int32
}

// Table is a resolved catalog table: its schema plus the data (and, if
// present, long-value) page trees backing its rows.
type Table struct {
	file         *File
	def          catalog.Table
	longValueCap int
}

// Name returns the table's name as declared in the catalog.
func (t *Table) Name() string { return t.def.Name }

// Columns returns the table's resolved column list, in catalog order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.def.Columns))
	for i, c := range t.def.Columns {
		out[i] = Column{
			Identifier:   c.Identifier,
			Name:         c.Name,
			Type:         c.Type,
			Codepage:     c.Codepage,
			Compressed:   c.Flags&record.ColumnFlagCompressed != 0,
			Inherited:    c.Inherited,
			DefaultValue: c.DefaultValue,
		}
	}
	return out
}

// Indexes returns the table's declared secondary indexes.
func (t *Table) Indexes() []Index {
	out := make([]Index, len(t.def.Indexes))
	for i, idx := range t.def.Indexes {
		out[i] = Index{Name: idx.Name, Locale: idx.Locale}
	}
	return out
}

// recordColumns builds the internal/record.Column list this table's rows
// decode against, from the resolved catalog columns.
func (t *Table) recordColumns() []record.Column {
	out := make([]record.Column, len(t.def.Columns))
	for i, c := range t.def.Columns {
		out[i] = record.Column{
			Identifier:   c.Identifier,
			Name:         c.Name,
			Type:         c.Type,
			Codepage:     c.Codepage,
			Flags:        c.Flags,
			DefaultValue: c.DefaultValue,
		}
	}
	return out
}

// Records returns an iterator over the table's rows in data-tree leaf
// order. The iterator must be consumed with Next/Record/Err.
func (t *Table) Records() *RecordIterator {
	return newRecordIterator(t)
}
