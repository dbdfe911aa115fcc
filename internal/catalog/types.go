// Package catalog builds the table/column/index schema described by the
// catalog page tree rooted at the format's fixed catalog page. The catalog
// is, on the wire, an ordinary table: its leaf values are
// decoded through internal/record against the hardcoded schema in
// schema.go, exactly as any other table's rows would be.
package catalog

import "github.com/libyal/go-esedb/internal/record"

// ResolveOptions controls template-table inheritance resolution.
type ResolveOptions struct {
	// IgnoreTemplateTable skips inheriting columns from a table's declared
	// template table (the on-disk equivalent of JET's
	// IGNORE_TEMPLATE_TABLE bit).
	IgnoreTemplateTable bool
}

// Entry is one decoded catalog leaf value, before grouping.
type Entry struct {
	Type            int
	ObjidTable      int32
	ID              int32
	ColtypOrPgnoFDP int32
	SpaceUsage      int32
	Flags           int32
	PagesOrLocale   int32
	RootFlag        bool
	Name            string
	TemplateTable   string
	DefaultValue    []byte
	KeyFldIDs       []byte
	Version         int32
}

// Column is a resolved column definition attached to a Table.
type Column struct {
	Identifier   uint32
	Name         string
	Type         record.ColumnType
	Codepage     uint32
	Flags        record.ColumnFlags
	DefaultValue []byte
	Inherited    bool // true if resolved from a template table rather than declared directly
}

// Index describes a secondary index over a table.
type Index struct {
	Name      string
	KeyFldIDs []byte
	Flags     int32
	Locale    int32
}

// Table is a fully resolved catalog table: its own entry plus grouped
// columns and indexes, with template inheritance applied.
type Table struct {
	ObjectID          int32
	Name              string
	DataTreeRoot      uint32
	LongValueTreeRoot uint32
	TemplateTableName string
	Columns           []Column
	Indexes           []Index
}

func catalogColumnType(coltype int32) record.ColumnType {
	switch coltype {
	case 0:
		return record.ColumnTypeNull
	case 1:
		return record.ColumnTypeBoolean
	case 2:
		return record.ColumnTypeUint8
	case 3:
		return record.ColumnTypeInt16
	case 4:
		return record.ColumnTypeInt32
	case 5:
		return record.ColumnTypeCurrency
	case 6:
		return record.ColumnTypeFloat32
	case 7:
		return record.ColumnTypeFloat64
	case 8:
		return record.ColumnTypeDateTime
	case 9:
		return record.ColumnTypeBinary
	case 10:
		return record.ColumnTypeText
	case 11:
		return record.ColumnTypeLargeBinary
	case 12:
		return record.ColumnTypeLargeText
	case 13:
		return record.ColumnTypeSuperLargeValue
	case 14:
		return record.ColumnTypeInt32 // JET_coltypInt32 alias, kept distinct from 4 upstream; same wire width here
	case 15:
		return record.ColumnTypeUint32
	case 16:
		return record.ColumnTypeInt64
	case 17:
		return record.ColumnTypeGUID
	case 18:
		return record.ColumnTypeUint16
	default:
		return record.ColumnTypeBinary
	}
}
