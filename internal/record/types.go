// Package record decodes a leaf data-definition — the byte blob carried by
// a leaf value in a table's data page tree, or in the catalog's own page
// tree — into an ordered list of column values.
//
// The catalog itself is decoded through this same package against a fixed,
// hardcoded column schema (see internal/catalog): the system catalog is,
// on the wire, an ordinary ESE record.
package record

import "fmt"

// ColumnType enumerates the EDB column-type set.
type ColumnType int

const (
	ColumnTypeNull ColumnType = iota
	ColumnTypeBoolean
	ColumnTypeUint8
	ColumnTypeInt16
	ColumnTypeInt32
	ColumnTypeCurrency // int64
	ColumnTypeFloat32
	ColumnTypeFloat64
	ColumnTypeDateTime // Win32 FILETIME or OLE date, per flags
	ColumnTypeBinary
	ColumnTypeText
	ColumnTypeLargeBinary
	ColumnTypeLargeText
	ColumnTypeSuperLargeValue
	ColumnTypeUint32
	ColumnTypeInt64
	ColumnTypeGUID
	ColumnTypeUint16
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeNull:            "Null",
	ColumnTypeBoolean:         "Boolean",
	ColumnTypeUint8:           "UnsignedByte",
	ColumnTypeInt16:           "Int16",
	ColumnTypeInt32:           "Int32",
	ColumnTypeCurrency:        "Currency",
	ColumnTypeFloat32:         "Float32",
	ColumnTypeFloat64:         "Float64",
	ColumnTypeDateTime:        "DateTime",
	ColumnTypeBinary:          "Binary",
	ColumnTypeText:            "Text",
	ColumnTypeLargeBinary:     "LargeBinary",
	ColumnTypeLargeText:       "LargeText",
	ColumnTypeSuperLargeValue: "SuperLarge",
	ColumnTypeUint32:          "UnsignedInt32",
	ColumnTypeInt64:           "Int64",
	ColumnTypeGUID:            "GUID",
	ColumnTypeUint16:          "UnsignedInt16",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// FixedWidth returns the on-disk width of t when stored in the fixed
// region, and whether t is a fixed-width type at all. Variable-length
// types (BINARY, TEXT, LARGE_*, SUPER_LARGE_VALUE) are never carried in
// the fixed region and return (0, false).
func (t ColumnType) FixedWidth() (int, bool) {
	switch t {
	case ColumnTypeNull:
		return 0, true
	case ColumnTypeBoolean, ColumnTypeUint8:
		return 1, true
	case ColumnTypeInt16, ColumnTypeUint16:
		return 2, true
	case ColumnTypeInt32, ColumnTypeUint32, ColumnTypeFloat32:
		return 4, true
	case ColumnTypeCurrency, ColumnTypeFloat64, ColumnTypeDateTime, ColumnTypeInt64:
		return 8, true
	case ColumnTypeGUID:
		return 16, true
	default:
		return 0, false
	}
}

// ColumnFlags mirrors the per-column flag bits declared in the catalog:
// COMPRESSED selects a decompressor by codepage; the tagged hints inform,
// but do not override, a column's region (which is always derived from the
// record header's id boundaries).
type ColumnFlags uint32

const (
	ColumnFlagCompressed ColumnFlags = 0x00000010
	ColumnFlagTagged     ColumnFlags = 0x00000004
	ColumnFlagMultiValue ColumnFlags = 0x00000400
)

// Column is a column definition as resolved from the catalog.
type Column struct {
	Identifier   uint32
	Name         string
	Type         ColumnType
	Codepage     uint32
	Flags        ColumnFlags
	DefaultValue []byte
}

func (c Column) IsCompressed() bool { return c.Flags&ColumnFlagCompressed != 0 }

// ValueFlags are the per-tagged-value flags carried in NEW_RECORD_FORMAT
// records.
type ValueFlags uint8

const (
	ValueFlagVariableSize ValueFlags = 0x01
	ValueFlagCompressed   ValueFlags = 0x02
	ValueFlagLongValue    ValueFlags = 0x04
	ValueFlagMultiValue   ValueFlags = 0x08
	ValueFlagMultiValue2  ValueFlags = 0x10
)

// Value is one decoded column value: the raw (possibly still-compressed or
// still-a-long-value-reference) bytes, tagged with enough information for
// the caller to finish materializing it.
type Value struct {
	Column     Column
	Null       bool
	Data       []byte
	ValueFlags ValueFlags // zero outside the tagged region
	IsMultiple bool       // body is a MULTI_VALUE offset-table blob
	Elements   [][]byte   // populated only when IsMultiple: the split element bytes, in stored order
}

// LongValueReference decodes a LONG_VALUE value's body into the long-value
// id it points at: the value body is an 8-byte (id, total_size) pair.
type LongValueReference struct {
	ID        uint32
	TotalSize uint32
}

func (v Value) AsLongValueReference() (LongValueReference, error) {
	if len(v.Data) < 8 {
		return LongValueReference{}, fmt.Errorf("record: long value reference: %w", ErrTruncated)
	}
	return LongValueReference{
		ID:        u32le(v.Data[0:4]),
		TotalSize: u32le(v.Data[4:8]),
	}, nil
}
