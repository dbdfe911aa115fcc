package catalog

import "github.com/libyal/go-esedb/internal/record"

// Catalog entry type codes, as stored in the catalog's own Type column.
// These values are format constants (not configurable), consistent across
// every public description of the on-disk layout.
const (
	EntryTypeTable     = 1
	EntryTypeColumn    = 2
	EntryTypeIndex     = 3
	EntryTypeLongValue = 4
	EntryTypeCallback  = 5
)

// Catalog column identifiers. The catalog has no dedicated parser source
// in this corpus (libesedb_catalog_definition.c is not among the filtered
// files); this schema is the well-known, version-stable system-table
// layout common to every ESE-based format (the same catalog record shape
// Exchange, Windows Search, and AD all emit), hardcoded here and decoded
// through the ordinary record decoder rather than through bespoke byte
// offsets. See DESIGN.md for the grounding note on this choice.
const (
	colObjidTable        uint32 = 1  // Int32: owning table's object id (0 for a TABLE entry itself)
	colType              uint32 = 2  // Int16: EntryType*
	colID                uint32 = 3  // Int32: this entry's own identifier
	colColtypOrPgnoFDP   uint32 = 4  // Int32: column type (COLUMN) or father-data-page / tree root (TABLE, INDEX)
	colSpaceUsage        uint32 = 5  // Int32: initial page allocation (TABLE), key size (INDEX)
	colFlags             uint32 = 6  // Int32: entry-type-specific flags
	colPagesOrLocale     uint32 = 7  // Int32: codepage (COLUMN, low word) or locale (INDEX)
	colRootFlag          uint32 = 8  // Boolean: true if PgnoFDP already denotes a root page
	colRecordOffset      uint32 = 9  // Int16: fixed-record byte offset hint (COLUMN)
	colLCMapFlags        uint32 = 10 // Int32: NLS sort-key flags (INDEX)
	colKeyFldIDs         uint32 = 11 // Binary: packed index key column identifiers (INDEX)
	colName              uint32 = 128 // Text, tagged: entry name
	colStats             uint32 = 129 // Binary, tagged: index statistics blob
	colTemplateTable     uint32 = 130 // Text, tagged: template table name (TABLE)
	colDefaultValue      uint32 = 131 // LargeBinary, tagged: column default value (COLUMN)
	colConditionalCols   uint32 = 134 // Binary, tagged: conditional-index column list (INDEX)
	colVersion           uint32 = 136 // Int32, tagged: schema version
	colCallbackData      uint32 = 237 // Binary, tagged
	colCallbackDeps      uint32 = 238 // Binary, tagged
	colSeparateLV        uint32 = 239 // Boolean, tagged
	colSpaceDeferredLV   uint32 = 240 // Int32, tagged
	colLVChunkMax        uint32 = 241 // Int32, tagged
)

// columns is the fixed column list every catalog leaf value is decoded
// against, in ascending identifier order as record.Decode expects.
var columns = []record.Column{
	{Identifier: colObjidTable, Name: "ObjidTable", Type: record.ColumnTypeInt32},
	{Identifier: colType, Name: "Type", Type: record.ColumnTypeInt16},
	{Identifier: colID, Name: "Id", Type: record.ColumnTypeInt32},
	{Identifier: colColtypOrPgnoFDP, Name: "ColtypOrPgnoFDP", Type: record.ColumnTypeInt32},
	{Identifier: colSpaceUsage, Name: "SpaceUsage", Type: record.ColumnTypeInt32},
	{Identifier: colFlags, Name: "Flags", Type: record.ColumnTypeInt32},
	{Identifier: colPagesOrLocale, Name: "PagesOrLocale", Type: record.ColumnTypeInt32},
	{Identifier: colRootFlag, Name: "RootFlag", Type: record.ColumnTypeBoolean},
	{Identifier: colRecordOffset, Name: "RecordOffset", Type: record.ColumnTypeInt16},
	{Identifier: colLCMapFlags, Name: "LCMapFlags", Type: record.ColumnTypeInt32},
	{Identifier: colKeyFldIDs, Name: "KeyFldIDs", Type: record.ColumnTypeBinary},
	{Identifier: colName, Name: "Name", Type: record.ColumnTypeText},
	{Identifier: colStats, Name: "Stats", Type: record.ColumnTypeBinary},
	{Identifier: colTemplateTable, Name: "TemplateTable", Type: record.ColumnTypeText},
	{Identifier: colDefaultValue, Name: "DefaultValue", Type: record.ColumnTypeLargeBinary},
	{Identifier: colConditionalCols, Name: "ConditionalColumns", Type: record.ColumnTypeBinary},
	{Identifier: colVersion, Name: "Version", Type: record.ColumnTypeInt32},
	{Identifier: colCallbackData, Name: "CallbackData", Type: record.ColumnTypeBinary},
	{Identifier: colCallbackDeps, Name: "CallbackDependencies", Type: record.ColumnTypeBinary},
	{Identifier: colSeparateLV, Name: "SeparateLV", Type: record.ColumnTypeBoolean},
	{Identifier: colSpaceDeferredLV, Name: "SpaceDeferredLVExtent", Type: record.ColumnTypeInt32},
	{Identifier: colLVChunkMax, Name: "LVChunkMax", Type: record.ColumnTypeInt32},
}

// The flag bits within colFlags relevant to column entries (COMPRESSED
// / TAGGED hints carry straight through, by construction, since colFlags is
// stored and read as a plain Int32 and callers reinterpret it as
// record.ColumnFlags).
