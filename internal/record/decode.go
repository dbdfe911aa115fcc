package record

import (
	"fmt"
	"sort"
)

// headerSize is the length of a data-definition's fixed header: the last
// fixed-size and last variable-size column identifiers plus the absolute
// offset of the variable-size offset table.
const headerSize = 4

// Decode decodes data, a single leaf data-definition blob, against columns
// (which need not be sorted; Decode sorts a copy by Identifier). newRecordFormat
// selects the NEW_RECORD_FORMAT tagged-value encoding (a leading per-value
// flags byte) over the legacy encoding (a single condensed flag bit stolen
// from the entry's data_offset field), matching the page's
// PageFlagNewRecordFormat bit.
//
// The returned values are in column-identifier order and are not yet
// decompressed or long-value-resolved: callers apply internal/compress and
// internal/longvalue afterwards, keyed off Value.ValueFlags and
// Column.IsCompressed.
func Decode(data []byte, columns []Column, newRecordFormat bool) ([]Value, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("record: header: %w", ErrTruncated)
	}
	lastFixed := uint32(data[0])
	lastVariable := uint32(data[1])
	variableOffset := int(u16le(data[2:4]))

	sorted := make([]Column, len(columns))
	copy(sorted, columns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Identifier < sorted[j].Identifier })

	fixedEnd, fixedValues, err := decodeFixedRegion(data, sorted, lastFixed)
	if err != nil {
		return nil, err
	}
	bitmapSize := int((lastFixed + 7) / 8)
	nullBitmap := []byte{}
	if bitmapEnd := fixedEnd + bitmapSize; bitmapEnd <= len(data) {
		nullBitmap = data[fixedEnd:bitmapEnd]
	}

	variableValues, variableEnd, err := decodeVariableRegion(data, sorted, lastFixed, lastVariable, variableOffset)
	if err != nil {
		return nil, err
	}

	taggedValues, err := decodeTaggedRegion(data, sorted, lastVariable, variableEnd, newRecordFormat)
	if err != nil {
		return nil, err
	}

	values := make([]Value, 0, len(sorted))
	for _, col := range sorted {
		switch {
		case col.Identifier >= 1 && col.Identifier <= lastFixed:
			v := fixedValues[col.Identifier]
			v.Null = isNullInBitmap(nullBitmap, col.Identifier)
			if v.Null {
				v.Data = nil
			}
			values = append(values, v)
		case col.Identifier > lastFixed && col.Identifier <= lastVariable:
			values = append(values, variableValues[col.Identifier])
		default:
			if v, ok := taggedValues[col.Identifier]; ok {
				values = append(values, v)
			} else {
				values = append(values, Value{Column: col, Null: true, Data: col.DefaultValue})
			}
		}
	}
	return values, nil
}

func isNullInBitmap(bitmap []byte, identifier uint32) bool {
	bitIndex := identifier - 1
	byteIndex := bitIndex / 8
	if int(byteIndex) >= len(bitmap) {
		return false
	}
	return bitmap[byteIndex]&(1<<(bitIndex%8)) != 0
}

func decodeFixedRegion(data []byte, columns []Column, lastFixed uint32) (int, map[uint32]Value, error) {
	values := make(map[uint32]Value, lastFixed)
	offset := headerSize
	for _, col := range columns {
		if col.Identifier < 1 || col.Identifier > lastFixed {
			continue
		}
		width, ok := col.Type.FixedWidth()
		if !ok {
			return 0, nil, fmt.Errorf("record: fixed column %d: %w: not a fixed-width type", col.Identifier, ErrInvalidData)
		}
		end := offset + width
		if end > len(data) {
			return 0, nil, fmt.Errorf("record: fixed column %d: %w", col.Identifier, ErrTruncated)
		}
		values[col.Identifier] = Value{Column: col, Data: data[offset:end]}
		offset = end
	}
	return offset, values, nil
}

func decodeVariableRegion(data []byte, columns []Column, lastFixed, lastVariable uint32, variableOffset int) (map[uint32]Value, int, error) {
	values := make(map[uint32]Value)
	count := 0
	if lastVariable > lastFixed {
		count = int(lastVariable - lastFixed)
	}
	if count == 0 {
		return values, variableOffset, nil
	}
	tableEnd := variableOffset + count*2
	if variableOffset < 0 || tableEnd > len(data) {
		return nil, 0, fmt.Errorf("record: variable offset table: %w", ErrTruncated)
	}
	dataStart := tableEnd

	byIndex := make(map[int]Column, count)
	for _, col := range columns {
		if col.Identifier > lastFixed && col.Identifier <= lastVariable {
			byIndex[int(col.Identifier-lastFixed-1)] = col
		}
	}

	prevEnd := 0
	regionEnd := dataStart
	for j := 0; j < count; j++ {
		raw := u16le(data[variableOffset+j*2 : variableOffset+j*2+2])
		null := raw&0x8000 != 0
		end := int(raw & 0x7fff)
		col, known := byIndex[j]
		if !known {
			if end > prevEnd {
				prevEnd = end
			}
			continue
		}
		start := dataStart + prevEnd
		stop := dataStart + end
		if null {
			values[col.Identifier] = Value{Column: col, Null: true}
		} else {
			if stop < start || stop > len(data) {
				return nil, 0, fmt.Errorf("record: variable column %d: %w", col.Identifier, ErrTruncated)
			}
			values[col.Identifier] = Value{Column: col, Data: data[start:stop]}
		}
		if end > prevEnd {
			prevEnd = end
		}
		if dataStart+end > regionEnd {
			regionEnd = dataStart + end
		}
	}
	return values, regionEnd, nil
}

// decodeTaggedRegion decodes the tagged column region, which spans from the
// end of the variable region to the end of the data definition. Entry
// count is not stored explicitly: the first entry's data_offset, divided
// by the 4-byte entry size, gives the number of entries that precede the
// value data.
func decodeTaggedRegion(data []byte, columns []Column, lastVariable uint32, start int, newRecordFormat bool) (map[uint32]Value, error) {
	values := make(map[uint32]Value)
	if start >= len(data) {
		return values, nil
	}
	region := data[start:]
	if len(region) < 4 {
		return values, nil
	}

	mask := uint16(0x7fff)
	if newRecordFormat {
		mask = 0xffff
	}

	firstOffset := u16le(region[2:4]) & mask
	count := int(firstOffset) / 4
	if count <= 0 || count*4 > len(region) {
		return values, nil
	}

	byID := make(map[uint32]Column, len(columns))
	for _, col := range columns {
		if col.Identifier > lastVariable {
			byID[col.Identifier] = col
		}
	}

	type entry struct {
		id        uint16
		offset    uint16
		condensed bool
	}
	entries := make([]entry, count)
	for k := 0; k < count; k++ {
		raw := region[k*4 : k*4+4]
		id := u16le(raw[0:2])
		off := u16le(raw[2:4])
		entries[k] = entry{id: id, offset: off & mask, condensed: !newRecordFormat && off&0x8000 != 0}
	}

	for k, e := range entries {
		col, known := byID[uint32(e.id)]
		if !known {
			continue
		}
		valueStart := int(e.offset)
		valueEnd := len(region)
		if k+1 < len(entries) {
			valueEnd = int(entries[k+1].offset)
		}
		if valueStart > len(region) || valueEnd > len(region) || valueEnd < valueStart {
			return nil, fmt.Errorf("record: tagged column %d: %w", col.Identifier, ErrTruncated)
		}
		body := region[valueStart:valueEnd]

		v := Value{Column: col}
		switch {
		case newRecordFormat:
			if len(body) == 0 {
				v.Null = true
				break
			}
			v.ValueFlags = ValueFlags(body[0])
			body = body[1:]
			v.Data = body
			v.IsMultiple = v.ValueFlags&(ValueFlagMultiValue|ValueFlagMultiValue2) != 0
			if v.IsMultiple {
				elements, err := decodeMultiValue(body)
				if err != nil {
					return nil, fmt.Errorf("record: tagged column %d: %w", col.Identifier, err)
				}
				v.Elements = elements
			}
		case e.condensed:
			// Legacy records steal one bit from data_offset instead of
			// carrying a full flags byte; the only distinction it can make
			// is long-value-vs-inline, so that is the only flag we surface.
			v.ValueFlags = ValueFlagLongValue
			v.Data = body
		default:
			v.Data = body
		}
		if len(v.Data) == 0 && !v.Null && !newRecordFormat {
			v.Null = true
		}
		values[col.Identifier] = v
	}
	return values, nil
}

// decodeMultiValue splits a MULTI_VALUE tagged value's body into its
// constituent elements, grounded on the esedbinfo.c multi-value dumper: the
// body carries a 16-bit offset table of the same shape as the variable
// region (one entry per element, top bit NULL, remaining bits a cumulative
// end offset into the data that follows the table), immediately adjacent to
// that data with no gap. The same self-describing trick decodeTaggedRegion
// uses applies here too: the first entry's offset, divided by the 2-byte
// entry size, is exactly the number of entries, since the table ends where
// the first element's data begins.
func decodeMultiValue(body []byte) ([][]byte, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("record: multi value: %w", ErrTruncated)
	}
	firstOffset := u16le(body[0:2]) & 0x7fff
	count := int(firstOffset) / 2
	if count <= 0 || count*2 > len(body) {
		return nil, fmt.Errorf("record: multi value: %w: bad offset table", ErrInvalidData)
	}

	type slot struct {
		end  int
		null bool
	}
	slots := make([]slot, count)
	for i := 0; i < count; i++ {
		raw := u16le(body[i*2 : i*2+2])
		slots[i] = slot{end: int(raw & 0x7fff), null: raw&0x8000 != 0}
	}

	dataStart := count * 2
	elements := make([][]byte, count)
	prev := 0
	for i, s := range slots {
		if s.null {
			prev = s.end
			continue
		}
		start, end := dataStart+prev, dataStart+s.end
		if s.end < prev || end < start || end > len(body) {
			return nil, fmt.Errorf("record: multi value element %d: %w", i, ErrTruncated)
		}
		elements[i] = body[start:end]
		prev = s.end
	}
	return elements, nil
}
