package record

import (
	"bytes"
	"testing"
)

func appendU16LE(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func TestDecodeFixedVariableAndTaggedRegions(t *testing.T) {
	columns := []Column{
		{Identifier: 1, Name: "id1", Type: ColumnTypeInt32},
		{Identifier: 2, Name: "id2", Type: ColumnTypeUint8},
		{Identifier: 3, Name: "id3", Type: ColumnTypeText},
		{Identifier: 4, Name: "id4", Type: ColumnTypeText},
		{Identifier: 5, Name: "id5", Type: ColumnTypeText},
		{Identifier: 6, Name: "id6", Type: ColumnTypeInt32},
	}

	var buf []byte
	buf = append(buf, 2, 4)     // lastFixed=2, lastVariable=4
	buf = appendU16LE(buf, 10) // variableOffset: header(4) + fixed(5) + bitmap(1)

	buf = appendU32LE(buf, 0x01020304) // id1
	buf = append(buf, 0xAB)            // id2
	buf = append(buf, 0)               // null bitmap, 1 byte, no nulls

	// sanity: header(4) + fixed(4+1) + bitmap(1) == 10 == variableOffset
	if len(buf) != 10 {
		t.Fatalf("setup: expected offset 10 before variable table, got %d", len(buf))
	}

	buf = appendU16LE(buf, 2) // id3 ends at relative offset 2 ("hi")
	buf = appendU16LE(buf, 5) // id4 ends at relative offset 5 ("bye")
	buf = append(buf, []byte("hi")...)
	buf = append(buf, []byte("bye")...)

	taggedStart := len(buf)
	buf = appendU16LE(buf, 5) // id5
	buf = appendU16LE(buf, 4) // offset 4 == one entry * 4 bytes
	buf = append(buf, []byte("TAGV")...)
	if len(buf)-taggedStart != 8 {
		t.Fatalf("setup: unexpected tagged region length %d", len(buf)-taggedStart)
	}

	values, err := Decode(buf, columns, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(values) != len(columns) {
		t.Fatalf("expected %d values, got %d", len(columns), len(values))
	}

	if values[0].Null || !bytes.Equal(values[0].Data, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("id1: unexpected value %+v", values[0])
	}
	if values[1].Null || values[1].Data[0] != 0xAB {
		t.Fatalf("id2: unexpected value %+v", values[1])
	}
	if values[2].Null || string(values[2].Data) != "hi" {
		t.Fatalf("id3: unexpected value %+v", values[2])
	}
	if values[3].Null || string(values[3].Data) != "bye" {
		t.Fatalf("id4: unexpected value %+v", values[3])
	}
	if values[4].Null || string(values[4].Data) != "TAGV" {
		t.Fatalf("id5: unexpected value %+v", values[4])
	}
	if !values[5].Null {
		t.Fatalf("id6: expected null (absent from tagged entries), got %+v", values[5])
	}
}

func TestDecodeVariableColumnNullBitTakesPrecedence(t *testing.T) {
	columns := []Column{
		{Identifier: 1, Name: "v1", Type: ColumnTypeText},
	}
	var buf []byte
	buf = append(buf, 0, 1)
	buf = appendU16LE(buf, 4)
	buf = appendU16LE(buf, 0x8000) // null bit set, length irrelevant
	values, err := Decode(buf, columns, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !values[0].Null {
		t.Fatalf("expected v1 null, got %+v", values[0])
	}
}

func TestDecodeNewRecordFormatTaggedValueFlags(t *testing.T) {
	columns := []Column{
		{Identifier: 1, Name: "tagged1", Type: ColumnTypeText},
	}
	var buf []byte
	buf = append(buf, 0, 0)
	buf = appendU16LE(buf, 4) // variableOffset == end of header, zero variable columns
	taggedStart := len(buf)
	buf = appendU16LE(buf, 1)
	buf = appendU16LE(buf, 4) // one entry * 4 bytes
	buf = append(buf, byte(ValueFlagCompressed))
	buf = append(buf, []byte("zzz")...)
	_ = taggedStart

	values, err := Decode(buf, columns, true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if values[0].ValueFlags&ValueFlagCompressed == 0 {
		t.Fatalf("expected ValueFlagCompressed set, got %+v", values[0])
	}
	if string(values[0].Data) != "zzz" {
		t.Fatalf("unexpected tagged data %q", values[0].Data)
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	if _, err := Decode([]byte{1, 2}, nil, false); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestDecodeLongValueReference(t *testing.T) {
	var body []byte
	body = appendU32LE(body, 42)
	body = appendU32LE(body, 12345)
	v := Value{Data: body}
	ref, err := v.AsLongValueReference()
	if err != nil {
		t.Fatalf("AsLongValueReference: %v", err)
	}
	if ref.ID != 42 || ref.TotalSize != 12345 {
		t.Fatalf("unexpected reference %+v", ref)
	}
}
