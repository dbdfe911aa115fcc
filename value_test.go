package esedb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/libyal/go-esedb/internal/record"
)

func TestValueTextDecodesUnicode(t *testing.T) {
	col := record.Column{Name: "Name", Type: record.ColumnTypeText, Codepage: CodepageUnicode}
	data := []byte{'h', 0, 'i', 0}
	v := Value{Column: col, Data: data}

	text, err := v.Text()
	require.NoError(t, err)
	require.Equal(t, "hi", text)
}

func TestValueTextRejectsNonTextColumn(t *testing.T) {
	col := record.Column{Name: "Count", Type: record.ColumnTypeInt32}
	v := Value{Column: col, Data: []byte{1, 0, 0, 0}}

	_, err := v.Text()
	require.Error(t, err)
}

func TestValueGUIDRoundTripsMixedEndianBytes(t *testing.T) {
	want := uuid.MustParse("12345678-1234-5678-9abc-123456789abc")

	// Windows stores a GUID's first three fields little-endian; build the
	// on-disk bytes by reversing them back from the RFC 4122 form.
	rfc := want[:]
	disk := make([]byte, 16)
	disk[0], disk[1], disk[2], disk[3] = rfc[3], rfc[2], rfc[1], rfc[0]
	disk[4], disk[5] = rfc[5], rfc[4]
	disk[6], disk[7] = rfc[7], rfc[6]
	copy(disk[8:], rfc[8:16])

	col := record.Column{Name: "ID", Type: record.ColumnTypeGUID}
	v := Value{Column: col, Data: disk}

	got, err := v.GUID()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestValueGUIDRejectsWrongLength(t *testing.T) {
	col := record.Column{Name: "ID", Type: record.ColumnTypeGUID}
	v := Value{Column: col, Data: []byte{1, 2, 3}}

	_, err := v.GUID()
	require.Error(t, err)
}
