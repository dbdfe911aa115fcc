package esedb

import (
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Well-known ESE codepage identifiers, as reported by the catalog's
// PagesOrLocale field for TEXT/LargeText columns (esedbinfo.c's codepage
// table).
const (
	CodepageUnicode            = 1200
	CodepageWesternEuropean    = 1252
	CodepageJapaneseShiftJIS   = 932
	CodepageSimplifiedChinese  = 936
	CodepageASCII              = 20127
)

// DecodeText converts a TEXT or LargeText column's raw bytes to a string
// using its codepage. Codepage 1200 (Unicode) decodes UTF-16LE directly;
// other codepages go through golang.org/x/text's single-byte or
// multi-byte encodings. An unrecognized codepage falls back to treating
// the bytes as Windows-1252, matching esedbinfo's own default.
func DecodeText(data []byte, codepage uint32) (string, error) {
	if codepage == CodepageUnicode {
		return decodeUTF16LE(data), nil
	}
	enc := textEncodingFor(codepage)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", newError(DomainInput, KindCorrupt, "decode text column", err)
	}
	return string(out), nil
}

func textEncodingFor(codepage uint32) encoding.Encoding {
	switch codepage {
	case CodepageJapaneseShiftJIS:
		return japanese.ShiftJIS
	case CodepageSimplifiedChinese:
		return simplifiedchinese.GBK
	case CodepageASCII:
		return charmap.Windows1252
	default:
		return charmap.Windows1252
	}
}

func decodeUTF16LE(data []byte) string {
	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return string(utf16.Decode(u16))
}
