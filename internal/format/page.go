package format

import (
	"fmt"

	"github.com/libyal/go-esedb/internal/buf"
)

// PageHeader is the fixed-size header common to every page.
type PageHeader struct {
	XORChecksum       uint32
	ECCChecksumOrPage uint32
	ModificationTime  uint64
	Previous          uint32
	Next              uint32
	FatherObject      uint32
	AvailDataSize     uint16
	AvailUncommitted  uint16
	FirstFreeOffset   uint16
	AvailPageTagCount uint16
	Flags             uint32
}

func (h PageHeader) IsRoot() bool         { return h.Flags&PageFlagRoot != 0 }
func (h PageHeader) IsLeaf() bool         { return h.Flags&PageFlagLeaf != 0 }
func (h PageHeader) IsParentOfLeaf() bool { return h.Flags&PageFlagParentOfLeaf != 0 }
func (h PageHeader) IsIndex() bool        { return h.Flags&PageFlagIndex != 0 }
func (h PageHeader) IsLongValue() bool    { return h.Flags&PageFlagLongValue != 0 }
func (h PageHeader) IsEmpty() bool        { return h.Flags&PageFlagEmpty != 0 }
func (h PageHeader) IsSpaceTree() bool    { return h.Flags&PageFlagSpaceTree != 0 }
func (h PageHeader) NewRecordFormat() bool {
	return h.Flags&PageFlagNewRecordFormat != 0
}

// Tag describes one page-tag-array entry: where its value lives in the
// page's middle region and what flags apply to it.
type Tag struct {
	Offset uint16
	Size   uint16
	Flags  uint8
}

func (t Tag) IsDefunct() bool       { return t.Flags&TagFlagDeleted != 0 }
func (t Tag) HasCommonKeySize() bool { return t.Flags&TagFlagCommonKeySize != 0 }

// Page is a fully parsed page: header plus its tag array, in on-page order.
type Page struct {
	Number   uint32
	PageSize uint32
	Header   PageHeader
	Tags     []Tag
	raw      []byte // full page bytes, header included
}

// RootExtra holds the fields present only on a root page.
type RootExtra struct {
	InitialNumberOfPages uint32
	SpaceTreePageNumber  uint32
}

// ParsePage decodes a page's header and tag array from raw bytes. raw must
// be exactly pageSize bytes. number is the page's 1-based logical number
// (0 identifies the file header "page", never passed here).
func ParsePage(raw []byte, number uint32, pageSize uint32) (Page, error) {
	if uint32(len(raw)) != pageSize {
		return Page{}, fmt.Errorf("page %d: %w: want %d bytes, got %d", number, ErrTruncated, pageSize, len(raw))
	}
	if len(raw) < PageHeaderSize {
		return Page{}, fmt.Errorf("page %d: %w", number, ErrTruncated)
	}

	h := PageHeader{
		XORChecksum:       buf.U32LE(raw[PageXORChecksumOffset:]),
		ECCChecksumOrPage: buf.U32LE(raw[PageECCChecksumOffset:]),
		ModificationTime:  buf.U64LE(raw[PageModificationTimeOffset:]),
		Previous:          buf.U32LE(raw[PagePreviousOffset:]),
		Next:              buf.U32LE(raw[PageNextOffset:]),
		FatherObject:      buf.U32LE(raw[PageFatherObjectOffset:]),
		AvailDataSize:     buf.U16LE(raw[PageAvailDataSizeOffset:]),
		AvailUncommitted:  buf.U16LE(raw[PageAvailUncommittedOffset:]),
		FirstFreeOffset:   buf.U16LE(raw[PageFirstFreeOffset:]),
		AvailPageTagCount: buf.U16LE(raw[PageAvailPageTagOffset:]),
		Flags:             buf.U32LE(raw[PageFlagsOffset:]),
	}

	tags, err := parseTagArray(raw, int(h.AvailPageTagCount), pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", number, err)
	}

	return Page{
		Number:   number,
		PageSize: pageSize,
		Header:   h,
		Tags:     tags,
		raw:      raw,
	}, nil
}

// parseTagArray reads the tag array, which grows downward from the end of
// the page. Entries are stored in reverse (tag 0 is nearest the page end).
//
// Pages below LargePageSizeThreshold pack value_flags into the top three
// bits of the 16-bit size word, leaving 13 bits (up to 8191) for the value
// size itself. Pages at or above that threshold can carry values bigger
// than 8191 bytes, so the size word's full 15 bits are needed for
// magnitude and there is no room left for flags in the tag entry: the flag
// byte instead becomes the first byte of the value it describes, the same
// leading-byte convention NEW_RECORD_FORMAT tagged values already use (see
// internal/record.decodeTaggedRegion).
func parseTagArray(raw []byte, count int, pageSize uint32) ([]Tag, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative tag count", ErrInvalidData)
	}
	extended := pageSize >= LargePageSizeThreshold
	entrySize := PageTagEntrySize
	if extended {
		entrySize = PageTagEntrySizeExtended
	}
	tags := make([]Tag, count)
	for i := 0; i < count; i++ {
		entryEnd := int(pageSize) - i*entrySize
		entryStart := entryEnd - entrySize
		if entryStart < PageHeaderSize || entryEnd > len(raw) {
			return nil, fmt.Errorf("%w: tag %d out of bounds", ErrInvalidData, i)
		}
		entry := raw[entryStart:entryEnd]

		offsetField := buf.U16LE(entry[0:2])
		sizeField := buf.U16LE(entry[2:4])
		offset := offsetField & 0x7fff

		var size uint16
		var flags uint8
		if extended {
			rawSize := sizeField & 0x7fff
			if rawSize > 0 {
				if int(offset)+int(rawSize) > int(pageSize) {
					return nil, fmt.Errorf("%w: tag %d value exceeds page bounds", ErrInvalidData, i)
				}
				flags = raw[offset]
				offset++
				size = rawSize - 1
			}
		} else {
			flags = uint8(sizeField >> 13)
			size = sizeField & 0x1fff
			if int(offset)+int(size) > int(pageSize) {
				return nil, fmt.Errorf("%w: tag %d value exceeds page bounds", ErrInvalidData, i)
			}
		}
		tags[i] = Tag{Offset: offset, Size: size, Flags: flags}
	}
	if err := validateNoOverlap(tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// validateNoOverlap enforces the page invariant that tag value regions do
// not overlap.
func validateNoOverlap(tags []Tag) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(tags))
	for _, t := range tags {
		if t.Size == 0 {
			continue
		}
		spans = append(spans, span{int(t.Offset), int(t.Offset) + int(t.Size)})
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return fmt.Errorf("%w: overlapping page tags", ErrInvalidData)
			}
		}
	}
	return nil
}

// Value returns the raw bytes a tag points to.
func (p Page) Value(t Tag) []byte {
	return p.raw[t.Offset : t.Offset+t.Size]
}

// RootExtra parses the extra 16-byte root header, valid only when
// Header.IsRoot() is true. It occupies the first bytes of tag 0's value on
// a root page.
func (p Page) RootExtra() (RootExtra, error) {
	if len(p.Tags) == 0 {
		return RootExtra{}, fmt.Errorf("%w: root page has no tags", ErrInvalidData)
	}
	v := p.Value(p.Tags[0])
	if len(v) < RootPageExtraHeaderSize {
		return RootExtra{}, fmt.Errorf("%w: root extra header truncated", ErrTruncated)
	}
	return RootExtra{
		InitialNumberOfPages: buf.U32LE(v[0:4]),
		SpaceTreePageNumber:  buf.U32LE(v[4:8]),
	}, nil
}

// PageValue is a decoded page-tree value: the common-key-borrow size, the
// value's own local key bytes, and its data payload.
type PageValue struct {
	CommonKeySize uint16
	LocalKey      []byte
	Data          []byte
}

// ParsePageValue decodes one tag's value into a page-tree value, per
// original_source/libesedb/libesedb_page_tree_value.c's layout: an optional
// leading 16-bit common_key_size (present when the tag carries
// HasCommonKeySize), followed by a 16-bit local_key_size, the local key
// bytes, and the remaining bytes as data.
func ParsePageValue(data []byte, hasCommonKeySize bool) (PageValue, error) {
	offset := 0
	minSize := 2
	if hasCommonKeySize {
		minSize = 4
	}
	if len(data) < minSize {
		return PageValue{}, fmt.Errorf("page value: %w", ErrTruncated)
	}

	var commonKeySize uint16
	if hasCommonKeySize {
		commonKeySize = buf.U16LE(data[offset:])
		offset += 2
	}
	localKeySize := buf.U16LE(data[offset:])
	offset += 2

	if int(localKeySize) > len(data)-offset {
		return PageValue{}, fmt.Errorf("page value: %w: local key size out of bounds", ErrInvalidData)
	}
	localKey := data[offset : offset+int(localKeySize)]
	offset += int(localKeySize)

	return PageValue{
		CommonKeySize: commonKeySize,
		LocalKey:      localKey,
		Data:          data[offset:],
	}, nil
}
