// Package pagetree implements the B+-tree page hierarchy used throughout an
// EDB file: the catalog, each table's data tree, each index's key tree, and
// the long-value store are all instances of the same page-tree shape,
// differing only in the keys they carry.
//
// Key and Compare are ported from
// original_source/libesedb/libesedb_page_tree_key.c, which implements a
// comparison quirky enough that it deserves to stay close to the original:
// branch separator keys compare differently from leaf keys, and the
// long-value key types are stored and compared byte-reversed.
package pagetree

import "fmt"

// KeyType distinguishes how a Key participates in Compare. Only INDEX_VALUE,
// LONG_VALUE and LONG_VALUE_SEGMENT may appear as the "needle" (first
// argument); only BRANCH and LEAF may appear as the "stored" key (second
// argument) being searched against.
type KeyType int

const (
	KeyTypeIndexValue KeyType = iota
	KeyTypeLongValue
	KeyTypeLongValueSegment
	KeyTypeBranch
	KeyTypeLeaf
)

// Key is a page-tree key: a byte string tagged with the role it plays in a
// Compare call.
type Key struct {
	Type KeyType
	Data []byte
}

// NewKey creates a key with the given type and an independent copy of data.
func NewKey(t KeyType, data []byte) Key {
	k := Key{Type: t, Data: make([]byte, len(data))}
	copy(k.Data, data)
	return k
}

// Set replaces the key's data.
func (k *Key) Set(data []byte) {
	k.Data = make([]byte, len(data))
	copy(k.Data, data)
}

// Append extends the key's data, used when reconstituting a branch or leaf
// key from a common-key prefix plus a value's local key bytes.
func (k *Key) Append(data []byte) {
	k.Data = append(k.Data, data...)
}

// CompareResult mirrors libfdata's ordering outcomes, including the two
// "inclusive" variants GREATER_EQUAL and LESS_EQUAL. Compare emits
// LessOrEqual only for LONG_VALUE/LONG_VALUE_SEGMENT needles against
// KeyTypeBranch targets, and never emits GreaterOrEqual.
type CompareResult int

const (
	Less CompareResult = iota
	LessOrEqual
	Equal
	GreaterOrEqual
	Greater
)

// Compare compares needle (an INDEX_VALUE, LONG_VALUE or LONG_VALUE_SEGMENT
// key being searched for) against stored (a BRANCH separator or LEAF key
// read from a page), following libesedb_page_tree_key_compare's exact
// rules. Compare never applies the legacy Windows XP search-database
// flexible-match quirk; see CompareWithFlexibleMatch for that.
func Compare(needle, stored Key) (CompareResult, error) {
	return compare(needle, stored, false)
}

// CompareWithFlexibleMatch behaves as Compare, but when flexibleMatch is
// true additionally tolerates one specific legacy quirk noted in upstream
// as a TODO: at byte index 1 of an INDEX_VALUE needle compared against a
// LEAF key, a needle byte with its high bit set that matches the stored
// byte once the high bit is masked off is treated as equal. Upstream notes
// this does not hold for branch keys on Windows XP search databases, so it
// is opt-in rather than always-on; see DESIGN.md for the Open Question this
// resolves.
func CompareWithFlexibleMatch(needle, stored Key, flexibleMatch bool) (CompareResult, error) {
	return compare(needle, stored, flexibleMatch)
}

func compare(needle, stored Key, flexibleMatch bool) (CompareResult, error) {
	if len(needle.Data) == 0 {
		return 0, fmt.Errorf("pagetree: compare: needle key has no data")
	}
	if needle.Type != KeyTypeIndexValue && needle.Type != KeyTypeLongValue && needle.Type != KeyTypeLongValueSegment {
		return 0, fmt.Errorf("pagetree: compare: unsupported needle key type %d", needle.Type)
	}
	if stored.Type != KeyTypeBranch && stored.Type != KeyTypeLeaf {
		return 0, fmt.Errorf("pagetree: compare: unsupported stored key type %d", stored.Type)
	}

	var compareResult int
	if len(stored.Data) > 0 {
		compareSize := len(needle.Data)
		if len(stored.Data) < compareSize {
			compareSize = len(stored.Data)
		}

		var needleIdx int
		if needle.Type == KeyTypeLongValue {
			needleIdx = len(needle.Data) - 1
		}

		for storedIdx := 0; storedIdx < compareSize; storedIdx++ {
			needleByte := needle.Data[needleIdx]

			if flexibleMatch && needle.Type == KeyTypeIndexValue && stored.Type == KeyTypeLeaf {
				if needleIdx == 1 && needleByte&0x80 != 0 && needleByte&0x7f == stored.Data[storedIdx] {
					needleByte &= 0x7f
				}
			}

			compareResult = int(needleByte) - int(stored.Data[storedIdx])
			if compareResult != 0 {
				break
			}
			if needle.Type == KeyTypeLongValue {
				needleIdx--
			} else {
				needleIdx++
			}
		}
	}

	switch {
	case compareResult > 0:
		return Greater, nil

	case stored.Type == KeyTypeBranch:
		switch {
		case needle.Type == KeyTypeIndexValue:
			// An exact match on a branch separator means the target value
			// lives in the next branch entry, not this one.
			if compareResult == 0 {
				return Greater, nil
			}
			return Equal, nil

		case needle.Type == KeyTypeLongValue || needle.Type == KeyTypeLongValueSegment:
			if compareResult == 0 && len(needle.Data) > len(stored.Data) {
				return Greater, nil
			}
			return LessOrEqual, nil

		default:
			return Equal, nil
		}

	case stored.Type == KeyTypeLeaf:
		switch {
		case compareResult < 0:
			return Less, nil
		case len(needle.Data) < len(stored.Data):
			return Less, nil
		case len(needle.Data) > len(stored.Data):
			return Greater, nil
		default:
			return Equal, nil
		}
	}

	return Equal, nil
}
