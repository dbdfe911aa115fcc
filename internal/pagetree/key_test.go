package pagetree

import "testing"

func TestCompareIndexValueAgainstLeafExactMatch(t *testing.T) {
	needle := NewKey(KeyTypeIndexValue, []byte{0x01, 0x02, 0x03})
	stored := NewKey(KeyTypeLeaf, []byte{0x01, 0x02, 0x03})
	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Equal {
		t.Fatalf("expected Equal, got %v", result)
	}
}

func TestCompareIndexValueAgainstBranchExactMatchIsGreater(t *testing.T) {
	needle := NewKey(KeyTypeIndexValue, []byte{0x01, 0x02, 0x03})
	stored := NewKey(KeyTypeBranch, []byte{0x01, 0x02, 0x03})
	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Greater {
		t.Fatalf("expected Greater (exact branch match defers to next entry), got %v", result)
	}
}

func TestCompareIndexValueShorterThanLeafIsLess(t *testing.T) {
	needle := NewKey(KeyTypeIndexValue, []byte{0x01, 0x02})
	stored := NewKey(KeyTypeLeaf, []byte{0x01, 0x02, 0x03})
	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Less {
		t.Fatalf("expected Less, got %v", result)
	}
}

func TestCompareLongValueReversedByteOrder(t *testing.T) {
	// LONG_VALUE needle is walked from its last byte to its first, so a
	// needle of {0x03, 0x02, 0x01} matches a stored leaf key of
	// {0x01, 0x02, 0x03} read forward.
	needle := NewKey(KeyTypeLongValue, []byte{0x03, 0x02, 0x01})
	stored := NewKey(KeyTypeLeaf, []byte{0x01, 0x02, 0x03})
	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Equal {
		t.Fatalf("expected Equal, got %v", result)
	}
}

func TestCompareLongValueLongerThanBranchIsGreater(t *testing.T) {
	needle := NewKey(KeyTypeLongValue, []byte{0x00, 0x02, 0x01})
	stored := NewKey(KeyTypeBranch, []byte{0x01, 0x02})
	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Greater {
		t.Fatalf("expected Greater, got %v", result)
	}
}

func TestCompareFlexibleMatchHighBitQuirk(t *testing.T) {
	// At needle index 1, a high-bit-set byte that equals the stored byte
	// once masked is tolerated as a match (legacy ASCII/compressed key
	// compatibility quirk).
	needle := NewKey(KeyTypeIndexValue, []byte{0x01, 0x82, 0x03})
	stored := NewKey(KeyTypeLeaf, []byte{0x01, 0x02, 0x03})

	result, err := Compare(needle, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result != Greater {
		t.Fatalf("without flexible match, expected Greater, got %v", result)
	}

	result, err = CompareWithFlexibleMatch(needle, stored, true)
	if err != nil {
		t.Fatalf("CompareWithFlexibleMatch: %v", err)
	}
	if result != Equal {
		t.Fatalf("expected Equal via flexible match, got %v", result)
	}
}

func TestCompareRejectsUnsupportedNeedleType(t *testing.T) {
	needle := NewKey(KeyTypeBranch, []byte{0x01})
	stored := NewKey(KeyTypeLeaf, []byte{0x01})
	if _, err := Compare(needle, stored); err == nil {
		t.Fatalf("expected error for unsupported needle type")
	}
}

func TestAppendExtendsKeyData(t *testing.T) {
	k := NewKey(KeyTypeLeaf, []byte{0x01, 0x02})
	k.Append([]byte{0x03, 0x04})
	if len(k.Data) != 4 || k.Data[3] != 0x04 {
		t.Fatalf("Append produced %v", k.Data)
	}
}
