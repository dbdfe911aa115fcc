package lrucache

import "testing"

func TestGetPutBasic(t *testing.T) {
	c := New[int, string](2)
	c.Put(1, "a")
	c.Put(2, "b")

	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("get 1 = %q, %v", v, ok)
	}
	c.Put(3, "c") // evicts 2, since 1 was just promoted
	if _, ok := c.Get(2); ok {
		t.Fatalf("expected 2 to be evicted")
	}
	if v, ok := c.Get(3); !ok || v != "c" {
		t.Fatalf("get 3 = %q, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}

func TestZeroCapacityDisablesCache(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected miss with zero capacity")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
}

func TestResetClearsEntries(t *testing.T) {
	c := New[int, int](4)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("len after reset = %d, want 0", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected miss after reset")
	}
}

func TestUpdateExistingKeyPromotes(t *testing.T) {
	c := New[int, int](2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Put(1, 100) // update + promote 1
	c.Put(3, 3)   // should evict 2, not 1
	if _, ok := c.Get(2); ok {
		t.Fatalf("expected 2 evicted")
	}
	if v, ok := c.Get(1); !ok || v != 100 {
		t.Fatalf("get 1 = %d, %v", v, ok)
	}
}
