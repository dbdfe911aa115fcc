// Package blocktree implements a sparse, range-indexed trie used to detect
// cycles while walking a B-tree page hierarchy: every page is identified by
// its byte offset in the file, and a walker records each offset it visits
// here before descending further. A second visit to the same offset signals
// a cycle.
//
// The structure is ported from
// original_source/libesedb/libesedb_block_tree.c and
// libesedb_block_tree_node.c: a tree of fixed fan-out nodes, each covering
// an offset range, subdividing until a node's FanOut sub-ranges are single
// leaf slots of leafSize bytes each.
package blocktree

import "fmt"

// FanOut is the number of sub-nodes (or leaf slots) per branch node. This
// matches upstream's LIBESEDB_BLOCK_TREE_NUMBER_OF_SUB_NODES.
const FanOut = 256

type node struct {
	start, end   int64
	subNodeSize  int64
	isLeaf       bool
	subNodes     []*node          // populated when !isLeaf, lazily
	leafValues   []*Descriptor    // populated when isLeaf, lazily
}

func newNode(start int64, size int64, leafSize int64) *node {
	subNodeSize := leafSize
	for size/subNodeSize > FanOut {
		subNodeSize *= FanOut
	}
	n := &node{
		start:       start,
		end:         start + size,
		subNodeSize: subNodeSize,
		isLeaf:      subNodeSize == leafSize,
	}
	if n.isLeaf {
		n.leafValues = make([]*Descriptor, FanOut)
	} else {
		n.subNodes = make([]*node, FanOut)
	}
	return n
}

func (n *node) subNodeIndex(offset int64) int64 {
	return (offset - n.start) / n.subNodeSize
}

// Descriptor is the leaf value stored at a given offset: a marker that a
// page (or other fixed-size block) at that offset has been visited, plus
// caller-defined payload used to detect structural inconsistencies (e.g.
// the page number expected at that offset).
type Descriptor struct {
	PageNumber uint32
}

// Tree is a block tree covering [0, totalSize) in units of leafSize-sized
// blocks (typically the file's page size).
type Tree struct {
	root     *node
	leafSize int64
}

// New creates a block tree spanning totalSize bytes, with leafSize-sized
// leaf slots (one per trackable block, e.g. one per page).
func New(totalSize int64, leafSize int64) (*Tree, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("blocktree: invalid total size %d", totalSize)
	}
	if leafSize <= 0 {
		return nil, fmt.Errorf("blocktree: invalid leaf size %d", leafSize)
	}
	return &Tree{
		root:     newNode(0, totalSize, leafSize),
		leafSize: leafSize,
	}, nil
}

// Get retrieves the descriptor recorded at offset, if any.
func (t *Tree) Get(offset int64) (*Descriptor, bool) {
	n := t.root
	for !n.isLeaf {
		if offset < n.start || offset >= n.end {
			return nil, false
		}
		idx := n.subNodeIndex(offset)
		sub := n.subNodes[idx]
		if sub == nil {
			return nil, false
		}
		n = sub
	}
	idx := n.subNodeIndex(offset)
	desc := n.leafValues[idx]
	return desc, desc != nil
}

// Insert records desc at offset. It returns (nil, true) when the offset was
// unset and is now recorded, or (existing, false) when the offset already
// carried a descriptor — the caller's cue that it has revisited a block and
// should treat this as a cycle.
func (t *Tree) Insert(offset int64, desc *Descriptor) (*Descriptor, bool) {
	n := t.root
	for !n.isLeaf {
		idx := n.subNodeIndex(offset)
		sub := n.subNodes[idx]
		if sub == nil {
			subStart := n.start + idx*n.subNodeSize
			sub = newNode(subStart, n.subNodeSize, t.leafSize)
			n.subNodes[idx] = sub
		}
		n = sub
	}
	idx := n.subNodeIndex(offset)
	if existing := n.leafValues[idx]; existing != nil {
		return existing, false
	}
	n.leafValues[idx] = desc
	return nil, true
}
