// Package merkle builds Bitcoin merkle trees over 32-byte hashes.
//
// Each level is formed by double-SHA256 hashing the concatenation of
// adjacent pairs. A level with an odd number of entries duplicates its last
// entry first. A single hash is its own root.
package merkle

import (
	"errors"
	"iter"

	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// ErrEmpty is returned when a tree is requested over no hashes.
var ErrEmpty = errors.New("merkle: must have at least one element")

// Node is one interior node of the tree.
type Node struct {
	Hash  crypto.Hash
	Left  crypto.Hash
	Right crypto.Hash

	// Level is 1 for parents of leaves and increases towards the root.
	Level int

	// Index is the position of the node within its level.
	Index int
}

// Walker produces the interior nodes of a merkle tree lazily, one pair hash
// per call, level by level from the leaves up. The final node produced is
// the root. A Walker is single-pass and cannot be restarted.
type Walker struct {
	level []crypto.Hash
	next  []crypto.Hash
	pos   int
	depth int
	done  bool
}

// NewWalker creates a walker over the given leaves. The slice is copied.
func NewWalker(hashes []crypto.Hash) (*Walker, error) {
	if len(hashes) == 0 {
		return nil, ErrEmpty
	}
	level := make([]crypto.Hash, len(hashes), len(hashes)+1)
	copy(level, hashes)
	return &Walker{level: level}, nil
}

// Next returns the next interior node, or false once the root has been
// produced.
func (w *Walker) Next() (Node, bool) {
	for !w.done {
		if w.pos == 0 {
			if len(w.level) == 1 {
				w.done = true
				break
			}
			if len(w.level)%2 == 1 {
				w.level = append(w.level, w.level[len(w.level)-1])
			}
		}

		if w.pos >= len(w.level) {
			w.level, w.next = w.next, nil
			w.pos = 0
			w.depth++
			continue
		}

		left, right := w.level[w.pos], w.level[w.pos+1]
		node := Node{
			Hash:  crypto.DoubleSHA256Concat(left[:], right[:]),
			Left:  left,
			Right: right,
			Level: w.depth + 1,
			Index: w.pos / 2,
		}
		w.next = append(w.next, node.Hash)
		w.pos += 2
		return node, true
	}
	return Node{}, false
}

// All returns an iterator over the remaining nodes. Nodes consumed through
// the iterator are not produced again by Next.
func (w *Walker) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for {
			n, ok := w.Next()
			if !ok || !yield(n) {
				return
			}
		}
	}
}

// Root returns the merkle root of hashes.
func Root(hashes []crypto.Hash) (crypto.Hash, error) {
	w, err := NewWalker(hashes)
	if err != nil {
		return crypto.Hash{}, err
	}

	root := hashes[0]
	for n := range w.All() {
		root = n.Hash
	}
	return root, nil
}
