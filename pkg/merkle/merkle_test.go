package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

func hashes(t require.TestingT, strs ...string) []crypto.Hash {
	out := make([]crypto.Hash, 0, len(strs))
	for _, s := range strs {
		h, err := crypto.NewHashFromStr(s)
		require.NoError(t, err)
		out = append(out, h)
	}
	return out
}

// Block 100000.
func TestRootKnownBlock(t *testing.T) {
	txids := hashes(t,
		"8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87",
		"fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4",
		"6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4",
		"e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d",
	)

	root, err := Root(txids)
	require.NoError(t, err)
	assert.Equal(t, "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766", root.String())
}

func TestRootEdgeCases(t *testing.T) {
	_, err := Root(nil)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = NewWalker([]crypto.Hash{})
	require.ErrorIs(t, err, ErrEmpty)

	single := crypto.DoubleSHA256([]byte("only"))
	root, err := Root([]crypto.Hash{single})
	require.NoError(t, err)
	assert.Equal(t, single, root)

	w, err := NewWalker([]crypto.Hash{single})
	require.NoError(t, err)
	_, ok := w.Next()
	assert.False(t, ok)
}

func TestWalkerNodes(t *testing.T) {
	a := crypto.DoubleSHA256([]byte("a"))
	b := crypto.DoubleSHA256([]byte("b"))
	c := crypto.DoubleSHA256([]byte("c"))

	w, err := NewWalker([]crypto.Hash{a, b, c})
	require.NoError(t, err)

	var nodes []Node
	for n := range w.All() {
		nodes = append(nodes, n)
	}
	require.Len(t, nodes, 3)

	ab := crypto.DoubleSHA256Concat(a[:], b[:])
	cc := crypto.DoubleSHA256Concat(c[:], c[:])
	root := crypto.DoubleSHA256Concat(ab[:], cc[:])

	assert.Equal(t, Node{Hash: ab, Left: a, Right: b, Level: 1, Index: 0}, nodes[0])
	assert.Equal(t, Node{Hash: cc, Left: c, Right: c, Level: 1, Index: 1}, nodes[1])
	assert.Equal(t, Node{Hash: root, Left: ab, Right: cc, Level: 2, Index: 0}, nodes[2])

	// Single pass.
	_, ok := w.Next()
	assert.False(t, ok)
}

func TestWalkerDoesNotMutateInput(t *testing.T) {
	in := []crypto.Hash{crypto.DoubleSHA256([]byte("x")), crypto.DoubleSHA256([]byte("y")), crypto.DoubleSHA256([]byte("z"))}
	orig := append([]crypto.Hash(nil), in...)

	_, err := Root(in)
	require.NoError(t, err)
	assert.Equal(t, orig, in)
}

func drawHashes(t *rapid.T, minLen int) []crypto.Hash {
	n := rapid.IntRange(minLen, 40).Draw(t, "n")
	out := make([]crypto.Hash, n)
	for i := range out {
		b := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash")
		copy(out[i][:], b)
	}
	return out
}

// naiveRoot is a direct recursive rendition of the merkle algorithm.
func naiveRoot(level []crypto.Hash) crypto.Hash {
	if len(level) == 1 {
		return level[0]
	}
	if len(level)%2 == 1 {
		level = append(level, level[len(level)-1])
	}
	var next []crypto.Hash
	for i := 0; i < len(level); i += 2 {
		next = append(next, crypto.DoubleSHA256Concat(level[i][:], level[i+1][:]))
	}
	return naiveRoot(next)
}

func TestRootProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := drawHashes(rt, 1)

		root, err := Root(in)
		require.NoError(rt, err)
		require.Equal(rt, naiveRoot(append([]crypto.Hash(nil), in...)), root)

		// Odd-length input equals the input with its last element repeated.
		if len(in)%2 == 1 && len(in) > 1 {
			padded := append(append([]crypto.Hash(nil), in...), in[len(in)-1])
			root2, err := Root(padded)
			require.NoError(rt, err)
			require.Equal(rt, root, root2)
		}
	})
}
