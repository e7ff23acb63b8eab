// Package crypto provides the hash primitives used by Bitcoin consensus
// structures and scripts.
//
// Hashes:
//   - DoubleSHA256: SHA-256 applied twice, used for block hashes, txids,
//     merkle nodes and base58check checksums
//   - Hash160: RIPEMD-160 of SHA-256, used for pubkey and script hashes
//
// Hash values are stored in wire order. Their string form is byte-reversed
// hex, the convention used by block explorers and Bitcoin Core RPC.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// HashSize is the size of a Hash in bytes.
const HashSize = chainhash.HashSize

// Hash160Size is the size of a Hash160 digest in bytes.
const Hash160Size = 20

// Hash is a 32-byte double-SHA256 digest in wire byte order.
type Hash = chainhash.Hash

// ZeroHash is the all-zero hash. As a previous block hash it marks the
// genesis block; as an outpoint hash it marks a coinbase input.
var ZeroHash Hash

// NewHashFromStr parses a byte-reversed 64-character hex string. Unlike
// chainhash.NewHashFromStr, shorter strings are rejected rather than
// zero padded.
func NewHashFromStr(s string) (Hash, error) {
	if len(s) != HashSize*2 {
		return Hash{}, fmt.Errorf("hash string must be %d hex characters, got %d", HashSize*2, len(s))
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash string: %w", err)
	}
	return *h, nil
}

// DoubleSHA256 returns SHA256(SHA256(b)).
func DoubleSHA256(b []byte) Hash {
	return chainhash.DoubleHashH(b)
}

// DoubleSHA256Concat hashes the concatenation of the given slices.
func DoubleSHA256Concat(parts ...[]byte) Hash {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return chainhash.DoubleHashH(buf)
}

// Ripemd160 returns the RIPEMD-160 digest of b.
func Ripemd160(b []byte) [Hash160Size]byte {
	var out [Hash160Size]byte
	h := ripemd160.New()
	h.Write(b)
	h.Sum(out[:0])
	return out
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) [Hash160Size]byte {
	return Ripemd160(chainhash.HashB(b))
}
