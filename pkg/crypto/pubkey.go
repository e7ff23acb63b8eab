package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Serialized public key sizes.
const (
	PubKeyCompressedSize   = 33
	PubKeyUncompressedSize = 65
)

// ParsePubKey parses a compressed, uncompressed or hybrid secp256k1 public
// key and verifies that it lies on the curve.
func ParsePubKey(b []byte) (*secp256k1.PublicKey, error) {
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// IsValidPubKey reports whether b is a well-formed secp256k1 public key.
func IsValidPubKey(b []byte) bool {
	_, err := ParsePubKey(b)
	return err == nil
}
