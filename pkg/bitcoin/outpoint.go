package bitcoin

import (
	"fmt"
	"math"

	"github.com/suffix-labs/bitcoin-block/pkg/codec"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// NullIndex is the output index used by the null outpoint of a coinbase.
const NullIndex = math.MaxUint32

// OutPoint references an output of a previous transaction.
type OutPoint struct {
	Hash  crypto.Hash // txid of the referenced transaction
	Index uint32      // output index within that transaction
}

// IsNull reports whether the outpoint is the null outpoint used by
// coinbase inputs: an all-zero hash and index 0xffffffff.
func (o OutPoint) IsNull() bool {
	return o.Index == NullIndex && o.Hash == crypto.ZeroHash
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// FieldValue implements codec.Valuer.
func (o OutPoint) FieldValue(name string) any {
	switch name {
	case fieldHash:
		return [codec.HashSize]byte(o.Hash)
	case fieldN:
		return o.Index
	}
	return nil
}

func outPointDescriptor() *codec.Descriptor {
	fields := []codec.Field{
		codec.F(codec.Hash256, fieldHash),
		codec.F(codec.Uint32, fieldN),
	}
	return &codec.Descriptor{
		Type:   TypeOutPoint,
		Name:   "OutPoint",
		Decode: fields,
		Encode: fields,
		Build: func(rec *codec.Record) (any, error) {
			return OutPoint{
				Hash:  crypto.Hash(rec.Hash(fieldHash)),
				Index: rec.Uint32(fieldN),
			}, nil
		},
	}
}
