package bitcoin

import (
	"fmt"

	"github.com/suffix-labs/bitcoin-block/pkg/codec"
)

// DecodeOptions controls how a byte buffer is decoded.
type DecodeOptions struct {
	// Strict rejects buffers with bytes left over after the value.
	Strict bool
}

func decode[T any](buf []byte, t codec.TypeID, opts DecodeOptions) (T, int, error) {
	var zero T
	v, n, err := registry.Decode(buf, t, opts.Strict)
	if err != nil {
		return zero, 0, err
	}
	out, ok := v.(T)
	if !ok {
		panic(&codec.ProgrammingError{Message: fmt.Sprintf("type %d built %T, want %T", t, v, zero)})
	}
	return out, n, nil
}

// DecodeBlock decodes a full block from buf. It returns the block and the
// number of bytes consumed.
func DecodeBlock(buf []byte, opts DecodeOptions) (*Block, int, error) {
	return decode[*Block](buf, TypeBlock, opts)
}

// DecodeBlockHeaderOnly decodes only the 80-byte header at the start of
// buf. Anything after the header is ignored unless opts.Strict is set.
func DecodeBlockHeaderOnly(buf []byte, opts DecodeOptions) (*BlockHeader, error) {
	h, _, err := decode[*BlockHeader](buf, TypeBlockHeader, opts)
	return h, err
}

// DecodeTransaction decodes a single transaction from buf. It returns the
// transaction and the number of bytes consumed.
func DecodeTransaction(buf []byte, opts DecodeOptions) (*Transaction, int, error) {
	return decode[*Transaction](buf, TypeTransaction, opts)
}
