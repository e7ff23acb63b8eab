package bitcoin

import (
	"sync"

	"github.com/suffix-labs/bitcoin-block/pkg/codec"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
	"github.com/suffix-labs/bitcoin-block/pkg/merkle"
)

// Block is a full block: a header plus its transactions, coinbase first.
type Block struct {
	BlockHeader
	Transactions []*Transaction

	size int

	segWitOnce sync.Once
	segWit     bool
}

// NewBlock assembles a block and computes its hash and size by serialising
// it.
func NewBlock(header BlockHeader, txs []*Transaction) (*Block, error) {
	b := &Block{BlockHeader: header, Transactions: txs}
	raw, err := b.Encode(WithWitness)
	if err != nil {
		return nil, err
	}
	b.hash = crypto.DoubleSHA256(raw[:HeaderSize])
	b.size = len(raw)
	return b, nil
}

// Header returns a copy of the block's header.
func (b *Block) Header() *BlockHeader {
	h := b.BlockHeader
	return &h
}

// Size returns the serialised block size in bytes, witness data included.
func (b *Block) Size() int { return b.size }

// StrippedSize returns the serialised size with all witness data removed.
func (b *Block) StrippedSize() int {
	n := HeaderSize + codec.CompactSizeLen(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		n += tx.SizeNoWitness()
	}
	return n
}

// Weight returns strippedsize*3 + size.
func (b *Block) Weight() int {
	return b.StrippedSize()*(WitnessScaleFactor-1) + b.size
}

// IsSegWit reports whether any transaction in the block carries witness
// data. The answer is computed once.
func (b *Block) IsSegWit() (bool, error) {
	if len(b.Transactions) == 0 {
		return false, precondition(CodeNoTransactions, "IsSegWit",
			"cannot determine if segwit without transactions")
	}
	b.segWitOnce.Do(func() {
		for _, tx := range b.Transactions {
			if tx.SegWit {
				b.segWit = true
				return
			}
		}
	})
	return b.segWit, nil
}

// CalculateMerkleRoot recomputes the merkle root from the transactions.
//
// WithoutWitness builds the tree over txids and yields the value stored in
// the header. WithWitness builds it over witness hashes with the coinbase
// leaf replaced by zeros, as used for the witness commitment.
func (b *Block) CalculateMerkleRoot(mode WitnessMode) (crypto.Hash, error) {
	if len(b.Transactions) == 0 {
		return crypto.Hash{}, precondition(CodeNoTransactions, "CalculateMerkleRoot",
			"cannot calculate merkle root without transactions")
	}

	leaves := make([]crypto.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		switch {
		case mode == WithoutWitness:
			leaves[i] = tx.TxID()
		case i == 0:
			leaves[i] = crypto.ZeroHash
		default:
			leaves[i] = tx.Hash()
		}
	}
	return merkle.Root(leaves)
}

// CalculateWitnessCommitment computes
// DoubleSHA256(witnessMerkleRoot || witnessNonce), the value a SegWit
// coinbase must commit to.
func (b *Block) CalculateWitnessCommitment() (crypto.Hash, error) {
	const op = "CalculateWitnessCommitment"

	if len(b.Transactions) == 0 {
		return crypto.Hash{}, precondition(CodeNoTransactions, op,
			"cannot calculate witness commitment without transactions")
	}
	segWit, err := b.IsSegWit()
	if err != nil {
		return crypto.Hash{}, err
	}
	if !segWit {
		return crypto.Hash{}, precondition(CodeNotSegWit, op,
			"cannot calculate witness commitment of non-segwit block")
	}

	coinbase := b.Transactions[0]
	nonce := coinbase.WitnessCommitmentNonce()
	if nonce == nil {
		return crypto.Hash{}, precondition(CodeBadWitnessNonce, op,
			"coinbase witness must be a single 32-byte item")
	}
	if coinbase.WitnessCommitmentIndex() < 0 {
		return crypto.Hash{}, precondition(CodeNoWitnessCommitment, op,
			"coinbase has no witness commitment output")
	}

	root, err := b.CalculateMerkleRoot(WithWitness)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.DoubleSHA256Concat(root[:], nonce), nil
}

// WitnessCommitment returns the witness commitment found in the coinbase,
// or nil if the coinbase has none.
func (b *Block) WitnessCommitment() ([]byte, error) {
	if len(b.Transactions) == 0 {
		return nil, precondition(CodeNoTransactions, "WitnessCommitment",
			"cannot get witness commitment without transactions")
	}
	return b.Transactions[0].WitnessCommitment(), nil
}

// Encode serialises the block. WithoutWitness strips witness data from
// every transaction.
func (b *Block) Encode(mode WitnessMode) ([]byte, error) {
	return registry.Encode(b, TypeBlock, mode.flags())
}

// FieldValue implements codec.Valuer.
func (b *Block) FieldValue(name string) any {
	if name == fieldTx {
		return codec.List(b.Transactions)
	}
	return b.BlockHeader.FieldValue(name)
}

func blockDescriptor() *codec.Descriptor {
	decode := []codec.Field{codec.H(hookBlockMarkStart, "markStart")}
	decode = append(decode, headerFields()...)
	decode = append(decode,
		codec.H(hookHeaderHash, fieldHash),
		codec.F(codec.VectorOf(codec.Nested(TypeTransaction)), fieldTx),
		codec.H(hookBlockSize, fieldSize),
	)

	encode := append(headerFields(),
		codec.F(codec.VectorOf(codec.Nested(TypeTransaction)), fieldTx))

	return &codec.Descriptor{
		Type:   TypeBlock,
		Name:   "Block",
		Decode: decode,
		Encode: encode,
		DecodeHooks: map[codec.HookID]codec.DecodeHook{
			hookBlockMarkStart: decodeBlockMarkStart,
			hookHeaderHash:     decodeHeaderHash,
			hookBlockSize:      decodeBlockSize,
		},
		Build: func(rec *codec.Record) (any, error) {
			return &Block{
				BlockHeader:  buildHeader(rec),
				Transactions: codec.ListOf[*Transaction](rec, fieldTx),
				size:         rec.Int(fieldSize),
			}, nil
		},
	}
}

func decodeBlockSize(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	rec.Set(fieldSize, d.Pos()-st.MustPos(markBlockStart))
	return nil
}
