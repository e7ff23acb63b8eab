package bitcoin

import (
	"github.com/suffix-labs/bitcoin-block/pkg/codec"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// HeaderSize is the serialised size of a block header.
const HeaderSize = 80

// BlockHeader is the 80-byte block header.
type BlockHeader struct {
	Version    int32
	PrevBlock  crypto.Hash // all zero for the genesis block
	MerkleRoot crypto.Hash // as found on the wire, never recomputed
	Time       uint32      // unix seconds
	Bits       uint32      // compact target
	Nonce      uint32

	hash crypto.Hash
}

// NewBlockHeader builds a header and computes its hash.
func NewBlockHeader(version int32, prevBlock, merkleRoot crypto.Hash, time, bits, nonce uint32) (*BlockHeader, error) {
	h := &BlockHeader{
		Version:    version,
		PrevBlock:  prevBlock,
		MerkleRoot: merkleRoot,
		Time:       time,
		Bits:       bits,
		Nonce:      nonce,
	}
	raw, err := h.Encode()
	if err != nil {
		return nil, err
	}
	h.hash = crypto.DoubleSHA256(raw)
	return h, nil
}

// Hash returns the double-SHA256 of the 80 header bytes.
func (h *BlockHeader) Hash() crypto.Hash { return h.hash }

// IsGenesis reports whether the header has no previous block.
func (h *BlockHeader) IsGenesis() bool { return h.PrevBlock == crypto.ZeroHash }

// Difficulty returns the difficulty implied by Bits, relative to the
// difficulty-1 target. It is computed in IEEE-754 double precision with the
// same operation order as Bitcoin Core's GetDifficulty.
func (h *BlockHeader) Difficulty() float64 {
	shift := (h.Bits >> 24) & 0xff
	diff := float64(0x0000ffff) / float64(h.Bits&0x00ffffff)

	for shift < 29 {
		diff *= 256.0
		shift++
	}
	for shift > 29 {
		diff /= 256.0
		shift--
	}
	return diff
}

// Encode serialises the 80-byte header.
func (h *BlockHeader) Encode() ([]byte, error) {
	return registry.Encode(h, TypeBlockHeader, 0)
}

// FieldValue implements codec.Valuer.
func (h *BlockHeader) FieldValue(name string) any {
	switch name {
	case fieldVersion:
		return h.Version
	case fieldPrevBlock:
		return [codec.HashSize]byte(h.PrevBlock)
	case fieldMerkleRoot:
		return [codec.HashSize]byte(h.MerkleRoot)
	case fieldTime:
		return h.Time
	case fieldBits:
		return h.Bits
	case fieldNonce:
		return h.Nonce
	}
	return nil
}

const markBlockStart = "blockStart"

func headerFields() []codec.Field {
	return []codec.Field{
		codec.F(codec.Int32, fieldVersion),
		codec.F(codec.Hash256, fieldPrevBlock),
		codec.F(codec.Hash256, fieldMerkleRoot),
		codec.F(codec.Uint32, fieldTime),
		codec.F(codec.Uint32, fieldBits),
		codec.F(codec.Uint32, fieldNonce),
	}
}

func blockHeaderDescriptor() *codec.Descriptor {
	decode := []codec.Field{codec.H(hookBlockMarkStart, "markStart")}
	decode = append(decode, headerFields()...)
	decode = append(decode, codec.H(hookHeaderHash, fieldHash))

	return &codec.Descriptor{
		Type:   TypeBlockHeader,
		Name:   "BlockHeader",
		Decode: decode,
		Encode: headerFields(),
		DecodeHooks: map[codec.HookID]codec.DecodeHook{
			hookBlockMarkStart: decodeBlockMarkStart,
			hookHeaderHash:     decodeHeaderHash,
		},
		Build: func(rec *codec.Record) (any, error) {
			h := buildHeader(rec)
			return &h, nil
		},
	}
}

func decodeBlockMarkStart(d *codec.Decoder, _ *codec.Record, st *codec.State) error {
	st.Mark(markBlockStart, d.Pos())
	return nil
}

// decodeHeaderHash hashes exactly the 80 header bytes, whether or not
// transactions follow.
func decodeHeaderHash(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	raw, err := d.AbsoluteSlice(st.MustPos(markBlockStart), HeaderSize)
	if err != nil {
		return err
	}
	rec.Set(fieldHash, crypto.DoubleSHA256(raw))
	return nil
}

func buildHeader(rec *codec.Record) BlockHeader {
	return BlockHeader{
		Version:    rec.Int32(fieldVersion),
		PrevBlock:  crypto.Hash(rec.Hash(fieldPrevBlock)),
		MerkleRoot: crypto.Hash(rec.Hash(fieldMerkleRoot)),
		Time:       rec.Uint32(fieldTime),
		Bits:       rec.Uint32(fieldBits),
		Nonce:      rec.Uint32(fieldNonce),
		hash:       codec.As[crypto.Hash](rec, fieldHash),
	}
}
