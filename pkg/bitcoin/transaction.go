package bitcoin

import (
	"bytes"

	"github.com/suffix-labs/bitcoin-block/pkg/codec"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// WitnessScaleFactor is the weight multiplier for non-witness bytes.
const WitnessScaleFactor = 4

// witnessCommitmentHeader prefixes a coinbase witness commitment output:
// OP_RETURN, a 36-byte push, then the 4-byte tag 0xaa21a9ed.
var witnessCommitmentHeader = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// Offsets of the commitment within its output script.
const (
	witnessCommitmentStart = 6
	witnessCommitmentEnd   = witnessCommitmentStart + crypto.HashSize
)

// Transaction is a decoded Bitcoin transaction.
//
// Hash, TxID, sizes and the raw bytes are computed when the transaction is
// decoded or built with NewTransaction, and are never taken from input.
type Transaction struct {
	Version  int32
	SegWit   bool
	Inputs   []*TxIn
	Outputs  []*TxOut
	LockTime uint32

	raw           []byte
	hash          crypto.Hash
	txid          crypto.Hash
	size          int
	sizeNoWitness int
}

// NewTransaction assembles a transaction from its parts and computes the
// derived fields by serialising it.
func NewTransaction(version int32, segWit bool, inputs []*TxIn, outputs []*TxOut, lockTime uint32) (*Transaction, error) {
	tx := &Transaction{
		Version:  version,
		SegWit:   segWit,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: lockTime,
	}

	raw, err := tx.Encode(WithWitness)
	if err != nil {
		return nil, err
	}
	tx.raw = raw
	tx.size = len(raw)
	tx.hash = crypto.DoubleSHA256(raw)
	tx.txid = tx.hash
	tx.sizeNoWitness = tx.size

	if segWit {
		stripped, err := tx.Encode(WithoutWitness)
		if err != nil {
			return nil, err
		}
		tx.txid = crypto.DoubleSHA256(stripped)
		tx.sizeNoWitness = len(stripped)
	}

	return tx, nil
}

// Hash returns the double-SHA256 of the full serialisation, witness
// included.
func (tx *Transaction) Hash() crypto.Hash { return tx.hash }

// TxID returns the double-SHA256 of the serialisation without witness
// data. It equals Hash for non-SegWit transactions.
func (tx *Transaction) TxID() crypto.Hash { return tx.txid }

// Size returns the serialised size in bytes, witness included.
func (tx *Transaction) Size() int { return tx.size }

// SizeNoWitness returns the serialised size without witness data.
func (tx *Transaction) SizeNoWitness() int { return tx.sizeNoWitness }

// Weight returns sizeNoWitness*3 + size.
func (tx *Transaction) Weight() int {
	return tx.sizeNoWitness*(WitnessScaleFactor-1) + tx.size
}

// VSize returns the virtual size, weight/4 rounded up.
func (tx *Transaction) VSize() int {
	return (tx.Weight() + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// RawBytes returns the exact bytes the transaction was decoded from.
func (tx *Transaction) RawBytes() []byte { return tx.raw }

// IsCoinbase reports whether the transaction has a single input spending
// the all-zero hash.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.Hash == crypto.ZeroHash
}

// WitnessCommitmentIndex returns the index of the output carrying the
// witness commitment, or -1. When several outputs match, the last one wins.
func (tx *Transaction) WitnessCommitmentIndex() int {
	pos := -1
	for i, out := range tx.Outputs {
		spk := out.ScriptPubKey
		if len(spk) >= witnessCommitmentEnd && bytes.HasPrefix(spk, witnessCommitmentHeader) {
			pos = i
		}
	}
	return pos
}

// WitnessCommitment returns the 32-byte witness commitment carried by this
// transaction's outputs, or nil if there is none.
func (tx *Transaction) WitnessCommitment() []byte {
	i := tx.WitnessCommitmentIndex()
	if i < 0 {
		return nil
	}
	return tx.Outputs[i].ScriptPubKey[witnessCommitmentStart:witnessCommitmentEnd]
}

// WitnessCommitmentNonce returns the witness reserved value of a SegWit
// coinbase: the single 32-byte item of its only input's witness. It returns
// nil when the transaction is not such a coinbase.
func (tx *Transaction) WitnessCommitmentNonce() []byte {
	if !tx.IsCoinbase() || !tx.SegWit {
		return nil
	}
	w := tx.Inputs[0].Witness
	if len(w) != 1 || len(w[0]) != crypto.HashSize {
		return nil
	}
	return w[0]
}

// Encode serialises the transaction. WithoutWitness omits the SegWit
// marker, flag and witness stacks.
func (tx *Transaction) Encode(mode WitnessMode) ([]byte, error) {
	return registry.Encode(tx, TypeTransaction, mode.flags())
}

// FieldValue implements codec.Valuer.
func (tx *Transaction) FieldValue(name string) any {
	switch name {
	case fieldVersion:
		return tx.Version
	case fieldVin:
		return codec.List(tx.Inputs)
	case fieldVout:
		return codec.List(tx.Outputs)
	case fieldLockTime:
		return tx.LockTime
	}
	return nil
}

// Checkpoints recorded while decoding a transaction.
const (
	markTxStart      = "txStart"
	markFlagStart    = "segWitFlagStart"
	markFlagEnd      = "segWitFlagEnd"
	markWitnessStart = "witnessStart"
	markWitnessEnd   = "witnessEnd"
	flagSegWit       = "segWit"
)

var witnessStack = codec.VectorOf(codec.CompactBytes)

func transactionDescriptor() *codec.Descriptor {
	return &codec.Descriptor{
		Type: TypeTransaction,
		Name: "Transaction",
		Decode: []codec.Field{
			codec.H(hookTxMarkStart, "markStart"),
			codec.F(codec.Int32, fieldVersion),
			codec.H(hookDecodeSegWit, fieldSegWit),
			codec.F(codec.VectorOf(codec.Nested(TypeTxIn)), fieldVin),
			codec.F(codec.VectorOf(codec.Nested(TypeTxOut)), fieldVout),
			codec.H(hookDecodeWitness, "witness"),
			codec.F(codec.Uint32, fieldLockTime),
			codec.H(hookTxRawBytes, fieldRawBytes),
			codec.H(hookTxHash, fieldHash),
			codec.H(hookTxHashNoWitness, fieldTxID),
			codec.H(hookTxSize, fieldSize),
		},
		Encode: []codec.Field{
			codec.F(codec.Int32, fieldVersion),
			codec.H(hookEncodeSegWit, fieldSegWit),
			codec.F(codec.VectorOf(codec.Nested(TypeTxIn)), fieldVin),
			codec.F(codec.VectorOf(codec.Nested(TypeTxOut)), fieldVout),
			codec.H(hookEncodeWitness, "witness"),
			codec.F(codec.Uint32, fieldLockTime),
		},
		DecodeHooks: map[codec.HookID]codec.DecodeHook{
			hookTxMarkStart:     decodeTxMarkStart,
			hookDecodeSegWit:    decodeSegWit,
			hookDecodeWitness:   decodeWitness,
			hookTxRawBytes:      decodeTxRawBytes,
			hookTxHash:          decodeTxHash,
			hookTxHashNoWitness: decodeTxHashNoWitness,
			hookTxSize:          decodeTxSize,
		},
		EncodeHooks: map[codec.HookID]codec.EncodeHook{
			hookEncodeSegWit:  encodeSegWit,
			hookEncodeWitness: encodeWitness,
		},
		Build: buildTransaction,
	}
}

func decodeTxMarkStart(d *codec.Decoder, _ *codec.Record, st *codec.State) error {
	st.Mark(markTxStart, d.Pos())
	return nil
}

// decodeSegWit consumes the 0x00 0x01 marker and flag if they directly
// follow the version.
func decodeSegWit(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	flag, err := d.Peek(2)
	if err != nil {
		return err
	}

	st.Mark(markFlagStart, d.Pos())
	segWit := flag[0] == 0x00 && flag[1] == 0x01
	st.SetFlag(flagSegWit, segWit)
	rec.Set(fieldSegWit, segWit)

	if segWit {
		if _, err := d.ReadSlice(2); err != nil {
			return err
		}
		st.Mark(markFlagEnd, d.Pos())
	}
	return nil
}

// decodeWitness reads one witness stack per already decoded input and
// attaches it to that input.
func decodeWitness(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	if !st.Flag(flagSegWit) {
		return nil
	}

	st.Mark(markWitnessStart, d.Pos())
	for _, in := range codec.ListOf[*TxIn](rec, fieldVin) {
		v, err := d.ReadType(witnessStack)
		if err != nil {
			return err
		}
		in.Witness = v.([][]byte)
	}
	st.Mark(markWitnessEnd, d.Pos())
	return nil
}

func decodeTxRawBytes(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	start := st.MustPos(markTxStart)
	raw, err := d.AbsoluteSlice(start, d.Pos()-start)
	if err != nil {
		return err
	}
	rec.Set(fieldRawBytes, bytes.Clone(raw))
	return nil
}

func decodeTxHash(_ *codec.Decoder, rec *codec.Record, _ *codec.State) error {
	rec.Set(fieldHash, crypto.DoubleSHA256(rec.Bytes(fieldRawBytes)))
	return nil
}

// decodeTxHashNoWitness computes the txid of a SegWit transaction by
// hashing the transaction bytes with two ranges excised: the marker and
// flag, and the witness section. Non-SegWit transactions leave txid and
// sizeNoWitness unset, meaning "same as hash and size".
func decodeTxHashNoWitness(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	if !st.Flag(flagSegWit) {
		return nil
	}

	var (
		start        = st.MustPos(markTxStart)
		flagStart    = st.MustPos(markFlagStart)
		flagEnd      = st.MustPos(markFlagEnd)
		witnessStart = st.MustPos(markWitnessStart)
		witnessEnd   = st.MustPos(markWitnessEnd)
		end          = d.Pos()
	)

	head, err := d.AbsoluteSlice(start, flagStart-start)
	if err != nil {
		return err
	}
	body, err := d.AbsoluteSlice(flagEnd, witnessStart-flagEnd)
	if err != nil {
		return err
	}
	tail, err := d.AbsoluteSlice(witnessEnd, end-witnessEnd)
	if err != nil {
		return err
	}

	rec.Set(fieldTxID, crypto.DoubleSHA256Concat(head, body, tail))
	rec.Set(fieldSizeNoWitness, len(head)+len(body)+len(tail))
	return nil
}

func decodeTxSize(d *codec.Decoder, rec *codec.Record, st *codec.State) error {
	rec.Set(fieldSize, d.Pos()-st.MustPos(markTxStart))
	return nil
}

func buildTransaction(rec *codec.Record) (any, error) {
	tx := &Transaction{
		Version:  rec.Int32(fieldVersion),
		SegWit:   rec.Bool(fieldSegWit),
		Inputs:   codec.ListOf[*TxIn](rec, fieldVin),
		Outputs:  codec.ListOf[*TxOut](rec, fieldVout),
		LockTime: rec.Uint32(fieldLockTime),
		raw:      rec.Bytes(fieldRawBytes),
		hash:     codec.As[crypto.Hash](rec, fieldHash),
		size:     rec.Int(fieldSize),
	}

	tx.txid = tx.hash
	if rec.Has(fieldTxID) {
		tx.txid = codec.As[crypto.Hash](rec, fieldTxID)
	}
	tx.sizeNoWitness = tx.size
	if rec.Has(fieldSizeNoWitness) {
		tx.sizeNoWitness = rec.Int(fieldSizeNoWitness)
	}

	return tx, nil
}

func encodeSegWit(e *codec.Encoder, v codec.Valuer, flags codec.Flags) error {
	if v.(*Transaction).SegWit && !flags.Has(flagNoWitness) {
		e.Write([]byte{0x00, 0x01})
	}
	return nil
}

func encodeWitness(e *codec.Encoder, v codec.Valuer, flags codec.Flags) error {
	tx := v.(*Transaction)
	if !tx.SegWit || flags.Has(flagNoWitness) {
		return nil
	}
	for _, in := range tx.Inputs {
		if err := e.WriteType(witnessStack, in.Witness); err != nil {
			return err
		}
	}
	return nil
}
