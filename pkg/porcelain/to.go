package porcelain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/suffix-labs/bitcoin-block/pkg/bitcoin"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// ErrInvalidView is returned, wrapped with the offending field, when a view
// cannot be converted back to an entity.
var ErrInvalidView = errors.New("invalid porcelain view")

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidView, field, fmt.Sprintf(format, args...))
}

// ToBlockHeader rebuilds the header described by v. The previous block
// hash defaults to all zero. Hash and difficulty are recomputed.
func ToBlockHeader(v *Block) (*bitcoin.BlockHeader, error) {
	var prev crypto.Hash
	if v.PreviousBlockHash != "" {
		h, err := crypto.NewHashFromStr(v.PreviousBlockHash)
		if err != nil {
			return nil, invalid("previousblockhash", "%v", err)
		}
		prev = h
	}

	merkleRoot, err := crypto.NewHashFromStr(v.MerkleRoot)
	if err != nil {
		return nil, invalid("merkleroot", "%v", err)
	}

	bits, err := strconv.ParseUint(v.Bits, 16, 32)
	if err != nil {
		return nil, invalid("bits", "%v", err)
	}

	return bitcoin.NewBlockHeader(v.Version, prev, merkleRoot, v.Time, uint32(bits), v.Nonce)
}

// ToBlock rebuilds the block described by a Full view. The merkle root is
// taken from the view as is.
func ToBlock(v *Block) (*bitcoin.Block, error) {
	header, err := ToBlockHeader(v)
	if err != nil {
		return nil, err
	}
	if v.Tx == nil || v.Tx.IDs != nil {
		return nil, invalid("tx", "full transactions are required")
	}

	txs := make([]*bitcoin.Transaction, len(v.Tx.Txs))
	for i, txv := range v.Tx.Txs {
		if txv == nil {
			return nil, invalid(fmt.Sprintf("tx[%d]", i), "missing transaction")
		}
		if txv.Height == nil && v.Height != nil {
			txv = withHeight(txv, *v.Height)
		}
		tx, err := ToTransaction(txv)
		if err != nil {
			return nil, fmt.Errorf("tx[%d]: %w", i, err)
		}
		txs[i] = tx
	}
	return bitcoin.NewBlock(*header, txs)
}

func withHeight(v *Transaction, height int64) *Transaction {
	cp := *v
	cp.Height = &height
	return &cp
}

// ToTransaction rebuilds the transaction described by v. Inputs without
// a witness get an empty stack when the transaction is SegWit, except a
// coinbase input, which gets the single all-zero witness reserved value.
func ToTransaction(v *Transaction) (*bitcoin.Transaction, error) {
	if v.Vin == nil {
		return nil, invalid("vin", "missing")
	}
	if v.Vout == nil {
		return nil, invalid("vout", "missing")
	}
	segWit := IsSegWit(v)

	inputs := make([]*bitcoin.TxIn, len(v.Vin))
	for i, inv := range v.Vin {
		in, err := toTxIn(inv, segWit)
		if err != nil {
			return nil, fmt.Errorf("vin[%d]: %w", i, err)
		}
		inputs[i] = in
	}

	outputs := make([]*bitcoin.TxOut, len(v.Vout))
	for i, outv := range v.Vout {
		if outv == nil {
			return nil, invalid(fmt.Sprintf("vout[%d]", i), "missing output")
		}
		spk, err := hex.DecodeString(outv.ScriptPubKey.Hex)
		if err != nil {
			return nil, invalid(fmt.Sprintf("vout[%d].scriptPubKey.hex", i), "%v", err)
		}
		outputs[i] = &bitcoin.TxOut{Value: int64(outv.Value), ScriptPubKey: spk}
	}

	return bitcoin.NewTransaction(v.Version, segWit, inputs, outputs, v.LockTime)
}

func toTxIn(v *Input, segWit bool) (*bitcoin.TxIn, error) {
	if v == nil {
		return nil, invalid("input", "missing")
	}
	in := &bitcoin.TxIn{Sequence: v.Sequence}

	if v.IsCoinbase() {
		sig, err := hex.DecodeString(v.Coinbase)
		if err != nil {
			return nil, invalid("coinbase", "%v", err)
		}
		in.PrevOut = bitcoin.OutPoint{Index: bitcoin.NullIndex}
		in.ScriptSig = sig
	} else {
		h, err := crypto.NewHashFromStr(v.TxID)
		if err != nil {
			return nil, invalid("txid", "%v", err)
		}
		if v.Vout == nil {
			return nil, invalid("vout", "missing")
		}
		in.PrevOut = bitcoin.OutPoint{Hash: h, Index: *v.Vout}
		if v.ScriptSig != nil {
			if in.ScriptSig, err = hex.DecodeString(v.ScriptSig.Hex); err != nil {
				return nil, invalid("scriptSig.hex", "%v", err)
			}
		}
		if in.ScriptSig == nil {
			in.ScriptSig = []byte{}
		}
	}

	if !segWit {
		return in, nil
	}
	in.Witness = make([][]byte, len(v.TxInWitness))
	for i, item := range v.TxInWitness {
		b, err := hex.DecodeString(item)
		if err != nil {
			return nil, invalid(fmt.Sprintf("txinwitness[%d]", i), "%v", err)
		}
		in.Witness[i] = b
	}
	if len(in.Witness) == 0 && v.IsCoinbase() {
		in.Witness = [][]byte{make([]byte, crypto.HashSize)}
	}
	return in, nil
}

// IsSegWit reports whether v describes a SegWit transaction. It compares
// hash and txid when both are present, then weight against size, then the
// block height against SegWit activation, and otherwise reports false.
func IsSegWit(v *Transaction) bool {
	switch {
	case isHash(v.Hash) && isHash(v.TxID):
		return v.Hash != v.TxID
	case v.Size > 0 && v.Weight > 0:
		return v.Weight != v.Size*bitcoin.WitnessScaleFactor
	case v.Height != nil:
		return *v.Height >= SegWitHeight
	}
	return false
}

func isHash(s string) bool {
	if len(s) != crypto.HashSize*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
