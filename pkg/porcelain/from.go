package porcelain

import (
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/bitcoin-block/pkg/bitcoin"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
	"github.com/suffix-labs/bitcoin-block/pkg/script"
)

// FromBlockHeader returns the header-only view of h.
func FromBlockHeader(h *bitcoin.BlockHeader) *Block {
	v := &Block{
		Hash:       h.Hash().String(),
		Version:    h.Version,
		VersionHex: fmt.Sprintf("%08x", uint32(h.Version)),
		MerkleRoot: h.MerkleRoot.String(),
		Time:       h.Time,
		Nonce:      h.Nonce,
		Bits:       fmt.Sprintf("%08x", h.Bits),
		Difficulty: h.Difficulty(),
	}
	if !h.IsGenesis() {
		v.PreviousBlockHash = h.PrevBlock.String()
	}
	return v
}

// FromBlock returns the view of b at the given detail. Addresses are
// encoded for params, or for mainnet when params is nil.
func FromBlock(b *bitcoin.Block, detail Detail, params *script.Params) *Block {
	v := FromBlockHeader(b.Header())
	if detail == Header {
		return v
	}

	v.Size = b.Size()
	v.StrippedSize = b.StrippedSize()
	v.Weight = b.Weight()
	v.NTx = len(b.Transactions)

	list := &TxList{}
	if detail == Min {
		list.IDs = make([]string, len(b.Transactions))
		for i, tx := range b.Transactions {
			list.IDs[i] = tx.TxID().String()
		}
	} else {
		list.Txs = make([]*Transaction, len(b.Transactions))
		for i, tx := range b.Transactions {
			list.Txs[i] = FromTransaction(tx, params)
		}
	}
	v.Tx = list
	return v
}

// FromTransaction returns the view of tx.
func FromTransaction(tx *bitcoin.Transaction, params *script.Params) *Transaction {
	v := &Transaction{
		TxID:     tx.TxID().String(),
		Hash:     tx.Hash().String(),
		Version:  tx.Version,
		Size:     tx.Size(),
		VSize:    tx.VSize(),
		Weight:   tx.Weight(),
		LockTime: tx.LockTime,
		Vin:      make([]*Input, len(tx.Inputs)),
		Vout:     make([]*Output, len(tx.Outputs)),
		Hex:      hex.EncodeToString(tx.RawBytes()),
	}

	coinbase := tx.IsCoinbase()
	for i, in := range tx.Inputs {
		v.Vin[i] = fromTxIn(in, coinbase)
	}
	for i, out := range tx.Outputs {
		v.Vout[i] = fromTxOut(out, i, params)
	}
	return v
}

func fromTxIn(in *bitcoin.TxIn, coinbase bool) *Input {
	v := &Input{Sequence: in.Sequence}
	if coinbase {
		v.Coinbase = hex.EncodeToString(in.ScriptSig)
	} else {
		index := in.PrevOut.Index
		v.TxID = in.PrevOut.Hash.String()
		v.Vout = &index
		v.ScriptSig = &ScriptSig{
			Asm: script.DisasmString(in.ScriptSig, true),
			Hex: hex.EncodeToString(in.ScriptSig),
		}
	}

	// Coinbase witnesses are kept so that the view re-encodes exactly.
	if len(in.Witness) > 0 {
		v.TxInWitness = make([]string, len(in.Witness))
		for i, item := range in.Witness {
			v.TxInWitness[i] = hex.EncodeToString(item)
		}
	}
	return v
}

func fromTxOut(out *bitcoin.TxOut, n int, params *script.Params) *Output {
	spk := out.ScriptPubKey
	v := &Output{
		Value: Amount(out.Value),
		N:     n,
		ScriptPubKey: ScriptPubKey{
			Asm:  script.DisasmString(spk, false),
			Hex:  hex.EncodeToString(spk),
			Type: script.GetScriptClass(spk).String(),
		},
	}

	dests, ok := script.ExtractDestinations(spk)
	if !ok {
		return v
	}
	// A pubkey output only gets an address if the key is on the curve.
	if dests.Class == script.PubKeyTy && !crypto.IsValidPubKey(dests.Destinations[0].Data) {
		return v
	}

	v.ScriptPubKey.ReqSigs = dests.Required
	for _, d := range dests.Destinations {
		if addr := script.EncodeAddress(d, dests.Class, params); addr != "" {
			v.ScriptPubKey.Addresses = append(v.ScriptPubKey.Addresses, addr)
		}
	}
	return v
}
