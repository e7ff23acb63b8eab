package bitcoin

import (
	"github.com/suffix-labs/bitcoin-block/pkg/codec"
)

// SatoshiPerBitcoin is the number of satoshis in one bitcoin.
const SatoshiPerBitcoin = 100_000_000

// TxOut is a transaction output.
type TxOut struct {
	Value        int64 // satoshis
	ScriptPubKey []byte
}

// FieldValue implements codec.Valuer.
func (out *TxOut) FieldValue(name string) any {
	switch name {
	case fieldValue:
		return out.Value
	case fieldScriptPubKey:
		return out.ScriptPubKey
	}
	return nil
}

func txOutDescriptor() *codec.Descriptor {
	fields := []codec.Field{
		codec.F(codec.Int64, fieldValue),
		codec.F(codec.CompactBytes, fieldScriptPubKey),
	}
	return &codec.Descriptor{
		Type:   TypeTxOut,
		Name:   "TxOut",
		Decode: fields,
		Encode: fields,
		Build: func(rec *codec.Record) (any, error) {
			return &TxOut{
				Value:        rec.Int64(fieldValue),
				ScriptPubKey: rec.Bytes(fieldScriptPubKey),
			}, nil
		},
	}
}
