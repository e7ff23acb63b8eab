package bitcoin

import (
	"github.com/suffix-labs/bitcoin-block/pkg/codec"
)

// TxIn is a transaction input.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32

	// Witness is the input's witness stack. It is only populated for
	// inputs of SegWit transactions, although on the wire all witness
	// stacks follow the outputs.
	Witness [][]byte
}

// FieldValue implements codec.Valuer.
func (in *TxIn) FieldValue(name string) any {
	switch name {
	case fieldPrevOut:
		return in.PrevOut
	case fieldScriptSig:
		return in.ScriptSig
	case fieldSequence:
		return in.Sequence
	}
	return nil
}

func txInDescriptor() *codec.Descriptor {
	fields := []codec.Field{
		codec.F(codec.Nested(TypeOutPoint), fieldPrevOut),
		codec.F(codec.CompactBytes, fieldScriptSig),
		codec.F(codec.Uint32, fieldSequence),
	}
	return &codec.Descriptor{
		Type:   TypeTxIn,
		Name:   "TxIn",
		Decode: fields,
		Encode: fields,
		Build: func(rec *codec.Record) (any, error) {
			return &TxIn{
				PrevOut:   codec.As[OutPoint](rec, fieldPrevOut),
				ScriptSig: rec.Bytes(fieldScriptSig),
				Sequence:  rec.Uint32(fieldSequence),
			}, nil
		},
	}
}
