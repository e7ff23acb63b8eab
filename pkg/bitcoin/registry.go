package bitcoin

import (
	"github.com/suffix-labs/bitcoin-block/pkg/codec"
)

// Registered types.
const (
	TypeBlock codec.TypeID = iota + 1
	TypeBlockHeader
	TypeTransaction
	TypeTxIn
	TypeTxOut
	TypeOutPoint
)

// Hooks used by the descriptors in this package.
const (
	hookBlockMarkStart codec.HookID = iota + 1
	hookHeaderHash
	hookBlockSize

	hookTxMarkStart
	hookDecodeSegWit
	hookDecodeWitness
	hookTxRawBytes
	hookTxHash
	hookTxHashNoWitness
	hookTxSize

	hookEncodeSegWit
	hookEncodeWitness
)

// Field names. They match the property names of the JSON rendering where
// one exists.
const (
	fieldVersion       = "version"
	fieldPrevBlock     = "previousblockhash"
	fieldMerkleRoot    = "merkleroot"
	fieldTime          = "time"
	fieldBits          = "bits"
	fieldNonce         = "nonce"
	fieldTx            = "tx"
	fieldHash          = "hash"
	fieldN             = "n"
	fieldPrevOut       = "prevout"
	fieldScriptSig     = "scriptSig"
	fieldSequence      = "sequence"
	fieldValue         = "value"
	fieldScriptPubKey  = "scriptPubKey"
	fieldVin           = "vin"
	fieldVout          = "vout"
	fieldLockTime      = "locktime"
	fieldSegWit        = "segwit"
	fieldRawBytes      = "rawBytes"
	fieldTxID          = "txid"
	fieldSize          = "size"
	fieldSizeNoWitness = "sizeNoWitness"
)

// WitnessMode selects whether witness data takes part in serialisation and
// merkle computations.
type WitnessMode int

const (
	// WithWitness includes the SegWit marker, flag and witness stacks.
	WithWitness WitnessMode = iota
	// WithoutWitness produces the legacy serialisation.
	WithoutWitness
)

func (m WitnessMode) String() string {
	if m == WithoutWitness {
		return "without-witness"
	}
	return "with-witness"
}

// flagNoWitness tells the transaction encode hooks to skip witness data.
const flagNoWitness codec.Flags = 1 << 0

func (m WitnessMode) flags() codec.Flags {
	if m == WithoutWitness {
		return flagNoWitness
	}
	return 0
}

var registry = codec.MustRegistry(
	outPointDescriptor(),
	txInDescriptor(),
	txOutDescriptor(),
	transactionDescriptor(),
	blockHeaderDescriptor(),
	blockDescriptor(),
)

// Registry returns the descriptor registry for the Bitcoin wire types.
func Registry() *codec.Registry { return registry }
