// Package porcelain converts blocks and transactions to and from the JSON
// shape produced by Bitcoin Core's getblock and getrawtransaction RPCs.
//
// The views carry display values only: hashes are byte-reversed hex, amounts
// are in BTC and scripts are disassembled. Converting a view back with
// ToBlock or ToTransaction re-encodes the entity and recomputes every
// derived field, so hashes and sizes found in the view are never trusted.
package porcelain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"gopkg.in/yaml.v3"
)

// Detail selects how much of a block a view contains.
type Detail int

const (
	// Full includes every transaction in full.
	Full Detail = iota
	// Min lists transactions by txid only.
	Min
	// Header omits transactions and sizes.
	Header
)

func (d Detail) String() string {
	switch d {
	case Min:
		return "min"
	case Header:
		return "header"
	}
	return "full"
}

// ParseDetail parses "full", "min" or "header".
func ParseDetail(s string) (Detail, error) {
	switch s {
	case "full", "":
		return Full, nil
	case "min":
		return Min, nil
	case "header":
		return Header, nil
	}
	return Full, fmt.Errorf("unknown detail level %q", s)
}

// SegWitHeight is the first mainnet block at which SegWit was active.
const SegWitHeight = 481824

// Block is the getblock view of a block.
type Block struct {
	Hash              string  `json:"hash" yaml:"hash"`
	Version           int32   `json:"version" yaml:"version"`
	VersionHex        string  `json:"versionHex" yaml:"versionHex"`
	MerkleRoot        string  `json:"merkleroot" yaml:"merkleroot"`
	Time              uint32  `json:"time" yaml:"time"`
	Nonce             uint32  `json:"nonce" yaml:"nonce"`
	Bits              string  `json:"bits" yaml:"bits"`
	Difficulty        float64 `json:"difficulty" yaml:"difficulty"`
	PreviousBlockHash string  `json:"previousblockhash,omitempty" yaml:"previousblockhash,omitempty"`

	// Height is never produced from block bytes. It may be supplied by
	// an RPC response and is consulted when detecting SegWit.
	Height *int64 `json:"height,omitempty" yaml:"height,omitempty"`

	Size         int     `json:"size,omitempty" yaml:"size,omitempty"`
	StrippedSize int     `json:"strippedsize,omitempty" yaml:"strippedsize,omitempty"`
	Weight       int     `json:"weight,omitempty" yaml:"weight,omitempty"`
	Tx           *TxList `json:"tx,omitempty" yaml:"tx,omitempty"`
	NTx          int     `json:"nTx,omitempty" yaml:"nTx,omitempty"`
}

// TxList is the tx array of a block view. Exactly one of IDs and Txs is
// used: IDs at Min detail, Txs at Full detail.
type TxList struct {
	IDs []string
	Txs []*Transaction
}

// MarshalJSON renders the list as an array of strings or of objects.
func (l TxList) MarshalJSON() ([]byte, error) {
	if l.IDs != nil {
		return json.Marshal(l.IDs)
	}
	if l.Txs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Txs)
}

// UnmarshalJSON accepts either form of the tx array.
func (l *TxList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = TxList{}
	if len(raw) == 0 {
		l.Txs = []*Transaction{}
		return nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
		return json.Unmarshal(data, &l.IDs)
	}
	return json.Unmarshal(data, &l.Txs)
}

// MarshalYAML renders the list as a sequence of strings or of mappings.
func (l TxList) MarshalYAML() (any, error) {
	if l.IDs != nil {
		return l.IDs, nil
	}
	return l.Txs, nil
}

// UnmarshalYAML accepts either form of the tx sequence.
func (l *TxList) UnmarshalYAML(node *yaml.Node) error {
	*l = TxList{}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("tx must be a sequence, got yaml kind %d", node.Kind)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.ScalarNode {
		return node.Decode(&l.IDs)
	}
	l.Txs = []*Transaction{}
	return node.Decode(&l.Txs)
}

// Transaction is the getrawtransaction view of a transaction.
type Transaction struct {
	TxID     string    `json:"txid" yaml:"txid"`
	Hash     string    `json:"hash" yaml:"hash"`
	Version  int32     `json:"version" yaml:"version"`
	Size     int       `json:"size" yaml:"size"`
	VSize    int       `json:"vsize" yaml:"vsize"`
	Weight   int       `json:"weight" yaml:"weight"`
	LockTime uint32    `json:"locktime" yaml:"locktime"`
	Vin      []*Input  `json:"vin" yaml:"vin"`
	Vout     []*Output `json:"vout" yaml:"vout"`
	Hex      string    `json:"hex" yaml:"hex"`

	// Height, when supplied, is used to detect SegWit if neither the
	// hashes nor the sizes are present.
	Height *int64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Input is one element of a transaction's vin array. Coinbase inputs carry
// Coinbase and no TxID.
type Input struct {
	Coinbase    string     `json:"coinbase,omitempty" yaml:"coinbase,omitempty"`
	TxID        string     `json:"txid,omitempty" yaml:"txid,omitempty"`
	Vout        *uint32    `json:"vout,omitempty" yaml:"vout,omitempty"`
	ScriptSig   *ScriptSig `json:"scriptSig,omitempty" yaml:"scriptSig,omitempty"`
	TxInWitness []string   `json:"txinwitness,omitempty" yaml:"txinwitness,omitempty"`
	Sequence    uint32     `json:"sequence" yaml:"sequence"`
}

// IsCoinbase reports whether the input spends no previous output.
func (in *Input) IsCoinbase() bool {
	return in.TxID == ""
}

// ScriptSig is the disassembled input script.
type ScriptSig struct {
	Asm string `json:"asm" yaml:"asm"`
	Hex string `json:"hex" yaml:"hex"`
}

// Output is one element of a transaction's vout array.
type Output struct {
	Value        Amount       `json:"value" yaml:"value"`
	N            int          `json:"n" yaml:"n"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey" yaml:"scriptPubKey"`
}

// ScriptPubKey is the disassembled and classified output script.
type ScriptPubKey struct {
	Asm       string   `json:"asm" yaml:"asm"`
	Hex       string   `json:"hex" yaml:"hex"`
	ReqSigs   int      `json:"reqSigs,omitempty" yaml:"reqSigs,omitempty"`
	Type      string   `json:"type" yaml:"type"`
	Addresses []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// Amount is a number of satoshis rendered as a BTC value.
type Amount btcutil.Amount

// ToBTC returns the amount in bitcoin.
func (a Amount) ToBTC() float64 {
	return btcutil.Amount(a).ToBTC()
}

// AmountFromBTC rounds a BTC value to the nearest satoshi.
func AmountFromBTC(v float64) (Amount, error) {
	amt, err := btcutil.NewAmount(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", err, v)
	}
	return Amount(amt), nil
}

// String formats the amount in BTC without an exponent or unit.
func (a Amount) String() string {
	return strconv.FormatFloat(a.ToBTC(), 'f', -1, 64)
}

// MarshalJSON renders the amount as a plain decimal BTC number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON parses a BTC number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amt, err := AmountFromBTC(v)
	if err != nil {
		return err
	}
	*a = amt
	return nil
}

// MarshalYAML renders the amount as a float scalar in BTC.
func (a Amount) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: a.String()}, nil
}

// UnmarshalYAML parses a BTC scalar.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	var v float64
	if err := node.Decode(&v); err != nil {
		return err
	}
	amt, err := AmountFromBTC(v)
	if err != nil {
		return err
	}
	*a = amt
	return nil
}
