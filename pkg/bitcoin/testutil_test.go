package bitcoin

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

const (
	genesisHashStr   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisMerkleStr = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

// testDataPath returns the directory holding block fixtures.
func testDataPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "blocks")
}

func loadBlockHex(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(testDataPath(), name))
	require.NoError(t, err, "Failed to read fixture %s", name)

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	require.NoError(t, err, "Fixture %s is not hex", name)
	return raw
}

func loadTxHex(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(testDataPath(), "..", "tx", name))
	require.NoError(t, err, "Failed to read fixture %s", name)

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	require.NoError(t, err, "Fixture %s is not hex", name)
	return raw
}

// blockFixture holds the getblock fields expected for a block fixture,
// plus the witness merkle root and commitment of SegWit blocks.
type blockFixture struct {
	Hash              string `json:"hash"`
	MerkleRoot        string `json:"merkleroot"`
	Size              int    `json:"size"`
	StrippedSize      int    `json:"strippedsize"`
	Weight            int    `json:"weight"`
	Bits              string `json:"bits"`
	NTx               int    `json:"nTx"`
	WitnessMerkleRoot string `json:"witnessmerkleroot"`
	WitnessCommitment string `json:"witnesscommitment"`
	Tx                []struct {
		TxID   string `json:"txid"`
		Hash   string `json:"hash"`
		Size   int    `json:"size"`
		VSize  int    `json:"vsize"`
		Weight int    `json:"weight"`
	} `json:"tx"`
}

func loadBlockFixture(t *testing.T, name string) ([]byte, *blockFixture) {
	t.Helper()

	raw := loadBlockHex(t, name+".hex")
	data, err := os.ReadFile(filepath.Join(testDataPath(), name+".json"))
	require.NoError(t, err, "Failed to read fixture %s.json", name)

	var fx blockFixture
	require.NoError(t, json.Unmarshal(data, &fx))
	return raw, &fx
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func mustHash(t *testing.T, s string) crypto.Hash {
	t.Helper()
	h, err := crypto.NewHashFromStr(s)
	require.NoError(t, err)
	return h
}

func filled(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// newSegWitSpend builds a one-in one-out SegWit transaction spending a
// P2WPKH output.
func newSegWitSpend(t *testing.T, prev crypto.Hash) *Transaction {
	t.Helper()

	tx, err := NewTransaction(2, true,
		[]*TxIn{{
			PrevOut:   OutPoint{Hash: prev, Index: 1},
			ScriptSig: []byte{},
			Sequence:  0xfffffffd,
			Witness:   [][]byte{filled(71, 0x30), filled(33, 0x02)},
		}},
		[]*TxOut{{
			Value:        12_345,
			ScriptPubKey: append([]byte{0x00, 0x14}, filled(20, 0xab)...),
		}},
		0,
	)
	require.NoError(t, err)
	return tx
}

// newSegWitCoinbase builds a coinbase carrying the given witness stack and,
// when commitment is not nil, a witness commitment output.
func newSegWitCoinbase(t *testing.T, witness [][]byte, commitment []byte) *Transaction {
	t.Helper()

	outs := []*TxOut{{
		Value:        625_000_000,
		ScriptPubKey: append([]byte{0x76, 0xa9, 0x14}, append(filled(20, 0x11), 0x88, 0xac)...),
	}}
	if commitment != nil {
		spk := append([]byte{}, witnessCommitmentHeader...)
		outs = append(outs, &TxOut{Value: 0, ScriptPubKey: append(spk, commitment...)})
	}

	tx, err := NewTransaction(1, true,
		[]*TxIn{{
			PrevOut:   OutPoint{Index: NullIndex},
			ScriptSig: []byte{0x03, 0x20, 0x5a, 0x07},
			Sequence:  0xffffffff,
			Witness:   witness,
		}},
		outs,
		0,
	)
	require.NoError(t, err)
	return tx
}
