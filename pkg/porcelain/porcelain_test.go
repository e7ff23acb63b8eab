package porcelain

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/bitcoin-block/pkg/bitcoin"
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
	"github.com/suffix-labs/bitcoin-block/pkg/script"
)

const (
	genesisHashStr   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisMerkleStr = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	genesisCoinbase  = "04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73"
	genesisPubKey    = "04678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5f"
)

func loadGenesis(t *testing.T) ([]byte, *bitcoin.Block) {
	t.Helper()

	_, filename, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "blocks", "genesis.hex")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read genesis fixture")

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	require.NoError(t, err)

	b, _, err := bitcoin.DecodeBlock(raw, bitcoin.DecodeOptions{Strict: true})
	require.NoError(t, err)
	return raw, b
}

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()

	_, filename, _, _ := runtime.Caller(0)
	data, err := os.ReadFile(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "blocks", name))
	require.NoError(t, err, "Failed to read fixture %s", name)
	return data
}

func TestSegWitBlockFixtureView(t *testing.T) {
	raw, err := hex.DecodeString(strings.TrimSpace(string(loadFixture(t, "segwit.hex"))))
	require.NoError(t, err)
	var want Block
	require.NoError(t, json.Unmarshal(loadFixture(t, "segwit.json"), &want))

	b, _, err := bitcoin.DecodeBlock(raw, bitcoin.DecodeOptions{Strict: true})
	require.NoError(t, err)

	v := FromBlock(b, Full, nil)
	require.Equal(t, want.Hash, v.Hash)
	require.Equal(t, want.MerkleRoot, v.MerkleRoot)
	require.Equal(t, want.Bits, v.Bits)
	require.Equal(t, want.Size, v.Size)
	require.Equal(t, want.StrippedSize, v.StrippedSize)
	require.Equal(t, want.Weight, v.Weight)
	require.Equal(t, want.NTx, v.NTx)
	require.Len(t, v.Tx.Txs, len(want.Tx.Txs))
	for i, wantTx := range want.Tx.Txs {
		got := v.Tx.Txs[i]
		require.Equal(t, wantTx.TxID, got.TxID, "tx %d", i)
		require.Equal(t, wantTx.Hash, got.Hash, "tx %d", i)
		require.Equal(t, wantTx.Size, got.Size, "tx %d", i)
		require.Equal(t, wantTx.VSize, got.VSize, "tx %d", i)
		require.Equal(t, wantTx.Weight, got.Weight, "tx %d", i)
		require.True(t, IsSegWit(got), "tx %d", i)
	}

	coinbase := v.Tx.Txs[0]
	require.True(t, coinbase.Vin[0].IsCoinbase())
	require.Equal(t, []string{strings.Repeat("00", 32)}, coinbase.Vin[0].TxInWitness)
	require.Equal(t, "nulldata", coinbase.Vout[1].ScriptPubKey.Type)
	require.Equal(t, "witness_v0_keyhash", coinbase.Vout[0].ScriptPubKey.Type)

	spend := v.Tx.Txs[1]
	require.Empty(t, spend.Vin[0].TxInWitness)
	require.Len(t, spend.Vin[1].TxInWitness, 2)
	require.Equal(t, "1.1234", spend.Vout[0].Value.String())
	require.Equal(t, "pubkeyhash", spend.Vout[0].ScriptPubKey.Type)

	var back Block
	require.NoError(t, json.Unmarshal(mustJSON(t, v), &back))
	rebuilt, err := ToBlock(&back)
	require.NoError(t, err)
	enc, err := rebuilt.Encode(bitcoin.WithWitness)
	require.NoError(t, err)
	require.Equal(t, raw, enc)
}

func TestGenesisBlockView(t *testing.T) {
	_, b := loadGenesis(t)

	v := FromBlock(b, Full, nil)
	require.Equal(t, genesisHashStr, v.Hash)
	require.Equal(t, int32(1), v.Version)
	require.Equal(t, "00000001", v.VersionHex)
	require.Equal(t, genesisMerkleStr, v.MerkleRoot)
	require.Equal(t, uint32(1231006505), v.Time)
	require.Equal(t, uint32(2083236893), v.Nonce)
	require.Equal(t, "1d00ffff", v.Bits)
	require.Equal(t, 1.0, v.Difficulty)
	require.Empty(t, v.PreviousBlockHash, "Genesis has no previous block")
	require.Equal(t, 285, v.Size)
	require.Equal(t, 285, v.StrippedSize)
	require.Equal(t, 1140, v.Weight)
	require.Equal(t, 1, v.NTx)
	require.Len(t, v.Tx.Txs, 1)

	tx := v.Tx.Txs[0]
	require.Equal(t, genesisMerkleStr, tx.TxID)
	require.Equal(t, tx.TxID, tx.Hash)
	require.Equal(t, 204, tx.Size)
	require.Equal(t, 204, tx.VSize)
	require.Equal(t, 816, tx.Weight)

	require.Len(t, tx.Vin, 1)
	require.Equal(t, genesisCoinbase, tx.Vin[0].Coinbase)
	require.Equal(t, uint32(0xffffffff), tx.Vin[0].Sequence)
	require.Nil(t, tx.Vin[0].ScriptSig)
	require.Nil(t, tx.Vin[0].Vout)

	require.Len(t, tx.Vout, 1)
	out := tx.Vout[0]
	require.Equal(t, "50", out.Value.String())
	require.Equal(t, "pubkey", out.ScriptPubKey.Type)
	require.Equal(t, genesisPubKey+" OP_CHECKSIG", out.ScriptPubKey.Asm)
	require.Equal(t, "41"+genesisPubKey+"ac", out.ScriptPubKey.Hex)
	require.Equal(t, 1, out.ScriptPubKey.ReqSigs)
	require.Equal(t, []string{"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}, out.ScriptPubKey.Addresses)
}

func TestGenesisBlockJSONShape(t *testing.T) {
	_, b := loadGenesis(t)

	out, err := json.Marshal(FromBlock(b, Full, nil))
	require.NoError(t, err)

	prefix := `{"hash":"` + genesisHashStr + `","version":1,"versionHex":"00000001",` +
		`"merkleroot":"` + genesisMerkleStr + `","time":1231006505,"nonce":2083236893,` +
		`"bits":"1d00ffff","difficulty":1,"size":285,"strippedsize":285,"weight":1140,"tx":[`
	require.True(t, strings.HasPrefix(string(out), prefix), "Unexpected JSON: %s", out)
	require.True(t, strings.HasSuffix(string(out), `],"nTx":1}`), "Unexpected JSON: %s", out)
	require.Contains(t, string(out), `"vin":[{"coinbase":"`+genesisCoinbase+`","sequence":4294967295}]`)
	require.Contains(t, string(out), `{"value":50,"n":0,"scriptPubKey":{"asm":"`)
}

func TestBlockDetailLevels(t *testing.T) {
	_, b := loadGenesis(t)

	minView := FromBlock(b, Min, nil)
	require.Equal(t, []string{genesisMerkleStr}, minView.Tx.IDs)
	require.Nil(t, minView.Tx.Txs)

	out, err := json.Marshal(minView)
	require.NoError(t, err)
	require.Contains(t, string(out), `"tx":["`+genesisMerkleStr+`"],"nTx":1`)

	header := FromBlock(b, Header, nil)
	require.Nil(t, header.Tx)
	require.Zero(t, header.Size)

	out, err = json.Marshal(header)
	require.NoError(t, err)
	require.NotContains(t, string(out), `"tx"`)
	require.NotContains(t, string(out), `"size"`)
	require.Equal(t, header, FromBlockHeader(b.Header()))

	var back Block
	require.NoError(t, json.Unmarshal(mustJSON(t, minView), &back))
	require.Equal(t, []string{genesisMerkleStr}, back.Tx.IDs)

	_, err = ToBlock(&back)
	require.ErrorIs(t, err, ErrInvalidView, "A txid-only view cannot be rebuilt")

	h, err := ToBlockHeader(&back)
	require.NoError(t, err)
	require.Equal(t, genesisHashStr, h.Hash().String())
}

func TestParseDetail(t *testing.T) {
	for _, d := range []Detail{Full, Min, Header} {
		got, err := ParseDetail(d.String())
		require.NoError(t, err)
		require.Equal(t, d, got)
	}
	_, err := ParseDetail("verbose")
	require.Error(t, err)
}

func TestGenesisRoundTrip(t *testing.T) {
	raw, b := loadGenesis(t)

	var v Block
	require.NoError(t, json.Unmarshal(mustJSON(t, FromBlock(b, Full, nil)), &v))

	rebuilt, err := ToBlock(&v)
	require.NoError(t, err)
	require.Equal(t, genesisHashStr, rebuilt.Hash().String())

	enc, err := rebuilt.Encode(bitcoin.WithWitness)
	require.NoError(t, err)
	require.Equal(t, raw, enc)
}

func TestYAMLRoundTrip(t *testing.T) {
	_, b := loadGenesis(t)
	v := FromBlock(b, Full, nil)

	out, err := yaml.Marshal(v)
	require.NoError(t, err)

	var back Block
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, v, &back)

	v = FromBlock(b, Min, nil)
	out, err = yaml.Marshal(v)
	require.NoError(t, err)

	back = Block{}
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, v, &back)
}

func newSegWitTx(t *testing.T) *bitcoin.Transaction {
	t.Helper()

	prev, err := crypto.NewHashFromStr(genesisMerkleStr)
	require.NoError(t, err)

	tx, err := bitcoin.NewTransaction(2, true,
		[]*bitcoin.TxIn{
			{
				PrevOut:   bitcoin.OutPoint{Hash: prev, Index: 0},
				ScriptSig: []byte{},
				Sequence:  0xfffffffd,
				Witness:   [][]byte{{0x30, 0x44, 0x01}, {0x02, 0x03}},
			},
			{
				PrevOut:   bitcoin.OutPoint{Hash: prev, Index: 7},
				ScriptSig: []byte{0x51},
				Sequence:  0xffffffff,
			},
		},
		[]*bitcoin.TxOut{{
			Value:        1,
			ScriptPubKey: script.NewBuilder().AddOp(script.OP_0).AddData(make([]byte, 20)).Script(),
		}},
		600_000,
	)
	require.NoError(t, err)
	return tx
}

func TestSegWitTransactionRoundTrip(t *testing.T) {
	tx := newSegWitTx(t)

	v := FromTransaction(tx, &script.TestNet3Params)
	require.NotEqual(t, v.TxID, v.Hash)
	require.Equal(t, []string{"304401", "0203"}, v.Vin[0].TxInWitness)
	require.Nil(t, v.Vin[1].TxInWitness)
	require.Equal(t, "1", v.Vin[1].ScriptSig.Asm)
	require.Equal(t, uint32(7), *v.Vin[1].Vout)
	require.Equal(t, "0.00000001", v.Vout[0].Value.String())
	require.Equal(t, "witness_v0_keyhash", v.Vout[0].ScriptPubKey.Type)
	require.Len(t, v.Vout[0].ScriptPubKey.Addresses, 1)
	require.True(t, strings.HasPrefix(v.Vout[0].ScriptPubKey.Addresses[0], "tb1q"))

	out := mustJSON(t, v)
	require.Contains(t, string(out), `"value":0.00000001`)

	var back Transaction
	require.NoError(t, json.Unmarshal(out, &back))
	require.True(t, IsSegWit(&back))

	rebuilt, err := ToTransaction(&back)
	require.NoError(t, err)
	require.Equal(t, tx.RawBytes(), rebuilt.RawBytes())
	require.Equal(t, tx.TxID(), rebuilt.TxID())
	require.Equal(t, tx.Hash(), rebuilt.Hash())
}

func TestSegWitCoinbaseDefaultNonce(t *testing.T) {
	seq := uint32(0xffffffff)
	v := &Transaction{
		Version: 1,
		Vin: []*Input{{
			Coinbase: "03205a07",
			Sequence: seq,
		}},
		Vout: []*Output{{
			Value:        Amount(625_000_000),
			ScriptPubKey: ScriptPubKey{Hex: "51"},
		}},
		Height: int64Ptr(SegWitHeight),
	}

	tx, err := ToTransaction(v)
	require.NoError(t, err)
	require.True(t, tx.SegWit)
	require.Equal(t, [][]byte{make([]byte, 32)}, tx.Inputs[0].Witness)
	require.Equal(t, make([]byte, 32), tx.WitnessCommitmentNonce())
	require.True(t, tx.Inputs[0].PrevOut.IsNull())

	v.Height = int64Ptr(SegWitHeight - 1)
	tx, err = ToTransaction(v)
	require.NoError(t, err)
	require.False(t, tx.SegWit)
	require.Nil(t, tx.Inputs[0].Witness)
}

func TestIsSegWit(t *testing.T) {
	a := strings.Repeat("a", 64)
	b := strings.Repeat("b", 64)

	tests := []struct {
		name string
		view Transaction
		want bool
	}{
		{"hashes differ", Transaction{TxID: a, Hash: b}, true},
		{"hashes equal", Transaction{TxID: a, Hash: a, Size: 100, Weight: 300}, false},
		{"weight discounted", Transaction{Size: 100, Weight: 300}, true},
		{"weight undiscounted", Transaction{Size: 100, Weight: 400}, false},
		{"after activation", Transaction{Height: int64Ptr(SegWitHeight)}, true},
		{"before activation", Transaction{Height: int64Ptr(1)}, false},
		{"short hash ignored", Transaction{TxID: "ab", Hash: "cd"}, false},
		{"nothing known", Transaction{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsSegWit(&tt.view))
		})
	}
}

func TestAmount(t *testing.T) {
	require.Equal(t, "50", Amount(5_000_000_000).String())
	require.Equal(t, "0.00012345", Amount(12_345).String())
	require.Equal(t, "0", Amount(0).String())

	var a Amount
	require.NoError(t, json.Unmarshal([]byte("0.1"), &a))
	require.Equal(t, Amount(10_000_000), a)

	require.NoError(t, json.Unmarshal([]byte("20999999.97690000"), &a))
	require.Equal(t, Amount(2_099_999_997_690_000), a)

	require.Error(t, json.Unmarshal([]byte(`"1"`), &a))

	_, err := AmountFromBTC(math.NaN())
	require.Error(t, err)
	_, err = AmountFromBTC(math.Inf(-1))
	require.Error(t, err)
}

func TestToBlockHeaderErrors(t *testing.T) {
	base := Block{
		MerkleRoot: genesisMerkleStr,
		Bits:       "1d00ffff",
	}

	tests := []struct {
		name   string
		mutate func(*Block)
		field  string
	}{
		{"bad merkle root", func(b *Block) { b.MerkleRoot = "00" }, "merkleroot"},
		{"bad previous hash", func(b *Block) { b.PreviousBlockHash = "zz" }, "previousblockhash"},
		{"bad bits", func(b *Block) { b.Bits = "1d00ffff00" }, "bits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base
			tt.mutate(&v)
			_, err := ToBlockHeader(&v)
			require.ErrorIs(t, err, ErrInvalidView)
			require.Contains(t, err.Error(), tt.field)
		})
	}

	h, err := ToBlockHeader(&base)
	require.NoError(t, err)
	require.True(t, h.IsGenesis())
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return out
}

func int64Ptr(v int64) *int64 { return &v }
