package script

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAddressBase58(t *testing.T) {
	zero := make([]byte, 20)
	assert.Equal(t, "1111111111111111111114oLvT2",
		EncodeAddress(Destination{Data: zero}, PubKeyHashTy, &MainNetParams))
	assert.Equal(t, "mfWxJ45yp2SFn7UciZyNpvDKrzbhyfKrY8",
		EncodeAddress(Destination{Data: zero}, PubKeyHashTy, &TestNet3Params))

	scriptHash := mustHex(t, "89abcdefabbaabbaabbaabbaabbaabbaabbaabba")
	assert.Equal(t, "3EExK1K1TF3v7zsFtQHt14XqexCwgmXM1y",
		EncodeAddress(Destination{Data: scriptHash}, ScriptHashTy, &MainNetParams))
	assert.Equal(t, "2N5oANkF34hZGKnVoZXukd1X6sJR7ayZPad",
		EncodeAddress(Destination{Data: scriptHash}, ScriptHashTy, &TestNet3Params))

	payload, version, err := base58.CheckDecode("3EExK1K1TF3v7zsFtQHt14XqexCwgmXM1y")
	require.NoError(t, err)
	assert.Equal(t, MainNetParams.ScriptHashAddrID, version)
	assert.Equal(t, scriptHash, payload)
}

func TestEncodeAddressPubKey(t *testing.T) {
	// The genesis block pays to a bare pubkey; its address is the P2PKH
	// address of that key.
	genesis := mustHex(t, genesisPubKeyHex)
	script := NewBuilder().AddData(genesis).AddOp(OP_CHECKSIG).Script()

	addrs := EncodeAddresses(script, &MainNetParams)
	assert.Equal(t, []string{"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}, addrs)

	// Multisig pubkeys are encoded the same way.
	multisig := NewBuilder().AddSmallInt(1).AddData(genesis).AddSmallInt(1).
		AddOp(OP_CHECKMULTISIG).Script()
	assert.Equal(t, addrs, EncodeAddresses(multisig, nil))
}

func TestEncodeAddressBech32(t *testing.T) {
	tests := []struct {
		script string
		params *Params
		want   string
	}{
		{"0014751e76e8199196d454941c45d1b3a323f1433bd6", &MainNetParams, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
		{"0014751e76e8199196d454941c45d1b3a323f1433bd6", &TestNet3Params, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"},
		{"0014751e76e8199196d454941c45d1b3a323f1433bd6", &RegressionNetParams, "bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080"},
		{"00201863143c14c5166804bd19203356da136c985678cd4d27a1b8c6329604903262", &MainNetParams, "bc1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3qccfmv3"},
		{"6002751e", &MainNetParams, "bc1sw50qa3jx3s"},
	}
	for _, tt := range tests {
		addrs := EncodeAddresses(mustHex(t, tt.script), tt.params)
		assert.Equal(t, []string{tt.want}, addrs, "script %s", tt.script)
	}
}

func TestEncodeAddressWitnessUnknownLimits(t *testing.T) {
	program := bytes.Repeat([]byte{0x01}, 2)

	assert.Empty(t, EncodeAddress(Destination{Data: program, WitnessVersion: 0}, WitnessUnknownTy, nil))
	assert.Empty(t, EncodeAddress(Destination{Data: program, WitnessVersion: 17}, WitnessUnknownTy, nil))
	assert.Empty(t, EncodeAddress(Destination{Data: program[:1], WitnessVersion: 1}, WitnessUnknownTy, nil))
	assert.Empty(t, EncodeAddress(Destination{Data: make([]byte, 41), WitnessVersion: 1}, WitnessUnknownTy, nil))
	assert.NotEmpty(t, EncodeAddress(Destination{Data: make([]byte, 40), WitnessVersion: 1}, WitnessUnknownTy, nil))

	assert.Empty(t, EncodeAddress(Destination{Data: program}, NullDataTy, nil))
	assert.Empty(t, EncodeAddress(Destination{Data: program}, NonStandardTy, nil))
}

func TestParamsForNetwork(t *testing.T) {
	for name, want := range map[string]*Params{
		"mainnet": &MainNetParams,
		"MainNet": &MainNetParams,
		"testnet": &TestNet3Params,
		"regtest": &RegressionNetParams,
	} {
		got, err := ParamsForNetwork(name)
		require.NoError(t, err, name)
		assert.Same(t, want, got, name)
	}

	_, err := ParamsForNetwork("simnet")
	require.Error(t, err)
}
