package script

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve(t *testing.T) {
	hash20 := bytes.Repeat([]byte{0xab}, 20)
	hash32 := bytes.Repeat([]byte{0xcd}, 32)
	compressed := testKey(1).PubKey().SerializeCompressed()
	uncompressed := testKey(2).PubKey().SerializeUncompressed()

	badHeader := append([]byte{0x05}, compressed[1:]...)

	tests := []struct {
		name      string
		script    []byte
		class     ScriptClass
		solutions [][]byte
	}{{
		name:      "p2sh",
		script:    NewBuilder().AddOp(OP_HASH160).AddData(hash20).AddOp(OP_EQUAL).Script(),
		class:     ScriptHashTy,
		solutions: [][]byte{hash20},
	}, {
		name:      "p2wpkh",
		script:    NewBuilder().AddOp(OP_0).AddData(hash20).Script(),
		class:     WitnessV0PubKeyHashTy,
		solutions: [][]byte{hash20},
	}, {
		name:      "p2wsh",
		script:    NewBuilder().AddOp(OP_0).AddData(hash32).Script(),
		class:     WitnessV0ScriptHashTy,
		solutions: [][]byte{hash32},
	}, {
		name:      "witness v1",
		script:    NewBuilder().AddOp(OP_1).AddData(hash32).Script(),
		class:     WitnessUnknownTy,
		solutions: [][]byte{{1}, hash32},
	}, {
		name:      "witness v16 two bytes",
		script:    mustHex(t, "6002751e"),
		class:     WitnessUnknownTy,
		solutions: [][]byte{{16}, {0x75, 0x1e}},
	}, {
		name:   "witness v0 wrong length",
		script: NewBuilder().AddOp(OP_0).AddData(hash20[:16]).Script(),
		class:  NonStandardTy,
	}, {
		name:   "null data",
		script: NewBuilder().AddOp(OP_RETURN).AddData([]byte("hello")).AddOp(OP_16).Script(),
		class:  NullDataTy,
	}, {
		name:   "bare op_return",
		script: []byte{OP_RETURN},
		class:  NullDataTy,
	}, {
		name:   "op_return with non push",
		script: []byte{OP_RETURN, OP_DUP},
		class:  NonStandardTy,
	}, {
		name:      "p2pk compressed",
		script:    NewBuilder().AddData(compressed).AddOp(OP_CHECKSIG).Script(),
		class:     PubKeyTy,
		solutions: [][]byte{compressed},
	}, {
		name:      "p2pk uncompressed",
		script:    NewBuilder().AddData(uncompressed).AddOp(OP_CHECKSIG).Script(),
		class:     PubKeyTy,
		solutions: [][]byte{uncompressed},
	}, {
		name:   "p2pk bad header",
		script: NewBuilder().AddData(badHeader).AddOp(OP_CHECKSIG).Script(),
		class:  NonStandardTy,
	}, {
		name: "p2pkh",
		script: NewBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).AddData(hash20).
			AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).Script(),
		class:     PubKeyHashTy,
		solutions: [][]byte{hash20},
	}, {
		name: "multisig 1 of 2",
		script: NewBuilder().AddSmallInt(1).AddData(compressed).AddData(uncompressed).
			AddSmallInt(2).AddOp(OP_CHECKMULTISIG).Script(),
		class:     MultiSigTy,
		solutions: [][]byte{{1}, compressed, uncompressed, {2}},
	}, {
		name: "multisig m greater than n",
		script: NewBuilder().AddSmallInt(2).AddData(compressed).
			AddSmallInt(1).AddOp(OP_CHECKMULTISIG).Script(),
		class: NonStandardTy,
	}, {
		name: "multisig count mismatch",
		script: NewBuilder().AddSmallInt(1).AddData(compressed).
			AddSmallInt(2).AddOp(OP_CHECKMULTISIG).Script(),
		class: NonStandardTy,
	}, {
		name: "multisig trailing opcode",
		script: NewBuilder().AddSmallInt(1).AddData(compressed).
			AddSmallInt(1).AddOp(OP_NOP).AddOp(OP_CHECKMULTISIG).Script(),
		class: NonStandardTy,
	}, {
		name:   "empty",
		script: nil,
		class:  NonStandardTy,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := Solve(tt.script)
			assert.Equal(t, tt.class, sol.Class, "script %x", tt.script)
			if tt.solutions != nil {
				assert.Equal(t, tt.solutions, sol.Solutions)
			}
			assert.Equal(t, tt.class, GetScriptClass(tt.script))
		})
	}
}

func TestScriptClassString(t *testing.T) {
	names := map[ScriptClass]string{
		NonStandardTy:         "nonstandard",
		PubKeyTy:              "pubkey",
		PubKeyHashTy:          "pubkeyhash",
		ScriptHashTy:          "scripthash",
		MultiSigTy:            "multisig",
		NullDataTy:            "nulldata",
		WitnessV0PubKeyHashTy: "witness_v0_keyhash",
		WitnessV0ScriptHashTy: "witness_v0_scripthash",
		WitnessUnknownTy:      "witness_unknown",
	}
	for class, name := range names {
		assert.Equal(t, name, class.String())
	}
	assert.Equal(t, "Invalid", ScriptClass(200).String())
}

func TestPubKeyValidSize(t *testing.T) {
	assert.False(t, PubKeyValidSize(nil))
	for _, header := range []byte{0x02, 0x03} {
		assert.True(t, PubKeyValidSize(append([]byte{header}, make([]byte, 32)...)))
		assert.False(t, PubKeyValidSize(append([]byte{header}, make([]byte, 64)...)))
	}
	for _, header := range []byte{0x04, 0x06, 0x07} {
		assert.True(t, PubKeyValidSize(append([]byte{header}, make([]byte, 64)...)))
		assert.False(t, PubKeyValidSize(append([]byte{header}, make([]byte, 32)...)))
	}
	assert.False(t, PubKeyValidSize(append([]byte{0x05}, make([]byte, 32)...)))
}

func TestExtractWitnessProgram(t *testing.T) {
	version, program, ok := ExtractWitnessProgram(mustHex(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6"))
	require.True(t, ok)
	assert.Equal(t, 0, version)
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(program))

	_, _, ok = ExtractWitnessProgram(mustHex(t, "0003aabbcc00"))
	assert.False(t, ok, "push length must cover the rest of the script")
	_, _, ok = ExtractWitnessProgram(mustHex(t, "4f02aabb"))
	assert.False(t, ok, "OP_1NEGATE is not a version")
	_, _, ok = ExtractWitnessProgram(mustHex(t, "0001aa"))
	assert.False(t, ok, "too short")
}

func TestExtractDestinations(t *testing.T) {
	hash20 := bytes.Repeat([]byte{0x11}, 20)
	compressed := testKey(3).PubKey().SerializeCompressed()
	other := testKey(4).PubKey().SerializeCompressed()

	dests, ok := ExtractDestinations(NewBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).AddData(hash20).
		AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).Script())
	require.True(t, ok)
	assert.Equal(t, PubKeyHashTy, dests.Class)
	assert.Equal(t, 1, dests.Required)
	assert.Equal(t, []Destination{{Data: hash20}}, dests.Destinations)

	multisig := NewBuilder().AddSmallInt(2).AddData(compressed).AddData(other).
		AddSmallInt(2).AddOp(OP_CHECKMULTISIG).Script()
	dests, ok = ExtractDestinations(multisig)
	require.True(t, ok)
	assert.Equal(t, MultiSigTy, dests.Class)
	assert.Equal(t, 2, dests.Required)
	assert.Equal(t, []Destination{{Data: compressed}, {Data: other}}, dests.Destinations)

	dests, ok = ExtractDestinations(mustHex(t, "6002751e"))
	require.True(t, ok)
	assert.Equal(t, []Destination{{Data: []byte{0x75, 0x1e}, WitnessVersion: 16}}, dests.Destinations)

	_, ok = ExtractDestinations([]byte{OP_RETURN, 0x01, 0x00})
	assert.False(t, ok, "null data has no destinations")
	_, ok = ExtractDestinations([]byte{OP_DUP})
	assert.False(t, ok, "nonstandard has no destinations")
}
