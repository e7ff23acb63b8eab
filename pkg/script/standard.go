package script

import (
	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// ScriptClass identifies a standard output script template.
type ScriptClass byte

// Classes of standard scripts.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	PubKeyTy                                 // Pay pubkey.
	PubKeyHashTy                             // Pay pubkey hash.
	ScriptHashTy                             // Pay to script hash.
	MultiSigTy                               // Multi signature.
	NullDataTy                               // Empty data-only (provably prunable).
	WitnessV0PubKeyHashTy                    // Pay witness pubkey hash.
	WitnessV0ScriptHashTy                    // Pay witness script hash.
	WitnessUnknownTy                         // Witness program of a future version.
)

var scriptClassNames = []string{
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

// String returns the class name used by Bitcoin Core's RPC interface.
func (c ScriptClass) String() string {
	if int(c) < len(scriptClassNames) {
		return scriptClassNames[c]
	}
	return "Invalid"
}

// Witness program sizes for version 0.
const (
	WitnessV0PubKeyHashSize = 20
	WitnessV0ScriptHashSize = 32
)

// Solution is the result of classifying a script.
//
// Solutions holds the template's parameters: the hash or pubkey for the
// single-destination forms, [version, program] for unknown witness
// versions, and [m, pubkeys..., n] for multisig where m and n are single
// bytes.
type Solution struct {
	Class     ScriptClass
	Solutions [][]byte
}

// Solve classifies script. The templates are tried in a fixed order and
// the first match wins: P2SH, witness program, null data, P2PK, P2PKH,
// bare multisig.
func Solve(script []byte) Solution {
	if IsPayToScriptHash(script) {
		return Solution{Class: ScriptHashTy, Solutions: [][]byte{script[2:22]}}
	}

	if version, program, ok := ExtractWitnessProgram(script); ok {
		switch {
		case version == 0 && len(program) == WitnessV0PubKeyHashSize:
			return Solution{Class: WitnessV0PubKeyHashTy, Solutions: [][]byte{program}}
		case version == 0 && len(program) == WitnessV0ScriptHashSize:
			return Solution{Class: WitnessV0ScriptHashTy, Solutions: [][]byte{program}}
		case version != 0:
			return Solution{
				Class:     WitnessUnknownTy,
				Solutions: [][]byte{{byte(version)}, program},
			}
		}
		return Solution{Class: NonStandardTy}
	}

	if len(script) >= 1 && script[0] == OP_RETURN && IsPushOnly(script, 1) {
		return Solution{Class: NullDataTy}
	}

	if pubKey := matchPayToPubKey(script); pubKey != nil {
		return Solution{Class: PubKeyTy, Solutions: [][]byte{pubKey}}
	}

	if pkHash := matchPayToPubKeyHash(script); pkHash != nil {
		return Solution{Class: PubKeyHashTy, Solutions: [][]byte{pkHash}}
	}

	if required, pubKeys, ok := matchMultiSig(script); ok {
		sols := make([][]byte, 0, len(pubKeys)+2)
		sols = append(sols, []byte{byte(required)})
		sols = append(sols, pubKeys...)
		sols = append(sols, []byte{byte(len(pubKeys))})
		return Solution{Class: MultiSigTy, Solutions: sols}
	}

	return Solution{Class: NonStandardTy}
}

// GetScriptClass returns only the class of script.
func GetScriptClass(script []byte) ScriptClass {
	return Solve(script).Class
}

// IsPayToScriptHash reports whether script is OP_HASH160 <20 bytes>
// OP_EQUAL.
func IsPayToScriptHash(script []byte) bool {
	return len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL
}

// ExtractWitnessProgram returns the version and program of a witness
// program script: a version opcode followed by a single push, four to 42
// bytes in total.
func ExtractWitnessProgram(script []byte) (version int, program []byte, ok bool) {
	if len(script) < 4 || len(script) > 42 {
		return 0, nil, false
	}
	if script[0] != OP_0 && !IsSmallInt(script[0]) {
		return 0, nil, false
	}
	if int(script[1])+2 != len(script) {
		return 0, nil, false
	}
	return DecodeSmallInt(script[0]), script[2:], true
}

// PubKeyValidSize reports whether the length of pubKey matches the size
// implied by its header byte. It does not check that the point is on the
// curve.
func PubKeyValidSize(pubKey []byte) bool {
	if len(pubKey) == 0 {
		return false
	}
	switch pubKey[0] {
	case 0x02, 0x03:
		return len(pubKey) == crypto.PubKeyCompressedSize
	case 0x04, 0x06, 0x07:
		return len(pubKey) == crypto.PubKeyUncompressedSize
	}
	return false
}

func matchPayToPubKey(script []byte) []byte {
	for _, size := range []int{crypto.PubKeyUncompressedSize, crypto.PubKeyCompressedSize} {
		if len(script) == size+2 && int(script[0]) == size && script[size+1] == OP_CHECKSIG {
			if pubKey := script[1 : size+1]; PubKeyValidSize(pubKey) {
				return pubKey
			}
			return nil
		}
	}
	return nil
}

func matchPayToPubKeyHash(script []byte) []byte {
	if len(script) == 25 &&
		script[0] == OP_DUP &&
		script[1] == OP_HASH160 &&
		script[2] == OP_DATA_20 &&
		script[23] == OP_EQUALVERIFY &&
		script[24] == OP_CHECKSIG {

		return script[3:23]
	}
	return nil
}

// matchMultiSig matches OP_m <pubkey>... OP_n OP_CHECKMULTISIG where n is
// the number of pubkeys and m <= n.
func matchMultiSig(script []byte) (int, [][]byte, bool) {
	if len(script) < 1 || script[len(script)-1] != OP_CHECKMULTISIG {
		return 0, nil, false
	}

	op, ok := ParseOp(script, 0)
	if !ok || !IsSmallInt(op.Opcode) {
		return 0, nil, false
	}
	required := DecodeSmallInt(op.Opcode)

	var pubKeys [][]byte
	for {
		op, ok = ParseOp(script, op.Next)
		if !ok {
			return 0, nil, false
		}
		if !PubKeyValidSize(op.Data) {
			break
		}
		pubKeys = append(pubKeys, op.Data)
	}

	if !IsSmallInt(op.Opcode) {
		return 0, nil, false
	}
	keys := DecodeSmallInt(op.Opcode)
	if len(pubKeys) != keys || keys < required {
		return 0, nil, false
	}
	if op.Next != len(script)-1 {
		return 0, nil, false
	}
	return required, pubKeys, true
}
