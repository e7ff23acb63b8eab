package script

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// MaxScriptSize is the largest script the interpreter will execute. Larger
// scripts are provably unspendable.
const MaxScriptSize = 10000

// SigHashType is the trailing byte of a transaction signature selecting
// which parts of the transaction it commits to.
type SigHashType byte

// Signature hash types.
const (
	SigHashAll          SigHashType = 0x01
	SigHashNone         SigHashType = 0x02
	SigHashSingle       SigHashType = 0x03
	SigHashAnyOneCanPay SigHashType = 0x80
)

var sigHashNames = map[SigHashType]string{
	SigHashAll:                          "ALL",
	SigHashAll | SigHashAnyOneCanPay:    "ALL|ANYONECANPAY",
	SigHashNone:                         "NONE",
	SigHashNone | SigHashAnyOneCanPay:   "NONE|ANYONECANPAY",
	SigHashSingle:                       "SINGLE",
	SigHashSingle | SigHashAnyOneCanPay: "SINGLE|ANYONECANPAY",
}

// String returns the name used in disassembly, or "" for undefined types.
func (t SigHashType) String() string {
	return sigHashNames[t]
}

// errorMarker ends the disassembly of a script that fails to parse.
const errorMarker = "[error]"

// DisasmString renders script in Bitcoin Core's assembly notation.
//
// Pushes of up to four bytes render as the number they encode, longer
// pushes as hex. With attemptSighashDecode set, a push that is a strictly
// DER-encoded signature with a defined hash type renders without its last
// byte, followed by the hash type in brackets. A malformed push renders as
// "[error]" and ends the output.
func DisasmString(script []byte, attemptSighashDecode bool) string {
	var sb strings.Builder
	decodeSigs := attemptSighashDecode && !IsUnspendable(script)

	for offset := 0; offset < len(script); {
		if offset > 0 {
			sb.WriteByte(' ')
		}
		op, ok := ParseOp(script, offset)
		if !ok {
			sb.WriteString(errorMarker)
			break
		}
		offset = op.Next

		if !op.IsPush() {
			sb.WriteString(op.Name())
			continue
		}
		if len(op.Data) <= 4 {
			sb.WriteString(strconv.FormatInt(DecodeScriptNum(op.Data), 10))
			continue
		}

		data, suffix := op.Data, ""
		if decodeSigs && IsValidSignatureEncoding(data) && IsDefinedHashtypeSignature(data) {
			if name := SigHashType(data[len(data)-1]).String(); name != "" {
				suffix = "[" + name + "]"
				data = data[:len(data)-1]
			}
		}
		sb.WriteString(hex.EncodeToString(data))
		sb.WriteString(suffix)
	}

	return sb.String()
}

// DecodeScriptNum interprets b as a script number: little-endian magnitude
// with the top bit of the last byte as the sign. Only the first eight bytes
// take part.
func DecodeScriptNum(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	if len(b) > 8 {
		b = b[:8]
	}

	var v uint64
	for i, c := range b {
		if i == len(b)-1 {
			c &= 0x7f
		}
		v |= uint64(c) << (8 * i)
	}

	if b[len(b)-1]&0x80 != 0 {
		return -int64(v)
	}
	return int64(v)
}

// IsUnspendable reports whether an output script can never be satisfied:
// it starts with OP_RETURN or exceeds MaxScriptSize.
func IsUnspendable(script []byte) bool {
	return (len(script) > 0 && script[0] == OP_RETURN) || len(script) > MaxScriptSize
}

// IsDefinedHashtypeSignature reports whether the last byte of sig, ignoring
// the ANYONECANPAY bit, is ALL, NONE or SINGLE.
func IsDefinedHashtypeSignature(sig []byte) bool {
	if len(sig) == 0 {
		return false
	}
	t := SigHashType(sig[len(sig)-1]) &^ SigHashAnyOneCanPay
	return t >= SigHashAll && t <= SigHashSingle
}

// IsValidSignatureEncoding reports whether sig is a strict DER signature
// followed by a one-byte hash type (BIP66):
//
//	0x30 <total-len> 0x02 <R-len> <R> 0x02 <S-len> <S> <hashtype>
//
// R and S must be minimally encoded positive integers.
func IsValidSignatureEncoding(sig []byte) bool {
	if len(sig) < 9 || len(sig) > 73 {
		return false
	}
	if sig[0] != 0x30 {
		return false
	}
	if int(sig[1]) != len(sig)-3 {
		return false
	}

	lenR := int(sig[3])
	if 5+lenR >= len(sig) {
		return false
	}
	lenS := int(sig[5+lenR])
	if lenR+lenS+7 != len(sig) {
		return false
	}

	if sig[2] != 0x02 || lenR == 0 {
		return false
	}
	if sig[4]&0x80 != 0 {
		return false
	}
	if lenR > 1 && sig[4] == 0x00 && sig[5]&0x80 == 0 {
		return false
	}

	if sig[lenR+4] != 0x02 || lenS == 0 {
		return false
	}
	if sig[lenR+6]&0x80 != 0 {
		return false
	}
	if lenS > 1 && sig[lenR+6] == 0x00 && sig[lenR+7]&0x80 == 0 {
		return false
	}

	return true
}
