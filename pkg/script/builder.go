package script

import (
	"encoding/binary"
)

// Builder assembles a script from opcodes and data pushes, always using the
// smallest push encoding for the data length.
//
//	s := script.NewBuilder().
//		AddOp(script.OP_DUP).AddOp(script.OP_HASH160).
//		AddData(pkHash).
//		AddOp(script.OP_EQUALVERIFY).AddOp(script.OP_CHECKSIG).
//		Script()
type Builder struct {
	script []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddOp appends a single opcode.
func (b *Builder) AddOp(op byte) *Builder {
	b.script = append(b.script, op)
	return b
}

// AddOps appends opcodes in order.
func (b *Builder) AddOps(ops ...byte) *Builder {
	b.script = append(b.script, ops...)
	return b
}

// AddSmallInt appends OP_0 or OP_1..OP_16. It panics outside 0..16.
func (b *Builder) AddSmallInt(n int) *Builder {
	switch {
	case n == 0:
		return b.AddOp(OP_0)
	case n >= 1 && n <= 16:
		return b.AddOp(byte(OP_1 - 1 + n))
	}
	panic("script: small int out of range")
}

// AddData appends a push of data. The data is pushed verbatim even when a
// small-int opcode could express it.
func (b *Builder) AddData(data []byte) *Builder {
	n := len(data)
	switch {
	case n <= OP_DATA_75:
		b.script = append(b.script, byte(n))
	case n <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		b.script = append(b.script, OP_PUSHDATA2)
		b.script = binary.LittleEndian.AppendUint16(b.script, uint16(n))
	default:
		b.script = append(b.script, OP_PUSHDATA4)
		b.script = binary.LittleEndian.AppendUint32(b.script, uint32(n))
	}
	b.script = append(b.script, data...)
	return b
}

// Script returns the assembled script.
func (b *Builder) Script() []byte {
	return b.script
}

// WitnessCommitmentTag follows OP_RETURN and the push length in a coinbase
// witness commitment output.
var WitnessCommitmentTag = []byte{0xaa, 0x21, 0xa9, 0xed}

// WitnessCommitmentScript returns the coinbase output script carrying a
// 32-byte witness commitment.
func WitnessCommitmentScript(commitment []byte) []byte {
	data := append(append([]byte{}, WitnessCommitmentTag...), commitment...)
	return NewBuilder().AddOp(OP_RETURN).AddData(data).Script()
}
