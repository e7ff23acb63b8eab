package script

import (
	"encoding/binary"
)

// Op is one parsed opcode together with the data it pushes, if any.
type Op struct {
	Opcode byte
	Data   []byte // pushed bytes, empty for non-push opcodes
	Next   int    // offset of the following opcode
}

// Name returns the disassembly name of the opcode.
func (o Op) Name() string { return OpcodeName(o.Opcode) }

// IsPush reports whether the opcode pushes data, including OP_0 and the
// PUSHDATA forms.
func (o Op) IsPush() bool { return o.Opcode <= OP_PUSHDATA4 }

// ParseOp parses the opcode at offset. It returns false when offset is at
// or past the end of the script, or when a push length or its data runs
// past the end. The returned data aliases script.
func ParseOp(script []byte, offset int) (Op, bool) {
	if offset < 0 || len(script)-offset < 1 {
		return Op{}, false
	}
	opcode := script[offset]
	offset++

	if opcode > OP_PUSHDATA4 {
		return Op{Opcode: opcode, Next: offset}, true
	}

	var size int
	switch opcode {
	case OP_PUSHDATA1:
		if len(script)-offset < 1 {
			return Op{}, false
		}
		size = int(script[offset])
		offset++
	case OP_PUSHDATA2:
		if len(script)-offset < 2 {
			return Op{}, false
		}
		size = int(binary.LittleEndian.Uint16(script[offset:]))
		offset += 2
	case OP_PUSHDATA4:
		if len(script)-offset < 4 {
			return Op{}, false
		}
		n := binary.LittleEndian.Uint32(script[offset:])
		offset += 4
		if uint64(n) > uint64(len(script)-offset) {
			return Op{}, false
		}
		size = int(n)
	default:
		size = int(opcode)
	}

	if len(script)-offset < size {
		return Op{}, false
	}
	return Op{
		Opcode: opcode,
		Data:   script[offset : offset+size],
		Next:   offset + size,
	}, true
}

// Ops parses every opcode in script. It stops at the first malformed push
// and reports whether the whole script parsed.
func Ops(script []byte) ([]Op, bool) {
	var ops []Op
	for offset := 0; offset < len(script); {
		op, ok := ParseOp(script, offset)
		if !ok {
			return ops, false
		}
		ops = append(ops, op)
		offset = op.Next
	}
	return ops, true
}

// IsPushOnly reports whether everything from offset on parses and consists
// of opcodes no greater than OP_16.
func IsPushOnly(script []byte, offset int) bool {
	for offset < len(script) {
		op, ok := ParseOp(script, offset)
		if !ok || op.Opcode > OP_16 {
			return false
		}
		offset = op.Next
	}
	return true
}
