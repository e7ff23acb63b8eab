// Package codec implements the binary wire codec used for Bitcoin consensus
// structures.
//
// The package has three layers:
//
//   - Primitive readers and writers (Decoder, Encoder) for little-endian
//     integers, 32-byte hashes, CompactSize integers and length-prefixed
//     byte strings.
//   - A registry of type descriptors: an ordered list of fields per type,
//     each either a primitive, a nested registered type, a vector or fixed
//     array of another field type, or a custom hook.
//   - A generic engine that walks a descriptor to decode bytes into a typed
//     value, or to encode a value back into bytes.
//
// All multi-byte integers are little-endian, matching Bitcoin Core's
// serialize.h conventions.
package codec

import (
	"encoding/binary"
	"fmt"
)

// HashSize is the size of a hash256 field in bytes.
const HashSize = 32

// Decoder is a bounds-checked cursor over an immutable byte slice.
//
// Reads never panic: reading past the end of the buffer returns a
// *DecodeError with code CodeTruncated.
type Decoder struct {
	buf []byte
	pos int
	reg *Registry
}

// NewDecoder creates a decoder positioned at the start of buf. A decoder
// created this way reads primitives only; nested types require one created
// by Registry.Decode.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Pos returns the current absolute offset.
func (d *Decoder) Pos() int { return d.pos }

// Len returns the total length of the underlying buffer.
func (d *Decoder) Len() int { return len(d.buf) }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) truncated(want int) error {
	return &DecodeError{
		Code:    CodeTruncated,
		Offset:  d.pos,
		Message: fmt.Sprintf("need %d bytes, have %d", want, d.Remaining()),
	}
}

// Peek returns the next n bytes without consuming them.
func (d *Decoder) Peek(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, d.truncated(n)
	}
	return d.buf[d.pos : d.pos+n], nil
}

// ReadSlice consumes n bytes. The returned slice aliases the input buffer.
func (d *Decoder) ReadSlice(n int) ([]byte, error) {
	b, err := d.Peek(n)
	if err != nil {
		return nil, err
	}
	d.pos += n
	return b, nil
}

// AbsoluteSlice returns n bytes starting at absolute offset start, without
// moving the cursor. It is used to re-read regions that were already
// consumed, for example to hash them.
func (d *Decoder) AbsoluteSlice(start, n int) ([]byte, error) {
	if start < 0 || n < 0 || start+n > len(d.buf) {
		return nil, &DecodeError{
			Code:    CodeTruncated,
			Offset:  start,
			Message: fmt.Sprintf("absolute slice [%d, %d) outside buffer of %d bytes", start, start+n, len(d.buf)),
		}
	}
	return d.buf[start : start+n], nil
}

// ReadUint8 reads a single byte.
func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.ReadSlice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.ReadSlice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.ReadSlice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.ReadSlice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadHash256 reads 32 raw bytes. No byte reversal is applied.
func (d *Decoder) ReadHash256() ([HashSize]byte, error) {
	var h [HashSize]byte
	b, err := d.ReadSlice(HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// ReadBool reads a single byte and reports whether it is non-zero.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadUint8()
	return b != 0, err
}

// ReadCompactBytes reads a CompactSize length followed by that many bytes.
// The returned slice is a copy and does not alias the input.
func (d *Decoder) ReadCompactBytes() ([]byte, error) {
	n, err := d.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	if uint64(d.Remaining()) < n {
		return nil, d.truncated(int(n))
	}
	b, err := d.ReadSlice(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Encoder accumulates encoded bytes.
type Encoder struct {
	buf   []byte
	reg   *Registry
	flags Flags
}

// NewEncoder creates an empty encoder for primitives only. Nested types
// require one created by Registry.Encode.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Flags returns the flags the current encode was started with.
func (e *Encoder) Flags() Flags { return e.flags }

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Write appends raw bytes.
func (e *Encoder) Write(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteUint8 appends a single byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteUint16 appends a little-endian uint16.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteInt32 appends a little-endian int32.
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteInt64 appends a little-endian int64.
func (e *Encoder) WriteInt64(v int64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
}

// WriteHash256 appends 32 raw bytes.
func (e *Encoder) WriteHash256(h [HashSize]byte) {
	e.buf = append(e.buf, h[:]...)
}

// WriteBool appends 0x01 for true and 0x00 for false.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteUint8(1)
		return
	}
	e.WriteUint8(0)
}

// WriteCompactBytes appends a CompactSize length prefix and the bytes.
func (e *Encoder) WriteCompactBytes(b []byte) error {
	if err := e.WriteCompactSize(uint64(len(b))); err != nil {
		return err
	}
	e.Write(b)
	return nil
}
