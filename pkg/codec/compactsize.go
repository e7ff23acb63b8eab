package codec

import "fmt"

// CompactSize prefix bytes.
const (
	compactSize16 = 0xfd
	compactSize32 = 0xfe
	compactSize64 = 0xff

	// MaxCompactSize is the largest CompactSize value this codec will
	// read or write. The 0xff/u64 form is not supported.
	MaxCompactSize = 0xffffffff
)

// ReadCompactSize reads a Bitcoin CompactSize integer.
//
// Encodings that are not the shortest possible form are rejected with
// CodeNonCanonical, and the 0xff (64-bit) form is rejected with
// CodeSizeTooLarge.
func (d *Decoder) ReadCompactSize() (uint64, error) {
	start := d.pos
	tag, err := d.ReadUint8()
	if err != nil {
		return 0, err
	}

	switch tag {
	case compactSize16:
		v, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		if v < compactSize16 {
			return 0, nonCanonical(start, uint64(v))
		}
		return uint64(v), nil

	case compactSize32:
		v, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, nonCanonical(start, uint64(v))
		}
		return uint64(v), nil

	case compactSize64:
		return 0, &DecodeError{
			Code:    CodeSizeTooLarge,
			Offset:  start,
			Message: "64-bit compact size is not supported",
		}

	default:
		return uint64(tag), nil
	}
}

func nonCanonical(offset int, v uint64) error {
	return &DecodeError{
		Code:    CodeNonCanonical,
		Offset:  offset,
		Message: fmt.Sprintf("non-canonical compact size encoding of %d", v),
	}
}

// WriteCompactSize appends n in its shortest CompactSize form.
func (e *Encoder) WriteCompactSize(n uint64) error {
	switch {
	case n < compactSize16:
		e.WriteUint8(uint8(n))
	case n <= 0xffff:
		e.WriteUint8(compactSize16)
		e.WriteUint16(uint16(n))
	case n <= MaxCompactSize:
		e.WriteUint8(compactSize32)
		e.WriteUint32(uint32(n))
	default:
		return &EncodeError{
			Code:    CodeSizeTooLarge,
			Message: fmt.Sprintf("compact size %d exceeds the supported range", n),
		}
	}
	return nil
}

// CompactSizeLen returns the number of bytes WriteCompactSize uses for n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < compactSize16:
		return 1
	case n <= 0xffff:
		return 3
	case n <= MaxCompactSize:
		return 5
	default:
		return 9
	}
}
