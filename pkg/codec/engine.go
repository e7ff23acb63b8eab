package codec

import (
	"fmt"
)

// Decode decodes a value of type t from buf.
//
// It returns the constructed value and the number of bytes consumed. When
// strict is set, any bytes left after the value are reported as
// CodeTrailingBytes. Decoding is all-or-nothing: on error no value is
// returned.
func (r *Registry) Decode(buf []byte, t TypeID, strict bool) (any, int, error) {
	if _, ok := r.types[t]; !ok {
		return nil, 0, &DecodeError{
			Code:    CodeUnknownType,
			Message: fmt.Sprintf("type %d is not registered", t),
		}
	}

	d := &Decoder{buf: buf, reg: r}
	v, err := d.ReadType(Nested(t))
	if err != nil {
		return nil, 0, err
	}

	if strict && d.Remaining() != 0 {
		return nil, 0, &DecodeError{
			Code:    CodeTrailingBytes,
			Offset:  d.Pos(),
			Message: fmt.Sprintf("%d trailing bytes after value", d.Remaining()),
		}
	}

	return v, d.Pos(), nil
}

// ReadType decodes one value of the given field type at the decoder's
// cursor. Hooks use it to read structured data that is not part of their
// own descriptor, such as witness stacks.
func (d *Decoder) ReadType(ft FieldType) (any, error) {
	switch ft.Kind {
	case KindInt32:
		return d.ReadInt32()
	case KindUint32:
		return d.ReadUint32()
	case KindInt64:
		return d.ReadInt64()
	case KindUint8:
		return d.ReadUint8()
	case KindHash256:
		return d.ReadHash256()
	case KindCompactBytes:
		return d.ReadCompactBytes()
	case KindBool:
		return d.ReadBool()
	case KindNested:
		return d.decodeNested(ft.Type)
	case KindVector:
		start := d.Pos()
		n, err := d.ReadCompactSize()
		if err != nil {
			return nil, err
		}
		// Every element occupies at least one byte, so a count larger
		// than what is left can never be satisfied.
		if n > uint64(d.Remaining()) {
			return nil, &DecodeError{
				Code:    CodeTruncated,
				Offset:  start,
				Message: fmt.Sprintf("vector claims %d elements with %d bytes left", n, d.Remaining()),
			}
		}
		return d.readRepeated(*ft.Elem, int(n))
	case KindArray:
		return d.readRepeated(*ft.Elem, ft.Len)
	default:
		panic(programmingError("cannot read field type %s", ft))
	}
}

func (d *Decoder) readRepeated(elem FieldType, n int) (any, error) {
	if elem.Kind == KindUint8 {
		b, err := d.ReadSlice(n)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)
		return out, nil
	}

	if elem.Kind == KindCompactBytes {
		out := make([][]byte, 0, n)
		for i := 0; i < n; i++ {
			b, err := d.ReadCompactBytes()
			if err != nil {
				return nil, withField(err, fmt.Sprintf("[%d]", i))
			}
			out = append(out, b)
		}
		return out, nil
	}

	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.ReadType(elem)
		if err != nil {
			return nil, withField(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) decodeNested(t TypeID) (any, error) {
	if d.reg == nil {
		panic(programmingError("decoder has no registry for nested type %d", t))
	}
	desc, ok := d.reg.types[t]
	if !ok {
		return nil, &DecodeError{
			Code:    CodeUnknownType,
			Offset:  d.Pos(),
			Message: fmt.Sprintf("type %d is not registered", t),
		}
	}

	rec := newRecord(desc.Name)
	st := newState()
	for _, f := range desc.Decode {
		if f.Type.Kind == KindHook {
			hook := desc.DecodeHooks[f.Type.Hook]
			if err := hook(d, rec, st); err != nil {
				return nil, withField(err, desc.Name+"."+f.Name)
			}
			continue
		}

		v, err := d.ReadType(f.Type)
		if err != nil {
			return nil, withField(err, desc.Name+"."+f.Name)
		}
		rec.Set(f.Name, v)
	}

	v, err := desc.Build(rec)
	if err != nil {
		return nil, withField(err, desc.Name)
	}
	return v, nil
}

// Encode encodes v using the descriptor registered for t. The flags are
// passed through to every encode hook.
func (r *Registry) Encode(v Valuer, t TypeID, flags Flags) ([]byte, error) {
	e := &Encoder{reg: r, flags: flags}
	if err := e.WriteType(Nested(t), v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// WriteType encodes one value of the given field type. Hooks use it to
// write structured data that is not part of their own descriptor.
//
// A value whose Go type does not match the field type panics with
// *ProgrammingError.
func (e *Encoder) WriteType(ft FieldType, v any) error {
	switch ft.Kind {
	case KindInt32:
		e.WriteInt32(mustBe[int32](ft, v))
	case KindUint32:
		e.WriteUint32(mustBe[uint32](ft, v))
	case KindInt64:
		e.WriteInt64(mustBe[int64](ft, v))
	case KindUint8:
		e.WriteUint8(mustBe[uint8](ft, v))
	case KindHash256:
		e.WriteHash256(mustBe[[HashSize]byte](ft, v))
	case KindCompactBytes:
		return e.WriteCompactBytes(mustBe[[]byte](ft, v))
	case KindBool:
		e.WriteBool(mustBe[bool](ft, v))
	case KindNested:
		return e.encodeNested(ft.Type, mustBe[Valuer](ft, v))
	case KindVector:
		n := sequenceLen(ft, v)
		if err := e.WriteCompactSize(uint64(n)); err != nil {
			return err
		}
		return e.writeRepeated(*ft.Elem, v)
	case KindArray:
		if n := sequenceLen(ft, v); n != ft.Len {
			return &EncodeError{
				Code:    CodeInvalidValue,
				Message: fmt.Sprintf("%s has %d elements", ft, n),
			}
		}
		return e.writeRepeated(*ft.Elem, v)
	default:
		panic(programmingError("cannot write field type %s", ft))
	}
	return nil
}

func (e *Encoder) encodeNested(t TypeID, v Valuer) error {
	if e.reg == nil {
		panic(programmingError("encoder has no registry for nested type %d", t))
	}
	desc, ok := e.reg.types[t]
	if !ok {
		panic(programmingError("encode of unregistered type %d", t))
	}

	for _, f := range desc.Encode {
		if f.Type.Kind == KindHook {
			hook := desc.EncodeHooks[f.Type.Hook]
			if err := hook(e, v, e.flags); err != nil {
				return withEncodeField(err, desc.Name+"."+f.Name)
			}
			continue
		}
		if err := e.WriteType(f.Type, v.FieldValue(f.Name)); err != nil {
			return withEncodeField(err, desc.Name+"."+f.Name)
		}
	}
	return nil
}

func (e *Encoder) writeRepeated(elem FieldType, v any) error {
	switch s := v.(type) {
	case []byte:
		if elem.Kind != KindUint8 {
			panic(programmingError("byte slice given for sequence of %s", elem))
		}
		e.Write(s)
	case [][]byte:
		if elem.Kind != KindCompactBytes {
			panic(programmingError("[][]byte given for sequence of %s", elem))
		}
		for _, b := range s {
			if err := e.WriteCompactBytes(b); err != nil {
				return err
			}
		}
	case []any:
		for _, it := range s {
			if err := e.WriteType(elem, it); err != nil {
				return err
			}
		}
	default:
		panic(programmingError("value %T is not a sequence", v))
	}
	return nil
}

func sequenceLen(ft FieldType, v any) int {
	switch s := v.(type) {
	case []byte:
		return len(s)
	case [][]byte:
		return len(s)
	case []any:
		return len(s)
	default:
		panic(programmingError("%s expects a sequence, got %T", ft, v))
	}
}

func mustBe[T any](ft FieldType, v any) T {
	t, ok := v.(T)
	if !ok {
		panic(programmingError("%s expects %T, got %T", ft, t, v))
	}
	return t
}

func withEncodeField(err error, field string) error {
	ee, ok := err.(*EncodeError)
	if !ok {
		return err
	}
	if ee.Field == "" {
		ee.Field = field
	} else {
		ee.Field = field + "." + ee.Field
	}
	return ee
}

// List converts a typed slice to the []any shape the encoder expects for
// vectors of nested types.
func List[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
