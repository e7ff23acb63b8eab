package codec

import (
	"fmt"
	"strings"
)

// Kind is the closed set of field shapes a descriptor may contain.
type Kind uint8

const (
	KindInt32 Kind = iota + 1
	KindUint32
	KindInt64
	KindUint8
	KindHash256
	KindCompactBytes
	KindBool
	KindNested
	KindVector
	KindArray
	KindHook
)

var kindNames = map[Kind]string{
	KindInt32:        "int32",
	KindUint32:       "uint32",
	KindInt64:        "int64",
	KindUint8:        "uint8",
	KindHash256:      "hash256",
	KindCompactBytes: "compact-bytes",
	KindBool:         "bool",
	KindNested:       "nested",
	KindVector:       "vector",
	KindArray:        "array",
	KindHook:         "hook",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// TypeID identifies a registered type. The values are owned by the package
// that builds the registry.
type TypeID uint8

// HookID identifies a custom hook on a descriptor.
type HookID uint8

// FieldType describes the wire shape of one descriptor entry.
type FieldType struct {
	Kind Kind
	Type TypeID     // KindNested
	Elem *FieldType // KindVector, KindArray
	Len  int        // KindArray
	Hook HookID     // KindHook
}

// Primitive field types.
var (
	Int32        = FieldType{Kind: KindInt32}
	Uint32       = FieldType{Kind: KindUint32}
	Int64        = FieldType{Kind: KindInt64}
	Uint8        = FieldType{Kind: KindUint8}
	Hash256      = FieldType{Kind: KindHash256}
	CompactBytes = FieldType{Kind: KindCompactBytes}
	Bool         = FieldType{Kind: KindBool}
)

// Nested returns a field type decoded with the descriptor registered for t.
func Nested(t TypeID) FieldType {
	return FieldType{Kind: KindNested, Type: t}
}

// VectorOf returns a CompactSize-counted sequence of elem.
func VectorOf(elem FieldType) FieldType {
	return FieldType{Kind: KindVector, Elem: &elem}
}

// ArrayOf returns a fixed-length sequence of n elem, with no length prefix.
func ArrayOf(elem FieldType, n int) FieldType {
	return FieldType{Kind: KindArray, Elem: &elem, Len: n}
}

// HookField returns a field handled by the custom hook h.
func HookField(h HookID) FieldType {
	return FieldType{Kind: KindHook, Hook: h}
}

func (ft FieldType) String() string {
	switch ft.Kind {
	case KindNested:
		return fmt.Sprintf("type(%d)", ft.Type)
	case KindVector:
		return fmt.Sprintf("vector<%s>", ft.Elem)
	case KindArray:
		return fmt.Sprintf("array<%s,%d>", ft.Elem, ft.Len)
	case KindHook:
		return fmt.Sprintf("hook(%d)", ft.Hook)
	default:
		return ft.Kind.String()
	}
}

// Field is one (type, name) entry of a descriptor.
type Field struct {
	Type FieldType
	Name string
}

// F is shorthand for building a Field.
func F(t FieldType, name string) Field {
	return Field{Type: t, Name: name}
}

// H is shorthand for a hook entry. Hooks have no property name of their
// own; the name is only used in error messages.
func H(h HookID, name string) Field {
	return Field{Type: HookField(h), Name: name}
}

// DecodeHook runs at a hook position during decode. It may read from d,
// set any number of values on rec and record checkpoints in st.
type DecodeHook func(d *Decoder, rec *Record, st *State) error

// EncodeHook runs at a hook position during encode and may write any number
// of bytes to e.
type EncodeHook func(e *Encoder, v Valuer, flags Flags) error

// Valuer is implemented by every registered Go type so the encoder can pull
// field values by name.
type Valuer interface {
	FieldValue(name string) any
}

// Flags are passed unchanged to every encode hook.
type Flags uint32

// Has reports whether all bits in f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Descriptor is the complete wire definition of a registered type.
type Descriptor struct {
	Type        TypeID
	Name        string
	Decode      []Field
	Encode      []Field
	DecodeHooks map[HookID]DecodeHook
	EncodeHooks map[HookID]EncodeHook

	// Build constructs the Go value once every decode field has run.
	Build func(rec *Record) (any, error)
}

// Registry is an immutable table of descriptors. It is safe for concurrent
// use once constructed.
type Registry struct {
	types map[TypeID]*Descriptor
}

// NewRegistry validates and indexes the given descriptors. Every hook
// referenced by a descriptor must be registered on that descriptor, and
// every nested type must be part of the same registry.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{types: make(map[TypeID]*Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := r.types[d.Type]; dup {
			return nil, fmt.Errorf("duplicate descriptor for type %d (%s)", d.Type, d.Name)
		}
		if d.Build == nil {
			return nil, fmt.Errorf("descriptor %s has no constructor", d.Name)
		}
		r.types[d.Type] = d
	}

	var problems []string
	for _, d := range descs {
		for _, f := range d.Decode {
			problems = append(problems, r.check(d, f.Name, f.Type, false)...)
		}
		for _, f := range d.Encode {
			problems = append(problems, r.check(d, f.Name, f.Type, true)...)
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid descriptors: %s", strings.Join(problems, "; "))
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics with a *ProgrammingError.
func MustRegistry(descs ...*Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(&ProgrammingError{Message: err.Error()})
	}
	return r
}

func (r *Registry) check(d *Descriptor, name string, ft FieldType, encode bool) []string {
	switch ft.Kind {
	case KindHook:
		if encode {
			if _, ok := d.EncodeHooks[ft.Hook]; !ok {
				return []string{fmt.Sprintf("%s.%s: encode hook %d not registered", d.Name, name, ft.Hook)}
			}
		} else if _, ok := d.DecodeHooks[ft.Hook]; !ok {
			return []string{fmt.Sprintf("%s.%s: decode hook %d not registered", d.Name, name, ft.Hook)}
		}
	case KindNested:
		if _, ok := r.types[ft.Type]; !ok {
			return []string{fmt.Sprintf("%s.%s: nested type %d not registered", d.Name, name, ft.Type)}
		}
	case KindVector, KindArray:
		if ft.Elem == nil {
			return []string{fmt.Sprintf("%s.%s: %s without element type", d.Name, name, ft.Kind)}
		}
		if ft.Elem.Kind == KindHook {
			return []string{fmt.Sprintf("%s.%s: hooks cannot be repeated", d.Name, name)}
		}
		if ft.Kind == KindArray && ft.Len < 0 {
			return []string{fmt.Sprintf("%s.%s: negative array length", d.Name, name)}
		}
		return r.check(d, name, *ft.Elem, encode)
	case 0:
		return []string{fmt.Sprintf("%s.%s: missing field kind", d.Name, name)}
	}
	return nil
}

// Lookup returns the descriptor registered for t.
func (r *Registry) Lookup(t TypeID) (*Descriptor, bool) {
	d, ok := r.types[t]
	return d, ok
}
