package codec

import "fmt"

// Record accumulates the values produced while decoding one instance of a
// type. Primitive, nested and repeated fields are stored under their field
// name; hooks may store any number of additional named values.
//
// The typed getters panic with *ProgrammingError when a value is missing or
// has an unexpected Go type, since that can only mean the descriptor and
// its constructor disagree.
type Record struct {
	typeName string
	values   map[string]any
}

func newRecord(typeName string) *Record {
	return &Record{typeName: typeName, values: make(map[string]any)}
}

// NewRecord creates an empty record. It is exported for hook tests.
func NewRecord(typeName string) *Record {
	return newRecord(typeName)
}

// Set stores v under name, replacing any previous value.
func (r *Record) Set(name string, v any) {
	r.values[name] = v
}

// Get returns the raw value stored under name.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether a value is stored under name.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func get[T any](r *Record, name string) T {
	v, ok := r.values[name]
	if !ok {
		panic(programmingError("%s: field %q was never set", r.typeName, name))
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		panic(programmingError("%s: field %q is %T, want %T", r.typeName, name, v, zero))
	}
	return t
}

// Typed getters.
func (r *Record) Int32(name string) int32 { return get[int32](r, name) }
func (r *Record) Uint32(name string) uint32 { return get[uint32](r, name) }
func (r *Record) Int64(name string) int64 { return get[int64](r, name) }
func (r *Record) Int(name string) int { return get[int](r, name) }
func (r *Record) Bool(name string) bool { return get[bool](r, name) }
func (r *Record) Bytes(name string) []byte { return get[[]byte](r, name) }
func (r *Record) Hash(name string) [HashSize]byte { return get[[HashSize]byte](r, name) }
func (r *Record) List(name string) []any { return get[[]any](r, name) }
func (r *Record) Value(name string) any { return get[any](r, name) }
func (r *Record) String() string { return fmt.Sprintf("%s%v", r.typeName, r.values) }

// As returns the value stored under name as a T.
func As[T any](r *Record, name string) T {
	return get[T](r, name)
}

// ListOf converts a decoded vector field to a typed slice.
func ListOf[T any](r *Record, name string) []T {
	items := r.List(name)
	out := make([]T, len(items))
	for i, it := range items {
		t, ok := it.(T)
		if !ok {
			panic(programmingError("%s: element %d of %q is %T, want %T", r.typeName, i, name, it, t))
		}
		out[i] = t
	}
	return out
}

// State holds positional checkpoints and flags recorded by hooks while
// decoding one instance of a type. A fresh State is used for every nested
// value, so hooks of different instances never see each other's marks.
type State struct {
	marks map[string]int
	flags map[string]bool
}

func newState() *State {
	return &State{marks: make(map[string]int), flags: make(map[string]bool)}
}

// NewState creates an empty state. It is exported for hook tests.
func NewState() *State {
	return newState()
}

// Mark records an absolute byte offset under name.
func (s *State) Mark(name string, pos int) {
	s.marks[name] = pos
}

// Pos returns the offset recorded under name.
func (s *State) Pos(name string) (int, bool) {
	p, ok := s.marks[name]
	return p, ok
}

// SetFlag records a boolean under name.
func (s *State) SetFlag(name string, v bool) {
	s.flags[name] = v
}

// Flag returns the boolean recorded under name, false if unset.
func (s *State) Flag(name string) bool {
	return s.flags[name]
}

// MustPos is like Pos but panics with *ProgrammingError when the mark is
// missing, which means hooks were ordered incorrectly in the descriptor.
func (s *State) MustPos(name string) int {
	p, ok := s.marks[name]
	if !ok {
		panic(programmingError("checkpoint %q was never recorded", name))
	}
	return p
}
