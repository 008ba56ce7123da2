// Package schema is the codec IR built by the importer: one Node graph per
// import session, shared read-only by the fixture generator and the emitter.
package schema

import (
	"errors"
	"fmt"

	"github.com/tempusfrangit/go-packetgen/oracle"
)

// DefaultMaxVarLen bounds every variable-length node unless overridden. It is
// the bound the target codec library assumes for types without an explicit
// serializer.
const DefaultMaxVarLen = 4096000

// ErrTainted is returned by operations that reach a tainted node
var ErrTainted = errors.New("schema: tainted node")

// Mode is the encoding form of strings, byte arrays and optionals
type Mode uint8

const (
	// Fixed is an exact-length string/bytes or a presence bit in the null-bits
	// header for optionals
	Fixed Mode = iota
	// Variable is a length-prefixed string/bytes or an offset-addressed
	// optional
	Variable
)

func (m Mode) String() string {
	if m == Fixed {
		return "fixed"
	}
	return "variable"
}

// Node is one codec IR node. The set of implementations is closed.
type Node interface {
	// DefaultSerializer reports whether the node's encoding equals the target
	// type's intrinsic default, so no explicit serializer needs rendering
	DefaultSerializer() bool
	// PreferredOptionMode is the optional encoding a container uses for an
	// Option of this node when nothing pins one
	PreferredOptionMode() Mode

	walkTaint(seen map[Node]struct{}) bool
}

// Named is a node that becomes a top-level definition
type Named interface {
	Node
	TypeName() string
}

// PrimitiveKind enumerates the fixed-width scalars
type PrimitiveKind uint8

const (
	Bool PrimitiveKind = iota
	U8
	U16
	U32
	U64
	F32
	F64
	UUID
)

var primitiveNames = [...]string{
	Bool: "bool",
	U8:   "u8",
	U16:  "u16",
	U32:  "u32",
	U64:  "u64",
	F32:  "f32",
	F64:  "f64",
	UUID: "uuid",
}

func (k PrimitiveKind) String() string {
	if int(k) < len(primitiveNames) {
		return primitiveNames[k]
	}
	return fmt.Sprintf("PrimitiveKind(%d)", uint8(k))
}

// Primitive is a fixed-width scalar
type Primitive struct {
	Kind PrimitiveKind
}

// NewPrimitive returns a scalar node of kind k
func NewPrimitive(k PrimitiveKind) *Primitive { return &Primitive{Kind: k} }

func (*Primitive) DefaultSerializer() bool          { return true }
func (*Primitive) PreferredOptionMode() Mode        { return Fixed }
func (*Primitive) walkTaint(map[Node]struct{}) bool { return false }

// String is text in Fixed (exact length) or Variable (max length) form
type String struct {
	Form Mode
	Len  int
}

// VarString returns a length-prefixed string of at most maxLen bytes
func VarString(maxLen int) *String { return &String{Form: Variable, Len: maxLen} }

// FixedString returns a zero padded string of exactly size bytes
func FixedString(size int) *String { return &String{Form: Fixed, Len: size} }

func (s *String) DefaultSerializer() bool {
	return s.Form == Variable && s.Len == DefaultMaxVarLen
}
func (s *String) PreferredOptionMode() Mode      { return s.Form }
func (*String) walkTaint(map[Node]struct{}) bool { return false }

// Bytes is a byte array in Fixed (exact length) or Variable (max length) form
type Bytes struct {
	Form Mode
	Len  int
}

// VarBytes returns a length-prefixed byte array of at most maxLen bytes
func VarBytes(maxLen int) *Bytes { return &Bytes{Form: Variable, Len: maxLen} }

// FixedBytes returns a byte array of exactly size bytes
func FixedBytes(size int) *Bytes { return &Bytes{Form: Fixed, Len: size} }

func (b *Bytes) DefaultSerializer() bool {
	return b.Form == Variable && b.Len == DefaultMaxVarLen
}
func (b *Bytes) PreferredOptionMode() Mode      { return b.Form }
func (*Bytes) walkTaint(map[Node]struct{}) bool { return false }

// List is a length-prefixed sequence. Source builds external list values.
type List struct {
	Elem   Node
	MaxLen int
	Source oracle.Type
}

// NewList returns a list of elem holding at most maxLen entries
func NewList(elem Node, maxLen int, source oracle.Type) *List {
	return &List{Elem: elem, MaxLen: maxLen, Source: source}
}

func (l *List) DefaultSerializer() bool {
	return l.MaxLen == DefaultMaxVarLen && l.Elem.DefaultSerializer()
}
func (*List) PreferredOptionMode() Mode { return Variable }
func (l *List) walkTaint(seen map[Node]struct{}) bool {
	return l.Elem.walkTaint(seen)
}

// Map is a length-prefixed dictionary. Source builds external map values.
type Map struct {
	Key    Node
	Value  Node
	MaxLen int
	Source oracle.Type
}

// NewMap returns a dictionary holding at most maxLen entries
func NewMap(key, value Node, maxLen int, source oracle.Type) *Map {
	return &Map{Key: key, Value: value, MaxLen: maxLen, Source: source}
}

func (m *Map) DefaultSerializer() bool {
	return m.MaxLen == DefaultMaxVarLen && m.Key.DefaultSerializer() && m.Value.DefaultSerializer()
}
func (*Map) PreferredOptionMode() Mode { return Variable }
func (m *Map) walkTaint(seen map[Node]struct{}) bool {
	return m.Key.walkTaint(seen) || m.Value.walkTaint(seen)
}

// Optional wraps a nullable value with an explicit presence encoding
type Optional struct {
	Elem Node
	Mode Mode
}

// NewOptional uses the wrapped node's preferred mode. A tainted payload gets
// Variable; the definition holding it is dropped anyway.
func NewOptional(elem Node) *Optional {
	mode := Variable
	if !IsTainted(elem) {
		mode = elem.PreferredOptionMode()
	}
	return &Optional{Elem: elem, Mode: mode}
}

// OptionalMode pins the presence encoding
func OptionalMode(elem Node, mode Mode) *Optional {
	return &Optional{Elem: elem, Mode: mode}
}

func (o *Optional) DefaultSerializer() bool {
	return o.Elem.PreferredOptionMode() == o.Mode && o.Elem.DefaultSerializer()
}
func (*Optional) PreferredOptionMode() Mode { return Variable }
func (o *Optional) walkTaint(seen map[Node]struct{}) bool {
	return o.Elem.walkTaint(seen)
}

// Boxed is an ownership indirection on the implementing side; it does not
// change the wire shape
type Boxed struct {
	Elem Node
}

// NewBoxed wraps elem in an ownership indirection
func NewBoxed(elem Node) *Boxed { return &Boxed{Elem: elem} }

func (b *Boxed) DefaultSerializer() bool   { return b.Elem.DefaultSerializer() }
func (b *Boxed) PreferredOptionMode() Mode { return b.Elem.PreferredOptionMode() }
func (b *Boxed) walkTaint(seen map[Node]struct{}) bool {
	return b.Elem.walkTaint(seen)
}

// Field is one named struct member
type Field struct {
	Name string
	Node Node
}

// Struct is a concrete record. It is created empty, memoized, then populated
// by Init so that recursive references resolve to the same node.
type Struct struct {
	Name        string
	Fields      []Field
	Mode        Mode // size class: Fixed for small value objects
	Constructor oracle.Constructor
	Source      oracle.Type

	initialized bool
}

// NewStruct returns an uninitialized struct; call Init to populate it
func NewStruct(name string, mode Mode, source oracle.Type) *Struct {
	return &Struct{Name: name, Mode: mode, Source: source}
}

// Init populates the struct. It panics if called twice.
func (s *Struct) Init(fields []Field, ctor oracle.Constructor) {
	if s.initialized {
		panic("schema: struct " + s.Name + " initialized twice")
	}
	s.Fields = fields
	s.Constructor = ctor
	s.initialized = true
}

// Initialized reports whether Init has run
func (s *Struct) Initialized() bool         { return s.initialized }
func (s *Struct) TypeName() string          { return s.Name }
func (*Struct) DefaultSerializer() bool     { return true }
func (s *Struct) PreferredOptionMode() Mode { return s.Mode }

func (s *Struct) walkTaint(seen map[Node]struct{}) bool {
	if _, ok := seen[s]; ok {
		return false
	}
	seen[s] = struct{}{}
	for _, f := range s.Fields {
		if f.Node.walkTaint(seen) {
			return true
		}
	}
	return false
}

// Enum is a payload-free tag enum. Values holds the external values in the
// same order as Variants.
type Enum struct {
	Name     string
	Variants []string
	Values   []any
}

// NewEnum returns an enum whose variants and values share one order
func NewEnum(name string, variants []string, values []any) *Enum {
	return &Enum{Name: name, Variants: variants, Values: values}
}

func (e *Enum) TypeName() string               { return e.Name }
func (*Enum) DefaultSerializer() bool          { return true }
func (*Enum) PreferredOptionMode() Mode        { return Fixed }
func (*Enum) walkTaint(map[Node]struct{}) bool { return false }

// Variant is one concrete member of a union
type Variant struct {
	Name         string
	Discriminant int
	Struct       *Struct
}

// Union is a sealed hierarchy. Variants are ordered by ascending
// discriminant. Like Struct it is memoized empty and populated by Init.
type Union struct {
	Name     string
	Variants []Variant

	initialized bool
}

// NewUnion returns an uninitialized union; call Init to populate it
func NewUnion(name string) *Union { return &Union{Name: name} }

// Init populates the union. It panics if called twice.
func (u *Union) Init(variants []Variant) {
	if u.initialized {
		panic("schema: union " + u.Name + " initialized twice")
	}
	u.Variants = variants
	u.initialized = true
}

// Initialized reports whether Init has run
func (u *Union) Initialized() bool       { return u.initialized }
func (u *Union) TypeName() string        { return u.Name }
func (*Union) DefaultSerializer() bool   { return true }
func (*Union) PreferredOptionMode() Mode { return Variable }

// walkTaint treats an initialized union with no variants as tainted; an
// uninitialized one is still being imported further up the stack
func (u *Union) walkTaint(seen map[Node]struct{}) bool {
	if _, ok := seen[u]; ok {
		return false
	}
	seen[u] = struct{}{}
	if u.initialized && len(u.Variants) == 0 {
		return true
	}
	for _, v := range u.Variants {
		if v.Struct.walkTaint(seen) {
			return true
		}
	}
	return false
}

// Tainted marks a shape that cannot be represented. Any query on it panics;
// callers check IsTainted first.
type Tainted struct {
	Reason string
}

// Taint returns a node marking an unrepresentable shape
func Taint(reason string) *Tainted { return &Tainted{Reason: reason} }

func (t *Tainted) DefaultSerializer() bool {
	panic(fmt.Sprintf("schema: serializer query on tainted node (%s)", t.Reason))
}

func (t *Tainted) PreferredOptionMode() Mode {
	panic(fmt.Sprintf("schema: option mode query on tainted node (%s)", t.Reason))
}

func (*Tainted) walkTaint(map[Node]struct{}) bool { return true }

// IsTainted walks n depth-first with a fresh visited set. Nodes seen earlier
// in the same walk count as untainted, so cycles terminate without taint.
func IsTainted(n Node) bool {
	return n.walkTaint(make(map[Node]struct{}))
}
