// Package oracle defines the capability through which the importer inspects an
// externally-owned protocol model. Implementations answer structural queries
// about type handles and serialize instances with the model's own encoder.
package oracle

// Kind classifies a type handle
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	String
	UUID
	Array
	Map
	Enum
	Abstract
	Concrete
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Bool:     "bool",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Float32:  "float32",
	Float64:  "float64",
	String:   "string",
	UUID:     "uuid",
	Array:    "array",
	Map:      "map",
	Enum:     "enum",
	Abstract: "abstract",
	Concrete: "concrete",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Type is a handle to one type of the external model. Handles are canonical:
// two handles describe the same type if and only if they compare equal.
type Type interface {
	// Name is the fully qualified name, "<package>.<simple name>" for named types
	Name() string
	SimpleName() string
	// Package is the namespace of a named type, empty for unnamed types
	Package() string
	Kind() Kind

	// Elem is the element type of an Array or the value type of a Map
	Elem() Type
	// Key is the key type of a Map
	Key() Type

	// Super is the declared supertype, nil at the root of a hierarchy
	Super() Type
	// DeclaredFields are the fields declared by this type itself, in order,
	// excluding those inherited from Super
	DeclaredFields() []Field
	Constructors() []Constructor
	// EnumValues is the canonical ordered value list of an Enum
	EnumValues() []any

	// Packet reports the wire metadata constants, if the type carries them
	Packet() (PacketConstants, bool)
	// Discriminant constructs a throwaway instance through the no-argument path
	// and reads its canonical type tag. Only meaningful for union variants.
	Discriminant() (int, error)

	// MakeList builds an Array value from generated elements
	MakeList(elems []any) (any, error)
	// MakeMap builds a Map value from generated entries in insertion order
	MakeMap(entries []Entry) (any, error)
}

// Field is one declared field of a concrete type
type Field struct {
	Name      string
	Type      Type
	Declaring Type
	Static    bool // not part of the instance state
	Nullable  bool
}

// Constructor is one construction path of a concrete type
type Constructor interface {
	Params() []Type
	New(args []any) (any, error)
}

// PacketConstants are the wire metadata constants exposed by a packet type
type PacketConstants struct {
	ID         int
	MaxSize    int
	Compressed bool
}

// Entry is one generated key/value pair of a Map value
type Entry struct {
	Key   any
	Value any
}

// Oracle is the external model as a whole
type Oracle interface {
	// Universe lists every type the model declares, used to index subtypes
	Universe() []Type
	// Packets lists the packet registry roots in registry order
	Packets() []Type
	// Serialize encodes an instance with the model's own encoder
	Serialize(instance any) ([]byte, error)
	// Deserialize decodes data as an instance of t with the model's own
	// decoder
	Deserialize(t Type, data []byte) (any, error)
}
