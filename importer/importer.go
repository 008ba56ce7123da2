// Package importer builds the codec IR from an oracle.Oracle. One Importer is
// one import session: it owns the memo table and the definitions list.
package importer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// Import errors. All of them mean the model changed in a way the importer has
// no rule for; the run should abort.
var (
	ErrUnsupportedShape = errors.New("importer: unsupported shape")
	ErrNoConstructor    = errors.New("importer: no constructor matches the fields")
	ErrUnknownCategory  = errors.New("importer: unknown packet category")
)

// Options configures an import session
type Options struct {
	// Root is the package path of the protocol model; only types under it are
	// imported as domain types
	Root string
	// MaxVarLen bounds strings, lists and maps without an override; 0 means
	// schema.DefaultMaxVarLen
	MaxVarLen int
	// Overrides replace the inferred node of specific fields; nil means
	// DefaultOverrides()
	Overrides map[FieldKey]Override
	// Small lists the simple names of Fixed size class structs; nil means
	// DefaultSmallStructs()
	Small map[string]bool
	// Debugf receives import traces; nil discards them
	Debugf func(format string, args ...any)
}

// Root is an imported packet registry entry
type Root struct {
	Type   oracle.Type
	Node   schema.Named
	Packet schema.PacketMetadata
}

// Importer imports oracle types into schema nodes, memoized by type identity
type Importer struct {
	oracle    oracle.Oracle
	root      string
	maxVarLen int
	overrides map[FieldKey]Override
	small     map[string]bool
	debugf    func(format string, args ...any)

	subtypes    map[oracle.Type][]oracle.Type
	named       map[oracle.Type]schema.Named
	definitions []schema.Definition
}

// New creates an import session and indexes the direct subtypes of every
// domain type in the oracle's universe
func New(o oracle.Oracle, opts Options) *Importer {
	imp := &Importer{
		oracle:    o,
		root:      strings.TrimSuffix(opts.Root, "/"),
		maxVarLen: opts.MaxVarLen,
		overrides: opts.Overrides,
		small:     opts.Small,
		debugf:    opts.Debugf,
		subtypes:  make(map[oracle.Type][]oracle.Type),
		named:     make(map[oracle.Type]schema.Named),
	}
	if imp.maxVarLen == 0 {
		imp.maxVarLen = schema.DefaultMaxVarLen
	}
	if imp.overrides == nil {
		imp.overrides = DefaultOverrides()
	}
	if imp.small == nil {
		imp.small = DefaultSmallStructs()
	}
	if imp.debugf == nil {
		imp.debugf = func(string, ...any) {}
	}

	for _, t := range o.Universe() {
		if !imp.inDomain(t) {
			continue
		}
		if super := t.Super(); super != nil {
			imp.subtypes[super] = append(imp.subtypes[super], t)
		}
	}
	return imp
}

// MaxVarLen is the session's bound for unbounded variable-length nodes
func (imp *Importer) MaxVarLen() int {
	return imp.maxVarLen
}

// Definitions returns the named nodes in first-discovery order
func (imp *Importer) Definitions() []schema.Definition {
	return imp.definitions
}

// ImportPackets imports every packet registry root in registry order
func (imp *Importer) ImportPackets() ([]Root, error) {
	var roots []Root
	for _, t := range imp.oracle.Packets() {
		meta, err := imp.packetMetadata(t)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			return nil, fmt.Errorf("%w: packet %s has no packet constants", ErrUnsupportedShape, t.Name())
		}

		n, err := imp.Import(t)
		if err != nil {
			return nil, err
		}
		named, ok := n.(schema.Named)
		if !ok {
			return nil, fmt.Errorf("%w: packet %s is not a struct or union", ErrUnsupportedShape, t.Name())
		}
		roots = append(roots, Root{Type: t, Node: named, Packet: *meta})
	}
	return roots, nil
}

// Import returns the node for t, importing it and its dependencies on first
// use
func (imp *Importer) Import(t oracle.Type) (schema.Node, error) {
	switch t.Kind() {
	case oracle.Bool:
		return schema.NewPrimitive(schema.Bool), nil
	case oracle.Int8:
		return schema.NewPrimitive(schema.U8), nil
	case oracle.Int16:
		return schema.NewPrimitive(schema.U16), nil
	case oracle.Int32:
		return schema.NewPrimitive(schema.U32), nil
	case oracle.Int64:
		return schema.NewPrimitive(schema.U64), nil
	case oracle.Float32:
		return schema.NewPrimitive(schema.F32), nil
	case oracle.Float64:
		return schema.NewPrimitive(schema.F64), nil
	case oracle.UUID:
		return schema.NewPrimitive(schema.UUID), nil
	case oracle.String:
		return schema.VarString(imp.maxVarLen), nil

	case oracle.Map:
		key, err := imp.Import(t.Key())
		if err != nil {
			return nil, err
		}
		value, err := imp.Import(t.Elem())
		if err != nil {
			return nil, err
		}
		return schema.NewMap(key, value, imp.maxVarLen, t), nil

	case oracle.Array:
		elem, err := imp.Import(t.Elem())
		if err != nil {
			return nil, err
		}
		return schema.NewList(elem, imp.maxVarLen, t), nil
	}

	if !imp.inDomain(t) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedShape, t.Name(), t.Kind())
	}

	switch t.Kind() {
	case oracle.Enum:
		return imp.importEnum(t), nil
	case oracle.Abstract:
		return imp.importUnion(t)
	case oracle.Concrete:
		return imp.importStruct(t)
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedShape, t.Name(), t.Kind())
}

func (imp *Importer) importEnum(t oracle.Type) schema.Node {
	if n, ok := imp.named[t]; ok {
		return n
	}

	values := t.EnumValues()
	variants := make([]string, len(values))
	for i, v := range values {
		variants[i] = fmt.Sprint(v)
	}

	e := schema.NewEnum(t.SimpleName(), variants, values)
	imp.named[t] = e
	imp.definitions = append(imp.definitions, schema.Definition{Root: e})
	imp.debugf("Imported enum %s with %d variants", t.Name(), len(variants))
	return e
}

func (imp *Importer) importUnion(t oracle.Type) (schema.Node, error) {
	if n, ok := imp.named[t]; ok {
		return n, nil
	}
	meta, err := imp.packetMetadata(t)
	if err != nil {
		return nil, err
	}

	// memoized before the variants import so back references resolve here
	u := schema.NewUnion(t.SimpleName())
	imp.named[t] = u
	imp.definitions = append(imp.definitions, schema.Definition{Packet: meta, Root: u})
	imp.debugf("Importing union %s", t.Name())

	type candidate struct {
		t            oracle.Type
		discriminant int
	}
	var candidates []candidate
	for _, sub := range imp.allSubtypes(t) {
		if sub.Kind() != oracle.Concrete {
			continue
		}
		d, err := sub.Discriminant()
		if err != nil {
			return nil, fmt.Errorf("%w: variant %s of %s: %w", ErrUnsupportedShape, sub.Name(), t.Name(), err)
		}
		candidates = append(candidates, candidate{t: sub, discriminant: d})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(a.discriminant, b.discriminant)
	})

	variants := make([]schema.Variant, 0, len(candidates))
	for _, c := range candidates {
		n, err := imp.Import(c.t)
		if err != nil {
			return nil, err
		}
		s, ok := n.(*schema.Struct)
		if !ok {
			return nil, fmt.Errorf("%w: variant %s of %s is not a struct", ErrUnsupportedShape, c.t.Name(), t.Name())
		}
		variants = append(variants, schema.Variant{Name: c.t.SimpleName(), Discriminant: c.discriminant, Struct: s})
		imp.debugf("  variant %s = %d", c.t.SimpleName(), c.discriminant)
	}

	u.Init(variants)
	if len(variants) == 0 {
		imp.debugf("Union %s has no concrete variants and is tainted", t.Name())
	}
	return u, nil
}

// allSubtypes expands the direct subtype index transitively, depth first in
// registration order
func (imp *Importer) allSubtypes(t oracle.Type) []oracle.Type {
	var out []oracle.Type
	for _, sub := range imp.subtypes[t] {
		out = append(out, sub)
		out = append(out, imp.allSubtypes(sub)...)
	}
	return out
}

func (imp *Importer) importStruct(t oracle.Type) (schema.Node, error) {
	if n, ok := imp.named[t]; ok {
		return n, nil
	}
	meta, err := imp.packetMetadata(t)
	if err != nil {
		return nil, err
	}

	mode := schema.Variable
	if imp.small[t.SimpleName()] {
		mode = schema.Fixed
	}
	s := schema.NewStruct(t.SimpleName(), mode, t)
	imp.named[t] = s
	imp.definitions = append(imp.definitions, schema.Definition{Packet: meta, Root: s})
	imp.debugf("Importing struct %s (size class %s)", t.Name(), mode)

	fields := instanceFields(t)
	ctor, err := matchConstructor(t, fields)
	if err != nil {
		return nil, err
	}

	nodes := make([]schema.Field, len(fields))
	for i, f := range fields {
		n, err := imp.importField(f)
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", f.Name, t.Name(), err)
		}
		nodes[i] = schema.Field{Name: f.Name, Node: n}
	}

	s.Init(nodes, ctor)
	return s, nil
}

func (imp *Importer) importField(f oracle.Field) (schema.Node, error) {
	key := FieldKey{Type: imp.RelativeName(f.Declaring), Field: f.Name}
	if override, ok := imp.overrides[key]; ok {
		imp.debugf("  field %s.%s uses an override", key.Type, key.Field)
		return override(imp, f)
	}

	n, err := imp.Import(f.Type)
	if err != nil {
		return nil, err
	}
	if f.Nullable {
		return schema.NewOptional(n), nil
	}
	return n, nil
}

// instanceFields collects the non-static fields from the root of the
// supertype chain down to t
func instanceFields(t oracle.Type) []oracle.Field {
	var chain []oracle.Type
	for c := t; c != nil; c = c.Super() {
		chain = append(chain, c)
	}

	var fields []oracle.Field
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].DeclaredFields() {
			if !f.Static {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// matchConstructor returns the first constructor whose parameter types equal
// the field types positionally. Copy constructors never match.
func matchConstructor(t oracle.Type, fields []oracle.Field) (oracle.Constructor, error) {
	for _, ctor := range t.Constructors() {
		params := ctor.Params()
		if len(params) == 1 && params[0] == t {
			continue
		}
		if len(params) != len(fields) {
			continue
		}
		match := true
		for i, p := range params {
			if p != fields[i].Type {
				match = false
				break
			}
		}
		if match {
			return ctor, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoConstructor, t.Name())
}

func (imp *Importer) packetMetadata(t oracle.Type) (*schema.PacketMetadata, error) {
	pc, ok := t.Packet()
	if !ok {
		return nil, nil
	}
	category, err := imp.Category(t)
	if err != nil {
		return nil, err
	}
	return &schema.PacketMetadata{
		ID:         pc.ID,
		MaxSize:    pc.MaxSize,
		Compressed: pc.Compressed,
		Category:   category,
	}, nil
}

// Category maps a packet's package, <root>/packets/<segment>, to its
// category
func (imp *Importer) Category(t oracle.Type) (schema.Category, error) {
	rel := imp.relativePackage(t)
	segment, ok := strings.CutPrefix(rel, "packets/")
	if ok {
		if c, known := categories[segment]; known {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %s is in package %q", ErrUnknownCategory, t.Name(), t.Package())
}

// RelativeName is the name used by override keys: the simple name, prefixed
// by the package path relative to the root for types outside the root package
func (imp *Importer) RelativeName(t oracle.Type) string {
	if rel := imp.relativePackage(t); rel != "" {
		return rel + "." + t.SimpleName()
	}
	return t.SimpleName()
}

func (imp *Importer) relativePackage(t oracle.Type) string {
	rel := strings.TrimPrefix(t.Package(), imp.root)
	return strings.TrimPrefix(rel, "/")
}

// inDomain reports whether t is a named type of the protocol model. An empty
// root accepts every named type.
func (imp *Importer) inDomain(t oracle.Type) bool {
	pkg := t.Package()
	if pkg == "" {
		return false
	}
	return imp.root == "" || pkg == imp.root || strings.HasPrefix(pkg, imp.root+"/")
}
