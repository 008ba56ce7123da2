// Package goreflect implements the oracle capability over Go reflection.
//
// A protocol model registers its types, constructors and packet roots with a
// Universe:
//
//	u := goreflect.New().
//	    Add(protocol.Vector3f{}, (*protocol.Selector)(nil)).
//	    AddConstructors(protocol.NewVector3f).
//	    AddPackets(player.Position{})
//
// Model conventions:
//
//	interfaces                     abstract types (sealed unions)
//	first embedded struct field    superclass
//	Values() []T on a named type   enum with canonical value order
//	TypeID() int                   union discriminant, read from the zero value
//	PacketID/MaxSize/IsCompressed  packet wire constants
//	pointer fields                 nullable
//	`packet:"nullable"`            nullable without a pointer
//	`packet:"name=x"`              wire field name (default: lower camel case)
//	`packet:"-"`, unexported       static, not part of the instance state
package goreflect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/wire"
)

// Universe errors
var (
	ErrCoerce         = errors.New("goreflect: value not assignable")
	ErrArity          = errors.New("goreflect: wrong number of constructor arguments")
	ErrNotSerializer  = errors.New("goreflect: instance does not implement wire.Serializer")
	ErrNotDecodable   = errors.New("goreflect: type does not implement wire.Deserializer")
	ErrNoDiscriminant = errors.New("goreflect: type has no TypeID discriminant")
	ErrNotContainer   = errors.New("goreflect: type is not a container")
)

// PacketInfo is implemented by packet types to expose their wire constants
type PacketInfo interface {
	PacketID() int
	MaxSize() int
	IsCompressed() bool
}

type discriminated interface {
	TypeID() int
}

var uuidType = reflect.TypeOf(uuid.UUID{})

var _ oracle.Oracle = (*Universe)(nil)

// Universe is a registry of Go types forming one protocol model. It is not
// safe for concurrent use.
type Universe struct {
	handles    map[reflect.Type]*handle
	registered []*handle
	packets    []*handle
	ctors      map[reflect.Type][]oracle.Constructor
}

// New creates an empty universe
func New() *Universe {
	return &Universe{
		handles: make(map[reflect.Type]*handle),
		ctors:   make(map[reflect.Type][]oracle.Constructor),
	}
}

// Add registers model types. Samples are zero values, or typed nil pointers
// such as (*Selector)(nil) for interfaces.
func (u *Universe) Add(samples ...any) *Universe {
	for _, s := range samples {
		u.register(sampleType(s))
	}
	return u
}

// AddPackets registers packet roots in registry order
func (u *Universe) AddPackets(samples ...any) *Universe {
	for _, s := range samples {
		h := u.register(sampleType(s))
		u.packets = append(u.packets, h)
	}
	return u
}

// AddConstructors registers constructor functions. Each must be a
// non-variadic func returning exactly one T or *T. It panics otherwise.
func (u *Universe) AddConstructors(fns ...any) *Universe {
	for _, fn := range fns {
		fv := reflect.ValueOf(fn)
		ft := fv.Type()
		if ft.Kind() != reflect.Func || ft.NumOut() != 1 || ft.IsVariadic() {
			panic(fmt.Sprintf("goreflect: constructor %v must be a non-variadic func returning one value", ft))
		}
		out := deref(ft.Out(0))
		u.ctors[out] = append(u.ctors[out], &constructor{u: u, fn: fv})
	}
	return u
}

// Universe implements oracle.Oracle
func (u *Universe) Universe() []oracle.Type {
	types := make([]oracle.Type, len(u.registered))
	for i, h := range u.registered {
		types[i] = h
	}
	return types
}

// Packets implements oracle.Oracle
func (u *Universe) Packets() []oracle.Type {
	types := make([]oracle.Type, len(u.packets))
	for i, h := range u.packets {
		types[i] = h
	}
	return types
}

// Serialize implements oracle.Oracle
func (u *Universe) Serialize(instance any) ([]byte, error) {
	s, ok := instance.(wire.Serializer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotSerializer, instance)
	}
	return wire.Marshal(s)
}

// Deserialize implements oracle.Oracle. The result is a *T for a handle of T.
func (u *Universe) Deserialize(t oracle.Type, data []byte) (any, error) {
	h, ok := t.(*handle)
	if !ok || h.u != u {
		return nil, fmt.Errorf("%w: %v is not a handle of this universe", ErrNotDecodable, t)
	}
	p := reflect.New(h.rt)
	d, ok := p.Interface().(wire.Deserializer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDecodable, h.Name())
	}
	if err := wire.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Name(), err)
	}
	return p.Interface(), nil
}

// TypeOf returns the canonical handle of a Go type
func (u *Universe) TypeOf(sample any) oracle.Type {
	return u.typeOf(sampleType(sample))
}

func (u *Universe) register(rt reflect.Type) *handle {
	h := u.handle(rt)
	for _, existing := range u.registered {
		if existing == h {
			return h
		}
	}
	u.registered = append(u.registered, h)
	return h
}

func (u *Universe) handle(rt reflect.Type) *handle {
	rt = deref(rt)
	if h, ok := u.handles[rt]; ok {
		return h
	}
	h := &handle{u: u, rt: rt}
	u.handles[rt] = h
	return h
}

// typeOf returns an untyped nil for a nil reflect.Type so callers can compare
// the result against nil
func (u *Universe) typeOf(rt reflect.Type) oracle.Type {
	if rt == nil {
		return nil
	}
	return u.handle(rt)
}

func sampleType(s any) reflect.Type {
	rt := reflect.TypeOf(s)
	if rt == nil {
		panic("goreflect: untyped nil sample; use (*T)(nil)")
	}
	return deref(rt)
}

func deref(rt reflect.Type) reflect.Type {
	if rt.Kind() == reflect.Pointer {
		return rt.Elem()
	}
	return rt
}

// superOf returns the first embedded struct, otherwise the most specific
// registered interface implemented by rt
func (u *Universe) superOf(rt reflect.Type) reflect.Type {
	if rt.Kind() == reflect.Struct {
		if i := embeddedSuper(rt); i >= 0 {
			return deref(rt.Field(i).Type)
		}
	} else if rt.Kind() != reflect.Interface {
		return nil
	}

	var candidates []reflect.Type
	for _, h := range u.registered {
		it := h.rt
		if it.Kind() != reflect.Interface || it == rt || it.NumMethod() == 0 {
			continue
		}
		if implements(rt, it) {
			candidates = append(candidates, it)
		}
	}

	for _, c := range candidates {
		specific := true
		for _, other := range candidates {
			if other != c && other.Implements(c) && !c.Implements(other) {
				specific = false
				break
			}
		}
		if specific {
			return c
		}
	}
	return nil
}

func embeddedSuper(rt reflect.Type) int {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Anonymous && deref(f.Type).Kind() == reflect.Struct {
			return i
		}
	}
	return -1
}

func implements(rt, it reflect.Type) bool {
	if rt.Implements(it) {
		return true
	}
	return rt.Kind() != reflect.Interface && reflect.PointerTo(rt).Implements(it)
}

type tagOptions struct {
	name     string
	nullable bool
	skip     bool
}

func parseTag(tag string) tagOptions {
	var opts tagOptions
	if tag == "-" {
		opts.skip = true
		return opts
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "nullable":
			opts.nullable = true
		case strings.HasPrefix(part, "name="):
			opts.name = strings.TrimPrefix(part, "name=")
		}
	}
	return opts
}

// lowerCamel lowers the leading upper case run of a Go identifier, keeping the
// last capital of an initialism as the start of the next word:
//
//	ClientVersion → clientVersion
//	UUID          → uuid
//	IDToken       → idToken
func lowerCamel(name string) string {
	r := []rune(name)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	if n > 1 && n < len(r) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
