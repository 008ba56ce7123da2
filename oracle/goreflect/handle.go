package goreflect

import (
	"fmt"
	"reflect"

	"github.com/tempusfrangit/go-packetgen/oracle"
)

// handle is the canonical oracle.Type of one pointer-stripped reflect.Type
type handle struct {
	u  *Universe
	rt reflect.Type

	kind      oracle.Kind
	kindKnown bool
}

var _ oracle.Type = (*handle)(nil)

func (h *handle) Name() string {
	if h.rt.Name() != "" && h.rt.PkgPath() != "" {
		return h.rt.PkgPath() + "." + h.rt.Name()
	}
	return h.rt.String()
}

func (h *handle) SimpleName() string {
	if h.rt.Name() != "" {
		return h.rt.Name()
	}
	return h.rt.String()
}

func (h *handle) Package() string {
	return h.rt.PkgPath()
}

func (h *handle) String() string {
	return h.Name()
}

func (h *handle) Kind() oracle.Kind {
	if !h.kindKnown {
		h.kind = classify(h.rt)
		h.kindKnown = true
	}
	return h.kind
}

func classify(rt reflect.Type) oracle.Kind {
	if rt == uuidType {
		return oracle.UUID
	}
	if isEnum(rt) {
		return oracle.Enum
	}

	switch rt.Kind() {
	case reflect.Bool:
		return oracle.Bool
	case reflect.Int8, reflect.Uint8:
		return oracle.Int8
	case reflect.Int16, reflect.Uint16:
		return oracle.Int16
	case reflect.Int32, reflect.Uint32:
		return oracle.Int32
	case reflect.Int64, reflect.Uint64:
		return oracle.Int64
	case reflect.Float32:
		return oracle.Float32
	case reflect.Float64:
		return oracle.Float64
	case reflect.String:
		return oracle.String
	case reflect.Slice:
		return oracle.Array
	case reflect.Map:
		return oracle.Map
	case reflect.Interface:
		return oracle.Abstract
	case reflect.Struct:
		return oracle.Concrete
	}
	// int, uint, uintptr, arrays, funcs and channels have no wire shape
	return oracle.Invalid
}

// isEnum reports whether rt declares Values() returning a slice of itself
func isEnum(rt reflect.Type) bool {
	if rt.Name() == "" || rt.Kind() == reflect.Interface {
		return false
	}
	m, ok := rt.MethodByName("Values")
	if !ok {
		return false
	}
	// m.Type includes the receiver
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == reflect.SliceOf(rt)
}

func (h *handle) Elem() oracle.Type {
	switch h.rt.Kind() {
	case reflect.Slice, reflect.Map:
		return h.u.typeOf(h.rt.Elem())
	}
	return nil
}

func (h *handle) Key() oracle.Type {
	if h.rt.Kind() == reflect.Map {
		return h.u.typeOf(h.rt.Key())
	}
	return nil
}

func (h *handle) Super() oracle.Type {
	return h.u.typeOf(h.u.superOf(h.rt))
}

func (h *handle) DeclaredFields() []oracle.Field {
	if h.rt.Kind() != reflect.Struct {
		return nil
	}
	super := embeddedSuper(h.rt)

	var fields []oracle.Field
	for i := 0; i < h.rt.NumField(); i++ {
		if i == super {
			continue
		}
		sf := h.rt.Field(i)
		opts := parseTag(sf.Tag.Get("packet"))

		name := opts.name
		if name == "" {
			name = lowerCamel(sf.Name)
		}
		fields = append(fields, oracle.Field{
			Name:      name,
			Type:      h.u.typeOf(sf.Type),
			Declaring: h,
			Static:    !sf.IsExported() || opts.skip,
			Nullable:  sf.Type.Kind() == reflect.Pointer || opts.nullable,
		})
	}
	return fields
}

// Constructors returns the registered constructors, or a memberwise
// constructor over the instance fields of a struct that registered none
func (h *handle) Constructors() []oracle.Constructor {
	if ctors := h.u.ctors[h.rt]; len(ctors) > 0 {
		return ctors
	}
	if h.rt.Kind() == reflect.Struct {
		return []oracle.Constructor{newMemberwise(h)}
	}
	return nil
}

func (h *handle) EnumValues() []any {
	if !isEnum(h.rt) {
		return nil
	}
	out := reflect.Zero(h.rt).MethodByName("Values").Call(nil)[0]
	values := make([]any, out.Len())
	for i := range values {
		values[i] = out.Index(i).Interface()
	}
	return values
}

func (h *handle) Packet() (oracle.PacketConstants, bool) {
	if h.rt.Kind() != reflect.Struct {
		return oracle.PacketConstants{}, false
	}
	p, ok := reflect.New(h.rt).Interface().(PacketInfo)
	if !ok {
		return oracle.PacketConstants{}, false
	}
	return oracle.PacketConstants{
		ID:         p.PacketID(),
		MaxSize:    p.MaxSize(),
		Compressed: p.IsCompressed(),
	}, true
}

func (h *handle) Discriminant() (int, error) {
	if h.rt.Kind() == reflect.Struct {
		if d, ok := reflect.New(h.rt).Interface().(discriminated); ok {
			return d.TypeID(), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNoDiscriminant, h.Name())
}

func (h *handle) MakeList(elems []any) (any, error) {
	if h.rt.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, h.Name())
	}
	s := reflect.MakeSlice(h.rt, len(elems), len(elems))
	for i, e := range elems {
		v, err := coerce(e, h.rt.Elem())
		if err != nil {
			return nil, fmt.Errorf("element %d of %s: %w", i, h.Name(), err)
		}
		s.Index(i).Set(v)
	}
	return s.Interface(), nil
}

func (h *handle) MakeMap(entries []oracle.Entry) (any, error) {
	if h.rt.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, h.Name())
	}
	m := reflect.MakeMapWithSize(h.rt, len(entries))
	for i, e := range entries {
		k, err := coerce(e.Key, h.rt.Key())
		if err != nil {
			return nil, fmt.Errorf("key %d of %s: %w", i, h.Name(), err)
		}
		v, err := coerce(e.Value, h.rt.Elem())
		if err != nil {
			return nil, fmt.Errorf("value %d of %s: %w", i, h.Name(), err)
		}
		m.SetMapIndex(k, v)
	}
	return m.Interface(), nil
}

type constructor struct {
	u  *Universe
	fn reflect.Value
}

func (c *constructor) Params() []oracle.Type {
	ft := c.fn.Type()
	params := make([]oracle.Type, ft.NumIn())
	for i := range params {
		params[i] = c.u.typeOf(ft.In(i))
	}
	return params
}

func (c *constructor) New(args []any) (any, error) {
	ft := c.fn.Type()
	if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, ft, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := coerce(a, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, ft, err)
		}
		in[i] = v
	}
	return c.fn.Call(in)[0].Interface(), nil
}

// memberwise sets the instance fields of a struct in root-to-leaf order,
// matching the field order the importer collects
type memberwise struct {
	h     *handle
	paths [][]int
	types []reflect.Type
}

func newMemberwise(h *handle) *memberwise {
	m := &memberwise{h: h}
	m.collect(h.rt, nil)
	return m
}

func (m *memberwise) collect(rt reflect.Type, prefix []int) {
	super := embeddedSuper(rt)
	if super >= 0 {
		m.collect(deref(rt.Field(super).Type), append(append([]int(nil), prefix...), super))
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if i == super || !sf.IsExported() || parseTag(sf.Tag.Get("packet")).skip {
			continue
		}
		m.paths = append(m.paths, append(append([]int(nil), prefix...), i))
		m.types = append(m.types, sf.Type)
	}
}

func (m *memberwise) Params() []oracle.Type {
	params := make([]oracle.Type, len(m.types))
	for i, t := range m.types {
		params[i] = m.h.u.typeOf(t)
	}
	return params
}

func (m *memberwise) New(args []any) (any, error) {
	if len(args) != len(m.paths) {
		return nil, fmt.Errorf("%w: %s has %d fields, got %d", ErrArity, m.h.Name(), len(m.paths), len(args))
	}
	p := reflect.New(m.h.rt)
	for i, a := range args {
		v, err := coerce(a, m.types[i])
		if err != nil {
			return nil, fmt.Errorf("field %d of %s: %w", i, m.h.Name(), err)
		}
		f := fieldAt(p.Elem(), m.paths[i])
		if !f.CanSet() {
			return nil, fmt.Errorf("%w: field %d of %s is behind an unexported embedding", ErrCoerce, i, m.h.Name())
		}
		f.Set(v)
	}
	return p.Interface(), nil
}

// fieldAt walks an index path, allocating nil embedded pointers
func fieldAt(v reflect.Value, path []int) reflect.Value {
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// coerce converts a generated value into a value assignable to t. A nil value
// becomes the zero value of t, pointers are boxed and unboxed as needed, and
// numeric values convert between widths.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	return coerceValue(reflect.ValueOf(v), t)
}

func coerceValue(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	rt := rv.Type()
	switch {
	case rt == t:
		return rv, nil
	case t.Kind() == reflect.Interface && rt.Implements(t):
		w := reflect.New(t).Elem()
		w.Set(rv)
		return w, nil
	case rt.Kind() == reflect.Pointer:
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		return coerceValue(rv.Elem(), t)
	case t.Kind() == reflect.Pointer:
		inner, err := coerceValue(rv, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	case convertible(rt, t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrCoerce, rt, t)
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if from.Kind() == to.Kind() {
		return true
	}
	c := kindClass(from.Kind())
	return c != 0 && c == kindClass(to.Kind())
}

// kindClass groups kinds that convert without changing meaning; integer to
// string conversion is excluded
func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 1
	case reflect.Float32, reflect.Float64:
		return 2
	}
	return 0
}
