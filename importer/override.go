package importer

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// ErrBadOverride reports a malformed or misapplied override
var ErrBadOverride = errors.New("importer: invalid override")

// FieldKey identifies a field by its declaring type's root-relative name
// (see Importer.RelativeName) and its field name
type FieldKey struct {
	Type  string
	Field string
}

func (k FieldKey) String() string {
	return k.Type + "." + k.Field
}

// Override produces the node of a field in place of the inferred one
type Override func(imp *Importer, f oracle.Field) (schema.Node, error)

// term builds a node for t, the type the term describes within field f
type term func(imp *Importer, f oracle.Field, t oracle.Type) (schema.Node, error)

// ParseOverride compiles an override expression:
//
//	bool u8 u16 u32 u64 f32 f64 uuid
//	var-string[(N)]   fixed-string(N)
//	var-bytes[(N)]    fixed-bytes(N)
//	list(X[, N])      list of X, N defaults to the session bound
//	optional(X)       Optional with X's preferred mode
//	optional-fixed(X) optional-variable(X)
//	boxed(X)
//	self              the declaring type
//	inferred          the field's own type, never wrapped in Optional
//	tainted           exclude every definition holding the field
func ParseOverride(expr string) (Override, error) {
	p := &overrideParser{src: expr}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return func(imp *Importer, f oracle.Field) (schema.Node, error) {
		return t(imp, f, f.Type)
	}, nil
}

// MustParseOverride is ParseOverride for static tables. It panics on error.
func MustParseOverride(expr string) Override {
	o, err := ParseOverride(expr)
	if err != nil {
		panic(err)
	}
	return o
}

var primitiveTerms = map[string]schema.PrimitiveKind{
	"bool": schema.Bool,
	"u8":   schema.U8,
	"u16":  schema.U16,
	"u32":  schema.U32,
	"u64":  schema.U64,
	"f32":  schema.F32,
	"f64":  schema.F64,
	"uuid": schema.UUID,
}

type overrideParser struct {
	src string
	pos int
}

func (p *overrideParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrBadOverride, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *overrideParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *overrideParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *overrideParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *overrideParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' && c != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *overrideParser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected a length")
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil || n <= 0 {
		return 0, p.errorf("invalid length %q", p.src[start:p.pos])
	}
	return n, nil
}

// length parses "(N)"
func (p *overrideParser) length() (int, error) {
	if err := p.expect('('); err != nil {
		return 0, err
	}
	n, err := p.number()
	if err != nil {
		return 0, err
	}
	return n, p.expect(')')
}

func (p *overrideParser) wrapped() (term, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	inner, err := p.term()
	if err != nil {
		return nil, err
	}
	return inner, p.expect(')')
}

func (p *overrideParser) term() (term, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a codec name")
	}

	if k, ok := primitiveTerms[name]; ok {
		return func(*Importer, oracle.Field, oracle.Type) (schema.Node, error) {
			return schema.NewPrimitive(k), nil
		}, nil
	}

	switch name {
	case "self":
		return func(imp *Importer, f oracle.Field, _ oracle.Type) (schema.Node, error) {
			return imp.Import(f.Declaring)
		}, nil

	case "inferred":
		return func(imp *Importer, f oracle.Field, t oracle.Type) (schema.Node, error) {
			if t == nil {
				return nil, fmt.Errorf("%w: no type to infer for field %s", ErrBadOverride, f.Name)
			}
			return imp.Import(t)
		}, nil

	case "tainted":
		return func(_ *Importer, f oracle.Field, _ oracle.Type) (schema.Node, error) {
			return schema.Taint("field " + f.Name + " excluded by override"), nil
		}, nil

	case "var-string", "var-bytes":
		n := 0
		if p.peek() == '(' {
			var err error
			if n, err = p.length(); err != nil {
				return nil, err
			}
		}
		bytes := name == "var-bytes"
		return func(imp *Importer, _ oracle.Field, _ oracle.Type) (schema.Node, error) {
			maxLen := n
			if maxLen == 0 {
				maxLen = imp.maxVarLen
			}
			if bytes {
				return schema.VarBytes(maxLen), nil
			}
			return schema.VarString(maxLen), nil
		}, nil

	case "fixed-string", "fixed-bytes":
		n, err := p.length()
		if err != nil {
			return nil, err
		}
		if name == "fixed-bytes" {
			return func(*Importer, oracle.Field, oracle.Type) (schema.Node, error) {
				return schema.FixedBytes(n), nil
			}, nil
		}
		return func(*Importer, oracle.Field, oracle.Type) (schema.Node, error) {
			return schema.FixedString(n), nil
		}, nil

	case "list":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		elem, err := p.term()
		if err != nil {
			return nil, err
		}
		n := 0
		if p.peek() == ',' {
			p.pos++
			if n, err = p.number(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return func(imp *Importer, f oracle.Field, t oracle.Type) (schema.Node, error) {
			if t == nil || t.Kind() != oracle.Array {
				return nil, fmt.Errorf("%w: list override on non-array field %s", ErrBadOverride, f.Name)
			}
			e, err := elem(imp, f, t.Elem())
			if err != nil {
				return nil, err
			}
			maxLen := n
			if maxLen == 0 {
				maxLen = imp.maxVarLen
			}
			return schema.NewList(e, maxLen, t), nil
		}, nil

	case "optional", "optional-fixed", "optional-variable":
		inner, err := p.wrapped()
		if err != nil {
			return nil, err
		}
		return func(imp *Importer, f oracle.Field, t oracle.Type) (schema.Node, error) {
			n, err := inner(imp, f, t)
			if err != nil {
				return nil, err
			}
			switch name {
			case "optional-fixed":
				return schema.OptionalMode(n, schema.Fixed), nil
			case "optional-variable":
				return schema.OptionalMode(n, schema.Variable), nil
			}
			return schema.NewOptional(n), nil
		}, nil

	case "boxed":
		inner, err := p.wrapped()
		if err != nil {
			return nil, err
		}
		return func(imp *Importer, f oracle.Field, t oracle.Type) (schema.Node, error) {
			n, err := inner(imp, f, t)
			if err != nil {
				return nil, err
			}
			return schema.NewBoxed(n), nil
		}, nil
	}

	return nil, p.errorf("unknown codec %q", name)
}
