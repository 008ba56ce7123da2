// Package fixture generates random instances of imported types and captures
// their serialized form as round-trip test vectors.
package fixture

import (
	"fmt"
	"math/rand"
	"reflect"
	"strconv"

	"github.com/google/uuid"

	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// MaxDepth is the nesting level from which lists and maps are generated
// empty, so recursive types terminate
const MaxDepth = 8

// maxLen is the exclusive upper bound of generated collection lengths
const maxLen = 8

// Generator draws instances from a seeded random stream. The output is a pure
// function of the node, the stream state and the depth.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from rng
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a random external value of n at depth 0
func (g *Generator) Generate(n schema.Node) (any, error) {
	return g.generate(n, 0)
}

func (g *Generator) generate(n schema.Node, depth int) (any, error) {
	switch n := n.(type) {
	case *schema.Primitive:
		return g.primitive(n.Kind)

	case *schema.String:
		s := strconv.FormatInt(int64(g.rng.Uint64()), 10)
		if len(s) > n.Len {
			s = s[:n.Len]
		}
		return s, nil

	case *schema.Bytes:
		size := n.Len
		if n.Form == schema.Variable {
			size = min(g.rng.Intn(maxLen), n.Len)
		}
		b := make([]byte, size)
		g.rng.Read(b)
		return b, nil

	case *schema.List:
		elems := make([]any, g.length(depth))
		for i := range elems {
			e, err := g.generate(n.Elem, depth+1)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return n.Source.MakeList(elems)

	case *schema.Map:
		return g.dictionary(n, depth)

	case *schema.Optional:
		if g.rng.Intn(2) == 0 {
			return nil, nil
		}
		return g.generate(n.Elem, depth)

	case *schema.Boxed:
		return g.generate(n.Elem, depth)

	case *schema.Struct:
		args := make([]any, len(n.Fields))
		for i, f := range n.Fields {
			v, err := g.generate(f.Node, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", n.Name, f.Name, err)
			}
			args[i] = v
		}
		if n.Constructor == nil {
			return nil, fmt.Errorf("struct %s has no constructor", n.Name)
		}
		return n.Constructor.New(args)

	case *schema.Enum:
		if len(n.Values) == 0 {
			return nil, fmt.Errorf("enum %s has no values", n.Name)
		}
		return n.Values[g.rng.Intn(len(n.Values))], nil

	case *schema.Union:
		if len(n.Variants) == 0 {
			return nil, fmt.Errorf("%w: union %s has no variants", schema.ErrTainted, n.Name)
		}
		v := n.Variants[g.rng.Intn(len(n.Variants))]
		return g.generate(v.Struct, depth)

	case *schema.Tainted:
		return nil, fmt.Errorf("%w: %s", schema.ErrTainted, n.Reason)
	}
	return nil, fmt.Errorf("fixture: unknown node %T", n)
}

func (g *Generator) primitive(k schema.PrimitiveKind) (any, error) {
	switch k {
	case schema.Bool:
		return g.rng.Intn(2) == 1, nil
	case schema.U8:
		return uint8(g.rng.Uint32()), nil
	case schema.U16:
		return uint16(g.rng.Uint32()), nil
	case schema.U32:
		return g.rng.Uint32(), nil
	case schema.U64:
		return g.rng.Uint64(), nil
	case schema.F32:
		return g.rng.Float32(), nil
	case schema.F64:
		return g.rng.Float64(), nil
	case schema.UUID:
		return uuid.NewRandomFromReader(g.rng)
	}
	return nil, fmt.Errorf("fixture: unknown primitive %s", k)
}

func (g *Generator) length(depth int) int {
	if depth >= MaxDepth {
		return 0
	}
	return g.rng.Intn(maxLen)
}

// dictionary keeps entries in first-insertion order; a repeated key replaces
// the earlier value in place
func (g *Generator) dictionary(n *schema.Map, depth int) (any, error) {
	count := g.length(depth)
	entries := make([]oracle.Entry, 0, count)
	index := make(map[any]int, count)
	for i := 0; i < count; i++ {
		k, err := g.generate(n.Key, depth+1)
		if err != nil {
			return nil, err
		}
		v, err := g.generate(n.Value, depth+1)
		if err != nil {
			return nil, err
		}
		if k != nil && reflect.TypeOf(k).Comparable() {
			if at, ok := index[k]; ok {
				entries[at].Value = v
				continue
			}
			index[k] = len(entries)
		}
		entries = append(entries, oracle.Entry{Key: k, Value: v})
	}
	return n.Source.MakeMap(entries)
}
