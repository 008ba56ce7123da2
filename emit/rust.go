package emit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tempusfrangit/go-packetgen/schema"
)

// ErrTaintedNode is returned when rendering reaches a tainted node
var ErrTaintedNode = errors.New("emit: cannot render a tainted node")

var rustPrimitives = map[schema.PrimitiveKind]string{
	schema.Bool: "bool",
	schema.U8:   "u8",
	schema.U16:  "u16",
	schema.U32:  "u32",
	schema.U64:  "u64",
	schema.F32:  "f32",
	schema.F64:  "f64",
	schema.UUID: "Uuid",
}

// RustType renders the Rust type of a node
func RustType(n schema.Node) (string, error) {
	switch n := n.(type) {
	case *schema.Primitive:
		return rustPrimitives[n.Kind], nil
	case *schema.String:
		return "String", nil
	case *schema.Bytes:
		return "Bytes", nil
	case *schema.List:
		elem, err := RustType(n.Elem)
		if err != nil {
			return "", err
		}
		return "Vec<" + elem + ">", nil
	case *schema.Map:
		key, err := RustType(n.Key)
		if err != nil {
			return "", err
		}
		value, err := RustType(n.Value)
		if err != nil {
			return "", err
		}
		return "Dictionary<" + key + ", " + value + ">", nil
	case *schema.Optional:
		elem, err := RustType(n.Elem)
		if err != nil {
			return "", err
		}
		return "Option<" + elem + ">", nil
	case *schema.Boxed:
		elem, err := RustType(n.Elem)
		if err != nil {
			return "", err
		}
		return "Box<" + elem + ">", nil
	case *schema.Tainted:
		return "", fmt.Errorf("%w: %s", ErrTaintedNode, n.Reason)
	case schema.Named:
		return n.TypeName(), nil
	}
	return "", fmt.Errorf("emit: unknown node %T", n)
}

// RustSerializer renders the codec expression of a node
func RustSerializer(n schema.Node) (string, error) {
	switch n := n.(type) {
	case *schema.Primitive:
		return rustPrimitives[n.Kind] + "::codec()", nil
	case *schema.String:
		if n.Form == schema.Fixed {
			return fmt.Sprintf("FixedSizeStringCodec::new(%d)", n.Len), nil
		}
		return fmt.Sprintf("VarStringCodec::new(%d)", n.Len), nil
	case *schema.Bytes:
		if n.Form == schema.Fixed {
			return fmt.Sprintf("ExactByteArrayCodec::new(%d)", n.Len), nil
		}
		return fmt.Sprintf("VarByteArrayCodec::new(%d)", n.Len), nil
	case *schema.List:
		elem, err := RustSerializer(n.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("VarArrayCodec::new(%s, %d)", elem, n.MaxLen), nil
	case *schema.Map:
		key, err := RustSerializer(n.Key)
		if err != nil {
			return "", err
		}
		value, err := RustSerializer(n.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("VarDictionaryCodec::new(%s, %s, %d)", key, value, n.MaxLen), nil
	case *schema.Optional:
		elem, err := RustSerializer(n.Elem)
		if err != nil {
			return "", err
		}
		if n.Mode == schema.Fixed {
			return elem + ".nullable_fixed()", nil
		}
		return elem + ".nullable_variable()", nil
	case *schema.Boxed:
		elem, err := RustSerializer(n.Elem)
		if err != nil {
			return "", err
		}
		return "BoxCodec::new(" + elem + ")", nil
	case *schema.Tainted:
		return "", fmt.Errorf("%w: %s", ErrTaintedNode, n.Reason)
	case schema.Named:
		return n.TypeName() + "::codec()", nil
	}
	return "", fmt.Errorf("emit: unknown node %T", n)
}

var rustKeywords = map[string]bool{
	"abstract": true, "as": true, "async": true, "await": true, "become": true,
	"box": true, "break": true, "const": true, "continue": true, "crate": true,
	"do": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "final": true, "fn": true, "for": true, "gen": true,
	"if": true, "impl": true, "in": true, "let": true, "loop": true,
	"macro": true, "match": true, "mod": true, "move": true, "mut": true,
	"override": true, "priv": true, "pub": true, "ref": true, "return": true,
	"self": true, "static": true, "struct": true, "super": true, "trait": true,
	"true": true, "try": true, "type": true, "typeof": true, "unsafe": true,
	"unsized": true, "use": true, "virtual": true, "where": true, "while": true,
	"yield": true,
}

// FieldIdent converts a camelCase wire name into a Rust field identifier:
//
//	clientVersion → client_version
//	httpURLPath   → http_url_path
//	type          → type_
func FieldIdent(name string) string {
	r := []rune(name)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && (unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1]))
			nextLower := i > 0 && i+1 < len(r) && unicode.IsUpper(r[i-1]) && unicode.IsLower(r[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}

	ident := b.String()
	if rustKeywords[ident] {
		ident += "_"
	}
	return ident
}
