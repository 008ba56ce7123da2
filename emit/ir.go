package emit

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tempusfrangit/go-packetgen/schema"
)

type irDocument struct {
	Definitions []irDefinition `json:"definitions"`
}

type irDefinition struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Tainted  bool        `json:"tainted,omitempty"`
	Packet   *irPacket   `json:"packet,omitempty"`
	Mode     string      `json:"mode,omitempty"`
	Fields   []irField   `json:"fields,omitempty"`
	Variants []irVariant `json:"variants,omitempty"`
	Values   []string    `json:"values,omitempty"`
}

type irPacket struct {
	ID         int    `json:"id"`
	MaxSize    int    `json:"maxSize"`
	Compressed bool   `json:"compressed"`
	Category   string `json:"category"`
}

type irField struct {
	Name string  `json:"name"`
	Node *irNode `json:"node"`
}

type irVariant struct {
	Name         string `json:"name"`
	Discriminant int    `json:"discriminant"`
}

// irNode is one node; named nodes appear as a Ref so cycles stay finite
type irNode struct {
	Kind   string  `json:"kind"`
	Ref    string  `json:"ref,omitempty"`
	Form   string  `json:"form,omitempty"`
	Len    int     `json:"len,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Elem   *irNode `json:"elem,omitempty"`
	Key    *irNode `json:"key,omitempty"`
	Value  *irNode `json:"value,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// IRJSON dumps the definitions, tainted ones included, as an indented JSON
// document
func IRJSON(defs []schema.Definition) ([]byte, error) {
	doc := irDocument{Definitions: make([]irDefinition, 0, len(defs))}
	for _, d := range defs {
		def := irDefinition{Name: d.Root.TypeName(), Tainted: d.Tainted()}
		if d.Packet != nil {
			def.Packet = &irPacket{
				ID:         d.Packet.ID,
				MaxSize:    d.Packet.MaxSize,
				Compressed: d.Packet.Compressed,
				Category:   d.Packet.Category.String(),
			}
		}

		switch n := d.Root.(type) {
		case *schema.Struct:
			def.Kind = "struct"
			def.Mode = n.Mode.String()
			for _, f := range n.Fields {
				def.Fields = append(def.Fields, irField{Name: f.Name, Node: irOf(f.Node)})
			}
		case *schema.Enum:
			def.Kind = "enum"
			def.Values = n.Variants
		case *schema.Union:
			def.Kind = "union"
			for _, v := range n.Variants {
				def.Variants = append(def.Variants, irVariant{Name: v.Name, Discriminant: v.Discriminant})
			}
		default:
			return nil, fmt.Errorf("emit: unknown definition %T", d.Root)
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func irOf(n schema.Node) *irNode {
	switch n := n.(type) {
	case *schema.Primitive:
		return &irNode{Kind: n.Kind.String()}
	case *schema.String:
		return &irNode{Kind: "string", Form: n.Form.String(), Len: n.Len}
	case *schema.Bytes:
		return &irNode{Kind: "bytes", Form: n.Form.String(), Len: n.Len}
	case *schema.List:
		return &irNode{Kind: "list", Len: n.MaxLen, Elem: irOf(n.Elem)}
	case *schema.Map:
		return &irNode{Kind: "map", Len: n.MaxLen, Key: irOf(n.Key), Value: irOf(n.Value)}
	case *schema.Optional:
		return &irNode{Kind: "optional", Mode: n.Mode.String(), Elem: irOf(n.Elem)}
	case *schema.Boxed:
		return &irNode{Kind: "boxed", Elem: irOf(n.Elem)}
	case *schema.Tainted:
		return &irNode{Kind: "tainted", Reason: n.Reason}
	case schema.Named:
		return &irNode{Kind: "ref", Ref: n.TypeName()}
	}
	return &irNode{Kind: fmt.Sprintf("%T", n)}
}
