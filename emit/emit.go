// Package emit renders the codec IR as Rust source for the target codec
// library: codec! declarations, the packet list and packet descriptors, and
// round-trip tests over captured fixtures.
//
// Rendering is pure; tainted definitions are skipped.
package emit

import (
	"fmt"
	"strings"

	"github.com/tempusfrangit/go-packetgen/fixture"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// Definitions renders packets.rs
func Definitions(defs []schema.Definition) (string, error) {
	var b strings.Builder

	header, err := templateManager.ExecuteTemplate("defs_header", nil)
	if err != nil {
		return "", err
	}
	b.WriteString(header)

	var packets []string
	for _, d := range defs {
		if d.Packet != nil && !d.Tainted() {
			packets = append(packets, d.Root.TypeName())
		}
	}
	list, err := templateManager.ExecuteTemplate("define_packets", packets)
	if err != nil {
		return "", err
	}
	b.WriteString(list)

	for _, d := range defs {
		if d.Tainted() {
			continue
		}
		block, err := definition(d)
		if err != nil {
			return "", fmt.Errorf("definition %s: %w", d.Root.TypeName(), err)
		}
		b.WriteString("\n")
		b.WriteString(block)
	}
	return b.String(), nil
}

func definition(d schema.Definition) (string, error) {
	var block string
	var err error
	switch n := d.Root.(type) {
	case *schema.Struct:
		block, err = structBlock(n)
	case *schema.Enum:
		block, err = templateManager.ExecuteTemplate("enum", enumData{Name: n.Name, Variants: n.Variants})
	case *schema.Union:
		block, err = unionBlock(n)
	default:
		return "", fmt.Errorf("emit: unknown definition %T", d.Root)
	}
	if err != nil || d.Packet == nil {
		return block, err
	}

	descriptor, err := templateManager.ExecuteTemplate("packet", packetData{
		Name:       d.Root.TypeName(),
		ID:         d.Packet.ID,
		Compressed: d.Packet.Compressed,
		MaxSize:    d.Packet.MaxSize,
		Category:   d.Packet.Category.String(),
	})
	if err != nil {
		return "", err
	}
	return block + "\n" + descriptor, nil
}

func structBlock(s *schema.Struct) (string, error) {
	data := structData{Name: s.Name, Small: s.Mode == schema.Fixed}
	for _, f := range s.Fields {
		ty, err := RustType(f.Node)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		fd := fieldData{Ident: FieldIdent(f.Name), Type: ty}
		if !f.Node.DefaultSerializer() {
			if fd.Serializer, err = RustSerializer(f.Node); err != nil {
				return "", fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		data.Fields = append(data.Fields, fd)
	}
	return templateManager.ExecuteTemplate("struct", data)
}

func unionBlock(u *schema.Union) (string, error) {
	data := unionData{Name: u.Name}
	for _, v := range u.Variants {
		data.Variants = append(data.Variants, variantData{Name: v.Name, Type: v.Struct.TypeName()})
	}
	return templateManager.ExecuteTemplate("union", data)
}

// Tests renders tests.rs, one test function per case
func Tests(cases []fixture.Case) (string, error) {
	var b strings.Builder

	header, err := templateManager.ExecuteTemplate("tests_header", nil)
	if err != nil {
		return "", err
	}
	b.WriteString(header)

	for i, c := range cases {
		data := caseData{Name: c.Name}
		for _, f := range c.Fixtures {
			data.Fixtures = append(data.Fixtures, fixtureData{
				PacketID: f.PacketID,
				Debug:    DebugInstance(f.Instance),
				Literal:  ByteLiteral(f.Bytes),
			})
		}
		out, err := templateManager.ExecuteTemplate("test_case", data)
		if err != nil {
			return "", fmt.Errorf("test case %s: %w", c.Name, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(out)
	}
	return b.String(), nil
}
