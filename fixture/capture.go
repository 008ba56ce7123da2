package fixture

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tempusfrangit/go-packetgen/importer"
	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// Fixture counts per packet
const (
	DefaultCount  = 10
	ThoroughCount = 100
)

// ErrRoundTrip is returned when a captured fixture does not survive the
// model's own decode and re-encode
var ErrRoundTrip = errors.New("fixture: re-encoded bytes differ from the capture")

// Fixture is one captured instance and the bytes the model encoded it to
type Fixture struct {
	PacketID int
	Bytes    []byte
	Instance any
}

// Case groups the fixtures of one packet
type Case struct {
	Name     string
	PacketID int
	Fixtures []Fixture
}

// Capture generates count fixtures for every non-tainted root, in root order.
// All roots draw from the same generator. Every fixture is decoded and
// re-encoded through the oracle and must reproduce its bytes.
func Capture(o oracle.Oracle, g *Generator, roots []importer.Root, count int) ([]Case, error) {
	var cases []Case
	for _, root := range roots {
		if schema.IsTainted(root.Node) {
			continue
		}

		c := Case{Name: root.Node.TypeName(), PacketID: root.Packet.ID}
		for i := 0; i < count; i++ {
			instance, err := g.Generate(root.Node)
			if err != nil {
				return nil, fmt.Errorf("generate %s fixture %d: %w", c.Name, i, err)
			}
			data, err := o.Serialize(instance)
			if err != nil {
				return nil, fmt.Errorf("serialize %s fixture %d: %w", c.Name, i, err)
			}
			if err := roundTrip(o, root.Type, data); err != nil {
				return nil, fmt.Errorf("%s fixture %d: %w", c.Name, i, err)
			}
			c.Fixtures = append(c.Fixtures, Fixture{PacketID: root.Packet.ID, Bytes: data, Instance: instance})
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func roundTrip(o oracle.Oracle, t oracle.Type, data []byte) error {
	decoded, err := o.Deserialize(t, data)
	if err != nil {
		return err
	}
	again, err := o.Serialize(decoded)
	if err != nil {
		return err
	}
	if !bytes.Equal(data, again) {
		return fmt.Errorf("%w: % x != % x", ErrRoundTrip, data, again)
	}
	return nil
}
