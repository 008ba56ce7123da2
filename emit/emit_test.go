package emit

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempusfrangit/go-packetgen/fixture"
	"github.com/tempusfrangit/go-packetgen/schema"
)

func testDefinitions() []schema.Definition {
	vec := schema.NewStruct("Vector3f", schema.Fixed, nil)
	vec.Init([]schema.Field{
		{Name: "x", Node: schema.NewPrimitive(schema.F32)},
		{Name: "y", Node: schema.NewPrimitive(schema.F32)},
		{Name: "z", Node: schema.NewPrimitive(schema.F32)},
	}, nil)

	host := schema.NewStruct("HostAddress", schema.Variable, nil)
	host.Init([]schema.Field{
		{Name: "host", Node: schema.VarString(256)},
		{Name: "port", Node: schema.NewPrimitive(schema.U16)},
	}, nil)

	clientType := schema.NewEnum("ClientType", []string{"Game", "Editor"}, []any{0, 1})

	connect := schema.NewStruct("Connect", schema.Variable, nil)
	connect.Init([]schema.Field{
		{Name: "clientVersion", Node: schema.FixedString(20)},
		{Name: "clientType", Node: clientType},
		{Name: "identityToken", Node: schema.NewOptional(schema.VarString(8192))},
		{Name: "referralSource", Node: schema.NewOptional(host)},
		{Name: "facing", Node: schema.NewOptional(vec)},
		{Name: "pinned", Node: schema.OptionalMode(vec, schema.Variable)},
	}, nil)

	entity := schema.NewStruct("EntitySelector", schema.Variable, nil)
	entity.Init([]schema.Field{{Name: "entity", Node: schema.NewPrimitive(schema.UUID)}}, nil)
	selector := schema.NewUnion("Selector")
	selector.Init([]schema.Variant{{Name: "EntitySelector", Discriminant: 0, Struct: entity}})

	broken := schema.NewStruct("Broken", schema.Variable, nil)
	broken.Init([]schema.Field{{Name: "effect", Node: schema.Taint("no variants")}}, nil)

	return []schema.Definition{
		{Packet: &schema.PacketMetadata{ID: 0, MaxSize: 38161, Category: schema.CategoryConnection}, Root: connect},
		{Root: clientType},
		{Root: host},
		{Root: vec},
		{Root: selector},
		{Root: entity},
		{Packet: &schema.PacketMetadata{ID: 90, MaxSize: 4, Category: schema.CategoryWorld}, Root: broken},
	}
}

func TestDefinitions(t *testing.T) {
	out, err := Definitions(testDefinitions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "// Code generated by packetgen. DO NOT EDIT.\n"))
	assert.Contains(t, out, "define_packets! {\n    Connect,\n}\n")
	assert.NotContains(t, out, "Broken")

	assert.Contains(t, out, `codec! {
    pub struct Connect {
        pub client_version: String
            => FixedSizeStringCodec::new(20),
        pub client_type: ClientType,
        pub identity_token: Option<String>
            => VarStringCodec::new(8192).nullable_variable(),
        pub referral_source: Option<HostAddress>,
        pub facing: Option<Vector3f>,
        pub pinned: Option<Vector3f>
            => Vector3f::codec().nullable_variable(),
    }
}

impl Packet for Connect {
    const DESCRIPTOR: &'static PacketDescriptor = &PacketDescriptor {
        name: "Connect",
        id: 0,
        is_compressed: false,
        max_size: 38161,
        category: PacketCategory::CONNECTION,
    };
}
`)

	assert.Contains(t, out, `codec! {
    pub enum ClientType {
        Game,
        Editor,
    }
}
`)

	assert.Contains(t, out, `codec! {
    pub struct Vector3f {
        @small = true;
        pub x: f32,
        pub y: f32,
        pub z: f32,
    }
}
`)

	assert.Contains(t, out, `codec! {
    pub union Selector {
        EntitySelector(EntitySelector),
    }
}
`)

	// definitions keep discovery order
	assert.Less(t, strings.Index(out, "pub struct Connect"), strings.Index(out, "pub enum ClientType"))
	assert.Less(t, strings.Index(out, "pub union Selector"), strings.Index(out, "pub struct EntitySelector"))
}

func TestTests(t *testing.T) {
	out, err := Tests([]fixture.Case{
		{Name: "Ping", PacketID: 3, Fixtures: []fixture.Fixture{
			{PacketID: 3, Bytes: []byte{0x00, 'A'}, Instance: 7},
			{PacketID: 3, Bytes: []byte{'"', '\\'}, Instance: 8},
		}},
		{Name: "Pong", PacketID: 4, Fixtures: []fixture.Fixture{
			{PacketID: 4, Bytes: nil, Instance: "x"},
		}},
	})
	require.NoError(t, err)

	header, err := templateManager.ExecuteTemplate("tests_header", nil)
	require.NoError(t, err)

	assert.Equal(t, header+`#[test]
fn roundtrip_Ping() {
    // 7
    check_round_trip(3, b"\x00A");

    // 8
    check_round_trip(3, b"\x22\x5C");
}

#[test]
fn roundtrip_Pong() {
    // x
    check_round_trip(4, b"");
}
`, out)
}

func TestRustType(t *testing.T) {
	pattern := schema.NewStruct("TagPattern", schema.Variable, nil)

	tests := []struct {
		name       string
		node       schema.Node
		ty         string
		serializer string
	}{
		{"Bool", schema.NewPrimitive(schema.Bool), "bool", "bool::codec()"},
		{"UUID", schema.NewPrimitive(schema.UUID), "Uuid", "Uuid::codec()"},
		{"VarString", schema.VarString(16), "String", "VarStringCodec::new(16)"},
		{"FixedString", schema.FixedString(64), "String", "FixedSizeStringCodec::new(64)"},
		{"VarBytes", schema.VarBytes(4096), "Bytes", "VarByteArrayCodec::new(4096)"},
		{"FixedBytes", schema.FixedBytes(8), "Bytes", "ExactByteArrayCodec::new(8)"},
		{"List", schema.NewList(schema.NewPrimitive(schema.U8), 10, nil), "Vec<u8>", "VarArrayCodec::new(u8::codec(), 10)"},
		{
			"Map",
			schema.NewMap(schema.VarString(schema.DefaultMaxVarLen), pattern, schema.DefaultMaxVarLen, nil),
			"Dictionary<String, TagPattern>",
			"VarDictionaryCodec::new(VarStringCodec::new(4096000), TagPattern::codec(), 4096000)",
		},
		{"OptionalFixed", schema.OptionalMode(schema.NewPrimitive(schema.U32), schema.Fixed), "Option<u32>", "u32::codec().nullable_fixed()"},
		{"Boxed", schema.NewOptional(schema.NewBoxed(pattern)), "Option<Box<TagPattern>>", "BoxCodec::new(TagPattern::codec()).nullable_variable()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ty, err := RustType(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.ty, ty)

			serializer, err := RustSerializer(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.serializer, serializer)
		})
	}

	t.Run("Tainted", func(t *testing.T) {
		_, err := RustType(schema.NewList(schema.Taint("gone"), 1, nil))
		assert.ErrorIs(t, err, ErrTaintedNode)
		_, err = RustSerializer(schema.Taint("gone"))
		assert.ErrorIs(t, err, ErrTaintedNode)
	})
}

func TestFieldIdent(t *testing.T) {
	tests := map[string]string{
		"clientVersion": "client_version",
		"uuid":          "uuid",
		"x":             "x",
		"phobiaModel":   "phobia_model",
		"httpURLPath":   "http_url_path",
		"ID":            "id",
		"item2Slot":     "item2_slot",
		"type":          "type_",
		"self":          "self_",
		"match":         "match_",
	}
	for in, want := range tests {
		assert.Equal(t, want, FieldIdent(in), in)
	}
}

func TestByteLiteral(t *testing.T) {
	assert.Equal(t, `b""`, ByteLiteral(nil))
	assert.Equal(t, `b"\x20!~\x7F"`, ByteLiteral([]byte(" !~\x7f")))
	assert.Equal(t, `b"\x22a\x5Cb\x0A"`, ByteLiteral([]byte("\"a\\b\n")))
	assert.Equal(t, `b"\xFF\x00"`, ByteLiteral([]byte{0xff, 0x00}))
}

func TestDebugInstance(t *testing.T) {
	type point struct {
		X     float32
		Label string
	}

	assert.Equal(t, "{X:1 Label:a}", DebugInstance(point{X: 1, Label: "a"}))
	assert.Equal(t, `{X:0 Label:a\nb}`, DebugInstance(point{Label: "a\nb"}))
	assert.NotContains(t, DebugInstance(&point{}), "0x")
	assert.Equal(t, "map[a:1 b:2]", DebugInstance(map[string]int{"b": 2, "a": 1}))

	t.Run("PointersRenderStably", func(t *testing.T) {
		type link struct {
			Next *link
			V    int
		}
		first := DebugInstance(&link{V: 1, Next: &link{V: 2}})
		second := DebugInstance(&link{V: 1, Next: &link{V: 2}})

		assert.Equal(t, first, second)
		assert.Equal(t, "<*>{Next:<*>{Next:<nil> V:2} V:1}", first)
		assert.NotContains(t, first, "0x")
	})
}

func TestIRJSON(t *testing.T) {
	pattern := schema.NewStruct("TagPattern", schema.Variable, nil)
	pattern.Init([]schema.Field{
		{Name: "not", Node: schema.NewOptional(schema.NewBoxed(pattern))},
	}, nil)
	defs := append(testDefinitions(), schema.Definition{Root: pattern})

	data, err := IRJSON(defs)
	require.NoError(t, err)

	var doc struct {
		Definitions []struct {
			Name    string `json:"name"`
			Kind    string `json:"kind"`
			Tainted bool   `json:"tainted"`
			Packet  *struct {
				ID       int    `json:"id"`
				Category string `json:"category"`
			} `json:"packet"`
			Fields []struct {
				Name string         `json:"name"`
				Node map[string]any `json:"node"`
			} `json:"fields"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Definitions, len(defs))

	connect := doc.Definitions[0]
	assert.Equal(t, "struct", connect.Kind)
	require.NotNil(t, connect.Packet)
	assert.Equal(t, "CONNECTION", connect.Packet.Category)
	assert.Equal(t, "string", connect.Fields[0].Node["kind"])
	assert.Equal(t, "fixed", connect.Fields[0].Node["form"])

	assert.Equal(t, "enum", doc.Definitions[1].Kind)
	assert.Equal(t, "union", doc.Definitions[4].Kind)
	assert.True(t, doc.Definitions[6].Tainted)

	last := doc.Definitions[len(doc.Definitions)-1]
	not := last.Fields[0].Node
	assert.Equal(t, "optional", not["kind"])
	boxed := not["elem"].(map[string]any)
	assert.Equal(t, "boxed", boxed["kind"])
	assert.Equal(t, map[string]any{"kind": "ref", "ref": "TagPattern"}, boxed["elem"])
}
