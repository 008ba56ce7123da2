package wire

import (
	"bytes"
	"errors"
	"testing"
)

// testPoint implements the Serializer interface for testing
type testPoint struct {
	X, Y float32
}

func (p testPoint) Serialize(enc *Encoder) error {
	enc.EncodeFloat32(p.X)
	enc.EncodeFloat32(p.Y)
	return nil
}

func (p *testPoint) Deserialize(dec *Decoder) error {
	var err error
	if p.X, err = dec.DecodeFloat32(); err != nil {
		return err
	}
	p.Y, err = dec.DecodeFloat32()
	return err
}

// Compile-time assertions that testPoint implements both directions
var (
	_ Serializer   = testPoint{}
	_ Deserializer = (*testPoint)(nil)
)

type failingSerializer struct{}

func (failingSerializer) Serialize(enc *Encoder) error {
	return ErrTooLong
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(testPoint{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 8 {
		t.Fatalf("Expected 8 bytes, got %d", len(data))
	}

	expected := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0x40}
	if !bytes.Equal(data, expected) {
		t.Errorf("Expected %v, got %v", expected, data)
	}

	if _, err := Marshal(failingSerializer{}); !errors.Is(err, ErrTooLong) {
		t.Errorf("Expected wrapped ErrTooLong, got %v", err)
	}
}

func TestEncodeList(t *testing.T) {
	enc := NewEncoder(nil)
	list := []testPoint{{X: 1}, {Y: 1}}
	if err := EncodeList(enc, list, 8, Element[testPoint]); err != nil {
		t.Fatalf("EncodeList failed: %v", err)
	}
	if enc.Len() != 1+2*8 {
		t.Errorf("Expected %d bytes, got %d", 1+2*8, enc.Len())
	}

	enc.Reset(nil)
	if err := EncodeList(enc, list, 1, Element[testPoint]); !errors.Is(err, ErrTooLong) {
		t.Errorf("Expected ErrTooLong, got %v", err)
	}
}

func TestEncodeMapIsOrdered(t *testing.T) {
	m := map[int32]bool{3: true, 1: false, 2: true}
	encodeKey := func(enc *Encoder, k int32) error {
		enc.EncodeUint32(uint32(k))
		return nil
	}
	encodeValue := func(enc *Encoder, v bool) error {
		enc.EncodeBool(v)
		return nil
	}

	var first []byte
	for i := 0; i < 20; i++ {
		enc := NewEncoder(nil)
		if err := EncodeMap(enc, m, 16, encodeKey, encodeValue); err != nil {
			t.Fatalf("EncodeMap failed: %v", err)
		}
		if first == nil {
			first = enc.Bytes()
			continue
		}
		if !bytes.Equal(first, enc.Bytes()) {
			t.Fatalf("EncodeMap output depends on iteration order: %v vs %v", first, enc.Bytes())
		}
	}

	expected := []byte{0x03, 1, 0, 0, 0, 0, 2, 0, 0, 0, 1, 3, 0, 0, 0, 1}
	if !bytes.Equal(first, expected) {
		t.Errorf("Expected %v, got %v", expected, first)
	}
}

func TestUnmarshal(t *testing.T) {
	data, err := Marshal(testPoint{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var p testPoint
	if err := Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p != (testPoint{X: 1, Y: 2}) {
		t.Errorf("Expected {1 2}, got %+v", p)
	}

	if err := Unmarshal(append(data, 0), &p); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData for trailing bytes, got %v", err)
	}
	if err := Unmarshal(data[:5], &p); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("Expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeList(t *testing.T) {
	enc := NewEncoder(nil)
	list := []testPoint{{X: 1}, {Y: 1}}
	if err := EncodeList(enc, list, 8, Element[testPoint]); err != nil {
		t.Fatalf("EncodeList failed: %v", err)
	}

	got, err := DecodeList(NewDecoder(enc.Bytes()), 8, Decode[testPoint])
	if err != nil {
		t.Fatalf("DecodeList failed: %v", err)
	}
	if len(got) != 2 || got[0] != list[0] || got[1] != list[1] {
		t.Errorf("Expected %v, got %v", list, got)
	}

	if _, err := DecodeList(NewDecoder(enc.Bytes()), 1, Decode[testPoint]); !errors.Is(err, ErrTooLong) {
		t.Errorf("Expected ErrTooLong, got %v", err)
	}
}

func TestDecodeMap(t *testing.T) {
	decodeKey := func(dec *Decoder) (int32, error) {
		v, err := dec.DecodeUint32()
		return int32(v), err
	}

	m := map[int32]bool{3: true, 1: false}
	enc := NewEncoder(nil)
	err := EncodeMap(enc, m, 16,
		func(enc *Encoder, k int32) error { enc.EncodeUint32(uint32(k)); return nil },
		func(enc *Encoder, v bool) error { enc.EncodeBool(v); return nil })
	if err != nil {
		t.Fatalf("EncodeMap failed: %v", err)
	}

	got, err := DecodeMap(NewDecoder(enc.Bytes()), 16, decodeKey, (*Decoder).DecodeBool)
	if err != nil {
		t.Fatalf("DecodeMap failed: %v", err)
	}
	if len(got) != 2 || got[1] || !got[3] {
		t.Errorf("Expected %v, got %v", m, got)
	}

	duplicate := []byte{0x02, 1, 0, 0, 0, 1, 1, 0, 0, 0, 0}
	if _, err := DecodeMap(NewDecoder(duplicate), 16, decodeKey, (*Decoder).DecodeBool); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData for a duplicate key, got %v", err)
	}
}
