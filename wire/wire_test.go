package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestEncoder(t *testing.T) {
	encoder := NewEncoder(make([]byte, 0, 16))

	t.Run("EncodeUint16", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeUint16(0x1234)

		expected := []byte{0x34, 0x12}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})

	t.Run("EncodeUint32", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeUint32(0x12345678)

		expected := []byte{0x78, 0x56, 0x34, 0x12}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})

	t.Run("EncodeUint64", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeUint64(0x123456789ABCDEF0)

		expected := []byte{0xF0, 0xDE, 0xBC, 0x9A, 0x78, 0x56, 0x34, 0x12}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})

	t.Run("EncodeBool", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeBool(true)
		encoder.EncodeBool(false)

		expected := []byte{0x01, 0x00}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})

	t.Run("EncodeFloat32", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeFloat32(1.0)

		expected := []byte{0x00, 0x00, 0x80, 0x3F}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})

	t.Run("EncodeVarInt", func(t *testing.T) {
		tests := []struct {
			value    uint32
			expected []byte
		}{
			{0, []byte{0x00}},
			{127, []byte{0x7F}},
			{128, []byte{0x80, 0x01}},
			{300, []byte{0xAC, 0x02}},
			{0xFFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		}
		for _, tt := range tests {
			encoder.Reset(nil)
			encoder.EncodeVarInt(tt.value)
			if !bytes.Equal(encoder.Bytes(), tt.expected) {
				t.Errorf("EncodeVarInt(%d): expected %v, got %v", tt.value, tt.expected, encoder.Bytes())
			}
		}
	})

	t.Run("EncodeVarString", func(t *testing.T) {
		encoder.Reset(nil)
		if err := encoder.EncodeVarString("hi", 16); err != nil {
			t.Fatalf("EncodeVarString failed: %v", err)
		}

		expected := []byte{0x02, 'h', 'i'}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}

		if err := encoder.EncodeVarString("too long", 4); !errors.Is(err, ErrTooLong) {
			t.Errorf("Expected ErrTooLong, got %v", err)
		}
	})

	t.Run("EncodeFixedString", func(t *testing.T) {
		encoder.Reset(nil)
		if err := encoder.EncodeFixedString("ab", 4); err != nil {
			t.Fatalf("EncodeFixedString failed: %v", err)
		}

		expected := []byte{'a', 'b', 0, 0}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}

		if err := encoder.EncodeFixedString("abcde", 4); !errors.Is(err, ErrTooLong) {
			t.Errorf("Expected ErrTooLong, got %v", err)
		}
	})

	t.Run("EncodeNullBits", func(t *testing.T) {
		encoder.Reset(nil)
		encoder.EncodeNullBits(true, false, true, false, false, false, false, false, true)

		expected := []byte{0x05, 0x01}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("Expected %v, got %v", expected, encoder.Bytes())
		}
	})
}

func TestRoundTrip(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")

	enc := NewEncoder(nil)
	enc.EncodeUint8(7)
	enc.EncodeUint16(65535)
	enc.EncodeUint32(42)
	enc.EncodeUint64(1 << 40)
	enc.EncodeFloat64(2.5)
	enc.EncodeUUID(id)
	enc.EncodeVarInt(1 << 20)
	enc.EncodeNullBits(false, true)
	if err := enc.EncodeVarBytes([]byte{1, 2, 3}, 8); err != nil {
		t.Fatalf("EncodeVarBytes failed: %v", err)
	}
	if err := enc.EncodeFixedString("name", 8); err != nil {
		t.Fatalf("EncodeFixedString failed: %v", err)
	}

	dec := NewDecoder(enc.Bytes())

	if v, err := dec.DecodeUint8(); err != nil || v != 7 {
		t.Fatalf("DecodeUint8: got %d, %v", v, err)
	}
	if v, err := dec.DecodeUint16(); err != nil || v != 65535 {
		t.Fatalf("DecodeUint16: got %d, %v", v, err)
	}
	if v, err := dec.DecodeUint32(); err != nil || v != 42 {
		t.Fatalf("DecodeUint32: got %d, %v", v, err)
	}
	if v, err := dec.DecodeUint64(); err != nil || v != 1<<40 {
		t.Fatalf("DecodeUint64: got %d, %v", v, err)
	}
	if v, err := dec.DecodeFloat64(); err != nil || v != 2.5 {
		t.Fatalf("DecodeFloat64: got %v, %v", v, err)
	}
	if v, err := dec.DecodeUUID(); err != nil || v != id {
		t.Fatalf("DecodeUUID: got %v, %v", v, err)
	}
	if v, err := dec.DecodeVarInt(); err != nil || v != 1<<20 {
		t.Fatalf("DecodeVarInt: got %d, %v", v, err)
	}
	if v, err := dec.DecodeNullBits(2); err != nil || v[0] || !v[1] {
		t.Fatalf("DecodeNullBits: got %v, %v", v, err)
	}
	if v, err := dec.DecodeVarBytes(8); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("DecodeVarBytes: got %v, %v", v, err)
	}
	if v, err := dec.DecodeFixedString(8); err != nil || v != "name" {
		t.Fatalf("DecodeFixedString: got %q, %v", v, err)
	}
	if dec.Remaining() != 0 {
		t.Errorf("Expected no remaining bytes, got %d", dec.Remaining())
	}
}

func TestDecoderErrors(t *testing.T) {
	t.Run("UnexpectedEOF", func(t *testing.T) {
		dec := NewDecoder([]byte{0x01, 0x02})
		if _, err := dec.DecodeUint32(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("Expected ErrUnexpectedEOF, got %v", err)
		}
	})

	t.Run("InvalidBool", func(t *testing.T) {
		dec := NewDecoder([]byte{0x02})
		if _, err := dec.DecodeBool(); !errors.Is(err, ErrInvalidData) {
			t.Errorf("Expected ErrInvalidData, got %v", err)
		}
	})

	t.Run("OverlongVarInt", func(t *testing.T) {
		dec := NewDecoder([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
		if _, err := dec.DecodeVarInt(); !errors.Is(err, ErrInvalidData) {
			t.Errorf("Expected ErrInvalidData, got %v", err)
		}
	})

	t.Run("VarBytesTooLong", func(t *testing.T) {
		dec := NewDecoder([]byte{0x05, 1, 2, 3, 4, 5})
		if _, err := dec.DecodeVarBytes(4); !errors.Is(err, ErrTooLong) {
			t.Errorf("Expected ErrTooLong, got %v", err)
		}
	})
}
