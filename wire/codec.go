package wire

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Serializer is implemented by every packet and data type of a protocol model
type Serializer interface {
	// Serialize appends the value's wire form to the encoder
	Serialize(enc *Encoder) error
}

// Marshal encodes a serializer into a fresh byte slice
func Marshal(s Serializer) ([]byte, error) {
	enc := NewEncoder(make([]byte, 0, 64))

	if err := s.Serialize(enc); err != nil {
		return nil, fmt.Errorf("packet encoding failed: %w", err)
	}

	result := make([]byte, enc.Len())
	copy(result, enc.Bytes())
	return result, nil
}

// EncodeList encodes a count-prefixed list using encodeElem for each element
func EncodeList[T any](enc *Encoder, list []T, maxLen int, encodeElem func(*Encoder, T) error) error {
	if err := enc.EncodeCount(len(list), maxLen); err != nil {
		return err
	}
	for i, elem := range list {
		if err := encodeElem(enc, elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EncodeMap encodes a count-prefixed dictionary in ascending key order so the
// output does not depend on Go map iteration order
func EncodeMap[K cmp.Ordered, V any](enc *Encoder, m map[K]V, maxLen int, encodeKey func(*Encoder, K) error, encodeValue func(*Encoder, V) error) error {
	if err := enc.EncodeCount(len(m), maxLen); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if err := encodeKey(enc, k); err != nil {
			return fmt.Errorf("key %v: %w", k, err)
		}
		if err := encodeValue(enc, m[k]); err != nil {
			return fmt.Errorf("value for key %v: %w", k, err)
		}
	}
	return nil
}

// Element adapts a Serializer method into an element encoder for EncodeList
// and EncodeMap
func Element[T Serializer](enc *Encoder, v T) error {
	return v.Serialize(enc)
}

// Deserializer is implemented by the pointer types of a protocol model that
// can read their own wire form back
type Deserializer interface {
	// Deserialize reads the value's wire form from the decoder
	Deserialize(dec *Decoder) error
}

// Unmarshal decodes data into d. Trailing bytes are an error.
func Unmarshal(data []byte, d Deserializer) error {
	dec := NewDecoder(data)

	if err := d.Deserialize(dec); err != nil {
		return fmt.Errorf("packet decoding failed: %w", err)
	}
	if dec.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, dec.Remaining())
	}
	return nil
}

// DecodeList decodes a count-prefixed list written by EncodeList
func DecodeList[T any](dec *Decoder, maxLen int, decodeElem func(*Decoder) (T, error)) ([]T, error) {
	n, err := dec.DecodeCount(maxLen)
	if err != nil {
		return nil, err
	}
	list := make([]T, n)
	for i := range list {
		if list[i], err = decodeElem(dec); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return list, nil
}

// DecodeMap decodes a count-prefixed dictionary written by EncodeMap.
// Duplicate keys are invalid.
func DecodeMap[K comparable, V any](dec *Decoder, maxLen int, decodeKey func(*Decoder) (K, error), decodeValue func(*Decoder) (V, error)) (map[K]V, error) {
	n, err := dec.DecodeCount(maxLen)
	if err != nil {
		return nil, err
	}
	m := make(map[K]V, n)
	for i := 0; i < n; i++ {
		k, err := decodeKey(dec)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if _, dup := m[k]; dup {
			return nil, fmt.Errorf("%w: duplicate key %v", ErrInvalidData, k)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("value for key %v: %w", k, err)
		}
		m[k] = v
	}
	return m, nil
}

// Decode adapts a Deserialize method into an element decoder for DecodeList
// and DecodeMap
func Decode[T any, PT interface {
	*T
	Deserializer
}](dec *Decoder) (T, error) {
	var v T
	err := PT(&v).Deserialize(dec)
	return v, err
}
