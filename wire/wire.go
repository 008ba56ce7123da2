// Package wire implements the little-endian packet encoding used by the
// example protocol model. It is the "external encoder" whose output the
// generator captures as golden fixtures.
package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
)

// Wire errors
var (
	ErrTooLong       = errors.New("value exceeds maximum length")
	ErrInvalidData   = errors.New("invalid packet data")
	ErrUnexpectedEOF = errors.New("unexpected end of data")
)

// Encoder appends packet data to a growable buffer
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder appending to buf
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf[:0]}
}

// Bytes returns the encoded data
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset resets the encoder to use a new buffer
func (e *Encoder) Reset(buf []byte) {
	e.buf = buf[:0]
}

// EncodeBool encodes a boolean as a single byte
func (e *Encoder) EncodeBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// EncodeUint8 encodes an 8-bit unsigned integer
func (e *Encoder) EncodeUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// EncodeUint16 encodes a 16-bit unsigned integer
func (e *Encoder) EncodeUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// EncodeUint32 encodes a 32-bit unsigned integer
func (e *Encoder) EncodeUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// EncodeUint64 encodes a 64-bit unsigned integer
func (e *Encoder) EncodeUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// EncodeFloat32 encodes an IEEE 754 single precision float
func (e *Encoder) EncodeFloat32(v float32) {
	e.EncodeUint32(math.Float32bits(v))
}

// EncodeFloat64 encodes an IEEE 754 double precision float
func (e *Encoder) EncodeFloat64(v float64) {
	e.EncodeUint64(math.Float64bits(v))
}

// EncodeVarInt encodes an unsigned LEB128 integer
func (e *Encoder) EncodeVarInt(v uint32) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// EncodeUUID encodes a UUID as its high and low halves, each little-endian
func (e *Encoder) EncodeUUID(v uuid.UUID) {
	e.EncodeUint64(binary.BigEndian.Uint64(v[:8]))
	e.EncodeUint64(binary.BigEndian.Uint64(v[8:]))
}

// EncodeVarBytes encodes a length-prefixed byte array of at most maxLen bytes
func (e *Encoder) EncodeVarBytes(v []byte, maxLen int) error {
	if len(v) > maxLen {
		return ErrTooLong
	}
	e.EncodeVarInt(uint32(len(v)))
	e.buf = append(e.buf, v...)
	return nil
}

// EncodeFixedBytes encodes exactly size bytes, zero padding short input
func (e *Encoder) EncodeFixedBytes(v []byte, size int) error {
	if len(v) > size {
		return ErrTooLong
	}
	e.buf = append(e.buf, v...)
	for i := len(v); i < size; i++ {
		e.buf = append(e.buf, 0)
	}
	return nil
}

// EncodeVarString encodes a length-prefixed string of at most maxLen bytes
func (e *Encoder) EncodeVarString(v string, maxLen int) error {
	return e.EncodeVarBytes([]byte(v), maxLen)
}

// EncodeFixedString encodes a zero padded string of exactly size bytes
func (e *Encoder) EncodeFixedString(v string, size int) error {
	return e.EncodeFixedBytes([]byte(v), size)
}

// EncodeCount encodes a collection length prefix of at most maxLen
func (e *Encoder) EncodeCount(n, maxLen int) error {
	if n > maxLen {
		return ErrTooLong
	}
	e.EncodeVarInt(uint32(n))
	return nil
}

// EncodeNullBits encodes one presence bit per optional field, packed LSB first
func (e *Encoder) EncodeNullBits(present ...bool) {
	bits := make([]byte, (len(present)+7)/8)
	for i, p := range present {
		if p {
			bits[i/8] |= 1 << (i % 8)
		}
	}
	e.buf = append(e.buf, bits...)
}

// Decoder provides methods for decoding packet data
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder over the provided data
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of bytes remaining to be decoded
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Position returns the current decode position
func (d *Decoder) Position() int {
	return d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// DecodeBool decodes a single byte boolean
func (d *Decoder) DecodeBool() (bool, error) {
	v, err := d.DecodeUint8()
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, ErrInvalidData
	}
	return v == 1, nil
}

// DecodeUint8 decodes an 8-bit unsigned integer
func (d *Decoder) DecodeUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// DecodeUint16 decodes a 16-bit unsigned integer
func (d *Decoder) DecodeUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// DecodeUint32 decodes a 32-bit unsigned integer
func (d *Decoder) DecodeUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeUint64 decodes a 64-bit unsigned integer
func (d *Decoder) DecodeUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// DecodeFloat32 decodes an IEEE 754 single precision float
func (d *Decoder) DecodeFloat32() (float32, error) {
	v, err := d.DecodeUint32()
	return math.Float32frombits(v), err
}

// DecodeFloat64 decodes an IEEE 754 double precision float
func (d *Decoder) DecodeFloat64() (float64, error) {
	v, err := d.DecodeUint64()
	return math.Float64frombits(v), err
}

// DecodeVarInt decodes an unsigned LEB128 integer of at most five bytes
func (d *Decoder) DecodeVarInt() (uint32, error) {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		b, err := d.DecodeUint8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
	}
	return 0, ErrInvalidData
}

// DecodeUUID decodes a UUID written by EncodeUUID
func (d *Decoder) DecodeUUID() (uuid.UUID, error) {
	var v uuid.UUID
	hi, err := d.DecodeUint64()
	if err != nil {
		return v, err
	}
	lo, err := d.DecodeUint64()
	if err != nil {
		return v, err
	}
	binary.BigEndian.PutUint64(v[:8], hi)
	binary.BigEndian.PutUint64(v[8:], lo)
	return v, nil
}

// DecodeVarBytes decodes a length-prefixed byte array of at most maxLen bytes
func (d *Decoder) DecodeVarBytes(maxLen int) ([]byte, error) {
	n, err := d.DecodeVarInt()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(maxLen) {
		return nil, ErrTooLong
	}
	return d.DecodeFixedBytes(int(n))
}

// DecodeFixedBytes decodes exactly size bytes into a fresh slice
func (d *Decoder) DecodeFixedBytes(size int) ([]byte, error) {
	b, err := d.take(size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}

// DecodeVarString decodes a length-prefixed string
func (d *Decoder) DecodeVarString(maxLen int) (string, error) {
	b, err := d.DecodeVarBytes(maxLen)
	return string(b), err
}

// DecodeFixedString decodes a zero padded string of exactly size bytes
func (d *Decoder) DecodeFixedString(size int) (string, error) {
	b, err := d.take(size)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// DecodeCount decodes a collection length prefix of at most maxLen
func (d *Decoder) DecodeCount(maxLen int) (int, error) {
	n, err := d.DecodeVarInt()
	if err != nil {
		return 0, err
	}
	if int64(n) > int64(maxLen) {
		return 0, ErrTooLong
	}
	return int(n), nil
}

// DecodeNullBits decodes count presence bits written by EncodeNullBits
func (d *Decoder) DecodeNullBits(count int) ([]bool, error) {
	b, err := d.take((count + 7) / 8)
	if err != nil {
		return nil, err
	}
	present := make([]bool, count)
	for i := range present {
		present[i] = b[i/8]&(1<<(i%8)) != 0
	}
	return present, nil
}
