// field.go provides Field byte and bit helpers shared by the wire
// codecs and the bit-oriented BHP hashes.
package crypto

import (
	"encoding/binary"
	"errors"
)

// ErrFieldEncoding is returned when a byte string is not the canonical
// encoding of a field element.
var ErrFieldEncoding = errors.New("crypto: non-canonical field encoding")

// FieldBits is the bit capacity of a field element's canonical
// little-endian bit decomposition.
const FieldBits = 253

// FieldFromUint64 returns the field element representing v.
func FieldFromUint64(v uint64) Field {
	var f Field
	f.SetUint64(v)
	return f
}

// FieldToUint64 recovers a small integer from a field element. It fails
// when the element does not fit in 64 bits.
func FieldToUint64(f Field) (uint64, error) {
	le := FieldToBytesLE(f)
	for _, b := range le[8:] {
		if b != 0 {
			return 0, ErrFieldEncoding
		}
	}
	return binary.LittleEndian.Uint64(le[:8]), nil
}

// FieldToBytesLE returns the canonical little-endian encoding of f.
func FieldToBytesLE(f Field) [FieldBytes]byte {
	be := f.Bytes()
	var le [FieldBytes]byte
	for i := 0; i < FieldBytes; i++ {
		le[i] = be[FieldBytes-1-i]
	}
	return le
}

// FieldFromBytesLE decodes a canonical little-endian field encoding.
// Values at or above the field modulus are rejected rather than
// silently reduced.
func FieldFromBytesLE(b []byte) (Field, error) {
	var f Field
	if len(b) != FieldBytes {
		return f, ErrFieldEncoding
	}
	var be [FieldBytes]byte
	for i := 0; i < FieldBytes; i++ {
		be[i] = b[FieldBytes-1-i]
	}
	f.SetBytes(be[:])
	round := f.Bytes()
	if round != be {
		return f, ErrFieldEncoding
	}
	return f, nil
}

// FieldToBitsLE returns the little-endian bit decomposition of f,
// exactly FieldBits bits long.
func FieldToBitsLE(f Field) []bool {
	le := FieldToBytesLE(f)
	bits := make([]bool, FieldBits)
	for i := 0; i < FieldBits; i++ {
		bits[i] = (le[i/8]>>(i%8))&1 == 1
	}
	return bits
}

// BytesToBitsLE expands bytes into bits, least significant bit of each
// byte first.
func BytesToBitsLE(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, c := range b {
		for i := 0; i < 8; i++ {
			bits = append(bits, (c>>i)&1 == 1)
		}
	}
	return bits
}

// U16ToBitsLE returns the 16 little-endian bits of v.
func U16ToBitsLE(v uint16) []bool {
	bits := make([]bool, 16)
	for i := 0; i < 16; i++ {
		bits[i] = (v>>i)&1 == 1
	}
	return bits
}

// U64ToBitsLE returns the 64 little-endian bits of v.
func U64ToBitsLE(v uint64) []bool {
	bits := make([]bool, 64)
	for i := 0; i < 64; i++ {
		bits[i] = (v>>i)&1 == 1
	}
	return bits
}

// FieldsEqual reports whether two field elements are equal.
func FieldsEqual(a, b Field) bool {
	return a.Equal(&b)
}
