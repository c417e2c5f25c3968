// scalar.go implements arithmetic in the scalar field of the Edwards
// subgroup. Scalars are carried as *big.Int values, always reduced
// modulo the subgroup order; every helper returns a fresh value and
// never mutates its arguments.
package crypto

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

// ScalarBytes is the wire size of a scalar encoding.
const ScalarBytes = 32

// ErrScalarNotInvertible is returned when inverting the zero scalar.
var ErrScalarNotInvertible = errors.New("crypto: scalar is not invertible")

// ScalarOrder returns the order of the prime-order subgroup as a fresh
// big integer.
func ScalarOrder() *big.Int {
	return new(big.Int).Set(&edwards().Order)
}

// NewScalar returns the scalar representing v.
func NewScalar(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ScalarAdd returns a + b mod the subgroup order.
func ScalarAdd(a, b *big.Int) *big.Int {
	s := new(big.Int).Add(a, b)
	return s.Mod(s, &edwards().Order)
}

// ScalarSub returns a - b mod the subgroup order.
func ScalarSub(a, b *big.Int) *big.Int {
	s := new(big.Int).Sub(a, b)
	return s.Mod(s, &edwards().Order)
}

// ScalarMul returns a * b mod the subgroup order.
func ScalarMul(a, b *big.Int) *big.Int {
	s := new(big.Int).Mul(a, b)
	return s.Mod(s, &edwards().Order)
}

// ScalarNeg returns -a mod the subgroup order.
func ScalarNeg(a *big.Int) *big.Int {
	s := new(big.Int).Neg(a)
	return s.Mod(s, &edwards().Order)
}

// ScalarInverse returns a^-1 mod the subgroup order.
func ScalarInverse(a *big.Int) (*big.Int, error) {
	if a.Sign() == 0 {
		return nil, ErrScalarNotInvertible
	}
	return new(big.Int).ModInverse(a, &edwards().Order), nil
}

// RandomScalar samples a uniform nonzero scalar from r. A nil reader
// uses the system CSPRNG.
func RandomScalar(r io.Reader) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	for {
		s, err := rand.Int(r, &edwards().Order)
		if err != nil {
			return nil, err
		}
		if s.Sign() != 0 {
			return s, nil
		}
	}
}

// ScalarToBytesLE returns the fixed-size little-endian encoding of s.
func ScalarToBytesLE(s *big.Int) [ScalarBytes]byte {
	var out [ScalarBytes]byte
	b := s.Bytes() // big-endian, minimal
	for i := 0; i < len(b); i++ {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// ScalarFromBytesLE decodes a little-endian scalar encoding, rejecting
// values at or above the subgroup order.
func ScalarFromBytesLE(b []byte) (*big.Int, error) {
	if len(b) != ScalarBytes {
		return nil, errors.New("crypto: bad scalar encoding length")
	}
	be := make([]byte, ScalarBytes)
	for i := 0; i < ScalarBytes; i++ {
		be[i] = b[ScalarBytes-1-i]
	}
	s := new(big.Int).SetBytes(be)
	if s.Cmp(&edwards().Order) >= 0 {
		return nil, errors.New("crypto: scalar exceeds subgroup order")
	}
	return s, nil
}

// ScalarToField lifts a scalar into the base field. The subgroup order
// is below the field modulus, so the lift is exact.
func ScalarToField(s *big.Int) Field {
	var f Field
	f.SetBigInt(s)
	return f
}
