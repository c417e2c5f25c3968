// poseidon.go implements the protocol's sponge hashes over the base
// field, built on the Poseidon2 permutation. The three rates of the
// reference design (2, 4, 8) are kept distinct through rate-specific
// domain tags absorbed ahead of the input, so a transcript hashed at
// one rate can never collide with a transcript hashed at another.
package crypto

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/poseidon2"
)

// Rate tags. Absorbed as the first sponge element of every invocation.
const (
	psd2Tag = "AVMPoseidon2"
	psd4Tag = "AVMPoseidon4"
	psd8Tag = "AVMPoseidon8"
)

// scalarTruncationMask keeps hash-to-scalar outputs strictly below the
// subgroup order: the order is a 251-bit prime, so 250 bits always fit.
var scalarTruncationMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// sumPoseidon absorbs the rate tag followed by each input's canonical
// encoding and returns the 32-byte squeeze.
func sumPoseidon(rateTag string, inputs []Field) [FieldBytes]byte {
	h := poseidon2.NewMerkleDamgardHasher()
	tag := DomainField(rateTag)
	tb := tag.Bytes()
	h.Write(tb[:])
	for i := range inputs {
		ib := inputs[i].Bytes()
		h.Write(ib[:])
	}
	var out [FieldBytes]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashField(rateTag string, inputs []Field) Field {
	sum := sumPoseidon(rateTag, inputs)
	var f Field
	f.SetBytes(sum[:])
	return f
}

func hashScalar(rateTag string, inputs []Field) *big.Int {
	sum := sumPoseidon(rateTag, inputs)
	s := new(big.Int).SetBytes(sum[:])
	return s.And(s, scalarTruncationMask)
}

// HashPSD2 hashes the inputs at rate 2, returning a field element.
func HashPSD2(inputs ...Field) Field { return hashField(psd2Tag, inputs) }

// HashPSD4 hashes the inputs at rate 4, returning a field element.
func HashPSD4(inputs ...Field) Field { return hashField(psd4Tag, inputs) }

// HashPSD8 hashes the inputs at rate 8, returning a field element.
func HashPSD8(inputs ...Field) Field { return hashField(psd8Tag, inputs) }

// HashToScalarPSD2 hashes the inputs at rate 2 into the scalar field.
func HashToScalarPSD2(inputs ...Field) *big.Int { return hashScalar(psd2Tag, inputs) }

// HashToScalarPSD4 hashes the inputs at rate 4 into the scalar field.
func HashToScalarPSD4(inputs ...Field) *big.Int { return hashScalar(psd4Tag, inputs) }

// HashToScalarPSD8 hashes the inputs at rate 8 into the scalar field.
func HashToScalarPSD8(inputs ...Field) *big.Int { return hashScalar(psd8Tag, inputs) }

// HashManyPSD8 derives n field elements from the inputs by appending a
// squeeze counter, for callers needing a keystream of field elements.
func HashManyPSD8(inputs []Field, n int) []Field {
	out := make([]Field, n)
	buf := make([]Field, len(inputs)+1)
	copy(buf, inputs)
	for i := 0; i < n; i++ {
		buf[len(buf)-1] = FieldFromUint64(uint64(i))
		out[i] = hashField(psd8Tag, buf)
	}
	return out
}
