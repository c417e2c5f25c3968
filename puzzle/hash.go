// hash.go implements the puzzle's hash expansions: hashing byte
// preimages into polynomial coefficients, and hashing commitments into
// Fiat-Shamir challenge scalars.
package puzzle

import (
	"encoding/binary"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"golang.org/x/crypto/sha3"
)

// Domain separators for the two expansions.
const (
	polynomialDomain = "AVMCoinbasePolynomial0"
	challengeDomain  = "AVMCoinbaseChallenge0"
)

// coefficientWidth is how many SHAKE-256 bytes feed each field
// element. 384 bits against the 253-bit modulus keeps the reduction
// bias negligible.
const coefficientWidth = 48

// hashToPolynomial expands a preimage into degree+1 coefficients.
func hashToPolynomial(input []byte, degree uint32) []fr.Element {
	h := sha3.NewShake256()
	h.Write([]byte(polynomialDomain))
	h.Write(input)

	coeffs := make([]fr.Element, degree+1)
	var buf [coefficientWidth]byte
	for i := range coeffs {
		h.Read(buf[:])
		coeffs[i].SetBytes(buf[:])
	}
	return coeffs
}

// hashCommitments expands a commitment list into count challenge
// scalars. Accumulation and verification consume the final scalar as
// the evaluation point and the rest as linear-combination weights.
func hashCommitments(commitments []bls12377.G1Affine, count int) []fr.Element {
	h := sha3.NewShake256()
	h.Write([]byte(challengeDomain))
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(commitments)))
	h.Write(n[:])
	for i := range commitments {
		b := commitments[i].Bytes()
		h.Write(b[:])
	}

	out := make([]fr.Element, count)
	var buf [coefficientWidth]byte
	for i := range out {
		h.Read(buf[:])
		out[i].SetBytes(buf[:])
	}
	return out
}

// hashCommitment derives the opening point for a single commitment.
func hashCommitment(commitment *bls12377.G1Affine) fr.Element {
	return hashCommitments([]bls12377.G1Affine{*commitment}, 1)[0]
}

// evaluate computes the polynomial's value at point by Horner's rule
// over the coefficient slice, constant term first.
func evaluate(coeffs []fr.Element, point fr.Element) fr.Element {
	var acc fr.Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(&acc, &point)
		acc.Add(&acc, &coeffs[i])
	}
	return acc
}
