// Package puzzle implements the KZG-based coinbase puzzle: provers
// commit to a polynomial derived from an epoch challenge, their
// address, and a nonce, then open the product of that polynomial with
// the epoch polynomial at a point derived from the commitment.
// Solutions whose commitment hashes to a value meeting the proof
// target can be accumulated, many provers at a time, into a single
// aggregate opening verified against a coinbase target.
//
// The scheme commits to the product of two degree-n polynomials, so
// every evaluation domain in this package has next_power_of_two(2n+1)
// elements.
package puzzle

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/holiman/uint256"

	"github.com/avmlabs/go-avm/account"
)

// MaxProverSolutions bounds how many prover solutions one coinbase
// solution may combine.
const MaxProverSolutions = 1 << 20

var (
	// ErrEmptySolution is returned when a solution set contains no
	// prover solutions.
	ErrEmptySolution = errors.New("puzzle: no prover solutions")

	// ErrTooManySolutions is returned when a solution set exceeds
	// MaxProverSolutions.
	ErrTooManySolutions = errors.New("puzzle: too many prover solutions")

	// ErrDuplicateSolution is returned when a solution set contains
	// the same commitment twice.
	ErrDuplicateSolution = errors.New("puzzle: duplicate prover solution")

	// ErrHidingProof is returned when a proof carries a hiding scalar;
	// this engine only produces and accepts non-hiding proofs.
	ErrHidingProof = errors.New("puzzle: proof is hiding")

	// ErrProofTarget is returned when a solution's target falls below
	// the required proof target.
	ErrProofTarget = errors.New("puzzle: proof target not met")

	// ErrCoinbaseTarget is returned when the cumulative target of a
	// coinbase solution falls below the coinbase target.
	ErrCoinbaseTarget = errors.New("puzzle: cumulative proof target below coinbase target")

	// ErrDegree is returned for degree mismatches between an epoch
	// challenge and a trimmed key, or a degree of zero.
	ErrDegree = errors.New("puzzle: invalid degree")

	// ErrEncoding is returned for a malformed solution encoding.
	ErrEncoding = errors.New("puzzle: invalid encoding")
)

// Proof is a KZG opening witness. RandomV is the hiding scalar of the
// underlying scheme; it is nil for every proof this engine produces,
// and verification rejects proofs that carry one.
type Proof struct {
	W       bls12377.G1Affine
	RandomV *fr.Element
}

// IsHiding reports whether the proof carries a hiding scalar.
func (p Proof) IsHiding() bool { return p.RandomV != nil }

// Equal reports whether two proofs are identical.
func (p Proof) Equal(q Proof) bool {
	if !p.W.Equal(&q.W) {
		return false
	}
	if (p.RandomV == nil) != (q.RandomV == nil) {
		return false
	}
	return p.RandomV == nil || p.RandomV.Equal(q.RandomV)
}

// PartialSolution is one prover's contribution: the address to reward,
// the nonce tried, and the commitment to the prover's product
// polynomial.
type PartialSolution struct {
	address    account.Address
	nonce      uint64
	commitment bls12377.G1Affine
}

// NewPartialSolution bundles an address, nonce, and commitment.
func NewPartialSolution(address account.Address, nonce uint64, commitment bls12377.G1Affine) PartialSolution {
	return PartialSolution{address: address, nonce: nonce, commitment: commitment}
}

// Address returns the rewarded address.
func (s PartialSolution) Address() account.Address { return s.address }

// Nonce returns the nonce.
func (s PartialSolution) Nonce() uint64 { return s.nonce }

// Commitment returns the polynomial commitment.
func (s PartialSolution) Commitment() bls12377.G1Affine { return s.commitment }

// CommitmentBytes returns the compressed commitment encoding, the form
// hashed for targets and Fiat-Shamir challenges.
func (s PartialSolution) CommitmentBytes() [48]byte { return s.commitment.Bytes() }

// Target maps the commitment to a difficulty target: the first eight
// bytes of a double SHA-256 of the compressed commitment, read
// little-endian, divided into the maximum u64. A zero hash maps to the
// maximum target.
func (s PartialSolution) Target() uint64 {
	b := s.commitment.Bytes()
	first := sha256.Sum256(b[:])
	second := sha256.Sum256(first[:])
	v := binary.LittleEndian.Uint64(second[:8])
	if v == 0 {
		return math.MaxUint64
	}
	return math.MaxUint64 / v
}

// Equal reports whether two partial solutions are identical.
func (s PartialSolution) Equal(t PartialSolution) bool {
	return s.address.Equal(t.address) && s.nonce == t.nonce && s.commitment.Equal(&t.commitment)
}

// ProverSolution is a partial solution together with the opening proof
// of its product polynomial at the commitment-derived point.
type ProverSolution struct {
	partial PartialSolution
	proof   Proof
}

// NewProverSolution bundles a partial solution and its proof.
func NewProverSolution(partial PartialSolution, proof Proof) ProverSolution {
	return ProverSolution{partial: partial, proof: proof}
}

// Partial returns the partial solution.
func (s ProverSolution) Partial() PartialSolution { return s.partial }

// Proof returns the opening proof.
func (s ProverSolution) Proof() Proof { return s.proof }

// Address returns the rewarded address.
func (s ProverSolution) Address() account.Address { return s.partial.address }

// Nonce returns the nonce.
func (s ProverSolution) Nonce() uint64 { return s.partial.nonce }

// Commitment returns the polynomial commitment.
func (s ProverSolution) Commitment() bls12377.G1Affine { return s.partial.commitment }

// Target returns the solution's difficulty target.
func (s ProverSolution) Target() uint64 { return s.partial.Target() }

// CoinbaseSolution combines many partial solutions with one aggregated
// opening proof at the accumulator point.
type CoinbaseSolution struct {
	partials []PartialSolution
	proof    Proof
}

// NewCoinbaseSolution bundles partial solutions and the aggregate
// proof.
func NewCoinbaseSolution(partials []PartialSolution, proof Proof) *CoinbaseSolution {
	p := make([]PartialSolution, len(partials))
	copy(p, partials)
	return &CoinbaseSolution{partials: p, proof: proof}
}

// PartialSolutions returns the combined partial solutions, in order.
func (s *CoinbaseSolution) PartialSolutions() []PartialSolution {
	out := make([]PartialSolution, len(s.partials))
	copy(out, s.partials)
	return out
}

// Proof returns the aggregate opening proof.
func (s *CoinbaseSolution) Proof() Proof { return s.proof }

// CumulativeTarget sums the targets of all partial solutions without
// overflow.
func (s *CoinbaseSolution) CumulativeTarget() *uint256.Int {
	sum := uint256.NewInt(0)
	for i := range s.partials {
		sum.AddUint64(sum, s.partials[i].Target())
	}
	return sum
}
