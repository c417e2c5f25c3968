// epoch.go implements the epoch challenge: the per-epoch polynomial
// every prover's product is taken against.
package puzzle

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/avmlabs/go-avm/account"
)

// EpochChallenge fixes the polynomial of one puzzle epoch, derived
// from the epoch number and the hash of the block that opened it.
type EpochChallenge struct {
	epochNumber    uint32
	epochBlockHash [32]byte
	degree         uint32
	polynomial     []fr.Element
}

// NewEpochChallenge derives the epoch polynomial of the given degree
// from the epoch number and epoch block hash.
func NewEpochChallenge(epochNumber uint32, epochBlockHash [32]byte, degree uint32) (*EpochChallenge, error) {
	if degree == 0 {
		return nil, fmt.Errorf("%w: degree must be positive", ErrDegree)
	}

	var preimage [36]byte
	binary.LittleEndian.PutUint32(preimage[0:4], epochNumber)
	copy(preimage[4:36], epochBlockHash[:])

	return &EpochChallenge{
		epochNumber:    epochNumber,
		epochBlockHash: epochBlockHash,
		degree:         degree,
		polynomial:     hashToPolynomial(preimage[:], degree),
	}, nil
}

// EpochNumber returns the epoch number.
func (e *EpochChallenge) EpochNumber() uint32 { return e.epochNumber }

// EpochBlockHash returns the hash of the block that opened the epoch.
func (e *EpochChallenge) EpochBlockHash() [32]byte { return e.epochBlockHash }

// Degree returns the degree of the epoch polynomial.
func (e *EpochChallenge) Degree() uint32 { return e.degree }

// Polynomial returns a copy of the epoch polynomial's coefficients.
func (e *EpochChallenge) Polynomial() []fr.Element {
	out := make([]fr.Element, len(e.polynomial))
	copy(out, e.polynomial)
	return out
}

// proverPolynomial derives one prover's polynomial for this epoch,
// bound to the rewarded address and the tried nonce.
func (e *EpochChallenge) proverPolynomial(address account.Address, nonce uint64) []fr.Element {
	var preimage [76]byte
	binary.LittleEndian.PutUint32(preimage[0:4], e.epochNumber)
	copy(preimage[4:36], e.epochBlockHash[:])
	ab := address.Bytes()
	copy(preimage[36:68], ab[:])
	binary.LittleEndian.PutUint64(preimage[68:76], nonce)
	return hashToPolynomial(preimage[:], e.degree)
}
