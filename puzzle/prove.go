// prove.go implements single-solution proving.
package puzzle

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"

	"github.com/avmlabs/go-avm/account"
)

// Prove attempts one puzzle solution for the given address and nonce.
// The prover polynomial is multiplied against the epoch polynomial,
// committed, and opened at the point derived from the commitment. A
// solution whose target falls below minimumProofTarget fails with
// ErrProofTarget; trying another nonce is the caller's move.
func (p *Prover) Prove(epoch *EpochChallenge, address account.Address, nonce uint64, minimumProofTarget uint64) (ProverSolution, error) {
	if epoch.degree != p.degree {
		return ProverSolution{}, fmt.Errorf("%w: epoch degree %d, prover trimmed to %d", ErrDegree, epoch.degree, p.degree)
	}

	polynomial := epoch.proverPolynomial(address, nonce)
	product := p.mulOverDomain(polynomial, epoch.polynomial)

	commitment, err := kzg.Commit(product, p.pk)
	if err != nil {
		return ProverSolution{}, fmt.Errorf("puzzle: commit: %w", err)
	}

	partial := NewPartialSolution(address, nonce, commitment)
	if target := partial.Target(); target < minimumProofTarget {
		return ProverSolution{}, fmt.Errorf("%w: %d below minimum %d", ErrProofTarget, target, minimumProofTarget)
	}

	point := hashCommitment(&commitment)
	opening, err := kzg.Open(product, point, p.pk)
	if err != nil {
		return ProverSolution{}, fmt.Errorf("puzzle: open: %w", err)
	}

	return NewProverSolution(partial, Proof{W: opening.H}), nil
}
