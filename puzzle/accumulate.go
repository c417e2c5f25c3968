// accumulate.go combines many prover solutions into one coinbase
// solution with a single aggregate opening.
package puzzle

import (
	"fmt"
	"runtime"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// AccumulateUnchecked combines the prover solutions into one coinbase
// solution: each solution's polynomial is weighted by a Fiat-Shamir
// challenge, the weighted sum's product with the epoch polynomial is
// opened at the accumulator point. Individual proof targets are NOT
// checked here; the caller must have verified every solution already.
func (p *Prover) AccumulateUnchecked(epoch *EpochChallenge, solutions []ProverSolution) (*CoinbaseSolution, error) {
	if epoch.degree != p.degree {
		return nil, fmt.Errorf("%w: epoch degree %d, prover trimmed to %d", ErrDegree, epoch.degree, p.degree)
	}
	if len(solutions) == 0 {
		return nil, ErrEmptySolution
	}
	if len(solutions) > MaxProverSolutions {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManySolutions, len(solutions), MaxProverSolutions)
	}

	seen := mapset.NewThreadUnsafeSet[[48]byte]()
	commitments := make([]bls12377.G1Affine, len(solutions))
	for i := range solutions {
		if solutions[i].proof.IsHiding() {
			return nil, fmt.Errorf("%w: solution %d", ErrHidingProof, i)
		}
		commitments[i] = solutions[i].partial.commitment
		if !seen.Add(solutions[i].partial.CommitmentBytes()) {
			return nil, fmt.Errorf("%w: solution %d", ErrDuplicateSolution, i)
		}
	}

	// Each polynomial recovery is independent; recover in parallel and
	// fold sequentially.
	polynomials := make([][]fr.Element, len(solutions))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range solutions {
		g.Go(func() error {
			polynomials[i] = epoch.proverPolynomial(solutions[i].partial.address, solutions[i].partial.nonce)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	challenges := hashCommitments(commitments, len(solutions)+1)
	accumulatorPoint := challenges[len(solutions)]

	accumulated := make([]fr.Element, epoch.degree+1)
	var term fr.Element
	for i := range polynomials {
		for j := range polynomials[i] {
			term.Mul(&polynomials[i][j], &challenges[i])
			accumulated[j].Add(&accumulated[j], &term)
		}
	}

	product := p.mulOverDomain(accumulated, epoch.polynomial)
	opening, err := kzg.Open(product, accumulatorPoint, p.pk)
	if err != nil {
		return nil, fmt.Errorf("puzzle: open: %w", err)
	}

	partials := make([]PartialSolution, len(solutions))
	for i := range solutions {
		partials[i] = solutions[i].partial
	}
	return NewCoinbaseSolution(partials, Proof{W: opening.H}), nil
}
