// verify.go implements verification of single prover solutions and
// aggregated coinbase solutions.
package puzzle

import (
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// VerifySolution checks one prover solution against the epoch and the
// proof target. A hiding proof or a failed opening check yields false;
// a target shortfall is an error, since callers filter targets before
// verifying.
func (v *Verifier) VerifySolution(s ProverSolution, epoch *EpochChallenge, proofTarget uint64) (bool, error) {
	if s.proof.IsHiding() {
		return false, nil
	}
	if target := s.Target(); target < proofTarget {
		return false, fmt.Errorf("%w: %d below %d", ErrProofTarget, target, proofTarget)
	}

	polynomial := epoch.proverPolynomial(s.partial.address, s.partial.nonce)
	point := hashCommitment(&s.partial.commitment)

	polyEval := evaluate(polynomial, point)
	epochEval := evaluate(epoch.polynomial, point)
	var productEval fr.Element
	productEval.Mul(&polyEval, &epochEval)

	opening := kzg.OpeningProof{H: s.proof.W, ClaimedValue: productEval}
	if err := kzg.Verify(&s.partial.commitment, &opening, point, v.vk); err != nil {
		return false, nil
	}
	return true, nil
}

// Verify checks an aggregated coinbase solution against the epoch, the
// coinbase target, and the per-solution proof target. Structural
// violations (empty or oversized sets, hiding proofs, duplicate
// commitments, target shortfalls) are errors; only a failed opening
// check yields a quiet false.
func (v *Verifier) Verify(solution *CoinbaseSolution, epoch *EpochChallenge, coinbaseTarget, proofTarget uint64) (bool, error) {
	n := len(solution.partials)
	if n == 0 {
		return false, ErrEmptySolution
	}
	if n > MaxProverSolutions {
		return false, fmt.Errorf("%w: %d exceeds %d", ErrTooManySolutions, n, MaxProverSolutions)
	}
	if solution.proof.IsHiding() {
		return false, ErrHidingProof
	}

	cumulative := uint256.NewInt(0)
	for i := range solution.partials {
		cumulative.AddUint64(cumulative, solution.partials[i].Target())
	}
	if cumulative.CmpUint64(coinbaseTarget) < 0 {
		return false, fmt.Errorf("%w: %s below %d", ErrCoinbaseTarget, cumulative.Dec(), coinbaseTarget)
	}

	seen := mapset.NewThreadUnsafeSet[[48]byte]()
	commitments := make([]bls12377.G1Affine, n)
	for i := range solution.partials {
		commitments[i] = solution.partials[i].commitment
		if !seen.Add(solution.partials[i].CommitmentBytes()) {
			return false, fmt.Errorf("%w: solution %d", ErrDuplicateSolution, i)
		}
	}

	challenges := hashCommitments(commitments, n+1)
	accumulatorPoint := challenges[n]

	// Per-solution target checks and evaluations are independent; any
	// target failure aborts the whole verification.
	evaluations := make([]fr.Element, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range solution.partials {
		g.Go(func() error {
			partial := solution.partials[i]
			if target := partial.Target(); target < proofTarget {
				return fmt.Errorf("%w: solution %d: %d below %d", ErrProofTarget, i, target, proofTarget)
			}
			polynomial := epoch.proverPolynomial(partial.address, partial.nonce)
			evaluations[i] = evaluate(polynomial, accumulatorPoint)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	var accumulatedEval, term fr.Element
	for i := range evaluations {
		term.Mul(&evaluations[i], &challenges[i])
		accumulatedEval.Add(&accumulatedEval, &term)
	}
	epochEval := evaluate(epoch.polynomial, accumulatorPoint)
	accumulatedEval.Mul(&accumulatedEval, &epochEval)

	var accumulatedCommitment bls12377.G1Affine
	if _, err := accumulatedCommitment.MultiExp(commitments, challenges[:n], ecc.MultiExpConfig{}); err != nil {
		return false, fmt.Errorf("puzzle: accumulate commitments: %w", err)
	}

	opening := kzg.OpeningProof{H: solution.proof.W, ClaimedValue: accumulatedEval}
	if err := kzg.Verify(&accumulatedCommitment, &opening, accumulatorPoint, v.vk); err != nil {
		return false, nil
	}
	return true, nil
}
