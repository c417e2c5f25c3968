package puzzle

import (
	"errors"
	"math"
	"testing"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
)

const testDegree = 7

func testAddress(t *testing.T, seed uint64) account.Address {
	t.Helper()
	sk, err := account.PrivateKeyFromSeed(crypto.FieldFromUint64(seed))
	if err != nil {
		t.Fatalf("private key from seed %d: %v", seed, err)
	}
	return sk.Address()
}

func testEpoch(t *testing.T, epochNumber uint32) *EpochChallenge {
	t.Helper()
	var blockHash [32]byte
	for i := range blockHash {
		blockHash[i] = byte(i + 1)
	}
	epoch, err := NewEpochChallenge(epochNumber, blockHash, testDegree)
	if err != nil {
		t.Fatalf("epoch challenge: %v", err)
	}
	return epoch
}

func testProver(t *testing.T) (*Prover, *Verifier) {
	t.Helper()
	prover, verifier, err := Load(testDegree)
	if err != nil {
		t.Fatalf("load puzzle keys: %v", err)
	}
	return prover, verifier
}

func TestSetupTrim(t *testing.T) {
	srs, err := Setup(testDegree, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got := srs.MaxDegree(); got != testDegree {
		t.Fatalf("max degree = %d, want %d", got, testDegree)
	}

	prover, _, err := Trim(srs, testDegree)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if got := prover.Degree(); got != testDegree {
		t.Fatalf("prover degree = %d, want %d", got, testDegree)
	}
	// Degree 7 products have 15 coefficients, rounded up to 16.
	if got := prover.DomainSize(); got != 16 {
		t.Fatalf("domain size = %d, want 16", got)
	}

	smaller, _, err := Trim(srs, 3)
	if err != nil {
		t.Fatalf("trim to smaller degree: %v", err)
	}
	if got := smaller.DomainSize(); got != 8 {
		t.Fatalf("small domain size = %d, want 8", got)
	}

	if _, _, err := Trim(srs, 0); !errors.Is(err, ErrDegree) {
		t.Fatalf("trim to zero: err = %v, want ErrDegree", err)
	}
	if _, _, err := Trim(srs, testDegree+1); !errors.Is(err, ErrDegree) {
		t.Fatalf("trim beyond max: err = %v, want ErrDegree", err)
	}
	if _, err := Setup(0, nil); !errors.Is(err, ErrDegree) {
		t.Fatalf("setup with zero degree: err = %v, want ErrDegree", err)
	}
}

func TestEpochChallenge(t *testing.T) {
	epoch := testEpoch(t, 1)
	if got := epoch.EpochNumber(); got != 1 {
		t.Fatalf("epoch number = %d, want 1", got)
	}
	if got := len(epoch.Polynomial()); got != testDegree+1 {
		t.Fatalf("polynomial has %d coefficients, want %d", got, testDegree+1)
	}

	same := testEpoch(t, 1)
	for i, c := range epoch.Polynomial() {
		if sc := same.Polynomial()[i]; !c.Equal(&sc) {
			t.Fatalf("coefficient %d differs across identical challenges", i)
		}
	}

	next := testEpoch(t, 2)
	differs := false
	for i, c := range epoch.Polynomial() {
		if nc := next.Polynomial()[i]; !c.Equal(&nc) {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("distinct epoch numbers produced identical polynomials")
	}

	if _, err := NewEpochChallenge(1, [32]byte{}, 0); !errors.Is(err, ErrDegree) {
		t.Fatalf("zero degree: err = %v, want ErrDegree", err)
	}
}

func TestProveVerifySolution(t *testing.T) {
	prover, verifier := testProver(t)
	epoch := testEpoch(t, 1)
	address := testAddress(t, 1)

	solution, err := prover.Prove(epoch, address, 42, 0)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if !solution.Address().Equal(address) {
		t.Fatal("solution address does not match prover address")
	}
	if got := solution.Nonce(); got != 42 {
		t.Fatalf("nonce = %d, want 42", got)
	}
	if solution.Target() == 0 {
		t.Fatal("target is zero")
	}
	if solution.Proof().IsHiding() {
		t.Fatal("prove produced a hiding proof")
	}

	ok, err := verifier.VerifySolution(solution, epoch, 0)
	if err != nil {
		t.Fatalf("verify solution: %v", err)
	}
	if !ok {
		t.Fatal("valid solution did not verify")
	}

	t.Run("wrong nonce", func(t *testing.T) {
		forged := ProverSolution{
			partial: NewPartialSolution(address, 43, solution.Commitment()),
			proof:   solution.Proof(),
		}
		ok, err := verifier.VerifySolution(forged, epoch, 0)
		if err != nil {
			t.Fatalf("verify forged solution: %v", err)
		}
		if ok {
			t.Fatal("solution with altered nonce verified")
		}
	})

	t.Run("wrong epoch", func(t *testing.T) {
		ok, err := verifier.VerifySolution(solution, testEpoch(t, 9), 0)
		if err != nil {
			t.Fatalf("verify against wrong epoch: %v", err)
		}
		if ok {
			t.Fatal("solution verified against the wrong epoch")
		}
	})

	t.Run("hiding proof", func(t *testing.T) {
		var v fr.Element
		v.SetOne()
		hiding := ProverSolution{
			partial: solution.Partial(),
			proof:   Proof{W: solution.Proof().W, RandomV: &v},
		}
		ok, err := verifier.VerifySolution(hiding, epoch, 0)
		if err != nil {
			t.Fatalf("verify hiding solution: %v", err)
		}
		if ok {
			t.Fatal("hiding solution verified")
		}
	})

	t.Run("target shortfall", func(t *testing.T) {
		target := solution.Target()
		if target == math.MaxUint64 {
			t.Skip("solution already at maximum target")
		}
		_, err := verifier.VerifySolution(solution, epoch, target+1)
		if !errors.Is(err, ErrProofTarget) {
			t.Fatalf("err = %v, want ErrProofTarget", err)
		}
	})
}

func TestProveMinimumTarget(t *testing.T) {
	prover, _ := testProver(t)
	epoch := testEpoch(t, 1)
	address := testAddress(t, 1)

	solution, err := prover.Prove(epoch, address, 42, 0)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	target := solution.Target()
	if target == math.MaxUint64 {
		t.Skip("solution already at maximum target")
	}
	if _, err := prover.Prove(epoch, address, 42, target+1); !errors.Is(err, ErrProofTarget) {
		t.Fatalf("err = %v, want ErrProofTarget", err)
	}
}

func TestProveDegreeMismatch(t *testing.T) {
	prover, _ := testProver(t)
	var blockHash [32]byte
	epoch, err := NewEpochChallenge(1, blockHash, testDegree+1)
	if err != nil {
		t.Fatalf("epoch challenge: %v", err)
	}
	if _, err := prover.Prove(epoch, testAddress(t, 1), 0, 0); !errors.Is(err, ErrDegree) {
		t.Fatalf("err = %v, want ErrDegree", err)
	}
	if _, err := prover.AccumulateUnchecked(epoch, nil); !errors.Is(err, ErrDegree) {
		t.Fatalf("accumulate err = %v, want ErrDegree", err)
	}
}

func testSolutions(t *testing.T, prover *Prover, epoch *EpochChallenge, n int) []ProverSolution {
	t.Helper()
	solutions := make([]ProverSolution, n)
	for i := range solutions {
		solution, err := prover.Prove(epoch, testAddress(t, uint64(i+1)), uint64(100*(i+1)), 0)
		if err != nil {
			t.Fatalf("prove solution %d: %v", i, err)
		}
		solutions[i] = solution
	}
	return solutions
}

func TestAccumulateVerify(t *testing.T) {
	prover, verifier := testProver(t)
	epoch := testEpoch(t, 1)
	solutions := testSolutions(t, prover, epoch, 3)

	coinbase, err := prover.AccumulateUnchecked(epoch, solutions)
	if err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	partials := coinbase.PartialSolutions()
	if len(partials) != len(solutions) {
		t.Fatalf("coinbase has %d partial solutions, want %d", len(partials), len(solutions))
	}
	for i := range partials {
		if !partials[i].Equal(solutions[i].Partial()) {
			t.Fatalf("partial solution %d does not match its prover solution", i)
		}
	}

	var wantCumulative uint64
	for i := range solutions {
		wantCumulative += solutions[i].Target()
	}
	if got := coinbase.CumulativeTarget(); !got.IsUint64() || got.Uint64() != wantCumulative {
		t.Fatalf("cumulative target = %s, want %d", got.Dec(), wantCumulative)
	}

	ok, err := verifier.Verify(coinbase, epoch, 1, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("valid coinbase solution did not verify")
	}
}

func TestVerifyRejections(t *testing.T) {
	prover, verifier := testProver(t)
	epoch := testEpoch(t, 1)
	solutions := testSolutions(t, prover, epoch, 3)
	coinbase, err := prover.AccumulateUnchecked(epoch, solutions)
	if err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	t.Run("empty", func(t *testing.T) {
		_, err := verifier.Verify(&CoinbaseSolution{}, epoch, 0, 0)
		if !errors.Is(err, ErrEmptySolution) {
			t.Fatalf("err = %v, want ErrEmptySolution", err)
		}
	})

	t.Run("hiding proof", func(t *testing.T) {
		var v fr.Element
		v.SetOne()
		bad := &CoinbaseSolution{
			partials: coinbase.PartialSolutions(),
			proof:    Proof{W: coinbase.Proof().W, RandomV: &v},
		}
		if _, err := verifier.Verify(bad, epoch, 1, 0); !errors.Is(err, ErrHidingProof) {
			t.Fatalf("err = %v, want ErrHidingProof", err)
		}
	})

	t.Run("coinbase target shortfall", func(t *testing.T) {
		_, err := verifier.Verify(coinbase, epoch, math.MaxUint64, 0)
		if !errors.Is(err, ErrCoinbaseTarget) {
			t.Fatalf("err = %v, want ErrCoinbaseTarget", err)
		}
	})

	t.Run("duplicate solution", func(t *testing.T) {
		partials := coinbase.PartialSolutions()
		bad := &CoinbaseSolution{
			partials: []PartialSolution{partials[0], partials[1], partials[0]},
			proof:    coinbase.Proof(),
		}
		if _, err := verifier.Verify(bad, epoch, 1, 0); !errors.Is(err, ErrDuplicateSolution) {
			t.Fatalf("err = %v, want ErrDuplicateSolution", err)
		}
	})

	t.Run("proof target shortfall", func(t *testing.T) {
		_, err := verifier.Verify(coinbase, epoch, 1, math.MaxUint64)
		if !errors.Is(err, ErrProofTarget) {
			t.Fatalf("err = %v, want ErrProofTarget", err)
		}
	})

	t.Run("tampered witness", func(t *testing.T) {
		_, _, g1, _ := bls12377.Generators()
		bad := &CoinbaseSolution{
			partials: coinbase.PartialSolutions(),
			proof:    Proof{W: g1},
		}
		ok, err := verifier.Verify(bad, epoch, 1, 0)
		if err != nil {
			t.Fatalf("verify tampered solution: %v", err)
		}
		if ok {
			t.Fatal("coinbase solution with tampered witness verified")
		}
	})

	t.Run("wrong epoch", func(t *testing.T) {
		ok, err := verifier.Verify(coinbase, testEpoch(t, 9), 1, 0)
		if err != nil {
			t.Fatalf("verify against wrong epoch: %v", err)
		}
		if ok {
			t.Fatal("coinbase solution verified against the wrong epoch")
		}
	})
}

func TestAccumulateRejections(t *testing.T) {
	prover, _ := testProver(t)
	epoch := testEpoch(t, 1)
	solutions := testSolutions(t, prover, epoch, 2)

	t.Run("empty", func(t *testing.T) {
		if _, err := prover.AccumulateUnchecked(epoch, nil); !errors.Is(err, ErrEmptySolution) {
			t.Fatalf("err = %v, want ErrEmptySolution", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		dup := []ProverSolution{solutions[0], solutions[1], solutions[0]}
		if _, err := prover.AccumulateUnchecked(epoch, dup); !errors.Is(err, ErrDuplicateSolution) {
			t.Fatalf("err = %v, want ErrDuplicateSolution", err)
		}
	})

	t.Run("hiding", func(t *testing.T) {
		var v fr.Element
		v.SetOne()
		hiding := ProverSolution{
			partial: solutions[0].Partial(),
			proof:   Proof{W: solutions[0].Proof().W, RandomV: &v},
		}
		if _, err := prover.AccumulateUnchecked(epoch, []ProverSolution{hiding}); !errors.Is(err, ErrHidingProof) {
			t.Fatalf("err = %v, want ErrHidingProof", err)
		}
	})
}

func TestTarget(t *testing.T) {
	prover, _ := testProver(t)
	epoch := testEpoch(t, 1)

	first, err := prover.Prove(epoch, testAddress(t, 1), 1, 0)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if first.Target() == 0 {
		t.Fatal("target is zero")
	}
	if got := first.Partial().Target(); got != first.Target() {
		t.Fatalf("partial target %d disagrees with solution target %d", got, first.Target())
	}
	again := NewPartialSolution(first.Address(), first.Nonce(), first.Commitment())
	if got := again.Target(); got != first.Target() {
		t.Fatalf("target is not deterministic: %d then %d", first.Target(), got)
	}
}
