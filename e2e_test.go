// Package e2e_test provides end-to-end integration tests that exercise
// the full private execution pipeline: sign a request, assemble its
// transition, persist and retrieve it, and mine and verify coinbase
// puzzle solutions against the network targets.
package e2e_test

import (
	"bytes"
	"errors"
	"testing"

	e2e "github.com/avmlabs/go-avm"
	"github.com/avmlabs/go-avm/block"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/puzzle"
	"github.com/avmlabs/go-avm/store"
)

// TestTransferPipeline walks one transfer from the signed request to a
// stored transition and back out:
// - The request verifies under its declared input types
// - The assembled transition round-trips through the store untouched
// - Every derived index (input ID, TPK, TCM, serial number,
//   commitment) locates the transition
// - Removal clears the transition and all of its indexes
func TestTransferPipeline(t *testing.T) {
	x, err := e2e.NewTransferExecution(7, 8)
	if err != nil {
		t.Fatalf("execution: %v", err)
	}

	tpk, err := x.Request.ToTPK()
	if err != nil {
		t.Fatalf("tpk: %v", err)
	}
	ok, err := x.Request.Verify(x.InputTypes, tpk)
	if err != nil || !ok {
		t.Fatalf("request verify: ok=%v err=%v", ok, err)
	}

	finalize := []program.Value{
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(40))),
	}
	tr, err := x.Assemble(finalize)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	s := store.NewTransitionStore()
	if err := s.Insert(tr); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetTransition(tr.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got.Bytes(), tr.Bytes()) {
		t.Fatal("stored transition differs from the assembled one")
	}
	if fin, has := got.Finalize(); !has || len(fin) != 1 {
		t.Errorf("finalize: has=%v len=%d, want one value", has, len(fin))
	}

	fee, has, err := s.GetFee(tr.ID())
	if err != nil || !has {
		t.Fatalf("fee: has=%v err=%v", has, err)
	}
	if fee != x.Fee {
		t.Errorf("fee = %d, want %d", fee, x.Fee)
	}

	// Every index must point back at the transition.
	for i, in := range tr.Inputs() {
		id, found, err := s.FindTransitionIDFromInputID(in.ID())
		if err != nil || !found {
			t.Fatalf("input %d lookup: found=%v err=%v", i, found, err)
		}
		if !crypto.FieldsEqual(id, tr.ID()) {
			t.Errorf("input %d mapped to the wrong transition", i)
		}
	}
	for i, out := range tr.Outputs() {
		id, found, err := s.FindTransitionIDFromOutputID(out.ID())
		if err != nil || !found {
			t.Fatalf("output %d lookup: found=%v err=%v", i, found, err)
		}
		if !crypto.FieldsEqual(id, tr.ID()) {
			t.Errorf("output %d mapped to the wrong transition", i)
		}
	}
	if id, found, err := s.FindTransitionIDFromTPK(tr.TPK()); err != nil || !found || !crypto.FieldsEqual(id, tr.ID()) {
		t.Errorf("tpk lookup: id=%v found=%v err=%v", id, found, err)
	}
	if id, found, err := s.FindTransitionIDFromTCM(tr.TCM()); err != nil || !found || !crypto.FieldsEqual(id, tr.ID()) {
		t.Errorf("tcm lookup: id=%v found=%v err=%v", id, found, err)
	}

	// The record input contributes a serial number, the record output a
	// commitment.
	if ok, err := s.ContainsSerialNumber(tr.Inputs()[3].ID()); err != nil || !ok {
		t.Errorf("serial number missing: ok=%v err=%v", ok, err)
	}
	if ok, err := s.ContainsCommitment(tr.Outputs()[3].ID()); err != nil || !ok {
		t.Errorf("commitment missing: ok=%v err=%v", ok, err)
	}
	if rec, err := s.GetRecord(tr.Outputs()[3].ID()); err != nil || rec == nil {
		t.Errorf("record ciphertext missing: rec=%v err=%v", rec, err)
	}

	if err := s.Remove(tr.ID()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, err := s.ContainsTransitionID(tr.ID()); err != nil || ok {
		t.Errorf("transition still present after removal: ok=%v err=%v", ok, err)
	}
	if ok, err := s.ContainsSerialNumber(tr.Inputs()[3].ID()); err != nil || ok {
		t.Errorf("serial number survived removal: ok=%v err=%v", ok, err)
	}
	if got, err := s.GetTransition(tr.ID()); err != nil || got != nil {
		t.Errorf("removed transition still readable: got=%v err=%v", got, err)
	}
}

// TestTamperedDeclarationsRejected flips the declared visibility of one
// input and expects verification to fail, since input IDs commit to
// their visibility.
func TestTamperedDeclarationsRejected(t *testing.T) {
	x, err := e2e.NewTransferExecution(7, 8)
	if err != nil {
		t.Fatalf("execution: %v", err)
	}
	tpk, err := x.Request.ToTPK()
	if err != nil {
		t.Fatalf("tpk: %v", err)
	}

	tampered := make([]program.DeclaredType, len(x.InputTypes))
	copy(tampered, x.InputTypes)
	tampered[0] = program.Declare(program.TypePublic)

	if ok, _ := x.Request.Verify(tampered, tpk); ok {
		t.Error("request verified with tampered input declarations")
	}
}

// TestPuzzlePipeline mines solutions above the devnet proof target,
// verifies them individually, accumulates them, and checks the
// combined solution against the genesis targets.
func TestPuzzlePipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping puzzle mining in short mode")
	}

	const degree = 15
	prover, verifier, err := puzzle.Load(degree)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	epoch, err := e2e.NewEpoch(1, degree)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	acct, err := e2e.NewTestAccount(42)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	addr := acct.Address()

	meta := block.GenesisMetadata(block.DevnetConfig)

	var solutions []puzzle.ProverSolution
	for nonce := uint64(0); nonce < 256 && len(solutions) < 8; nonce++ {
		s, err := prover.Prove(epoch, addr, nonce, meta.ProofTarget)
		if errors.Is(err, puzzle.ErrProofTarget) {
			continue
		}
		if err != nil {
			t.Fatalf("prove nonce %d: %v", nonce, err)
		}
		if s.Target() < meta.ProofTarget {
			t.Fatalf("solution target %d below the minimum %d", s.Target(), meta.ProofTarget)
		}
		solutions = append(solutions, s)
	}
	if len(solutions) < 8 {
		t.Fatalf("found %d solutions in 256 attempts, want 8", len(solutions))
	}

	for i, s := range solutions {
		ok, err := verifier.VerifySolution(s, epoch, meta.ProofTarget)
		if err != nil || !ok {
			t.Fatalf("solution %d rejected: ok=%v err=%v", i, ok, err)
		}
	}

	coinbase, err := prover.AccumulateUnchecked(epoch, solutions)
	if err != nil {
		t.Fatalf("accumulate: %v", err)
	}
	ok, err := verifier.Verify(coinbase, epoch, meta.CoinbaseTarget, meta.ProofTarget)
	if err != nil || !ok {
		t.Fatalf("coinbase solution rejected: ok=%v err=%v", ok, err)
	}
	if coinbase.CumulativeTarget().CmpUint64(meta.CoinbaseTarget) < 0 {
		t.Errorf("cumulative target %s below the coinbase target %d",
			coinbase.CumulativeTarget(), meta.CoinbaseTarget)
	}

	// The accumulation is bound to its epoch.
	other, err := e2e.NewEpoch(2, degree)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	if ok, _ := verifier.Verify(coinbase, other, meta.CoinbaseTarget, meta.ProofTarget); ok {
		t.Error("accumulation verified against the wrong epoch")
	}
}
