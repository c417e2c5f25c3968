// Tests for the e2e_helpers.go shared fixtures.
// Validates that the helpers produce well-formed objects.
package e2e_test

import (
	"bytes"
	"testing"

	e2e "github.com/avmlabs/go-avm"
)

func TestNewTestAccountDeterministic(t *testing.T) {
	a, err := e2e.NewTestAccount(7)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	b, err := e2e.NewTestAccount(7)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !a.Address().Equal(b.Address()) {
		t.Error("same seed derived different addresses")
	}

	c, err := e2e.NewTestAccount(8)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if a.Address().Equal(c.Address()) {
		t.Error("different seeds derived the same address")
	}
}

func TestSeqReaderDeterministic(t *testing.T) {
	r1 := &e2e.SeqReader{}
	r2 := &e2e.SeqReader{}
	b1 := make([]byte, 16)
	b2 := make([]byte, 16)

	if _, err := r1.Read(b1); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := r2.Read(b2); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("two fresh readers produced different streams")
	}
	if b1[0] == b1[1] {
		t.Error("stream does not advance")
	}
}

func TestNewTransferExecutionShape(t *testing.T) {
	x, err := e2e.NewTransferExecution(7, 8)
	if err != nil {
		t.Fatalf("execution: %v", err)
	}

	if len(x.Inputs) != 5 || len(x.InputTypes) != 5 {
		t.Errorf("inputs = %d/%d, want 5/5", len(x.Inputs), len(x.InputTypes))
	}
	if len(x.Outputs) != 5 || len(x.OutputTypes) != 5 {
		t.Errorf("outputs = %d/%d, want 5/5", len(x.Outputs), len(x.OutputTypes))
	}
	if x.Request == nil {
		t.Fatal("execution carries no request")
	}

	tr, err := x.Assemble(nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if fin, has := tr.Finalize(); has || fin != nil {
		t.Error("unexpected finalize payload")
	}
	if len(tr.Inputs()) != 5 || len(tr.Outputs()) != 5 {
		t.Errorf("transition sides = %d/%d, want 5/5", len(tr.Inputs()), len(tr.Outputs()))
	}
	if tr.Fee() != x.Fee {
		t.Errorf("fee = %d, want %d", tr.Fee(), x.Fee)
	}
}

func TestNewEpochDeterministic(t *testing.T) {
	a, err := e2e.NewEpoch(3, 15)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	b, err := e2e.NewEpoch(3, 15)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	if a.EpochBlockHash() != b.EpochBlockHash() {
		t.Error("same number derived different block hashes")
	}

	c, err := e2e.NewEpoch(4, 15)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	if a.EpochBlockHash() == c.EpochBlockHash() {
		t.Error("different numbers derived the same block hash")
	}
}
