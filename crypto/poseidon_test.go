package crypto

import (
	"testing"
)

func TestHashPSDDeterministic(t *testing.T) {
	in := []Field{FieldFromUint64(1), FieldFromUint64(2), FieldFromUint64(3)}

	if a, b := HashPSD2(in...), HashPSD2(in...); !a.Equal(&b) {
		t.Fatal("HashPSD2 is not deterministic")
	}
	if a, b := HashPSD8(in...), HashPSD8(in...); !a.Equal(&b) {
		t.Fatal("HashPSD8 is not deterministic")
	}
}

func TestHashPSDRateSeparation(t *testing.T) {
	in := []Field{FieldFromUint64(7)}

	h2 := HashPSD2(in...)
	h4 := HashPSD4(in...)
	h8 := HashPSD8(in...)
	if h2.Equal(&h4) || h2.Equal(&h8) || h4.Equal(&h8) {
		t.Fatal("different rates hashed the same input to the same output")
	}
}

func TestHashPSDInputSensitivity(t *testing.T) {
	base := HashPSD8(FieldFromUint64(1), FieldFromUint64(2))

	if h := HashPSD8(FieldFromUint64(2), FieldFromUint64(1)); base.Equal(&h) {
		t.Fatal("hash ignores input order")
	}
	if h := HashPSD8(FieldFromUint64(1), FieldFromUint64(3)); base.Equal(&h) {
		t.Fatal("hash ignores input value")
	}
	if h := HashPSD8(FieldFromUint64(1)); base.Equal(&h) {
		t.Fatal("hash ignores input length")
	}
}

func TestHashToScalarBelowOrder(t *testing.T) {
	order := ScalarOrder()
	for i := uint64(0); i < 32; i++ {
		s := HashToScalarPSD8(FieldFromUint64(i))
		if s.Cmp(order) >= 0 {
			t.Fatalf("hash-to-scalar output %d not below the subgroup order", i)
		}
		if s.Sign() < 0 {
			t.Fatalf("hash-to-scalar output %d is negative", i)
		}
	}
}

func TestHashToScalarRateSeparation(t *testing.T) {
	in := FieldFromUint64(9)
	a := HashToScalarPSD2(in)
	b := HashToScalarPSD4(in)
	c := HashToScalarPSD8(in)
	if a.Cmp(b) == 0 || a.Cmp(c) == 0 || b.Cmp(c) == 0 {
		t.Fatal("different rates produced the same scalar")
	}
}

func TestHashManyPSD8(t *testing.T) {
	in := []Field{FieldFromUint64(5)}

	out := HashManyPSD8(in, 4)
	if len(out) != 4 {
		t.Fatalf("got %d outputs, want 4", len(out))
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[i].Equal(&out[j]) {
				t.Fatalf("keystream elements %d and %d collided", i, j)
			}
		}
	}

	again := HashManyPSD8(in, 4)
	for i := range out {
		if !out[i].Equal(&again[i]) {
			t.Fatal("keystream is not deterministic")
		}
	}

	if got := HashManyPSD8(in, 0); len(got) != 0 {
		t.Fatal("zero-length keystream must be empty")
	}
}
