package program

import (
	"testing"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
)

func testKey(t *testing.T, seed uint64) *account.PrivateKey {
	t.Helper()
	sk, err := account.PrivateKeyFromSeed(crypto.FieldFromUint64(seed))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	return sk
}

func testRecord(t *testing.T, sk *account.PrivateKey, randomizer uint64) Record {
	t.Helper()
	r := crypto.NewScalar(randomizer)
	data := []crypto.Field{crypto.FieldFromUint64(10), crypto.FieldFromUint64(20)}
	return NewRecord(sk.Address(), 1234, data, crypto.GeneratorMul(r))
}

func TestGatesInBounds(t *testing.T) {
	if !GatesInBounds(0) || !GatesInBounds(MaxGates) {
		t.Fatal("in-range gates rejected")
	}
	if GatesInBounds(MaxGates+1) || GatesInBounds(1<<52) || GatesInBounds(^uint64(0)) {
		t.Fatal("out-of-range gates accepted")
	}
}

func TestRecordEncryptDecrypt(t *testing.T) {
	sk := testKey(t, 7)
	randomizer := crypto.NewScalar(99)
	rec := testRecord(t, sk, 99)

	ct := rec.Encrypt(randomizer)

	// The masked elements must not leak the plaintext.
	if crypto.FieldsEqual(ct.MaskedOwner(), rec.Owner().X()) {
		t.Fatal("owner not masked")
	}
	if crypto.FieldsEqual(ct.MaskedGates(), crypto.FieldFromUint64(rec.Gates())) {
		t.Fatal("gates not masked")
	}

	dec, err := ct.Decrypt(sk.ViewKey())
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !dec.Equal(rec) {
		t.Fatal("decrypted record differs from the original")
	}
}

func TestRecordDecryptWrongKey(t *testing.T) {
	sk := testKey(t, 7)
	other := testKey(t, 8)
	rec := testRecord(t, sk, 99)

	ct := rec.Encrypt(crypto.NewScalar(99))

	if _, err := ct.Decrypt(other.ViewKey()); err != ErrRecordViewKey {
		t.Fatalf("got %v, want ErrRecordViewKey", err)
	}

	if !ct.IsOwner(sk.ViewKey()) {
		t.Fatal("owner view key rejected")
	}
	if ct.IsOwner(other.ViewKey()) {
		t.Fatal("foreign view key accepted")
	}
}

func TestRecordCiphertextReassembly(t *testing.T) {
	sk := testKey(t, 7)
	rec := testRecord(t, sk, 99)
	ct := rec.Encrypt(crypto.NewScalar(99))

	rebuilt := NewRecordCiphertext(ct.MaskedOwner(), ct.MaskedGates(), ct.MaskedData(), ct.Nonce())
	if !rebuilt.Equal(ct) {
		t.Fatal("reassembled ciphertext differs")
	}

	dec, err := rebuilt.Decrypt(sk.ViewKey())
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !dec.Equal(rec) {
		t.Fatal("reassembled ciphertext decrypts differently")
	}
}

func TestRecordCommitment(t *testing.T) {
	sk := testKey(t, 7)
	rec := testRecord(t, sk, 99)
	pid, _ := ParseProgramID("credits.avm")
	name, _ := NewIdentifier("credits")

	base, err := rec.Commitment(pid, name)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	again, err := rec.Commitment(pid, name)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	if !crypto.FieldsEqual(base, again) {
		t.Fatal("commitment is not deterministic")
	}

	otherPID, _ := ParseProgramID("token.avm")
	c, err := rec.Commitment(otherPID, name)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	if crypto.FieldsEqual(base, c) {
		t.Fatal("program id not bound")
	}

	otherName, _ := NewIdentifier("token")
	c, err = rec.Commitment(pid, otherName)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	if crypto.FieldsEqual(base, c) {
		t.Fatal("record name not bound")
	}

	otherRec := NewRecord(rec.Owner(), rec.Gates()+1, rec.Data(), rec.Nonce())
	c, err = otherRec.Commitment(pid, name)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	if crypto.FieldsEqual(base, c) {
		t.Fatal("record content not bound")
	}
}

func TestSerialNumberFromGamma(t *testing.T) {
	commitment := crypto.HashPSD2(crypto.FieldFromUint64(5))
	h, err := crypto.HashToGroup(crypto.SerialNumberDomain(), commitment)
	if err != nil {
		t.Fatalf("hash to group: %v", err)
	}
	gamma := crypto.ScalarMulPoint(&h, crypto.NewScalar(31))

	sn1, err := SerialNumberFromGamma(gamma, commitment)
	if err != nil {
		t.Fatalf("serial number: %v", err)
	}
	sn2, err := SerialNumberFromGamma(gamma, commitment)
	if err != nil {
		t.Fatalf("serial number: %v", err)
	}
	if !crypto.FieldsEqual(sn1, sn2) {
		t.Fatal("serial number is not deterministic")
	}

	otherGamma := crypto.ScalarMulPoint(&h, crypto.NewScalar(32))
	sn3, err := SerialNumberFromGamma(otherGamma, commitment)
	if err != nil {
		t.Fatalf("serial number: %v", err)
	}
	if crypto.FieldsEqual(sn1, sn3) {
		t.Fatal("gamma not bound")
	}
}

func TestRecordTag(t *testing.T) {
	sk := testKey(t, 7)
	c1 := crypto.FieldFromUint64(100)
	c2 := crypto.FieldFromUint64(101)

	t1 := Tag(sk.SkTag(), c1)
	if !crypto.FieldsEqual(t1, Tag(sk.SkTag(), c1)) {
		t.Fatal("tag is not deterministic")
	}
	if crypto.FieldsEqual(t1, Tag(sk.SkTag(), c2)) {
		t.Fatal("commitment not bound")
	}

	other := testKey(t, 8)
	if crypto.FieldsEqual(t1, Tag(other.SkTag(), c1)) {
		t.Fatal("tag key not bound")
	}
}

func TestValueUnion(t *testing.T) {
	p := NewPlaintext(crypto.FieldFromUint64(1))
	v := PlaintextValue(p)
	if v.IsRecord() {
		t.Fatal("plaintext value reports record")
	}
	got, ok := v.Plaintext()
	if !ok || !got.Equal(p) {
		t.Fatal("plaintext arm lost")
	}
	if _, ok := v.Record(); ok {
		t.Fatal("record arm set on plaintext value")
	}

	sk := testKey(t, 7)
	rec := testRecord(t, sk, 99)
	rv := RecordValue(rec)
	if !rv.IsRecord() {
		t.Fatal("record value reports plaintext")
	}
	gotRec, ok := rv.Record()
	if !ok || !gotRec.Equal(rec) {
		t.Fatal("record arm lost")
	}
}

func TestValueTypeString(t *testing.T) {
	cases := map[ValueType]string{
		TypeConstant:       "constant",
		TypePublic:         "public",
		TypePrivate:        "private",
		TypeRecord:         "record",
		TypeExternalRecord: "external record",
		ValueType(9):       "unknown",
	}
	for vt, want := range cases {
		if got := vt.String(); got != want {
			t.Errorf("ValueType(%d).String() = %q, want %q", vt, got, want)
		}
	}
	if TypeConstant.IsRecordType() || TypePrivate.IsRecordType() {
		t.Fatal("plaintext types report record")
	}
	if !TypeRecord.IsRecordType() || !TypeExternalRecord.IsRecordType() {
		t.Fatal("record types not reported")
	}
}
