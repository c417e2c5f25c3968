package store

import (
	"errors"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/transition"
)

// field and point build deterministic fixtures.
func field(n uint64) crypto.Field { return crypto.FieldFromUint64(n) }
func point(n uint64) crypto.Group { return crypto.GeneratorMul(crypto.NewScalar(n)) }

// testInputs builds one input of every kind. Distinct bases give
// disjoint input IDs.
func testInputs(base uint64) []transition.Input {
	plain := program.NewPlaintext(field(base + 21))
	return []transition.Input{
		transition.ConstantInput{Hash: field(base + 41), Value: &plain},
		transition.PublicInput{Hash: field(base + 42), Value: &plain},
		transition.PrivateInput{Hash: field(base + 43), Ciphertext: []crypto.Field{field(base + 44)}},
		transition.RecordInput{SerialNumber: field(base + 45), Tag: field(base + 46)},
		transition.ExternalRecordInput{Hash: field(base + 47)},
	}
}

// testOutputs builds outputs of every kind, including a withheld
// constant and a withheld record. Distinct bases give disjoint output
// IDs.
func testOutputs(base uint64) []transition.Output {
	plain := program.NewPlaintext(field(base+5), field(base+6))
	cipher := program.NewRecordCiphertext(
		field(base+31), field(base+32),
		[]crypto.Field{field(base + 33)},
		point(base+34))
	return []transition.Output{
		transition.ConstantOutput{Hash: field(base + 1), Value: &plain},
		transition.ConstantOutput{Hash: field(base + 12)},
		transition.PublicOutput{Hash: field(base + 2), Value: &plain},
		transition.PrivateOutput{Hash: field(base + 3), Ciphertext: []crypto.Field{field(base + 7)}},
		transition.RecordOutput{Commitment: field(base + 8), Checksum: field(base + 9), Record: &cipher},
		transition.RecordOutput{Commitment: field(base + 10), Checksum: field(base + 11)},
		transition.ExternalRecordOutput{Hash: field(base + 4)},
	}
}

func fieldSliceEq(a, b []crypto.Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !crypto.FieldsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func plaintextPtrEq(a, b *program.Plaintext) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func sameInput(a, b transition.Input) bool {
	switch a := a.(type) {
	case transition.ConstantInput:
		b, ok := b.(transition.ConstantInput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && plaintextPtrEq(a.Value, b.Value)
	case transition.PublicInput:
		b, ok := b.(transition.PublicInput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && plaintextPtrEq(a.Value, b.Value)
	case transition.PrivateInput:
		b, ok := b.(transition.PrivateInput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && fieldSliceEq(a.Ciphertext, b.Ciphertext)
	case transition.RecordInput:
		b, ok := b.(transition.RecordInput)
		return ok && crypto.FieldsEqual(a.SerialNumber, b.SerialNumber) && crypto.FieldsEqual(a.Tag, b.Tag)
	case transition.ExternalRecordInput:
		b, ok := b.(transition.ExternalRecordInput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash)
	}
	return false
}

func sameOutput(a, b transition.Output) bool {
	switch a := a.(type) {
	case transition.ConstantOutput:
		b, ok := b.(transition.ConstantOutput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && plaintextPtrEq(a.Value, b.Value)
	case transition.PublicOutput:
		b, ok := b.(transition.PublicOutput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && plaintextPtrEq(a.Value, b.Value)
	case transition.PrivateOutput:
		b, ok := b.(transition.PrivateOutput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash) && fieldSliceEq(a.Ciphertext, b.Ciphertext)
	case transition.RecordOutput:
		b, ok := b.(transition.RecordOutput)
		if !ok || !crypto.FieldsEqual(a.Commitment, b.Commitment) || !crypto.FieldsEqual(a.Checksum, b.Checksum) {
			return false
		}
		if (a.Record == nil) != (b.Record == nil) {
			return false
		}
		return a.Record == nil || a.Record.Equal(*b.Record)
	case transition.ExternalRecordOutput:
		b, ok := b.(transition.ExternalRecordOutput)
		return ok && crypto.FieldsEqual(a.Hash, b.Hash)
	}
	return false
}

func containsField(list []crypto.Field, want crypto.Field) bool {
	for i := range list {
		if crypto.FieldsEqual(list[i], want) {
			return true
		}
	}
	return false
}

// errInsertFault is the injected failure of faultyMap.
var errInsertFault = errors.New("injected insert fault")

// faultyMap wraps a Map and fails every Insert, for atomicity tests.
type faultyMap[K comparable, V any] struct {
	Map[K, V]
}

func (m faultyMap[K, V]) Insert(key K, value V) error { return errInsertFault }
