// Package program defines the value model of the VM: program and
// function identifiers, plaintext and record values, record
// encryption, and the record-derived quantities (commitment, serial
// number, tag) consumed by the request protocol.
package program

import (
	"errors"

	"github.com/avmlabs/go-avm/crypto"
)

var (
	// ErrIdentifier is returned for a name that is not a valid
	// identifier.
	ErrIdentifier = errors.New("program: invalid identifier")

	// ErrProgramID is returned for a malformed program ID string.
	ErrProgramID = errors.New("program: invalid program id")

	// ErrGatesRange is returned when a record's gates value has bits
	// set above bit 51.
	ErrGatesRange = errors.New("program: record gates exceed 52 bits")

	// ErrRecordViewKey is returned when decrypting a record with a view
	// key that does not own it.
	ErrRecordViewKey = errors.New("program: record view key mismatch")

	// ErrRecordCiphertext is returned when a record ciphertext decrypts
	// to an ill-formed record.
	ErrRecordCiphertext = errors.New("program: malformed record ciphertext")
)

// ValueType is the declared visibility of a function input or output.
type ValueType uint8

const (
	TypeConstant ValueType = iota
	TypePublic
	TypePrivate
	TypeRecord
	TypeExternalRecord
)

// String returns the lowercase name of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeConstant:
		return "constant"
	case TypePublic:
		return "public"
	case TypePrivate:
		return "private"
	case TypeRecord:
		return "record"
	case TypeExternalRecord:
		return "external record"
	default:
		return "unknown"
	}
}

// IsRecordType reports whether the type requires a record value.
func (t ValueType) IsRecordType() bool {
	return t == TypeRecord || t == TypeExternalRecord
}

// DeclaredType is the declared visibility of one function input or
// output. Record declarations additionally carry the record-type name
// that the record commitment binds.
type DeclaredType struct {
	Type       ValueType
	RecordName Identifier
}

// Declare builds a declaration for a non-record visibility.
func Declare(t ValueType) DeclaredType { return DeclaredType{Type: t} }

// DeclareRecord builds a record declaration with its type name.
func DeclareRecord(name Identifier) DeclaredType {
	return DeclaredType{Type: TypeRecord, RecordName: name}
}

// Plaintext is an ordered sequence of field elements, the
// plain-visibility value form.
type Plaintext struct {
	fields []crypto.Field
}

// NewPlaintext builds a plaintext from field elements.
func NewPlaintext(fields ...crypto.Field) Plaintext {
	out := make([]crypto.Field, len(fields))
	copy(out, fields)
	return Plaintext{fields: out}
}

// ToFields returns the elements of the plaintext.
func (p Plaintext) ToFields() []crypto.Field {
	out := make([]crypto.Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Len returns the number of elements.
func (p Plaintext) Len() int { return len(p.fields) }

// Equal reports element-wise equality.
func (p Plaintext) Equal(q Plaintext) bool {
	if len(p.fields) != len(q.fields) {
		return false
	}
	for i := range p.fields {
		if !crypto.FieldsEqual(p.fields[i], q.fields[i]) {
			return false
		}
	}
	return true
}

// Value is a tagged union of the two value forms: a plaintext or a
// record. Exactly one arm is set.
type Value struct {
	plaintext *Plaintext
	record    *Record
}

// PlaintextValue wraps a plaintext as a value.
func PlaintextValue(p Plaintext) Value { return Value{plaintext: &p} }

// RecordValue wraps a record as a value.
func RecordValue(r Record) Value { return Value{record: &r} }

// Plaintext returns the plaintext arm, if set.
func (v Value) Plaintext() (Plaintext, bool) {
	if v.plaintext == nil {
		return Plaintext{}, false
	}
	return *v.plaintext, true
}

// Record returns the record arm, if set.
func (v Value) Record() (Record, bool) {
	if v.record == nil {
		return Record{}, false
	}
	return *v.record, true
}

// IsRecord reports whether the record arm is set.
func (v Value) IsRecord() bool { return v.record != nil }
