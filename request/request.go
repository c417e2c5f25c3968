// Package request implements the authorization protocol for a single
// function call: signing produces a Request binding the caller, the
// function, and per-input identifiers under a Schnorr signature;
// verification recomputes every identifier from the request's public
// parts and checks the signature, proving well-formedness and caller
// authorization without the signer's secrets.
package request

import (
	"errors"
	"math/big"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
)

var (
	// ErrCardinality is returned when input values, input IDs, and
	// declared types do not agree in count.
	ErrCardinality = errors.New("request: input and type counts differ")

	// ErrValueKind is returned when a value's form does not match its
	// declared type (a record where a plaintext was declared, or the
	// reverse).
	ErrValueKind = errors.New("request: value kind does not match declared type")

	// ErrInputIDType is returned when an input ID variant disagrees
	// with the declared type it is checked against.
	ErrInputIDType = errors.New("request: input id does not match declared type")

	// ErrRecordName is returned when a record declaration carries no
	// record-type name.
	ErrRecordName = errors.New("request: record declaration missing record name")

	// ErrRecordOwner is returned at signing time when an input record
	// does not belong to the signer.
	ErrRecordOwner = errors.New("request: input record does not belong to the signer")

	// ErrSignatureMaterial is returned when a request's signature lacks
	// its challenge or response scalar.
	ErrSignatureMaterial = errors.New("request: missing signature material")
)

// InputID identifies one function input inside a request. The variant
// encodes the input's declared visibility.
type InputID interface {
	// Kind returns the visibility class the ID encodes.
	Kind() program.ValueType

	isInputID()
}

// ConstantInputID carries the transcript hash of a constant input.
type ConstantInputID struct {
	Hash crypto.Field
}

// PublicInputID carries the transcript hash of a public input.
type PublicInputID struct {
	Hash crypto.Field
}

// PrivateInputID carries the hash of a private input's ciphertext.
type PrivateInputID struct {
	Hash crypto.Field
}

// RecordInputID carries the record commitment, the gamma point linking
// it to the signer's key, and the derived serial number and tag.
type RecordInputID struct {
	Commitment   crypto.Field
	Gamma        crypto.Group
	SerialNumber crypto.Field
	Tag          crypto.Field
}

// ExternalRecordInputID carries the input commitment of a record owned
// by a foreign program.
type ExternalRecordInputID struct {
	Hash crypto.Field
}

func (ConstantInputID) Kind() program.ValueType       { return program.TypeConstant }
func (PublicInputID) Kind() program.ValueType         { return program.TypePublic }
func (PrivateInputID) Kind() program.ValueType        { return program.TypePrivate }
func (RecordInputID) Kind() program.ValueType         { return program.TypeRecord }
func (ExternalRecordInputID) Kind() program.ValueType { return program.TypeExternalRecord }

func (ConstantInputID) isInputID()       {}
func (PublicInputID) isInputID()         {}
func (PrivateInputID) isInputID()        {}
func (RecordInputID) isInputID()         {}
func (ExternalRecordInputID) isInputID() {}

// Request is a signed, per-call bundle: the caller, the called
// function, the input identifiers, the input values they were derived
// from, and the signature binding all of it to one transition.
type Request struct {
	Caller       account.Address
	NetworkID    uint16
	ProgramID    program.ProgramID
	FunctionName program.Identifier
	InputIDs     []InputID
	Inputs       []program.Value
	Signature    account.Signature
	SkTag        crypto.Field
	TVK          crypto.Field
	TCM          crypto.Field

	// tsk is the transition secret key, present only on requests
	// produced by SignRequest.
	tsk *big.Int
}

// TransitionSecretKey returns the transition secret key and whether it
// is present. Only the signer holds it.
func (r *Request) TransitionSecretKey() (*big.Int, bool) {
	if r.tsk == nil {
		return nil, false
	}
	return new(big.Int).Set(r.tsk), true
}

// ToTPK derives the transition public key from the signature:
// challenge·pk_sig + response·G equals tsk·G without requiring tsk.
func (r *Request) ToTPK() (crypto.Group, error) {
	sig := r.Signature
	if sig.Challenge == nil || sig.Response == nil {
		return crypto.Group{}, ErrSignatureMaterial
	}
	a := crypto.ScalarMulPoint(&sig.ComputeKey.PkSig, sig.Challenge)
	b := crypto.GeneratorMul(sig.Response)
	return crypto.AddPoints(&a, &b), nil
}

// FunctionID returns the function identifier the request is bound to.
func (r *Request) FunctionID() (crypto.Field, error) {
	return program.FunctionID(r.NetworkID, r.ProgramID, r.FunctionName)
}
