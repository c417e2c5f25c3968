// e2e_helpers.go provides shared fixtures for the end-to-end tests at
// the module root. This file establishes the base package for the root
// directory, enabling the external test files to use these exported
// helpers.
package e2e

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/puzzle"
	"github.com/avmlabs/go-avm/request"
	"github.com/avmlabs/go-avm/transition"
)

// DefaultNetworkID is the network used by the fixtures.
const DefaultNetworkID uint16 = 3

// SeqReader yields a deterministic byte stream, so signing in tests is
// reproducible.
type SeqReader struct{ b byte }

func (r *SeqReader) Read(p []byte) (int, error) {
	for i := range p {
		r.b++
		p[i] = r.b
	}
	return len(p), nil
}

// NewTestAccount derives an account deterministically from a small
// integer seed.
func NewTestAccount(seed uint64) (*account.PrivateKey, error) {
	return account.PrivateKeyFromSeed(crypto.FieldFromUint64(seed))
}

// Execution is a signed transfer request together with everything an
// executor would produce for it: output values, their declared types,
// destination registers, and a proof placeholder.
type Execution struct {
	Sender    *account.PrivateKey
	Recipient *account.PrivateKey
	NetworkID uint16
	ProgramID program.ProgramID
	Function  program.Identifier

	Inputs     []program.Value
	InputTypes []program.DeclaredType
	Request    *request.Request

	Outputs     []program.Value
	OutputTypes []program.DeclaredType
	Registers   []uint64
	Proof       []byte
	Fee         int64
}

// NewTransferExecution builds a five-input, five-output transfer
// execution covering every value visibility, signed by the account
// derived from senderSeed. The record output nonce is computed from
// the request's view key, exactly as an executor would.
func NewTransferExecution(senderSeed, recipientSeed uint64) (*Execution, error) {
	sender, err := NewTestAccount(senderSeed)
	if err != nil {
		return nil, err
	}
	recipient, err := NewTestAccount(recipientSeed)
	if err != nil {
		return nil, err
	}

	pid, err := program.ParseProgramID("credits.avm")
	if err != nil {
		return nil, err
	}
	function, err := program.NewIdentifier("transfer")
	if err != nil {
		return nil, err
	}
	recordName, err := program.NewIdentifier("credits")
	if err != nil {
		return nil, err
	}

	owned := program.NewRecord(sender.Address(), 1000,
		[]crypto.Field{crypto.FieldFromUint64(6)},
		crypto.GeneratorMul(crypto.NewScalar(77)))
	foreign := program.NewRecord(recipient.Address(), 500,
		[]crypto.Field{crypto.FieldFromUint64(9)},
		crypto.GeneratorMul(crypto.NewScalar(88)))

	x := &Execution{
		Sender:    sender,
		Recipient: recipient,
		NetworkID: DefaultNetworkID,
		ProgramID: pid,
		Function:  function,
		Inputs: []program.Value{
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(1), crypto.FieldFromUint64(2))),
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(3))),
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(4), crypto.FieldFromUint64(5))),
			program.RecordValue(owned),
			program.RecordValue(foreign),
		},
		InputTypes: []program.DeclaredType{
			program.Declare(program.TypeConstant),
			program.Declare(program.TypePublic),
			program.Declare(program.TypePrivate),
			program.DeclareRecord(recordName),
			program.Declare(program.TypeExternalRecord),
		},
		Registers: []uint64{10, 11, 12, 13, 14},
		Proof:     []byte{0xde, 0xad, 0xbe, 0xef, 0x01},
		Fee:       1500,
	}

	x.Request, err = request.SignRequest(sender, x.NetworkID, pid, function, x.Inputs, x.InputTypes, &SeqReader{})
	if err != nil {
		return nil, err
	}

	randomizer := crypto.HashToScalarPSD2(x.Request.TVK, crypto.FieldFromUint64(x.Registers[3]))
	outRecord := program.NewRecord(recipient.Address(), 250,
		[]crypto.Field{crypto.FieldFromUint64(21)},
		crypto.GeneratorMul(randomizer))
	externalOut := program.NewRecord(recipient.Address(), 125,
		[]crypto.Field{crypto.FieldFromUint64(30)},
		crypto.GeneratorMul(crypto.NewScalar(99)))

	x.Outputs = []program.Value{
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(10))),
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(11))),
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(12), crypto.FieldFromUint64(13))),
		program.RecordValue(outRecord),
		program.RecordValue(externalOut),
	}
	x.OutputTypes = []program.DeclaredType{
		program.Declare(program.TypeConstant),
		program.Declare(program.TypePublic),
		program.Declare(program.TypePrivate),
		program.DeclareRecord(recordName),
		program.Declare(program.TypeExternalRecord),
	}
	return x, nil
}

// Assemble turns the execution into a transition, optionally with a
// finalize payload.
func (x *Execution) Assemble(finalize []program.Value) (*transition.Transition, error) {
	return transition.NewTransition(x.Request, x.Outputs, finalize, x.OutputTypes, x.Registers, x.Proof, x.Fee)
}

// NewEpoch builds an epoch challenge whose block hash is derived from
// the epoch number, so tests agree on it without a chain.
func NewEpoch(number uint32, degree uint32) (*puzzle.EpochChallenge, error) {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], number)
	return puzzle.NewEpochChallenge(number, sha256.Sum256(le[:]), degree)
}
