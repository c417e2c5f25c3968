// Package transition implements the unit of state change: an immutable
// Transition assembled from a verified request and its function
// outputs, identified by the root of a hash tree over its input and
// output IDs, with fixed little-endian wire encodings.
package transition

import (
	"errors"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
)

// Bounds on one transition, which also fix the function tree shape.
const (
	MaxInputs  = 8
	MaxOutputs = 8
)

var (
	// ErrCardinality is returned when output values, declared types,
	// and register locators do not agree in count.
	ErrCardinality = errors.New("transition: output value, type, and register counts differ")

	// ErrValueKind is returned when a value's form does not match its
	// declared type.
	ErrValueKind = errors.New("transition: value kind does not match declared type")

	// ErrRecordName is returned when a record declaration carries no
	// record-type name.
	ErrRecordName = errors.New("transition: record declaration missing record name")

	// ErrInputMismatch is returned when a request input ID does not
	// match the value it claims to identify.
	ErrInputMismatch = errors.New("transition: input id does not match its value")

	// ErrRecordNonce is returned when an output record's nonce is not
	// the point of its derived randomizer.
	ErrRecordNonce = errors.New("transition: record nonce does not match its randomizer")

	// ErrTooManyInputs is returned when a transition exceeds MaxInputs.
	ErrTooManyInputs = errors.New("transition: too many inputs")

	// ErrTooManyOutputs is returned when a transition exceeds
	// MaxOutputs.
	ErrTooManyOutputs = errors.New("transition: too many outputs")

	// ErrEncoding is returned for a malformed byte encoding.
	ErrEncoding = errors.New("transition: invalid encoding")

	// ErrVersion is returned when an encoding carries an unsupported
	// version.
	ErrVersion = errors.New("transition: invalid version")

	// ErrCorrupt is returned when a decoded transition's recomputed ID
	// disagrees with the encoded one.
	ErrCorrupt = errors.New("transition: possible data corruption")
)

// Input is one consumed function input, tagged by visibility.
type Input interface {
	// ID returns the input's leaf in the function tree.
	ID() crypto.Field

	isInput()
}

// ConstantInput carries the transcript hash and, optionally, the
// constant value itself.
type ConstantInput struct {
	Hash  crypto.Field
	Value *program.Plaintext
}

// PublicInput carries the transcript hash and, optionally, the public
// value itself.
type PublicInput struct {
	Hash  crypto.Field
	Value *program.Plaintext
}

// PrivateInput carries the ciphertext hash and, optionally, the
// ciphertext. A nil ciphertext means the value was not transmitted.
type PrivateInput struct {
	Hash       crypto.Field
	Ciphertext []crypto.Field
}

// RecordInput marks a record as spent by its serial number and tag.
// The record itself never appears.
type RecordInput struct {
	SerialNumber crypto.Field
	Tag          crypto.Field
}

// ExternalRecordInput carries the input commitment of a foreign
// program's record.
type ExternalRecordInput struct {
	Hash crypto.Field
}

func (i ConstantInput) ID() crypto.Field       { return i.Hash }
func (i PublicInput) ID() crypto.Field         { return i.Hash }
func (i PrivateInput) ID() crypto.Field        { return i.Hash }
func (i RecordInput) ID() crypto.Field         { return i.SerialNumber }
func (i ExternalRecordInput) ID() crypto.Field { return i.Hash }

func (ConstantInput) isInput()       {}
func (PublicInput) isInput()         {}
func (PrivateInput) isInput()        {}
func (RecordInput) isInput()         {}
func (ExternalRecordInput) isInput() {}

// Output is one produced function output, tagged by visibility.
type Output interface {
	// ID returns the output's leaf in the function tree.
	ID() crypto.Field

	isOutput()
}

// ConstantOutput carries the transcript hash and, optionally, the
// constant value.
type ConstantOutput struct {
	Hash  crypto.Field
	Value *program.Plaintext
}

// PublicOutput carries the transcript hash and, optionally, the public
// value.
type PublicOutput struct {
	Hash  crypto.Field
	Value *program.Plaintext
}

// PrivateOutput carries the ciphertext hash and, optionally, the
// ciphertext.
type PrivateOutput struct {
	Hash       crypto.Field
	Ciphertext []crypto.Field
}

// RecordOutput carries the record commitment, the ciphertext checksum,
// and, optionally, the encrypted record.
type RecordOutput struct {
	Commitment crypto.Field
	Checksum   crypto.Field
	Record     *program.RecordCiphertext
}

// ExternalRecordOutput carries the output commitment of a foreign
// program's record.
type ExternalRecordOutput struct {
	Hash crypto.Field
}

func (o ConstantOutput) ID() crypto.Field       { return o.Hash }
func (o PublicOutput) ID() crypto.Field         { return o.Hash }
func (o PrivateOutput) ID() crypto.Field        { return o.Hash }
func (o RecordOutput) ID() crypto.Field         { return o.Commitment }
func (o ExternalRecordOutput) ID() crypto.Field { return o.Hash }

func (ConstantOutput) isOutput()       {}
func (PublicOutput) isOutput()         {}
func (PrivateOutput) isOutput()        {}
func (RecordOutput) isOutput()         {}
func (ExternalRecordOutput) isOutput() {}

// Transition is the assembled, immutable unit of state change. It is
// constructed only by NewTransition, which re-validates every input
// and output identifier; the ID is a pure function of the contents.
type Transition struct {
	id           crypto.Field
	programID    program.ProgramID
	functionName program.Identifier
	inputs       []Input
	outputs      []Output
	finalize     []program.Value
	hasFinalize  bool
	proof        []byte
	tpk          crypto.Group
	tcm          crypto.Field
	fee          int64
}

// ID returns the transition ID, the function tree root.
func (t *Transition) ID() crypto.Field { return t.id }

// ProgramID returns the called program.
func (t *Transition) ProgramID() program.ProgramID { return t.programID }

// FunctionName returns the called function.
func (t *Transition) FunctionName() program.Identifier { return t.functionName }

// Inputs returns the transition inputs.
func (t *Transition) Inputs() []Input {
	out := make([]Input, len(t.inputs))
	copy(out, t.inputs)
	return out
}

// Outputs returns the transition outputs.
func (t *Transition) Outputs() []Output {
	out := make([]Output, len(t.outputs))
	copy(out, t.outputs)
	return out
}

// Finalize returns the finalize inputs and whether any were attached.
func (t *Transition) Finalize() ([]program.Value, bool) {
	if !t.hasFinalize {
		return nil, false
	}
	out := make([]program.Value, len(t.finalize))
	copy(out, t.finalize)
	return out, true
}

// Proof returns the execution proof bytes.
func (t *Transition) Proof() []byte {
	out := make([]byte, len(t.proof))
	copy(out, t.proof)
	return out
}

// TPK returns the transition public key.
func (t *Transition) TPK() crypto.Group { return t.tpk }

// TCM returns the transition commitment.
func (t *Transition) TCM() crypto.Field { return t.tcm }

// Fee returns the transition fee.
func (t *Transition) Fee() int64 { return t.fee }

// SerialNumbers returns the serial numbers of all record inputs, in
// order.
func (t *Transition) SerialNumbers() []crypto.Field {
	var out []crypto.Field
	for _, in := range t.inputs {
		if r, ok := in.(RecordInput); ok {
			out = append(out, r.SerialNumber)
		}
	}
	return out
}

// Tags returns the tags of all record inputs, in order.
func (t *Transition) Tags() []crypto.Field {
	var out []crypto.Field
	for _, in := range t.inputs {
		if r, ok := in.(RecordInput); ok {
			out = append(out, r.Tag)
		}
	}
	return out
}

// Commitments returns the commitments of all record outputs, in order.
func (t *Transition) Commitments() []crypto.Field {
	var out []crypto.Field
	for _, o := range t.outputs {
		if r, ok := o.(RecordOutput); ok {
			out = append(out, r.Commitment)
		}
	}
	return out
}
