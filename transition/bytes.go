// bytes.go implements the versioned little-endian wire encoding of a
// transition. Decoding recomputes the transition ID from the decoded
// inputs and outputs and rejects the buffer when it disagrees.
package transition

import (
	"encoding/binary"
	"fmt"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/request"
)

// encodingVersion is the only wire version this package reads or
// writes.
const encodingVersion uint16 = 0

// Input variant tags on the wire.
const (
	tagConstant byte = iota
	tagPublic
	tagPrivate
	tagRecord
	tagExternalRecord
)

// Finalize value kinds on the wire.
const (
	kindPlaintext byte = iota
	kindRecord
)

// Bytes encodes the transition.
func (t *Transition) Bytes() []byte {
	var w writer
	w.u16(encodingVersion)
	w.field(t.id)
	w.identifier(t.programID.Name)
	w.identifier(t.programID.Network)
	w.identifier(t.functionName)

	w.u16(uint16(len(t.inputs)))
	for _, in := range t.inputs {
		w.input(in)
	}
	w.u16(uint16(len(t.outputs)))
	for _, out := range t.outputs {
		w.output(out)
	}

	if t.hasFinalize {
		w.u8(1)
		w.u16(uint16(len(t.finalize)))
		for _, v := range t.finalize {
			w.value(v)
		}
	} else {
		w.u8(0)
	}

	w.u16(uint16(len(t.proof)))
	w.bytes(t.proof)
	w.point(t.tpk)
	w.field(t.tcm)
	w.u64(uint64(t.fee))
	return w.buf
}

// FromBytes decodes a transition, rejecting unknown versions, malformed
// structure, trailing bytes, and any buffer whose recomputed ID differs
// from the encoded one.
func FromBytes(data []byte) (*Transition, error) {
	r := reader{buf: data}

	if v := r.u16(); r.err == nil && v != encodingVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	id := r.field()
	name := r.identifier()
	network := r.identifier()
	function := r.identifier()

	numInputs := int(r.u16())
	if r.err == nil && numInputs > MaxInputs {
		return nil, ErrTooManyInputs
	}
	var inputs []Input
	for i := 0; i < numInputs && r.err == nil; i++ {
		inputs = append(inputs, r.input())
	}

	numOutputs := int(r.u16())
	if r.err == nil && numOutputs > MaxOutputs {
		return nil, ErrTooManyOutputs
	}
	var outputs []Output
	for j := 0; j < numOutputs && r.err == nil; j++ {
		outputs = append(outputs, r.output())
	}

	var finalize []program.Value
	hasFinalize := false
	switch variant := r.u8(); {
	case r.err != nil:
	case variant == 0:
	case variant == 1:
		hasFinalize = true
		count := int(r.u16())
		finalize = make([]program.Value, 0, count)
		for k := 0; k < count && r.err == nil; k++ {
			finalize = append(finalize, r.value())
		}
	default:
		return nil, fmt.Errorf("%w: finalize variant %d", ErrEncoding, variant)
	}

	proof := r.bytes(int(r.u16()))
	tpk := r.point()
	tcm := r.field()
	fee := int64(r.u64())

	if r.err != nil {
		return nil, r.err
	}
	if len(r.buf) != r.pos {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrEncoding, len(r.buf)-r.pos)
	}

	candidate, err := transitionID(request.Plain(), inputs, outputs)
	if err != nil {
		return nil, err
	}
	if !crypto.FieldsEqual(candidate, id) {
		return nil, ErrCorrupt
	}

	return &Transition{
		id:           id,
		programID:    program.NewProgramID(name, network),
		functionName: function,
		inputs:       inputs,
		outputs:      outputs,
		finalize:     finalize,
		hasFinalize:  hasFinalize,
		proof:        proof,
		tpk:          tpk,
		tcm:          tcm,
		fee:          fee,
	}, nil
}

// writer accumulates the encoding in an append-grown buffer.
type writer struct {
	buf []byte
}

func (w *writer) u8(v byte)  { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}
func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}
func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) field(f crypto.Field) {
	le := crypto.FieldToBytesLE(f)
	w.bytes(le[:])
}

func (w *writer) point(p crypto.Group) {
	enc := crypto.GroupToBytes(p)
	w.bytes(enc[:])
}

func (w *writer) identifier(id program.Identifier) {
	w.u8(byte(len(id)))
	w.bytes([]byte(id))
}

func (w *writer) fields(fs []crypto.Field) {
	w.u16(uint16(len(fs)))
	for _, f := range fs {
		w.field(f)
	}
}

func (w *writer) plaintext(p *program.Plaintext) {
	w.bool(p != nil)
	if p != nil {
		w.fields(p.ToFields())
	}
}

func (w *writer) ciphertext(fs []crypto.Field) {
	w.bool(fs != nil)
	if fs != nil {
		w.fields(fs)
	}
}

func (w *writer) recordCiphertext(c *program.RecordCiphertext) {
	w.bool(c != nil)
	if c != nil {
		w.field(c.MaskedOwner())
		w.field(c.MaskedGates())
		w.fields(c.MaskedData())
		w.point(c.Nonce())
	}
}

func (w *writer) record(rec program.Record) {
	w.point(rec.Owner().Point())
	w.u64(rec.Gates())
	w.fields(rec.Data())
	w.point(rec.Nonce())
}

func (w *writer) value(v program.Value) {
	if rec, ok := v.Record(); ok {
		w.u8(kindRecord)
		w.record(rec)
		return
	}
	p, _ := v.Plaintext()
	w.u8(kindPlaintext)
	w.fields(p.ToFields())
}

func (w *writer) input(in Input) {
	switch in := in.(type) {
	case ConstantInput:
		w.u8(tagConstant)
		w.field(in.Hash)
		w.plaintext(in.Value)
	case PublicInput:
		w.u8(tagPublic)
		w.field(in.Hash)
		w.plaintext(in.Value)
	case PrivateInput:
		w.u8(tagPrivate)
		w.field(in.Hash)
		w.ciphertext(in.Ciphertext)
	case RecordInput:
		w.u8(tagRecord)
		w.field(in.SerialNumber)
		w.field(in.Tag)
	case ExternalRecordInput:
		w.u8(tagExternalRecord)
		w.field(in.Hash)
	}
}

func (w *writer) output(out Output) {
	switch out := out.(type) {
	case ConstantOutput:
		w.u8(tagConstant)
		w.field(out.Hash)
		w.plaintext(out.Value)
	case PublicOutput:
		w.u8(tagPublic)
		w.field(out.Hash)
		w.plaintext(out.Value)
	case PrivateOutput:
		w.u8(tagPrivate)
		w.field(out.Hash)
		w.ciphertext(out.Ciphertext)
	case RecordOutput:
		w.u8(tagRecord)
		w.field(out.Commitment)
		w.field(out.Checksum)
		w.recordCiphertext(out.Record)
	case ExternalRecordOutput:
		w.u8(tagExternalRecord)
		w.field(out.Hash)
	}
}

// reader is a cursor over the encoding with a sticky error. Once a read
// fails every later read returns a zero value, so decode logic can run
// straight through and check the error once.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.buf) {
		r.fail("%w: truncated at byte %d", ErrEncoding, r.pos)
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *reader) bool() bool {
	switch v := r.u8(); {
	case r.err != nil:
		return false
	case v == 0:
		return false
	case v == 1:
		return true
	default:
		r.fail("%w: boolean byte %d", ErrEncoding, v)
		return false
	}
}

func (r *reader) field() crypto.Field {
	b := r.take(crypto.FieldBytes)
	if b == nil {
		return crypto.Field{}
	}
	f, err := crypto.FieldFromBytesLE(b)
	if err != nil {
		r.fail("%w: %v", ErrEncoding, err)
		return crypto.Field{}
	}
	return f
}

func (r *reader) point() crypto.Group {
	b := r.take(crypto.GroupBytes)
	if b == nil {
		return crypto.Group{}
	}
	p, err := crypto.GroupFromBytes(b)
	if err != nil {
		r.fail("%w: %v", ErrEncoding, err)
		return crypto.Group{}
	}
	return p
}

func (r *reader) identifier() program.Identifier {
	n := int(r.u8())
	b := r.take(n)
	if b == nil {
		return ""
	}
	id, err := program.NewIdentifier(string(b))
	if err != nil {
		r.fail("%w: %v", ErrEncoding, err)
		return ""
	}
	return id
}

func (r *reader) fields() []crypto.Field {
	n := int(r.u16())
	if r.err != nil {
		return nil
	}
	out := make([]crypto.Field, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.field())
	}
	return out
}

func (r *reader) plaintext() *program.Plaintext {
	if !r.bool() {
		return nil
	}
	p := program.NewPlaintext(r.fields()...)
	if r.err != nil {
		return nil
	}
	return &p
}

func (r *reader) ciphertext() []crypto.Field {
	if !r.bool() {
		return nil
	}
	return r.fields()
}

func (r *reader) recordCiphertext() *program.RecordCiphertext {
	if !r.bool() {
		return nil
	}
	owner := r.field()
	gates := r.field()
	data := r.fields()
	nonce := r.point()
	if r.err != nil {
		return nil
	}
	c := program.NewRecordCiphertext(owner, gates, data, nonce)
	return &c
}

func (r *reader) record() program.Record {
	ownerPoint := r.point()
	gates := r.u64()
	data := r.fields()
	nonce := r.point()
	if r.err != nil {
		return program.Record{}
	}
	return program.NewRecord(account.AddressFromPoint(ownerPoint), gates, data, nonce)
}

func (r *reader) value() program.Value {
	switch kind := r.u8(); {
	case r.err != nil:
		return program.Value{}
	case kind == kindPlaintext:
		return program.PlaintextValue(program.NewPlaintext(r.fields()...))
	case kind == kindRecord:
		return program.RecordValue(r.record())
	default:
		r.fail("%w: value kind %d", ErrEncoding, kind)
		return program.Value{}
	}
}

func (r *reader) input() Input {
	switch tag := r.u8(); {
	case r.err != nil:
		return nil
	case tag == tagConstant:
		return ConstantInput{Hash: r.field(), Value: r.plaintext()}
	case tag == tagPublic:
		return PublicInput{Hash: r.field(), Value: r.plaintext()}
	case tag == tagPrivate:
		return PrivateInput{Hash: r.field(), Ciphertext: r.ciphertext()}
	case tag == tagRecord:
		return RecordInput{SerialNumber: r.field(), Tag: r.field()}
	case tag == tagExternalRecord:
		return ExternalRecordInput{Hash: r.field()}
	default:
		r.fail("%w: input tag %d", ErrEncoding, tag)
		return nil
	}
}

func (r *reader) output() Output {
	switch tag := r.u8(); {
	case r.err != nil:
		return nil
	case tag == tagConstant:
		return ConstantOutput{Hash: r.field(), Value: r.plaintext()}
	case tag == tagPublic:
		return PublicOutput{Hash: r.field(), Value: r.plaintext()}
	case tag == tagPrivate:
		return PrivateOutput{Hash: r.field(), Ciphertext: r.ciphertext()}
	case tag == tagRecord:
		return RecordOutput{Commitment: r.field(), Checksum: r.field(), Record: r.recordCiphertext()}
	case tag == tagExternalRecord:
		return ExternalRecordOutput{Hash: r.field()}
	default:
		r.fail("%w: output tag %d", ErrEncoding, tag)
		return nil
	}
}
