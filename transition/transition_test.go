package transition

import (
	"bytes"
	"errors"
	"testing"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/request"
)

// seqReader yields a deterministic byte stream, so signing in tests is
// reproducible.
type seqReader struct{ b byte }

func (r *seqReader) Read(p []byte) (int, error) {
	for i := range p {
		r.b++
		p[i] = r.b
	}
	return len(p), nil
}

// testExecution is a signed request plus the outputs of executing it,
// one value of every visibility on each side.
type testExecution struct {
	sk         *account.PrivateKey
	recipient  *account.PrivateKey
	networkID  uint16
	pid        program.ProgramID
	function   program.Identifier
	recordName program.Identifier

	inputs     []program.Value
	inputTypes []program.DeclaredType
	req        *request.Request

	outputs     []program.Value
	outputTypes []program.DeclaredType
	registers   []uint64
	proof       []byte
	fee         int64
}

func newTestExecution(t *testing.T) *testExecution {
	t.Helper()
	sk, err := account.PrivateKeyFromSeed(crypto.FieldFromUint64(7))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	recipient, err := account.PrivateKeyFromSeed(crypto.FieldFromUint64(8))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}

	pid, _ := program.ParseProgramID("credits.avm")
	function, _ := program.NewIdentifier("transfer")
	recordName, _ := program.NewIdentifier("credits")

	owned := program.NewRecord(sk.Address(), 1000,
		[]crypto.Field{crypto.FieldFromUint64(6)},
		crypto.GeneratorMul(crypto.NewScalar(77)))
	foreign := program.NewRecord(recipient.Address(), 500,
		[]crypto.Field{crypto.FieldFromUint64(9)},
		crypto.GeneratorMul(crypto.NewScalar(88)))

	x := &testExecution{
		sk:         sk,
		recipient:  recipient,
		networkID:  3,
		pid:        pid,
		function:   function,
		recordName: recordName,
		inputs: []program.Value{
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(1), crypto.FieldFromUint64(2))),
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(3))),
			program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(4), crypto.FieldFromUint64(5))),
			program.RecordValue(owned),
			program.RecordValue(foreign),
		},
		inputTypes: []program.DeclaredType{
			program.Declare(program.TypeConstant),
			program.Declare(program.TypePublic),
			program.Declare(program.TypePrivate),
			program.DeclareRecord(recordName),
			program.Declare(program.TypeExternalRecord),
		},
		registers: []uint64{10, 11, 12, 13, 14},
		proof:     []byte{0xde, 0xad, 0xbe, 0xef, 0x01},
		fee:       1500,
	}

	x.req, err = request.SignRequest(sk, x.networkID, pid, function, x.inputs, x.inputTypes, &seqReader{})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// The record output nonce must be the randomizer point for its
	// destination register, exactly what an executor would produce.
	randomizer := crypto.HashToScalarPSD2(x.req.TVK, crypto.FieldFromUint64(x.registers[3]))
	outRecord := program.NewRecord(recipient.Address(), 250,
		[]crypto.Field{crypto.FieldFromUint64(21)},
		crypto.GeneratorMul(randomizer))
	externalOut := program.NewRecord(recipient.Address(), 125,
		[]crypto.Field{crypto.FieldFromUint64(30)},
		crypto.GeneratorMul(crypto.NewScalar(99)))

	x.outputs = []program.Value{
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(10))),
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(11))),
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(12), crypto.FieldFromUint64(13))),
		program.RecordValue(outRecord),
		program.RecordValue(externalOut),
	}
	x.outputTypes = []program.DeclaredType{
		program.Declare(program.TypeConstant),
		program.Declare(program.TypePublic),
		program.Declare(program.TypePrivate),
		program.DeclareRecord(recordName),
		program.Declare(program.TypeExternalRecord),
	}
	return x
}

func (x *testExecution) assemble(t *testing.T, finalize []program.Value) *Transition {
	t.Helper()
	tr, err := NewTransition(x.req, x.outputs, finalize, x.outputTypes, x.registers, x.proof, x.fee)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return tr
}

func TestNewTransitionRoundTrip(t *testing.T) {
	x := newTestExecution(t)

	tpk, err := x.req.ToTPK()
	if err != nil {
		t.Fatalf("tpk: %v", err)
	}
	ok, err := x.req.Verify(x.inputTypes, tpk)
	if err != nil || !ok {
		t.Fatalf("request verify: ok=%v err=%v", ok, err)
	}

	tr := x.assemble(t, nil)

	if crypto.FieldsEqual(tr.ID(), crypto.Field{}) {
		t.Fatal("transition id is zero")
	}
	if !tr.ProgramID().Equal(x.pid) || tr.FunctionName() != x.function {
		t.Fatalf("call site: got %s/%s", tr.ProgramID(), tr.FunctionName())
	}
	if tr.TCM() != x.req.TCM {
		t.Fatal("tcm not carried over")
	}
	got := tr.TPK()
	if !got.Equal(&tpk) {
		t.Fatal("tpk not carried over")
	}
	if tr.Fee() != x.fee || !bytes.Equal(tr.Proof(), x.proof) {
		t.Fatal("fee or proof not carried over")
	}
	if _, has := tr.Finalize(); has {
		t.Fatal("unexpected finalize inputs")
	}

	ins := tr.Inputs()
	if len(ins) != 5 {
		t.Fatalf("got %d inputs, want 5", len(ins))
	}
	if _, ok := ins[0].(ConstantInput); !ok {
		t.Fatalf("input 0: %T", ins[0])
	}
	if _, ok := ins[1].(PublicInput); !ok {
		t.Fatalf("input 1: %T", ins[1])
	}
	private, ok := ins[2].(PrivateInput)
	if !ok {
		t.Fatalf("input 2: %T", ins[2])
	}
	if len(private.Ciphertext) != 2 {
		t.Fatalf("private input ciphertext has %d elements, want 2", len(private.Ciphertext))
	}
	recIn, ok := ins[3].(RecordInput)
	if !ok {
		t.Fatalf("input 3: %T", ins[3])
	}
	if _, ok := ins[4].(ExternalRecordInput); !ok {
		t.Fatalf("input 4: %T", ins[4])
	}

	recID, ok := x.req.InputIDs[3].(request.RecordInputID)
	if !ok {
		t.Fatalf("request input 3: %T", x.req.InputIDs[3])
	}
	if !crypto.FieldsEqual(recIn.SerialNumber, recID.SerialNumber) || !crypto.FieldsEqual(recIn.Tag, recID.Tag) {
		t.Fatal("record input does not carry the request's serial number and tag")
	}

	outs := tr.Outputs()
	if len(outs) != 5 {
		t.Fatalf("got %d outputs, want 5", len(outs))
	}
	recOut, ok := outs[3].(RecordOutput)
	if !ok {
		t.Fatalf("output 3: %T", outs[3])
	}
	if recOut.Record == nil {
		t.Fatal("record output lost its ciphertext")
	}

	// The recipient can decrypt the record output with their view key.
	dec, err := recOut.Record.Decrypt(x.recipient.ViewKey())
	if err != nil {
		t.Fatalf("decrypt record output: %v", err)
	}
	if dec.Gates() != 250 || !dec.Owner().Equal(x.recipient.Address()) {
		t.Fatalf("decrypted record: gates=%d owner=%s", dec.Gates(), dec.Owner())
	}
	data := dec.Data()
	if len(data) != 1 || !crypto.FieldsEqual(data[0], crypto.FieldFromUint64(21)) {
		t.Fatal("decrypted record data mismatch")
	}

	checksum, err := crypto.HashBHP1024(recOut.Record.ToBitsLE())
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if !crypto.FieldsEqual(checksum, recOut.Checksum) {
		t.Fatal("checksum does not match the ciphertext")
	}

	if sns := tr.SerialNumbers(); len(sns) != 1 || !crypto.FieldsEqual(sns[0], recIn.SerialNumber) {
		t.Fatal("serial number accessor mismatch")
	}
	if tags := tr.Tags(); len(tags) != 1 || !crypto.FieldsEqual(tags[0], recIn.Tag) {
		t.Fatal("tag accessor mismatch")
	}
	if cms := tr.Commitments(); len(cms) != 1 || !crypto.FieldsEqual(cms[0], recOut.Commitment) {
		t.Fatal("commitment accessor mismatch")
	}
}

func TestTransitionIDDeterminism(t *testing.T) {
	x := newTestExecution(t)

	a := x.assemble(t, nil)
	b := x.assemble(t, nil)
	if !crypto.FieldsEqual(a.ID(), b.ID()) {
		t.Fatal("same contents, different ids")
	}

	// Proof, fee, and finalize are outside the id.
	c, err := NewTransition(x.req, x.outputs, []program.Value{x.outputs[0]}, x.outputTypes, x.registers, []byte{0x99}, 9)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !crypto.FieldsEqual(a.ID(), c.ID()) {
		t.Fatal("proof, fee, or finalize leaked into the id")
	}

	// A changed output value is a changed id.
	outputs := make([]program.Value, len(x.outputs))
	copy(outputs, x.outputs)
	outputs[0] = program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(999)))
	d, err := NewTransition(x.req, outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if crypto.FieldsEqual(a.ID(), d.ID()) {
		t.Fatal("different outputs, same id")
	}
}

func TestNewTransitionFinalize(t *testing.T) {
	x := newTestExecution(t)
	finalize := []program.Value{
		program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(40))),
		x.inputs[3],
	}

	tr := x.assemble(t, finalize)
	got, has := tr.Finalize()
	if !has {
		t.Fatal("finalize inputs dropped")
	}
	if len(got) != 2 {
		t.Fatalf("got %d finalize inputs, want 2", len(got))
	}
	if _, isRecord := got[1].Record(); !isRecord {
		t.Fatal("finalize record input lost its kind")
	}
}

func TestNewTransitionErrors(t *testing.T) {
	t.Run("output cardinality", func(t *testing.T) {
		x := newTestExecution(t)
		_, err := NewTransition(x.req, x.outputs, nil, x.outputTypes[:4], x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrCardinality) {
			t.Fatalf("got %v, want ErrCardinality", err)
		}
	})

	t.Run("too many outputs", func(t *testing.T) {
		x := newTestExecution(t)
		outputs := make([]program.Value, MaxOutputs+1)
		types := make([]program.DeclaredType, MaxOutputs+1)
		registers := make([]uint64, MaxOutputs+1)
		for i := range outputs {
			outputs[i] = program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(uint64(i))))
			types[i] = program.Declare(program.TypeConstant)
			registers[i] = uint64(i)
		}
		_, err := NewTransition(x.req, outputs, nil, types, registers, x.proof, x.fee)
		if !errors.Is(err, ErrTooManyOutputs) {
			t.Fatalf("got %v, want ErrTooManyOutputs", err)
		}
	})

	t.Run("too many inputs", func(t *testing.T) {
		x := newTestExecution(t)
		inputs := make([]program.Value, MaxInputs+1)
		types := make([]program.DeclaredType, MaxInputs+1)
		for i := range inputs {
			inputs[i] = program.PlaintextValue(program.NewPlaintext(crypto.FieldFromUint64(uint64(i))))
			types[i] = program.Declare(program.TypeConstant)
		}
		req, err := request.SignRequest(x.sk, x.networkID, x.pid, x.function, inputs, types, &seqReader{})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		_, err = NewTransition(req, x.outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrTooManyInputs) {
			t.Fatalf("got %v, want ErrTooManyInputs", err)
		}
	})

	t.Run("output value kind", func(t *testing.T) {
		x := newTestExecution(t)
		outputs := make([]program.Value, len(x.outputs))
		copy(outputs, x.outputs)
		outputs[1] = x.outputs[3] // record value where a plaintext is declared
		_, err := NewTransition(x.req, outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrValueKind) {
			t.Fatalf("got %v, want ErrValueKind", err)
		}
	})

	t.Run("record name missing", func(t *testing.T) {
		x := newTestExecution(t)
		types := make([]program.DeclaredType, len(x.outputTypes))
		copy(types, x.outputTypes)
		types[3] = program.Declare(program.TypeRecord)
		_, err := NewTransition(x.req, x.outputs, nil, types, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrRecordName) {
			t.Fatalf("got %v, want ErrRecordName", err)
		}
	})

	t.Run("record nonce", func(t *testing.T) {
		x := newTestExecution(t)
		outputs := make([]program.Value, len(x.outputs))
		copy(outputs, x.outputs)
		rec, _ := x.outputs[3].Record()
		outputs[3] = program.RecordValue(program.NewRecord(
			rec.Owner(), rec.Gates(), rec.Data(), crypto.GeneratorMul(crypto.NewScalar(123))))
		_, err := NewTransition(x.req, outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrRecordNonce) {
			t.Fatalf("got %v, want ErrRecordNonce", err)
		}
	})

	t.Run("tampered input id", func(t *testing.T) {
		x := newTestExecution(t)
		x.req.InputIDs[0] = request.ConstantInputID{Hash: crypto.FieldFromUint64(999)}
		_, err := NewTransition(x.req, x.outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrInputMismatch) {
			t.Fatalf("got %v, want ErrInputMismatch", err)
		}
	})

	t.Run("tampered record serial", func(t *testing.T) {
		x := newTestExecution(t)
		id := x.req.InputIDs[3].(request.RecordInputID)
		id.SerialNumber = crypto.FieldFromUint64(999)
		x.req.InputIDs[3] = id
		_, err := NewTransition(x.req, x.outputs, nil, x.outputTypes, x.registers, x.proof, x.fee)
		if !errors.Is(err, ErrInputMismatch) {
			t.Fatalf("got %v, want ErrInputMismatch", err)
		}
	})
}
