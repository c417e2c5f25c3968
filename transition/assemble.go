// assemble.go builds a Transition from a verified request and the
// function's outputs. Every input identifier is re-validated against
// its value, every output identifier is derived fresh, and any
// disagreement is a fatal construction error.
package transition

import (
	"fmt"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
	"github.com/avmlabs/go-avm/request"
)

// NewTransition assembles a transition on the plain execution path.
//
// outputs are the function's output values; outputTypes their declared
// visibilities; outputRegisters the destination register locator of
// each output, which seeds the record-output randomizer. The request
// must already be verified; its signature supplies tpk.
func NewTransition(req *request.Request, outputs []program.Value, finalize []program.Value, outputTypes []program.DeclaredType, outputRegisters []uint64, proof []byte, fee int64) (*Transition, error) {
	return NewTransitionWith(request.Plain(), req, outputs, finalize, outputTypes, outputRegisters, proof, fee)
}

// NewTransitionWith assembles a transition using the given evaluator.
func NewTransitionWith(ev request.Evaluator, req *request.Request, outputs []program.Value, finalize []program.Value, outputTypes []program.DeclaredType, outputRegisters []uint64, proof []byte, fee int64) (*Transition, error) {
	if len(outputs) != len(outputTypes) || len(outputs) != len(outputRegisters) {
		return nil, ErrCardinality
	}
	if len(req.InputIDs) > MaxInputs {
		return nil, ErrTooManyInputs
	}
	if len(outputs) > MaxOutputs {
		return nil, ErrTooManyOutputs
	}
	if len(req.InputIDs) != len(req.Inputs) {
		return nil, fmt.Errorf("%w: request carries %d input ids for %d inputs", ErrCardinality, len(req.InputIDs), len(req.Inputs))
	}

	functionID, err := req.FunctionID()
	if err != nil {
		return nil, err
	}

	ins := make([]Input, len(req.InputIDs))
	for i := range req.InputIDs {
		in, err := assembleInput(ev, req, functionID, i)
		if err != nil {
			return nil, err
		}
		ins[i] = in
	}

	outs := make([]Output, len(outputs))
	for j := range outputs {
		// Output indices continue after the inputs, so an input and an
		// output can never hash at the same position.
		idx := crypto.FieldFromUint64(uint64(len(ins) + j))
		out, err := assembleOutput(ev, req, functionID, idx, outputs[j], outputTypes[j], outputRegisters[j])
		if err != nil {
			return nil, err
		}
		outs[j] = out
	}

	id, err := transitionID(ev, ins, outs)
	if err != nil {
		return nil, err
	}

	tpk, err := req.ToTPK()
	if err != nil {
		return nil, err
	}

	t := &Transition{
		id:           id,
		programID:    req.ProgramID,
		functionName: req.FunctionName,
		inputs:       ins,
		outputs:      outs,
		hasFinalize:  finalize != nil,
		proof:        make([]byte, len(proof)),
		tpk:          tpk,
		tcm:          req.TCM,
		fee:          fee,
	}
	copy(t.proof, proof)
	if finalize != nil {
		t.finalize = make([]program.Value, len(finalize))
		copy(t.finalize, finalize)
	}
	return t, nil
}

// FromParts reassembles a transition from previously validated parts,
// as read back from storage. The ID is recomputed from the input and
// output IDs; the parts themselves are not re-derived. A nil finalize
// means none was attached.
func FromParts(programID program.ProgramID, functionName program.Identifier, inputs []Input, outputs []Output, finalize []program.Value, proof []byte, tpk crypto.Group, tcm crypto.Field, fee int64) (*Transition, error) {
	id, err := transitionID(request.Plain(), inputs, outputs)
	if err != nil {
		return nil, err
	}

	t := &Transition{
		id:           id,
		programID:    programID,
		functionName: functionName,
		inputs:       make([]Input, len(inputs)),
		outputs:      make([]Output, len(outputs)),
		hasFinalize:  finalize != nil,
		proof:        make([]byte, len(proof)),
		tpk:          tpk,
		tcm:          tcm,
		fee:          fee,
	}
	copy(t.inputs, inputs)
	copy(t.outputs, outputs)
	copy(t.proof, proof)
	if finalize != nil {
		t.finalize = make([]program.Value, len(finalize))
		copy(t.finalize, finalize)
	}
	return t, nil
}

// assembleInput re-validates one request input ID and converts it to a
// transition input.
func assembleInput(ev request.Evaluator, req *request.Request, functionID crypto.Field, i int) (Input, error) {
	idx := crypto.FieldFromUint64(uint64(i))
	value := req.Inputs[i]

	switch id := req.InputIDs[i].(type) {
	case request.ConstantInputID:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: input %d", ErrValueKind, i)
		}
		candidate := ev.HashPSD8(plaintextPreimage(functionID, p.ToFields(), req.TCM, idx)...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		return ConstantInput{Hash: id.Hash, Value: &p}, nil

	case request.PublicInputID:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: input %d", ErrValueKind, i)
		}
		candidate := ev.HashPSD8(plaintextPreimage(functionID, p.ToFields(), req.TCM, idx)...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		return PublicInput{Hash: id.Hash, Value: &p}, nil

	case request.PrivateInputID:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: input %d", ErrValueKind, i)
		}
		key := ev.HashPSD4(functionID, req.TVK, idx)
		ciphertext := ev.EncryptSymmetric(p.ToFields(), key)
		candidate := ev.HashPSD8(ciphertext...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		return PrivateInput{Hash: id.Hash, Ciphertext: ciphertext}, nil

	case request.RecordInputID:
		candidateSN, err := ev.SerialNumber(id.Gamma, id.Commitment)
		if err != nil {
			return nil, fmt.Errorf("transition: input %d: %w", i, err)
		}
		if !crypto.FieldsEqual(candidateSN, id.SerialNumber) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		if !crypto.FieldsEqual(ev.RecordTag(req.SkTag, id.Commitment), id.Tag) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		return RecordInput{SerialNumber: id.SerialNumber, Tag: id.Tag}, nil

	case request.ExternalRecordInputID:
		rec, ok := value.Record()
		if !ok {
			return nil, fmt.Errorf("%w: input %d", ErrValueKind, i)
		}
		candidate := ev.HashPSD8(externalRecordPreimage(functionID, rec.ToFields(), req.TVK, idx)...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		return ExternalRecordInput{Hash: id.Hash}, nil

	default:
		return nil, fmt.Errorf("transition: input %d: unknown input id variant", i)
	}
}

// assembleOutput derives one output's identifier and builds the
// transition output.
func assembleOutput(ev request.Evaluator, req *request.Request, functionID, idx crypto.Field, value program.Value, declared program.DeclaredType, register uint64) (Output, error) {
	switch declared.Type {
	case program.TypeConstant, program.TypePublic:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: output declared %s", ErrValueKind, declared.Type)
		}
		hash := ev.HashPSD8(plaintextPreimage(functionID, p.ToFields(), req.TCM, idx)...)
		if declared.Type == program.TypeConstant {
			return ConstantOutput{Hash: hash, Value: &p}, nil
		}
		return PublicOutput{Hash: hash, Value: &p}, nil

	case program.TypePrivate:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: output declared %s", ErrValueKind, declared.Type)
		}
		key := ev.HashPSD4(functionID, req.TVK, idx)
		ciphertext := ev.EncryptSymmetric(p.ToFields(), key)
		return PrivateOutput{Hash: ev.HashPSD8(ciphertext...), Ciphertext: ciphertext}, nil

	case program.TypeRecord:
		rec, ok := value.Record()
		if !ok {
			return nil, fmt.Errorf("%w: output declared %s", ErrValueKind, declared.Type)
		}
		if declared.RecordName == "" {
			return nil, ErrRecordName
		}

		// The record randomizer is seeded by the destination register
		// locator, not the output index.
		randomizer := ev.HashToScalarPSD2(req.TVK, crypto.FieldFromUint64(register))
		expectedNonce := crypto.GeneratorMul(randomizer)
		nonce := rec.Nonce()
		if !nonce.Equal(&expectedNonce) {
			return nil, ErrRecordNonce
		}

		commitment, err := ev.RecordCommitment(rec, req.ProgramID, declared.RecordName)
		if err != nil {
			return nil, fmt.Errorf("transition: output: %w", err)
		}
		ciphertext := rec.Encrypt(randomizer)
		checksum, err := ev.HashBHP1024(ciphertext.ToBitsLE())
		if err != nil {
			return nil, fmt.Errorf("transition: output: %w", err)
		}
		return RecordOutput{Commitment: commitment, Checksum: checksum, Record: &ciphertext}, nil

	case program.TypeExternalRecord:
		rec, ok := value.Record()
		if !ok {
			return nil, fmt.Errorf("%w: output declared %s", ErrValueKind, declared.Type)
		}
		hash := ev.HashPSD8(externalRecordPreimage(functionID, rec.ToFields(), req.TVK, idx)...)
		return ExternalRecordOutput{Hash: hash}, nil

	default:
		return nil, fmt.Errorf("transition: unknown declared output type %d", declared.Type)
	}
}

// plaintextPreimage assembles (functionID, fields..., tcm, index).
func plaintextPreimage(functionID crypto.Field, fields []crypto.Field, tcm, index crypto.Field) []crypto.Field {
	preimage := make([]crypto.Field, 0, len(fields)+3)
	preimage = append(preimage, functionID)
	preimage = append(preimage, fields...)
	return append(preimage, tcm, index)
}

// externalRecordPreimage assembles (functionID, fields..., tvk, index).
func externalRecordPreimage(functionID crypto.Field, fields []crypto.Field, tvk, index crypto.Field) []crypto.Field {
	preimage := make([]crypto.Field, 0, len(fields)+3)
	preimage = append(preimage, functionID)
	preimage = append(preimage, fields...)
	return append(preimage, tvk, index)
}
