// sign.go implements request signing: the derivation of the transition
// keys (tsk, tpk, tvk, tcm), the per-input identifiers, and the
// Schnorr signature over the transcript that binds them.
package request

import (
	"fmt"
	"io"
	"math/big"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
)

// SignRequest signs a function call on the plain execution path.
func SignRequest(sk *account.PrivateKey, networkID uint16, pid program.ProgramID, function program.Identifier, inputs []program.Value, inputTypes []program.DeclaredType, rng io.Reader) (*Request, error) {
	return SignRequestWith(Plain(), sk, networkID, pid, function, inputs, inputTypes, rng)
}

// SignRequestWith signs a function call using the given evaluator.
//
// The transition secret key r is derived as
// HashToScalar(sk_sig, nonce) under the serial-number domain from a
// fresh random nonce; it doubles as the signature nonce, so
// tpk = r·G is recoverable from the signature alone. The transcript is
// [tvk, tcm, functionID] followed by each input's contribution, and
// the signature challenge additionally absorbs tpk, the compute key,
// and the caller.
func SignRequestWith(ev Evaluator, sk *account.PrivateKey, networkID uint16, pid program.ProgramID, function program.Identifier, inputs []program.Value, inputTypes []program.DeclaredType, rng io.Reader) (*Request, error) {
	if len(inputs) != len(inputTypes) {
		return nil, ErrCardinality
	}

	functionID, err := program.FunctionID(networkID, pid, function)
	if err != nil {
		return nil, err
	}

	caller := sk.Address()
	skSig := sk.SkSig()
	skTag := sk.SkTag()

	nonce, err := crypto.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	r := crypto.HashToScalarPSD4(
		crypto.DomainField(crypto.SerialNumberDomain()),
		crypto.ScalarToField(skSig),
		crypto.ScalarToField(nonce),
	)

	callerPoint := caller.Point()
	tvkPoint := ev.ScalarMulPoint(&callerPoint, r)
	tvk := tvkPoint.X
	tcm := ev.HashPSD2(tvk)

	s := &signer{
		ev:         ev,
		functionID: functionID,
		caller:     caller,
		pid:        pid,
		skSig:      skSig,
		skTag:      skTag,
		r:          r,
		tvk:        tvk,
		tcm:        tcm,
		message:    make([]crypto.Field, 0, 3+4*len(inputs)),
	}
	s.message = append(s.message, tvk, tcm, functionID)

	inputIDs := make([]InputID, 0, len(inputs))
	for i := range inputs {
		id, err := s.inputID(i, inputs[i], inputTypes[i])
		if err != nil {
			return nil, err
		}
		inputIDs = append(inputIDs, id)
	}

	sig := account.SignWithNonce(sk, r, s.message)

	return &Request{
		Caller:       caller,
		NetworkID:    networkID,
		ProgramID:    pid,
		FunctionName: function,
		InputIDs:     inputIDs,
		Inputs:       inputs,
		Signature:    sig,
		SkTag:        skTag,
		TVK:          tvk,
		TCM:          tcm,
		tsk:          r,
	}, nil
}

// signer carries the per-call state threaded through input dispatch.
type signer struct {
	ev         Evaluator
	functionID crypto.Field
	caller     account.Address
	pid        program.ProgramID
	skSig      *big.Int
	skTag      crypto.Field
	r          *big.Int
	tvk        crypto.Field
	tcm        crypto.Field
	message    []crypto.Field
}

// inputID derives the identifier for one input and appends its
// transcript contribution to the message.
func (s *signer) inputID(index int, value program.Value, declared program.DeclaredType) (InputID, error) {
	idx := crypto.FieldFromUint64(uint64(index))

	switch declared.Type {
	case program.TypeConstant, program.TypePublic:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		hash := s.ev.HashPSD8(plaintextPreimage(s.functionID, p.ToFields(), s.tcm, idx)...)
		s.message = append(s.message, hash)
		if declared.Type == program.TypeConstant {
			return ConstantInputID{Hash: hash}, nil
		}
		return PublicInputID{Hash: hash}, nil

	case program.TypePrivate:
		p, ok := value.Plaintext()
		if !ok {
			return nil, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		// Input view key binds the ciphertext to this call and index.
		key := s.ev.HashPSD4(s.functionID, s.tvk, idx)
		ciphertext := s.ev.EncryptSymmetric(p.ToFields(), key)
		hash := s.ev.HashPSD8(ciphertext...)
		s.message = append(s.message, hash)
		return PrivateInputID{Hash: hash}, nil

	case program.TypeRecord:
		rec, ok := value.Record()
		if !ok {
			return nil, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		if declared.RecordName == "" {
			return nil, fmt.Errorf("%w: input %d", ErrRecordName, index)
		}
		if !rec.Owner().Equal(s.caller) {
			return nil, fmt.Errorf("%w: input %d", ErrRecordOwner, index)
		}
		if !program.GatesInBounds(rec.Gates()) {
			return nil, fmt.Errorf("request: input %d: %w", index, program.ErrGatesRange)
		}

		commitment, err := s.ev.RecordCommitment(rec, s.pid, declared.RecordName)
		if err != nil {
			return nil, fmt.Errorf("request: input %d: %w", index, err)
		}
		h, err := s.ev.HashToGroup(crypto.SerialNumberDomain(), commitment)
		if err != nil {
			return nil, fmt.Errorf("request: input %d: %w", index, err)
		}
		hR := s.ev.ScalarMulPoint(&h, s.r)
		gamma := s.ev.ScalarMulPoint(&h, s.skSig)

		serialNumber, err := s.ev.SerialNumber(gamma, commitment)
		if err != nil {
			return nil, fmt.Errorf("request: input %d: %w", index, err)
		}
		tag := s.ev.RecordTag(s.skTag, commitment)

		s.message = append(s.message, h.X, hR.X, gamma.X, tag)
		return RecordInputID{
			Commitment:   commitment,
			Gamma:        gamma,
			SerialNumber: serialNumber,
			Tag:          tag,
		}, nil

	case program.TypeExternalRecord:
		rec, ok := value.Record()
		if !ok {
			return nil, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		hash := s.ev.HashPSD8(externalRecordPreimage(s.functionID, rec.ToFields(), s.tvk, idx)...)
		s.message = append(s.message, hash)
		return ExternalRecordInputID{Hash: hash}, nil

	default:
		return nil, fmt.Errorf("request: input %d: unknown declared type %d", index, declared.Type)
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
