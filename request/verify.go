// verify.go implements request verification: every identifier is
// recomputed from the request's public parts and the claimed input
// values, and the signature transcript is rebuilt and checked.
//
// Cryptographic mismatches yield (false, nil). Structural violations,
// a value whose form contradicts its declared type, missing signature
// material, mismatched cardinalities, yield a non-nil error: they
// signal a malformed request rather than an invalid one.
package request

import (
	"fmt"
	"math/big"

	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/program"
)

// Verify checks the request on the plain execution path. The supplied
// tpk must be the transition public key the transition carries.
func (r *Request) Verify(inputTypes []program.DeclaredType, tpk crypto.Group) (bool, error) {
	return r.VerifyWith(Plain(), inputTypes, tpk)
}

// VerifyWith checks the request using the given evaluator.
func (r *Request) VerifyWith(ev Evaluator, inputTypes []program.DeclaredType, tpk crypto.Group) (bool, error) {
	if len(r.InputIDs) != len(r.Inputs) || len(r.Inputs) != len(inputTypes) {
		return false, ErrCardinality
	}
	sig := r.Signature
	if sig.Challenge == nil || sig.Response == nil {
		return false, ErrSignatureMaterial
	}

	// The transition commitment must open to the transition view key.
	if !crypto.FieldsEqual(ev.HashPSD2(r.TVK), r.TCM) {
		return false, nil
	}

	functionID, err := program.FunctionID(r.NetworkID, r.ProgramID, r.FunctionName)
	if err != nil {
		return false, err
	}

	v := &verifier{
		ev:         ev,
		req:        r,
		functionID: functionID,
		challenge:  sig.Challenge,
		response:   sig.Response,
		message:    make([]crypto.Field, 0, 3+4*len(r.InputIDs)),
	}
	v.message = append(v.message, r.TVK, r.TCM, functionID)

	for i := range r.InputIDs {
		ok, err := v.checkInput(i, r.InputIDs[i], r.Inputs[i], inputTypes[i])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	// The signature's implied nonce point must equal the supplied tpk.
	implied, err := r.ToTPK()
	if err != nil {
		return false, err
	}
	if !implied.Equal(&tpk) {
		return false, nil
	}

	return sig.Verify(r.Caller, v.message), nil
}

// verifier carries the per-call state threaded through input checks.
type verifier struct {
	ev         Evaluator
	req        *Request
	functionID crypto.Field
	challenge  *big.Int
	response   *big.Int
	message    []crypto.Field
}

// checkInput recomputes the identifier for one input, compares it
// against the claimed one, and appends the claimed transcript
// contribution. A false return with nil error is a cryptographic
// mismatch.
func (v *verifier) checkInput(index int, id InputID, value program.Value, declared program.DeclaredType) (bool, error) {
	if id.Kind() != declared.Type {
		return false, fmt.Errorf("%w: input %d is %s, declared %s", ErrInputIDType, index, id.Kind(), declared.Type)
	}
	idx := crypto.FieldFromUint64(uint64(index))

	switch id := id.(type) {
	case ConstantInputID, PublicInputID:
		p, ok := value.Plaintext()
		if !ok {
			return false, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		claimed := inputIDHash(id)
		candidate := v.ev.HashPSD8(plaintextPreimage(v.functionID, p.ToFields(), v.req.TCM, idx)...)
		if !crypto.FieldsEqual(candidate, claimed) {
			return false, nil
		}
		v.message = append(v.message, claimed)
		return true, nil

	case PrivateInputID:
		p, ok := value.Plaintext()
		if !ok {
			return false, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		key := v.ev.HashPSD4(v.functionID, v.req.TVK, idx)
		ciphertext := v.ev.EncryptSymmetric(p.ToFields(), key)
		candidate := v.ev.HashPSD8(ciphertext...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return false, nil
		}
		v.message = append(v.message, id.Hash)
		return true, nil

	case RecordInputID:
		rec, ok := value.Record()
		if !ok {
			return false, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		if declared.RecordName == "" {
			return false, fmt.Errorf("%w: input %d", ErrRecordName, index)
		}
		if !rec.Owner().Equal(v.req.Caller) {
			return false, nil
		}
		if !program.GatesInBounds(rec.Gates()) {
			return false, nil
		}

		candidate, err := v.ev.RecordCommitment(rec, v.req.ProgramID, declared.RecordName)
		if err != nil {
			return false, fmt.Errorf("request: input %d: %w", index, err)
		}
		if !crypto.FieldsEqual(candidate, id.Commitment) {
			return false, nil
		}

		h, err := v.ev.HashToGroup(crypto.SerialNumberDomain(), id.Commitment)
		if err != nil {
			return false, fmt.Errorf("request: input %d: %w", index, err)
		}
		// h_r = challenge·gamma + response·h equals r·h without r.
		a := v.ev.ScalarMulPoint(&id.Gamma, v.challenge)
		b := v.ev.ScalarMulPoint(&h, v.response)
		hR := v.ev.AddPoints(&a, &b)

		candidateSN, err := v.ev.SerialNumber(id.Gamma, id.Commitment)
		if err != nil {
			return false, fmt.Errorf("request: input %d: %w", index, err)
		}
		if !crypto.FieldsEqual(candidateSN, id.SerialNumber) {
			return false, nil
		}
		if !crypto.FieldsEqual(v.ev.RecordTag(v.req.SkTag, id.Commitment), id.Tag) {
			return false, nil
		}

		v.message = append(v.message, h.X, hR.X, id.Gamma.X, id.Tag)
		return true, nil

	case ExternalRecordInputID:
		rec, ok := value.Record()
		if !ok {
			return false, fmt.Errorf("%w: input %d declared %s", ErrValueKind, index, declared.Type)
		}
		candidate := v.ev.HashPSD8(externalRecordPreimage(v.functionID, rec.ToFields(), v.req.TVK, idx)...)
		if !crypto.FieldsEqual(candidate, id.Hash) {
			return false, nil
		}
		v.message = append(v.message, id.Hash)
		return true, nil

	default:
		return false, fmt.Errorf("request: input %d: unknown input id variant", index)
	}
}

// inputIDHash extracts the hash from the two plaintext-hash variants.
func inputIDHash(id InputID) crypto.Field {
	switch id := id.(type) {
	case ConstantInputID:
		return id.Hash
	case PublicInputID:
		return id.Hash
	default:
		return crypto.Field{}
	}
}
