// signature.go implements the account Schnorr signature over message
// field elements.
//
// Signing:
//
//	g_r       = nonce·G
//	challenge = HashToScalar(g_r.x, pk_sig.x, pr_sig.x, address.x, message...)
//	response  = nonce − challenge·sk_sig
//
// Verification recomputes g_r = response·G + challenge·pk_sig, rederives
// the challenge, and recovers the signer's address from the embedded
// compute key. A signature is valid iff the recomputed challenge equals
// the embedded one and the recovered address equals the claimed signer.
package account

import (
	"io"
	"math/big"

	"github.com/avmlabs/go-avm/crypto"
)

// Signature is a Schnorr signature together with the signer's compute
// key, from which the verifier recovers the signing address.
type Signature struct {
	Challenge  *big.Int
	Response   *big.Int
	ComputeKey ComputeKey
}

// Sign signs the message fields with a random nonce from r.
func Sign(sk *PrivateKey, message []crypto.Field, r io.Reader) (Signature, error) {
	nonce, err := crypto.RandomScalar(r)
	if err != nil {
		return Signature{}, err
	}
	return SignWithNonce(sk, nonce, message), nil
}

// SignWithNonce signs the message fields with an explicit nonce. The
// request protocol uses this form: its nonce doubles as the transition
// secret key, so the caller must derive it and keep it.
func SignWithNonce(sk *PrivateKey, nonce *big.Int, message []crypto.Field) Signature {
	ck := sk.ComputeKey()
	gr := crypto.GeneratorMul(nonce)

	challenge := challengeHash(gr.X, ck, sk.Address(), message)
	response := crypto.ScalarSub(nonce, crypto.ScalarMul(challenge, sk.skSig))

	return Signature{Challenge: challenge, Response: response, ComputeKey: ck}
}

// Verify checks the signature over the message against the claimed
// signer address.
func (s Signature) Verify(signer Address, message []crypto.Field) bool {
	if s.Challenge == nil || s.Response == nil {
		return false
	}

	// g_r = response·G + challenge·pk_sig reconstructs nonce·G without
	// the nonce.
	a := crypto.GeneratorMul(s.Response)
	b := crypto.ScalarMulPoint(&s.ComputeKey.PkSig, s.Challenge)
	gr := crypto.AddPoints(&a, &b)

	candidate := challengeHash(gr.X, s.ComputeKey, signer, message)
	if candidate.Cmp(s.Challenge) != 0 {
		return false
	}
	return s.ComputeKey.Address().Equal(signer)
}

// challengeHash absorbs (g_r, pk_sig, pr_sig, address) as x-coordinates
// followed by the message.
func challengeHash(grX crypto.Field, ck ComputeKey, signer Address, message []crypto.Field) *big.Int {
	preimage := make([]crypto.Field, 0, 4+len(message))
	preimage = append(preimage, grX, ck.PkSig.X, ck.PrSig.X, signer.X())
	preimage = append(preimage, message...)
	return crypto.HashToScalarPSD8(preimage...)
}
