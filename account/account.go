// Package account implements the identity layer: private keys and their
// deterministic expansion into signing key material (sk_sig, pk_sig,
// pr_sig), the view key, the tag key, and the public address, plus the
// Schnorr signature scheme binding them together.
//
// Every derived quantity is a pure function of the private key seed.
// The address is recoverable from the public compute key alone, which
// is what lets a verifier check caller authorization without any
// secret material.
package account

import (
	"errors"
	"io"
	"math/big"

	"github.com/avmlabs/go-avm/crypto"
)

// Domain separators for account key derivation.
const (
	skSigDomain    = "AVMAccountSkSig0"
	rSigDomain     = "AVMAccountRSig0"
	graphKeyDomain = "AVMGraphKey0"
)

// ErrPrivateKeySeed is returned when a private key seed fails to derive
// usable key material.
var ErrPrivateKeySeed = errors.New("account: invalid private key seed")

// PrivateKey is the root account secret. It carries the seed and the
// two scalars derived from it.
type PrivateKey struct {
	seed  crypto.Field
	skSig *big.Int
	rSig  *big.Int
}

// NewPrivateKey samples a fresh private key from r. A nil reader uses
// the system CSPRNG.
func NewPrivateKey(r io.Reader) (*PrivateKey, error) {
	s, err := crypto.RandomScalar(r)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromSeed(crypto.ScalarToField(s))
}

// PrivateKeyFromSeed deterministically derives a private key from a
// seed field element.
func PrivateKeyFromSeed(seed crypto.Field) (*PrivateKey, error) {
	skSig := crypto.HashToScalarPSD2(crypto.DomainField(skSigDomain), seed)
	rSig := crypto.HashToScalarPSD2(crypto.DomainField(rSigDomain), seed)
	if skSig.Sign() == 0 || rSig.Sign() == 0 {
		return nil, ErrPrivateKeySeed
	}
	return &PrivateKey{seed: seed, skSig: skSig, rSig: rSig}, nil
}

// Seed returns the private key seed.
func (sk *PrivateKey) Seed() crypto.Field { return sk.seed }

// SkSig returns the signing scalar sk_sig.
func (sk *PrivateKey) SkSig() *big.Int { return new(big.Int).Set(sk.skSig) }

// RSig returns the signing randomizer scalar r_sig.
func (sk *PrivateKey) RSig() *big.Int { return new(big.Int).Set(sk.rSig) }

// ComputeKey derives the public compute key (pk_sig, pr_sig).
func (sk *PrivateKey) ComputeKey() ComputeKey {
	return ComputeKey{
		PkSig: crypto.GeneratorMul(sk.skSig),
		PrSig: crypto.GeneratorMul(sk.rSig),
	}
}

// ViewKey returns the account view key, the scalar
// sk_sig + r_sig + sk_prf.
func (sk *PrivateKey) ViewKey() *big.Int {
	ck := sk.ComputeKey()
	return crypto.ScalarAdd(crypto.ScalarAdd(sk.skSig, sk.rSig), ck.SkPrf())
}

// SkTag returns the tag key sk_tag, derived from the view key. Record
// tags are pseudorandom functions of this key and a commitment.
func (sk *PrivateKey) SkTag() crypto.Field {
	return crypto.HashPSD4(crypto.DomainField(graphKeyDomain), crypto.ScalarToField(sk.ViewKey()))
}

// Address returns the account address.
func (sk *PrivateKey) Address() Address {
	return sk.ComputeKey().Address()
}
