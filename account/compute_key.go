// compute_key.go defines the public compute key and the address derived
// from it.
package account

import (
	"encoding/hex"
	"math/big"

	"github.com/avmlabs/go-avm/crypto"
)

// ComputeKey is the public half of an account's signing material.
type ComputeKey struct {
	// PkSig is sk_sig·G.
	PkSig crypto.Group
	// PrSig is r_sig·G.
	PrSig crypto.Group
}

// SkPrf returns the PRF scalar sk_prf. It is a hash of the public key
// points, so any holder of the compute key can derive it; this is what
// makes the address recoverable during signature verification.
func (ck ComputeKey) SkPrf() *big.Int {
	return crypto.HashToScalarPSD4(ck.PkSig.X, ck.PrSig.X)
}

// Address returns pk_sig + pr_sig + sk_prf·G.
func (ck ComputeKey) Address() Address {
	sum := crypto.AddPoints(&ck.PkSig, &ck.PrSig)
	prf := crypto.GeneratorMul(ck.SkPrf())
	return Address{p: crypto.AddPoints(&sum, &prf)}
}

// Address is the public identity of an account: a point in the
// prime-order subgroup.
type Address struct {
	p crypto.Group
}

// AddressFromPoint wraps a subgroup point as an address.
func AddressFromPoint(p crypto.Group) Address { return Address{p: p} }

// AddressFromBytes decodes a compressed address encoding.
func AddressFromBytes(b []byte) (Address, error) {
	p, err := crypto.GroupFromBytes(b)
	if err != nil {
		return Address{}, err
	}
	return Address{p: p}, nil
}

// Point returns the underlying group element.
func (a Address) Point() crypto.Group { return a.p }

// X returns the x-coordinate of the address, the form absorbed into
// signing transcripts.
func (a Address) X() crypto.Field { return a.p.X }

// Bytes returns the compressed encoding of the address.
func (a Address) Bytes() [crypto.GroupBytes]byte { return crypto.GroupToBytes(a.p) }

// Equal reports whether two addresses are the same point.
func (a Address) Equal(b Address) bool { return a.p.Equal(&b.p) }

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	var zero crypto.Group
	return a.p.Equal(&zero)
}

// String returns the hex form of the compressed encoding.
func (a Address) String() string {
	b := a.Bytes()
	return hex.EncodeToString(b[:])
}
