// Package crypto implements the algebraic primitive layer of the VM:
// field and scalar arithmetic over BLS12-377, the embedded twisted
// Edwards group used for accounts and records, Poseidon-based sponge
// hashes at three rates, a bit-windowed Pedersen (BHP) hash and
// commitment, hash-to-group, hash-to-scalar, and the symmetric field
// encryption used for private inputs.
//
// All global parameters (the account generator, Pedersen generator
// tables, curve constants) are initialized lazily on first use and are
// immutable for the lifetime of the process.
package crypto

import (
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"
)

// Field is an element of the BLS12-377 scalar field, the base field of
// the embedded Edwards curve. All commitments, hashes, and coordinates
// in the protocol are Field values.
type Field = fr.Element

// Group is a point on the twisted Edwards curve embedded over the
// BLS12-377 scalar field, restricted by convention to the prime-order
// subgroup.
type Group = twistededwards.PointAffine

// FieldBytes is the canonical encoded size of a Field element.
const FieldBytes = fr.Bytes

// Domain separators owned by this package. Every hash invocation in the
// protocol is bound to a tag, so transcripts from different
// sub-protocols can never collide; higher layers declare their own tags
// and pass them through DomainField.
const (
	generatorDomain    = "AVMGroupGenerator0"
	bhpDomain          = "AVMBHP"
	encryptionDomain   = "AVMSymmetricEncryption0"
	serialNumberDomain = "AVMSerialNumber0"
	randomizerDomain   = "AVMRandomizer0"
)

// SerialNumberDomain returns the domain separator binding record serial
// numbers, exposed for the request protocol's hash-to-group derivation.
func SerialNumberDomain() string { return serialNumberDomain }

// RandomizerDomain returns the domain separator for transition
// randomizers.
func RandomizerDomain() string { return randomizerDomain }

var (
	// curveParams caches the Edwards curve constants (a, d, cofactor,
	// subgroup order, arbitrary base point).
	curveOnce   sync.Once
	curveParams twistededwards.CurveParams

	// generatorG is the account generator, derived by hashing the
	// generator domain to the curve rather than taking the library's
	// base point, so the discrete log of G with respect to any other
	// system point is unknown.
	generatorOnce sync.Once
	generatorG    Group
)

// edwards returns the cached Edwards curve parameters.
func edwards() *twistededwards.CurveParams {
	curveOnce.Do(func() {
		curveParams = twistededwards.GetEdwardsCurve()
	})
	return &curveParams
}

// GeneratorG returns the account generator G.
func GeneratorG() Group {
	generatorOnce.Do(func() {
		g, err := HashToGroup(generatorDomain)
		if err != nil {
			panic("crypto: account generator derivation failed: " + err.Error())
		}
		generatorG = g
	})
	return generatorG
}

// DomainField packs a domain separator string into a Field element.
// Domains are short ASCII tags, well under the field's byte capacity.
func DomainField(domain string) Field {
	if len(domain) > FieldBytes-1 {
		panic("crypto: domain separator too long: " + domain)
	}
	var f Field
	f.SetBytes([]byte(domain))
	return f
}

