// record.go implements records, the owned value form: plaintext records
// with an owner, a gates balance, and a data payload; their symmetric
// encryption under a transition randomizer; and the record-derived
// commitment, serial number, and tag.
package program

import (
	"math/big"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
)

// MaxGates is the largest representable gates balance. Bits 52..63 of
// the 64-bit encoding must be zero.
const MaxGates = (1 << 52) - 1

// GatesInBounds reports whether a gates value fits in 52 bits.
func GatesInBounds(gates uint64) bool { return gates>>52 == 0 }

// Record is a plaintext record. The gates bound and owner binding are
// enforced where records are consumed (signing and verification), not
// at construction, so decoded out-of-range records can be rejected
// there with the protocol's own errors.
type Record struct {
	owner account.Address
	gates uint64
	data  []crypto.Field
	nonce crypto.Group
}

// NewRecord builds a record.
func NewRecord(owner account.Address, gates uint64, data []crypto.Field, nonce crypto.Group) Record {
	d := make([]crypto.Field, len(data))
	copy(d, data)
	return Record{owner: owner, gates: gates, data: d, nonce: nonce}
}

// Owner returns the record owner.
func (r Record) Owner() account.Address { return r.owner }

// Gates returns the gates balance.
func (r Record) Gates() uint64 { return r.gates }

// Data returns the data payload.
func (r Record) Data() []crypto.Field {
	out := make([]crypto.Field, len(r.data))
	copy(out, r.data)
	return out
}

// Nonce returns the record nonce, the randomizer point fixed at
// encryption time.
func (r Record) Nonce() crypto.Group { return r.nonce }

// Equal reports whether two records are identical.
func (r Record) Equal(other Record) bool {
	if !r.owner.Equal(other.owner) || r.gates != other.gates || len(r.data) != len(other.data) {
		return false
	}
	for i := range r.data {
		if !crypto.FieldsEqual(r.data[i], other.data[i]) {
			return false
		}
	}
	return r.nonce.Equal(&other.nonce)
}

// ToBitsLE returns the canonical bit layout of the record: owner
// x-coordinate, 64 gates bits, a 16-bit data count, the data elements,
// and the nonce x-coordinate.
func (r Record) ToBitsLE() []bool {
	bits := crypto.FieldToBitsLE(r.owner.X())
	bits = append(bits, crypto.U64ToBitsLE(r.gates)...)
	bits = append(bits, crypto.U16ToBitsLE(uint16(len(r.data)))...)
	for i := range r.data {
		bits = append(bits, crypto.FieldToBitsLE(r.data[i])...)
	}
	return append(bits, crypto.FieldToBitsLE(r.nonce.X)...)
}

// ToFields returns the record as field elements, the form absorbed
// into external-record hashes.
func (r Record) ToFields() []crypto.Field {
	out := make([]crypto.Field, 0, 3+len(r.data))
	out = append(out, r.owner.X(), crypto.FieldFromUint64(r.gates))
	out = append(out, r.data...)
	return append(out, r.nonce.X)
}

// Commitment binds the record to its program and record-type name.
func (r Record) Commitment(pid ProgramID, name Identifier) (crypto.Field, error) {
	bits := pid.ToBitsLE()
	bits = append(bits, name.ToBitsLE()...)
	bits = append(bits, r.ToBitsLE()...)
	return crypto.HashBHP1024(bits)
}

// Encrypt masks the record under a transition randomizer. The record
// view key is the x-coordinate of randomizer·owner; only a holder of
// the owner's view key can recompute it from the stored nonce.
func (r Record) Encrypt(randomizer *big.Int) RecordCiphertext {
	owner := r.owner.Point()
	key := crypto.ScalarMulPoint(&owner, randomizer)

	plain := make([]crypto.Field, 0, 2+len(r.data))
	plain = append(plain, r.owner.X(), crypto.FieldFromUint64(r.gates))
	plain = append(plain, r.data...)
	masked := crypto.EncryptSymmetric(plain, key.X)

	return RecordCiphertext{
		owner: masked[0],
		gates: masked[1],
		data:  masked[2:],
		nonce: crypto.GeneratorMul(randomizer),
	}
}

// RecordCiphertext is the encrypted form of a record: the owner, gates,
// and data elements masked under the record view key, plus the nonce
// point needed to recover that key.
type RecordCiphertext struct {
	owner crypto.Field
	gates crypto.Field
	data  []crypto.Field
	nonce crypto.Group
}

// NewRecordCiphertext reassembles a ciphertext from its parts, as the
// wire decoder does.
func NewRecordCiphertext(owner, gates crypto.Field, data []crypto.Field, nonce crypto.Group) RecordCiphertext {
	d := make([]crypto.Field, len(data))
	copy(d, data)
	return RecordCiphertext{owner: owner, gates: gates, data: d, nonce: nonce}
}

// MaskedOwner returns the masked owner element.
func (c RecordCiphertext) MaskedOwner() crypto.Field { return c.owner }

// MaskedGates returns the masked gates element.
func (c RecordCiphertext) MaskedGates() crypto.Field { return c.gates }

// MaskedData returns the masked data elements.
func (c RecordCiphertext) MaskedData() []crypto.Field {
	out := make([]crypto.Field, len(c.data))
	copy(out, c.data)
	return out
}

// Nonce returns the ciphertext nonce point.
func (c RecordCiphertext) Nonce() crypto.Group { return c.nonce }

// Equal reports whether two ciphertexts are identical.
func (c RecordCiphertext) Equal(other RecordCiphertext) bool {
	if !crypto.FieldsEqual(c.owner, other.owner) || !crypto.FieldsEqual(c.gates, other.gates) {
		return false
	}
	if len(c.data) != len(other.data) {
		return false
	}
	for i := range c.data {
		if !crypto.FieldsEqual(c.data[i], other.data[i]) {
			return false
		}
	}
	return c.nonce.Equal(&other.nonce)
}

// ToBitsLE returns the canonical bit layout of the ciphertext, the
// preimage of the output checksum.
func (c RecordCiphertext) ToBitsLE() []bool {
	bits := crypto.FieldToBitsLE(c.owner)
	bits = append(bits, crypto.FieldToBitsLE(c.gates)...)
	bits = append(bits, crypto.U16ToBitsLE(uint16(len(c.data)))...)
	for i := range c.data {
		bits = append(bits, crypto.FieldToBitsLE(c.data[i])...)
	}
	return append(bits, crypto.FieldToBitsLE(c.nonce.X)...)
}

// IsOwner reports whether the view key owns this ciphertext, without
// decrypting the payload.
func (c RecordCiphertext) IsOwner(viewKey *big.Int) bool {
	key := crypto.ScalarMulPoint(&c.nonce, viewKey)
	plain := crypto.DecryptSymmetric([]crypto.Field{c.owner}, key.X)
	ownerPoint := crypto.GeneratorMul(viewKey)
	return crypto.FieldsEqual(plain[0], ownerPoint.X)
}

// Decrypt recovers the plaintext record under the owner's view key.
// The address is the view key times the generator, so the record view
// key randomizer·owner equals viewKey·nonce; a mismatched key fails the
// owner check rather than yielding garbage.
func (c RecordCiphertext) Decrypt(viewKey *big.Int) (Record, error) {
	key := crypto.ScalarMulPoint(&c.nonce, viewKey)

	masked := make([]crypto.Field, 0, 2+len(c.data))
	masked = append(masked, c.owner, c.gates)
	masked = append(masked, c.data...)
	plain := crypto.DecryptSymmetric(masked, key.X)

	ownerPoint := crypto.GeneratorMul(viewKey)
	if !crypto.FieldsEqual(plain[0], ownerPoint.X) {
		return Record{}, ErrRecordViewKey
	}
	gates, err := crypto.FieldToUint64(plain[1])
	if err != nil || !GatesInBounds(gates) {
		return Record{}, ErrRecordCiphertext
	}

	data := make([]crypto.Field, len(plain)-2)
	copy(data, plain[2:])
	return Record{
		owner: account.AddressFromPoint(ownerPoint),
		gates: gates,
		data:  data,
		nonce: c.nonce,
	}, nil
}

// SerialNumberFromGamma derives the serial number marking a record as
// spent. The nonce scalar is bound to the cofactor-cleared gamma point,
// so only the holder of sk_sig can produce it, while the commitment
// randomizer makes the result unlinkable to the record.
func SerialNumberFromGamma(gamma crypto.Group, commitment crypto.Field) (crypto.Field, error) {
	cleared := crypto.ClearCofactor(&gamma)
	snNonce := crypto.HashToScalarPSD2(crypto.DomainField(crypto.SerialNumberDomain()), cleared.X)
	return crypto.CommitBHP512(crypto.FieldToBitsLE(commitment), snNonce)
}

// Tag derives the double-use detection tag of a record under the
// owner's tag key.
func Tag(skTag crypto.Field, commitment crypto.Field) crypto.Field {
	return crypto.HashPSD2(skTag, commitment)
}
