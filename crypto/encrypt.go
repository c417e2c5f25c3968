// encrypt.go implements the symmetric field encryption for private
// request inputs and record ciphertexts: a deterministic one-time pad
// of field elements under a keystream expanded from a single field key.
package crypto

// EncryptSymmetric masks each plaintext element by adding a keystream
// element derived from (key, index). Length-preserving; encrypting the
// empty slice yields the empty slice.
func EncryptSymmetric(plaintext []Field, key Field) []Field {
	keystream := symmetricKeystream(key, len(plaintext))
	ciphertext := make([]Field, len(plaintext))
	for i := range plaintext {
		ciphertext[i].Add(&plaintext[i], &keystream[i])
	}
	return ciphertext
}

// DecryptSymmetric inverts EncryptSymmetric under the same key.
func DecryptSymmetric(ciphertext []Field, key Field) []Field {
	keystream := symmetricKeystream(key, len(ciphertext))
	plaintext := make([]Field, len(ciphertext))
	for i := range ciphertext {
		plaintext[i].Sub(&ciphertext[i], &keystream[i])
	}
	return plaintext
}

func symmetricKeystream(key Field, n int) []Field {
	return HashManyPSD8([]Field{DomainField(encryptionDomain), key}, n)
}
