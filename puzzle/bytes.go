// bytes.go implements the binary and JSON encodings of solutions and
// proofs. Binary layouts are little-endian and fixed-width except for
// the optional hiding scalar; JSON encodes curve material as hex.
package puzzle

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
)

const (
	addressSize    = crypto.GroupBytes
	commitmentSize = bls12377.SizeOfG1AffineCompressed

	// address | nonce | commitment
	partialSolutionSize = addressSize + 8 + commitmentSize
	// witness | hiding flag
	proofBaseSize = commitmentSize + 1
)

// Bytes returns the canonical encoding of the partial solution:
// address, nonce, and compressed commitment.
func (s PartialSolution) Bytes() []byte {
	out := make([]byte, 0, partialSolutionSize)
	addr := s.address.Bytes()
	out = append(out, addr[:]...)
	out = binary.LittleEndian.AppendUint64(out, s.nonce)
	c := s.commitment.Bytes()
	return append(out, c[:]...)
}

// PartialSolutionFromBytes decodes a partial solution, validating that
// the address and commitment are canonical curve encodings.
func PartialSolutionFromBytes(b []byte) (PartialSolution, error) {
	if len(b) != partialSolutionSize {
		return PartialSolution{}, fmt.Errorf("%w: partial solution is %d bytes, want %d", ErrEncoding, len(b), partialSolutionSize)
	}
	address, err := account.AddressFromBytes(b[:addressSize])
	if err != nil {
		return PartialSolution{}, fmt.Errorf("%w: address: %v", ErrEncoding, err)
	}
	nonce := binary.LittleEndian.Uint64(b[addressSize:])
	var commitment bls12377.G1Affine
	if _, err := commitment.SetBytes(b[addressSize+8:]); err != nil {
		return PartialSolution{}, fmt.Errorf("%w: commitment: %v", ErrEncoding, err)
	}
	return PartialSolution{address: address, nonce: nonce, commitment: commitment}, nil
}

// Bytes returns the canonical encoding of the proof: the compressed
// witness followed by a flag byte and, for hiding proofs, the scalar.
func (p Proof) Bytes() []byte {
	out := make([]byte, 0, proofBaseSize+crypto.FieldBytes)
	w := p.W.Bytes()
	out = append(out, w[:]...)
	if p.RandomV == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	v := crypto.FieldToBytesLE(*p.RandomV)
	return append(out, v[:]...)
}

// ProofFromBytes decodes a proof. The encoding must be exact: no bytes
// may remain after the flagged payload.
func ProofFromBytes(b []byte) (Proof, error) {
	if len(b) < proofBaseSize {
		return Proof{}, fmt.Errorf("%w: proof is %d bytes, want at least %d", ErrEncoding, len(b), proofBaseSize)
	}
	var proof Proof
	if _, err := proof.W.SetBytes(b[:commitmentSize]); err != nil {
		return Proof{}, fmt.Errorf("%w: witness: %v", ErrEncoding, err)
	}
	switch b[commitmentSize] {
	case 0:
		if len(b) != proofBaseSize {
			return Proof{}, fmt.Errorf("%w: %d trailing bytes after proof", ErrEncoding, len(b)-proofBaseSize)
		}
	case 1:
		if len(b) != proofBaseSize+crypto.FieldBytes {
			return Proof{}, fmt.Errorf("%w: hiding proof is %d bytes, want %d", ErrEncoding, len(b), proofBaseSize+crypto.FieldBytes)
		}
		v, err := crypto.FieldFromBytesLE(b[proofBaseSize:])
		if err != nil {
			return Proof{}, fmt.Errorf("%w: hiding scalar: %v", ErrEncoding, err)
		}
		proof.RandomV = &v
	default:
		return Proof{}, fmt.Errorf("%w: hiding flag byte %d", ErrEncoding, b[commitmentSize])
	}
	return proof, nil
}

// Bytes returns the canonical encoding of the prover solution: the
// partial solution followed by the opening proof.
func (s ProverSolution) Bytes() []byte {
	return append(s.partial.Bytes(), s.proof.Bytes()...)
}

// ProverSolutionFromBytes decodes a prover solution.
func ProverSolutionFromBytes(b []byte) (ProverSolution, error) {
	if len(b) < partialSolutionSize {
		return ProverSolution{}, fmt.Errorf("%w: prover solution is %d bytes, want at least %d", ErrEncoding, len(b), partialSolutionSize)
	}
	partial, err := PartialSolutionFromBytes(b[:partialSolutionSize])
	if err != nil {
		return ProverSolution{}, err
	}
	proof, err := ProofFromBytes(b[partialSolutionSize:])
	if err != nil {
		return ProverSolution{}, err
	}
	return ProverSolution{partial: partial, proof: proof}, nil
}

// Bytes returns the canonical encoding of the coinbase solution: a
// little-endian count, the partial solutions, and the batched proof.
func (s *CoinbaseSolution) Bytes() []byte {
	out := make([]byte, 0, 4+len(s.partials)*partialSolutionSize+proofBaseSize)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.partials)))
	for i := range s.partials {
		out = append(out, s.partials[i].Bytes()...)
	}
	return append(out, s.proof.Bytes()...)
}

// CoinbaseSolutionFromBytes decodes a coinbase solution, enforcing the
// solution-count limit before allocating.
func CoinbaseSolutionFromBytes(b []byte) (*CoinbaseSolution, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: coinbase solution is %d bytes, want at least 4", ErrEncoding, len(b))
	}
	count := binary.LittleEndian.Uint32(b)
	if count > MaxProverSolutions {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManySolutions, count, MaxProverSolutions)
	}
	b = b[4:]
	if len(b) < int(count)*partialSolutionSize {
		return nil, fmt.Errorf("%w: truncated coinbase solution", ErrEncoding)
	}
	partials := make([]PartialSolution, count)
	for i := range partials {
		partial, err := PartialSolutionFromBytes(b[:partialSolutionSize])
		if err != nil {
			return nil, fmt.Errorf("solution %d: %w", i, err)
		}
		partials[i] = partial
		b = b[partialSolutionSize:]
	}
	proof, err := ProofFromBytes(b)
	if err != nil {
		return nil, err
	}
	return &CoinbaseSolution{partials: partials, proof: proof}, nil
}

// MarshalJSON encodes the partial solution with hex curve material.
func (s PartialSolution) MarshalJSON() ([]byte, error) {
	c := s.commitment.Bytes()
	return json.Marshal(struct {
		Address    string `json:"address"`
		Nonce      uint64 `json:"nonce"`
		Commitment string `json:"commitment"`
	}{
		Address:    s.address.String(),
		Nonce:      s.nonce,
		Commitment: hex.EncodeToString(c[:]),
	})
}

// UnmarshalJSON decodes the partial solution, validating curve
// encodings.
func (s *PartialSolution) UnmarshalJSON(data []byte) error {
	var aux struct {
		Address    string `json:"address"`
		Nonce      uint64 `json:"nonce"`
		Commitment string `json:"commitment"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	addrBytes, err := hex.DecodeString(aux.Address)
	if err != nil {
		return fmt.Errorf("%w: address: %v", ErrEncoding, err)
	}
	address, err := account.AddressFromBytes(addrBytes)
	if err != nil {
		return fmt.Errorf("%w: address: %v", ErrEncoding, err)
	}
	commitmentBytes, err := hex.DecodeString(aux.Commitment)
	if err != nil {
		return fmt.Errorf("%w: commitment: %v", ErrEncoding, err)
	}
	var commitment bls12377.G1Affine
	if _, err := commitment.SetBytes(commitmentBytes); err != nil {
		return fmt.Errorf("%w: commitment: %v", ErrEncoding, err)
	}
	s.address = address
	s.nonce = aux.Nonce
	s.commitment = commitment
	return nil
}

// MarshalJSON encodes the proof; the hiding scalar is omitted when
// absent.
func (p Proof) MarshalJSON() ([]byte, error) {
	w := p.W.Bytes()
	aux := struct {
		W       string `json:"w"`
		RandomV string `json:"random_v,omitempty"`
	}{
		W: hex.EncodeToString(w[:]),
	}
	if p.RandomV != nil {
		v := crypto.FieldToBytesLE(*p.RandomV)
		aux.RandomV = hex.EncodeToString(v[:])
	}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes the proof.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var aux struct {
		W       string `json:"w"`
		RandomV string `json:"random_v"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	wBytes, err := hex.DecodeString(aux.W)
	if err != nil {
		return fmt.Errorf("%w: witness: %v", ErrEncoding, err)
	}
	var proof Proof
	if _, err := proof.W.SetBytes(wBytes); err != nil {
		return fmt.Errorf("%w: witness: %v", ErrEncoding, err)
	}
	if aux.RandomV != "" {
		vBytes, err := hex.DecodeString(aux.RandomV)
		if err != nil {
			return fmt.Errorf("%w: hiding scalar: %v", ErrEncoding, err)
		}
		v, err := crypto.FieldFromBytesLE(vBytes)
		if err != nil {
			return fmt.Errorf("%w: hiding scalar: %v", ErrEncoding, err)
		}
		proof.RandomV = &v
	}
	*p = proof
	return nil
}

// MarshalJSON encodes the prover solution.
func (s ProverSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Partial PartialSolution `json:"partial_solution"`
		Proof   Proof           `json:"proof"`
	}{
		Partial: s.partial,
		Proof:   s.proof,
	})
}

// UnmarshalJSON decodes the prover solution.
func (s *ProverSolution) UnmarshalJSON(data []byte) error {
	var aux struct {
		Partial PartialSolution `json:"partial_solution"`
		Proof   Proof           `json:"proof"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.partial = aux.Partial
	s.proof = aux.Proof
	return nil
}

// MarshalJSON encodes the coinbase solution.
func (s *CoinbaseSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Partials []PartialSolution `json:"partial_solutions"`
		Proof    Proof             `json:"proof"`
	}{
		Partials: s.partials,
		Proof:    s.proof,
	})
}

// UnmarshalJSON decodes the coinbase solution, enforcing the
// solution-count limit.
func (s *CoinbaseSolution) UnmarshalJSON(data []byte) error {
	var aux struct {
		Partials []PartialSolution `json:"partial_solutions"`
		Proof    Proof             `json:"proof"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Partials) > MaxProverSolutions {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManySolutions, len(aux.Partials), MaxProverSolutions)
	}
	s.partials = aux.Partials
	s.proof = aux.Proof
	return nil
}
