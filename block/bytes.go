package block

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrEncoding is returned for a malformed metadata encoding.
var ErrEncoding = errors.New("block: invalid metadata encoding")

// metadataSize is the canonical encoded size: network, round, height,
// three targets, two timestamps, all little-endian.
const metadataSize = 2 + 8 + 4 + 8 + 8 + 8 + 8 + 8

// Bytes returns the canonical little-endian encoding of the metadata.
func (m *Metadata) Bytes() []byte {
	out := make([]byte, 0, metadataSize)
	out = binary.LittleEndian.AppendUint16(out, m.Network)
	out = binary.LittleEndian.AppendUint64(out, m.Round)
	out = binary.LittleEndian.AppendUint32(out, m.Height)
	out = binary.LittleEndian.AppendUint64(out, m.CoinbaseTarget)
	out = binary.LittleEndian.AppendUint64(out, m.ProofTarget)
	out = binary.LittleEndian.AppendUint64(out, m.LastCoinbaseTarget)
	out = binary.LittleEndian.AppendUint64(out, uint64(m.LastCoinbaseTimestamp))
	out = binary.LittleEndian.AppendUint64(out, uint64(m.Timestamp))
	return out
}

// MetadataFromBytes decodes metadata and validates it against the
// network parameters.
func MetadataFromBytes(n *Network, b []byte) (Metadata, error) {
	if len(b) != metadataSize {
		return Metadata{}, fmt.Errorf("%w: %d bytes, want %d", ErrEncoding, len(b), metadataSize)
	}
	m := Metadata{
		Network:               binary.LittleEndian.Uint16(b[0:2]),
		Round:                 binary.LittleEndian.Uint64(b[2:10]),
		Height:                binary.LittleEndian.Uint32(b[10:14]),
		CoinbaseTarget:        binary.LittleEndian.Uint64(b[14:22]),
		ProofTarget:           binary.LittleEndian.Uint64(b[22:30]),
		LastCoinbaseTarget:    binary.LittleEndian.Uint64(b[30:38]),
		LastCoinbaseTimestamp: int64(binary.LittleEndian.Uint64(b[38:46])),
		Timestamp:             int64(binary.LittleEndian.Uint64(b[46:54])),
	}
	if err := m.Validate(n); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Hash returns the BLAKE2b-256 digest of the canonical encoding, the
// form fed to epoch challenges as the epoch block hash.
func (m *Metadata) Hash() [32]byte {
	return blake2b.Sum256(m.Bytes())
}
