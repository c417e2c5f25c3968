package block

import (
	"errors"
	"fmt"
)

// Metadata validity errors.
var (
	ErrWrongNetwork      = errors.New("block: network id mismatch")
	ErrZeroRound         = errors.New("block: round is zero")
	ErrCoinbaseTargetLow = errors.New("block: coinbase target below the genesis target")
	ErrProofTargetLow    = errors.New("block: proof target below the genesis target")
	ErrTargetOrder       = errors.New("block: coinbase target not above the proof target")
	ErrTimestampTooEarly = errors.New("block: timestamp precedes the genesis timestamp")
	ErrGenesisShape      = errors.New("block: malformed genesis metadata")
)

// Metadata is the consensus metadata of one block header.
type Metadata struct {
	Network               uint16 `json:"network"`
	Round                 uint64 `json:"round"`
	Height                uint32 `json:"height"`
	CoinbaseTarget        uint64 `json:"coinbaseTarget"`
	ProofTarget           uint64 `json:"proofTarget"`
	LastCoinbaseTarget    uint64 `json:"lastCoinbaseTarget"`
	LastCoinbaseTimestamp int64  `json:"lastCoinbaseTimestamp"`
	Timestamp             int64  `json:"timestamp"`
}

// NewMetadata assembles metadata for the network and validates it.
func NewMetadata(n *Network, round uint64, height uint32, coinbaseTarget, proofTarget, lastCoinbaseTarget uint64, lastCoinbaseTimestamp, timestamp int64) (Metadata, error) {
	m := Metadata{
		Network:               n.ID,
		Round:                 round,
		Height:                height,
		CoinbaseTarget:        coinbaseTarget,
		ProofTarget:           proofTarget,
		LastCoinbaseTarget:    lastCoinbaseTarget,
		LastCoinbaseTimestamp: lastCoinbaseTimestamp,
		Timestamp:             timestamp,
	}
	if err := m.Validate(n); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// GenesisMetadata returns the metadata of the network's genesis block.
func GenesisMetadata(n *Network) Metadata {
	return Metadata{
		Network:               n.ID,
		Round:                 0,
		Height:                0,
		CoinbaseTarget:        n.GenesisCoinbaseTarget,
		ProofTarget:           n.GenesisProofTarget,
		LastCoinbaseTarget:    n.GenesisCoinbaseTarget,
		LastCoinbaseTimestamp: n.GenesisTimestamp,
		Timestamp:             n.GenesisTimestamp,
	}
}

// Validate checks the metadata against the network parameters and
// returns the first rule violated. Height zero routes to the genesis
// shape; all other heights must carry targets at or above the genesis
// floor, a coinbase target strictly above the proof target, and
// timestamps after genesis.
func (m *Metadata) Validate(n *Network) error {
	if m.Height == 0 {
		if *m != GenesisMetadata(n) {
			return fmt.Errorf("%w: %+v", ErrGenesisShape, *m)
		}
		return nil
	}
	if m.Network != n.ID {
		return fmt.Errorf("%w: %d, network expects %d", ErrWrongNetwork, m.Network, n.ID)
	}
	if m.Round == 0 {
		return fmt.Errorf("%w: height %d", ErrZeroRound, m.Height)
	}
	if m.CoinbaseTarget < n.GenesisCoinbaseTarget {
		return fmt.Errorf("%w: %d below %d", ErrCoinbaseTargetLow, m.CoinbaseTarget, n.GenesisCoinbaseTarget)
	}
	if m.ProofTarget < n.GenesisProofTarget {
		return fmt.Errorf("%w: %d below %d", ErrProofTargetLow, m.ProofTarget, n.GenesisProofTarget)
	}
	if m.CoinbaseTarget <= m.ProofTarget {
		return fmt.Errorf("%w: coinbase %d, proof %d", ErrTargetOrder, m.CoinbaseTarget, m.ProofTarget)
	}
	if m.LastCoinbaseTarget < n.GenesisCoinbaseTarget {
		return fmt.Errorf("%w: last coinbase target %d below %d", ErrCoinbaseTargetLow, m.LastCoinbaseTarget, n.GenesisCoinbaseTarget)
	}
	if m.LastCoinbaseTimestamp < n.GenesisTimestamp {
		return fmt.Errorf("%w: last coinbase timestamp %d", ErrTimestampTooEarly, m.LastCoinbaseTimestamp)
	}
	if m.Timestamp <= n.GenesisTimestamp {
		return fmt.Errorf("%w: timestamp %d", ErrTimestampTooEarly, m.Timestamp)
	}
	return nil
}

// IsValid reports whether the metadata is well formed for the network.
func (m *Metadata) IsValid(n *Network) bool { return m.Validate(n) == nil }

// IsGenesis reports whether the metadata is the network's genesis
// metadata.
func (m *Metadata) IsGenesis(n *Network) bool { return *m == GenesisMetadata(n) }
