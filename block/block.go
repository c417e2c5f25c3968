// Package block carries block header metadata: the chain parameters a
// block is validated against and the validity rules that tie block
// targets to the coinbase puzzle.
package block

// Network holds the chain-level parameters metadata is validated
// against. The genesis targets double as the floor for every later
// block's targets.
type Network struct {
	// ID distinguishes chains; every block must carry it.
	ID uint16
	// GenesisCoinbaseTarget is the coinbase target of the genesis
	// block and the minimum for all blocks after it.
	GenesisCoinbaseTarget uint64
	// GenesisProofTarget is the proof target of the genesis block and
	// the minimum for all blocks after it.
	GenesisProofTarget uint64
	// GenesisTimestamp is the Unix timestamp (UTC) of the genesis
	// block.
	GenesisTimestamp int64
}

// TestnetConfig is the public test network.
var TestnetConfig = &Network{
	ID:                    3,
	GenesisCoinbaseTarget: (1 << 10) - 1,
	GenesisProofTarget:    (1 << 8) - 1,
	GenesisTimestamp:      1663718400, // 2022-09-21 00:00:00 UTC
}

// DevnetConfig is a single-node development network with minimal
// targets, so local provers find solutions immediately.
var DevnetConfig = &Network{
	ID:                    0,
	GenesisCoinbaseTarget: (1 << 4) - 1,
	GenesisProofTarget:    (1 << 2) - 1,
	GenesisTimestamp:      0,
}
