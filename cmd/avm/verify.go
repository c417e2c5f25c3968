package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/avmlabs/go-avm/metrics"
	"github.com/avmlabs/go-avm/puzzle"
)

// runVerify checks a set of prover solutions against an epoch: each
// solution individually, then the accumulated coinbase solution
// against the network targets.
func runVerify(args []string) int {
	cfg := DefaultConfig()
	ApplyEnvironment(&cfg)

	fs := flag.NewFlagSet("avm verify", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	epochNum := fs.Uint("epoch", 0, "epoch number of the challenge")
	epochHashHex := fs.String("epoch-hash", "", "32-byte epoch block hash in hex (default: all zeros)")
	inPath := fs.String("in", "", "read the solutions from this file instead of stdin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "avm verify: %v\n", err)
		return 2
	}

	logger := cfg.NewLogger(os.Stderr).Module("puzzle")

	net, err := cfg.NetworkParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "avm verify: %v\n", err)
		return 2
	}

	var epochHash [32]byte
	if *epochHashHex != "" {
		epochHash, err = parseHash32(*epochHashHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "avm verify: %v\n", err)
			return 2
		}
	}

	data, err := readInput(*inPath)
	if err != nil {
		logger.Error("read solutions", "err", err)
		return 1
	}
	var solutions []puzzle.ProverSolution
	if err := json.Unmarshal(data, &solutions); err != nil {
		logger.Error("decode solutions", "err", err)
		return 1
	}
	if len(solutions) == 0 {
		logger.Error("no solutions to verify")
		return 1
	}

	prover, verifier, err := puzzle.Load(uint32(cfg.Degree))
	if err != nil {
		logger.Error("puzzle setup failed", "err", err)
		return 1
	}
	epoch, err := puzzle.NewEpochChallenge(uint32(*epochNum), epochHash, uint32(cfg.Degree))
	if err != nil {
		logger.Error("epoch challenge failed", "err", err)
		return 1
	}

	rejected := 0
	for i, s := range solutions {
		ok, verr := verifier.VerifySolution(s, epoch, net.GenesisProofTarget)
		switch {
		case verr != nil:
			logger.Error("solution rejected", "index", i, "nonce", s.Nonce(), "err", verr)
			rejected++
		case !ok:
			logger.Error("solution rejected", "index", i, "nonce", s.Nonce())
			rejected++
		default:
			logger.Info("solution verified", "index", i, "nonce", s.Nonce(), "target", s.Target())
		}
	}
	if rejected > 0 {
		logger.Error("verification failed", "rejected", rejected, "total", len(solutions))
		return 1
	}

	coinbase, err := prover.AccumulateUnchecked(epoch, solutions)
	if err != nil {
		logger.Error("accumulate failed", "err", err)
		return 1
	}

	timer := metrics.NewTimer(metrics.PuzzleVerifyTime)
	ok, err := verifier.Verify(coinbase, epoch, net.GenesisCoinbaseTarget, net.GenesisProofTarget)
	timer.Stop()
	if err != nil {
		logger.Error("coinbase solution rejected", "err", err)
		return 1
	}
	if !ok {
		logger.Error("coinbase solution rejected")
		return 1
	}

	logger.Info("coinbase solution verified",
		"solutions", len(solutions),
		"cumulative_target", coinbase.CumulativeTarget().String(),
		"coinbase_target", net.GenesisCoinbaseTarget)
	return 0
}

// readInput reads the whole named file, or stdin when path is empty
// or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
