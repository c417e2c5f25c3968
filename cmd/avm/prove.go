package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/log"
	"github.com/avmlabs/go-avm/metrics"
	"github.com/avmlabs/go-avm/puzzle"
)

// logBackend forwards metrics snapshots to a logger, one key-value
// pair per metric, keys sorted.
type logBackend struct {
	logger *log.Logger
}

func (b logBackend) Report(snapshot map[string]interface{}) error {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, snapshot[k])
	}
	b.logger.Info("metrics", args...)
	return nil
}

// runProve searches a nonce range for puzzle solutions at or above the
// network proof target and writes the solutions it finds as JSON.
func runProve(args []string) int {
	cfg := DefaultConfig()
	ApplyEnvironment(&cfg)

	fs := flag.NewFlagSet("avm prove", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	epochNum := fs.Uint("epoch", 0, "epoch number of the challenge")
	epochHashHex := fs.String("epoch-hash", "", "32-byte epoch block hash in hex (default: all zeros)")
	addressHex := fs.String("address", "", "payout address in hex")
	seedHex := fs.String("seed", "", "derive the payout address from this account seed (hex)")
	nonceStart := fs.Uint64("nonce", 0, "first nonce to try")
	attempts := fs.Uint64("attempts", 1024, "number of nonces to try")
	outPath := fs.String("out", "", "write the solutions to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "avm prove: %v\n", err)
		return 2
	}

	logger := cfg.NewLogger(os.Stderr).Module("puzzle")

	net, err := cfg.NetworkParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "avm prove: %v\n", err)
		return 2
	}

	// Resolve the payout address: explicit, seed-derived, or throwaway.
	var addr account.Address
	switch {
	case *addressHex != "" && *seedHex != "":
		fmt.Fprintln(os.Stderr, "avm prove: -address and -seed are mutually exclusive")
		return 2
	case *addressHex != "":
		addr, err = parseAddress(*addressHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "avm prove: %v\n", err)
			return 2
		}
	case *seedHex != "":
		seed, perr := parseSeed(*seedHex)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "avm prove: %v\n", perr)
			return 2
		}
		sk, kerr := account.PrivateKeyFromSeed(seed)
		if kerr != nil {
			fmt.Fprintf(os.Stderr, "avm prove: %v\n", kerr)
			return 1
		}
		addr = sk.Address()
	default:
		sk, kerr := account.NewPrivateKey(rand.Reader)
		if kerr != nil {
			fmt.Fprintf(os.Stderr, "avm prove: %v\n", kerr)
			return 1
		}
		addr = sk.Address()
		logger.Info("generated a throwaway payout address", "address", addr.String())
	}

	var epochHash [32]byte
	if *epochHashHex != "" {
		epochHash, err = parseHash32(*epochHashHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "avm prove: %v\n", err)
			return 2
		}
	}

	prover, _, err := puzzle.Load(uint32(cfg.Degree))
	if err != nil {
		logger.Error("puzzle setup failed", "err", err)
		return 1
	}
	epoch, err := puzzle.NewEpochChallenge(uint32(*epochNum), epochHash, uint32(cfg.Degree))
	if err != nil {
		logger.Error("epoch challenge failed", "err", err)
		return 1
	}

	metrics.PuzzleEpoch.Set(int64(*epochNum))

	reporter := metrics.NewReporter(nil, cfg.MetricsInterval)
	reporter.RegisterBackend("log", logBackend{logger: logger})
	if cfg.MetricsInterval > 0 {
		reporter.Start()
		defer reporter.Stop()
	}

	meter := metrics.NewMeter()

	logger.Info("proving started",
		"network", cfg.Network,
		"epoch", *epochNum,
		"degree", cfg.Degree,
		"proof_target", net.GenesisProofTarget,
		"attempts", *attempts)

	var solutions []puzzle.ProverSolution
	for i := uint64(0); i < *attempts; i++ {
		nonce := *nonceStart + i

		timer := metrics.NewTimer(metrics.PuzzleProveTime)
		solution, perr := prover.Prove(epoch, addr, nonce, net.GenesisProofTarget)
		timer.Stop()
		metrics.PuzzleAttempts.Inc()
		meter.Mark(1)

		if errors.Is(perr, puzzle.ErrProofTarget) {
			logger.Debug("below the proof target", "nonce", nonce)
			continue
		}
		if perr != nil {
			logger.Error("prove failed", "nonce", nonce, "err", perr)
			return 1
		}

		metrics.PuzzleSolutions.Inc()
		logger.Info("solution found", "nonce", nonce, "target", solution.Target())
		solutions = append(solutions, solution)
	}

	logger.Info("proving finished",
		"attempts", *attempts,
		"solutions", len(solutions),
		"rate", fmt.Sprintf("%.1f/s", meter.RateMean()))

	if len(solutions) == 0 {
		return 1
	}

	data, err := json.MarshalIndent(solutions, "", "  ")
	if err != nil {
		logger.Error("encode solutions", "err", err)
		return 1
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			logger.Error("write solutions", "path", *outPath, "err", err)
			return 1
		}
		logger.Info("solutions written", "path", *outPath, "count", len(solutions))
		return 0
	}
	fmt.Println(string(data))
	return 0
}
