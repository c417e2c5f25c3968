// Command avm is a workbench for the avm primitives: account key
// generation, coinbase puzzle proving and verification, and genesis
// parameter inspection.
//
// Usage:
//
//	avm <command> [flags]
//
// Commands:
//
//	keygen   Generate account keys
//	prove    Search for coinbase puzzle solutions
//	verify   Verify prover solutions and their accumulation
//	genesis  Print the genesis block metadata of a network
//	version  Print version and exit
//	help     Print usage and exit
//
// Shared flags, also settable through AVM_* environment variables:
//
//	-network           Network preset: devnet, testnet (default: devnet)
//	-degree            Puzzle polynomial degree (default: 255)
//	-log-level         Log level: debug, info, warn, error (default: info)
//	-log-format        Log format: text, json, color (default: text)
//	-metrics-interval  Metrics report interval, 0 disables (default: 10s)
package main

import (
	"fmt"
	"io"
	"os"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches to a subcommand and returns the process exit code.
// It accepts CLI arguments without the program name so it can be
// tested in isolation.
func run(args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "keygen":
		return runKeygen(rest)
	case "prove":
		return runProve(rest)
	case "verify":
		return runVerify(rest)
	case "genesis":
		return runGenesis(rest)
	case "version", "-version", "--version":
		fmt.Printf("avm %s (commit %s)\n", version, commit)
		return 0
	case "help", "-h", "-help", "--help":
		usage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "avm: unknown command %q\n\n", cmd)
		usage(os.Stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `avm is a workbench for the avm primitives.

Usage:

	avm <command> [flags]

Commands:

	keygen   generate account keys
	prove    search for coinbase puzzle solutions
	verify   verify prover solutions and their accumulation
	genesis  print the genesis block metadata of a network
	version  print version and exit
	help     print this message

Run "avm <command> -h" for the flags of a command.
`)
}
