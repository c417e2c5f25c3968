package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/crypto"
)

// generatedKey is the printable form of one account.
type generatedKey struct {
	Seed    string `json:"seed"`
	ViewKey string `json:"viewKey"`
	Address string `json:"address"`
}

// runKeygen generates accounts and prints the seed, view key, and
// address of each. With -seed the account is derived deterministically
// instead of sampled.
func runKeygen(args []string) int {
	fs := flag.NewFlagSet("avm keygen", flag.ContinueOnError)
	seedHex := fs.String("seed", "", "derive the account from this seed (hex, little-endian)")
	count := fs.Int("n", 1, "number of accounts to generate")
	asJSON := fs.Bool("json", false, "print the accounts as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *count < 1 {
		fmt.Fprintln(os.Stderr, "avm keygen: -n must be at least 1")
		return 2
	}
	if *seedHex != "" && *count != 1 {
		fmt.Fprintln(os.Stderr, "avm keygen: a fixed seed produces exactly one account")
		return 2
	}

	out := make([]generatedKey, 0, *count)
	for i := 0; i < *count; i++ {
		var (
			sk  *account.PrivateKey
			err error
		)
		if *seedHex != "" {
			seed, perr := parseSeed(*seedHex)
			if perr != nil {
				fmt.Fprintf(os.Stderr, "avm keygen: %v\n", perr)
				return 2
			}
			sk, err = account.PrivateKeyFromSeed(seed)
		} else {
			sk, err = account.NewPrivateKey(rand.Reader)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "avm keygen: %v\n", err)
			return 1
		}
		out = append(out, formatKey(sk))
	}

	if *asJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "avm keygen: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	for i, k := range out {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("seed:     %s\n", k.Seed)
		fmt.Printf("view key: %s\n", k.ViewKey)
		fmt.Printf("address:  %s\n", k.Address)
	}
	return 0
}

func formatKey(sk *account.PrivateKey) generatedKey {
	seedBytes := crypto.FieldToBytesLE(sk.Seed())
	return generatedKey{
		Seed:    hex.EncodeToString(seedBytes[:]),
		ViewKey: sk.ViewKey().Text(16),
		Address: sk.Address().String(),
	}
}
