package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avmlabs/go-avm/account"
	"github.com/avmlabs/go-avm/block"
	"github.com/avmlabs/go-avm/crypto"
	"github.com/avmlabs/go-avm/log"
)

// Configuration errors.
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownNetwork = errors.New("unknown network name")
)

// Config aggregates the settings shared by every avm subcommand.
// Values are resolved in order: defaults, then AVM_* environment
// variables, then command-line flags.
type Config struct {
	// Network selects the chain parameter preset.
	Network string

	// Degree is the degree of the puzzle polynomials.
	Degree uint

	// LogLevel is the minimum severity to emit.
	LogLevel string

	// LogFormat selects the log line encoding.
	LogFormat string

	// MetricsInterval is how often the metrics reporter prints a
	// snapshot. Zero disables periodic reporting.
	MetricsInterval time.Duration
}

// DefaultConfig returns the baseline configuration for subcommands.
func DefaultConfig() Config {
	return Config{
		Network:         "devnet",
		Degree:          255,
		LogLevel:        "info",
		LogFormat:       "text",
		MetricsInterval: 10 * time.Second,
	}
}

// PredefinedNetworks maps network names to their chain parameters.
var PredefinedNetworks = map[string]*block.Network{
	"devnet":  block.DevnetConfig,
	"testnet": block.TestnetConfig,
}

// RegisterFlags binds the shared flags onto fs. The current field
// values become the flag defaults, so environment overrides applied
// before parsing survive unless a flag is given explicitly.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Network, "network", c.Network, "network preset: devnet, testnet")
	fs.UintVar(&c.Degree, "degree", c.Degree, "puzzle polynomial degree")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text, json, color")
	fs.DurationVar(&c.MetricsInterval, "metrics-interval", c.MetricsInterval, "metrics report interval, 0 disables")
}

// ApplyEnvironment reads environment variables and overrides Config
// fields. Variables use the prefix AVM_ followed by uppercase field
// names (e.g. AVM_NETWORK, AVM_LOG_LEVEL). Malformed numeric values
// are ignored.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv("AVM_NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("AVM_DEGREE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Degree = uint(n)
		}
	}
	if v := os.Getenv("AVM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AVM_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("AVM_METRICS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MetricsInterval = d
		}
	}
}

// Validate checks the Config for internal consistency and returns an
// error describing the first problem found.
func (c *Config) Validate() error {
	if _, ok := PredefinedNetworks[strings.ToLower(c.Network)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNetwork, c.Network)
	}
	if c.Degree == 0 {
		return fmt.Errorf("%w: degree must be positive", ErrInvalidConfig)
	}
	if c.Degree > 1<<24 {
		return fmt.Errorf("%w: degree %d exceeds the supported maximum %d", ErrInvalidConfig, c.Degree, 1<<24)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "color":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("%w: metrics interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// NetworkParams resolves the selected network preset. The lookup is
// case-insensitive.
func (c *Config) NetworkParams() (*block.Network, error) {
	net, ok := PredefinedNetworks[strings.ToLower(c.Network)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, c.Network)
	}
	return net, nil
}

// NewLogger builds the root logger for a subcommand according to the
// configured level and format.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	var f log.LogFormatter
	switch strings.ToLower(c.LogFormat) {
	case "json":
		f = &log.JSONFormatter{}
	case "color":
		f = &log.ColorFormatter{}
	default:
		f = &log.TextFormatter{}
	}
	return log.NewFormatted(w, f, log.LevelFromString(c.LogLevel))
}

// parseSeed decodes a little-endian account seed from hex.
func parseSeed(s string) (crypto.Field, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return crypto.Field{}, fmt.Errorf("invalid seed: %w", err)
	}
	seed, err := crypto.FieldFromBytesLE(b)
	if err != nil {
		return crypto.Field{}, fmt.Errorf("invalid seed: %w", err)
	}
	return seed, nil
}

// parseAddress decodes a compressed account address from hex.
func parseAddress(s string) (account.Address, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return account.Address{}, fmt.Errorf("invalid address: %w", err)
	}
	addr, err := account.AddressFromBytes(b)
	if err != nil {
		return account.Address{}, fmt.Errorf("invalid address: %w", err)
	}
	return addr, nil
}

// parseHash32 decodes a 32-byte hash from hex.
func parseHash32(s string) ([32]byte, error) {
	var h [32]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("invalid hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("invalid hash: got %d bytes, want %d", len(b), len(h))
	}
	copy(h[:], b)
	return h, nil
}
