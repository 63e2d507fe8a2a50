package node

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from TOML strings like
// "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the node configuration: identifiers, handler bounds, and
// background task schedules. Values come from defaults, then an
// optional TOML file, then SUBNET_* environment overrides, in that
// order.
type Config struct {
	// Network names the settlement network transactions derive their
	// ids on.
	Network string `toml:"network"`

	// LedgerID identifies the external settlement ledger.
	LedgerID string `toml:"ledger_id"`

	// ListenAddr is the gRPC listen address.
	ListenAddr string `toml:"listen_addr"`

	// MaxTxPayload bounds a tx operation's value in bytes.
	MaxTxPayload int `toml:"max_tx_payload"`

	// MaxEntrySize bounds a fetched settlement entry in bytes.
	MaxEntrySize int `toml:"max_entry_size"`

	// MaxHeightAhead is the transaction stall guard: how far past the
	// confirmed settlement height a referenced height may lie.
	MaxHeightAhead uint64 `toml:"max_height_ahead"`

	// MaxMessageLength bounds a chat message in runes.
	MaxMessageLength int `toml:"max_message_length"`

	// MaxNickLength bounds a nickname in runes.
	MaxNickLength int `toml:"max_nick_length"`

	// PendingExpiry drops unconfirmed pool transactions after this
	// long.
	PendingExpiry Duration `toml:"pending_expiry"`

	// ObserverInterval schedules settlement-confirmation scans.
	ObserverInterval Duration `toml:"observer_interval"`

	// FlushInterval schedules log flushes into the view.
	FlushInterval Duration `toml:"flush_interval"`

	// PollInterval is the wait between confirmed-height polls while
	// apply awaits a referenced settlement height.
	PollInterval Duration `toml:"poll_interval"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Network:          "mainnet",
		LedgerID:         "settlement",
		ListenAddr:       "127.0.0.1:7450",
		MaxTxPayload:     64 * 1024,
		MaxEntrySize:     64 * 1024,
		MaxHeightAhead:   10,
		MaxMessageLength: 2000,
		MaxNickLength:    32,
		PendingExpiry:    Duration{10 * time.Minute},
		ObserverInterval: Duration{5 * time.Second},
		FlushInterval:    Duration{500 * time.Millisecond},
		PollInterval:     Duration{250 * time.Millisecond},
	}
}

// Load reads configuration: defaults, overlaid with the TOML file at
// path when non-empty, overlaid with environment variables.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("node: load config %s: %w", path, err)
		}
	}
	if err := cfg.fromEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("SUBNET_NETWORK"); v != "" {
		c.Network = v
	}
	if v := os.Getenv("SUBNET_LEDGER_ID"); v != "" {
		c.LedgerID = v
	}
	if v := os.Getenv("SUBNET_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("SUBNET_MAX_HEIGHT_AHEAD"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("node: SUBNET_MAX_HEIGHT_AHEAD: %w", err)
		}
		c.MaxHeightAhead = n
	}
	if v := os.Getenv("SUBNET_PENDING_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("node: SUBNET_PENDING_EXPIRY: %w", err)
		}
		c.PendingExpiry = Duration{d}
	}
	return nil
}
