package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"royaltychain/crypto"
)

const (
	// DefaultPaymentExpiryBlocks is the claim window seeded into fresh state:
	// roughly fifteen days at the default block interval.
	DefaultPaymentExpiryBlocks = 4320
	// DefaultBlockIntervalSeconds is the wall-clock span of one height step.
	DefaultBlockIntervalSeconds = 300
)

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	NetworkName          string `toml:"NetworkName"`
	AdminAddress         string `toml:"AdminAddress"`
	PaymentExpiryBlocks  uint64 `toml:"PaymentExpiryBlocks"`
	BlockIntervalSeconds uint64 `toml:"BlockIntervalSeconds"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet. The default carries an empty AdminAddress; the daemon
// refuses to start until an operator fills it in.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./royaltyd-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "royalty-local"
	}
	if cfg.PaymentExpiryBlocks == 0 {
		cfg.PaymentExpiryBlocks = DefaultPaymentExpiryBlocks
	}
	if cfg.BlockIntervalSeconds == 0 {
		cfg.BlockIntervalSeconds = DefaultBlockIntervalSeconds
	}
}

// Validate checks the loaded values and names the offending field on failure.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.AdminAddress) == "" {
		return fmt.Errorf("AdminAddress is required")
	}
	if _, err := crypto.DecodeAddress(cfg.AdminAddress); err != nil {
		return fmt.Errorf("AdminAddress: %w", err)
	}
	if cfg.PaymentExpiryBlocks == 0 {
		return fmt.Errorf("PaymentExpiryBlocks must be positive")
	}
	if cfg.BlockIntervalSeconds == 0 {
		return fmt.Errorf("BlockIntervalSeconds must be positive")
	}
	return nil
}

// Admin returns the decoded administrator identity.
func (cfg *Config) Admin() (crypto.Address, error) {
	return crypto.DecodeAddress(cfg.AdminAddress)
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, fmt.Errorf("wrote default config to %s; set AdminAddress before starting", path)
}
