package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon wiring for the streaming-pool ledger service.
// The core ledger itself needs none of this; the config only concerns the
// serving layer.
type Config struct {
	RPCAddress  string   `toml:"RPCAddress"`
	DataDir     string   `toml:"DataDir"`
	ServiceName string   `toml:"ServiceName"`
	// AdminAddresses lists the 0x-prefixed hex addresses allowed to update
	// share weights.
	AdminAddresses []string `toml:"AdminAddresses"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if _, err := cfg.AdminSet(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AdminSet parses AdminAddresses into the binary form used by the ledger's
// authorization check.
func (c *Config) AdminSet() (map[[20]byte]struct{}, error) {
	admins := make(map[[20]byte]struct{}, len(c.AdminAddresses))
	for _, raw := range c.AdminAddresses {
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid admin address %q: %w", raw, err)
		}
		admins[addr] = struct{}{}
	}
	return admins, nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(raw string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(raw)
	cleaned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(cleaned) != 40 {
		return out, fmt.Errorf("address must be 20 bytes of hex")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded)
	return out, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./streampay-data"
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "streampayd"
	}
	if cfg.AdminAddresses == nil {
		cfg.AdminAddresses = []string{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
