// Package config loads the optional Janus package-manager configuration
// and resolves the fixed ~/.hinge layout (spec.md §6.2).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional ~/.hinge/config.toml, the way
// Heikkila-Pty-Ltd-cortex loads its TOML config: a single Load
// function with documented defaults, no env-var sprawl.
type Config struct {
	SigningKeyPath string `toml:"signing_key_path"`
	OutputFormat   string `toml:"output_format"` // jpk, tar.zst, zip
	VerifyMode     string `toml:"verify_mode"`   // strict, consensus
	Threshold      string `toml:"threshold"`     // "N/M", used when VerifyMode is consensus
}

func defaults() Config {
	return Config{
		SigningKeyPath: "~/.hinge/keys/default",
		OutputFormat:   "jpk",
		VerifyMode:     "strict",
		Threshold:      "1/1",
	}
}

// Load reads path if it exists, layering its values over documented
// defaults; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// HingeDir returns ~/.hinge, expanded against the current user's home
// directory.
func HingeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".hinge"), nil
}

// ConfigPath returns ~/.hinge/config.toml.
func ConfigPath() (string, error) {
	dir, err := HingeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// KeyringDir returns ~/.hinge/keyring, the trusted-key directory
// (spec.md §6.2).
func KeyringDir() (string, error) {
	dir, err := HingeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keyring"), nil
}

// TransparencyLogPath returns ~/.hinge/transparency.log.
func TransparencyLogPath() (string, error) {
	dir, err := HingeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transparency.log"), nil
}

// CheckpointPath returns ~/.hinge/checkpoint.json.
func CheckpointPath() (string, error) {
	dir, err := HingeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "checkpoint.json"), nil
}

// AuditLogPath returns ~/.hinge/ledger.jsonl.
func AuditLogPath() (string, error) {
	dir, err := HingeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ledger.jsonl"), nil
}

// EnsureHingeDirs creates ~/.hinge and its keyring subdirectory.
func EnsureHingeDirs() error {
	dir, err := HingeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	keyringDir, err := KeyringDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", keyringDir, err)
	}
	return nil
}
