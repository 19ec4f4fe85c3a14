package main

import (
	"fmt"
	"os"
	"time"

	"github.com/janus-lang/janus/internal/config"
	"github.com/janus-lang/janus/internal/ledger/sign"
)

func nowUnix() int64 {
	return time.Now().Unix()
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	return data, nil
}

func openKeyring() (*sign.Keyring, error) {
	if err := config.EnsureHingeDirs(); err != nil {
		return nil, err
	}
	dir, err := config.KeyringDir()
	if err != nil {
		return nil, err
	}
	return sign.NewKeyring(dir)
}

func hingeTranslogPath() (string, error) {
	if err := config.EnsureHingeDirs(); err != nil {
		return "", err
	}
	return config.TransparencyLogPath()
}

func hingeCheckpointPath() (string, error) {
	if err := config.EnsureHingeDirs(); err != nil {
		return "", err
	}
	return config.CheckpointPath()
}
