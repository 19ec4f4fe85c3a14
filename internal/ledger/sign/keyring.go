package sign

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/janus-lang/janus/internal/ledger"
)

// Keyring resolves trusted public keys from a fixed per-user directory,
// one file per key named "<keyid>.pub" (spec.md §4.10). Trust is
// explicit: a key is trusted only if its file exists in this directory,
// with no transitive or authority-based trust.
type Keyring struct {
	Dir string
}

// NewKeyring opens a keyring rooted at dir, creating it if absent.
func NewKeyring(dir string) (*Keyring, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("sign: create keyring dir: %w", err)
	}
	return &Keyring{Dir: dir}, nil
}

func (k *Keyring) pathFor(keyID string) string {
	return filepath.Join(k.Dir, keyID+".pub")
}

// Trust adds publicKey to the keyring, keyed by its BLAKE3-derived
// keyid.
func (k *Keyring) Trust(publicKey []byte) (keyID string, err error) {
	keyID = ledger.KeyID(publicKey)
	if err := os.WriteFile(k.pathFor(keyID), publicKey, 0o600); err != nil {
		return "", fmt.Errorf("sign: trust key %s: %w", keyID, err)
	}
	return keyID, nil
}

// Untrust removes a previously trusted key, if present.
func (k *Keyring) Untrust(keyID string) error {
	err := os.Remove(k.pathFor(keyID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sign: untrust key %s: %w", keyID, err)
	}
	return nil
}

// IsTrusted reports whether keyID has a corresponding entry on disk.
func (k *Keyring) IsTrusted(keyID string) bool {
	_, err := os.Stat(k.pathFor(keyID))
	return err == nil
}

// Lookup returns the public key bytes trusted under keyID.
func (k *Keyring) Lookup(keyID string) ([]byte, error) {
	data, err := os.ReadFile(k.pathFor(keyID))
	if err != nil {
		return nil, fmt.Errorf("sign: lookup key %s: %w", keyID, err)
	}
	return data, nil
}

// List enumerates all trusted key IDs.
func (k *Keyring) List() ([]string, error) {
	entries, err := os.ReadDir(k.Dir)
	if err != nil {
		return nil, fmt.Errorf("sign: list keyring: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		const suffix = ".pub"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			ids = append(ids, name[:len(name)-len(suffix)])
		}
	}
	return ids, nil
}
