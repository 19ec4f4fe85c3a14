package sign

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/janus-lang/janus/internal/ledger"
)

// Signature is one discovered signatures/<keyid>.{sig,pub} pair.
type Signature struct {
	KeyID     string
	PublicKey []byte
	Bytes     []byte
}

// Seal reads packageDir/hash.b3, signs it with private under backend,
// and writes signatures/<keyid>.{sig,pub} into packageDir (spec.md
// §4.10 Seal).
func Seal(backend Signer, private []byte, packageDir string) (keyID string, err error) {
	hashHex, err := os.ReadFile(filepath.Join(packageDir, "hash.b3"))
	if err != nil {
		return "", fmt.Errorf("sign: seal: read hash.b3: %w", err)
	}

	public, err := backend.DerivePublicKey(private)
	if err != nil {
		return "", fmt.Errorf("sign: seal: derive public key: %w", err)
	}
	sig, err := backend.Sign(private, hashHex)
	if err != nil {
		return "", fmt.Errorf("sign: seal: sign: %w", err)
	}

	keyID = ledger.KeyID(public)
	sigDir := filepath.Join(packageDir, "signatures")
	if err := os.MkdirAll(sigDir, 0o755); err != nil {
		return "", fmt.Errorf("sign: seal: create signatures dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sigDir, keyID+".sig"), sig, 0o644); err != nil {
		return "", fmt.Errorf("sign: seal: write signature: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sigDir, keyID+".pub"), public, 0o644); err != nil {
		return "", fmt.Errorf("sign: seal: write public key: %w", err)
	}
	return keyID, nil
}

// DiscoverSignatures reads every signatures/<keyid>.{sig,pub} pair from
// packageDir.
func DiscoverSignatures(packageDir string) ([]Signature, error) {
	sigDir := filepath.Join(packageDir, "signatures")
	entries, err := os.ReadDir(sigDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sign: discover signatures: %w", err)
	}

	byKeyID := make(map[string]*Signature)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".sig"):
			keyID := strings.TrimSuffix(name, ".sig")
			data, err := os.ReadFile(filepath.Join(sigDir, name))
			if err != nil {
				return nil, fmt.Errorf("sign: read %s: %w", name, err)
			}
			entry := byKeyID[keyID]
			if entry == nil {
				entry = &Signature{KeyID: keyID}
				byKeyID[keyID] = entry
			}
			entry.Bytes = data
		case strings.HasSuffix(name, ".pub"):
			keyID := strings.TrimSuffix(name, ".pub")
			data, err := os.ReadFile(filepath.Join(sigDir, name))
			if err != nil {
				return nil, fmt.Errorf("sign: read %s: %w", name, err)
			}
			entry := byKeyID[keyID]
			if entry == nil {
				entry = &Signature{KeyID: keyID}
				byKeyID[keyID] = entry
			}
			entry.PublicKey = data
		}
	}

	var out []Signature
	for _, sig := range byKeyID {
		if len(sig.Bytes) > 0 && len(sig.PublicKey) > 0 {
			out = append(out, *sig)
		}
	}
	return out, nil
}

// VerifyMode selects strict or N/M consensus verification (spec.md
// §4.10 Verify).
type VerifyMode struct {
	Strict    bool
	Consensus Threshold // used when Strict is false
}

// Verify checks packageDir's discovered signatures against hash.b3
// using keyring as the trust source, per mode.
func Verify(backend Signer, packageDir string, keyring *Keyring, mode VerifyMode) (bool, error) {
	hashHex, err := os.ReadFile(filepath.Join(packageDir, "hash.b3"))
	if err != nil {
		return false, fmt.Errorf("sign: verify: read hash.b3: %w", err)
	}

	sigs, err := DiscoverSignatures(packageDir)
	if err != nil {
		return false, err
	}

	valid := 0
	for _, sig := range sigs {
		if !keyring.IsTrusted(sig.KeyID) {
			continue
		}
		trustedPublic, err := keyring.Lookup(sig.KeyID)
		if err != nil {
			continue
		}
		if string(trustedPublic) != string(sig.PublicKey) {
			continue
		}
		if backend.Verify(sig.PublicKey, hashHex, sig.Bytes) {
			valid++
		}
	}

	if mode.Strict {
		return valid >= 1, nil
	}
	// spec.md's consensus mode reads "of the M discovered signatures, at
	// least N must verify" -- M is a floor on how many signatures must
	// have been discovered at all, not just on how many verify.
	return len(sigs) >= mode.Consensus.M && valid >= mode.Consensus.N, nil
}
