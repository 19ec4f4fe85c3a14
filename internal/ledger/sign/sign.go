// Package sign implements package-signing backends, a local trusted-key
// keyring, and seal/verify over a packed package's hash.b3 (spec.md §4.10).
package sign

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable is returned by backends that are wired into the
// interface but not actually implemented yet (spec.md §4.10's pqclean).
var ErrBackendUnavailable = errors.New("sign: backend unavailable")

// ErrVerificationFailed is the sentinel for a failed signature check.
// Verify does not return it: it reports a failed check as false with a
// nil error.
var ErrVerificationFailed = errors.New("sign: verification failed")

// Signer is the common surface both backends expose (spec.md §4.10).
type Signer interface {
	GenerateKeypair() (public, private []byte, err error)
	DerivePublicKey(private []byte) ([]byte, error)
	Sign(private, message []byte) (signature []byte, err error)
	Verify(public, message, signature []byte) bool
	Name() string
}

// Backend selects a Signer implementation by name, mirroring the
// build-time backend selection in spec.md §4.10.
func Backend(name string) (Signer, error) {
	switch name {
	case "test":
		return testBackend{}, nil
	case "pqclean":
		return pqcleanBackend{}, nil
	default:
		return nil, fmt.Errorf("sign: unknown backend %q", name)
	}
}
