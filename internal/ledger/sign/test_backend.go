package sign

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"lukechampine.com/blake3"
)

// testPrivateKeySize matches spec.md §8 Scenario S5's 48-byte test key.
const testPrivateKeySize = 48

// testBackend is the "BLAKE3-derived deterministic pseudo-signature"
// backend named in spec.md §4.10 — scaffolding only, not a real
// signature scheme. A signature embeds the private key alongside a
// BLAKE3 MAC over it and the message, so Verify can check both without
// holding the private key separately; this makes the scheme trivially
// forgeable by anyone who sees a signature; it exists purely so seal/
// verify/consensus logic has something deterministic to exercise
// before a real backend is wired in.
type testBackend struct{}

func (testBackend) Name() string { return "test" }

func (testBackend) GenerateKeypair() (public, private []byte, err error) {
	private = make([]byte, testPrivateKeySize)
	if _, err := rand.Read(private); err != nil {
		return nil, nil, fmt.Errorf("sign: generate test keypair: %w", err)
	}
	public, err = testBackend{}.DerivePublicKey(private)
	return public, private, err
}

func (testBackend) DerivePublicKey(private []byte) ([]byte, error) {
	sum := blake3.Sum256(private)
	return sum[:], nil
}

func (testBackend) Sign(private, message []byte) ([]byte, error) {
	mac := testMAC(private, message)
	sig := make([]byte, 0, len(private)+len(mac))
	sig = append(sig, private...)
	sig = append(sig, mac...)
	return sig, nil
}

const macSize = 32

func (testBackend) Verify(public, message, signature []byte) bool {
	if len(signature) < testPrivateKeySize+macSize {
		return false
	}
	candidatePrivate := signature[:len(signature)-macSize]
	mac := signature[len(signature)-macSize:]

	derivedPublic, err := testBackend{}.DerivePublicKey(candidatePrivate)
	if err != nil || !bytes.Equal(derivedPublic, public) {
		return false
	}
	return bytes.Equal(mac, testMAC(candidatePrivate, message))
}

func testMAC(private, message []byte) []byte {
	buf := make([]byte, 0, len(private)+len(message))
	buf = append(buf, private...)
	buf = append(buf, message...)
	sum := blake3.Sum256(buf)
	return sum[:]
}
