package sign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey48() []byte {
	k := make([]byte, 48)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func testKeyN(seed byte) []byte {
	k := make([]byte, 48)
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

func TestTestBackend_VerifyTrueThenFalseAfterByteFlip(t *testing.T) {
	backend, err := Backend("test")
	require.NoError(t, err)
	private := testKey48()
	public, err := backend.DerivePublicKey(private)
	require.NoError(t, err)

	message := []byte("deadbeefcafef00d")
	sig, err := backend.Sign(private, message)
	require.NoError(t, err)
	assert.True(t, backend.Verify(public, message, sig), "Verify should be true for an untampered signature")

	flipped := append([]byte(nil), sig...)
	flipped[0] ^= 0x01
	assert.False(t, backend.Verify(public, message, flipped), "Verify should be false after flipping one signature byte")
}

func TestPqcleanBackend_ReturnsUnavailable(t *testing.T) {
	backend, err := Backend("pqclean")
	require.NoError(t, err)
	_, _, err = backend.GenerateKeypair()
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		in      string
		want    Threshold
		wantErr bool
	}{
		{in: "2/3", want: Threshold{N: 2, M: 3}},
		{in: "1/1", want: Threshold{N: 1, M: 1}},
		{in: "0/3", wantErr: true},
		{in: "4/3", wantErr: true},
		{in: "nope", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseThreshold(c.in)
		if c.wantErr {
			assert.Error(t, err, "ParseThreshold(%q)", c.in)
			continue
		}
		if assert.NoError(t, err, "ParseThreshold(%q)", c.in) {
			assert.Equal(t, c.want, got, "ParseThreshold(%q)", c.in)
		}
	}
}

func TestKeyring_TrustLookupUntrust(t *testing.T) {
	dir := t.TempDir()
	kr, err := NewKeyring(dir)
	require.NoError(t, err)

	backend, _ := Backend("test")
	public, _, err := backend.GenerateKeypair()
	require.NoError(t, err)

	keyID, err := kr.Trust(public)
	require.NoError(t, err)
	assert.True(t, kr.IsTrusted(keyID), "IsTrusted should be true right after Trust")

	got, err := kr.Lookup(keyID)
	require.NoError(t, err)
	assert.Equal(t, public, got)

	require.NoError(t, kr.Untrust(keyID))
	assert.False(t, kr.IsTrusted(keyID), "IsTrusted should be false after Untrust")
}

func TestSealAndVerify_StrictModeWithTrustedKey(t *testing.T) {
	packageDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packageDir, "hash.b3"), []byte("abad1dea"), 0o644))

	backend, _ := Backend("test")
	private := testKey48()

	keyID, err := Seal(backend, private, packageDir)
	require.NoError(t, err)

	krDir := t.TempDir()
	kr, err := NewKeyring(krDir)
	require.NoError(t, err)
	public, err := backend.DerivePublicKey(private)
	require.NoError(t, err)
	_, err = kr.Trust(public)
	require.NoError(t, err)

	ok, err := Verify(backend, packageDir, kr, VerifyMode{Strict: true})
	require.NoError(t, err)
	assert.True(t, ok, "Verify should be true with one trusted signature present (keyid %s)", keyID)
}

func TestVerify_StrictModeFailsWithoutTrust(t *testing.T) {
	packageDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packageDir, "hash.b3"), []byte("abad1dea"), 0o644))

	backend, _ := Backend("test")
	private := testKey48()
	_, err := Seal(backend, private, packageDir)
	require.NoError(t, err)

	krDir := t.TempDir()
	kr, err := NewKeyring(krDir)
	require.NoError(t, err)

	ok, err := Verify(backend, packageDir, kr, VerifyMode{Strict: true})
	require.NoError(t, err)
	assert.False(t, ok, "Verify should be false with no trusted keys")
}

// sealWith seals packageDir with a fresh keypair derived from seed and
// returns the trusted keyring entry's public key, for consensus tests
// that need several independent signers over the same package.
func sealWith(t *testing.T, backend Signer, packageDir string, seed byte) []byte {
	t.Helper()
	private := testKeyN(seed)
	_, err := Seal(backend, private, packageDir)
	require.NoError(t, err)
	public, err := backend.DerivePublicKey(private)
	require.NoError(t, err)
	return public
}

// Consensus mode requires both that at least N signatures verify AND
// that at least M signatures were discovered in the first place
// (spec.md: "of the M discovered signatures, at least N must verify").
func TestVerify_ConsensusModeRequiresDiscoveredFloor(t *testing.T) {
	packageDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packageDir, "hash.b3"), []byte("abad1dea"), 0o644))

	backend, _ := Backend("test")
	kr, err := NewKeyring(t.TempDir())
	require.NoError(t, err)

	// Only one signature exists; --threshold 1/3 must fail because only
	// 1 of a required 3 discovered signatures is present.
	public := sealWith(t, backend, packageDir, 0x10)
	_, err = kr.Trust(public)
	require.NoError(t, err)

	ok, err := Verify(backend, packageDir, kr, VerifyMode{Consensus: Threshold{N: 1, M: 3}})
	require.NoError(t, err)
	assert.False(t, ok, "consensus should fail when fewer than M signatures were discovered")

	// Seal two more signatures (3 discovered total). Trust two of the
	// three keys; the third (seed 0x20) is left untrusted on purpose.
	sealWith(t, backend, packageDir, 0x20)
	public3 := sealWith(t, backend, packageDir, 0x30)
	_, err = kr.Trust(public3)
	require.NoError(t, err)

	// 3 signatures discovered (>= M=3) and 2 of them trusted+valid
	// (>= N=2): consensus should now pass.
	ok, err = Verify(backend, packageDir, kr, VerifyMode{Consensus: Threshold{N: 2, M: 3}})
	require.NoError(t, err)
	assert.True(t, ok, "consensus should pass once M signatures are discovered and N of them verify")

	// Raising N above the number of trusted signatures should fail even
	// though the discovered floor M is still met.
	ok, err = Verify(backend, packageDir, kr, VerifyMode{Consensus: Threshold{N: 3, M: 3}})
	require.NoError(t, err)
	assert.False(t, ok, "consensus should fail when fewer than N signatures verify, even if M is met")
}
