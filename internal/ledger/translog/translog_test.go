package translog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janus-lang/janus/internal/ledger/sign"
)

func openFixtureLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.jsonl")
	l, err := Open(path)
	require.NoError(t, err)
	return l
}

// TestTranslog_VerifyProofMatchesComputeRoot is spec.md §8 Invariant 3:
// verify_proof(line, proof_for_statement(line)) == compute_root() for
// any append sequence.
func TestTranslog_VerifyProofMatchesComputeRoot(t *testing.T) {
	l := openFixtureLog(t)
	statements := []string{
		`{"hash":"aa00","keyid":"0011223344556677","ts":1}`,
		`{"hash":"bb00","keyid":"0011223344556677","ts":2}`,
		`{"hash":"cc00","keyid":"0011223344556677","ts":3}`,
	}
	for _, s := range statements {
		require.NoError(t, l.Append(s))
	}

	root, err := l.ComputeRoot()
	require.NoError(t, err)

	for _, s := range statements {
		proof, ok, err := l.ProofForStatement(s)
		require.NoError(t, err)
		require.True(t, ok, "ProofForStatement(%q) not found", s)

		got := VerifyProof(s, proof)
		assert.Equal(t, root, got, "VerifyProof(%q)", s)
	}
}

// TestTranslog_AppendThreeVerifyMiddle is spec.md §8 Scenario S6.
func TestTranslog_AppendThreeVerifyMiddle(t *testing.T) {
	l := openFixtureLog(t)
	statements := []string{
		`{"hash":"aa..","keyid":"0011","ts":1}`,
		`{"hash":"bb..","keyid":"0011","ts":2}`,
		`{"hash":"cc..","keyid":"0011","ts":3}`,
	}
	for _, s := range statements {
		require.NoError(t, l.Append(s))
	}

	root, err := l.ComputeRoot()
	require.NoError(t, err)

	middle := statements[1]
	proof, ok, err := l.ProofForStatement(middle)
	require.NoError(t, err)
	require.True(t, ok, "ProofForStatement(middle) not found")
	assert.Equal(t, 1, proof.Index)
	assert.Equal(t, 3, proof.Total)

	got := VerifyProof(middle, proof)
	assert.Equal(t, root, got, "VerifyProof(middle)")
}

func TestTranslog_AppendUsesSingleNewlineTerminator(t *testing.T) {
	l := openFixtureLog(t)
	require.NoError(t, l.Append("line-one"))
	require.NoError(t, l.Append("line-two"))

	lines, err := l.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"line-one", "line-two"}, lines)
}

func TestCheckpoint_WriteAndVerifySignature(t *testing.T) {
	l := openFixtureLog(t)
	require.NoError(t, l.Append(`{"hash":"aa..","keyid":"0011","ts":1}`))

	backend, err := sign.Backend("test")
	require.NoError(t, err)
	public, private, err := backend.GenerateKeypair()
	require.NoError(t, err)

	cpPath := filepath.Join(t.TempDir(), "checkpoint.json")
	cp, err := l.WriteCheckpoint(cpPath, 12345, backend, private)
	require.NoError(t, err)
	require.NotEmpty(t, cp.Sig, "WriteCheckpoint produced no signature")

	loaded, err := ReadCheckpoint(cpPath)
	require.NoError(t, err)

	ok, err := VerifyCheckpoint(backend, public, loaded)
	require.NoError(t, err)
	assert.True(t, ok, "VerifyCheckpoint should be true for an untampered checkpoint")

	loaded.TS = 99999
	ok, err = VerifyCheckpoint(backend, public, loaded)
	require.NoError(t, err)
	assert.False(t, ok, "VerifyCheckpoint should be false after tampering with ts")
}
