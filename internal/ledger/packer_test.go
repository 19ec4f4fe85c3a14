package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"bin/janus":       "#!/bin/sh\nexec janus-real\n",
		"lib/libjanus.so": "not-really-an-elf",
		"include/janus.h": "#pragma once\n",
		"README.md":       "# hello\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestPack_ClassifiesFilesByPathPrefix(t *testing.T) {
	root := writeFixtureTree(t)

	layout, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"bin/janus"}, layout.Program.Binaries)
	assert.Equal(t, []string{"lib/libjanus.so"}, layout.Program.Libraries)
	assert.Equal(t, []string{"include/janus.h"}, layout.Program.Headers)
	assert.Equal(t, []string{"README.md"}, layout.Program.Data)
	assert.True(t, layout.HasRoot)
}

func TestPack_MerkleRootIsDeterministicAcrossRuns(t *testing.T) {
	root := writeFixtureTree(t)

	first, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)
	second, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.MerkleRoot, second.MerkleRoot, "MerkleRoot not stable across identical packs")
}

func TestPack_MerkleRootChangesWithFileContent(t *testing.T) {
	root := writeFixtureTree(t)
	before, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("changed\n"), 0o644))

	after, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, before.MerkleRoot, after.MerkleRoot, "MerkleRoot unchanged after file content changed")
}

func TestPack_WithSBOMProducesValidSBOM(t *testing.T) {
	root := writeFixtureTree(t)

	layout, err := Pack(root, "janus", "0.1.0", PackOptions{GenerateSBOM: true})
	require.NoError(t, err)
	require.NotEmpty(t, layout.SBOM)
	assert.NoError(t, ValidateSBOM(layout.SBOM))
}

// The SBOM generator detects each component's language via astdb's
// tokenizer/parser, caching parsed units in a SnapshotCache keyed by
// content hash (SPEC_FULL.md §5).
func TestPack_SBOMDetectsLanguageViaSnapshotCache(t *testing.T) {
	root := writeFixtureTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.janus"), []byte("let x = 1"), 0o644))

	layout, err := Pack(root, "janus", "0.1.0", PackOptions{GenerateSBOM: true})
	require.NoError(t, err)

	var doc sbomDocument
	require.NoError(t, json.Unmarshal(layout.SBOM, &doc))

	langs := make(map[string]string, len(doc.Components))
	for _, c := range doc.Components {
		langs[c.Name] = c.Language
	}
	assert.Equal(t, "janus", langs["main.janus"])
	assert.Equal(t, "data", langs["README.md"])

	// Packing again should hit the shared cache for the identical
	// main.janus bytes rather than erroring or reclassifying it.
	layout2, err := Pack(root, "janus", "0.1.0", PackOptions{GenerateSBOM: true})
	require.NoError(t, err)
	var doc2 sbomDocument
	require.NoError(t, json.Unmarshal(layout2.SBOM, &doc2))
	for _, c := range doc2.Components {
		if c.Name == "main.janus" {
			assert.Equal(t, "janus", c.Language)
		}
	}
}

func TestWritePackage_JPKDirLayoutRoundTrips(t *testing.T) {
	root := writeFixtureTree(t)
	layout, err := Pack(root, "janus", "0.1.0", PackOptions{GenerateSBOM: true})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.jpk")
	require.NoError(t, WritePackage(layout, out, FormatJPK))

	manifestBytes, err := os.ReadFile(filepath.Join(out, "manifest.kdl"))
	require.NoError(t, err)
	parsed, err := ParseManifest(manifestBytes)
	require.NoError(t, err)
	assert.Equal(t, "janus", parsed.Name)
	assert.Equal(t, "0.1.0", parsed.Version)

	hashHex, err := os.ReadFile(filepath.Join(out, "hash.b3"))
	require.NoError(t, err)
	assert.Equal(t, hexEncode(layout.MerkleRoot[:]), string(hashHex))

	_, err = os.Stat(filepath.Join(out, "sbom.json"))
	assert.NoError(t, err, "sbom.json missing")
	_, err = os.Stat(filepath.Join(out, "bin", "janus"))
	assert.NoError(t, err, "bin/janus missing from jpk dir")
}

func TestWritePackage_ZipAndTarZstDoNotError(t *testing.T) {
	root := writeFixtureTree(t)
	layout, err := Pack(root, "janus", "0.1.0", PackOptions{})
	require.NoError(t, err)

	zipOut := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, WritePackage(layout, zipOut, FormatZip))
	info, err := os.Stat(zipOut)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	tarOut := filepath.Join(t.TempDir(), "out.tar.zst")
	require.NoError(t, WritePackage(layout, tarOut, FormatTarZst))
	info, err = os.Stat(tarOut)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
