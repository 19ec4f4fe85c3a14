package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePackFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "hello"), []byte("#!/bin/sh\necho hi\n"), 0o644))
	return root
}

func writePackTestKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 48)
	for i := range key {
		key[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "test.key")
	require.NoError(t, os.WriteFile(path, key, 0o600))
	return path
}

// Regression test: packing with --format zip (or tar.zst) and --sign must
// embed the signatures/ entries into the archive itself, since outPath
// names a single file rather than a directory sign.Seal can write into.
func TestPackCmd_SignWithZipFormatEmbedsSignatures(t *testing.T) {
	source := writePackFixture(t)
	outDir := t.TempDir()
	keyPath := writePackTestKey(t)

	root := newRootCmd()
	root.SetArgs([]string{
		"pack", source, "hello", "1.0.0",
		"--format", "zip",
		"--output", outDir,
		"--sign", "--key", keyPath,
	})
	require.NoError(t, root.Execute())

	outPath := filepath.Join(outDir, "hello-1.0.0.zip")
	zr, err := zip.OpenReader(outPath)
	require.NoError(t, err)
	defer zr.Close()

	var sawSig, sawPub bool
	for _, f := range zr.File {
		switch filepath.Ext(f.Name) {
		case ".sig":
			sawSig = true
		case ".pub":
			sawPub = true
		}
	}
	require.True(t, sawSig, "zip archive missing signatures/*.sig entry")
	require.True(t, sawPub, "zip archive missing signatures/*.pub entry")
}

// Packing without --sign should not leave a signatures/ directory lying
// around and should still produce a valid archive.
func TestPackCmd_WithoutSignProducesPlainArchive(t *testing.T) {
	source := writePackFixture(t)
	outDir := t.TempDir()

	root := newRootCmd()
	root.SetArgs([]string{
		"pack", source, "hello", "1.0.0",
		"--format", "tar.zst",
		"--output", outDir,
	})
	require.NoError(t, root.Execute())

	outPath := filepath.Join(outDir, "hello-1.0.0.tar.zst")
	info, err := os.Stat(outPath)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}

func TestPackCmd_SignWithoutKeyFails(t *testing.T) {
	source := writePackFixture(t)
	outDir := t.TempDir()

	root := newRootCmd()
	root.SetArgs([]string{
		"pack", source, "hello", "1.0.0",
		"--output", outDir,
		"--sign",
	})
	require.Error(t, root.Execute())
}
