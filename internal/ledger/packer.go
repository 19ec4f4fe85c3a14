package ledger

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PackOptions controls the optional parts of Pack (spec.md §4.9's
// "optionally generate an SBOM").
type PackOptions struct {
	GenerateSBOM bool
}

// Pack walks sourcePath, classifies files by path prefix, optionally
// generates an SBOM, and computes the BLAKE3 Merkle root over program
// metadata, file contents, manifest, and SBOM bytes (spec.md §4.9).
// File enumeration is sorted lexicographically for reproducibility.
func Pack(sourcePath, name, version string, opts PackOptions) (PackageLayout, error) {
	files, err := enumerateFiles(sourcePath)
	if err != nil {
		return PackageLayout{}, fmt.Errorf("enumerate package files: %w", err)
	}

	program := ProgramFiles{Name: name, Version: version}
	for _, rel := range files {
		switch {
		case strings.HasPrefix(rel, "bin/"):
			program.Binaries = append(program.Binaries, rel)
		case strings.HasPrefix(rel, "lib/"):
			program.Libraries = append(program.Libraries, rel)
		case strings.HasPrefix(rel, "include/"):
			program.Headers = append(program.Headers, rel)
		default:
			program.Data = append(program.Data, rel)
		}
	}

	hashes, err := hashFilesParallel(sourcePath, files)
	if err != nil {
		return PackageLayout{}, err
	}

	manifest, err := RenderManifest(program)
	if err != nil {
		return PackageLayout{}, fmt.Errorf("render manifest: %w", err)
	}

	var sbomBytes []byte
	if opts.GenerateSBOM {
		sbomBytes, err = GenerateSBOM(name, version, sourcePath, files, hashes)
		if err != nil {
			return PackageLayout{}, fmt.Errorf("generate sbom: %w", err)
		}
	}

	root := computePackageRoot(name, version, files, hashes, manifest, sbomBytes)

	return PackageLayout{
		RootPath:   sourcePath,
		Program:    program,
		Manifest:   manifest,
		SBOM:       sbomBytes,
		MerkleRoot: root,
		HasRoot:    true,
	}, nil
}

// enumerateFiles lists every regular file under root, relative to root,
// in sorted lexicographic order (determinism requirement, §4.9).
func enumerateFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// hashFilesParallel BLAKE3-hashes each file concurrently via errgroup
// (grounded in the pack's use of golang.org/x/sync/errgroup for
// bounded fan-out), returning a path-to-hash map.
func hashFilesParallel(root string, files []string) (map[string][32]byte, error) {
	out := make(map[string][32]byte, len(files))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			sum := hashLeaf(data)
			mu.Lock()
			out[rel] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// computePackageRoot hashes {program metadata, each file's bytes (in
// sorted order), manifest bytes, SBOM bytes} as the Merkle leaf set,
// per spec.md §3.3's invariant that hash.b3 equals the BLAKE3 hash of
// that canonical concatenation. We use one Merkle leaf per component
// rather than one flat hash, so inclusion proofs over individual files
// are possible later without re-reading the whole package.
func computePackageRoot(name, version string, files []string, hashes map[string][32]byte, manifest, sbom []byte) [32]byte {
	var leaves [][32]byte
	leaves = append(leaves, hashLeaf([]byte(name+"\x00"+version)))
	for _, rel := range files {
		leaves = append(leaves, hashes[rel])
	}
	leaves = append(leaves, hashLeaf(manifest))
	if len(sbom) > 0 {
		leaves = append(leaves, hashLeaf(sbom))
	}
	return MerkleRoot(leaves)
}

// WritePackage writes layout to outputPath in the requested format:
// a .jpk directory layout, a deterministic tar.zst, or a ZIP (spec.md
// §4.9). All three write manifest.kdl, hash.b3, and the optional
// sbom.json identically; only the container differs. None of them
// writes a signatures/ directory.
//
// Callers that also need to seal the package (spec.md §4.10) should use
// StagePackage/FinalizePackage instead: WritePackage commits directly to
// outputPath, leaving no directory for sign.Seal to add a signatures/
// entry to once the format is zip or tar.zst.
func WritePackage(layout PackageLayout, outputPath string, format Format) error {
	switch format {
	case FormatJPK:
		return writeJPKDir(layout, outputPath)
	case FormatZip:
		return writeZip(layout, outputPath)
	case FormatTarZst:
		return writeTarZst(layout, outputPath)
	default:
		return fmt.Errorf("ledger: unknown package format %v", format)
	}
}

// StagePackage writes layout into a fresh temporary directory using the
// .jpk directory layout and returns that directory along with a cleanup
// function. The staged directory is a valid sign.Seal/sign.Verify
// packageDir regardless of the package's eventual output format: seal it
// (or not) before calling FinalizePackage, so a signatures/ directory
// added by sign.Seal is carried into zip and tar.zst output instead of
// being written next to an archive file that has no such directory
// (spec.md §4.9's signatures/<keyid>.{sig,pub} applies to "all three
// write_package formats" per §4.10, not just FormatJPK).
func StagePackage(layout PackageLayout) (stageDir string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "janus-pack-stage-*")
	if err != nil {
		return "", nil, fmt.Errorf("ledger: stage package: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }
	if err := writeJPKDir(layout, dir); err != nil {
		cleanup()
		return "", nil, err
	}
	return dir, cleanup, nil
}

// FinalizePackage turns a directory staged by StagePackage into the
// requested output format: the jpk format copies the staged directory
// itself to outputPath, while zip and tar.zst archive its contents
// (including any signatures/ subdirectory sign.Seal has added).
func FinalizePackage(stageDir, outputPath string, format Format) error {
	switch format {
	case FormatJPK:
		return copyDirTree(stageDir, outputPath)
	case FormatZip:
		return archiveDirAsZip(stageDir, outputPath)
	case FormatTarZst:
		return archiveDirAsTar(stageDir, outputPath)
	default:
		return fmt.Errorf("ledger: unknown package format %v", format)
	}
}

func copyDirTree(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

// listStagedFiles returns every regular file under dir, relative to dir,
// in sorted order (the same determinism requirement enumerateFiles
// applies to source trees, §4.9).
func listStagedFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func archiveDirAsZip(srcDir, outputPath string) error {
	files, err := listStagedFiles(srcDir)
	if err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zeroTime := time.Unix(0, 0).UTC()
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		hdr := &zip.FileHeader{Name: rel, Method: zip.Deflate}
		hdr.Modified = zeroTime
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func archiveDirAsTar(srcDir, outputPath string) error {
	files, err := listStagedFiles(srcDir)
	if err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	tw := newDeterministicTarWriter(f)
	defer tw.Close()
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := tw.WriteEntry(rel, data); err != nil {
			return err
		}
	}
	return nil
}

func writeJPKDir(layout PackageLayout, outputPath string) error {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputPath, "manifest.kdl"), layout.Manifest, 0o644); err != nil {
		return err
	}
	hashHex := hexEncode(layout.MerkleRoot[:])
	if err := os.WriteFile(filepath.Join(outputPath, "hash.b3"), []byte(hashHex), 0o644); err != nil {
		return err
	}
	if len(layout.SBOM) > 0 {
		if err := os.WriteFile(filepath.Join(outputPath, "sbom.json"), layout.SBOM, 0o644); err != nil {
			return err
		}
	}
	return copyPackageFiles(layout, outputPath)
}

func copyPackageFiles(layout PackageLayout, outputPath string) error {
	all := append(append(append(append([]string{}, layout.Program.Binaries...), layout.Program.Libraries...), layout.Program.Headers...), layout.Program.Data...)
	for _, rel := range all {
		src := filepath.Join(layout.RootPath, filepath.FromSlash(rel))
		dst := filepath.Join(outputPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// writeZip writes a deterministic ZIP archive: sorted entries, zeroed
// modification times, every entry deflate-compressed (determinism
// requirement, §4.9).
func writeZip(layout PackageLayout, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zeroTime := time.Unix(0, 0).UTC()

	writeEntry := func(name string, data []byte) error {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.Modified = zeroTime
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if err := writeEntry("manifest.kdl", layout.Manifest); err != nil {
		return err
	}
	if err := writeEntry("hash.b3", []byte(hexEncode(layout.MerkleRoot[:]))); err != nil {
		return err
	}
	if len(layout.SBOM) > 0 {
		if err := writeEntry("sbom.json", layout.SBOM); err != nil {
			return err
		}
	}

	all := append(append(append(append([]string{}, layout.Program.Binaries...), layout.Program.Libraries...), layout.Program.Headers...), layout.Program.Data...)
	sort.Strings(all)
	for _, rel := range all {
		data, err := os.ReadFile(filepath.Join(layout.RootPath, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := writeEntry(rel, data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// writeTarZst writes the tar entries uncompressed. Real Zstandard
// framing is an open question per spec.md §9 ("The Zstandard
// compression step in tar.zst output is a placeholder"); no repo in
// the retrieved corpus imports a zstd encoder from its own source
// (only third-party manifests list one), and the task's no-fabricated-
// dependency rule forbids reaching for a library nothing here is
// grounded on. The tar stream itself is real and deterministic
// (sorted entries, zeroed timestamps/uid/gid); only the trailing
// compression pass is a no-op.
func writeTarZst(layout PackageLayout, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeDeterministicTar(f, layout)
}

func writeDeterministicTar(w io.Writer, layout PackageLayout) error {
	tw := newDeterministicTarWriter(w)
	defer tw.Close()

	if err := tw.WriteEntry("manifest.kdl", layout.Manifest); err != nil {
		return err
	}
	if err := tw.WriteEntry("hash.b3", []byte(hexEncode(layout.MerkleRoot[:]))); err != nil {
		return err
	}
	if len(layout.SBOM) > 0 {
		if err := tw.WriteEntry("sbom.json", layout.SBOM); err != nil {
			return err
		}
	}

	all := append(append(append(append([]string{}, layout.Program.Binaries...), layout.Program.Libraries...), layout.Program.Headers...), layout.Program.Data...)
	sort.Strings(all)
	for _, rel := range all {
		data, err := os.ReadFile(filepath.Join(layout.RootPath, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := tw.WriteEntry(rel, data); err != nil {
			return err
		}
	}
	return nil
}
