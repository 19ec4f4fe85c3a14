package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/janus-lang/janus/internal/ledger"
	"github.com/janus-lang/janus/internal/ledger/sign"
)

func newPackCmd() *cobra.Command {
	var (
		format   string
		output   string
		wantSBOM bool
		wantSign bool
		keyPath  string
	)

	cmd := &cobra.Command{
		Use:   "pack <source> <name> <version>",
		Short: "Produce a reproducible content-addressed package from a directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, version := args[0], args[1], args[2]

			if !semver.IsValid(normalizeSemver(version)) {
				return withExitCode(exitInvalidArg, fmt.Errorf("version %q is not valid semver", version))
			}

			fmtVal, err := parseFormat(format)
			if err != nil {
				return withExitCode(exitInvalidArg, err)
			}

			layout, err := ledger.Pack(source, name, version, ledger.PackOptions{GenerateSBOM: wantSBOM})
			if err != nil {
				return withExitCode(exitInternal, fmt.Errorf("pack: %w", err))
			}

			outDir := output
			if outDir == "" {
				outDir = "."
			}
			outPath := filepath.Join(outDir, fmt.Sprintf("%s-%s.%s", name, version, fmtVal))
			if fmtVal == ledger.FormatJPK {
				outPath = filepath.Join(outDir, fmt.Sprintf("%s-%s.jpk", name, version))
			}

			if wantSign && keyPath == "" {
				return withExitCode(exitInvalidArg, fmt.Errorf("--sign requires --key <path>"))
			}

			// Stage into a temporary .jpk-layout directory first so --sign
			// has a directory to add signatures/ to even when --format is
			// zip or tar.zst, where outPath names a single archive file
			// rather than a directory.
			stageDir, cleanup, err := ledger.StagePackage(layout)
			if err != nil {
				return withExitCode(exitInternal, fmt.Errorf("stage package: %w", err))
			}
			defer cleanup()

			if wantSign {
				private, err := readKeyFile(keyPath)
				if err != nil {
					return withExitCode(exitNotFound, err)
				}
				backend, err := sign.Backend("test")
				if err != nil {
					return withExitCode(exitInternal, err)
				}
				if _, err := sign.Seal(backend, private, stageDir); err != nil {
					return withExitCode(exitInternal, fmt.Errorf("seal: %w", err))
				}
			}

			if err := ledger.FinalizePackage(stageDir, outPath, fmtVal); err != nil {
				return withExitCode(exitInternal, fmt.Errorf("write package: %w", err))
			}

			log.Info("packed",
				zap.String("name", name),
				zap.String("version", version),
				zap.String("output", outPath),
				zap.String("root", fmt.Sprintf("%x", layout.MerkleRoot)),
			)
			fmt.Println(outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "jpk", "package format: jpk, tar.zst, zip")
	cmd.Flags().StringVar(&output, "output", "", "output directory")
	cmd.Flags().BoolVar(&wantSBOM, "sbom", false, "generate a CycloneDX-lite SBOM")
	cmd.Flags().BoolVar(&wantSign, "sign", false, "seal the package with --key after packing")
	cmd.Flags().StringVar(&keyPath, "key", "", "private key path, used with --sign")
	return cmd
}

func parseFormat(s string) (ledger.Format, error) {
	switch s {
	case "jpk":
		return ledger.FormatJPK, nil
	case "tar.zst":
		return ledger.FormatTarZst, nil
	case "zip":
		return ledger.FormatZip, nil
	default:
		return 0, fmt.Errorf("unknown --format %q, want jpk, tar.zst, or zip", s)
	}
}

func normalizeSemver(v string) string {
	if len(v) > 0 && v[0] == 'v' {
		return v
	}
	return "v" + v
}
