package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janus-lang/janus/internal/ledger/sign"
	"github.com/janus-lang/janus/internal/ledger/translog"
)

func newVerifyCmd() *cobra.Command {
	var (
		mode        string
		threshold   string
		exportProof string
	)

	cmd := &cobra.Command{
		Use:   "verify <package-path>",
		Short: "Verify a package's signatures against the trusted keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packagePath := args[0]

			var verifyMode sign.VerifyMode
			switch mode {
			case "strict", "":
				verifyMode = sign.VerifyMode{Strict: true}
			case "consensus":
				t, err := sign.ParseThreshold(threshold)
				if err != nil {
					return withExitCode(exitInvalidArg, err)
				}
				verifyMode = sign.VerifyMode{Consensus: t}
			default:
				return withExitCode(exitInvalidArg, fmt.Errorf("unknown --mode %q, want strict or consensus", mode))
			}

			backend, err := sign.Backend("test")
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			keyring, err := openKeyring()
			if err != nil {
				return withExitCode(exitInternal, err)
			}

			ok, err := sign.Verify(backend, packagePath, keyring, verifyMode)
			if err != nil {
				return withExitCode(exitNotFound, err)
			}
			if !ok {
				return withExitCode(exitVerificationFail, fmt.Errorf("package %s failed verification", packagePath))
			}

			if exportProof != "" {
				if err := writeExportProof(packagePath, exportProof); err != nil {
					return withExitCode(exitInternal, err)
				}
			}

			fmt.Println("OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "strict", "verification mode: strict or consensus")
	cmd.Flags().StringVar(&threshold, "threshold", "1/1", "consensus threshold N/M, used with --mode consensus")
	cmd.Flags().StringVar(&exportProof, "export-proof", "", "write a transparency-log inclusion proof to this path")
	return cmd
}

// writeExportProof looks the package's hash.b3 up in the local
// transparency log and, if present, writes its inclusion proof
// (spec.md §4.11 Exported proof).
func writeExportProof(packagePath, outPath string) error {
	hashBytes, err := os.ReadFile(packagePath + "/hash.b3")
	if err != nil {
		return fmt.Errorf("read hash.b3: %w", err)
	}

	logPath, err := hingeTranslogPath()
	if err != nil {
		return err
	}
	logg, err := translog.Open(logPath)
	if err != nil {
		return err
	}

	lines, err := logg.Lines()
	if err != nil {
		return err
	}
	var statement string
	for _, line := range lines {
		if strings.Contains(line, string(hashBytes)) {
			statement = line
			break
		}
	}
	if statement == "" {
		return fmt.Errorf("package hash not found in transparency log")
	}

	proof, ok, err := logg.ProofForStatement(statement)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not build inclusion proof")
	}
	root, err := logg.ComputeRoot()
	if err != nil {
		return err
	}

	out, err := translog.ExportProof(statement, proof, root)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}
