package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/janus-lang/janus/internal/ledger/sign"
)

func newSealCmd() *cobra.Command {
	var intoPackage bool

	cmd := &cobra.Command{
		Use:   "seal <package> <private-key> <output>",
		Short: "Sign a package's hash.b3 and write the signature and public key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			packagePath, keyPath, output := args[0], args[1], args[2]

			private, err := readKeyFile(keyPath)
			if err != nil {
				return withExitCode(exitNotFound, err)
			}
			backend, err := sign.Backend("test")
			if err != nil {
				return withExitCode(exitInternal, err)
			}

			keyID, err := sign.Seal(backend, private, packagePath)
			if err != nil {
				return withExitCode(exitInternal, fmt.Errorf("seal: %w", err))
			}

			if !intoPackage {
				sigDir := filepath.Join(packagePath, "signatures")
				if err := copySidecar(sigDir, output, keyID); err != nil {
					return withExitCode(exitInternal, err)
				}
			}

			fmt.Println(keyID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&intoPackage, "into-package", true, "write signature into package/signatures (default) instead of a sidecar directory")
	return cmd
}

func copySidecar(sigDir, output, keyID string) error {
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("create sidecar dir %s: %w", output, err)
	}
	for _, ext := range []string{".sig", ".pub"} {
		src := filepath.Join(sigDir, keyID+ext)
		dst := filepath.Join(output, keyID+ext)
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
	}
	return nil
}
