package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janus-lang/janus/internal/ledger"
	"github.com/janus-lang/janus/internal/ledger/translog"
)

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <package> <public-key>",
		Short: "Append a statement for package to the transparency log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			packagePath, publicKeyPath := args[0], args[1]

			hashHex, err := os.ReadFile(packagePath + "/hash.b3")
			if err != nil {
				return withExitCode(exitNotFound, fmt.Errorf("read hash.b3: %w", err))
			}
			publicKey, err := readKeyFile(publicKeyPath)
			if err != nil {
				return withExitCode(exitNotFound, err)
			}
			keyID := ledger.KeyID(publicKey)

			logPath, err := hingeTranslogPath()
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			log, err := translog.Open(logPath)
			if err != nil {
				return withExitCode(exitInternal, err)
			}

			root, err := log.Publish(string(hashHex), keyID, nowUnix())
			if err != nil {
				return withExitCode(exitInternal, fmt.Errorf("publish: %w", err))
			}

			fmt.Printf("%x\n", root)
			return nil
		},
	}
	return cmd
}
