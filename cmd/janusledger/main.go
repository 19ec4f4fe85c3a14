// Command janusledger is the Janus content-addressed package manager's
// CLI (spec.md §6.1): pack, verify, seal, publish, transparency-log
// sync/verify, checkpointing, and keyring management.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janus-lang/janus/internal/obs"
)

var (
	verbose bool
	log     *zap.Logger
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "janusledger:", err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "janusledger",
		Short:         "Content-addressed package manager for Janus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = obs.New(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPackCmd(),
		newVerifyCmd(),
		newSealCmd(),
		newPublishCmd(),
		newLogSyncCmd(),
		newLogVerifyCmd(),
		newCheckpointCmd(),
		newCheckpointVerifyCmd(),
		newTrustCmd(),
	)
	return root
}

// exit codes per spec.md §6.1: 0 success, nonzero on any error
// (invalid-arg, file-not-found, verification failure, capability
// denied).
const (
	exitOK               = 0
	exitInvalidArg       = 1
	exitNotFound         = 2
	exitVerificationFail = 3
	exitCapabilityDenied = 4
	exitInternal         = 5
)

type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	return exitInternal
}
