package main

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

func newTrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage the local trusted-key keyring",
	}
	cmd.AddCommand(newTrustAddCmd(), newTrustListCmd(), newTrustRemoveCmd())
	return cmd
}

func newTrustAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <key>",
		Short: "Trust a public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			publicKey, err := readKeyFile(args[0])
			if err != nil {
				return withExitCode(exitNotFound, err)
			}
			keyring, err := openKeyring()
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			keyID, err := keyring.Trust(publicKey)
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			fmt.Println(keyID)
			return nil
		},
	}
}

func newTrustListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trusted key IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyring, err := openKeyring()
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			ids, err := keyring.List()
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func newTrustRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <keyid>",
		Short: "Remove a trusted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyring, err := openKeyring()
			if err != nil {
				return withExitCode(exitInternal, err)
			}
			if !keyring.IsTrusted(args[0]) {
				return withExitCode(exitNotFound, suggestKeyID(keyring, args[0]))
			}
			if err := keyring.Untrust(args[0]); err != nil {
				return withExitCode(exitInternal, err)
			}
			return nil
		},
	}
}

// suggestKeyID builds a "did you mean" error using fuzzy matching
// over the trusted keyring, the way runtime/planner suggests decorator
// names for CLI typos.
func suggestKeyID(keyring interface{ List() ([]string, error) }, typed string) error {
	ids, err := keyring.List()
	if err != nil || len(ids) == 0 {
		return fmt.Errorf("keyid %q not found", typed)
	}
	ranks := fuzzy.RankFindFold(typed, ids)
	if len(ranks) == 0 {
		return fmt.Errorf("keyid %q not found", typed)
	}
	return fmt.Errorf("keyid %q not found, did you mean %q?", typed, ranks[0].Target)
}
