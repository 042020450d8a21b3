package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeysCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the secret keys that unlock unpublished photos",
	}
	cmd.AddCommand(
		newKeysGenerateCmd(a),
		newKeysAddCmd(a),
		newKeysListCmd(a),
		newKeysRevokeCmd(a),
	)
	return cmd
}

func newKeysGenerateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Create and store a random key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			key, err := b.Keys().Generate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newKeysAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [KEY]",
		Short: "Store a key; prompts for it when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var key string
			var err error
			switch {
			case len(args) == 1:
				key = args[0]
			case a.stdinIsTTY():
				key, err = promptSecret(cmd.ErrOrStderr(), "Secret key: ")
			default:
				key, err = promptLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Secret key: ")
			}
			if err != nil {
				return err
			}

			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			if err := b.Keys().Add(ctx, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Key added")
			return nil
		},
	}
}

func newKeysListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			keys, err := b.Keys().List(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newKeysRevokeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke KEY",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			if err := b.Keys().Revoke(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Key revoked")
			return nil
		},
	}
}
