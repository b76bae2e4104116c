package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"linketron/internal/credentials"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect and manage connected LinkedIn accounts",
	}

	accountsCmd.AddCommand(newAccountsListCommand(ctx))
	accountsCmd.AddCommand(newAccountsRemoveCommand(ctx))

	return accountsCmd
}

func newAccountsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credentials with masked tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCredentials(func(repo credentials.Repository) error {
				entries, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No connected accounts")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.UserID, 10),
						e.Record.UserURN,
						credentials.Mask(e.Record.AccessToken),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"User", "Member", "Token"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}
}

func newAccountsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user_id>",
		Short: "Disconnect a user's LinkedIn account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return ctx.withCredentials(func(repo credentials.Repository) error {
				if err := repo.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for %d\n", id)
				return nil
			})
		},
	}
}
