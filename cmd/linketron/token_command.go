package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"linketron/internal/credentials"
	"linketron/internal/linkedin"
)

// newTokenCommand is the manual OAuth helper: open the consent page, paste the
// redirect back, get a token. With --user the record is stored for that chat user.
func newTokenCommand(ctx *commandContext) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Obtain a LinkedIn access token by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			oauth := linkedin.NewOAuth(cfg.LinkedInClientID, cfg.LinkedInClientSecret, cfg.LinkedInRedirectURL, cfg.LinkedInAPIBaseURL, nil)
			if !oauth.Configured() {
				return errors.New("LINKEDIN_CLIENT_ID and LINKEDIN_CLIENT_SECRET must be set")
			}

			out := cmd.OutOrStdout()
			state := uuid.NewString()
			fmt.Fprintf(out, "1. Open this link and allow access:\n\n%s\n\n", oauth.AuthURL(state))
			fmt.Fprint(out, "2. Paste the code or the whole address you were redirected to: ")

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && strings.TrimSpace(line) == "" {
				return fmt.Errorf("read code: %w", err)
			}
			rec, err := oauth.Exchange(cmd.Context(), strings.TrimSpace(line), state)
			if err != nil {
				return err
			}

			if userID == 0 {
				fmt.Fprintf(out, "\nLINKEDIN_ACCESS_TOKEN=%s\nLINKEDIN_USER_URN=%s\n", rec.AccessToken, rec.UserURN)
				return nil
			}
			return ctx.withCredentials(func(repo credentials.Repository) error {
				if err := repo.Put(cmd.Context(), userID, rec); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nStored credentials for %d (%s)\n", userID, credentials.Mask(rec.AccessToken))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id to store the token for")
	return cmd
}
