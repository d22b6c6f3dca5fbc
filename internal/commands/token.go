package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/fintrack/internal/app"
	"github.com/mmynk/fintrack/internal/auth"
)

func newTokenCommand(opts *globalOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := app.OpenStore(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			sessions := auth.NewSessions(auth.NewPasswordAuthenticator(store), store, jwtManager, logger)

			session, err := sessions.IssueToken(ctx, userID)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "user to issue the token for (required)")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}
