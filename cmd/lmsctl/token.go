package main

import (
	"fmt"

	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newTokenCmd mints an access token signed with the configured secret. Useful
// for local testing without the identity provider.
func newTokenCmd(e *env) *cobra.Command {
	var userID, email, role string
	var withRefresh bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := uuid.New()
			if userID != "" {
				var err error
				if id, err = parseID("user", userID); err != nil {
					return err
				}
			}
			r := user.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			svc := jwt.NewHMACService(e.cfg.JWT.AccessSecret, e.cfg.JWT.RefreshSecret, e.cfg.JWT.AccessExpiresIn, e.cfg.JWT.RefreshExpiresIn)
			token, err := svc.GenerateAccessToken(id, email, string(r))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			if !withRefresh {
				return nil
			}
			refresh, err := svc.GenerateRefreshToken(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), refresh)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "dev@learnfinity.local", "Email claim")
	cmd.Flags().StringVar(&role, "role", string(user.RoleLearner), "Role claim (the server still reads the stored role)")
	cmd.Flags().BoolVar(&withRefresh, "refresh", false, "Also print a refresh token on a second line")
	return cmd
}
