package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/auth/token"
	"github.com/creamcroissant/ordersync/internal/bootstrap"
)

func init() {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API bearer tokens",
	}
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if appConfig.Auth.SigningKey == "" || appConfig.Auth.SigningKey == "change-me" {
				return fmt.Errorf("auth.signing_key must be set before issuing tokens")
			}
			return withInfra(cmd.Context(), true, func(infra *bootstrap.Infrastructure) error {
				signed, claims, err := infra.Token.Issue(token.IssueInput{Subject: subject, Role: role, TTL: ttl})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), signed)
				logger.Info("token issued", "subject", claims.Subject, "role", claims.Role, "sid", claims.SessionID, "expires_at", claims.ExpiresAt.Time)
				return nil
			})
		},
	}
	issueCmd.Flags().StringVar(&subject, "subject", "", "Token subject (caller id)")
	issueCmd.Flags().StringVar(&role, "role", token.RoleSeller, "Role: seller, buyer or operator")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_ttl)")
	_ = issueCmd.MarkFlagRequired("subject")
	tokenCmd.AddCommand(issueCmd)

	rootCmd.AddCommand(tokenCmd)
}
