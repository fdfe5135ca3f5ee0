package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlyingRobots-Pequi/pidcal/internal/auth"
)

var (
	tokenSecret  string
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for an operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			secret = os.Getenv("PIDCAL_AUTH_SECRET")
		}

		token, err := auth.Issue(secret, tokenSubject, tokenScopes, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret (default $PIDCAL_AUTH_SECRET)")
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "operator", "token subject")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scopes", []string{auth.ScopeTelemetry}, "granted scopes (telemetry, control)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
