package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/larkhq/lark/internal/auth"
	"github.com/larkhq/lark/internal/config"
)

var flagTokenTTL time.Duration

// tokenCmd mints a development bearer token. Production identity issuance
// lives outside this service.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user (development convenience)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("user ID must be a UUID: %w", err)
		}

		token, err := auth.NewJWTVerifier([]byte(cfg.JWTSecret)).Generate(userID, flagTokenTTL)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
