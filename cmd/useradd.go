package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/larkhq/lark/internal/config"
	"github.com/larkhq/lark/internal/store"
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <email> <name>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := initLogger()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx := cmd.Context()
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		user, err := store.NewPostgres(pool, logger).CreateUser(ctx, args[0], args[1], nil)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useraddCmd)
}
