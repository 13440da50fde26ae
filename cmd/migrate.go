package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkhq/lark/db"
	"github.com/larkhq/lark/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(*cobra.Command, []string) error {
		initLogger()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := db.Migrate(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
