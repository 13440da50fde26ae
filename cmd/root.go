// Package cmd contains the lark CLI command tree.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/larkhq/lark/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "lark",
	Short: "Lark - AI concierge for planning date nights",
	Long: `Lark is a streaming conversational assistant that plans date nights:
it keeps per-conversation history, searches venues, checks the weather,
and streams its replies token by token.

Run "lark serve" to start the HTTP API.`,
	SilenceUsage: true,
}

var (
	flagDebug bool
	flagJSON  bool
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "log-json", false, "log in JSON format")
}

// initLogger builds the process logger from the persistent flags and
// installs it as the slog default.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: flagJSON})
	slog.SetDefault(logger)
	return logger
}
