// Package cmd implements the CLI commands for the pricewatch server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pricewatch",
	Short: "Track product prices and suggest when to buy",
	Long: "A price tracking service that records daily product price observations, " +
		"aggregates them into a two year high/low history, classifies buy " +
		"suggestions from discount depth, and manages per-user favorites and " +
		"price alerts.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
