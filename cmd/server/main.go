package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "labs",
	Short: "Experiment tracker backend for the Nile lab",
	Long: `labs serves the lab's experiment store and activity feed over JSON-RPC
and MCP.

Configuration comes from defaults, an optional .env file, an optional YAML
file named by LABS_CONFIG_PATH and LABS_* environment variables.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
