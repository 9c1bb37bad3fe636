// Ethosensor-cfg is a workstation utility for environmental sensor nodes.
//
// It provides node discovery over mDNS and direct commands for reading and
// updating a node's configuration over HTTP.
//
// Usage:
//
//	ethosensor-cfg [command] [flags]
//
// See 'ethosensor-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gilestrolab/ethosensor/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ethosensor-cfg",
	Short: "Sensor Node Configuration Utility",
	Long: `A workstation utility for environmental sensor nodes.

Provides mDNS node discovery and direct commands for reading readings,
updating node configuration, and restarting nodes.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ethosensor-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
