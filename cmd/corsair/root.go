package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "corsair",
	Short: "Corsair - bare web proxy with a chat-completion gateway",
	Long: `Corsair is a bare web proxy: it accepts encoded target URLs on a
same-origin path, forwards the request server-side, and relays the
response with rewritten CORS headers, so browser callers are not bound
by third-party CORS/CSP restrictions.

It provides:
  - URL-safe encoding of arbitrary targets into navigable paths
  - Per-caller rate limiting with abuse escalation
  - A TTL response cache for repeated GETs
  - A hot-reloaded blocked-hosts list
  - A chat-completion gateway with sessions and safe fallbacks`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
