package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"unblock-hq/corsair/pkg/cli"
	"unblock-hq/corsair/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and check it for errors. With --format json the effective configuration
is printed, which is useful for checking what the server would actually
run with.

Examples:
  # Validate the default config file
  corsair validate

  # Validate a specific file
  corsair validate --config /etc/corsair/config.yaml

  # Print the effective configuration
  corsair validate --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if validateFlags.format == "json" {
		// Never print credentials.
		redacted := *cfg
		if redacted.Chat.Provider.APIKey != "" {
			redacted.Chat.Provider.APIKey = "<redacted>"
		}
		if redacted.Auth.ServiceToken != "" {
			redacted.Auth.ServiceToken = "<redacted>"
		}
		return cli.NewFormatter(cli.FormatJSON).FormatTo(cmd.OutOrStdout(), redacted)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration valid\n", cfgFile)
	return nil
}
