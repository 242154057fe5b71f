package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unblock-hq/corsair/pkg/cli"
	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/proxy/handlers"
	"unblock-hq/corsair/pkg/server"
	"unblock-hq/corsair/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the corsair proxy server",
	Long: `Start the corsair proxy server with the specified configuration.

The server listens on the configured address and serves the proxy
endpoints, the chat gateway, and the operator endpoints until it
receives SIGINT or SIGTERM.

Examples:
  # Start with default config
  corsair run

  # Start with custom config
  corsair run --config /etc/corsair/config.yaml

  # Override listen address
  corsair run --listen 0.0.0.0:8080

  # Validate config without starting the server
  corsair run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	handlers.Version = Version

	srv, err := server.New(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
