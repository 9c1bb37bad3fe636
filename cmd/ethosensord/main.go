// Ethosensord is the environmental sensor node daemon.
//
// It persists the device configuration through a checksum-validated storage
// layer, polls the environmental sensor, advertises the node over mDNS, and
// serves readings and configuration over HTTP.
//
// Usage:
//
//	ethosensord serve [flags]
//
// See 'ethosensord serve --help' for available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gilestrolab/ethosensor/internal/agent"
	"github.com/gilestrolab/ethosensor/internal/logging"
	"github.com/gilestrolab/ethosensor/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ethosensord",
	Short: "Environmental Sensor Node Daemon",
	Long: `The daemon for an environmental sensor node.

It stores the device configuration (name, location, WiFi credentials) in a
checksum-validated local store, polls the environmental sensor, advertises
the node via mDNS, and serves a small JSON API over HTTP.

Note: for talking to running nodes from a workstation, use the separate
'ethosensor-cfg' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath string
	listenAddr string
	dataDir    string
	backend    string
	sensorName string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sensor node",
	Long: `Start the sensor node daemon.

Configuration is read from the YAML file given with --config; command line
flags override individual settings. Without a config file the built-in
defaults apply (block storage under /var/lib/ethosensor, IIO sensor,
HTTP on :80).

A GET /reset request makes the daemon exit with a clean shutdown and
restart itself.`,
	Example: `  # Start with defaults
  ethosensord serve

  # Start from a config file
  ethosensord serve --config /etc/ethosensor/config.yaml

  # Local development: simulated sensor, key-value storage, high port
  ethosensord serve --listen :8080 --data-dir ./data --backend kv --sensor sim`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	serveCmd.Flags().StringVar(&backend, "backend", "", "Storage backend: block or kv (overrides config)")
	serveCmd.Flags().StringVar(&sensorName, "sensor", "", "Sensor driver: iio or sim (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := agent.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if sensorName != "" {
		cfg.Sensor.Driver = sensorName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.LogLevel != "" {
		err = logging.Initialize(cfg.LogLevel)
	} else {
		err = logging.InitializeFromEnv()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A /reset request tears the node down and boots it again, the same
	// way the hardware restarts after a reset endpoint hit.
	for {
		err := agent.New(cfg).Run(ctx)
		if errors.Is(err, agent.ErrRestart) {
			continue
		}
		return err
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ethosensord %s (commit: %s)\n", version.Version, version.Commit)
	},
}
