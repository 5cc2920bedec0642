package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/service/daemon"
	"github.com/oshokin/sunrise-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// alarmsFile overrides the alarms file from the settings.
	alarmsFile string
	// logLevel overrides the log level from the settings.
	logLevel string
	// skipInstanceCheck allows running next to another scheduler.
	skipInstanceCheck bool

	// rootCmd represents the base command for running the scheduler.
	rootCmd = &cobra.Command{
		Use:   "alarm-scheduler [listen-address]",
		Short: "Run the solar alarm scheduler.",
		Long: `Starts the scheduler that keeps the nearest alarm armed.

Alarms are read from the YAML alarms file and may be pinned to a clock time
or follow solar events (sunrise, sunset, twilights, solar noon) at the
configured location. The scheduler re-arms on start, on every refresh
interval and whenever the alarms file changes.

The control API (snooze, dismiss, enable, ...) is served over gRPC on the
port of ServerAddress from the settings; pass a listen address to override it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:        configPath,
				ListenAddress:     listenAddress,
				AlarmsFile:        alarmsFile,
				LogLevel:          logLevel,
				SkipInstanceCheck: skipInstanceCheck,
			})
		},
	}
)

// Execute runs the alarm-scheduler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&alarmsFile, "alarms-file", "a", "", "path to the alarms file (overrides settings)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")

	// Hidden flag for tests running several schedulers on one host.
	rootCmd.Flags().BoolVar(&skipInstanceCheck, "skip-instance-check", false, "allow several schedulers")

	err := rootCmd.Flags().MarkHidden("skip-instance-check")
	if err != nil {
		panic(err)
	}
}
