package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the scheduler address from the settings.
	serverAddress string
	// alarmsFile overrides the alarms file for offline commands.
	alarmsFile string
	// logLevel sets the minimum level of log entries.
	logLevel string

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command for controlling alarms.
	rootCmd = &cobra.Command{
		Use:   "alarm-ctl",
		Short: "Manage solar alarms.",
		Long: `Controls the alarm scheduler and edits the alarms file.

Remote commands (schedule-next, snooze, dismiss, ...) talk to a running
alarm-scheduler over gRPC. Offline commands (add, preview) work on the alarms
file directly; a running scheduler notices the change and re-arms.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}

			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "scheduler address (overrides settings)")
	rootCmd.PersistentFlags().StringVarP(&alarmsFile, "alarms-file", "a", "", "path to the alarms file (overrides settings)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")

	addRemoteCommands(rootCmd)
	addOfflineCommands(rootCmd)
}
