package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/oshokin/sunrise-alarm/internal/api/grpc/control"
	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/service/watcher"
	"github.com/oshokin/sunrise-alarm/internal/version"
)

// Options controls the alarm-scheduler process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// AlarmsFile overrides the alarms file from the settings.
	AlarmsFile string
	// LogLevel overrides the log level from the settings.
	LogLevel string
	// SkipInstanceCheck allows several schedulers, e.g. in tests.
	SkipInstanceCheck bool
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")

	errUnknownLogLevel = errors.New("unknown log level")
)

// Run starts the scheduler and blocks until context is canceled or the
// gRPC server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-scheduler")

	logger.InfoKV(ctx, "Alarm scheduler starting", version.LogFields()...)

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Command line log level wins over the settings.
	if err = applyLogLevel(opts.LogLevel, settings.LogLevel); err != nil {
		return err
	}

	if !opts.SkipInstanceCheck {
		if err = ensureSingleInstance(); err != nil {
			return err
		}
	}

	loc, err := settings.TimeLocation()
	if err != nil {
		return err
	}

	// Use AlarmsFile from config unless overridden by command line option.
	alarmsFile := settings.AlarmsFile
	if opts.AlarmsFile != "" {
		alarmsFile = opts.AlarmsFile
	}

	// The watcher needs the directory to exist before the first alarm is written.
	if err = os.MkdirAll(filepath.Dir(filepath.Clean(alarmsFile)), 0o755); err != nil {
		return fmt.Errorf("create alarms directory: %w", err)
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	engine := newEngine(settings, alarmsFile, loc, func() time.Time {
		return time.Now().In(loc)
	})
	defer engine.timers.Stop()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with the control service.
	grpcServer := grpc.NewServer()
	control.RegisterControlServer(grpcServer, control.NewServer(engine.manager))

	logger.InfoKV(ctx, "Alarm scheduler listening",
		"listen_address", listenAddress,
		"alarms_file", alarmsFile,
		"timezone", loc.String(),
		"latitude", settings.Location.Latitude,
		"longitude", settings.Location.Longitude)

	// Arm the nearest alarm right away, as after a reboot.
	engine.reschedule(ctx, "startup")

	var background sync.WaitGroup

	background.Go(func() {
		engine.refreshLoop(ctx, settings.RefreshInterval)
	})

	background.Go(func() {
		watchErr := watcher.Watch(ctx, alarmsFile, func(ctx context.Context) {
			engine.reschedule(ctx, "alarms file changed")
		})
		if watchErr != nil {
			logger.ErrorKV(ctx, "Alarms file watcher stopped", "error", watchErr)
		}
	})

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	background.Wait()
	logger.Info(ctx, "Alarm scheduler stopped")

	return nil
}

// applyLogLevel sets the global level from the flag or, if empty, the settings.
func applyLogLevel(flagLevel, settingsLevel string) error {
	name := flagLevel
	if name == "" {
		name = settingsLevel
	}

	if name == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, name)
	}

	logger.SetLevel(level)

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Loopback addresses stay private; anything else binds on all interfaces.
	if ip := net.ParseIP(host); host == "localhost" || ip != nil && ip.IsLoopback() {
		return net.JoinHostPort(host, port), nil
	}

	return ":" + port, nil
}
