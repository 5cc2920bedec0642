package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
)

// Location is the observer position used to compute solar events.
type Location struct {
	// Latitude in degrees, north positive.
	Latitude float64 `yaml:"latitude"`
	// Longitude in degrees, east positive.
	Longitude float64 `yaml:"longitude"`
	// Timezone is the IANA zone alarms are evaluated in; empty means the system zone.
	Timezone string `yaml:"timezone,omitempty"`
}

// Config holds parameters shared by the alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the scheduler control API.
	ServerAddress string `yaml:"server_addr"`
	// AlarmsFile is the path to the YAML file storing alarm definitions.
	AlarmsFile string `yaml:"alarms_file"`
	// Location is the observer position for solar events.
	Location Location `yaml:"location"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// RefreshInterval is how often the daemon recomputes the next alarm,
	// following the daily drift of solar events.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// SolarCacheTTL is how long computed solar events are reused.
	SolarCacheTTL time.Duration `yaml:"solar_cache_ttl"`
	// ExactTimersDisabled withholds the exact timer permission, for
	// environments where precise wake-ups are not allowed.
	ExactTimersDisabled bool `yaml:"exact_timers_disabled,omitempty"`
	// LogLevel is the minimum level of log entries.
	LogLevel string `yaml:"log_level,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "sunrise-alarm-settings.yaml"

	// DefaultAlarmsFilename is the default filename for alarm definitions.
	DefaultAlarmsFilename = "sunrise-alarms.yaml"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultRefreshInterval is the default period of scheduling passes.
	DefaultRefreshInterval = time.Hour

	// DefaultSolarCacheTTL is the default validity of computed solar events.
	DefaultSolarCacheTTL = 6 * time.Hour

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings for required fields and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if err := alarm.ValidateCoordinates(settings.Location.Latitude, settings.Location.Longitude); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}

	if _, err := settings.TimeLocation(); err != nil {
		return err
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.RefreshInterval <= 0 {
		settings.RefreshInterval = DefaultRefreshInterval
	}

	if settings.SolarCacheTTL <= 0 {
		settings.SolarCacheTTL = DefaultSolarCacheTTL
	}

	if settings.AlarmsFile == "" {
		settings.AlarmsFile = DefaultAlarmsFilename
	}

	return nil
}

// TimeLocation returns the zone alarms are evaluated in.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Location.Timezone, err)
	}

	return loc, nil
}
