package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	require.Error(t, Validate(new(Config)))

	// Bad address.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Out of range latitude.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Location:      Location{Latitude: 95},
	}))

	// Unknown timezone.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Location:      Location{Timezone: "Mars/Olympus_Mons"},
	}))

	// Unknown log level.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		LogLevel:      "chatty",
	}))

	// Defaults are filled in.
	settings := &Config{ServerAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultRefreshInterval, settings.RefreshInterval)
	require.Equal(t, DefaultSolarCacheTTL, settings.SolarCacheTTL)
	require.Equal(t, DefaultAlarmsFilename, settings.AlarmsFile)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		AlarmsFile:    filepath.Join(dir, "alarms.yaml"),
		Location: Location{
			Latitude:  55.7558,
			Longitude: 37.6173,
			Timezone:  "UTC",
		},
		RefreshInterval: 30 * time.Minute,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.AlarmsFile, loaded.AlarmsFile)
	require.Equal(t, settings.Location, loaded.Location)
	require.Equal(t, 30*time.Minute, loaded.RefreshInterval)

	loc, err := loaded.TimeLocation()
	require.NoError(t, err)
	require.Equal(t, "UTC", loc.String())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_ParsesDurations verifies human-written YAML durations.
func TestLoad_ParsesDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := []byte(`server_addr: 127.0.0.1:7070
timeout: 2s
refresh_interval: 15m
solar_cache_ttl: 3h
location:
  latitude: 59.93
  longitude: 30.33
`)

	require.NoError(t, os.WriteFile(path, contents, DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	require.Equal(t, 3*time.Hour, cfg.SolarCacheTTL)
	require.InDelta(t, 59.93, cfg.Location.Latitude, 1e-9)
}
