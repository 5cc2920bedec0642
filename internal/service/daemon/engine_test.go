package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

//nolint:gochecknoglobals // Shared read-only test zone.
var msk = time.FixedZone("MSK", 3*60*60)

func testSettings(exactTimersDisabled bool) *config.Config {
	return &config.Config{
		ServerAddress:       "127.0.0.1:0",
		Location:            config.Location{Latitude: 55.7558, Longitude: 37.6173},
		RefreshInterval:     time.Hour,
		SolarCacheTTL:       time.Hour,
		ExactTimersDisabled: exactTimersDisabled,
	}
}

func fixedAlarm(label string, hour int) *alarm.Definition {
	return &alarm.Definition{
		Label:   label,
		Enabled: true,
		Mode:    alarm.At{Anchor: alarm.ExplicitAnchor(time.Date(2026, time.March, 1, hour, 0, 0, 0, msk))},
		Snooze:  alarm.DefaultSnooze(),
		Volume:  alarm.DefaultVolume,
	}
}

// TestEngine_RescheduleArmsNearest verifies a pass arms the nearest alarm and persists its time.
func TestEngine_RescheduleArmsNearest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	// Far in the future so the real timers never expire during the test.
	now := time.Date(2099, time.March, 10, 8, 0, 0, 0, msk)
	e := newEngine(testSettings(false), filepath.Join(t.TempDir(), "alarms.yaml"), msk, func() time.Time { return now })

	t.Cleanup(e.timers.Stop)

	_, err := e.repo.Create(ctx, fixedAlarm("late", 22))
	require.NoError(t, err)

	early, err := e.repo.Create(ctx, fixedAlarm("early", 9))
	require.NoError(t, err)

	e.reschedule(ctx, "test")

	want := time.Date(2099, time.March, 10, 9, 0, 0, 0, msk)

	at, ok := e.timers.Pending(early.ID)
	require.True(t, ok)
	require.True(t, want.Equal(at))
	require.Equal(t, 1, e.timers.Len())

	stored, err := e.repo.ByID(ctx, early.ID)
	require.NoError(t, err)
	require.True(t, want.Equal(stored.CalculatedTime))
}

// TestEngine_RescheduleWithoutPermission verifies nothing is armed when exact timers are withheld.
func TestEngine_RescheduleWithoutPermission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2099, time.March, 10, 8, 0, 0, 0, msk)
	e := newEngine(testSettings(true), filepath.Join(t.TempDir(), "alarms.yaml"), msk, func() time.Time { return now })

	t.Cleanup(e.timers.Stop)

	_, err := e.repo.Create(ctx, fixedAlarm("early", 9))
	require.NoError(t, err)

	e.reschedule(ctx, "test")

	require.Zero(t, e.timers.Len())
	_, armed := e.scheduler.Armed()
	require.False(t, armed)
}

// TestEngine_RescheduleEmpty verifies an empty alarms file arms nothing.
func TestEngine_RescheduleEmpty(t *testing.T) {
	t.Parallel()

	e := newEngine(testSettings(false), filepath.Join(t.TempDir(), "alarms.yaml"), msk, time.Now)

	t.Cleanup(e.timers.Stop)

	e.reschedule(context.Background(), "test")

	require.Zero(t, e.timers.Len())
}
