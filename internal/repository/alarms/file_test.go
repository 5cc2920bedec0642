package alarms

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

//nolint:gochecknoglobals // Shared read-only test zone.
var msk = time.FixedZone("MSK", 3*60*60)

const sample = `alarms:
  - id: 1
    label: Before sunrise
    enabled: true
    mode: Before
    relative2: Sunrise
    time1: 1800000
    weekdays: [monday, tue, Friday]
  - id: 2
    label: Midday
    enabled: false
    mode: Between
    relative1: Sunrise
    relative2: Sunset
    snooze:
      enabled: false
      duration: 15m
  - id: 3
    label: Broken
    enabled: true
    mode: Between
    relative1: Sunset
    relative2: Sunrise
  - id: 4
    label: Fixed
    enabled: true
    mode: At
    relative1: Pick Time
    time1: 1792130400000
    volume: 40
`

func writeSample(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "alarms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), config.DefaultFilePermissions))

	return path
}

// TestFileRepository_MissingFile verifies a missing file holds no alarms.
func TestFileRepository_MissingFile(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"), msk)

	defs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, defs)

	_, err = repo.ByID(context.Background(), 1)
	require.ErrorIs(t, err, alarm.ErrNotFound)
}

// TestFileRepository_Decode verifies flat records become typed definitions and invalid ones are skipped.
func TestFileRepository_Decode(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(writeSample(t), msk)

	defs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 3)

	before := defs[0]
	require.Equal(t, int64(1), before.ID)
	require.Equal(t, alarm.Before{Anchor: alarm.SolarAnchor(alarm.Sunrise), Offset: 30 * time.Minute}, before.Mode)
	require.Equal(t, alarm.WeekdaysOf(time.Monday, time.Tuesday, time.Friday), before.Weekdays)
	require.Equal(t, alarm.DefaultSnooze(), before.Snooze)
	require.Equal(t, alarm.DefaultVolume, before.Volume)
	require.Equal(t, alarm.DefaultRingtone, before.Ringtone)

	between := defs[1]
	require.Equal(t, alarm.NewBetween(alarm.SolarAnchor(alarm.Sunrise), alarm.SolarAnchor(alarm.Sunset)), between.Mode)
	require.False(t, between.Snooze.Enabled)
	require.Equal(t, 15*time.Minute, between.Snooze.Duration)
	require.Equal(t, alarm.DefaultSnoozeMaxCount, between.Snooze.MaxCount)

	fixed := defs[2]
	require.Equal(t, int64(4), fixed.ID)
	require.Equal(t, 40, fixed.Volume)

	at, ok := fixed.Mode.(alarm.At)
	require.True(t, ok)
	require.True(t, at.Anchor.IsExplicit())
	require.Equal(t, int64(1792130400000), at.Anchor.Time().UnixMilli())
	require.Equal(t, msk, at.Anchor.Time().Location())

	enabled, err := repo.EnabledAlarms(context.Background())
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	require.Equal(t, int64(1), enabled[0].ID)
	require.Equal(t, int64(4), enabled[1].ID)

	_, err = repo.ByID(context.Background(), 3)
	require.ErrorIs(t, err, alarm.ErrValidation)
}

// TestFileRepository_CreateRoundtrip ensures created alarms are read back equal.
func TestFileRepository_CreateRoundtrip(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		repo = NewFileRepository(writeSample(t), msk)
		pick = time.Date(2026, time.October, 17, 7, 15, 0, 0, msk)
	)

	created, err := repo.Create(ctx, &alarm.Definition{
		Label:    "  Explicit after  ",
		Mode:     alarm.After{Anchor: alarm.ExplicitAnchor(pick), Offset: 5 * time.Minute},
		Weekdays: alarm.WeekdaysOf(time.Saturday),
		Enabled:  true,
		Snooze:   alarm.DefaultSnooze(),
		Volume:   55,
		Vibrate:  true,
		Ringtone: "Rooster",
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), created.ID)
	require.Equal(t, "Explicit after", created.Label)

	got, err := repo.ByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Label, got.Label)
	require.Equal(t, created.Weekdays, got.Weekdays)
	require.Equal(t, created.Snooze, got.Snooze)
	require.Equal(t, 55, got.Volume)
	require.True(t, got.Vibrate)
	require.Equal(t, "Rooster", got.Ringtone)

	after, ok := got.Mode.(alarm.After)
	require.True(t, ok)
	require.Equal(t, 5*time.Minute, after.Offset)
	require.True(t, pick.Equal(after.Anchor.Time()))
}

// TestFileRepository_CreateRejectsInvalid verifies validation at write time.
func TestFileRepository_CreateRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "alarms.yaml"), msk)

	_, err := repo.Create(context.Background(), &alarm.Definition{
		Label:  "backwards",
		Mode:   alarm.NewBetween(alarm.SolarAnchor(alarm.Sunset), alarm.SolarAnchor(alarm.Sunrise)),
		Snooze: alarm.DefaultSnooze(),
	})
	require.ErrorIs(t, err, alarm.ErrValidation)

	_, err = os.Stat(repo.Path())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileRepository_Updates verifies calculated time, enabled flag and deletion are persisted.
func TestFileRepository_Updates(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		repo = NewFileRepository(writeSample(t), msk)
		at   = time.Date(2026, time.October, 19, 6, 0, 0, 0, msk)
	)

	require.NoError(t, repo.UpdateCalculatedTime(ctx, 1, at))
	require.NoError(t, repo.UpdateEnabled(ctx, 1, false))

	got, err := repo.ByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, at.Equal(got.CalculatedTime))
	require.False(t, got.Enabled)

	require.ErrorIs(t, repo.UpdateEnabled(ctx, 42, true), alarm.ErrNotFound)
	require.ErrorIs(t, repo.UpdateCalculatedTime(ctx, 42, at), alarm.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 1))
	require.ErrorIs(t, repo.Delete(ctx, 1), alarm.ErrNotFound)

	_, err = repo.ByID(ctx, 1)
	require.ErrorIs(t, err, alarm.ErrNotFound)
}

// TestFileRepository_UnchangedWriteSkipped verifies repeated identical updates leave the file untouched.
func TestFileRepository_UnchangedWriteSkipped(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		path = writeSample(t)
		repo = NewFileRepository(path, msk)
		at   = time.Date(2026, time.October, 19, 6, 0, 0, 0, msk)
	)

	require.NoError(t, repo.UpdateCalculatedTime(ctx, 1, at))

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateCalculatedTime(ctx, 1, at))
	require.NoError(t, repo.UpdateEnabled(ctx, 1, true))

	after, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, os.SameFile(before, after))
}

// TestRecord_WrongFields verifies flat records using the wrong fields for their mode are rejected.
func TestRecord_WrongFields(t *testing.T) {
	t.Parallel()

	tests := []record{
		{ID: 1, Label: "x", Mode: "At", Relative1: "Sunrise", Relative2: "Sunset"},
		{ID: 1, Label: "x", Mode: "Before", Relative1: "Sunrise", Relative2: "Sunset"},
		{ID: 1, Label: "x", Mode: "Sideways", Relative1: "Sunrise"},
		{ID: 1, Label: "x", Mode: "At", Relative1: "Moonrise"},
		{ID: 1, Label: "x", Mode: "At", Relative1: "Sunrise", Weekdays: []string{"someday"}},
	}

	for _, rec := range tests {
		_, err := rec.toDefinition(msk)
		require.ErrorIs(t, err, alarm.ErrValidation, "mode %s", rec.Mode)
	}
}
