package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/repository/alarms"
	"github.com/oshokin/sunrise-alarm/internal/repository/solar"
	"github.com/oshokin/sunrise-alarm/internal/service/resolver"
)

// clockLayout is the accepted format of explicit anchor times.
const clockLayout = "15:04"

// Options locates the settings and the alarms file.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// AlarmsFile overrides the alarms file from the settings.
	AlarmsFile string
}

// Entry is one alarm with its preview result.
type Entry struct {
	// Alarm is the stored definition.
	Alarm *alarm.Definition
	// Next is when the alarm would ring, zero when it would not.
	Next time.Time
	// Err explains why an enabled alarm does not resolve.
	Err error
}

// Draft describes an alarm to add in command line terms.
type Draft struct {
	Label string
	// Mode is At, Before, After or Between.
	Mode string
	// First is a solar event name or an HH:MM clock time.
	First string
	// Second is the later anchor of Between.
	Second string
	// Offset is the distance from the anchor of Before and After.
	Offset time.Duration
	// Weekdays are day names the alarm repeats on.
	Weekdays []string
	// Disabled stores the alarm without scheduling it.
	Disabled bool

	Snooze        alarm.SnoozeSettings
	Volume        int
	GradualVolume bool
	Vibrate       bool
}

// workspace is what both actions need from the settings.
type workspace struct {
	settings *config.Config
	location *time.Location
	repo     *alarms.FileRepository
}

func open(opts *Options) (*workspace, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	loc, err := settings.TimeLocation()
	if err != nil {
		return nil, err
	}

	path := settings.AlarmsFile
	if opts.AlarmsFile != "" {
		path = opts.AlarmsFile
	}

	return &workspace{
		settings: settings,
		location: loc,
		repo:     alarms.NewFileRepository(path, loc),
	}, nil
}

// Preview resolves every stored alarm against today's solar events at now.
func Preview(ctx context.Context, opts *Options, now time.Time) ([]Entry, error) {
	ctx = logger.WithName(ctx, "catalog")

	ws, err := open(opts)
	if err != nil {
		return nil, err
	}

	now = now.In(ws.location)

	defs, err := ws.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	calculator := solar.NewCalculator(ws.settings.Location.Latitude, ws.settings.Location.Longitude, ws.location)

	table, err := calculator.EventsOn(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("compute solar events: %w", err)
	}

	entries := make([]Entry, 0, len(defs))

	for _, def := range defs {
		entry := Entry{Alarm: def}

		if def.Enabled {
			entry.Next, entry.Err = resolver.Resolve(def, table, now)
			if entry.Err != nil {
				logger.WarnKV(ctx, "Alarm does not resolve", "alarm_id", def.ID, "error", entry.Err)
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Add validates the draft and appends it to the alarms file.
// Explicit clock times are pinned to the date of now.
func Add(ctx context.Context, opts *Options, draft *Draft, now time.Time) (*alarm.Definition, error) {
	ctx = logger.WithName(ctx, "catalog")

	ws, err := open(opts)
	if err != nil {
		return nil, err
	}

	def, err := draft.definition(now.In(ws.location))
	if err != nil {
		return nil, err
	}

	return ws.repo.Create(ctx, def)
}

// definition converts the draft into an alarm definition with a
// placeholder ID; the repository assigns the real one.
func (d *Draft) definition(now time.Time) (*alarm.Definition, error) {
	mode, err := BuildMode(d.Mode, d.First, d.Second, d.Offset, now)
	if err != nil {
		return nil, err
	}

	var weekdays alarm.Weekdays

	for _, name := range d.Weekdays {
		day, err := alarm.ParseWeekday(name)
		if err != nil {
			return nil, err
		}

		weekdays[day] = true
	}

	return &alarm.Definition{
		ID:            1,
		Label:         d.Label,
		Mode:          mode,
		Weekdays:      weekdays,
		Enabled:       !d.Disabled,
		Snooze:        d.Snooze,
		Volume:        d.Volume,
		GradualVolume: d.GradualVolume,
		Vibrate:       d.Vibrate,
		Ringtone:      alarm.DefaultRingtone,
	}, nil
}

// BuildMode assembles a timing mode from its command line parts.
func BuildMode(kind, first, second string, offset time.Duration, now time.Time) (alarm.Mode, error) {
	modeKind, err := alarm.ParseModeKind(kind)
	if err != nil {
		return nil, err
	}

	anchor, err := ParseAnchor(first, now)
	if err != nil {
		return nil, err
	}

	switch modeKind {
	case alarm.ModeAt:
		return alarm.At{Anchor: anchor}, nil
	case alarm.ModeBefore:
		return alarm.Before{Anchor: anchor, Offset: offset}, nil
	case alarm.ModeAfter:
		return alarm.After{Anchor: anchor, Offset: offset}, nil
	default:
		later, err := ParseAnchor(second, now)
		if err != nil {
			return nil, err
		}

		return alarm.NewBetween(anchor, later), nil
	}
}

// ParseAnchor reads an HH:MM clock time on the date of now, or a solar event name.
func ParseAnchor(value string, now time.Time) (alarm.Anchor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return alarm.Anchor{}, fmt.Errorf("%w: anchor is required", alarm.ErrValidation)
	}

	if clock, err := time.Parse(clockLayout, value); err == nil {
		year, month, day := now.Date()

		return alarm.ExplicitAnchor(time.Date(year, month, day, clock.Hour(), clock.Minute(), 0, 0, now.Location())), nil
	}

	ev, err := alarm.ParseSolarEvent(value)
	if err != nil {
		return alarm.Anchor{}, err
	}

	return alarm.SolarAnchor(ev), nil
}
