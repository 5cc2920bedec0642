package alarms

import (
	"fmt"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

// document is the on-disk layout of the alarms file.
type document struct {
	Alarms []record `yaml:"alarms"`
}

// record is the flat persisted form of an alarm.
type record struct {
	ID             int64         `yaml:"id"`
	Label          string        `yaml:"label"`
	Enabled        bool          `yaml:"enabled"`
	Mode           string        `yaml:"mode"`
	Relative1      string        `yaml:"relative1,omitempty"`
	Relative2      string        `yaml:"relative2,omitempty"`
	Time1          int64         `yaml:"time1,omitempty"`
	Time2          int64         `yaml:"time2,omitempty"`
	CalculatedTime int64         `yaml:"calculated_time,omitempty"`
	Weekdays       []string      `yaml:"weekdays,omitempty,flow"`
	Snooze         *snoozeRecord `yaml:"snooze,omitempty"`
	Volume         *int          `yaml:"volume,omitempty"`
	GradualVolume  bool          `yaml:"gradual_volume,omitempty"`
	Vibrate        bool          `yaml:"vibrate,omitempty"`
	Ringtone       string        `yaml:"ringtone,omitempty"`
}

// snoozeRecord holds snooze settings; missing fields take the defaults.
type snoozeRecord struct {
	Enabled  *bool         `yaml:"enabled,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	MaxCount int           `yaml:"max_count,omitempty"`
}

// toDefinition converts a record into a validated definition.
func (r *record) toDefinition(loc *time.Location) (*alarm.Definition, error) {
	mode, err := r.mode(loc)
	if err != nil {
		return nil, fmt.Errorf("alarm %d: %w", r.ID, err)
	}

	weekdays, err := parseWeekdays(r.Weekdays)
	if err != nil {
		return nil, fmt.Errorf("alarm %d: %w", r.ID, err)
	}

	def := &alarm.Definition{
		ID:             r.ID,
		Label:          r.Label,
		Mode:           mode,
		CalculatedTime: fromMillis(r.CalculatedTime, loc),
		Weekdays:       weekdays,
		Enabled:        r.Enabled,
		Snooze:         r.snooze(),
		Volume:         alarm.DefaultVolume,
		GradualVolume:  r.GradualVolume,
		Vibrate:        r.Vibrate,
		Ringtone:       r.Ringtone,
	}

	if r.Volume != nil {
		def.Volume = *r.Volume
	}

	if def.Ringtone == "" {
		def.Ringtone = alarm.DefaultRingtone
	}

	if err = alarm.Validate(def); err != nil {
		return nil, fmt.Errorf("alarm %d: %w", r.ID, err)
	}

	return def, nil
}

// mode builds the timing mode. At and Between read their anchors from the
// relative/time pairs; Before and After anchor on relative2/time2 and keep
// the offset in time1.
func (r *record) mode(loc *time.Location) (alarm.Mode, error) {
	kind, err := alarm.ParseModeKind(r.Mode)
	if err != nil {
		return nil, err
	}

	first, err := anchorOf(r.Relative1, r.Time1, loc)
	if err != nil {
		return nil, err
	}

	second, err := anchorOf(r.Relative2, r.Time2, loc)
	if err != nil {
		return nil, err
	}

	switch kind {
	case alarm.ModeAt:
		if !second.IsExplicit() || r.Time2 != 0 {
			return nil, fmt.Errorf("%w: mode At uses relative1 and time1 only", alarm.ErrValidation)
		}

		return alarm.At{Anchor: first}, nil
	case alarm.ModeBefore, alarm.ModeAfter:
		if !first.IsExplicit() {
			return nil, fmt.Errorf("%w: mode %s anchors on relative2", alarm.ErrValidation, kind)
		}

		offset := time.Duration(r.Time1) * time.Millisecond
		if kind == alarm.ModeBefore {
			return alarm.Before{Anchor: second, Offset: offset}, nil
		}

		return alarm.After{Anchor: second, Offset: offset}, nil
	default:
		return alarm.NewBetween(first, second), nil
	}
}

func (r *record) snooze() alarm.SnoozeSettings {
	settings := alarm.DefaultSnooze()
	if r.Snooze == nil {
		return settings
	}

	if r.Snooze.Enabled != nil {
		settings.Enabled = *r.Snooze.Enabled
	}

	if r.Snooze.Duration != 0 {
		settings.Duration = r.Snooze.Duration
	}

	if r.Snooze.MaxCount != 0 {
		settings.MaxCount = r.Snooze.MaxCount
	}

	return settings
}

// fromDefinition converts a definition into its flat record.
func fromDefinition(def *alarm.Definition) record {
	var (
		volume  = def.Volume
		enabled = def.Snooze.Enabled
		rec     = record{
			ID:             def.ID,
			Label:          def.Label,
			Enabled:        def.Enabled,
			CalculatedTime: toMillis(def.CalculatedTime),
			Weekdays:       def.Weekdays.Names(),
			Snooze: &snoozeRecord{
				Enabled:  &enabled,
				Duration: def.Snooze.Duration,
				MaxCount: def.Snooze.MaxCount,
			},
			Volume:        &volume,
			GradualVolume: def.GradualVolume,
			Vibrate:       def.Vibrate,
			Ringtone:      def.Ringtone,
		}
	)

	switch m := def.Mode.(type) {
	case alarm.At:
		rec.Mode = string(alarm.ModeAt)
		rec.Relative1, rec.Time1 = flattenAnchor(m.Anchor)
	case alarm.Before:
		rec.Mode = string(alarm.ModeBefore)
		rec.Relative2, rec.Time2 = flattenAnchor(m.Anchor)
		rec.Time1 = m.Offset.Milliseconds()
	case alarm.After:
		rec.Mode = string(alarm.ModeAfter)
		rec.Relative2, rec.Time2 = flattenAnchor(m.Anchor)
		rec.Time1 = m.Offset.Milliseconds()
	case alarm.Between:
		rec.Mode = string(alarm.ModeBetween)
		rec.Relative1, rec.Time1 = flattenAnchor(m.First)
		rec.Relative2, rec.Time2 = flattenAnchor(m.Second)
	}

	return rec
}

func anchorOf(relative string, ms int64, loc *time.Location) (alarm.Anchor, error) {
	ev, err := alarm.ParseSolarEvent(relative)
	if err != nil {
		return alarm.Anchor{}, err
	}

	if ev.IsSolar() {
		return alarm.SolarAnchor(ev), nil
	}

	return alarm.ExplicitAnchor(fromMillis(ms, loc)), nil
}

func flattenAnchor(anchor alarm.Anchor) (string, int64) {
	if anchor.IsExplicit() {
		return alarm.ExplicitTimeName, toMillis(anchor.Time())
	}

	return anchor.Event().String(), 0
}

func fromMillis(ms int64, loc *time.Location) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).In(loc)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

func parseWeekdays(names []string) (alarm.Weekdays, error) {
	var weekdays alarm.Weekdays

	for _, name := range names {
		day, err := alarm.ParseWeekday(name)
		if err != nil {
			return alarm.Weekdays{}, err
		}

		weekdays[day] = true
	}

	return weekdays, nil
}
