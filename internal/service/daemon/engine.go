package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/repository/alarms"
	"github.com/oshokin/sunrise-alarm/internal/repository/solar"
	"github.com/oshokin/sunrise-alarm/internal/service/lifecycle"
	"github.com/oshokin/sunrise-alarm/internal/service/scheduler"
	"github.com/oshokin/sunrise-alarm/internal/timer"
)

// engine bundles the scheduling components of one daemon.
type engine struct {
	// repo stores the alarm definitions.
	repo *alarms.FileRepository
	// timers arms wake-ups inside the process.
	timers *timer.Local
	// scheduler owns the timer slot.
	scheduler *scheduler.Scheduler
	// manager drives snoozes and dismissals.
	manager *lifecycle.Manager
}

// newEngine wires the repository, solar source, timers and lifecycle.
// now must return times in the zone alarms are evaluated in.
func newEngine(settings *config.Config, alarmsFile string, loc *time.Location, now func() time.Time) *engine {
	var (
		repo       = alarms.NewFileRepository(alarmsFile, loc)
		calculator = solar.NewCalculator(settings.Location.Latitude, settings.Location.Longitude, loc)
		cache      = solar.NewCache(calculator, settings.SolarCacheTTL, solar.WithClock(now))
		timers     = timer.NewLocal(!settings.ExactTimersDisabled)
		e          = &engine{
			repo:   repo,
			timers: timers,
		}
	)

	// The scheduler fires into the manager, which is built on top of it.
	e.scheduler = scheduler.New(repo, cache, timers, func(ctx context.Context, id int64) {
		e.manager.OnFire(ctx, id)
	}, scheduler.WithClock(now))

	e.manager = lifecycle.NewManager(e.scheduler, repo,
		lifecycle.WithClock(now),
		lifecycle.WithRingHook(ring))

	return e
}

// reschedule runs a scheduling pass and logs its outcome.
func (e *engine) reschedule(ctx context.Context, reason string) {
	ctx = logger.WithKV(ctx, "pass", reason)

	next, err := e.manager.ScheduleNext(ctx)

	switch {
	case errors.Is(err, alarm.ErrPermissionDenied):
		logger.ErrorKV(ctx, "Alarm cannot be armed: exact timers are not permitted", "error", err)
	case err != nil:
		logger.ErrorKV(ctx, "Scheduling pass failed", "error", err)
	case next == nil:
		logger.Info(ctx, "No alarm is armed")
	default:
		logger.InfoKV(ctx, "Next alarm armed", "alarm_id", next.ID, "trigger_at", next.TriggerAt.Format(time.RFC3339))
	}
}

// refreshLoop reruns the scheduling pass every interval so solar alarms
// follow the daily drift of the events.
func (e *engine) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reschedule(ctx, "refresh")
		}
	}
}

// ring reports a firing alarm. Playback belongs to an external presenter.
func ring(ctx context.Context, episode lifecycle.Episode, def *alarm.Definition) {
	logger.InfoKV(ctx, "Alarm ringing",
		"label", def.Label,
		"snoozes", episode.Snoozes,
		"snooze_max", def.Snooze.MaxCount,
		"volume", def.Volume,
		"gradual_volume", def.GradualVolume,
		"vibrate", def.Vibrate,
		"ringtone", def.Ringtone)
}
