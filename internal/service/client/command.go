package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/api/grpc/control"
	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/service/common"
)

// Action names a control API call.
type Action string

// Supported actions.
const (
	ActionScheduleNext Action = "schedule-next"
	ActionScheduleAt   Action = "schedule-at"
	ActionCancel       Action = "cancel"
	ActionFire         Action = "fire"
	ActionSnooze       Action = "snooze"
	ActionDismiss      Action = "dismiss"
	ActionEnable       Action = "enable"
	ActionDisable      Action = "disable"
	ActionDelete       Action = "delete"
)

// Options configures a single alarm-ctl call.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Action is the call to perform.
	Action Action

	// AlarmID is the target of every action except schedule-next.
	AlarmID int64

	// At is the trigger instant of schedule-at.
	At time.Time
}

var errUnknownAction = errors.New("unknown action")

// Run performs the requested action against the scheduler.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-ctl")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	// Connect to the scheduler with timeout from config.
	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	ctx = logger.WithFields(ctx, "server_address", serverAddress, "action", string(opts.Action))

	return perform(ctx, client, opts)
}

// perform issues one call and logs its result.
//
//nolint:cyclop // One branch per action.
func perform(ctx context.Context, client *common.Client, opts *Options) error {
	id := opts.AlarmID

	switch opts.Action {
	case ActionScheduleNext:
		schedule, err := client.ScheduleNext(ctx)
		if err != nil {
			return err
		}

		logger.Infof(ctx, "Scheduling pass done: %s", formatSchedule(schedule))
	case ActionScheduleAt:
		if err := client.ScheduleAt(ctx, id, opts.At); err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d armed for %s", id, opts.At.Format(time.RFC3339))
	case ActionCancel:
		if err := client.Cancel(ctx, id); err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d cancelled", id)
	case ActionFire:
		if err := client.Fire(ctx, id); err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d fired", id)
	case ActionSnooze:
		outcome, err := client.Snooze(ctx, id)
		if err != nil {
			return err
		}

		if outcome.LimitReached {
			logger.Infof(ctx, "Alarm %d reached its snooze limit and was dismissed", id)

			return nil
		}

		logger.Infof(ctx, "Alarm %d snoozed (%d) until %s", id, outcome.Count, outcome.Until.Format(time.RFC3339))
	case ActionDismiss:
		if err := client.Dismiss(ctx, id); err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d dismissed", id)
	case ActionEnable, ActionDisable:
		schedule, err := client.SetEnabled(ctx, id, opts.Action == ActionEnable)
		if err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d %sd: %s", id, opts.Action, formatSchedule(schedule))
	case ActionDelete:
		schedule, err := client.Delete(ctx, id)
		if err != nil {
			return err
		}

		logger.Infof(ctx, "Alarm %d deleted: %s", id, formatSchedule(schedule))
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}

	return nil
}

// formatSchedule converts a scheduling outcome to a readable log message.
func formatSchedule(schedule control.Schedule) string {
	if !schedule.Scheduled {
		return "nothing scheduled"
	}

	return fmt.Sprintf("next alarm %d at %s", schedule.Next.ID, schedule.Next.TriggerAt.Format(time.RFC3339))
}
