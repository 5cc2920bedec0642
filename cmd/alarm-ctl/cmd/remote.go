package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/sunrise-alarm/internal/service/client"
)

// remoteCommand describes a control API call taking an alarm ID.
type remoteCommand struct {
	action client.Action
	short  string
}

var errInvalidAlarmID = errors.New("invalid alarm id")

//nolint:gochecknoglobals // Static command table.
var idCommands = []remoteCommand{
	{client.ActionCancel, "Cancel the pending timer of an alarm."},
	{client.ActionFire, "Fire an alarm now, as if its timer expired."},
	{client.ActionSnooze, "Snooze a ringing alarm."},
	{client.ActionDismiss, "Dismiss a ringing or snoozed alarm."},
	{client.ActionEnable, "Enable an alarm and re-arm."},
	{client.ActionDisable, "Disable an alarm and re-arm."},
	{client.ActionDelete, "Delete an alarm and re-arm."},
}

func addRemoteCommands(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "schedule-next",
		Short: "Run a scheduling pass and arm the nearest alarm.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRemote(&client.Options{Action: client.ActionScheduleNext})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schedule-at <alarm-id> <RFC3339 time>",
		Short: "Arm an alarm for an explicit future instant.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			at, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("invalid time %q: %w", args[1], err)
			}

			return runRemote(&client.Options{Action: client.ActionScheduleAt, AlarmID: id, At: at})
		},
	})

	for _, remote := range idCommands {
		root.AddCommand(&cobra.Command{
			Use:   string(remote.action) + " <alarm-id>",
			Short: remote.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				id, err := parseAlarmID(args[0])
				if err != nil {
					return err
				}

				return runRemote(&client.Options{Action: remote.action, AlarmID: id})
			},
		})
	}
}

func runRemote(opts *client.Options) error {
	ctx, stop := signalContext()
	defer stop()

	opts.ConfigPath = configPath
	opts.ServerAddress = serverAddress

	return client.Run(ctx, opts)
}

func parseAlarmID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidAlarmID, value)
	}

	return id, nil
}
