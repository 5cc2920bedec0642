package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/service/catalog"
)

func addOfflineCommands(root *cobra.Command) {
	root.AddCommand(newAddCommand(), &cobra.Command{
		Use:   "preview",
		Short: "Show when every alarm would ring next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			entries, err := catalog.Preview(ctx, offlineOptions(), time.Now())
			if err != nil {
				return err
			}

			return printPreview(cmd.OutOrStdout(), entries)
		},
	})
}

func newAddCommand() *cobra.Command {
	draft := catalog.Draft{
		Snooze: alarm.DefaultSnooze(),
		Volume: alarm.DefaultVolume,
	}

	command := &cobra.Command{
		Use:   "add <label>",
		Short: "Add an alarm to the alarms file.",
		Long: `Adds an alarm to the alarms file.

Anchors are HH:MM clock times or solar events: astronomical dawn, nautical
dawn, civil dawn, sunrise, solar noon, sunset, civil dusk, nautical dusk,
astronomical dusk.

Examples:
  alarm-ctl add "Wake up" --mode Before --first sunrise --offset 30m --days mon,tue,wed,thu,fri
  alarm-ctl add "Lunch" --mode Between --first sunrise --second sunset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			draft.Label = args[0]

			def, err := catalog.Add(ctx, offlineOptions(), &draft, time.Now())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added alarm %d %q\n", def.ID, def.Label)

			return err
		},
	}

	flags := command.Flags()
	flags.StringVarP(&draft.Mode, "mode", "m", string(alarm.ModeAt), "timing mode: At, Before, After, Between")
	flags.StringVarP(&draft.First, "first", "f", "", "anchor: HH:MM or a solar event")
	flags.StringVar(&draft.Second, "second", "", "later anchor of Between")
	flags.DurationVarP(&draft.Offset, "offset", "o", 0, "offset of Before and After")
	flags.StringSliceVarP(&draft.Weekdays, "days", "d", nil, "repeat on these weekdays")
	flags.BoolVar(&draft.Disabled, "disabled", false, "store the alarm disabled")
	flags.BoolVar(&draft.Snooze.Enabled, "snooze", draft.Snooze.Enabled, "allow snoozing")
	flags.DurationVar(&draft.Snooze.Duration, "snooze-duration", draft.Snooze.Duration, "length of one snooze")
	flags.IntVar(&draft.Snooze.MaxCount, "snooze-max", draft.Snooze.MaxCount, "snoozes allowed per ring")
	flags.IntVar(&draft.Volume, "volume", draft.Volume, "volume 0-100")
	flags.BoolVar(&draft.GradualVolume, "gradual-volume", false, "raise the volume gradually")
	flags.BoolVar(&draft.Vibrate, "vibrate", false, "vibrate while ringing")

	return command
}

func offlineOptions() *catalog.Options {
	return &catalog.Options{
		ConfigPath: configPath,
		AlarmsFile: alarmsFile,
	}
}

func printPreview(out io.Writer, entries []catalog.Entry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ID\tLABEL\tMODE\tDAYS\tNEXT")

	for _, entry := range entries {
		def := entry.Alarm

		days := "once"
		if def.IsRepeating() {
			days = strings.Join(def.Weekdays.Names(), ",")
		}

		var next string

		switch {
		case !def.Enabled:
			next = "disabled"
		case entry.Err != nil:
			next = "error: " + entry.Err.Error()
		default:
			next = entry.Next.Format("Mon 2006-01-02 15:04")
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", def.ID, def.Label, def.Mode.Kind(), days, next)
	}

	return w.Flush()
}
