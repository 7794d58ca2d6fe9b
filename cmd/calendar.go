package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/pkg/calendar"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var calendarUlog = grovelogging.NewUnifiedLogger("campus.cmd.calendar")

// NewCalendarCmd creates the calendar command
func NewCalendarCmd(svc **service.Service) *cobra.Command {
	var (
		out   string
		from  string
		until string
	)

	cmd := &cobra.Command{
		Use:   "calendar [course-id...]",
		Short: "Export course schedules as an iCalendar file",
		Long: `Export the weekly timeslots of your courses as recurring iCalendar events.
Without course IDs every course in the current semester is exported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			opts := calendar.Options{Location: s.Config.Location}
			var err error
			if opts.From, err = parseDay(from, s.Config.Location); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			if opts.Until, err = parseDay(until, s.Config.Location); err != nil {
				return fmt.Errorf("invalid --until: %w", err)
			}
			if !opts.Until.IsZero() {
				opts.Until = opts.Until.AddDate(0, 0, 1).Add(-time.Second)
			}

			text, err := s.Calendar(ctx, args, opts)
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write calendar: %w", err)
			}
			calendarUlog.Success("Calendar written").
				Field("path", out).
				Pretty(fmt.Sprintf("Wrote %s", out)).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&from, "from", "", "First day of the schedule (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&until, "until", "", "Last day of the weekly recurrence (YYYY-MM-DD)")
	config.AddGlobalFlags(cmd)
	return cmd
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}
