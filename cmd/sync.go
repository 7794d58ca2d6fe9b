package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/pkg/service"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

var syncUlog = grovelogging.NewUnifiedLogger("campus.cmd.sync")

// NewSyncCmd creates the `sync` subcommand.
func NewSyncCmd(svc **service.Service) *cobra.Command {
	var (
		path   string
		dryRun bool
		all    bool
		out    outputFlags
	)

	cmd := &cobra.Command{
		Use:   "sync [course-id]",
		Short: "Mirror course files to a local directory",
		Long: `Downloads the file tree of a course into a local directory. Files whose
size matches the local copy are skipped, so repeated runs only fetch what
changed. The target directory is remembered per course.

Without a course id, or with --all, every configured and remembered
course is synced.

Examples:
  campus sync 1a2b3c --path ~/Uni/Analysis
  campus sync 1a2b3c --dry-run
  campus sync --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			if all || len(args) == 0 {
				results, err := s.SyncAll(ctx)
				if err != nil {
					return err
				}
				if out.structured() {
					return out.write(results)
				}
				if len(results) == 0 {
					syncUlog.Info("Nothing to sync").
						Pretty("No sync targets configured or remembered").
						PrettyOnly().
						Log(ctx)
					return nil
				}
				printSyncResults(results)
				return nil
			}

			courseID := args[0]
			if dryRun {
				actions, err := s.PlanCourse(ctx, courseID, path)
				if err != nil {
					return err
				}
				if out.structured() {
					return out.write(actions)
				}
				printPlan(actions)
				return nil
			}

			report, err := s.SyncCourse(ctx, courseID, path)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(report)
			}
			syncUlog.Success("Course synced").
				Field("course", courseID).
				Field("root", report.Root).
				Field("downloaded", report.Downloaded).
				Field("failed", report.Failed).
				Pretty(formatReport(report)).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Local directory (defaults to the remembered or configured target)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be downloaded without writing anything")
	cmd.Flags().BoolVar(&all, "all", false, "Sync every configured and remembered course")
	out.register(cmd)
	config.AddGlobalFlags(cmd)
	return cmd
}

func formatReport(r *sync.Report) string {
	s := fmt.Sprintf("Synced to %s: %d downloaded, %d unchanged, %d folders created, %d failed.",
		r.Root, r.Downloaded, r.Unchanged, r.FoldersCreated, r.Failed)
	for _, e := range r.Errors {
		s += "\n  " + e
	}
	return s
}

func printSyncResults(results []service.SyncResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "COURSE\tPATH\tDOWNLOADED\tUNCHANGED\tFAILED\tERROR")
	for _, r := range results {
		downloaded, unchanged, failed := 0, 0, 0
		if r.Report != nil {
			downloaded, unchanged, failed = r.Report.Downloaded, r.Report.Unchanged, r.Report.Failed
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", r.CourseID, r.Path, downloaded, unchanged, failed, truncateString(r.Error, 40))
	}

	w.Flush()
}

func printPlan(actions []sync.Action) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, a := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Kind, a.Path, a.Reason)
	}
	w.Flush()
}

var watchUlog = grovelogging.NewUnifiedLogger("campus.cmd.watch")

// NewWatchCmd creates the `watch` subcommand.
func NewWatchCmd(svc **service.Service) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically sync every target",
		Long: `Runs 'campus sync --all' on a cron schedule until interrupted.
The schedule defaults to watch.schedule from the config file.

Examples:
  campus watch
  campus watch --schedule "*/15 * * * *"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s := *svc

			if schedule == "" {
				schedule = viper.GetString("watch.schedule")
			}

			run := func() {
				if err := requireSession(ctx, s); err != nil {
					s.Logger.WithError(err).Error("scheduled sync skipped")
					return
				}
				results, err := s.SyncAll(ctx)
				if err != nil {
					s.Logger.WithError(err).Error("scheduled sync failed")
					return
				}
				for _, r := range results {
					if r.Report == nil {
						continue
					}
					watchUlog.Info("Synced").
						Field("course", r.CourseID).
						Field("downloaded", r.Report.Downloaded).
						Pretty(formatReport(r.Report)).
						PrettyOnly().
						Log(ctx)
				}
			}

			c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
			if _, err := c.AddFunc(schedule, run); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			watchUlog.Info("Watching").
				Field("schedule", schedule).
				Pretty(fmt.Sprintf("Syncing on schedule %q, press Ctrl+C to stop", schedule)).
				PrettyOnly().
				Log(ctx)
			run()
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression or @every duration")
	config.AddGlobalFlags(cmd)
	return cmd
}
