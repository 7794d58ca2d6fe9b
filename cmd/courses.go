package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/internal/display"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var coursesUlog = grovelogging.NewUnifiedLogger("campus.cmd.courses")

func NewCoursesCmd(svc **service.Service) *cobra.Command {
	var (
		out      outputFlags
		semester string
	)

	cmd := &cobra.Command{
		Use:     "courses",
		Short:   "List your courses",
		Aliases: []string{"ls"},
		Long: `List the courses of the selected semester.

Examples:
  campus courses
  campus courses --semester 5a9a2f3e...   # switch the portal's semester first
  campus courses --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			var list *models.CourseList
			var err error
			if semester != "" {
				list, err = s.SetSemester(ctx, semester)
			} else {
				list, err = latest(s, "courses", s.Courses(ctx))
			}
			if err != nil {
				return err
			}

			if out.structured() {
				return out.write(list)
			}
			if len(list.Courses) == 0 {
				coursesUlog.Info("No courses found").
					Pretty("No courses found").
					PrettyOnly().
					Log(ctx)
				return nil
			}
			printCoursesTable(list)
			return nil
		},
	}

	out.register(cmd)
	cmd.Flags().StringVar(&semester, "semester", "", "Select a semester by id before listing")
	config.AddGlobalFlags(cmd)
	return cmd
}

func printCoursesTable(list *models.CourseList) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNUMBER\tNAME\tFORMAT\tGROUP")
	fmt.Fprintln(w, "--------------------------------\t------\t-----------------------------\t----------\t----------")

	for _, c := range list.Courses {
		group := ""
		if p, ok := list.Parent(c); ok {
			group = p.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Number, truncateString(c.Name, 40), c.Format, truncateString(group, 20))
	}

	w.Flush()
}

func NewCourseCmd(svc **service.Service) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "course <course-id>",
		Short: "Show schedule and announcements of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			meta, err := latest(s, "course", s.Course(ctx, args[0]))
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(meta)
			}
			printCourse(meta, s.Config.Location, time.Now())
			return nil
		},
	}

	out.register(cmd)
	config.AddGlobalFlags(cmd)
	return cmd
}

func printCourse(meta *models.CourseMetadata, loc *time.Location, now time.Time) {
	fmt.Println(meta.Title)
	fmt.Println()

	if len(meta.Timeslots) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tTIME\tTYPE\tROOM")
		for _, slot := range meta.Timeslots {
			rooms := make([]string, 0, len(slot.Locations))
			for _, l := range slot.Locations {
				rooms = append(rooms, l.Name)
			}
			fmt.Fprintf(w, "%s\t%s - %s\t%s\t%s\n", slot.Day, slot.StartTime, slot.EndTime, slot.Description, strings.Join(rooms, ", "))
		}
		w.Flush()
		fmt.Println()
	}

	for _, a := range meta.Announcements {
		published := time.UnixMilli(a.PublishDate).In(loc)
		fmt.Printf("%s\n  %s, %s (%s), %d views\n", a.Title, a.Author.FullName,
			published.Format("02.01.2006"), display.FuzzyDate(published, now), a.Visits)
	}
}

func NewFilesCmd(svc **service.Service) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "files <course-id>",
		Short: "Show the file tree of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			contents, err := latest(s, "files", s.CourseFiles(ctx, args[0]))
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(contents)
			}
			if err := display.Tree(os.Stdout, *contents); err != nil {
				return err
			}
			fmt.Printf("\n%d files, %s\n", contents.FileCount(), display.HumanSize(contents.TotalSize()))
			return nil
		},
	}

	out.register(cmd)
	config.AddGlobalFlags(cmd)
	return cmd
}

var downloadUlog = grovelogging.NewUnifiedLogger("campus.cmd.download")

func NewDownloadCmd(svc **service.Service) *cobra.Command {
	var (
		name string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a single file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			path, err := s.DownloadFile(ctx, name, args[0], dir)
			if err != nil {
				return err
			}
			downloadUlog.Success("Downloaded").
				Field("path", path).
				Pretty(fmt.Sprintf("Saved %s", path)).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "File name to save as")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Target directory (defaults to <sync root>/Downloads)")
	config.AddGlobalFlags(cmd)
	return cmd
}
