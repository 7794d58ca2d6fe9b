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
	"github.com/mattsolo1/grove-campus/pkg/search"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var searchUlog = grovelogging.NewUnifiedLogger("campus.cmd.search")

func NewSearchCmd(svc **service.Service) *cobra.Command {
	var (
		out  outputFlags
		opts search.Options
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search announcements, messages and file names seen so far",
		Long: `Searches the local index of everything fetched from the portal. No
network access is needed; run 'campus course', 'campus files' or
'campus messages' to fill the index.

Examples:
  campus search Klausur
  campus search --kind file Blatt
  campus search --course 1a2b3c Raum`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc

			results, err := s.Search(strings.Join(args, " "), &opts)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(results)
			}
			if len(results) == 0 {
				searchUlog.Info("No matches").
					Pretty("No matches").
					PrettyOnly().
					Log(ctx)
				return nil
			}
			printSearchResults(results, time.Now())
			return nil
		},
	}

	out.register(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only announcement, message or file")
	cmd.Flags().StringVar(&opts.CourseID, "course", "", "Only results of one course")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 20, "Maximum number of results")
	config.AddGlobalFlags(cmd)
	return cmd
}

func printSearchResults(results []search.Result, now time.Time) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "KIND\tDATE\tTITLE\tAUTHOR")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Kind, display.FuzzyDate(r.Date, now), truncateString(r.Title, 50), r.Author)
	}

	w.Flush()
}
