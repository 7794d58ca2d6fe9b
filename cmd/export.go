package cmd

import (
	"context"
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var exportUlog = grovelogging.NewUnifiedLogger("campus.cmd.export")

func NewExportCmd(svc **service.Service) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export announcements and messages as markdown notes",
		Long: `Writes announcements or messages as markdown files with YAML frontmatter.
Notes from an earlier export keep their body; only counters and the export
time are refreshed.

Examples:
  campus export announcements 1a2b3c --dir ~/notes/analysis
  campus export messages --dir ~/notes/inbox`,
	}

	announcements := &cobra.Command{
		Use:   "announcements <course-id>",
		Short: "Export the announcements of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}
			paths, err := s.ExportAnnouncements(ctx, args[0], dir)
			if err != nil {
				return err
			}
			reportExport(ctx, "announcements", dir, paths)
			return nil
		},
	}

	messages := &cobra.Command{
		Use:   "messages",
		Short: "Export the inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}
			paths, err := s.ExportMessages(ctx, dir)
			if err != nil {
				return err
			}
			reportExport(ctx, "messages", dir, paths)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&dir, "dir", "d", ".", "Directory to write notes to")
	cmd.AddCommand(announcements, messages)
	config.AddGlobalFlags(cmd)
	return cmd
}

func reportExport(ctx context.Context, what, dir string, paths []string) {
	exportUlog.Success("Exported").
		Field("kind", what).
		Field("dir", dir).
		Field("count", len(paths)).
		Pretty(fmt.Sprintf("Exported %d %s to %s", len(paths), what, dir)).
		PrettyOnly().
		Log(ctx)
}
