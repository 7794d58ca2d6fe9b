package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/pkg/ipc"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

func NewServeCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON requests on stdin and stdout",
		Long: `Serves the portal operations to a front end over newline-delimited JSON.

Each request is {"id": "...", "name": "get_courses", "args": [...]}. Cached
data is sent first as a response with "stale": true, followed by the fresh
result. A failed request is answered with the result false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s := *svc

			// The front end expects the last session to be live.
			if _, err := s.Resume(ctx); err != nil {
				s.Logger.WithError(err).Warn("could not resume session")
			}

			d := ipc.NewDispatcher(s.Logger)
			s.RegisterHandlers(d)
			return d.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
	config.AddGlobalFlags(cmd)
	return cmd
}
