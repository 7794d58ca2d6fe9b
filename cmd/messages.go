package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/internal/display"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var messagesUlog = grovelogging.NewUnifiedLogger("campus.cmd.messages")

func NewMessagesCmd(svc **service.Service) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List inbox messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			messages, err := latest(s, "messages", s.Messages(ctx))
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(messages)
			}
			if len(messages) == 0 {
				messagesUlog.Info("No messages").
					Pretty("Your inbox is empty").
					PrettyOnly().
					Log(ctx)
				return nil
			}
			printMessagesTable(messages, time.Now())
			return nil
		},
	}

	out.register(cmd)
	config.AddGlobalFlags(cmd)
	return cmd
}

func printMessagesTable(messages []models.Message, now time.Time) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSENT\tFROM\tTITLE")
	for _, m := range messages {
		sent := display.FuzzyDate(time.UnixMilli(m.SendTime), now)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, sent, truncateString(m.Author.FullName, 24), truncateString(m.Title, 50))
	}

	w.Flush()
}

func NewMessageCmd(svc **service.Service) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "message <message-id>",
		Short: "Show the body of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc
			if err := requireSession(ctx, s); err != nil {
				return err
			}

			details, err := latest(s, "message", s.MessageDetails(ctx, args[0]))
			if err != nil {
				return err
			}
			if out.structured() {
				return out.write(details)
			}
			fmt.Printf("Recipients: %d\n\n%s\n", details.Recipients, details.Content)
			return nil
		},
	}

	out.register(cmd)
	config.AddGlobalFlags(cmd)
	return cmd
}
