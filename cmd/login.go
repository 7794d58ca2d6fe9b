package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-campus/cmd/config"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

var loginUlog = grovelogging.NewUnifiedLogger("campus.cmd.login")

func NewLoginCmd(svc **service.Service) *cobra.Command {
	var (
		host     string
		username string
		password string
		token    string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the course portal",
		Long: `Log in with username and password, or adopt an existing session token.

The password is read from --password, the CAMPUS_PASSWORD environment
variable, or the first line of stdin. With --remember it is stored
encrypted so expired sessions are renewed without asking again.

Examples:
  campus login -u emuster --remember
  campus login --token 0123456789abcdef`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc

			if token != "" {
				if !s.LoginWithToken(ctx, host, token) {
					return fmt.Errorf("the portal rejected the session token")
				}
				loginUlog.Success("Session adopted").
					Pretty("Logged in with session token").
					PrettyOnly().
					Log(ctx)
				return nil
			}

			if username == "" {
				if last, err := s.Registry.LastSession(); err == nil && last != nil {
					username = last.Username
				}
			}
			if username == "" {
				return fmt.Errorf("--user is required")
			}
			if password == "" {
				password = os.Getenv("CAMPUS_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if _, err := s.Login(ctx, host, username, password, remember); err != nil {
				return err
			}
			sess, _ := s.Session()
			loginUlog.Success("Logged in").
				Field("user", username).
				Field("host", sess.Host()).
				Pretty(fmt.Sprintf("Logged in as %s at %s", username, sess.Host())).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Portal base URL (defaults to the configured host)")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Username (defaults to the last one used)")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&token, "token", "", "Adopt an existing session token instead")
	cmd.Flags().BoolVar(&remember, "remember", false, "Store the password encrypted for automatic renewal")
	config.AddGlobalFlags(cmd)
	return cmd
}

func NewLogoutCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session and the stored password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if err := (*svc).Logout(); err != nil {
				return err
			}
			loginUlog.Success("Logged out").
				Pretty("Logged out").
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}
	config.AddGlobalFlags(cmd)
	return cmd
}
